package richtext

import (
	"fmt"
	"html"
	"net/url"
	"strings"
	"unicode/utf8"
)

// emptyDocumentHTML is rendered when an essay has no body.
const emptyDocumentHTML = `<p class="empty">No content available</p>`

// RenderHTML converts a document tree to HTML. Text is always escaped; the
// only markup in the output is produced by this package.
func RenderHTML(doc *Node) string {
	if doc == nil {
		return emptyDocumentHTML
	}
	var b strings.Builder
	renderNode(&b, doc)
	return b.String()
}

func renderNode(b *strings.Builder, n *Node) {
	switch n.Type {
	case Document:
		renderChildren(b, n)
	case Paragraph:
		wrap(b, "p", n)
	case Heading1, Heading2, Heading3, Heading4, Heading5, Heading6:
		wrap(b, fmt.Sprintf("h%d", headingLevel(n.Type)), n)
	case UnorderedList:
		wrap(b, "ul", n)
	case OrderedList:
		wrap(b, "ol", n)
	case ListItem:
		wrap(b, "li", n)
	case Quote:
		wrap(b, "blockquote", n)
	case HR:
		b.WriteString("<hr>\n")
	case Table:
		b.WriteString("<table>\n<tbody>\n")
		renderChildren(b, n)
		b.WriteString("</tbody>\n</table>\n")
	case TableRow:
		wrap(b, "tr", n)
	case TableCell:
		wrap(b, "td", n)
	case TableHeaderCell:
		wrap(b, "th", n)
	case Hyperlink:
		renderLink(b, n.Data.URI, true, n)
	case EntryHyperlink:
		href := ""
		if n.Data.Target != nil {
			href = "/essays/" + n.Data.Target.Sys.ID
		}
		renderLink(b, href, false, n)
	case AssetHyperlink:
		href := ""
		if f := targetFields(n); f != nil && f.File != nil {
			href = absoluteURL(f.File.URL)
		}
		renderLink(b, href, true, n)
	case EmbeddedAsset:
		renderAsset(b, n)
	case EmbeddedEntry, EmbeddedEntryInline:
		renderEntry(b, n)
	case Text:
		renderText(b, n)
	default:
		// Unknown kinds keep their children so new CMS node types degrade
		// to plain content instead of disappearing.
		renderChildren(b, n)
	}
}

func renderChildren(b *strings.Builder, n *Node) {
	for i := range n.Content {
		renderNode(b, &n.Content[i])
	}
}

func wrap(b *strings.Builder, tag string, n *Node) {
	b.WriteString("<" + tag + ">")
	renderChildren(b, n)
	b.WriteString("</" + tag + ">\n")
}

// linkSchemes are the URL schemes a rendered href may carry. Relative
// references have no scheme and are always allowed.
var linkSchemes = map[string]bool{"": true, "http": true, "https": true, "mailto": true}

// safeHref reports whether href may be emitted as a link target. Anything
// that does not parse, or names another scheme (javascript:, data:), is not.
func safeHref(href string) bool {
	u, err := url.Parse(href)
	return err == nil && linkSchemes[u.Scheme]
}

// renderLink writes an anchor around n's children. An unsafe href drops the
// anchor and keeps the text.
func renderLink(b *strings.Builder, href string, external bool, n *Node) {
	if !safeHref(href) {
		renderChildren(b, n)
		return
	}
	b.WriteString(`<a href="`)
	b.WriteString(html.EscapeString(href))
	b.WriteString(`"`)
	if external {
		b.WriteString(` target="_blank" rel="noopener noreferrer"`)
	}
	b.WriteString(">")
	renderChildren(b, n)
	b.WriteString("</a>")
}

func renderAsset(b *strings.Builder, n *Node) {
	f := targetFields(n)
	if f == nil || f.File == nil || f.File.URL == "" {
		return
	}
	alt := f.Description
	if alt == "" {
		alt = f.Title
	}
	b.WriteString("<figure>")
	fmt.Fprintf(b, `<img src="%s" alt="%s" loading="lazy">`,
		html.EscapeString(absoluteURL(f.File.URL)), html.EscapeString(alt))
	if f.Title != "" {
		b.WriteString("<figcaption>" + html.EscapeString(f.Title) + "</figcaption>")
	}
	b.WriteString("</figure>\n")
}

func renderEntry(b *strings.Builder, n *Node) {
	kind, title := "entry", "Untitled"
	if t := n.Data.Target; t != nil {
		if ct := t.Sys.ContentType; ct != nil && ct.Sys.ID != "" {
			kind = ct.Sys.ID
		}
		if t.Fields != nil && t.Fields.Title != "" {
			title = t.Fields.Title
		}
	}
	fmt.Fprintf(b, `<div class="embedded-entry">Embedded %s: %s</div>`+"\n",
		html.EscapeString(kind), html.EscapeString(title))
}

// renderText escapes the value and applies marks in order, so the first
// mark ends up innermost.
func renderText(b *strings.Builder, n *Node) {
	out := html.EscapeString(n.Value)
	for _, m := range n.Marks {
		switch m.Type {
		case Bold:
			out = "<strong>" + out + "</strong>"
		case Italic:
			out = "<em>" + out + "</em>"
		case Underline:
			out = "<u>" + out + "</u>"
		case Code:
			out = "<code>" + out + "</code>"
		case Strikethrough:
			out = "<del>" + out + "</del>"
		case Superscript:
			out = "<sup>" + out + "</sup>"
		case Subscript:
			out = "<sub>" + out + "</sub>"
		}
	}
	b.WriteString(out)
}

func targetFields(n *Node) *TargetFields {
	if n.Data.Target == nil {
		return nil
	}
	return n.Data.Target.Fields
}

// absoluteURL upgrades the protocol-relative URLs the CMS uses for assets.
func absoluteURL(u string) string {
	if strings.HasPrefix(u, "//") {
		return "https:" + u
	}
	return u
}

// PlainText returns the text content of the tree. Block boundaries become a
// single space.
func PlainText(doc *Node) string {
	if doc == nil {
		return ""
	}
	var parts []string
	var cur strings.Builder
	flush := func() {
		if t := strings.TrimSpace(cur.String()); t != "" {
			parts = append(parts, t)
		}
		cur.Reset()
	}
	var walk func(n *Node)
	walk = func(n *Node) {
		if n.Type == Text {
			cur.WriteString(n.Value)
			return
		}
		for i := range n.Content {
			walk(&n.Content[i])
		}
		if isBlock(n.Type) {
			flush()
		}
	}
	walk(doc)
	flush()
	return strings.Join(parts, " ")
}

func isBlock(t NodeType) bool {
	switch t {
	case Hyperlink, EntryHyperlink, AssetHyperlink, EmbeddedEntryInline, Text:
		return false
	}
	return true
}

// Excerpt returns at most n runes of the document's plain text, cut at a
// word boundary when one is available.
func Excerpt(doc *Node, n int) string {
	text := PlainText(doc)
	if utf8.RuneCountInString(text) <= n {
		return text
	}
	runes := []rune(text)
	cut := string(runes[:n])
	if i := strings.LastIndex(cut, " "); i > 0 {
		cut = cut[:i]
	}
	return strings.TrimRight(cut, " ,.;:") + "…"
}
