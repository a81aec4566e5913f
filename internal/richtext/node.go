// Package richtext models the CMS rich-text document as a tagged tree and
// renders it to HTML or plain text.
//
// The JSON shape is the one the Contentful Delivery API returns:
//
//	{"nodeType":"document","content":[
//	  {"nodeType":"paragraph","content":[
//	    {"nodeType":"text","value":"Hello ","marks":[]},
//	    {"nodeType":"text","value":"world","marks":[{"type":"bold"}]}
//	  ]}
//	]}
//
// Every node carries its kind in Type; the renderers switch over it.
package richtext

// NodeType identifies the variant of a Node.
type NodeType string

const (
	Document            NodeType = "document"
	Paragraph           NodeType = "paragraph"
	Heading1            NodeType = "heading-1"
	Heading2            NodeType = "heading-2"
	Heading3            NodeType = "heading-3"
	Heading4            NodeType = "heading-4"
	Heading5            NodeType = "heading-5"
	Heading6            NodeType = "heading-6"
	UnorderedList       NodeType = "unordered-list"
	OrderedList         NodeType = "ordered-list"
	ListItem            NodeType = "list-item"
	Quote               NodeType = "blockquote"
	HR                  NodeType = "hr"
	Table               NodeType = "table"
	TableRow            NodeType = "table-row"
	TableCell           NodeType = "table-cell"
	TableHeaderCell     NodeType = "table-header-cell"
	Hyperlink           NodeType = "hyperlink"
	EntryHyperlink      NodeType = "entry-hyperlink"
	AssetHyperlink      NodeType = "asset-hyperlink"
	EmbeddedAsset       NodeType = "embedded-asset-block"
	EmbeddedEntry       NodeType = "embedded-entry-block"
	EmbeddedEntryInline NodeType = "embedded-entry-inline"
	Text                NodeType = "text"
)

// MarkType is a formatting mark applied to a text node.
type MarkType string

const (
	Bold          MarkType = "bold"
	Italic        MarkType = "italic"
	Underline     MarkType = "underline"
	Code          MarkType = "code"
	Strikethrough MarkType = "strikethrough"
	Superscript   MarkType = "superscript"
	Subscript     MarkType = "subscript"
)

// Node is one element of the document tree. Block and inline nodes use
// Content; text nodes use Value and Marks.
type Node struct {
	Type    NodeType `json:"nodeType"`
	Content []Node   `json:"content,omitempty"`
	Value   string   `json:"value,omitempty"`
	Marks   []Mark   `json:"marks,omitempty"`
	Data    Data     `json:"data"`
}

type Mark struct {
	Type MarkType `json:"type"`
}

// Data holds the per-kind payload: URI for hyperlinks, Target for links to
// entries and assets.
type Data struct {
	URI    string  `json:"uri,omitempty"`
	Target *Target `json:"target,omitempty"`
}

// Target is a link to another CMS object. The Delivery API only returns
// Sys; Fields is filled in when the content client resolves the link
// against the response includes.
type Target struct {
	Sys    LinkSys       `json:"sys"`
	Fields *TargetFields `json:"fields,omitempty"`
}

type LinkSys struct {
	ID          string  `json:"id"`
	Type        string  `json:"type,omitempty"`
	LinkType    string  `json:"linkType,omitempty"`
	ContentType *Target `json:"contentType,omitempty"`
}

// TargetFields is the subset of asset/entry fields the renderer uses.
type TargetFields struct {
	Title       string `json:"title,omitempty"`
	Description string `json:"description,omitempty"`
	File        *File  `json:"file,omitempty"`
}

type File struct {
	URL         string `json:"url"`
	ContentType string `json:"contentType,omitempty"`
}

// Walk calls fn for n and every descendant, depth first. fn receives a
// pointer into the tree so it may fill in link targets in place.
func (n *Node) Walk(fn func(*Node)) {
	if n == nil {
		return
	}
	fn(n)
	for i := range n.Content {
		n.Content[i].Walk(fn)
	}
}

// headingLevel returns 1-6 for heading kinds and 0 otherwise.
func headingLevel(t NodeType) int {
	switch t {
	case Heading1:
		return 1
	case Heading2:
		return 2
	case Heading3:
		return 3
	case Heading4:
		return 4
	case Heading5:
		return 5
	case Heading6:
		return 6
	}
	return 0
}
