package content

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/sakif/essay-site/internal/apperror"
	"github.com/sakif/essay-site/internal/model"
	"github.com/sakif/essay-site/internal/richtext"
)

const (
	// DefaultBaseURL is the Contentful Content Delivery API.
	DefaultBaseURL = "https://cdn.contentful.com"
	// essayContentType is the CMS content type holding essays.
	essayContentType = "articles"
	// entriesPath is resolved against the base URL with the path params below.
	entriesPath = "/spaces/{spaceId}/environments/{environment}/entries"
	// maxErrorBody caps how much of a failed response is kept for the log.
	maxErrorBody = 512
	// defaultTimeout bounds one request when no HTTPClient is supplied.
	defaultTimeout = 10 * time.Second
)

// ClientConfig configures a Client.
type ClientConfig struct {
	BaseURL     string
	SpaceID     string
	Environment string
	AccessToken string
	// HTTPClient replaces the transport resty builds by default (tests pass
	// an httptest client here).
	HTTPClient *http.Client
}

// Client reads essays from the Contentful Content Delivery API.
type Client struct {
	rest   *resty.Client
	logger *slog.Logger
}

var _ Store = (*Client)(nil)

// NewClient returns a Client. SpaceID and AccessToken are required.
//
// The resty client carries everything shared by every call: base URL,
// bearer token, timeout and the space/environment path params.
func NewClient(cfg ClientConfig, logger *slog.Logger) (*Client, error) {
	if cfg.SpaceID == "" || cfg.AccessToken == "" {
		return nil, fmt.Errorf("content: space id and access token are required")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Environment == "" {
		cfg.Environment = "master"
	}

	var rest *resty.Client
	if cfg.HTTPClient != nil {
		rest = resty.NewWithClient(cfg.HTTPClient)
	} else {
		rest = resty.New().SetTimeout(defaultTimeout)
	}
	rest.SetLogger(restyLogger{logger}).
		SetBaseURL(strings.TrimRight(cfg.BaseURL, "/")).
		SetAuthToken(cfg.AccessToken).
		SetHeader("Accept", "application/json").
		SetPathParams(map[string]string{
			"spaceId":     cfg.SpaceID,
			"environment": cfg.Environment,
		})

	return &Client{rest: rest, logger: logger}, nil
}

// ListEssays fetches all essays ordered by publish date, newest first.
func (c *Client) ListEssays(ctx context.Context) ([]model.Essay, error) {
	resp, err := c.fetchEntries(ctx, map[string]string{
		"content_type": essayContentType,
		"order":        "-fields.publishDate",
		"include":      "1",
	})
	if err != nil {
		return nil, err
	}

	essays := make([]model.Essay, 0, len(resp.Items))
	for _, item := range resp.Items {
		essays = append(essays, resp.toEssay(item))
	}
	return essays, nil
}

// GetEssay fetches one essay by its sys.id.
func (c *Client) GetEssay(ctx context.Context, id string) (*model.Essay, error) {
	resp, err := c.fetchEntries(ctx, map[string]string{
		"content_type": essayContentType,
		"sys.id":       id,
		"limit":        "1",
		"include":      "2",
	})
	if err != nil {
		return nil, err
	}
	if len(resp.Items) == 0 {
		return nil, apperror.NotFound("essay", id)
	}
	essay := resp.toEssay(resp.Items[0])
	return &essay, nil
}

// fetchEntries runs one GET against the entries endpoint. The body is always
// decoded as JSON: the CDN answers application/vnd.contentful.delivery.v1+json,
// which resty would otherwise leave undecoded.
func (c *Client) fetchEntries(ctx context.Context, query map[string]string) (*entriesResponse, error) {
	var out entriesResponse
	resp, err := c.rest.R().
		SetContext(ctx).
		SetQueryParams(query).
		ForceContentType("application/json").
		SetResult(&out).
		Get(entriesPath)
	if err != nil {
		return nil, apperror.StorageUnavailable("content: fetching entries", err)
	}

	if !resp.IsSuccess() {
		body := resp.String()
		if len(body) > maxErrorBody {
			body = body[:maxErrorBody]
		}
		c.logger.Warn("content API returned an error",
			slog.Int("status", resp.StatusCode()),
			slog.String("body", body),
		)
		return nil, apperror.StorageUnavailable("content: fetching entries",
			fmt.Errorf("unexpected status %d", resp.StatusCode()))
	}

	c.logger.Debug("content entries fetched",
		slog.Int("items", len(out.Items)),
		slog.Duration("duration", resp.Time()),
	)
	return &out, nil
}

// restyLogger routes resty's own warnings into the service log.
type restyLogger struct{ l *slog.Logger }

func (r restyLogger) Errorf(format string, v ...any) { r.l.Error(fmt.Sprintf(format, v...)) }
func (r restyLogger) Warnf(format string, v ...any) { r.l.Warn(fmt.Sprintf(format, v...)) }
func (r restyLogger) Debugf(format string, v ...any) { r.l.Debug(fmt.Sprintf(format, v...)) }

// =========================================================================
// WIRE FORMAT
// =========================================================================

type entriesResponse struct {
	Items    []entry `json:"items"`
	Includes struct {
		Asset []asset `json:"Asset"`
		Entry []entry `json:"Entry"`
	} `json:"includes"`
}

type sys struct {
	ID          string           `json:"id"`
	Type        string           `json:"type"`
	ContentType *richtext.Target `json:"contentType,omitempty"`
}

type entry struct {
	Sys    sys                        `json:"sys"`
	Fields map[string]json.RawMessage `json:"fields"`
}

type asset struct {
	Sys    sys                   `json:"sys"`
	Fields richtext.TargetFields `json:"fields"`
}

type link struct {
	Sys richtext.LinkSys `json:"sys"`
}

func (r *entriesResponse) toEssay(item entry) model.Essay {
	f := item.Fields
	essay := model.Essay{
		ID:           item.Sys.ID,
		Title:        textField(f["title"]),
		Author:       textField(f["author"]),
		Category:     textField(f["category"]),
		Tags:         tagsField(f["tags"]),
		PublishDate:  dateField(f["publishDate"]),
		Nugget:       textField(f["nugget"]),
		NuggetAuthor: textField(f["nuggetAuthor"]),
	}

	if raw, ok := f["article"]; ok {
		var doc richtext.Node
		if err := json.Unmarshal(raw, &doc); err == nil {
			r.resolveLinks(&doc)
			essay.Body = &doc
		}
	}

	if raw, ok := f["blogImage"]; ok {
		var l link
		if err := json.Unmarshal(raw, &l); err == nil {
			if a := r.findAsset(l.Sys.ID); a != nil && a.Fields.File != nil {
				essay.CoverImage = &model.Image{
					URL:         absoluteURL(a.Fields.File.URL),
					Title:       a.Fields.Title,
					Description: a.Fields.Description,
				}
			}
		}
	}
	return essay
}

// resolveLinks fills Target.Fields for every asset or entry the document
// links to and the response included.
func (r *entriesResponse) resolveLinks(doc *richtext.Node) {
	doc.Walk(func(n *richtext.Node) {
		t := n.Data.Target
		if t == nil || t.Fields != nil {
			return
		}
		switch t.Sys.LinkType {
		case "Asset":
			if a := r.findAsset(t.Sys.ID); a != nil {
				fields := a.Fields
				t.Fields = &fields
			}
		case "Entry":
			for _, e := range r.Includes.Entry {
				if e.Sys.ID != t.Sys.ID {
					continue
				}
				t.Fields = &richtext.TargetFields{Title: textField(e.Fields["title"])}
				if t.Sys.ContentType == nil {
					t.Sys.ContentType = e.Sys.ContentType
				}
				break
			}
		}
	})
}

func (r *entriesResponse) findAsset(id string) *asset {
	for i := range r.Includes.Asset {
		if r.Includes.Asset[i].Sys.ID == id {
			return &r.Includes.Asset[i]
		}
	}
	return nil
}

// textField accepts either a plain string or a rich-text document and
// returns its text.
func textField(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return strings.TrimSpace(s)
	}
	var doc richtext.Node
	if err := json.Unmarshal(raw, &doc); err == nil {
		return richtext.PlainText(&doc)
	}
	return ""
}

// tagsField drops null entries; the CMS allows them in arrays.
func tagsField(raw json.RawMessage) []string {
	tags := make([]string, 0)
	var values []any
	if err := json.Unmarshal(raw, &values); err != nil {
		return tags
	}
	for _, v := range values {
		if v == nil {
			continue
		}
		tags = append(tags, fmt.Sprint(v))
	}
	return tags
}

var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04Z07:00",
	"2006-01-02T15:04",
	"2006-01-02",
}

func dateField(raw json.RawMessage) time.Time {
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return time.Time{}
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC()
		}
	}
	return time.Time{}
}

func absoluteURL(u string) string {
	if strings.HasPrefix(u, "//") {
		return "https:" + u
	}
	return u
}
