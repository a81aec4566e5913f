package content

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/essay-site/internal/apperror"
	"github.com/sakif/essay-site/internal/richtext"
)

const entriesFixture = `{
  "items": [
    {
      "sys": {"id": "essay-2", "type": "Entry"},
      "fields": {
        "title": "On Walking",
        "author": {"nodeType": "document", "data": {}, "content": [
          {"nodeType": "paragraph", "data": {}, "content": [
            {"nodeType": "text", "value": "Ada Writer", "marks": [], "data": {}}
          ]}
        ]},
        "category": "Life",
        "tags": ["walking", null, "habits"],
        "publishDate": "2024-05-01T09:30+00:00",
        "blogImage": {"sys": {"type": "Link", "linkType": "Asset", "id": "img-1"}},
        "nugget": "Solvitur ambulando.",
        "nuggetAuthor": "Diogenes",
        "article": {"nodeType": "document", "data": {}, "content": [
          {"nodeType": "paragraph", "data": {}, "content": [
            {"nodeType": "text", "value": "Step one.", "marks": [], "data": {}}
          ]},
          {"nodeType": "embedded-asset-block", "content": [], "data": {
            "target": {"sys": {"type": "Link", "linkType": "Asset", "id": "img-2"}}
          }},
          {"nodeType": "embedded-entry-block", "content": [], "data": {
            "target": {"sys": {"type": "Link", "linkType": "Entry", "id": "quote-1"}}
          }}
        ]}
      }
    },
    {
      "sys": {"id": "essay-1", "type": "Entry"},
      "fields": {"title": "Older", "publishDate": "2023-01-15"}
    }
  ],
  "includes": {
    "Asset": [
      {"sys": {"id": "img-1"}, "fields": {"title": "Trail", "description": "A forest trail",
        "file": {"url": "//images.ctfassets.net/space/img-1/trail.jpg", "contentType": "image/jpeg"}}},
      {"sys": {"id": "img-2"}, "fields": {"title": "Boots",
        "file": {"url": "//images.ctfassets.net/space/img-2/boots.jpg", "contentType": "image/jpeg"}}}
    ],
    "Entry": [
      {"sys": {"id": "quote-1", "contentType": {"sys": {"type": "Link", "linkType": "ContentType", "id": "quote"}}},
       "fields": {"title": "Nietzsche on walking"}}
    ]
  }
}`

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// newTestClient starts an httptest server running handler and returns a
// Client pointed at it.
func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c, err := NewClient(ClientConfig{
		BaseURL:     srv.URL,
		SpaceID:     "space",
		AccessToken: "token",
		HTTPClient:  srv.Client(),
	}, discardLogger())
	require.NoError(t, err)
	return c
}

func TestNewClient_RequiresCredentials(t *testing.T) {
	_, err := NewClient(ClientConfig{SpaceID: "space"}, discardLogger())
	assert.Error(t, err)
	_, err = NewClient(ClientConfig{AccessToken: "token"}, discardLogger())
	assert.Error(t, err)
}

func TestClient_ListEssays_Request(t *testing.T) {
	var gotPath, gotAuth string
	var gotQuery map[string][]string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		gotQuery = r.URL.Query()
		w.Write([]byte(`{"items": []}`))
	})

	essays, err := c.ListEssays(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, essays)
	assert.Empty(t, essays)

	assert.Equal(t, "/spaces/space/environments/master/entries", gotPath)
	assert.Equal(t, "Bearer token", gotAuth)
	assert.Equal(t, []string{"articles"}, gotQuery["content_type"])
	assert.Equal(t, []string{"-fields.publishDate"}, gotQuery["order"])
}

func TestClient_ListEssays_Decodes(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(entriesFixture))
	})

	essays, err := c.ListEssays(context.Background())
	require.NoError(t, err)
	require.Len(t, essays, 2)

	e := essays[0]
	assert.Equal(t, "essay-2", e.ID)
	assert.Equal(t, "On Walking", e.Title)
	assert.Equal(t, "Ada Writer", e.Author, "rich-text author is flattened")
	assert.Equal(t, "Life", e.Category)
	assert.Equal(t, []string{"walking", "habits"}, e.Tags, "null tags are dropped")
	assert.Equal(t, time.Date(2024, 5, 1, 9, 30, 0, 0, time.UTC), e.PublishDate)
	assert.Equal(t, "Solvitur ambulando.", e.Nugget)
	assert.Equal(t, "Diogenes", e.NuggetAuthor)

	require.NotNil(t, e.CoverImage)
	assert.Equal(t, "https://images.ctfassets.net/space/img-1/trail.jpg", e.CoverImage.URL)
	assert.Equal(t, "A forest trail", e.CoverImage.Description)

	require.NotNil(t, e.Body)
	require.Len(t, e.Body.Content, 3)

	assetTarget := e.Body.Content[1].Data.Target
	require.NotNil(t, assetTarget.Fields, "embedded asset should be resolved from includes")
	assert.Equal(t, "Boots", assetTarget.Fields.Title)

	entryTarget := e.Body.Content[2].Data.Target
	require.NotNil(t, entryTarget.Fields)
	assert.Equal(t, "Nietzsche on walking", entryTarget.Fields.Title)

	html := richtext.RenderHTML(e.Body)
	assert.Contains(t, html, `<img src="https://images.ctfassets.net/space/img-2/boots.jpg"`)
	assert.Contains(t, html, `Embedded quote: Nietzsche on walking`)

	older := essays[1]
	assert.Equal(t, time.Date(2023, 1, 15, 0, 0, 0, 0, time.UTC), older.PublishDate)
	assert.Nil(t, older.CoverImage)
	assert.Nil(t, older.Body)
	assert.Empty(t, older.Tags)
}

func TestClient_DecodesVendorContentType(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/vnd.contentful.delivery.v1+json")
		w.Write([]byte(entriesFixture))
	})

	essays, err := c.ListEssays(context.Background())
	require.NoError(t, err)
	require.Len(t, essays, 2)
	assert.Equal(t, "On Walking", essays[0].Title)
}

func TestClient_CancelledContext(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(entriesFixture))
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.ListEssays(ctx)
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperror.ErrStorage), "got %v", err)
}

func TestClient_GetEssay(t *testing.T) {
	var gotID, gotLimit string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotID = r.URL.Query().Get("sys.id")
		gotLimit = r.URL.Query().Get("limit")
		w.Write([]byte(entriesFixture))
	})

	essay, err := c.GetEssay(context.Background(), "essay-2")
	require.NoError(t, err)
	assert.Equal(t, "essay-2", essay.ID)
	assert.Equal(t, "essay-2", gotID)
	assert.Equal(t, "1", gotLimit)
}

func TestClient_GetEssay_NotFound(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"items": []}`))
	})

	_, err := c.GetEssay(context.Background(), "missing")
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperror.ErrNotFound))
}

func TestClient_Errors(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{"server error", func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, `{"message": "boom"}`, http.StatusInternalServerError)
		}},
		{"unauthorized", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
		}},
		{"bad json", func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"items": [`))
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, tt.handler)

			_, err := c.ListEssays(context.Background())
			require.Error(t, err)
			assert.True(t, errors.Is(err, apperror.ErrStorage), "got %v", err)
		})
	}
}

func TestDisabledStore(t *testing.T) {
	var s Store = Disabled{}

	_, err := s.ListEssays(context.Background())
	assert.True(t, errors.Is(err, apperror.ErrUnavailable))
	_, err = s.GetEssay(context.Background(), "x")
	assert.True(t, errors.Is(err, apperror.ErrUnavailable))
}
