package handler

import (
	"log/slog"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/sakif/essay-site/internal/content"
	"github.com/sakif/essay-site/internal/model"
	"github.com/sakif/essay-site/internal/richtext"
)

// Image renditions requested from the CMS.
const (
	cardImageWidth   = 600
	detailImageWidth = 1600
	imageQuality     = 80
	excerptLength    = 200
)

// EssayHandler serves essays from the content store.
type EssayHandler struct {
	store  content.Store
	logger *slog.Logger
}

func NewEssayHandler(store content.Store, logger *slog.Logger) *EssayHandler {
	return &EssayHandler{store: store, logger: logger}
}

type essaySummary struct {
	ID          string       `json:"id"`
	Title       string       `json:"title"`
	Author      string       `json:"author"`
	Category    string       `json:"category"`
	Tags        []string     `json:"tags"`
	PublishDate time.Time    `json:"publishDate"`
	Excerpt     string       `json:"excerpt"`
	CoverImage  *model.Image `json:"coverImage,omitempty"`
}

type essayDetail struct {
	ID           string       `json:"id"`
	Title        string       `json:"title"`
	Author       string       `json:"author"`
	Category     string       `json:"category"`
	Tags         []string     `json:"tags"`
	PublishDate  time.Time    `json:"publishDate"`
	HTML         string       `json:"html"`
	CoverImage   *model.Image `json:"coverImage,omitempty"`
	Nugget       string       `json:"nugget,omitempty"`
	NuggetAuthor string       `json:"nuggetAuthor,omitempty"`
}

// essaysResponse carries the filtered essays plus every tag in use across
// the whole collection, so a tag picker never loses its options.
type essaysResponse struct {
	Essays []essaySummary `json:"essays"`
	Tags   []string       `json:"tags"`
}

// essayFilter is the ?q= and ?tag= pair from GET /essays.
//
// q matches case-insensitively as a substring of the title or of any tag.
// tag must equal one of the essay's tags exactly. An empty field matches
// everything.
type essayFilter struct {
	query string
	tag   string
}

func parseEssayFilter(r *http.Request) essayFilter {
	q := r.URL.Query()
	return essayFilter{
		query: strings.ToLower(strings.TrimSpace(q.Get("q"))),
		tag:   q.Get("tag"),
	}
}

func (f essayFilter) matches(e model.Essay) bool {
	if f.tag != "" && !slices.Contains(e.Tags, f.tag) {
		return false
	}
	if f.query == "" || strings.Contains(strings.ToLower(e.Title), f.query) {
		return true
	}
	return slices.ContainsFunc(e.Tags, func(tag string) bool {
		return strings.Contains(strings.ToLower(tag), f.query)
	})
}

// allTags returns the distinct tags of essays, sorted.
func allTags(essays []model.Essay) []string {
	tags := make([]string, 0)
	for _, e := range essays {
		tags = append(tags, e.Tags...)
	}
	slices.Sort(tags)
	return slices.Compact(tags)
}

func optimizedImage(img *model.Image, width int) *model.Image {
	if img == nil {
		return nil
	}
	out := *img
	out.URL = content.OptimizeImageURL(img.URL, width, imageQuality)
	return &out
}

// HandleList returns summaries of every essay matching the filter, newest
// first.
//
// HTTP: GET /essays?q=walk&tag=life
func (h *EssayHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	essays, err := h.store.ListEssays(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	filter := parseEssayFilter(r)
	out := essaysResponse{
		Essays: make([]essaySummary, 0, len(essays)),
		Tags:   allTags(essays),
	}
	for _, e := range essays {
		if !filter.matches(e) {
			continue
		}
		out.Essays = append(out.Essays, essaySummary{
			ID:          e.ID,
			Title:       e.Title,
			Author:      e.Author,
			Category:    e.Category,
			Tags:        e.Tags,
			PublishDate: e.PublishDate,
			Excerpt:     richtext.Excerpt(e.Body, excerptLength),
			CoverImage:  optimizedImage(e.CoverImage, cardImageWidth),
		})
	}
	writeJSON(w, http.StatusOK, out)
}

// HandleGet returns one essay with its body rendered to HTML.
//
// HTTP: GET /essays/{id}
func (h *EssayHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	e, err := h.store.GetEssay(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, essayDetail{
		ID:           e.ID,
		Title:        e.Title,
		Author:       e.Author,
		Category:     e.Category,
		Tags:         e.Tags,
		PublishDate:  e.PublishDate,
		HTML:         richtext.RenderHTML(e.Body),
		CoverImage:   optimizedImage(e.CoverImage, detailImageWidth),
		Nugget:       e.Nugget,
		NuggetAuthor: e.NuggetAuthor,
	})
}
