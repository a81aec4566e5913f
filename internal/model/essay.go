package model

import (
	"time"

	"github.com/sakif/essay-site/internal/richtext"
)

// Essay is an article authored in the CMS. This service only ever reads it.
//
// ID is the CMS system id (sys.id). Likes and reviews are keyed by the same
// value, so it must stay stable for the lifetime of the entry.
type Essay struct {
	ID           string         `json:"id"`
	Title        string         `json:"title"`
	Author       string         `json:"author"`
	Category     string         `json:"category"`
	Tags         []string       `json:"tags"`
	PublishDate  time.Time      `json:"publishDate"`
	Body         *richtext.Node `json:"body,omitempty"`
	CoverImage   *Image         `json:"coverImage,omitempty"`
	Nugget       string         `json:"nugget,omitempty"`
	NuggetAuthor string         `json:"nuggetAuthor,omitempty"`
}

// Image is a resolved CMS asset.
type Image struct {
	URL         string `json:"url"`
	Title       string `json:"title,omitempty"`
	Description string `json:"description,omitempty"`
}
