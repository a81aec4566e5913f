// Package content reads essays from the headless CMS.
//
// Store is the read API the rest of the service uses. Client talks to the
// Contentful Delivery API; CachedStore wraps any Store with a Redis cache.
// Disabled stands in when no CMS credentials are configured, so the
// engagement endpoints keep working on their own.
package content

import (
	"context"

	"github.com/sakif/essay-site/internal/apperror"
	"github.com/sakif/essay-site/internal/model"
)

// Store is a read-only source of essays.
type Store interface {
	// ListEssays returns every published essay, newest first.
	ListEssays(ctx context.Context) ([]model.Essay, error)
	// GetEssay returns apperror.ErrNotFound for an unknown id.
	GetEssay(ctx context.Context, id string) (*model.Essay, error)
}

// Disabled is the Store used when the CMS is not configured.
type Disabled struct{}

var errNotConfigured = apperror.Unavailable("content store is not configured")

func (Disabled) ListEssays(context.Context) ([]model.Essay, error) {
	return nil, errNotConfigured
}

func (Disabled) GetEssay(context.Context, string) (*model.Essay, error) {
	return nil, errNotConfigured
}
