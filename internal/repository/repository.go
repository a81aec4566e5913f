// Package repository declares the persistence contract for likes and reviews.
//
// Two engines implement it: repository/sqlite (default, a single file next to
// the binary) and repository/postgres. Services depend on the interface only.
package repository

import (
	"context"

	"github.com/sakif/essay-site/internal/model"
)

// EngagementRepository stores likes and reviews.
//
// Every failure is reported as apperror.ErrStorage. Implementations must not
// cache anything between calls: each read goes to the database.
type EngagementRepository interface {
	// EnsureSchema creates tables and indexes if they do not exist. It is
	// idempotent and safe to call concurrently.
	EnsureSchema(ctx context.Context) error

	// GetLikeCount returns 0 for an essay nobody has liked.
	GetLikeCount(ctx context.Context, essayID string) (int64, error)
	HasLiked(ctx context.Context, essayID, anonID string) (bool, error)

	// RecordLike adds (essayID, anonID) to the membership set and bumps the
	// counter in one transaction. It reports false, and changes nothing, when
	// the pair was already present.
	RecordLike(ctx context.Context, essayID, anonID string) (bool, error)

	// FirstPseudonym returns the name on the identity's earliest review.
	FirstPseudonym(ctx context.Context, anonID string) (name string, ok bool, err error)

	// InsertReview appends a review and fills in ID and CreatedAt.
	InsertReview(ctx context.Context, review *model.Review) error

	// ListReviews returns the essay's reviews, newest first.
	ListReviews(ctx context.Context, essayID string) ([]model.Review, error)

	Ping(ctx context.Context) error
	Close() error
}
