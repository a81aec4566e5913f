package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/sakif/essay-site/internal/apperror"
	"github.com/sakif/essay-site/internal/model"
)

// FirstPseudonym returns the generated name on anonID's earliest review.
//
// "Earliest" is by created_at, then id, so two reviews written in the same
// instant still resolve to one answer.
func (db *DB) FirstPseudonym(ctx context.Context, anonID string) (string, bool, error) {
	var name string
	err := db.conn.QueryRowContext(ctx,
		`SELECT generated_name
		 FROM reviews
		 WHERE anon_id = ?
		 ORDER BY created_at ASC, id ASC
		 LIMIT 1`,
		anonID,
	).Scan(&name)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", false, nil
		}
		return "", false, apperror.StorageUnavailable("sqlite: looking up pseudonym", err)
	}
	return name, true, nil
}

// InsertReview appends a review. The store owns the id and timestamp: both
// are written back into review so the caller can return the stored record.
//
// RETURNING (SQLite 3.35+) gives us the AUTOINCREMENT id in the same
// statement, without a second SELECT.
func (db *DB) InsertReview(ctx context.Context, review *model.Review) error {
	review.CreatedAt = time.Now().UTC()

	err := db.conn.QueryRowContext(ctx,
		`INSERT INTO reviews (essay_id, review, generated_name, anon_id, created_at)
		 VALUES (?, ?, ?, ?, ?)
		 RETURNING id`,
		review.EssayID,
		review.Review,
		review.GeneratedName,
		review.AnonID,
		review.CreatedAt,
	).Scan(&review.ID)
	if err != nil {
		return apperror.StorageUnavailable("sqlite: inserting review", err)
	}
	return nil
}

// ListReviews returns every review of essayID, newest first.
//
// The result is never nil: an essay without reviews yields an empty slice,
// which encodes as [] rather than null.
func (db *DB) ListReviews(ctx context.Context, essayID string) ([]model.Review, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT id, essay_id, review, generated_name, anon_id, created_at
		 FROM reviews
		 WHERE essay_id = ?
		 ORDER BY created_at DESC, id DESC`,
		essayID,
	)
	if err != nil {
		return nil, apperror.StorageUnavailable("sqlite: listing reviews", err)
	}
	// CRITICAL: always close rows when done, or the connection never returns
	// to the pool. With a pool of one, that would hang every later request.
	defer rows.Close()

	reviews := make([]model.Review, 0)
	for rows.Next() {
		var r model.Review
		if err := rows.Scan(
			&r.ID, &r.EssayID, &r.Review, &r.GeneratedName, &r.AnonID, &r.CreatedAt,
		); err != nil {
			return nil, apperror.StorageUnavailable("sqlite: scanning review row", err)
		}
		reviews = append(reviews, r)
	}
	if err := rows.Err(); err != nil {
		return nil, apperror.StorageUnavailable("sqlite: iterating reviews", err)
	}

	return reviews, nil
}
