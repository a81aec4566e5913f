package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/sakif/essay-site/internal/apperror"
	"github.com/sakif/essay-site/internal/model"
)

func (db *DB) FirstPseudonym(ctx context.Context, anonID string) (string, bool, error) {
	var name string
	err := db.conn.QueryRowContext(ctx,
		`SELECT generated_name
		 FROM reviews
		 WHERE anon_id = $1
		 ORDER BY created_at ASC, id ASC
		 LIMIT 1`,
		anonID,
	).Scan(&name)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", false, nil
		}
		return "", false, apperror.StorageUnavailable("postgres: looking up pseudonym", err)
	}
	return name, true, nil
}

// InsertReview stores review and writes the generated id back into it.
// Postgres keeps microseconds, so CreatedAt is truncated to match what a
// later read returns.
func (db *DB) InsertReview(ctx context.Context, review *model.Review) error {
	review.CreatedAt = time.Now().UTC().Truncate(time.Microsecond)

	err := db.conn.QueryRowContext(ctx,
		`INSERT INTO reviews (essay_id, review, generated_name, anon_id, created_at)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id`,
		review.EssayID,
		review.Review,
		review.GeneratedName,
		review.AnonID,
		review.CreatedAt,
	).Scan(&review.ID)
	if err != nil {
		return apperror.StorageUnavailable("postgres: inserting review", err)
	}
	return nil
}

func (db *DB) ListReviews(ctx context.Context, essayID string) ([]model.Review, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT id, essay_id, review, generated_name, anon_id, created_at
		 FROM reviews
		 WHERE essay_id = $1
		 ORDER BY created_at DESC, id DESC`,
		essayID,
	)
	if err != nil {
		return nil, apperror.StorageUnavailable("postgres: listing reviews", err)
	}
	defer rows.Close()

	reviews := make([]model.Review, 0)
	for rows.Next() {
		var r model.Review
		if err := rows.Scan(
			&r.ID, &r.EssayID, &r.Review, &r.GeneratedName, &r.AnonID, &r.CreatedAt,
		); err != nil {
			return nil, apperror.StorageUnavailable("postgres: scanning review row", err)
		}
		r.CreatedAt = r.CreatedAt.UTC()
		reviews = append(reviews, r)
	}
	if err := rows.Err(); err != nil {
		return nil, apperror.StorageUnavailable("postgres: iterating reviews", err)
	}
	return reviews, nil
}
