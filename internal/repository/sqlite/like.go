package sqlite

import (
	"context"
	"database/sql"
	"errors"

	"github.com/sakif/essay-site/internal/apperror"
	"github.com/sakif/essay-site/internal/repository"
)

// COMPILE-TIME INTERFACE CHECK:
// If *DB stops implementing repository.EngagementRepository, the build fails
// here instead of somewhere far away in the server wiring.
var _ repository.EngagementRepository = (*DB)(nil)

// GetLikeCount returns the counter row for essayID, or 0 when there is none.
//
// sql.ErrNoRows is not an error here: an essay nobody has liked simply has
// no row yet (rows are created by the first like).
func (db *DB) GetLikeCount(ctx context.Context, essayID string) (int64, error) {
	var count int64
	err := db.conn.QueryRowContext(ctx,
		`SELECT count FROM likes WHERE essay_id = ?`,
		essayID,
	).Scan(&count)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, nil
		}
		return 0, apperror.StorageUnavailable("sqlite: getting like count", err)
	}
	return count, nil
}

// HasLiked reports whether anonID already liked essayID.
func (db *DB) HasLiked(ctx context.Context, essayID, anonID string) (bool, error) {
	var exists bool
	err := db.conn.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM likes_by_user WHERE essay_id = ? AND anon_id = ?)`,
		essayID, anonID,
	).Scan(&exists)
	if err != nil {
		return false, apperror.StorageUnavailable("sqlite: checking like", err)
	}
	return exists, nil
}

// RecordLike inserts the membership row and increments the counter as one unit.
//
// KEY CONCEPTS:
//
//  1. THE MEMBERSHIP PRIMARY KEY IS THE SERIALIZATION POINT:
//     ON CONFLICT DO NOTHING turns a duplicate (essay, visitor) pair into a
//     zero-row insert. RowsAffected tells us whether this call won; a loser
//     returns false without touching the counter.
//
//  2. THE INCREMENT IS EVALUATED BY THE DATABASE:
//     "count = likes.count + 1" reads and writes the row inside the statement,
//     so two visitors liking at once both land. A Go-side read-modify-write
//     would lose one of them.
//
//  3. BOTH STATEMENTS OR NEITHER:
//     The deferred Rollback is a no-op after Commit. Any early return (error,
//     duplicate, cancelled context) discards the membership insert with it.
func (db *DB) RecordLike(ctx context.Context, essayID, anonID string) (bool, error) {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return false, apperror.StorageUnavailable("sqlite: beginning like transaction", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`INSERT INTO likes_by_user (essay_id, anon_id) VALUES (?, ?)
		 ON CONFLICT (essay_id, anon_id) DO NOTHING`,
		essayID, anonID,
	)
	if err != nil {
		return false, apperror.StorageUnavailable("sqlite: inserting like membership", err)
	}
	inserted, err := res.RowsAffected()
	if err != nil {
		return false, apperror.StorageUnavailable("sqlite: checking rows affected", err)
	}
	if inserted == 0 {
		return false, nil
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO likes (essay_id, count) VALUES (?, 1)
		 ON CONFLICT (essay_id) DO UPDATE SET count = likes.count + 1`,
		essayID,
	); err != nil {
		return false, apperror.StorageUnavailable("sqlite: incrementing like count", err)
	}

	if err := tx.Commit(); err != nil {
		return false, apperror.StorageUnavailable("sqlite: committing like", err)
	}
	return true, nil
}
