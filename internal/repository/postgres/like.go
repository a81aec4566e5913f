package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/sakif/essay-site/internal/apperror"
)

func (db *DB) GetLikeCount(ctx context.Context, essayID string) (int64, error) {
	var count int64
	err := db.conn.QueryRowContext(ctx,
		`SELECT count FROM likes WHERE essay_id = $1`,
		essayID,
	).Scan(&count)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, nil
		}
		return 0, apperror.StorageUnavailable("postgres: getting like count", err)
	}
	return count, nil
}

func (db *DB) HasLiked(ctx context.Context, essayID, anonID string) (bool, error) {
	var exists bool
	err := db.conn.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM likes_by_user WHERE essay_id = $1 AND anon_id = $2)`,
		essayID, anonID,
	).Scan(&exists)
	if err != nil {
		return false, apperror.StorageUnavailable("postgres: checking like", err)
	}
	return exists, nil
}

// RecordLike runs the membership insert and the counter upsert in one
// transaction. Under READ COMMITTED the primary key on likes_by_user makes a
// concurrent duplicate wait for the first transaction, then insert nothing.
func (db *DB) RecordLike(ctx context.Context, essayID, anonID string) (bool, error) {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return false, apperror.StorageUnavailable("postgres: beginning like transaction", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`INSERT INTO likes_by_user (essay_id, anon_id) VALUES ($1, $2)
		 ON CONFLICT (essay_id, anon_id) DO NOTHING`,
		essayID, anonID,
	)
	if err != nil {
		return false, apperror.StorageUnavailable("postgres: inserting like membership", err)
	}
	inserted, err := res.RowsAffected()
	if err != nil {
		return false, apperror.StorageUnavailable("postgres: checking rows affected", err)
	}
	if inserted == 0 {
		return false, nil
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO likes (essay_id, count) VALUES ($1, 1)
		 ON CONFLICT (essay_id) DO UPDATE SET count = likes.count + 1`,
		essayID,
	); err != nil {
		return false, apperror.StorageUnavailable("postgres: incrementing like count", err)
	}

	if err := tx.Commit(); err != nil {
		return false, apperror.StorageUnavailable("postgres: committing like", err)
	}
	return true, nil
}
