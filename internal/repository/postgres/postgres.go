// Package postgres implements repository.EngagementRepository on PostgreSQL,
// through pgx's database/sql driver.
//
// The queries mirror repository/sqlite statement for statement. The only
// differences are $n placeholders, BIGSERIAL ids, TIMESTAMPTZ columns and
// an advisory lock around schema creation.
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	// Registers the "pgx" driver with database/sql.
	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/sakif/essay-site/internal/apperror"
	"github.com/sakif/essay-site/internal/repository"
)

var _ repository.EngagementRepository = (*DB)(nil)

// schemaLockKey is an arbitrary advisory-lock key. Concurrent
// CREATE TABLE IF NOT EXISTS can still collide on the pg_type catalog, so
// EnsureSchema takes this lock for the length of its transaction.
const schemaLockKey = 7_326_118_204

var schema = []string{
	`CREATE TABLE IF NOT EXISTS likes (
		essay_id TEXT PRIMARY KEY,
		count    BIGINT NOT NULL DEFAULT 0 CHECK (count >= 0)
	)`,
	`CREATE TABLE IF NOT EXISTS likes_by_user (
		essay_id TEXT NOT NULL,
		anon_id  TEXT NOT NULL,
		PRIMARY KEY (essay_id, anon_id)
	)`,
	`CREATE TABLE IF NOT EXISTS reviews (
		id             BIGSERIAL PRIMARY KEY,
		essay_id       TEXT NOT NULL,
		review         TEXT NOT NULL,
		generated_name TEXT NOT NULL,
		anon_id        TEXT,
		created_at     TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_reviews_essay_id ON reviews (essay_id)`,
	`CREATE INDEX IF NOT EXISTS idx_reviews_anon_id ON reviews (anon_id)`,
}

// DB is the Postgres engagement store.
type DB struct {
	conn *sql.DB
}

// New connects to databaseURL, verifies it with a ping and ensures the schema.
func New(ctx context.Context, databaseURL string) (*DB, error) {
	conn, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("postgres: open db: %w", err)
	}
	conn.SetConnMaxIdleTime(5 * time.Minute)
	conn.SetConnMaxLifetime(30 * time.Minute)
	conn.SetMaxIdleConns(10)
	conn.SetMaxOpenConns(20)

	if err := conn.PingContext(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("postgres: ping db: %w", err)
	}

	db := &DB{conn: conn}
	if err := db.EnsureSchema(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("postgres: ensuring schema: %w", err)
	}
	return db, nil
}

func (db *DB) Close() error {
	return db.conn.Close()
}

func (db *DB) Ping(ctx context.Context) error {
	if err := db.conn.PingContext(ctx); err != nil {
		return apperror.StorageUnavailable("postgres: ping", err)
	}
	return nil
}

// EnsureSchema creates the tables and indexes if missing. Safe to run from
// several processes at once.
func (db *DB) EnsureSchema(ctx context.Context) error {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return apperror.StorageUnavailable("postgres: beginning schema transaction", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, schemaLockKey); err != nil {
		return apperror.StorageUnavailable("postgres: locking schema", err)
	}
	for _, stmt := range schema {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return apperror.StorageUnavailable("postgres: creating schema", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return apperror.StorageUnavailable("postgres: committing schema", err)
	}
	return nil
}
