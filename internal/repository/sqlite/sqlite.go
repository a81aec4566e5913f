// Package sqlite implements repository.EngagementRepository on SQLite.
//
// WHY SQLITE?
// SQLite is an embedded database — it lives inside your Go binary as a single file.
// No separate database server to install, configure, or manage. A personal
// essay site gets a handful of likes a day, so one file next to the binary is
// plenty (use ":memory:" in tests).
//
// WHY modernc.org/sqlite INSTEAD OF github.com/mattn/go-sqlite3?
// mattn/go-sqlite3 uses CGo (calls C code from Go), which means you need a C compiler
// installed and cross-compilation becomes painful. modernc.org/sqlite is a pure Go
// translation of the SQLite C code — no C compiler needed, works everywhere Go works.
//
// CONCURRENCY:
// SQLite allows one writer at a time. We cap the pool at a single connection,
// so writers queue inside database/sql instead of failing with SQLITE_BUSY,
// and set busy_timeout for other processes sharing the same file. Correctness
// (one like per visitor, no lost increments) still comes from transactions
// and constraints, never from the pool size.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/sakif/essay-site/internal/apperror"

	// BLANK IMPORT:
	// The sqlite package's init() registers itself with database/sql as a
	// driver named "sqlite". After this import, sql.Open("sqlite", ...) works.
	_ "modernc.org/sqlite"
)

// busyTimeoutMillis is how long a connection waits for another process's
// write lock before giving up.
const busyTimeoutMillis = 5000

// DB wraps a sql.DB connection pool and provides the engagement repository methods.
type DB struct {
	conn *sql.DB
}

// New opens (or creates) the database at dbPath and ensures the schema.
//
// dbPath examples:
//   - "data/essays.db"  → file-based database (persistent)
//   - ":memory:"        → in-memory database (great for tests, lost on close)
func New(dbPath string) (*DB, error) {
	conn, err := sql.Open("sqlite", dsn(dbPath))
	if err != nil {
		return nil, fmt.Errorf("sqlite: opening database: %w", err)
	}

	// One connection: serializes writers in-process and keeps ":memory:"
	// databases alive (each new connection would get an empty database).
	conn.SetMaxOpenConns(1)

	// Ping verifies the connection actually works.
	// Without this, a bad path or permissions issue would only surface
	// on the first query — which is much harder to debug.
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: pinging database: %w", err)
	}

	// WAL mode lets readers proceed while a write is in progress. Switching
	// the journal takes a write lock, so it relies on the busy timeout the
	// DSN already installed.
	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: enabling WAL: %w", err)
	}

	db := &DB{conn: conn}

	if err := db.EnsureSchema(context.Background()); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: ensuring schema: %w", err)
	}

	return db, nil
}

// dsn appends the connection pragmas to dbPath. The driver runs _pragma
// values as soon as it opens a connection, before Ping or any statement, so
// a second process creating the same file waits for the lock instead of
// failing with SQLITE_BUSY.
func dsn(dbPath string) string {
	return fmt.Sprintf("%s?_pragma=busy_timeout(%d)", dbPath, busyTimeoutMillis)
}

// Close closes the database connection pool.
func (db *DB) Close() error {
	return db.conn.Close()
}

// Ping checks the database is reachable; used by the health endpoint.
func (db *DB) Ping(ctx context.Context) error {
	if err := db.conn.PingContext(ctx); err != nil {
		return apperror.StorageUnavailable("sqlite: ping", err)
	}
	return nil
}

// schema is the whole engagement schema. Every statement is
// "IF NOT EXISTS", so running it again (or from two processes at once)
// is a no-op rather than an error.
const schema = `
	CREATE TABLE IF NOT EXISTS likes (
		essay_id TEXT PRIMARY KEY,
		count    INTEGER NOT NULL DEFAULT 0 CHECK (count >= 0)
	);
	CREATE TABLE IF NOT EXISTS likes_by_user (
		essay_id TEXT NOT NULL,
		anon_id  TEXT NOT NULL,
		PRIMARY KEY (essay_id, anon_id)
	);
	CREATE TABLE IF NOT EXISTS reviews (
		id             INTEGER PRIMARY KEY AUTOINCREMENT,
		essay_id       TEXT NOT NULL,
		review         TEXT NOT NULL,
		generated_name TEXT NOT NULL,
		anon_id        TEXT,
		created_at     DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	);
	CREATE INDEX IF NOT EXISTS idx_reviews_essay_id ON reviews(essay_id);
	CREATE INDEX IF NOT EXISTS idx_reviews_anon_id ON reviews(anon_id);
`

// EnsureSchema creates the likes, likes_by_user and reviews tables.
func (db *DB) EnsureSchema(ctx context.Context) error {
	if _, err := db.conn.ExecContext(ctx, schema); err != nil {
		return apperror.StorageUnavailable("sqlite: creating schema", err)
	}
	return nil
}
