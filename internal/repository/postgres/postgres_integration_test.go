package postgres

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rs/xid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/essay-site/internal/model"
)

// These tests need a real database. Point TEST_DATABASE_URL at a scratch
// Postgres to run them; every test uses fresh xid-based essay ids, so they
// can share one database without truncating.
func newTestDB(t *testing.T) *DB {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skip("TEST_DATABASE_URL is not set")
	}

	db, err := New(context.Background(), url)
	if err != nil {
		t.Fatalf("open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func uniqueID(prefix string) string {
	return prefix + "-" + xid.New().String()
}

func TestPostgres_EnsureSchemaConcurrent(t *testing.T) {
	db := newTestDB(t)

	var wg sync.WaitGroup
	errs := make(chan error, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- db.EnsureSchema(context.Background())
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		assert.NoError(t, err)
	}
}

func TestPostgres_LikeLifecycle(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	essay := uniqueID("essay")

	count, err := db.GetLikeCount(ctx, essay)
	require.NoError(t, err)
	assert.Equal(t, int64(0), count)

	recorded, err := db.RecordLike(ctx, essay, "u1")
	require.NoError(t, err)
	assert.True(t, recorded)

	recorded, err = db.RecordLike(ctx, essay, "u1")
	require.NoError(t, err)
	assert.False(t, recorded)

	_, err = db.RecordLike(ctx, essay, "u2")
	require.NoError(t, err)

	count, err = db.GetLikeCount(ctx, essay)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)

	liked, err := db.HasLiked(ctx, essay, "u2")
	require.NoError(t, err)
	assert.True(t, liked)
}

func TestPostgres_ConcurrentLikes(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	essay := uniqueID("essay")
	const visitors = 30

	var wg sync.WaitGroup
	for i := 0; i < visitors; i++ {
		wg.Add(2)
		go func(i int) {
			defer wg.Done()
			_, err := db.RecordLike(ctx, essay, fmt.Sprintf("v%d", i))
			assert.NoError(t, err)
		}(i)
		// Every visitor also races a duplicate of itself.
		go func(i int) {
			defer wg.Done()
			_, err := db.RecordLike(ctx, essay, fmt.Sprintf("v%d", i))
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	count, err := db.GetLikeCount(ctx, essay)
	require.NoError(t, err)
	assert.Equal(t, int64(visitors), count)
}

func TestPostgres_CounterCannotGoNegative(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	essay := uniqueID("essay")

	_, err := db.RecordLike(ctx, essay, "u1")
	require.NoError(t, err)

	_, err = db.conn.ExecContext(ctx, `UPDATE likes SET count = -1 WHERE essay_id = $1`, essay)
	require.Error(t, err)

	var pgErr *pgconn.PgError
	require.True(t, errors.As(err, &pgErr), "expected a *pgconn.PgError, got %T", err)
	assert.Equal(t, "23514", pgErr.Code, "check_violation")
}

func TestPostgres_Reviews(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	essay := uniqueID("essay")
	anon := uniqueID("anon")

	_, ok, err := db.FirstPseudonym(ctx, anon)
	require.NoError(t, err)
	assert.False(t, ok)

	first := &model.Review{EssayID: essay, Review: "Great essay!", GeneratedName: "Curious Reader", AnonID: &anon}
	require.NoError(t, db.InsertReview(ctx, first))
	second := &model.Review{EssayID: essay, Review: "Still thinking about it", GeneratedName: "Other Name", AnonID: &anon}
	require.NoError(t, db.InsertReview(ctx, second))

	name, ok, err := db.FirstPseudonym(ctx, anon)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "Curious Reader", name)

	reviews, err := db.ListReviews(ctx, essay)
	require.NoError(t, err)
	require.Len(t, reviews, 2)
	assert.Equal(t, second.ID, reviews[0].ID)
	assert.Equal(t, first.ID, reviews[1].ID)
	assert.True(t, first.CreatedAt.Equal(reviews[1].CreatedAt))
	require.NotNil(t, reviews[1].AnonID)
	assert.Equal(t, anon, *reviews[1].AnonID)

	empty, err := db.ListReviews(ctx, uniqueID("quiet"))
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)
}
