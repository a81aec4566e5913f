package content

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"github.com/sakif/essay-site/internal/model"
)

const cacheKeyPrefix = "essay-site:content:"

// originTimeout bounds a shared origin fetch, which no single caller's
// context controls.
const originTimeout = 15 * time.Second

// CachedStore caches another Store's essays in Redis.
//
// CACHE FAILURES ARE NOT REQUEST FAILURES:
// If Redis is down or holds garbage, the error is logged and the request
// goes to the origin. Concurrent misses for the same key share one origin
// call through a singleflight group. Not-found results are never cached, so
// a newly published essay shows up on the next request.
type CachedStore struct {
	origin Store
	client *redis.Client
	ttl    time.Duration
	logger *slog.Logger
	group  singleflight.Group
}

var _ Store = (*CachedStore)(nil)

// NewRedisClient parses redisURL and checks the server answers.
func NewRedisClient(ctx context.Context, redisURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}
	return client, nil
}

// NewCachedStore wraps origin. The caller owns client and closes it.
func NewCachedStore(origin Store, client *redis.Client, ttl time.Duration, logger *slog.Logger) *CachedStore {
	return &CachedStore{
		origin: origin,
		client: client,
		ttl:    ttl,
		logger: logger,
	}
}

func (s *CachedStore) ListEssays(ctx context.Context) ([]model.Essay, error) {
	var essays []model.Essay
	if s.get(ctx, listKey(), &essays) {
		return essays, nil
	}

	v, err := s.load(ctx, listKey(), func(ctx context.Context) (any, error) {
		return s.origin.ListEssays(ctx)
	})
	if err != nil {
		return nil, err
	}
	return v.([]model.Essay), nil
}

func (s *CachedStore) GetEssay(ctx context.Context, id string) (*model.Essay, error) {
	var essay model.Essay
	if s.get(ctx, essayKey(id), &essay) {
		return &essay, nil
	}

	v, err := s.load(ctx, essayKey(id), func(ctx context.Context) (any, error) {
		return s.origin.GetEssay(ctx, id)
	})
	if err != nil {
		return nil, err
	}
	// Callers may share the pointer returned by singleflight; hand each a copy.
	cp := *v.(*model.Essay)
	return &cp, nil
}

// load runs fetch once per key no matter how many callers miss at the same
// time, and caches a successful result.
//
// The shared fetch is detached from the caller that happened to start it:
// that caller hanging up must not fail everyone waiting on the same key.
// Each caller still stops waiting when its own ctx ends.
func (s *CachedStore) load(ctx context.Context, key string, fetch func(context.Context) (any, error)) (any, error) {
	ch := s.group.DoChan(key, func() (any, error) {
		fetchCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), originTimeout)
		defer cancel()

		v, err := fetch(fetchCtx)
		if err != nil {
			return nil, err
		}
		s.set(fetchCtx, key, v)
		return v, nil
	})

	select {
	case res := <-ch:
		return res.Val, res.Err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (s *CachedStore) get(ctx context.Context, key string, dst any) bool {
	data, err := s.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return false
	}
	if err != nil {
		s.logger.Warn("content cache read failed",
			slog.String("key", key),
			slog.String("error", err.Error()),
		)
		return false
	}
	if err := json.Unmarshal(data, dst); err != nil {
		s.logger.Warn("content cache entry is corrupt",
			slog.String("key", key),
			slog.String("error", err.Error()),
		)
		return false
	}
	return true
}

func (s *CachedStore) set(ctx context.Context, key string, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		s.logger.Warn("content cache encode failed", slog.String("error", err.Error()))
		return
	}
	if err := s.client.Set(ctx, key, data, s.ttl).Err(); err != nil {
		s.logger.Warn("content cache write failed",
			slog.String("key", key),
			slog.String("error", err.Error()),
		)
	}
}

func listKey() string { return cacheKeyPrefix + "essays" }
func essayKey(id string) string { return cacheKeyPrefix + "essay:" + id }
