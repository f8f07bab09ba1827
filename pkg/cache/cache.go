package cache

import (
	"context"
	"errors"
	"time"
)

var ErrCacheMiss = errors.New("cache: key not found")

// Service stores JSON-encodable values with a TTL.
type Service interface {
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Get(ctx context.Context, key string, dest interface{}) error
	Delete(ctx context.Context, keys ...string) error
	Exists(ctx context.Context, key string) (bool, error)
	Close() error
}

// Remember returns the cached value for key, or calls load and caches its result.
// Load errors are returned as is and nothing is cached.
func Remember[T any](ctx context.Context, c Service, key string, ttl time.Duration, load func(context.Context) (T, error)) (T, bool, error) {
	return RememberWhen(ctx, c, key, ttl, load, nil)
}

// RememberWhen is Remember with a filter: a loaded value is stored only when
// keep reports true for it. A nil keep stores everything.
func RememberWhen[T any](ctx context.Context, c Service, key string, ttl time.Duration, load func(context.Context) (T, error), keep func(T) bool) (T, bool, error) {
	var v T
	if err := c.Get(ctx, key, &v); err == nil {
		return v, true, nil
	}
	v, err := load(ctx)
	if err != nil {
		return v, false, err
	}
	if keep == nil || keep(v) {
		_ = c.Set(ctx, key, v, ttl)
	}
	return v, false, nil
}
