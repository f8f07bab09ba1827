package cache

import (
	"context"
	"time"
)

// LayeredCache reads through a local memory cache before a shared remote one.
type LayeredCache struct {
	local  *MemoryCache
	remote Service
	// local copies never outlive this, so replicas converge quickly
	localTTL time.Duration
}

func NewLayeredCache(remote Service, localTTL time.Duration, opts ...MemoryOption) *LayeredCache {
	return &LayeredCache{
		local:    NewMemoryCache(opts...),
		remote:   remote,
		localTTL: localTTL,
	}
}

func (c *LayeredCache) localExpiry(ttl time.Duration) time.Duration {
	if c.localTTL > 0 && (ttl <= 0 || ttl > c.localTTL) {
		return c.localTTL
	}
	return ttl
}

func (c *LayeredCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	if err := c.remote.Set(ctx, key, value, ttl); err != nil {
		return err
	}
	return c.local.Set(ctx, key, value, c.localExpiry(ttl))
}

func (c *LayeredCache) Get(ctx context.Context, key string, dest interface{}) error {
	if err := c.local.Get(ctx, key, dest); err == nil {
		return nil
	}
	if err := c.remote.Get(ctx, key, dest); err != nil {
		return err
	}
	_ = c.local.Set(ctx, key, dest, c.localExpiry(0))
	return nil
}

func (c *LayeredCache) Delete(ctx context.Context, keys ...string) error {
	_ = c.local.Delete(ctx, keys...)
	return c.remote.Delete(ctx, keys...)
}

func (c *LayeredCache) Exists(ctx context.Context, key string) (bool, error) {
	if ok, _ := c.local.Exists(ctx, key); ok {
		return true, nil
	}
	return c.remote.Exists(ctx, key)
}

func (c *LayeredCache) Close() error {
	_ = c.local.Close()
	return c.remote.Close()
}
