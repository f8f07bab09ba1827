package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type flux struct {
	Flux   float64 `json:"flux"`
	Source string  `json:"source"`
}

func TestMemoryCacheRoundTripAndExpiry(t *testing.T) {
	c := NewMemoryCache()
	defer c.Close()
	now := time.Date(2024, 5, 10, 0, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "xray", flux{1.3e-6, "GOES-18"}, 30*time.Second))

	var got flux
	require.NoError(t, c.Get(ctx, "xray", &got))
	assert.Equal(t, flux{1.3e-6, "GOES-18"}, got)

	now = now.Add(31 * time.Second)
	assert.ErrorIs(t, c.Get(ctx, "xray", &got), ErrCacheMiss)
	ok, err := c.Exists(ctx, "xray")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMemoryCacheEvictsLeastRecentlyUsed(t *testing.T) {
	c := NewMemoryCache(WithMaxEntries(2))
	defer c.Close()
	now := time.Now()
	c.now = func() time.Time { return now }
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "a", 1, time.Minute))
	now = now.Add(time.Second)
	require.NoError(t, c.Set(ctx, "b", 2, time.Minute))
	now = now.Add(time.Second)
	var v int
	require.NoError(t, c.Get(ctx, "a", &v))
	now = now.Add(time.Second)
	require.NoError(t, c.Set(ctx, "c", 3, time.Minute))

	assert.Equal(t, 2, c.Len())
	assert.ErrorIs(t, c.Get(ctx, "b", &v), ErrCacheMiss)
	require.NoError(t, c.Get(ctx, "a", &v))
	assert.Equal(t, 1, v)
}

func TestLayeredCacheFallsBackToRemote(t *testing.T) {
	remote := NewMemoryCache()
	c := NewLayeredCache(remote, time.Second)
	defer c.Close()
	ctx := context.Background()

	require.NoError(t, remote.Set(ctx, "k", "v", time.Minute))

	var got string
	require.NoError(t, c.Get(ctx, "k", &got))
	assert.Equal(t, "v", got)

	ok, err := c.local.Exists(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok, "remote hit should populate the local layer")

	require.NoError(t, c.Delete(ctx, "k"))
	assert.ErrorIs(t, c.Get(ctx, "k", &got), ErrCacheMiss)
}

func TestRemember(t *testing.T) {
	c := NewMemoryCache()
	defer c.Close()
	ctx := context.Background()
	calls := 0
	load := func(context.Context) (flux, error) {
		calls++
		return flux{2e-6, "live"}, nil
	}

	v, hit, err := Remember(ctx, c, "xray", time.Minute, load)
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Equal(t, 2e-6, v.Flux)

	v, hit, err = Remember(ctx, c, "xray", time.Minute, load)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, "live", v.Source)
	assert.Equal(t, 1, calls)
}

func TestRememberDoesNotCacheErrors(t *testing.T) {
	c := NewMemoryCache()
	defer c.Close()
	ctx := context.Background()

	_, _, err := Remember(ctx, c, "k", time.Minute, func(context.Context) (int, error) {
		return 0, errors.New("upstream down")
	})
	require.Error(t, err)
	ok, _ := c.Exists(ctx, "k")
	assert.False(t, ok)
}

func TestRememberWhenSkipsRejectedValues(t *testing.T) {
	c := NewMemoryCache()
	defer c.Close()
	ctx := context.Background()
	keepLive := func(f flux) bool { return f.Source == "live" }

	v, hit, err := RememberWhen(ctx, c, "xray", time.Minute, func(context.Context) (flux, error) {
		return flux{1.3e-6, "fallback"}, nil
	}, keepLive)
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Equal(t, "fallback", v.Source)
	ok, _ := c.Exists(ctx, "xray")
	assert.False(t, ok)

	_, _, err = RememberWhen(ctx, c, "xray", time.Minute, func(context.Context) (flux, error) {
		return flux{5.5e-5, "live"}, nil
	}, keepLive)
	require.NoError(t, err)
	ok, _ = c.Exists(ctx, "xray")
	assert.True(t, ok)
}
