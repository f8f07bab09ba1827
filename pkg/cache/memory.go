package cache

import (
	"context"
	"encoding/json"
	"sync"
	"time"
)

type memoryEntry struct {
	data     []byte
	expireAt time.Time
	lastUsed time.Time
}

// MemoryCache is a process-local Service. Values are stored JSON-encoded so
// reads behave the same as with Redis.
type MemoryCache struct {
	mu      sync.Mutex
	entries map[string]*memoryEntry
	cfg     MemoryConfig
	now     func() time.Time
	stop    chan struct{}
	once    sync.Once
}

func NewMemoryCache(opts ...MemoryOption) *MemoryCache {
	cfg := MemoryConfig{
		MaxEntries:      1024,
		CleanupInterval: time.Minute,
		DefaultTTL:      time.Hour,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	c := &MemoryCache{
		entries: make(map[string]*memoryEntry),
		cfg:     cfg,
		now:     time.Now,
		stop:    make(chan struct{}),
	}
	go c.janitor()
	return c
}

func (c *MemoryCache) Set(_ context.Context, key string, value interface{}, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	if ttl <= 0 {
		ttl = c.cfg.DefaultTTL
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	if _, ok := c.entries[key]; !ok && len(c.entries) >= c.cfg.MaxEntries {
		c.evictOldestLocked()
	}
	c.entries[key] = &memoryEntry{data: data, expireAt: now.Add(ttl), lastUsed: now}
	return nil
}

func (c *MemoryCache) Get(_ context.Context, key string, dest interface{}) error {
	c.mu.Lock()
	e, ok := c.entries[key]
	now := c.now()
	if ok && now.After(e.expireAt) {
		delete(c.entries, key)
		ok = false
	}
	if !ok {
		c.mu.Unlock()
		return ErrCacheMiss
	}
	e.lastUsed = now
	data := e.data
	c.mu.Unlock()

	return json.Unmarshal(data, dest)
}

func (c *MemoryCache) Delete(_ context.Context, keys ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, k := range keys {
		delete(c.entries, k)
	}
	return nil
}

func (c *MemoryCache) Exists(_ context.Context, key string) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	return ok && !c.now().After(e.expireAt), nil
}

func (c *MemoryCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func (c *MemoryCache) evictOldestLocked() {
	var (
		oldest string
		at     time.Time
	)
	for k, e := range c.entries {
		if oldest == "" || e.lastUsed.Before(at) {
			oldest, at = k, e.lastUsed
		}
	}
	delete(c.entries, oldest)
}

func (c *MemoryCache) janitor() {
	t := time.NewTicker(c.cfg.CleanupInterval)
	defer t.Stop()
	for {
		select {
		case <-t.C:
			c.mu.Lock()
			now := c.now()
			for k, e := range c.entries {
				if now.After(e.expireAt) {
					delete(c.entries, k)
				}
			}
			c.mu.Unlock()
		case <-c.stop:
			return
		}
	}
}

func (c *MemoryCache) Close() error {
	c.once.Do(func() { close(c.stop) })
	return nil
}
