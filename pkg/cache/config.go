package cache

import "time"

type RedisOption func(*RedisConfig)

type RedisConfig struct {
	Addr         string
	Password     string
	DB           int
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	Prefix       string
}

func WithRedisAddr(addr string) RedisOption {
	return func(c *RedisConfig) { c.Addr = addr }
}

func WithRedisAuth(password string, db int) RedisOption {
	return func(c *RedisConfig) {
		c.Password = password
		c.DB = db
	}
}

func WithRedisPool(size, minIdle int) RedisOption {
	return func(c *RedisConfig) {
		c.PoolSize = size
		c.MinIdleConns = minIdle
	}
}

func WithRedisPrefix(prefix string) RedisOption {
	return func(c *RedisConfig) { c.Prefix = prefix }
}

type MemoryOption func(*MemoryConfig)

type MemoryConfig struct {
	MaxEntries      int
	CleanupInterval time.Duration
	DefaultTTL      time.Duration
}

func WithMaxEntries(n int) MemoryOption {
	return func(c *MemoryConfig) { c.MaxEntries = n }
}

func WithCleanupInterval(d time.Duration) MemoryOption {
	return func(c *MemoryConfig) { c.CleanupInterval = d }
}
