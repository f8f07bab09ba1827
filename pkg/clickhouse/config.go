package clickhouse

import "time"

type ClientOption func(*ClientConfig)

type ClientConfig struct {
	Host            string
	Port            int
	Database        string
	User            string
	Password        string
	UseHTTP         bool
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	DialTimeout     time.Duration
	ReadTimeout     time.Duration
}

func WithAddr(host string, port int) ClientOption {
	return func(c *ClientConfig) {
		c.Host = host
		c.Port = port
	}
}

func WithDatabase(db string) ClientOption {
	return func(c *ClientConfig) { c.Database = db }
}

func WithCredentials(user, password string) ClientOption {
	return func(c *ClientConfig) {
		c.User = user
		c.Password = password
	}
}

func WithHTTP(enabled bool) ClientOption {
	return func(c *ClientConfig) { c.UseHTTP = enabled }
}

func WithPool(maxOpen, maxIdle int, lifetime time.Duration) ClientOption {
	return func(c *ClientConfig) {
		c.MaxOpenConns = maxOpen
		c.MaxIdleConns = maxIdle
		c.ConnMaxLifetime = lifetime
	}
}

func WithTimeouts(dial, read time.Duration) ClientOption {
	return func(c *ClientConfig) {
		c.DialTimeout = dial
		c.ReadTimeout = read
	}
}
