package clickhouse

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net"
	"net/url"
	"strconv"
	"time"

	_ "github.com/ClickHouse/clickhouse-go/v2"
)

// Client owns a database/sql pool on the clickhouse driver.
type Client struct {
	db *sql.DB
}

func NewClient(ctx context.Context, opts ...ClientOption) (*Client, error) {
	cfg := ClientConfig{
		Port:            9000,
		Database:        "default",
		User:            "default",
		MaxOpenConns:    8,
		MaxIdleConns:    4,
		ConnMaxLifetime: 5 * time.Minute,
		DialTimeout:     5 * time.Second,
		ReadTimeout:     10 * time.Second,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.Host == "" {
		return nil, errors.New("clickhouse: host is required")
	}

	db, err := sql.Open("clickhouse", DSN(cfg))
	if err != nil {
		return nil, fmt.Errorf("clickhouse open: %w", err)
	}
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	pingCtx, cancel := context.WithTimeout(ctx, cfg.DialTimeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("clickhouse ping: %w", err)
	}
	return &Client{db: db}, nil
}

// DSN renders the driver connection string.
func DSN(cfg ClientConfig) string {
	u := url.URL{
		Scheme: "clickhouse",
		User:   url.UserPassword(cfg.User, cfg.Password),
		Host:   net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port)),
		Path:   "/" + cfg.Database,
	}
	if cfg.UseHTTP {
		u.Scheme = "http"
	}
	q := url.Values{}
	if cfg.DialTimeout > 0 {
		q.Set("dial_timeout", cfg.DialTimeout.String())
	}
	if cfg.ReadTimeout > 0 {
		q.Set("read_timeout", cfg.ReadTimeout.String())
	}
	u.RawQuery = q.Encode()
	return u.String()
}

func (c *Client) DB() *sql.DB { return c.db }

func (c *Client) Health(ctx context.Context) error {
	return c.db.PingContext(ctx)
}

// InitSchema runs idempotent DDL statements in order.
func (c *Client) InitSchema(ctx context.Context, stmts []string) error {
	for _, stmt := range stmts {
		if _, err := c.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("init schema: %w", err)
		}
	}
	return nil
}

func (c *Client) Close() error {
	if c.db == nil {
		return nil
	}
	return c.db.Close()
}
