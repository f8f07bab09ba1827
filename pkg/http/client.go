package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

type ClientOption func(*Client)

// RequestOptions holds outbound request parameters.
type RequestOptions struct {
	Method  string
	URL     string
	Headers map[string]string
	Query   url.Values
	Body    interface{} // []byte, io.Reader or anything JSON-encodable
}

// StatusError is returned for non-2xx responses.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d: %s", e.StatusCode, e.Body)
}

// Client is an outbound HTTP client with a per-request timeout.
type Client struct {
	timeout   time.Duration
	userAgent string
	maxBody   int64
	hc        *http.Client
}

func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		timeout:   10 * time.Second,
		userAgent: "flarecast/2",
		maxBody:   8 << 20,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.hc == nil {
		c.hc = &http.Client{}
	}
	return c
}

func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) { c.timeout = d }
}

func WithUserAgent(ua string) ClientOption {
	return func(c *Client) { c.userAgent = ua }
}

// WithHTTPClient swaps the transport, mostly for tests.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) { c.hc = hc }
}

// GetJSON is SendAndParse for a plain GET.
func (c *Client) GetJSON(ctx context.Context, rawURL string, query url.Values, dest interface{}) error {
	return c.SendAndParse(ctx, &RequestOptions{Method: http.MethodGet, URL: rawURL, Query: query}, dest)
}

// SendAndParse sends the request and decodes a JSON response into dest.
func (c *Client) SendAndParse(ctx context.Context, opts *RequestOptions, dest interface{}) error {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	req, err := c.buildRequest(ctx, opts)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}

	resp, err := c.hc.Do(req)
	if err != nil {
		return fmt.Errorf("request %s: %w", req.URL.Host, err)
	}
	defer resp.Body.Close()

	body := io.LimitReader(resp.Body, c.maxBody)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(body, 512))
		return &StatusError{StatusCode: resp.StatusCode, Body: string(snippet)}
	}
	if dest == nil {
		return nil
	}
	if err := json.NewDecoder(body).Decode(dest); err != nil {
		return fmt.Errorf("decode json: %w", err)
	}
	return nil
}

func (c *Client) buildRequest(ctx context.Context, opts *RequestOptions) (*http.Request, error) {
	var body io.Reader
	switch v := opts.Body.(type) {
	case nil:
	case []byte:
		body = bytes.NewReader(v)
	case io.Reader:
		body = v
	default:
		raw, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("marshal json: %w", err)
		}
		body = bytes.NewReader(raw)
	}

	method := opts.Method
	if method == "" {
		method = http.MethodGet
	}
	req, err := http.NewRequestWithContext(ctx, method, opts.URL, body)
	if err != nil {
		return nil, err
	}

	if len(opts.Query) > 0 {
		q := req.URL.Query()
		for k, vs := range opts.Query {
			for _, v := range vs {
				q.Add(k, v)
			}
		}
		req.URL.RawQuery = q.Encode()
	}

	req.Header.Set("Accept", "application/json")
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range opts.Headers {
		req.Header.Set(k, v)
	}
	return req, nil
}
