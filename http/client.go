// Package http provides the HTTP client infrastructure shared by both
// backends: fixed per-request timeouts, per-host rate limiting, typed
// status errors, and optional retry for transient failures.
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

	"ytsubs/retry"
)

// Config holds HTTP client configuration.
type Config struct {
	// Timeout bounds each individual request. Network calls rely on this
	// fixed timeout rather than caller-driven cancellation.
	Timeout time.Duration

	// UserAgent is sent when a request sets no explicit one.
	UserAgent string

	// Retry controls transient-failure retries. retry.None() gives strict
	// single-attempt semantics.
	Retry retry.Config

	// PerHostRPS and PerHostBurst configure the per-host token bucket.
	PerHostRPS   float64
	PerHostBurst int
}

// DefaultConfig returns conservative defaults suitable for third-party
// instances and YouTube endpoints alike.
func DefaultConfig() *Config {
	return &Config{
		Timeout:      30 * time.Second,
		UserAgent:    "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
		Retry:        retry.None(),
		PerHostRPS:   4,
		PerHostBurst: 4,
	}
}

// Client wraps an HTTP client with rate limiting and typed error handling.
type Client struct {
	base     *http.Client
	config   *Config
	limiters *hostLimiters
}

// New creates a client from the given configuration. A nil configuration
// selects the defaults.
func New(cfg *Config) *Client {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	return &Client{
		base: &http.Client{
			Timeout: cfg.Timeout,
			Transport: &http.Transport{
				MaxIdleConns:        20,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
				ForceAttemptHTTP2:   true,
			},
		},
		config:   cfg,
		limiters: newHostLimiters(cfg.PerHostRPS, cfg.PerHostBurst),
	}
}

// Response is a fully read HTTP response.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// Get performs a GET request.
func (c *Client) Get(ctx context.Context, rawURL string) (*Response, error) {
	return c.Do(ctx, http.MethodGet, rawURL, nil, nil)
}

// GetQuery performs a GET request with an encoded query string.
func (c *Client) GetQuery(ctx context.Context, rawURL string, query url.Values) (*Response, error) {
	return c.Do(ctx, http.MethodGet, rawURL+"?"+query.Encode(), nil, nil)
}

// PostJSON marshals body and POSTs it with a JSON content type.
func (c *Client) PostJSON(ctx context.Context, rawURL string, body any, headers map[string]string) (*Response, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	h := map[string]string{"Content-Type": "application/json"}
	for k, v := range headers {
		h[k] = v
	}
	return c.Do(ctx, http.MethodPost, rawURL, payload, h)
}

// Do performs a request, waiting on the host's rate limiter first. Non-2xx
// responses become an *HTTPError carrying the status code and body. The body
// is passed as bytes so retried attempts can rebuild the reader.
func (c *Client) Do(ctx context.Context, method, rawURL string, body []byte, headers map[string]string) (*Response, error) {
	if err := c.limiters.wait(ctx, rawURL); err != nil {
		return nil, err
	}

	var resp *Response
	err := retry.Do(ctx, c.config.Retry, isRetryable, func(ctx context.Context) error {
		var reader io.Reader
		if body != nil {
			reader = bytes.NewReader(body)
		}

		req, err := http.NewRequestWithContext(ctx, method, rawURL, reader)
		if err != nil {
			return err
		}
		if req.Header.Get("User-Agent") == "" {
			req.Header.Set("User-Agent", c.config.UserAgent)
		}
		for k, v := range headers {
			req.Header.Set(k, v)
		}

		httpResp, err := c.base.Do(req)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrRequestFailed, err)
		}
		defer httpResp.Body.Close()

		respBody, err := io.ReadAll(httpResp.Body)
		if err != nil {
			return fmt.Errorf("read response body: %w", err)
		}

		if httpResp.StatusCode < 200 || httpResp.StatusCode >= 300 {
			return &HTTPError{StatusCode: httpResp.StatusCode, Body: respBody}
		}

		resp = &Response{
			StatusCode: httpResp.StatusCode,
			Header:     httpResp.Header,
			Body:       respBody,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return resp, nil
}

// JSON decodes the response body into v, tolerating unknown fields, which is
// essential for the deeply versioned documents both backends consume.
func (r *Response) JSON(v any) error {
	if err := json.Unmarshal(r.Body, v); err != nil {
		return fmt.Errorf("unmarshal response: %w", err)
	}
	return nil
}

// isRetryable classifies HTTP failures: 5xx and transport errors are worth
// another attempt, everything else is permanent.
func isRetryable(err error) bool {
	if !retry.IsRetryable(err) {
		return false
	}
	if httpErr, ok := err.(*HTTPError); ok {
		return httpErr.StatusCode >= 500
	}
	return true
}
