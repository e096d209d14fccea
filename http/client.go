// Package http provides the rate-limited client for real network calls to
// the storefront. Only the gateway should hold a Client: the pacing state
// assumes a single serialized caller.
package http

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/fangraph/fangraph"
	"golang.org/x/time/rate"
)

// DefaultMinInterval is the minimum spacing between consecutive requests to
// the origin.
const DefaultMinInterval = time.Second

// DefaultTimeout is the default timeout for a single HTTP request.
const DefaultTimeout = 30 * time.Second

// Ensure Client implements fangraph.WebClient at compile time.
var _ fangraph.WebClient = (*Client)(nil)

// Client performs paced HTTP calls against the origin. Every call waits
// until at least the configured interval has passed since the previous one.
type Client struct {
	client      *http.Client
	limiter     *rate.Limiter
	timeout     time.Duration
	minInterval time.Duration
}

// Option configures a Client.
type Option func(*Client)

// WithMinInterval sets the minimum spacing between requests.
// Defaults to DefaultMinInterval (1s) if not specified.
func WithMinInterval(d time.Duration) Option {
	return func(c *Client) {
		c.minInterval = d
	}
}

// WithTimeout sets the timeout for individual HTTP requests.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.timeout = d
	}
}

// WithHTTPClient replaces the underlying http.Client. The configured
// timeout is ignored when this option is used.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.client = hc
	}
}

// NewClient creates a new rate-limited Client.
func NewClient(opts ...Option) *Client {
	c := &Client{
		timeout:     DefaultTimeout,
		minInterval: DefaultMinInterval,
	}
	for _, opt := range opts {
		opt(c)
	}

	if c.client == nil {
		c.client = &http.Client{
			Timeout: c.timeout,
		}
	}

	// Burst of 1: requests are spaced, never bunched.
	c.limiter = rate.NewLimiter(rate.Every(c.minInterval), 1)

	return c
}

// Get retrieves the body of url.
func (c *Client) Get(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", err
	}
	return c.do(ctx, req)
}

// Post sends a pre-marshaled JSON body to url and returns the response body.
func (c *Client) Post(ctx context.Context, url string, body []byte) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(ctx, req)
}

func (c *Client) do(ctx context.Context, req *http.Request) (string, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return "", err
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("HTTP %d for %s", resp.StatusCode, req.URL)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}

	return string(body), nil
}
