// Package mock provides function-field mock implementations of fangraph
// interfaces for tests.
package mock

import (
	"context"

	"github.com/fangraph/fangraph"
)

var _ fangraph.Gateway = (*Gateway)(nil)

// Gateway is a mock implementation of fangraph.Gateway.
type Gateway struct {
	GetFn  func(ctx context.Context, url string) (string, error)
	PostFn func(ctx context.Context, url string, body any) (string, error)
}

func (g *Gateway) Get(ctx context.Context, url string) (string, error) {
	return g.GetFn(ctx, url)
}

func (g *Gateway) Post(ctx context.Context, url string, body any) (string, error) {
	return g.PostFn(ctx, url, body)
}

var _ fangraph.WebClient = (*WebClient)(nil)

// WebClient is a mock implementation of fangraph.WebClient.
type WebClient struct {
	GetFn  func(ctx context.Context, url string) (string, error)
	PostFn func(ctx context.Context, url string, body []byte) (string, error)
}

func (c *WebClient) Get(ctx context.Context, url string) (string, error) {
	return c.GetFn(ctx, url)
}

func (c *WebClient) Post(ctx context.Context, url string, body []byte) (string, error) {
	return c.PostFn(ctx, url, body)
}

var _ fangraph.ResponseCache = (*ResponseCache)(nil)

// ResponseCache is a mock implementation of fangraph.ResponseCache.
type ResponseCache struct {
	LookupFn func(ctx context.Context, url, method string, body []byte) (string, bool, error)
	StoreFn  func(ctx context.Context, url, method string, body []byte, response string) error
}

func (c *ResponseCache) Lookup(ctx context.Context, url, method string, body []byte) (string, bool, error) {
	return c.LookupFn(ctx, url, method, body)
}

func (c *ResponseCache) Store(ctx context.Context, url, method string, body []byte, response string) error {
	return c.StoreFn(ctx, url, method, body, response)
}
