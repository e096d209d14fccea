// Package slog provides logging decorators for fangraph services.
package slog

import (
	"context"
	"log/slog"
	"time"

	"github.com/fangraph/fangraph"
)

// Ensure LoggingWebClient implements fangraph.WebClient.
var _ fangraph.WebClient = (*LoggingWebClient)(nil)

// LoggingWebClient wraps a WebClient with request logging.
type LoggingWebClient struct {
	next   fangraph.WebClient
	logger *slog.Logger
}

// NewLoggingWebClient creates a new LoggingWebClient.
func NewLoggingWebClient(next fangraph.WebClient, logger *slog.Logger) *LoggingWebClient {
	return &LoggingWebClient{next: next, logger: logger}
}

// Get delegates to the wrapped client and logs the request.
func (c *LoggingWebClient) Get(ctx context.Context, url string) (body string, err error) {
	defer func(begin time.Time) {
		c.logger.Info("web request",
			"method", "GET",
			"url", url,
			"bytes", len(body),
			"duration", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return c.next.Get(ctx, url)
}

// Post delegates to the wrapped client and logs the request.
func (c *LoggingWebClient) Post(ctx context.Context, url string, reqBody []byte) (body string, err error) {
	defer func(begin time.Time) {
		c.logger.Info("web request",
			"method", "POST",
			"url", url,
			"bytes", len(body),
			"duration", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return c.next.Post(ctx, url, reqBody)
}
