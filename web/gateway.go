// Package web provides the origin gateway: a single goroutine that owns
// the response cache and the rate-limited client and serializes every
// outbound call. Serialization is the point, not an implementation detail:
// it keeps the limiter's pacing state race-free and makes cache population
// atomic, so a second identical request queues behind the first instead of
// hitting the network twice.
package web

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/fangraph/fangraph"
)

// Request methods as stored in the cache key.
const (
	methodGet  = "get"
	methodPost = "post"
)

// Compile-time interface verification.
var _ fangraph.Gateway = (*Gateway)(nil)

// Gateway serves fetches from the cache, falling through to the network and
// recording the result on a miss. All calls funnel through one goroutine
// via a capacity-1 job channel; callers block waiting to enqueue, which is
// the system's single-flight mechanism.
type Gateway struct {
	cache  fangraph.ResponseCache
	client fangraph.WebClient
	stats  *fangraph.Stats
	logger *slog.Logger

	jobs chan job
	quit chan struct{}
	done chan struct{}

	closeOnce sync.Once
}

type job struct {
	ctx    context.Context
	method string
	url    string
	body   []byte
	reply  chan result
}

type result struct {
	body string
	err  error
}

// Option configures a Gateway.
type Option func(*Gateway)

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(g *Gateway) {
		g.logger = logger
	}
}

// NewGateway creates a Gateway over an opened cache and a client and starts
// its owner goroutine.
func NewGateway(cache fangraph.ResponseCache, client fangraph.WebClient, stats *fangraph.Stats, opts ...Option) *Gateway {
	g := &Gateway{
		cache:  cache,
		client: client,
		stats:  stats,
		jobs:   make(chan job, 1),
		quit:   make(chan struct{}),
		done:   make(chan struct{}),
	}
	for _, opt := range opts {
		opt(g)
	}
	if g.logger == nil {
		g.logger = slog.Default()
	}

	go g.run()
	return g
}

// Get fetches the body of a content page, from cache when possible.
func (g *Gateway) Get(ctx context.Context, url string) (string, error) {
	return g.fetch(ctx, methodGet, url, nil)
}

// Post sends body as JSON to a pagination endpoint, from cache when
// possible. The body is marshaled once and the serialized form is both the
// cache key component and the wire payload.
func (g *Gateway) Post(ctx context.Context, url string, body any) (string, error) {
	data, err := json.Marshal(body)
	if err != nil {
		return "", fangraph.Errorf(fangraph.EINVALID, "marshal request body: %v", err)
	}
	return g.fetch(ctx, methodPost, url, data)
}

// Close stops the owner goroutine. In-flight jobs finish first.
func (g *Gateway) Close() {
	g.closeOnce.Do(func() {
		close(g.quit)
	})
	<-g.done
}

func (g *Gateway) fetch(ctx context.Context, method, url string, body []byte) (string, error) {
	reply := make(chan result, 1)

	select {
	case g.jobs <- job{ctx: ctx, method: method, url: url, body: body, reply: reply}:
	case <-g.quit:
		return "", fangraph.Errorf(fangraph.ESHUTDOWN, "gateway closed")
	case <-ctx.Done():
		return "", ctx.Err()
	}

	select {
	case r := <-reply:
		return r.body, r.err
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

func (g *Gateway) run() {
	defer close(g.done)
	for {
		select {
		case j := <-g.jobs:
			j.reply <- g.handle(j)
		case <-g.quit:
			return
		}
	}
}

func (g *Gateway) handle(j job) result {
	g.stats.WebRequests.Add(1)

	cached, ok, err := g.cache.Lookup(j.ctx, j.url, j.method, j.body)
	if err != nil {
		return result{err: err}
	}
	if ok {
		g.stats.CacheHits.Add(1)
		g.logger.Debug("cache hit", "method", j.method, "url", j.url)
		return result{body: cached}
	}

	g.stats.CacheMisses.Add(1)
	g.logger.Debug("cache miss", "method", j.method, "url", j.url)

	var body string
	switch j.method {
	case methodGet:
		body, err = g.client.Get(j.ctx, j.url)
	case methodPost:
		body, err = g.client.Post(j.ctx, j.url, j.body)
	}
	if err != nil {
		return result{err: err}
	}

	// The lookup above missed and this goroutine is the only writer, so the
	// store cannot race another writer for the same key.
	if err := g.cache.Store(j.ctx, j.url, j.method, j.body, body); err != nil {
		return result{err: err}
	}
	return result{body: body}
}
