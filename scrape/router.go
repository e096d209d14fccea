// Package scrape provides the request router and its worker pool: the
// public façade of the scraping core. Submitted requests are deduplicated
// against everything ever submitted in this process, fed to a fixed set of
// workers, and answered as a stream of responses on a small bounded channel
// whose fullness is the system's backpressure valve.
package scrape

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/fangraph/fangraph"
	"github.com/fangraph/fangraph/goquery"
	"golang.org/x/sync/errgroup"
)

// DefaultWorkers is the default number of concurrent scrape workers.
const DefaultWorkers = 8

// DefaultOutputCapacity is the default capacity of the response channel.
const DefaultOutputCapacity = 8

// Router accepts scrape requests, suppresses duplicates, and streams
// responses. Responses for different requests interleave arbitrarily;
// within one request the relationship batches always precede the primary
// entity response.
type Router struct {
	gateway    fangraph.Gateway
	stats      *fangraph.Stats
	logger     *slog.Logger
	workers    int
	outputCap  int
	newScraper func(fangraph.Gateway) fangraph.Scraper

	mu     sync.Mutex
	seen   map[fangraph.Request]struct{}
	closed bool

	input  *queue
	output chan fangraph.Response
	quit   chan struct{}
	group  *errgroup.Group
}

// Option configures a Router.
type Option func(*Router)

// WithWorkers sets the worker count. Defaults to DefaultWorkers.
func WithWorkers(n int) Option {
	return func(r *Router) {
		r.workers = n
	}
}

// WithOutputCapacity sets the response channel capacity.
// Defaults to DefaultOutputCapacity.
func WithOutputCapacity(n int) Option {
	return func(r *Router) {
		r.outputCap = n
	}
}

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(r *Router) {
		r.logger = logger
	}
}

// WithScraper sets the per-worker scraper constructor. Defaults to
// goquery.NewScraper.
func WithScraper(newScraper func(fangraph.Gateway) fangraph.Scraper) Option {
	return func(r *Router) {
		r.newScraper = newScraper
	}
}

// NewRouter creates a Router over gateway and starts its workers.
func NewRouter(gateway fangraph.Gateway, stats *fangraph.Stats, opts ...Option) *Router {
	r := &Router{
		gateway:   gateway,
		stats:     stats,
		workers:   DefaultWorkers,
		outputCap: DefaultOutputCapacity,
		seen:      make(map[fangraph.Request]struct{}),
		input:     newQueue(),
		quit:      make(chan struct{}),
		group:     &errgroup.Group{},
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.stats == nil {
		r.stats = &fangraph.Stats{}
	}
	if r.logger == nil {
		r.logger = slog.Default()
	}
	if r.newScraper == nil {
		r.newScraper = func(g fangraph.Gateway) fangraph.Scraper {
			return goquery.NewScraper(g)
		}
	}
	r.output = make(chan fangraph.Response, r.outputCap)

	for i := 0; i < r.workers; i++ {
		scraper := r.newScraper(r.gateway)
		r.group.Go(func() (err error) {
			defer func() {
				if p := recover(); p != nil {
					err = fmt.Errorf("worker panic: %v", p)
				}
			}()
			return r.worker(scraper)
		})
	}

	return r
}

// Submit enqueues a request unless an equal one was ever submitted before.
// Duplicates are counted and dropped silently; Submit never blocks on the
// pipeline.
func (r *Router) Submit(req fangraph.Request) error {
	if err := req.Validate(); err != nil {
		return err
	}

	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return fangraph.Errorf(fangraph.ESHUTDOWN, "router closed")
	}
	if _, ok := r.seen[req]; ok {
		r.mu.Unlock()
		r.stats.ItemsDuplicate.Add(1)
		return nil
	}
	r.seen[req] = struct{}{}
	r.mu.Unlock()

	r.stats.ItemsQueued.Add(1)
	r.input.push(req)
	return nil
}

// TryReceive pops one response without blocking. The bool result is false
// when none is ready (or the router is closed).
func (r *Router) TryReceive() (fangraph.Response, bool) {
	select {
	case resp, ok := <-r.output:
		if !ok {
			return nil, false
		}
		return resp, true
	default:
		return nil, false
	}
}

// Close stops accepting submissions, lets queued and in-flight work drain,
// and joins every worker. A worker panic surfaces as the returned error
// rather than being swallowed.
func (r *Router) Close() error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil
	}
	r.closed = true
	r.mu.Unlock()

	// Drop the receiving side first, as a consumer going away would: workers
	// blocked on a full output channel fail their send and stop, instead of
	// waiting for a drain that will never come.
	close(r.quit)
	r.input.close()
	err := r.group.Wait()
	close(r.output)
	return err
}

func (r *Router) worker(scraper fangraph.Scraper) error {
	for {
		req, ok := r.input.pop()
		if !ok {
			return nil
		}
		r.stats.ItemsQueued.Add(-1)
		r.stats.ItemsProcessing.Add(1)

		if err := r.handle(scraper, req); err != nil {
			if fangraph.ErrorCode(err) == fangraph.ESHUTDOWN {
				r.logger.Info("worker shutdown while still processing an item",
					"kind", req.Kind.String(), "url", req.URL)
				return nil
			}
			r.logger.Error("failed handling scrape request",
				"kind", req.Kind.String(), "url", req.URL, "error", err)
		}

		r.stats.ItemsProcessing.Add(-1)
		r.stats.ItemsCompleted.Add(1)
	}
}

// send delivers a response to the consumer, blocking while the output
// channel is full. A closed router fails the send with ESHUTDOWN, the one
// error that stops a worker.
func (r *Router) send(resp fangraph.Response) error {
	select {
	case <-r.quit:
		return fangraph.Errorf(fangraph.ESHUTDOWN, "response channel closed")
	default:
	}
	select {
	case r.output <- resp:
		return nil
	case <-r.quit:
		return fangraph.Errorf(fangraph.ESHUTDOWN, "response channel closed")
	}
}

// handle runs one request through the scraper, stashing the primary entity
// from the first callback so relationship batches can reference it, and
// emitting the primary response last.
func (r *Router) handle(scraper fangraph.Scraper, req fangraph.Request) error {
	ctx := context.Background()

	switch req.Kind {
	case fangraph.KindArtist:
		var artist fangraph.Artist
		var details fangraph.ArtistDetails
		err := scraper.ScrapeArtist(ctx, req.URL, fangraph.ArtistVisitor{
			OnArtist: func(a fangraph.Artist, d fangraph.ArtistDetails) error {
				artist, details = a, d
				return nil
			},
			OnReleases: func(releases []fangraph.Release) error {
				return r.send(fangraph.ReleasesResponse{Artist: artist, Releases: releases})
			},
		})
		if err != nil {
			return err
		}
		return r.send(fangraph.ArtistResponse{Artist: artist, Details: details})

	case fangraph.KindRelease:
		var release fangraph.Release
		var details fangraph.ReleaseDetails
		err := scraper.ScrapeRelease(ctx, req.URL, fangraph.ReleaseVisitor{
			OnRelease: func(rel fangraph.Release, d fangraph.ReleaseDetails) error {
				release, details = rel, d
				return nil
			},
			OnReleaseArtist: func(artist fangraph.Artist) error {
				return r.send(fangraph.ReleaseArtistResponse{Release: release, Artist: artist})
			},
			OnFans: func(users []fangraph.User) error {
				return r.send(fangraph.FansResponse{Release: release, Users: users})
			},
		})
		if err != nil {
			return err
		}
		return r.send(fangraph.ReleaseResponse{Release: release, Details: details})

	case fangraph.KindUser:
		var user fangraph.User
		var details fangraph.UserDetails
		err := scraper.ScrapeFan(ctx, req.URL, fangraph.UserVisitor{
			OnUser: func(u fangraph.User, d fangraph.UserDetails) error {
				user, details = u, d
				return nil
			},
			OnCollection: func(releases []fangraph.Release) error {
				return r.send(fangraph.CollectionResponse{User: user, Releases: releases})
			},
		})
		if err != nil {
			return err
		}
		return r.send(fangraph.UserResponse{User: user, Details: details})
	}

	return fangraph.Errorf(fangraph.EINVALID, "unknown request kind %d", req.Kind)
}
