package mock

import (
	"context"

	"github.com/fangraph/fangraph"
)

var _ fangraph.Scraper = (*Scraper)(nil)

// Scraper is a mock implementation of fangraph.Scraper.
type Scraper struct {
	ScrapeArtistFn  func(ctx context.Context, url string, v fangraph.ArtistVisitor) error
	ScrapeReleaseFn func(ctx context.Context, url string, v fangraph.ReleaseVisitor) error
	ScrapeFanFn     func(ctx context.Context, url string, v fangraph.UserVisitor) error
}

func (s *Scraper) ScrapeArtist(ctx context.Context, url string, v fangraph.ArtistVisitor) error {
	return s.ScrapeArtistFn(ctx, url, v)
}

func (s *Scraper) ScrapeRelease(ctx context.Context, url string, v fangraph.ReleaseVisitor) error {
	return s.ScrapeReleaseFn(ctx, url, v)
}

func (s *Scraper) ScrapeFan(ctx context.Context, url string, v fangraph.UserVisitor) error {
	return s.ScrapeFanFn(ctx, url, v)
}
