package fangraph

import "context"

// ArtistVisitor receives the results of an artist scrape.
//
// OnArtist fires exactly once, before any OnReleases call, as soon as the
// page is parsed. OnReleases fires once for the releases embedded in the
// page markup and, when the page carries a client-rendered list, once more
// for that list. Returning an error from any callback aborts the scrape.
type ArtistVisitor struct {
	OnArtist   func(Artist, ArtistDetails) error
	OnReleases func([]Release) error
}

// ReleaseVisitor receives the results of a release scrape.
//
// Call order: OnRelease once, then OnReleaseArtist once, then OnFans once
// for the page's reviewers, once for its embedded fan list, and once per
// page of the paginated collectors API until the origin reports no more.
type ReleaseVisitor struct {
	OnRelease       func(Release, ReleaseDetails) error
	OnReleaseArtist func(Artist) error
	OnFans          func([]User) error
}

// UserVisitor receives the results of a fan scrape.
//
// OnUser fires exactly once, first. OnCollection fires once for the batch
// embedded in the page and once per page of the paginated collection API.
type UserVisitor struct {
	OnUser       func(User, UserDetails) error
	OnCollection func([]Release) error
}

// Scraper extracts entities and relationships from the storefront, one
// entry point per entity kind. Implementations are stateless between calls
// and stream results through the visitor; any fetch or parse failure aborts
// the whole call without retracting callbacks already made.
type Scraper interface {
	ScrapeArtist(ctx context.Context, url string, v ArtistVisitor) error
	ScrapeRelease(ctx context.Context, url string, v ReleaseVisitor) error
	ScrapeFan(ctx context.Context, url string, v UserVisitor) error
}
