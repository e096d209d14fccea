// Package goquery implements the entity scraper over parsed storefront
// HTML. Pages embed their interesting data as JSON blobs in element
// attributes and ld+json scripts; the scraper pulls those out, follows the
// origin's cursor-paginated APIs, and streams results through visitor
// callbacks in a fixed order per entity kind.
package goquery

import (
	"context"
	"encoding/json"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/fangraph/fangraph"
)

// Page sizes for the origin's pagination APIs. These mirror what the site's
// own frontend requests; they are tuning knobs, not contracts.
const (
	defaultCollectorsPageSize = 80
	defaultCollectionPageSize = 20
)

// profileBaseURL is the root for fan profile URLs, which pages reference by
// bare username.
const profileBaseURL = "https://bandcamp.com"

// collectionItemsURL is the fixed endpoint for paginating a fan's
// collection.
const collectionItemsURL = "https://bandcamp.com/api/fancollection/1/collection_items"

// collectorsPath is the origin-relative endpoint for paginating a release's
// fan list.
const collectorsPath = "/api/tralbumcollectors/2/thumbs"

// Ensure Scraper implements fangraph.Scraper at compile time.
var _ fangraph.Scraper = (*Scraper)(nil)

// Scraper extracts entities from storefront pages fetched through a
// gateway. It holds no per-request state; one instance per worker is the
// convention but any number of goroutines may share one.
type Scraper struct {
	gateway fangraph.Gateway

	collectorsPageSize int
	collectionPageSize int
}

// Option configures a Scraper.
type Option func(*Scraper)

// WithCollectorsPageSize sets the page size requested from the release fan
// list API.
func WithCollectorsPageSize(n int) Option {
	return func(s *Scraper) {
		s.collectorsPageSize = n
	}
}

// WithCollectionPageSize sets the page size requested from the fan
// collection API.
func WithCollectionPageSize(n int) Option {
	return func(s *Scraper) {
		s.collectionPageSize = n
	}
}

// NewScraper creates a Scraper that fetches through gateway.
func NewScraper(gateway fangraph.Gateway, opts ...Option) *Scraper {
	s := &Scraper{
		gateway:            gateway,
		collectorsPageSize: defaultCollectorsPageSize,
		collectionPageSize: defaultCollectionPageSize,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// fetchDocument gets a page through the gateway and parses it.
func (s *Scraper) fetchDocument(ctx context.Context, pageURL *url.URL) (*goquery.Document, error) {
	body, err := s.gateway.Get(ctx, pageURL.String())
	if err != nil {
		return nil, err
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
	if err != nil {
		return nil, fangraph.Errorf(fangraph.EEXTRACT, "failed to parse HTML: %v", err)
	}
	return doc, nil
}

// postJSON calls a pagination endpoint through the gateway and decodes the
// JSON response into out.
func (s *Scraper) postJSON(ctx context.Context, endpoint string, body, out any) error {
	response, err := s.gateway.Post(ctx, endpoint, body)
	if err != nil {
		return err
	}
	if err := json.Unmarshal([]byte(response), out); err != nil {
		return fangraph.Errorf(fangraph.EEXTRACT, "malformed response from %s: %v", endpoint, err)
	}
	return nil
}

// selectOne returns the first element matching selector, or an extraction
// error when the page has none.
func selectOne(doc *goquery.Document, selector string) (*goquery.Selection, error) {
	sel := doc.Find(selector)
	if sel.Length() == 0 {
		return nil, fangraph.Errorf(fangraph.EEXTRACT, "missing element for %s", selector)
	}
	return sel.First(), nil
}

// requireAttr returns the named attribute, or an extraction error when it
// is absent.
func requireAttr(sel *goquery.Selection, name string) (string, error) {
	value, ok := sel.Attr(name)
	if !ok {
		return "", fangraph.Errorf(fangraph.EEXTRACT, "missing attribute %s", name)
	}
	return value, nil
}

// jsonAttr unmarshals the named attribute's JSON payload into out.
func jsonAttr(sel *goquery.Selection, name string, out any) error {
	raw, err := requireAttr(sel, name)
	if err != nil {
		return err
	}
	if err := json.Unmarshal([]byte(raw), out); err != nil {
		return fangraph.Errorf(fangraph.EEXTRACT, "malformed %s JSON: %v", name, err)
	}
	return nil
}

// unmarshalText unmarshals JSON carried as element text into out.
func unmarshalText(text string, out any) error {
	if err := json.Unmarshal([]byte(text), out); err != nil {
		return fangraph.Errorf(fangraph.EEXTRACT, "malformed embedded JSON: %v", err)
	}
	return nil
}

// resolve resolves href against base, erroring on unparseable hrefs.
func resolve(base *url.URL, href string) (string, error) {
	ref, err := url.Parse(href)
	if err != nil {
		return "", fangraph.Errorf(fangraph.EEXTRACT, "invalid href %q: %v", href, err)
	}
	return base.ResolveReference(ref).String(), nil
}

// profileURL builds a fan profile URL from a username.
func profileURL(username string) string {
	return profileBaseURL + "/" + username
}

// Nested JSON structures shared by the release and fan protocols.

type reviewBlob struct {
	FanID    uint64 `json:"fan_id"`
	Username string `json:"username"`
}

type thumbBlob struct {
	FanID    uint64 `json:"fan_id"`
	Username string `json:"username"`
	Token    string `json:"token"`
}

type collectionItemBlob struct {
	ItemID  uint64 `json:"item_id"`
	ItemURL string `json:"item_url"`
}

type bandBlob struct {
	ID   uint64 `json:"id"`
	Name string `json:"name"`
}

// fansOf maps review entries to users.
func fansOfReviews(reviews []reviewBlob) []fangraph.User {
	users := make([]fangraph.User, 0, len(reviews))
	for _, r := range reviews {
		users = append(users, fangraph.User{
			ID:  fangraph.UserID(r.FanID),
			URL: profileURL(r.Username),
		})
	}
	return users
}

// fansOfThumbs maps thumb entries to users.
func fansOfThumbs(thumbs []thumbBlob) []fangraph.User {
	users := make([]fangraph.User, 0, len(thumbs))
	for _, t := range thumbs {
		users = append(users, fangraph.User{
			ID:  fangraph.UserID(t.FanID),
			URL: profileURL(t.Username),
		})
	}
	return users
}

// releasesOfItems maps collection items to releases.
func releasesOfItems(items []collectionItemBlob) []fangraph.Release {
	releases := make([]fangraph.Release, 0, len(items))
	for _, item := range items {
		releases = append(releases, fangraph.Release{
			ID:  fangraph.ReleaseID(item.ItemID),
			URL: item.ItemURL,
		})
	}
	return releases
}
