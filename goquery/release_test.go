package goquery_test

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/fangraph/fangraph"
	fangoquery "github.com/fangraph/fangraph/goquery"
	"github.com/fangraph/fangraph/mock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// releaseHTMLWith assembles a release page fixture around the given
// tralbum and ld+json payloads.
func releaseHTMLWith(tralbum, ld string) string {
	return fmt.Sprintf(`<html><head>
<meta name="bc-page-properties" content='{"item_type":"a","item_id":777}'>
</head><body>
<div data-band='{"id":321,"name":"Sample Band"}'></div>
<script data-tralbum='%s'></script>
<div id="collectors-data" data-blob='{"more_thumbs_available":true,"reviews":[{"fan_id":1,"username":"rev1"}],"thumbs":[{"fan_id":2,"username":"fan2","token":"tok-1"}]}'></div>
<div id="discography"><a class="link-and-title" href="/music">Discography</a></div>
<script type="application/ld+json">%s</script>
</body></html>`, tralbum, ld)
}

const defaultTralbum = `{"current":{"release_date":"07 Apr 2024 00:00:00 GMT","publish_date":"01 Apr 2024 00:00:00 GMT"}}`

const defaultLD = `{"name":"Great Album","byArtist":{"name":"Credited Band"},"duration":"P00H40M00S","track":{"numberOfItems":2,"itemListElement":[{"item":{"duration":"P00H20M10S"}},{"item":{"duration":"PT19M50S"}}]}}`

// thumbsPage builds a collectors API response fixture with n fans.
func thumbsPage(startID uint64, lastToken string, more bool) string {
	return fmt.Sprintf(`{"results":[{"fan_id":%d,"username":"fan%d","token":"%s"}],"more_available":%t}`,
		startID, startID, lastToken, more)
}

// releaseGateway serves the release page fixture and scripts the collectors
// API to return the given page bodies in order.
func releaseGateway(t *testing.T, html string, apiPages []string) (*mock.Gateway, *[][]byte) {
	t.Helper()
	var bodies [][]byte
	calls := 0
	g := &mock.Gateway{
		GetFn: func(_ context.Context, url string) (string, error) {
			return html, nil
		},
		PostFn: func(_ context.Context, url string, body any) (string, error) {
			assert.Equal(t, "https://x.example.com/api/tralbumcollectors/2/thumbs", url)
			raw, err := json.Marshal(body)
			require.NoError(t, err)
			bodies = append(bodies, raw)
			require.Less(t, calls, len(apiPages), "more API calls than scripted pages")
			page := apiPages[calls]
			calls++
			return page, nil
		},
	}
	return g, &bodies
}

func TestScrapeRelease_emits_in_contract_order(t *testing.T) {
	t.Parallel()

	g, _ := releaseGateway(t, releaseHTMLWith(defaultTralbum, defaultLD), []string{
		thumbsPage(3, "tok-2", false),
	})
	s := fangoquery.NewScraper(g)

	var order []string
	err := s.ScrapeRelease(context.Background(), "https://x.example.com/album/a", fangraph.ReleaseVisitor{
		OnRelease: func(fangraph.Release, fangraph.ReleaseDetails) error {
			order = append(order, "release")
			return nil
		},
		OnReleaseArtist: func(fangraph.Artist) error {
			order = append(order, "artist")
			return nil
		},
		OnFans: func([]fangraph.User) error {
			order = append(order, "fans")
			return nil
		},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"release", "artist", "fans", "fans", "fans"}, order)
}

func TestScrapeRelease_parses_details(t *testing.T) {
	t.Parallel()

	g, _ := releaseGateway(t, releaseHTMLWith(defaultTralbum, defaultLD), []string{
		thumbsPage(3, "tok-2", false),
	})
	s := fangoquery.NewScraper(g)

	var release fangraph.Release
	var details fangraph.ReleaseDetails
	var artist fangraph.Artist
	err := s.ScrapeRelease(context.Background(), "https://x.example.com/album/a", fangraph.ReleaseVisitor{
		OnRelease: func(r fangraph.Release, d fangraph.ReleaseDetails) error {
			release, details = r, d
			return nil
		},
		OnReleaseArtist: func(a fangraph.Artist) error {
			artist = a
			return nil
		},
		OnFans: func([]fangraph.User) error { return nil },
	})
	require.NoError(t, err)

	assert.Equal(t, fangraph.ReleaseID(777), release.ID)
	assert.Equal(t, "https://x.example.com/album/a", release.URL)
	assert.Equal(t, fangraph.ReleaseAlbum, details.Type)
	assert.Equal(t, "Great Album", details.Title)
	assert.Equal(t, "Credited Band", details.Artist)
	assert.Equal(t, 2, details.Tracks)
	assert.Equal(t, 40*time.Minute, details.Length)
	assert.True(t, details.Released.Equal(time.Date(2024, 4, 7, 0, 0, 0, 0, time.UTC)),
		"got %v", details.Released)

	assert.Equal(t, fangraph.ArtistID(321), artist.ID)
	assert.Equal(t, "https://x.example.com/music", artist.URL)
}

func TestScrapeRelease_sums_track_durations_when_top_level_absent(t *testing.T) {
	t.Parallel()

	ld := `{"name":"Great Album","byArtist":{"name":"Credited Band"},"track":{"numberOfItems":2,"itemListElement":[{"item":{"duration":"P00H20M10S"}},{"item":{"duration":"PT19M50S"}}]}}`
	g, _ := releaseGateway(t, releaseHTMLWith(defaultTralbum, ld), []string{
		thumbsPage(3, "tok-2", false),
	})
	s := fangoquery.NewScraper(g)

	var details fangraph.ReleaseDetails
	err := s.ScrapeRelease(context.Background(), "https://x.example.com/album/a", fangraph.ReleaseVisitor{
		OnRelease: func(_ fangraph.Release, d fangraph.ReleaseDetails) error {
			details = d
			return nil
		},
		OnReleaseArtist: func(fangraph.Artist) error { return nil },
		OnFans:          func([]fangraph.User) error { return nil },
	})
	require.NoError(t, err)
	assert.Equal(t, 40*time.Minute, details.Length)
}

func TestScrapeRelease_falls_back_to_publish_date(t *testing.T) {
	t.Parallel()

	for name, tralbum := range map[string]string{
		"missing release date": `{"current":{"publish_date":"01 Apr 2024 00:00:00 GMT"}}`,
		"epoch release date":   `{"current":{"release_date":"01 Jan 1970 00:00:00 GMT","publish_date":"01 Apr 2024 00:00:00 GMT"}}`,
	} {
		tralbum := tralbum
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			g, _ := releaseGateway(t, releaseHTMLWith(tralbum, defaultLD), []string{
				thumbsPage(3, "tok-2", false),
			})
			s := fangoquery.NewScraper(g)

			var details fangraph.ReleaseDetails
			err := s.ScrapeRelease(context.Background(), "https://x.example.com/album/a", fangraph.ReleaseVisitor{
				OnRelease: func(_ fangraph.Release, d fangraph.ReleaseDetails) error {
					details = d
					return nil
				},
				OnReleaseArtist: func(fangraph.Artist) error { return nil },
				OnFans:          func([]fangraph.User) error { return nil },
			})
			require.NoError(t, err)
			assert.True(t, details.Released.Equal(time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC)),
				"got %v", details.Released)
		})
	}
}

func TestScrapeRelease_rejects_unknown_type_code(t *testing.T) {
	t.Parallel()

	html := `<html><head>
<meta name="bc-page-properties" content='{"item_type":"x","item_id":777}'>
</head><body>
<div data-band='{"id":321,"name":"Sample Band"}'></div>
<script data-tralbum='` + defaultTralbum + `'></script>
<div id="collectors-data" data-blob='{"more_thumbs_available":false,"reviews":[],"thumbs":[]}'></div>
<script type="application/ld+json">` + defaultLD + `</script>
</body></html>`

	g, _ := releaseGateway(t, html, nil)
	s := fangoquery.NewScraper(g)

	err := s.ScrapeRelease(context.Background(), "https://x.example.com/album/a", fangraph.ReleaseVisitor{
		OnRelease:       func(fangraph.Release, fangraph.ReleaseDetails) error { return nil },
		OnReleaseArtist: func(fangraph.Artist) error { return nil },
		OnFans:          func([]fangraph.User) error { return nil },
	})
	require.Error(t, err)
	assert.Equal(t, fangraph.EEXTRACT, fangraph.ErrorCode(err))
}

func TestScrapeRelease_paginates_collectors_until_exhausted(t *testing.T) {
	t.Parallel()

	g, bodies := releaseGateway(t, releaseHTMLWith(defaultTralbum, defaultLD), []string{
		thumbsPage(3, "tok-2", true),
		thumbsPage(4, "tok-3", true),
		thumbsPage(5, "tok-4", false),
	})
	s := fangoquery.NewScraper(g)

	var fanBatches [][]fangraph.User
	err := s.ScrapeRelease(context.Background(), "https://x.example.com/album/a", fangraph.ReleaseVisitor{
		OnRelease:       func(fangraph.Release, fangraph.ReleaseDetails) error { return nil },
		OnReleaseArtist: func(fangraph.Artist) error { return nil },
		OnFans: func(users []fangraph.User) error {
			fanBatches = append(fanBatches, users)
			return nil
		},
	})
	require.NoError(t, err)

	// Reviews, embedded thumbs, then exactly one batch per API page.
	require.Len(t, fanBatches, 5)
	assert.Equal(t, fangraph.UserID(1), fanBatches[0][0].ID)
	assert.Equal(t, "https://bandcamp.com/rev1", fanBatches[0][0].URL)
	assert.Equal(t, fangraph.UserID(2), fanBatches[1][0].ID)
	assert.Equal(t, fangraph.UserID(5), fanBatches[4][0].ID)

	// Each continuation passes the previous page's trailing token.
	require.Len(t, *bodies, 3)
	assert.Contains(t, string((*bodies)[0]), `"token":"tok-1"`)
	assert.Contains(t, string((*bodies)[1]), `"token":"tok-2"`)
	assert.Contains(t, string((*bodies)[2]), `"token":"tok-3"`)
	assert.Contains(t, string((*bodies)[0]), `"tralbum_type":"a"`)
	assert.Contains(t, string((*bodies)[0]), `"tralbum_id":777`)
	assert.Contains(t, string((*bodies)[0]), `"count":80`)
}

func TestScrapeRelease_skips_pagination_without_embedded_thumbs(t *testing.T) {
	t.Parallel()

	// more_thumbs_available is set but there is no token to continue from.
	html := `<html><head>
<meta name="bc-page-properties" content='{"item_type":"t","item_id":778}'>
</head><body>
<div data-band='{"id":321,"name":"Sample Band"}'></div>
<script data-tralbum='` + defaultTralbum + `'></script>
<div id="collectors-data" data-blob='{"more_thumbs_available":true,"reviews":[],"thumbs":[]}'></div>
<script type="application/ld+json">` + defaultLD + `</script>
</body></html>`

	g, bodies := releaseGateway(t, html, nil)
	s := fangoquery.NewScraper(g)

	var artist fangraph.Artist
	var details fangraph.ReleaseDetails
	err := s.ScrapeRelease(context.Background(), "https://x.example.com/track/b", fangraph.ReleaseVisitor{
		OnRelease: func(_ fangraph.Release, d fangraph.ReleaseDetails) error {
			details = d
			return nil
		},
		OnReleaseArtist: func(a fangraph.Artist) error {
			artist = a
			return nil
		},
		OnFans: func([]fangraph.User) error { return nil },
	})
	require.NoError(t, err)
	assert.Empty(t, *bodies, "no API call without a continuation token")
	assert.Equal(t, fangraph.ReleaseTrack, details.Type)

	// Without a discography module the owning artist URL is the site root.
	assert.Equal(t, "https://x.example.com/", artist.URL)
}
