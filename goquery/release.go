package goquery

import (
	"context"
	"net/url"
	"time"

	"github.com/fangraph/fangraph"
)

type releasePage struct {
	properties  pageProperties
	band        bandBlob
	tralbum     tralbumBlob
	collectors  collectorsBlob
	discography string
	ld          releaseLD
}

type pageProperties struct {
	ItemType string `json:"item_type"`
	ItemID   uint64 `json:"item_id"`
}

type tralbumBlob struct {
	Current struct {
		ReleaseDate string `json:"release_date"`
		PublishDate string `json:"publish_date"`
	} `json:"current"`
}

type collectorsBlob struct {
	MoreThumbsAvailable bool         `json:"more_thumbs_available"`
	Reviews             []reviewBlob `json:"reviews"`
	Thumbs              []thumbBlob  `json:"thumbs"`
}

type thumbsResponse struct {
	Results       []thumbBlob `json:"results"`
	MoreAvailable bool        `json:"more_available"`
}

type collectorsRequest struct {
	TralbumType string `json:"tralbum_type"`
	TralbumID   uint64 `json:"tralbum_id"`
	Token       string `json:"token"`
	Count       int    `json:"count"`
}

// releaseLD is the structured-data blob of a release page.
type releaseLD struct {
	Name     string `json:"name"`
	ByArtist struct {
		Name string `json:"name"`
	} `json:"byArtist"`
	Track    *trackList `json:"track"`
	Duration string     `json:"duration"`
}

type trackList struct {
	Elements []struct {
		Item struct {
			Duration string `json:"duration"`
		} `json:"item"`
	} `json:"itemListElement"`
	Length int `json:"numberOfItems"`
}

// ScrapeRelease fetches a release page and streams the release, its owning
// artist, and its fans. OnRelease fires first with the fully parsed
// details, then OnReleaseArtist, then OnFans for the page's reviewers, its
// embedded fan list, and each page of the collectors API until the origin
// reports no more.
func (s *Scraper) ScrapeRelease(ctx context.Context, rawURL string, v fangraph.ReleaseVisitor) error {
	base, err := url.Parse(rawURL)
	if err != nil {
		return fangraph.Errorf(fangraph.EINVALID, "invalid release URL %q: %v", rawURL, err)
	}

	page, err := s.releasePage(ctx, base)
	if err != nil {
		return err
	}

	details, err := releaseDetails(page)
	if err != nil {
		return err
	}
	release := fangraph.Release{ID: fangraph.ReleaseID(page.properties.ItemID), URL: rawURL}
	if err := v.OnRelease(release, details); err != nil {
		return err
	}

	// The owning artist's store lives behind the discography link; pages
	// without one link the site root of the same store.
	artistHref := page.discography
	if artistHref == "" {
		artistHref = "/"
	}
	artistURL, err := resolve(base, artistHref)
	if err != nil {
		return err
	}
	err = v.OnReleaseArtist(fangraph.Artist{
		ID:  fangraph.ArtistID(page.band.ID),
		URL: artistURL,
	})
	if err != nil {
		return err
	}

	if err := v.OnFans(fansOfReviews(page.collectors.Reviews)); err != nil {
		return err
	}
	if err := v.OnFans(fansOfThumbs(page.collectors.Thumbs)); err != nil {
		return err
	}

	// The embedded thumbs carry the continuation token for the collectors
	// API; without any there is nothing to continue from.
	if len(page.collectors.Thumbs) == 0 {
		return nil
	}
	token := page.collectors.Thumbs[len(page.collectors.Thumbs)-1].Token
	moreAvailable := page.collectors.MoreThumbsAvailable

	for moreAvailable {
		endpoint, err := resolve(base, collectorsPath)
		if err != nil {
			return err
		}
		var response thumbsResponse
		err = s.postJSON(ctx, endpoint, collectorsRequest{
			TralbumType: page.properties.ItemType,
			TralbumID:   page.properties.ItemID,
			Token:       token,
			Count:       s.collectorsPageSize,
		}, &response)
		if err != nil {
			return err
		}
		if len(response.Results) == 0 {
			return fangraph.Errorf(fangraph.EEXTRACT, "collectors page empty with more available")
		}
		token = response.Results[len(response.Results)-1].Token
		moreAvailable = response.MoreAvailable
		if err := v.OnFans(fansOfThumbs(response.Results)); err != nil {
			return err
		}
	}

	return nil
}

// releaseDetails assembles ReleaseDetails from the parsed page, resolving
// the date and duration fallbacks.
func releaseDetails(page *releasePage) (fangraph.ReleaseDetails, error) {
	var details fangraph.ReleaseDetails

	switch page.properties.ItemType {
	case "a":
		details.Type = fangraph.ReleaseAlbum
	case "t":
		details.Type = fangraph.ReleaseTrack
	default:
		return details, fangraph.Errorf(fangraph.EEXTRACT, "unknown release type %q", page.properties.ItemType)
	}

	details.Title = page.ld.Name
	details.Artist = page.ld.ByArtist.Name

	// Some releases have no release date; fall back to the publish date.
	released, err := releaseDate(page.tralbum)
	if err != nil {
		return details, err
	}
	details.Released = released.Round(24 * time.Hour)

	if page.ld.Track != nil {
		details.Tracks = page.ld.Track.Length
	}

	length, err := releaseLength(page.ld)
	if err != nil {
		return details, err
	}
	details.Length = length

	return details, nil
}

func releaseDate(tralbum tralbumBlob) (time.Time, error) {
	if tralbum.Current.ReleaseDate != "" {
		released, err := parseRFC2822(tralbum.Current.ReleaseDate)
		if err != nil {
			return time.Time{}, err
		}
		// An epoch release date is the origin's "not set" sentinel.
		if released.Unix() != 0 {
			return released, nil
		}
	}
	return parseRFC2822(tralbum.Current.PublishDate)
}

// releaseLength returns the top-level duration when present, otherwise the
// sum of the track durations, otherwise zero.
func releaseLength(ld releaseLD) (time.Duration, error) {
	if ld.Duration != "" {
		return parseTrackDuration(ld.Duration)
	}
	if ld.Track == nil {
		return 0, nil
	}
	var total time.Duration
	for _, el := range ld.Track.Elements {
		d, err := parseTrackDuration(el.Item.Duration)
		if err != nil {
			return 0, err
		}
		total += d
	}
	return total, nil
}

func (s *Scraper) releasePage(ctx context.Context, pageURL *url.URL) (*releasePage, error) {
	doc, err := s.fetchDocument(ctx, pageURL)
	if err != nil {
		return nil, err
	}

	var page releasePage

	propsSel, err := selectOne(doc, "meta[name=bc-page-properties]")
	if err != nil {
		return nil, err
	}
	if err := jsonAttr(propsSel, "content", &page.properties); err != nil {
		return nil, err
	}

	bandSel, err := selectOne(doc, "[data-band]")
	if err != nil {
		return nil, err
	}
	if err := jsonAttr(bandSel, "data-band", &page.band); err != nil {
		return nil, err
	}

	tralbumSel, err := selectOne(doc, "[data-tralbum]")
	if err != nil {
		return nil, err
	}
	if err := jsonAttr(tralbumSel, "data-tralbum", &page.tralbum); err != nil {
		return nil, err
	}

	collectorsSel, err := selectOne(doc, "#collectors-data")
	if err != nil {
		return nil, err
	}
	if err := jsonAttr(collectorsSel, "data-blob", &page.collectors); err != nil {
		return nil, err
	}

	// Optional: some release pages have no discography module.
	if sel := doc.Find("#discography a.link-and-title"); sel.Length() > 0 {
		page.discography, _ = sel.First().Attr("href")
	}

	ldSel, err := selectOne(doc, `script[type="application/ld+json"]`)
	if err != nil {
		return nil, err
	}
	if err := unmarshalText(ldSel.Text(), &page.ld); err != nil {
		return nil, err
	}

	return &page, nil
}
