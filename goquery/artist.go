package goquery

import (
	"context"
	"net/url"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/fangraph/fangraph"
)

type artistPage struct {
	band      bandBlob
	gridItems []musicGridItem
	// clientItems is the client-rendered discography list some pages embed
	// alongside the static grid; nil when the page has none.
	clientItems []clientItem
}

type musicGridItem struct {
	itemID   uint64
	href     string
	title    string
	typeCode string
}

type clientItem struct {
	ID      uint64 `json:"id"`
	PageURL string `json:"page_url"`
	Title   string `json:"title"`
	Type    string `json:"type"`
}

// ScrapeArtist fetches an artist page and streams the artist and its
// releases. OnArtist fires first, then OnReleases for the static grid, then
// OnReleases again when the page embeds a client-rendered list.
func (s *Scraper) ScrapeArtist(ctx context.Context, rawURL string, v fangraph.ArtistVisitor) error {
	base, err := url.Parse(rawURL)
	if err != nil {
		return fangraph.Errorf(fangraph.EINVALID, "invalid artist URL %q: %v", rawURL, err)
	}

	page, err := s.artistPage(ctx, base)
	if err != nil {
		return err
	}

	err = v.OnArtist(
		fangraph.Artist{ID: fangraph.ArtistID(page.band.ID), URL: rawURL},
		fangraph.ArtistDetails{Name: page.band.Name},
	)
	if err != nil {
		return err
	}

	gridReleases := make([]fangraph.Release, 0, len(page.gridItems))
	for _, item := range page.gridItems {
		resolved, err := resolve(base, item.href)
		if err != nil {
			return err
		}
		gridReleases = append(gridReleases, fangraph.Release{
			ID:  fangraph.ReleaseID(item.itemID),
			URL: resolved,
		})
	}
	if err := v.OnReleases(gridReleases); err != nil {
		return err
	}

	if page.clientItems == nil {
		return nil
	}
	clientReleases := make([]fangraph.Release, 0, len(page.clientItems))
	for _, item := range page.clientItems {
		resolved, err := resolve(base, item.PageURL)
		if err != nil {
			return err
		}
		clientReleases = append(clientReleases, fangraph.Release{
			ID:  fangraph.ReleaseID(item.ID),
			URL: resolved,
		})
	}
	return v.OnReleases(clientReleases)
}

func (s *Scraper) artistPage(ctx context.Context, pageURL *url.URL) (*artistPage, error) {
	doc, err := s.fetchDocument(ctx, pageURL)
	if err != nil {
		return nil, err
	}

	bandSel, err := selectOne(doc, "[data-band]")
	if err != nil {
		return nil, err
	}
	var page artistPage
	if err := jsonAttr(bandSel, "data-band", &page.band); err != nil {
		return nil, err
	}

	var itemErr error
	doc.Find("li.music-grid-item").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		item, err := parseGridItem(sel)
		if err != nil {
			itemErr = err
			return false
		}
		page.gridItems = append(page.gridItems, item)
		return true
	})
	if itemErr != nil {
		return nil, itemErr
	}

	gridSel, err := selectOne(doc, "#music-grid")
	if err != nil {
		return nil, err
	}
	if _, ok := gridSel.Attr("data-client-items"); ok {
		if err := jsonAttr(gridSel, "data-client-items", &page.clientItems); err != nil {
			return nil, err
		}
		if page.clientItems == nil {
			page.clientItems = []clientItem{}
		}
	}

	return &page, nil
}

// parseGridItem extracts one discography entry from the static grid. The
// data-item-id attribute packs a type code and numeric id as "<code>-<id>".
func parseGridItem(sel *goquery.Selection) (musicGridItem, error) {
	itemID, err := requireAttr(sel, "data-item-id")
	if err != nil {
		return musicGridItem{}, err
	}
	typeCode, rawID, ok := strings.Cut(itemID, "-")
	if !ok {
		return musicGridItem{}, fangraph.Errorf(fangraph.EEXTRACT, "failed to parse item id %q", itemID)
	}
	id, err := strconv.ParseUint(rawID, 10, 64)
	if err != nil {
		return musicGridItem{}, fangraph.Errorf(fangraph.EEXTRACT, "invalid item id %q: %v", itemID, err)
	}

	titleSel := sel.Find(".title")
	if titleSel.Length() == 0 {
		return musicGridItem{}, fangraph.Errorf(fangraph.EEXTRACT, "missing element for .title")
	}

	anchorSel := sel.Find("a")
	if anchorSel.Length() == 0 {
		return musicGridItem{}, fangraph.Errorf(fangraph.EEXTRACT, "missing element for a")
	}
	href, err := requireAttr(anchorSel.First(), "href")
	if err != nil {
		return musicGridItem{}, err
	}

	return musicGridItem{
		itemID:   id,
		href:     href,
		title:    strings.TrimSpace(titleSel.First().Text()),
		typeCode: typeCode,
	}, nil
}
