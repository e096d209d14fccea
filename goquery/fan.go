package goquery

import (
	"context"
	"net/url"

	"github.com/fangraph/fangraph"
)

type fanPageBlob struct {
	FanData struct {
		FanID    uint64 `json:"fan_id"`
		Name     string `json:"name"`
		Username string `json:"username"`
	} `json:"fan_data"`
	CollectionCount int `json:"collection_count"`
	CollectionData  struct {
		LastToken string   `json:"last_token"`
		Sequence  []string `json:"sequence"`
	} `json:"collection_data"`
	ItemCache struct {
		Collection map[string]collectionItemBlob `json:"collection"`
	} `json:"item_cache"`
}

type collectionResponse struct {
	MoreAvailable bool                 `json:"more_available"`
	LastToken     string               `json:"last_token"`
	Items         []collectionItemBlob `json:"items"`
}

type collectionRequest struct {
	FanID          uint64 `json:"fan_id"`
	OlderThanToken string `json:"older_than_token"`
	Count          int    `json:"count"`
}

// ScrapeFan fetches a fan page and streams the fan and their collection.
// OnUser fires first, then OnCollection for the batch embedded in the page
// and once per page of the collection API until the origin reports no more.
func (s *Scraper) ScrapeFan(ctx context.Context, rawURL string, v fangraph.UserVisitor) error {
	base, err := url.Parse(rawURL)
	if err != nil {
		return fangraph.Errorf(fangraph.EINVALID, "invalid fan URL %q: %v", rawURL, err)
	}

	page, err := s.fanPage(ctx, base)
	if err != nil {
		return err
	}

	err = v.OnUser(
		fangraph.User{
			ID:  fangraph.UserID(page.FanData.FanID),
			URL: profileURL(page.FanData.Username),
		},
		fangraph.UserDetails{
			Name:     page.FanData.Name,
			Username: page.FanData.Username,
		},
	)
	if err != nil {
		return err
	}

	// The page embeds the first batch as a key sequence over a
	// content-addressed item map. Each key is consumed once; a key with no
	// entry (or repeated) means the page data is inconsistent.
	items := make([]collectionItemBlob, 0, len(page.CollectionData.Sequence))
	for _, key := range page.CollectionData.Sequence {
		item, ok := page.ItemCache.Collection[key]
		if !ok {
			return fangraph.Errorf(fangraph.EEXTRACT, "item cache missing collection item %q", key)
		}
		delete(page.ItemCache.Collection, key)
		items = append(items, item)
	}

	lastToken := page.CollectionData.LastToken
	moreAvailable := len(items) < page.CollectionCount

	if err := v.OnCollection(releasesOfItems(items)); err != nil {
		return err
	}

	for moreAvailable {
		var response collectionResponse
		err := s.postJSON(ctx, collectionItemsURL, collectionRequest{
			FanID:          page.FanData.FanID,
			OlderThanToken: lastToken,
			Count:          s.collectionPageSize,
		}, &response)
		if err != nil {
			return err
		}
		moreAvailable = response.MoreAvailable
		lastToken = response.LastToken
		if err := v.OnCollection(releasesOfItems(response.Items)); err != nil {
			return err
		}
	}

	return nil
}

func (s *Scraper) fanPage(ctx context.Context, pageURL *url.URL) (*fanPageBlob, error) {
	doc, err := s.fetchDocument(ctx, pageURL)
	if err != nil {
		return nil, err
	}

	sel, err := selectOne(doc, "#pagedata")
	if err != nil {
		return nil, err
	}
	var page fanPageBlob
	if err := jsonAttr(sel, "data-blob", &page); err != nil {
		return nil, err
	}
	return &page, nil
}
