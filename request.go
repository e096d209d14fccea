package fangraph

// Kind selects the scraping protocol for a request.
type Kind int

const (
	// KindArtist scrapes an artist page and its discography.
	KindArtist Kind = iota
	// KindRelease scrapes a release page, its owning artist, and its fans.
	KindRelease
	// KindUser scrapes a fan page and its collection.
	KindUser
)

// String returns the human-readable name of the kind.
func (k Kind) String() string {
	switch k {
	case KindArtist:
		return "artist"
	case KindRelease:
		return "release"
	case KindUser:
		return "user"
	}
	return "unknown"
}

// Request is a unit of scrape work. Requests are immutable values with
// structural equality; the Router uses them directly as seen-set keys.
type Request struct {
	Kind Kind
	URL  string
}

// Validate returns an error if the request cannot be processed.
func (r Request) Validate() error {
	if r.URL == "" {
		return Errorf(EINVALID, "request URL required")
	}
	switch r.Kind {
	case KindArtist, KindRelease, KindUser:
		return nil
	}
	return Errorf(EINVALID, "unknown request kind %d", r.Kind)
}

// Response is one streamed result of processing a Request: the primary
// scraped entity with its details, or a batch of related entities.
//
// A single Request produces zero or more relationship batches followed by
// exactly one primary response; a failed Request produces no primary
// response and does not retract batches already emitted. Responses for
// different Requests interleave in no particular order.
type Response interface {
	response()
}

// ArtistResponse is the primary result of an artist scrape.
type ArtistResponse struct {
	Artist  Artist
	Details ArtistDetails
}

// ReleaseResponse is the primary result of a release scrape.
type ReleaseResponse struct {
	Release Release
	Details ReleaseDetails
}

// UserResponse is the primary result of a fan scrape.
type UserResponse struct {
	User    User
	Details UserDetails
}

// ReleasesResponse is one batch of releases found on an artist page.
type ReleasesResponse struct {
	Artist   Artist
	Releases []Release
}

// CollectionResponse is one page of releases from a fan's collection.
type CollectionResponse struct {
	User     User
	Releases []Release
}

// FansResponse is one batch of fans of a release.
type FansResponse struct {
	Release Release
	Users   []User
}

// ReleaseArtistResponse links a release to the artist that owns its store.
type ReleaseArtistResponse struct {
	Release Release
	Artist  Artist
}

func (ArtistResponse) response()        {}
func (ReleaseResponse) response()       {}
func (UserResponse) response()          {}
func (ReleasesResponse) response()      {}
func (CollectionResponse) response()    {}
func (FansResponse) response()          {}
func (ReleaseArtistResponse) response() {}
