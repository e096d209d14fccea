package fangraph

import "time"

// ArtistID is the storefront's numeric identifier for an artist (band) page.
type ArtistID uint64

// ReleaseID is the storefront's numeric identifier for a release.
type ReleaseID uint64

// UserID is the storefront's numeric identifier for a fan account.
type UserID uint64

// Artist identifies an artist store. The same artist may be reachable
// through multiple URLs; no cross-URL merging happens here, consumers join
// on ID.
type Artist struct {
	ID  ArtistID
	URL string
}

// ArtistDetails holds the metadata parsed from an artist page.
type ArtistDetails struct {
	Name string
}

// ReleaseType classifies a release by the storefront's short type code.
type ReleaseType int

const (
	// ReleaseAlbum is a multi-track release (type code "a").
	ReleaseAlbum ReleaseType = iota
	// ReleaseTrack is a single-track release (type code "t").
	ReleaseTrack
)

// String returns the human-readable name of the release type.
func (t ReleaseType) String() string {
	switch t {
	case ReleaseAlbum:
		return "album"
	case ReleaseTrack:
		return "track"
	}
	return "unknown"
}

// Release identifies a single release (album or track) page.
type Release struct {
	ID  ReleaseID
	URL string
}

// ReleaseDetails holds the metadata parsed from a release page.
type ReleaseDetails struct {
	Type  ReleaseType
	Title string

	// Artist is the release artist credited on the page, which may differ
	// from the artist that owns the store (record labels, featured artists).
	Artist string

	Tracks   int
	Length   time.Duration
	Released time.Time
}

// User identifies a fan account.
type User struct {
	ID  UserID
	URL string
}

// UserDetails holds the metadata parsed from a fan page.
type UserDetails struct {
	Name     string
	Username string
}
