package main

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/fangraph/fangraph"
)

// Run executes the scrape command.
func (c *ScrapeCmd) Run(deps *Dependencies) error {
	if len(c.Artist)+len(c.Release)+len(c.Fan) == 0 {
		return fangraph.Errorf(fangraph.EINVALID, "nothing to scrape: pass at least one --artist, --release, or --fan")
	}

	for _, url := range c.Artist {
		if err := deps.Router.Submit(fangraph.Request{Kind: fangraph.KindArtist, URL: url}); err != nil {
			return err
		}
	}
	for _, url := range c.Release {
		if err := deps.Router.Submit(fangraph.Request{Kind: fangraph.KindRelease, URL: url}); err != nil {
			return err
		}
	}
	for _, fan := range c.Fan {
		if err := deps.Router.Submit(fangraph.Request{Kind: fangraph.KindUser, URL: fanURL(fan)}); err != nil {
			return err
		}
	}

	enc := json.NewEncoder(deps.Stdout)
	for {
		resp, ok := deps.Router.TryReceive()
		if !ok {
			if deps.Stats.Idle() {
				// One last sweep in case a worker published between the empty
				// receive and the idle check.
				if resp, ok = deps.Router.TryReceive(); !ok {
					break
				}
			} else {
				select {
				case <-deps.Ctx.Done():
					return deps.Ctx.Err()
				case <-time.After(10 * time.Millisecond):
				}
				continue
			}
		}
		if err := enc.Encode(outputOf(resp)); err != nil {
			return err
		}
	}

	snap := deps.Stats.Snapshot()
	fmt.Fprintf(deps.Stderr, "Done: %d scraped, %d duplicates dropped, %d web requests (%d cached)\n",
		snap.ItemsCompleted, snap.ItemsDuplicate, snap.WebRequests, snap.CacheHits)
	return nil
}

// fanURL accepts either a full profile URL or a bare username.
func fanURL(fan string) string {
	if strings.Contains(fan, "://") {
		return fan
	}
	return "https://bandcamp.com/" + fan
}

type artistOutput struct {
	ID   fangraph.ArtistID `json:"id"`
	URL  string            `json:"url"`
	Name string            `json:"name,omitempty"`
}

type releaseOutput struct {
	ID       fangraph.ReleaseID `json:"id"`
	URL      string             `json:"url"`
	Type     string             `json:"type,omitempty"`
	Title    string             `json:"title,omitempty"`
	Artist   string             `json:"artist,omitempty"`
	Tracks   int                `json:"tracks,omitempty"`
	Length   string             `json:"length,omitempty"`
	Released string             `json:"released,omitempty"`
}

type userOutput struct {
	ID       fangraph.UserID `json:"id"`
	URL      string          `json:"url"`
	Name     string          `json:"name,omitempty"`
	Username string          `json:"username,omitempty"`
}

type output struct {
	Type     string          `json:"type"`
	Artist   *artistOutput   `json:"artist,omitempty"`
	Release  *releaseOutput  `json:"release,omitempty"`
	User     *userOutput     `json:"user,omitempty"`
	Releases []releaseOutput `json:"releases,omitempty"`
	Users    []userOutput    `json:"users,omitempty"`
}

func outputOf(resp fangraph.Response) output {
	switch r := resp.(type) {
	case fangraph.ArtistResponse:
		return output{
			Type:   "artist",
			Artist: &artistOutput{ID: r.Artist.ID, URL: r.Artist.URL, Name: r.Details.Name},
		}
	case fangraph.ReleaseResponse:
		return output{
			Type: "release",
			Release: &releaseOutput{
				ID:       r.Release.ID,
				URL:      r.Release.URL,
				Type:     r.Details.Type.String(),
				Title:    r.Details.Title,
				Artist:   r.Details.Artist,
				Tracks:   r.Details.Tracks,
				Length:   r.Details.Length.String(),
				Released: r.Details.Released.Format("2006-01-02"),
			},
		}
	case fangraph.UserResponse:
		return output{
			Type: "user",
			User: &userOutput{ID: r.User.ID, URL: r.User.URL, Name: r.Details.Name, Username: r.Details.Username},
		}
	case fangraph.ReleasesResponse:
		return output{
			Type:     "artist-releases",
			Artist:   &artistOutput{ID: r.Artist.ID, URL: r.Artist.URL},
			Releases: bareReleases(r.Releases),
		}
	case fangraph.CollectionResponse:
		return output{
			Type:     "user-collection",
			User:     &userOutput{ID: r.User.ID, URL: r.User.URL},
			Releases: bareReleases(r.Releases),
		}
	case fangraph.FansResponse:
		return output{
			Type:    "release-fans",
			Release: &releaseOutput{ID: r.Release.ID, URL: r.Release.URL},
			Users:   bareUsers(r.Users),
		}
	case fangraph.ReleaseArtistResponse:
		return output{
			Type:    "release-artist",
			Release: &releaseOutput{ID: r.Release.ID, URL: r.Release.URL},
			Artist:  &artistOutput{ID: r.Artist.ID, URL: r.Artist.URL},
		}
	}
	return output{Type: "unknown"}
}

func bareReleases(releases []fangraph.Release) []releaseOutput {
	out := make([]releaseOutput, len(releases))
	for i, r := range releases {
		out[i] = releaseOutput{ID: r.ID, URL: r.URL}
	}
	return out
}

func bareUsers(users []fangraph.User) []userOutput {
	out := make([]userOutput, len(users))
	for i, u := range users {
		out[i] = userOutput{ID: u.ID, URL: u.URL}
	}
	return out
}
