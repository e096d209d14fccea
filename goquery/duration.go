package goquery

import (
	"strings"
	"time"

	"github.com/fangraph/fangraph"
	"github.com/sosodev/duration"
)

// parseTrackDuration parses the origin's ISO-8601 durations. Track-level
// values sometimes carry a malformed "P00H" prefix ("P00H03M21S") which has
// to be rewritten to the standard "PT" form before parsing.
func parseTrackDuration(value string) (time.Duration, error) {
	if rest, ok := strings.CutPrefix(value, "P00H"); ok {
		value = "PT" + rest
	}
	d, err := duration.Parse(value)
	if err != nil {
		return 0, fangraph.Errorf(fangraph.EEXTRACT, "invalid duration %q: %v", value, err)
	}
	return d.ToTimeDuration(), nil
}

// rfc2822Layouts covers the origin's date strings, which follow RFC2822
// with the optional weekday sometimes omitted.
var rfc2822Layouts = []string{
	"Mon, 02 Jan 2006 15:04:05 MST",
	"Mon, 02 Jan 2006 15:04:05 -0700",
	"02 Jan 2006 15:04:05 MST",
	"02 Jan 2006 15:04:05 -0700",
}

// parseRFC2822 parses an RFC2822 date string.
func parseRFC2822(value string) (time.Time, error) {
	for _, layout := range rfc2822Layouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fangraph.Errorf(fangraph.EEXTRACT, "invalid date %q", value)
}
