package goquery

import (
	"testing"
	"time"

	"github.com/fangraph/fangraph"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTrackDuration(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input string
		want  time.Duration
	}{
		{"PT3M21S", 3*time.Minute + 21*time.Second},
		{"PT1H2M3S", time.Hour + 2*time.Minute + 3*time.Second},
		// The origin's malformed zero-hours prefix form.
		{"P00H03M21S", 3*time.Minute + 21*time.Second},
		{"P00H40M00S", 40 * time.Minute},
	}
	for _, tt := range tests {
		got, err := parseTrackDuration(tt.input)
		require.NoError(t, err, "input %q", tt.input)
		assert.Equal(t, tt.want, got, "input %q", tt.input)
	}
}

func TestParseTrackDuration_rejects_garbage(t *testing.T) {
	t.Parallel()

	_, err := parseTrackDuration("3 minutes")
	require.Error(t, err)
	assert.Equal(t, fangraph.EEXTRACT, fangraph.ErrorCode(err))
}

func TestParseRFC2822(t *testing.T) {
	t.Parallel()

	for _, input := range []string{
		"Sun, 07 Apr 2024 00:00:00 GMT",
		"07 Apr 2024 00:00:00 GMT",
		"07 Apr 2024 00:00:00 +0000",
	} {
		got, err := parseRFC2822(input)
		require.NoError(t, err, "input %q", input)
		assert.True(t, got.Equal(time.Date(2024, 4, 7, 0, 0, 0, 0, time.UTC)), "input %q", input)
	}

	_, err := parseRFC2822("April 7th, 2024")
	require.Error(t, err)
}
