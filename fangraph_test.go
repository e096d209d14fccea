package fangraph_test

import (
	"errors"
	"testing"

	"github.com/fangraph/fangraph"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorf(t *testing.T) {
	t.Parallel()

	err := fangraph.Errorf(fangraph.ENOTFOUND, "no element matched %q", "#pagedata")

	assert.Equal(t, fangraph.ENOTFOUND, fangraph.ErrorCode(err))
	assert.Equal(t, "no element matched \"#pagedata\"", fangraph.ErrorMessage(err))
}

func TestErrorCode_NilError(t *testing.T) {
	t.Parallel()

	assert.Empty(t, fangraph.ErrorCode(nil))
}

func TestErrorCode_NonApplicationError(t *testing.T) {
	t.Parallel()

	assert.Equal(t, fangraph.EINTERNAL, fangraph.ErrorCode(errors.New("plain")))
}

func TestErrorMessage_NilError(t *testing.T) {
	t.Parallel()

	assert.Empty(t, fangraph.ErrorMessage(nil))
}

func TestRequest_Validate(t *testing.T) {
	t.Parallel()

	t.Run("accepts a well-formed request", func(t *testing.T) {
		t.Parallel()

		req := fangraph.Request{Kind: fangraph.KindRelease, URL: "https://example.bandcamp.com/album/a"}
		require.NoError(t, req.Validate())
	})

	t.Run("rejects an empty url", func(t *testing.T) {
		t.Parallel()

		req := fangraph.Request{Kind: fangraph.KindArtist}
		err := req.Validate()
		require.Error(t, err)
		assert.Equal(t, fangraph.EINVALID, fangraph.ErrorCode(err))
	})

	t.Run("rejects an unknown kind", func(t *testing.T) {
		t.Parallel()

		req := fangraph.Request{Kind: fangraph.Kind(99), URL: "https://example.bandcamp.com"}
		err := req.Validate()
		require.Error(t, err)
		assert.Equal(t, fangraph.EINVALID, fangraph.ErrorCode(err))
	})
}

func TestRequest_IsComparable(t *testing.T) {
	t.Parallel()

	// Requests key the router's dedup set, so equal fields must hash equal.
	a := fangraph.Request{Kind: fangraph.KindUser, URL: "https://bandcamp.com/somebody"}
	b := fangraph.Request{Kind: fangraph.KindUser, URL: "https://bandcamp.com/somebody"}
	set := map[fangraph.Request]struct{}{a: {}}
	_, ok := set[b]
	assert.True(t, ok)
	assert.NotEqual(t, a, fangraph.Request{Kind: fangraph.KindArtist, URL: a.URL})
}

func TestStats_SnapshotAndIdle(t *testing.T) {
	t.Parallel()

	stats := &fangraph.Stats{}
	assert.True(t, stats.Idle())

	stats.ItemsQueued.Add(2)
	stats.ItemsProcessing.Add(1)
	assert.False(t, stats.Idle())

	stats.ItemsQueued.Add(-2)
	stats.ItemsProcessing.Add(-1)
	stats.ItemsCompleted.Add(3)
	assert.True(t, stats.Idle())

	snap := stats.Snapshot()
	assert.Equal(t, int64(3), snap.ItemsCompleted)
	assert.Equal(t, int64(0), snap.ItemsQueued)
}
