package sqlite_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/fangraph/fangraph"
	"github.com/fangraph/fangraph/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCache_Open_applies_migrations(t *testing.T) {
	t.Parallel()

	c := sqlite.NewCache(":memory:")
	require.NoError(t, c.Open())
	defer c.Close()

	// The pages table exists and is empty.
	_, ok, err := c.Lookup(context.Background(), "https://example.com", "get", nil)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCache_Open_is_idempotent_across_reopens(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "web-cache.sqlite")
	ctx := context.Background()

	c := sqlite.NewCache(path)
	require.NoError(t, c.Open())
	require.NoError(t, c.Store(ctx, "https://example.com/a", "get", nil, "body"))
	require.NoError(t, c.Close())

	// Re-opening must re-run the migration check without error and keep data.
	c = sqlite.NewCache(path)
	require.NoError(t, c.Open())
	defer c.Close()

	response, ok, err := c.Lookup(ctx, "https://example.com/a", "get", nil)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "body", response)
}

func TestCache_Open_returns_error_for_invalid_path(t *testing.T) {
	t.Parallel()

	c := sqlite.NewCache("/nonexistent/path/web-cache.sqlite")
	require.Error(t, c.Open())
}

func TestCache_Lookup_roundtrips_stored_responses(t *testing.T) {
	t.Parallel()

	c := sqlite.NewCache(":memory:")
	require.NoError(t, c.Open())
	defer c.Close()

	ctx := context.Background()
	body := []byte(`{"token":"abc","count":80}`)
	require.NoError(t, c.Store(ctx, "https://example.com/api", "post", body, `{"ok":true}`))

	response, ok, err := c.Lookup(ctx, "https://example.com/api", "post", body)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, `{"ok":true}`, response)
}

func TestCache_Lookup_distinguishes_nil_body_from_present_body(t *testing.T) {
	t.Parallel()

	c := sqlite.NewCache(":memory:")
	require.NoError(t, c.Open())
	defer c.Close()

	ctx := context.Background()
	url := "https://example.com/page"
	require.NoError(t, c.Store(ctx, url, "get", nil, "plain"))
	require.NoError(t, c.Store(ctx, url, "get", []byte("{}"), "with body"))

	response, ok, err := c.Lookup(ctx, url, "get", nil)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "plain", response)

	response, ok, err = c.Lookup(ctx, url, "get", []byte("{}"))
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "with body", response)
}

func TestCache_Lookup_distinguishes_methods(t *testing.T) {
	t.Parallel()

	c := sqlite.NewCache(":memory:")
	require.NoError(t, c.Open())
	defer c.Close()

	ctx := context.Background()
	require.NoError(t, c.Store(ctx, "https://example.com", "get", nil, "get body"))

	_, ok, err := c.Lookup(ctx, "https://example.com", "post", nil)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCache_Store_rejects_duplicate_keys(t *testing.T) {
	t.Parallel()

	c := sqlite.NewCache(":memory:")
	require.NoError(t, c.Open())
	defer c.Close()

	ctx := context.Background()
	require.NoError(t, c.Store(ctx, "https://example.com", "get", nil, "first"))

	err := c.Store(ctx, "https://example.com", "get", nil, "second")
	require.Error(t, err)
	assert.Equal(t, fangraph.ECONFLICT, fangraph.ErrorCode(err))

	// The original row is untouched.
	response, ok, lookupErr := c.Lookup(ctx, "https://example.com", "get", nil)
	require.NoError(t, lookupErr)
	require.True(t, ok)
	assert.Equal(t, "first", response)
}
