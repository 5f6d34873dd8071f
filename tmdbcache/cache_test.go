package tmdbcache

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileCache_SetThenGetRoundTrips(t *testing.T) {
	c := newFileCache(t.TempDir())
	require.NoError(t, c.set("movie_42", map[string]string{"title": "Arrival"}))

	var got map[string]string
	ok, err := c.get("movie_42", &got)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "Arrival", got["title"])
}

func TestFileCache_MissingKeyIsNotAnError(t *testing.T) {
	c := newFileCache(t.TempDir())
	var got map[string]string
	ok, err := c.get("missing", &got)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestFileCache_StaleEntryIsTreatedAsMiss(t *testing.T) {
	dir := t.TempDir()
	c := newFileCache(dir)
	require.NoError(t, c.set("tv_7", map[string]string{"title": "Severance"}))

	path := filepath.Join(dir, "tv_7.json")
	stale := time.Now().Add(-8 * 24 * time.Hour)
	require.NoError(t, os.Chtimes(path, stale, stale))

	var got map[string]string
	ok, err := c.get("tv_7", &got)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestFileCache_EmptyKeyErrors(t *testing.T) {
	c := newFileCache(t.TempDir())
	_, err := c.get("", nil)
	assert.Error(t, err)
	assert.Error(t, c.set("", nil))
}
