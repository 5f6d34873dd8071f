// Package tmdbcache wraps the remote movie-database API with an on-disk
// JSON cache for per-item endpoints, and an image cache for poster/backdrop
// bytes (spec.md §4.5). It is grounded on the teacher's metadata.fileCache:
// same stat-the-mtime freshness check, same temp-file-then-rename write.
package tmdbcache

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"time"
)

// freshness is how long a per-item cache entry is trusted before a refetch
// (spec.md §4.5: "within 7×24 h of now").
const freshness = 7 * 24 * time.Hour

// fileCache stat-checks a JSON file's mtime against freshness before
// treating it as valid, and writes new entries atomically.
type fileCache struct {
	dir string
}

func newFileCache(dir string) *fileCache {
	return &fileCache{dir: dir}
}

// get reports whether key has a fresh cached entry and, if so, decodes it
// into v.
func (c *fileCache) get(key string, v any) (bool, error) {
	if key == "" {
		return false, errors.New("tmdbcache: empty key")
	}
	path := filepath.Join(c.dir, key+".json")
	fi, err := os.Stat(path)
	if err != nil {
		return false, nil
	}
	if time.Since(fi.ModTime()) > freshness {
		return false, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return false, nil
	}
	if err := json.Unmarshal(data, v); err != nil {
		return false, nil
	}
	return true, nil
}

// set pretty-prints v to key's cache file, creating the cache directory if
// needed, via a temp-file-then-rename write so a concurrent reader never
// observes a partial file.
func (c *fileCache) set(key string, v any) error {
	if key == "" {
		return errors.New("tmdbcache: empty key")
	}
	if err := os.MkdirAll(c.dir, 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	path := filepath.Join(c.dir, key+".json")
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}
