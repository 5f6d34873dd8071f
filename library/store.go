// Package library persists the user-curated media catalog and watch-history
// map as a single JSON document, read-modify-written on every call under a
// per-Store mutex (spec.md §4.4, §9).
package library

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sync"

	"github.com/spf13/afero"

	"github.com/Dr-42/nexus-flix/models"
)

// ErrNotFound is returned by Get when meta.json does not exist.
var ErrNotFound = errors.New("library: meta.json not found")

// Store reads and rewrites <data_dir>/meta.json. mu serializes every
// read-modify-write call so two concurrent update_watch_history requests in
// this process cannot interleave and lose one of their updates (spec.md §9
// re-architecture guidance: "the spec requires observable atomicity per
// endpoint call"). It does not protect against a second process touching the
// same meta.json.
type Store struct {
	fs   afero.Fs
	path string
	mu   sync.Mutex
}

// NewStore constructs a Store backed by the OS filesystem.
func NewStore(dataDir string) *Store {
	return NewStoreFS(afero.NewOsFs(), dataDir)
}

// NewStoreFS constructs a Store backed by an arbitrary afero.Fs, used in
// tests to avoid touching the real filesystem.
func NewStoreFS(fs afero.Fs, dataDir string) *Store {
	return &Store{fs: fs, path: filepath.Join(dataDir, "meta.json")}
}

// Replace fully overwrites meta.json with doc, creating the data directory
// if needed (spec.md §4.4 add_media).
func (s *Store) Replace(doc models.LibraryDocument) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.write(doc)
}

// Get returns the current document, or ErrNotFound if meta.json is absent
// (spec.md §4.4 get_media).
func (s *Store) Get() (models.LibraryDocument, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.read()
}

// UpsertWatchHistory inserts or replaces the WatchHistory record keyed by
// record.MediaID, creating an empty document first if meta.json does not
// exist yet (spec.md §4.4 update_watch_history). Calling it twice with the
// same record is idempotent: the document converges to the same value.
func (s *Store) UpsertWatchHistory(record models.WatchHistory) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, err := s.read()
	if errors.Is(err, ErrNotFound) {
		doc = models.NewLibraryDocument()
	} else if err != nil {
		return err
	}
	if doc.WatchHistory == nil {
		doc.WatchHistory = make(map[string]models.WatchHistory)
	}
	doc.WatchHistory[record.MediaID] = record
	return s.write(doc)
}

// GetWatchHistory looks up one record by mediaID. If absent, it synthesizes
// a zero-valued record carrying that id rather than erroring (spec.md §4.4
// get_watch_history).
func (s *Store) GetWatchHistory(mediaID string) (models.WatchHistory, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, err := s.read()
	if errors.Is(err, ErrNotFound) {
		return models.WatchHistory{MediaID: mediaID}, nil
	}
	if err != nil {
		return models.WatchHistory{}, err
	}
	if record, ok := doc.WatchHistory[mediaID]; ok {
		return record, nil
	}
	return models.WatchHistory{MediaID: mediaID}, nil
}

// GetAllWatchHistory returns the full watch-history map, or an empty map if
// meta.json is absent (spec.md §4.4 get_all_watch_history).
func (s *Store) GetAllWatchHistory() (map[string]models.WatchHistory, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, err := s.read()
	if errors.Is(err, ErrNotFound) {
		return map[string]models.WatchHistory{}, nil
	}
	if err != nil {
		return nil, err
	}
	if doc.WatchHistory == nil {
		return map[string]models.WatchHistory{}, nil
	}
	return doc.WatchHistory, nil
}

func (s *Store) read() (models.LibraryDocument, error) {
	data, err := afero.ReadFile(s.fs, s.path)
	if errors.Is(err, os.ErrNotExist) {
		return models.LibraryDocument{}, ErrNotFound
	}
	if err != nil {
		return models.LibraryDocument{}, err
	}
	var doc models.LibraryDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return models.LibraryDocument{}, err
	}
	return doc, nil
}

// write pretty-prints doc to a temp file in the same directory and renames
// it into place, so a reader never observes a half-written meta.json.
func (s *Store) write(doc models.LibraryDocument) error {
	dir := filepath.Dir(s.path)
	if err := s.fs.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return err
	}
	tmp := s.path + ".tmp"
	if err := afero.WriteFile(s.fs, tmp, data, 0o644); err != nil {
		_ = s.fs.Remove(tmp)
		return err
	}
	return s.fs.Rename(tmp, s.path)
}
