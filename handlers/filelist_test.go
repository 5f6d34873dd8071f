package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Dr-42/nexus-flix/config"
	"github.com/Dr-42/nexus-flix/models"
)

func TestFileListHandler_ReturnsJSONEntries(t *testing.T) {
	seriesRoot := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(seriesRoot, "ep1.mkv"), []byte("x"), 0o644))

	h := NewFileListHandler(func() config.LibraryRoots {
		return config.LibraryRoots{SeriesRoot: seriesRoot}
	})

	req := httptest.NewRequest(http.MethodGet, "/file_list", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var entries []models.FileEntry
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &entries))
	require.Len(t, entries, 1)
	assert.Equal(t, "ep1.mkv", entries[0].FileName)
}

func TestFileListHandler_ReReadsRootsEachRequest(t *testing.T) {
	rootA := t.TempDir()
	rootB := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(rootB, "movie.mp4"), []byte("x"), 0o644))

	current := rootA
	h := NewFileListHandler(func() config.LibraryRoots {
		return config.LibraryRoots{MoviesRoot: current}
	})

	req := httptest.NewRequest(http.MethodGet, "/file_list", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	var first []models.FileEntry
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &first))
	assert.Empty(t, first)

	current = rootB
	req2 := httptest.NewRequest(http.MethodGet, "/file_list", nil)
	rec2 := httptest.NewRecorder()
	h.ServeHTTP(rec2, req2)
	var second []models.FileEntry
	require.NoError(t, json.Unmarshal(rec2.Body.Bytes(), &second))
	assert.Len(t, second, 1)
}
