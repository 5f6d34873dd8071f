package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Dr-42/nexus-flix/library"
	"github.com/Dr-42/nexus-flix/models"
)

func newTestLibraryHandler() *LibraryHandler {
	store := library.NewStoreFS(afero.NewMemMapFs(), "/data")
	return NewLibraryHandler(store)
}

func TestGetMedia_404WhenAbsent(t *testing.T) {
	h := newTestLibraryHandler()
	req := httptest.NewRequest(http.MethodGet, "/api/get-media", nil)
	rec := httptest.NewRecorder()

	h.GetMedia(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAddMedia_ThenGetMediaRoundTrips(t *testing.T) {
	h := newTestLibraryHandler()
	body := `{"series":[],"movies":[{"id":7}],"fileDatabase":{},"watch_history":{}}`

	addReq := httptest.NewRequest(http.MethodPost, "/api/add-media", strings.NewReader(body))
	addRec := httptest.NewRecorder()
	h.AddMedia(addRec, addReq)
	require.Equal(t, http.StatusOK, addRec.Code)

	getReq := httptest.NewRequest(http.MethodGet, "/api/get-media", nil)
	getRec := httptest.NewRecorder()
	h.GetMedia(getRec, getReq)
	require.Equal(t, http.StatusOK, getRec.Code)

	var doc models.LibraryDocument
	require.NoError(t, json.Unmarshal(getRec.Body.Bytes(), &doc))
	require.Len(t, doc.Movies, 1)
	assert.Equal(t, int64(7), doc.Movies[0].ID)
}

func TestUpdateWatchHistory_TwiceThenGetAllHasOneKey(t *testing.T) {
	h := newTestLibraryHandler()
	body := `{"media_id":"x","watched_duration":30,"total_duration":100,"last_watched_timestamp":1}`

	for i := 0; i < 2; i++ {
		req := httptest.NewRequest(http.MethodPost, "/api/update-watch-history", strings.NewReader(body))
		rec := httptest.NewRecorder()
		h.UpdateWatchHistory(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/get-all-watch-history", nil)
	rec := httptest.NewRecorder()
	h.GetAllWatchHistory(rec, req)

	var all map[string]models.WatchHistory
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &all))
	assert.Len(t, all, 1)
	assert.Equal(t, float64(30), all["x"].WatchedDuration)
}

func TestGetWatchHistory_SynthesizesZeroValueWhenAbsent(t *testing.T) {
	h := newTestLibraryHandler()
	req := httptest.NewRequest(http.MethodPost, "/api/get-watch-history", strings.NewReader(`"does-not-exist"`))
	rec := httptest.NewRecorder()

	h.GetWatchHistory(rec, req)

	var record models.WatchHistory
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &record))
	assert.Equal(t, "does-not-exist", record.MediaID)
	assert.Zero(t, record.WatchedDuration)
}
