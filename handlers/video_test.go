package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Dr-42/nexus-flix/models"
)

func TestParseChunkRequest_Defaults(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/video?path=/library/movie.mkv", nil)
	got, err := parseChunkRequest(req)
	require.NoError(t, err)
	assert.Equal(t, models.ChunkRequest{
		Path:      "/library/movie.mkv",
		Timestamp: models.DefaultTimestamp,
		Duration:  models.DefaultDuration,
	}, got)
}

func TestParseChunkRequest_OverridesTimestampAndDuration(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/video?path=a.mkv&timestamp=12.5&duration=20", nil)
	got, err := parseChunkRequest(req)
	require.NoError(t, err)
	assert.Equal(t, 12.5, got.Timestamp)
	assert.Equal(t, 20.0, got.Duration)
}

func TestParseChunkRequest_MissingPathErrors(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/video", nil)
	_, err := parseChunkRequest(req)
	assert.Error(t, err)
}

func TestParseChunkRequest_InvalidTimestampErrors(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/video?path=a.mkv&timestamp=not-a-number", nil)
	_, err := parseChunkRequest(req)
	assert.Error(t, err)
}

func TestVideoMetadata_MissingPathIs500(t *testing.T) {
	h := NewVideoHandler(nil, nil)
	req := httptest.NewRequest(http.MethodGet, "/video-data", nil)
	rec := httptest.NewRecorder()

	h.Metadata(rec, req)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "Video metadata error:")
}
