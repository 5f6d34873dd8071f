package handlers

import (
	"encoding/json"
	"log"
	"net/http"
	"strconv"

	"github.com/Dr-42/nexus-flix/chunk"
	"github.com/Dr-42/nexus-flix/models"
	"github.com/Dr-42/nexus-flix/probe"
)

// VideoHandler serves /video and /video-data (spec.md §6.1).
type VideoHandler struct {
	prober    *probe.Prober
	assembler *chunk.Assembler
}

// NewVideoHandler builds a VideoHandler.
func NewVideoHandler(prober *probe.Prober, assembler *chunk.Assembler) *VideoHandler {
	return &VideoHandler{prober: prober, assembler: assembler}
}

// Metadata handles GET /video-data?path=...: runs Probe and returns the
// resulting VideoMetadata as JSON.
func (h *VideoHandler) Metadata(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Query().Get("path")
	if path == "" {
		http.Error(w, "Video metadata error: missing path", http.StatusInternalServerError)
		return
	}

	meta, err := h.prober.Probe(r.Context(), path)
	if err != nil {
		http.Error(w, "Video metadata error: "+err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(meta); err != nil {
		log.Printf("[handlers] encode video metadata: %v", err)
	}
}

// Chunk handles GET /video?path&timestamp&duration: assembles one windowed
// chunk and returns it framed as the binary envelope with HTTP 206.
func (h *VideoHandler) Chunk(w http.ResponseWriter, r *http.Request) {
	req, err := parseChunkRequest(r)
	if err != nil {
		http.Error(w, "Video data error: "+err.Error(), http.StatusInternalServerError)
		return
	}

	resp, err := h.assembler.Assemble(r.Context(), req)
	if err != nil {
		http.Error(w, "Video data error: "+err.Error(), http.StatusInternalServerError)
		return
	}

	envelope := chunk.Encode(resp)
	w.Header().Set("Content-Type", "application/octet-stream")
	w.WriteHeader(http.StatusPartialContent)
	if _, err := w.Write(envelope); err != nil {
		log.Printf("[handlers] write video chunk: %v", err)
	}
}

func parseChunkRequest(r *http.Request) (models.ChunkRequest, error) {
	q := r.URL.Query()
	path := q.Get("path")
	if path == "" {
		return models.ChunkRequest{}, errMissingPath
	}

	req := models.ChunkRequest{
		Path:      path,
		Timestamp: models.DefaultTimestamp,
		Duration:  models.DefaultDuration,
	}
	if raw := q.Get("timestamp"); raw != "" {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return models.ChunkRequest{}, err
		}
		req.Timestamp = v
	}
	if raw := q.Get("duration"); raw != "" {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return models.ChunkRequest{}, err
		}
		req.Duration = v
	}
	return req, nil
}

var errMissingPath = pathError("missing path")

type pathError string

func (e pathError) Error() string { return string(e) }
