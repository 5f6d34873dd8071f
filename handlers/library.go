package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/Dr-42/nexus-flix/library"
	"github.com/Dr-42/nexus-flix/models"
)

// LibraryHandler serves the meta.json read-modify-write endpoints
// (spec.md §4.4, §6.1).
type LibraryHandler struct {
	store *library.Store
}

// NewLibraryHandler builds a LibraryHandler.
func NewLibraryHandler(store *library.Store) *LibraryHandler {
	return &LibraryHandler{store: store}
}

// AddMedia handles POST /api/add-media: fully replaces meta.json.
func (h *LibraryHandler) AddMedia(w http.ResponseWriter, r *http.Request) {
	var doc models.LibraryDocument
	if err := json.NewDecoder(r.Body).Decode(&doc); err != nil {
		http.Error(w, "invalid library document: "+err.Error(), http.StatusInternalServerError)
		return
	}
	if err := h.store.Replace(doc); err != nil {
		http.Error(w, "library write failed: "+err.Error(), http.StatusInternalServerError)
		return
	}
	w.Write([]byte("Added media"))
}

// GetMedia handles GET /api/get-media: returns meta.json, 404 if absent.
func (h *LibraryHandler) GetMedia(w http.ResponseWriter, r *http.Request) {
	doc, err := h.store.Get()
	if errors.Is(err, library.ErrNotFound) {
		http.Error(w, "no media found", http.StatusNotFound)
		return
	}
	if err != nil {
		http.Error(w, "library read failed: "+err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(doc)
}

// UpdateWatchHistory handles POST /api/update-watch-history: upserts one
// record keyed by media_id.
func (h *LibraryHandler) UpdateWatchHistory(w http.ResponseWriter, r *http.Request) {
	var record models.WatchHistory
	if err := json.NewDecoder(r.Body).Decode(&record); err != nil {
		http.Error(w, "invalid watch history: "+err.Error(), http.StatusInternalServerError)
		return
	}
	if err := h.store.UpsertWatchHistory(record); err != nil {
		http.Error(w, "library write failed: "+err.Error(), http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusOK)
}

// GetWatchHistory handles POST /api/get-watch-history: body is a raw JSON
// media_id string. Looks up one record, synthesizing a zero-valued one if
// absent.
func (h *LibraryHandler) GetWatchHistory(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "invalid request body: "+err.Error(), http.StatusInternalServerError)
		return
	}
	var mediaID string
	if err := json.Unmarshal(body, &mediaID); err != nil {
		http.Error(w, "invalid media id: "+err.Error(), http.StatusInternalServerError)
		return
	}

	record, err := h.store.GetWatchHistory(mediaID)
	if err != nil {
		http.Error(w, "library read failed: "+err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(record)
}

// GetAllWatchHistory handles GET /api/get-all-watch-history: returns the
// full map, {} if meta.json is absent.
func (h *LibraryHandler) GetAllWatchHistory(w http.ResponseWriter, r *http.Request) {
	all, err := h.store.GetAllWatchHistory()
	if err != nil {
		http.Error(w, "library read failed: "+err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(all)
}
