package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"

	"github.com/Dr-42/nexus-flix/tmdbcache"
)

// TMDBHandler serves /api/keys, /api/tmdb/... passthrough, and
// /api/tmdb/image/{size}/*path (spec.md §4.5, §6.1).
type TMDBHandler struct {
	apiKey string
	client *tmdbcache.Client
	images *tmdbcache.ImageCache
}

// NewTMDBHandler builds a TMDBHandler.
func NewTMDBHandler(apiKey string, client *tmdbcache.Client, images *tmdbcache.ImageCache) *TMDBHandler {
	return &TMDBHandler{apiKey: apiKey, client: client, images: images}
}

// Keys handles GET /api/keys: returns the TMDB API key so the frontend can
// build direct image URLs when it needs to.
func (h *TMDBHandler) Keys(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"tmdb_api_key": h.apiKey})
}

// itemDetailKinds maps the two cached per-item TMDB paths to their cache
// kind (spec.md §4.5: "movie details, TV details").
var itemDetailKinds = map[string]string{
	"movie": "movie",
	"tv":    "tv",
}

// Passthrough handles GET /api/tmdb/{rest...}. Requests shaped
// "/api/tmdb/{kind}/{id}" for kind in {movie, tv} are served from the
// per-item cache; everything else (search, season, genre, trending,
// discover, etc.) is forwarded uncached.
func (h *TMDBHandler) Passthrough(w http.ResponseWriter, r *http.Request) {
	rest := strings.Trim(mux.Vars(r)["rest"], "/")
	segments := strings.Split(rest, "/")

	ctx := r.Context()
	var raw json.RawMessage
	var err error

	if len(segments) == 2 {
		if kind, ok := itemDetailKinds[segments[0]]; ok {
			raw, err = h.client.ItemDetails(ctx, kind, segments[1])
		}
	}
	if raw == nil && err == nil {
		raw, err = h.client.Passthrough(ctx, rest, r.URL.Query())
	}
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Write(raw)
}

// Image handles GET /api/tmdb/image/{size}/{path...}: proxies and caches
// TMDB CDN image bytes.
func (h *TMDBHandler) Image(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	size := vars["size"]
	path := vars["path"]

	data, err := h.images.Get(r.Context(), size, path)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "image/jpeg")
	w.Write(data)
}

// Placeholder handles a synthesized-poster request for items with no TMDB
// artwork: GET /api/tmdb/placeholder/{width}/{height}/{text}.
func (h *TMDBHandler) Placeholder(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	width, _ := strconv.Atoi(vars["width"])
	height, _ := strconv.Atoi(vars["height"])
	text := vars["text"]

	data, err := h.images.Placeholder(width, height, text)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Write(data)
}
