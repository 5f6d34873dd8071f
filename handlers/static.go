package handlers

import (
	"embed"
	"io/fs"
	"net/http"
	"strings"
)

//go:embed static/*
var staticAssets embed.FS

// StaticHandler serves the embedded frontend: index.html at "/" and the
// bundled assets under "/public/**" (spec.md §6.1).
type StaticHandler struct {
	root   fs.FS
	public http.Handler
}

// NewStaticHandler builds a StaticHandler from the embedded static tree.
func NewStaticHandler() *StaticHandler {
	root, err := fs.Sub(staticAssets, "static")
	if err != nil {
		panic("failed to get static subdirectory: " + err.Error())
	}
	public, err := fs.Sub(root, "public")
	if err != nil {
		panic("failed to get static/public subdirectory: " + err.Error())
	}
	return &StaticHandler{
		root:   root,
		public: http.StripPrefix("/public/", http.FileServer(http.FS(public))),
	}
}

// Index serves the single-page app shell at "/".
func (h *StaticHandler) Index(w http.ResponseWriter, r *http.Request) {
	data, err := fs.ReadFile(h.root, "index.html")
	if err != nil {
		http.Error(w, "index not found", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(data)
}

// ServeHTTP serves everything under /public/** with a one-year cache header,
// since embedded build assets are content-addressed by the build step.
func (h *StaticHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Cache-Control", "public, max-age=31536000")

	path := r.URL.Path
	switch {
	case strings.HasSuffix(path, ".png"):
		w.Header().Set("Content-Type", "image/png")
	case strings.HasSuffix(path, ".svg"):
		w.Header().Set("Content-Type", "image/svg+xml")
	case strings.HasSuffix(path, ".jpg"), strings.HasSuffix(path, ".jpeg"):
		w.Header().Set("Content-Type", "image/jpeg")
	}

	h.public.ServeHTTP(w, r)
}
