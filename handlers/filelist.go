package handlers

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/Dr-42/nexus-flix/config"
	"github.com/Dr-42/nexus-flix/filelist"
)

// FileListHandler serves GET /file_list (spec.md §4.6, §6.1).
type FileListHandler struct {
	roots func() config.LibraryRoots
}

// NewFileListHandler builds a FileListHandler. roots is called on every
// request, so a roots function that returns new values is seen on the next
// request.
func NewFileListHandler(roots func() config.LibraryRoots) *FileListHandler {
	return &FileListHandler{roots: roots}
}

func (h *FileListHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	roots := h.roots()
	entries, err := filelist.Walk(roots.SeriesRoot, roots.MoviesRoot)
	if err != nil {
		http.Error(w, "file list error: "+err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(entries); err != nil {
		log.Printf("[handlers] encode file list: %v", err)
	}
}
