// Package filelist walks the configured library roots and reports every
// file found, for the browse-by-filesystem view (spec.md §4.6).
package filelist

import (
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/gabriel-vasile/mimetype"

	"github.com/Dr-42/nexus-flix/models"
)

// fallbackMIMEType is used whenever sniffing the file's content fails.
const fallbackMIMEType = "application/octet-stream"

// Walk recursively lists every file under seriesRoot and moviesRoot, each in
// filename-sorted order, and returns the concatenation (spec.md §4.6).
func Walk(seriesRoot, moviesRoot string) ([]models.FileEntry, error) {
	var entries []models.FileEntry
	for _, root := range []string{seriesRoot, moviesRoot} {
		if root == "" {
			continue
		}
		found, err := walkRoot(root)
		if err != nil {
			return nil, err
		}
		entries = append(entries, found...)
	}
	return entries, nil
}

func walkRoot(root string) ([]models.FileEntry, error) {
	var entries []models.FileEntry

	err := filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}

		mtype, err := mimetype.DetectFile(path)
		mimeType := fallbackMIMEType
		if err == nil && mtype != nil {
			mimeType = mtype.String()
		}

		entries = append(entries, models.FileEntry{
			FileName:     d.Name(),
			FilePath:     path,
			DateModified: secondsSinceModified(info.ModTime()),
			MimeType:     mimeType,
			FileSize:     uint64(info.Size()),
		})
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].FileName < entries[j].FileName
	})
	return entries, nil
}

// secondsSinceModified returns a non-negative seconds-since-modified
// duration, clamping a future modification time to zero rather than going
// negative (spec.md §4.6).
func secondsSinceModified(modTime time.Time) uint64 {
	elapsed := time.Since(modTime)
	if elapsed < 0 {
		return 0
	}
	return uint64(elapsed.Seconds())
}
