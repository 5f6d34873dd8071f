package tmdbcache

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/mozillazg/go-unidecode"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

const tmdbImageBaseURL = "https://image.tmdb.org/t/p"

// ImageCache fetches and persists TMDB image bytes under a per-user cache
// directory, never invalidating once written (spec.md §4.5, §6.4).
type ImageCache struct {
	dir   string
	httpc *http.Client
}

// NewImageCache builds an ImageCache rooted at cacheDir.
func NewImageCache(cacheDir string) *ImageCache {
	return &ImageCache{dir: cacheDir, httpc: &http.Client{Timeout: 30 * time.Second}}
}

// flattenKey turns a TMDB image path into a filesystem-safe cache key:
// unicode is transliterated to ASCII (mozillazg/go-unidecode) and path
// separators become underscores, per spec.md §6.4's
// "<size>_<slashed-to-underscore path>".
func flattenKey(size, tmdbImagePath string) string {
	ascii := unidecode.Unidecode(strings.TrimPrefix(tmdbImagePath, "/"))
	flattened := strings.ReplaceAll(ascii, "/", "_")
	return fmt.Sprintf("%s_%s", size, flattened)
}

// Get returns the cached bytes for (size, tmdbImagePath), fetching from the
// TMDB image CDN on a miss and persisting the result forever.
func (c *ImageCache) Get(ctx context.Context, size, tmdbImagePath string) ([]byte, error) {
	path := filepath.Join(c.dir, flattenKey(size, tmdbImagePath))
	if data, err := os.ReadFile(path); err == nil {
		return data, nil
	}

	url := fmt.Sprintf("%s/%s", tmdbImageBaseURL, ImagePath(size, tmdbImagePath))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch tmdb image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("fetch tmdb image: %s", resp.Status)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(c.dir, 0o755); err != nil {
		return nil, err
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return nil, err
	}
	if err := os.Rename(tmp, path); err != nil {
		return nil, err
	}
	return data, nil
}

// Placeholder returns (rendering and caching on first use) a width x height
// PNG with text centered on a dark background, for titles with no TMDB
// artwork. Cache key per spec.md §6.4:
// "placeholder_<w>x<h>_<text-with-spaces-as-dashes>.png".
func (c *ImageCache) Placeholder(width, height int, text string) ([]byte, error) {
	dashed := strings.ReplaceAll(strings.TrimSpace(text), " ", "-")
	key := fmt.Sprintf("placeholder_%dx%d_%s.png", width, height, dashed)
	path := filepath.Join(c.dir, key)
	if data, err := os.ReadFile(path); err == nil {
		return data, nil
	}

	data, err := renderPlaceholder(width, height, text)
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(c.dir, 0o755); err != nil {
		return nil, err
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return nil, err
	}
	if err := os.Rename(tmp, path); err != nil {
		return nil, err
	}
	return data, nil
}

func renderPlaceholder(width, height int, text string) ([]byte, error) {
	if width <= 0 {
		width = 300
	}
	if height <= 0 {
		height = 450
	}

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	background := color.RGBA{R: 0x1c, G: 0x1c, B: 0x1e, A: 0xff}
	draw.Draw(img, img.Bounds(), &image.Uniform{C: background}, image.Point{}, draw.Src)

	face := basicfont.Face7x13
	textWidth := font.MeasureString(face, text).Round()
	x := (width - textWidth) / 2
	if x < 2 {
		x = 2
	}
	y := height/2 + face.Ascent/2

	drawer := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(color.White),
		Face: face,
		Dot:  fixed.Point26_6{X: fixed.I(x), Y: fixed.I(y)},
	}
	drawer.DrawString(text)

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode placeholder png: %w", err)
	}
	return buf.Bytes(), nil
}
