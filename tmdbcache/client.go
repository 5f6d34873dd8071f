package tmdbcache

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"
)

const tmdbBaseURL = "https://api.themoviedb.org/3"

// Client wraps the TMDB REST API: cached reads for per-item detail
// endpoints, uncached passthrough for everything else (spec.md §4.5).
type Client struct {
	apiKey string
	httpc  *http.Client
	cache  *fileCache
}

// New builds a Client. cacheDir is <data_dir>/metadata, per spec.md §6.4.
func New(apiKey, cacheDir string) *Client {
	return &Client{
		apiKey: strings.TrimSpace(apiKey),
		httpc:  &http.Client{Timeout: 30 * time.Second},
		cache:  newFileCache(cacheDir),
	}
}

// Configured reports whether an API key was supplied at startup.
func (c *Client) Configured() bool {
	return c.apiKey != ""
}

// ItemDetails returns the cached detail document for kind (movie|tv) and id,
// fetching and caching it on a miss or stale entry (spec.md §4.5 step 1-2).
func (c *Client) ItemDetails(ctx context.Context, kind, id string) (json.RawMessage, error) {
	key := fmt.Sprintf("%s_%s", kind, id)

	var cached json.RawMessage
	if ok, err := c.cache.get(key, &cached); err != nil {
		return nil, err
	} else if ok {
		return cached, nil
	}

	endpoint, err := url.JoinPath(tmdbBaseURL, kind, id)
	if err != nil {
		return nil, err
	}
	data, err := c.get(ctx, endpoint, nil)
	if err != nil {
		return nil, err
	}

	if err := c.cache.set(key, data); err != nil {
		return nil, fmt.Errorf("cache %s: %w", key, err)
	}
	return data, nil
}

// Passthrough proxies tmdbPath (e.g. "search/multi", "trending/movie/week",
// "genre/movie/list", "discover/movie") with query verbatim plus api_key,
// and returns the raw response body uncached (spec.md §4.5 "pass-through").
func (c *Client) Passthrough(ctx context.Context, tmdbPath string, query url.Values) (json.RawMessage, error) {
	endpoint, err := url.JoinPath(tmdbBaseURL, tmdbPath)
	if err != nil {
		return nil, err
	}
	return c.get(ctx, endpoint, query)
}

func (c *Client) get(ctx context.Context, endpoint string, query url.Values) (json.RawMessage, error) {
	if !c.Configured() {
		return nil, fmt.Errorf("tmdbcache: api key not configured")
	}

	u, err := url.Parse(endpoint)
	if err != nil {
		return nil, err
	}
	q := query
	if q == nil {
		q = url.Values{}
	}
	q.Set("api_key", c.apiKey)
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("tmdb request: %w", err)
	}
	defer resp.Body.Close()

	var raw json.RawMessage
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, fmt.Errorf("decode tmdb response: %w", err)
	}
	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("tmdb request failed: %s: %s", resp.Status, string(raw))
	}
	return raw, nil
}

// ImagePath builds the CDN path TMDB image bytes are served from, joining
// size (e.g. "w780") with the poster/backdrop path TMDB returned.
func ImagePath(size, tmdbImagePath string) string {
	return path.Join(size, strings.TrimPrefix(tmdbImagePath, "/"))
}
