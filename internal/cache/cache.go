// Package cache implements the content-addressed response cache that
// short-circuits the request pipeline. Keys are derived from the normalized
// URL so equivalent requests collide; values live in the shared kv store and
// disappear when their TTL lapses.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/im-caveman/yagaami/internal/jobs"
	"github.com/im-caveman/yagaami/internal/kv"
)

// DefaultTTLSeconds is one hour, matching the upstream refresh cadence of
// the listing sites.
const DefaultTTLSeconds = 3600

// Responses is the response cache.
type Responses struct {
	store      kv.Store
	ttlSeconds int
}

// New builds a Responses cache. ttlSeconds <= 0 selects the default.
func New(store kv.Store, ttlSeconds int) *Responses {
	if ttlSeconds <= 0 {
		ttlSeconds = DefaultTTLSeconds
	}
	return &Responses{store: store, ttlSeconds: ttlSeconds}
}

// cachedResponse is the stored wire form.
type cachedResponse struct {
	URL        string      `json:"url"`
	StatusCode int         `json:"status_code"`
	Headers    http.Header `json:"headers"`
	Body       string      `json:"body"`
	FetchedAt  time.Time   `json:"fetched_at"`
}

// Key derives the deterministic cache key for a request URL and its query
// parameters. Parameters are folded into the URL and encoded in sorted order
// so logically equal requests share an entry.
func Key(rawURL string, params map[string]string) string {
	sum := sha256.Sum256([]byte(NormalizeURL(rawURL, params)))
	return "url:" + hex.EncodeToString(sum[:])
}

// NormalizeURL merges params into rawURL's query string and re-encodes it
// with sorted keys.
func NormalizeURL(rawURL string, params map[string]string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}
	q := u.Query()
	for k, v := range params {
		q.Set(k, v)
	}
	u.RawQuery = q.Encode()
	return u.String()
}

// Get returns the cached response for the request, if one is live.
func (c *Responses) Get(ctx context.Context, rawURL string, params map[string]string) (jobs.PageResponse, bool, error) {
	raw, ok, err := c.store.Get(ctx, Key(rawURL, params))
	if err != nil {
		return jobs.PageResponse{}, false, fmt.Errorf("cache get: %w", err)
	}
	if !ok {
		return jobs.PageResponse{}, false, nil
	}
	var stored cachedResponse
	if err := json.Unmarshal([]byte(raw), &stored); err != nil {
		// A corrupt entry behaves like a miss; the refetch overwrites it.
		return jobs.PageResponse{}, false, nil
	}
	return jobs.PageResponse{
		URL:        stored.URL,
		StatusCode: stored.StatusCode,
		Headers:    stored.Headers,
		Body:       stored.Body,
		FetchedAt:  stored.FetchedAt,
		FromCache:  true,
	}, true, nil
}

// Put stores a response. Only 2xx responses are cacheable; anything else is
// silently ignored so redirects and errors never serve from cache.
func (c *Responses) Put(ctx context.Context, rawURL string, params map[string]string, resp jobs.PageResponse) error {
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil
	}
	data, err := json.Marshal(cachedResponse{
		URL:        resp.URL,
		StatusCode: resp.StatusCode,
		Headers:    resp.Headers,
		Body:       resp.Body,
		FetchedAt:  resp.FetchedAt,
	})
	if err != nil {
		return fmt.Errorf("marshal cached response: %w", err)
	}
	if err := c.store.SetEx(ctx, Key(rawURL, params), string(data), c.ttlSeconds); err != nil {
		return fmt.Errorf("cache put: %w", err)
	}
	return nil
}
