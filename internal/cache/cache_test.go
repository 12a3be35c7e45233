package cache

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/im-caveman/yagaami/internal/jobs"
	kvmemory "github.com/im-caveman/yagaami/internal/kv/memory"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newCache(t *testing.T, ttlSeconds int) (*Responses, *fakeClock) {
	t.Helper()
	clk := &fakeClock{now: time.Unix(1_700_000_000, 0).UTC()}
	store := kvmemory.New(clk)
	t.Cleanup(store.Close)
	return New(store, ttlSeconds), clk
}

func TestKeyDeterministicAcrossParamOrder(t *testing.T) {
	t.Parallel()

	a := Key("https://www.indeed.com/jobs", map[string]string{"q": "go", "l": "NYC"})
	b := Key("https://www.indeed.com/jobs", map[string]string{"l": "NYC", "q": "go"})
	require.Equal(t, a, b)

	c := Key("https://www.indeed.com/jobs", map[string]string{"q": "rust", "l": "NYC"})
	require.NotEqual(t, a, c)
}

func TestKeyFoldsInlineQuery(t *testing.T) {
	t.Parallel()

	a := Key("https://www.indeed.com/jobs?q=go", map[string]string{"l": "NYC"})
	b := Key("https://www.indeed.com/jobs?l=NYC", map[string]string{"q": "go"})
	require.Equal(t, a, b)
}

func TestPutGetRoundTrip(t *testing.T) {
	t.Parallel()

	c, _ := newCache(t, 0)
	ctx := context.Background()

	resp := jobs.PageResponse{
		URL:        "https://www.indeed.com/jobs?q=go",
		StatusCode: 200,
		Body:       "<html>jobs</html>",
		FetchedAt:  time.Unix(1_700_000_000, 0).UTC(),
	}
	require.NoError(t, c.Put(ctx, resp.URL, nil, resp))

	got, ok, err := c.Get(ctx, resp.URL, nil)
	require.NoError(t, err)
	require.True(t, ok)
	require.True(t, got.FromCache)
	require.Equal(t, resp.Body, got.Body)
	require.Equal(t, 200, got.StatusCode)
}

func TestNonSuccessNeverCached(t *testing.T) {
	t.Parallel()

	c, _ := newCache(t, 0)
	ctx := context.Background()

	for _, status := range []int{301, 404, 429, 500} {
		resp := jobs.PageResponse{URL: "https://example.com/x", StatusCode: status, Body: "nope"}
		require.NoError(t, c.Put(ctx, resp.URL, nil, resp))

		_, ok, err := c.Get(ctx, resp.URL, nil)
		require.NoError(t, err)
		require.False(t, ok, "status %d must not be cached", status)
	}
}

func TestEntryExpires(t *testing.T) {
	t.Parallel()

	c, clk := newCache(t, 10)
	ctx := context.Background()

	resp := jobs.PageResponse{URL: "https://example.com/jobs", StatusCode: 200, Body: "body"}
	require.NoError(t, c.Put(ctx, resp.URL, nil, resp))

	clk.advance(11 * time.Second)
	_, ok, err := c.Get(ctx, resp.URL, nil)
	require.NoError(t, err)
	require.False(t, ok, "entry should be absent after ttl")
}

func TestRefreshOverwrites(t *testing.T) {
	t.Parallel()

	c, _ := newCache(t, 0)
	ctx := context.Background()

	first := jobs.PageResponse{URL: "https://example.com/jobs", StatusCode: 200, Body: "old"}
	require.NoError(t, c.Put(ctx, first.URL, nil, first))

	second := first
	second.Body = "new"
	require.NoError(t, c.Put(ctx, second.URL, nil, second))

	got, ok, err := c.Get(ctx, first.URL, nil)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "new", got.Body)
}
