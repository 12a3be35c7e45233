package client

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/im-caveman/yagaami/internal/cache"
	"github.com/im-caveman/yagaami/internal/jobs"
	kvmemory "github.com/im-caveman/yagaami/internal/kv/memory"
	"github.com/im-caveman/yagaami/internal/rotation"
)

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

// recordingSleeper captures waits without sleeping.
type recordingSleeper struct {
	mu    sync.Mutex
	waits []time.Duration
}

func (s *recordingSleeper) Sleep(_ context.Context, d time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.waits = append(s.waits, d)
	return nil
}

func (s *recordingSleeper) recorded() []time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]time.Duration(nil), s.waits...)
}

type harness struct {
	client     *Client
	sleeper    *recordingSleeper
	identities *rotation.IdentityRing
}

func newHarness(t *testing.T, policy RetryPolicy) *harness {
	t.Helper()
	clk := &fakeClock{now: time.Unix(1_700_000_000, 0).UTC()}
	store := kvmemory.New(clk)
	t.Cleanup(store.Close)

	sleeper := &recordingSleeper{}
	identities := rotation.NewIdentityRing([]string{"ua-1", "ua-2"})
	c := New(
		Config{Timeout: 5 * time.Second, Policy: policy},
		cache.New(store, 0),
		rotation.NewProxyRing(nil),
		identities,
		clk,
		sleeper,
		zap.NewNop(),
	)
	return &harness{client: c, sleeper: sleeper, identities: identities}
}

func quietPolicy() RetryPolicy {
	p := DefaultRetryPolicy()
	p.Jitter = func() time.Duration { return 0 }
	return p
}

func TestFetchSuccess(t *testing.T) {
	t.Parallel()

	var hits atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		require.Equal(t, "go developer", r.URL.Query().Get("q"))
		_, _ = w.Write([]byte("<html>results</html>"))
	}))
	defer srv.Close()

	h := newHarness(t, quietPolicy())
	resp, err := h.client.Fetch(context.Background(), jobs.PageRequest{
		URL:    srv.URL + "/jobs",
		Params: map[string]string{"q": "go developer"},
	})
	require.NoError(t, err)
	require.Equal(t, 200, resp.StatusCode)
	require.Equal(t, "<html>results</html>", resp.Body)
	require.False(t, resp.FromCache)
	require.Equal(t, int64(1), hits.Load())
}

func TestFetchServesFromCacheWithoutRotation(t *testing.T) {
	t.Parallel()

	var hits atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		_, _ = w.Write([]byte("body"))
	}))
	defer srv.Close()

	h := newHarness(t, quietPolicy())
	req := jobs.PageRequest{URL: srv.URL + "/jobs", Params: map[string]string{"q": "go"}}

	first, err := h.client.Fetch(context.Background(), req)
	require.NoError(t, err)
	require.False(t, first.FromCache)

	second, err := h.client.Fetch(context.Background(), req)
	require.NoError(t, err)
	require.True(t, second.FromCache)
	require.Equal(t, first.Body, second.Body)
	require.Equal(t, int64(1), hits.Load(), "a cache hit must not reach the network")

	// The first fetch consumed exactly one identity; the cached fetch none.
	require.Equal(t, "ua-2", h.identities.Next().UserAgent)
}

func TestFetchWaitsOutRateLimit(t *testing.T) {
	t.Parallel()

	var hits atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if hits.Add(1) == 1 {
			w.Header().Set("Retry-After", "7")
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		_, _ = w.Write([]byte("ok"))
	}))
	defer srv.Close()

	policy := quietPolicy()
	policy.MaxAttempts = 1 // a 429 must not consume the only attempt
	h := newHarness(t, policy)

	resp, err := h.client.Fetch(context.Background(), jobs.PageRequest{URL: srv.URL + "/jobs"})
	require.NoError(t, err)
	require.Equal(t, "ok", resp.Body)
	require.Equal(t, int64(2), hits.Load())
	require.Equal(t, []time.Duration{7 * time.Second}, h.sleeper.recorded())
}

func TestFetchClientErrorFailsImmediately(t *testing.T) {
	t.Parallel()

	var hits atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	h := newHarness(t, quietPolicy())
	_, err := h.client.Fetch(context.Background(), jobs.PageRequest{URL: srv.URL + "/gone"})
	require.Error(t, err)

	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	require.Equal(t, 404, statusErr.StatusCode)
	require.NotErrorIs(t, err, ErrExhausted)
	require.Equal(t, int64(1), hits.Load(), "4xx must not be retried")
	require.Empty(t, h.sleeper.recorded())
}

func TestFetchExhaustsRetriesOnServerError(t *testing.T) {
	t.Parallel()

	var hits atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	h := newHarness(t, quietPolicy())
	_, err := h.client.Fetch(context.Background(), jobs.PageRequest{URL: srv.URL + "/flaky", MaxAttempts: 3})
	require.ErrorIs(t, err, ErrExhausted)

	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	require.Equal(t, 500, statusErr.StatusCode)
	require.Equal(t, int64(3), hits.Load())

	// Backoff delays between attempts are non-decreasing.
	waits := h.sleeper.recorded()
	require.Len(t, waits, 2)
	require.Equal(t, 2*time.Second, waits[0])
	require.Equal(t, 4*time.Second, waits[1])
}

func TestFetchRecoversAfterTransientFailures(t *testing.T) {
	t.Parallel()

	var hits atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if hits.Add(1) <= 2 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte("finally"))
	}))
	defer srv.Close()

	h := newHarness(t, quietPolicy())
	resp, err := h.client.Fetch(context.Background(), jobs.PageRequest{URL: srv.URL + "/jobs", MaxAttempts: 3})
	require.NoError(t, err)
	require.Equal(t, "finally", resp.Body)
	require.Equal(t, int64(3), hits.Load())
}

func TestFetchErrorResponsesNotCached(t *testing.T) {
	t.Parallel()

	var hits atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if hits.Add(1) == 1 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		_, _ = w.Write([]byte("fresh"))
	}))
	defer srv.Close()

	h := newHarness(t, quietPolicy())
	req := jobs.PageRequest{URL: srv.URL + "/jobs", MaxAttempts: 1}

	_, err := h.client.Fetch(context.Background(), req)
	require.Error(t, err)

	resp, err := h.client.Fetch(context.Background(), req)
	require.NoError(t, err)
	require.False(t, resp.FromCache, "a failed fetch must not poison the cache")
	require.Equal(t, "fresh", resp.Body)
}

func TestFetchCanceledContext(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	h := newHarness(t, quietPolicy())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := h.client.Fetch(ctx, jobs.PageRequest{URL: srv.URL + "/jobs"})
	require.ErrorIs(t, err, context.Canceled)
}
