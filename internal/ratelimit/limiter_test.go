package ratelimit

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

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

// fakeSleeper records requested waits and advances the clock instead of
// sleeping.
type fakeSleeper struct {
	mu    sync.Mutex
	clock *fakeClock
	waits []time.Duration
}

func (s *fakeSleeper) Sleep(_ context.Context, d time.Duration) error {
	s.mu.Lock()
	s.waits = append(s.waits, d)
	s.mu.Unlock()
	s.clock.advance(d)
	return nil
}

func newLimiter(t *testing.T, thresholds map[string]int) (*Limiter, *fakeClock, *fakeSleeper) {
	t.Helper()
	// Align to a bucket start so wait math is exact.
	clk := &fakeClock{now: time.Unix(1_700_000_040, 0).UTC().Truncate(time.Minute)}
	store := kvmemory.New(clk)
	t.Cleanup(store.Close)
	sleeper := &fakeSleeper{clock: clk}
	return New(store, clk, sleeper, Config{Thresholds: thresholds, DefaultMax: 5}, zap.NewNop()), clk, sleeper
}

func TestCheckAndIncrementWithinThreshold(t *testing.T) {
	t.Parallel()

	l, _, _ := newLimiter(t, map[string]int{"indeed": 3})
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		d, err := l.CheckAndIncrement(ctx, "indeed")
		require.NoError(t, err)
		require.True(t, d.Allowed, "request %d should pass", i+1)
	}
}

func TestCheckAndIncrementThrottlesOverThreshold(t *testing.T) {
	t.Parallel()

	l, _, _ := newLimiter(t, map[string]int{"indeed": 3})
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := l.CheckAndIncrement(ctx, "indeed")
		require.NoError(t, err)
	}

	d, err := l.CheckAndIncrement(ctx, "indeed")
	require.NoError(t, err)
	require.False(t, d.Allowed, "the fourth request in the bucket must be throttled")
	require.Greater(t, d.RetryAfter, time.Duration(0))
	require.LessOrEqual(t, d.RetryAfter, BucketSeconds*time.Second)
}

func TestAcquireBlocksUntilNextBucket(t *testing.T) {
	t.Parallel()

	l, _, sleeper := newLimiter(t, map[string]int{"detail": 2})
	ctx := context.Background()

	require.NoError(t, l.Acquire(ctx, "detail"))
	require.NoError(t, l.Acquire(ctx, "detail"))

	// Third request: throttled, waits out the bucket, then succeeds in the
	// fresh window. It is delayed, never dropped.
	require.NoError(t, l.Acquire(ctx, "detail"))
	require.Len(t, sleeper.waits, 1)
	require.Equal(t, BucketSeconds*time.Second, sleeper.waits[0])
}

func TestBucketRollResetsCounter(t *testing.T) {
	t.Parallel()

	l, clk, _ := newLimiter(t, map[string]int{"indeed": 1})
	ctx := context.Background()

	d, err := l.CheckAndIncrement(ctx, "indeed")
	require.NoError(t, err)
	require.True(t, d.Allowed)

	d, err = l.CheckAndIncrement(ctx, "indeed")
	require.NoError(t, err)
	require.False(t, d.Allowed)

	clk.advance(BucketSeconds * time.Second)
	d, err = l.CheckAndIncrement(ctx, "indeed")
	require.NoError(t, err)
	require.True(t, d.Allowed, "a new minute bucket starts at zero")
}

func TestSourcesAreIndependent(t *testing.T) {
	t.Parallel()

	l, _, _ := newLimiter(t, map[string]int{"search": 1, "detail": 1})
	ctx := context.Background()

	d, err := l.CheckAndIncrement(ctx, "search")
	require.NoError(t, err)
	require.True(t, d.Allowed)

	d, err = l.CheckAndIncrement(ctx, "search")
	require.NoError(t, err)
	require.False(t, d.Allowed)

	// Exhausting "search" leaves "detail" untouched.
	d, err = l.CheckAndIncrement(ctx, "detail")
	require.NoError(t, err)
	require.True(t, d.Allowed)
}

func TestAcquireCanceledContext(t *testing.T) {
	t.Parallel()

	clk := &fakeClock{now: time.Unix(1_700_000_000, 0).UTC().Truncate(time.Minute)}
	store := kvmemory.New(clk)
	t.Cleanup(store.Close)
	l := New(store, clk, blockedSleeper{}, Config{DefaultMax: 1}, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, l.Acquire(ctx, "indeed"))
	cancel()
	require.Error(t, l.Acquire(ctx, "indeed"))
}

// blockedSleeper simulates a sleep interrupted by cancellation.
type blockedSleeper struct{}

func (blockedSleeper) Sleep(ctx context.Context, _ time.Duration) error {
	<-ctx.Done()
	return ctx.Err()
}
