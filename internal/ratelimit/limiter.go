// Package ratelimit implements the per-source sliding-window request limiter.
// Each source has an independent max-requests-per-minute threshold counted in
// a shared counter store, so several pipeline processes sharing one store see
// the same windows.
package ratelimit

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/im-caveman/yagaami/internal/jobs"
	"github.com/im-caveman/yagaami/internal/kv"
	"github.com/im-caveman/yagaami/internal/metrics"
)

// BucketSeconds is the window width. Counters expire with their bucket, so
// every new minute starts from zero.
const BucketSeconds = 60

// Decision is the outcome of one admission check.
type Decision struct {
	Allowed    bool
	RetryAfter time.Duration
}

// Config holds the per-source thresholds.
type Config struct {
	// Thresholds maps source name to max requests per bucket.
	Thresholds map[string]int
	// DefaultMax applies to sources without an explicit threshold.
	DefaultMax int
}

// Limiter counts requests per (source, minute bucket) in the shared store.
type Limiter struct {
	store   kv.Store
	clock   jobs.Clock
	sleeper jobs.Sleeper
	cfg     Config
	logger  *zap.Logger
}

// New constructs a Limiter.
func New(store kv.Store, clock jobs.Clock, sleeper jobs.Sleeper, cfg Config, logger *zap.Logger) *Limiter {
	if cfg.DefaultMax <= 0 {
		cfg.DefaultMax = 5
	}
	return &Limiter{
		store:   store,
		clock:   clock,
		sleeper: sleeper,
		cfg:     cfg,
		logger:  logger,
	}
}

// CheckAndIncrement charges one request against the source's current bucket.
// When the threshold is exceeded, the decision carries the time remaining in
// the bucket; callers must wait, not drop.
func (l *Limiter) CheckAndIncrement(ctx context.Context, source string) (Decision, error) {
	now := l.clock.Now()
	bucket := now.Unix() / BucketSeconds
	key := fmt.Sprintf("rate:%s:%d", source, bucket)

	count, err := l.store.Incr(ctx, key, BucketSeconds)
	if err != nil {
		return Decision{}, fmt.Errorf("increment rate counter: %w", err)
	}
	if count <= int64(l.threshold(source)) {
		return Decision{Allowed: true}, nil
	}

	bucketEnd := time.Unix((bucket+1)*BucketSeconds, 0)
	retryAfter := bucketEnd.Sub(now)
	if retryAfter <= 0 {
		retryAfter = BucketSeconds * time.Second
	}
	return Decision{RetryAfter: retryAfter}, nil
}

// Acquire blocks until the source has budget in some bucket. Throttling is
// backpressure, never an error; Acquire fails only when the context ends or
// the counter store does.
func (l *Limiter) Acquire(ctx context.Context, source string) error {
	for {
		decision, err := l.CheckAndIncrement(ctx, source)
		if err != nil {
			return err
		}
		if decision.Allowed {
			return nil
		}

		l.logger.Warn("rate limit reached, waiting for next window",
			zap.String("source", source),
			zap.Duration("retry_after", decision.RetryAfter),
		)
		metrics.ObserveThrottleDelay(source, decision.RetryAfter)
		if err := l.sleeper.Sleep(ctx, decision.RetryAfter); err != nil {
			return fmt.Errorf("throttle wait: %w", err)
		}
	}
}

func (l *Limiter) threshold(source string) int {
	if max, ok := l.cfg.Thresholds[source]; ok && max > 0 {
		return max
	}
	return l.cfg.DefaultMax
}
