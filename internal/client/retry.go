package client

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"net/http"
	"strconv"
	"time"
)

// ErrExhausted marks a fetch that failed every attempt in its budget. The
// caller treats it as "no data for this URL", never as a fatal error.
var ErrExhausted = errors.New("all fetch attempts failed")

// FailureKind classifies a failed attempt for the retry policy.
type FailureKind int

// Failure kinds, from the error taxonomy.
const (
	// KindTransient covers timeouts, connection resets, and 5xx responses.
	KindTransient FailureKind = iota
	// KindRateLimited is a 429; waited out, does not consume an attempt.
	KindRateLimited
	// KindClientError is any other 4xx; not retried.
	KindClientError
)

// StatusError is a non-success HTTP response surfaced as an error.
type StatusError struct {
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d", e.StatusCode)
}

// Classify maps a response status to its failure kind.
func Classify(statusCode int) FailureKind {
	switch {
	case statusCode == http.StatusTooManyRequests:
		return KindRateLimited
	case statusCode >= 400 && statusCode < 500:
		return KindClientError
	default:
		return KindTransient
	}
}

// RetryPolicy computes the delay schedule for failed attempts, decoupled
// from the transport so it can run against a fake clock.
type RetryPolicy struct {
	MaxAttempts int
	// BaseDelay is the unit the exponential schedule multiplies; one second
	// unless overridden.
	BaseDelay time.Duration
	// Jitter returns the random component added to each backoff. Defaults to
	// a uniform draw over [0, BaseDelay).
	Jitter func() time.Duration
	// RateLimitDelay applies when a 429 carries no Retry-After header.
	RateLimitDelay time.Duration
}

// DefaultRetryPolicy mirrors the production schedule: three attempts,
// 2^attempt seconds plus up to one second of jitter, 60s rate-limit fallback.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts:    3,
		BaseDelay:      time.Second,
		RateLimitDelay: 60 * time.Second,
	}
}

// Backoff returns the wait before the attempt following the given one
// (attempts count from 1). The deterministic part doubles each attempt.
func (p RetryPolicy) Backoff(attempt int) time.Duration {
	base := p.BaseDelay
	if base <= 0 {
		base = time.Second
	}
	delay := base * (1 << attempt)
	if p.Jitter != nil {
		return delay + p.Jitter()
	}
	return delay + time.Duration(rand.Int64N(int64(base)))
}

// RetryAfter parses the server-provided delay from a 429 response, falling
// back to the policy default when absent or malformed.
func (p RetryPolicy) RetryAfter(headers http.Header) time.Duration {
	fallback := p.RateLimitDelay
	if fallback <= 0 {
		fallback = 60 * time.Second
	}
	if headers == nil {
		return fallback
	}
	raw := headers.Get("Retry-After")
	if raw == "" {
		return fallback
	}
	seconds, err := strconv.Atoi(raw)
	if err != nil || seconds < 0 {
		return fallback
	}
	return time.Duration(seconds) * time.Second
}
