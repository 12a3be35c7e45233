// Package kv defines the shared expiring key-value and counter store that
// backs the response cache and the rate-limit windows. The original service
// kept this state in a process-external store; modeling it as an interface
// lets tests substitute the in-memory implementation.
package kv

import "context"

// Store is a flat key space with per-key expiry and atomic counters.
type Store interface {
	// Get returns the value for key and whether it exists and is unexpired.
	Get(ctx context.Context, key string) (string, bool, error)
	// SetEx stores value under key with a time-to-live in seconds.
	SetEx(ctx context.Context, key, value string, ttlSeconds int) error
	// Incr atomically increments the integer counter at key and returns the
	// new value. A counter created by the increment expires after ttlSeconds.
	Incr(ctx context.Context, key string, ttlSeconds int) (int64, error)
}
