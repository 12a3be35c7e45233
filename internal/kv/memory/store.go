// Package memory provides an in-memory kv.Store for development and tests.
package memory

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/im-caveman/yagaami/internal/jobs"
)

type entry struct {
	value     string
	counter   int64
	isCounter bool
	expiresAt time.Time
}

func (e entry) expired(now time.Time) bool {
	return !e.expiresAt.IsZero() && !now.Before(e.expiresAt)
}

// Store is a mutex-guarded map with per-key expiry. Expired entries are
// dropped lazily on access and by a periodic sweep.
type Store struct {
	mu      sync.Mutex
	entries map[string]entry
	clock   jobs.Clock
	done    chan struct{}
	once    sync.Once
}

// New constructs a Store and starts its sweep loop.
func New(clock jobs.Clock) *Store {
	s := &Store{
		entries: make(map[string]entry),
		clock:   clock,
		done:    make(chan struct{}),
	}
	go s.sweepLoop()
	return s
}

// Get returns the live value for key.
func (s *Store) Get(_ context.Context, key string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[key]
	if !ok {
		return "", false, nil
	}
	if e.expired(s.clock.Now()) {
		delete(s.entries, key)
		return "", false, nil
	}
	if e.isCounter {
		return strconv.FormatInt(e.counter, 10), true, nil
	}
	return e.value, true, nil
}

// SetEx stores value under key with the given time-to-live.
func (s *Store) SetEx(_ context.Context, key, value string, ttlSeconds int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[key] = entry{
		value:     value,
		expiresAt: s.expiry(ttlSeconds),
	}
	return nil
}

// Incr atomically bumps the counter at key, creating it with the given
// time-to-live when absent or expired.
func (s *Store) Incr(_ context.Context, key string, ttlSeconds int) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[key]
	if !ok || e.expired(s.clock.Now()) {
		e = entry{isCounter: true, expiresAt: s.expiry(ttlSeconds)}
	}
	e.counter++
	s.entries[key] = e
	return e.counter, nil
}

// Close stops the sweep loop.
func (s *Store) Close() {
	s.once.Do(func() { close(s.done) })
}

func (s *Store) expiry(ttlSeconds int) time.Time {
	if ttlSeconds <= 0 {
		return time.Time{}
	}
	return s.clock.Now().Add(time.Duration(ttlSeconds) * time.Second)
}

func (s *Store) sweepLoop() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-s.done:
			return
		case <-ticker.C:
			now := s.clock.Now()
			s.mu.Lock()
			for k, e := range s.entries {
				if e.expired(now) {
					delete(s.entries, k)
				}
			}
			s.mu.Unlock()
		}
	}
}
