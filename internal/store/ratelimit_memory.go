package store

import (
	"context"
	"sync"
	"time"
)

// RateLimitMemoryStore keeps sliding-window request logs in process. Suitable for a single replica.
type RateLimitMemoryStore struct {
	mu       sync.Mutex
	requests map[string][]time.Time
	now      func() time.Time
}

// NewRateLimitMemoryStore creates an empty store on the wall clock.
func NewRateLimitMemoryStore() *RateLimitMemoryStore {
	return NewRateLimitMemoryStoreWithClock(time.Now)
}

// NewRateLimitMemoryStoreWithClock creates an empty store that reads the time from now.
func NewRateLimitMemoryStoreWithClock(now func() time.Time) *RateLimitMemoryStore {
	return &RateLimitMemoryStore{
		requests: make(map[string][]time.Time),
		now:      now,
	}
}

// Record logs a request for key and returns how many requests fall inside the window, this one
// included.
func (s *RateLimitMemoryStore) Record(_ context.Context, key string, window time.Duration) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	cutoff := now.Add(-window)

	// timestamps are appended in order, so expired entries form a prefix
	log := s.requests[key]
	first := 0

	for first < len(log) && !log[first].After(cutoff) {
		first++
	}

	log = append(log[first:], now)
	s.requests[key] = log

	return int64(len(log)), nil
}
