package memory

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/vindeacy/RentSpotLimited-sub000/internal/core/port"
)

// RateLimitRepository keeps rate-limit attempts in process memory. Each identifier owns
// an ascending slice of timestamps.
type RateLimitRepository struct {
	mu       sync.Mutex
	attempts map[string][]time.Time
	// retention is how long an identifier may stay idle before the janitor drops it.
	retention time.Duration
	now       func() time.Time
}

// NewRateLimitRepository constructs an empty store. Retention should cover the longest
// configured window.
func NewRateLimitRepository(retention time.Duration) *RateLimitRepository {
	if retention <= 0 {
		retention = time.Hour
	}
	return &RateLimitRepository{
		attempts:  make(map[string][]time.Time),
		retention: retention,
		now:       time.Now,
	}
}

// WithClock overrides the janitor clock for deterministic testing.
func (r *RateLimitRepository) WithClock(now func() time.Time) *RateLimitRepository {
	if now != nil {
		r.now = now
	}
	return r
}

// RecordAttempt appends at, keeping the slice ordered.
func (r *RateLimitRepository) RecordAttempt(_ context.Context, identifier string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	list := r.attempts[identifier]
	idx := sort.Search(len(list), func(i int) bool { return list[i].After(at) })
	list = append(list, time.Time{})
	copy(list[idx+1:], list[idx:])
	list[idx] = at
	r.attempts[identifier] = list
	return nil
}

// CountAttempts returns how many attempts fall inside (reference-window, reference].
func (r *RateLimitRepository) CountAttempts(_ context.Context, identifier string, window time.Duration, reference time.Time) (int, error) {
	if window <= 0 {
		return 0, errors.New("window must be positive")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	threshold := reference.Add(-window)
	count := 0
	for _, ts := range r.attempts[identifier] {
		if ts.After(threshold) && !ts.After(reference) {
			count++
		}
	}
	return count, nil
}

// TrimWindow drops attempts at or before reference-window.
func (r *RateLimitRepository) TrimWindow(_ context.Context, identifier string, window time.Duration, reference time.Time) error {
	if window <= 0 {
		return errors.New("window must be positive")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.trimLocked(identifier, reference.Add(-window))
	return nil
}

// OldestAttempt returns the oldest attempt inside the active window.
func (r *RateLimitRepository) OldestAttempt(_ context.Context, identifier string, window time.Duration, reference time.Time) (time.Time, bool, error) {
	if window <= 0 {
		return time.Time{}, false, errors.New("window must be positive")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	threshold := reference.Add(-window)
	for _, ts := range r.attempts[identifier] {
		if ts.After(threshold) && !ts.After(reference) {
			return ts, true, nil
		}
	}
	return time.Time{}, false, nil
}

// Sweep drops every attempt older than the retention period and returns the number of
// identifiers removed entirely.
func (r *RateLimitRepository) Sweep(now time.Time) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	removed := 0
	threshold := now.Add(-r.retention)
	for identifier := range r.attempts {
		if r.trimLocked(identifier, threshold) {
			removed++
		}
	}
	return removed
}

// Len returns the number of identifiers currently tracked.
func (r *RateLimitRepository) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.attempts)
}

// Run sweeps idle identifiers every interval until ctx is cancelled.
func (r *RateLimitRepository) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.Sweep(r.now())
		}
	}
}

// trimLocked removes timestamps at or before threshold and reports whether the
// identifier was deleted because nothing remained.
func (r *RateLimitRepository) trimLocked(identifier string, threshold time.Time) bool {
	list, ok := r.attempts[identifier]
	if !ok {
		return false
	}

	idx := sort.Search(len(list), func(i int) bool { return list[i].After(threshold) })
	if idx == len(list) {
		delete(r.attempts, identifier)
		return true
	}
	if idx > 0 {
		r.attempts[identifier] = append(list[:0:0], list[idx:]...)
	}
	return false
}

var _ port.RateLimitStore = (*RateLimitRepository)(nil)
