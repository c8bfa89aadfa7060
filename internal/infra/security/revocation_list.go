package security

import (
	"container/heap"
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/vindeacy/RentSpotLimited-sub000/internal/core/port"
)

// RevocationListOptions controls in-memory revocation behaviour.
type RevocationListOptions struct {
	// TTL is how long a revoked token is remembered; the access-token lifetime.
	TTL time.Duration
	// SweepInterval is the period of the background sweep started by Run.
	SweepInterval time.Duration
}

type revocationEntry struct {
	key        string
	insertedAt time.Time
	expiresAt  time.Time
	index      int
}

// revocationQueue is a min-heap of entries ordered by expiry.
type revocationQueue []*revocationEntry

func (q revocationQueue) Len() int { return len(q) }

func (q revocationQueue) Less(i, j int) bool { return q[i].expiresAt.Before(q[j].expiresAt) }

func (q revocationQueue) Swap(i, j int) {
	q[i], q[j] = q[j], q[i]
	q[i].index = i
	q[j].index = j
}

func (q *revocationQueue) Push(x any) {
	entry := x.(*revocationEntry)
	entry.index = len(*q)
	*q = append(*q, entry)
}

func (q *revocationQueue) Pop() any {
	old := *q
	n := len(old)
	entry := old[n-1]
	old[n-1] = nil
	entry.index = -1
	*q = old[:n-1]
	return entry
}

// RevocationList is a process-local RevocationStore. Membership is a map lookup; expiry
// is driven by a min-heap drained on every Revoke and by the periodic sweep in Run.
type RevocationList struct {
	mu            sync.Mutex
	entries       map[string]*revocationEntry
	queue         revocationQueue
	ttl           time.Duration
	sweepInterval time.Duration
	now           func() time.Time
}

// NewRevocationList constructs an empty in-memory revocation list.
func NewRevocationList(opts RevocationListOptions) *RevocationList {
	if opts.TTL <= 0 {
		opts.TTL = defaultAccessTokenTTL
	}
	if opts.SweepInterval <= 0 {
		opts.SweepInterval = time.Minute
	}
	return &RevocationList{
		entries:       make(map[string]*revocationEntry),
		ttl:           opts.TTL,
		sweepInterval: opts.SweepInterval,
		now:           func() time.Time { return time.Now().UTC() },
	}
}

// WithClock overrides the internal clock for deterministic testing.
func (l *RevocationList) WithClock(clock func() time.Time) *RevocationList {
	if clock != nil {
		l.mu.Lock()
		l.now = clock
		l.mu.Unlock()
	}
	return l
}

// Revoke records the token until the TTL elapses. Revoking an already revoked token
// restarts its TTL.
func (l *RevocationList) Revoke(_ context.Context, token string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return fmt.Errorf("token is required")
	}
	l.revokeKey(HashToken(token))
	return nil
}

func (l *RevocationList) revokeKey(key string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now().UTC()
	l.pruneLocked(now)

	if entry, ok := l.entries[key]; ok {
		entry.insertedAt = now
		entry.expiresAt = now.Add(l.ttl)
		heap.Fix(&l.queue, entry.index)
		return
	}

	entry := &revocationEntry{key: key, insertedAt: now, expiresAt: now.Add(l.ttl)}
	heap.Push(&l.queue, entry)
	l.entries[key] = entry
}

// IsRevoked reports whether the token is revoked and its entry has not yet aged out.
func (l *RevocationList) IsRevoked(_ context.Context, token string) (bool, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return false, nil
	}
	key := HashToken(token)

	l.mu.Lock()
	defer l.mu.Unlock()

	entry, ok := l.entries[key]
	if !ok {
		return false, nil
	}
	return l.now().UTC().Before(entry.expiresAt), nil
}

// Prune removes every entry whose TTL has elapsed at now and returns how many were removed.
func (l *RevocationList) Prune(now time.Time) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.pruneLocked(now.UTC())
}

// Len returns the number of tracked entries, including any not yet pruned.
func (l *RevocationList) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}

// Run sweeps expired entries every SweepInterval until ctx is cancelled.
func (l *RevocationList) Run(ctx context.Context) {
	ticker := time.NewTicker(l.sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			l.mu.Lock()
			l.pruneLocked(l.now().UTC())
			l.mu.Unlock()
		}
	}
}

func (l *RevocationList) pruneLocked(now time.Time) int {
	removed := 0
	for l.queue.Len() > 0 {
		head := l.queue[0]
		if now.Before(head.expiresAt) {
			break
		}
		heap.Pop(&l.queue)
		delete(l.entries, head.key)
		removed++
	}
	return removed
}

var _ port.RevocationStore = (*RevocationList)(nil)
