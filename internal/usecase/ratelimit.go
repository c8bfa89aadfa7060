package usecase

import (
	"context"
	"hash/fnv"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/vindeacy/RentSpotLimited-sub000/internal/core/domain"
	"github.com/vindeacy/RentSpotLimited-sub000/internal/core/port"
)

const rateLimitStripes = 64

// RateLimitPolicy is a sliding-window budget of MaxRequests per Window.
type RateLimitPolicy struct {
	Name        string
	MaxRequests int
	Window      time.Duration
}

func (p RateLimitPolicy) enabled() bool {
	return p.MaxRequests > 0 && p.Window > 0
}

// Quota describes the state of a window after a check.
type Quota struct {
	Allowed   bool
	Limit     int
	Remaining int
	// Reset is when the oldest tracked request leaves the window.
	Reset time.Time
	// RetryAfter is whole seconds until a request would be admitted; zero when allowed.
	RetryAfter int
}

// RateLimiter enforces sliding-window limits over a RateLimitStore. Check-and-record is
// serialized per key inside the process.
type RateLimiter struct {
	store  port.RateLimitStore
	logger *zap.Logger
	now    func() time.Time
	locks  [rateLimitStripes]sync.Mutex
}

// NewRateLimiter constructs a RateLimiter.
func NewRateLimiter(store port.RateLimitStore, logger *zap.Logger) *RateLimiter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RateLimiter{
		store:  store,
		logger: logger,
		now:    time.Now,
	}
}

// WithClock allows injection of a custom clock (primarily for testing).
func (l *RateLimiter) WithClock(now func() time.Time) *RateLimiter {
	if now != nil {
		l.now = now
	}
	return l
}

// Check prunes the window for key, rejects when MaxRequests are already tracked, and
// otherwise records the current request.
func (l *RateLimiter) Check(ctx context.Context, policy RateLimitPolicy, key string) (Quota, error) {
	mu := l.lockFor(key)
	mu.Lock()
	defer mu.Unlock()

	now := l.now()

	if err := l.store.TrimWindow(ctx, key, policy.Window, now); err != nil {
		return Quota{}, err
	}

	count, err := l.store.CountAttempts(ctx, key, policy.Window, now)
	if err != nil {
		return Quota{}, err
	}

	oldest, hasAttempts, err := l.store.OldestAttempt(ctx, key, policy.Window, now)
	if err != nil {
		return Quota{}, err
	}

	quota := Quota{
		Allowed: true,
		Limit:   policy.MaxRequests,
		Reset:   now.Add(policy.Window),
	}
	if hasAttempts {
		quota.Reset = oldest.Add(policy.Window)
	}

	if count >= policy.MaxRequests {
		quota.Allowed = false
		quota.RetryAfter = ceilSeconds(quota.Reset.Sub(now))
		return quota, nil
	}

	if err := l.store.RecordAttempt(ctx, key, now); err != nil {
		return Quota{}, err
	}

	quota.Remaining = policy.MaxRequests - count - 1
	return quota, nil
}

// Stage limits the authenticated principal on route. Anonymous requests bypass.
func (l *RateLimiter) Stage(policy RateLimitPolicy, route string) Stage {
	return func(ctx context.Context, auth domain.AuthContext) Outcome {
		principal, ok := auth.Principal()
		if !ok {
			return Continue(auth)
		}
		return l.Limit(ctx, policy, PrincipalRateLimitKey(policy, principal.ID, route), auth)
	}
}

// Limit checks key against policy and continues as auth when admitted. Store failures
// fail open with a warning.
func (l *RateLimiter) Limit(ctx context.Context, policy RateLimitPolicy, key string, auth domain.AuthContext) Outcome {
	if l == nil || l.store == nil || !policy.enabled() {
		return Continue(auth)
	}

	quota, err := l.Check(ctx, policy, key)
	if err != nil {
		l.logger.Warn("rate limit check failed",
			zap.String("policy", policy.Name),
			zap.String("key", key),
			zap.Error(err),
		)
		return Continue(auth)
	}

	if !quota.Allowed {
		rejection := RejectionFor(ErrRateLimited)
		rejection.RetryAfter = quota.RetryAfter
		return Respond(rejection).WithQuota(quota)
	}
	return Continue(auth).WithQuota(quota)
}

// PrincipalRateLimitKey builds the store key for (principal, route) under policy.
func PrincipalRateLimitKey(policy RateLimitPolicy, principalID, route string) string {
	name := policy.Name
	if name == "" {
		name = "default"
	}
	return strings.Join([]string{name, principalID, route}, ":")
}

func (l *RateLimiter) lockFor(key string) *sync.Mutex {
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	return &l.locks[h.Sum32()%rateLimitStripes]
}

func ceilSeconds(d time.Duration) int {
	if d <= 0 {
		return 0
	}
	return int((d + time.Second - 1) / time.Second)
}
