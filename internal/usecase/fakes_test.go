package usecase

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/vindeacy/RentSpotLimited-sub000/internal/core/domain"
	"github.com/vindeacy/RentSpotLimited-sub000/internal/infra/security"
	"github.com/vindeacy/RentSpotLimited-sub000/internal/repository"
)

const (
	testAccessSecret  = "access-secret-0123456789abcdef0123456789"
	testRefreshSecret = "refresh-secret-0123456789abcdef012345678"
)

// testClock is a mutable clock shared by the token service and stores under test.
type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func newTestClock() *testClock {
	return &testClock{now: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func newTestTokens(t *testing.T, clock *testClock) *security.TokenService {
	t.Helper()

	svc, err := security.NewTokenService(security.TokenServiceConfig{
		AccessSecret:  testAccessSecret,
		RefreshSecret: testRefreshSecret,
		AccessTTL:     15 * time.Minute,
		RefreshTTL:    7 * 24 * time.Hour,
		Issuer:        "rentspot-test",
	})
	if err != nil {
		t.Fatalf("NewTokenService returned error: %v", err)
	}
	return svc.WithClock(clock.Now)
}

type fakePrincipals struct {
	mu          sync.Mutex
	principals  map[string]domain.Principal
	hashes      map[string]string
	err         error
	lookups     int
	beforeQuery func()
}

func newFakePrincipals(principals ...domain.Principal) *fakePrincipals {
	repo := &fakePrincipals{
		principals: make(map[string]domain.Principal),
		hashes:     make(map[string]string),
	}
	for _, p := range principals {
		repo.principals[p.ID] = p
	}
	return repo
}

func (r *fakePrincipals) GetByID(ctx context.Context, id string) (*domain.Principal, error) {
	r.mu.Lock()
	r.lookups++
	hook := r.beforeQuery
	r.mu.Unlock()

	if hook != nil {
		hook()
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	p, ok := r.principals[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copy := p
	return &copy, nil
}

func (r *fakePrincipals) GetCredentials(_ context.Context, email string) (*domain.PrincipalCredentials, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	for _, p := range r.principals {
		if p.Email == email {
			return &domain.PrincipalCredentials{Principal: p, PasswordHash: r.hashes[p.ID]}, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *fakePrincipals) Lookups() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.lookups
}

func (r *fakePrincipals) Update(p domain.Principal) {
	r.mu.Lock()
	r.principals[p.ID] = p
	r.mu.Unlock()
}

type recordingSession struct {
	set     []domain.TokenPair
	cleared int
}

func (s *recordingSession) SetSession(tokens domain.TokenPair) { s.set = append(s.set, tokens) }

func (s *recordingSession) ClearSession() { s.cleared++ }

type failingRevocations struct{}

func (failingRevocations) Revoke(context.Context, string) error { return errors.New("store down") }

func (failingRevocations) IsRevoked(context.Context, string) (bool, error) {
	return false, errors.New("store down")
}

type recordingMetrics struct {
	mu       sync.Mutex
	outcomes []string
	refresh  []string
}

func (m *recordingMetrics) ObserveAuthOutcome(mode, code string) {
	m.mu.Lock()
	m.outcomes = append(m.outcomes, mode+":"+code)
	m.mu.Unlock()
}

func (m *recordingMetrics) ObserveRefresh(result string) {
	m.mu.Lock()
	m.refresh = append(m.refresh, result)
	m.mu.Unlock()
}

type recordingEvents struct {
	events []domain.SessionEvent
	err    error
}

func (p *recordingEvents) PublishSessionEvent(_ context.Context, event domain.SessionEvent) error {
	p.events = append(p.events, event)
	return p.err
}

func landlord() domain.Principal {
	profile := "lp-1"
	return domain.Principal{
		ID:                "landlord-1",
		Email:             "lee@example.com",
		DisplayName:       "Lee",
		Role:              domain.RoleLandlord,
		IsActive:          true,
		IsVerified:        true,
		LandlordProfileID: &profile,
	}
}

func tenant() domain.Principal {
	profile := "tp-1"
	return domain.Principal{
		ID:              "tenant-1",
		Email:           "tia@example.com",
		DisplayName:     "Tia",
		Role:            domain.RoleTenant,
		IsActive:        true,
		TenantProfileID: &profile,
	}
}
