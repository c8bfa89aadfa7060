package middleware

import (
	"context"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap/zaptest"

	"github.com/vindeacy/RentSpotLimited-sub000/internal/core/domain"
	"github.com/vindeacy/RentSpotLimited-sub000/internal/infra/security"
	"github.com/vindeacy/RentSpotLimited-sub000/internal/repository"
	"github.com/vindeacy/RentSpotLimited-sub000/internal/usecase"
)

type stubPrincipals struct {
	mu         sync.Mutex
	principals map[string]domain.Principal
	err        error
}

func (s *stubPrincipals) GetByID(_ context.Context, id string) (*domain.Principal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	p, ok := s.principals[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &p, nil
}

func (s *stubPrincipals) GetCredentials(context.Context, string) (*domain.PrincipalCredentials, error) {
	return nil, repository.ErrNotFound
}

type authFixture struct {
	now         time.Time
	tokens      *security.TokenService
	revocations *security.RevocationList
	principals  *stubPrincipals
	gate        *usecase.AuthGate
	cookies     *CookieSessionManager
}

func newAuthFixture(t *testing.T) *authFixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	f := &authFixture{now: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)}
	clock := func() time.Time { return f.now }

	tokens, err := security.NewTokenService(security.TokenServiceConfig{
		AccessSecret:  "access-secret-0123456789abcdef0123456789",
		RefreshSecret: "refresh-secret-0123456789abcdef012345678",
		AccessTTL:     15 * time.Minute,
		RefreshTTL:    7 * 24 * time.Hour,
		Issuer:        "rentspot-test",
	})
	if err != nil {
		t.Fatalf("NewTokenService returned error: %v", err)
	}
	f.tokens = tokens.WithClock(clock)
	f.revocations = security.NewRevocationList(security.RevocationListOptions{TTL: time.Hour}).WithClock(clock)

	profile := "lp-1"
	f.principals = &stubPrincipals{principals: map[string]domain.Principal{
		"landlord-1": {
			ID:                "landlord-1",
			Email:             "lee@example.com",
			Role:              domain.RoleLandlord,
			IsActive:          true,
			IsVerified:        true,
			LandlordProfileID: &profile,
		},
	}}

	refresher := usecase.NewRefresher(f.tokens, f.principals)
	f.gate = usecase.NewAuthGate(f.tokens, f.revocations, f.principals, refresher, zaptest.NewLogger(t))
	f.cookies = NewCookieSessionManager(CookieOptions{AccessTTL: 15 * time.Minute, RefreshTTL: 7 * 24 * time.Hour})
	return f
}

func (f *authFixture) issue(t *testing.T, id string) domain.TokenPair {
	t.Helper()
	pair, err := f.tokens.IssuePair(f.principals.principals[id])
	if err != nil {
		t.Fatalf("IssuePair returned error: %v", err)
	}
	return pair
}

func withSession(req *http.Request, pair domain.TokenPair) *http.Request {
	if pair.AccessToken != "" {
		req.AddCookie(&http.Cookie{Name: AccessTokenCookie, Value: pair.AccessToken})
	}
	if pair.RefreshToken != "" {
		req.AddCookie(&http.Cookie{Name: RefreshTokenCookie, Value: pair.RefreshToken})
	}
	return req
}

func cookiesByName(resp *http.Response) map[string]*http.Cookie {
	out := make(map[string]*http.Cookie)
	for _, c := range resp.Cookies() {
		out[c.Name] = c
	}
	return out
}
