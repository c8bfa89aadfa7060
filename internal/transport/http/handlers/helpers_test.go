package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap/zaptest"

	"github.com/vindeacy/RentSpotLimited-sub000/internal/core/domain"
	"github.com/vindeacy/RentSpotLimited-sub000/internal/core/port"
	"github.com/vindeacy/RentSpotLimited-sub000/internal/infra/security"
	"github.com/vindeacy/RentSpotLimited-sub000/internal/repository"
	"github.com/vindeacy/RentSpotLimited-sub000/internal/repository/memory"
	"github.com/vindeacy/RentSpotLimited-sub000/internal/transport/http/middleware"
	"github.com/vindeacy/RentSpotLimited-sub000/internal/usecase"
)

const testPassword = "correct horse battery staple"

var testArgon2 = security.Argon2Config{Memory: 8192, Iterations: 1, Parallelism: 1, SaltLength: 16, KeyLength: 32}

type memoryPrincipals struct {
	mu     sync.Mutex
	byID   map[string]domain.Principal
	hashes map[string]string
}

func (m *memoryPrincipals) GetByID(_ context.Context, id string) (*domain.Principal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.byID[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &p, nil
}

func (m *memoryPrincipals) GetCredentials(_ context.Context, email string) (*domain.PrincipalCredentials, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.byID {
		if strings.EqualFold(p.Email, email) {
			return &domain.PrincipalCredentials{Principal: p, PasswordHash: m.hashes[p.ID]}, nil
		}
	}
	return nil, repository.ErrNotFound
}

type brokenRevocations struct{}

func (brokenRevocations) Revoke(context.Context, string) error { return context.DeadlineExceeded }

func (brokenRevocations) IsRevoked(context.Context, string) (bool, error) { return false, nil }

type handlerFixture struct {
	now         time.Time
	tokens      *security.TokenService
	revocations *security.RevocationList
	principals  *memoryPrincipals
	router      *gin.Engine
}

func newHandlerFixture(t *testing.T, revocationOverride ...port.RevocationStore) *handlerFixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	f := &handlerFixture{now: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)}
	clock := func() time.Time { return f.now }
	log := zaptest.NewLogger(t)

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
	f.revocations = security.NewRevocationList(security.RevocationListOptions{TTL: 15 * time.Minute}).WithClock(clock)

	hash, err := security.HashPassword(testPassword, testArgon2)
	if err != nil {
		t.Fatalf("HashPassword returned error: %v", err)
	}

	landlordProfile, tenantProfile := "lp-1", "tp-1"
	f.principals = &memoryPrincipals{
		byID: map[string]domain.Principal{
			"landlord-1": {ID: "landlord-1", Email: "lee@example.com", DisplayName: "Lee", Role: domain.RoleLandlord, IsActive: true, IsVerified: true, LandlordProfileID: &landlordProfile},
			"tenant-1":   {ID: "tenant-1", Email: "tia@example.com", DisplayName: "Tia", Role: domain.RoleTenant, IsActive: true, TenantProfileID: &tenantProfile},
			"inactive-1": {ID: "inactive-1", Email: "old@example.com", Role: domain.RoleTenant, IsActive: false, TenantProfileID: &tenantProfile},
		},
		hashes: map[string]string{"landlord-1": hash, "tenant-1": hash, "inactive-1": hash},
	}

	var revocations port.RevocationStore = f.revocations
	if len(revocationOverride) > 0 {
		revocations = revocationOverride[0]
	}

	refresher := usecase.NewRefresher(f.tokens, f.principals)
	gate := usecase.NewAuthGate(f.tokens, revocations, f.principals, refresher, log)
	sessions := usecase.NewSessionService(f.principals, f.tokens, revocations, refresher, nil, log)
	sessions.WithClock(clock)
	cookies := middleware.NewCookieSessionManager(middleware.CookieOptions{AccessTTL: 15 * time.Minute, RefreshTTL: 7 * 24 * time.Hour})

	store := memory.NewRateLimitRepository(time.Hour).WithClock(clock)
	limiter := usecase.NewRateLimiter(store, log).WithClock(clock)

	router := gin.New()
	router.Use(middleware.EnrichContext())

	requireAuth := middleware.RequireAuth(gate, cookies)
	NewAuthHandler(sessions, cookies).RegisterRoutes(router.Group("/api/v1/auth"), AuthMiddlewares{
		Required: requireAuth,
		Optional: middleware.OptionalAuth(gate, cookies),
	})
	NewAccessHandler(limiter, usecase.RateLimitPolicy{Name: "sensitive", MaxRequests: 2, Window: time.Minute}).
		RegisterRoutes(router.Group("/api/v1/access"), requireAuth)

	f.router = router
	return f
}

func (f *handlerFixture) do(method, path, body string, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rr := httptest.NewRecorder()
	f.router.ServeHTTP(rr, req)
	return rr
}

func (f *handlerFixture) login(t *testing.T, email string) []*http.Cookie {
	t.Helper()
	rr := f.do(http.MethodPost, "/api/v1/auth/login", `{"email":"`+email+`","password":"`+testPassword+`"}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("login failed: %d %s", rr.Code, rr.Body.String())
	}
	return rr.Result().Cookies()
}

func cookieMap(cookies []*http.Cookie) map[string]*http.Cookie {
	out := make(map[string]*http.Cookie, len(cookies))
	for _, c := range cookies {
		out[c.Name] = c
	}
	return out
}

func decode[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	if err := json.Unmarshal(rr.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode %q: %v", rr.Body.String(), err)
	}
	return out
}
