package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap/zaptest"

	"github.com/vindeacy/RentSpotLimited-sub000/internal/repository/memory"
	"github.com/vindeacy/RentSpotLimited-sub000/internal/usecase"
)

type brokenRateLimitStore struct{}

var errStoreDown = errors.New("store down")

func (brokenRateLimitStore) TrimWindow(context.Context, string, time.Duration, time.Time) error {
	return errStoreDown
}

func (brokenRateLimitStore) CountAttempts(context.Context, string, time.Duration, time.Time) (int, error) {
	return 0, errStoreDown
}

func (brokenRateLimitStore) RecordAttempt(context.Context, string, time.Time) error {
	return errStoreDown
}

func (brokenRateLimitStore) OldestAttempt(context.Context, string, time.Duration, time.Time) (time.Time, bool, error) {
	return time.Time{}, false, errStoreDown
}

func newIPLimitedRouter(t *testing.T, limiter *usecase.RateLimiter, policy usecase.RateLimitPolicy) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	router := gin.New()
	router.Use(EnrichContext())
	router.POST("/login", RateLimitByClientIP(limiter, policy), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	return router
}

func postLogin(router *gin.Engine, ip string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/login", nil)
	req.RemoteAddr = ip + ":40000"
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	return rr
}

func TestRateLimitByClientIPSetsQuotaHeaders(t *testing.T) {
	now := time.Date(2025, 10, 12, 10, 0, 0, 0, time.UTC)
	store := memory.NewRateLimitRepository(time.Hour).WithClock(func() time.Time { return now })
	limiter := usecase.NewRateLimiter(store, zaptest.NewLogger(t)).WithClock(func() time.Time { return now })
	policy := usecase.RateLimitPolicy{Name: "login", MaxRequests: 3, Window: time.Minute}

	rr := postLogin(newIPLimitedRouter(t, limiter, policy), "192.0.2.1")

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if got := rr.Header().Get("X-RateLimit-Limit"); got != "3" {
		t.Fatalf("expected limit header 3, got %q", got)
	}
	if got := rr.Header().Get("X-RateLimit-Remaining"); got != "2" {
		t.Fatalf("expected remaining header 2, got %q", got)
	}
	if got := rr.Header().Get("X-RateLimit-Reset"); got != strconv.FormatInt(now.Add(time.Minute).Unix(), 10) {
		t.Fatalf("unexpected reset header %q", got)
	}
	if got := rr.Header().Get("Retry-After"); got != "" {
		t.Fatalf("expected no retry-after header, got %q", got)
	}
}

func TestRateLimitByClientIPBlocksWhenExceeded(t *testing.T) {
	now := time.Date(2025, 10, 12, 10, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }
	store := memory.NewRateLimitRepository(time.Hour).WithClock(clock)
	limiter := usecase.NewRateLimiter(store, zaptest.NewLogger(t)).WithClock(clock)
	policy := usecase.RateLimitPolicy{Name: "login", MaxRequests: 2, Window: time.Minute}
	router := newIPLimitedRouter(t, limiter, policy)

	postLogin(router, "192.0.2.1")
	now = now.Add(30 * time.Second)
	postLogin(router, "192.0.2.1")
	now = now.Add(500 * time.Millisecond)

	rr := postLogin(router, "192.0.2.1")
	if rr.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", rr.Code)
	}
	if got := rr.Header().Get("Retry-After"); got != "30" {
		t.Fatalf("expected retry-after 30, got %q", got)
	}

	body := decodeError(t, rr)
	if body.Error != string(usecase.CodeRateLimited) {
		t.Fatalf("expected RateLimited, got %+v", body)
	}
	if body.RetryAfter == nil || *body.RetryAfter != 30 {
		t.Fatalf("expected retryAfter 30 in body, got %v", body.RetryAfter)
	}

	if other := postLogin(router, "198.51.100.7"); other.Code != http.StatusOK {
		t.Fatalf("expected a different client ip to be admitted, got %d", other.Code)
	}
}

func TestRateLimitFailsOpenOnStoreError(t *testing.T) {
	limiter := usecase.NewRateLimiter(brokenRateLimitStore{}, zaptest.NewLogger(t))
	policy := usecase.RateLimitPolicy{Name: "login", MaxRequests: 1, Window: time.Minute}
	router := newIPLimitedRouter(t, limiter, policy)

	for i := 0; i < 3; i++ {
		if rr := postLogin(router, "192.0.2.1"); rr.Code != http.StatusOK {
			t.Fatalf("request %d: expected 200 when failing open, got %d", i, rr.Code)
		}
	}
}

func TestRateLimitKeysOnPrincipalAndRoute(t *testing.T) {
	f := newAuthFixture(t)
	clock := func() time.Time { return f.now }
	store := memory.NewRateLimitRepository(time.Hour).WithClock(clock)
	limiter := usecase.NewRateLimiter(store, zaptest.NewLogger(t)).WithClock(clock)
	policy := usecase.RateLimitPolicy{Name: "sensitive", MaxRequests: 1, Window: time.Minute}

	router := gin.New()
	ok := func(c *gin.Context) { c.Status(http.StatusNoContent) }
	router.GET("/a", RequireAuth(f.gate, f.cookies), RateLimit(limiter, policy), ok)
	router.GET("/b", RequireAuth(f.gate, f.cookies), RateLimit(limiter, policy), ok)
	router.GET("/anon", RateLimit(limiter, policy), ok)

	pair := f.issue(t, "landlord-1")
	serve := func(path string) int {
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, withSession(httptest.NewRequest(http.MethodGet, path, nil), pair))
		return rr.Code
	}

	if code := serve("/a"); code != http.StatusNoContent {
		t.Fatalf("first request to /a: expected 204, got %d", code)
	}
	if code := serve("/a"); code != http.StatusTooManyRequests {
		t.Fatalf("second request to /a: expected 429, got %d", code)
	}
	if code := serve("/b"); code != http.StatusNoContent {
		t.Fatalf("expected /b to have its own budget, got %d", code)
	}

	for i := 0; i < 3; i++ {
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/anon", nil))
		if rr.Code != http.StatusNoContent {
			t.Fatalf("expected anonymous requests to bypass, got %d", rr.Code)
		}
	}
}
