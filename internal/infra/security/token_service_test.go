package security

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/vindeacy/RentSpotLimited-sub000/internal/core/domain"
)

const (
	testAccessSecret  = "access-secret-0123456789abcdef0123456789"
	testRefreshSecret = "refresh-secret-0123456789abcdef012345678"
	testIssuer        = "rentspot-test"
)

func newTestTokenService(t *testing.T, now *time.Time) *TokenService {
	t.Helper()

	svc, err := NewTokenService(TokenServiceConfig{
		AccessSecret:  testAccessSecret,
		RefreshSecret: testRefreshSecret,
		AccessTTL:     15 * time.Minute,
		RefreshTTL:    7 * 24 * time.Hour,
		Issuer:        testIssuer,
	})
	if err != nil {
		t.Fatalf("NewTokenService returned error: %v", err)
	}
	return svc.WithClock(func() time.Time { return *now })
}

func TestNewTokenServiceValidatesSecrets(t *testing.T) {
	cases := map[string]TokenServiceConfig{
		"short access":  {AccessSecret: "short", RefreshSecret: testRefreshSecret, Issuer: testIssuer},
		"short refresh": {AccessSecret: testAccessSecret, RefreshSecret: "short", Issuer: testIssuer},
		"same secrets":  {AccessSecret: testAccessSecret, RefreshSecret: testAccessSecret, Issuer: testIssuer},
		"no issuer":     {AccessSecret: testAccessSecret, RefreshSecret: testRefreshSecret},
	}
	for name, cfg := range cases {
		if _, err := NewTokenService(cfg); err == nil {
			t.Fatalf("%s: expected configuration error", name)
		}
	}
}

func TestTokenServiceIssueAndVerifyPair(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	svc := newTestTokenService(t, &now)

	pair, err := svc.IssuePair(domain.Principal{ID: "user-1", Role: domain.RoleLandlord})
	if err != nil {
		t.Fatalf("IssuePair returned error: %v", err)
	}
	if !pair.AccessExpiresAt.Equal(now.Add(15 * time.Minute)) {
		t.Fatalf("unexpected access expiry %v", pair.AccessExpiresAt)
	}
	if !pair.RefreshExpiresAt.Equal(now.Add(7 * 24 * time.Hour)) {
		t.Fatalf("unexpected refresh expiry %v", pair.RefreshExpiresAt)
	}

	access, err := svc.Verify(pair.AccessToken, domain.TokenKindAccess)
	if err != nil {
		t.Fatalf("Verify access returned error: %v", err)
	}
	if access.PrincipalID != "user-1" || access.Role != domain.RoleLandlord {
		t.Fatalf("unexpected access claims: %+v", access)
	}
	if !access.IssuedTime().Equal(now) {
		t.Fatalf("unexpected iat %v", access.IssuedTime())
	}

	refresh, err := svc.Verify(pair.RefreshToken, domain.TokenKindRefresh)
	if err != nil {
		t.Fatalf("Verify refresh returned error: %v", err)
	}
	if refresh.PrincipalID != "user-1" {
		t.Fatalf("unexpected refresh principal %q", refresh.PrincipalID)
	}
	if refresh.Role != "" {
		t.Fatalf("refresh token must not carry a role, got %q", refresh.Role)
	}
}

func TestTokenServiceIssuedTokensAreUnique(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	svc := newTestTokenService(t, &now)

	first, err := svc.IssueAccess("user-1", domain.RoleTenant)
	if err != nil {
		t.Fatalf("IssueAccess returned error: %v", err)
	}
	second, err := svc.IssueAccess("user-1", domain.RoleTenant)
	if err != nil {
		t.Fatalf("IssueAccess returned error: %v", err)
	}
	if first == second {
		t.Fatal("expected distinct tokens within the same second")
	}
}

func TestTokenServiceExpiryBoundary(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	svc := newTestTokenService(t, &now)

	token, err := svc.IssueAccess("user-1", domain.RoleTenant)
	if err != nil {
		t.Fatalf("IssueAccess returned error: %v", err)
	}
	expiry := now.Add(15 * time.Minute)

	now = expiry.Add(-time.Millisecond)
	if _, err := svc.Verify(token, domain.TokenKindAccess); err != nil {
		t.Fatalf("expected token valid just before expiry, got %v", err)
	}

	now = expiry
	if _, err := svc.Verify(token, domain.TokenKindAccess); !errors.Is(err, ErrTokenExpired) {
		t.Fatalf("expected ErrTokenExpired at expiry, got %v", err)
	}

	now = expiry.Add(time.Millisecond)
	if _, err := svc.Verify(token, domain.TokenKindAccess); !errors.Is(err, ErrTokenExpired) {
		t.Fatalf("expected ErrTokenExpired after expiry, got %v", err)
	}
}

func TestTokenServiceExpiryBoundaryMidSecond(t *testing.T) {
	issued := time.Date(2025, 3, 1, 12, 0, 0, 600*int(time.Millisecond), time.UTC)
	now := issued
	svc := newTestTokenService(t, &now)

	token, err := svc.IssueAccess("user-1", domain.RoleTenant)
	if err != nil {
		t.Fatalf("IssueAccess returned error: %v", err)
	}
	expiry := issued.Add(15 * time.Minute)

	for _, before := range []time.Duration{500 * time.Millisecond, time.Millisecond} {
		now = expiry.Add(-before)
		if _, err := svc.Verify(token, domain.TokenKindAccess); err != nil {
			t.Fatalf("expected token valid %v before expiry, got %v", before, err)
		}
	}

	now = expiry
	if _, err := svc.Verify(token, domain.TokenKindAccess); !errors.Is(err, ErrTokenExpired) {
		t.Fatalf("expected ErrTokenExpired at expiry, got %v", err)
	}

	pair, err := svc.IssuePair(domain.Principal{ID: "user-1", Role: domain.RoleTenant})
	if err != nil {
		t.Fatalf("IssuePair returned error: %v", err)
	}
	if !pair.AccessExpiresAt.Equal(expiry.Add(15 * time.Minute)) {
		t.Fatalf("expected access expiry %v, got %v", expiry.Add(15*time.Minute), pair.AccessExpiresAt)
	}
}

func TestTokenServiceRejectsCrossKindTokens(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	svc := newTestTokenService(t, &now)

	pair, err := svc.IssuePair(domain.Principal{ID: "user-1", Role: domain.RoleTenant})
	if err != nil {
		t.Fatalf("IssuePair returned error: %v", err)
	}

	if _, err := svc.Verify(pair.RefreshToken, domain.TokenKindAccess); !errors.Is(err, ErrTokenBadSignature) {
		t.Fatalf("expected refresh token to fail access verification with bad signature, got %v", err)
	}
	if _, err := svc.Verify(pair.AccessToken, domain.TokenKindRefresh); !errors.Is(err, ErrTokenBadSignature) {
		t.Fatalf("expected access token to fail refresh verification with bad signature, got %v", err)
	}
}

func TestTokenServiceBadSignatureWinsOverExpiry(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	svc := newTestTokenService(t, &now)

	token, err := svc.IssueAccess("user-1", domain.RoleTenant)
	if err != nil {
		t.Fatalf("IssueAccess returned error: %v", err)
	}

	parts := strings.Split(token, ".")
	tampered := parts[0] + "." + parts[1] + "." + strings.Repeat("A", len(parts[2]))

	now = now.Add(time.Hour)
	if _, err := svc.Verify(tampered, domain.TokenKindAccess); !errors.Is(err, ErrTokenBadSignature) {
		t.Fatalf("expected ErrTokenBadSignature, got %v", err)
	}
}

func TestTokenServiceMalformedInputs(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	svc := newTestTokenService(t, &now)

	for _, token := range []string{"", "   ", "not-a-jwt", "a.b.c"} {
		if _, err := svc.Verify(token, domain.TokenKindAccess); !errors.Is(err, ErrTokenMalformed) {
			t.Fatalf("expected ErrTokenMalformed for %q, got %v", token, err)
		}
	}
}

func TestTokenServiceRejectsAccessTokenWithoutRole(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	svc := newTestTokenService(t, &now)

	claims := Claims{
		PrincipalID: "user-1",
		Kind:        domain.TokenKindAccess,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    testIssuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Minute)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testAccessSecret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}

	if _, err := svc.Verify(token, domain.TokenKindAccess); !errors.Is(err, ErrTokenMalformed) {
		t.Fatalf("expected ErrTokenMalformed for missing role, got %v", err)
	}
}

func TestTokenServiceRejectsForeignIssuer(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	svc := newTestTokenService(t, &now)

	claims := Claims{
		PrincipalID: "user-1",
		Role:        domain.RoleTenant,
		Kind:        domain.TokenKindAccess,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "someone-else",
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Minute)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testAccessSecret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}

	if _, err := svc.Verify(token, domain.TokenKindAccess); !errors.Is(err, ErrTokenMalformed) {
		t.Fatalf("expected ErrTokenMalformed for foreign issuer, got %v", err)
	}
}

func TestTokenServiceRejectsUnknownRoleOnIssue(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	svc := newTestTokenService(t, &now)

	if _, err := svc.IssueAccess("user-1", domain.Role("owner")); err == nil {
		t.Fatal("expected error for unknown role")
	}
	if _, err := svc.IssueRefresh(" "); err == nil {
		t.Fatal("expected error for empty principal id")
	}
}
