package security

import (
	"crypto/subtle"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	uuid "github.com/google/uuid"

	"github.com/vindeacy/RentSpotLimited-sub000/internal/core/domain"
)

var (
	// ErrTokenExpired indicates the token is well formed and correctly signed but past its expiry.
	ErrTokenExpired = errors.New("token: expired")
	// ErrTokenMalformed indicates the token could not be parsed or carries unusable claims.
	ErrTokenMalformed = errors.New("token: malformed")
	// ErrTokenBadSignature indicates the signature does not match the expected secret.
	ErrTokenBadSignature = errors.New("token: bad signature")
)

const (
	defaultAccessTokenTTL  = 15 * time.Minute
	defaultRefreshTokenTTL = 7 * 24 * time.Hour
	minSecretLength        = 32
)

// iat and exp carry milliseconds so a token never expires before its full lifetime.
func init() {
	jwt.TimePrecision = time.Millisecond
}

// TokenServiceConfig configures secrets and lifetimes for both token classes.
type TokenServiceConfig struct {
	AccessSecret  string
	RefreshSecret string
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
	Issuer        string
}

// Claims is the payload of both token classes. Role is empty on refresh tokens.
type Claims struct {
	PrincipalID string           `json:"pid"`
	Role        domain.Role      `json:"role,omitempty"`
	Kind        domain.TokenKind `json:"typ"`
	jwt.RegisteredClaims
}

// IssuedTime returns the iat claim, or the zero time when absent.
func (c *Claims) IssuedTime() time.Time {
	if c == nil || c.IssuedAt == nil {
		return time.Time{}
	}
	return c.IssuedAt.Time
}

// ExpiryTime returns the exp claim, or the zero time when absent.
func (c *Claims) ExpiryTime() time.Time {
	if c == nil || c.ExpiresAt == nil {
		return time.Time{}
	}
	return c.ExpiresAt.Time
}

// TokenService signs and verifies access and refresh tokens with disjoint HMAC secrets.
type TokenService struct {
	accessKey  []byte
	refreshKey []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	issuer     string
	now        func() time.Time
}

// NewTokenService validates the configuration and builds a TokenService.
func NewTokenService(cfg TokenServiceConfig) (*TokenService, error) {
	access := strings.TrimSpace(cfg.AccessSecret)
	refresh := strings.TrimSpace(cfg.RefreshSecret)
	if len(access) < minSecretLength {
		return nil, fmt.Errorf("jwt: access secret must be at least %d bytes", minSecretLength)
	}
	if len(refresh) < minSecretLength {
		return nil, fmt.Errorf("jwt: refresh secret must be at least %d bytes", minSecretLength)
	}
	if subtle.ConstantTimeCompare([]byte(access), []byte(refresh)) == 1 {
		return nil, errors.New("jwt: access and refresh secrets must differ")
	}

	issuer := strings.TrimSpace(cfg.Issuer)
	if issuer == "" {
		return nil, errors.New("jwt: issuer is required")
	}

	accessTTL := cfg.AccessTTL
	if accessTTL <= 0 {
		accessTTL = defaultAccessTokenTTL
	}
	refreshTTL := cfg.RefreshTTL
	if refreshTTL <= 0 {
		refreshTTL = defaultRefreshTokenTTL
	}

	return &TokenService{
		accessKey:  []byte(access),
		refreshKey: []byte(refresh),
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		issuer:     issuer,
		now:        func() time.Time { return time.Now().UTC() },
	}, nil
}

// WithClock overrides the clock used for issuance and verification.
func (s *TokenService) WithClock(now func() time.Time) *TokenService {
	if now != nil {
		s.now = now
	}
	return s
}

// AccessTTL returns the access-token lifetime.
func (s *TokenService) AccessTTL() time.Duration { return s.accessTTL }

// RefreshTTL returns the refresh-token lifetime.
func (s *TokenService) RefreshTTL() time.Duration { return s.refreshTTL }

// IssueAccess signs a short-lived access token for the principal.
func (s *TokenService) IssueAccess(principalID string, role domain.Role) (string, error) {
	if !role.Valid() {
		return "", fmt.Errorf("jwt: unknown role %q", role)
	}
	token, _, err := s.issue(principalID, role, domain.TokenKindAccess)
	return token, err
}

// IssueRefresh signs a long-lived refresh token for the principal.
func (s *TokenService) IssueRefresh(principalID string) (string, error) {
	token, _, err := s.issue(principalID, "", domain.TokenKindRefresh)
	return token, err
}

// IssuePair issues a fresh access and refresh token for the principal.
func (s *TokenService) IssuePair(principal domain.Principal) (domain.TokenPair, error) {
	if !principal.Role.Valid() {
		return domain.TokenPair{}, fmt.Errorf("jwt: unknown role %q", principal.Role)
	}

	access, accessExp, err := s.issue(principal.ID, principal.Role, domain.TokenKindAccess)
	if err != nil {
		return domain.TokenPair{}, err
	}
	refresh, refreshExp, err := s.issue(principal.ID, "", domain.TokenKindRefresh)
	if err != nil {
		return domain.TokenPair{}, err
	}

	return domain.TokenPair{
		AccessToken:      access,
		RefreshToken:     refresh,
		AccessExpiresAt:  accessExp,
		RefreshExpiresAt: refreshExp,
	}, nil
}

// Verify parses token as the given kind and returns its claims. Failures are reported as
// ErrTokenExpired, ErrTokenBadSignature or ErrTokenMalformed.
func (s *TokenService) Verify(token string, kind domain.TokenKind) (*Claims, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, fmt.Errorf("%w: empty token", ErrTokenMalformed)
	}

	key, _, err := s.keyFor(kind)
	if err != nil {
		return nil, err
	}

	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return key, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(s.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return nil, classifyParseError(err)
	}
	if parsed == nil || !parsed.Valid {
		return nil, fmt.Errorf("%w: token not valid", ErrTokenMalformed)
	}

	if claims.Kind != kind {
		return nil, fmt.Errorf("%w: expected %s token, got %q", ErrTokenMalformed, kind, claims.Kind)
	}
	if strings.TrimSpace(claims.PrincipalID) == "" {
		return nil, fmt.Errorf("%w: principal id missing", ErrTokenMalformed)
	}
	if kind == domain.TokenKindAccess && !claims.Role.Valid() {
		return nil, fmt.Errorf("%w: unknown role %q", ErrTokenMalformed, claims.Role)
	}

	return claims, nil
}

func (s *TokenService) issue(principalID string, role domain.Role, kind domain.TokenKind) (string, time.Time, error) {
	principalID = strings.TrimSpace(principalID)
	if principalID == "" {
		return "", time.Time{}, errors.New("jwt: principal id is required")
	}

	key, ttl, err := s.keyFor(kind)
	if err != nil {
		return "", time.Time{}, err
	}

	now := s.now().UTC()
	issuedAt := jwt.NewNumericDate(now)
	expiresAt := jwt.NewNumericDate(now.Add(ttl))

	claims := Claims{
		PrincipalID: principalID,
		Role:        role,
		Kind:        kind,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.issuer,
			Subject:   principalID,
			IssuedAt:  issuedAt,
			ExpiresAt: expiresAt,
			ID:        uuid.NewString(),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(key)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("jwt: sign %s token: %w", kind, err)
	}

	return signed, expiresAt.Time, nil
}

func (s *TokenService) keyFor(kind domain.TokenKind) ([]byte, time.Duration, error) {
	switch kind {
	case domain.TokenKindAccess:
		return s.accessKey, s.accessTTL, nil
	case domain.TokenKindRefresh:
		return s.refreshKey, s.refreshTTL, nil
	default:
		return nil, 0, fmt.Errorf("%w: unknown token kind %q", ErrTokenMalformed, kind)
	}
}

// classifyParseError maps jwt parser errors onto the three verification failures.
// The signature is checked before claims, so an expired token with a bad signature
// reports ErrTokenBadSignature.
func classifyParseError(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return fmt.Errorf("%w: %v", ErrTokenBadSignature, err)
	case errors.Is(err, jwt.ErrTokenExpired):
		return fmt.Errorf("%w: %v", ErrTokenExpired, err)
	default:
		return fmt.Errorf("%w: %v", ErrTokenMalformed, err)
	}
}
