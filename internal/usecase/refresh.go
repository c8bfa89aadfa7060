package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/sync/singleflight"

	"github.com/vindeacy/RentSpotLimited-sub000/internal/core/domain"
	"github.com/vindeacy/RentSpotLimited-sub000/internal/core/port"
	"github.com/vindeacy/RentSpotLimited-sub000/internal/infra/security"
	"github.com/vindeacy/RentSpotLimited-sub000/internal/repository"
)

// Refresh outcomes reported to AuthMetrics.ObserveRefresh.
const (
	RefreshResultRotated   = "rotated"
	RefreshResultCoalesced = "coalesced"
	RefreshResultFailed    = "failed"
)

// RefreshResult is a rotated token pair plus the principal it was issued to.
type RefreshResult struct {
	Principal domain.Principal
	Tokens    domain.TokenPair
}

// Refresher exchanges a refresh token for a new token pair. Concurrent calls presenting the
// same refresh token share a single rotation, so sibling requests from one browser all
// receive the same pair instead of superseding each other.
type Refresher struct {
	tokens     *security.TokenService
	principals port.PrincipalRepository
	metrics    port.AuthMetrics
	group      singleflight.Group
}

// NewRefresher constructs a Refresher.
func NewRefresher(tokens *security.TokenService, principals port.PrincipalRepository) *Refresher {
	return &Refresher{
		tokens:     tokens,
		principals: principals,
		metrics:    port.NopAuthMetrics{},
	}
}

// WithMetrics attaches a metrics sink.
func (r *Refresher) WithMetrics(metrics port.AuthMetrics) *Refresher {
	if metrics != nil {
		r.metrics = metrics
	}
	return r
}

// Refresh verifies refreshToken, re-resolves its principal and issues a new pair.
// Missing token → ErrSessionExpired; invalid or expired token → ErrRefreshInvalid;
// unknown or inactive principal → ErrUserNotFound.
func (r *Refresher) Refresh(ctx context.Context, refreshToken string) (RefreshResult, error) {
	refreshToken = strings.TrimSpace(refreshToken)
	if refreshToken == "" {
		return RefreshResult{}, ErrSessionExpired
	}

	// The flight outlives any one caller; a disconnected leader must not fail its waiters.
	flightCtx := context.WithoutCancel(ctx)
	value, err, shared := r.group.Do(security.HashToken(refreshToken), func() (any, error) {
		return r.rotate(flightCtx, refreshToken)
	})
	if err != nil {
		r.metrics.ObserveRefresh(RefreshResultFailed)
		return RefreshResult{}, err
	}

	if shared {
		r.metrics.ObserveRefresh(RefreshResultCoalesced)
	} else {
		r.metrics.ObserveRefresh(RefreshResultRotated)
	}

	return value.(RefreshResult), nil
}

func (r *Refresher) rotate(ctx context.Context, refreshToken string) (RefreshResult, error) {
	claims, err := r.tokens.Verify(refreshToken, domain.TokenKindRefresh)
	if err != nil {
		return RefreshResult{}, fmt.Errorf("%w: %v", ErrRefreshInvalid, err)
	}

	principal, err := r.principals.GetByID(ctx, claims.PrincipalID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return RefreshResult{}, ErrUserNotFound
		}
		return RefreshResult{}, fmt.Errorf("lookup principal: %w", err)
	}
	if !principal.IsActive {
		return RefreshResult{}, fmt.Errorf("%w: principal inactive", ErrUserNotFound)
	}

	pair, err := r.tokens.IssuePair(*principal)
	if err != nil {
		return RefreshResult{}, fmt.Errorf("issue token pair: %w", err)
	}

	return RefreshResult{Principal: *principal, Tokens: pair}, nil
}
