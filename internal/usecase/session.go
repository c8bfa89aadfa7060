package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/vindeacy/RentSpotLimited-sub000/internal/core/domain"
	"github.com/vindeacy/RentSpotLimited-sub000/internal/core/port"
	"github.com/vindeacy/RentSpotLimited-sub000/internal/infra/logger"
	"github.com/vindeacy/RentSpotLimited-sub000/internal/infra/security"
	"github.com/vindeacy/RentSpotLimited-sub000/internal/repository"
)

// SessionService drives the login, refresh and logout endpoints.
type SessionService struct {
	principals  port.PrincipalRepository
	tokens      *security.TokenService
	revocations port.RevocationStore
	refresher   *Refresher
	events      port.EventPublisher
	logger      *zap.Logger
	now         func() time.Time
}

// NewSessionService constructs a SessionService. events may be nil.
func NewSessionService(
	principals port.PrincipalRepository,
	tokens *security.TokenService,
	revocations port.RevocationStore,
	refresher *Refresher,
	events port.EventPublisher,
	log *zap.Logger,
) *SessionService {
	if log == nil {
		log = zap.NewNop()
	}
	return &SessionService{
		principals:  principals,
		tokens:      tokens,
		revocations: revocations,
		refresher:   refresher,
		events:      events,
		logger:      log,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// WithClock overrides the internal clock for deterministic tests.
func (s *SessionService) WithClock(clock func() time.Time) {
	if clock != nil {
		s.now = clock
	}
}

// Login checks the password and issues a token pair. Unknown emails and wrong passwords
// are indistinguishable; inactivity is only reported once the password matched.
func (s *SessionService) Login(ctx context.Context, email, password string) (domain.Principal, domain.TokenPair, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return domain.Principal{}, domain.TokenPair{}, ErrInvalidCredentials
	}

	creds, err := s.principals.GetCredentials(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return domain.Principal{}, domain.TokenPair{}, ErrInvalidCredentials
		}
		return domain.Principal{}, domain.TokenPair{}, fmt.Errorf("lookup credentials: %w", err)
	}

	ok, err := security.VerifyPassword(password, creds.PasswordHash)
	if err != nil {
		return domain.Principal{}, domain.TokenPair{}, fmt.Errorf("verify password: %w", err)
	}
	if !ok {
		return domain.Principal{}, domain.TokenPair{}, ErrInvalidCredentials
	}

	principal := creds.Principal
	if !principal.IsActive {
		return domain.Principal{}, domain.TokenPair{}, ErrUserInactive
	}

	pair, err := s.tokens.IssuePair(principal)
	if err != nil {
		return domain.Principal{}, domain.TokenPair{}, fmt.Errorf("issue token pair: %w", err)
	}

	s.logger.Info("session started",
		zap.String("principal_id", principal.ID),
		zap.String("email", logger.MaskEmail(principal.Email)),
		zap.String("role", string(principal.Role)),
	)
	s.publish(ctx, domain.EventSessionStarted, principal, "login", nil)

	return principal, pair, nil
}

// Refresh rotates the session behind refreshToken, sharing in-flight rotations with
// the authentication gate.
func (s *SessionService) Refresh(ctx context.Context, refreshToken string) (domain.Principal, domain.TokenPair, error) {
	result, err := s.refresher.Refresh(ctx, refreshToken)
	if err != nil {
		return domain.Principal{}, domain.TokenPair{}, err
	}

	s.publish(ctx, domain.EventSessionRefreshed, result.Principal, "refresh", map[string]any{
		"access_expires_at": result.Tokens.AccessExpiresAt,
	})

	return result.Principal, result.Tokens, nil
}

// Logout revokes the access token the request was authenticated with. Anonymous
// contexts are a no-op.
func (s *SessionService) Logout(ctx context.Context, auth domain.AuthContext) error {
	principal, ok := auth.Principal()
	if !ok || strings.TrimSpace(auth.RawToken()) == "" {
		return nil
	}

	if err := s.revocations.Revoke(ctx, auth.RawToken()); err != nil {
		return fmt.Errorf("revoke access token: %w", err)
	}

	s.logger.Info("session revoked", zap.String("principal_id", principal.ID))
	s.publish(ctx, domain.EventSessionRevoked, principal, "logout", map[string]any{
		domain.MetadataTokenDigest: security.HashToken(auth.RawToken()),
	})
	return nil
}

// publish is best effort: a failed audit event never fails the request.
func (s *SessionService) publish(ctx context.Context, eventType string, principal domain.Principal, reason string, metadata map[string]any) {
	if s.events == nil {
		return
	}

	event := domain.SessionEvent{
		EventID:     uuid.NewString(),
		Type:        eventType,
		PrincipalID: principal.ID,
		Role:        principal.Role,
		OccurredAt:  s.now(),
		Reason:      reason,
		Metadata:    metadata,
	}

	if err := s.events.PublishSessionEvent(ctx, event); err != nil {
		s.logger.Warn("failed to publish session event",
			zap.String("type", eventType),
			zap.String("principal_id", principal.ID),
			zap.Error(err),
		)
	}
}
