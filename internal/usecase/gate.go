package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/vindeacy/RentSpotLimited-sub000/internal/core/domain"
	"github.com/vindeacy/RentSpotLimited-sub000/internal/core/port"
	appLogger "github.com/vindeacy/RentSpotLimited-sub000/internal/infra/logger"
	"github.com/vindeacy/RentSpotLimited-sub000/internal/infra/security"
	"github.com/vindeacy/RentSpotLimited-sub000/internal/repository"
)

const tracerName = "github.com/vindeacy/RentSpotLimited-sub000/internal/usecase"

// Gate modes reported to AuthMetrics.
const (
	GateModeRequired = "required"
	GateModeOptional = "optional"
)

// OutcomeAuthenticated is the metrics code for a successful pass through the gate.
const OutcomeAuthenticated = "Authenticated"

// Credentials are the raw tokens presented by a request.
type Credentials struct {
	AccessToken  string
	RefreshToken string
}

// SessionWriter persists or clears the session on the response.
type SessionWriter interface {
	SetSession(tokens domain.TokenPair)
	ClearSession()
}

// AuthGate runs the per-request authentication state machine: extract, revocation
// check, verify, silent refresh on expiry, principal resolution.
type AuthGate struct {
	tokens      *security.TokenService
	revocations port.RevocationStore
	principals  port.PrincipalRepository
	refresher   *Refresher
	metrics     port.AuthMetrics
	logger      *zap.Logger
	tracer      trace.Tracer
}

// NewAuthGate constructs an AuthGate.
func NewAuthGate(
	tokens *security.TokenService,
	revocations port.RevocationStore,
	principals port.PrincipalRepository,
	refresher *Refresher,
	logger *zap.Logger,
) *AuthGate {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthGate{
		tokens:      tokens,
		revocations: revocations,
		principals:  principals,
		refresher:   refresher,
		metrics:     port.NopAuthMetrics{},
		logger:      logger,
		tracer:      otel.Tracer(tracerName),
	}
}

// WithMetrics attaches a metrics sink.
func (g *AuthGate) WithMetrics(metrics port.AuthMetrics) *AuthGate {
	if metrics != nil {
		g.metrics = metrics
	}
	return g
}

// Authenticate requires a valid session. Session-invalidating rejections clear the
// cookies through session; internal errors leave them untouched.
func (g *AuthGate) Authenticate(ctx context.Context, creds Credentials, session SessionWriter) Outcome {
	return g.run(ctx, creds, session, GateModeRequired)
}

// AuthenticateOptional never rejects: any failure yields Anonymous and writes no cookies.
// A successful silent refresh still writes the rotated pair.
func (g *AuthGate) AuthenticateOptional(ctx context.Context, creds Credentials, session SessionWriter) Outcome {
	return g.run(ctx, creds, session, GateModeOptional)
}

// Stage adapts Authenticate for Run. The incoming AuthContext is ignored.
func (g *AuthGate) Stage(creds Credentials, session SessionWriter) Stage {
	return func(ctx context.Context, _ domain.AuthContext) Outcome {
		return g.Authenticate(ctx, creds, session)
	}
}

// OptionalStage adapts AuthenticateOptional for Run.
func (g *AuthGate) OptionalStage(creds Credentials, session SessionWriter) Stage {
	return func(ctx context.Context, _ domain.AuthContext) Outcome {
		return g.AuthenticateOptional(ctx, creds, session)
	}
}

func (g *AuthGate) run(ctx context.Context, creds Credentials, session SessionWriter, mode string) Outcome {
	ctx, span := g.tracer.Start(ctx, "auth.gate", trace.WithAttributes(attribute.String("auth.mode", mode)))
	defer span.End()

	auth, err := g.authenticate(ctx, creds, session)
	if err == nil {
		g.metrics.ObserveAuthOutcome(mode, OutcomeAuthenticated)
		if p, ok := auth.Principal(); ok {
			span.SetAttributes(attribute.String("auth.principal_id", p.ID), attribute.String("auth.role", string(p.Role)))
		}
		return Continue(auth)
	}

	rejection := RejectionFor(err)
	g.metrics.ObserveAuthOutcome(mode, string(rejection.Code))
	span.SetAttributes(attribute.String("auth.rejection", string(rejection.Code)))

	if rejection.Code == CodeInternalError {
		span.RecordError(err)
		span.SetStatus(codes.Error, "authentication failed")
		appLogger.WithContext(ctx, g.logger).Error("authentication failed", zap.String("mode", mode), zap.Error(err))
	} else {
		appLogger.WithContext(ctx, g.logger).Debug("authentication rejected",
			zap.String("mode", mode),
			zap.String("code", string(rejection.Code)),
			zap.Error(err),
		)
	}

	if mode == GateModeOptional {
		return Continue(domain.Anonymous())
	}

	if rejection.ClearSession && session != nil {
		session.ClearSession()
	}
	return Respond(rejection)
}

func (g *AuthGate) authenticate(ctx context.Context, creds Credentials, session SessionWriter) (domain.AuthContext, error) {
	token := strings.TrimSpace(creds.AccessToken)
	if token == "" {
		return domain.Anonymous(), ErrMissingToken
	}

	revoked, err := g.revocations.IsRevoked(ctx, token)
	if err != nil {
		return domain.Anonymous(), fmt.Errorf("check revocation: %w", err)
	}
	if revoked {
		return domain.Anonymous(), ErrRevokedToken
	}

	claims, err := g.tokens.Verify(token, domain.TokenKindAccess)
	switch {
	case err == nil:
		principal, err := g.resolve(ctx, claims.PrincipalID)
		if err != nil {
			return domain.Anonymous(), err
		}
		return domain.Authenticated(*principal, token), nil

	case errors.Is(err, security.ErrTokenExpired):
		result, err := g.refresher.Refresh(ctx, creds.RefreshToken)
		if err != nil {
			return domain.Anonymous(), err
		}
		if session != nil {
			session.SetSession(result.Tokens)
		}
		return domain.Authenticated(result.Principal, result.Tokens.AccessToken), nil

	default:
		return domain.Anonymous(), fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
}

func (g *AuthGate) resolve(ctx context.Context, principalID string) (*domain.Principal, error) {
	principal, err := g.principals.GetByID(ctx, principalID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("lookup principal: %w", err)
	}
	if !principal.IsActive {
		return nil, ErrUserInactive
	}
	return principal, nil
}
