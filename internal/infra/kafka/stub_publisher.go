package kafka

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/vindeacy/RentSpotLimited-sub000/internal/core/domain"
	"github.com/vindeacy/RentSpotLimited-sub000/internal/core/port"
)

// StubPublisher logs events instead of sending them to Kafka. Useful for development environments.
type StubPublisher struct {
	logger *zap.Logger
}

var _ port.EventPublisher = (*StubPublisher)(nil)

// NewStubPublisher constructs a development-friendly event publisher.
func NewStubPublisher(logger *zap.Logger) *StubPublisher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StubPublisher{logger: logger}
}

// PublishSessionEvent logs the event at debug level.
func (p *StubPublisher) PublishSessionEvent(_ context.Context, event domain.SessionEvent) error {
	at := event.OccurredAt
	if at.IsZero() {
		at = time.Now().UTC()
	}

	p.logger.Debug("stub event published",
		zap.String("event_type", event.Type),
		zap.String("principal_id", event.PrincipalID),
		zap.String("reason", event.Reason),
		zap.Time("timestamp", at.UTC()),
	)
	return nil
}
