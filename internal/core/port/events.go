package port

import (
	"context"

	"github.com/vindeacy/RentSpotLimited-sub000/internal/core/domain"
)

// EventPublisher publishes session audit events to the message bus.
type EventPublisher interface {
	PublishSessionEvent(ctx context.Context, event domain.SessionEvent) error
}
