package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/IBM/sarama"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/vindeacy/RentSpotLimited-sub000/internal/core/domain"
	"github.com/vindeacy/RentSpotLimited-sub000/internal/core/port"
	"github.com/vindeacy/RentSpotLimited-sub000/internal/infra/config"
)

const schemaVersion = "1.0"

// EventPublisher implements port.EventPublisher using Kafka.
type EventPublisher struct {
	producer *Producer
	logger   *zap.Logger
	appCfg   config.AppSettings
}

var _ port.EventPublisher = (*EventPublisher)(nil)

// NewEventPublisher constructs a Kafka-backed event publisher.
func NewEventPublisher(producer *Producer, appCfg config.AppSettings, logger *zap.Logger) *EventPublisher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EventPublisher{producer: producer, appCfg: appCfg, logger: logger}
}

type eventEnvelope struct {
	EventID     string            `json:"event_id"`
	EventType   string            `json:"event_type"`
	PrincipalID string            `json:"principal_id,omitempty"`
	Timestamp   time.Time         `json:"timestamp"`
	Version     string            `json:"version"`
	Payload     sessionPayload    `json:"payload"`
	Metadata    map[string]string `json:"metadata,omitempty"`
}

type sessionPayload struct {
	PrincipalID string         `json:"principal_id"`
	Role        string         `json:"role,omitempty"`
	Reason      string         `json:"reason,omitempty"`
	OccurredAt  time.Time      `json:"occurred_at"`
	Metadata    map[string]any `json:"metadata,omitempty"`
}

// PublishSessionEvent writes event keyed by principal id so a principal's events stay
// ordered within a partition.
func (p *EventPublisher) PublishSessionEvent(ctx context.Context, event domain.SessionEvent) error {
	ts := event.OccurredAt
	if ts.IsZero() {
		ts = time.Now().UTC()
	}

	id := event.EventID
	if id == "" {
		id = uuid.NewString()
	}

	metadata := map[string]string{
		"service":     p.appCfg.Name,
		"environment": p.appCfg.Env,
	}
	if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
		metadata["trace_id"] = sc.TraceID().String()
	}

	envelope := eventEnvelope{
		EventID:     id,
		EventType:   event.Type,
		PrincipalID: event.PrincipalID,
		Timestamp:   ts.UTC(),
		Version:     schemaVersion,
		Payload: sessionPayload{
			PrincipalID: event.PrincipalID,
			Role:        string(event.Role),
			Reason:      event.Reason,
			OccurredAt:  ts.UTC(),
			Metadata:    event.Metadata,
		},
		Metadata: metadata,
	}

	bytes, err := json.Marshal(envelope)
	if err != nil {
		return fmt.Errorf("marshal event envelope: %w", err)
	}

	message := &sarama.ProducerMessage{
		Topic: p.producer.Topic(),
		Key:   sarama.StringEncoder(event.PrincipalID),
		Value: sarama.ByteEncoder(bytes),
		Headers: []sarama.RecordHeader{
			{Key: []byte("event_type"), Value: []byte(event.Type)},
		},
	}

	select {
	case p.producer.producer.Input() <- message:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
