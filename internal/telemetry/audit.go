package telemetry

import (
	"context"
	"log"
	"time"

	"chat-relay/internal/rabbitmq"
)

// AuditEmitter publishes audit log events for security-relevant moments
// (auth failures, server errors). Best effort: a nil emitter or publisher is
// a no-op.
type AuditEmitter struct {
	publisher   rabbitmq.Publisher
	routingKey  string
	service     string
	environment string
}

// AuditEnvelope is the audit event wire shape.
type AuditEnvelope struct {
	SchemaVersion int          `json:"schema_version"`
	EventType     string       `json:"event_type"`
	OccurredAt    string       `json:"occurred_at"`
	Service       string       `json:"service"`
	Environment   string       `json:"environment"`
	RequestID     string       `json:"request_id"`
	Username      *string      `json:"username,omitempty"`
	Payload       AuditPayload `json:"payload"`
}

// AuditPayload is the free-form body of an audit event.
type AuditPayload struct {
	Level string `json:"level"`
	Text  string `json:"text"`
}

// NewAuditEmitter builds an emitter bound to a service identity.
func NewAuditEmitter(publisher rabbitmq.Publisher, routingKey, service, environment string) *AuditEmitter {
	return &AuditEmitter{
		publisher:   publisher,
		routingKey:  routingKey,
		service:     service,
		environment: environment,
	}
}

// Emit publishes one audit event.
func (e *AuditEmitter) Emit(ctx context.Context, level, text, requestID string, username *string) {
	if e == nil || e.publisher == nil {
		return
	}

	log.Printf("audit emit: level=%s request_id=%s username=%v text=%q", level, requestID, username, text)
	envelope := AuditEnvelope{
		SchemaVersion: 1,
		EventType:     "audit_log",
		OccurredAt:    time.Now().UTC().Format(time.RFC3339Nano),
		Service:       e.service,
		Environment:   e.environment,
		RequestID:     requestID,
		Username:      username,
		Payload: AuditPayload{
			Level: level,
			Text:  text,
		},
	}

	if err := e.publisher.Publish(ctx, e.routingKey, envelope, nil); err != nil {
		log.Printf("audit publish failed: %v", err)
	}
}
