package observability

import (
	"context"

	"chat-relay/internal/rabbitmq"
)

// EventEnvelope is the wire shape of every event published to the bus.
type EventEnvelope struct {
	EventType string `json:"event_type"`
	EventName string `json:"event_name"`
	Payload   any    `json:"payload"`
}

// BuildHeaders assembles the AMQP headers carrying request correlation ids.
func BuildHeaders(requestID, traceID string) map[string]string {
	headers := map[string]string{}
	if requestID != "" {
		headers["x-request-id"] = requestID
	}
	if traceID != "" {
		headers["trace_id"] = traceID
	}
	return headers
}

// WSEventPayload builds the payload for a websocket lifecycle event.
func WSEventPayload(event, connID, deviceID, ip string, durationMs int64, reason string) map[string]any {
	return map[string]any{
		"ws": map[string]any{
			"event":       event,
			"conn_id":     connID,
			"duration_ms": durationMs,
			"reason":      reason,
		},
		"identity": map[string]any{
			"device_id": deviceID,
			"ip":        ip,
		},
	}
}

var defaultPublisher rabbitmq.Publisher

// SetPublisher installs the process-wide event publisher.
func SetPublisher(publisher rabbitmq.Publisher) {
	defaultPublisher = publisher
}

// PublishEvent sends an envelope to the bus. Publishing is best effort: a
// missing publisher is a no-op and failures are only counted.
func PublishEvent(ctx context.Context, routingKey string, envelope EventEnvelope, headers map[string]string) error {
	if defaultPublisher == nil {
		return nil
	}

	err := defaultPublisher.Publish(ctx, routingKey, envelope, headers)
	if err != nil {
		IncAMQPPublishError()
	}
	return err
}
