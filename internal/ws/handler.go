package ws

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.opentelemetry.io/otel"

	"chat-relay/internal/models"
	"chat-relay/internal/observability"
	"chat-relay/internal/room"
)

// Handler upgrades websocket connections and pumps their events into the
// room. There is no token check at upgrade time: clients authenticate
// in-channel with a user_join event.
type Handler struct {
	hub  *Hub
	room *room.Room
}

// NewHandler constructs a websocket Handler.
func NewHandler(hub *Hub, r *room.Room) *Handler {
	return &Handler{hub: hub, room: r}
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Handle upgrades the connection, registers it with the hub and the room,
// and serves its read loop until the client goes away.
func (h *Handler) Handle(c *gin.Context) {
	ctx, span := otel.Tracer("chat-relay/ws").Start(c.Request.Context(), "ws.handshake")
	defer span.End()
	c.Request = c.Request.WithContext(ctx)

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return
	}

	info := ConnInfo{
		ConnID:      newConnID(),
		DeviceID:    observability.DeviceIDFromRequest(c.Request),
		IP:          observability.IPFromRequest(c.Request),
		RequestID:   observability.RequestIDFromRequest(c.Request),
		TraceID:     span.SpanContext().TraceID().String(),
		ConnectedAt: time.Now(),
	}
	h.hub.Add(info.ConnID, conn, info)
	h.room.Connect(info.ConnID)

	observability.IncWSActive()
	observability.IncWSEvent("ws_connect")
	headers := observability.BuildHeaders(info.RequestID, info.TraceID)
	_ = observability.PublishEvent(ctx, "ws_events.relay", observability.EventEnvelope{
		EventType: "ws_events",
		EventName: "ws_connect",
		Payload:   observability.WSEventPayload("ws_connect", info.ConnID, info.DeviceID, info.IP, 0, ""),
	}, headers)

	go h.readLoop(conn, info, headers)
}

func (h *Handler) readLoop(conn *websocket.Conn, info ConnInfo, headers map[string]string) {
	// Room operations outlive the upgrade request, so they run on their own
	// context rather than the request's.
	ctx := context.Background()

	var closeReason string
	defer func() {
		h.hub.Remove(info.ConnID)
		h.room.Disconnect(ctx, info.ConnID)
		conn.Close()
		observability.DecWSActive()
		observability.IncWSEvent("ws_disconnect")
		_ = observability.PublishEvent(ctx, "ws_events.relay", observability.EventEnvelope{
			EventType: "ws_events",
			EventName: "ws_disconnect",
			Payload: observability.WSEventPayload("ws_disconnect", info.ConnID, info.DeviceID, info.IP,
				time.Since(info.ConnectedAt).Milliseconds(), closeReason),
		}, headers)
	}()

	for {
		_, payload, err := conn.ReadMessage()
		if err != nil {
			closeReason = err.Error()
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				observability.IncWSEvent("ws_error")
				_ = observability.PublishEvent(ctx, "ws_events.relay", observability.EventEnvelope{
					EventType: "ws_events",
					EventName: "ws_error",
					Payload: observability.WSEventPayload("ws_error", info.ConnID, info.DeviceID, info.IP,
						time.Since(info.ConnectedAt).Milliseconds(), closeReason),
				}, headers)
			}
			return
		}

		var event models.ClientEvent
		if err := json.Unmarshal(payload, &event); err != nil {
			log.Printf("websocket bad frame conn=%s: %v", info.ConnID, err)
			continue
		}
		h.dispatch(ctx, info.ConnID, event)
	}
}

func (h *Handler) dispatch(ctx context.Context, connID string, event models.ClientEvent) {
	observability.IncWSEvent(countableEvent(event.Event))

	switch event.Event {
	case models.EventUserJoin:
		var req models.JoinRequest
		if !decode(event.Data, &req, connID, event.Event) {
			return
		}
		h.room.Authenticate(ctx, connID, req.Username, req.Password)
	case models.EventSendMessage:
		var req models.SendMessageRequest
		if !decode(event.Data, &req, connID, event.Event) {
			return
		}
		h.room.SendMessage(ctx, connID, req.Message, req.Type)
	case models.EventVoiceMessage:
		var req models.VoiceMessageRequest
		if !decode(event.Data, &req, connID, event.Event) {
			return
		}
		h.room.VoiceMessage(ctx, connID, req.Transcription)
	case models.EventMessageDelivered:
		var ack models.MessageAck
		if !decode(event.Data, &ack, connID, event.Event) {
			return
		}
		h.room.AcknowledgeDelivered(connID, ack.MessageID)
	case models.EventMessageRead:
		var ack models.MessageAck
		if !decode(event.Data, &ack, connID, event.Event) {
			return
		}
		h.room.AcknowledgeRead(connID, ack.MessageID)
	case models.EventTypingStart:
		h.room.TypingStart(connID)
	case models.EventTypingStop:
		h.room.TypingStop(connID)
	default:
		log.Printf("websocket unknown event conn=%s event=%q", connID, event.Event)
	}
}

// countableEvent collapses unrecognized client event names into a single
// label value. The metric label set must stay bounded no matter what a
// client sends.
func countableEvent(event string) string {
	switch event {
	case models.EventUserJoin, models.EventSendMessage, models.EventVoiceMessage,
		models.EventMessageDelivered, models.EventMessageRead,
		models.EventTypingStart, models.EventTypingStop:
		return event
	}
	return "unknown"
}

func decode(data json.RawMessage, dest any, connID, event string) bool {
	if len(data) == 0 {
		return true
	}
	if err := json.Unmarshal(data, dest); err != nil {
		log.Printf("websocket bad %s payload conn=%s: %v", event, connID, err)
		return false
	}
	return true
}
