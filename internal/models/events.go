package models

import "encoding/json"

// Inbound event names (client -> server).
const (
	EventUserJoin         = "user_join"
	EventSendMessage      = "send_message"
	EventVoiceMessage     = "voice_message"
	EventMessageDelivered = "message_delivered"
	EventMessageRead      = "message_read"
	EventTypingStart      = "typing_start"
	EventTypingStop       = "typing_stop"
)

// Outbound event names (server -> client).
const (
	EventAuthSuccess         = "auth_success"
	EventAuthError           = "auth_error"
	EventMessageHistory      = "message_history"
	EventOnlineUsers         = "online_users"
	EventNewMessage          = "new_message"
	EventMessageStatusUpdate = "message_status_update"
	EventUserTyping          = "user_typing"
)

// ClientEvent is the inbound wire envelope. Data is decoded per event name.
type ClientEvent struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// ServerEvent is the outbound wire envelope.
type ServerEvent struct {
	Event string `json:"event"`
	Data  any    `json:"data"`
}

// JoinRequest is the payload of a user_join event.
type JoinRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// SendMessageRequest is the payload of a send_message event.
type SendMessageRequest struct {
	Message string `json:"message"`
	Type    string `json:"type"`
}

// VoiceMessageRequest is the payload of a voice_message event.
type VoiceMessageRequest struct {
	Transcription string `json:"transcription"`
}

// MessageAck acknowledges delivery or read of a single message.
type MessageAck struct {
	MessageID string `json:"messageId"`
}

// AuthSuccess carries the requester's own presence entry.
type AuthSuccess struct {
	User User `json:"user"`
}

// AuthError is surfaced to the offending connection only.
type AuthError struct {
	Message string `json:"message"`
}

// StatusUpdate broadcasts a receipt-state transition.
type StatusUpdate struct {
	MessageID string        `json:"messageId"`
	Status    MessageStatus `json:"status"`
}

// TypingNotice broadcasts typing state to everyone except its origin.
type TypingNotice struct {
	Username string `json:"username"`
	Typing   bool   `json:"typing"`
}
