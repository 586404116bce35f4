package models

// MessageType distinguishes how a message entered the room.
type MessageType string

const (
	MessageTypeText   MessageType = "text"
	MessageTypeVoice  MessageType = "voice"
	MessageTypeSystem MessageType = "system"
)

// MessageStatus is the room-wide receipt state of a message. It only moves
// forward: sent -> delivered -> read.
type MessageStatus string

const (
	MessageStatusSent      MessageStatus = "sent"
	MessageStatusDelivered MessageStatus = "delivered"
	MessageStatusRead      MessageStatus = "read"
)

// SystemUserID is the reserved author id for server-generated messages.
const SystemUserID = "system"

// SystemUsername is the display name attached to system messages.
const SystemUsername = "System"

// ChatMessage is one entry in the room's message log.
type ChatMessage struct {
	ID        string        `json:"id"`
	UserID    string        `json:"userId"`
	Username  string        `json:"username"`
	Message   string        `json:"message"`
	Timestamp int64         `json:"timestamp"`
	Type      MessageType   `json:"type"`
	Status    MessageStatus `json:"status"`
	ReadBy    []string      `json:"readBy"`
}

// HasReader reports whether the given connection already acknowledged a read.
func (m *ChatMessage) HasReader(connID string) bool {
	for _, id := range m.ReadBy {
		if id == connID {
			return true
		}
	}
	return false
}
