package room

import "chat-relay/internal/models"

// messageLog is the live, append-only message sequence for one room. It is
// unbounded for the process lifetime and authoritative for lookups and
// history replay; the durable store keeps its own bounded copy. Not safe for
// concurrent use on its own: the owning Room's mutex guards every call.
type messageLog struct {
	entries []*models.ChatMessage
	byID    map[string]*models.ChatMessage
}

func newMessageLog() *messageLog {
	return &messageLog{byID: make(map[string]*models.ChatMessage)}
}

func (l *messageLog) append(msg *models.ChatMessage) {
	l.entries = append(l.entries, msg)
	l.byID[msg.ID] = msg
}

func (l *messageLog) find(id string) (*models.ChatMessage, bool) {
	msg, ok := l.byID[id]
	return msg, ok
}

// snapshot returns the full log in append order as value copies, so callers
// never observe later receipt-state mutations through the slice.
func (l *messageLog) snapshot() []models.ChatMessage {
	out := make([]models.ChatMessage, 0, len(l.entries))
	for _, msg := range l.entries {
		copied := *msg
		copied.ReadBy = append([]string{}, msg.ReadBy...)
		out = append(out, copied)
	}
	return out
}

func (l *messageLog) len() int { return len(l.entries) }
