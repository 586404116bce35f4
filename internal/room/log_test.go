package room

import (
	"fmt"
	"testing"

	"chat-relay/internal/models"
)

func TestMessageLogAppendAndFind(t *testing.T) {
	l := newMessageLog()

	for i := 0; i < 5; i++ {
		l.append(&models.ChatMessage{ID: fmt.Sprintf("m%d", i), Message: fmt.Sprintf("msg %d", i)})
	}

	if l.len() != 5 {
		t.Fatalf("expected 5 entries, got %d", l.len())
	}

	msg, ok := l.find("m3")
	if !ok {
		t.Fatal("m3 not found")
	}
	if msg.Message != "msg 3" {
		t.Errorf("expected 'msg 3', got %q", msg.Message)
	}

	if _, ok := l.find("missing"); ok {
		t.Error("found a message that was never appended")
	}
}

func TestMessageLogSnapshotOrder(t *testing.T) {
	l := newMessageLog()
	for i := 0; i < 4; i++ {
		l.append(&models.ChatMessage{ID: fmt.Sprintf("m%d", i), Message: fmt.Sprintf("msg %d", i)})
	}

	snap := l.snapshot()
	if len(snap) != 4 {
		t.Fatalf("expected 4 entries, got %d", len(snap))
	}
	for i, msg := range snap {
		expected := fmt.Sprintf("msg %d", i)
		if msg.Message != expected {
			t.Errorf("index %d: expected %q, got %q", i, expected, msg.Message)
		}
	}
}

func TestMessageLogSnapshotIsACopy(t *testing.T) {
	l := newMessageLog()
	l.append(&models.ChatMessage{ID: "m0", Status: models.MessageStatusSent, ReadBy: []string{}})

	snap := l.snapshot()

	// Mutations after the snapshot must not show through it.
	msg, _ := l.find("m0")
	msg.Status = models.MessageStatusRead
	msg.ReadBy = append(msg.ReadBy, "c1")

	if snap[0].Status != models.MessageStatusSent {
		t.Errorf("snapshot status mutated: %s", snap[0].Status)
	}
	if len(snap[0].ReadBy) != 0 {
		t.Errorf("snapshot readBy mutated: %v", snap[0].ReadBy)
	}
}

func TestMessageLogEmptySnapshot(t *testing.T) {
	l := newMessageLog()
	snap := l.snapshot()
	if snap == nil {
		t.Fatal("snapshot of empty log should be an empty slice, not nil")
	}
	if len(snap) != 0 {
		t.Fatalf("expected empty snapshot, got %d entries", len(snap))
	}
}
