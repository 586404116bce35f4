package store

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"chat-relay/internal/models"
)

func TestMemorySessionRoundTrip(t *testing.T) {
	s := NewMemory()
	ctx := context.Background()

	_, ok, err := s.GetSession(ctx, "c1")
	require.NoError(t, err)
	require.False(t, ok)

	user := models.User{ID: "c1", Username: "alice", Status: models.UserStatusOnline}
	require.NoError(t, s.SetSession(ctx, "c1", user))

	got, ok, err := s.GetSession(ctx, "c1")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, user, got)
}

func TestMemoryHistoryCapEviction(t *testing.T) {
	s := NewMemory()
	ctx := context.Background()

	for i := 0; i < HistoryCap+1; i++ {
		msg := models.ChatMessage{ID: fmt.Sprintf("m%d", i), Message: fmt.Sprintf("msg %d", i)}
		require.NoError(t, s.AppendMessage(ctx, "main", msg))
	}

	msgs, err := s.ListMessages(ctx, "main", 0)
	require.NoError(t, err)
	require.Len(t, msgs, HistoryCap)

	// The oldest entry was evicted first.
	require.Equal(t, "m1", msgs[0].ID)
	require.Equal(t, fmt.Sprintf("m%d", HistoryCap), msgs[len(msgs)-1].ID)
}

func TestMemoryListMessagesLimit(t *testing.T) {
	s := NewMemory()
	ctx := context.Background()

	for i := 0; i < 10; i++ {
		require.NoError(t, s.AppendMessage(ctx, "main", models.ChatMessage{ID: fmt.Sprintf("m%d", i)}))
	}

	msgs, err := s.ListMessages(ctx, "main", 3)
	require.NoError(t, err)
	require.Len(t, msgs, 3)
	require.Equal(t, "m7", msgs[0].ID)
	require.Equal(t, "m9", msgs[2].ID)

	// Rooms are isolated.
	other, err := s.ListMessages(ctx, "other", 10)
	require.NoError(t, err)
	require.Empty(t, other)
}

func TestMemoryPresence(t *testing.T) {
	s := NewMemory()
	ctx := context.Background()

	require.NoError(t, s.SetOnlinePresence(ctx, "c1", models.User{ID: "c1", Username: "alice"}))
	require.NoError(t, s.SetOnlinePresence(ctx, "c2", models.User{ID: "c2", Username: "bob"}))

	users, err := s.ListPresence(ctx)
	require.NoError(t, err)
	require.Len(t, users, 2)

	require.NoError(t, s.RemovePresence(ctx, "c1"))
	users, err = s.ListPresence(ctx)
	require.NoError(t, err)
	require.Len(t, users, 1)
	require.Equal(t, "bob", users[0].Username)

	// Removing an absent entry is a no-op.
	require.NoError(t, s.RemovePresence(ctx, "c1"))
}

func TestMemoryBackend(t *testing.T) {
	s := NewMemory()
	require.Equal(t, "memory", s.Backend())
	require.NoError(t, s.Close())
}
