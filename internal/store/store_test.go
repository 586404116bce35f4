package store

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"chat-relay/internal/models"
)

func TestConnectWithoutAddressUsesMemory(t *testing.T) {
	s := Connect(context.Background(), "")
	require.Equal(t, "memory", s.Backend())
}

func TestConnectFallsBackWhenRedisUnreachable(t *testing.T) {
	// Port 1 is never a redis server; the startup ping fails and the process
	// runs on the in-memory tier.
	s := Connect(context.Background(), "127.0.0.1:1")
	require.Equal(t, "memory", s.Backend())
}

// The fallback must behave identically to the durable tier through the public
// contract: same shapes, same retention bound.
func TestFallbackTransparency(t *testing.T) {
	s := Connect(context.Background(), "127.0.0.1:1")
	ctx := context.Background()

	user := models.User{ID: "c1", Username: "alice", Status: models.UserStatusOnline}
	require.NoError(t, s.SetSession(ctx, "c1", user))
	got, ok, err := s.GetSession(ctx, "c1")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, user, got)

	for i := 0; i < HistoryCap+5; i++ {
		require.NoError(t, s.AppendMessage(ctx, "main", models.ChatMessage{ID: fmt.Sprintf("m%d", i)}))
	}
	msgs, err := s.ListMessages(ctx, "main", HistoryCap)
	require.NoError(t, err)
	require.Len(t, msgs, HistoryCap)
	require.Equal(t, "m5", msgs[0].ID)

	require.NoError(t, s.SetOnlinePresence(ctx, "c1", user))
	users, err := s.ListPresence(ctx)
	require.NoError(t, err)
	require.Len(t, users, 1)
	require.NoError(t, s.RemovePresence(ctx, "c1"))
	users, err = s.ListPresence(ctx)
	require.NoError(t, err)
	require.Empty(t, users)

	require.NoError(t, s.Close())
}
