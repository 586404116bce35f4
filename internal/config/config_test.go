package config

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	require.Equal(t, ":8083", cfg.Addr)
	require.Equal(t, "main", cfg.RoomID)
	require.Equal(t, "mypassword", cfg.SharedSecret)
	require.Equal(t, "localhost:6379", cfg.RedisAddr)
	require.Equal(t, "chat.events", cfg.AmqpExchange)
	require.Equal(t, "dev", cfg.Environment)
	require.False(t, cfg.DebugRoutes)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("ADDR", ":9090")
	t.Setenv("ROOM_ID", "lobby")
	t.Setenv("CHAT_SECRET", "hunter2")
	t.Setenv("REDIS_ADDR", "")
	t.Setenv("DEBUG_ROUTES", "true")

	cfg, err := Load()
	require.NoError(t, err)

	require.Equal(t, ":9090", cfg.Addr)
	require.Equal(t, "lobby", cfg.RoomID)
	require.Equal(t, "hunter2", cfg.SharedSecret)
	require.Empty(t, cfg.RedisAddr)
	require.True(t, cfg.DebugRoutes)
}

func TestLoadRejectsEmptySecret(t *testing.T) {
	t.Setenv("CHAT_SECRET", "")

	_, err := Load()
	require.Error(t, err)
}
