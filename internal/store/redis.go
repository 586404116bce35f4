package store

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"

	"chat-relay/internal/models"
	"chat-relay/internal/observability"
)

const dialTimeout = 2 * time.Second
const callTimeout = 2 * time.Second

// RedisStore is the durable tier. Every call is bounded by the client
// timeouts; a failed call is absorbed into the embedded in-memory mirror so
// the caller sees the same shapes either way. Keys written before an outage
// are not replayed into the mirror, so a degraded read can miss them.
type RedisStore struct {
	client   *redis.Client
	fallback *MemoryStore
}

// NewRedis dials and pings the backend once. An unreachable backend is an
// error here so the caller can select the memory store for the process.
func NewRedis(ctx context.Context, addr string) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		DialTimeout:  dialTimeout,
		ReadTimeout:  callTimeout,
		WriteTimeout: callTimeout,
	})

	pingCtx, cancel := context.WithTimeout(ctx, dialTimeout)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	return &RedisStore{client: client, fallback: NewMemory()}, nil
}

func sessionKey(connID string) string { return "user:" + connID }

func historyKey(roomID string) string { return "room:" + roomID + ":messages" }

const presenceKey = "online_users"

func (s *RedisStore) degraded(op string, err error) {
	log.Printf("store: redis %s failed, using in-memory fallback: %v", op, err)
	observability.IncStoreFallback(op)
}

func (s *RedisStore) SetSession(ctx context.Context, connID string, user models.User) error {
	data, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}
	if err := s.client.SetEx(ctx, sessionKey(connID), data, SessionTTL).Err(); err != nil {
		s.degraded("set_session", err)
		return s.fallback.SetSession(ctx, connID, user)
	}
	return nil
}

func (s *RedisStore) GetSession(ctx context.Context, connID string) (models.User, bool, error) {
	data, err := s.client.Get(ctx, sessionKey(connID)).Bytes()
	if err == redis.Nil {
		return models.User{}, false, nil
	}
	if err != nil {
		s.degraded("get_session", err)
		return s.fallback.GetSession(ctx, connID)
	}
	var user models.User
	if err := json.Unmarshal(data, &user); err != nil {
		return models.User{}, false, fmt.Errorf("unmarshal session: %w", err)
	}
	return user, true, nil
}

func (s *RedisStore) AppendMessage(ctx context.Context, roomID string, msg models.ChatMessage) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}
	key := historyKey(roomID)
	pipe := s.client.TxPipeline()
	pipe.RPush(ctx, key, data)
	pipe.LTrim(ctx, key, -HistoryCap, -1)
	if _, err := pipe.Exec(ctx); err != nil {
		s.degraded("append_message", err)
		return s.fallback.AppendMessage(ctx, roomID, msg)
	}
	return nil
}

func (s *RedisStore) ListMessages(ctx context.Context, roomID string, limit int) ([]models.ChatMessage, error) {
	if limit <= 0 || limit > HistoryCap {
		limit = HistoryCap
	}
	raw, err := s.client.LRange(ctx, historyKey(roomID), int64(-limit), -1).Result()
	if err != nil {
		s.degraded("list_messages", err)
		return s.fallback.ListMessages(ctx, roomID, limit)
	}
	msgs := make([]models.ChatMessage, 0, len(raw))
	for _, item := range raw {
		var msg models.ChatMessage
		if err := json.Unmarshal([]byte(item), &msg); err != nil {
			return nil, fmt.Errorf("unmarshal message: %w", err)
		}
		msgs = append(msgs, msg)
	}
	return msgs, nil
}

func (s *RedisStore) SetOnlinePresence(ctx context.Context, connID string, user models.User) error {
	data, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("marshal presence: %w", err)
	}
	if err := s.client.HSet(ctx, presenceKey, connID, data).Err(); err != nil {
		s.degraded("set_presence", err)
		return s.fallback.SetOnlinePresence(ctx, connID, user)
	}
	return nil
}

func (s *RedisStore) RemovePresence(ctx context.Context, connID string) error {
	if err := s.client.HDel(ctx, presenceKey, connID).Err(); err != nil {
		s.degraded("remove_presence", err)
		return s.fallback.RemovePresence(ctx, connID)
	}
	return nil
}

func (s *RedisStore) ListPresence(ctx context.Context) ([]models.User, error) {
	entries, err := s.client.HGetAll(ctx, presenceKey).Result()
	if err != nil {
		s.degraded("list_presence", err)
		return s.fallback.ListPresence(ctx)
	}
	users := make([]models.User, 0, len(entries))
	for _, item := range entries {
		var user models.User
		if err := json.Unmarshal([]byte(item), &user); err != nil {
			return nil, fmt.Errorf("unmarshal presence: %w", err)
		}
		users = append(users, user)
	}
	return users, nil
}

func (s *RedisStore) Backend() string { return "redis" }

func (s *RedisStore) Close() error { return s.client.Close() }
