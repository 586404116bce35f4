package store

import (
	"context"
	"sync"

	"chat-relay/internal/models"
)

// MemoryStore is the process-scoped fallback tier. It mirrors the durable
// contract exactly, with two documented gaps: nothing survives a restart,
// and session entries never expire (the durable tier applies SessionTTL).
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]models.User
	history  map[string][]models.ChatMessage
	presence map[string]models.User
}

// NewMemory builds an empty in-memory store.
func NewMemory() *MemoryStore {
	return &MemoryStore{
		sessions: make(map[string]models.User),
		history:  make(map[string][]models.ChatMessage),
		presence: make(map[string]models.User),
	}
}

func (s *MemoryStore) SetSession(_ context.Context, connID string, user models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[connID] = user
	return nil
}

func (s *MemoryStore) GetSession(_ context.Context, connID string) (models.User, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	user, ok := s.sessions[connID]
	return user, ok, nil
}

func (s *MemoryStore) AppendMessage(_ context.Context, roomID string, msg models.ChatMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	msgs := append(s.history[roomID], msg)
	if len(msgs) > HistoryCap {
		msgs = msgs[len(msgs)-HistoryCap:]
	}
	s.history[roomID] = msgs
	return nil
}

func (s *MemoryStore) ListMessages(_ context.Context, roomID string, limit int) ([]models.ChatMessage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	msgs := s.history[roomID]
	if limit > 0 && len(msgs) > limit {
		msgs = msgs[len(msgs)-limit:]
	}
	out := make([]models.ChatMessage, len(msgs))
	copy(out, msgs)
	return out, nil
}

func (s *MemoryStore) SetOnlinePresence(_ context.Context, connID string, user models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.presence[connID] = user
	return nil
}

func (s *MemoryStore) RemovePresence(_ context.Context, connID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.presence, connID)
	return nil
}

func (s *MemoryStore) ListPresence(_ context.Context) ([]models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	users := make([]models.User, 0, len(s.presence))
	for _, u := range s.presence {
		users = append(users, u)
	}
	return users, nil
}

func (s *MemoryStore) Backend() string { return "memory" }

func (s *MemoryStore) Close() error { return nil }
