package store

import (
	"context"
	"log"
	"time"

	"chat-relay/internal/models"
)

// HistoryCap bounds the persisted per-room history: the durable tier keeps
// only the most recent HistoryCap messages, oldest evicted first. The live
// in-process log is not affected by this bound.
const HistoryCap = 100

// SessionTTL is how long a session entry survives on the durable tier.
// The in-memory fallback has no expiry; see MemoryStore.
const SessionTTL = time.Hour

// Store is the durable persistence contract for sessions, message history
// and presence snapshots. Implementations never surface backend outages to
// callers beyond the error return: a failed durable write degrades to an
// in-memory equivalent with identical external behavior except durability.
type Store interface {
	SetSession(ctx context.Context, connID string, user models.User) error
	GetSession(ctx context.Context, connID string) (models.User, bool, error)

	AppendMessage(ctx context.Context, roomID string, msg models.ChatMessage) error
	ListMessages(ctx context.Context, roomID string, limit int) ([]models.ChatMessage, error)

	SetOnlinePresence(ctx context.Context, connID string, user models.User) error
	RemovePresence(ctx context.Context, connID string) error
	ListPresence(ctx context.Context) ([]models.User, error)

	// Backend reports which tier answers calls: "redis" or "memory".
	Backend() string
	Close() error
}

// Connect selects the store implementation at startup. Redis is tried once;
// when it is unreachable (or no address is configured) the process runs on
// the in-memory store for its whole lifetime instead of re-dialing per call.
func Connect(ctx context.Context, redisAddr string) Store {
	if redisAddr == "" {
		log.Printf("store: no redis address configured, using in-memory store")
		return NewMemory()
	}

	rs, err := NewRedis(ctx, redisAddr)
	if err != nil {
		log.Printf("store: redis unavailable, using in-memory store: %v", err)
		return NewMemory()
	}

	log.Printf("store: connected to redis addr=%s", redisAddr)
	return rs
}
