package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"chat-relay/internal/room"
	"chat-relay/internal/store"
)

const defaultHistoryLimit = 50

// RelayHandler exposes the read-only REST surface of the relay: recent
// persisted history and the current presence listing.
type RelayHandler struct {
	store store.Store
	room  *room.Room
	cfg   room.Config
}

// NewRelayHandler builds a RelayHandler.
func NewRelayHandler(st store.Store, r *room.Room, cfg room.Config) *RelayHandler {
	return &RelayHandler{store: st, room: r, cfg: cfg}
}

// GetHistory returns the most recent persisted messages from the durable
// tier. The live log consulted by joining clients is unbounded; this
// endpoint reads the bounded recovery copy.
func (h *RelayHandler) GetHistory(c *gin.Context) {
	limit := defaultHistoryLimit
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid limit"})
			return
		}
		limit = parsed
	}
	if limit > store.HistoryCap {
		limit = store.HistoryCap
	}

	msgs, err := h.store.ListMessages(c.Request.Context(), h.cfg.ID, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load history"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"messages": msgs})
}

// GetOnlineUsers returns the current presence listing.
func (h *RelayHandler) GetOnlineUsers(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"users": h.room.OnlineUsers()})
}

// GetHealth reports liveness and the active store backend.
func (h *RelayHandler) GetHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "store": h.store.Backend()})
}
