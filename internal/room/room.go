package room

import (
	"context"
	"log"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"chat-relay/internal/models"
	"chat-relay/internal/observability"
	"chat-relay/internal/store"
	"chat-relay/internal/telemetry"
)

// User-facing auth_error texts.
const (
	authErrInvalidPassword  = "Invalid password"
	authErrMissingUsername  = "Username is required"
	authErrNotAuthenticated = "Not authenticated"
	authErrServer           = "Server error"
)

// Notifier delivers server events to connections. The ws.Hub implements it;
// tests substitute a recorder.
type Notifier interface {
	Emit(connID string, event models.ServerEvent)
	Broadcast(event models.ServerEvent)
	BroadcastExcept(connID string, event models.ServerEvent)
}

// Config carries the room identity and the shared join passphrase.
type Config struct {
	ID     string
	Secret string
}

// session is the server-side state for one live connection. A session
// authenticates at most once; the username is immutable afterwards.
type session struct {
	id            string
	username      string
	authenticated bool
	joinedAt      time.Time
}

// Room owns the sessions map, the live message log and the presence view for
// the single chat room. Every operation locks the room mutex for its full
// body, store calls and fanout included, so all clients observe one total
// order of room-visible events.
type Room struct {
	cfg      Config
	notifier Notifier
	store    store.Store
	audit    *telemetry.AuditEmitter

	mu       sync.Mutex
	sessions map[string]*session
	log      *messageLog
}

// New builds a room around its collaborators. The store absorbs its own
// backend failures; the room only ever logs store errors. A nil audit
// emitter disables audit events.
func New(cfg Config, st store.Store, notifier Notifier, audit *telemetry.AuditEmitter) *Room {
	return &Room{
		cfg:      cfg,
		notifier: notifier,
		store:    st,
		audit:    audit,
		sessions: make(map[string]*session),
		log:      newMessageLog(),
	}
}

// Connect registers a new unauthenticated session. No side effects are
// visible to other connections.
func (r *Room) Connect(connID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[connID] = &session{id: connID}
	log.Printf("room: client connected conn=%s", connID)
}

// Authenticate transitions the session to authenticated when the passphrase
// matches and the trimmed username is non-empty. On success the requester
// receives auth_success and the full history before anyone sees the presence
// update and the join system message.
func (r *Room) Authenticate(ctx context.Context, connID, username, password string) {
	defer r.recoverHandler(models.EventUserJoin, connID, true)
	r.mu.Lock()
	defer r.mu.Unlock()

	sess, ok := r.sessions[connID]
	if !ok || sess.authenticated {
		// Unknown connection or repeated join on a live session: the
		// unauthenticated -> authenticated transition happens at most once.
		return
	}

	if password != r.cfg.Secret {
		r.notifier.Emit(connID, authErrorEvent(authErrInvalidPassword))
		r.auditAuthFailure(ctx, connID, authErrInvalidPassword, username)
		return
	}

	username = strings.TrimSpace(username)
	if username == "" {
		r.notifier.Emit(connID, authErrorEvent(authErrMissingUsername))
		r.auditAuthFailure(ctx, connID, authErrMissingUsername, "")
		return
	}

	sess.username = username
	sess.authenticated = true
	sess.joinedAt = time.Now()
	log.Printf("room: user joined conn=%s username=%s", connID, username)

	user := r.presenceEntry(sess)
	r.persist("set_session", r.store.SetSession(ctx, connID, user))
	r.persist("set_presence", r.store.SetOnlinePresence(ctx, connID, user))

	// History is snapshotted before the join message is appended: the joiner
	// sees its own join only through the broadcast, exactly once.
	history := r.log.snapshot()
	r.notifier.Emit(connID, models.ServerEvent{Event: models.EventAuthSuccess, Data: models.AuthSuccess{User: user}})
	r.notifier.Emit(connID, models.ServerEvent{Event: models.EventMessageHistory, Data: history})
	r.broadcastPresence()
	r.appendAndBroadcast(ctx, r.systemMessage(username+" joined the chat"))
}

// SendMessage validates and appends a text or voice message, then broadcasts
// it. Empty bodies are dropped silently; unauthenticated senders get an
// auth_error instead.
func (r *Room) SendMessage(ctx context.Context, connID, body, msgType string) {
	defer r.recoverHandler(models.EventSendMessage, connID, false)
	r.mu.Lock()
	defer r.mu.Unlock()

	sess, ok := r.sessions[connID]
	if !ok || !sess.authenticated {
		r.notifier.Emit(connID, authErrorEvent(authErrNotAuthenticated))
		return
	}

	body = strings.TrimSpace(body)
	if body == "" {
		log.Printf("room: dropped empty message conn=%s", connID)
		return
	}

	kind := models.MessageTypeText
	if msgType == string(models.MessageTypeVoice) {
		kind = models.MessageTypeVoice
	}

	msg := &models.ChatMessage{
		ID:        uuid.NewString(),
		UserID:    connID,
		Username:  sess.username,
		Message:   body,
		Timestamp: time.Now().UnixMilli(),
		Type:      kind,
		Status:    models.MessageStatusSent,
		ReadBy:    []string{},
	}
	r.appendAndBroadcast(ctx, msg)
	log.Printf("room: message from username=%s type=%s", sess.username, kind)
}

// VoiceMessage appends a voice transcript through the same validation path
// as text.
func (r *Room) VoiceMessage(ctx context.Context, connID, transcription string) {
	r.SendMessage(ctx, connID, transcription, string(models.MessageTypeVoice))
}

// AcknowledgeDelivered advances a message from sent to delivered exactly
// once and broadcasts the transition. Unknown ids and messages already past
// sent are a no-op with no broadcast.
func (r *Room) AcknowledgeDelivered(connID, messageID string) {
	defer r.recoverHandler(models.EventMessageDelivered, connID, false)
	r.mu.Lock()
	defer r.mu.Unlock()

	msg, ok := r.log.find(messageID)
	if !ok || msg.Status != models.MessageStatusSent {
		return
	}
	msg.Status = models.MessageStatusDelivered
	r.notifier.Broadcast(models.ServerEvent{
		Event: models.EventMessageStatusUpdate,
		Data:  models.StatusUpdate{MessageID: messageID, Status: models.MessageStatusDelivered},
	})
}

// AcknowledgeRead records the reader once and moves the message to read.
// The room broadcasts a single room-wide read status: the first reader flips
// it, later distinct readers are recorded without regressing anything, and a
// repeated ack from the same reader is a no-op.
func (r *Room) AcknowledgeRead(connID, messageID string) {
	defer r.recoverHandler(models.EventMessageRead, connID, false)
	r.mu.Lock()
	defer r.mu.Unlock()

	sess, ok := r.sessions[connID]
	if !ok || !sess.authenticated {
		return
	}
	msg, found := r.log.find(messageID)
	if !found || msg.HasReader(connID) {
		return
	}
	msg.ReadBy = append(msg.ReadBy, connID)
	msg.Status = models.MessageStatusRead
	r.notifier.Broadcast(models.ServerEvent{
		Event: models.EventMessageStatusUpdate,
		Data:  models.StatusUpdate{MessageID: messageID, Status: models.MessageStatusRead},
	})
}

// TypingStart notifies everyone except the typist.
func (r *Room) TypingStart(connID string) {
	r.typing(connID, true)
}

// TypingStop notifies everyone except the typist.
func (r *Room) TypingStop(connID string) {
	r.typing(connID, false)
}

func (r *Room) typing(connID string, typing bool) {
	event := models.EventTypingStop
	if typing {
		event = models.EventTypingStart
	}
	defer r.recoverHandler(event, connID, false)
	r.mu.Lock()
	defer r.mu.Unlock()

	sess, ok := r.sessions[connID]
	if !ok || !sess.authenticated {
		return
	}
	r.notifier.BroadcastExcept(connID, models.ServerEvent{
		Event: models.EventUserTyping,
		Data:  models.TypingNotice{Username: sess.username, Typing: typing},
	})
}

// Disconnect destroys the session. A session that authenticated leaves a
// presence update and a system message behind; one that never did is cleaned
// up with no broadcast.
func (r *Room) Disconnect(ctx context.Context, connID string) {
	defer r.recoverHandler("disconnect", connID, false)
	r.mu.Lock()
	defer r.mu.Unlock()

	sess, ok := r.sessions[connID]
	if !ok {
		return
	}
	delete(r.sessions, connID)
	if !sess.authenticated {
		return
	}

	log.Printf("room: user disconnected conn=%s username=%s", connID, sess.username)
	r.persist("remove_presence", r.store.RemovePresence(ctx, connID))
	r.broadcastPresence()
	r.appendAndBroadcast(ctx, r.systemMessage(sess.username+" left the chat"))
}

// OnlineUsers returns the presence listing: exactly the authenticated
// sessions, in join order.
func (r *Room) OnlineUsers() []models.User {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.onlineUsersLocked()
}

// History returns the full live log in append order.
func (r *Room) History() []models.ChatMessage {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.log.snapshot()
}

func (r *Room) onlineUsersLocked() []models.User {
	users := make([]models.User, 0, len(r.sessions))
	for _, sess := range r.sessions {
		if sess.authenticated {
			users = append(users, r.presenceEntry(sess))
		}
	}
	sort.Slice(users, func(i, j int) bool {
		if users[i].JoinTime != users[j].JoinTime {
			return users[i].JoinTime < users[j].JoinTime
		}
		return users[i].ID < users[j].ID
	})
	return users
}

func (r *Room) presenceEntry(sess *session) models.User {
	return models.User{
		ID:       sess.id,
		Username: sess.username,
		Status:   models.UserStatusOnline,
		JoinTime: sess.joinedAt.UnixMilli(),
	}
}

func (r *Room) broadcastPresence() {
	r.notifier.Broadcast(models.ServerEvent{
		Event: models.EventOnlineUsers,
		Data:  r.onlineUsersLocked(),
	})
}

func (r *Room) systemMessage(text string) *models.ChatMessage {
	return &models.ChatMessage{
		ID:        uuid.NewString(),
		UserID:    models.SystemUserID,
		Username:  models.SystemUsername,
		Message:   text,
		Timestamp: time.Now().UnixMilli(),
		Type:      models.MessageTypeSystem,
		Status:    models.MessageStatusSent,
		ReadBy:    []string{},
	}
}

func (r *Room) appendAndBroadcast(ctx context.Context, msg *models.ChatMessage) {
	r.log.append(msg)
	r.persist("append_message", r.store.AppendMessage(ctx, r.cfg.ID, *msg))
	observability.IncMessage(string(msg.Type))
	r.notifier.Broadcast(models.ServerEvent{Event: models.EventNewMessage, Data: *msg})
}

// persist logs store errors; durable-tier faults never reach clients.
func (r *Room) persist(op string, err error) {
	if err != nil {
		log.Printf("room: store %s failed: %v", op, err)
	}
}

// recoverHandler is the handler boundary: a panic is logged and, on the auth
// path, converted into a Server error for the requester; every other path
// degrades to a no-op. A fault must never crash the process.
func (r *Room) recoverHandler(event, connID string, authPath bool) {
	if rec := recover(); rec != nil {
		log.Printf("room: panic handling %s conn=%s: %v", event, connID, rec)
		r.audit.Emit(context.Background(), "error", "panic handling "+event, connID, nil)
		if authPath {
			r.notifier.Emit(connID, authErrorEvent(authErrServer))
		}
	}
}

// auditAuthFailure records a rejected join on the audit trail.
func (r *Room) auditAuthFailure(ctx context.Context, connID, reason, username string) {
	var user *string
	if username = strings.TrimSpace(username); username != "" {
		user = &username
	}
	r.audit.Emit(ctx, "warn", "join rejected: "+reason, connID, user)
}

func authErrorEvent(message string) models.ServerEvent {
	return models.ServerEvent{Event: models.EventAuthError, Data: models.AuthError{Message: message}}
}
