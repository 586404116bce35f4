package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"chat-relay/internal/models"
)

// StoreMock is a testify double for store.Store.
type StoreMock struct {
	mock.Mock
}

func (m *StoreMock) SetSession(ctx context.Context, connID string, user models.User) error {
	args := m.Called(ctx, connID, user)
	return args.Error(0)
}

func (m *StoreMock) GetSession(ctx context.Context, connID string) (models.User, bool, error) {
	args := m.Called(ctx, connID)
	var user models.User
	if val := args.Get(0); val != nil {
		user = val.(models.User)
	}
	return user, args.Bool(1), args.Error(2)
}

func (m *StoreMock) AppendMessage(ctx context.Context, roomID string, msg models.ChatMessage) error {
	args := m.Called(ctx, roomID, msg)
	return args.Error(0)
}

func (m *StoreMock) ListMessages(ctx context.Context, roomID string, limit int) ([]models.ChatMessage, error) {
	args := m.Called(ctx, roomID, limit)
	var msgs []models.ChatMessage
	if val := args.Get(0); val != nil {
		msgs = val.([]models.ChatMessage)
	}
	return msgs, args.Error(1)
}

func (m *StoreMock) SetOnlinePresence(ctx context.Context, connID string, user models.User) error {
	args := m.Called(ctx, connID, user)
	return args.Error(0)
}

func (m *StoreMock) RemovePresence(ctx context.Context, connID string) error {
	args := m.Called(ctx, connID)
	return args.Error(0)
}

func (m *StoreMock) ListPresence(ctx context.Context) ([]models.User, error) {
	args := m.Called(ctx)
	var users []models.User
	if val := args.Get(0); val != nil {
		users = val.([]models.User)
	}
	return users, args.Error(1)
}

func (m *StoreMock) Backend() string {
	args := m.Called()
	return args.String(0)
}

func (m *StoreMock) Close() error {
	args := m.Called()
	return args.Error(0)
}
