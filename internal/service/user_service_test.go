package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

func newUserService(f *fixture) *UserService {
	s := NewUserService(f.users, zap.NewNop())
	s.hashCost = bcrypt.MinCost
	return s
}

func TestUserService_RegisterAndLogin(t *testing.T) {
	f := newFixture(t)
	s := newUserService(f)
	ctx := context.Background()

	user, err := s.Register(ctx, " Alice ", "Alice@Example.com", "123456")
	require.NoError(t, err)
	assert.Equal(t, "Alice", user.Username)
	assert.Equal(t, "alice@example.com", user.Email)
	assert.NotEqual(t, "123456", user.PasswordHash)

	logged, err := s.Login(ctx, "alice@example.com", "123456")
	require.NoError(t, err)
	assert.Equal(t, user.ID, logged.ID)

	_, err = s.Login(ctx, "alice@example.com", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = s.Login(ctx, "nobody@example.com", "123456")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestUserService_RegisterValidation(t *testing.T) {
	f := newFixture(t)
	s := newUserService(f)
	ctx := context.Background()

	_, err := s.Register(ctx, "", "a@example.com", "pw")
	assert.ErrorIs(t, err, ErrValidation)

	_, err = s.Register(ctx, "a", "a@example.com", "pw")
	require.NoError(t, err)

	_, err = s.Register(ctx, "b", "A@example.com", "pw")
	assert.ErrorIs(t, err, ErrAlreadyExists)
}

func TestUserService_LinkTelegram(t *testing.T) {
	f := newFixture(t)
	s := newUserService(f)
	ctx := context.Background()

	user, err := s.Register(ctx, "a", "a@example.com", "pw")
	require.NoError(t, err)
	chatID := int64(77)

	linked, err := s.LinkTelegram(ctx, user.ID, &chatID)
	require.NoError(t, err)
	require.NotNil(t, linked.TelegramChatID)
	assert.Equal(t, chatID, *linked.TelegramChatID)

	found, err := s.ByTelegramChat(ctx, chatID)
	require.NoError(t, err)
	assert.Equal(t, user.ID, found.ID)

	_, err = s.LinkTelegram(ctx, user.ID, nil)
	require.NoError(t, err)
	_, err = s.ByTelegramChat(ctx, chatID)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = s.LinkTelegram(ctx, 999, &chatID)
	assert.ErrorIs(t, err, ErrNotFound)
}
