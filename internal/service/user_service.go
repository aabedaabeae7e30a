package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"asteritime/internal/model"
	"asteritime/internal/repository"
)

// UserService registers users, checks credentials and manages the Telegram
// chat link used for daily reports.
type UserService struct {
	repo     *repository.UserRepository
	logger   *zap.Logger
	hashCost int
}

func NewUserService(repo *repository.UserRepository, logger *zap.Logger) *UserService {
	return &UserService{repo: repo, logger: logger, hashCost: bcrypt.DefaultCost}
}

// Register creates a user. Emails are unique.
func (s *UserService) Register(ctx context.Context, username, email, password string) (*model.User, error) {
	username = strings.TrimSpace(username)
	email = strings.ToLower(strings.TrimSpace(email))
	if username == "" || email == "" || password == "" {
		return nil, validationf("username, email and password are required")
	}

	if _, err := s.repo.FindByEmail(ctx, email); err == nil {
		return nil, fmt.Errorf("email %s: %w", email, ErrAlreadyExists)
	} else if !repository.IsNotFound(err) {
		return nil, storeErr("find user", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.hashCost)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return nil, validationf("password is too long")
		}
		return nil, fmt.Errorf("hash password: %w: %w", ErrInternal, err)
	}

	user := model.User{Username: username, Email: email, PasswordHash: string(hash)}
	if err := s.repo.Create(ctx, &user); err != nil {
		if repository.IsDuplicate(err) {
			return nil, fmt.Errorf("email %s: %w", email, ErrAlreadyExists)
		}
		return nil, storeErr("create user", err)
	}
	s.logger.Info("user registered", zap.Uint("user_id", user.ID))
	return &user, nil
}

// Login returns the user whose email and password match.
func (s *UserService) Login(ctx context.Context, email, password string) (*model.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	user, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, ErrInvalidCredentials
		}
		return nil, storeErr("find user", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return user, nil
}

func (s *UserService) Get(ctx context.Context, id uint) (*model.User, error) {
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, storeErr(fmt.Sprintf("get user %d", id), err)
	}
	return user, nil
}

// ByEmail finds a user by email, case-insensitively.
func (s *UserService) ByEmail(ctx context.Context, email string) (*model.User, error) {
	user, err := s.repo.FindByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		return nil, storeErr("find user by email", err)
	}
	return user, nil
}

// LinkTelegram attaches chatID to the user; nil detaches.
func (s *UserService) LinkTelegram(ctx context.Context, id uint, chatID *int64) (*model.User, error) {
	if err := s.repo.SetTelegramChat(ctx, id, chatID); err != nil {
		return nil, storeErr(fmt.Sprintf("link telegram for user %d", id), err)
	}
	return s.Get(ctx, id)
}

// ByTelegramChat finds the user linked to chatID.
func (s *UserService) ByTelegramChat(ctx context.Context, chatID int64) (*model.User, error) {
	user, err := s.repo.FindByTelegramChatID(ctx, chatID)
	if err != nil {
		return nil, storeErr("find user by telegram chat", err)
	}
	return user, nil
}

// WithTelegram lists every user with a linked chat.
func (s *UserService) WithTelegram(ctx context.Context) ([]model.User, error) {
	users, err := s.repo.ListWithTelegram(ctx)
	return users, storeErr("list telegram users", err)
}
