package service

import (
	"context"
	"errors"
	"strings"

	"github.com/victor-nwoseh/finance-tracker/internal/auth"
	"github.com/victor-nwoseh/finance-tracker/internal/models"
	"github.com/victor-nwoseh/finance-tracker/internal/storage"
)

// UserService registers users and exchanges credentials for access tokens.
type UserService struct {
	store  storage.Queries
	tokens *auth.TokenManager
}

func NewUserService(store storage.Queries, tokens *auth.TokenManager) *UserService {
	return &UserService{store: store, tokens: tokens}
}

// Register creates a user with a bcrypt-hashed password. Emails are unique
// ignoring case; a duplicate yields ErrConflict.
func (s *UserService) Register(ctx context.Context, email, password, name string) (models.User, error) {
	hash, err := auth.HashPassword(password)
	if errors.Is(err, auth.ErrPasswordTooLong) {
		return models.User{}, invalid("password must be at most %d bytes", auth.MaxPasswordBytes)
	}
	if err != nil {
		return models.User{}, wrap("hash password", err)
	}
	user, err := s.store.CreateUser(ctx, models.User{
		Email:        normalizeEmail(email),
		Name:         strings.TrimSpace(name),
		PasswordHash: hash,
	})
	if err != nil {
		return models.User{}, wrap("create user", err)
	}
	return user, nil
}

// Login verifies the password and issues a signed token carrying {id, email}.
func (s *UserService) Login(ctx context.Context, email, password string) (string, models.User, error) {
	user, err := s.store.FindUserByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return "", models.User{}, ErrInvalidCredentials
		}
		return "", models.User{}, wrap("fetch user", err)
	}
	if !auth.CheckPassword(user.PasswordHash, password) {
		return "", models.User{}, ErrInvalidCredentials
	}
	token, err := s.tokens.Generate(user)
	if err != nil {
		return "", models.User{}, wrap("generate token", err)
	}
	return token, user, nil
}

// Get returns the user behind an authenticated request.
func (s *UserService) Get(ctx context.Context, id string) (models.User, error) {
	user, err := s.store.FindUserByID(ctx, id)
	if err != nil {
		return models.User{}, wrap("fetch user", err)
	}
	return user, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
