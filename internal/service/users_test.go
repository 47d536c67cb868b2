package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/victor-nwoseh/finance-tracker/internal/auth"
	"github.com/victor-nwoseh/finance-tracker/internal/storage/memory"
)

func TestRegisterAndLogin(t *testing.T) {
	ctx := context.Background()
	tokens := auth.NewTokenManager("test-secret", "finance-tracker", time.Hour)
	users := NewUserService(memory.New(), tokens)

	user, err := users.Register(ctx, " Ada@Example.com ", "password123", "Ada")
	require.NoError(t, err)
	assert.Equal(t, "ada@example.com", user.Email)
	assert.NotEqual(t, "password123", user.PasswordHash)

	_, err = users.Register(ctx, "ADA@example.com", "another-pass", "Imposter")
	require.ErrorIs(t, err, ErrConflict)

	token, loggedIn, err := users.Login(ctx, "ada@example.com", "password123")
	require.NoError(t, err)
	assert.Equal(t, user.ID, loggedIn.ID)
	claims, err := tokens.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.ID)
	assert.Equal(t, user.Email, claims.Email)

	_, _, err = users.Login(ctx, "ada@example.com", "wrong")
	require.ErrorIs(t, err, ErrInvalidCredentials)
	_, _, err = users.Login(ctx, "nobody@example.com", "password123")
	require.ErrorIs(t, err, ErrInvalidCredentials)

	me, err := users.Get(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "Ada", me.Name)
	_, err = users.Get(ctx, "missing")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestRegisterRejectsOverlongPassword(t *testing.T) {
	users := NewUserService(memory.New(), auth.NewTokenManager("test-secret", "finance-tracker", time.Hour))

	_, err := users.Register(context.Background(), "long@example.com", strings.Repeat("p", auth.MaxPasswordBytes+1), "Long")
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Message, "72 bytes")

	_, err = users.Register(context.Background(), "edge@example.com", strings.Repeat("p", auth.MaxPasswordBytes), "Edge")
	require.NoError(t, err)
}
