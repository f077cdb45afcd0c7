package service

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bookshelfapp/bookshelf-server/internal/auth"
	"github.com/bookshelfapp/bookshelf-server/internal/domain"
	domainerrors "github.com/bookshelfapp/bookshelf-server/internal/errors"
	"github.com/bookshelfapp/bookshelf-server/internal/validation"
)

func TestRegister(t *testing.T) {
	env := newTestEnv(t)

	user, err := env.auth.Register(context.Background(), RegisterRequest{
		Email:    "alice@example.com",
		Username: "alice",
		FullName: "Alice Liddell",
		Password: "password123",
	})
	require.NoError(t, err)

	assert.NotZero(t, user.ID)
	assert.Equal(t, domain.RoleUser, user.Role)
	assert.True(t, user.Active)
	assert.NotEqual(t, "password123", user.PasswordHash)
	assert.True(t, auth.VerifyPassword(user.PasswordHash, "password123"))
}

func TestRegister_Duplicates(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.createUser(t, "alice")

	_, err := env.auth.Register(ctx, RegisterRequest{Email: "alice@example.com", Username: "other", Password: "password123"})
	require.Error(t, err)
	assert.True(t, domainerrors.Is(err, domainerrors.ErrAlreadyExists))
	assert.Equal(t, "Email already registered", err.Error())

	_, err = env.auth.Register(ctx, RegisterRequest{Email: "new@example.com", Username: "alice", Password: "password123"})
	require.Error(t, err)
	assert.Equal(t, "Username already taken", err.Error())
}

func TestRegister_Validation(t *testing.T) {
	env := newTestEnv(t)

	tests := []struct {
		name string
		req  RegisterRequest
	}{
		{"bad email", RegisterRequest{Email: "nope", Username: "alice", Password: "password123"}},
		{"short username", RegisterRequest{Email: "a@example.com", Username: "al", Password: "password123"}},
		{"short password", RegisterRequest{Email: "a@example.com", Username: "alice", Password: "short"}},
		{"unknown role", RegisterRequest{Email: "a@example.com", Username: "alice", Password: "password123", Role: "root"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.auth.Register(context.Background(), tt.req)
			assert.True(t, domainerrors.Is(err, domainerrors.ErrValidation))
		})
	}
}

func TestLogin(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user := env.createUser(t, "alice")

	for _, identifier := range []string{"alice", "alice@example.com"} {
		t.Run(identifier, func(t *testing.T) {
			resp, err := env.auth.Login(ctx, LoginRequest{Username: identifier, Password: "password123"})
			require.NoError(t, err)
			assert.Equal(t, "bearer", resp.TokenType)
			assert.Equal(t, int64(1800), resp.ExpiresIn)

			got, claims, err := env.auth.VerifyAccessToken(ctx, resp.AccessToken)
			require.NoError(t, err)
			assert.Equal(t, user.ID, got.ID)
			assert.Equal(t, "alice", claims.Username)
			assert.Equal(t, "user", claims.Role)
			assert.NotEmpty(t, claims.ID)
		})
	}
}

func TestLogin_BadCredentials(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.createUser(t, "alice")

	for _, req := range []LoginRequest{
		{Username: "alice", Password: "wrong-password"},
		{Username: "nobody", Password: "password123"},
	} {
		_, err := env.auth.Login(ctx, req)
		require.Error(t, err)
		assert.True(t, domainerrors.Is(err, domainerrors.ErrInvalidCredentials))
		assert.Equal(t, "Incorrect username or password", err.Error())
	}
}

func TestLogin_InactiveUser(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	hash, err := auth.HashPassword("password123")
	require.NoError(t, err)
	inactive := &domain.User{
		Email:        "ghost@example.com",
		Username:     "ghost",
		PasswordHash: hash,
		Role:         domain.RoleUser,
		Active:       false,
	}
	require.NoError(t, env.store.CreateUser(ctx, inactive))

	_, err = env.auth.Login(ctx, LoginRequest{Username: "ghost", Password: "password123"})
	require.Error(t, err)
	assert.True(t, domainerrors.Is(err, domainerrors.ErrForbidden))
	assert.Equal(t, "Inactive user", err.Error())
}

func TestVerifyAccessToken_Rejects(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user := env.createUser(t, "alice")

	_, _, err := env.auth.VerifyAccessToken(ctx, "not-a-token")
	assert.True(t, domainerrors.Is(err, domainerrors.ErrUnauthorized))

	// Signed with a different secret.
	foreign, err := auth.NewTokenService(bytes.Repeat([]byte("z"), 32), time.Minute)
	require.NoError(t, err)
	token, err := foreign.GenerateAccessToken(user)
	require.NoError(t, err)
	_, _, err = env.auth.VerifyAccessToken(ctx, token)
	assert.True(t, domainerrors.Is(err, domainerrors.ErrUnauthorized))

	// Valid signature, deleted user.
	ghost := &domain.User{ID: user.ID + 100, Username: "ghost", Role: domain.RoleUser}
	token, err = env.tokens.GenerateAccessToken(ghost)
	require.NoError(t, err)
	_, _, err = env.auth.VerifyAccessToken(ctx, token)
	assert.True(t, domainerrors.Is(err, domainerrors.ErrUnauthorized))
}

func TestVerifyAccessToken_Expired(t *testing.T) {
	env := newTestEnv(t)
	user := env.createUser(t, "alice")

	short, err := auth.NewTokenService(bytes.Repeat([]byte("k"), 32), time.Millisecond)
	require.NoError(t, err)
	svc := NewAuthService(env.store, short, validation.New(), testLogger())

	token, err := short.GenerateAccessToken(user)
	require.NoError(t, err)

	// jwt validates with second granularity plus zero leeway.
	time.Sleep(1100 * time.Millisecond)

	_, _, err = svc.VerifyAccessToken(context.Background(), token)
	require.Error(t, err)
	assert.True(t, domainerrors.Is(err, domainerrors.ErrTokenExpired))
}
