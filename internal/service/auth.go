package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/bookshelfapp/bookshelf-server/internal/auth"
	"github.com/bookshelfapp/bookshelf-server/internal/domain"
	domainerrors "github.com/bookshelfapp/bookshelf-server/internal/errors"
	"github.com/bookshelfapp/bookshelf-server/internal/store"
	"github.com/bookshelfapp/bookshelf-server/internal/validation"
)

const (
	msgEmailTaken     = "Email already registered"
	msgUsernameTaken  = "Username already taken"
	msgBadCredentials = "Incorrect username or password"
	msgInactiveUser   = "Inactive user"
	msgInvalidToken   = "Could not validate credentials"
	msgExpiredToken   = "Token has expired"
	tokenTypeBearer   = "bearer"
)

// AuthService handles registration, login, and token verification.
type AuthService struct {
	store        store.UserStore
	tokenService *auth.TokenService
	validator    *validation.Validator
	logger       *slog.Logger
}

// NewAuthService creates a new authentication service.
func NewAuthService(
	st store.UserStore,
	tokenService *auth.TokenService,
	v *validation.Validator,
	logger *slog.Logger,
) *AuthService {
	return &AuthService{
		store:        st,
		tokenService: tokenService,
		validator:    v,
		logger:       logger,
	}
}

// RegisterRequest contains the fields of a new account.
type RegisterRequest struct {
	Email    string      `json:"email" validate:"required,email"`
	Username string      `json:"username" validate:"required,min=3,max=50"`
	FullName string      `json:"full_name,omitempty" validate:"max=255"`
	Password string      `json:"password" validate:"required,min=8,max=100"`
	Role     domain.Role `json:"role,omitempty" validate:"omitempty,oneof=admin user"`
}

// LoginRequest contains user credentials. Username may also be the
// account's email.
type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// TokenResponse is returned by a successful login.
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
}

// Register creates a user account with the default role unless one is given.
func (s *AuthService) Register(ctx context.Context, req RegisterRequest) (*domain.User, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	if _, err := s.store.GetUserByEmail(ctx, req.Email); err == nil {
		return nil, domainerrors.AlreadyExists(msgEmailTaken)
	} else if !errors.Is(err, store.ErrUserNotFound) {
		return nil, fmt.Errorf("check email: %w", err)
	}

	if _, err := s.store.GetUserByUsername(ctx, req.Username); err == nil {
		return nil, domainerrors.AlreadyExists(msgUsernameTaken)
	} else if !errors.Is(err, store.ErrUserNotFound) {
		return nil, fmt.Errorf("check username: %w", err)
	}

	passwordHash, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	role := req.Role
	if role == "" {
		role = domain.RoleUser
	}

	user := &domain.User{
		Email:        req.Email,
		Username:     req.Username,
		FullName:     req.FullName,
		PasswordHash: passwordHash,
		Role:         role,
		Active:       true,
	}
	user.InitTimestamps()

	if err := s.store.CreateUser(ctx, user); err != nil {
		// The pre-checks can lose a race; the unique indexes settle it.
		switch {
		case errors.Is(err, store.ErrEmailExists):
			return nil, domainerrors.AlreadyExists(msgEmailTaken)
		case errors.Is(err, store.ErrUsernameExists):
			return nil, domainerrors.AlreadyExists(msgUsernameTaken)
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	s.logger.Info("user registered",
		"user_id", user.ID,
		"username", user.Username,
		"role", user.Role,
	)
	return user, nil
}

// Login verifies credentials and issues an access token.
func (s *AuthService) Login(ctx context.Context, req LoginRequest) (*TokenResponse, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	user, err := s.store.GetUserByLogin(ctx, req.Username)
	if err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			return nil, domainerrors.InvalidCredentials(msgBadCredentials)
		}
		return nil, fmt.Errorf("lookup user: %w", err)
	}

	if !auth.VerifyPassword(user.PasswordHash, req.Password) {
		return nil, domainerrors.InvalidCredentials(msgBadCredentials)
	}

	if !user.IsActive() {
		return nil, domainerrors.Forbidden(msgInactiveUser)
	}

	token, err := s.tokenService.GenerateAccessToken(user)
	if err != nil {
		return nil, fmt.Errorf("generate token: %w", err)
	}

	s.logger.Info("user logged in", "user_id", user.ID)

	return &TokenResponse{
		AccessToken: token,
		TokenType:   tokenTypeBearer,
		ExpiresIn:   int64(s.tokenService.AccessDuration().Seconds()),
	}, nil
}

// VerifyAccessToken validates a bearer token and loads its user.
// Used by authentication middleware.
func (s *AuthService) VerifyAccessToken(ctx context.Context, tokenString string) (*domain.User, *auth.AccessClaims, error) {
	claims, err := s.tokenService.VerifyAccessToken(tokenString)
	if err != nil {
		if errors.Is(err, auth.ErrTokenExpired) {
			return nil, nil, domainerrors.TokenExpired(msgExpiredToken)
		}
		return nil, nil, domainerrors.Unauthorized(msgInvalidToken).WithCause(err)
	}

	userID, err := claims.UserID()
	if err != nil {
		return nil, nil, domainerrors.Unauthorized(msgInvalidToken).WithCause(err)
	}

	user, err := s.store.GetUser(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			return nil, nil, domainerrors.Unauthorized(msgInvalidToken)
		}
		return nil, nil, fmt.Errorf("get user: %w", err)
	}

	if !user.IsActive() {
		return nil, nil, domainerrors.Forbidden(msgInactiveUser)
	}

	return user, claims, nil
}
