package api

import (
	"context"
	"strings"

	"github.com/danielgtaylor/huma/v2"

	"github.com/bookshelfapp/bookshelf-server/internal/domain"
	domainerrors "github.com/bookshelfapp/bookshelf-server/internal/errors"
	"github.com/bookshelfapp/bookshelf-server/internal/store"
)

// authenticateRequest validates the Authorization header and returns the
// authenticated user. Token failures keep the service's message, so an
// expired token reads differently from a forged one.
func (s *Server) authenticateRequest(ctx context.Context, authHeader string) (*domain.User, error) {
	if authHeader == "" {
		return nil, huma.Error401Unauthorized("Missing authorization header")
	}

	scheme, token, ok := strings.Cut(authHeader, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") || token == "" {
		return nil, huma.Error401Unauthorized("Invalid authorization header format")
	}

	user, _, err := s.services.Auth.VerifyAccessToken(ctx, token)
	if err != nil {
		var de *domainerrors.Error
		if domainerrors.As(err, &de) {
			return nil, de
		}
		return nil, huma.Error401Unauthorized("Invalid or expired token")
	}

	return user, nil
}

// pageParams converts query paging into store paging.
func pageParams(skip, limit int) store.PageParams {
	return store.PageParams{Skip: skip, Limit: limit}
}
