package service

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/bookshelfapp/bookshelf-server/internal/cache"
	"github.com/bookshelfapp/bookshelf-server/internal/domain"
	"github.com/bookshelfapp/bookshelf-server/internal/store"
	"github.com/bookshelfapp/bookshelf-server/internal/validation"
)

// Recommendation listing bounds.
const (
	MinRecommendationLimit     = 1
	MaxRecommendationLimit     = 50
	DefaultRecommendationLimit = 10
)

const (
	recommendationKeyPrefix  = "recommendations:"
	recommendationKeyPattern = recommendationKeyPrefix + "*"
	noGenre                  = "None"
)

// RecommendationKey returns the cache key for one (genre, limit) listing.
// An empty genre is rendered as "None".
func RecommendationKey(genre string, limit int) string {
	if genre == "" {
		genre = noGenre
	}
	return recommendationKeyPrefix + "genre=" + genre + ":limit=" + strconv.Itoa(limit)
}

// RecommendationService serves ranked book listings through the cache.
//
// Listings are computed from the store on a miss and written back with the
// default TTL. Every mutation that changes rating aggregates must call
// InvalidateAll after its write commits.
type RecommendationService struct {
	store     store.RecommendationStore
	cache     cache.Cache
	validator *validation.Validator
	ttl       time.Duration
	logger    *slog.Logger
}

// NewRecommendationService creates a new recommendation service. A ttl of
// zero defers to the cache's default.
func NewRecommendationService(
	st store.RecommendationStore,
	c cache.Cache,
	v *validation.Validator,
	ttl time.Duration,
	logger *slog.Logger,
) *RecommendationService {
	return &RecommendationService{
		store:     st,
		cache:     c,
		validator: v,
		ttl:       ttl,
		logger:    logger,
	}
}

// GetRecommendations returns up to limit books ranked by review count, then
// mean rating, then id. The bool reports whether the listing came from the
// cache.
func (s *RecommendationService) GetRecommendations(ctx context.Context, genre string, limit int) ([]domain.Recommendation, bool, error) {
	if err := s.validator.Var("limit", limit, fmt.Sprintf("gte=%d,lte=%d", MinRecommendationLimit, MaxRecommendationLimit)); err != nil {
		return nil, false, err
	}

	key := RecommendationKey(genre, limit)

	var cached []domain.Recommendation
	if s.cache.Get(ctx, key, &cached) {
		if cached == nil {
			cached = []domain.Recommendation{}
		}
		return cached, true, nil
	}

	recs, err := s.store.ListRecommendations(ctx, genre, limit)
	if err != nil {
		return nil, false, fmt.Errorf("list recommendations: %w", err)
	}
	if recs == nil {
		recs = []domain.Recommendation{}
	}

	s.cache.Set(ctx, key, recs, s.ttl)

	return recs, false, nil
}

// InvalidateAll drops every cached listing and returns the number of keys
// removed.
func (s *RecommendationService) InvalidateAll(ctx context.Context) int {
	return s.cache.DeleteMatching(ctx, recommendationKeyPattern)
}
