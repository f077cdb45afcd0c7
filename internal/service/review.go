package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/bookshelfapp/bookshelf-server/internal/domain"
	domainerrors "github.com/bookshelfapp/bookshelf-server/internal/errors"
	"github.com/bookshelfapp/bookshelf-server/internal/store"
	"github.com/bookshelfapp/bookshelf-server/internal/validation"
)

// ReviewStore is the persistence the review service needs.
type ReviewStore interface {
	store.ReviewStore
	BookExists(ctx context.Context, id int64) (bool, error)
}

// ReviewService manages reviews. Every successful write invalidates the
// recommendation cache.
type ReviewService struct {
	store           ReviewStore
	recommendations *RecommendationService
	validator       *validation.Validator
	pageDefault     int
	pageMax         int
	logger          *slog.Logger
}

// NewReviewService creates a new review service.
func NewReviewService(
	st ReviewStore,
	recommendations *RecommendationService,
	v *validation.Validator,
	pageDefault, pageMax int,
	logger *slog.Logger,
) *ReviewService {
	return &ReviewService{
		store:           st,
		recommendations: recommendations,
		validator:       v,
		pageDefault:     pageDefault,
		pageMax:         pageMax,
		logger:          logger,
	}
}

// CreateReviewRequest contains the fields of a new review.
type CreateReviewRequest struct {
	Rating     int    `json:"rating" validate:"gte=1,lte=5"`
	ReviewText string `json:"review_text" validate:"required,min=10,max=5000"`
}

// UpdateReviewRequest is a partial update. Nil fields are left unchanged.
type UpdateReviewRequest struct {
	Rating     *int    `json:"rating,omitempty" validate:"omitnil,gte=1,lte=5"`
	ReviewText *string `json:"review_text,omitempty" validate:"omitnil,min=10,max=5000"`
}

// CreateReview adds userID's review of bookID. A user may review a book
// only once.
func (s *ReviewService) CreateReview(ctx context.Context, bookID, userID int64, req CreateReviewRequest) (*domain.Review, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	if err := s.requireBook(ctx, bookID); err != nil {
		return nil, err
	}

	_, err := s.store.GetReviewByBookAndUser(ctx, bookID, userID)
	switch {
	case err == nil:
		return nil, domainerrors.AlreadyExists("You have already reviewed this book")
	case !errors.Is(err, store.ErrReviewNotFound):
		return nil, fmt.Errorf("check existing review: %w", err)
	}

	review := &domain.Review{
		BookID:     bookID,
		UserID:     userID,
		Rating:     req.Rating,
		ReviewText: req.ReviewText,
	}
	review.InitTimestamps()

	if err := s.store.CreateReview(ctx, review); err != nil {
		switch {
		case errors.Is(err, store.ErrReviewExists):
			// Lost a race with a concurrent create by the same user.
			return nil, domainerrors.AlreadyExists("You have already reviewed this book")
		case errors.Is(err, store.ErrBookNotFound):
			return nil, bookNotFound(bookID)
		}
		return nil, fmt.Errorf("create review: %w", err)
	}

	s.recommendations.InvalidateAll(ctx)

	s.logger.Info("review created",
		"review_id", review.ID,
		"book_id", bookID,
		"user_id", userID,
		"rating", review.Rating,
	)
	return review, nil
}

// ListReviews returns one page of a book's reviews, newest first.
func (s *ReviewService) ListReviews(ctx context.Context, bookID int64, page store.PageParams) ([]*domain.Review, error) {
	if err := validatePage(s.validator, page, s.pageMax); err != nil {
		return nil, err
	}

	if err := s.requireBook(ctx, bookID); err != nil {
		return nil, err
	}

	reviews, err := s.store.ListReviewsByBook(ctx, bookID, page.Normalize(s.pageDefault, s.pageMax))
	if err != nil {
		return nil, fmt.Errorf("list reviews: %w", err)
	}
	if reviews == nil {
		reviews = []*domain.Review{}
	}
	return reviews, nil
}

// GetReview retrieves a single review by ID.
func (s *ReviewService) GetReview(ctx context.Context, id int64) (*domain.Review, error) {
	review, err := s.store.GetReview(ctx, id)
	if err != nil {
		return nil, reviewError("get review", id, err)
	}
	return review, nil
}

// UpdateReview applies a partial update to a review authored by userID.
func (s *ReviewService) UpdateReview(ctx context.Context, id, userID int64, req UpdateReviewRequest) (*domain.Review, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	review, err := s.GetReview(ctx, id)
	if err != nil {
		return nil, err
	}
	if review.UserID != userID {
		return nil, domainerrors.Forbidden("You can only update your own reviews")
	}

	if req.Rating == nil && req.ReviewText == nil {
		return review, nil
	}

	domain.ReviewUpdate{Rating: req.Rating, ReviewText: req.ReviewText}.Apply(review)
	review.Touch()

	if err := s.store.UpdateReview(ctx, review); err != nil {
		return nil, reviewError("update review", id, err)
	}

	s.recommendations.InvalidateAll(ctx)

	s.logger.Info("review updated", "review_id", id, "user_id", userID)
	return review, nil
}

// DeleteReview removes a review authored by userID.
func (s *ReviewService) DeleteReview(ctx context.Context, id, userID int64) error {
	review, err := s.GetReview(ctx, id)
	if err != nil {
		return err
	}
	if review.UserID != userID {
		return domainerrors.Forbidden("You can only delete your own reviews")
	}

	if err := s.store.DeleteReview(ctx, id); err != nil {
		return reviewError("delete review", id, err)
	}

	s.recommendations.InvalidateAll(ctx)

	s.logger.Info("review deleted", "review_id", id, "user_id", userID)
	return nil
}

func (s *ReviewService) requireBook(ctx context.Context, bookID int64) error {
	exists, err := s.store.BookExists(ctx, bookID)
	if err != nil {
		return fmt.Errorf("check book: %w", err)
	}
	if !exists {
		return bookNotFound(bookID)
	}
	return nil
}
