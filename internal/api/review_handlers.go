package api

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/bookshelfapp/bookshelf-server/internal/domain"
	"github.com/bookshelfapp/bookshelf-server/internal/service"
)

func (s *Server) registerReviewRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID:   "createReview",
		Method:        http.MethodPost,
		Path:          "/books/{id}/reviews",
		Summary:       "Create review",
		Description:   "Adds the caller's review of a book. A user may review a book once.",
		Tags:          []string{"Reviews"},
		Security:      []map[string][]string{{"bearer": {}}},
		DefaultStatus: http.StatusCreated,
	}, s.handleCreateReview)

	huma.Register(s.api, huma.Operation{
		OperationID: "listReviews",
		Method:      http.MethodGet,
		Path:        "/books/{id}/reviews",
		Summary:     "List reviews",
		Description: "Returns a book's reviews newest first",
		Tags:        []string{"Reviews"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleListReviews)

	huma.Register(s.api, huma.Operation{
		OperationID: "updateReview",
		Method:      http.MethodPut,
		Path:        "/reviews/{id}",
		Summary:     "Update review",
		Description: "Updates the provided fields of the caller's own review",
		Tags:        []string{"Reviews"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleUpdateReview)

	huma.Register(s.api, huma.Operation{
		OperationID:   "deleteReview",
		Method:        http.MethodDelete,
		Path:          "/reviews/{id}",
		Summary:       "Delete review",
		Description:   "Deletes the caller's own review",
		Tags:          []string{"Reviews"},
		Security:      []map[string][]string{{"bearer": {}}},
		DefaultStatus: http.StatusNoContent,
	}, s.handleDeleteReview)
}

// === DTOs ===

// ReviewResponse contains review data in API responses.
type ReviewResponse struct {
	ID         int64     `json:"id" doc:"Review ID"`
	BookID     int64     `json:"book_id" doc:"Reviewed book"`
	UserID     int64     `json:"user_id" doc:"Author of the review"`
	Rating     int       `json:"rating" doc:"Rating from 1 to 5"`
	ReviewText string    `json:"review_text" doc:"Review body"`
	CreatedAt  time.Time `json:"created_at" doc:"Creation time"`
	UpdatedAt  time.Time `json:"updated_at" doc:"Last update time"`
}

// ReviewOutput wraps the review response for Huma.
type ReviewOutput struct {
	Body ReviewResponse
}

// CreateReviewRequest is the request body for creating a review.
type CreateReviewRequest struct {
	Rating     int    `json:"rating" doc:"Rating from 1 to 5"`
	ReviewText string `json:"review_text" doc:"Review body, 10 to 5000 characters"`
}

// CreateReviewInput wraps the create review request for Huma.
type CreateReviewInput struct {
	Authorization string `header:"Authorization"`
	BookID        int64  `path:"id" doc:"Book ID"`
	Body          CreateReviewRequest
}

// ListReviewsInput contains parameters for listing a book's reviews.
type ListReviewsInput struct {
	Authorization string `header:"Authorization"`
	BookID        int64  `path:"id" doc:"Book ID"`
	Skip          int    `query:"skip" doc:"Number of reviews to skip"`
	Limit         int    `query:"limit" doc:"Page size (default and maximum set by the server)"`
}

// ListReviewsOutput wraps the review list for Huma.
type ListReviewsOutput struct {
	Body []ReviewResponse
}

// UpdateReviewRequest is the request body for updating a review.
type UpdateReviewRequest struct {
	Rating     *int    `json:"rating,omitempty" doc:"Rating from 1 to 5"`
	ReviewText *string `json:"review_text,omitempty" doc:"Review body"`
}

// UpdateReviewInput wraps the update review request for Huma.
type UpdateReviewInput struct {
	Authorization string `header:"Authorization"`
	ID            int64  `path:"id" doc:"Review ID"`
	Body          UpdateReviewRequest
}

// DeleteReviewInput addresses a single review.
type DeleteReviewInput struct {
	Authorization string `header:"Authorization"`
	ID            int64  `path:"id" doc:"Review ID"`
}

// === Handlers ===

func (s *Server) handleCreateReview(ctx context.Context, input *CreateReviewInput) (*ReviewOutput, error) {
	user, err := s.authenticateRequest(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}

	review, err := s.services.Review.CreateReview(ctx, input.BookID, user.ID, service.CreateReviewRequest{
		Rating:     input.Body.Rating,
		ReviewText: input.Body.ReviewText,
	})
	if err != nil {
		return nil, err
	}

	return &ReviewOutput{Body: mapReviewResponse(review)}, nil
}

func (s *Server) handleListReviews(ctx context.Context, input *ListReviewsInput) (*ListReviewsOutput, error) {
	if _, err := s.authenticateRequest(ctx, input.Authorization); err != nil {
		return nil, err
	}

	reviews, err := s.services.Review.ListReviews(ctx, input.BookID, pageParams(input.Skip, input.Limit))
	if err != nil {
		return nil, err
	}

	resp := make([]ReviewResponse, len(reviews))
	for i, r := range reviews {
		resp[i] = mapReviewResponse(r)
	}

	return &ListReviewsOutput{Body: resp}, nil
}

func (s *Server) handleUpdateReview(ctx context.Context, input *UpdateReviewInput) (*ReviewOutput, error) {
	user, err := s.authenticateRequest(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}

	review, err := s.services.Review.UpdateReview(ctx, input.ID, user.ID, service.UpdateReviewRequest{
		Rating:     input.Body.Rating,
		ReviewText: input.Body.ReviewText,
	})
	if err != nil {
		return nil, err
	}

	return &ReviewOutput{Body: mapReviewResponse(review)}, nil
}

func (s *Server) handleDeleteReview(ctx context.Context, input *DeleteReviewInput) (*struct{}, error) {
	user, err := s.authenticateRequest(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}

	if err := s.services.Review.DeleteReview(ctx, input.ID, user.ID); err != nil {
		return nil, err
	}

	return nil, nil
}

func mapReviewResponse(r *domain.Review) ReviewResponse {
	return ReviewResponse{
		ID:         r.ID,
		BookID:     r.BookID,
		UserID:     r.UserID,
		Rating:     r.Rating,
		ReviewText: r.ReviewText,
		CreatedAt:  r.CreatedAt,
		UpdatedAt:  r.UpdatedAt,
	}
}
