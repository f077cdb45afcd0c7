package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/bookshelfapp/bookshelf-server/internal/service"
)

func (s *Server) registerAIRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "generateSummary",
		Method:      http.MethodPost,
		Path:        "/generate-summary",
		Summary:     "Generate summary",
		Description: "Summarizes the given content with the configured language model and stores the result on the book",
		Tags:        []string{"AI & Recommendations"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleGenerateSummary)

	huma.Register(s.api, huma.Operation{
		OperationID: "getRecommendations",
		Method:      http.MethodGet,
		Path:        "/recommendations",
		Summary:     "Get recommendations",
		Description: "Ranks books by review count then average rating. Results are cached until the next catalog or review change.",
		Tags:        []string{"AI & Recommendations"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleGetRecommendations)
}

// === DTOs ===

// GenerateSummaryRequest is the request body for summary generation.
type GenerateSummaryRequest struct {
	BookID  int64  `json:"book_id" doc:"Book to attach the summary to"`
	Content string `json:"content" doc:"Text to summarize, 50 to 50000 characters"`
}

// GenerateSummaryInput wraps the summary request for Huma.
type GenerateSummaryInput struct {
	Authorization string `header:"Authorization"`
	Body          GenerateSummaryRequest
}

// GenerateSummaryResponse contains the generated summary.
type GenerateSummaryResponse struct {
	Summary   string `json:"summary" doc:"Generated summary"`
	WordCount int    `json:"word_count" doc:"Number of whitespace separated words in the summary"`
}

// GenerateSummaryOutput wraps the summary response for Huma.
type GenerateSummaryOutput struct {
	Body GenerateSummaryResponse
}

// RecommendationsInput contains parameters for recommendations.
type RecommendationsInput struct {
	Authorization string `header:"Authorization"`
	Genre         string `query:"genre" doc:"Case-insensitive genre substring filter"`
	Limit         int    `query:"limit" default:"10" doc:"Number of recommendations, 1 to 50"`
}

// RecommendationResponse is one ranked book.
type RecommendationResponse struct {
	ID            int64    `json:"id" doc:"Book ID"`
	Title         string   `json:"title" doc:"Title"`
	Author        string   `json:"author" doc:"Author"`
	Genre         string   `json:"genre" doc:"Genre"`
	AverageRating *float64 `json:"average_rating" doc:"Mean rating, null when the book has no reviews"`
	TotalReviews  int      `json:"total_reviews" doc:"Number of reviews"`
}

// RecommendationsResponse contains the ranked list.
type RecommendationsResponse struct {
	Recommendations []RecommendationResponse `json:"recommendations" doc:"Ranked books"`
	Total           int                      `json:"total" doc:"Number of recommendations returned"`
	Cached          bool                     `json:"cached" doc:"Whether the list was served from cache"`
}

// RecommendationsOutput wraps the recommendations for Huma.
type RecommendationsOutput struct {
	Body RecommendationsResponse
}

// === Handlers ===

func (s *Server) handleGenerateSummary(ctx context.Context, input *GenerateSummaryInput) (*GenerateSummaryOutput, error) {
	if _, err := s.authenticateRequest(ctx, input.Authorization); err != nil {
		return nil, err
	}

	resp, err := s.services.Summary.GenerateSummary(ctx, service.GenerateSummaryRequest{
		BookID:  input.Body.BookID,
		Content: input.Body.Content,
	})
	if err != nil {
		return nil, err
	}

	return &GenerateSummaryOutput{
		Body: GenerateSummaryResponse{
			Summary:   resp.Summary,
			WordCount: resp.WordCount,
		},
	}, nil
}

func (s *Server) handleGetRecommendations(ctx context.Context, input *RecommendationsInput) (*RecommendationsOutput, error) {
	if _, err := s.authenticateRequest(ctx, input.Authorization); err != nil {
		return nil, err
	}

	recs, cached, err := s.services.Recommendation.GetRecommendations(ctx, input.Genre, input.Limit)
	if err != nil {
		return nil, err
	}

	resp := make([]RecommendationResponse, len(recs))
	for i, r := range recs {
		resp[i] = RecommendationResponse{
			ID:            r.ID,
			Title:         r.Title,
			Author:        r.Author,
			Genre:         r.Genre,
			AverageRating: r.AverageRating,
			TotalReviews:  r.TotalReviews,
		}
	}

	return &RecommendationsOutput{
		Body: RecommendationsResponse{
			Recommendations: resp,
			Total:           len(resp),
			Cached:          cached,
		},
	}, nil
}
