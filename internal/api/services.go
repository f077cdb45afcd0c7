package api

import (
	"github.com/bookshelfapp/bookshelf-server/internal/service"
)

// Services groups all business logic services used by the API server.
// This reduces the parameter count for NewServer and improves testability.
type Services struct {
	Auth           *service.AuthService
	Book           *service.BookService
	Review         *service.ReviewService
	Summary        *service.SummaryService
	Recommendation *service.RecommendationService
}
