package api

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/bookshelfapp/bookshelf-server/internal/domain"
	"github.com/bookshelfapp/bookshelf-server/internal/service"
)

func (s *Server) registerBookRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID:   "createBook",
		Method:        http.MethodPost,
		Path:          "/books",
		Summary:       "Create book",
		Description:   "Adds a book to the catalog",
		Tags:          []string{"Books"},
		Security:      []map[string][]string{{"bearer": {}}},
		DefaultStatus: http.StatusCreated,
	}, s.handleCreateBook)

	huma.Register(s.api, huma.Operation{
		OperationID: "listBooks",
		Method:      http.MethodGet,
		Path:        "/books",
		Summary:     "List books",
		Description: "Returns books newest first with offset pagination",
		Tags:        []string{"Books"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleListBooks)

	huma.Register(s.api, huma.Operation{
		OperationID: "getBook",
		Method:      http.MethodGet,
		Path:        "/books/{id}",
		Summary:     "Get book",
		Description: "Returns a book by ID",
		Tags:        []string{"Books"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleGetBook)

	huma.Register(s.api, huma.Operation{
		OperationID: "updateBook",
		Method:      http.MethodPut,
		Path:        "/books/{id}",
		Summary:     "Update book",
		Description: "Updates the provided fields of a book",
		Tags:        []string{"Books"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleUpdateBook)

	huma.Register(s.api, huma.Operation{
		OperationID:   "deleteBook",
		Method:        http.MethodDelete,
		Path:          "/books/{id}",
		Summary:       "Delete book",
		Description:   "Deletes a book and all of its reviews",
		Tags:          []string{"Books"},
		Security:      []map[string][]string{{"bearer": {}}},
		DefaultStatus: http.StatusNoContent,
	}, s.handleDeleteBook)

	huma.Register(s.api, huma.Operation{
		OperationID: "getBookSummary",
		Method:      http.MethodGet,
		Path:        "/books/{id}/summary",
		Summary:     "Get book summary",
		Description: "Returns the book with its average rating and review count",
		Tags:        []string{"Books"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleGetBookSummary)
}

// === DTOs ===

// BookResponse contains book data in API responses.
type BookResponse struct {
	ID            int64     `json:"id" doc:"Book ID"`
	Title         string    `json:"title" doc:"Title"`
	Author        string    `json:"author" doc:"Author"`
	Genre         string    `json:"genre" doc:"Genre"`
	YearPublished int       `json:"year_published" doc:"Year of first publication"`
	Summary       *string   `json:"summary" doc:"AI-generated summary, null until generated"`
	CreatedAt     time.Time `json:"created_at" doc:"Creation time"`
	UpdatedAt     time.Time `json:"updated_at" doc:"Last update time"`
}

// BookOutput wraps the book response for Huma.
type BookOutput struct {
	Body BookResponse
}

// ListBooksInput contains parameters for listing books.
type ListBooksInput struct {
	Authorization string `header:"Authorization"`
	Skip          int    `query:"skip" doc:"Number of books to skip"`
	Limit         int    `query:"limit" doc:"Page size (default and maximum set by the server)"`
}

// ListBooksOutput wraps the book list for Huma.
type ListBooksOutput struct {
	Body []BookResponse
}

// CreateBookRequest is the request body for creating a book.
type CreateBookRequest struct {
	Title         string `json:"title" doc:"Title, 1 to 500 characters"`
	Author        string `json:"author" doc:"Author, 1 to 255 characters"`
	Genre         string `json:"genre" doc:"Genre, 1 to 100 characters"`
	YearPublished int    `json:"year_published" doc:"Year of first publication, 1000 to 2100"`
}

// CreateBookInput wraps the create book request for Huma.
type CreateBookInput struct {
	Authorization string `header:"Authorization"`
	Body          CreateBookRequest
}

// BookIDInput addresses a single book.
type BookIDInput struct {
	Authorization string `header:"Authorization"`
	ID            int64  `path:"id" doc:"Book ID"`
}

// UpdateBookRequest is the request body for updating a book.
type UpdateBookRequest struct {
	Title         *string `json:"title,omitempty" doc:"Title"`
	Author        *string `json:"author,omitempty" doc:"Author"`
	Genre         *string `json:"genre,omitempty" doc:"Genre"`
	YearPublished *int    `json:"year_published,omitempty" doc:"Year of first publication"`
	Summary       *string `json:"summary,omitempty" doc:"Replaces the stored summary"`
}

// UpdateBookInput wraps the update book request for Huma.
type UpdateBookInput struct {
	Authorization string `header:"Authorization"`
	ID            int64  `path:"id" doc:"Book ID"`
	Body          UpdateBookRequest
}

// BookSummaryResponse contains the aggregated rating of a book.
type BookSummaryResponse struct {
	ID            int64   `json:"id" doc:"Book ID"`
	Title         string  `json:"title" doc:"Title"`
	Author        string  `json:"author" doc:"Author"`
	Summary       *string `json:"summary" doc:"AI-generated summary, null until generated"`
	AverageRating float64 `json:"average_rating" doc:"Mean rating, 0 when the book has no reviews"`
	TotalReviews  int     `json:"total_reviews" doc:"Number of reviews"`
}

// BookSummaryOutput wraps the book summary for Huma.
type BookSummaryOutput struct {
	Body BookSummaryResponse
}

// === Handlers ===

func (s *Server) handleCreateBook(ctx context.Context, input *CreateBookInput) (*BookOutput, error) {
	if _, err := s.authenticateRequest(ctx, input.Authorization); err != nil {
		return nil, err
	}

	book, err := s.services.Book.CreateBook(ctx, service.CreateBookRequest{
		Title:         input.Body.Title,
		Author:        input.Body.Author,
		Genre:         input.Body.Genre,
		YearPublished: input.Body.YearPublished,
	})
	if err != nil {
		return nil, err
	}

	return &BookOutput{Body: mapBookResponse(book)}, nil
}

func (s *Server) handleListBooks(ctx context.Context, input *ListBooksInput) (*ListBooksOutput, error) {
	if _, err := s.authenticateRequest(ctx, input.Authorization); err != nil {
		return nil, err
	}

	books, err := s.services.Book.ListBooks(ctx, pageParams(input.Skip, input.Limit))
	if err != nil {
		return nil, err
	}

	resp := make([]BookResponse, len(books))
	for i, b := range books {
		resp[i] = mapBookResponse(b)
	}

	return &ListBooksOutput{Body: resp}, nil
}

func (s *Server) handleGetBook(ctx context.Context, input *BookIDInput) (*BookOutput, error) {
	if _, err := s.authenticateRequest(ctx, input.Authorization); err != nil {
		return nil, err
	}

	book, err := s.services.Book.GetBook(ctx, input.ID)
	if err != nil {
		return nil, err
	}

	return &BookOutput{Body: mapBookResponse(book)}, nil
}

func (s *Server) handleUpdateBook(ctx context.Context, input *UpdateBookInput) (*BookOutput, error) {
	if _, err := s.authenticateRequest(ctx, input.Authorization); err != nil {
		return nil, err
	}

	book, err := s.services.Book.UpdateBook(ctx, input.ID, service.UpdateBookRequest{
		Title:         input.Body.Title,
		Author:        input.Body.Author,
		Genre:         input.Body.Genre,
		YearPublished: input.Body.YearPublished,
		Summary:       input.Body.Summary,
	})
	if err != nil {
		return nil, err
	}

	return &BookOutput{Body: mapBookResponse(book)}, nil
}

func (s *Server) handleDeleteBook(ctx context.Context, input *BookIDInput) (*struct{}, error) {
	if _, err := s.authenticateRequest(ctx, input.Authorization); err != nil {
		return nil, err
	}

	if err := s.services.Book.DeleteBook(ctx, input.ID); err != nil {
		return nil, err
	}

	return nil, nil
}

func (s *Server) handleGetBookSummary(ctx context.Context, input *BookIDInput) (*BookSummaryOutput, error) {
	if _, err := s.authenticateRequest(ctx, input.Authorization); err != nil {
		return nil, err
	}

	summary, err := s.services.Book.GetBookSummary(ctx, input.ID)
	if err != nil {
		return nil, err
	}

	return &BookSummaryOutput{
		Body: BookSummaryResponse{
			ID:            summary.ID,
			Title:         summary.Title,
			Author:        summary.Author,
			Summary:       optionalString(summary.Summary),
			AverageRating: summary.AverageRating,
			TotalReviews:  summary.TotalReviews,
		},
	}, nil
}

func mapBookResponse(b *domain.Book) BookResponse {
	return BookResponse{
		ID:            b.ID,
		Title:         b.Title,
		Author:        b.Author,
		Genre:         b.Genre,
		YearPublished: b.YearPublished,
		Summary:       optionalString(b.Summary),
		CreatedAt:     b.CreatedAt,
		UpdatedAt:     b.UpdatedAt,
	}
}

func optionalString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
