// Package service holds the business logic of the book catalog: accounts,
// books, reviews, AI summaries, and cached recommendations.
package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/bookshelfapp/bookshelf-server/internal/domain"
	"github.com/bookshelfapp/bookshelf-server/internal/store"
	"github.com/bookshelfapp/bookshelf-server/internal/validation"
)

// BookStore is the persistence the book service needs.
type BookStore interface {
	store.BookStore
	GetBookSummary(ctx context.Context, bookID int64) (*domain.BookSummary, error)
}

// BookService orchestrates book operations.
type BookService struct {
	store           BookStore
	recommendations *RecommendationService
	validator       *validation.Validator
	pageDefault     int
	pageMax         int
	logger          *slog.Logger
}

// NewBookService creates a new book service.
func NewBookService(
	st BookStore,
	recommendations *RecommendationService,
	v *validation.Validator,
	pageDefault, pageMax int,
	logger *slog.Logger,
) *BookService {
	return &BookService{
		store:           st,
		recommendations: recommendations,
		validator:       v,
		pageDefault:     pageDefault,
		pageMax:         pageMax,
		logger:          logger,
	}
}

// CreateBookRequest contains the fields of a new book.
type CreateBookRequest struct {
	Title         string `json:"title" validate:"required,min=1,max=500"`
	Author        string `json:"author" validate:"required,min=1,max=255"`
	Genre         string `json:"genre" validate:"required,min=1,max=100"`
	YearPublished int    `json:"year_published" validate:"gte=1000,lte=2100"`
}

// UpdateBookRequest is a partial update. Nil fields are left unchanged.
type UpdateBookRequest struct {
	Title         *string `json:"title,omitempty" validate:"omitnil,min=1,max=500"`
	Author        *string `json:"author,omitempty" validate:"omitnil,min=1,max=255"`
	Genre         *string `json:"genre,omitempty" validate:"omitnil,min=1,max=100"`
	YearPublished *int    `json:"year_published,omitempty" validate:"omitnil,gte=1000,lte=2100"`
	Summary       *string `json:"summary,omitempty"`
}

// CreateBook validates and persists a new book.
func (s *BookService) CreateBook(ctx context.Context, req CreateBookRequest) (*domain.Book, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	book := &domain.Book{
		Title:         req.Title,
		Author:        req.Author,
		Genre:         req.Genre,
		YearPublished: req.YearPublished,
	}
	book.InitTimestamps()

	if err := s.store.CreateBook(ctx, book); err != nil {
		return nil, fmt.Errorf("create book: %w", err)
	}

	s.recommendations.InvalidateAll(ctx)

	s.logger.Info("book created",
		"book_id", book.ID,
		"title", book.Title,
	)
	return book, nil
}

// ListBooks returns one page of books, newest first.
func (s *BookService) ListBooks(ctx context.Context, page store.PageParams) ([]*domain.Book, error) {
	if err := validatePage(s.validator, page, s.pageMax); err != nil {
		return nil, err
	}
	page = page.Normalize(s.pageDefault, s.pageMax)

	books, err := s.store.ListBooks(ctx, page)
	if err != nil {
		return nil, fmt.Errorf("list books: %w", err)
	}
	if books == nil {
		books = []*domain.Book{}
	}
	return books, nil
}

// GetBook retrieves a single book by ID.
func (s *BookService) GetBook(ctx context.Context, id int64) (*domain.Book, error) {
	book, err := s.store.GetBook(ctx, id)
	if err != nil {
		return nil, bookError("get book", id, err)
	}
	return book, nil
}

// UpdateBook applies a partial update. An empty update returns the book
// unchanged and leaves the cache alone.
func (s *BookService) UpdateBook(ctx context.Context, id int64, req UpdateBookRequest) (*domain.Book, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	book, err := s.store.GetBook(ctx, id)
	if err != nil {
		return nil, bookError("get book", id, err)
	}

	update := domain.BookUpdate{
		Title:         req.Title,
		Author:        req.Author,
		Genre:         req.Genre,
		YearPublished: req.YearPublished,
		Summary:       req.Summary,
	}
	if update.IsEmpty() {
		return book, nil
	}

	update.Apply(book)
	book.Touch()

	if err := s.store.UpdateBook(ctx, book); err != nil {
		return nil, bookError("update book", id, err)
	}

	s.recommendations.InvalidateAll(ctx)

	s.logger.Info("book updated", "book_id", id)
	return book, nil
}

// DeleteBook removes a book and, by cascade, its reviews.
func (s *BookService) DeleteBook(ctx context.Context, id int64) error {
	if err := s.store.DeleteBook(ctx, id); err != nil {
		return bookError("delete book", id, err)
	}

	s.recommendations.InvalidateAll(ctx)

	s.logger.Info("book deleted", "book_id", id)
	return nil
}

// GetBookSummary returns the book with its mean rating and review count.
// The mean is 0.0 when the book has no reviews.
func (s *BookService) GetBookSummary(ctx context.Context, id int64) (*domain.BookSummary, error) {
	summary, err := s.store.GetBookSummary(ctx, id)
	if err != nil {
		return nil, bookError("get book summary", id, err)
	}
	return summary, nil
}

// validatePage rejects a negative skip or a limit above maxSize. A zero
// limit selects the default page size.
func validatePage(v *validation.Validator, page store.PageParams, maxSize int) error {
	if err := v.Var("skip", page.Skip, "gte=0"); err != nil {
		return err
	}
	if maxSize <= 0 {
		maxSize = store.MaxPageSize
	}
	return v.Var("limit", page.Limit, fmt.Sprintf("gte=0,lte=%d", maxSize))
}
