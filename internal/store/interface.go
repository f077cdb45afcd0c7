// Package store defines the persistence interface for the bookshelf server.
package store

import (
	"context"

	"github.com/bookshelfapp/bookshelf-server/internal/domain"
)

// Store defines every persistence operation. Services depend on the narrower
// interfaces below.
type Store interface {
	UserStore
	BookStore
	ReviewStore
	RecommendationStore

	// Lifecycle
	Ping(ctx context.Context) error
	Close() error
}

// UserStore persists user accounts.
type UserStore interface {
	CreateUser(ctx context.Context, user *domain.User) error
	GetUser(ctx context.Context, id int64) (*domain.User, error)
	GetUserByEmail(ctx context.Context, email string) (*domain.User, error)
	GetUserByUsername(ctx context.Context, username string) (*domain.User, error)
	// GetUserByLogin matches identifier against username or email.
	GetUserByLogin(ctx context.Context, identifier string) (*domain.User, error)
}

// BookStore persists books. Deleting a book deletes its reviews.
type BookStore interface {
	CreateBook(ctx context.Context, book *domain.Book) error
	GetBook(ctx context.Context, id int64) (*domain.Book, error)
	BookExists(ctx context.Context, id int64) (bool, error)
	ListBooks(ctx context.Context, page PageParams) ([]*domain.Book, error)
	UpdateBook(ctx context.Context, book *domain.Book) error
	SetBookSummary(ctx context.Context, id int64, summary string) error
	DeleteBook(ctx context.Context, id int64) error
}

// ReviewStore persists reviews.
type ReviewStore interface {
	CreateReview(ctx context.Context, review *domain.Review) error
	GetReview(ctx context.Context, id int64) (*domain.Review, error)
	GetReviewByBookAndUser(ctx context.Context, bookID, userID int64) (*domain.Review, error)
	ListReviewsByBook(ctx context.Context, bookID int64, page PageParams) ([]*domain.Review, error)
	UpdateReview(ctx context.Context, review *domain.Review) error
	DeleteReview(ctx context.Context, id int64) error
}

// RecommendationStore runs the rating aggregate queries.
type RecommendationStore interface {
	// ListRecommendations ranks books by review count then mean rating.
	// An empty genre disables the filter; otherwise genre is matched as a
	// case-insensitive substring.
	ListRecommendations(ctx context.Context, genre string, limit int) ([]domain.Recommendation, error)
	// GetBookSummary returns ErrBookNotFound when the book does not exist.
	GetBookSummary(ctx context.Context, bookID int64) (*domain.BookSummary, error)
}
