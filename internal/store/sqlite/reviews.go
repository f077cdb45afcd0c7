package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/bookshelfapp/bookshelf-server/internal/domain"
	"github.com/bookshelfapp/bookshelf-server/internal/store"
)

// reviewColumns must match the scan order in scanReview.
const reviewColumns = `id, created_at, updated_at, book_id, user_id, rating, review_text`

func scanReview(scanner interface{ Scan(dest ...any) error }) (*domain.Review, error) {
	var (
		r         domain.Review
		createdAt string
		updatedAt string
	)

	err := scanner.Scan(
		&r.ID,
		&createdAt,
		&updatedAt,
		&r.BookID,
		&r.UserID,
		&r.Rating,
		&r.ReviewText,
	)
	if err != nil {
		return nil, err
	}

	if r.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if r.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}
	return &r, nil
}

// CreateReview inserts review and sets its ID.
// Returns store.ErrReviewExists when the user already reviewed the book and
// store.ErrBookNotFound when the book does not exist.
func (s *Store) CreateReview(ctx context.Context, review *domain.Review) error {
	if review.CreatedAt.IsZero() {
		review.InitTimestamps()
	}

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO reviews (
			created_at, updated_at, book_id, user_id, rating, review_text
		) VALUES (?, ?, ?, ?, ?, ?)`,
		formatTime(review.CreatedAt),
		formatTime(review.UpdatedAt),
		review.BookID,
		review.UserID,
		review.Rating,
		review.ReviewText,
	)
	if err != nil {
		switch {
		case isUniqueViolation(err):
			return store.ErrReviewExists
		case isForeignKeyViolation(err):
			return store.ErrBookNotFound
		}
		return fmt.Errorf("insert review: %w", err)
	}

	review.ID, err = res.LastInsertId()
	if err != nil {
		return fmt.Errorf("review id: %w", err)
	}
	return nil
}

// GetReview retrieves a review by ID.
func (s *Store) GetReview(ctx context.Context, id int64) (*domain.Review, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+reviewColumns+` FROM reviews WHERE id = ?`, id)
	return scanReviewRow(row)
}

// GetReviewByBookAndUser returns the single review userID wrote for bookID.
func (s *Store) GetReviewByBookAndUser(ctx context.Context, bookID, userID int64) (*domain.Review, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+reviewColumns+` FROM reviews WHERE book_id = ? AND user_id = ?`,
		bookID, userID)
	return scanReviewRow(row)
}

func scanReviewRow(row *sql.Row) (*domain.Review, error) {
	r, err := scanReview(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrReviewNotFound
	}
	if err != nil {
		return nil, err
	}
	return r, nil
}

// ListReviewsByBook returns a book's reviews newest first.
func (s *Store) ListReviewsByBook(ctx context.Context, bookID int64, page store.PageParams) ([]*domain.Review, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+reviewColumns+` FROM reviews
		WHERE book_id = ?
		ORDER BY created_at DESC, id DESC
		LIMIT ? OFFSET ?`, bookID, page.Limit, page.Skip)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	reviews := make([]*domain.Review, 0, page.Limit)
	for rows.Next() {
		r, err := scanReview(rows)
		if err != nil {
			return nil, err
		}
		reviews = append(reviews, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return reviews, nil
}

// UpdateReview writes the rating and text of review.
func (s *Store) UpdateReview(ctx context.Context, review *domain.Review) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE reviews SET updated_at = ?, rating = ?, review_text = ?
		WHERE id = ?`,
		formatTime(review.UpdatedAt),
		review.Rating,
		review.ReviewText,
		review.ID,
	)
	if err != nil {
		return fmt.Errorf("update review: %w", err)
	}
	return requireAffected(res, store.ErrReviewNotFound)
}

// DeleteReview deletes a review by ID.
func (s *Store) DeleteReview(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM reviews WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete review: %w", err)
	}
	return requireAffected(res, store.ErrReviewNotFound)
}
