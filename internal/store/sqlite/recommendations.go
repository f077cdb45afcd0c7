package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/bookshelfapp/bookshelf-server/internal/domain"
	"github.com/bookshelfapp/bookshelf-server/internal/store"
)

// The genre argument is bound twice: once for the empty check, once escaped
// for LIKE. SQLite's LIKE is case-insensitive for ASCII.
const recommendationsQuery = `
	SELECT b.id, b.title, b.author, b.genre, AVG(r.rating), COUNT(r.id)
	FROM books b
	LEFT JOIN reviews r ON r.book_id = b.id
	WHERE (? = '' OR b.genre LIKE ? ESCAPE '\')
	GROUP BY b.id
	ORDER BY COUNT(r.id) DESC, AVG(r.rating) DESC, b.id ASC
	LIMIT ?`

// ListRecommendations ranks books by review count, then mean rating, then id.
// Books without reviews are included with a nil average.
func (s *Store) ListRecommendations(ctx context.Context, genre string, limit int) ([]domain.Recommendation, error) {
	pattern := "%" + escapeLike(genre) + "%"

	rows, err := s.db.QueryContext(ctx, recommendationsQuery, genre, pattern, limit)
	if err != nil {
		return nil, fmt.Errorf("query recommendations: %w", err)
	}
	defer rows.Close()

	recs := make([]domain.Recommendation, 0, limit)
	for rows.Next() {
		var (
			rec domain.Recommendation
			avg sql.NullFloat64
		)
		if err := rows.Scan(&rec.ID, &rec.Title, &rec.Author, &rec.Genre, &avg, &rec.TotalReviews); err != nil {
			return nil, err
		}
		if avg.Valid {
			v := avg.Float64
			rec.AverageRating = &v
		}
		recs = append(recs, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return recs, nil
}

// GetBookSummary returns the book with its mean rating, 0.0 when unreviewed.
func (s *Store) GetBookSummary(ctx context.Context, bookID int64) (*domain.BookSummary, error) {
	var (
		sum     domain.BookSummary
		summary sql.NullString
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT b.id, b.title, b.author, b.summary,
			COALESCE(AVG(r.rating), 0.0), COUNT(r.id)
		FROM books b
		LEFT JOIN reviews r ON r.book_id = b.id
		WHERE b.id = ?
		GROUP BY b.id`, bookID,
	).Scan(&sum.ID, &sum.Title, &sum.Author, &summary, &sum.AverageRating, &sum.TotalReviews)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrBookNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query book summary: %w", err)
	}
	sum.Summary = summary.String
	return &sum, nil
}
