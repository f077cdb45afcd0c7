package service

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainerrors "github.com/bookshelfapp/bookshelf-server/internal/errors"
	"github.com/bookshelfapp/bookshelf-server/internal/store"
)

func TestCreateBook(t *testing.T) {
	env := newTestEnv(t)

	book := env.createBook(t, "Dune", "Science Fiction")

	assert.NotZero(t, book.ID)
	assert.False(t, book.CreatedAt.IsZero())

	got, err := env.books.GetBook(context.Background(), book.ID)
	require.NoError(t, err)
	assert.Equal(t, "Dune", got.Title)
	assert.Equal(t, 2001, got.YearPublished)
}

func TestCreateBook_Validation(t *testing.T) {
	env := newTestEnv(t)

	valid := CreateBookRequest{Title: "Dune", Author: "Frank Herbert", Genre: "Science Fiction", YearPublished: 1965}

	tests := []struct {
		name   string
		mutate func(*CreateBookRequest)
		field  string
	}{
		{"empty title", func(r *CreateBookRequest) { r.Title = "" }, "title"},
		{"long title", func(r *CreateBookRequest) { r.Title = strings.Repeat("x", 501) }, "title"},
		{"long author", func(r *CreateBookRequest) { r.Author = strings.Repeat("x", 256) }, "author"},
		{"long genre", func(r *CreateBookRequest) { r.Genre = strings.Repeat("x", 101) }, "genre"},
		{"year too early", func(r *CreateBookRequest) { r.YearPublished = 999 }, "year_published"},
		{"year too late", func(r *CreateBookRequest) { r.YearPublished = 2101 }, "year_published"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := valid
			tt.mutate(&req)

			_, err := env.books.CreateBook(context.Background(), req)
			require.Error(t, err)

			var de *domainerrors.Error
			require.True(t, domainerrors.As(err, &de))
			assert.Equal(t, domainerrors.CodeValidation, de.Code)
			assert.Contains(t, de.Details, tt.field)
		})
	}

	books, err := env.books.ListBooks(context.Background(), store.PageParams{})
	require.NoError(t, err)
	assert.Empty(t, books)
}

func TestListBooks_Paging(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	for _, title := range []string{"One", "Two", "Three"} {
		env.createBook(t, title, "Fiction")
	}

	page, err := env.books.ListBooks(ctx, store.PageParams{Limit: 2})
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.Equal(t, "Three", page[0].Title)
	assert.Equal(t, "Two", page[1].Title)

	page, err = env.books.ListBooks(ctx, store.PageParams{Skip: 2, Limit: 2})
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, "One", page[0].Title)
}

func TestListBooks_InvalidPage(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.books.ListBooks(context.Background(), store.PageParams{Skip: -1})
	assert.True(t, domainerrors.Is(err, domainerrors.ErrValidation))

	_, err = env.books.ListBooks(context.Background(), store.PageParams{Limit: 101})
	assert.True(t, domainerrors.Is(err, domainerrors.ErrValidation))
}

func TestGetBook_NotFound(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.books.GetBook(context.Background(), 42)
	require.Error(t, err)
	assert.True(t, domainerrors.Is(err, domainerrors.ErrNotFound))
	assert.Equal(t, "Book with id 42 not found", err.Error())
}

func TestUpdateBook_Partial(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	book := env.createBook(t, "Dune", "Science Fiction")

	year := 1965
	updated, err := env.books.UpdateBook(ctx, book.ID, UpdateBookRequest{YearPublished: &year})
	require.NoError(t, err)
	assert.Equal(t, 1965, updated.YearPublished)
	assert.Equal(t, "Dune", updated.Title)
	assert.False(t, updated.UpdatedAt.Before(book.UpdatedAt))

	got, err := env.books.GetBook(ctx, book.ID)
	require.NoError(t, err)
	assert.Equal(t, 1965, got.YearPublished)
}

func TestUpdateBook_Errors(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	book := env.createBook(t, "Dune", "Science Fiction")

	empty := ""
	_, err := env.books.UpdateBook(ctx, book.ID, UpdateBookRequest{Title: &empty})
	assert.True(t, domainerrors.Is(err, domainerrors.ErrValidation))

	title := "Anything"
	_, err = env.books.UpdateBook(ctx, book.ID+100, UpdateBookRequest{Title: &title})
	assert.True(t, domainerrors.Is(err, domainerrors.ErrNotFound))
}

func TestDeleteBook_CascadesReviews(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user := env.createUser(t, "alice")
	book := env.createBook(t, "Dune", "Science Fiction")
	review := env.createReview(t, book.ID, user.ID, 4)

	require.NoError(t, env.books.DeleteBook(ctx, book.ID))

	_, err := env.books.GetBook(ctx, book.ID)
	assert.True(t, domainerrors.Is(err, domainerrors.ErrNotFound))
	_, err = env.reviews.GetReview(ctx, review.ID)
	assert.True(t, domainerrors.Is(err, domainerrors.ErrNotFound))

	err = env.books.DeleteBook(ctx, book.ID)
	assert.True(t, domainerrors.Is(err, domainerrors.ErrNotFound))
}

func TestGetBookSummary(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	u1 := env.createUser(t, "alice")
	u2 := env.createUser(t, "bobby")
	book := env.createBook(t, "Dune", "Science Fiction")

	summary, err := env.books.GetBookSummary(ctx, book.ID)
	require.NoError(t, err)
	assert.Equal(t, 0.0, summary.AverageRating)
	assert.Equal(t, 0, summary.TotalReviews)

	env.createReview(t, book.ID, u1.ID, 5)
	env.createReview(t, book.ID, u2.ID, 2)

	summary, err = env.books.GetBookSummary(ctx, book.ID)
	require.NoError(t, err)
	assert.InDelta(t, 3.5, summary.AverageRating, 1e-9)
	assert.Equal(t, 2, summary.TotalReviews)
	assert.Equal(t, "Dune", summary.Title)

	_, err = env.books.GetBookSummary(ctx, book.ID+1)
	assert.True(t, domainerrors.Is(err, domainerrors.ErrNotFound))
}
