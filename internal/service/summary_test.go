package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainerrors "github.com/bookshelfapp/bookshelf-server/internal/errors"
)

var sampleContent = strings.Repeat("In a hole in the ground there lived a hobbit. ", 3)

func TestGenerateSummary(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	book := env.createBook(t, "The Hobbit", "Fantasy")

	resp, err := env.summaries.GenerateSummary(ctx, GenerateSummaryRequest{BookID: book.ID, Content: sampleContent})
	require.NoError(t, err)
	assert.Equal(t, "A short summary of the book.", resp.Summary)
	assert.Equal(t, 6, resp.WordCount)

	got, err := env.books.GetBook(ctx, book.ID)
	require.NoError(t, err)
	assert.Equal(t, "A short summary of the book.", got.Summary)
}

func TestGenerateSummary_BookCheckedFirst(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.summaries.GenerateSummary(context.Background(), GenerateSummaryRequest{BookID: 77, Content: sampleContent})
	require.Error(t, err)
	assert.True(t, domainerrors.Is(err, domainerrors.ErrNotFound))
	assert.Zero(t, env.summarizer.calls.Load())
}

func TestGenerateSummary_Validation(t *testing.T) {
	env := newTestEnv(t)
	book := env.createBook(t, "The Hobbit", "Fantasy")

	for _, req := range []GenerateSummaryRequest{
		{BookID: book.ID, Content: "too short"},
		{BookID: book.ID, Content: strings.Repeat("x", 50001)},
		{BookID: 0, Content: sampleContent},
	} {
		_, err := env.summaries.GenerateSummary(context.Background(), req)
		assert.True(t, domainerrors.Is(err, domainerrors.ErrValidation))
	}
	assert.Zero(t, env.summarizer.calls.Load())
}

func TestGenerateSummary_UpstreamFailure(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	book := env.createBook(t, "The Hobbit", "Fantasy")
	cause := errors.New("ai: provider error")
	env.summarizer.err = cause

	_, err := env.summaries.GenerateSummary(ctx, GenerateSummaryRequest{BookID: book.ID, Content: sampleContent})
	require.Error(t, err)

	var de *domainerrors.Error
	require.True(t, domainerrors.As(err, &de))
	assert.Equal(t, domainerrors.CodeUpstream, de.Code)
	assert.Equal(t, "Failed to generate summary", de.Message)
	assert.ErrorIs(t, err, cause)

	got, err := env.books.GetBook(ctx, book.ID)
	require.NoError(t, err)
	assert.Empty(t, got.Summary)
}
