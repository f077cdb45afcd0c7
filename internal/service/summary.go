package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	domainerrors "github.com/bookshelfapp/bookshelf-server/internal/errors"
	"github.com/bookshelfapp/bookshelf-server/internal/validation"
)

const msgSummaryFailed = "Failed to generate summary"

// Summarizer produces a summary of free text.
type Summarizer interface {
	Summarize(ctx context.Context, content string) (string, error)
}

// SummaryStore is the persistence the summary service needs.
type SummaryStore interface {
	BookExists(ctx context.Context, id int64) (bool, error)
	SetBookSummary(ctx context.Context, id int64, summary string) error
}

// SummaryService generates AI summaries and stores them on the book.
type SummaryService struct {
	store      SummaryStore
	summarizer Summarizer
	validator  *validation.Validator
	logger     *slog.Logger
}

// NewSummaryService creates a new summary service.
func NewSummaryService(st SummaryStore, summarizer Summarizer, v *validation.Validator, logger *slog.Logger) *SummaryService {
	return &SummaryService{
		store:      st,
		summarizer: summarizer,
		validator:  v,
		logger:     logger,
	}
}

// GenerateSummaryRequest identifies the book and the text to summarize.
type GenerateSummaryRequest struct {
	BookID  int64  `json:"book_id" validate:"gte=1"`
	Content string `json:"content" validate:"required,min=50,max=50000"`
}

// GenerateSummaryResponse carries the generated summary.
type GenerateSummaryResponse struct {
	Summary   string `json:"summary"`
	WordCount int    `json:"word_count"`
}

// GenerateSummary summarizes req.Content and saves the result as the book's
// summary. The book must exist before the summarizer is called.
func (s *SummaryService) GenerateSummary(ctx context.Context, req GenerateSummaryRequest) (*GenerateSummaryResponse, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	exists, err := s.store.BookExists(ctx, req.BookID)
	if err != nil {
		return nil, fmt.Errorf("check book: %w", err)
	}
	if !exists {
		return nil, bookNotFound(req.BookID)
	}

	summary, err := s.summarizer.Summarize(ctx, req.Content)
	if err != nil {
		s.logger.Error("summary generation failed",
			"book_id", req.BookID,
			"error", err,
		)
		return nil, domainerrors.Upstream(err, msgSummaryFailed)
	}

	if err := s.store.SetBookSummary(ctx, req.BookID, summary); err != nil {
		return nil, bookError("save summary", req.BookID, err)
	}

	s.logger.Info("summary generated", "book_id", req.BookID)

	return &GenerateSummaryResponse{
		Summary:   summary,
		WordCount: len(strings.Fields(summary)),
	}, nil
}
