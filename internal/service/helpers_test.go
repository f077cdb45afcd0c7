package service

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/require"

	"github.com/bookshelfapp/bookshelf-server/internal/auth"
	"github.com/bookshelfapp/bookshelf-server/internal/cache"
	"github.com/bookshelfapp/bookshelf-server/internal/domain"
	"github.com/bookshelfapp/bookshelf-server/internal/store/sqlite"
	"github.com/bookshelfapp/bookshelf-server/internal/validation"
)

// countingRecommendationStore counts aggregate queries that reach the store.
type countingRecommendationStore struct {
	*sqlite.Store
	listCalls atomic.Int32
}

func (c *countingRecommendationStore) ListRecommendations(ctx context.Context, genre string, limit int) ([]domain.Recommendation, error) {
	c.listCalls.Add(1)
	return c.Store.ListRecommendations(ctx, genre, limit)
}

type stubSummarizer struct {
	summary string
	err     error
	calls   atomic.Int32
}

func (s *stubSummarizer) Summarize(_ context.Context, _ string) (string, error) {
	s.calls.Add(1)
	return s.summary, s.err
}

type testEnv struct {
	store           *sqlite.Store
	counting        *countingRecommendationStore
	redis           *miniredis.Miniredis
	cache           *cache.Redis
	recommendations *RecommendationService
	books           *BookService
	reviews         *ReviewService
	auth            *AuthService
	tokens          *auth.TokenService
	summarizer      *stubSummarizer
	summaries       *SummaryService
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	ctx := context.Background()
	logger := testLogger()

	st, err := sqlite.Open(filepath.Join(t.TempDir(), "test.db"), logger)
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	mr := miniredis.RunT(t)
	rc := cache.NewRedis(cache.Config{Addr: mr.Addr(), DefaultTTL: time.Hour}, logger)
	require.NoError(t, rc.Connect(ctx))
	t.Cleanup(func() { rc.Close() })

	tokens, err := auth.NewTokenService(bytes.Repeat([]byte("k"), 32), 30*time.Minute)
	require.NoError(t, err)

	v := validation.New()
	counting := &countingRecommendationStore{Store: st}
	recs := NewRecommendationService(counting, rc, v, 0, logger)
	summarizer := &stubSummarizer{summary: "A short summary of the book."}

	return &testEnv{
		store:           st,
		counting:        counting,
		redis:           mr,
		cache:           rc,
		recommendations: recs,
		books:           NewBookService(st, recs, v, 10, 100, logger),
		reviews:         NewReviewService(st, recs, v, 10, 100, logger),
		auth:            NewAuthService(st, tokens, v, logger),
		tokens:          tokens,
		summarizer:      summarizer,
		summaries:       NewSummaryService(st, summarizer, v, logger),
	}
}

func (e *testEnv) createUser(t *testing.T, username string) *domain.User {
	t.Helper()
	u, err := e.auth.Register(context.Background(), RegisterRequest{
		Email:    username + "@example.com",
		Username: username,
		Password: "password123",
	})
	require.NoError(t, err)
	return u
}

func (e *testEnv) createBook(t *testing.T, title, genre string) *domain.Book {
	t.Helper()
	b, err := e.books.CreateBook(context.Background(), CreateBookRequest{
		Title:         title,
		Author:        "Author of " + title,
		Genre:         genre,
		YearPublished: 2001,
	})
	require.NoError(t, err)
	return b
}

func (e *testEnv) createReview(t *testing.T, bookID, userID int64, rating int) *domain.Review {
	t.Helper()
	r, err := e.reviews.CreateReview(context.Background(), bookID, userID, CreateReviewRequest{
		Rating:     rating,
		ReviewText: "A thoroughly considered review.",
	})
	require.NoError(t, err)
	return r
}

func (e *testEnv) cachedKeys(t *testing.T) []string {
	t.Helper()
	return e.redis.Keys()
}
