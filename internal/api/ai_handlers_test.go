package api

import (
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bookshelfapp/bookshelf-server/internal/service"
)

var sampleContent = strings.Repeat("Paul Atreides travels to the desert planet Arrakis. ", 3)

func TestGenerateSummary_Success(t *testing.T) {
	ts := setupTestServer(t)
	authHeader := ts.register(t, "alice")
	book := ts.createBook(t, authHeader, "Dune", "Science Fiction")

	resp := ts.api.Post("/generate-summary", authHeader, map[string]any{
		"book_id": book.ID,
		"content": sampleContent,
	})
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	out := decodeData[GenerateSummaryResponse](t, resp)
	assert.Equal(t, ts.provider.summary, out.Summary)
	assert.Equal(t, 9, out.WordCount)
	assert.Equal(t, int32(1), ts.provider.calls.Load())

	resp = ts.api.Get(bookPath(book.ID), authHeader)
	require.Equal(t, http.StatusOK, resp.Code)
	stored := decodeData[BookResponse](t, resp)
	require.NotNil(t, stored.Summary)
	assert.Equal(t, ts.provider.summary, *stored.Summary)
}

func TestGenerateSummary_BookNotFound(t *testing.T) {
	ts := setupTestServer(t)
	authHeader := ts.register(t, "alice")

	resp := ts.api.Post("/generate-summary", authHeader, map[string]any{
		"book_id": 404,
		"content": sampleContent,
	})
	assert.Equal(t, http.StatusNotFound, resp.Code)
	assert.Equal(t, "Book with id 404 not found", decodeError(t, resp).Error)
	assert.Zero(t, ts.provider.calls.Load(), "provider must not be called for a missing book")
}

func TestGenerateSummary_ShortContent(t *testing.T) {
	ts := setupTestServer(t)
	authHeader := ts.register(t, "alice")
	book := ts.createBook(t, authHeader, "Dune", "Science Fiction")

	resp := ts.api.Post("/generate-summary", authHeader, map[string]any{
		"book_id": book.ID,
		"content": "Too short to summarize.",
	})
	assert.Equal(t, http.StatusUnprocessableEntity, resp.Code)
	assert.Equal(t, "VALIDATION", decodeError(t, resp).Code)
	assert.Zero(t, ts.provider.calls.Load())
}

func TestGenerateSummary_ProviderFailure(t *testing.T) {
	ts := setupTestServer(t)
	authHeader := ts.register(t, "alice")
	book := ts.createBook(t, authHeader, "Dune", "Science Fiction")
	ts.provider.fail.Store(true)

	resp := ts.api.Post("/generate-summary", authHeader, map[string]any{
		"book_id": book.ID,
		"content": sampleContent,
	})
	assert.Equal(t, http.StatusInternalServerError, resp.Code)

	env := decodeError(t, resp)
	assert.Equal(t, "Failed to generate summary", env.Error)
	assert.NotContains(t, resp.Body.String(), "upstream exploded")
	assert.Positive(t, ts.provider.calls.Load())

	resp = ts.api.Get(bookPath(book.ID), authHeader)
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Nil(t, decodeData[BookResponse](t, resp).Summary)
}

func TestRecommendations_Ranking(t *testing.T) {
	ts := setupTestServer(t)
	alice := ts.register(t, "alice")
	bobby := ts.register(t, "bobby")

	dune := ts.createBook(t, alice, "Dune", "Science Fiction")
	emma := ts.createBook(t, alice, "Emma", "Romance")
	hyperion := ts.createBook(t, alice, "Hyperion", "Science Fiction")

	ts.createReview(t, alice, hyperion.ID, 3)
	ts.createReview(t, bobby, hyperion.ID, 4)
	ts.createReview(t, alice, dune.ID, 5)

	resp := ts.api.Get("/recommendations", alice)
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	out := decodeData[RecommendationsResponse](t, resp)
	require.Equal(t, 3, out.Total)
	assert.Equal(t, hyperion.ID, out.Recommendations[0].ID)
	assert.Equal(t, 2, out.Recommendations[0].TotalReviews)
	require.NotNil(t, out.Recommendations[0].AverageRating)
	assert.InDelta(t, 3.5, *out.Recommendations[0].AverageRating, 1e-9)
	assert.Equal(t, dune.ID, out.Recommendations[1].ID)
	assert.Equal(t, emma.ID, out.Recommendations[2].ID)
	assert.Nil(t, out.Recommendations[2].AverageRating)

	resp = ts.api.Get("/recommendations?genre=fiction&limit=1", alice)
	require.Equal(t, http.StatusOK, resp.Code)
	out = decodeData[RecommendationsResponse](t, resp)
	require.Equal(t, 1, out.Total)
	assert.Equal(t, hyperion.ID, out.Recommendations[0].ID)
}

func TestRecommendations_CachedUntilMutation(t *testing.T) {
	ts := setupTestServer(t)
	alice := ts.register(t, "alice")
	book := ts.createBook(t, alice, "Dune", "Science Fiction")

	resp := ts.api.Get("/recommendations", alice)
	require.Equal(t, http.StatusOK, resp.Code)
	assert.False(t, decodeData[RecommendationsResponse](t, resp).Cached)
	assert.True(t, ts.redis.Exists(service.RecommendationKey("", 10)))

	resp = ts.api.Get("/recommendations", alice)
	require.Equal(t, http.StatusOK, resp.Code)
	out := decodeData[RecommendationsResponse](t, resp)
	assert.True(t, out.Cached)
	assert.Zero(t, out.Recommendations[0].TotalReviews)

	ts.createReview(t, alice, book.ID, 5)
	assert.False(t, ts.redis.Exists(service.RecommendationKey("", 10)))

	resp = ts.api.Get("/recommendations", alice)
	require.Equal(t, http.StatusOK, resp.Code)
	out = decodeData[RecommendationsResponse](t, resp)
	assert.False(t, out.Cached)
	assert.Equal(t, 1, out.Recommendations[0].TotalReviews)
}

func TestRecommendations_CacheDown(t *testing.T) {
	ts := setupTestServer(t)
	alice := ts.register(t, "alice")
	ts.createBook(t, alice, "Dune", "Science Fiction")
	ts.redis.Close()

	for range 2 {
		resp := ts.api.Get("/recommendations", alice)
		require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
		out := decodeData[RecommendationsResponse](t, resp)
		assert.False(t, out.Cached)
		assert.Equal(t, 1, out.Total)
	}
}

func TestRecommendations_BadLimit(t *testing.T) {
	ts := setupTestServer(t)
	authHeader := ts.register(t, "alice")

	for _, limit := range []string{"0", "51"} {
		resp := ts.api.Get("/recommendations?limit="+limit, authHeader)
		assert.Equal(t, http.StatusUnprocessableEntity, resp.Code, limit)
		assert.Equal(t, "VALIDATION", decodeError(t, resp).Code)
	}
}
