package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bookshelfapp/bookshelf-server/internal/cache"
	domainerrors "github.com/bookshelfapp/bookshelf-server/internal/errors"
	"github.com/bookshelfapp/bookshelf-server/internal/validation"
)

func TestRecommendationKey(t *testing.T) {
	assert.Equal(t, "recommendations:genre=None:limit=10", RecommendationKey("", 10))
	assert.Equal(t, "recommendations:genre=Fantasy:limit=5", RecommendationKey("Fantasy", 5))
}

func TestGetRecommendations_MissThenHit(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	u1 := env.createUser(t, "alice")
	u2 := env.createUser(t, "bobby")
	a := env.createBook(t, "A", "Fantasy")
	b := env.createBook(t, "B", "Fantasy")
	env.createBook(t, "C", "Fantasy")

	env.createReview(t, a.ID, u1.ID, 5)
	env.createReview(t, a.ID, u2.ID, 3)
	env.createReview(t, b.ID, u1.ID, 5)

	recs, cached, err := env.recommendations.GetRecommendations(ctx, "", 10)
	require.NoError(t, err)
	assert.False(t, cached)
	require.Len(t, recs, 3)
	assert.Equal(t, []string{"A", "B", "C"}, []string{recs[0].Title, recs[1].Title, recs[2].Title})
	require.NotNil(t, recs[0].AverageRating)
	assert.InDelta(t, 4.0, *recs[0].AverageRating, 1e-9)
	assert.Equal(t, 2, recs[0].TotalReviews)
	assert.Nil(t, recs[2].AverageRating)
	assert.Equal(t, 0, recs[2].TotalReviews)
	assert.Equal(t, int32(1), env.counting.listCalls.Load())

	assert.True(t, env.redis.Exists("recommendations:genre=None:limit=10"))
	assert.InDelta(t, time.Hour.Seconds(), env.redis.TTL("recommendations:genre=None:limit=10").Seconds(), 1)

	again, cached, err := env.recommendations.GetRecommendations(ctx, "", 10)
	require.NoError(t, err)
	assert.True(t, cached)
	assert.Equal(t, recs, again)
	assert.Equal(t, int32(1), env.counting.listCalls.Load(), "hit must not query the store")
}

func TestGetRecommendations_KeysAreIndependent(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	env.createBook(t, "Dune", "Science Fiction")
	env.createBook(t, "Emma", "Romance")

	fiction, _, err := env.recommendations.GetRecommendations(ctx, "fiction", 5)
	require.NoError(t, err)
	require.Len(t, fiction, 1)
	assert.Equal(t, "Dune", fiction[0].Title)

	all, cached, err := env.recommendations.GetRecommendations(ctx, "", 5)
	require.NoError(t, err)
	assert.False(t, cached)
	assert.Len(t, all, 2)

	assert.ElementsMatch(t, []string{
		"recommendations:genre=fiction:limit=5",
		"recommendations:genre=None:limit=5",
	}, env.cachedKeys(t))
}

func TestGetRecommendations_EmptyCatalog(t *testing.T) {
	env := newTestEnv(t)

	recs, cached, err := env.recommendations.GetRecommendations(context.Background(), "", 10)
	require.NoError(t, err)
	assert.False(t, cached)
	assert.NotNil(t, recs)
	assert.Empty(t, recs)

	// An empty listing is cached like any other.
	recs, cached, err = env.recommendations.GetRecommendations(context.Background(), "", 10)
	require.NoError(t, err)
	assert.True(t, cached)
	assert.NotNil(t, recs)
}

func TestGetRecommendations_LimitOutOfRange(t *testing.T) {
	env := newTestEnv(t)

	for _, limit := range []int{0, -1, 51} {
		_, _, err := env.recommendations.GetRecommendations(context.Background(), "", limit)
		require.Error(t, err)
		assert.True(t, domainerrors.Is(err, domainerrors.ErrValidation), "limit %d", limit)
	}

	assert.Zero(t, env.counting.listCalls.Load())
	assert.Empty(t, env.cachedKeys(t))
}

func TestGetRecommendations_BoundaryLimits(t *testing.T) {
	env := newTestEnv(t)

	for _, limit := range []int{1, 50} {
		_, _, err := env.recommendations.GetRecommendations(context.Background(), "", limit)
		assert.NoError(t, err, "limit %d", limit)
	}
}

func TestGetRecommendations_CacheDown(t *testing.T) {
	env := newTestEnv(t)
	env.createBook(t, "Dune", "Science Fiction")

	// A disconnected cache behaves as always-miss.
	recs := NewRecommendationService(env.counting, cache.NewRedis(cache.Config{Addr: "127.0.0.1:1"}, testLogger()), validation.New(), 0, testLogger())

	for range 2 {
		got, cached, err := recs.GetRecommendations(context.Background(), "", 10)
		require.NoError(t, err)
		assert.False(t, cached)
		assert.Len(t, got, 1)
	}
	assert.Equal(t, int32(2), env.counting.listCalls.Load())
}

func TestGetRecommendations_StoreFailure(t *testing.T) {
	env := newTestEnv(t)
	require.NoError(t, env.store.Close())

	_, _, err := env.recommendations.GetRecommendations(context.Background(), "", 10)
	require.Error(t, err)
	assert.False(t, domainerrors.Is(err, domainerrors.ErrValidation))
}

func TestInvalidateAll_LeavesOtherKeys(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, _, err := env.recommendations.GetRecommendations(ctx, "", 10)
	require.NoError(t, err)
	_, _, err = env.recommendations.GetRecommendations(ctx, "Fantasy", 3)
	require.NoError(t, err)
	require.NoError(t, env.redis.Set("session:abc", "x"))

	removed := env.recommendations.InvalidateAll(ctx)

	assert.Equal(t, 2, removed)
	assert.Equal(t, []string{"session:abc"}, env.cachedKeys(t))
}

func TestInvalidation_AfterMutations(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user := env.createUser(t, "alice")
	other := env.createUser(t, "bobby")
	book := env.createBook(t, "Dune", "Science Fiction")

	warm := func() {
		t.Helper()
		_, _, err := env.recommendations.GetRecommendations(ctx, "", 10)
		require.NoError(t, err)
		require.NotEmpty(t, env.cachedKeys(t))
	}
	assertCold := func(op string) {
		t.Helper()
		assert.Empty(t, env.cachedKeys(t), "cache should be empty after %s", op)
	}

	warm()
	review := env.createReview(t, book.ID, user.ID, 2)
	assertCold("review create")

	warm()
	rating := 5
	_, err := env.reviews.UpdateReview(ctx, review.ID, user.ID, UpdateReviewRequest{Rating: &rating})
	require.NoError(t, err)
	assertCold("review update")

	recs, cached, err := env.recommendations.GetRecommendations(ctx, "", 10)
	require.NoError(t, err)
	assert.False(t, cached)
	require.NotNil(t, recs[0].AverageRating)
	assert.InDelta(t, 5.0, *recs[0].AverageRating, 1e-9)

	require.NoError(t, env.reviews.DeleteReview(ctx, review.ID, user.ID))
	assertCold("review delete")

	warm()
	title := "Dune Messiah"
	_, err = env.books.UpdateBook(ctx, book.ID, UpdateBookRequest{Title: &title})
	require.NoError(t, err)
	assertCold("book update")

	warm()
	env.createBook(t, "Emma", "Romance")
	assertCold("book create")

	warm()
	require.NoError(t, env.books.DeleteBook(ctx, book.ID))
	assertCold("book delete")

	// Failed mutations leave the cache untouched.
	warm()
	_, err = env.reviews.CreateReview(ctx, book.ID, other.ID, CreateReviewRequest{Rating: 4, ReviewText: "Would read again."})
	require.Error(t, err)
	assert.NotEmpty(t, env.cachedKeys(t))
}

func TestInvalidation_ManyCachedListings(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user := env.createUser(t, "alice")
	book := env.createBook(t, "Dune", "Fiction")

	for i := range 150 {
		_, _, err := env.recommendations.GetRecommendations(ctx, fmt.Sprintf("genre-%03d", i), 10)
		require.NoError(t, err)
	}
	_, _, err := env.recommendations.GetRecommendations(ctx, "tion", 10)
	require.NoError(t, err)
	require.Len(t, env.cachedKeys(t), 151)

	env.createReview(t, book.ID, user.ID, 5)
	assert.Empty(t, env.cachedKeys(t))

	recs, cached, err := env.recommendations.GetRecommendations(ctx, "tion", 10)
	require.NoError(t, err)
	assert.False(t, cached)
	require.Len(t, recs, 1)
	assert.Equal(t, 1, recs[0].TotalReviews)
}
