package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"watchparty/internal/models"
	"watchparty/internal/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddToWatchlistIsIdempotent(t *testing.T) {
	svc, store, _ := newRatingFixture()
	ctx := context.Background()

	require.NoError(t, svc.AddToWatchlist(ctx, "user_1", 1))
	require.NoError(t, svc.AddToWatchlist(ctx, "user_1", 1))

	ratings, err := store.Ratings().ForUser(ctx, "user_1")
	require.NoError(t, err)
	require.Len(t, ratings, 1)
	assert.Equal(t, models.StatusWatchlist, ratings[0].Status)
	assert.Nil(t, ratings[0].Stars)
	assert.Empty(t, ratings[0].Review)
}

func TestRateReplacesWatchlistRecord(t *testing.T) {
	svc, store, _ := newRatingFixture()
	ctx := context.Background()

	require.NoError(t, svc.AddToWatchlist(ctx, "user_1", 1))
	require.NoError(t, svc.Rate(ctx, "user_1", 1, 7, "great"))

	ratings, err := store.Ratings().ForUser(ctx, "user_1")
	require.NoError(t, err)
	require.Len(t, ratings, 1, "the prior watchlist record must not remain")
	assert.Equal(t, models.StatusWatched, ratings[0].Status)
	require.NotNil(t, ratings[0].Stars)
	assert.Equal(t, 7, *ratings[0].Stars)
	assert.Equal(t, "great", ratings[0].Review)
}

func TestAtMostOneRecordPerPair(t *testing.T) {
	svc, store, _ := newRatingFixture()
	ctx := context.Background()

	require.NoError(t, svc.AddToWatchlist(ctx, "user_1", 1))
	require.NoError(t, svc.Rate(ctx, "user_1", 1, 9, "loved it"))
	require.NoError(t, svc.MarkWatched(ctx, "user_1", 1))
	require.NoError(t, svc.AddToWatchlist(ctx, "user_1", 1))
	require.NoError(t, svc.Rate(ctx, "user_1", 1, 3, "rewatched, worse"))

	ratings, err := store.Ratings().ForSeries(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, ratings, 1)
}

func TestMarkWatchedAssignsDefaultStars(t *testing.T) {
	svc, store, _ := newRatingFixture()
	ctx := context.Background()

	require.NoError(t, svc.AddToWatchlist(ctx, "user_2", 2))
	require.NoError(t, svc.MarkWatched(ctx, "user_2", 2))

	r, err := store.Ratings().Get(ctx, "user_2", 2)
	require.NoError(t, err)
	assert.Equal(t, models.StatusWatched, r.Status)
	require.NotNil(t, r.Stars)
	assert.Equal(t, defaultStars, *r.Stars)
	assert.Empty(t, r.Review)
}

func TestRateRejectsOutOfRangeStars(t *testing.T) {
	svc, store, _ := newRatingFixture()
	ctx := context.Background()

	err := svc.Rate(ctx, "user_1", 1, MaxStars+1, "")
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "stars", verr.Field)

	err = svc.Rate(ctx, "user_1", 1, -1, "")
	require.ErrorAs(t, err, &verr)

	// rejected input must not reach the store
	_, err = store.Ratings().Get(ctx, "user_1", 1)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestRateRejectsUnknownReferences(t *testing.T) {
	svc, _, _ := newRatingFixture()
	ctx := context.Background()

	var verr *ValidationError
	require.ErrorAs(t, svc.Rate(ctx, "ghost", 1, 5, ""), &verr)
	assert.Equal(t, "user_id", verr.Field)

	require.ErrorAs(t, svc.Rate(ctx, "user_1", 999, 5, ""), &verr)
	assert.Equal(t, "series_id", verr.Field)
}

func TestReviewsForSeriesResolvesNames(t *testing.T) {
	svc, _, _ := newRatingFixture()
	ctx := context.Background()

	require.NoError(t, svc.Rate(ctx, "user_1", 1, 8, "tense"))
	require.NoError(t, svc.Rate(ctx, "user_2", 1, 6, "slow start"))

	reviews, err := svc.ReviewsForSeries(ctx, 1)
	require.NoError(t, err)
	require.Len(t, reviews, 2)

	byUser := make(map[string]models.Review)
	for _, r := range reviews {
		byUser[r.UserID] = r
	}
	assert.Equal(t, "Ana", byUser["user_1"].UserName)
	assert.Equal(t, "Bruno", byUser["user_2"].UserName)
}

func TestRepairCollapsesDuplicatePairs(t *testing.T) {
	svc, store, _ := newRatingFixture()
	ctx := context.Background()

	// two raw rows for the same pair, as a crashed delete-then-insert
	// from an older client would leave behind
	older := 5
	newer := 9
	store.PutRating(models.Rating{
		UserID: "user_1", SeriesID: 1, Status: models.StatusWatchlist,
		Stars: &older, UpdatedAt: time.Now().Add(-time.Hour),
	})
	store.PutRating(models.Rating{
		UserID: "user_1", SeriesID: 1, Status: models.StatusWatched,
		Stars: &newer, Review: "kept", UpdatedAt: time.Now(),
	})

	reviews, err := svc.ReviewsForSeries(ctx, 1)
	require.NoError(t, err)
	require.Len(t, reviews, 1)
	assert.Equal(t, models.StatusWatched, reviews[0].Status)
	assert.Equal(t, "kept", reviews[0].Review)

	// the stale row is gone from the store as well
	ratings, err := store.Ratings().ForSeries(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, ratings, 1)
}

func TestWatchlistForSplitsByStatus(t *testing.T) {
	svc, _, _ := newRatingFixture()
	ctx := context.Background()

	require.NoError(t, svc.AddToWatchlist(ctx, "user_1", 1))
	require.NoError(t, svc.Rate(ctx, "user_1", 2, 7, "solid"))

	shelf, err := svc.WatchlistFor(ctx, "user_1")
	require.NoError(t, err)
	require.Len(t, shelf.ToWatch, 1)
	require.Len(t, shelf.Watched, 1)
	assert.Equal(t, "Dark Signal", shelf.ToWatch[0].SeriesName)
	assert.Equal(t, "Harbor Lights", shelf.Watched[0].SeriesName)
}

func TestRatingMutationInvalidatesCachedReads(t *testing.T) {
	svc, _, _ := newRatingFixture()
	ctx := context.Background()

	require.NoError(t, svc.AddToWatchlist(ctx, "user_1", 1))

	shelf, err := svc.WatchlistFor(ctx, "user_1")
	require.NoError(t, err)
	require.Len(t, shelf.ToWatch, 1)

	// the mutation must drop the memoized shelf and reviews
	require.NoError(t, svc.Rate(ctx, "user_1", 1, 8, ""))

	shelf, err = svc.WatchlistFor(ctx, "user_1")
	require.NoError(t, err)
	assert.Empty(t, shelf.ToWatch)
	assert.Len(t, shelf.Watched, 1)
}

func TestReadsAreMemoizedUntilInvalidated(t *testing.T) {
	svc, store, _ := newRatingFixture()
	ctx := context.Background()

	require.NoError(t, svc.Rate(ctx, "user_1", 1, 8, "first"))

	reviews, err := svc.ReviewsForSeries(ctx, 1)
	require.NoError(t, err)
	require.Len(t, reviews, 1)

	// a write that bypasses the rules engine is invisible until the
	// affected tag is invalidated
	store.PutRating(models.Rating{UserID: "user_3", SeriesID: 1, Status: models.StatusWatched, UpdatedAt: time.Now()})

	reviews, err = svc.ReviewsForSeries(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, reviews, 1, "memoized read should not see the raw write")

	require.NoError(t, svc.Rate(ctx, "user_2", 1, 5, ""))
	reviews, err = svc.ReviewsForSeries(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, reviews, 3)
}

func TestRecentActivityResolvesNames(t *testing.T) {
	svc, _, _ := newRatingFixture()
	ctx := context.Background()

	require.NoError(t, svc.Rate(ctx, "user_1", 1, 8, ""))
	require.NoError(t, svc.Rate(ctx, "user_2", 2, 6, ""))

	items, err := svc.RecentActivity(ctx, 10)
	require.NoError(t, err)
	require.Len(t, items, 2)
	for _, item := range items {
		assert.NotEmpty(t, item.UserName)
		assert.NotEmpty(t, item.SeriesName)
	}
}

func TestWatchlistForUnknownUser(t *testing.T) {
	svc, _, _ := newRatingFixture()

	_, err := svc.WatchlistFor(context.Background(), "ghost")
	var verr *ValidationError
	assert.True(t, errors.As(err, &verr))
}
