package services

import (
	"context"
	"testing"

	"watchparty/internal/models"
	"watchparty/internal/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTrendingSortsByAggregateRating(t *testing.T) {
	svc, _, _ := newCatalogFixture()

	series, err := svc.Trending(context.Background(), 2)
	require.NoError(t, err)
	require.Len(t, series, 2)
	assert.Equal(t, "Dark Signal", series[0].Name)
	assert.Equal(t, "Harbor Lights", series[1].Name)
}

func TestTrendingTreatsMissingRatingAsZero(t *testing.T) {
	svc, _, _ := newCatalogFixture()

	series, err := svc.Trending(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, series, 3)
	assert.Equal(t, "Cold Orbit", series[2].Name, "unrated series sorts last")
}

func TestPlatformsAreDeduplicated(t *testing.T) {
	svc, _, _ := newCatalogFixture()

	platforms, err := svc.Platforms(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"Hulu", "Netflix", "Prime"}, platforms)
}

func TestSeriesOnPlatform(t *testing.T) {
	svc, _, _ := newCatalogFixture()

	series, err := svc.SeriesOnPlatform(context.Background(), "Netflix")
	require.NoError(t, err)
	require.Len(t, series, 2)

	_, err = svc.SeriesOnPlatform(context.Background(), "")
	var verr *ValidationError
	assert.ErrorAs(t, err, &verr)
}

func TestGetSeriesNotFound(t *testing.T) {
	svc, _, _ := newCatalogFixture()

	_, err := svc.GetSeries(context.Background(), 999)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestListSeriesIsMemoized(t *testing.T) {
	svc, store, _ := newCatalogFixture()
	ctx := context.Background()

	series, err := svc.ListSeries(ctx, 10)
	require.NoError(t, err)
	require.Len(t, series, 3)

	// the catalogue never invalidates its own tag, so a raw store write
	// stays invisible to this process
	store.AddSeries(models.Series{ID: 4, Name: "Late Addition"})

	series, err = svc.ListSeries(ctx, 10)
	require.NoError(t, err)
	assert.Len(t, series, 3)
}

func TestUserNames(t *testing.T) {
	svc, _, _ := newCatalogFixture()

	names, err := svc.UserNames(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Ana", names["user_1"])
	assert.Equal(t, "Carla", names["user_3"])
}
