package services

import (
	"context"
	"fmt"
	"sort"
	"strconv"

	"watchparty/internal/cache"
	"watchparty/internal/models"
	"watchparty/internal/storage"

	"github.com/sirupsen/logrus"
)

const (
	seriesListPrefix     = "series:list:"
	seriesKeyPrefix      = "series:id:"
	trendingPrefix       = "series:trending:"
	platformsKey         = "platforms"
	platformSeriesPrefix = "platforms:series:"
	usersKey             = "users"

	maxCatalogLimit = 200
)

// CatalogService serves the read side of the catalogue: series, users and
// platform enumeration. Nothing here mutates the store, so every read is
// memoized with no expiry.
type CatalogService struct {
	series storage.SeriesRepository
	users  storage.UserRepository
	cache  cache.Cache
	logger *logrus.Logger
}

func NewCatalogService(series storage.SeriesRepository, users storage.UserRepository, c cache.Cache, logger *logrus.Logger) *CatalogService {
	return &CatalogService{
		series: series,
		users:  users,
		cache:  c,
		logger: logger,
	}
}

func (s *CatalogService) ListSeries(ctx context.Context, limit int) ([]models.Series, error) {
	limit = clampLimit(limit)
	key := seriesListPrefix + strconv.Itoa(limit)
	return cached(ctx, s.cache, s.logger, key, []string{cache.TagSeries}, func(ctx context.Context) ([]models.Series, error) {
		return s.series.List(ctx, limit)
	})
}

func (s *CatalogService) GetSeries(ctx context.Context, id int64) (*models.Series, error) {
	key := seriesKeyPrefix + strconv.FormatInt(id, 10)
	return cached(ctx, s.cache, s.logger, key, []string{cache.TagSeries}, func(ctx context.Context) (*models.Series, error) {
		return s.series.GetByID(ctx, id)
	})
}

// Trending is the top-n series by aggregate rating, missing ratings last.
func (s *CatalogService) Trending(ctx context.Context, n int) ([]models.Series, error) {
	n = clampLimit(n)
	key := trendingPrefix + strconv.Itoa(n)
	return cached(ctx, s.cache, s.logger, key, []string{cache.TagSeries}, func(ctx context.Context) ([]models.Series, error) {
		all, err := s.series.List(ctx, maxCatalogLimit)
		if err != nil {
			return nil, err
		}
		sort.SliceStable(all, func(i, j int) bool {
			return aggregate(all[i]) > aggregate(all[j])
		})
		if len(all) > n {
			all = all[:n]
		}
		return all, nil
	})
}

func (s *CatalogService) Platforms(ctx context.Context) ([]string, error) {
	return cached(ctx, s.cache, s.logger, platformsKey, []string{cache.TagPlatforms}, func(ctx context.Context) ([]string, error) {
		return s.series.Platforms(ctx)
	})
}

func (s *CatalogService) SeriesOnPlatform(ctx context.Context, platform string) ([]models.Series, error) {
	if platform == "" {
		return nil, invalid("platform", "must not be empty")
	}
	key := platformSeriesPrefix + platform
	return cached(ctx, s.cache, s.logger, key, []string{cache.TagSeries, cache.TagPlatforms}, func(ctx context.Context) ([]models.Series, error) {
		return s.series.OnPlatform(ctx, platform, maxCatalogLimit)
	})
}

func (s *CatalogService) ListUsers(ctx context.Context) ([]models.User, error) {
	return cached(ctx, s.cache, s.logger, usersKey, []string{cache.TagUsers}, func(ctx context.Context) ([]models.User, error) {
		return s.users.List(ctx)
	})
}

// UserNames returns the id -> display name dictionary used to resolve
// reviewer and participant names.
func (s *CatalogService) UserNames(ctx context.Context) (map[string]string, error) {
	users, err := s.ListUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load users: %w", err)
	}
	names := make(map[string]string, len(users))
	for _, u := range users {
		names[u.ID] = u.Name
	}
	return names, nil
}

func aggregate(s models.Series) float64 {
	if s.Rating == nil {
		return 0
	}
	return *s.Rating
}

func clampLimit(limit int) int {
	if limit <= 0 || limit > maxCatalogLimit {
		return maxCatalogLimit
	}
	return limit
}
