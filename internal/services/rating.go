package services

import (
	"context"
	"fmt"
	"strconv"

	"watchparty/internal/cache"
	"watchparty/internal/models"
	"watchparty/internal/storage"

	"github.com/sirupsen/logrus"
)

const (
	// MaxStars is the single star bound used everywhere. The observed
	// dashboards disagreed (5 vs 10); 10 is the documented choice.
	MaxStars = 10

	// defaultStars is the score assigned when a watchlist item is promoted
	// to watched without a fresh review.
	defaultStars = 4

	reviewsKeyPrefix  = "ratings:series:"
	shelfKeyPrefix    = "ratings:user:"
	activityKeyPrefix = "ratings:recent:"
)

// RatingService owns the (user, series) state machine:
// NONE -> WATCHLIST <-> WATCHED. Every transition is a keyed upsert, so the
// at-most-one-record invariant holds without a delete-then-insert window.
type RatingService struct {
	ratings storage.RatingRepository
	series  storage.SeriesRepository
	users   storage.UserRepository
	cache   cache.Cache
	logger  *logrus.Logger
}

func NewRatingService(ratings storage.RatingRepository, series storage.SeriesRepository, users storage.UserRepository, c cache.Cache, logger *logrus.Logger) *RatingService {
	return &RatingService{
		ratings: ratings,
		series:  series,
		users:   users,
		cache:   c,
		logger:  logger,
	}
}

// AddToWatchlist moves the pair to WATCHLIST with no stars and no review.
// Calling it twice yields the same single record.
func (s *RatingService) AddToWatchlist(ctx context.Context, userID string, seriesID int64) error {
	if err := s.ensurePair(ctx, userID, seriesID); err != nil {
		return err
	}
	return s.apply(ctx, &models.Rating{
		UserID:   userID,
		SeriesID: seriesID,
		Status:   models.StatusWatchlist,
	})
}

// Rate moves the pair to WATCHED with the given stars and review. First-time
// rating and re-rating are the same operation.
func (s *RatingService) Rate(ctx context.Context, userID string, seriesID int64, stars int, review string) error {
	if stars < 0 || stars > MaxStars {
		return invalid("stars", fmt.Sprintf("must be between 0 and %d", MaxStars))
	}
	if err := s.ensurePair(ctx, userID, seriesID); err != nil {
		return err
	}
	return s.apply(ctx, &models.Rating{
		UserID:   userID,
		SeriesID: seriesID,
		Status:   models.StatusWatched,
		Stars:    &stars,
		Review:   review,
	})
}

// MarkWatched promotes a pair out of the watchlist with the default score
// and an empty review.
func (s *RatingService) MarkWatched(ctx context.Context, userID string, seriesID int64) error {
	if err := s.ensurePair(ctx, userID, seriesID); err != nil {
		return err
	}
	stars := defaultStars
	return s.apply(ctx, &models.Rating{
		UserID:   userID,
		SeriesID: seriesID,
		Status:   models.StatusWatched,
		Stars:    &stars,
	})
}

// ReviewsForSeries lists the series' ratings with reviewer names resolved.
func (s *RatingService) ReviewsForSeries(ctx context.Context, seriesID int64) ([]models.Review, error) {
	key := reviewsKeyPrefix + strconv.FormatInt(seriesID, 10)
	tags := []string{cache.TagRatingsForSeries(seriesID)}
	return cached(ctx, s.cache, s.logger, key, tags, func(ctx context.Context) ([]models.Review, error) {
		if err := s.ensureSeries(ctx, seriesID); err != nil {
			return nil, err
		}
		ratings, err := s.ratings.ForSeries(ctx, seriesID)
		if err != nil {
			return nil, err
		}
		ratings = s.repair(ctx, ratings)

		names, err := s.userNames(ctx)
		if err != nil {
			return nil, err
		}
		reviews := make([]models.Review, 0, len(ratings))
		for _, r := range ratings {
			reviews = append(reviews, models.Review{Rating: r, UserName: displayName(names, r.UserID)})
		}
		return reviews, nil
	})
}

// WatchlistFor returns the user's shelf split into to-watch and watched.
func (s *RatingService) WatchlistFor(ctx context.Context, userID string) (*models.Shelf, error) {
	key := shelfKeyPrefix + userID
	tags := []string{cache.TagRatingsForUser(userID)}
	return cached(ctx, s.cache, s.logger, key, tags, func(ctx context.Context) (*models.Shelf, error) {
		if err := s.ensureUser(ctx, userID); err != nil {
			return nil, err
		}
		ratings, err := s.ratings.ForUser(ctx, userID)
		if err != nil {
			return nil, err
		}
		ratings = s.repair(ctx, ratings)

		shelf := &models.Shelf{ToWatch: []models.ShelfEntry{}, Watched: []models.ShelfEntry{}}
		for _, r := range ratings {
			entry := models.ShelfEntry{Rating: r, SeriesName: s.seriesName(ctx, r.SeriesID)}
			switch r.Status {
			case models.StatusWatchlist:
				shelf.ToWatch = append(shelf.ToWatch, entry)
			case models.StatusWatched:
				shelf.Watched = append(shelf.Watched, entry)
			}
		}
		return shelf, nil
	})
}

// RecentActivity is the friends-activity feed: latest ratings with user and
// series names resolved.
func (s *RatingService) RecentActivity(ctx context.Context, limit int) ([]models.ActivityItem, error) {
	if limit <= 0 {
		limit = 10
	}
	key := activityKeyPrefix + strconv.Itoa(limit)
	tags := []string{cache.TagActivity}
	return cached(ctx, s.cache, s.logger, key, tags, func(ctx context.Context) ([]models.ActivityItem, error) {
		ratings, err := s.ratings.Recent(ctx, limit)
		if err != nil {
			return nil, err
		}
		names, err := s.userNames(ctx)
		if err != nil {
			return nil, err
		}
		items := make([]models.ActivityItem, 0, len(ratings))
		for _, r := range ratings {
			items = append(items, models.ActivityItem{
				Rating:     r,
				UserName:   displayName(names, r.UserID),
				SeriesName: s.seriesName(ctx, r.SeriesID),
			})
		}
		return items, nil
	})
}

func (s *RatingService) apply(ctx context.Context, r *models.Rating) error {
	if err := s.ratings.Upsert(ctx, r); err != nil {
		return err
	}

	s.logger.WithFields(logrus.Fields{
		"user_id":   r.UserID,
		"series_id": r.SeriesID,
		"status":    r.Status,
	}).Info("Rating recorded")

	tags := []string{
		cache.TagRatingsForSeries(r.SeriesID),
		cache.TagRatingsForUser(r.UserID),
		cache.TagActivity,
	}
	if err := s.cache.Invalidate(ctx, tags...); err != nil {
		s.logger.WithError(err).Warn("Failed to invalidate rating cache")
	}
	return nil
}

// repair collapses duplicate (user, series) rows to the most recently
// updated one. Duplicates predate the unique index; seeing one means the
// at-most-one-record invariant was violated at some point, so it is logged
// loudly and the stale rows are removed best-effort.
func (s *RatingService) repair(ctx context.Context, ratings []models.Rating) []models.Rating {
	type pair struct {
		userID   string
		seriesID int64
	}

	latest := make(map[pair]models.Rating)
	order := make([]pair, 0, len(ratings))
	duplicates := 0
	for _, r := range ratings {
		p := pair{r.UserID, r.SeriesID}
		existing, ok := latest[p]
		if !ok {
			latest[p] = r
			order = append(order, p)
			continue
		}
		duplicates++
		if r.UpdatedAt.After(existing.UpdatedAt) {
			latest[p] = r
		}
	}
	if duplicates == 0 {
		return ratings
	}

	s.logger.WithField("duplicates", duplicates).Warn("Collapsed duplicate rating records for a (user, series) pair")
	result := make([]models.Rating, 0, len(order))
	for _, p := range order {
		r := latest[p]
		result = append(result, r)
		if err := s.ratings.DeleteBefore(ctx, p.userID, p.seriesID, r.UpdatedAt); err != nil {
			s.logger.WithError(err).Warn("Failed to delete stale rating records")
		}
	}
	return result
}

func (s *RatingService) ensurePair(ctx context.Context, userID string, seriesID int64) error {
	if err := s.ensureUser(ctx, userID); err != nil {
		return err
	}
	return s.ensureSeries(ctx, seriesID)
}

func (s *RatingService) ensureUser(ctx context.Context, userID string) error {
	if userID == "" {
		return invalid("user_id", "must not be empty")
	}
	missing, err := s.users.Missing(ctx, []string{userID})
	if err != nil {
		return fmt.Errorf("failed to check user existence: %w", err)
	}
	if len(missing) > 0 {
		return invalid("user_id", "unknown user "+userID)
	}
	return nil
}

func (s *RatingService) ensureSeries(ctx context.Context, seriesID int64) error {
	exists, err := s.series.Exists(ctx, seriesID)
	if err != nil {
		return fmt.Errorf("failed to check series existence: %w", err)
	}
	if !exists {
		return invalid("series_id", fmt.Sprintf("unknown series %d", seriesID))
	}
	return nil
}

func (s *RatingService) userNames(ctx context.Context) (map[string]string, error) {
	users, err := s.users.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load users: %w", err)
	}
	names := make(map[string]string, len(users))
	for _, u := range users {
		names[u.ID] = u.Name
	}
	return names, nil
}

// seriesName resolves a series id for display. A missing series degrades to
// the raw id rather than failing the whole read.
func (s *RatingService) seriesName(ctx context.Context, seriesID int64) string {
	sr, err := s.series.GetByID(ctx, seriesID)
	if err != nil {
		return strconv.FormatInt(seriesID, 10)
	}
	return sr.Name
}

func displayName(names map[string]string, userID string) string {
	if name, ok := names[userID]; ok && name != "" {
		return name
	}
	return userID
}
