package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"watchparty/internal/models"
	"watchparty/internal/storage"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type RatingRepository struct {
	db *pgxpool.Pool
}

func NewRatingRepository(db *pgxpool.Pool) *RatingRepository {
	return &RatingRepository{db: db}
}

// Upsert is keyed on the (user_id, series_id) unique index, so a re-rating
// replaces the previous record in one statement instead of delete-then-insert.
func (r *RatingRepository) Upsert(ctx context.Context, rating *models.Rating) error {
	query := `
	INSERT INTO ratings (user_id, series_id, status, stars, review, updated_at)
	VALUES ($1, $2, $3, $4, $5, now())
	ON CONFLICT (user_id, series_id) DO UPDATE SET
		status = EXCLUDED.status,
		stars = EXCLUDED.stars,
		review = EXCLUDED.review,
		updated_at = now()
	RETURNING updated_at
	`

	err := r.db.QueryRow(ctx, query,
		rating.UserID, rating.SeriesID, rating.Status, rating.Stars, rating.Review,
	).Scan(&rating.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert rating: %w", err)
	}
	return nil
}

func (r *RatingRepository) Get(ctx context.Context, userID string, seriesID int64) (*models.Rating, error) {
	query := ratingSelect + ` WHERE user_id = $1 AND series_id = $2 ORDER BY updated_at DESC LIMIT 1`

	var rating models.Rating
	err := r.db.QueryRow(ctx, query, userID, seriesID).Scan(
		&rating.UserID, &rating.SeriesID, &rating.Status, &rating.Stars, &rating.Review, &rating.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query rating: %w", err)
	}
	return &rating, nil
}

func (r *RatingRepository) ForUser(ctx context.Context, userID string) ([]models.Rating, error) {
	query := ratingSelect + ` WHERE user_id = $1 ORDER BY updated_at DESC`
	return r.queryRatings(ctx, query, userID)
}

func (r *RatingRepository) ForSeries(ctx context.Context, seriesID int64) ([]models.Rating, error) {
	query := ratingSelect + ` WHERE series_id = $1 ORDER BY updated_at DESC`
	return r.queryRatings(ctx, query, seriesID)
}

func (r *RatingRepository) Recent(ctx context.Context, limit int) ([]models.Rating, error) {
	query := ratingSelect + ` ORDER BY updated_at DESC LIMIT $1`
	return r.queryRatings(ctx, query, limit)
}

func (r *RatingRepository) DeleteBefore(ctx context.Context, userID string, seriesID int64, before time.Time) error {
	_, err := r.db.Exec(ctx,
		`DELETE FROM ratings WHERE user_id = $1 AND series_id = $2 AND updated_at < $3`,
		userID, seriesID, before,
	)
	if err != nil {
		return fmt.Errorf("failed to delete stale ratings: %w", err)
	}
	return nil
}

const ratingSelect = `SELECT user_id, series_id, status, stars, review, updated_at FROM ratings`

func (r *RatingRepository) queryRatings(ctx context.Context, query string, args ...any) ([]models.Rating, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query ratings: %w", err)
	}
	defer rows.Close()

	var ratings []models.Rating
	for rows.Next() {
		var rating models.Rating
		if err := rows.Scan(
			&rating.UserID, &rating.SeriesID, &rating.Status, &rating.Stars, &rating.Review, &rating.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan rating row: %w", err)
		}
		ratings = append(ratings, rating)
	}
	return ratings, rows.Err()
}
