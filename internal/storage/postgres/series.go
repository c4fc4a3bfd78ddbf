package postgres

import (
	"context"
	"errors"
	"fmt"

	"watchparty/internal/models"
	"watchparty/internal/storage"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type SeriesRepository struct {
	db *pgxpool.Pool
}

func NewSeriesRepository(db *pgxpool.Pool) *SeriesRepository {
	return &SeriesRepository{db: db}
}

const seriesColumns = `
	s.id, s.name, s.genre, s.year, s.episodes, s.rating,
	COALESCE(array_agg(sp.platform ORDER BY sp.platform) FILTER (WHERE sp.platform IS NOT NULL), '{}')
`

func (r *SeriesRepository) List(ctx context.Context, limit int) ([]models.Series, error) {
	query := `
	SELECT ` + seriesColumns + `
	FROM series s
	LEFT JOIN series_platform sp ON sp.series_id = s.id
	GROUP BY s.id
	ORDER BY s.id
	LIMIT $1
	`

	rows, err := r.db.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query series: %w", err)
	}
	defer rows.Close()

	return scanSeriesRows(rows)
}

func (r *SeriesRepository) GetByID(ctx context.Context, id int64) (*models.Series, error) {
	query := `
	SELECT ` + seriesColumns + `
	FROM series s
	LEFT JOIN series_platform sp ON sp.series_id = s.id
	WHERE s.id = $1
	GROUP BY s.id
	`

	var s models.Series
	err := r.db.QueryRow(ctx, query, id).Scan(
		&s.ID, &s.Name, &s.Genre, &s.Year, &s.Episodes, &s.Rating, &s.Platforms,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query series %d: %w", id, err)
	}
	return &s, nil
}

func (r *SeriesRepository) OnPlatform(ctx context.Context, platform string, limit int) ([]models.Series, error) {
	query := `
	SELECT ` + seriesColumns + `
	FROM series s
	LEFT JOIN series_platform sp ON sp.series_id = s.id
	WHERE s.id IN (SELECT series_id FROM series_platform WHERE platform = $1)
	GROUP BY s.id
	ORDER BY s.id
	LIMIT $2
	`

	rows, err := r.db.Query(ctx, query, platform, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query series on platform %q: %w", platform, err)
	}
	defer rows.Close()

	return scanSeriesRows(rows)
}

func (r *SeriesRepository) Platforms(ctx context.Context) ([]string, error) {
	rows, err := r.db.Query(ctx, `SELECT DISTINCT platform FROM series_platform ORDER BY platform`)
	if err != nil {
		return nil, fmt.Errorf("failed to query platforms: %w", err)
	}
	defer rows.Close()

	var platforms []string
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, fmt.Errorf("failed to scan platform row: %w", err)
		}
		platforms = append(platforms, p)
	}
	return platforms, rows.Err()
}

func (r *SeriesRepository) Exists(ctx context.Context, id int64) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM series WHERE id = $1)`, id).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check if series exists: %w", err)
	}
	return exists, nil
}

func scanSeriesRows(rows pgx.Rows) ([]models.Series, error) {
	var result []models.Series
	for rows.Next() {
		var s models.Series
		if err := rows.Scan(&s.ID, &s.Name, &s.Genre, &s.Year, &s.Episodes, &s.Rating, &s.Platforms); err != nil {
			return nil, fmt.Errorf("failed to scan series row: %w", err)
		}
		result = append(result, s)
	}
	return result, rows.Err()
}
