// Package storage defines the contracts the rules engine needs from the
// catalogue and membership store. Postgres is the authoritative backend; the
// memory backend exists for tests and cache-less development.
package storage

import (
	"context"
	"errors"
	"time"

	"watchparty/internal/models"
)

var ErrNotFound = errors.New("record not found")

type SeriesRepository interface {
	List(ctx context.Context, limit int) ([]models.Series, error)
	GetByID(ctx context.Context, id int64) (*models.Series, error)
	OnPlatform(ctx context.Context, platform string, limit int) ([]models.Series, error)
	Platforms(ctx context.Context) ([]string, error)
	Exists(ctx context.Context, id int64) (bool, error)
}

type UserRepository interface {
	List(ctx context.Context) ([]models.User, error)
	GetByID(ctx context.Context, id string) (*models.User, error)
	// Missing returns the subset of ids with no matching user.
	Missing(ctx context.Context, ids []string) ([]string, error)
}

type RatingRepository interface {
	// Upsert inserts or replaces the single record for (UserID, SeriesID)
	// and refreshes r.UpdatedAt from the store.
	Upsert(ctx context.Context, r *models.Rating) error
	Get(ctx context.Context, userID string, seriesID int64) (*models.Rating, error)
	ForUser(ctx context.Context, userID string) ([]models.Rating, error)
	ForSeries(ctx context.Context, seriesID int64) ([]models.Rating, error)
	Recent(ctx context.Context, limit int) ([]models.Rating, error)
	// DeleteBefore removes rows for the pair older than the given time.
	// Used by repair-on-read to collapse legacy duplicates.
	DeleteBefore(ctx context.Context, userID string, seriesID int64, before time.Time) error
}

type PartyRepository interface {
	// Insert persists p and assigns its id (W<n> token, max suffix + 1).
	Insert(ctx context.Context, p *models.WatchParty) error
	GetByID(ctx context.Context, id string) (*models.WatchParty, error)
	List(ctx context.Context, limit int) ([]models.WatchParty, error)
	// AddParticipant appends userID to the participant set if absent.
	// Returns false when the user was already a member.
	AddParticipant(ctx context.Context, partyID, userID string) (bool, error)
	// RemoveParticipant removes userID from the participant set if present.
	// Returns false when the user was not a member.
	RemoveParticipant(ctx context.Context, partyID, userID string) (bool, error)
}
