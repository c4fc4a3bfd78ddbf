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

type PartyRepository struct {
	db *pgxpool.Pool
}

func NewPartyRepository(db *pgxpool.Pool) *PartyRepository {
	return &PartyRepository{db: db}
}

// Insert assigns the W<n> token inside the INSERT itself so the max-suffix
// scan and the write happen in one statement. Concurrent creates can still
// collide on the token; the primary key rejects the loser instead of
// silently duplicating.
func (r *PartyRepository) Insert(ctx context.Context, p *models.WatchParty) error {
	query := `
	INSERT INTO watchparties (id, series_id, host_id, scheduled_at, platform, participants)
	SELECT 'W' || (COALESCE(MAX(NULLIF(substring(id FROM 2), '')::int), 0) + 1),
	       $1, $2, $3, $4, $5
	FROM watchparties
	RETURNING id
	`

	err := r.db.QueryRow(ctx, query,
		p.SeriesID, p.HostID, p.ScheduledAt, p.Platform, p.Participants,
	).Scan(&p.ID)
	if err != nil {
		return fmt.Errorf("failed to insert watch party: %w", err)
	}
	return nil
}

func (r *PartyRepository) GetByID(ctx context.Context, id string) (*models.WatchParty, error) {
	query := `
	SELECT id, series_id, host_id, scheduled_at, platform, participants
	FROM watchparties
	WHERE id = $1
	`

	var p models.WatchParty
	err := r.db.QueryRow(ctx, query, id).Scan(
		&p.ID, &p.SeriesID, &p.HostID, &p.ScheduledAt, &p.Platform, &p.Participants,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query watch party %s: %w", id, err)
	}
	return &p, nil
}

func (r *PartyRepository) List(ctx context.Context, limit int) ([]models.WatchParty, error) {
	query := `
	SELECT id, series_id, host_id, scheduled_at, platform, participants
	FROM watchparties
	ORDER BY scheduled_at
	LIMIT $1
	`

	rows, err := r.db.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query watch parties: %w", err)
	}
	defer rows.Close()

	var parties []models.WatchParty
	for rows.Next() {
		var p models.WatchParty
		if err := rows.Scan(&p.ID, &p.SeriesID, &p.HostID, &p.ScheduledAt, &p.Platform, &p.Participants); err != nil {
			return nil, fmt.Errorf("failed to scan watch party row: %w", err)
		}
		parties = append(parties, p)
	}
	return parties, rows.Err()
}

// AddParticipant appends atomically at the store: the membership guard and the
// array write are one UPDATE, so concurrent joins cannot drop each other.
func (r *PartyRepository) AddParticipant(ctx context.Context, partyID, userID string) (bool, error) {
	tag, err := r.db.Exec(ctx, `
	UPDATE watchparties
	SET participants = array_append(participants, $2)
	WHERE id = $1 AND NOT ($2 = ANY(participants))
	`, partyID, userID)
	if err != nil {
		return false, fmt.Errorf("failed to add participant: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

func (r *PartyRepository) RemoveParticipant(ctx context.Context, partyID, userID string) (bool, error) {
	tag, err := r.db.Exec(ctx, `
	UPDATE watchparties
	SET participants = array_remove(participants, $2)
	WHERE id = $1 AND $2 = ANY(participants)
	`, partyID, userID)
	if err != nil {
		return false, fmt.Errorf("failed to remove participant: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}
