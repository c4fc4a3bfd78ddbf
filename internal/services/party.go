package services

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"watchparty/internal/cache"
	"watchparty/internal/models"
	"watchparty/internal/storage"

	"github.com/sirupsen/logrus"
)

const (
	partyListPrefix = "watchparties:list:"
	lobbyKeyPrefix  = "watchparties:lobby:"

	maxPartyListLimit = 100
)

type CreatePartyInput struct {
	SeriesID    int64     `json:"series_id"`
	HostID      string    `json:"host_id"`
	ScheduledAt time.Time `json:"scheduled_at"`
	Platform    string    `json:"platform"`
	Invited     []string  `json:"invited"`
}

// PartyService owns the watch-party lifecycle: create, join, leave and the
// lobby view. Parties are never deleted; there is no cancellation flow.
type PartyService struct {
	parties storage.PartyRepository
	series  storage.SeriesRepository
	users   storage.UserRepository
	cache   cache.Cache
	logger  *logrus.Logger
}

func NewPartyService(parties storage.PartyRepository, series storage.SeriesRepository, users storage.UserRepository, c cache.Cache, logger *logrus.Logger) *PartyService {
	return &PartyService{
		parties: parties,
		series:  series,
		users:   users,
		cache:   c,
		logger:  logger,
	}
}

// Create validates every referenced record, collapses duplicate invitees and
// always puts the host into the participant set, then persists the party.
// The store assigns the W<n> id.
func (s *PartyService) Create(ctx context.Context, in CreatePartyInput) (*models.WatchParty, error) {
	if in.HostID == "" {
		return nil, invalid("host_id", "must not be empty")
	}
	if in.ScheduledAt.IsZero() {
		return nil, invalid("scheduled_at", "must be a valid timestamp")
	}
	if strings.TrimSpace(in.Platform) == "" {
		return nil, invalid("platform", "must not be empty")
	}

	exists, err := s.series.Exists(ctx, in.SeriesID)
	if err != nil {
		return nil, fmt.Errorf("failed to check series existence: %w", err)
	}
	if !exists {
		return nil, invalid("series_id", fmt.Sprintf("unknown series %d", in.SeriesID))
	}

	participants := dedupe(in.HostID, in.Invited)
	missing, err := s.users.Missing(ctx, participants)
	if err != nil {
		return nil, fmt.Errorf("failed to check user existence: %w", err)
	}
	if len(missing) > 0 {
		return nil, invalid("invited", "unknown users: "+strings.Join(missing, ", "))
	}

	party := &models.WatchParty{
		SeriesID:     in.SeriesID,
		HostID:       in.HostID,
		ScheduledAt:  in.ScheduledAt,
		Platform:     in.Platform,
		Participants: participants,
	}
	if err := s.parties.Insert(ctx, party); err != nil {
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"party_id":     party.ID,
		"series_id":    party.SeriesID,
		"host_id":      party.HostID,
		"participants": len(party.Participants),
	}).Info("Watch party created")

	s.invalidate(ctx, party.ID)
	return party, nil
}

// Join adds the user to the participant set. A user that is already in the
// set gets ErrAlreadyMember so callers can tell the no-op apart.
func (s *PartyService) Join(ctx context.Context, partyID, userID string) error {
	if err := s.ensureUser(ctx, userID); err != nil {
		return err
	}
	if _, err := s.parties.GetByID(ctx, partyID); err != nil {
		return err
	}

	added, err := s.parties.AddParticipant(ctx, partyID, userID)
	if err != nil {
		return err
	}
	if !added {
		return ErrAlreadyMember
	}

	s.logger.WithFields(logrus.Fields{"party_id": partyID, "user_id": userID}).Info("User joined watch party")
	s.invalidate(ctx, partyID)
	return nil
}

// Leave removes the user from the participant set, ErrNotMember when absent.
func (s *PartyService) Leave(ctx context.Context, partyID, userID string) error {
	if err := s.ensureUser(ctx, userID); err != nil {
		return err
	}
	if _, err := s.parties.GetByID(ctx, partyID); err != nil {
		return err
	}

	removed, err := s.parties.RemoveParticipant(ctx, partyID, userID)
	if err != nil {
		return err
	}
	if !removed {
		return ErrNotMember
	}

	s.logger.WithFields(logrus.Fields{"party_id": partyID, "user_id": userID}).Info("User left watch party")
	s.invalidate(ctx, partyID)
	return nil
}

// Lobby resolves the party with its series and display names. It either
// returns the complete view or an error, never partial data.
func (s *PartyService) Lobby(ctx context.Context, partyID string) (*models.WatchPartyDetails, error) {
	key := lobbyKeyPrefix + partyID
	tags := []string{cache.TagWatchParties}
	return cached(ctx, s.cache, s.logger, key, tags, func(ctx context.Context) (*models.WatchPartyDetails, error) {
		party, err := s.parties.GetByID(ctx, partyID)
		if err != nil {
			return nil, err
		}
		series, err := s.series.GetByID(ctx, party.SeriesID)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve series for party %s: %w", partyID, err)
		}
		users, err := s.users.List(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to load users: %w", err)
		}
		names := make(map[string]string, len(users))
		for _, u := range users {
			names[u.ID] = u.Name
		}

		details := &models.WatchPartyDetails{
			WatchParty: *party,
			SeriesName: series.Name,
			HostName:   displayName(names, party.HostID),
		}
		for _, id := range party.Participants {
			details.ParticipantNames = append(details.ParticipantNames, displayName(names, id))
		}
		return details, nil
	})
}

func (s *PartyService) ListParties(ctx context.Context, limit int) ([]models.WatchParty, error) {
	if limit <= 0 || limit > maxPartyListLimit {
		limit = maxPartyListLimit
	}
	key := partyListPrefix + strconv.Itoa(limit)
	tags := []string{cache.TagWatchParties}
	return cached(ctx, s.cache, s.logger, key, tags, func(ctx context.Context) ([]models.WatchParty, error) {
		return s.parties.List(ctx, limit)
	})
}

func (s *PartyService) ensureUser(ctx context.Context, userID string) error {
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

func (s *PartyService) invalidate(ctx context.Context, partyID string) {
	if err := s.cache.Invalidate(ctx, cache.TagWatchParties); err != nil {
		s.logger.WithError(err).WithField("party_id", partyID).Warn("Failed to invalidate watch party cache")
	}
}

// dedupe collapses the invited set and guarantees the host is a participant.
func dedupe(hostID string, invited []string) []string {
	seen := map[string]struct{}{hostID: {}}
	participants := []string{hostID}
	for _, id := range invited {
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		participants = append(participants, id)
	}
	return participants
}
