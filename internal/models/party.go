package models

import (
	"strconv"
	"strings"
	"time"
)

const partyIDPrefix = "W"

type WatchParty struct {
	ID           string    `json:"id" db:"id"`
	SeriesID     int64     `json:"series_id" db:"series_id"`
	HostID       string    `json:"host_id" db:"host_id"`
	ScheduledAt  time.Time `json:"scheduled_at" db:"scheduled_at"`
	Platform     string    `json:"platform" db:"platform"`
	Participants []string  `json:"participants" db:"participants"`
}

func (p *WatchParty) HasParticipant(userID string) bool {
	for _, id := range p.Participants {
		if id == userID {
			return true
		}
	}
	return false
}

// WatchPartyDetails is the lobby view: the party with its series and
// display names resolved.
type WatchPartyDetails struct {
	WatchParty
	SeriesName       string   `json:"series_name"`
	HostName         string   `json:"host_name"`
	ParticipantNames []string `json:"participant_names"`
}

// NextPartyID returns the token following the highest numeric suffix among
// existing ids, e.g. {W1, W3, W7} -> W8. Ids that do not parse as W<n> are
// skipped. An empty set yields W1.
func NextPartyID(existing []string) string {
	highest := 0
	for _, id := range existing {
		if !strings.HasPrefix(id, partyIDPrefix) {
			continue
		}
		n, err := strconv.Atoi(strings.TrimPrefix(id, partyIDPrefix))
		if err != nil || n < 0 {
			continue
		}
		if n > highest {
			highest = n
		}
	}
	return partyIDPrefix + strconv.Itoa(highest+1)
}
