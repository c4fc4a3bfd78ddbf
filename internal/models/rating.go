package models

import "time"

type Status string

const (
	StatusWatchlist Status = "watchlist"
	StatusWatched   Status = "watched"
)

// Rating is the single persisted record of a user's relationship to a series.
// At most one row exists per (user, series) pair; mutations go through a keyed
// upsert, never delete-then-insert.
type Rating struct {
	UserID    string    `json:"user_id" db:"user_id"`
	SeriesID  int64     `json:"series_id" db:"series_id"`
	Status    Status    `json:"status" db:"status"`
	Stars     *int      `json:"stars" db:"stars"`
	Review    string    `json:"review" db:"review"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// Review is a rating joined with the reviewer's display name.
type Review struct {
	Rating
	UserName string `json:"user_name"`
}

// ActivityItem is a recent rating resolved against user and series names.
type ActivityItem struct {
	Rating
	UserName   string `json:"user_name"`
	SeriesName string `json:"series_name"`
}

// ShelfEntry is a rating resolved against its series name.
type ShelfEntry struct {
	Rating
	SeriesName string `json:"series_name"`
}

// Shelf is a user's watchlist page split by status.
type Shelf struct {
	ToWatch []ShelfEntry `json:"to_watch"`
	Watched []ShelfEntry `json:"watched"`
}
