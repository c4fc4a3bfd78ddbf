package models

type User struct {
	ID        string   `json:"user_id" db:"id"`
	Name      string   `json:"name" db:"name"`
	Platforms []string `json:"platforms" db:"platforms"` // subscribed platforms, read-side filter only
}
