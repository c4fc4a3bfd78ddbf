package models

type Series struct {
	ID        int64    `json:"id" db:"id"`
	Name      string   `json:"name" db:"name"`
	Genre     string   `json:"genre" db:"genre"`
	Year      int      `json:"year" db:"year"`
	Episodes  int      `json:"episodes" db:"episodes"`
	Platforms []string `json:"platforms" db:"platforms"`
	Rating    *float64 `json:"rating" db:"rating"` // aggregate, maintained externally
}
