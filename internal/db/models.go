package db

import (
	"time"
)

// Track is a row of the tracks table.
// Nullable columns are pointers; Owned is the legacy boolean that predates
// the owned_status column and is only ever read.
type Track struct {
	ID          string
	Slug        string
	Title       string
	Artist      *string    // nullable
	OwnedStatus *string    // nullable
	Owned       *bool      // nullable, legacy
	Format      *string    // nullable
	Album       *string    // nullable
	ReleaseYear *int       // nullable
	BPM         *float64   // nullable
	CamelotKey  *string    // nullable
	Comments    *string    // nullable
	AddedAt     *time.Time // nullable, date only
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
