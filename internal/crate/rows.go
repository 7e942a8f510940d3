package crate

import (
	"time"

	"github.com/justestif/go-crate-keeper/internal/db"
	"github.com/justestif/go-crate-keeper/internal/track"
)

// fromRow migrates a remote row to the canonical record. It is the only
// place the legacy owned column is interpreted.
func fromRow(row db.Track, now time.Time) track.Track {
	t := track.Track{
		ID:     row.ID,
		Slug:   row.Slug,
		Title:  row.Title,
		Artist: deref(row.Artist),
		Format: track.Format(deref(row.Format)),
		Album:  deref(row.Album),
		Key:    deref(row.CamelotKey),
		Status: legacyStatus(row.OwnedStatus, row.Owned),

		Comments: deref(row.Comments),
	}
	if row.ReleaseYear != nil {
		t.ReleaseYear = *row.ReleaseYear
	}
	if row.BPM != nil {
		t.BPM = *row.BPM
	}
	switch {
	case row.AddedAt != nil:
		t.AddedAt = *row.AddedAt
	case !row.CreatedAt.IsZero():
		t.AddedAt = row.CreatedAt
	default:
		t.AddedAt = now
	}
	if t.Slug == "" {
		t.Slug = track.NewSlug(t.Title, now)
	}
	return track.Normalize(t)
}

func legacyStatus(status *string, owned *bool) track.Status {
	if status != nil {
		switch track.Status(*status) {
		case track.StatusOwned, track.StatusWanted:
			return track.Status(*status)
		}
	}
	if owned != nil && *owned {
		return track.StatusOwned
	}
	return track.StatusWanted
}

// toRow converts a canonical record to the remote row shape.
func toRow(t track.Track) db.Track {
	row := db.Track{
		ID:          t.ID,
		Slug:        t.Slug,
		Title:       t.Title,
		Artist:      optional(t.Artist),
		OwnedStatus: optional(string(t.Status)),
		Format:      optional(string(t.Format)),
		Album:       optional(t.Album),
		CamelotKey:  optional(t.Key),
		Comments:    optional(t.Comments),
	}
	if t.ReleaseYear > 0 {
		year := t.ReleaseYear
		row.ReleaseYear = &year
	}
	if t.BPM > 0 {
		bpm := t.BPM
		row.BPM = &bpm
	}
	if !t.AddedAt.IsZero() {
		added := t.AddedAt
		row.AddedAt = &added
	}
	return row
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
