// Package grabber extracts candidate tracks from outside sources so they
// can be added to the crate: a tracklist-extraction webhook, audio files,
// CSV exports and Spotify links.
package grabber

import (
	"fmt"
	"strings"
	"time"

	"github.com/justestif/go-crate-keeper/internal/track"
)

// Mode is the kind of input a grab was made from.
type Mode string

const (
	ModeText  Mode = "text"
	ModeURL   Mode = "url"
	ModeImage Mode = "image"
	ModeFile  Mode = "file"
)

// ParseMode validates a mode name.
func ParseMode(s string) (Mode, error) {
	switch m := Mode(strings.ToLower(strings.TrimSpace(s))); m {
	case ModeText, ModeURL, ModeImage, ModeFile:
		return m, nil
	}
	return "", fmt.Errorf("unknown grab mode %q", s)
}

// Candidate is a track found by the grabber, not yet in the crate.
type Candidate struct {
	Title  string       `json:"title"`
	Artist string       `json:"artist"`
	Album  string       `json:"album,omitempty"`
	Year   int          `json:"year,omitempty"`
	Format track.Format `json:"format,omitempty"`
	Source string       `json:"source,omitempty"`
}

// Track converts c to a crate record with the grabber defaults: wanted,
// on vinyl unless the format is known, released this year unless the year
// is known, and a comment recording when it was grabbed.
func (c Candidate) Track(now time.Time) track.Track {
	t := track.Track{
		Title:       c.Title,
		Artist:      c.Artist,
		Album:       c.Album,
		Status:      track.StatusWanted,
		Format:      c.Format,
		ReleaseYear: c.Year,
		Comments:    "Added from Track Grabber on " + now.Format("2006-01-02"),
		AddedAt:     time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC),
	}
	if t.Format == "" {
		t.Format = track.FormatVinyl
	}
	if t.ReleaseYear == 0 {
		t.ReleaseYear = now.Year()
	}
	return track.Normalize(t)
}

// Tracks converts every candidate with Candidate.Track.
func Tracks(candidates []Candidate, now time.Time) []track.Track {
	out := make([]track.Track, len(candidates))
	for i, c := range candidates {
		out[i] = c.Track(now)
	}
	return out
}
