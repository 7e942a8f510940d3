// Package track defines the canonical crate track record and the pure
// helpers that keep it canonical: format and status normalization, slug
// generation, duplicate keys, field edits and search.
package track

import (
	"errors"
	"strings"
	"time"
)

// Common errors.
var (
	// ErrEmptyTitle is returned when a track has no title.
	ErrEmptyTitle = errors.New("track title is required")

	// ErrUnknownField is returned when an edit names a field that does not exist.
	ErrUnknownField = errors.New("unknown track field")

	// ErrInvalidValue is returned when an edit value has the wrong type or range.
	ErrInvalidValue = errors.New("invalid field value")
)

// Format is the physical or file format of a track.
type Format string

// Canonical formats. These are the only values accepted by the remote table.
const (
	FormatMP3   Format = "MP3"
	FormatFLAC  Format = "FLAC"
	FormatWAV   Format = "WAV"
	FormatAIFF  Format = "AIFF"
	FormatVinyl Format = "Vinyl"
	FormatOther Format = "Other"
)

// Formats lists the canonical formats in display order.
var Formats = []Format{FormatMP3, FormatFLAC, FormatWAV, FormatAIFF, FormatVinyl, FormatOther}

var formatByUpper = func() map[string]Format {
	m := make(map[string]Format, len(Formats))
	for _, f := range Formats {
		m[strings.ToUpper(string(f))] = f
	}
	return m
}()

// NormalizeFormat maps free-form input to a canonical Format.
// Anything unrecognized, including the empty string, becomes FormatOther.
func NormalizeFormat(s string) Format {
	if f, ok := formatByUpper[strings.ToUpper(strings.TrimSpace(s))]; ok {
		return f
	}
	return FormatOther
}

// Status is the ownership status of a track.
type Status string

const (
	StatusOwned  Status = "owned"
	StatusWanted Status = "wanted"
)

// ParseStatus maps free-form input to a Status.
// Only "owned" (any case) is owned; everything else is wanted.
func ParseStatus(s string) Status {
	if strings.EqualFold(strings.TrimSpace(s), string(StatusOwned)) {
		return StatusOwned
	}
	return StatusWanted
}

// Track is one entry in the crate.
type Track struct {
	ID          string    `json:"id"`
	Slug        string    `json:"slug"`
	Title       string    `json:"title"`
	Artist      string    `json:"artist,omitempty"`
	Status      Status    `json:"owned_status"`
	Format      Format    `json:"format"`
	Album       string    `json:"album,omitempty"`
	ReleaseYear int       `json:"release_year,omitempty"`
	BPM         float64   `json:"bpm,omitempty"`
	Key         string    `json:"camelot_key,omitempty"`
	Comments    string    `json:"comments,omitempty"`
	AddedAt     time.Time `json:"added_at"`
}

// Normalize returns a copy of t with every enumerated field in canonical
// form and surrounding whitespace trimmed from the free-text identity fields.
// It is idempotent.
func Normalize(t Track) Track {
	t.Title = strings.TrimSpace(t.Title)
	t.Artist = strings.TrimSpace(t.Artist)
	t.Format = NormalizeFormat(string(t.Format))
	t.Status = ParseStatus(string(t.Status))
	t.Key = normalizeKey(t.Key)
	if t.BPM < 0 {
		t.BPM = 0
	}
	if t.ReleaseYear < 0 {
		t.ReleaseYear = 0
	}
	return t
}

// Validate reports whether t can be stored.
func Validate(t Track) error {
	if strings.TrimSpace(t.Title) == "" {
		return ErrEmptyTitle
	}
	return nil
}

// DuplicateKey returns the case-insensitive (title, artist) identity of a track.
// Two tracks with equal keys are duplicates.
func DuplicateKey(title, artist string) string {
	return strings.ToLower(strings.TrimSpace(title)) + "\x00" + strings.ToLower(strings.TrimSpace(artist))
}

// DuplicateKey returns the duplicate key of t.
func (t Track) DuplicateKey() string {
	return DuplicateKey(t.Title, t.Artist)
}
