package track

import (
	"fmt"
	"math/rand/v2"
	"regexp"
	"strings"
	"time"
)

var (
	slugStrip      = regexp.MustCompile(`[^a-z0-9_\s-]`)
	slugSeparators = regexp.MustCompile(`[\s_]+`)
	slugHyphens    = regexp.MustCompile(`-+`)
)

// fallbackSlugBase is used when nothing of the title survives slugging.
const fallbackSlugBase = "track"

// BaseSlug derives the human-readable part of a slug from a title:
// lowercase ASCII letters, digits and single hyphens, no edge hyphens.
func BaseSlug(title string) string {
	s := strings.ToLower(title)
	s = slugStrip.ReplaceAllString(s, "")
	s = slugSeparators.ReplaceAllString(s, "-")
	s = slugHyphens.ReplaceAllString(s, "-")
	s = strings.Trim(s, "-")
	if s == "" {
		return fallbackSlugBase
	}
	return s
}

// NewSlug returns a slug for title made unique by the millisecond timestamp
// of now and a random suffix in [0, 1000).
func NewSlug(title string, now time.Time) string {
	return fmt.Sprintf("%s-%d-%d", BaseSlug(title), now.UnixMilli(), rand.IntN(1000))
}

// RetrySlug returns a fresh slug for a second write attempt after the remote
// store rejected the first one as taken.
func RetrySlug(title string, now time.Time) string {
	return fmt.Sprintf("%s-retry-%d", NewSlug(title, now), now.UnixMilli())
}
