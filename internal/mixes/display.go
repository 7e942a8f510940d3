package mixes

import (
	"fmt"
	"strings"

	"github.com/justestif/go-crate-keeper/internal/track"
)

const sampleTrackCount = 3

// FormatSummary returns a human-readable summary of mixes.
// Shows the tempo band, track count and the first 3 tracks of each mix.
// Outliers are summarized by count only.
func FormatSummary(mixes []Mix, outliers []track.Track) string {
	var sb strings.Builder

	totalTracks := len(outliers)
	for _, m := range mixes {
		totalTracks += len(m.Tracks)
	}

	if len(mixes) == 0 {
		sb.WriteString(fmt.Sprintf("No mixes found from %d tracks", totalTracks))
		if len(outliers) > 0 {
			sb.WriteString(fmt.Sprintf(" (%d outliers skipped)", len(outliers)))
		}
		sb.WriteString("\n")
		return sb.String()
	}

	mixWord := "mix"
	if len(mixes) > 1 {
		mixWord = "mixes"
	}

	sb.WriteString(fmt.Sprintf("Found %d %s from %d tracks", len(mixes), mixWord, totalTracks))
	if len(outliers) > 0 {
		sb.WriteString(fmt.Sprintf(" (%d outliers skipped)", len(outliers)))
	}
	sb.WriteString("\n")

	for i, m := range mixes {
		sb.WriteString("\n")
		sb.WriteString(formatMix(i+1, m))
	}

	return sb.String()
}

// formatMix formats a single mix with its sample tracks.
func formatMix(num int, m Mix) string {
	var sb strings.Builder

	trackWord := "track"
	if len(m.Tracks) > 1 {
		trackWord = "tracks"
	}

	sb.WriteString(fmt.Sprintf("Mix %d: %s, %s (%d %s)\n", num, m.Name, m.Label, len(m.Tracks), trackWord))

	sampleCount := min(sampleTrackCount, len(m.Tracks))
	for i := 0; i < sampleCount; i++ {
		t := m.Tracks[i]
		if t.Artist == "" {
			sb.WriteString(fmt.Sprintf("  • %q\n", t.Title))
			continue
		}
		sb.WriteString(fmt.Sprintf("  • %q - %s\n", t.Title, t.Artist))
	}

	remaining := len(m.Tracks) - sampleTrackCount
	if remaining > 0 {
		sb.WriteString(fmt.Sprintf("  ... and %d more\n", remaining))
	}

	return sb.String()
}
