package grabber

import (
	"strings"

	"github.com/adrg/strutil"
	"github.com/adrg/strutil/metrics"

	"github.com/justestif/go-crate-keeper/internal/track"
)

// SimilarityThreshold is the Jaro-Winkler score above which a candidate is
// reported as probably already in the crate.
const SimilarityThreshold = 0.9

// Annotated is a candidate checked against the crate.
type Annotated struct {
	Candidate
	// InCrate is set when the crate has a track with the same title and
	// artist, ignoring case. Adding the candidate would be rejected.
	InCrate bool `json:"in_crate"`
	// SimilarID is the closest crate track scoring at least
	// SimilarityThreshold, if any.
	SimilarID  string  `json:"similar_id,omitempty"`
	Similarity float64 `json:"similarity,omitempty"`
}

// Annotate checks each candidate against the crate.
func Annotate(candidates []Candidate, crate []track.Track) []Annotated {
	keys := make(map[string]string, len(crate))
	labels := make([]string, len(crate))
	for i, t := range crate {
		keys[t.DuplicateKey()] = t.ID
		labels[i] = label(t.Artist, t.Title)
	}

	jw := metrics.NewJaroWinkler()

	out := make([]Annotated, len(candidates))
	for i, c := range candidates {
		a := Annotated{Candidate: c}
		if id, ok := keys[track.DuplicateKey(c.Title, c.Artist)]; ok {
			a.InCrate = true
			a.SimilarID = id
			a.Similarity = 1
			out[i] = a
			continue
		}

		query := label(c.Artist, c.Title)
		for j, l := range labels {
			score := strutil.Similarity(query, l, jw)
			if score >= SimilarityThreshold && score > a.Similarity {
				a.SimilarID = crate[j].ID
				a.Similarity = score
			}
		}
		out[i] = a
	}
	return out
}

func label(artist, title string) string {
	return strings.ToLower(strings.TrimSpace(artist) + " " + strings.TrimSpace(title))
}
