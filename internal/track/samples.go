package track

import (
	"time"

	"github.com/google/uuid"
)

// Samples returns the built-in tracks used to seed an empty crate.
// Each call assigns fresh ids and slugs.
func Samples(now time.Time) []Track {
	seed := []Track{
		{
			Title:       "Strings of Life",
			Artist:      "Rhythim Is Rhythim",
			Status:      StatusOwned,
			Format:      FormatVinyl,
			Album:       "Strings of Life",
			ReleaseYear: 1987,
			BPM:         124,
			Key:         "8A",
			Comments:    "Detroit classic, original Transmat pressing.",
		},
		{
			Title:       "Energy Flash",
			Artist:      "Joey Beltram",
			Status:      StatusOwned,
			Format:      FormatFLAC,
			Album:       "Energy Flash EP",
			ReleaseYear: 1990,
			BPM:         135,
			Key:         "11A",
			Comments:    "Peak-time tool.",
		},
		{
			Title:       "Pacific State",
			Artist:      "808 State",
			Status:      StatusWanted,
			Format:      FormatVinyl,
			Album:       "Ninety",
			ReleaseYear: 1989,
			BPM:         118,
			Key:         "5A",
			Comments:    "Looking for the ZTT 12\".",
		},
	}

	for i := range seed {
		seed[i].ID = uuid.NewString()
		seed[i].Slug = NewSlug(seed[i].Title, now)
		seed[i].AddedAt = now
	}
	return seed
}
