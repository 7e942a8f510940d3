package mixes

import (
	"fmt"
	"math"
)

// mixName renders "~<bpm> BPM · <key>", dropping the key when unknown.
func mixName(avgBPM float64, key string) string {
	name := fmt.Sprintf("~%d BPM", int(math.Round(avgBPM)))
	if key != "" {
		name += " · " + key
	}
	return name
}

// tempoLabel names the tempo band an average BPM falls in.
//
// Bands:
//   - below 100: "Downtempo"
//   - 100 to 117: "Deep"
//   - 118 to 127: "House"
//   - 128 to 139: "Techno"
//   - 140 and up: "Fast"
func tempoLabel(bpm float64) string {
	switch bpm = math.Round(bpm); {
	case bpm < 100:
		return "Downtempo"
	case bpm < 118:
		return "Deep"
	case bpm < 128:
		return "House"
	case bpm < 140:
		return "Techno"
	default:
		return "Fast"
	}
}
