// Package mixes groups crate tracks into mixable sets by tempo and
// harmonic key using k-means clustering.
package mixes

import (
	"fmt"
	"math"
	"slices"
	"sort"

	"github.com/muesli/clusters"
	"github.com/muesli/kmeans"

	"github.com/justestif/go-crate-keeper/internal/track"
)

// Tempo range used to scale BPM into [0, 1].
const (
	minBPM = 60.0
	maxBPM = 200.0
)

// keyWeight scales the Camelot wheel coordinates relative to tempo.
const keyWeight = 0.5

// Config holds clustering parameters.
type Config struct {
	NumClusters    int // Number of clusters to create (default: 3)
	MinClusterSize int // Minimum tracks per mix (smaller clusters become outliers)
}

// DefaultConfig returns the recommended default configuration.
func DefaultConfig() Config {
	return Config{
		NumClusters:    3,
		MinClusterSize: 2,
	}
}

// Mix is a group of tracks with similar tempo and compatible keys.
type Mix struct {
	Name   string        `json:"name"`   // "~124 BPM · 8A"
	Label  string        `json:"label"`  // tempo band, e.g. "House"
	AvgBPM float64       `json:"avg_bpm"`
	Key    string        `json:"key"`    // most common Camelot key, may be empty
	Tracks []track.Track `json:"tracks"` // sorted by BPM
}

// trackObservation wraps a Track to implement clusters.Observation.
type trackObservation struct {
	track  track.Track
	coords clusters.Coordinates
}

func (o trackObservation) Coordinates() clusters.Coordinates {
	return o.coords
}

func (o trackObservation) Distance(point clusters.Coordinates) float64 {
	return o.coords.Distance(point)
}

// Group partitions tracks into mixes. Tracks without a BPM, and members of
// clusters smaller than cfg.MinClusterSize, are returned as outliers.
// Mixes are ordered by ascending average BPM.
func Group(tracks []track.Track, cfg Config) ([]Mix, []track.Track, error) {
	if len(tracks) == 0 {
		return nil, nil, nil
	}
	if cfg.NumClusters <= 0 {
		cfg.NumClusters = DefaultConfig().NumClusters
	}

	var obs clusters.Observations
	var outliers []track.Track
	for _, t := range tracks {
		if t.BPM <= 0 {
			outliers = append(outliers, t)
			continue
		}
		obs = append(obs, trackObservation{track: t, coords: features(t)})
	}

	if len(obs) < cfg.NumClusters {
		for _, o := range obs {
			outliers = append(outliers, o.(trackObservation).track)
		}
		return nil, outliers, nil
	}

	result, err := kmeans.New().Partition(obs, cfg.NumClusters)
	if err != nil {
		return nil, tracks, fmt.Errorf("partitioning tracks: %w", err)
	}

	var mixes []Mix
	for _, cluster := range result {
		var members []track.Track
		for _, o := range cluster.Observations {
			if to, ok := o.(trackObservation); ok {
				members = append(members, to.track)
			}
		}
		if len(members) == 0 {
			continue
		}
		if len(members) < cfg.MinClusterSize {
			outliers = append(outliers, members...)
			continue
		}
		mixes = append(mixes, newMix(members))
	}

	slices.SortFunc(mixes, func(a, b Mix) int {
		switch {
		case a.AvgBPM < b.AvgBPM:
			return -1
		case a.AvgBPM > b.AvgBPM:
			return 1
		}
		return 0
	})
	return mixes, outliers, nil
}

func newMix(members []track.Track) Mix {
	slices.SortStableFunc(members, func(a, b track.Track) int {
		switch {
		case a.BPM < b.BPM:
			return -1
		case a.BPM > b.BPM:
			return 1
		}
		return 0
	})

	var sum float64
	for _, t := range members {
		sum += t.BPM
	}
	avg := sum / float64(len(members))
	key := dominantKey(members)

	return Mix{
		Name:   mixName(avg, key),
		Label:  tempoLabel(avg),
		AvgBPM: avg,
		Key:    key,
		Tracks: members,
	}
}

// features maps a track to (tempo, wheel x, wheel y). Tracks with no
// Camelot key sit at the wheel's center.
func features(t track.Track) clusters.Coordinates {
	tempo := (t.BPM - minBPM) / (maxBPM - minBPM)
	tempo = math.Max(0, math.Min(1, tempo))

	var x, y float64
	if pos, _, ok := track.ParseCamelot(t.Key); ok {
		angle := 2 * math.Pi * float64(pos-1) / 12
		x = keyWeight * math.Cos(angle)
		y = keyWeight * math.Sin(angle)
	}
	return clusters.Coordinates{tempo, x, y}
}

// dominantKey returns the most common key, breaking ties alphabetically.
func dominantKey(tracks []track.Track) string {
	counts := make(map[string]int)
	for _, t := range tracks {
		if t.Key != "" {
			counts[t.Key]++
		}
	}
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	best := ""
	for _, k := range keys {
		if best == "" || counts[k] > counts[best] {
			best = k
		}
	}
	return best
}
