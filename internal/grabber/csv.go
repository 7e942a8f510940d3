package grabber

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/justestif/go-crate-keeper/internal/track"
)

// ErrNoTitleColumn is returned when a CSV header has no recognizable title column.
var ErrNoTitleColumn = errors.New("CSV has no title column")

var headerAliases = map[string]string{
	"title":       "title",
	"track":       "title",
	"track_title": "title",
	"name":        "title",

	"artist":      "artist",
	"artist_name": "artist",
	"performer":   "artist",

	"album":       "album",
	"album_title": "album",

	"year":         "year",
	"release_year": "year",

	"format": "format",
}

// ParseCSV reads candidates from a CSV export with a header row.
// Rows without a title are skipped.
func ParseCSV(r io.Reader) ([]Candidate, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, ErrNoTitleColumn
	}
	if err != nil {
		return nil, fmt.Errorf("reading CSV header: %w", err)
	}

	columns := make(map[int]string)
	hasTitle := false
	for i, h := range header {
		h = strings.TrimPrefix(h, "\ufeff")
		name := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(h)), " ", "_")
		if canonical, ok := headerAliases[name]; ok {
			columns[i] = canonical
			hasTitle = hasTitle || canonical == "title"
		}
	}
	if !hasTitle {
		return nil, ErrNoTitleColumn
	}

	var candidates []Candidate
	for line := 2; ; line++ {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading CSV line %d: %w", line, err)
		}

		c := Candidate{Source: "csv"}
		for i, v := range record {
			v = strings.TrimSpace(v)
			if v == "" {
				continue
			}
			switch columns[i] {
			case "title":
				c.Title = v
			case "artist":
				c.Artist = v
			case "album":
				c.Album = v
			case "year":
				if year, err := strconv.Atoi(v); err == nil && year > 0 {
					c.Year = year
				}
			case "format":
				c.Format = track.NormalizeFormat(v)
			}
		}
		if c.Title != "" {
			candidates = append(candidates, c)
		}
	}
	return candidates, nil
}
