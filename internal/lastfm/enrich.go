package lastfm

import (
	"fmt"
	"strings"

	"github.com/justestif/go-crate-keeper/internal/track"
)

// DefaultMaxTags is how many tags Edits writes into comments.
const DefaultMaxTags = 3

const tagsPrefix = "Tags: "

// Edit is one field change for a crate track.
type Edit struct {
	Field string
	Value any
}

// Edits returns the changes that fill t from info: the album when t has
// none, and the top tags appended to the comments unless tags were added
// before. Tags are lowercased and deduplicated.
func Edits(t track.Track, info Info, maxTags int) []Edit {
	if maxTags <= 0 {
		maxTags = DefaultMaxTags
	}

	var edits []Edit
	if t.Album == "" && info.Album != "" {
		edits = append(edits, Edit{Field: track.FieldAlbum, Value: info.Album})
	}

	if strings.Contains(t.Comments, tagsPrefix) {
		return edits
	}

	var names []string
	seen := make(map[string]bool)
	for _, tag := range info.Tags {
		name := strings.ToLower(strings.TrimSpace(tag.Name))
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		names = append(names, name)
		if len(names) == maxTags {
			break
		}
	}
	if len(names) == 0 {
		return edits
	}

	line := tagsPrefix + strings.Join(names, ", ")
	comments := line
	if t.Comments != "" {
		comments = fmt.Sprintf("%s\n%s", t.Comments, line)
	}
	return append(edits, Edit{Field: track.FieldComments, Value: comments})
}
