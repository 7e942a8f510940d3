package track

import "strings"

// Matches reports whether query is a case-insensitive substring of the
// title, artist, album or comments of t. The empty query matches everything.
func Matches(t Track, query string) bool {
	q := strings.ToLower(query)
	for _, field := range []string{t.Title, t.Artist, t.Album, t.Comments} {
		if strings.Contains(strings.ToLower(field), q) {
			return true
		}
	}
	return false
}

// Search returns the tracks matching query, in their original order.
// The input is not modified. The result is never nil.
func Search(tracks []Track, query string) []Track {
	result := make([]Track, 0, len(tracks))
	for _, t := range tracks {
		if Matches(t, query) {
			result = append(result, t)
		}
	}
	return result
}
