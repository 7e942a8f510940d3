package track

import (
	"strconv"
	"strings"
)

// ParseCamelot parses a Camelot wheel key such as "8A" or "12b".
// It returns the wheel position (1-12) and whether the key is minor (A).
func ParseCamelot(key string) (position int, minor bool, ok bool) {
	k := strings.ToUpper(strings.TrimSpace(key))
	if len(k) < 2 {
		return 0, false, false
	}

	letter := k[len(k)-1]
	if letter != 'A' && letter != 'B' {
		return 0, false, false
	}

	n, err := strconv.Atoi(k[:len(k)-1])
	if err != nil || n < 1 || n > 12 {
		return 0, false, false
	}
	return n, letter == 'A', true
}

// normalizeKey upper-cases Camelot keys and leaves other notations as typed.
func normalizeKey(key string) string {
	key = strings.TrimSpace(key)
	if n, minor, ok := ParseCamelot(key); ok {
		suffix := "B"
		if minor {
			suffix = "A"
		}
		return strconv.Itoa(n) + suffix
	}
	return key
}
