package track

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Editable field names, as used by the remote table and the HTTP API.
const (
	FieldTitle       = "title"
	FieldArtist      = "artist"
	FieldStatus      = "owned_status"
	FieldFormat      = "format"
	FieldAlbum       = "album"
	FieldReleaseYear = "release_year"
	FieldBPM         = "bpm"
	FieldKey         = "camelot_key"
	FieldComments    = "comments"
)

// fieldAliases maps accepted spellings to canonical field names.
var fieldAliases = map[string]string{
	"status": FieldStatus,
	"owned":  FieldStatus,
	"year":   FieldReleaseYear,
	"key":    FieldKey,
}

// CanonicalField resolves a field name or alias. It returns "" for unknown names.
func CanonicalField(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	if alias, ok := fieldAliases[name]; ok {
		return alias
	}
	switch name {
	case FieldTitle, FieldArtist, FieldStatus, FieldFormat, FieldAlbum,
		FieldReleaseYear, FieldBPM, FieldKey, FieldComments:
		return name
	}
	return ""
}

// Apply sets one field of t from a loosely typed value, as received from a
// form, the CLI or JSON. A nil value clears optional fields. The result is
// normalized. t is left untouched when an error is returned.
func Apply(t *Track, field string, value any) error {
	name := CanonicalField(field)
	if name == "" {
		return fmt.Errorf("%w: %q", ErrUnknownField, field)
	}

	next := *t
	switch name {
	case FieldTitle:
		s, err := stringValue(value)
		if err != nil {
			return fieldError(name, err)
		}
		if strings.TrimSpace(s) == "" {
			return fieldError(name, ErrEmptyTitle)
		}
		next.Title = s
	case FieldArtist:
		s, err := stringValue(value)
		if err != nil {
			return fieldError(name, err)
		}
		next.Artist = s
	case FieldStatus:
		// Legacy clients send the boolean "owned" flag.
		if b, ok := value.(bool); ok {
			next.Status = StatusWanted
			if b {
				next.Status = StatusOwned
			}
			break
		}
		s, err := stringValue(value)
		if err != nil {
			return fieldError(name, err)
		}
		next.Status = ParseStatus(s)
	case FieldFormat:
		s, err := stringValue(value)
		if err != nil {
			return fieldError(name, err)
		}
		next.Format = NormalizeFormat(s)
	case FieldAlbum:
		s, err := stringValue(value)
		if err != nil {
			return fieldError(name, err)
		}
		next.Album = s
	case FieldReleaseYear:
		f, err := numberValue(value)
		if err != nil {
			return fieldError(name, err)
		}
		if f < 0 || f > 9999 || f != math.Trunc(f) {
			return fieldError(name, ErrInvalidValue)
		}
		next.ReleaseYear = int(f)
	case FieldBPM:
		f, err := numberValue(value)
		if err != nil {
			return fieldError(name, err)
		}
		if f < 0 || math.IsNaN(f) || math.IsInf(f, 0) {
			return fieldError(name, ErrInvalidValue)
		}
		next.BPM = f
	case FieldKey:
		s, err := stringValue(value)
		if err != nil {
			return fieldError(name, err)
		}
		next.Key = s
	case FieldComments:
		s, err := stringValue(value)
		if err != nil {
			return fieldError(name, err)
		}
		next.Comments = s
	}

	*t = Normalize(next)
	return nil
}

func fieldError(field string, err error) error {
	return fmt.Errorf("setting %s: %w", field, err)
}

// stringValue accepts strings and nil (the empty string).
func stringValue(v any) (string, error) {
	switch x := v.(type) {
	case nil:
		return "", nil
	case string:
		return x, nil
	case fmt.Stringer:
		return x.String(), nil
	default:
		return "", ErrInvalidValue
	}
}

// numberValue accepts Go numbers, json.Number, numeric strings and nil (zero).
func numberValue(v any) (float64, error) {
	switch x := v.(type) {
	case nil:
		return 0, nil
	case int:
		return float64(x), nil
	case int32:
		return float64(x), nil
	case int64:
		return float64(x), nil
	case float32:
		return float64(x), nil
	case float64:
		return x, nil
	case json.Number:
		f, err := x.Float64()
		if err != nil {
			return 0, ErrInvalidValue
		}
		return f, nil
	case string:
		if strings.TrimSpace(x) == "" {
			return 0, nil
		}
		f, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		if err != nil {
			return 0, ErrInvalidValue
		}
		return f, nil
	default:
		return 0, ErrInvalidValue
	}
}
