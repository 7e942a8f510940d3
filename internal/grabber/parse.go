package grabber

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// Errors returned by ParseTracklist.
var (
	ErrEmptyResponse     = errors.New("empty response from webhook")
	ErrMalformedResponse = errors.New("could not parse webhook response")
	ErrNoTracklist       = errors.New("no tracklist in webhook response")
)

type outerEnvelope struct {
	Output json.RawMessage `json:"output"`
}

type tracklistPayload struct {
	Tracklist []struct {
		Track struct {
			Title string `json:"title"`
		} `json:"track"`
		Artist struct {
			Name string `json:"name"`
		} `json:"artist"`
	} `json:"tracklist"`
}

// ParseTracklist extracts candidates from a webhook reply of the form
// [{"output": ...}], where output is either an object or a string holding
// JSON, with a "tracklist" array of {"track":{"title"},"artist":{"name"}}.
func ParseTracklist(body string) ([]Candidate, error) {
	if strings.TrimSpace(body) == "" {
		return nil, ErrEmptyResponse
	}

	var outer []outerEnvelope
	if err := json.Unmarshal([]byte(body), &outer); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedResponse, err)
	}
	if len(outer) == 0 || !truthy(outer[0].Output) {
		return nil, fmt.Errorf("%w: unexpected structure", ErrMalformedResponse)
	}

	inner := []byte(outer[0].Output)
	if inner[0] == '"' {
		var text string
		if err := json.Unmarshal(inner, &text); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrMalformedResponse, err)
		}
		inner = []byte(text)
	}

	var payload tracklistPayload
	if err := json.Unmarshal(inner, &payload); err != nil {
		return nil, fmt.Errorf("%w: output: %w", ErrMalformedResponse, err)
	}

	candidates := make([]Candidate, 0, len(payload.Tracklist))
	for _, item := range payload.Tracklist {
		title := strings.TrimSpace(item.Track.Title)
		if title == "" {
			continue
		}
		candidates = append(candidates, Candidate{
			Title:  title,
			Artist: strings.TrimSpace(item.Artist.Name),
			Source: "webhook",
		})
	}
	if len(candidates) == 0 {
		return nil, ErrNoTracklist
	}
	return candidates, nil
}

// truthy reports whether a raw JSON value is present and not false, null,
// zero or the empty string.
func truthy(raw json.RawMessage) bool {
	raw = bytes.TrimSpace(raw)
	switch string(raw) {
	case "", "null", "false", "0", `""`:
		return false
	}
	return true
}
