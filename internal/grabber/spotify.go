package grabber

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/zmb3/spotify/v2"
	spotifyauth "github.com/zmb3/spotify/v2/auth"
	"golang.org/x/oauth2/clientcredentials"
)

const maxTracksPerRequest = 50

// ErrUnsupportedLink is returned for links that are not Spotify playlist,
// album or track links.
var ErrUnsupportedLink = errors.New("unsupported spotify link")

// Spotify resolves Spotify links to candidates using app credentials.
type Spotify struct {
	api *spotify.Client
}

// NewSpotify authenticates with the client-credentials flow.
func NewSpotify(ctx context.Context, clientID, clientSecret string) *Spotify {
	config := &clientcredentials.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		TokenURL:     spotifyauth.TokenURL,
	}
	return NewSpotifyWithClient(spotify.New(config.Client(ctx)))
}

// NewSpotifyWithClient wraps an already authenticated client.
func NewSpotifyWithClient(api *spotify.Client) *Spotify {
	return &Spotify{api: api}
}

// ParseLink extracts the kind (playlist, album or track) and id from a
// Spotify URL or URI.
func ParseLink(link string) (kind string, id spotify.ID, err error) {
	link = strings.TrimSpace(link)

	if rest, ok := strings.CutPrefix(link, "spotify:"); ok {
		parts := strings.Split(rest, ":")
		if len(parts) == 2 && parts[1] != "" {
			kind, id = parts[0], spotify.ID(parts[1])
		}
	} else if u, perr := url.Parse(link); perr == nil && strings.HasSuffix(u.Hostname(), "spotify.com") {
		parts := strings.Split(strings.Trim(u.Path, "/"), "/")
		// Localized links look like /intl-de/track/<id>.
		if len(parts) == 3 && strings.HasPrefix(parts[0], "intl-") {
			parts = parts[1:]
		}
		if len(parts) == 2 && parts[1] != "" {
			kind, id = parts[0], spotify.ID(parts[1])
		}
	}

	switch kind {
	case "playlist", "album", "track":
		return kind, id, nil
	}
	return "", "", fmt.Errorf("%w: %q", ErrUnsupportedLink, link)
}

// IsLink reports whether s looks like a Spotify link ParseLink accepts.
func IsLink(s string) bool {
	_, _, err := ParseLink(s)
	return err == nil
}

// Resolve returns the candidates behind a Spotify link.
func (s *Spotify) Resolve(ctx context.Context, link string) ([]Candidate, error) {
	kind, id, err := ParseLink(link)
	if err != nil {
		return nil, err
	}

	switch kind {
	case "playlist":
		return s.playlist(ctx, id)
	case "album":
		return s.album(ctx, id)
	default:
		t, err := s.api.GetTrack(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("getting track: %w", err)
		}
		return []Candidate{convertTrack(*t)}, nil
	}
}

func (s *Spotify) playlist(ctx context.Context, id spotify.ID) ([]Candidate, error) {
	res, err := s.api.GetPlaylist(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("getting playlist: %w", err)
	}

	var candidates []Candidate
	page := res.Tracks
	for {
		for _, item := range page.Tracks {
			if item.Track.ID != "" && !item.IsLocal {
				candidates = append(candidates, convertTrack(item.Track))
			}
		}

		err = s.api.NextPage(ctx, &page)
		if errors.Is(err, spotify.ErrNoMorePages) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("fetching next page: %w", err)
		}
	}
	return candidates, nil
}

func (s *Spotify) album(ctx context.Context, id spotify.ID) ([]Candidate, error) {
	res, err := s.api.GetAlbum(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("getting album: %w", err)
	}

	ids := make([]spotify.ID, 0, len(res.Tracks.Tracks))
	for _, t := range res.Tracks.Tracks {
		ids = append(ids, t.ID)
	}

	var candidates []Candidate
	for i := 0; i < len(ids); i += maxTracksPerRequest {
		end := min(i+maxTracksPerRequest, len(ids))
		full, err := s.api.GetTracks(ctx, ids[i:end])
		if err != nil {
			return nil, fmt.Errorf("getting album tracks (batch %d-%d): %w", i+1, end, err)
		}
		for _, t := range full {
			if t != nil {
				candidates = append(candidates, convertTrack(*t))
			}
		}
	}
	return candidates, nil
}

// convertTrack converts a Spotify track to a candidate with artists joined by ", ".
func convertTrack(t spotify.FullTrack) Candidate {
	artists := make([]string, len(t.Artists))
	for i, a := range t.Artists {
		artists[i] = a.Name
	}

	c := Candidate{
		Title:  t.Name,
		Artist: strings.Join(artists, ", "),
		Album:  t.Album.Name,
		Source: "spotify",
	}
	if len(t.Album.ReleaseDate) >= 4 {
		var year int
		if _, err := fmt.Sscanf(t.Album.ReleaseDate[:4], "%d", &year); err == nil {
			c.Year = year
		}
	}
	return c
}
