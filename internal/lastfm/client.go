// Package lastfm looks up track metadata on Last.fm to fill gaps in crate
// records.
package lastfm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"
)

const (
	baseURL   = "https://ws.audioscrobbler.com/2.0/"
	userAgent = "crate-keeper/1.0"
)

// Last.fm API error codes.
const (
	errCodeInvalidParams = 6
	errCodeInvalidAPIKey = 10
	errCodeRateLimited   = 29
)

// Sentinel errors.
var (
	// ErrRateLimited is returned when the API rate limit is exceeded after retries.
	ErrRateLimited = errors.New("rate limit exceeded")

	// ErrInvalidAPIKey is returned when the API key is invalid.
	ErrInvalidAPIKey = errors.New("invalid API key")

	// ErrNotFound is returned when Last.fm does not know the track.
	ErrNotFound = errors.New("track not found on last.fm")
)

// Client is a Last.fm API client with an in-memory cache and retry on
// rate limiting.
type Client struct {
	apiKey     string
	httpClient *http.Client
	baseURL    string
	delays     []time.Duration

	// key = lowercase "artist\x00title"
	cache   map[string]Info
	cacheMu sync.RWMutex
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL points the client at another endpoint.
func WithBaseURL(u string) Option {
	return func(c *Client) {
		c.baseURL = u
	}
}

// WithHTTPClient sets the HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithRetryDelays sets the waits between attempts after a rate-limit reply.
func WithRetryDelays(delays ...time.Duration) Option {
	return func(c *Client) {
		c.delays = delays
	}
}

// NewClient creates a new Last.fm API client.
func NewClient(apiKey string, opts ...Option) *Client {
	c := &Client{
		apiKey: apiKey,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		baseURL: baseURL,
		delays:  []time.Duration{1 * time.Second, 2 * time.Second, 4 * time.Second},
		cache:   make(map[string]Info),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// TrackInfo fetches album and top tags for a track. Misspelled names are
// autocorrected by Last.fm. Results, including misses, are cached.
func (c *Client) TrackInfo(ctx context.Context, artist, title string) (Info, error) {
	cacheKey := strings.ToLower(artist) + "\x00" + strings.ToLower(title)

	c.cacheMu.RLock()
	if cached, ok := c.cache[cacheKey]; ok {
		c.cacheMu.RUnlock()
		if cached.Title == "" {
			return Info{}, ErrNotFound
		}
		return cached, nil
	}
	c.cacheMu.RUnlock()

	params := url.Values{
		"method":      {"track.getInfo"},
		"artist":      {artist},
		"track":       {title},
		"autocorrect": {"1"},
		"format":      {"json"},
		"api_key":     {c.apiKey},
	}

	info, err := c.fetchInfo(ctx, params)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return Info{}, err
	}

	c.cacheMu.Lock()
	c.cache[cacheKey] = info
	c.cacheMu.Unlock()

	return info, err
}

func (c *Client) fetchInfo(ctx context.Context, params url.Values) (Info, error) {
	body, err := c.doRequest(ctx, params)
	if err != nil {
		return Info{}, fmt.Errorf("fetching track info: %w", err)
	}

	var resp trackInfoResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return Info{}, fmt.Errorf("parsing track info response: %w", err)
	}
	if resp.Track.Name == "" {
		return Info{}, ErrNotFound
	}

	tags := resp.Track.TopTags.Tag
	if tags == nil {
		tags = []Tag{}
	}
	return Info{
		Title:  resp.Track.Name,
		Artist: resp.Track.Artist.Name,
		Album:  resp.Track.Album.Title,
		Tags:   tags,
	}, nil
}

// doRequest performs an HTTP GET request, retrying while rate limited.
func (c *Client) doRequest(ctx context.Context, params url.Values) ([]byte, error) {
	reqURL := c.baseURL + "?" + params.Encode()

	var lastErr error
	for attempt := 0; attempt <= len(c.delays); attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(c.delays[attempt-1]):
			}
		}

		body, err := c.doSingleRequest(ctx, reqURL)
		if err == nil {
			return body, nil
		}
		if !errors.Is(err, ErrRateLimited) {
			return nil, err
		}
		lastErr = err
	}

	return nil, lastErr
}

func (c *Client) doSingleRequest(ctx context.Context, reqURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response body: %w", err)
	}

	var apiErr apiError
	if err := json.Unmarshal(body, &apiErr); err == nil && apiErr.Error != 0 {
		switch apiErr.Error {
		case errCodeRateLimited:
			return nil, ErrRateLimited
		case errCodeInvalidAPIKey:
			return nil, ErrInvalidAPIKey
		case errCodeInvalidParams:
			return nil, ErrNotFound
		default:
			return nil, fmt.Errorf("API error %d: %s", apiErr.Error, apiErr.Message)
		}
	}
	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, ErrRateLimited
	}
	if resp.StatusCode >= http.StatusBadRequest {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	return body, nil
}
