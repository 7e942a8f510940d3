package grabber

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"
)

const userAgent = "crate-keeper/1.0"

// Sentinel errors.
var (
	// ErrNoWebhook is returned when no webhook URL is configured.
	ErrNoWebhook = errors.New("grabber webhook not configured")

	// ErrWebhookStatus is returned when the webhook answers with a non-2xx status.
	ErrWebhookStatus = errors.New("webhook returned an error status")

	// ErrRateLimited is returned when the webhook keeps answering 429 after retries.
	ErrRateLimited = errors.New("webhook rate limit exceeded")
)

// Request is one grab. Text and URL grabs send JSON; image and file grabs
// upload Body as multipart form data under a field named after the mode.
type Request struct {
	Mode     Mode
	Value    string    // text or URL, or the file name for uploads
	Body     io.Reader // upload content
	Filename string
}

// Webhook posts grab requests to a tracklist-extraction endpoint.
type Webhook struct {
	url        string
	httpClient *http.Client
	delays     []time.Duration
}

// WebhookOption configures a Webhook.
type WebhookOption func(*Webhook)

// WithHTTPClient sets the HTTP client.
func WithHTTPClient(c *http.Client) WebhookOption {
	return func(w *Webhook) {
		if c != nil {
			w.httpClient = c
		}
	}
}

// WithRetryDelays sets the waits between attempts after a 429 reply.
func WithRetryDelays(delays ...time.Duration) WebhookOption {
	return func(w *Webhook) {
		w.delays = delays
	}
}

// NewWebhook creates a webhook client for url.
func NewWebhook(url string, opts ...WebhookOption) *Webhook {
	w := &Webhook{
		url: url,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
		delays: []time.Duration{1 * time.Second, 2 * time.Second, 4 * time.Second},
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Extract sends req and parses the reply into candidates.
func (w *Webhook) Extract(ctx context.Context, req Request) ([]Candidate, error) {
	body, err := w.Send(ctx, req)
	if err != nil {
		return nil, err
	}
	candidates, err := ParseTracklist(body)
	if err != nil {
		return nil, err
	}
	for i := range candidates {
		candidates[i].Source = string(req.Mode)
	}
	return candidates, nil
}

// Send posts req and returns the reply as text. JSON replies are
// re-encoded compactly; anything else is returned verbatim.
func (w *Webhook) Send(ctx context.Context, req Request) (string, error) {
	if w == nil || w.url == "" {
		return "", ErrNoWebhook
	}

	payload, contentType, err := encodeRequest(req)
	if err != nil {
		return "", err
	}

	var lastErr error
	for attempt := 0; attempt <= len(w.delays); attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(w.delays[attempt-1]):
			}
		}

		body, err := w.post(ctx, payload, contentType)
		if err == nil {
			return body, nil
		}
		if errors.Is(err, ErrRateLimited) {
			lastErr = err
			continue
		}
		return "", err
	}
	return "", lastErr
}

func encodeRequest(req Request) ([]byte, string, error) {
	switch req.Mode {
	case ModeText, ModeURL:
		value := strings.TrimSpace(req.Value)
		if value == "" {
			return nil, "", fmt.Errorf("empty %s grab", req.Mode)
		}
		data, err := json.Marshal(map[string]string{string(req.Mode): value})
		if err != nil {
			return nil, "", fmt.Errorf("encoding request: %w", err)
		}
		return data, "application/json", nil

	case ModeImage, ModeFile:
		if req.Body == nil {
			return nil, "", fmt.Errorf("missing %s upload", req.Mode)
		}
		var buf bytes.Buffer
		mw := multipart.NewWriter(&buf)
		name := req.Filename
		if name == "" {
			name = req.Value
		}
		part, err := mw.CreateFormFile(string(req.Mode), name)
		if err != nil {
			return nil, "", fmt.Errorf("creating form file: %w", err)
		}
		if _, err := io.Copy(part, req.Body); err != nil {
			return nil, "", fmt.Errorf("reading upload: %w", err)
		}
		if err := mw.Close(); err != nil {
			return nil, "", fmt.Errorf("closing form: %w", err)
		}
		return buf.Bytes(), mw.FormDataContentType(), nil
	}
	return nil, "", fmt.Errorf("unknown grab mode %q", req.Mode)
}

func (w *Webhook) post(ctx context.Context, payload []byte, contentType string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("User-Agent", userAgent)

	resp, err := w.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("reading response body: %w", err)
	}

	if resp.StatusCode == http.StatusTooManyRequests {
		return "", ErrRateLimited
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("%w: %d", ErrWebhookStatus, resp.StatusCode)
	}

	if strings.Contains(resp.Header.Get("Content-Type"), "application/json") {
		var compact bytes.Buffer
		if err := json.Compact(&compact, body); err == nil {
			return compact.String(), nil
		}
	}
	return string(body), nil
}
