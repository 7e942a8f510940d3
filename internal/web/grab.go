package web

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/justestif/go-crate-keeper/internal/crate"
	"github.com/justestif/go-crate-keeper/internal/grabber"
	"github.com/justestif/go-crate-keeper/internal/track"
)

// maxUploadSize caps image and file grabs.
const maxUploadSize = 20 << 20

type grabRequest struct {
	Mode  string `json:"mode"`
	Value string `json:"value"`
}

type grabResponse struct {
	Candidates []grabber.Annotated `json:"candidates"`
}

// Grab handles POST /api/grab. Text and URL grabs are JSON
// {"mode", "value"}; image and file grabs are multipart forms with a
// "mode" field and the upload under "file". Spotify links are resolved
// directly instead of going through the webhook.
func (h *Handlers) Grab(w http.ResponseWriter, r *http.Request) {
	var (
		cands []grabber.Candidate
		mode  grabber.Mode
		value string
		err   error
	)

	if isMultipart(r) {
		mode, value, cands, err = h.grabUpload(w, r)
	} else {
		mode, value, cands, err = h.grabJSON(w, r)
	}
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	if h.history != nil {
		if err := h.history.Add(mode, value); err != nil {
			h.logger.Warn("saving grab history", zap.Error(err))
		}
	}

	writeJSON(w, http.StatusOK, grabResponse{Candidates: grabber.Annotate(cands, h.store.Tracks())})
}

func (h *Handlers) grabJSON(w http.ResponseWriter, r *http.Request) (grabber.Mode, string, []grabber.Candidate, error) {
	var req grabRequest
	if err := decodeJSON(w, r, &req); err != nil {
		return "", "", nil, err
	}

	mode, err := grabber.ParseMode(req.Mode)
	if err != nil {
		return "", "", nil, fmt.Errorf("%w: %w", errBadRequest, err)
	}
	value := strings.TrimSpace(req.Value)
	if value == "" {
		return "", "", nil, fmt.Errorf("%w: %s grab needs a value", errBadRequest, mode)
	}

	if mode == grabber.ModeURL && grabber.IsLink(value) && h.resolver != nil {
		cands, err := h.resolver.Resolve(r.Context(), value)
		return mode, value, cands, err
	}
	if mode != grabber.ModeText && mode != grabber.ModeURL {
		return "", "", nil, fmt.Errorf("%w: %s grabs must be uploaded", errBadRequest, mode)
	}
	if h.extractor == nil {
		return "", "", nil, grabber.ErrNoWebhook
	}

	cands, err := h.extractor.Extract(r.Context(), grabber.Request{Mode: mode, Value: value})
	return mode, value, cands, err
}

func (h *Handlers) grabUpload(w http.ResponseWriter, r *http.Request) (grabber.Mode, string, []grabber.Candidate, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		return "", "", nil, fmt.Errorf("%w: parsing upload: %w", errBadRequest, err)
	}

	mode, err := grabber.ParseMode(r.FormValue("mode"))
	if err != nil {
		return "", "", nil, fmt.Errorf("%w: %w", errBadRequest, err)
	}
	if mode != grabber.ModeImage && mode != grabber.ModeFile {
		return "", "", nil, fmt.Errorf("%w: %s grabs are not uploads", errBadRequest, mode)
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		return "", "", nil, fmt.Errorf("%w: reading upload: %w", errBadRequest, err)
	}
	defer file.Close()

	if h.extractor == nil {
		return "", "", nil, grabber.ErrNoWebhook
	}

	cands, err := h.extractor.Extract(r.Context(), grabber.Request{
		Mode:     mode,
		Value:    header.Filename,
		Body:     file,
		Filename: header.Filename,
	})
	return mode, header.Filename, cands, err
}

type grabAddRequest struct {
	Candidates []grabber.Candidate `json:"candidates"`
}

type skipped struct {
	Title  string `json:"title"`
	Artist string `json:"artist"`
	Reason string `json:"reason"`
}

type grabAddResponse struct {
	Added   []track.Track `json:"added"`
	Skipped []skipped     `json:"skipped"`
}

// GrabAdd handles POST /api/grab/add, adding the chosen candidates to the
// crate. Duplicates and invalid candidates are skipped, not fatal.
func (h *Handlers) GrabAdd(w http.ResponseWriter, r *http.Request) {
	var req grabAddRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}

	resp := grabAddResponse{Added: []track.Track{}, Skipped: []skipped{}}
	for _, t := range grabber.Tracks(req.Candidates, h.now()) {
		added, err := h.store.Add(r.Context(), t)
		switch {
		case err == nil:
			resp.Added = append(resp.Added, added)
		case errors.Is(err, crate.ErrDuplicate), errors.Is(err, track.ErrEmptyTitle):
			resp.Skipped = append(resp.Skipped, skipped{Title: t.Title, Artist: t.Artist, Reason: err.Error()})
		default:
			writeError(w, h.logger, err)
			return
		}
	}

	status := http.StatusOK
	if len(resp.Added) > 0 {
		status = http.StatusCreated
	}
	writeJSON(w, status, resp)
}

// History handles GET /api/grab/history.
func (h *Handlers) History(w http.ResponseWriter, r *http.Request) {
	if h.history == nil {
		writeJSON(w, http.StatusOK, []grabber.HistoryEntry{})
		return
	}
	entries, err := h.history.Entries()
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	if entries == nil {
		entries = []grabber.HistoryEntry{}
	}
	writeJSON(w, http.StatusOK, entries)
}

// ClearHistory handles DELETE /api/grab/history.
func (h *Handlers) ClearHistory(w http.ResponseWriter, r *http.Request) {
	if h.history != nil {
		if err := h.history.Clear(); err != nil {
			writeError(w, h.logger, err)
			return
		}
	}
	w.WriteHeader(http.StatusNoContent)
}
