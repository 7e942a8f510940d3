package web

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/justestif/go-crate-keeper/internal/crate"
	"github.com/justestif/go-crate-keeper/internal/grabber"
	"github.com/justestif/go-crate-keeper/internal/mixes"
	"github.com/justestif/go-crate-keeper/internal/track"
)

// maxBodySize caps JSON request bodies.
const maxBodySize = 1 << 20

// Extractor turns a grab request into candidates.
type Extractor interface {
	Extract(ctx context.Context, req grabber.Request) ([]grabber.Candidate, error)
}

// Resolver turns a streaming-service link into candidates.
type Resolver interface {
	Resolve(ctx context.Context, link string) ([]grabber.Candidate, error)
}

// Handlers contains HTTP handlers for the crate API.
type Handlers struct {
	store     *crate.Store
	history   *grabber.History
	extractor Extractor
	resolver  Resolver
	mixes     mixes.Config
	logger    *zap.Logger
	now       func() time.Time
}

// NewHandlers creates handlers from the server configuration.
func NewHandlers(cfg ServerConfig) *Handlers {
	return &Handlers{
		store:     cfg.Store,
		history:   cfg.History,
		extractor: cfg.Extractor,
		resolver:  cfg.Resolver,
		mixes:     cfg.Mixes,
		logger:    cfg.Logger,
		now:       cfg.Now,
	}
}

// Health handles GET /healthz.
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// ListTracks handles GET /api/tracks, filtered by ?q=.
func (h *Handlers) ListTracks(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.store.Search(r.URL.Query().Get("q")))
}

// GetTrack handles GET /api/tracks/{id}.
func (h *Handlers) GetTrack(w http.ResponseWriter, r *http.Request) {
	t, err := h.store.Get(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

// AddTrack handles POST /api/tracks.
func (h *Handlers) AddTrack(w http.ResponseWriter, r *http.Request) {
	var in track.Track
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, h.logger, err)
		return
	}

	added, err := h.store.Add(r.Context(), in)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, added)
}

type updateRequest struct {
	Field string `json:"field"`
	Value any    `json:"value"`
}

// UpdateTrack handles PATCH /api/tracks/{id} with {"field": ..., "value": ...}.
func (h *Handlers) UpdateTrack(w http.ResponseWriter, r *http.Request) {
	var req updateRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}

	updated, err := h.store.Update(r.Context(), chi.URLParam(r, "id"), req.Field, req.Value)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

// RemoveTrack handles DELETE /api/tracks/{id}.
func (h *Handlers) RemoveTrack(w http.ResponseWriter, r *http.Request) {
	if err := h.store.Remove(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type syncStatus struct {
	Synced           bool `json:"synced"`
	RemoteConfigured bool `json:"remote_configured"`
}

// SyncStatus handles GET /api/sync.
func (h *Handlers) SyncStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, syncStatus{
		Synced:           h.store.Synced(),
		RemoteConfigured: h.store.RemoteConfigured(),
	})
}

// SyncAll handles POST /api/sync.
func (h *Handlers) SyncAll(w http.ResponseWriter, r *http.Request) {
	if err := h.store.SyncAll(r.Context()); err != nil {
		if errors.Is(err, crate.ErrNotConfigured) {
			writeError(w, h.logger, err)
			return
		}
		h.logger.Warn("sync failed", zap.Error(err))
		writeJSON(w, http.StatusBadGateway, errorBody{Error: err.Error()})
		return
	}
	h.SyncStatus(w, r)
}

type mixesResponse struct {
	Mixes    []mixes.Mix   `json:"mixes"`
	Outliers []track.Track `json:"outliers"`
}

// Mixes handles GET /api/mixes.
func (h *Handlers) Mixes(w http.ResponseWriter, r *http.Request) {
	groups, outliers, err := mixes.Group(h.store.Tracks(), h.mixes)
	if err != nil {
		writeError(w, h.logger, fmt.Errorf("grouping mixes: %w", err))
		return
	}
	if groups == nil {
		groups = []mixes.Mix{}
	}
	if outliers == nil {
		outliers = []track.Track{}
	}
	writeJSON(w, http.StatusOK, mixesResponse{Mixes: groups, Outliers: outliers})
}

// decodeJSON reads a JSON body into v. Numbers decode as json.Number so
// field edits keep integer precision.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodySize))
	dec.UseNumber()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%w: decoding body: %w", errBadRequest, err)
	}
	return nil
}

func isMultipart(r *http.Request) bool {
	return strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data")
}
