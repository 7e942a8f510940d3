package web

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/justestif/go-crate-keeper/internal/crate"
	"github.com/justestif/go-crate-keeper/internal/grabber"
	"github.com/justestif/go-crate-keeper/internal/track"
)

// errBadRequest marks malformed request bodies.
var errBadRequest = errors.New("bad request")

type errorBody struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps err to a status code and writes it as {"error": msg}.
func writeError(w http.ResponseWriter, logger *zap.Logger, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		logger.Error("request failed", zap.Int("status", status), zap.Error(err))
	}
	writeJSON(w, status, errorBody{Error: err.Error()})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, crate.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, crate.ErrDuplicate):
		return http.StatusConflict
	case errors.Is(err, errBadRequest),
		errors.Is(err, track.ErrEmptyTitle),
		errors.Is(err, track.ErrUnknownField),
		errors.Is(err, track.ErrInvalidValue),
		errors.Is(err, grabber.ErrUnsupportedLink):
		return http.StatusBadRequest
	case errors.Is(err, crate.ErrNotConfigured),
		errors.Is(err, grabber.ErrNoWebhook):
		return http.StatusServiceUnavailable
	case errors.Is(err, grabber.ErrRateLimited):
		return http.StatusTooManyRequests
	case errors.Is(err, grabber.ErrWebhookStatus),
		errors.Is(err, grabber.ErrEmptyResponse),
		errors.Is(err, grabber.ErrMalformedResponse),
		errors.Is(err, grabber.ErrNoTracklist):
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}
