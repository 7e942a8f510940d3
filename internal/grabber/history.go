package grabber

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/justestif/go-crate-keeper/internal/local"
)

// HistorySlot is the local slot holding grab history.
const HistorySlot = "grabber.history"

// DefaultHistoryLimit caps the number of remembered grabs.
const DefaultHistoryLimit = 50

// HistoryEntry is one remembered grab.
type HistoryEntry struct {
	Mode      Mode      `json:"mode"`
	Value     string    `json:"value"`
	Timestamp time.Time `json:"timestamp"`
}

// History remembers recent grabs, newest first, one entry per value.
type History struct {
	slot  *local.Slot[[]HistoryEntry]
	now   func() time.Time
	limit int
	mu    sync.Mutex
}

// HistoryOption configures a History.
type HistoryOption func(*History)

// WithHistoryLimit sets how many entries are kept.
func WithHistoryLimit(n int) HistoryOption {
	return func(h *History) {
		if n > 0 {
			h.limit = n
		}
	}
}

// WithHistoryClock overrides the time source.
func WithHistoryClock(now func() time.Time) HistoryOption {
	return func(h *History) {
		if now != nil {
			h.now = now
		}
	}
}

// NewHistory keeps history in store.
func NewHistory(store local.Store, opts ...HistoryOption) *History {
	h := &History{
		slot:  local.NewSlot[[]HistoryEntry](store, HistorySlot),
		now:   time.Now,
		limit: DefaultHistoryLimit,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Entries returns the history, newest first. Unreadable history is
// discarded and reported as empty.
func (h *History) Entries() ([]HistoryEntry, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.load()
}

func (h *History) load() ([]HistoryEntry, error) {
	entries, err := h.slot.Load()
	if errors.Is(err, local.ErrCorrupt) {
		if err := h.slot.Clear(); err != nil {
			return nil, err
		}
		return []HistoryEntry{}, nil
	}
	if err != nil {
		return nil, err
	}
	if entries == nil {
		entries = []HistoryEntry{}
	}
	return entries, nil
}

// Add records a grab. An earlier entry with the same value is replaced.
func (h *History) Add(mode Mode, value string) error {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	entries, err := h.load()
	if err != nil {
		return fmt.Errorf("adding history entry: %w", err)
	}

	next := make([]HistoryEntry, 0, len(entries)+1)
	next = append(next, HistoryEntry{Mode: mode, Value: value, Timestamp: h.now().UTC()})
	for _, e := range entries {
		if e.Value != value {
			next = append(next, e)
		}
	}
	if len(next) > h.limit {
		next = next[:h.limit]
	}

	if err := h.slot.Save(next); err != nil {
		return fmt.Errorf("adding history entry: %w", err)
	}
	return nil
}

// Clear forgets every entry.
func (h *History) Clear() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.slot.Clear()
}
