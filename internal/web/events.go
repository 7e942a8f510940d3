package web

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/justestif/go-crate-keeper/internal/crate"
)

const clientBuffer = 16

// event is one server-sent event.
type event struct {
	name string
	data []byte
}

// Events fans store notifications out to connected event-stream clients.
// It implements crate.Listener. Slow clients drop events rather than
// blocking the store.
type Events struct {
	mu      sync.Mutex
	clients map[chan event]struct{}
	synced  bool
	closed  bool
	done    chan struct{}
}

// NewEvents creates a hub starting from the given sync state.
func NewEvents(synced bool) *Events {
	return &Events{
		clients: make(map[chan event]struct{}),
		synced:  synced,
		done:    make(chan struct{}),
	}
}

// Notify implements crate.Listener.
func (e *Events) Notify(n crate.Notification) {
	e.broadcast("notification", n)
}

// SyncChanged implements crate.Listener.
func (e *Events) SyncChanged(synced bool) {
	e.mu.Lock()
	e.synced = synced
	e.mu.Unlock()
	e.broadcast("sync", syncPayload{Synced: synced})
}

type syncPayload struct {
	Synced bool `json:"synced"`
}

func (e *Events) broadcast(name string, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		return
	}
	ev := event{name: name, data: data}

	e.mu.Lock()
	defer e.mu.Unlock()
	for ch := range e.clients {
		select {
		case ch <- ev:
		default:
		}
	}
}

func (e *Events) subscribe() (chan event, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return nil, false
	}
	ch := make(chan event, clientBuffer)
	e.clients[ch] = struct{}{}
	return ch, e.synced
}

func (e *Events) unsubscribe(ch chan event) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.clients, ch)
}

// Clients returns the number of connected clients.
func (e *Events) Clients() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.clients)
}

// Close disconnects every client.
func (e *Events) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.closed {
		e.closed = true
		close(e.done)
	}
}

// ServeHTTP streams events (GET /api/events). The current sync state is
// sent first.
func (e *Events) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	rc := http.NewResponseController(w)

	ch, synced := e.subscribe()
	if ch == nil {
		http.Error(w, "server shutting down", http.StatusServiceUnavailable)
		return
	}
	defer e.unsubscribe(ch)

	// Streams outlive the server's write timeout.
	_ = rc.SetWriteDeadline(time.Time{})

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	data, _ := json.Marshal(syncPayload{Synced: synced})
	if err := writeEvent(w, rc, event{name: "sync", data: data}); err != nil {
		return
	}

	for {
		select {
		case <-r.Context().Done():
			return
		case <-e.done:
			return
		case ev := <-ch:
			if err := writeEvent(w, rc, ev); err != nil {
				return
			}
		}
	}
}

func writeEvent(w http.ResponseWriter, rc *http.ResponseController, ev event) error {
	if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", ev.name, ev.data); err != nil {
		return err
	}
	return rc.Flush()
}
