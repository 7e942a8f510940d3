package web

import (
	"bufio"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/justestif/go-crate-keeper/internal/crate"
	"github.com/justestif/go-crate-keeper/internal/track"
)

type sseEvent struct {
	name string
	data string
}

func readEvent(t *testing.T, r *bufio.Reader) sseEvent {
	t.Helper()

	var ev sseEvent
	for {
		line, err := r.ReadString('\n')
		if err != nil {
			t.Fatalf("reading event stream: %v", err)
		}
		line = strings.TrimRight(line, "\n")
		switch {
		case line == "":
			return ev
		case strings.HasPrefix(line, "event: "):
			ev.name = strings.TrimPrefix(line, "event: ")
		case strings.HasPrefix(line, "data: "):
			ev.data = strings.TrimPrefix(line, "data: ")
		}
	}
}

func TestEvents_StreamsNotifications(t *testing.T) {
	env := newTestEnv(t)
	unsubscribe := env.store.Subscribe(env.server.Events())
	defer unsubscribe()

	ts := httptest.NewServer(env.handler)
	defer ts.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ts.URL+"/api/events", nil)
	if err != nil {
		t.Fatal(err)
	}
	resp, err := ts.Client().Do(req)
	if err != nil {
		t.Fatalf("connecting: %v", err)
	}
	defer resp.Body.Close()

	if ct := resp.Header.Get("Content-Type"); ct != "text/event-stream" {
		t.Errorf("Content-Type = %q, want text/event-stream", ct)
	}

	r := bufio.NewReader(resp.Body)

	first := readEvent(t, r)
	if first.name != "sync" || first.data != `{"synced":false}` {
		t.Fatalf("first event = %+v, want the current sync state", first)
	}

	if _, err := env.store.Add(ctx, track.Track{Title: "Xtal", Artist: "Aphex Twin"}); err != nil {
		t.Fatalf("Add() error = %v", err)
	}

	ev := readEvent(t, r)
	if ev.name != "notification" {
		t.Fatalf("event = %+v, want a notification", ev)
	}
	var n crate.Notification
	if err := json.Unmarshal([]byte(ev.data), &n); err != nil {
		t.Fatalf("decoding notification: %v", err)
	}
	if n.Title != "Track added" || n.Severity != crate.SeveritySuccess {
		t.Errorf("notification = %+v", n)
	}

	cancel()
	env.store.Wait()
}

func TestEvents_SyncChangedUpdatesState(t *testing.T) {
	e := NewEvents(false)
	e.SyncChanged(true)

	ch, synced := e.subscribe()
	defer e.unsubscribe(ch)
	if !synced {
		t.Error("new subscriber sees stale sync state")
	}

	e.SyncChanged(false)
	ev := <-ch
	if ev.name != "sync" || string(ev.data) != `{"synced":false}` {
		t.Errorf("event = %+v", ev)
	}
}

func TestEvents_SlowClientDropsEvents(t *testing.T) {
	e := NewEvents(false)
	ch, _ := e.subscribe()
	defer e.unsubscribe(ch)

	for i := 0; i < clientBuffer*2; i++ {
		e.Notify(crate.Notification{Title: "Track added"})
	}
	if got := len(ch); got != clientBuffer {
		t.Errorf("buffered %d events, want %d", got, clientBuffer)
	}
}

func TestEvents_Close(t *testing.T) {
	e := NewEvents(false)
	e.Close()
	e.Close()

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/events", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusServiceUnavailable)
	}
	if e.Clients() != 0 {
		t.Errorf("Clients() = %d, want 0", e.Clients())
	}
}
