package grabber

import (
	"testing"
	"time"

	"github.com/justestif/go-crate-keeper/internal/local"
)

func TestHistory(t *testing.T) {
	now := fixedNow
	clock := func() time.Time {
		now = now.Add(time.Minute)
		return now
	}
	h := NewHistory(local.NewMemoryStore(), WithHistoryClock(clock), WithHistoryLimit(3))

	for _, add := range []struct {
		mode  Mode
		value string
	}{
		{ModeText, "Aphex Twin - Xtal"},
		{ModeURL, "https://example.com/set"},
		{ModeText, "Aphex Twin - Xtal"},
		{ModeFile, "crate.csv"},
		{ModeText, "  "},
		{ModeText, "Joey Beltram - Energy Flash"},
	} {
		if err := h.Add(add.mode, add.value); err != nil {
			t.Fatalf("Add(%q) error = %v", add.value, err)
		}
	}

	entries, err := h.Entries()
	if err != nil {
		t.Fatalf("Entries() error = %v", err)
	}

	want := []string{"Joey Beltram - Energy Flash", "crate.csv", "Aphex Twin - Xtal"}
	if len(entries) != len(want) {
		t.Fatalf("len(Entries()) = %d, want %d: %+v", len(entries), len(want), entries)
	}
	for i, v := range want {
		if entries[i].Value != v {
			t.Errorf("Entries()[%d].Value = %q, want %q", i, entries[i].Value, v)
		}
	}
	for i := 1; i < len(entries); i++ {
		if !entries[i-1].Timestamp.After(entries[i].Timestamp) {
			t.Errorf("entries not newest first at %d", i)
		}
	}

	if err := h.Clear(); err != nil {
		t.Fatalf("Clear() error = %v", err)
	}
	if entries, _ := h.Entries(); len(entries) != 0 {
		t.Errorf("Entries() after Clear = %+v, want empty", entries)
	}
}

func TestHistory_CorruptSlotIsCleared(t *testing.T) {
	store := local.NewMemoryStore()
	if err := store.Set(HistorySlot, []byte("not json")); err != nil {
		t.Fatal(err)
	}
	h := NewHistory(store)

	entries, err := h.Entries()
	if err != nil {
		t.Fatalf("Entries() error = %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("Entries() = %+v, want empty", entries)
	}
	if data, _ := store.Get(HistorySlot); data != nil {
		t.Errorf("corrupt slot not cleared: %q", data)
	}
}
