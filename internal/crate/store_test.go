package crate

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/justestif/go-crate-keeper/internal/db"
	"github.com/justestif/go-crate-keeper/internal/local"
	"github.com/justestif/go-crate-keeper/internal/track"
)

func xtal() track.Track {
	return track.Track{Title: "Xtal", Artist: "Aphex Twin", Format: "vinyl"}
}

func TestLoad_NoRemoteSeedsSamples(t *testing.T) {
	cache := &fakeCache{}
	s, _ := newTestStore(cache, nil)

	if err := s.Load(context.Background()); err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	tracks := s.Tracks()
	if len(tracks) != 3 {
		t.Fatalf("len(Tracks()) = %d, want 3", len(tracks))
	}
	cached, _ := cache.snapshot()
	if diff := cmp.Diff(tracks, cached); diff != "" {
		t.Errorf("cache differs from memory (-memory +cache):\n%s", diff)
	}
	if s.Synced() {
		t.Error("Synced() = true without a remote store")
	}
}

func TestLoad_AdoptsRemote(t *testing.T) {
	remote := &fakeRemote{rows: []db.Track{
		{ID: "a", Slug: "xtal-1", Title: "Xtal", Artist: strPtr("Aphex Twin"), Format: strPtr("vinyl"), Owned: boolPtr(true)},
		{ID: "b", Slug: "flim-1", Title: "Flim", Artist: strPtr("Aphex Twin"), OwnedStatus: strPtr("wanted"), Owned: boolPtr(true)},
	}}
	cache := &fakeCache{tracks: track.Samples(fixedNow)}
	s, rec := newTestStore(cache, remote)

	if err := s.Load(context.Background()); err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	tracks := s.Tracks()
	if len(tracks) != 2 {
		t.Fatalf("len(Tracks()) = %d, want 2", len(tracks))
	}
	if tracks[0].Format != track.FormatVinyl || tracks[0].Status != track.StatusOwned {
		t.Errorf("first track = %+v, want Vinyl/owned", tracks[0])
	}
	if tracks[1].Status != track.StatusWanted {
		t.Errorf("owned_status should win over legacy owned, got %q", tracks[1].Status)
	}

	cached, _ := cache.snapshot()
	if diff := cmp.Diff(tracks, cached); diff != "" {
		t.Errorf("cache not overwritten by remote (-memory +cache):\n%s", diff)
	}
	if !s.Synced() {
		t.Error("Synced() = false after adopting remote")
	}
	if synced, ok := rec.lastSync(); !ok || !synced {
		t.Errorf("SyncChanged last = (%v, %v), want (true, true)", synced, ok)
	}
}

func TestLoad_RemoteUnreachableFallsBackToCache(t *testing.T) {
	stored := []track.Track{{ID: "x", Slug: "xtal-1", Title: "Xtal", Artist: "Aphex Twin", Format: "vinyl"}}
	cache := &fakeCache{tracks: stored}
	remote := &fakeRemote{listErr: errNetwork}
	s, rec := newTestStore(cache, remote)

	if err := s.Load(context.Background()); err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	tracks := s.Tracks()
	if len(tracks) != 1 || tracks[0].Format != track.FormatVinyl {
		t.Fatalf("Tracks() = %+v, want the normalized cached track", tracks)
	}
	cached, _ := cache.snapshot()
	if cached[0].Format != track.FormatVinyl {
		t.Errorf("normalized track not written back to cache: %q", cached[0].Format)
	}
	if s.Synced() {
		t.Error("Synced() = true after remote failure")
	}
	if !rec.has("Sync deferred", SeverityWarning) {
		t.Error("missing Sync deferred warning")
	}
}

func TestLoad_CorruptCacheIsCleared(t *testing.T) {
	store := local.NewMemoryStore()
	if err := store.Set(CacheSlot, []byte("{broken")); err != nil {
		t.Fatal(err)
	}
	cache := local.NewSlot[[]track.Track](store, CacheSlot)
	s, rec := newTestStore(cache, nil)

	if err := s.Load(context.Background()); err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if got := len(s.Tracks()); got != 3 {
		t.Errorf("len(Tracks()) = %d, want the 3 samples", got)
	}
	cached, err := cache.Load()
	if err != nil {
		t.Fatalf("cache.Load() after Load error = %v", err)
	}
	if len(cached) != 3 {
		t.Errorf("cache holds %d tracks, want 3", len(cached))
	}
	if !rec.has("Local cache reset", SeverityWarning) {
		t.Error("missing Local cache reset warning")
	}
}

func TestLoad_EmptyRemotePushesSamples(t *testing.T) {
	remote := &fakeRemote{}
	s, _ := newTestStore(&fakeCache{}, remote)

	if err := s.Load(context.Background()); err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	for _, tr := range s.Tracks() {
		if _, ok := remote.row(tr.ID); !ok {
			t.Errorf("sample %q not pushed to remote", tr.Title)
		}
	}
	if !s.Synced() {
		t.Error("Synced() = false after pushing samples")
	}
}

func TestLoad_SamplePushFailureIsNotFatal(t *testing.T) {
	remote := &fakeRemote{}
	remote.setUpsertErr(func(db.Track) error { return errNetwork })
	s, _ := newTestStore(&fakeCache{}, remote)

	if err := s.Load(context.Background()); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if got := len(s.Tracks()); got != 3 {
		t.Errorf("len(Tracks()) = %d, want 3", got)
	}
	if s.Synced() {
		t.Error("Synced() = true after failed sample push")
	}
}

func TestLoad_RemoteUnreachableSkipsSamplePush(t *testing.T) {
	remote := &fakeRemote{listErr: errNetwork}
	s, rec := newTestStore(&fakeCache{}, remote)

	if err := s.Load(context.Background()); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if got := len(s.Tracks()); got != 3 {
		t.Fatalf("len(Tracks()) = %d, want 3", got)
	}
	if got := remote.upsertCount(); got != 0 {
		t.Errorf("Load() sent %d upserts to an unreachable remote, want 0", got)
	}
	if s.Synced() {
		t.Error("Synced() = true after remote failure")
	}
	if !rec.has("Sync deferred", SeverityWarning) {
		t.Error("missing Sync deferred warning")
	}

	if err := s.SyncAll(context.Background()); err != nil {
		t.Fatalf("SyncAll() error = %v", err)
	}
	for _, tr := range s.Tracks() {
		if _, ok := remote.row(tr.ID); !ok {
			t.Errorf("sample %q not pushed by SyncAll", tr.Title)
		}
	}
	if !s.Synced() {
		t.Error("Synced() = false after SyncAll")
	}
}

func TestAdd_NormalizesAndAssignsIdentity(t *testing.T) {
	cache := &fakeCache{}
	s, rec := newTestStore(cache, nil)
	if err := s.Load(context.Background()); err != nil {
		t.Fatal(err)
	}

	added, err := s.Add(context.Background(), xtal())
	if err != nil {
		t.Fatalf("Add() error = %v", err)
	}

	if added.Format != track.FormatVinyl {
		t.Errorf("Format = %q, want %q", added.Format, track.FormatVinyl)
	}
	if added.ID == "" {
		t.Error("ID not assigned")
	}
	if !strings.HasPrefix(added.Slug, "xtal-") {
		t.Errorf("Slug = %q, want xtal- prefix", added.Slug)
	}
	if !added.AddedAt.Equal(fixedNow) {
		t.Errorf("AddedAt = %v, want %v", added.AddedAt, fixedNow)
	}

	count := 0
	for _, tr := range s.Tracks() {
		if tr.Slug == added.Slug && tr.ID != added.ID {
			t.Errorf("slug %q shared with %q", tr.Slug, tr.Title)
		}
		if tr.ID == added.ID {
			count++
		}
	}
	if count != 1 {
		t.Errorf("track appears %d times, want 1", count)
	}

	cached, _ := cache.snapshot()
	if diff := cmp.Diff(s.Tracks(), cached); diff != "" {
		t.Errorf("cache differs from memory (-memory +cache):\n%s", diff)
	}
	if !rec.has("Track added", SeveritySuccess) {
		t.Error("missing Track added notification")
	}
}

func TestAdd_ThenSearchAnyCase(t *testing.T) {
	s, _ := newTestStore(&fakeCache{}, nil)
	added, err := s.Add(context.Background(), track.Track{Title: "Windowlicker", Artist: "Aphex Twin"})
	if err != nil {
		t.Fatal(err)
	}

	for _, q := range []string{"window", "WINDOW", "wInDoWlIcKeR", "licker"} {
		found := false
		for _, tr := range s.Search(q) {
			if tr.ID == added.ID {
				found = true
			}
		}
		if !found {
			t.Errorf("Search(%q) did not return the added track", q)
		}
	}
}

func TestAdd_Duplicate(t *testing.T) {
	tests := []struct {
		name   string
		second track.Track
	}{
		{"same", xtal()},
		{"different case", track.Track{Title: "XTAL", Artist: "aphex twin"}},
		{"surrounding whitespace", track.Track{Title: " Xtal ", Artist: "Aphex Twin "}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cache := &fakeCache{}
			s, rec := newTestStore(cache, nil)
			if _, err := s.Add(context.Background(), xtal()); err != nil {
				t.Fatal(err)
			}
			_, savesBefore := cache.snapshot()

			_, err := s.Add(context.Background(), tt.second)
			if !errors.Is(err, ErrDuplicate) {
				t.Fatalf("Add() error = %v, want ErrDuplicate", err)
			}
			if got := len(s.Tracks()); got != 1 {
				t.Errorf("len(Tracks()) = %d, want 1", got)
			}
			if _, saves := cache.snapshot(); saves != savesBefore {
				t.Errorf("duplicate add wrote the cache")
			}
			if !rec.has("Duplicate track", SeverityWarning) {
				t.Error("missing Duplicate track warning")
			}
		})
	}
}

func TestAdd_EmptyTitle(t *testing.T) {
	s, _ := newTestStore(&fakeCache{}, nil)
	if _, err := s.Add(context.Background(), track.Track{Title: "  ", Artist: "Nobody"}); !errors.Is(err, track.ErrEmptyTitle) {
		t.Errorf("Add() error = %v, want ErrEmptyTitle", err)
	}
	if got := len(s.Tracks()); got != 0 {
		t.Errorf("len(Tracks()) = %d, want 0", got)
	}
}

func TestAdd_RemoteFailureIsDeferred(t *testing.T) {
	remote := remoteWith(track.Samples(fixedNow)...)
	cache := &fakeCache{}
	s, rec := newTestStore(cache, remote)
	if err := s.Load(context.Background()); err != nil {
		t.Fatal(err)
	}
	if !s.Synced() {
		t.Fatal("Synced() = false after load")
	}

	remote.setUpsertErr(func(db.Track) error { return errNetwork })
	added, err := s.Add(context.Background(), xtal())
	if err != nil {
		t.Fatalf("Add() error = %v, want nil", err)
	}
	s.Wait()

	if _, err := s.Get(added.ID); err != nil {
		t.Errorf("record missing from memory: %v", err)
	}
	cached, _ := cache.snapshot()
	inCache := false
	for _, tr := range cached {
		if tr.ID == added.ID {
			inCache = true
		}
	}
	if !inCache {
		t.Error("record missing from local cache")
	}
	if s.Synced() {
		t.Error("Synced() = true after remote failure")
	}
	if synced, ok := rec.lastSync(); !ok || synced {
		t.Errorf("SyncChanged last = (%v, %v), want (false, true)", synced, ok)
	}
	if !rec.has("Sync deferred", SeverityWarning) {
		t.Error("missing Sync deferred warning")
	}

	remote.setUpsertErr(nil)
	if err := s.SyncAll(context.Background()); err != nil {
		t.Fatalf("SyncAll() error = %v", err)
	}
	if !s.Synced() {
		t.Error("Synced() = false after SyncAll")
	}
	if _, ok := remote.row(added.ID); !ok {
		t.Error("SyncAll did not push the deferred record")
	}
}

func TestAdd_RemoteSucceedsInBackground(t *testing.T) {
	remote := remoteWith(track.Samples(fixedNow)...)
	s, _ := newTestStore(&fakeCache{}, remote)
	if err := s.Load(context.Background()); err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	added, err := s.Add(ctx, xtal())
	cancel()
	if err != nil {
		t.Fatal(err)
	}
	s.Wait()

	row, ok := remote.row(added.ID)
	if !ok {
		t.Fatal("record not upserted remotely after caller cancelled")
	}
	if row.Format == nil || *row.Format != "Vinyl" {
		t.Errorf("remote format = %v, want Vinyl", row.Format)
	}
	if !s.Synced() {
		t.Error("Synced() = false after successful upsert")
	}
}

func TestAdd_SlugConflictRetriesOnce(t *testing.T) {
	tests := []struct {
		name      string
		conflicts int
		wantSync  bool
		wantRetry bool
	}{
		{"first retry succeeds", 1, true, true},
		{"second conflict is surfaced", 2, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			remote := remoteWith(track.Samples(fixedNow)...)
			s, rec := newTestStore(&fakeCache{}, remote)
			if err := s.Load(context.Background()); err != nil {
				t.Fatal(err)
			}

			seen := 0
			remote.setUpsertErr(func(db.Track) error {
				seen++
				if seen <= tt.conflicts {
					return db.ErrSlugConflict
				}
				return nil
			})

			added, err := s.Add(context.Background(), xtal())
			if err != nil {
				t.Fatal(err)
			}
			s.Wait()

			if got := remote.upsertCount(); got != 2 {
				t.Errorf("upserts = %d, want 2 (original and one retry)", got)
			}
			got, _ := s.Get(added.ID)
			if retried := strings.Contains(got.Slug, "-retry-"); retried != tt.wantRetry {
				t.Errorf("slug = %q, retried = %v, want %v", got.Slug, retried, tt.wantRetry)
			}
			if s.Synced() != tt.wantSync {
				t.Errorf("Synced() = %v, want %v", s.Synced(), tt.wantSync)
			}
			if !tt.wantSync && !rec.has("Sync deferred", SeverityWarning) {
				t.Error("second conflict not reported")
			}
		})
	}
}

func TestUpdate(t *testing.T) {
	remote := remoteWith(track.Samples(fixedNow)...)
	cache := &fakeCache{}
	s, _ := newTestStore(cache, remote)
	if err := s.Load(context.Background()); err != nil {
		t.Fatal(err)
	}
	target := s.Tracks()[0]

	updated, err := s.Update(context.Background(), target.ID, "bpm", 128)
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	s.Wait()

	if updated.BPM != 128 {
		t.Errorf("BPM = %v, want 128", updated.BPM)
	}
	cached, _ := cache.snapshot()
	if cached[0].BPM != 128 {
		t.Errorf("cached BPM = %v, want 128", cached[0].BPM)
	}
	row, _ := remote.row(target.ID)
	if row.BPM == nil || *row.BPM != 128 {
		t.Errorf("remote BPM = %v, want 128", row.BPM)
	}
}

func TestUpdate_UnknownID(t *testing.T) {
	cache := &fakeCache{}
	s, _ := newTestStore(cache, nil)
	if err := s.Load(context.Background()); err != nil {
		t.Fatal(err)
	}
	before := s.Tracks()
	_, savesBefore := cache.snapshot()

	_, err := s.Update(context.Background(), "does-not-exist", "bpm", 128)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("Update() error = %v, want ErrNotFound", err)
	}

	if diff := cmp.Diff(before, s.Tracks()); diff != "" {
		t.Errorf("list changed (-before +after):\n%s", diff)
	}
	if _, saves := cache.snapshot(); saves != savesBefore {
		t.Errorf("cache written %d times, want no write", saves-savesBefore)
	}
}

func TestUpdate_Rejections(t *testing.T) {
	s, _ := newTestStore(&fakeCache{}, nil)
	if _, err := s.Add(context.Background(), xtal()); err != nil {
		t.Fatal(err)
	}
	other, err := s.Add(context.Background(), track.Track{Title: "Flim", Artist: "Aphex Twin"})
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		field   string
		value   any
		wantErr error
	}{
		{"title", "xtal", ErrDuplicate},
		{"title", "", track.ErrEmptyTitle},
		{"duration", 300, track.ErrUnknownField},
		{"bpm", "fast", track.ErrInvalidValue},
	}

	for _, tt := range tests {
		t.Run(tt.field, func(t *testing.T) {
			_, err := s.Update(context.Background(), other.ID, tt.field, tt.value)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Update(%s, %v) error = %v, want %v", tt.field, tt.value, err, tt.wantErr)
			}
			got, _ := s.Get(other.ID)
			if got != other {
				t.Errorf("track changed on rejected update: %+v", got)
			}
		})
	}
}

func TestRemove(t *testing.T) {
	remote := remoteWith(track.Samples(fixedNow)...)
	cache := &fakeCache{}
	s, _ := newTestStore(cache, remote)
	if err := s.Load(context.Background()); err != nil {
		t.Fatal(err)
	}
	target := s.Tracks()[1]

	if err := s.Remove(context.Background(), target.ID); err != nil {
		t.Fatalf("Remove() error = %v", err)
	}
	s.Wait()

	for _, q := range []string{"", "a", strings.ToUpper(target.Title), target.Artist} {
		for _, tr := range s.Search(q) {
			if tr.ID == target.ID {
				t.Errorf("Search(%q) returned removed track", q)
			}
		}
	}
	cached, _ := cache.snapshot()
	for _, tr := range cached {
		if tr.ID == target.ID {
			t.Error("removed track still cached")
		}
	}
	if _, ok := remote.row(target.ID); ok {
		t.Error("removed track still in remote")
	}
	if err := s.Remove(context.Background(), target.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("second Remove() error = %v, want ErrNotFound", err)
	}
}

func TestRemove_RemoteFailureIsQueued(t *testing.T) {
	remote := remoteWith(track.Samples(fixedNow)...)
	s, _ := newTestStore(&fakeCache{}, remote)
	if err := s.Load(context.Background()); err != nil {
		t.Fatal(err)
	}
	target := s.Tracks()[0]

	remote.setDeleteErr(errNetwork)
	if err := s.Remove(context.Background(), target.ID); err != nil {
		t.Fatalf("Remove() error = %v", err)
	}
	s.Wait()

	if _, err := s.Get(target.ID); !errors.Is(err, ErrNotFound) {
		t.Error("removed track restored after remote failure")
	}
	if s.Synced() {
		t.Error("Synced() = true after failed remote delete")
	}

	remote.setDeleteErr(nil)
	if err := s.SyncAll(context.Background()); err != nil {
		t.Fatalf("SyncAll() error = %v", err)
	}
	if _, ok := remote.row(target.ID); ok {
		t.Error("SyncAll did not replay the delete")
	}
	if !s.Synced() {
		t.Error("Synced() = false after SyncAll")
	}
}

func TestRemove_WhileAddInFlight(t *testing.T) {
	remote := remoteWith(track.Samples(fixedNow)...)
	s, _ := newTestStore(&fakeCache{}, remote)
	if err := s.Load(context.Background()); err != nil {
		t.Fatal(err)
	}

	release := make(chan struct{})
	remote.setGate(release)
	added, err := s.Add(context.Background(), xtal())
	if err != nil {
		t.Fatalf("Add() error = %v", err)
	}
	if err := s.Remove(context.Background(), added.ID); err != nil {
		t.Fatalf("Remove() error = %v", err)
	}

	deadline := time.Now().Add(time.Second)
	for !remote.wasDeleted(added.ID) {
		if time.Now().After(deadline) {
			t.Fatal("remote delete never ran")
		}
		time.Sleep(time.Millisecond)
	}
	remote.setGate(nil)
	close(release)
	s.Wait()

	if _, ok := remote.row(added.ID); ok {
		t.Error("late upsert left the removed track in the remote")
	}
	if !s.Synced() {
		t.Error("Synced() = false after the removal was replayed")
	}

	if err := s.Load(context.Background()); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Get(added.ID); !errors.Is(err, ErrNotFound) {
		t.Error("removed track came back on reload")
	}
}

func TestSyncAll_NotConfigured(t *testing.T) {
	s, rec := newTestStore(&fakeCache{}, nil)
	if err := s.SyncAll(context.Background()); !errors.Is(err, ErrNotConfigured) {
		t.Errorf("SyncAll() error = %v, want ErrNotConfigured", err)
	}
	if !rec.has("Sync unavailable", SeverityError) {
		t.Error("missing Sync unavailable notification")
	}
}

func TestSyncAll_PartialFailure(t *testing.T) {
	remote := remoteWith(track.Samples(fixedNow)...)
	s, rec := newTestStore(&fakeCache{}, remote)
	if err := s.Load(context.Background()); err != nil {
		t.Fatal(err)
	}
	bad := s.Tracks()[2].ID

	remote.setUpsertErr(func(row db.Track) error {
		if row.ID == bad {
			return errNetwork
		}
		return nil
	})

	err := s.SyncAll(context.Background())
	if !errors.Is(err, errNetwork) {
		t.Fatalf("SyncAll() error = %v, want it to wrap the network error", err)
	}
	if s.Synced() {
		t.Error("Synced() = true after partial failure")
	}
	if !rec.has("Sync failed", SeverityError) {
		t.Error("missing Sync failed notification")
	}
	if got := remote.upsertCount(); got != 3 {
		t.Errorf("upserts = %d, want one per track", got)
	}
}

func TestSyncAll_RespectsContext(t *testing.T) {
	remote := remoteWith(track.Samples(fixedNow)...)
	s, _ := newTestStore(&fakeCache{}, remote)
	if err := s.Load(context.Background()); err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := s.SyncAll(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("SyncAll() error = %v, want context.Canceled", err)
	}
}

func TestSubscribe_OrderAndUnsubscribe(t *testing.T) {
	s := New(&fakeCache{}, nil, WithClock(fixedClock))

	var order []string
	first := s.Subscribe(ListenerFuncs{OnNotify: func(Notification) { order = append(order, "first") }})
	s.Subscribe(ListenerFuncs{OnNotify: func(Notification) { order = append(order, "second") }})

	if _, err := s.Add(context.Background(), xtal()); err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]string{"first", "second"}, order); diff != "" {
		t.Errorf("delivery order mismatch (-want +got):\n%s", diff)
	}

	first()
	first()
	order = nil
	if _, err := s.Add(context.Background(), track.Track{Title: "Flim"}); err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]string{"second"}, order); diff != "" {
		t.Errorf("after unsubscribe (-want +got):\n%s", diff)
	}
}

func TestCollect(t *testing.T) {
	s, rec := newTestStore(&fakeCache{}, nil)

	in := make(chan track.Track, 3)
	in <- track.Track{Title: "Xtal", Artist: "Aphex Twin"}
	in <- track.Track{Title: "xtal", Artist: "aphex twin"}
	in <- track.Track{Title: "Tha", Artist: "Aphex Twin", Format: "flac"}
	close(in)

	if err := s.Collect(context.Background(), in); err != nil {
		t.Fatalf("Collect() error = %v", err)
	}
	tracks := s.Tracks()
	if len(tracks) != 2 {
		t.Fatalf("len(Tracks()) = %d, want 2", len(tracks))
	}
	if tracks[1].Format != track.FormatFLAC {
		t.Errorf("Format = %q, want FLAC", tracks[1].Format)
	}
	if !rec.has("Duplicate track", SeverityWarning) {
		t.Error("missing duplicate warning for collected track")
	}
}

func TestCollect_StopsOnContext(t *testing.T) {
	s, _ := newTestStore(&fakeCache{}, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := s.Collect(ctx, make(chan track.Track)); !errors.Is(err, context.Canceled) {
		t.Errorf("Collect() error = %v, want context.Canceled", err)
	}
}
