package crate

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/justestif/go-crate-keeper/internal/db"
	"github.com/justestif/go-crate-keeper/internal/local"
	"github.com/justestif/go-crate-keeper/internal/track"
)

// Load populates the crate. Sources are tried in order: a non-empty remote
// listing, then the local cache, then the built-in samples (which are also
// pushed to the remote when it answered the listing). Remote failures only degrade the store to
// local-only; the returned error is reserved for cache write failures.
func (s *Store) Load(ctx context.Context) error {
	var notes []Notification
	err := func() error {
		s.mu.Lock()
		defer s.mu.Unlock()

		s.tracks = nil
		s.dirty = make(map[string]bool)
		s.deletes = make(map[string]bool)
		s.stale = true

		remoteOK, remoteDown := false, false
		if s.remote != nil {
			rows, err := s.listRemote(ctx)
			if err != nil {
				remoteDown = true
				s.logger.Warn("remote store unavailable, using local data", zap.Error(err))
				notes = append(notes, warning("Sync deferred", "Remote store unavailable; working from local data."))
			} else if len(rows) > 0 {
				s.tracks = s.adopt(rows)
				s.stale = false
				if err := s.cache.Save(s.tracks); err != nil {
					return fmt.Errorf("saving cache: %w", err)
				}
				s.logger.Info("loaded crate from remote store", zap.Int("tracks", len(s.tracks)))
				notes = append(notes, success("Crate loaded", fmt.Sprintf("%d tracks from the remote store.", len(s.tracks))))
				return nil
			} else {
				remoteOK = true
			}
		}

		cached, err := s.cache.Load()
		switch {
		case errors.Is(err, local.ErrCorrupt):
			s.logger.Warn("local cache corrupt, clearing", zap.Error(err))
			if err := s.cache.Clear(); err != nil {
				s.logger.Error("clearing corrupt cache", zap.Error(err))
			}
			notes = append(notes, warning("Local cache reset", "The saved crate could not be read and was discarded."))
		case err != nil:
			s.logger.Warn("reading local cache", zap.Error(err))
		case len(cached) > 0:
			s.tracks = s.adoptCached(cached)
			if err := s.cache.Save(s.tracks); err != nil {
				return fmt.Errorf("saving cache: %w", err)
			}
			s.logger.Info("loaded crate from local cache", zap.Int("tracks", len(s.tracks)))
			notes = append(notes, success("Crate loaded", fmt.Sprintf("%d tracks from the local cache.", len(s.tracks))))
			return nil
		}

		s.tracks = track.Samples(s.now())
		if err := s.cache.Save(s.tracks); err != nil {
			return fmt.Errorf("saving cache: %w", err)
		}
		s.logger.Info("seeded crate with samples", zap.Int("tracks", len(s.tracks)))
		notes = append(notes, success("Crate ready", "Started with the built-in sample tracks."))

		if s.remote == nil {
			return nil
		}
		if remoteDown {
			// Left for SyncAll.
			for _, t := range s.tracks {
				s.dirty[t.ID] = true
			}
			return nil
		}
		if remoteOK {
			s.stale = false
		}
		failed := 0
		for i := range s.tracks {
			slug, err := s.pushWithTimeout(ctx, s.tracks[i])
			if err != nil {
				s.logger.Warn("pushing sample track", zap.String("id", s.tracks[i].ID), zap.Error(err))
				s.dirty[s.tracks[i].ID] = true
				failed++
				continue
			}
			s.tracks[i].Slug = slug
		}
		if err := s.cache.Save(s.tracks); err != nil {
			return fmt.Errorf("saving cache: %w", err)
		}
		if failed > 0 {
			notes = append(notes, warning("Sync deferred", fmt.Sprintf("%d sample tracks were not saved remotely.", failed)))
		}
		return nil
	}()

	s.publish(notes...)
	if err != nil {
		return fmt.Errorf("loading crate: %w", err)
	}
	return nil
}

// adopt converts remote rows, dropping rows that cannot be kept.
func (s *Store) adopt(rows []db.Track) []track.Track {
	now := s.now()
	tracks := make([]track.Track, 0, len(rows))
	ids := make(map[string]bool, len(rows))
	keys := make(map[string]bool, len(rows))
	for _, row := range rows {
		t := fromRow(row, now)
		if !s.keep(t, ids, keys) {
			continue
		}
		tracks = append(tracks, t)
	}
	return tracks
}

// adoptCached normalizes cached records, dropping records that cannot be kept.
func (s *Store) adoptCached(cached []track.Track) []track.Track {
	now := s.now()
	tracks := make([]track.Track, 0, len(cached))
	ids := make(map[string]bool, len(cached))
	keys := make(map[string]bool, len(cached))
	for _, t := range cached {
		t = track.Normalize(t)
		if t.ID == "" {
			t.ID = uuid.NewString()
		}
		if t.Slug == "" {
			t.Slug = track.NewSlug(t.Title, now)
		}
		if !s.keep(t, ids, keys) {
			continue
		}
		tracks = append(tracks, t)
	}
	return tracks
}

func (s *Store) keep(t track.Track, ids, keys map[string]bool) bool {
	if t.ID == "" || track.Validate(t) != nil {
		s.logger.Warn("dropping invalid track", zap.String("id", t.ID))
		return false
	}
	if ids[t.ID] || keys[t.DuplicateKey()] {
		s.logger.Warn("dropping duplicate track", zap.String("id", t.ID), zap.String("title", t.Title))
		return false
	}
	ids[t.ID] = true
	keys[t.DuplicateKey()] = true
	return true
}

// Add inserts t. Missing id, slug and creation date are filled in and the
// format is normalized. A track whose title and artist match an existing
// one, ignoring case, is rejected with ErrDuplicate and changes nothing.
// Remote failures are reported to listeners, never returned.
func (s *Store) Add(ctx context.Context, t track.Track) (track.Track, error) {
	t = track.Normalize(t)
	if err := track.Validate(t); err != nil {
		s.publish(failure("Track not added", "A title is required."))
		return track.Track{}, err
	}

	s.mu.Lock()
	if s.indexOfKey(t.DuplicateKey(), "") >= 0 {
		s.mu.Unlock()
		s.publish(warning("Duplicate track", fmt.Sprintf("%s is already in your crate.", describe(t))))
		return track.Track{}, fmt.Errorf("adding %q: %w", t.Title, ErrDuplicate)
	}

	now := s.now()
	if t.ID == "" || s.indexOf(t.ID) >= 0 {
		t.ID = uuid.NewString()
	}
	if t.Slug == "" || s.slugTaken(t.Slug, "") {
		t.Slug = track.NewSlug(t.Title, now)
	}
	if t.AddedAt.IsZero() {
		t.AddedAt = now
	}

	s.tracks = append(s.tracks, t)
	notes := []Notification{success("Track added", describe(t)+" was added to your crate.")}
	notes = append(notes, s.saveCacheLocked()...)
	s.mu.Unlock()

	s.logger.Debug("track added", zap.String("id", t.ID), zap.String("slug", t.Slug))
	s.publish(notes...)
	s.upsertAsync(ctx, t)
	return t, nil
}

// Update sets one field of the track with the given id. Each edit is its
// own persisted write. An unknown id returns ErrNotFound and writes nothing.
func (s *Store) Update(ctx context.Context, id, field string, value any) (track.Track, error) {
	s.mu.Lock()
	i := s.indexOf(id)
	if i < 0 {
		s.mu.Unlock()
		return track.Track{}, fmt.Errorf("updating %s: %w", id, ErrNotFound)
	}

	t := s.tracks[i]
	if err := track.Apply(&t, field, value); err != nil {
		s.mu.Unlock()
		s.publish(failure("Update failed", err.Error()))
		return track.Track{}, fmt.Errorf("updating %s: %w", id, err)
	}
	if s.indexOfKey(t.DuplicateKey(), id) >= 0 {
		s.mu.Unlock()
		s.publish(warning("Duplicate track", fmt.Sprintf("%s is already in your crate.", describe(t))))
		return track.Track{}, fmt.Errorf("updating %s: %w", id, ErrDuplicate)
	}

	s.tracks[i] = t
	notes := []Notification{success("Track updated", fmt.Sprintf("%s: %s updated.", describe(t), track.CanonicalField(field)))}
	notes = append(notes, s.saveCacheLocked()...)
	s.mu.Unlock()

	s.publish(notes...)
	s.upsertAsync(ctx, t)
	return t, nil
}

// Remove deletes the track with the given id from memory and the cache,
// then deletes it remotely in the background. The local delete is final.
func (s *Store) Remove(ctx context.Context, id string) error {
	s.mu.Lock()
	i := s.indexOf(id)
	if i < 0 {
		s.mu.Unlock()
		return fmt.Errorf("removing %s: %w", id, ErrNotFound)
	}

	t := s.tracks[i]
	s.tracks = append(s.tracks[:i:i], s.tracks[i+1:]...)
	delete(s.dirty, id)
	notes := []Notification{success("Track removed", describe(t)+" was removed from your crate.")}
	notes = append(notes, s.saveCacheLocked()...)
	s.mu.Unlock()

	s.publish(notes...)
	s.deleteAsync(ctx, id)
	return nil
}

// Search returns the tracks whose title, artist, album or comments contain
// query, ignoring case.
func (s *Store) Search(query string) []track.Track {
	s.mu.Lock()
	defer s.mu.Unlock()
	return track.Search(s.tracks, query)
}

// Tracks returns a snapshot of the crate in insertion order.
func (s *Store) Tracks() []track.Track {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]track.Track, len(s.tracks))
	copy(out, s.tracks)
	return out
}

// Get returns the track with the given id.
func (s *Store) Get(id string) (track.Track, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexOf(id)
	if i < 0 {
		return track.Track{}, ErrNotFound
	}
	return s.tracks[i], nil
}

// Collect adds every track received on in until in is closed or ctx is done.
// Rejections are reported to listeners like any other Add.
func (s *Store) Collect(ctx context.Context, in <-chan track.Track) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case t, ok := <-in:
			if !ok {
				return nil
			}
			if _, err := s.Add(ctx, t); err != nil {
				s.logger.Debug("collected track rejected", zap.String("title", t.Title), zap.Error(err))
			}
		}
	}
}

// saveCacheLocked rewrites the cache. A failure leaves memory authoritative
// and is reported as a notification.
func (s *Store) saveCacheLocked() []Notification {
	if err := s.cache.Save(s.tracks); err != nil {
		s.logger.Error("saving local cache", zap.Error(err))
		return []Notification{failure("Local save failed", err.Error())}
	}
	return nil
}

func (s *Store) indexOf(id string) int {
	for i := range s.tracks {
		if s.tracks[i].ID == id {
			return i
		}
	}
	return -1
}

// indexOfKey finds a track with the given duplicate key, ignoring the track with id skip.
func (s *Store) indexOfKey(key, skip string) int {
	for i := range s.tracks {
		if s.tracks[i].ID != skip && s.tracks[i].DuplicateKey() == key {
			return i
		}
	}
	return -1
}

func (s *Store) slugTaken(slug, skip string) bool {
	for i := range s.tracks {
		if s.tracks[i].ID != skip && s.tracks[i].Slug == slug {
			return true
		}
	}
	return false
}

func describe(t track.Track) string {
	if strings.TrimSpace(t.Artist) == "" {
		return fmt.Sprintf("%q", t.Title)
	}
	return fmt.Sprintf("%q by %s", t.Title, t.Artist)
}
