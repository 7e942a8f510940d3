package crate

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/justestif/go-crate-keeper/internal/db"
	"github.com/justestif/go-crate-keeper/internal/track"
)

func (s *Store) listRemote(ctx context.Context) ([]db.Track, error) {
	ctx, cancel := context.WithTimeout(ctx, s.remoteTimeout)
	defer cancel()
	rows, err := s.remote.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing remote tracks: %w", err)
	}
	return rows, nil
}

// push upserts t. On a slug clash it retries once with a fresh slug and
// returns the slug that was stored.
func (s *Store) push(ctx context.Context, t track.Track) (string, error) {
	row := toRow(t)
	err := s.remote.Upsert(ctx, &row)
	if !errors.Is(err, db.ErrSlugConflict) {
		return t.Slug, err
	}

	s.logger.Info("slug taken remotely, retrying", zap.String("id", t.ID), zap.String("slug", t.Slug))
	t.Slug = track.RetrySlug(t.Title, s.now())
	row = toRow(t)
	if err := s.remote.Upsert(ctx, &row); err != nil {
		return "", fmt.Errorf("retrying with slug %s: %w", t.Slug, err)
	}
	return t.Slug, nil
}

func (s *Store) pushWithTimeout(ctx context.Context, t track.Track) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, s.remoteTimeout)
	defer cancel()
	return s.push(ctx, t)
}

// background runs fn detached from the caller's cancellation, bounded by
// the remote timeout. Wait blocks until it returns.
func (s *Store) background(ctx context.Context, fn func(ctx context.Context)) {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx = context.WithoutCancel(ctx)

	s.inflight.Add(1)
	go func() {
		defer s.inflight.Done()
		ctx, cancel := context.WithTimeout(ctx, s.remoteTimeout)
		defer cancel()
		fn(ctx)
	}()
}

func (s *Store) upsertAsync(ctx context.Context, t track.Track) {
	if s.remote == nil {
		return
	}
	s.background(ctx, func(ctx context.Context) {
		slug, err := s.push(ctx, t)
		if err != nil {
			s.logger.Warn("remote upsert failed", zap.String("id", t.ID), zap.Error(err))
			s.markDirty(t.ID)
			s.publish(warning("Sync deferred", fmt.Sprintf("%s is saved locally; remote save failed: %v", describe(t), err)))
			return
		}
		if removed := s.markClean(t.ID, t.Slug, slug); removed {
			s.deleteAsync(ctx, t.ID)
			return
		}
		s.publish()
	})
}

func (s *Store) deleteAsync(ctx context.Context, id string) {
	if s.remote == nil {
		return
	}
	s.background(ctx, func(ctx context.Context) {
		if err := s.remote.Delete(ctx, id); err != nil {
			s.logger.Warn("remote delete failed", zap.String("id", id), zap.Error(err))
			s.mu.Lock()
			s.deletes[id] = true
			s.mu.Unlock()
			s.publish(warning("Sync deferred", fmt.Sprintf("Removed locally; remote delete failed: %v", err)))
			return
		}
		s.mu.Lock()
		delete(s.deletes, id)
		s.mu.Unlock()
		s.publish()
	})
}

// markDirty records a failed upsert for a track that is still in the crate.
func (s *Store) markDirty(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.indexOf(id) >= 0 {
		s.dirty[id] = true
	}
}

// markClean records a successful upsert. If the slug had to be regenerated
// remotely, the local copy follows, unless it was edited in the meantime.
// It reports whether the track was removed locally while the upsert was in
// flight; the row it wrote is then queued for deletion.
func (s *Store) markClean(id, sent, stored string) (removed bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.dirty, id)
	i := s.indexOf(id)
	if i < 0 {
		s.deletes[id] = true
		return true
	}
	if sent == stored || s.tracks[i].Slug != sent {
		return false
	}
	s.tracks[i].Slug = stored
	if err := s.cache.Save(s.tracks); err != nil {
		s.logger.Error("saving local cache", zap.Error(err))
	}
	return false
}

// SyncAll replays queued remote deletes and re-upserts every track, one
// request at a time. It returns nil only if every request succeeded, in
// which case the store is synced.
func (s *Store) SyncAll(ctx context.Context) error {
	if s.remote == nil {
		s.publish(failure("Sync unavailable", "No remote store is configured."))
		return ErrNotConfigured
	}

	s.mu.Lock()
	tracks := make([]track.Track, len(s.tracks))
	copy(tracks, s.tracks)
	deletes := make([]string, 0, len(s.deletes))
	for id := range s.deletes {
		deletes = append(deletes, id)
	}
	s.mu.Unlock()

	var errs []error
	failed := 0

	for _, id := range deletes {
		if err := s.limiter.Wait(ctx); err != nil {
			errs = append(errs, err)
			break
		}
		if err := s.deleteWithTimeout(ctx, id); err != nil {
			errs = append(errs, fmt.Errorf("deleting %s: %w", id, err))
			failed++
			continue
		}
		s.mu.Lock()
		delete(s.deletes, id)
		s.mu.Unlock()
	}

	for _, t := range tracks {
		if ctx.Err() != nil {
			errs = append(errs, ctx.Err())
			break
		}
		if err := s.limiter.Wait(ctx); err != nil {
			errs = append(errs, err)
			break
		}
		slug, err := s.pushWithTimeout(ctx, t)
		if err != nil {
			errs = append(errs, fmt.Errorf("upserting %s: %w", t.ID, err))
			s.markDirty(t.ID)
			failed++
			continue
		}
		if removed := s.markClean(t.ID, t.Slug, slug); !removed {
			continue
		}
		if err := s.deleteWithTimeout(ctx, t.ID); err != nil {
			errs = append(errs, fmt.Errorf("deleting %s: %w", t.ID, err))
			failed++
			continue
		}
		s.mu.Lock()
		delete(s.deletes, t.ID)
		s.mu.Unlock()
	}

	err := errors.Join(errs...)
	if err != nil {
		s.logger.Warn("sync incomplete", zap.Int("failed", failed), zap.Error(err))
		s.publish(failure("Sync failed", fmt.Sprintf("%d of %d remote writes failed.", failed, len(tracks)+len(deletes))))
		return fmt.Errorf("syncing crate: %w", err)
	}

	s.mu.Lock()
	s.stale = false
	s.mu.Unlock()

	s.logger.Info("crate synced", zap.Int("tracks", len(tracks)), zap.Int("deletes", len(deletes)))
	s.publish(success("Crate synced", fmt.Sprintf("%d tracks saved to the remote store.", len(tracks))))
	return nil
}

func (s *Store) deleteWithTimeout(ctx context.Context, id string) error {
	ctx, cancel := context.WithTimeout(ctx, s.remoteTimeout)
	defer cancel()
	return s.remote.Delete(ctx, id)
}
