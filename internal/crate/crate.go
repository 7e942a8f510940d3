// Package crate implements the Track Store: the authoritative in-memory
// crate, mirrored to a local cache and, best effort, to a remote table.
//
// Every mutating operation updates memory and rewrites the local cache
// before returning. Remote writes happen in the background and only ever
// affect the sync flag; they never undo a local change.
package crate

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/justestif/go-crate-keeper/internal/db"
	"github.com/justestif/go-crate-keeper/internal/local"
	"github.com/justestif/go-crate-keeper/internal/track"
)

// Common errors.
var (
	// ErrDuplicate is returned when a track with the same title and artist already exists.
	ErrDuplicate = errors.New("track already in crate")

	// ErrNotFound is returned when no track has the given id.
	ErrNotFound = errors.New("track not found")

	// ErrNotConfigured is returned by remote operations when no remote store is set.
	ErrNotConfigured = errors.New("remote store not configured")
)

// CacheSlot is the local cache slot holding the full track list.
const CacheSlot = "crate.tracks"

// Defaults for background remote calls.
const (
	DefaultRemoteTimeout = 10 * time.Second
	DefaultSyncRate      = rate.Limit(10)
)

// Cache is the local replica of the crate. It always holds the full list.
type Cache interface {
	// Load returns the cached list, or nil if nothing is cached.
	// A value that cannot be decoded is reported as local.ErrCorrupt.
	Load() ([]track.Track, error)
	Save(tracks []track.Track) error
	Clear() error
}

// Remote is the durable replica, keyed by id.
type Remote interface {
	List(ctx context.Context) ([]db.Track, error)
	// Upsert creates or replaces the row with the same id.
	// A slug clash is reported as db.ErrSlugConflict.
	Upsert(ctx context.Context, row *db.Track) error
	Delete(ctx context.Context, id string) error
}

// Store owns the crate.
type Store struct {
	cache  Cache
	remote Remote
	logger *zap.Logger

	remoteTimeout time.Duration
	limiter       *rate.Limiter
	now           func() time.Time

	mu      sync.Mutex
	tracks  []track.Track
	dirty   map[string]bool // ids whose last upsert failed
	deletes map[string]bool // ids whose remote delete failed
	stale   bool            // remote content unknown or known to differ

	inflight sync.WaitGroup

	listenMu  sync.Mutex
	listeners []*subscription
	nextSubID int

	notifyMu sync.Mutex
	reported bool
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithRemoteTimeout bounds every background remote call.
func WithRemoteTimeout(d time.Duration) Option {
	return func(s *Store) {
		if d > 0 {
			s.remoteTimeout = d
		}
	}
}

// WithSyncRate limits how many remote requests per second SyncAll issues.
func WithSyncRate(limit rate.Limit) Option {
	return func(s *Store) {
		if limit > 0 {
			s.limiter = rate.NewLimiter(limit, 1)
		}
	}
}

// WithClock overrides the time source used for slugs and creation dates.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// New creates a Store. A nil remote means no remote store is configured and
// the store runs local-only, permanently unsynced. A nil cache keeps the
// cache in memory.
func New(cache Cache, remote Remote, opts ...Option) *Store {
	if cache == nil {
		cache = local.NewSlot[[]track.Track](local.NewMemoryStore(), CacheSlot)
	}
	s := &Store{
		cache:         cache,
		remote:        remote,
		logger:        zap.NewNop(),
		remoteTimeout: DefaultRemoteTimeout,
		limiter:       rate.NewLimiter(DefaultSyncRate, 1),
		now:           time.Now,
		dirty:         make(map[string]bool),
		deletes:       make(map[string]bool),
		stale:         true,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// RemoteConfigured reports whether the store has a remote replica.
func (s *Store) RemoteConfigured() bool {
	return s.remote != nil
}

// Synced reports whether the remote store is known to match memory.
func (s *Store) Synced() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.syncedLocked()
}

func (s *Store) syncedLocked() bool {
	return s.remote != nil && !s.stale && len(s.dirty) == 0 && len(s.deletes) == 0
}

// Wait blocks until every background remote call has finished.
func (s *Store) Wait() {
	s.inflight.Wait()
}
