package main

import (
	"context"
	"fmt"
	"path/filepath"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/time/rate"

	"github.com/justestif/go-crate-keeper/internal/config"
	"github.com/justestif/go-crate-keeper/internal/crate"
	"github.com/justestif/go-crate-keeper/internal/db"
	"github.com/justestif/go-crate-keeper/internal/grabber"
	"github.com/justestif/go-crate-keeper/internal/lastfm"
	"github.com/justestif/go-crate-keeper/internal/local"
	"github.com/justestif/go-crate-keeper/internal/track"
	"github.com/justestif/go-crate-keeper/internal/web"
)

// app holds the wired components for one command run.
type app struct {
	cfg     *config.Config
	logger  *zap.Logger
	store   *crate.Store
	history *grabber.History
	webhook *grabber.Webhook
	spotify *grabber.Spotify
	lastfm  *lastfm.Client

	closers []func()
}

func newLogger(level string, verbose bool) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("parsing log level: %w", err)
	}
	if verbose {
		lvl = zapcore.DebugLevel
	}

	zcfg := zap.NewProductionConfig()
	zcfg.Level = zap.NewAtomicLevelAt(lvl)
	zcfg.Encoding = "console"
	zcfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	logger, err := zcfg.Build()
	if err != nil {
		return nil, fmt.Errorf("initializing logger: %w", err)
	}
	return logger, nil
}

// newApp opens the local cache and connects to the remote database when one
// is configured. The crate is not loaded yet.
func newApp(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*app, error) {
	a := &app{cfg: cfg, logger: logger}

	slots, err := a.openLocal()
	if err != nil {
		a.close()
		return nil, err
	}

	var remote crate.Remote
	if cfg.RemoteConfigured() {
		remote = a.openRemote(ctx)
	}

	a.store = crate.New(
		local.NewSlot[[]track.Track](slots, crate.CacheSlot),
		remote,
		crate.WithLogger(logger.Named("crate")),
		crate.WithRemoteTimeout(cfg.RemoteTimeout),
		crate.WithSyncRate(rate.Limit(cfg.SyncRate)),
	)
	// Background remote writes finish before the connection closes.
	a.closers = append(a.closers, a.store.Wait)

	a.history = grabber.NewHistory(slots)
	if cfg.WebhookURL != "" {
		a.webhook = grabber.NewWebhook(cfg.WebhookURL)
	}
	if cfg.SpotifyConfigured() {
		a.spotify = grabber.NewSpotify(context.Background(), cfg.SpotifyID, cfg.SpotifySecret)
	}
	if cfg.LastFMConfigured() {
		a.lastfm = lastfm.NewClient(cfg.LastFMKey)
	}

	return a, nil
}

// openRemote returns the remote track table, or nil if the database URL
// cannot be used. An unreachable server is not fatal: the schema is applied
// again on the first request that gets through, and the store degrades to
// local-only until then.
func (a *app) openRemote(ctx context.Context) crate.Remote {
	database, err := db.New(ctx, a.cfg.DatabaseURL)
	if err != nil {
		a.logger.Warn("remote store disabled", zap.Error(err))
		return nil
	}
	a.closers = append(a.closers, database.Close)

	migrateCtx, cancel := context.WithTimeout(ctx, a.cfg.RemoteTimeout)
	defer cancel()
	if err := database.Migrate(migrateCtx); err != nil {
		a.logger.Warn("remote store unreachable", zap.Error(err))
	}
	return database.Tracks()
}

func (a *app) openLocal() (local.Store, error) {
	switch a.cfg.CacheBackend {
	case config.CacheMemory:
		return local.NewMemoryStore(), nil
	case config.CacheSQLite:
		path := a.cfg.CachePath
		if path == "" {
			dir, err := local.DefaultDir()
			if err != nil {
				return nil, err
			}
			path = filepath.Join(dir, "crate.db")
		}
		store, err := local.OpenSQLite(path)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, func() {
			if err := store.Close(); err != nil {
				a.logger.Warn("closing local cache", zap.Error(err))
			}
		})
		a.logger.Debug("using sqlite cache", zap.String("path", path))
		return store, nil
	default:
		dir := a.cfg.CachePath
		if dir == "" {
			var err error
			if dir, err = local.DefaultDir(); err != nil {
				return nil, err
			}
		}
		a.logger.Debug("using file cache", zap.String("dir", dir))
		return local.NewFileStore(dir), nil
	}
}

// close releases resources in reverse order of acquisition.
func (a *app) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}

// extractor and resolver return untyped nils for missing services so the
// server can tell they are absent.
func (a *app) extractor() web.Extractor {
	if a.webhook == nil {
		return nil
	}
	return a.webhook
}

func (a *app) resolver() web.Resolver {
	if a.spotify == nil {
		return nil
	}
	return a.spotify
}
