// Package config loads crate-keeper settings from defaults, an optional
// YAML file, an optional .env file and the environment, in that order.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Common errors.
var (
	// ErrInvalidCacheBackend is returned for cache backends other than file, sqlite or memory.
	ErrInvalidCacheBackend = errors.New("invalid cache backend")

	// ErrInvalidValue is returned when an environment variable cannot be parsed.
	ErrInvalidValue = errors.New("invalid configuration value")
)

// Cache backends.
const (
	CacheFile   = "file"
	CacheSQLite = "sqlite"
	CacheMemory = "memory"
)

// Environment variables.
const (
	EnvAddr          = "CRATE_ADDR"
	EnvDatabaseURL   = "DATABASE_URL"
	EnvCacheBackend  = "CRATE_CACHE_BACKEND"
	EnvCachePath     = "CRATE_CACHE_PATH"
	EnvWebhookURL    = "GRABBER_WEBHOOK_URL"
	EnvSpotifyID     = "SPOTIFY_ID"
	EnvSpotifySecret = "SPOTIFY_SECRET"
	EnvLastFMKey     = "LASTFM_API_KEY"
	EnvSyncRate      = "CRATE_SYNC_RATE"
	EnvRemoteTimeout = "CRATE_REMOTE_TIMEOUT"
	EnvLogLevel      = "LOG_LEVEL"
)

// Config holds every setting.
type Config struct {
	Addr          string        `yaml:"addr"`
	DatabaseURL   string        `yaml:"database_url"`
	CacheBackend  string        `yaml:"cache_backend"`
	CachePath     string        `yaml:"cache_path"` // directory for file, database file for sqlite
	WebhookURL    string        `yaml:"webhook_url"`
	SpotifyID     string        `yaml:"spotify_id"`
	SpotifySecret string        `yaml:"spotify_secret"`
	LastFMKey     string        `yaml:"lastfm_api_key"`
	SyncRate      float64       `yaml:"sync_rate"` // remote requests per second during a full sync
	RemoteTimeout time.Duration `yaml:"remote_timeout"`
	LogLevel      string        `yaml:"log_level"`
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		Addr:          ":8080",
		CacheBackend:  CacheFile,
		SyncRate:      10,
		RemoteTimeout: 10 * time.Second,
		LogLevel:      "info",
	}
}

// Load builds the configuration. path names an optional YAML file and
// envFile an optional dotenv file; missing files are ignored when the
// name is empty, and are errors otherwise. Variables already set in the
// environment win over the dotenv file.
func Load(path, envFile string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			return nil, fmt.Errorf("loading env file: %w", err)
		}
	} else if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(); err != nil {
			return nil, fmt.Errorf("loading .env: %w", err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyEnv() error {
	setString(&c.Addr, EnvAddr)
	setString(&c.DatabaseURL, EnvDatabaseURL)
	setString(&c.CacheBackend, EnvCacheBackend)
	setString(&c.CachePath, EnvCachePath)
	setString(&c.WebhookURL, EnvWebhookURL)
	setString(&c.SpotifyID, EnvSpotifyID)
	setString(&c.SpotifySecret, EnvSpotifySecret)
	setString(&c.LastFMKey, EnvLastFMKey)
	setString(&c.LogLevel, EnvLogLevel)

	if v := os.Getenv(EnvSyncRate); v != "" {
		rate, err := strconv.ParseFloat(v, 64)
		if err != nil || rate <= 0 {
			return fmt.Errorf("%w: %s=%q", ErrInvalidValue, EnvSyncRate, v)
		}
		c.SyncRate = rate
	}
	if v := os.Getenv(EnvRemoteTimeout); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d <= 0 {
			return fmt.Errorf("%w: %s=%q", ErrInvalidValue, EnvRemoteTimeout, v)
		}
		c.RemoteTimeout = d
	}
	return nil
}

func setString(dst *string, key string) {
	if v, ok := os.LookupEnv(key); ok {
		*dst = strings.TrimSpace(v)
	}
}

// Validate checks the settings that have a fixed value set.
func (c *Config) Validate() error {
	c.CacheBackend = strings.ToLower(strings.TrimSpace(c.CacheBackend))
	switch c.CacheBackend {
	case CacheFile, CacheSQLite, CacheMemory:
	default:
		return fmt.Errorf("%w: %q", ErrInvalidCacheBackend, c.CacheBackend)
	}
	if c.SyncRate <= 0 {
		return fmt.Errorf("%w: sync_rate must be positive", ErrInvalidValue)
	}
	if c.RemoteTimeout <= 0 {
		return fmt.Errorf("%w: remote_timeout must be positive", ErrInvalidValue)
	}
	return nil
}

// RemoteConfigured reports whether a remote database is set.
func (c *Config) RemoteConfigured() bool {
	return c.DatabaseURL != ""
}

// SpotifyConfigured reports whether Spotify app credentials are set.
func (c *Config) SpotifyConfigured() bool {
	return c.SpotifyID != "" && c.SpotifySecret != ""
}

// LastFMConfigured reports whether a Last.fm API key is set.
func (c *Config) LastFMConfigured() bool {
	return c.LastFMKey != ""
}
