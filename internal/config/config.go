// Windowsync - Windowed Data Synchronization for Lazy Client Viewports
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/windowsync

package config

import (
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/tomtom215/windowsync/internal/logging"
)

// Config holds all server configuration.
type Config struct {
	Server     ServerConfig     `koanf:"server"`
	Logging    LoggingConfig    `koanf:"logging"`
	Store      StoreConfig      `koanf:"store"`
	Sync       SyncConfig       `koanf:"sync"`
	Breaker    BreakerConfig    `koanf:"breaker"`
	Security   SecurityConfig   `koanf:"security"`
	Supervisor SupervisorConfig `koanf:"supervisor"`
}

// ServerConfig holds HTTP listener settings.
type ServerConfig struct {
	Host            string        `koanf:"host"`
	Port            int           `koanf:"port"`
	ReadTimeout     time.Duration `koanf:"read_timeout"`
	WriteTimeout    time.Duration `koanf:"write_timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`

	// Environment is "development" or "production". Production rejects
	// wildcard CORS origins.
	Environment string `koanf:"environment"`
}

// Addr returns host:port for http.Server.
func (s ServerConfig) Addr() string {
	return net.JoinHostPort(s.Host, strconv.Itoa(s.Port))
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

// ToLoggingConfig converts to logging.Config.
func (l LoggingConfig) ToLoggingConfig() logging.Config {
	cfg := logging.DefaultConfig()
	cfg.Level = l.Level
	cfg.Format = l.Format
	cfg.Caller = l.Caller
	return cfg
}

// StoreConfig holds BadgerDB settings for the row store.
type StoreConfig struct {
	Path string `koanf:"path"`

	// InMemory runs Badger without a data directory. Path is ignored.
	InMemory bool `koanf:"in_memory"`

	// SyncWrites fsyncs every write transaction.
	SyncWrites bool `koanf:"sync_writes"`

	// SeedRows is the number of demo rows written when the store is empty.
	// Zero disables seeding.
	SeedRows int `koanf:"seed_rows"`

	// GCInterval is how often the value log is garbage collected. Zero disables GC.
	GCInterval time.Duration `koanf:"gc_interval"`

	// GCDiscardRatio is the fraction of stale data a value log file needs before it is rewritten.
	GCDiscardRatio float64 `koanf:"gc_discard_ratio"`

	// ViewCacheSize is the number of sorted row views cached between fetches.
	ViewCacheSize int `koanf:"view_cache_size"`

	ViewCacheTTL time.Duration `koanf:"view_cache_ttl"`
}

// SyncConfig holds synchronizer and websocket session settings.
type SyncConfig struct {
	// PageSize bounds a single Fetch call during a reconciliation pass.
	PageSize int `koanf:"page_size"`

	// MaxRange is the largest viewport a client may request.
	MaxRange int `koanf:"max_range"`

	// Codec selects the websocket encoding: "json" (text frames) or "cbor" (binary frames).
	Codec string `koanf:"codec"`

	// SendBuffer is the per-client outbound message queue length.
	SendBuffer int `koanf:"send_buffer"`

	// InboxSize is the per-session operation queue length.
	InboxSize int `koanf:"inbox_size"`

	WriteWait      time.Duration `koanf:"write_wait"`
	PongWait       time.Duration `koanf:"pong_wait"`
	PingPeriod     time.Duration `koanf:"ping_period"`
	MaxMessageSize int64         `koanf:"max_message_size"`
}

// BreakerConfig configures the circuit breaker in front of the row store.
type BreakerConfig struct {
	Enabled      bool          `koanf:"enabled"`
	MaxRequests  uint32        `koanf:"max_requests"`
	Interval     time.Duration `koanf:"interval"`
	Timeout      time.Duration `koanf:"timeout"`
	MinRequests  uint32        `koanf:"min_requests"`
	FailureRatio float64       `koanf:"failure_ratio"`

	// FetchRate limits provider calls per second. Zero disables limiting.
	FetchRate  float64 `koanf:"fetch_rate"`
	FetchBurst int     `koanf:"fetch_burst"`
}

// SecurityConfig holds HTTP surface protections.
type SecurityConfig struct {
	CORSOrigins       []string      `koanf:"cors_origins"`
	RateLimitReqs     int           `koanf:"rate_limit_reqs"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window"`
	RateLimitDisabled bool          `koanf:"rate_limit_disabled"`
}

// SupervisorConfig mirrors suture.Spec restart settings.
type SupervisorConfig struct {
	FailureThreshold float64       `koanf:"failure_threshold"`
	FailureDecay     float64       `koanf:"failure_decay"`
	FailureBackoff   time.Duration `koanf:"failure_backoff"`
	ShutdownTimeout  time.Duration `koanf:"shutdown_timeout"`
}

// IsProduction reports whether the server runs in production mode.
func (c *Config) IsProduction() bool {
	return c.Server.Environment == "production"
}

// Load loads configuration from defaults, an optional YAML file and the environment.
func Load() (*Config, error) {
	cfg, err := LoadWithKoanf()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}
