// Windowsync - Windowed Data Synchronization for Lazy Client Viewports
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/windowsync

package config

import (
	"errors"
	"fmt"
	"slices"

	"github.com/tomtom215/windowsync/internal/logging"
)

// Validate checks that configuration values are usable.
func (c *Config) Validate() error {
	if err := c.validateServer(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	if err := c.validateStore(); err != nil {
		return err
	}
	if err := c.validateSync(); err != nil {
		return err
	}
	if err := c.validateBreaker(); err != nil {
		return err
	}
	return c.validateSecurity()
}

func (c *Config) validateServer() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("HTTP_PORT must be between 1 and 65535, got %d", c.Server.Port)
	}
	if c.Server.ReadTimeout <= 0 || c.Server.WriteTimeout <= 0 {
		return errors.New("HTTP read and write timeouts must be positive")
	}
	if c.Server.Environment != "development" && c.Server.Environment != "production" {
		return fmt.Errorf("ENVIRONMENT must be 'development' or 'production', got %q", c.Server.Environment)
	}
	return nil
}

func (c *Config) validateLogging() error {
	if !logging.ValidLevel(c.Logging.Level) {
		return fmt.Errorf("LOG_LEVEL %q is not a valid level", c.Logging.Level)
	}
	if c.Logging.Format != "json" && c.Logging.Format != "console" {
		return fmt.Errorf("LOG_FORMAT must be 'json' or 'console', got %q", c.Logging.Format)
	}
	return nil
}

func (c *Config) validateStore() error {
	if !c.Store.InMemory && c.Store.Path == "" {
		return errors.New("BADGER_PATH is required unless BADGER_IN_MEMORY=true")
	}
	if c.Store.SeedRows < 0 {
		return fmt.Errorf("SEED_ROWS must not be negative, got %d", c.Store.SeedRows)
	}
	if c.Store.GCInterval < 0 {
		return fmt.Errorf("BADGER_GC_INTERVAL must not be negative, got %s", c.Store.GCInterval)
	}
	if c.Store.GCInterval > 0 && (c.Store.GCDiscardRatio <= 0 || c.Store.GCDiscardRatio >= 1) {
		return fmt.Errorf("BADGER_GC_RATIO must be between 0 and 1, got %g", c.Store.GCDiscardRatio)
	}
	if c.Store.ViewCacheSize < 0 {
		return fmt.Errorf("VIEW_CACHE_SIZE must not be negative, got %d", c.Store.ViewCacheSize)
	}
	if c.Store.ViewCacheTTL < 0 {
		return fmt.Errorf("VIEW_CACHE_TTL must not be negative, got %s", c.Store.ViewCacheTTL)
	}
	return nil
}

func (c *Config) validateSync() error {
	s := c.Sync
	if s.PageSize < 1 {
		return fmt.Errorf("SYNC_PAGE_SIZE must be positive, got %d", s.PageSize)
	}
	if s.MaxRange < 1 {
		return fmt.Errorf("SYNC_MAX_RANGE must be positive, got %d", s.MaxRange)
	}
	if s.Codec != "json" && s.Codec != "cbor" {
		return fmt.Errorf("SYNC_CODEC must be 'json' or 'cbor', got %q", s.Codec)
	}
	if s.SendBuffer < 1 || s.InboxSize < 1 {
		return errors.New("WS_SEND_BUFFER and WS_INBOX_SIZE must be positive")
	}
	if s.PingPeriod >= s.PongWait {
		return fmt.Errorf("WS_PING_PERIOD (%v) must be shorter than WS_PONG_WAIT (%v)", s.PingPeriod, s.PongWait)
	}
	if s.MaxMessageSize < 512 {
		return fmt.Errorf("WS_MAX_MESSAGE_SIZE must be at least 512 bytes, got %d", s.MaxMessageSize)
	}
	return nil
}

func (c *Config) validateBreaker() error {
	if !c.Breaker.Enabled {
		return nil
	}
	if c.Breaker.FailureRatio <= 0 || c.Breaker.FailureRatio > 1 {
		return fmt.Errorf("BREAKER_FAILURE_RATIO must be in (0, 1], got %v", c.Breaker.FailureRatio)
	}
	if c.Breaker.Timeout <= 0 {
		return errors.New("BREAKER_TIMEOUT must be positive")
	}
	if c.Breaker.FetchRate < 0 {
		return fmt.Errorf("FETCH_RATE must not be negative, got %v", c.Breaker.FetchRate)
	}
	return nil
}

func (c *Config) validateSecurity() error {
	if !c.Security.RateLimitDisabled && c.Security.RateLimitReqs < 1 {
		return fmt.Errorf("RATE_LIMIT_REQUESTS must be positive, got %d", c.Security.RateLimitReqs)
	}
	if c.IsProduction() && slices.Contains(c.Security.CORSOrigins, "*") {
		return errors.New("CORS_ORIGINS must not contain '*' in production")
	}
	return nil
}
