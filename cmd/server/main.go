// Windowsync - Windowed Data Synchronization for Lazy Client Viewports
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/windowsync

package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/tomtom215/windowsync/internal/api"
	"github.com/tomtom215/windowsync/internal/config"
	"github.com/tomtom215/windowsync/internal/dataprovider"
	"github.com/tomtom215/windowsync/internal/logging"
	"github.com/tomtom215/windowsync/internal/metrics"
	"github.com/tomtom215/windowsync/internal/store"
	"github.com/tomtom215/windowsync/internal/supervisor"
	"github.com/tomtom215/windowsync/internal/supervisor/services"
	ws "github.com/tomtom215/windowsync/internal/websocket"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	if err := run(); err != nil {
		logging.Fatal().Err(err).Msg("Windowsync failed")
	}
}

// run returns only after the store is closed.
func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}
	logging.Init(cfg.Logging.ToLoggingConfig())

	logging.Info().
		Str("version", version).
		Str("environment", cfg.Server.Environment).
		Str("codec", cfg.Sync.Codec).
		Bool("in_memory", cfg.Store.InMemory).
		Msg("Starting Windowsync with supervisor tree")
	metrics.AppInfo.WithLabelValues(version, runtime.Version()).Set(1)

	st, err := store.Open(store.Config{
		Path:          cfg.Store.Path,
		InMemory:      cfg.Store.InMemory,
		SyncWrites:    cfg.Store.SyncWrites,
		ViewCacheSize: cfg.Store.ViewCacheSize,
		ViewCacheTTL:  cfg.Store.ViewCacheTTL,
	})
	if err != nil {
		return fmt.Errorf("open row store: %w", err)
	}
	defer func() {
		if err := st.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing row store")
		}
	}()

	if err := seedIfEmpty(context.Background(), st, cfg.Store.SeedRows); err != nil {
		return fmt.Errorf("seed row store: %w", err)
	}

	rows := readProvider(st, cfg.Breaker)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(), supervisor.TreeConfig{
		FailureThreshold: cfg.Supervisor.FailureThreshold,
		FailureDecay:     cfg.Supervisor.FailureDecay,
		FailureBackoff:   cfg.Supervisor.FailureBackoff,
		ShutdownTimeout:  cfg.Supervisor.ShutdownTimeout,
	})
	if err != nil {
		return fmt.Errorf("create supervisor tree: %w", err)
	}

	wsHub := ws.NewHub()
	wsHandler, err := ws.NewHandler(wsHub, rows, websocketConfig(cfg))
	if err != nil {
		return fmt.Errorf("create websocket handler: %w", err)
	}

	handler := api.NewHandler(st, rows, wsHub, version)
	chiMiddleware := api.NewChiMiddlewareFromSecurity(
		cfg.Security.CORSOrigins,
		cfg.Security.RateLimitReqs,
		cfg.Security.RateLimitWindow,
		cfg.Security.RateLimitDisabled,
	)
	router := api.NewRouter(handler, wsHandler, chiMiddleware)

	server := &http.Server{
		Addr:              cfg.Server.Addr(),
		Handler:           router.SetupChi(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       60 * time.Second,
	}

	// === ADD SERVICES TO SUPERVISOR TREE ===

	if cfg.Store.GCInterval > 0 && !cfg.Store.InMemory {
		tree.AddDataService(services.NewStoreGCService(st, cfg.Store.GCInterval, cfg.Store.GCDiscardRatio))
		logging.Info().Dur("interval", cfg.Store.GCInterval).Msg("Store GC service added")
	}
	tree.AddMessagingService(services.NewWebSocketHubService(wsHub))
	tree.AddAPIService(services.NewHTTPServerService(server, cfg.Server.ShutdownTimeout))
	logging.Info().Str("addr", server.Addr).Msg("HTTP server service added")

	watchLogLevel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logging.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
		cancel()
	}()

	go trackUptime(ctx, time.Now())

	logging.Info().Msg("Starting supervisor tree...")
	errCh := tree.ServeBackground(ctx)

	select {
	case <-ctx.Done():
		logging.Info().Msg("Context canceled, waiting for supervisor to finish...")
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor tree error")
		}
	}

	for err := range errCh {
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor shutdown error")
		}
	}

	unstopped, _ := tree.UnstoppedServiceReport()
	for _, svc := range unstopped {
		logging.Warn().Str("service", svc.Name).Msg("Service failed to stop")
	}

	logging.Info().Msg("Application stopped gracefully")
	return nil
}

// seedIfEmpty writes n demo rows into an empty store.
func seedIfEmpty(ctx context.Context, st *store.Store, n int) error {
	if n <= 0 {
		return nil
	}
	count, err := st.Count(ctx)
	if err != nil {
		return err
	}
	if count > 0 {
		logging.Info().Int("rows", count).Msg("Row store not empty, skipping seed")
		return nil
	}
	start := time.Now()
	if err := st.Seed(ctx, n); err != nil {
		return err
	}
	logging.Info().Int("rows", n).Dur("duration", time.Since(start)).Msg("Row store seeded")
	return nil
}

// readProvider returns the provider sessions and the row listing read from.
func readProvider(st *store.Store, cfg config.BreakerConfig) dataprovider.DataProvider[store.Row] {
	if !cfg.Enabled {
		return st
	}
	settings := dataprovider.DefaultBreakerSettings("row-store")
	settings.MaxRequests = cfg.MaxRequests
	settings.Interval = cfg.Interval
	settings.Timeout = cfg.Timeout
	settings.MinRequests = cfg.MinRequests
	settings.FailureRatio = cfg.FailureRatio
	settings.RatePerSecond = cfg.FetchRate
	settings.Burst = cfg.FetchBurst

	logging.Info().
		Float64("failure_ratio", cfg.FailureRatio).
		Float64("fetch_rate", cfg.FetchRate).
		Msg("Circuit breaker enabled for row reads")
	return dataprovider.NewBreakerProvider[store.Row](st, settings)
}

func websocketConfig(cfg *config.Config) ws.Config {
	wc := ws.DefaultConfig()
	wc.Codec = cfg.Sync.Codec
	wc.PageSize = cfg.Sync.PageSize
	wc.MaxRange = cfg.Sync.MaxRange
	wc.SendBuffer = cfg.Sync.SendBuffer
	wc.InboxSize = cfg.Sync.InboxSize
	wc.WriteWait = cfg.Sync.WriteWait
	wc.PongWait = cfg.Sync.PongWait
	wc.PingPeriod = cfg.Sync.PingPeriod
	wc.MaxMessageSize = cfg.Sync.MaxMessageSize
	if len(cfg.Security.CORSOrigins) > 0 {
		wc.AllowedOrigins = cfg.Security.CORSOrigins
	}
	return wc
}

// watchLogLevel re-reads the config file on change and applies its log level.
// Other settings need a restart.
func watchLogLevel() {
	path := config.FindConfigFile()
	if path == "" {
		return
	}
	err := config.WatchConfigFile(path, func() {
		cfg, err := config.Load()
		if err != nil {
			logging.Warn().Err(err).Str("path", path).Msg("Ignoring invalid config change")
			return
		}
		logging.SetLevelString(cfg.Logging.Level)
		logging.Info().Str("level", cfg.Logging.Level).Msg("Log level reloaded")
	})
	if err != nil {
		logging.Warn().Err(err).Str("path", path).Msg("Config file watch unavailable")
	}
}

func trackUptime(ctx context.Context, started time.Time) {
	ticker := time.NewTicker(15 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			metrics.AppUptime.Set(time.Since(started).Seconds())
		}
	}
}
