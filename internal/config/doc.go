// Windowsync - Windowed Data Synchronization for Lazy Client Viewports
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/windowsync

/*
Package config loads Windowsync server configuration with Koanf v2.

Configuration is layered, later sources overriding earlier ones:

 1. Built-in defaults (defaultConfig, loaded through the structs provider)
 2. An optional YAML file: CONFIG_PATH, or the first of DefaultConfigPaths that exists
 3. Environment variables, mapped explicitly through envMappings

Unmapped environment variables are ignored so unrelated process state never
leaks into configuration.

# Sections

  - server: listen address, HTTP timeouts, environment
  - logging: level, format, caller
  - store: BadgerDB path, in-memory mode, seeding
  - sync: fetch page size, wire codec, websocket pump timings
  - breaker: circuit breaker and fetch rate limit around the row store
  - security: CORS origins and API rate limiting
  - supervisor: suture restart policy

# Example

	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("Invalid configuration")
	}
	logging.Init(cfg.Logging.ToLoggingConfig())

Environment variables use flat names, for example HTTP_PORT, LOG_LEVEL,
BADGER_PATH, SYNC_PAGE_SIZE, SYNC_CODEC and CORS_ORIGINS (comma separated).
*/
package config
