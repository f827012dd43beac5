// Windowsync - Windowed Data Synchronization for Lazy Client Viewports
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/windowsync

/*
Package logging provides centralized zerolog-based structured logging for Windowsync.

A single global zerolog.Logger backs every package. It works before Init is
called (JSON at info level on stderr) and Init reconfigures it from the
logging section of the server configuration.

# Quick Start

	logging.Init(logging.Config{Level: "debug", Format: "console"})

	logging.Info().Str("addr", addr).Msg("Server starting")
	logging.Err(err).Msg("Store open failed")

	// Component loggers carry a "component" field
	log := logging.WithComponent("communicator")
	log.Debug().Uint64("update_id", id).Msg("Committed update")

	// Context loggers add request_id and session_id when present
	logging.Ctx(ctx).Warn().Msg("Invalid range request")

# Session Lifecycle

SessionLogger records websocket session events (connect, disconnect,
protocol errors, slow clients) with session IDs masked and user agents
truncated.

# slog Bridge

SlogHandler lets libraries that only speak log/slog, such as the suture
supervisor event hook, write through zerolog:

	handler := &sutureslog.Handler{Logger: logging.NewSlogLogger()}

# Best Practices

Always terminate log chains with .Msg() or .Send(); an unterminated event is
never written. Prefer structured fields over Msgf.
*/
package logging
