// Windowsync - Windowed Data Synchronization for Lazy Client Viewports
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/windowsync

/*
Package main is the entry point for the Windowsync server.

Windowsync serves a large, changing row dataset to browser clients that only
ever hold the rows currently in their viewport. Each websocket connection owns
a data communicator that tracks the client's requested window, fetches rows
from the store in pages, and sends incremental array updates (resize, clear,
set) that the client acknowledges.

# Application Architecture

	RootSupervisor ("windowsync")
	├── DataSupervisor ("data-layer")
	│   └── Store value log GC (if BADGER_GC_INTERVAL > 0)
	├── MessagingSupervisor ("messaging-layer")
	│   └── WebSocket Hub (client registry)
	└── APISupervisor ("api-layer")
	    └── HTTP Server (/ws, /metrics, /api/v1/...)

Component initialization order:

 1. Configuration: Koanf v2 with defaults, config file and environment variables
 2. Logging: zerolog, configured from the logging section
 3. Store: BadgerDB row store, seeded with demo rows when empty and SEED_ROWS > 0
 4. Read path: the store, behind a gobreaker circuit breaker when BREAKER_ENABLED=true
 5. WebSocket hub and handler
 6. Chi router with CORS, rate limiting, request IDs and Prometheus metrics
 7. Suture supervisor tree

# Signal Handling

SIGINT and SIGTERM cancel the root context. The HTTP server stops accepting
requests, the hub closes every websocket client, and the store is closed
after the supervisor tree returns.

# Example Usage

	export BADGER_IN_MEMORY=true
	export SEED_ROWS=100000
	export SYNC_CODEC=cbor
	./windowsync
*/
package main
