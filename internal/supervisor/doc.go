// Windowsync - Windowed Data Synchronization for Lazy Client Viewports
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/windowsync

/*
Package supervisor provides process supervision for Windowsync using suture v4.

Long-running services are organized into three layers so a crash in one
restarts only that layer:

	RootSupervisor ("windowsync")
	├── DataSupervisor ("data-layer")
	│   └── StoreGCService (if store.gc_interval > 0)
	├── MessagingSupervisor ("messaging-layer")
	│   └── WebSocketHubService
	└── APISupervisor ("api-layer")
	    └── HTTPServerService

Per-connection goroutines (websocket pumps and sessions) are not supervised;
they end with their connection, and the hub closes every client when it stops.

Supervisor events are logged through sutureslog, whose *slog.Logger is backed
by the global zerolog logger (logging.NewSlogLogger).

# Usage

	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(), supervisor.TreeConfig{
		FailureThreshold: cfg.Supervisor.FailureThreshold,
		FailureDecay:     cfg.Supervisor.FailureDecay,
		FailureBackoff:   cfg.Supervisor.FailureBackoff,
		ShutdownTimeout:  cfg.Supervisor.ShutdownTimeout,
	})
	tree.AddMessagingService(services.NewWebSocketHubService(hub))
	tree.AddAPIService(services.NewHTTPServerService(server, cfg.Server.ShutdownTimeout))
	err = tree.Serve(ctx)
*/
package supervisor
