// Windowsync - Windowed Data Synchronization for Lazy Client Viewports
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/windowsync

package api

import (
	"time"

	"github.com/tomtom215/windowsync/internal/dataprovider"
	"github.com/tomtom215/windowsync/internal/store"
	ws "github.com/tomtom215/windowsync/internal/websocket"
)

// defaultPageLimit is the page size of GET /api/v1/rows without ?limit.
const defaultPageLimit = 100

// maxBodyBytes caps request bodies.
const maxBodyBytes = 64 << 10

// Handler contains dependencies for API handlers.
//
// Handler methods are split across files:
//   - handlers_health.go: health and probe endpoints
//   - handlers_rows.go: row listing and mutation endpoints
type Handler struct {
	store *store.Store

	// rows serves reads. It is the store, optionally behind a circuit breaker.
	rows dataprovider.DataProvider[store.Row]

	wsHub     *ws.Hub
	startTime time.Time
	version   string
}

// NewHandler creates the API handler. rows may be nil, in which case reads
// go straight to st.
func NewHandler(st *store.Store, rows dataprovider.DataProvider[store.Row], wsHub *ws.Hub, version string) *Handler {
	if rows == nil {
		rows = st
	}
	return &Handler{
		store:     st,
		rows:      rows,
		wsHub:     wsHub,
		startTime: time.Now(),
		version:   version,
	}
}
