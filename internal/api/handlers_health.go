// Windowsync - Windowed Data Synchronization for Lazy Client Viewports
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/windowsync

package api

import (
	"net/http"
	"time"

	"github.com/tomtom215/windowsync/internal/dataprovider"
	"github.com/tomtom215/windowsync/internal/store"
)

// HealthStatus is the body of GET /api/v1/health.
type HealthStatus struct {
	Status           string  `json:"status"`
	Version          string  `json:"version"`
	StoreConnected   bool    `json:"store_connected"`
	BreakerState     string  `json:"breaker_state,omitempty"`
	WebSocketClients int     `json:"websocket_clients"`
	Uptime           float64 `json:"uptime"`
}

// Health reports overall status. It always answers 200; "degraded" means the
// store is unreachable or the read breaker is not closed.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	storeConnected := h.store != nil && h.store.Ping(r.Context()) == nil

	status := HealthStatus{
		Status:         "healthy",
		Version:        h.version,
		StoreConnected: storeConnected,
		Uptime:         time.Since(h.startTime).Seconds(),
	}
	if h.wsHub != nil {
		status.WebSocketClients = h.wsHub.GetClientCount()
	}
	if bp, ok := h.rows.(*dataprovider.BreakerProvider[store.Row]); ok {
		status.BreakerState = bp.State().String()
		if status.BreakerState != "closed" {
			status.Status = "degraded"
		}
	}
	if !storeConnected {
		status.Status = "degraded"
	}

	NewResponseWriter(w, r).Success(status)
}

// HealthLive is the liveness probe. It answers 200 while the process runs.
func (h *Handler) HealthLive(w http.ResponseWriter, r *http.Request) {
	NewResponseWriter(w, r).Success(map[string]any{
		"alive":  true,
		"uptime": time.Since(h.startTime).Seconds(),
	})
}

// HealthReady is the readiness probe. It answers 503 until the store is usable.
func (h *Handler) HealthReady(w http.ResponseWriter, r *http.Request) {
	if h.store == nil {
		NewResponseWriter(w, r).ServiceUnavailable("store not configured")
		return
	}
	if err := h.store.Ping(r.Context()); err != nil {
		NewResponseWriter(w, r).ServiceUnavailable("store not ready: " + err.Error())
		return
	}
	NewResponseWriter(w, r).Success(map[string]any{"ready": true})
}
