// Windowsync - Windowed Data Synchronization for Lazy Client Viewports
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/windowsync

/*
Package api provides the HTTP surface of the Windowsync server.

The router is built on Chi (github.com/go-chi/chi/v5) with middleware from
the Chi ecosystem: go-chi/cors for CORS, go-chi/httprate for rate limiting,
and chi's Recoverer and RealIP. Request IDs and Prometheus request metrics
come from internal/middleware.

# Routes

	GET    /ws                       websocket endpoint (internal/websocket)
	GET    /metrics                  Prometheus exposition
	GET    /api/v1/health            overall status
	GET    /api/v1/health/live       liveness probe
	GET    /api/v1/health/ready      readiness probe (store ping)
	GET    /api/v1/rows              one page of rows (offset, limit, filter, sort)
	POST   /api/v1/rows              append a row
	GET    /api/v1/rows/{id}         one row
	PUT    /api/v1/rows/{id}         replace the editable fields of a row
	DELETE /api/v1/rows/{id}         delete a row

Row mutations go through the store, which notifies every connected
session; the HTTP API is how the dataset changes under open viewports.

# Responses

Every JSON endpoint answers with the APIResponse envelope:

	{"success": true, "data": ..., "meta": {"request_id": "...", "timestamp": "..."}}
	{"success": false, "error": {"code": "NOT_FOUND", "message": "..."}}

Validation failures use the code INVALID_REQUEST with field details from
internal/validation.
*/
package api
