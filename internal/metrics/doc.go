// Windowsync - Windowed Data Synchronization for Lazy Client Viewports
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/windowsync

/*
Package metrics provides Prometheus metrics collection and export for observability.

All collectors are registered on the default registry through promauto at
package initialization and exposed by the API router at /metrics.

# Available Metrics

Synchronization Metrics:
  - sync_passes_total: Reconciliation passes (counter)
    Labels: result (committed, empty, stale, fetch_error, inconsistent, send_error)
  - sync_pass_duration_seconds: Duration of committed passes including fetch (histogram)
  - sync_fetch_errors_total: Data provider failures (counter)
  - sync_items_sent_total: Item records sent (counter)
    Labels: kind (set, update_data)
  - sync_update_ops_total: Committed primitive operations (counter)
    Labels: op (resize, clear, set)
  - sync_inconsistent_ranges_total: Batches discarded for out-of-bounds ops (counter)
  - sync_keys_released_total: Keys released after client confirmation (counter)

Store Metrics:
  - store_operation_duration_seconds: BadgerDB operation latency (histogram)
    Labels: operation
  - store_operation_errors_total: Failed operations (counter)
    Labels: operation, error_type
  - store_rows: Rows currently stored (gauge)

API Metrics:
  - api_requests_total, api_request_duration_seconds, api_active_requests,
    api_rate_limit_hits_total

WebSocket Metrics:
  - websocket_connections: Active connections (gauge)
  - websocket_messages_sent_total / websocket_messages_received_total (counter)
    Labels: type
  - websocket_errors_total (counter)
    Labels: error_type

Circuit Breaker Metrics:
  - circuit_breaker_state: 0=closed, 1=half-open, 2=open (gauge)
    Labels: name
  - circuit_breaker_requests_total (counter)
    Labels: name, result (success, failure, rejected)
  - circuit_breaker_state_transitions_total (counter)
    Labels: name, from_state, to_state

# Usage Example

	metrics.SyncPasses.WithLabelValues("committed").Inc()
	metrics.RecordStoreOperation("scan", time.Since(start), err)
	metrics.RecordAPIRequest("GET", "/api/v1/rows", "200", duration)

# Thread Safety

All collectors are safe for concurrent use.
*/
package metrics
