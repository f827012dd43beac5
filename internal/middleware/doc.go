// Windowsync - Windowed Data Synchronization for Lazy Client Viewports
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/windowsync

// Package middleware provides HTTP middleware for the Windowsync API router.
//
// Both middlewares use the chi signature func(http.Handler) http.Handler:
//
//	r := chi.NewRouter()
//	r.Use(middleware.RequestID)
//	r.Use(middleware.PrometheusMetrics)
//
// RequestID honours an upstream X-Request-ID header, otherwise it generates a
// UUID, and stores the ID for logging.Ctx. PrometheusMetrics labels requests
// by chi route pattern so path parameters do not create new series. Its
// response wrapper supports http.Hijacker, so it can sit in front of the
// websocket upgrade endpoint.
package middleware
