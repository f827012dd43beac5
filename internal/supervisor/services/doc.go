// Windowsync - Windowed Data Synchronization for Lazy Client Viewports
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/windowsync

// Package services adapts Windowsync components to suture.Service.
//
// Each wrapper depends on a small interface rather than the concrete
// component, so the supervisor package never imports websocket, store or
// net/http servers directly and tests can substitute fakes.
package services
