// Windowsync - Windowed Data Synchronization for Lazy Client Viewports
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/windowsync

/*
Package cache provides a generic, thread-safe LRU cache with TTL expiration.

The row store uses it to keep recently requested sorted views, so that the
consecutive page fetches of one reconciliation pass sort the dataset once
instead of once per page.

# Usage

	views := cache.NewLRU[string, []Row](16, time.Minute)
	if rows, ok := views.Get(key); ok {
		return rows
	}
	views.Add(key, rows)

Entries expire lazily on Get. Callers that need strict invalidation either
call Clear or fold a version number into the key so stale entries are never
looked up again and age out through eviction.
*/
package cache
