// Windowsync - Windowed Data Synchronization for Lazy Client Viewports
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/windowsync

/*
Package store is the BadgerDB-backed row dataset served to websocket sessions.

Rows are kept in insertion order under two key prefixes:

	row:<seq, 8 bytes big-endian>   -> JSON-encoded Row
	rowid:<uuid, 16 bytes>          -> seq

The natural iteration order of the row: prefix is therefore the default
display order. Store implements dataprovider.DataProvider[Row] and
dataprovider.Identifier[Row] (rows are identified by ID), so communicators
keep client keys stable across edits of the same row.

# Filtering and Sorting

A non-empty string filter matches rows whose title contains it, ignoring
case. Sort properties are "title", "value" and "seq".

Unsorted fetches stream the window from the key order. A sorted fetch loads
and sorts every matching row once, then serves later pages of the same view
from an LRU cache (internal/cache). Every mutation bumps the store generation,
which is part of the cache key, so a view built before a mutation is never
served after it.

# Change Events

Mutations fire data change events after their transaction commits:

  - Append, Delete and Seed fire ChangeReset
  - Update fires ChangeReset when the title or value changed (the row may
    move or leave a filtered view), otherwise ChangeRefresh with the new row
*/
package store
