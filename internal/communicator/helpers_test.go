// Windowsync - Windowed Data Synchronization for Lazy Client Viewports
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/windowsync

package communicator

import "github.com/tomtom215/windowsync/internal/rangetracker"

func rangetrackerRange(start, end int) rangetracker.Range {
	return rangetracker.Range{Start: start, End: end}
}
