// Windowsync - Windowed Data Synchronization for Lazy Client Viewports
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/windowsync

package communicator

import (
	"errors"
	"fmt"

	"github.com/tomtom215/windowsync/internal/rangetracker"
)

var (
	// ErrNilDataProvider is returned when a nil provider is installed.
	ErrNilDataProvider = errors.New("data provider must not be nil")

	// ErrShortFetch is wrapped in a FetchError when the provider returns fewer
	// rows than its reported size promised.
	ErrShortFetch = errors.New("provider returned fewer items than requested")
)

// FetchError reports a provider failure during a reconciliation pass.
type FetchError struct {
	Generation uint64
	// Range is the window being fetched. It is empty when Size failed.
	Range rangetracker.Range
	Err   error
}

func (e *FetchError) Error() string {
	if e.Range.Empty() {
		return fmt.Sprintf("fetch size (generation %d): %v", e.Generation, e.Err)
	}
	return fmt.Sprintf("fetch %s (generation %d): %v", e.Range, e.Generation, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}
