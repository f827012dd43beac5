// Windowsync - Windowed Data Synchronization for Lazy Client Viewports
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/windowsync

package dataprovider

import (
	"context"
	"errors"
	"fmt"
)

// FetchFunc loads the window described by q.
type FetchFunc[T any] func(ctx context.Context, q Query) ([]T, error)

// CountFunc counts the items matching q. Offset and Limit are zero.
type CountFunc func(ctx context.Context, q Query) (int, error)

// CallbackProvider lazily loads items through callbacks, e.g. a SQL query or a
// paginated remote API.
type CallbackProvider[T any] struct {
	fetch FetchFunc[T]
	count CountFunc
}

// FromCallbacks creates a CallbackProvider. Both callbacks are required.
func FromCallbacks[T any](fetch FetchFunc[T], count CountFunc) (*CallbackProvider[T], error) {
	if fetch == nil || count == nil {
		return nil, errors.New("fetch and count callbacks are required")
	}
	return &CallbackProvider[T]{fetch: fetch, count: count}, nil
}

// Size implements DataProvider.
func (p *CallbackProvider[T]) Size(ctx context.Context, q Query) (int, error) {
	q.Offset, q.Limit = 0, 0
	n, err := p.count(ctx, q)
	if err != nil {
		return 0, err
	}
	if n < 0 {
		return 0, fmt.Errorf("count callback returned negative size %d", n)
	}
	return n, nil
}

// Fetch implements DataProvider. Results longer than the query limit are truncated.
func (p *CallbackProvider[T]) Fetch(ctx context.Context, q Query) ([]T, error) {
	items, err := p.fetch(ctx, q)
	if err != nil {
		return nil, err
	}
	if q.Limit >= 0 && len(items) > q.Limit {
		items = items[:q.Limit]
	}
	return items, nil
}
