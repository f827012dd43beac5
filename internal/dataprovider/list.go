// Windowsync - Windowed Data Synchronization for Lazy Client Viewports
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/windowsync

package dataprovider

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/tomtom215/windowsync/internal/registration"
)

// FilterFunc reports whether item matches the filter value of a query.
// A nil filter value always matches and FilterFunc is not called for it.
type FilterFunc[T any] func(item T, filter any) bool

// CompareFunc orders two items for a named sort property.
type CompareFunc[T any] func(a, b T) int

// ListOption configures a ListProvider.
type ListOption[T any] func(*ListProvider[T])

// WithFilter sets the predicate applied to non-nil query filters.
func WithFilter[T any](fn FilterFunc[T]) ListOption[T] {
	return func(p *ListProvider[T]) {
		p.filter = fn
	}
}

// WithComparator registers a comparator for a sort property.
func WithComparator[T any](property string, fn CompareFunc[T]) ListOption[T] {
	return func(p *ListProvider[T]) {
		p.comparators[property] = fn
	}
}

// ListProvider serves items from an in-memory slice.
//
// Mutations notify change listeners: structural changes (append, remove,
// replace) fire ChangeReset, in-place replacement fires ChangeRefresh.
type ListProvider[T any] struct {
	mu          sync.RWMutex
	items       []T
	filter      FilterFunc[T]
	comparators map[string]CompareFunc[T]
	listeners   Listeners[T]
}

// NewListProvider creates a provider over a copy of items.
func NewListProvider[T any](items []T, opts ...ListOption[T]) *ListProvider[T] {
	p := &ListProvider[T]{
		items:       slices.Clone(items),
		comparators: make(map[string]CompareFunc[T]),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Size returns the number of items matching the query filter.
func (p *ListProvider[T]) Size(ctx context.Context, q Query) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	p.mu.RLock()
	defer p.mu.RUnlock()

	if q.Filter == nil || p.filter == nil {
		return len(p.items), nil
	}

	count := 0
	for _, item := range p.items {
		if p.filter(item, q.Filter) {
			count++
		}
	}
	return count, nil
}

// Fetch returns the filtered, sorted window described by q.
func (p *ListProvider[T]) Fetch(ctx context.Context, q Query) ([]T, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	p.mu.RLock()
	view := p.view(q.Filter)
	p.mu.RUnlock()

	if len(q.SortOrders) > 0 {
		cmp, err := p.comparator(q.SortOrders)
		if err != nil {
			return nil, err
		}
		slices.SortStableFunc(view, cmp)
	}

	start, end := clampWindow(q, len(view))
	return slices.Clone(view[start:end]), nil
}

// view returns a fresh slice of the items matching filter. Must be called with mu held.
func (p *ListProvider[T]) view(filter any) []T {
	if filter == nil || p.filter == nil {
		return slices.Clone(p.items)
	}
	out := make([]T, 0, len(p.items))
	for _, item := range p.items {
		if p.filter(item, filter) {
			out = append(out, item)
		}
	}
	return out
}

// comparator chains the registered comparators for the given sort orders.
func (p *ListProvider[T]) comparator(orders []SortOrder) (func(a, b T) int, error) {
	chain := make([]func(a, b T) int, 0, len(orders))
	for _, order := range orders {
		base, ok := p.comparators[order.Property]
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownSortProperty, order.Property)
		}
		if order.Direction == Descending {
			chain = append(chain, func(a, b T) int { return base(b, a) })
		} else {
			chain = append(chain, base)
		}
	}

	return func(a, b T) int {
		for _, cmp := range chain {
			if c := cmp(a, b); c != 0 {
				return c
			}
		}
		return 0
	}, nil
}

// Items returns a copy of the backing items.
func (p *ListProvider[T]) Items() []T {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return slices.Clone(p.items)
}

// Append adds items to the end of the list.
func (p *ListProvider[T]) Append(items ...T) {
	p.mu.Lock()
	p.items = append(p.items, items...)
	p.mu.Unlock()

	p.listeners.Fire(ChangeEvent[T]{Kind: ChangeReset})
}

// Insert adds item at index i, shifting later items.
func (p *ListProvider[T]) Insert(i int, item T) error {
	p.mu.Lock()
	if i < 0 || i > len(p.items) {
		n := len(p.items)
		p.mu.Unlock()
		return fmt.Errorf("insert index %d out of range [0, %d]", i, n)
	}
	p.items = slices.Insert(p.items, i, item)
	p.mu.Unlock()

	p.listeners.Fire(ChangeEvent[T]{Kind: ChangeReset})
	return nil
}

// Set replaces the item at index i in place and fires a refresh event for it.
func (p *ListProvider[T]) Set(i int, item T) error {
	p.mu.Lock()
	if i < 0 || i >= len(p.items) {
		n := len(p.items)
		p.mu.Unlock()
		return fmt.Errorf("set index %d out of range [0, %d)", i, n)
	}
	p.items[i] = item
	p.mu.Unlock()

	p.listeners.Fire(ChangeEvent[T]{Kind: ChangeRefresh, Item: item})
	return nil
}

// RemoveAt deletes the item at index i.
func (p *ListProvider[T]) RemoveAt(i int) error {
	p.mu.Lock()
	if i < 0 || i >= len(p.items) {
		n := len(p.items)
		p.mu.Unlock()
		return fmt.Errorf("remove index %d out of range [0, %d)", i, n)
	}
	p.items = slices.Delete(p.items, i, i+1)
	p.mu.Unlock()

	p.listeners.Fire(ChangeEvent[T]{Kind: ChangeReset})
	return nil
}

// Replace swaps the entire backing slice.
func (p *ListProvider[T]) Replace(items []T) {
	p.mu.Lock()
	p.items = slices.Clone(items)
	p.mu.Unlock()

	p.listeners.Fire(ChangeEvent[T]{Kind: ChangeReset})
}

// AddDataChangeListener implements ChangeNotifier.
func (p *ListProvider[T]) AddDataChangeListener(fn func(ChangeEvent[T])) registration.Registration {
	return p.listeners.Add(fn)
}
