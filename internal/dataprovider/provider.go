// Windowsync - Windowed Data Synchronization for Lazy Client Viewports
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/windowsync

package dataprovider

import (
	"context"
	"errors"
	"reflect"
	"sync"

	"github.com/tomtom215/windowsync/internal/registration"
)

var (
	// ErrIncomparableItems indicates the item type cannot be used as its own
	// identity and no identity function was supplied.
	ErrIncomparableItems = errors.New("item type is not comparable and no identity function was provided")

	// ErrUnknownSortProperty indicates a sort order names a property the provider cannot sort by.
	ErrUnknownSortProperty = errors.New("unknown sort property")
)

// SortDirection is the direction of a single sort order.
type SortDirection string

const (
	Ascending  SortDirection = "asc"
	Descending SortDirection = "desc"
)

// SortOrder sorts by one named property.
type SortOrder struct {
	Property  string        `json:"property" cbor:"property" validate:"required,max=64"`
	Direction SortDirection `json:"direction" cbor:"direction" validate:"omitempty,oneof=asc desc"`
}

// Query is the filter context for one Size or Fetch call.
type Query struct {
	Offset     int
	Limit      int
	Filter     any
	SortOrders []SortOrder
}

// End returns the exclusive end index of the query window.
func (q Query) End() int {
	return q.Offset + q.Limit
}

// DataProvider is the item source driven by the communicator.
//
// Fetch returns at most Limit items starting at Offset. A window that extends
// past the end of the dataset is truncated, not rejected. Callers must not
// assume ordering is stable across queries with different filters or sort orders.
type DataProvider[T any] interface {
	Size(ctx context.Context, q Query) (int, error)
	Fetch(ctx context.Context, q Query) ([]T, error)
}

// Identifier is implemented by providers that know the natural identity of their items.
type Identifier[T any] interface {
	ItemID(item T) any
}

// IdentityFunc extracts a comparable identity from an item.
type IdentityFunc[T any] func(item T) any

// DefaultIdentity uses the item value itself as its identity.
func DefaultIdentity[T any](item T) any {
	return item
}

// Wrapper is implemented by decorating providers so identity and change
// notification can be discovered on the wrapped provider.
type Wrapper[T any] interface {
	Unwrap() DataProvider[T]
}

// ResolveIdentity picks the identity function for a provider. An explicit fn
// wins, then an Identifier found on the provider or anything it wraps, then
// the item value itself when the item type is strictly comparable. Interface
// types, and structs or arrays containing them, are rejected with
// ErrIncomparableItems even though Go accepts them as map keys: a dynamic
// value such as a slice would panic on lookup.
func ResolveIdentity[T any](p DataProvider[T], fn IdentityFunc[T]) (IdentityFunc[T], error) {
	if fn != nil {
		return fn, nil
	}

	for current := p; current != nil; {
		if id, ok := current.(Identifier[T]); ok {
			return id.ItemID, nil
		}
		w, ok := current.(Wrapper[T])
		if !ok {
			break
		}
		current = w.Unwrap()
	}

	if !strictlyComparable(reflect.TypeFor[T]()) {
		return nil, ErrIncomparableItems
	}
	return DefaultIdentity[T], nil
}

// strictlyComparable reports whether every value of t can be compared
// without a runtime panic.
func strictlyComparable(t reflect.Type) bool {
	switch t.Kind() {
	case reflect.Interface:
		return false
	case reflect.Array:
		return strictlyComparable(t.Elem())
	case reflect.Struct:
		for i := range t.NumField() {
			if !strictlyComparable(t.Field(i).Type) {
				return false
			}
		}
		return true
	default:
		return t.Comparable()
	}
}

// ChangeKind identifies what changed in a provider's dataset.
type ChangeKind int

const (
	// ChangeReset means any item may have been added, removed or reordered.
	ChangeReset ChangeKind = iota
	// ChangeRefresh means a single item's fields changed in place.
	ChangeRefresh
)

// ChangeEvent is delivered to data change listeners.
type ChangeEvent[T any] struct {
	Kind ChangeKind
	Item T
}

// ChangeNotifier is implemented by providers whose dataset can change underneath the communicator.
type ChangeNotifier[T any] interface {
	AddDataChangeListener(fn func(ChangeEvent[T])) registration.Registration
}

// FindChangeNotifier returns the first ChangeNotifier found on p or anything it wraps.
func FindChangeNotifier[T any](p DataProvider[T]) (ChangeNotifier[T], bool) {
	for current := p; current != nil; {
		if n, ok := current.(ChangeNotifier[T]); ok {
			return n, true
		}
		w, ok := current.(Wrapper[T])
		if !ok {
			break
		}
		current = w.Unwrap()
	}
	return nil, false
}

// Listeners is a registry of change listeners shared by provider implementations.
// The zero value is ready to use.
type Listeners[T any] struct {
	mu     sync.RWMutex
	nextID uint64
	fns    map[uint64]func(ChangeEvent[T])
	order  []uint64
}

// Add registers fn and returns its registration.
func (l *Listeners[T]) Add(fn func(ChangeEvent[T])) registration.Registration {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.fns == nil {
		l.fns = make(map[uint64]func(ChangeEvent[T]))
	}
	l.nextID++
	id := l.nextID
	l.fns[id] = fn
	l.order = append(l.order, id)

	return registration.Func(func() {
		l.mu.Lock()
		defer l.mu.Unlock()
		delete(l.fns, id)
		for i, existing := range l.order {
			if existing == id {
				l.order = append(l.order[:i], l.order[i+1:]...)
				break
			}
		}
	})
}

// Fire delivers ev to every listener in registration order.
// Listeners are invoked without holding the registry lock.
func (l *Listeners[T]) Fire(ev ChangeEvent[T]) {
	l.mu.RLock()
	fns := make([]func(ChangeEvent[T]), 0, len(l.order))
	for _, id := range l.order {
		fns = append(fns, l.fns[id])
	}
	l.mu.RUnlock()

	for _, fn := range fns {
		fn(ev)
	}
}

// Len returns the number of registered listeners.
func (l *Listeners[T]) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.order)
}

// clampWindow returns the [start, end) bounds of q within a dataset of size n.
func clampWindow(q Query, n int) (start, end int) {
	start = q.Offset
	if start < 0 {
		start = 0
	}
	if start > n {
		start = n
	}
	end = q.End()
	if q.Limit < 0 || end > n {
		end = n
	}
	if end < start {
		end = start
	}
	return start, end
}
