// Windowsync - Windowed Data Synchronization for Lazy Client Viewports
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/windowsync

/*
Package keymapper assigns short, recyclable keys to items that cross the
server/client boundary.

A key stands in for an item on the client for as long as the item is
visible. Keys are small decimal strings; once a key is cleared it is handed
out again before any new key is minted, lowest first, which keeps the key
space dense for long-running sessions.

Identity is decided by an IdentityFunc. With reference identity (pointer
items and the default identity), two distinct but equal-valued items receive
distinct keys. Callers that want value-based deduplication must supply an
explicit identity function.

KeyMapper is not safe for concurrent use. It is owned by a single
communicator whose operations are serialized by the hosting session.
*/
package keymapper

import (
	"container/heap"
	"fmt"
	"strconv"

	"github.com/tomtom215/windowsync/internal/dataprovider"
)

// Key identifies an item on the client.
type Key string

// UnknownKeyError is returned when a key does not map to an active item,
// typically because the client referenced a key from a stale cache.
type UnknownKeyError struct {
	Key Key
}

func (e *UnknownKeyError) Error() string {
	return fmt.Sprintf("unknown key %q", string(e.Key))
}

// KeyMapper maps items to keys and back.
type KeyMapper[T any] struct {
	identity dataprovider.IdentityFunc[T]
	items    map[Key]T
	keys     map[any]Key
	ids      map[Key]any
	retired  map[Key]struct{}
	free     freeList
	next     int
}

// New creates a KeyMapper using identity to decide whether an item was already seen.
// A nil identity uses the item value itself.
func New[T any](identity dataprovider.IdentityFunc[T]) *KeyMapper[T] {
	if identity == nil {
		identity = dataprovider.DefaultIdentity[T]
	}
	return &KeyMapper[T]{
		identity: identity,
		items:    make(map[Key]T),
		keys:     make(map[any]Key),
		ids:      make(map[Key]any),
		retired:  make(map[Key]struct{}),
	}
}

// SetIdentity swaps the identity function. Existing mappings were built with
// the old identity, so callers must Retire every live key first.
func (m *KeyMapper[T]) SetIdentity(identity dataprovider.IdentityFunc[T]) {
	if identity == nil {
		identity = dataprovider.DefaultIdentity[T]
	}
	m.identity = identity
}

// KeyFor returns the live key of item, assigning one if the item is unseen
// or its previous key was cleared. The stored item is not replaced; use
// Refresh for that.
func (m *KeyMapper[T]) KeyFor(item T) Key {
	id := m.identity(item)
	if key, ok := m.keys[id]; ok {
		return key
	}

	key := m.allocate()
	m.keys[id] = key
	m.ids[key] = id
	m.items[key] = item
	return key
}

// KeyOf returns the live key of item without assigning one.
func (m *KeyMapper[T]) KeyOf(item T) (Key, bool) {
	key, ok := m.keys[m.identity(item)]
	return key, ok
}

// Has reports whether item currently holds a live key.
func (m *KeyMapper[T]) Has(item T) bool {
	_, ok := m.KeyOf(item)
	return ok
}

// ItemFor returns the item mapped to key.
func (m *KeyMapper[T]) ItemFor(key Key) (T, error) {
	item, ok := m.items[key]
	if !ok {
		var zero T
		return zero, &UnknownKeyError{Key: key}
	}
	return item, nil
}

// Refresh replaces the stored value of an item that already holds a key,
// so later ItemFor calls return the updated fields. It reports whether the
// item was mapped.
func (m *KeyMapper[T]) Refresh(item T) bool {
	key, ok := m.keys[m.identity(item)]
	if !ok {
		return false
	}
	m.items[key] = item
	return true
}

// Clear invalidates the mapping for key. The key becomes eligible for reuse
// immediately, so callers must only clear keys the client no longer considers live.
// Clearing a retired key releases it.
func (m *KeyMapper[T]) Clear(key Key) bool {
	if _, ok := m.retired[key]; ok {
		delete(m.retired, key)
		m.release(key)
		return true
	}

	id, ok := m.ids[key]
	if !ok {
		return false
	}
	delete(m.ids, key)
	delete(m.keys, id)
	delete(m.items, key)
	m.release(key)
	return true
}

// Retire detaches key from its item without making the key reusable. The
// item gets a fresh key on its next KeyFor and ItemFor(key) fails, but the
// key is not handed out again until it is cleared.
func (m *KeyMapper[T]) Retire(key Key) bool {
	id, ok := m.ids[key]
	if !ok {
		return false
	}
	delete(m.ids, key)
	delete(m.keys, id)
	delete(m.items, key)
	m.retired[key] = struct{}{}
	return true
}

// Retired returns the number of keys detached but not yet released.
func (m *KeyMapper[T]) Retired() int {
	return len(m.retired)
}

func (m *KeyMapper[T]) release(key Key) {
	if n, err := strconv.Atoi(string(key)); err == nil {
		heap.Push(&m.free, n)
	}
}

// RemoveAll drops every mapping and resets the key sequence.
func (m *KeyMapper[T]) RemoveAll() {
	clear(m.items)
	clear(m.keys)
	clear(m.ids)
	clear(m.retired)
	m.free = m.free[:0]
	m.next = 0
}

// Len returns the number of live keys.
func (m *KeyMapper[T]) Len() int {
	return len(m.items)
}

// Keys returns the live keys in no particular order.
func (m *KeyMapper[T]) Keys() []Key {
	out := make([]Key, 0, len(m.items))
	for k := range m.items {
		out = append(out, k)
	}
	return out
}

func (m *KeyMapper[T]) allocate() Key {
	if m.free.Len() > 0 {
		return Key(strconv.Itoa(heap.Pop(&m.free).(int)))
	}
	m.next++
	return Key(strconv.Itoa(m.next))
}

// freeList is a min-heap of cleared key numbers.
type freeList []int

func (f freeList) Len() int           { return len(f) }
func (f freeList) Less(i, j int) bool { return f[i] < f[j] }
func (f freeList) Swap(i, j int)      { f[i], f[j] = f[j], f[i] }

func (f *freeList) Push(x any) { *f = append(*f, x.(int)) }

func (f *freeList) Pop() any {
	old := *f
	n := len(old)
	x := old[n-1]
	*f = old[:n-1]
	return x
}
