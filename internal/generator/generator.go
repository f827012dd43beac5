// Windowsync - Windowed Data Synchronization for Lazy Client Viewports
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/windowsync

// Package generator turns items into the records sent to the client.
package generator

import (
	"maps"
	"sync"

	"github.com/tomtom215/windowsync/internal/keymapper"
	"github.com/tomtom215/windowsync/internal/registration"
)

// KeyField is the record field holding the item key. It is always written by
// Composite and cannot be overridden by contributors.
const KeyField = "key"

// Record is the wire representation of one item.
type Record map[string]any

// Key returns the key stored in the record, if any.
func (r Record) Key() keymapper.Key {
	switch v := r[KeyField].(type) {
	case keymapper.Key:
		return v
	case string:
		return keymapper.Key(v)
	default:
		return ""
	}
}

// DataGenerator produces record fields for an item. Implementations must be
// deterministic and must not depend on fields written by other generators.
type DataGenerator[T any] interface {
	Generate(item T, key keymapper.Key) Record
}

// Func adapts a plain function to DataGenerator.
type Func[T any] func(item T, key keymapper.Key) Record

// Generate implements DataGenerator.
func (f Func[T]) Generate(item T, key keymapper.Key) Record {
	return f(item, key)
}

// Renderer is the presentation collaborator that knows how to render an item.
type Renderer[T any] interface {
	Render(item T, key keymapper.Key) Record
}

// FromRenderer delegates record generation to r.
func FromRenderer[T any](r Renderer[T]) DataGenerator[T] {
	return Func[T](r.Render)
}

// Label writes fn(item) into field.
func Label[T any](field string, fn func(T) string) DataGenerator[T] {
	return Func[T](func(item T, _ keymapper.Key) Record {
		return Record{field: fn(item)}
	})
}

type contributor[T any] struct {
	id  uint64
	gen DataGenerator[T]
}

// Composite aggregates independently registered generators. Contributions
// are merged in registration order, so a later generator wins when two write
// the same field.
type Composite[T any] struct {
	mu           sync.RWMutex
	nextID       uint64
	contributors []contributor[T]
}

// NewComposite creates a Composite with the given initial generators.
func NewComposite[T any](gens ...DataGenerator[T]) *Composite[T] {
	c := &Composite[T]{}
	for _, g := range gens {
		c.Add(g)
	}
	return c
}

// Add registers g after every existing contributor.
func (c *Composite[T]) Add(g DataGenerator[T]) registration.Registration {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.nextID++
	id := c.nextID
	c.contributors = append(c.contributors, contributor[T]{id: id, gen: g})

	return registration.Func(func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		for i, existing := range c.contributors {
			if existing.id == id {
				c.contributors = append(c.contributors[:i:i], c.contributors[i+1:]...)
				return
			}
		}
	})
}

// Len returns the number of registered contributors.
func (c *Composite[T]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.contributors)
}

// Generate implements DataGenerator. Each contributor writes into its own
// record, so a contributor that retains or mutates its result cannot affect others.
func (c *Composite[T]) Generate(item T, key keymapper.Key) Record {
	c.mu.RLock()
	gens := make([]DataGenerator[T], len(c.contributors))
	for i, ct := range c.contributors {
		gens[i] = ct.gen
	}
	c.mu.RUnlock()

	out := make(Record, len(gens)+1)
	for _, g := range gens {
		maps.Copy(out, g.Generate(item, key))
	}
	out[KeyField] = string(key)
	return out
}
