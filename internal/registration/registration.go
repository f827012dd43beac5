// Windowsync - Windowed Data Synchronization for Lazy Client Viewports
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/windowsync

// Package registration provides the handle returned by every subscribe-style call
// (data generators, data provider listeners, fetch error listeners).
//
// A Registration is removed exactly once; further calls to Remove are no-ops.
//
//	reg := provider.AddDataChangeListener(func(dataprovider.ChangeEvent[Row]) {
//		comm.Reset()
//	})
//	defer reg.Remove()
//
// Combine bundles the registrations a component holds so teardown is a
// single Remove.
package registration

import "sync"

// Registration is a handle for a registered listener or contributor.
type Registration interface {
	// Remove deregisters the listener. Calling Remove more than once is safe.
	Remove()
}

// Func adapts a plain function into a Registration that runs at most once.
func Func(fn func()) Registration {
	return &funcRegistration{fn: fn}
}

type funcRegistration struct {
	once sync.Once
	fn   func()
}

func (r *funcRegistration) Remove() {
	r.once.Do(func() {
		if r.fn != nil {
			r.fn()
		}
	})
}

// Combine returns a Registration that removes all given registrations in order.
// Nil entries are skipped.
func Combine(regs ...Registration) Registration {
	return Func(func() {
		for _, reg := range regs {
			if reg != nil {
				reg.Remove()
			}
		}
	})
}

// Noop returns a Registration whose Remove does nothing.
func Noop() Registration {
	return Func(nil)
}
