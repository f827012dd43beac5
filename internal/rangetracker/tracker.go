// Windowsync - Windowed Data Synchronization for Lazy Client Viewports
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/windowsync

/*
Package rangetracker records the window a client has requested and the window
it was last sent, and computes the minimal delta between the two.

Reconcile is pure: it returns a Plan describing the resize, clears and sets
needed to bring the client from the confirmed window to the requested one.
The tracker only advances when Confirm is called with that plan, which the
communicator does after the update batch is committed. A plan that is never
confirmed (fetch failure, discarded batch) leaves the tracker untouched, so
the next reconciliation derives the same delta again.

Incremental moves cost O(distance): moving [a, a+L) to [a+d, a+d+L) with
0 < d < L clears d rows and sets d rows. A generation change, an explicit
Invalidate or a jump to a non-overlapping window falls back to clearing the
previous window and setting the whole new one.
*/
package rangetracker

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalidRange is returned for requested ranges with a negative offset or
// length, or whose end does not fit in an int.
var ErrInvalidRange = errors.New("invalid range")

// State of the tracker.
type State int

const (
	Uninitialized State = iota
	Tracking
)

func (s State) String() string {
	switch s {
	case Uninitialized:
		return "uninitialized"
	case Tracking:
		return "tracking"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Plan is the delta computed by one reconciliation.
//
// Wire order is Resize, then Clears, then Sets. Clears and Sets never reach
// past Size. Dropped lists previously confirmed rows at or beyond Size; the
// client discards those through the shrinking resize, but their keys still
// become inactive.
type Plan struct {
	Generation uint64
	PrevSize   int
	Size       int
	Resize     bool
	Full       bool
	Target     Range
	Clears     []Range
	Sets       []Range
	Dropped    []Range
}

// Empty reports whether the plan would send nothing to the client.
func (p Plan) Empty() bool {
	return !p.Resize && len(p.Clears) == 0 && len(p.Sets) == 0
}

// Cost returns the number of cleared plus set rows.
func (p Plan) Cost() int {
	n := 0
	for _, r := range p.Clears {
		n += r.Len()
	}
	for _, r := range p.Sets {
		n += r.Len()
	}
	return n
}

// Removed returns every previously confirmed range that the plan takes away
// from the client, cleared or dropped.
func (p Plan) Removed() []Range {
	out := make([]Range, 0, len(p.Clears)+len(p.Dropped))
	out = append(out, p.Clears...)
	return append(out, p.Dropped...)
}

// Tracker is a value type; copying it snapshots its state.
type Tracker struct {
	state         State
	requested     Range
	confirmed     Range
	stale         Range
	confirmedSize int
	sized         bool
	invalidated   bool
	generation    uint64
	version       uint64
}

// State returns the current state.
func (t *Tracker) State() State { return t.state }

// Requested returns the last requested range.
func (t *Tracker) Requested() Range { return t.requested }

// Confirmed returns the range the client holds after the last confirmed plan.
func (t *Tracker) Confirmed() Range { return t.confirmed }

// ConfirmedSize returns the size established by the last confirmed plan.
func (t *Tracker) ConfirmedSize() int { return t.confirmedSize }

// Generation returns the generation of the last confirmed plan.
func (t *Tracker) Generation() uint64 { return t.generation }

// Version changes whenever tracker state changes. A plan computed at one
// version is stale once the version moves on.
func (t *Tracker) Version() uint64 { return t.version }

// RequestRange records the client's requested window.
func (t *Tracker) RequestRange(offset, length int) error {
	if offset < 0 || length < 0 || offset > math.MaxInt-length {
		return fmt.Errorf("%w: offset %d length %d", ErrInvalidRange, offset, length)
	}
	t.requested = NewRange(offset, length)
	t.state = Tracking
	t.version++
	return nil
}

// Invalidate forces the next reconciliation to refetch the whole requested
// window. The requested range is kept.
func (t *Tracker) Invalidate() {
	if !t.confirmed.Empty() {
		t.stale = t.confirmed
	}
	t.confirmed = Range{}
	t.invalidated = true
	t.version++
}

// Reset returns the tracker to Uninitialized. The client is assumed to have
// dropped its rows, so the next plan starts from nothing.
func (t *Tracker) Reset() {
	v := t.version
	*t = Tracker{version: v + 1}
}

// Target returns the window the client should hold for a dataset of size n.
// A requested window lying entirely past the end is shifted back so it ends at n.
func (t *Tracker) Target(n int) Range {
	target := t.requested.Clip(n)
	if target.Empty() && n > 0 && t.requested.Len() > 0 {
		length := min(t.requested.Len(), n)
		target = Range{Start: n - length, End: n}
	}
	return target
}

// Reconcile computes the plan that brings the client to the requested window
// for a dataset of newSize rows under generation. It does not modify the tracker.
func (t *Tracker) Reconcile(newSize int, generation uint64) Plan {
	if newSize < 0 {
		newSize = 0
	}

	plan := Plan{
		Generation: generation,
		PrevSize:   t.confirmedSize,
		Size:       newSize,
		Resize:     !t.sized || newSize != t.confirmedSize,
		Target:     t.Target(newSize),
	}

	prev := t.confirmed
	if prev.Empty() {
		prev = t.stale
	}

	if newSize < t.confirmedSize {
		if dropped := prev.Intersect(Range{Start: newSize, End: t.confirmedSize}); !dropped.Empty() {
			plan.Dropped = []Range{dropped}
		}
	}
	prevVisible := prev.Clip(newSize)

	plan.Full = t.invalidated || generation != t.generation || !prevVisible.Overlaps(plan.Target)
	if plan.Full {
		if !prevVisible.Empty() {
			plan.Clears = []Range{prevVisible}
		}
		if !plan.Target.Empty() {
			plan.Sets = []Range{plan.Target}
		}
		return plan
	}

	plan.Clears = prevVisible.Subtract(plan.Target)
	plan.Sets = plan.Target.Subtract(prevVisible)
	return plan
}

// Confirm advances the tracker to the state described by a committed plan.
func (t *Tracker) Confirm(p Plan) {
	t.confirmedSize = p.Size
	t.sized = true
	t.confirmed = p.Target
	t.generation = p.Generation
	t.stale = Range{}
	t.invalidated = false
	if t.state == Uninitialized && !p.Target.Empty() {
		t.state = Tracking
	}
	t.version++
}
