// Windowsync - Windowed Data Synchronization for Lazy Client Viewports
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/windowsync

package registration

import "testing"

func TestFunc_RemoveRunsOnce(t *testing.T) {
	calls := 0
	reg := Func(func() { calls++ })

	reg.Remove()
	reg.Remove()

	if calls != 1 {
		t.Errorf("Expected remove callback to run once, ran %d times", calls)
	}
}

func TestCombine(t *testing.T) {
	var order []int
	reg := Combine(
		Func(func() { order = append(order, 1) }),
		nil,
		Func(func() { order = append(order, 2) }),
	)

	reg.Remove()
	reg.Remove()

	if len(order) != 2 || order[0] != 1 || order[1] != 2 {
		t.Errorf("Expected removal order [1 2], got %v", order)
	}
}

func TestNoop(t *testing.T) {
	// Should not panic
	Noop().Remove()
}
