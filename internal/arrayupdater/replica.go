// Windowsync - Windowed Data Synchronization for Lazy Client Viewports
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/windowsync

package arrayupdater

import (
	"fmt"
	"slices"

	"github.com/tomtom215/windowsync/internal/generator"
)

// Replica applies frames the way a client does. It backs reference clients
// and lets tests assert on what a client would actually hold.
type Replica struct {
	rows []generator.Record
}

// Size returns the current array size.
func (r *Replica) Size() int {
	return len(r.rows)
}

// Row returns the record at i, or nil if the row is cleared or out of range.
func (r *Replica) Row(i int) generator.Record {
	if i < 0 || i >= len(r.rows) {
		return nil
	}
	return r.rows[i]
}

// Loaded returns the indices holding a record, ascending.
func (r *Replica) Loaded() []int {
	var out []int
	for i, row := range r.rows {
		if row != nil {
			out = append(out, i)
		}
	}
	return out
}

// Apply applies every op of f in order. It fails on the first op that
// references an index past the current size.
func (r *Replica) Apply(f Frame) error {
	for _, op := range f.Ops {
		switch op.Kind {
		case OpResize:
			if op.Size < len(r.rows) {
				r.rows = r.rows[:op.Size]
			} else {
				old := len(r.rows)
				r.rows = slices.Grow(r.rows, op.Size-old)[:op.Size]
				clear(r.rows[old:])
			}
		case OpClear:
			if op.Start < 0 || op.Start+op.Length > len(r.rows) {
				return fmt.Errorf("update %d: clear [%d,%d) past size %d", f.UpdateID, op.Start, op.Start+op.Length, len(r.rows))
			}
			clear(r.rows[op.Start : op.Start+op.Length])
		case OpSet:
			if op.Start < 0 || op.Start+len(op.Items) > len(r.rows) {
				return fmt.Errorf("update %d: set [%d,%d) past size %d", f.UpdateID, op.Start, op.Start+len(op.Items), len(r.rows))
			}
			copy(r.rows[op.Start:], op.Items)
		default:
			return fmt.Errorf("update %d: unknown op %q", f.UpdateID, op.Kind)
		}
	}
	return nil
}

// ApplyData replaces rows whose key matches a pushed record.
func (r *Replica) ApplyData(records []generator.Record) {
	for _, rec := range records {
		key := rec.Key()
		for i, row := range r.rows {
			if row != nil && row.Key() == key {
				r.rows[i] = rec
			}
		}
	}
}
