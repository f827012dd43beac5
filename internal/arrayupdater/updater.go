// Windowsync - Windowed Data Synchronization for Lazy Client Viewports
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/windowsync

/*
Package arrayupdater batches the primitive operations of one reconciliation
pass and hands them to the transport as a single frame.

Operations queued on a Batch are not serialized or sent until Commit, so the
client never observes half a pass. Commit emits them in wire order: the
resize first, then clears, then sets, whatever order they were queued in.
Every clear and set is checked against the size the frame establishes; one
out-of-bounds operation poisons the batch and Commit sends nothing.

A batch that is never committed is simply dropped.
*/
package arrayupdater

import (
	"context"
	"errors"
	"fmt"

	"github.com/eapache/queue"

	"github.com/tomtom215/windowsync/internal/generator"
	"github.com/tomtom215/windowsync/internal/metrics"
)

// ErrBatchClosed is returned when a committed or discarded batch is used again.
var ErrBatchClosed = errors.New("update batch already closed")

// OpKind names a primitive wire operation.
type OpKind string

const (
	OpResize OpKind = "resize"
	OpClear  OpKind = "clear"
	OpSet    OpKind = "set"
)

// Op is one primitive operation on the client array. Start and Size are
// always encoded since zero is a meaningful index and size.
type Op struct {
	Kind   OpKind             `json:"op" cbor:"op"`
	Start  int                `json:"start" cbor:"start"`
	Length int                `json:"length,omitempty" cbor:"length,omitempty"`
	Size   int                `json:"size" cbor:"size"`
	Items  []generator.Record `json:"items,omitempty" cbor:"items,omitempty"`
}

// Frame is everything one commit sends to the client.
type Frame struct {
	UpdateID uint64 `json:"update_id" cbor:"update_id"`
	Ops      []Op   `json:"ops" cbor:"ops"`
}

// Sink delivers frames and out-of-band data pushes to the client.
type Sink interface {
	SendUpdate(ctx context.Context, f Frame) error
	SendData(ctx context.Context, records []generator.Record) error
}

// ArrayUpdater starts update batches and pushes single-item data changes.
type ArrayUpdater interface {
	StartUpdate(currentSize int) *Batch
	UpdateData(ctx context.Context, records []generator.Record) error
}

// InconsistentRangeError reports an operation that reaches past the size
// established for its frame. It indicates a reconciliation bug; the whole
// batch is discarded.
type InconsistentRangeError struct {
	Op     OpKind
	Start  int
	Length int
	Size   int
}

func (e *InconsistentRangeError) Error() string {
	return fmt.Sprintf("inconsistent %s range [%d,%d) for size %d", e.Op, e.Start, e.Start+e.Length, e.Size)
}

// Updater is the ArrayUpdater backed by a Sink.
type Updater struct {
	sink Sink
}

// New creates an Updater sending through sink.
func New(sink Sink) *Updater {
	return &Updater{sink: sink}
}

// StartUpdate begins a batch for a client currently holding currentSize rows.
func (u *Updater) StartUpdate(currentSize int) *Batch {
	return &Batch{
		sink:   u.sink,
		size:   currentSize,
		clears: queue.New(),
		sets:   queue.New(),
	}
}

// UpdateData pushes refreshed records for items already visible to the client.
func (u *Updater) UpdateData(ctx context.Context, records []generator.Record) error {
	if len(records) == 0 {
		return nil
	}
	if err := u.sink.SendData(ctx, records); err != nil {
		return fmt.Errorf("send data update: %w", err)
	}
	metrics.SyncItemsSent.WithLabelValues("update_data").Add(float64(len(records)))
	return nil
}

// Batch collects the operations of one reconciliation pass.
type Batch struct {
	sink      Sink
	size      int
	resize    *Op
	clears    *queue.Queue
	sets      *queue.Queue
	err       error
	closed    bool
	itemCount int
}

// Resize sets the array size for this frame. A later call replaces an earlier one.
func (b *Batch) Resize(n int) {
	if b.closed || b.err != nil {
		return
	}
	if n < 0 {
		b.err = &InconsistentRangeError{Op: OpResize, Size: n}
		return
	}
	b.resize = &Op{Kind: OpResize, Size: n}
}

// ClearRange queues the removal of length rows starting at start.
func (b *Batch) ClearRange(start, length int) {
	if b.closed || b.err != nil || length == 0 {
		return
	}
	if start < 0 || length < 0 {
		b.err = &InconsistentRangeError{Op: OpClear, Start: start, Length: length, Size: b.size}
		return
	}
	b.clears.Add(Op{Kind: OpClear, Start: start, Length: length})
}

// SetRange queues records for rows starting at start.
func (b *Batch) SetRange(start int, records []generator.Record) {
	if b.closed || b.err != nil || len(records) == 0 {
		return
	}
	if start < 0 {
		b.err = &InconsistentRangeError{Op: OpSet, Start: start, Length: len(records), Size: b.size}
		return
	}
	b.sets.Add(Op{Kind: OpSet, Start: start, Length: len(records), Items: records})
	b.itemCount += len(records)
}

// Size returns the size the frame establishes on the client.
func (b *Batch) Size() int {
	if b.resize != nil {
		return b.resize.Size
	}
	return b.size
}

// Err returns the error that poisoned the batch, if any.
func (b *Batch) Err() error {
	return b.err
}

// Discard drops the batch without sending anything.
func (b *Batch) Discard() {
	b.closed = true
}

// Commit validates the batch and sends it as one frame tagged with updateID.
// A poisoned batch returns its *InconsistentRangeError and sends nothing.
func (b *Batch) Commit(ctx context.Context, updateID uint64) error {
	if b.closed {
		return ErrBatchClosed
	}
	b.closed = true

	ops, err := b.ops()
	if err != nil {
		metrics.SyncInconsistentRanges.Inc()
		return err
	}
	if len(ops) == 0 {
		return nil
	}

	if err := b.sink.SendUpdate(ctx, Frame{UpdateID: updateID, Ops: ops}); err != nil {
		return fmt.Errorf("send update %d: %w", updateID, err)
	}

	for _, op := range ops {
		metrics.SyncUpdateOps.WithLabelValues(string(op.Kind)).Inc()
	}
	metrics.SyncItemsSent.WithLabelValues("set").Add(float64(b.itemCount))
	return nil
}

// ops drains the queues into wire order and checks every range against the frame size.
func (b *Batch) ops() ([]Op, error) {
	if b.err != nil {
		return nil, b.err
	}

	size := b.Size()
	ops := make([]Op, 0, 1+b.clears.Length()+b.sets.Length())
	if b.resize != nil {
		ops = append(ops, *b.resize)
	}

	for _, q := range []*queue.Queue{b.clears, b.sets} {
		for q.Length() > 0 {
			op := q.Remove().(Op)
			if op.Start+op.Length > size {
				return nil, &InconsistentRangeError{Op: op.Kind, Start: op.Start, Length: op.Length, Size: size}
			}
			ops = append(ops, op)
		}
	}
	return ops, nil
}
