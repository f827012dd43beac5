// Windowsync - Windowed Data Synchronization for Lazy Client Viewports
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/windowsync

package arrayupdater

import (
	"context"
	"errors"
	"strconv"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/tomtom215/windowsync/internal/generator"
)

func records(start, n int) []generator.Record {
	out := make([]generator.Record, n)
	for i := range out {
		out[i] = generator.Record{generator.KeyField: strconv.Itoa(start + i)}
	}
	return out
}

func opKinds(f Frame) []OpKind {
	kinds := make([]OpKind, len(f.Ops))
	for i, op := range f.Ops {
		kinds[i] = op.Kind
	}
	return kinds
}

func TestBatch_WireOrder(t *testing.T) {
	rec := &Recorder{}
	u := New(rec)

	b := u.StartUpdate(100)
	b.SetRange(20, records(20, 10))
	b.ClearRange(0, 10)
	b.Resize(100)

	if err := b.Commit(context.Background(), 1); err != nil {
		t.Fatalf("Commit failed: %v", err)
	}

	f, ok := rec.Last()
	if !ok {
		t.Fatal("No frame sent")
	}
	if f.UpdateID != 1 {
		t.Errorf("UpdateID = %d, want 1", f.UpdateID)
	}
	want := []OpKind{OpResize, OpClear, OpSet}
	if diff := cmp.Diff(want, opKinds(f)); diff != "" {
		t.Errorf("Op order mismatch (-want +got):\n%s", diff)
	}
}

func TestBatch_NothingSentBeforeCommit(t *testing.T) {
	rec := &Recorder{}
	b := New(rec).StartUpdate(0)
	b.Resize(10)
	b.SetRange(0, records(0, 10))

	if len(rec.Frames()) != 0 {
		t.Fatal("Batch sent operations before Commit")
	}

	b.Discard()
	if err := b.Commit(context.Background(), 1); !errors.Is(err, ErrBatchClosed) {
		t.Errorf("Expected ErrBatchClosed after Discard, got %v", err)
	}
	if len(rec.Frames()) != 0 {
		t.Error("Discarded batch must not be sent")
	}
}

func TestBatch_InconsistentRangePoisons(t *testing.T) {
	tests := []struct {
		name  string
		build func(b *Batch)
		want  InconsistentRangeError
	}{
		{
			name: "set past resize",
			build: func(b *Batch) {
				b.Resize(5)
				b.SetRange(0, records(0, 5))
				b.SetRange(3, records(3, 5))
			},
			want: InconsistentRangeError{Op: OpSet, Start: 3, Length: 5, Size: 5},
		},
		{
			name: "clear past current size",
			build: func(b *Batch) {
				b.ClearRange(8, 5)
			},
			want: InconsistentRangeError{Op: OpClear, Start: 8, Length: 5, Size: 10},
		},
		{
			name: "negative start",
			build: func(b *Batch) {
				b.SetRange(-1, records(0, 1))
			},
			want: InconsistentRangeError{Op: OpSet, Start: -1, Length: 1, Size: 10},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := &Recorder{}
			b := New(rec).StartUpdate(10)
			tt.build(b)

			err := b.Commit(context.Background(), 7)
			var ire *InconsistentRangeError
			if !errors.As(err, &ire) {
				t.Fatalf("Expected InconsistentRangeError, got %v", err)
			}
			if diff := cmp.Diff(tt.want, *ire); diff != "" {
				t.Errorf("Error mismatch (-want +got):\n%s", diff)
			}
			if len(rec.Frames()) != 0 {
				t.Error("Poisoned batch must not send anything")
			}
		})
	}
}

func TestBatch_ShrinkThenSet(t *testing.T) {
	rec := &Recorder{}
	b := New(rec).StartUpdate(100)
	b.Resize(5)
	b.SetRange(0, records(0, 5))

	if err := b.Commit(context.Background(), 2); err != nil {
		t.Fatalf("Commit failed: %v", err)
	}

	var replica Replica
	if err := replica.Apply(Frame{Ops: []Op{{Kind: OpResize, Size: 100}}}); err != nil {
		t.Fatal(err)
	}
	f, _ := rec.Last()
	if err := replica.Apply(f); err != nil {
		t.Fatalf("Replica rejected frame: %v", err)
	}
	if replica.Size() != 5 || len(replica.Loaded()) != 5 {
		t.Errorf("Replica size %d loaded %v, want 5 rows", replica.Size(), replica.Loaded())
	}
}

func TestBatch_EmptyCommitSendsNothing(t *testing.T) {
	rec := &Recorder{}
	b := New(rec).StartUpdate(3)
	b.ClearRange(1, 0)
	b.SetRange(0, nil)

	if err := b.Commit(context.Background(), 1); err != nil {
		t.Fatalf("Commit failed: %v", err)
	}
	if len(rec.Frames()) != 0 {
		t.Error("Empty batch should not produce a frame")
	}
}

func TestBatch_SinkFailure(t *testing.T) {
	boom := errors.New("connection closed")
	rec := &Recorder{Fail: boom}
	b := New(rec).StartUpdate(0)
	b.Resize(1)

	if err := b.Commit(context.Background(), 1); !errors.Is(err, boom) {
		t.Errorf("Expected sink error, got %v", err)
	}
}

func TestUpdater_UpdateData(t *testing.T) {
	rec := &Recorder{}
	u := New(rec)

	if err := u.UpdateData(context.Background(), nil); err != nil {
		t.Fatalf("UpdateData(nil) failed: %v", err)
	}
	if len(rec.Data()) != 0 {
		t.Error("Empty data push should not be sent")
	}

	if err := u.UpdateData(context.Background(), records(4, 1)); err != nil {
		t.Fatalf("UpdateData failed: %v", err)
	}
	if got := rec.Data(); len(got) != 1 || got[0][0].Key() != "4" {
		t.Errorf("Data = %v, want one push for key 4", got)
	}
}

func TestReplica_Apply(t *testing.T) {
	var r Replica

	err := r.Apply(Frame{UpdateID: 1, Ops: []Op{
		{Kind: OpResize, Size: 4},
		{Kind: OpSet, Start: 1, Items: records(1, 2)},
	}})
	if err != nil {
		t.Fatalf("Apply failed: %v", err)
	}
	if diff := cmp.Diff([]int{1, 2}, r.Loaded()); diff != "" {
		t.Errorf("Loaded mismatch (-want +got):\n%s", diff)
	}

	if err := r.Apply(Frame{UpdateID: 2, Ops: []Op{{Kind: OpClear, Start: 1, Length: 1}}}); err != nil {
		t.Fatalf("Apply clear failed: %v", err)
	}
	if r.Row(1) != nil || r.Row(2).Key() != "2" {
		t.Errorf("Unexpected rows after clear: %v %v", r.Row(1), r.Row(2))
	}

	r.ApplyData([]generator.Record{{generator.KeyField: "2", "title": "changed"}})
	if r.Row(2)["title"] != "changed" {
		t.Error("ApplyData did not replace the row")
	}

	if err := r.Apply(Frame{Ops: []Op{{Kind: OpResize, Size: 1}, {Kind: OpResize, Size: 4}}}); err != nil {
		t.Fatal(err)
	}
	if len(r.Loaded()) != 0 {
		t.Errorf("Rows reappeared after shrink and grow: %v", r.Loaded())
	}

	if err := r.Apply(Frame{Ops: []Op{{Kind: OpSet, Start: 3, Items: records(3, 2)}}}); err == nil {
		t.Error("Expected error for set past size")
	}
}
