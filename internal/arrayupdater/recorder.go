// Windowsync - Windowed Data Synchronization for Lazy Client Viewports
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/windowsync

package arrayupdater

import (
	"context"
	"slices"
	"sync"

	"github.com/tomtom215/windowsync/internal/generator"
)

// Recorder is a Sink that keeps every frame and data push in memory.
// Setting Fail makes subsequent sends return that error.
type Recorder struct {
	mu     sync.Mutex
	frames []Frame
	data   [][]generator.Record
	Fail   error
}

// SendUpdate implements Sink.
func (r *Recorder) SendUpdate(_ context.Context, f Frame) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Fail != nil {
		return r.Fail
	}
	r.frames = append(r.frames, f)
	return nil
}

// SendData implements Sink.
func (r *Recorder) SendData(_ context.Context, records []generator.Record) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Fail != nil {
		return r.Fail
	}
	r.data = append(r.data, records)
	return nil
}

// Frames returns the recorded frames.
func (r *Recorder) Frames() []Frame {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.frames)
}

// Last returns the most recent frame.
func (r *Recorder) Last() (Frame, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.frames) == 0 {
		return Frame{}, false
	}
	return r.frames[len(r.frames)-1], true
}

// Data returns the recorded out-of-band pushes.
func (r *Recorder) Data() [][]generator.Record {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.data)
}

// Reset forgets everything recorded so far.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.frames = nil
	r.data = nil
}
