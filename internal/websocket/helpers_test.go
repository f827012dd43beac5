// Windowsync - Windowed Data Synchronization for Lazy Client Viewports
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/windowsync

package websocket

import (
	"context"
	"testing"
	"time"

	"github.com/tomtom215/windowsync/internal/arrayupdater"
	"github.com/tomtom215/windowsync/internal/store"
	"github.com/tomtom215/windowsync/internal/wire"
)

const waitTimeout = 3 * time.Second

func seededStore(t *testing.T, rows int) *store.Store {
	t.Helper()
	s, err := store.Open(store.Config{InMemory: true})
	if err != nil {
		t.Fatalf("store.Open() = %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	if err := s.Seed(context.Background(), rows); err != nil {
		t.Fatalf("Seed() = %v", err)
	}
	return s
}

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.PageSize = 7
	cfg.MaxRange = 50
	cfg.InboxSize = 8
	return cfg
}

// recordingOutbox decodes everything a session sends.
type recordingOutbox struct {
	codec wire.Codec
	msgs  chan *wire.Outbound
	fail  error
}

func newRecordingOutbox(codec wire.Codec) *recordingOutbox {
	return &recordingOutbox{codec: codec, msgs: make(chan *wire.Outbound, 256)}
}

func (o *recordingOutbox) enqueue(data []byte) error {
	if o.fail != nil {
		return o.fail
	}
	m, err := o.codec.DecodeOutbound(data)
	if err != nil {
		return err
	}
	o.msgs <- m
	return nil
}

func (o *recordingOutbox) next(t *testing.T, want wire.OutboundType) *wire.Outbound {
	t.Helper()
	select {
	case m := <-o.msgs:
		if m.Type != want {
			t.Fatalf("got %s message %+v, want %s", m.Type, m, want)
		}
		return m
	case <-time.After(waitTimeout):
		t.Fatalf("timed out waiting for %s", want)
		return nil
	}
}

func (o *recordingOutbox) quiet(t *testing.T) {
	t.Helper()
	select {
	case m := <-o.msgs:
		t.Fatalf("unexpected %s message %+v", m.Type, m)
	case <-time.After(100 * time.Millisecond):
	}
}

// runSession starts a session over st and returns it with its outbox.
func runSession(t *testing.T, st *store.Store) (*Session, *recordingOutbox) {
	t.Helper()
	out := newRecordingOutbox(wire.JSON{})
	s, err := NewSession("test-session", st, out, wire.JSON{}, testConfig())
	if err != nil {
		t.Fatalf("NewSession() = %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(func() {
		cancel()
		<-s.done
	})
	go s.Run(ctx)
	return s, out
}

func applyUpdate(t *testing.T, r *arrayupdater.Replica, m *wire.Outbound) uint64 {
	t.Helper()
	if m.Update == nil {
		t.Fatalf("update message without frame: %+v", m)
	}
	if err := r.Apply(*m.Update); err != nil {
		t.Fatalf("Apply() = %v", err)
	}
	return m.Update.UpdateID
}
