// Windowsync - Windowed Data Synchronization for Lazy Client Viewports
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/windowsync

package websocket

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync/atomic"

	"github.com/rs/zerolog"

	"github.com/tomtom215/windowsync/internal/arrayupdater"
	"github.com/tomtom215/windowsync/internal/communicator"
	"github.com/tomtom215/windowsync/internal/dataprovider"
	"github.com/tomtom215/windowsync/internal/generator"
	"github.com/tomtom215/windowsync/internal/logging"
	"github.com/tomtom215/windowsync/internal/metrics"
	"github.com/tomtom215/windowsync/internal/registration"
	"github.com/tomtom215/windowsync/internal/store"
	"github.com/tomtom215/windowsync/internal/wire"
)

// outbox receives encoded messages for one connection.
type outbox interface {
	enqueue(data []byte) error
}

// Session serializes every operation on one client's DataCommunicator.
type Session struct {
	id       string
	codec    wire.Codec
	maxRange int
	out      outbox
	comm     *communicator.DataCommunicator[store.Row]
	release  registration.Registration
	logger   zerolog.Logger

	inbox    chan func()
	overflow atomic.Bool
	done     chan struct{}
	ctx      context.Context
}

// NewSession creates a session reading rows from provider and writing
// encoded messages to out. It does nothing until Run.
func NewSession(id string, provider dataprovider.DataProvider[store.Row], out outbox, codec wire.Codec, cfg Config) (*Session, error) {
	s := &Session{
		id:       id,
		codec:    codec,
		maxRange: cfg.MaxRange,
		out:      out,
		logger:   logging.WithComponent("session").With().Str("session_id", id).Logger(),
		inbox:    make(chan func(), cfg.InboxSize),
		done:     make(chan struct{}),
		ctx:      context.Background(),
	}

	comm, err := communicator.New[store.Row](provider, arrayupdater.New(s),
		communicator.WithPageSize[store.Row](cfg.PageSize),
		communicator.WithDispatch[store.Row](s.dispatch),
		communicator.WithGenerators[store.Row](store.Generator()),
		communicator.WithLogger[store.Row](s.logger),
	)
	if err != nil {
		return nil, fmt.Errorf("create communicator: %w", err)
	}
	s.comm = comm
	s.release = registration.Combine(
		comm.AddFetchErrorListener(s.onFetchError),
		registration.Func(comm.Close),
	)
	return s, nil
}

// ID returns the session ID.
func (s *Session) ID() string {
	return s.id
}

// Run processes the inbox until ctx is canceled. The first pass sends the
// dataset size so the client can size its scroll area.
func (s *Session) Run(ctx context.Context) {
	s.ctx = ctx
	defer close(s.done)
	defer s.release.Remove()

	s.kick()
	for {
		select {
		case <-ctx.Done():
			return
		case fn := <-s.inbox:
			fn()
			if s.overflow.CompareAndSwap(true, false) {
				s.comm.Reset()
				s.kick()
			}
		}
	}
}

// Submit queues a client message, blocking while the inbox is full. It
// reports false once the session has stopped.
func (s *Session) Submit(msg *wire.Inbound) bool {
	select {
	case s.inbox <- func() { s.handle(msg); s.kick() }:
		return true
	case <-s.done:
		return false
	}
}

// dispatch delivers provider change events. It is called from whatever
// goroutine mutated the store and must not block it.
func (s *Session) dispatch(fn func()) {
	select {
	case s.inbox <- func() { fn(); s.kick() }:
	default:
		s.overflow.Store(true)
	}
}

// post delivers fetch completions, which must not be dropped.
func (s *Session) post(fn func()) {
	select {
	case s.inbox <- fn:
	case <-s.done:
	}
}

func (s *Session) kick() {
	if s.comm.InFlight() {
		return
	}
	s.comm.FlushAsync(s.ctx, s.post, s.flushed)
}

func (s *Session) flushed(err error) {
	var fe *communicator.FetchError
	switch {
	case err == nil:
		// Refreshes queued while the pass was in flight go out now.
		s.kick()
	case errors.As(err, &fe), errors.Is(err, context.Canceled):
		// Fetch errors are reported by onFetchError and retried on the next trigger.
	default:
		s.logger.Error().Err(err).Msg("Reconciliation pass failed")
	}
}

func (s *Session) onFetchError(fe *communicator.FetchError) {
	if errors.Is(fe, context.Canceled) {
		return
	}
	s.logger.Warn().Err(fe).Uint64("generation", fe.Generation).Msg("Fetch failed")
	_ = s.send(wire.Errorf(wire.CodeFetchFailed, "rows could not be loaded"))
}

func (s *Session) handle(msg *wire.Inbound) {
	switch msg.Type {
	case wire.TypeSetRange:
		if msg.Length > s.maxRange {
			s.reject(wire.CodeInvalidRequest, fmt.Sprintf("length must be at most %d", s.maxRange))
			return
		}
		if err := s.comm.SetRequestedRange(msg.Offset, msg.Length); err != nil {
			s.reject(wire.CodeInvalidRequest, err.Error())
		}

	case wire.TypeConfirmUpdate:
		if err := s.comm.ConfirmUpdate(msg.UpdateID); err != nil {
			s.reject(wire.CodeUnknownUpdate, err.Error())
		}

	case wire.TypeReset:
		s.comm.Reset()

	case wire.TypeFilter:
		if msg.Filter == "" {
			s.comm.SetFilter(nil)
		} else {
			s.comm.SetFilter(msg.Filter)
		}

	case wire.TypeSort:
		for _, o := range msg.Sort {
			if !slices.Contains(store.SortProperties(), o.Property) {
				s.reject(wire.CodeInvalidRequest, fmt.Sprintf("cannot sort by %q", o.Property))
				return
			}
		}
		s.comm.SetSortOrders(msg.Sort)

	case wire.TypePing:
		_ = s.send(wire.Pong(msg.Seq))
	}
}

func (s *Session) reject(code, message string) {
	metrics.WSErrors.WithLabelValues("rejected").Inc()
	_ = s.send(wire.Errorf(code, message))
}

// SendUpdate implements arrayupdater.Sink.
func (s *Session) SendUpdate(_ context.Context, f arrayupdater.Frame) error {
	return s.send(wire.Update(f))
}

// SendData implements arrayupdater.Sink.
func (s *Session) SendData(_ context.Context, records []generator.Record) error {
	return s.send(wire.UpdateData(records))
}

// send encodes and queues m. Safe to call from any goroutine.
func (s *Session) send(m *wire.Outbound) error {
	data, err := s.codec.EncodeOutbound(m)
	if err != nil {
		return fmt.Errorf("encode %s: %w", m.Type, err)
	}
	if err := s.out.enqueue(data); err != nil {
		return err
	}
	metrics.RecordWSMessage(true, string(m.Type))
	return nil
}
