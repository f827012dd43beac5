// Windowsync - Windowed Data Synchronization for Lazy Client Viewports
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/windowsync

package communicator

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/tomtom215/windowsync/internal/arrayupdater"
	"github.com/tomtom215/windowsync/internal/dataprovider"
	"github.com/tomtom215/windowsync/internal/generator"
	"github.com/tomtom215/windowsync/internal/keymapper"
	"github.com/tomtom215/windowsync/internal/metrics"
	"github.com/tomtom215/windowsync/internal/rangetracker"
)

// pass is one reconciliation pass. Everything fetch needs is copied in at
// begin, so fetch can run off the communicator goroutine.
type pass[T any] struct {
	provider   dataprovider.DataProvider[T]
	query      dataprovider.Query
	tracker    rangetracker.Tracker
	generation uint64
	version    uint64
	pageSize   int
	started    time.Time

	plan  rangetracker.Plan
	items [][]T
	err   *FetchError
}

// Flush runs a reconciliation pass if anything changed since the last one and
// pushes pending item refreshes. Provider calls run on the calling goroutine.
func (c *DataCommunicator[T]) Flush(ctx context.Context) error {
	if !c.dirty {
		return c.flushRefresh(ctx, nil)
	}

	p := c.begin()
	p.fetch(ctx)
	_, err := c.complete(ctx, p)
	return err
}

// FlushAsync starts a reconciliation pass whose provider calls run on a new
// goroutine. The completion is handed to post, which must run it on the
// communicator's goroutine; done, if non-nil, then receives the pass result.
// A completion that arrives after the generation or the requested window
// changed is discarded and, if still dirty, a new pass is started.
//
// FlushAsync reports whether a pass was started. While a pass is in flight
// further calls do nothing; the in-flight pass picks up the changes when it
// is found stale.
func (c *DataCommunicator[T]) FlushAsync(ctx context.Context, post func(func()), done func(error)) bool {
	if c.inFlight {
		return false
	}
	if !c.dirty {
		err := c.flushRefresh(ctx, nil)
		if done != nil && err != nil {
			done(err)
		}
		return false
	}

	p := c.begin()
	c.inFlight = true
	go func() {
		p.fetch(ctx)
		post(func() {
			c.inFlight = false
			stale, err := c.complete(ctx, p)
			if stale && c.dirty && ctx.Err() == nil {
				c.FlushAsync(ctx, post, done)
				return
			}
			if done != nil {
				done(err)
			}
		})
	}()
	return true
}

func (c *DataCommunicator[T]) begin() *pass[T] {
	return &pass[T]{
		provider: c.provider,
		query: dataprovider.Query{
			Filter:     c.filter,
			SortOrders: slices.Clone(c.sortOrders),
		},
		tracker:    c.tracker,
		generation: c.generation,
		version:    c.tracker.Version(),
		pageSize:   c.pageSize,
		started:    time.Now(),
	}
}

// fetch asks the provider for the size, plans against the tracker snapshot
// and loads every row the plan sets.
func (p *pass[T]) fetch(ctx context.Context) {
	size, err := p.provider.Size(ctx, p.query)
	if err != nil {
		p.err = &FetchError{Generation: p.generation, Err: err}
		return
	}

	p.plan = p.tracker.Reconcile(size, p.generation)
	p.items = make([][]T, len(p.plan.Sets))
	for i, r := range p.plan.Sets {
		items, err := p.fetchRange(ctx, r)
		if err != nil {
			p.err = &FetchError{Generation: p.generation, Range: r, Err: err}
			return
		}
		p.items[i] = items
	}
}

func (p *pass[T]) fetchRange(ctx context.Context, r rangetracker.Range) ([]T, error) {
	out := make([]T, 0, r.Len())
	for offset := r.Start; offset < r.End; offset += p.pageSize {
		limit := min(p.pageSize, r.End-offset)

		q := p.query
		q.Offset, q.Limit = offset, limit
		page, err := p.provider.Fetch(ctx, q)
		if err != nil {
			return nil, err
		}
		if len(page) < limit {
			return nil, fmt.Errorf("%w: got %d of %d at offset %d", ErrShortFetch, len(page), limit, offset)
		}
		out = append(out, page[:limit]...)
	}
	return out, nil
}

// complete applies a fetched pass. It reports stale when the pass was
// discarded because the communicator moved on while it was fetching.
func (c *DataCommunicator[T]) complete(ctx context.Context, p *pass[T]) (stale bool, err error) {
	late := c.late
	c.late = nil

	if p.generation != c.generation || p.version != c.tracker.Version() {
		metrics.SyncPasses.WithLabelValues("stale").Inc()
		c.logger.Debug().
			Uint64("pass_generation", p.generation).
			Uint64("generation", c.generation).
			Msg("Discarding stale pass")
		return true, nil
	}

	if p.err != nil {
		c.fetchFailed(p.err)
		return false, p.err
	}

	plan := p.plan
	if plan.Empty() {
		c.tracker.Confirm(plan)
		c.dirty = false
		metrics.SyncPasses.WithLabelValues("empty").Inc()
		return false, c.flushRefresh(ctx, nil)
	}

	batch := c.updater.StartUpdate(c.tracker.ConfirmedSize())
	if plan.Resize {
		batch.Resize(plan.Size)
	}
	for _, r := range plan.Clears {
		batch.ClearRange(r.Start, r.Len())
	}

	rows := make(map[int]keymapper.Key, plan.Target.Len())
	for i, key := range c.rows {
		if plan.Target.Contains(i) && !inRanges(plan.Clears, i) {
			rows[i] = key
		}
	}

	var (
		fresh []keymapper.Key
		known []T
	)
	sent := make(map[keymapper.Key]struct{})
	for i, r := range plan.Sets {
		records := make([]generator.Record, len(p.items[i]))
		for j, item := range p.items[i] {
			key, ok := c.keys.KeyOf(item)
			if ok {
				known = append(known, item)
			} else {
				key = c.keys.KeyFor(item)
				fresh = append(fresh, key)
			}
			records[j] = c.generators.Generate(item, key)
			rows[r.Start+j] = key
			sent[key] = struct{}{}
		}
		batch.SetRange(r.Start, records)
	}

	updateID := c.lastUpdateID + 1
	if err := batch.Commit(ctx, updateID); err != nil {
		for _, key := range fresh {
			c.keys.Clear(key)
		}
		var ire *arrayupdater.InconsistentRangeError
		if errors.As(err, &ire) {
			metrics.SyncPasses.WithLabelValues("inconsistent").Inc()
			c.logger.Error().Err(err).
				Uint64("generation", c.generation).
				Str("target", plan.Target.String()).
				Msg("Discarding pass with inconsistent range")
		} else {
			metrics.SyncPasses.WithLabelValues("send_error").Inc()
			c.logger.Warn().Err(err).Uint64("update_id", updateID).Msg("Failed to send update")
		}
		return false, err
	}

	for _, item := range known {
		c.keys.Refresh(item)
	}
	c.lastUpdateID = updateID
	c.tracker.Confirm(plan)
	c.setRows(rows, updateID)
	c.dirty = false
	c.replay(late, sent)

	metrics.SyncPasses.WithLabelValues("committed").Inc()
	metrics.SyncPassDuration.Observe(time.Since(p.started).Seconds())
	c.logger.Debug().
		Uint64("update_id", updateID).
		Uint64("generation", c.generation).
		Int("size", plan.Size).
		Str("window", plan.Target.String()).
		Int("cost", plan.Cost()).
		Bool("full", plan.Full).
		Msg("Committed update")

	return false, c.flushRefresh(ctx, sent)
}

// replay reapplies items refreshed during the pass on top of the fetched
// values and schedules pushes for those in the window, even if just sent.
func (c *DataCommunicator[T]) replay(late []T, sent map[keymapper.Key]struct{}) {
	for _, item := range late {
		if !c.keys.Refresh(item) {
			continue
		}
		key, _ := c.keys.KeyOf(item)
		if _, ok := c.active[key]; ok {
			delete(sent, key)
			c.refresh[key] = struct{}{}
		}
	}
}

// setRows installs the new window. Keys that left it are passivated under
// updateID; keys that came back are no longer passivated.
func (c *DataCommunicator[T]) setRows(rows map[int]keymapper.Key, updateID uint64) {
	active := make(map[keymapper.Key]int, len(rows))
	for i, key := range rows {
		active[key] = i
	}
	for key := range c.active {
		if _, ok := active[key]; !ok {
			c.passivated[key] = updateID
		}
	}
	for key := range active {
		delete(c.passivated, key)
	}
	for key := range c.refresh {
		if _, ok := active[key]; !ok {
			delete(c.refresh, key)
		}
	}
	c.rows = rows
	c.active = active
}

// flushRefresh pushes regenerated records for refreshed keys still in the
// window, skipping keys whose rows were just sent.
func (c *DataCommunicator[T]) flushRefresh(ctx context.Context, skip map[keymapper.Key]struct{}) error {
	if len(c.refresh) == 0 {
		return nil
	}

	keys := make([]keymapper.Key, 0, len(c.refresh))
	for key := range c.refresh {
		if _, ok := skip[key]; ok {
			continue
		}
		if _, ok := c.active[key]; ok {
			keys = append(keys, key)
		}
	}
	clear(c.refresh)
	slices.SortFunc(keys, func(a, b keymapper.Key) int {
		return c.active[a] - c.active[b]
	})

	records := make([]generator.Record, 0, len(keys))
	for _, key := range keys {
		item, err := c.keys.ItemFor(key)
		if err != nil {
			continue
		}
		records = append(records, c.generators.Generate(item, key))
	}
	return c.updater.UpdateData(ctx, records)
}

func (c *DataCommunicator[T]) fetchFailed(err *FetchError) {
	metrics.SyncFetchErrors.Inc()
	metrics.SyncPasses.WithLabelValues("fetch_error").Inc()
	c.logger.Warn().Err(err.Err).
		Uint64("generation", err.Generation).
		Str("range", err.Range.String()).
		Msg("Fetch failed, keeping last confirmed window")

	for _, l := range slices.Clone(c.errorListeners) {
		l.fn(err)
	}
}

func inRanges(ranges []rangetracker.Range, i int) bool {
	for _, r := range ranges {
		if r.Contains(i) {
			return true
		}
	}
	return false
}
