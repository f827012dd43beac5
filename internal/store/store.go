// Windowsync - Windowed Data Synchronization for Lazy Client Viewports
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/windowsync

package store

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync/atomic"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/tomtom215/windowsync/internal/cache"
	"github.com/tomtom215/windowsync/internal/dataprovider"
	"github.com/tomtom215/windowsync/internal/logging"
	"github.com/tomtom215/windowsync/internal/metrics"
	"github.com/tomtom215/windowsync/internal/registration"
)

// Key prefixes for BadgerDB storage
const (
	rowKeyPrefix   = "row:"
	rowIDKeyPrefix = "rowid:"
	seqKey         = "meta:seq"
)

// seqBandwidth is the number of sequence numbers leased per badger.Sequence refill.
const seqBandwidth = 128

var (
	// ErrNotFound is returned for unknown row IDs.
	ErrNotFound = errors.New("row not found")

	// ErrClosed is returned after Close.
	ErrClosed = errors.New("store closed")
)

// Config configures Open.
type Config struct {
	Path       string
	InMemory   bool
	SyncWrites bool

	// ViewCacheSize is the number of sorted views kept between fetches.
	// ViewCacheTTL bounds how long an unused view is kept. Zero selects the
	// cache defaults.
	ViewCacheSize int
	ViewCacheTTL  time.Duration
}

// Store is a persistent, insertion-ordered row dataset.
type Store struct {
	db        *badger.DB
	seq       *badger.Sequence
	listeners dataprovider.Listeners[Row]
	now       func() time.Time

	// views caches fully sorted, filtered row sets keyed by generation,
	// filter and sort. Every mutation bumps generation.
	views      *cache.LRU[string, []Row]
	generation atomic.Uint64
}

// Open opens (or creates) the store.
func Open(cfg Config) (*Store, error) {
	opts := badger.DefaultOptions(cfg.Path)
	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	}
	opts.SyncWrites = cfg.SyncWrites
	opts.Logger = nil

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open BadgerDB: %w", err)
	}

	seq, err := db.GetSequence([]byte(seqKey), seqBandwidth)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("open row sequence: %w", err)
	}

	s := &Store{
		db:    db,
		seq:   seq,
		now:   time.Now,
		views: cache.NewLRU[string, []Row](cfg.ViewCacheSize, cfg.ViewCacheTTL),
	}

	n, err := s.Count(context.Background())
	if err != nil {
		_ = s.Close()
		return nil, err
	}
	metrics.StoreRows.Set(float64(n))

	logging.Info().
		Str("path", cfg.Path).
		Bool("in_memory", cfg.InMemory).
		Int("rows", n).
		Msg("Row store opened")
	return s, nil
}

// Close releases the sequence lease and closes the database.
func (s *Store) Close() error {
	if s.db.IsClosed() {
		return nil
	}
	if err := s.seq.Release(); err != nil {
		logging.Warn().Err(err).Msg("Failed to release row sequence")
	}
	return s.db.Close()
}

// Ping reports whether the database is usable.
func (s *Store) Ping(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s.db.IsClosed() {
		return ErrClosed
	}
	return nil
}

// CollectGarbage rewrites value log files until none has at least
// discardRatio stale data, and returns how many were rewritten. In-memory
// stores have no value log and report zero.
func (s *Store) CollectGarbage(ctx context.Context, discardRatio float64) (int, error) {
	if s.db.IsClosed() {
		return 0, ErrClosed
	}
	var rewritten int
	for ctx.Err() == nil {
		err := s.db.RunValueLogGC(discardRatio)
		switch {
		case err == nil:
			rewritten++
		case errors.Is(err, badger.ErrNoRewrite), errors.Is(err, badger.ErrGCInMemoryMode):
			return rewritten, nil
		default:
			return rewritten, fmt.Errorf("value log gc: %w", err)
		}
	}
	return rewritten, ctx.Err()
}

func rowKey(seq uint64) []byte {
	k := make([]byte, len(rowKeyPrefix)+8)
	copy(k, rowKeyPrefix)
	binary.BigEndian.PutUint64(k[len(rowKeyPrefix):], seq)
	return k
}

func rowIDKey(id uuid.UUID) []byte {
	return append([]byte(rowIDKeyPrefix), id[:]...)
}

func (s *Store) nextSeq() (uint64, error) {
	// Sequence starts at 0; rows are numbered from 1.
	n, err := s.seq.Next()
	if err != nil {
		return 0, fmt.Errorf("next row sequence: %w", err)
	}
	return n + 1, nil
}

func putRow(txn *badger.Txn, r *Row) error {
	data, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("marshal row: %w", err)
	}
	if err := txn.Set(rowKey(r.Seq), data); err != nil {
		return fmt.Errorf("set row: %w", err)
	}
	var seq [8]byte
	binary.BigEndian.PutUint64(seq[:], r.Seq)
	if err := txn.Set(rowIDKey(r.ID), seq[:]); err != nil {
		return fmt.Errorf("set row id index: %w", err)
	}
	return nil
}

func getRow(txn *badger.Txn, id uuid.UUID) (Row, error) {
	var row Row
	idx, err := txn.Get(rowIDKey(id))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return row, ErrNotFound
	}
	if err != nil {
		return row, fmt.Errorf("get row id index: %w", err)
	}
	seq, err := idx.ValueCopy(nil)
	if err != nil {
		return row, fmt.Errorf("read row id index: %w", err)
	}
	item, err := txn.Get(append([]byte(rowKeyPrefix), seq...))
	if err != nil {
		return row, fmt.Errorf("get row: %w", err)
	}
	err = item.Value(func(val []byte) error {
		return json.Unmarshal(val, &row)
	})
	return row, err
}

// Append adds a row at the end of the dataset.
func (s *Store) Append(ctx context.Context, title, category string, value float64) (Row, error) {
	start := time.Now()
	row, err := s.append(ctx, title, category, value)
	metrics.RecordStoreOperation("append", time.Since(start), err)
	if err != nil {
		return Row{}, err
	}
	metrics.StoreRows.Inc()
	s.invalidate()
	s.listeners.Fire(dataprovider.ChangeEvent[Row]{Kind: dataprovider.ChangeReset})
	return row, nil
}

func (s *Store) append(ctx context.Context, title, category string, value float64) (Row, error) {
	if err := ctx.Err(); err != nil {
		return Row{}, err
	}
	seq, err := s.nextSeq()
	if err != nil {
		return Row{}, err
	}
	row := Row{
		ID:        uuid.New(),
		Seq:       seq,
		Title:     title,
		Category:  category,
		Value:     value,
		UpdatedAt: s.now().UTC(),
	}
	if err := s.db.Update(func(txn *badger.Txn) error { return putRow(txn, &row) }); err != nil {
		return Row{}, err
	}
	return row, nil
}

// Get returns the row with the given ID.
func (s *Store) Get(ctx context.Context, id uuid.UUID) (Row, error) {
	if err := ctx.Err(); err != nil {
		return Row{}, err
	}
	var row Row
	err := s.db.View(func(txn *badger.Txn) error {
		var err error
		row, err = getRow(txn, id)
		return err
	})
	return row, err
}

// Update replaces the editable fields of an existing row. ID and Seq of r
// identify the row; Seq and UpdatedAt of the result come from the store.
func (s *Store) Update(ctx context.Context, r Row) (Row, error) {
	if err := ctx.Err(); err != nil {
		return Row{}, err
	}
	start := time.Now()

	var old, updated Row
	err := s.db.Update(func(txn *badger.Txn) error {
		var err error
		old, err = getRow(txn, r.ID)
		if err != nil {
			return err
		}
		updated = old
		updated.Title = r.Title
		updated.Category = r.Category
		updated.Value = r.Value
		updated.UpdatedAt = s.now().UTC()
		return putRow(txn, &updated)
	})
	metrics.RecordStoreOperation("update", time.Since(start), err)
	if err != nil {
		return Row{}, err
	}
	s.invalidate()

	if old.Title != updated.Title || old.Value != updated.Value {
		s.listeners.Fire(dataprovider.ChangeEvent[Row]{Kind: dataprovider.ChangeReset})
	} else {
		s.listeners.Fire(dataprovider.ChangeEvent[Row]{Kind: dataprovider.ChangeRefresh, Item: updated})
	}
	return updated, nil
}

// Delete removes a row.
func (s *Store) Delete(ctx context.Context, id uuid.UUID) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	start := time.Now()
	err := s.db.Update(func(txn *badger.Txn) error {
		row, err := getRow(txn, id)
		if err != nil {
			return err
		}
		if err := txn.Delete(rowKey(row.Seq)); err != nil {
			return fmt.Errorf("delete row: %w", err)
		}
		if err := txn.Delete(rowIDKey(id)); err != nil {
			return fmt.Errorf("delete row id index: %w", err)
		}
		return nil
	})
	metrics.RecordStoreOperation("delete", time.Since(start), err)
	if err != nil {
		return err
	}
	metrics.StoreRows.Dec()
	s.invalidate()
	s.listeners.Fire(dataprovider.ChangeEvent[Row]{Kind: dataprovider.ChangeReset})
	return nil
}

// Seed appends n generated rows in one write batch.
func (s *Store) Seed(ctx context.Context, n int) error {
	if n <= 0 {
		return nil
	}
	start := time.Now()
	err := s.seed(ctx, n)
	metrics.RecordStoreOperation("seed", time.Since(start), err)
	if err != nil {
		return err
	}

	count, err := s.Count(ctx)
	if err == nil {
		metrics.StoreRows.Set(float64(count))
	}
	logging.Info().Int("rows", n).Dur("duration", time.Since(start)).Msg("Seeded row store")
	s.invalidate()
	s.listeners.Fire(dataprovider.ChangeEvent[Row]{Kind: dataprovider.ChangeReset})
	return nil
}

func (s *Store) seed(ctx context.Context, n int) error {
	wb := s.db.NewWriteBatch()
	defer wb.Cancel()

	now := s.now().UTC()
	for i := 0; i < n; i++ {
		if i%1024 == 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
		}
		seq, err := s.nextSeq()
		if err != nil {
			return err
		}
		row := seedRow(seq, now)
		data, err := json.Marshal(&row)
		if err != nil {
			return fmt.Errorf("marshal row: %w", err)
		}
		var seqBytes [8]byte
		binary.BigEndian.PutUint64(seqBytes[:], seq)
		if err := wb.Set(rowKey(seq), data); err != nil {
			return fmt.Errorf("seed row: %w", err)
		}
		if err := wb.Set(rowIDKey(row.ID), seqBytes[:]); err != nil {
			return fmt.Errorf("seed row id index: %w", err)
		}
	}
	return wb.Flush()
}

var seedCategories = []string{"alpha", "beta", "gamma", "delta"}

func seedRow(seq uint64, now time.Time) Row {
	return Row{
		ID:        uuid.New(),
		Seq:       seq,
		Title:     fmt.Sprintf("Row %06d", seq),
		Category:  seedCategories[seq%uint64(len(seedCategories))],
		Value:     float64((seq * 7919) % 1000),
		UpdatedAt: now,
	}
}

// Count returns the number of rows.
func (s *Store) Count(ctx context.Context) (int, error) {
	return s.Size(ctx, dataprovider.Query{})
}

// AddDataChangeListener implements dataprovider.ChangeNotifier.
func (s *Store) AddDataChangeListener(fn func(dataprovider.ChangeEvent[Row])) registration.Registration {
	return s.listeners.Add(fn)
}

// ItemID implements dataprovider.Identifier.
func (s *Store) ItemID(r Row) any {
	return r.ID
}

// Size implements dataprovider.DataProvider.
func (s *Store) Size(ctx context.Context, q dataprovider.Query) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	start := time.Now()
	text := filterText(q.Filter)

	n := 0
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = text != ""
		opts.Prefix = []byte(rowKeyPrefix)
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			if text == "" {
				n++
				continue
			}
			var row Row
			if err := it.Item().Value(func(val []byte) error { return json.Unmarshal(val, &row) }); err != nil {
				return fmt.Errorf("decode row: %w", err)
			}
			if row.matches(text) {
				n++
			}
		}
		return nil
	})
	metrics.RecordStoreOperation("size", time.Since(start), err)
	return n, err
}

// Fetch implements dataprovider.DataProvider. Unsorted queries stream the
// window straight from the key order; sorted queries load every matching row.
func (s *Store) Fetch(ctx context.Context, q dataprovider.Query) ([]Row, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	start := time.Now()

	var (
		rows []Row
		err  error
	)
	if len(q.SortOrders) == 0 {
		rows, err = s.scan(q.Offset, q.Limit, filterText(q.Filter))
	} else {
		rows, err = s.sorted(q)
	}
	metrics.RecordStoreOperation("fetch", time.Since(start), err)
	return rows, err
}

// scan collects up to limit matching rows after skipping offset matches.
// A negative limit means no limit.
func (s *Store) scan(offset, limit int, text string) ([]Row, error) {
	if limit == 0 {
		return nil, nil
	}
	offset = max(offset, 0)

	var rows []Row
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = []byte(rowKeyPrefix)
		it := txn.NewIterator(opts)
		defer it.Close()

		skipped := 0
		for it.Rewind(); it.Valid(); it.Next() {
			if text == "" && skipped < offset {
				skipped++
				continue
			}
			var row Row
			if err := it.Item().Value(func(val []byte) error { return json.Unmarshal(val, &row) }); err != nil {
				return fmt.Errorf("decode row: %w", err)
			}
			if !row.matches(text) {
				continue
			}
			if skipped < offset {
				skipped++
				continue
			}
			rows = append(rows, row)
			if limit > 0 && len(rows) == limit {
				return nil
			}
		}
		return nil
	})
	return rows, err
}

func (s *Store) sorted(q dataprovider.Query) ([]Row, error) {
	all, err := s.sortedView(q)
	if err != nil {
		return nil, err
	}
	lo := min(max(q.Offset, 0), len(all))
	hi := len(all)
	if q.Limit >= 0 {
		hi = min(lo+q.Limit, len(all))
	}
	return slices.Clone(all[lo:hi]), nil
}

// sortedView returns every row matching q's filter in q's sort order. The
// result is shared with the view cache and must not be modified.
func (s *Store) sortedView(q dataprovider.Query) ([]Row, error) {
	order, err := rowComparator(q.SortOrders)
	if err != nil {
		return nil, err
	}
	text := filterText(q.Filter)
	// Read before scanning so a concurrent mutation makes this entry unreachable.
	key := viewKey(s.generation.Load(), text, q.SortOrders)
	if all, ok := s.views.Get(key); ok {
		metrics.StoreViewCache.WithLabelValues("hit").Inc()
		return all, nil
	}
	metrics.StoreViewCache.WithLabelValues("miss").Inc()

	all, err := s.scan(0, -1, text)
	if err != nil {
		return nil, err
	}
	slices.SortFunc(all, order)
	s.views.Add(key, all)
	return all, nil
}

func (s *Store) invalidate() {
	s.generation.Add(1)
	s.views.Clear()
}

func viewKey(generation uint64, text string, orders []dataprovider.SortOrder) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%d|%q", generation, text)
	for _, o := range orders {
		fmt.Fprintf(&b, "|%s:%s", o.Property, o.Direction)
	}
	return b.String()
}
