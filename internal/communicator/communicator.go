// Windowsync - Windowed Data Synchronization for Lazy Client Viewports
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/windowsync

package communicator

import (
	"errors"
	"fmt"
	"slices"

	"github.com/rs/zerolog"

	"github.com/tomtom215/windowsync/internal/arrayupdater"
	"github.com/tomtom215/windowsync/internal/dataprovider"
	"github.com/tomtom215/windowsync/internal/generator"
	"github.com/tomtom215/windowsync/internal/keymapper"
	"github.com/tomtom215/windowsync/internal/logging"
	"github.com/tomtom215/windowsync/internal/metrics"
	"github.com/tomtom215/windowsync/internal/rangetracker"
	"github.com/tomtom215/windowsync/internal/registration"
)

// DefaultPageSize is the number of rows requested per provider Fetch call.
const DefaultPageSize = 100

// ErrUnknownUpdate is returned by ConfirmUpdate for update IDs never sent.
var ErrUnknownUpdate = errors.New("unknown update id")

// Option configures a DataCommunicator.
type Option[T any] func(*DataCommunicator[T])

// WithIdentity sets an explicit identity function, overriding the provider's.
func WithIdentity[T any](fn dataprovider.IdentityFunc[T]) Option[T] {
	return func(c *DataCommunicator[T]) {
		c.identityFn = fn
	}
}

// WithPageSize sets the number of rows fetched per provider call.
func WithPageSize[T any](n int) Option[T] {
	return func(c *DataCommunicator[T]) {
		if n > 0 {
			c.pageSize = n
		}
	}
}

// WithLogger sets the logger used for pass diagnostics.
//
//nolint:gocritic // zerolog.Logger is designed to be passed by value
func WithLogger[T any](l zerolog.Logger) Option[T] {
	return func(c *DataCommunicator[T]) {
		c.logger = l
	}
}

// WithDispatch routes provider change notifications through post, which must
// run the function on the communicator's goroutine. Without it, notifications
// are handled on whatever goroutine the provider fires them from.
func WithDispatch[T any](post func(func())) Option[T] {
	return func(c *DataCommunicator[T]) {
		if post != nil {
			c.dispatch = post
		}
	}
}

// WithoutProviderListener stops the communicator from subscribing to provider
// change notifications. The host then calls Reset and RefreshItem itself.
func WithoutProviderListener[T any]() Option[T] {
	return func(c *DataCommunicator[T]) {
		c.listenProvider = false
	}
}

// WithGenerators registers data generators at construction.
func WithGenerators[T any](gens ...generator.DataGenerator[T]) Option[T] {
	return func(c *DataCommunicator[T]) {
		for _, g := range gens {
			c.generators.Add(g)
		}
	}
}

// DataCommunicator synchronizes one client window with a data provider.
type DataCommunicator[T any] struct {
	updater    arrayupdater.ArrayUpdater
	provider   dataprovider.DataProvider[T]
	identityFn dataprovider.IdentityFunc[T]
	keys       *keymapper.KeyMapper[T]
	generators *generator.Composite[T]
	tracker    rangetracker.Tracker

	generation uint64
	filter     any
	sortOrders []dataprovider.SortOrder
	pageSize   int

	dirty             bool
	inFlight          bool
	lastUpdateID      uint64
	confirmedUpdateID uint64

	// rows maps window indices to the keys the client holds there.
	rows map[int]keymapper.Key
	// active is the inverse of rows.
	active map[keymapper.Key]int
	// passivated holds keys removed from the window, by the update that removed them.
	passivated map[keymapper.Key]uint64
	refresh    map[keymapper.Key]struct{}
	// late holds items refreshed while an async pass was fetching. The pass
	// may carry older copies of them, so they are applied again after it.
	late []T

	dispatch       func(func())
	listenProvider bool
	providerReg    registration.Registration

	nextListenerID uint64
	errorListeners []fetchErrorListener

	logger zerolog.Logger
}

type fetchErrorListener struct {
	id uint64
	fn func(*FetchError)
}

// New creates a DataCommunicator pushing updates through updater.
func New[T any](provider dataprovider.DataProvider[T], updater arrayupdater.ArrayUpdater, opts ...Option[T]) (*DataCommunicator[T], error) {
	if provider == nil {
		return nil, ErrNilDataProvider
	}
	if updater == nil {
		return nil, errors.New("array updater must not be nil")
	}

	c := &DataCommunicator[T]{
		updater:        updater,
		generators:     generator.NewComposite[T](),
		pageSize:       DefaultPageSize,
		dirty:          true,
		rows:           make(map[int]keymapper.Key),
		active:         make(map[keymapper.Key]int),
		passivated:     make(map[keymapper.Key]uint64),
		refresh:        make(map[keymapper.Key]struct{}),
		dispatch:       func(fn func()) { fn() },
		listenProvider: true,
		providerReg:    registration.Noop(),
		logger:         logging.WithComponent("communicator"),
	}
	for _, opt := range opts {
		opt(c)
	}

	identity, err := dataprovider.ResolveIdentity(provider, c.identityFn)
	if err != nil {
		return nil, err
	}
	c.keys = keymapper.New(identity)
	c.installProvider(provider)

	return c, nil
}

func (c *DataCommunicator[T]) installProvider(p dataprovider.DataProvider[T]) {
	c.providerReg.Remove()
	c.providerReg = registration.Noop()
	c.provider = p

	if !c.listenProvider {
		return
	}
	if n, ok := dataprovider.FindChangeNotifier(p); ok {
		c.providerReg = n.AddDataChangeListener(func(ev dataprovider.ChangeEvent[T]) {
			c.dispatch(func() { c.onDataChange(ev) })
		})
	}
}

func (c *DataCommunicator[T]) onDataChange(ev dataprovider.ChangeEvent[T]) {
	switch ev.Kind {
	case dataprovider.ChangeRefresh:
		c.RefreshItem(ev.Item)
	default:
		c.Reset()
	}
}

// Close releases the provider subscription. The communicator must not be used afterwards.
func (c *DataCommunicator[T]) Close() {
	c.providerReg.Remove()
}

// SetDataProvider replaces the provider. Every key is detached from its item
// and the next pass refetches the whole window under a new generation.
func (c *DataCommunicator[T]) SetDataProvider(p dataprovider.DataProvider[T]) error {
	if p == nil {
		return ErrNilDataProvider
	}
	identity, err := dataprovider.ResolveIdentity(p, c.identityFn)
	if err != nil {
		return err
	}

	for _, key := range c.keys.Keys() {
		c.keys.Retire(key)
	}
	c.keys.SetIdentity(identity)
	clear(c.refresh)

	c.installProvider(p)
	c.invalidate("provider replaced")
	return nil
}

// SetRequestedRange records the client's viewport.
func (c *DataCommunicator[T]) SetRequestedRange(offset, length int) error {
	if err := c.tracker.RequestRange(offset, length); err != nil {
		return err
	}
	c.dirty = true
	return nil
}

// Reset refetches and regenerates the requested window. Items whose identity
// is unchanged keep their keys.
func (c *DataCommunicator[T]) Reset() {
	c.invalidate("reset")
}

// SetFilter changes the filter passed to the provider.
func (c *DataCommunicator[T]) SetFilter(filter any) {
	c.filter = filter
	c.invalidate("filter changed")
}

// SetSortOrders changes the sort orders passed to the provider.
func (c *DataCommunicator[T]) SetSortOrders(orders []dataprovider.SortOrder) {
	c.sortOrders = slices.Clone(orders)
	c.invalidate("sort changed")
}

func (c *DataCommunicator[T]) invalidate(reason string) {
	c.generation++
	c.tracker.Invalidate()
	c.dirty = true
	c.logger.Debug().
		Uint64("generation", c.generation).
		Str("reason", reason).
		Msg("Window invalidated")
}

// RefreshItem replaces the stored value of item and, when the item is in the
// window, schedules an out-of-band data push for it on the next flush. It
// reports whether a push was scheduled. While an async pass is fetching, the
// item is also replayed when that pass completes, so the pass cannot
// overwrite it with the value it fetched earlier.
func (c *DataCommunicator[T]) RefreshItem(item T) bool {
	if c.inFlight {
		c.late = append(c.late, item)
	}
	if !c.keys.Refresh(item) {
		return false
	}
	key, _ := c.keys.KeyOf(item)
	if _, ok := c.active[key]; !ok {
		return false
	}
	c.refresh[key] = struct{}{}
	return true
}

// ConfirmUpdate records that the client applied every update up to id.
// Keys removed by those updates are released for reuse.
func (c *DataCommunicator[T]) ConfirmUpdate(id uint64) error {
	if id > c.lastUpdateID {
		return fmt.Errorf("%w: %d (last sent %d)", ErrUnknownUpdate, id, c.lastUpdateID)
	}
	if id <= c.confirmedUpdateID {
		return nil
	}
	c.confirmedUpdateID = id

	released := 0
	for key, uid := range c.passivated {
		if uid > id {
			continue
		}
		delete(c.passivated, key)
		c.keys.Clear(key)
		released++
	}
	if released > 0 {
		metrics.SyncKeysReleased.Add(float64(released))
	}
	return nil
}

// ItemForKey returns the item a client key refers to.
func (c *DataCommunicator[T]) ItemForKey(key keymapper.Key) (T, error) {
	return c.keys.ItemFor(key)
}

// AddDataGenerator registers g. Rows already in the window are regenerated
// on the next flush, as is done again when the registration is removed.
func (c *DataCommunicator[T]) AddDataGenerator(g generator.DataGenerator[T]) registration.Registration {
	reg := c.generators.Add(g)
	c.refreshAll()
	return registration.Func(func() {
		reg.Remove()
		c.refreshAll()
	})
}

func (c *DataCommunicator[T]) refreshAll() {
	for key := range c.active {
		c.refresh[key] = struct{}{}
	}
}

// AddFetchErrorListener registers fn to be called for every fetch error.
func (c *DataCommunicator[T]) AddFetchErrorListener(fn func(*FetchError)) registration.Registration {
	c.nextListenerID++
	id := c.nextListenerID
	c.errorListeners = append(c.errorListeners, fetchErrorListener{id: id, fn: fn})
	return registration.Func(func() {
		c.errorListeners = slices.DeleteFunc(c.errorListeners, func(l fetchErrorListener) bool {
			return l.id == id
		})
	})
}

// Provider returns the current data provider.
func (c *DataCommunicator[T]) Provider() dataprovider.DataProvider[T] { return c.provider }

// Generation returns the current generation.
func (c *DataCommunicator[T]) Generation() uint64 { return c.generation }

// Requested returns the requested window.
func (c *DataCommunicator[T]) Requested() rangetracker.Range { return c.tracker.Requested() }

// Confirmed returns the window established by the last committed pass.
func (c *DataCommunicator[T]) Confirmed() rangetracker.Range { return c.tracker.Confirmed() }

// Size returns the dataset size established by the last committed pass.
func (c *DataCommunicator[T]) Size() int { return c.tracker.ConfirmedSize() }

// Dirty reports whether a reconciliation pass is pending.
func (c *DataCommunicator[T]) Dirty() bool { return c.dirty }

// InFlight reports whether an asynchronous pass is outstanding.
func (c *DataCommunicator[T]) InFlight() bool { return c.inFlight }

// LastUpdateID returns the ID of the last committed update.
func (c *DataCommunicator[T]) LastUpdateID() uint64 { return c.lastUpdateID }

// ActiveKeys returns the number of keys in the window.
func (c *DataCommunicator[T]) ActiveKeys() int { return len(c.active) }

// PassivatedKeys returns the number of keys awaiting client confirmation before release.
func (c *DataCommunicator[T]) PassivatedKeys() int { return len(c.passivated) }

// KeyAt returns the key the client holds at index i.
func (c *DataCommunicator[T]) KeyAt(i int) (keymapper.Key, bool) {
	key, ok := c.rows[i]
	return key, ok
}
