// Windowsync - Windowed Data Synchronization for Lazy Client Viewports
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/windowsync

package communicator

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/tomtom215/windowsync/internal/arrayupdater"
	"github.com/tomtom215/windowsync/internal/dataprovider"
	"github.com/tomtom215/windowsync/internal/generator"
	"github.com/tomtom215/windowsync/internal/keymapper"
)

type row struct {
	ID   int
	Name string
}

func rowID(r row) any { return r.ID }

func makeRows(n int) []row {
	out := make([]row, n)
	for i := range out {
		out[i] = row{ID: i, Name: "row-" + strconv.Itoa(i)}
	}
	return out
}

func newHarness(t *testing.T, items []row, opts ...Option[row]) (*DataCommunicator[row], *dataprovider.ListProvider[row], *arrayupdater.Recorder) {
	t.Helper()

	list := dataprovider.NewListProvider(items,
		dataprovider.WithFilter(func(r row, filter any) bool {
			s, _ := filter.(string)
			return strings.Contains(r.Name, s)
		}),
		dataprovider.WithComparator("name", func(a, b row) int { return strings.Compare(a.Name, b.Name) }),
	)
	rec := &arrayupdater.Recorder{}

	base := []Option[row]{
		WithIdentity[row](rowID),
		WithGenerators(generator.Label("name", func(r row) string { return r.Name })),
	}
	c, err := New[row](list, arrayupdater.New(rec), append(base, opts...)...)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	t.Cleanup(c.Close)
	return c, list, rec
}

func mustFlush(t *testing.T, c *DataCommunicator[row]) {
	t.Helper()
	if err := c.Flush(context.Background()); err != nil {
		t.Fatalf("Flush failed: %v", err)
	}
}

func summarize(f arrayupdater.Frame) []string {
	out := make([]string, 0, len(f.Ops))
	for _, op := range f.Ops {
		switch op.Kind {
		case arrayupdater.OpResize:
			out = append(out, fmt.Sprintf("resize %d", op.Size))
		case arrayupdater.OpClear:
			out = append(out, fmt.Sprintf("clear %d+%d", op.Start, op.Length))
		case arrayupdater.OpSet:
			out = append(out, fmt.Sprintf("set %d+%d", op.Start, len(op.Items)))
		}
	}
	return out
}

func lastFrame(t *testing.T, rec *arrayupdater.Recorder) arrayupdater.Frame {
	t.Helper()
	f, ok := rec.Last()
	if !ok {
		t.Fatal("No frame sent")
	}
	return f
}

// checkReplica replays every frame and asserts the client would hold exactly
// the confirmed window with the keys the communicator considers active.
func checkReplica(t *testing.T, c *DataCommunicator[row], rec *arrayupdater.Recorder) {
	t.Helper()

	var replica arrayupdater.Replica
	for _, f := range rec.Frames() {
		if err := replica.Apply(f); err != nil {
			t.Fatalf("Client rejected frame: %v", err)
		}
	}

	if replica.Size() != c.Size() {
		t.Errorf("Client size %d, server size %d", replica.Size(), c.Size())
	}
	loaded := replica.Loaded()
	if len(loaded) != c.ActiveKeys() {
		t.Errorf("Client holds %d rows, server has %d active keys", len(loaded), c.ActiveKeys())
	}
	for _, i := range loaded {
		if !c.Confirmed().Contains(i) {
			t.Errorf("Client holds row %d outside confirmed window %v", i, c.Confirmed())
		}
		want, ok := c.KeyAt(i)
		if !ok || replica.Row(i).Key() != want {
			t.Errorf("Row %d: client key %q, server key %q", i, replica.Row(i).Key(), want)
		}
	}
}

func TestNew_Validation(t *testing.T) {
	rec := &arrayupdater.Recorder{}

	if _, err := New[row](nil, arrayupdater.New(rec)); !errors.Is(err, ErrNilDataProvider) {
		t.Errorf("Expected ErrNilDataProvider, got %v", err)
	}

	list := dataprovider.NewListProvider([]row{})
	if _, err := New[row](list, nil); err == nil {
		t.Error("Expected error for nil updater")
	}

	nested := dataprovider.NewListProvider([][]int{{1}})
	if _, err := New[[]int](nested, arrayupdater.New(rec)); !errors.Is(err, dataprovider.ErrIncomparableItems) {
		t.Errorf("Expected ErrIncomparableItems, got %v", err)
	}

	c, _, _ := newHarness(t, makeRows(3))
	if err := c.SetDataProvider(nil); !errors.Is(err, ErrNilDataProvider) {
		t.Errorf("Expected ErrNilDataProvider from SetDataProvider, got %v", err)
	}
}

func TestScroll(t *testing.T) {
	c, _, rec := newHarness(t, makeRows(100))

	if err := c.SetRequestedRange(0, 20); err != nil {
		t.Fatal(err)
	}
	mustFlush(t, c)

	first := lastFrame(t, rec)
	if diff := cmp.Diff([]string{"resize 100", "set 0+20"}, summarize(first)); diff != "" {
		t.Fatalf("First frame mismatch (-want +got):\n%s", diff)
	}
	if got := first.Ops[1].Items[0]["name"]; got != "row-0" {
		t.Errorf("First set row name = %v, want row-0", got)
	}

	if err := c.SetRequestedRange(10, 20); err != nil {
		t.Fatal(err)
	}
	mustFlush(t, c)

	second := lastFrame(t, rec)
	if diff := cmp.Diff([]string{"clear 0+10", "set 20+10"}, summarize(second)); diff != "" {
		t.Fatalf("Scroll frame mismatch (-want +got):\n%s", diff)
	}
	if second.UpdateID != first.UpdateID+1 {
		t.Errorf("UpdateID = %d, want %d", second.UpdateID, first.UpdateID+1)
	}
	if c.Confirmed() != (rangetrackerRange(10, 30)) {
		t.Errorf("Confirmed = %v, want [10,30)", c.Confirmed())
	}
	checkReplica(t, c, rec)
}

func TestShrinkBelowWindow(t *testing.T) {
	c, list, rec := newHarness(t, makeRows(100))

	if err := c.SetRequestedRange(50, 20); err != nil {
		t.Fatal(err)
	}
	mustFlush(t, c)

	list.Replace(makeRows(5))
	if !c.Dirty() {
		t.Fatal("Provider reset should mark the communicator dirty")
	}
	mustFlush(t, c)

	f := lastFrame(t, rec)
	if diff := cmp.Diff([]string{"resize 5", "set 0+5"}, summarize(f)); diff != "" {
		t.Fatalf("Shrink frame mismatch (-want +got):\n%s", diff)
	}
	checkReplica(t, c, rec)

	if c.PassivatedKeys() != 20 {
		t.Errorf("PassivatedKeys = %d, want 20", c.PassivatedKeys())
	}
	if err := c.ConfirmUpdate(f.UpdateID); err != nil {
		t.Fatalf("ConfirmUpdate failed: %v", err)
	}
	if c.PassivatedKeys() != 0 {
		t.Errorf("PassivatedKeys = %d after confirm, want 0", c.PassivatedKeys())
	}
}

// gatedProvider blocks Fetch until gate is closed.
type gatedProvider struct {
	items []row
	gate  chan struct{}
}

func (g *gatedProvider) Size(context.Context, dataprovider.Query) (int, error) {
	return len(g.items), nil
}

func (g *gatedProvider) Fetch(ctx context.Context, q dataprovider.Query) ([]row, error) {
	select {
	case <-g.gate:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	end := min(q.End(), len(g.items))
	return g.items[q.Offset:end], nil
}

func awaitPost(t *testing.T, posts <-chan func()) func() {
	t.Helper()
	select {
	case fn := <-posts:
		return fn
	case <-time.After(5 * time.Second):
		t.Fatal("Timed out waiting for pass completion")
		return nil
	}
}

func TestSetDataProviderDuringFetch(t *testing.T) {
	old := &gatedProvider{items: makeRows(10), gate: make(chan struct{})}
	rec := &arrayupdater.Recorder{}
	c, err := New[row](old, arrayupdater.New(rec), WithIdentity[row](rowID))
	if err != nil {
		t.Fatal(err)
	}
	if err := c.SetRequestedRange(0, 5); err != nil {
		t.Fatal(err)
	}

	posts := make(chan func(), 4)
	post := func(fn func()) { posts <- fn }
	var results []error
	done := func(err error) { results = append(results, err) }

	ctx := context.Background()
	if !c.FlushAsync(ctx, post, done) {
		t.Fatal("FlushAsync did not start a pass")
	}
	if c.FlushAsync(ctx, post, done) {
		t.Error("Second FlushAsync must not start while a pass is in flight")
	}

	replacement := make([]row, 3)
	for i := range replacement {
		replacement[i] = row{ID: 100 + i, Name: "new-" + strconv.Itoa(i)}
	}
	if err := c.SetDataProvider(dataprovider.NewListProvider(replacement)); err != nil {
		t.Fatal(err)
	}
	close(old.gate)

	awaitPost(t, posts)()
	if len(rec.Frames()) != 0 {
		t.Fatalf("Stale pass emitted %d frames", len(rec.Frames()))
	}
	if !c.InFlight() {
		t.Fatal("Stale completion should start a new pass for the new provider")
	}

	awaitPost(t, posts)()
	if len(results) != 1 || results[0] != nil {
		t.Fatalf("done results = %v, want one nil", results)
	}

	frames := rec.Frames()
	if len(frames) != 1 {
		t.Fatalf("Expected exactly one frame, got %d", len(frames))
	}
	if diff := cmp.Diff([]string{"resize 3", "set 0+3"}, summarize(frames[0])); diff != "" {
		t.Errorf("Frame mismatch (-want +got):\n%s", diff)
	}
	item, err := c.ItemForKey(frames[0].Ops[1].Items[0].Key())
	if err != nil || item.ID != 100 {
		t.Errorf("ItemForKey = %+v, %v; want row 100", item, err)
	}
}

func TestFlushAsyncStaleRange(t *testing.T) {
	p := &gatedProvider{items: makeRows(50), gate: make(chan struct{})}
	rec := &arrayupdater.Recorder{}
	c, err := New[row](p, arrayupdater.New(rec), WithIdentity[row](rowID))
	if err != nil {
		t.Fatal(err)
	}
	if err := c.SetRequestedRange(0, 10); err != nil {
		t.Fatal(err)
	}

	posts := make(chan func(), 4)
	post := func(fn func()) { posts <- fn }
	c.FlushAsync(context.Background(), post, nil)

	if err := c.SetRequestedRange(20, 10); err != nil {
		t.Fatal(err)
	}
	close(p.gate)

	awaitPost(t, posts)()
	awaitPost(t, posts)()

	frames := rec.Frames()
	if len(frames) != 1 {
		t.Fatalf("Expected one frame, got %d", len(frames))
	}
	if diff := cmp.Diff([]string{"resize 50", "set 20+10"}, summarize(frames[0])); diff != "" {
		t.Errorf("Frame mismatch (-want +got):\n%s", diff)
	}
}

func TestRefreshDuringFlushAsync(t *testing.T) {
	p := &gatedProvider{items: makeRows(10), gate: make(chan struct{})}
	close(p.gate)
	rec := &arrayupdater.Recorder{}
	c, err := New[row](p, arrayupdater.New(rec),
		WithIdentity[row](rowID),
		WithGenerators(generator.Label("name", func(r row) string { return r.Name })),
	)
	if err != nil {
		t.Fatal(err)
	}
	if err := c.SetRequestedRange(0, 5); err != nil {
		t.Fatal(err)
	}
	mustFlush(t, c)

	// The next pass fetches row 2 before it is renamed.
	c.Reset()
	p.gate = make(chan struct{})
	posts := make(chan func(), 4)
	if !c.FlushAsync(context.Background(), func(fn func()) { posts <- fn }, nil) {
		t.Fatal("FlushAsync did not start a pass")
	}
	if !c.RefreshItem(row{ID: 2, Name: "renamed"}) {
		t.Fatal("RefreshItem did not schedule a push for a visible row")
	}
	close(p.gate)
	awaitPost(t, posts)()

	key, _ := c.KeyAt(2)
	item, err := c.ItemForKey(key)
	if err != nil || item.Name != "renamed" {
		t.Errorf("ItemForKey(%q) = %+v, %v; want the refreshed row", key, item, err)
	}

	var replica arrayupdater.Replica
	for _, f := range rec.Frames() {
		if err := replica.Apply(f); err != nil {
			t.Fatal(err)
		}
	}
	for _, records := range rec.Data() {
		replica.ApplyData(records)
	}
	if got := replica.Row(2)["name"]; got != "renamed" {
		t.Errorf("Client row 2 name = %v, want renamed", got)
	}
	checkReplica(t, c, rec)
}

func TestResetKeepsKeys(t *testing.T) {
	c, list, rec := newHarness(t, makeRows(30))
	if err := c.SetRequestedRange(0, 10); err != nil {
		t.Fatal(err)
	}
	mustFlush(t, c)

	before := make(map[int]keymapper.Key)
	for i := 0; i < 10; i++ {
		before[i], _ = c.KeyAt(i)
	}
	generation := c.Generation()

	items := list.Items()
	items[3].Name = "edited"
	list.Replace(items)
	mustFlush(t, c)

	if c.Generation() != generation+1 {
		t.Errorf("Generation = %d, want %d", c.Generation(), generation+1)
	}
	f := lastFrame(t, rec)
	if diff := cmp.Diff([]string{"clear 0+10", "set 0+10"}, summarize(f)); diff != "" {
		t.Fatalf("Reset frame mismatch (-want +got):\n%s", diff)
	}
	for i := 0; i < 10; i++ {
		if got, _ := c.KeyAt(i); got != before[i] {
			t.Errorf("Row %d key changed from %q to %q", i, before[i], got)
		}
	}
	if f.Ops[1].Items[3]["name"] != "edited" {
		t.Errorf("Reset did not regenerate row 3: %v", f.Ops[1].Items[3])
	}
	if c.PassivatedKeys() != 0 {
		t.Errorf("PassivatedKeys = %d, want 0", c.PassivatedKeys())
	}
	checkReplica(t, c, rec)
}

func TestKeysReleasedOnlyAfterConfirm(t *testing.T) {
	c, _, rec := newHarness(t, makeRows(100))
	if err := c.SetRequestedRange(0, 10); err != nil {
		t.Fatal(err)
	}
	mustFlush(t, c)

	removed := make(map[keymapper.Key]bool)
	for i := 0; i < 5; i++ {
		k, _ := c.KeyAt(i)
		removed[k] = true
	}

	if err := c.SetRequestedRange(5, 10); err != nil {
		t.Fatal(err)
	}
	mustFlush(t, c)
	if c.PassivatedKeys() != 5 {
		t.Fatalf("PassivatedKeys = %d, want 5", c.PassivatedKeys())
	}

	if err := c.SetRequestedRange(10, 10); err != nil {
		t.Fatal(err)
	}
	mustFlush(t, c)
	for i := 15; i < 20; i++ {
		k, _ := c.KeyAt(i)
		if removed[k] {
			t.Errorf("Key %q reused before the client confirmed its removal", k)
		}
	}

	last := lastFrame(t, rec).UpdateID
	if err := c.ConfirmUpdate(last); err != nil {
		t.Fatal(err)
	}
	if c.PassivatedKeys() != 0 {
		t.Errorf("PassivatedKeys = %d after confirm, want 0", c.PassivatedKeys())
	}

	if err := c.SetRequestedRange(20, 10); err != nil {
		t.Fatal(err)
	}
	mustFlush(t, c)
	reused := 0
	for i := 20; i < 30; i++ {
		if k, _ := c.KeyAt(i); removed[k] {
			reused++
		}
	}
	if reused != 5 {
		t.Errorf("Expected the 5 released keys to be recycled first, got %d", reused)
	}
	checkReplica(t, c, rec)
}

func TestConfirmUpdate(t *testing.T) {
	c, _, _ := newHarness(t, makeRows(10))
	if err := c.SetRequestedRange(0, 5); err != nil {
		t.Fatal(err)
	}
	mustFlush(t, c)

	if err := c.ConfirmUpdate(99); !errors.Is(err, ErrUnknownUpdate) {
		t.Errorf("Expected ErrUnknownUpdate, got %v", err)
	}
	if err := c.ConfirmUpdate(c.LastUpdateID()); err != nil {
		t.Errorf("ConfirmUpdate failed: %v", err)
	}
	if err := c.ConfirmUpdate(c.LastUpdateID()); err != nil {
		t.Errorf("Repeated ConfirmUpdate should be a no-op, got %v", err)
	}
}

type failingProvider struct {
	dataprovider.DataProvider[row]
	fail error
}

func (f *failingProvider) Fetch(ctx context.Context, q dataprovider.Query) ([]row, error) {
	if f.fail != nil {
		return nil, f.fail
	}
	return f.DataProvider.Fetch(ctx, q)
}

func TestFetchErrorKeepsState(t *testing.T) {
	boom := errors.New("backend unavailable")
	p := &failingProvider{DataProvider: dataprovider.NewListProvider(makeRows(40))}
	rec := &arrayupdater.Recorder{}
	c, err := New[row](p, arrayupdater.New(rec), WithIdentity[row](rowID))
	if err != nil {
		t.Fatal(err)
	}

	var notified []*FetchError
	reg := c.AddFetchErrorListener(func(e *FetchError) { notified = append(notified, e) })
	defer reg.Remove()

	if err := c.SetRequestedRange(0, 10); err != nil {
		t.Fatal(err)
	}
	mustFlush(t, c)
	confirmed := c.Confirmed()

	p.fail = boom
	if err := c.SetRequestedRange(5, 10); err != nil {
		t.Fatal(err)
	}
	err = c.Flush(context.Background())

	var fe *FetchError
	if !errors.As(err, &fe) || !errors.Is(err, boom) {
		t.Fatalf("Expected FetchError wrapping backend error, got %v", err)
	}
	if fe.Range != rangetrackerRange(10, 15) {
		t.Errorf("FetchError.Range = %v, want [10,15)", fe.Range)
	}
	if len(notified) != 1 {
		t.Errorf("Listener notified %d times, want 1", len(notified))
	}
	if c.Confirmed() != confirmed || !c.Dirty() {
		t.Errorf("State advanced after fetch error: confirmed %v dirty %v", c.Confirmed(), c.Dirty())
	}
	if len(rec.Frames()) != 1 {
		t.Errorf("Frames sent after fetch error: %d", len(rec.Frames()))
	}

	p.fail = nil
	mustFlush(t, c)
	if diff := cmp.Diff([]string{"clear 0+5", "set 10+5"}, summarize(lastFrame(t, rec))); diff != "" {
		t.Errorf("Retry frame mismatch (-want +got):\n%s", diff)
	}
	checkReplica(t, c, rec)
}

func TestShortFetch(t *testing.T) {
	p, err := dataprovider.FromCallbacks(
		func(_ context.Context, q dataprovider.Query) ([]row, error) {
			return makeRows(2), nil
		},
		func(context.Context, dataprovider.Query) (int, error) { return 10, nil },
	)
	if err != nil {
		t.Fatal(err)
	}
	c, err := New[row](p, arrayupdater.New(&arrayupdater.Recorder{}))
	if err != nil {
		t.Fatal(err)
	}
	if err := c.SetRequestedRange(0, 5); err != nil {
		t.Fatal(err)
	}

	if err := c.Flush(context.Background()); !errors.Is(err, ErrShortFetch) {
		t.Errorf("Expected ErrShortFetch, got %v", err)
	}
}

type countingProvider struct {
	dataprovider.DataProvider[row]
	fetches []dataprovider.Query
}

func (c *countingProvider) Fetch(ctx context.Context, q dataprovider.Query) ([]row, error) {
	c.fetches = append(c.fetches, q)
	return c.DataProvider.Fetch(ctx, q)
}

func TestFetchPaging(t *testing.T) {
	p := &countingProvider{DataProvider: dataprovider.NewListProvider(makeRows(100))}
	rec := &arrayupdater.Recorder{}
	c, err := New[row](p, arrayupdater.New(rec), WithPageSize[row](7))
	if err != nil {
		t.Fatal(err)
	}
	if err := c.SetRequestedRange(3, 20); err != nil {
		t.Fatal(err)
	}
	mustFlush(t, c)

	var windows []string
	for _, q := range p.fetches {
		windows = append(windows, fmt.Sprintf("%d+%d", q.Offset, q.Limit))
	}
	if diff := cmp.Diff([]string{"3+7", "10+7", "17+6"}, windows); diff != "" {
		t.Errorf("Fetch pages mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"resize 100", "set 3+20"}, summarize(lastFrame(t, rec))); diff != "" {
		t.Errorf("Frame mismatch (-want +got):\n%s", diff)
	}
}

func TestSendFailureRollsBackKeys(t *testing.T) {
	c, _, rec := newHarness(t, makeRows(20))
	if err := c.SetRequestedRange(0, 5); err != nil {
		t.Fatal(err)
	}

	rec.Fail = errors.New("socket closed")
	if err := c.Flush(context.Background()); err == nil {
		t.Fatal("Expected send error")
	}
	if c.ActiveKeys() != 0 || c.LastUpdateID() != 0 || !c.Dirty() {
		t.Errorf("State advanced after failed send: active %d update %d dirty %v",
			c.ActiveKeys(), c.LastUpdateID(), c.Dirty())
	}
	if _, err := c.ItemForKey("1"); err == nil {
		t.Error("Keys assigned in a failed pass must be released")
	}

	rec.Fail = nil
	mustFlush(t, c)
	if k, _ := c.KeyAt(0); k != "1" {
		t.Errorf("Key at row 0 = %q, want 1", k)
	}
	checkReplica(t, c, rec)
}

func TestSendFailureKeepsStoredItems(t *testing.T) {
	c, list, rec := newHarness(t, makeRows(20), WithoutProviderListener[row]())
	if err := c.SetRequestedRange(0, 5); err != nil {
		t.Fatal(err)
	}
	mustFlush(t, c)
	key, _ := c.KeyAt(2)

	if err := list.Set(2, row{ID: 2, Name: "renamed"}); err != nil {
		t.Fatal(err)
	}
	c.Reset()
	rec.Fail = errors.New("socket closed")
	if err := c.Flush(context.Background()); err == nil {
		t.Fatal("Expected send error")
	}
	if item, _ := c.ItemForKey(key); item.Name != "row-2" {
		t.Errorf("Stored item after failed send = %+v, want the last sent value", item)
	}

	rec.Fail = nil
	mustFlush(t, c)
	if item, _ := c.ItemForKey(key); item.Name != "renamed" {
		t.Errorf("Stored item after retry = %+v, want renamed", item)
	}
	checkReplica(t, c, rec)
}

func TestRefreshItem(t *testing.T) {
	c, list, rec := newHarness(t, makeRows(20))
	if err := c.SetRequestedRange(0, 5); err != nil {
		t.Fatal(err)
	}
	mustFlush(t, c)
	frames := len(rec.Frames())

	if err := list.Set(2, row{ID: 2, Name: "renamed"}); err != nil {
		t.Fatal(err)
	}
	if err := list.Set(12, row{ID: 12, Name: "offscreen"}); err != nil {
		t.Fatal(err)
	}
	mustFlush(t, c)

	if len(rec.Frames()) != frames {
		t.Error("Refresh must not send an update frame")
	}
	data := rec.Data()
	if len(data) != 1 || len(data[0]) != 1 {
		t.Fatalf("Expected one push with one record, got %v", data)
	}
	if data[0][0]["name"] != "renamed" {
		t.Errorf("Pushed record = %v", data[0][0])
	}
	key, _ := c.KeyAt(2)
	if data[0][0].Key() != key {
		t.Errorf("Pushed key %q, want %q", data[0][0].Key(), key)
	}
	item, err := c.ItemForKey(key)
	if err != nil || item.Name != "renamed" {
		t.Errorf("ItemForKey = %+v, %v; want refreshed item", item, err)
	}
}

func TestFilterAndSort(t *testing.T) {
	c, _, rec := newHarness(t, makeRows(30))
	if err := c.SetRequestedRange(0, 5); err != nil {
		t.Fatal(err)
	}
	mustFlush(t, c)

	c.SetFilter("row-2")
	mustFlush(t, c)
	f := lastFrame(t, rec)
	if diff := cmp.Diff([]string{"resize 11", "clear 0+5", "set 0+5"}, summarize(f)); diff != "" {
		t.Fatalf("Filter frame mismatch (-want +got):\n%s", diff)
	}

	c.SetSortOrders([]dataprovider.SortOrder{{Property: "name", Direction: dataprovider.Descending}})
	mustFlush(t, c)
	f = lastFrame(t, rec)
	if got := f.Ops[len(f.Ops)-1].Items[0]["name"]; got != "row-29" {
		t.Errorf("First sorted row = %v, want row-29", got)
	}
	checkReplica(t, c, rec)
}

func TestAddDataGeneratorRegenerates(t *testing.T) {
	c, _, rec := newHarness(t, makeRows(10))
	if err := c.SetRequestedRange(0, 3); err != nil {
		t.Fatal(err)
	}
	mustFlush(t, c)

	reg := c.AddDataGenerator(generator.Func[row](func(r row, _ keymapper.Key) generator.Record {
		return generator.Record{"even": r.ID%2 == 0}
	}))
	mustFlush(t, c)

	data := rec.Data()
	if len(data) != 1 || len(data[0]) != 3 {
		t.Fatalf("Expected one push of 3 records, got %v", data)
	}
	if data[0][0]["even"] != true || data[0][1]["even"] != false {
		t.Errorf("Regenerated records missing field: %v", data[0])
	}

	reg.Remove()
	mustFlush(t, c)
	data = rec.Data()
	if len(data) != 2 {
		t.Fatalf("Expected a second push after removal, got %d", len(data))
	}
	if _, ok := data[1][0]["even"]; ok {
		t.Error("Removed generator still contributes")
	}
}

func TestRandomWalkKeepsClientConsistent(t *testing.T) {
	c, list, rec := newHarness(t, makeRows(200))

	moves := []struct{ offset, length int }{
		{0, 25}, {5, 25}, {30, 25}, {28, 30}, {190, 20}, {150, 40}, {0, 0}, {10, 15},
	}
	for i, m := range moves {
		if err := c.SetRequestedRange(m.offset, m.length); err != nil {
			t.Fatal(err)
		}
		if i == 4 {
			list.Replace(makeRows(170))
		}
		mustFlush(t, c)
		checkReplica(t, c, rec)
		if i%2 == 1 {
			if err := c.ConfirmUpdate(c.LastUpdateID()); err != nil {
				t.Fatal(err)
			}
		}
	}
}
