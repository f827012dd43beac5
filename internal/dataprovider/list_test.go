// Windowsync - Windowed Data Synchronization for Lazy Client Viewports
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/windowsync

package dataprovider

import (
	"cmp"
	"context"
	"errors"
	"strings"
	"testing"

	gocmp "github.com/google/go-cmp/cmp"
)

type fruit struct {
	Name  string
	Price int
}

func newFruitProvider() *ListProvider[fruit] {
	return NewListProvider([]fruit{
		{"banana", 3}, {"apple", 5}, {"cherry", 9}, {"avocado", 7}, {"blueberry", 2},
	},
		WithFilter(func(f fruit, filter any) bool {
			prefix, _ := filter.(string)
			return strings.HasPrefix(f.Name, prefix)
		}),
		WithComparator("name", func(a, b fruit) int { return strings.Compare(a.Name, b.Name) }),
		WithComparator("price", func(a, b fruit) int { return cmp.Compare(a.Price, b.Price) }),
	)
}

func TestListProvider_Size(t *testing.T) {
	p := newFruitProvider()
	ctx := context.Background()

	tests := []struct {
		name   string
		filter any
		want   int
	}{
		{"no filter", nil, 5},
		{"prefix a", "a", 2},
		{"prefix b", "b", 2},
		{"no match", "z", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := p.Size(ctx, Query{Filter: tt.filter})
			if err != nil {
				t.Fatalf("Size failed: %v", err)
			}
			if got != tt.want {
				t.Errorf("Size = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestListProvider_Fetch(t *testing.T) {
	p := newFruitProvider()
	ctx := context.Background()

	tests := []struct {
		name  string
		query Query
		want  []string
	}{
		{
			name:  "first page",
			query: Query{Offset: 0, Limit: 2},
			want:  []string{"banana", "apple"},
		},
		{
			name:  "window past end is truncated",
			query: Query{Offset: 3, Limit: 10},
			want:  []string{"avocado", "blueberry"},
		},
		{
			name:  "offset beyond size",
			query: Query{Offset: 50, Limit: 10},
			want:  []string{},
		},
		{
			name:  "sorted by name",
			query: Query{Offset: 0, Limit: 3, SortOrders: []SortOrder{{Property: "name"}}},
			want:  []string{"apple", "avocado", "banana"},
		},
		{
			name:  "sorted by price descending",
			query: Query{Offset: 0, Limit: 2, SortOrders: []SortOrder{{Property: "price", Direction: Descending}}},
			want:  []string{"cherry", "avocado"},
		},
		{
			name:  "filtered and sorted",
			query: Query{Offset: 0, Limit: 5, Filter: "a", SortOrders: []SortOrder{{Property: "price"}}},
			want:  []string{"apple", "avocado"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			items, err := p.Fetch(ctx, tt.query)
			if err != nil {
				t.Fatalf("Fetch failed: %v", err)
			}
			got := make([]string, 0, len(items))
			for _, it := range items {
				got = append(got, it.Name)
			}
			if diff := gocmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Fetch mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestListProvider_UnknownSortProperty(t *testing.T) {
	p := newFruitProvider()

	_, err := p.Fetch(context.Background(), Query{Limit: 5, SortOrders: []SortOrder{{Property: "color"}}})
	if !errors.Is(err, ErrUnknownSortProperty) {
		t.Errorf("Expected ErrUnknownSortProperty, got %v", err)
	}
}

func TestListProvider_CanceledContext(t *testing.T) {
	p := newFruitProvider()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := p.Size(ctx, Query{}); !errors.Is(err, context.Canceled) {
		t.Errorf("Size: expected context.Canceled, got %v", err)
	}
	if _, err := p.Fetch(ctx, Query{Limit: 1}); !errors.Is(err, context.Canceled) {
		t.Errorf("Fetch: expected context.Canceled, got %v", err)
	}
}

func TestListProvider_MutationsNotify(t *testing.T) {
	p := newFruitProvider()

	var events []ChangeEvent[fruit]
	reg := p.AddDataChangeListener(func(ev ChangeEvent[fruit]) {
		events = append(events, ev)
	})

	p.Append(fruit{"date", 4})
	if err := p.Set(0, fruit{"banana", 1}); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if err := p.RemoveAt(1); err != nil {
		t.Fatalf("RemoveAt failed: %v", err)
	}
	if err := p.Insert(0, fruit{"elderberry", 8}); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}

	if len(events) != 4 {
		t.Fatalf("Expected 4 events, got %d", len(events))
	}
	if events[1].Kind != ChangeRefresh || events[1].Item.Price != 1 {
		t.Errorf("Expected refresh event for updated banana, got %+v", events[1])
	}
	for _, i := range []int{0, 2, 3} {
		if events[i].Kind != ChangeReset {
			t.Errorf("Event %d: expected ChangeReset, got %v", i, events[i].Kind)
		}
	}

	reg.Remove()
	p.Replace(nil)
	if len(events) != 4 {
		t.Errorf("Listener still notified after Remove")
	}
	if got := len(p.Items()); got != 0 {
		t.Errorf("Expected empty provider after Replace(nil), got %d items", got)
	}
}

func TestListProvider_IndexErrors(t *testing.T) {
	p := NewListProvider([]int{1, 2})

	if err := p.Set(2, 9); err == nil {
		t.Error("Expected error for Set out of range")
	}
	if err := p.RemoveAt(-1); err == nil {
		t.Error("Expected error for RemoveAt out of range")
	}
	if err := p.Insert(3, 9); err == nil {
		t.Error("Expected error for Insert out of range")
	}
}
