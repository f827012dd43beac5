// Windowsync - Windowed Data Synchronization for Lazy Client Viewports
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/windowsync

package generator

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/tomtom215/windowsync/internal/keymapper"
)

type city struct {
	Name       string
	Population int
}

type upperRenderer struct{}

func (upperRenderer) Render(c city, _ keymapper.Key) Record {
	return Record{"display": strings.ToUpper(c.Name)}
}

func TestComposite_Generate(t *testing.T) {
	c := NewComposite[city](
		Label("name", func(c city) string { return c.Name }),
		Func[city](func(c city, _ keymapper.Key) Record {
			return Record{"population": c.Population}
		}),
		FromRenderer[city](upperRenderer{}),
	)

	got := c.Generate(city{"Oslo", 700000}, "7")
	want := Record{
		"key":        "7",
		"name":       "Oslo",
		"population": 700000,
		"display":    "OSLO",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Generate mismatch (-want +got):\n%s", diff)
	}
}

func TestComposite_Idempotent(t *testing.T) {
	calls := 0
	c := NewComposite[city](Func[city](func(c city, key keymapper.Key) Record {
		calls++
		return Record{"label": c.Name + "#" + string(key)}
	}))

	item := city{"Lima", 1}
	first := c.Generate(item, "3")
	second := c.Generate(item, "3")

	if diff := cmp.Diff(first, second); diff != "" {
		t.Errorf("Repeated Generate differs (-first +second):\n%s", diff)
	}
	if calls != 2 {
		t.Errorf("Expected generator invoked twice, got %d", calls)
	}
}

func TestComposite_InsertionOrderWins(t *testing.T) {
	c := NewComposite[city](
		Label("label", func(city) string { return "first" }),
		Label("label", func(city) string { return "second" }),
	)

	if got := c.Generate(city{}, "1")["label"]; got != "second" {
		t.Errorf("label = %v, want second", got)
	}
}

func TestComposite_KeyCannotBeOverridden(t *testing.T) {
	c := NewComposite[city](Label(KeyField, func(city) string { return "forged" }))

	rec := c.Generate(city{}, "12")
	if rec.Key() != "12" {
		t.Errorf("Key() = %q, want 12", rec.Key())
	}
}

func TestComposite_RemoveRegistration(t *testing.T) {
	c := NewComposite[city]()
	reg := c.Add(Label("name", func(c city) string { return c.Name }))
	c.Add(Label("tag", func(city) string { return "x" }))

	reg.Remove()
	reg.Remove()

	if c.Len() != 1 {
		t.Fatalf("Len = %d, want 1", c.Len())
	}
	rec := c.Generate(city{Name: "Rome"}, "1")
	if _, ok := rec["name"]; ok {
		t.Error("Removed contributor still writes its field")
	}
	if rec["tag"] != "x" {
		t.Errorf("tag = %v, want x", rec["tag"])
	}
}

func TestRecord_Key(t *testing.T) {
	tests := []struct {
		name string
		rec  Record
		want keymapper.Key
	}{
		{"string", Record{KeyField: "4"}, "4"},
		{"typed key", Record{KeyField: keymapper.Key("5")}, "5"},
		{"missing", Record{}, ""},
		{"wrong type", Record{KeyField: 9}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.rec.Key(); got != tt.want {
				t.Errorf("Key() = %q, want %q", got, tt.want)
			}
		})
	}
}
