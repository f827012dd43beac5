// Windowsync - Windowed Data Synchronization for Lazy Client Viewports
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/windowsync

package store

import (
	"cmp"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/tomtom215/windowsync/internal/dataprovider"
	"github.com/tomtom215/windowsync/internal/generator"
	"github.com/tomtom215/windowsync/internal/keymapper"
)

// Row is one record of the dataset.
type Row struct {
	ID        uuid.UUID `json:"id"`
	Seq       uint64    `json:"seq"`
	Title     string    `json:"title"`
	Category  string    `json:"category"`
	Value     float64   `json:"value"`
	UpdatedAt time.Time `json:"updated_at"`
}

// comparators orders rows per sort property.
var comparators = map[string]func(a, b Row) int{
	"title": func(a, b Row) int { return strings.Compare(a.Title, b.Title) },
	"value": func(a, b Row) int { return cmp.Compare(a.Value, b.Value) },
	"seq":   func(a, b Row) int { return cmp.Compare(a.Seq, b.Seq) },
}

// SortProperties lists the accepted sort property names.
func SortProperties() []string {
	return []string{"seq", "title", "value"}
}

func rowComparator(orders []dataprovider.SortOrder) (func(a, b Row) int, error) {
	chain := make([]func(a, b Row) int, 0, len(orders)+1)
	for _, o := range orders {
		base, ok := comparators[o.Property]
		if !ok {
			return nil, fmt.Errorf("%w: %q", dataprovider.ErrUnknownSortProperty, o.Property)
		}
		if o.Direction == dataprovider.Descending {
			chain = append(chain, func(a, b Row) int { return base(b, a) })
		} else {
			chain = append(chain, base)
		}
	}
	// Ties fall back to insertion order so paging is deterministic.
	chain = append(chain, comparators["seq"])

	return func(a, b Row) int {
		for _, c := range chain {
			if r := c(a, b); r != 0 {
				return r
			}
		}
		return 0
	}, nil
}

// filterText extracts the title filter from a query filter value.
func filterText(filter any) string {
	s, _ := filter.(string)
	return strings.ToLower(strings.TrimSpace(s))
}

func (r *Row) matches(text string) bool {
	return text == "" || strings.Contains(strings.ToLower(r.Title), text)
}

// Generator renders rows for the client. The communicator adds the key field.
func Generator() generator.DataGenerator[Row] {
	return generator.Func[Row](func(r Row, _ keymapper.Key) generator.Record {
		return generator.Record{
			"id":         r.ID.String(),
			"title":      r.Title,
			"category":   r.Category,
			"value":      r.Value,
			"updated_at": r.UpdatedAt.UTC().Format(time.RFC3339),
		}
	})
}
