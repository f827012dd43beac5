// Windowsync - Windowed Data Synchronization for Lazy Client Viewports
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/windowsync

package api

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/tomtom215/windowsync/internal/dataprovider"
)

// RowsRequest holds the validated query parameters of GET /api/v1/rows.
//
// Sort uses "property[:direction]" pairs separated by commas, for example
// sort=value:desc,title.
type RowsRequest struct {
	Offset int                      `json:"offset" validate:"min=0"`
	Limit  int                      `json:"limit" validate:"min=1,max=1000"`
	Filter string                   `json:"filter" validate:"max=200"`
	Sort   []dataprovider.SortOrder `json:"sort" validate:"max=4,dive"`
}

// RowRequest is the body of POST /api/v1/rows and PUT /api/v1/rows/{id}.
type RowRequest struct {
	Title    string  `json:"title" validate:"required,max=200"`
	Category string  `json:"category" validate:"max=64"`
	Value    float64 `json:"value"`
}

// parseRowsRequest reads the list parameters. Malformed integers fall back
// to the defaults and are then subject to validation like any other value.
func parseRowsRequest(r *http.Request, defaultLimit int) RowsRequest {
	q := r.URL.Query()
	return RowsRequest{
		Offset: getIntParam(q.Get("offset"), 0),
		Limit:  getIntParam(q.Get("limit"), defaultLimit),
		Filter: q.Get("filter"),
		Sort:   parseSortParam(q.Get("sort")),
	}
}

func getIntParam(s string, fallback int) int {
	if s == "" {
		return fallback
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return fallback
	}
	return n
}

func parseSortParam(s string) []dataprovider.SortOrder {
	if s == "" {
		return nil
	}
	var orders []dataprovider.SortOrder
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		property, direction, _ := strings.Cut(part, ":")
		orders = append(orders, dataprovider.SortOrder{
			Property:  property,
			Direction: dataprovider.SortDirection(strings.ToLower(direction)),
		})
	}
	return orders
}
