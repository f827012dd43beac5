// Windowsync - Windowed Data Synchronization for Lazy Client Viewports
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/windowsync

package api

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"
	"github.com/google/uuid"
	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/tomtom215/windowsync/internal/dataprovider"
	"github.com/tomtom215/windowsync/internal/logging"
	"github.com/tomtom215/windowsync/internal/store"
	"github.com/tomtom215/windowsync/internal/validation"
)

// ListRows returns one page of rows in the order a viewport with the same
// filter and sort would see them.
func (h *Handler) ListRows(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	req := parseRowsRequest(r, defaultPageLimit)
	if verr := validation.ValidateStruct(&req); verr != nil {
		rw.ValidationError(verr)
		return
	}

	q := dataprovider.Query{Offset: req.Offset, Limit: req.Limit, SortOrders: req.Sort}
	if req.Filter != "" {
		q.Filter = req.Filter
	}

	total, err := h.rows.Size(r.Context(), q)
	if err != nil {
		h.readError(rw, err)
		return
	}
	rows, err := h.rows.Fetch(r.Context(), q)
	if err != nil {
		h.readError(rw, err)
		return
	}

	rw.SuccessWithPagination(rows, &PaginationMeta{
		Total:   int64(total),
		Count:   len(rows),
		Offset:  req.Offset,
		Limit:   req.Limit,
		HasMore: req.Offset+len(rows) < total,
	})
}

// CreateRow appends a row.
func (h *Handler) CreateRow(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	req, ok := decodeRowRequest(rw, w, r)
	if !ok {
		return
	}

	row, err := h.store.Append(r.Context(), req.Title, req.Category, req.Value)
	if err != nil {
		rw.StoreError(err)
		return
	}
	logging.Ctx(r.Context()).Info().Str("row_id", row.ID.String()).Uint64("seq", row.Seq).Msg("Row created")
	rw.Created(row)
}

// GetRow returns one row by ID.
func (h *Handler) GetRow(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	id, ok := rowID(rw, r)
	if !ok {
		return
	}

	row, err := h.store.Get(r.Context(), id)
	if err != nil {
		h.writeError(rw, err)
		return
	}
	rw.Success(row)
}

// UpdateRow replaces the editable fields of a row.
func (h *Handler) UpdateRow(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	id, ok := rowID(rw, r)
	if !ok {
		return
	}
	req, ok := decodeRowRequest(rw, w, r)
	if !ok {
		return
	}

	row, err := h.store.Update(r.Context(), store.Row{
		ID:       id,
		Title:    req.Title,
		Category: req.Category,
		Value:    req.Value,
	})
	if err != nil {
		h.writeError(rw, err)
		return
	}
	rw.Success(row)
}

// DeleteRow removes a row.
func (h *Handler) DeleteRow(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	id, ok := rowID(rw, r)
	if !ok {
		return
	}

	if err := h.store.Delete(r.Context(), id); err != nil {
		h.writeError(rw, err)
		return
	}
	logging.Ctx(r.Context()).Info().Str("row_id", id.String()).Msg("Row deleted")
	rw.NoContent()
}

func rowID(rw *ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		rw.BadRequest("row id must be a UUID")
		return uuid.Nil, false
	}
	return id, true
}

func decodeRowRequest(rw *ResponseWriter, w http.ResponseWriter, r *http.Request) (RowRequest, bool) {
	var req RowRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		rw.BadRequest("request body must be a JSON row")
		return req, false
	}
	if verr := validation.ValidateStruct(&req); verr != nil {
		rw.ValidationError(verr)
		return req, false
	}
	return req, true
}

// writeError maps store errors from single-row operations.
func (h *Handler) writeError(rw *ResponseWriter, err error) {
	if errors.Is(err, store.ErrNotFound) {
		rw.NotFound("row not found")
		return
	}
	rw.StoreError(err)
}

// readError maps errors from the read provider.
func (h *Handler) readError(rw *ResponseWriter, err error) {
	switch {
	case errors.Is(err, dataprovider.ErrUnknownSortProperty):
		rw.BadRequest(err.Error())
	case isBreakerRejection(err):
		rw.ServiceUnavailable("row reads are temporarily unavailable")
	default:
		rw.StoreError(err)
	}
}

func isBreakerRejection(err error) bool {
	return errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests)
}
