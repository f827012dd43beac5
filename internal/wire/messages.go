// Windowsync - Windowed Data Synchronization for Lazy Client Viewports
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/windowsync

package wire

import (
	"github.com/tomtom215/windowsync/internal/arrayupdater"
	"github.com/tomtom215/windowsync/internal/dataprovider"
	"github.com/tomtom215/windowsync/internal/generator"
)

// InboundType tags client-to-server messages.
type InboundType string

const (
	TypeSetRange      InboundType = "set_range"
	TypeConfirmUpdate InboundType = "confirm_update"
	TypeReset         InboundType = "reset"
	TypeFilter        InboundType = "filter"
	TypeSort          InboundType = "sort"
	TypePing          InboundType = "ping"
)

// Inbound is a client request. Only the fields of its Type are meaningful.
type Inbound struct {
	Type     InboundType              `json:"type" cbor:"type" validate:"required,oneof=set_range confirm_update reset filter sort ping"`
	Offset   int                      `json:"offset,omitempty" cbor:"offset,omitempty" validate:"gte=0"`
	Length   int                      `json:"length,omitempty" cbor:"length,omitempty" validate:"gte=0"`
	UpdateID uint64                   `json:"update_id,omitempty" cbor:"update_id,omitempty"`
	Filter   string                   `json:"filter,omitempty" cbor:"filter,omitempty" validate:"max=200"`
	Sort     []dataprovider.SortOrder `json:"sort,omitempty" cbor:"sort,omitempty" validate:"max=4,dive"`
	Seq      uint64                   `json:"seq,omitempty" cbor:"seq,omitempty"`
}

// OutboundType tags server-to-client messages.
type OutboundType string

const (
	TypeWelcome    OutboundType = "welcome"
	TypeUpdate     OutboundType = "update"
	TypeUpdateData OutboundType = "update_data"
	TypeError      OutboundType = "error"
	TypePong       OutboundType = "pong"
)

// Error codes carried in error messages.
const (
	CodeFetchFailed    = "FETCH_FAILED"
	CodeInvalidRequest = "INVALID_REQUEST"
	CodeUnknownUpdate  = "UNKNOWN_UPDATE"
	CodeBadMessage     = "BAD_MESSAGE"
)

// ErrorBody describes a failed request or fetch.
type ErrorBody struct {
	Code    string `json:"code" cbor:"code"`
	Message string `json:"message" cbor:"message"`
}

// Outbound is a server message. Only the fields of its Type are set.
type Outbound struct {
	Type    OutboundType        `json:"type" cbor:"type"`
	Session string              `json:"session,omitempty" cbor:"session,omitempty"`
	Codec   string              `json:"codec,omitempty" cbor:"codec,omitempty"`
	Update  *arrayupdater.Frame `json:"update,omitempty" cbor:"update,omitempty"`
	Items   []generator.Record  `json:"items,omitempty" cbor:"items,omitempty"`
	Error   *ErrorBody          `json:"error,omitempty" cbor:"error,omitempty"`
	Seq     uint64              `json:"seq,omitempty" cbor:"seq,omitempty"`
}

// Welcome builds the first message of a session.
func Welcome(session, codec string) *Outbound {
	return &Outbound{Type: TypeWelcome, Session: session, Codec: codec}
}

// Update wraps a committed frame.
func Update(f arrayupdater.Frame) *Outbound {
	return &Outbound{Type: TypeUpdate, Update: &f}
}

// UpdateData wraps out-of-band record refreshes.
func UpdateData(items []generator.Record) *Outbound {
	return &Outbound{Type: TypeUpdateData, Items: items}
}

// Errorf builds an error message.
func Errorf(code, message string) *Outbound {
	return &Outbound{Type: TypeError, Error: &ErrorBody{Code: code, Message: message}}
}

// Pong answers a ping.
func Pong(seq uint64) *Outbound {
	return &Outbound{Type: TypePong, Seq: seq}
}
