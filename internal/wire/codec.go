// Windowsync - Windowed Data Synchronization for Lazy Client Viewports
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/windowsync

package wire

import (
	"errors"
	"fmt"
	"reflect"

	"github.com/fxamacker/cbor/v2"
	json "github.com/goccy/go-json"
)

// ErrUnknownCodec is returned by ForName for unsupported codec names.
var ErrUnknownCodec = errors.New("unknown codec")

// Codec serializes wire messages.
type Codec interface {
	// Name is the configuration name of the codec.
	Name() string

	// Binary reports whether encoded messages belong in binary websocket frames.
	Binary() bool

	EncodeOutbound(m *Outbound) ([]byte, error)
	DecodeOutbound(data []byte) (*Outbound, error)
	EncodeInbound(m *Inbound) ([]byte, error)
	DecodeInbound(data []byte) (*Inbound, error)
}

// ForName returns the codec registered under name ("json" or "cbor").
func ForName(name string) (Codec, error) {
	switch name {
	case "json", "":
		return JSON{}, nil
	case "cbor":
		return NewCBOR(), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownCodec, name)
	}
}

// JSON encodes messages as JSON text using goccy/go-json.
type JSON struct{}

func (JSON) Name() string { return "json" }
func (JSON) Binary() bool { return false }

func (JSON) EncodeOutbound(m *Outbound) ([]byte, error) {
	return json.Marshal(m)
}

func (JSON) DecodeOutbound(data []byte) (*Outbound, error) {
	var m Outbound
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("json decode outbound: %w", err)
	}
	return &m, nil
}

func (JSON) EncodeInbound(m *Inbound) ([]byte, error) {
	return json.Marshal(m)
}

func (JSON) DecodeInbound(data []byte) (*Inbound, error) {
	var m Inbound
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("json decode inbound: %w", err)
	}
	return &m, nil
}

// CBOR encodes messages with core deterministic CBOR (RFC 8949 section 4.2).
// Decoded maps use string keys so records look the same under both codecs.
type CBOR struct {
	enc cbor.EncMode
	dec cbor.DecMode
}

// maxCBORItems bounds arrays and maps in untrusted input.
const maxCBORItems = 4096

// NewCBOR builds a CBOR codec.
func NewCBOR() *CBOR {
	enc, err := cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("wire: cbor encode options: %v", err))
	}
	dec, err := cbor.DecOptions{
		DefaultMapType:   reflect.TypeOf(map[string]any(nil)),
		MaxArrayElements: maxCBORItems,
		MaxMapPairs:      maxCBORItems,
		DupMapKey:        cbor.DupMapKeyEnforcedAPF,
	}.DecMode()
	if err != nil {
		panic(fmt.Sprintf("wire: cbor decode options: %v", err))
	}
	return &CBOR{enc: enc, dec: dec}
}

func (*CBOR) Name() string { return "cbor" }
func (*CBOR) Binary() bool { return true }

func (c *CBOR) EncodeOutbound(m *Outbound) ([]byte, error) {
	return c.enc.Marshal(m)
}

func (c *CBOR) DecodeOutbound(data []byte) (*Outbound, error) {
	var m Outbound
	if err := c.dec.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("cbor decode outbound: %w", err)
	}
	return &m, nil
}

func (c *CBOR) EncodeInbound(m *Inbound) ([]byte, error) {
	return c.enc.Marshal(m)
}

func (c *CBOR) DecodeInbound(data []byte) (*Inbound, error) {
	var m Inbound
	if err := c.dec.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("cbor decode inbound: %w", err)
	}
	return &m, nil
}
