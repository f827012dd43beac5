// Windowsync - Windowed Data Synchronization for Lazy Client Viewports
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/windowsync

/*
Package wire defines the websocket messages exchanged between a Windowsync
server session and its client, and the codecs that serialize them.

Every message is a flat envelope tagged by Type. Clients send Inbound
messages:

	set_range       {"offset": 200, "length": 50}
	confirm_update  {"update_id": 7}
	reset           {}
	filter          {"filter": "alpha"}
	sort            {"sort": [{"property": "value", "direction": "desc"}]}
	ping            {"seq": 3}

and receive Outbound messages:

	welcome      session ID and codec
	update       one committed frame of resize, clear and set operations
	update_data  out-of-band record refreshes for rows already in the window
	error        code and message (FETCH_FAILED, INVALID_REQUEST, UNKNOWN_UPDATE, BAD_MESSAGE)
	pong         echo of a ping's seq

Two codecs are provided. JSON (goccy/go-json) travels in text frames. CBOR
(fxamacker/cbor, core deterministic encoding) travels in binary frames.
*/
package wire
