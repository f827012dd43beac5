// Windowsync - Windowed Data Synchronization for Lazy Client Viewports
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/windowsync

/*
Package websocket serves windowed row synchronization to browser clients over
gorilla/websocket.

# Architecture

Hub tracks connected clients and closes them all on shutdown. It runs as a
supervised service (RunWithContext) and processes registrations with
priority-based selection so shutdown always wins.

Each connection is a Client with the usual pump pair:

	readPump   conn -> decode -> validate -> Session inbox
	writePump  send buffer -> conn, plus keepalive pings

and a Session owning one DataCommunicator. The session goroutine is the only
goroutine that touches the communicator: client messages, store change
events and fetch completions all arrive through its inbox. Provider fetches
run on their own goroutine (FlushAsync) and post their completion back.

# Backpressure

The read side blocks while the inbox is full, slowing a chatty client down.
Store change events never block the writer that caused them; when a
session's inbox is full the event is dropped and replaced by a full window
reset. An outbound buffer that fills up disconnects the client.

# Codecs

The codec is chosen per connection with ?codec=json or ?codec=cbor,
defaulting to the server configuration. JSON uses text frames and CBOR
binary frames.
*/
package websocket
