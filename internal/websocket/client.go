// Windowsync - Windowed Data Synchronization for Lazy Client Viewports
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/windowsync

package websocket

import (
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/tomtom215/windowsync/internal/logging"
	"github.com/tomtom215/windowsync/internal/metrics"
	"github.com/tomtom215/windowsync/internal/validation"
	"github.com/tomtom215/windowsync/internal/wire"
)

var (
	// ErrClientClosed is returned when sending to a closed client.
	ErrClientClosed = errors.New("websocket client closed")

	// ErrSlowClient is returned when a client's send buffer is full. The client is closed.
	ErrSlowClient = errors.New("websocket client send buffer full")
)

// clientIDCounter gives clients monotonically increasing IDs for deterministic ordering.
var clientIDCounter atomic.Uint64

// Client is a middleman between the websocket connection and its session.
type Client struct {
	id      uint64
	hub     *Hub
	conn    *websocket.Conn
	codec   wire.Codec
	cfg     Config
	session *Session
	log     *logging.SessionLogger

	send      chan []byte
	done      chan struct{}
	closeOnce sync.Once
	onClose   func()
}

func newClient(hub *Hub, conn *websocket.Conn, codec wire.Codec, cfg Config, log *logging.SessionLogger) *Client {
	return &Client{
		id:    clientIDCounter.Add(1),
		hub:   hub,
		conn:  conn,
		codec: codec,
		cfg:   cfg,
		log:   log,
		send:  make(chan []byte, cfg.SendBuffer),
		done:  make(chan struct{}),
	}
}

// ID returns the client's unique identifier.
func (c *Client) ID() uint64 {
	return c.id
}

// Close stops the pumps and the session. Safe to call more than once.
func (c *Client) Close() {
	c.closeOnce.Do(func() {
		close(c.done)
		if c.onClose != nil {
			c.onClose()
		}
	})
}

// enqueue implements outbox. It never blocks.
func (c *Client) enqueue(data []byte) error {
	select {
	case <-c.done:
		return ErrClientClosed
	default:
	}

	select {
	case c.send <- data:
		return nil
	default:
		metrics.WSErrors.WithLabelValues("slow_client").Inc()
		if c.session != nil {
			c.log.LogSlowClient(c.session.ID())
		}
		c.Close()
		return ErrSlowClient
	}
}

// readPump decodes client messages and submits them to the session.
func (c *Client) readPump() {
	defer func() {
		c.hub.unregister(c)
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(c.cfg.MaxMessageSize)
	if err := c.conn.SetReadDeadline(time.Now().Add(c.cfg.PongWait)); err != nil {
		logging.Error().Err(err).Msg("failed to set read deadline")
		return
	}
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(c.cfg.PongWait))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				metrics.WSErrors.WithLabelValues("read").Inc()
				logging.Warn().Err(err).Uint64("client_id", c.id).Msg("unexpected websocket close error")
			}
			return
		}

		msg, err := c.codec.DecodeInbound(data)
		if err != nil {
			metrics.WSErrors.WithLabelValues("decode").Inc()
			c.log.LogProtocolError(c.session.ID(), err.Error())
			_ = c.session.send(wire.Errorf(wire.CodeBadMessage, "message could not be decoded"))
			continue
		}
		metrics.RecordWSMessage(false, string(msg.Type))

		if verr := validation.ValidateStruct(msg); verr != nil {
			_ = c.session.send(wire.Errorf(wire.CodeInvalidRequest, verr.Error()))
			continue
		}
		if !c.session.Submit(msg) {
			return
		}
	}
}

// writePump writes queued messages and keepalive pings to the connection.
func (c *Client) writePump() {
	ticker := time.NewTicker(c.cfg.PingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	frameType := websocket.TextMessage
	if c.codec.Binary() {
		frameType = websocket.BinaryMessage
	}

	for {
		select {
		case data := <-c.send:
			if err := c.conn.SetWriteDeadline(time.Now().Add(c.cfg.WriteWait)); err != nil {
				return
			}
			if err := c.conn.WriteMessage(frameType, data); err != nil {
				metrics.WSErrors.WithLabelValues("write").Inc()
				logging.Debug().Err(err).Uint64("client_id", c.id).Msg("websocket write failed")
				c.Close()
				return
			}

		case <-ticker.C:
			if err := c.conn.SetWriteDeadline(time.Now().Add(c.cfg.WriteWait)); err != nil {
				return
			}
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.Close()
				return
			}

		case <-c.done:
			_ = c.conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(c.cfg.WriteWait))
			return
		}
	}
}
