// Windowsync - Windowed Data Synchronization for Lazy Client Viewports
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/windowsync

package websocket

import (
	"context"
	"fmt"
	"net/http"
	"slices"
	"time"

	"github.com/gorilla/websocket"

	"github.com/tomtom215/windowsync/internal/dataprovider"
	"github.com/tomtom215/windowsync/internal/logging"
	"github.com/tomtom215/windowsync/internal/store"
	"github.com/tomtom215/windowsync/internal/wire"
)

// Config holds per-connection settings.
type Config struct {
	Codec          string
	PageSize       int
	MaxRange       int
	SendBuffer     int
	InboxSize      int
	WriteWait      time.Duration
	PongWait       time.Duration
	PingPeriod     time.Duration
	MaxMessageSize int64

	// AllowedOrigins lists accepted Origin headers. "*" accepts any origin.
	AllowedOrigins []string
}

// DefaultConfig returns the connection defaults.
func DefaultConfig() Config {
	return Config{
		Codec:          "json",
		PageSize:       100,
		MaxRange:       1000,
		SendBuffer:     256,
		InboxSize:      64,
		WriteWait:      10 * time.Second,
		PongWait:       60 * time.Second,
		PingPeriod:     54 * time.Second,
		MaxMessageSize: 64 << 10,
		AllowedOrigins: []string{"*"},
	}
}

// Handler upgrades HTTP requests and starts a client and session per connection.
type Handler struct {
	hub      *Hub
	provider dataprovider.DataProvider[store.Row]
	cfg      Config
	upgrader websocket.Upgrader
	sessions *logging.SessionLogger
}

// NewHandler creates the /ws endpoint handler.
func NewHandler(hub *Hub, provider dataprovider.DataProvider[store.Row], cfg Config) (*Handler, error) {
	if _, err := wire.ForName(cfg.Codec); err != nil {
		return nil, err
	}
	h := &Handler{
		hub:      hub,
		provider: provider,
		cfg:      cfg,
		sessions: logging.NewSessionLogger(),
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  4096,
		WriteBufferSize: 4096,
		CheckOrigin:     h.checkOrigin,
	}
	return h, nil
}

func (h *Handler) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" || slices.Contains(h.cfg.AllowedOrigins, "*") {
		return true
	}
	return slices.Contains(h.cfg.AllowedOrigins, origin)
}

// ServeHTTP implements http.Handler.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("codec")
	if name == "" {
		name = h.cfg.Codec
	}
	codec, err := wire.ForName(name)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written the HTTP error response.
		logging.Ctx(r.Context()).Debug().Err(err).Msg("websocket upgrade failed")
		return
	}

	if err := h.start(r.Context(), conn, codec, r.RemoteAddr, r.UserAgent()); err != nil {
		logging.Ctx(r.Context()).Warn().Err(err).Msg("websocket session setup failed")
		_ = conn.Close()
	}
}

func (h *Handler) start(reqCtx context.Context, conn *websocket.Conn, codec wire.Codec, remoteAddr, userAgent string) error {
	id := logging.GenerateSessionID()
	client := newClient(h.hub, conn, codec, h.cfg, h.sessions)

	session, err := NewSession(id, h.provider, client, codec, h.cfg)
	if err != nil {
		return err
	}
	client.session = session

	ctx, cancel := context.WithCancel(logging.ContextWithSessionID(context.Background(), id))
	opened := time.Now()
	client.onClose = func() {
		cancel()
		h.sessions.LogDisconnected(id, time.Since(opened))
	}

	if err := h.hub.register(reqCtx, client); err != nil {
		cancel()
		return fmt.Errorf("register client: %w", err)
	}
	h.sessions.LogConnected(id, remoteAddr, userAgent, codec.Name())

	if err := session.send(wire.Welcome(id, codec.Name())); err != nil {
		h.hub.unregister(client)
		return fmt.Errorf("send welcome: %w", err)
	}

	go client.writePump()
	go client.readPump()
	go session.Run(ctx)
	return nil
}
