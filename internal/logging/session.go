// Windowsync - Windowed Data Synchronization for Lazy Client Viewports
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/windowsync

package logging

import (
	"time"

	"github.com/rs/zerolog"
)

// SessionEvent is one websocket session lifecycle event.
type SessionEvent struct {
	Event      string
	SessionID  string
	RemoteAddr string
	UserAgent  string
	Codec      string
	Duration   time.Duration
	Error      string
}

// SessionLogger logs websocket session lifecycle events.
type SessionLogger struct {
	logger zerolog.Logger
}

// NewSessionLogger creates a session logger on the global logger.
func NewSessionLogger() *SessionLogger {
	return &SessionLogger{logger: WithComponent("session")}
}

// NewSessionLoggerWithLogger creates a session logger on a custom logger.
//
//nolint:gocritic // zerolog.Logger is designed to be passed by value
func NewSessionLoggerWithLogger(logger zerolog.Logger) *SessionLogger {
	return &SessionLogger{logger: logger.With().Str("component", "session").Logger()}
}

// LogEvent writes ev with the session ID masked and the user agent truncated.
// Events carrying an error are logged at warn level.
func (l *SessionLogger) LogEvent(ev *SessionEvent) {
	e := l.logger.Info()
	if ev.Error != "" {
		e = l.logger.Warn().Str("error", truncateString(ev.Error, 200))
	}
	e = e.Str("event", ev.Event)

	if ev.SessionID != "" {
		e = e.Str("session_id", SanitizeSessionID(ev.SessionID))
	}
	if ev.RemoteAddr != "" {
		e = e.Str("remote_addr", ev.RemoteAddr)
	}
	if ev.UserAgent != "" {
		e = e.Str("user_agent", truncateString(ev.UserAgent, 100))
	}
	if ev.Codec != "" {
		e = e.Str("codec", ev.Codec)
	}
	if ev.Duration > 0 {
		e = e.Dur("duration", ev.Duration)
	}
	e.Msg("")
}

// LogConnected logs a new session.
func (l *SessionLogger) LogConnected(sessionID, remoteAddr, userAgent, codec string) {
	l.LogEvent(&SessionEvent{
		Event:      "session_connected",
		SessionID:  sessionID,
		RemoteAddr: remoteAddr,
		UserAgent:  userAgent,
		Codec:      codec,
	})
}

// LogDisconnected logs the end of a session.
func (l *SessionLogger) LogDisconnected(sessionID string, lifetime time.Duration) {
	l.LogEvent(&SessionEvent{
		Event:     "session_closed",
		SessionID: sessionID,
		Duration:  lifetime,
	})
}

// LogProtocolError logs a malformed or rejected client message.
func (l *SessionLogger) LogProtocolError(sessionID, reason string) {
	l.LogEvent(&SessionEvent{
		Event:     "protocol_error",
		SessionID: sessionID,
		Error:     reason,
	})
}

// LogSlowClient logs a client disconnected because its send buffer filled up.
func (l *SessionLogger) LogSlowClient(sessionID string) {
	l.LogEvent(&SessionEvent{
		Event:     "slow_client",
		SessionID: sessionID,
		Error:     "send buffer full",
	})
}

// SanitizeSessionID masks a session ID, keeping the first and last 2 characters.
// Example: "3f9a1c2e" -> "3f...2e"
func SanitizeSessionID(id string) string {
	if id == "" {
		return ""
	}
	if len(id) <= 4 {
		return "***"
	}
	return id[:2] + "..." + id[len(id)-2:]
}

func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
