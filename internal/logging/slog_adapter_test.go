// Windowsync - Windowed Data Synchronization for Lazy Client Viewports
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/windowsync

package logging

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func TestSlogHandler_Levels(t *testing.T) {
	tests := []struct {
		level slog.Level
		want  string
	}{
		{slog.LevelDebug, "debug"},
		{slog.LevelInfo, "info"},
		{slog.LevelWarn, "warn"},
		{slog.LevelError, "error"},
		{slog.LevelDebug - 4, "trace"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			var buf bytes.Buffer
			logger := slog.New(NewSlogHandlerWithLogger(NewTestLogger(&buf).Level(zerolog.TraceLevel)))
			prev := zerolog.GlobalLevel()
			zerolog.SetGlobalLevel(zerolog.TraceLevel)
			defer zerolog.SetGlobalLevel(prev)

			logger.Log(context.Background(), tt.level, "msg")

			m := decodeLine(t, strings.TrimSpace(buf.String()))
			if m["level"] != tt.want {
				t.Errorf("level = %v, want %s", m["level"], tt.want)
			}
		})
	}
}

func TestSlogHandler_Enabled(t *testing.T) {
	h := NewSlogHandlerWithLogger(NewTestLogger(&bytes.Buffer{}).Level(zerolog.WarnLevel))
	if h.Enabled(context.Background(), slog.LevelInfo) {
		t.Error("info enabled on warn logger")
	}
	if !h.Enabled(context.Background(), slog.LevelError) {
		t.Error("error disabled on warn logger")
	}
}

func TestSlogHandler_Attrs(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(NewSlogHandlerWithLogger(NewTestLogger(&buf)))

	logger.With("supervisor", "windowsync").
		WithGroup("svc").
		Info("service restarted",
			"name", "hub",
			"failures", 2,
			"backoff", time.Second,
			"err", errors.New("panic"),
			slog.Group("cfg", "threshold", 5.0),
		)

	m := decodeLine(t, strings.TrimSpace(buf.String()))
	want := map[string]any{
		"supervisor":        "windowsync",
		"svc.name":          "hub",
		"svc.failures":      float64(2),
		"svc.err":           "panic",
		"svc.cfg.threshold": float64(5),
		"message":           "service restarted",
	}
	for k, v := range want {
		if m[k] != v {
			t.Errorf("%s = %v, want %v", k, m[k], v)
		}
	}
	if _, ok := m["svc.backoff"]; !ok {
		t.Error("missing svc.backoff")
	}
}

func TestSlogHandler_EmptyGroupAndAttrs(t *testing.T) {
	h := NewSlogHandlerWithLogger(NewTestLogger(&bytes.Buffer{}))
	if h.WithGroup("") != slog.Handler(h) {
		t.Error("WithGroup(\"\") returned a new handler")
	}
	if h.WithAttrs(nil) != slog.Handler(h) {
		t.Error("WithAttrs(nil) returned a new handler")
	}
}

func TestNewSlogLogger(t *testing.T) {
	buf := captureGlobal(t, "info")

	NewSlogLogger().Warn("from slog")

	if !strings.Contains(buf.String(), "from slog") {
		t.Errorf("slog logger did not write through global logger: %q", buf.String())
	}
}
