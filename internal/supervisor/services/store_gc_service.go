// Windowsync - Windowed Data Synchronization for Lazy Client Viewports
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/windowsync

package services

import (
	"context"
	"time"

	"github.com/tomtom215/windowsync/internal/logging"
)

// GarbageCollector is satisfied by *store.Store.
type GarbageCollector interface {
	CollectGarbage(ctx context.Context, discardRatio float64) (int, error)
}

// StoreGCService periodically garbage collects the row store's value log.
// A failed run is logged and retried on the next tick; it never restarts
// the service.
type StoreGCService struct {
	store        GarbageCollector
	interval     time.Duration
	discardRatio float64
	name         string
}

// NewStoreGCService creates the service. interval must be positive.
func NewStoreGCService(store GarbageCollector, interval time.Duration, discardRatio float64) *StoreGCService {
	return &StoreGCService{
		store:        store,
		interval:     interval,
		discardRatio: discardRatio,
		name:         "store-gc",
	}
}

// Serve implements suture.Service.
func (s *StoreGCService) Serve(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	logger := logging.WithComponent(s.name)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			start := time.Now()
			n, err := s.store.CollectGarbage(ctx, s.discardRatio)
			if err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				logger.Warn().Err(err).Int("rewritten", n).Msg("Value log GC failed")
				continue
			}
			if n > 0 {
				logger.Info().Int("rewritten", n).Dur("duration", time.Since(start)).Msg("Value log GC completed")
			}
		}
	}
}

func (s *StoreGCService) String() string {
	return s.name
}
