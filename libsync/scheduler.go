package libsync

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/dupewatch/dupewatch/idgen"
	"github.com/dupewatch/dupewatch/library"
)

// ErrUnknownPlatform is returned by SyncPlatform when no configured
// source handles the requested platform.
var ErrUnknownPlatform = errors.New("libsync: no source for platform")

// Scheduler resyncs every configured source on an interval. One failing
// source does not block the others, and a failed fetch leaves that
// platform's stored snapshot untouched.
type Scheduler struct {
	sources  []Source
	store    *library.Store
	interval time.Duration
	logger   *slog.Logger
}

// NewScheduler creates a Scheduler. Interval defaults to 30 minutes.
func NewScheduler(sources []Source, store *library.Store, interval time.Duration, logger *slog.Logger) *Scheduler {
	if interval <= 0 {
		interval = 30 * time.Minute
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{
		sources:  sources,
		store:    store,
		interval: interval,
		logger:   logger,
	}
}

// Run syncs once immediately, then on every tick. Blocks until ctx is
// cancelled.
func (s *Scheduler) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.SyncAll(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.SyncAll(ctx)
		}
	}
}

// SyncAll fetches and stores every source. Each run is tagged with an
// ID so one run's per-platform log lines can be correlated.
func (s *Scheduler) SyncAll(ctx context.Context) {
	log := s.logger.With("run", idgen.New())
	for _, src := range s.sources {
		if err := s.syncOne(ctx, src); err != nil {
			log.Error("libsync: sync failed",
				"platform", src.Platform(), "error", err)
		}
	}
}

// SyncPlatform syncs a single platform by name, for manual triggers.
func (s *Scheduler) SyncPlatform(ctx context.Context, platform string) error {
	for _, src := range s.sources {
		if strings.EqualFold(src.Platform(), platform) {
			return s.syncOne(ctx, src)
		}
	}
	return fmt.Errorf("%w: %q", ErrUnknownPlatform, platform)
}

func (s *Scheduler) syncOne(ctx context.Context, src Source) error {
	entries, err := src.Fetch(ctx)
	if err != nil {
		return err
	}
	if err := s.store.ReplacePlatform(ctx, src.Platform(), entries); err != nil {
		return err
	}
	s.logger.Info("libsync: synced",
		"platform", src.Platform(), "entries", len(entries))
	return nil
}
