// Command dupewatch is the ownership-warning daemon. It attaches to a
// running Chrome, watches storefront tabs, and flags games the user
// already owns on another platform.
//
// Usage:
//
//	dupewatch -config dupewatch.yaml        # full daemon
//	dupewatch -url https://store.steampowered.com/app/367520/
//	                                        # open one page and watch it
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	_ "modernc.org/sqlite"

	"github.com/dupewatch/dupewatch/admin"
	"github.com/dupewatch/dupewatch/library"
	"github.com/dupewatch/dupewatch/libsync"
	"github.com/dupewatch/dupewatch/pagewatch"
)

func main() {
	configPath := flag.String("config", "", "path to dupewatch.yaml config file")
	singleURL := flag.String("url", "", "open a storefront URL in a new tab and watch it")
	logLevel := flag.String("log-level", "info", "log level: debug, info, warn, error")
	flag.Parse()

	var level slog.Level
	switch *logLevel {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, logger, *configPath, *singleURL); err != nil {
		logger.Error("dupewatch: fatal", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, logger *slog.Logger, configPath, singleURL string) error {
	cfg, err := loadDaemonConfig(configPath)
	if err != nil {
		return err
	}

	store, err := library.Open(cfg.DBPath, logger)
	if err != nil {
		return fmt.Errorf("open library: %w", err)
	}
	defer store.Close()

	sched := buildScheduler(cfg, store, logger)
	if sched != nil {
		go sched.Run(ctx)
	}

	if cfg.Sync.ImportDir != "" {
		iw := libsync.NewImportWatcher(cfg.Sync.ImportDir, cfg.Sync.ImportPlatform, store, logger)
		go func() {
			if err := iw.Run(ctx); err != nil {
				logger.Error("dupewatch: import watcher", "error", err)
			}
		}()
	}

	watcher := pagewatch.New(&cfg.Watch, store, logger)
	if err := watcher.Start(ctx); err != nil {
		return fmt.Errorf("start watcher: %w", err)
	}
	defer watcher.Stop()

	if singleURL != "" {
		if err := watcher.OpenAndWatch(ctx, singleURL); err != nil {
			return err
		}
	}

	adminErr := make(chan error, 1)
	var adminSrv *http.Server
	if cfg.Admin.enabled() {
		adminSrv = startAdmin(cfg, store, watcher, sched, logger, adminErr)
	} else {
		logger.Info("dupewatch: admin api disabled")
	}

	select {
	case <-ctx.Done():
	case err := <-adminErr:
		return fmt.Errorf("admin server: %w", err)
	}

	if adminSrv != nil {
		shutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := adminSrv.Shutdown(shutCtx); err != nil {
			logger.Warn("dupewatch: admin shutdown", "error", err)
		}
	}
	return nil
}

func buildScheduler(cfg *daemonConfig, store *library.Store, logger *slog.Logger) *libsync.Scheduler {
	var sources []libsync.Source
	if cfg.Sync.Steam.enabled() {
		sources = append(sources, libsync.NewSteam(cfg.Sync.Steam.APIKey, cfg.Sync.Steam.SteamID, logger))
	}
	if cfg.Sync.Epic.enabled() {
		sources = append(sources, libsync.NewEpic(cfg.Sync.Epic.Cookie, logger))
	}
	if len(sources) == 0 {
		logger.Info("dupewatch: no sync sources configured, library is import-only")
		return nil
	}
	return libsync.NewScheduler(sources, store, cfg.Sync.Interval, logger)
}

func startAdmin(cfg *daemonConfig, store *library.Store, watcher *pagewatch.Watcher, sched *libsync.Scheduler, logger *slog.Logger, errCh chan<- error) *http.Server {
	r := chi.NewRouter()

	var syncer admin.Syncer
	if sched != nil {
		syncer = sched
	}
	admin.New(store, watcher, syncer, logger).RegisterHTTP(r)

	srv := &http.Server{
		Addr:              cfg.Admin.Listen,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		logger.Info("dupewatch: admin listening", "addr", cfg.Admin.Listen)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()
	return srv
}
