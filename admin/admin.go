// Package admin exposes the local control API: inspect watched pages
// and library contents, trigger syncs, and import CSV exports.
// Listens on loopback only; there is no auth layer.
package admin

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/dupewatch/dupewatch/library"
	"github.com/dupewatch/dupewatch/libsync"
	"github.com/dupewatch/dupewatch/pagewatch"
)

// PageReporter reports the pages currently being watched.
type PageReporter interface {
	Statuses() []pagewatch.PageStatus
}

// Syncer triggers library syncs by platform.
type Syncer interface {
	SyncPlatform(ctx context.Context, platform string) error
}

// Service wires the admin handlers.
type Service struct {
	store  *library.Store
	pages  PageReporter
	syncer Syncer
	logger *slog.Logger
}

// New creates the admin Service. pages and syncer may be nil when the
// daemon runs without a watcher or without sync sources; the matching
// endpoints then report accordingly.
func New(store *library.Store, pages PageReporter, syncer Syncer, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{store: store, pages: pages, syncer: syncer, logger: logger}
}

// RegisterHTTP registers the admin endpoints on the router.
func (s *Service) RegisterHTTP(r chi.Router) {
	r.Get("/api/v1/status", s.handleStatus)
	r.Get("/api/v1/libraries", s.handleLibraries)
	r.Post("/api/v1/sync/{platform}", s.handleSync)
	r.Post("/api/v1/import", s.handleImport)
}

func (s *Service) handleStatus(w http.ResponseWriter, r *http.Request) {
	stats, err := s.store.Stats(r.Context())
	if err != nil {
		s.logger.Error("admin: library stats", "error", err)
		http.Error(w, "Internal error", http.StatusInternalServerError)
		return
	}

	var pages []pagewatch.PageStatus
	if s.pages != nil {
		pages = s.pages.Statuses()
	}

	writeJSON(w, map[string]any{
		"library": stats,
		"pages":   pages,
	})
}

func (s *Service) handleLibraries(w http.ResponseWriter, r *http.Request) {
	snap, err := s.store.GetLibraries(r.Context())
	if err != nil {
		s.logger.Error("admin: get libraries", "error", err)
		http.Error(w, "Internal error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, snap)
}

func (s *Service) handleSync(w http.ResponseWriter, r *http.Request) {
	if s.syncer == nil {
		http.Error(w, "No sync sources configured", http.StatusConflict)
		return
	}

	platform := chi.URLParam(r, "platform")
	if err := s.syncer.SyncPlatform(r.Context(), platform); err != nil {
		if errors.Is(err, libsync.ErrUnknownPlatform) {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		s.logger.Error("admin: sync", "platform", platform, "error", err)
		http.Error(w, err.Error(), http.StatusBadGateway)
		return
	}

	writeJSON(w, map[string]string{"status": "synced", "platform": platform})
}

// handleImport ingests a CSV body (title[,platform] rows). The
// ?platform= query sets the platform for rows that omit one.
func (s *Service) handleImport(w http.ResponseWriter, r *http.Request) {
	defaultPlatform := r.URL.Query().Get("platform")
	if defaultPlatform == "" {
		defaultPlatform = "other"
	}

	entries, stats, err := libsync.ImportCSV(r.Body, defaultPlatform)
	if err != nil {
		http.Error(w, "Invalid CSV: "+err.Error(), http.StatusBadRequest)
		return
	}

	for platform, group := range libsync.GroupByPlatform(entries) {
		if err := s.store.ReplacePlatform(r.Context(), platform, group); err != nil {
			s.logger.Error("admin: import write", "platform", platform, "error", err)
			http.Error(w, "Internal error", http.StatusInternalServerError)
			return
		}
	}

	writeJSON(w, map[string]int{
		"imported": stats.Imported,
		"skipped":  stats.Skipped,
	})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		// Connection-level failure; nothing useful left to do.
		return
	}
}
