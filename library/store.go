package library

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/dupewatch/dupewatch/dbopen"
)

// Store is the SQLite-backed merged library. Reads return a point-in-time
// Snapshot; writes go through ReplacePlatform, which swaps a platform's
// entries atomically and notifies subscribers.
type Store struct {
	DB     *sql.DB
	logger *slog.Logger

	mu   sync.Mutex
	subs []func(Snapshot)
}

// Open opens (or creates) the library database at path, applies the
// production pragmas and the library schema.
func Open(path string, logger *slog.Logger, opts ...dbopen.Option) (*Store, error) {
	allOpts := append([]dbopen.Option{
		dbopen.WithMkdirAll(),
		dbopen.WithSchema(Schema),
	}, opts...)

	db, err := dbopen.Open(path, allOpts...)
	if err != nil {
		return nil, err
	}
	return NewStore(db, logger), nil
}

// NewStore wraps an already-open database. The schema must be applied.
func NewStore(db *sql.DB, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{DB: db, logger: logger}
}

// Close closes the database.
func (s *Store) Close() error {
	return s.DB.Close()
}

// GetLibraries returns the most recently synced snapshot. Platforms with
// no entries are absent from the map; an empty library yields an empty,
// non-nil Snapshot.
func (s *Store) GetLibraries(ctx context.Context) (Snapshot, error) {
	rows, err := s.DB.QueryContext(ctx, `
		SELECT platform, title FROM library_entries
		ORDER BY platform, position`)
	if err != nil {
		return nil, fmt.Errorf("library: query entries: %w", err)
	}
	defer rows.Close()

	snap := make(Snapshot)
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.Platform, &e.Title); err != nil {
			return nil, fmt.Errorf("library: scan entry: %w", err)
		}
		snap[e.Platform] = append(snap[e.Platform], e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("library: iterate entries: %w", err)
	}
	return snap, nil
}

// ReplacePlatform atomically replaces all entries for one platform and
// records the sync time. Entries are stored under the given platform
// regardless of their own Platform field. Subscribers are notified with a
// fresh snapshot after the transaction commits.
func (s *Store) ReplacePlatform(ctx context.Context, platform string, entries []Entry) error {
	platform = strings.ToLower(strings.TrimSpace(platform))
	if platform == "" {
		return fmt.Errorf("library: empty platform")
	}

	err := dbopen.RunTx(ctx, s.DB, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM library_entries WHERE platform = ?`, platform); err != nil {
			return fmt.Errorf("library: delete %s: %w", platform, err)
		}
		for i, e := range entries {
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO library_entries (platform, position, title)
				VALUES (?, ?, ?)`, platform, i, e.Title); err != nil {
				return fmt.Errorf("library: insert %s: %w", platform, err)
			}
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO sync_meta (platform, last_synced_at, entry_count)
			VALUES (?, ?, ?)
			ON CONFLICT(platform) DO UPDATE SET
				last_synced_at = excluded.last_synced_at,
				entry_count    = excluded.entry_count`,
			platform, time.Now().Unix(), len(entries)); err != nil {
			return fmt.Errorf("library: sync_meta %s: %w", platform, err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.logger.Info("library: platform replaced",
		"platform", platform, "entries", len(entries))
	s.notify(ctx)
	return nil
}

// Subscribe registers fn to be called with a fresh snapshot after every
// successful write. Callbacks run synchronously on the writer's goroutine;
// long-running work belongs on the subscriber's side.
func (s *Store) Subscribe(fn func(Snapshot)) {
	s.mu.Lock()
	s.subs = append(s.subs, fn)
	s.mu.Unlock()
}

func (s *Store) notify(ctx context.Context) {
	s.mu.Lock()
	subs := make([]func(Snapshot), len(s.subs))
	copy(subs, s.subs)
	s.mu.Unlock()

	if len(subs) == 0 {
		return
	}
	snap, err := s.GetLibraries(ctx)
	if err != nil {
		s.logger.Error("library: snapshot for notify failed", "error", err)
		return
	}
	for _, fn := range subs {
		fn(snap)
	}
}

// PlatformStat is per-platform sync bookkeeping for the admin surface.
type PlatformStat struct {
	Platform     string    `json:"platform"`
	Entries      int       `json:"entries"`
	LastSyncedAt time.Time `json:"last_synced_at"`
}

// Stats returns sync bookkeeping for every platform ever synced.
func (s *Store) Stats(ctx context.Context) ([]PlatformStat, error) {
	rows, err := s.DB.QueryContext(ctx, `
		SELECT platform, entry_count, last_synced_at
		FROM sync_meta ORDER BY platform`)
	if err != nil {
		return nil, fmt.Errorf("library: query stats: %w", err)
	}
	defer rows.Close()

	var out []PlatformStat
	for rows.Next() {
		var st PlatformStat
		var ts int64
		if err := rows.Scan(&st.Platform, &st.Entries, &ts); err != nil {
			return nil, fmt.Errorf("library: scan stats: %w", err)
		}
		st.LastSyncedAt = time.Unix(ts, 0)
		out = append(out, st)
	}
	return out, rows.Err()
}
