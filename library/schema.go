package library

// Schema contains the complete DDL for the library tables.
const Schema = `
-- Owned games, one row per (platform, position). Position preserves the
-- source ordering so snapshots iterate the way the platform listed them.
CREATE TABLE IF NOT EXISTS library_entries (
    platform  TEXT NOT NULL,
    position  INTEGER NOT NULL,
    title     TEXT NOT NULL,
    PRIMARY KEY (platform, position)
);
CREATE INDEX IF NOT EXISTS idx_library_platform ON library_entries(platform);

-- Per-platform sync bookkeeping.
CREATE TABLE IF NOT EXISTS sync_meta (
    platform       TEXT PRIMARY KEY,
    last_synced_at INTEGER NOT NULL,
    entry_count    INTEGER NOT NULL
);
`
