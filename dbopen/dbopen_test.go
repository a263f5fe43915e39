package dbopen_test

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"

	_ "modernc.org/sqlite"

	"github.com/dupewatch/dupewatch/dbopen"
)

func TestOpen_Pragmas(t *testing.T) {
	db := dbopen.OpenMemory(t)

	var journalMode string
	if err := db.QueryRow("PRAGMA journal_mode").Scan(&journalMode); err != nil {
		t.Fatal(err)
	}
	// :memory: may report "memory" instead of "wal" for journal_mode,
	// but the PRAGMA was still executed successfully.
	if journalMode != "wal" && journalMode != "memory" {
		t.Fatalf("journal_mode = %q, want wal or memory", journalMode)
	}

	var fk int
	if err := db.QueryRow("PRAGMA foreign_keys").Scan(&fk); err != nil {
		t.Fatal(err)
	}
	if fk != 1 {
		t.Fatalf("foreign_keys = %d, want 1", fk)
	}
}

func TestOpen_WithSchema(t *testing.T) {
	db := dbopen.OpenMemory(t, dbopen.WithSchema(`CREATE TABLE t (id TEXT PRIMARY KEY)`))

	if _, err := db.Exec(`INSERT INTO t (id) VALUES ('a')`); err != nil {
		t.Fatalf("insert into schema table: %v", err)
	}
}

func TestOpen_MkdirAll(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "test.db")
	db, err := dbopen.Open(path, dbopen.WithMkdirAll())
	if err != nil {
		t.Fatalf("open with mkdir: %v", err)
	}
	defer db.Close()
}

func TestRunTx_Rollback(t *testing.T) {
	db := dbopen.OpenMemory(t, dbopen.WithSchema(`CREATE TABLE t (id TEXT PRIMARY KEY)`))
	ctx := context.Background()

	wantErr := errors.New("boom")
	err := dbopen.RunTx(ctx, db, func(tx *sql.Tx) error {
		if _, err := tx.Exec(`INSERT INTO t (id) VALUES ('a')`); err != nil {
			return err
		}
		return wantErr
	})
	if !errors.Is(err, wantErr) {
		t.Fatalf("RunTx: got %v, want %v", err, wantErr)
	}

	var n int
	if err := db.QueryRow(`SELECT COUNT(*) FROM t`).Scan(&n); err != nil {
		t.Fatal(err)
	}
	if n != 0 {
		t.Fatalf("rows after rollback: got %d, want 0", n)
	}
}
