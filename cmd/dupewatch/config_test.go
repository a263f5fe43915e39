package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDaemonConfig_Defaults(t *testing.T) {
	cfg, err := loadDaemonConfig("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.DBPath != "dupewatch.db" {
		t.Errorf("DBPath: got %q", cfg.DBPath)
	}
	if cfg.Admin.Listen != "127.0.0.1:7733" {
		t.Errorf("Admin.Listen: got %q", cfg.Admin.Listen)
	}
	if cfg.Sync.Interval != 30*time.Minute {
		t.Errorf("Sync.Interval: got %v", cfg.Sync.Interval)
	}
	if cfg.Watch.SettleDelay != 1500*time.Millisecond {
		t.Errorf("Watch.SettleDelay: got %v", cfg.Watch.SettleDelay)
	}
}

func TestLoadDaemonConfig_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dupewatch.yaml")
	yaml := `
db_path: /tmp/lib.db
admin:
  listen: "127.0.0.1:9999"
watch:
  settle_delay: 2s
  browser:
    remote: "ws://127.0.0.1:9222/devtools/browser/abc"
sync:
  interval: 1h
  steam:
    api_key: k
    steam_id: "7656"
  import_dir: /tmp/drops
`
	if err := os.WriteFile(path, []byte(yaml), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := loadDaemonConfig(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.DBPath != "/tmp/lib.db" {
		t.Errorf("DBPath: got %q", cfg.DBPath)
	}
	if cfg.Admin.Listen != "127.0.0.1:9999" {
		t.Errorf("Admin.Listen: got %q", cfg.Admin.Listen)
	}
	if cfg.Watch.SettleDelay != 2*time.Second {
		t.Errorf("Watch.SettleDelay: got %v", cfg.Watch.SettleDelay)
	}
	if cfg.Watch.Browser.Remote == "" {
		t.Error("Watch.Browser.Remote not parsed")
	}
	if !cfg.Sync.Steam.enabled() {
		t.Error("steam source should be enabled")
	}
	if cfg.Sync.Epic.enabled() {
		t.Error("epic source should be disabled")
	}
	// Unset fields still get defaults.
	if cfg.Watch.ScanInterval != 2*time.Second {
		t.Errorf("Watch.ScanInterval: got %v", cfg.Watch.ScanInterval)
	}
	if cfg.Sync.ImportPlatform != "other" {
		t.Errorf("Sync.ImportPlatform: got %q", cfg.Sync.ImportPlatform)
	}
}

func TestAdminConfig_Enabled(t *testing.T) {
	cases := []struct {
		listen string
		want   bool
	}{
		{"127.0.0.1:7733", true},
		{"off", false},
		{"", false},
	}
	for _, tc := range cases {
		c := adminConfig{Listen: tc.listen}
		if got := c.enabled(); got != tc.want {
			t.Errorf("enabled(%q): got %v, want %v", tc.listen, got, tc.want)
		}
	}
}

func TestLoadDaemonConfig_AdminOff(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dupewatch.yaml")
	yaml := "admin:\n  listen: \"off\"\n"
	if err := os.WriteFile(path, []byte(yaml), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := loadDaemonConfig(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	// applyDefaults must not overwrite an explicit "off".
	if cfg.Admin.Listen != "off" || cfg.Admin.enabled() {
		t.Errorf("Admin.Listen = %q, enabled = %v, want off/disabled",
			cfg.Admin.Listen, cfg.Admin.enabled())
	}
}

func TestLoadDaemonConfig_Missing(t *testing.T) {
	if _, err := loadDaemonConfig("/nonexistent/dupewatch.yaml"); err == nil {
		t.Fatal("expected error for missing file")
	}
}
