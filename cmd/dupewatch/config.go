package main

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/dupewatch/dupewatch/pagewatch"
)

// daemonConfig is the top-level YAML config.
type daemonConfig struct {
	// DBPath is the SQLite library database. Created on first run.
	DBPath string `yaml:"db_path"`

	Admin adminConfig      `yaml:"admin"`
	Watch pagewatch.Config `yaml:"watch"`
	Sync  syncConfig       `yaml:"sync"`
}

type adminConfig struct {
	// Listen must stay on loopback; the API has no auth. "off"
	// disables the API entirely.
	Listen string `yaml:"listen"`
}

func (c *adminConfig) enabled() bool { return c.Listen != "" && c.Listen != "off" }

type syncConfig struct {
	Interval time.Duration `yaml:"interval"`

	Steam steamConfig `yaml:"steam"`
	Epic  epicConfig  `yaml:"epic"`

	// ImportDir is watched for dropped CSV exports (GOG and anything
	// else without an API). Empty disables the watcher.
	ImportDir string `yaml:"import_dir"`

	// ImportPlatform is used for CSV rows that omit a platform column.
	ImportPlatform string `yaml:"import_platform"`
}

type steamConfig struct {
	APIKey  string `yaml:"api_key"`
	SteamID string `yaml:"steam_id"`
}

type epicConfig struct {
	// Cookie is the session cookie for the order-history page. Epic has
	// no public library API.
	Cookie string `yaml:"cookie"`
}

func (c *steamConfig) enabled() bool { return c.APIKey != "" && c.SteamID != "" }
func (c *epicConfig) enabled() bool  { return c.Cookie != "" }

func loadDaemonConfig(path string) (*daemonConfig, error) {
	cfg := defaultDaemonConfig()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}

	cfg.applyDefaults()
	return cfg, nil
}

func defaultDaemonConfig() *daemonConfig {
	cfg := &daemonConfig{}
	cfg.applyDefaults()
	return cfg
}

func (c *daemonConfig) applyDefaults() {
	if c.DBPath == "" {
		c.DBPath = "dupewatch.db"
	}
	if c.Admin.Listen == "" {
		c.Admin.Listen = "127.0.0.1:7733"
	}
	if c.Sync.Interval <= 0 {
		c.Sync.Interval = 30 * time.Minute
	}
	if c.Sync.ImportPlatform == "" {
		c.Sync.ImportPlatform = "other"
	}

	// pagewatch owns its own defaults.
	c.Watch.ApplyDefaults()
}
