package pagewatch

import "time"

// Config configures the watcher.
type Config struct {
	Browser BrowserConfig `yaml:"browser"`

	// SettleDelay is how long a page's URL must stay unchanged after a
	// navigation before it is checked. Default 1500ms.
	SettleDelay time.Duration `yaml:"settle_delay"`

	// ScanInterval is how often open tabs are scanned for storefront
	// pages to attach to. Default 2s.
	ScanInterval time.Duration `yaml:"scan_interval"`
}

// BrowserConfig configures the Chrome connection.
type BrowserConfig struct {
	// Remote is the DevTools WebSocket URL of an already-running
	// Chrome. Empty = launch a local instance.
	Remote string `yaml:"remote"`

	// Headless applies to launched Chrome only.
	Headless bool `yaml:"headless"`

	// RecycleInterval bounds launched-Chrome lifetime. Ignored for
	// remote browsers.
	RecycleInterval time.Duration `yaml:"recycle_interval"`
}

// ApplyDefaults fills zero-valued fields with the production defaults.
// The daemon embeds Config in its own YAML file and calls this after
// parsing.
func (c *Config) ApplyDefaults() {
	if c.SettleDelay <= 0 {
		c.SettleDelay = 1500 * time.Millisecond
	}
	if c.ScanInterval <= 0 {
		c.ScanInterval = 2 * time.Second
	}
	if c.Browser.RecycleInterval <= 0 {
		c.Browser.RecycleInterval = 4 * time.Hour
	}
}
