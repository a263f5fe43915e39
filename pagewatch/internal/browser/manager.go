// Package browser manages the Chrome connection: attach to the user's
// running browser over the DevTools protocol, or launch a local instance,
// with interval-based recycling for launched browsers.
package browser

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
)

// Config configures the browser manager.
type Config struct {
	// RemoteURL is the WebSocket URL of the user's running Chrome
	// (started with --remote-debugging-port). Empty = launch a local
	// Chrome via launcher.
	RemoteURL string

	// Headless controls launched-Chrome mode. Ignored for remote.
	Headless bool

	// RecycleInterval is the maximum lifetime of a launched Chrome
	// process. Never applied to a remote browser: we do not kill the
	// user's own session. Default: 4h.
	RecycleInterval time.Duration

	Logger *slog.Logger
}

func (c *Config) defaults() {
	if c.RecycleInterval <= 0 {
		c.RecycleInterval = 4 * time.Hour
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
}

// RecycleCallback lets the watcher detach observers before a launched
// Chrome is recycled and re-attach after.
type RecycleCallback struct {
	BeforeRecycle func()
	AfterRecycle  func(browser *rod.Browser)
}

// Manager manages the Chrome lifecycle.
type Manager struct {
	cfg     Config
	mu      sync.RWMutex
	browser *rod.Browser
	lnch    *launcher.Launcher
	startAt time.Time
	closed  bool
	cb      *RecycleCallback
}

// NewManager creates a Manager. Call Start to connect.
func NewManager(cfg Config) *Manager {
	cfg.defaults()
	return &Manager{cfg: cfg}
}

// SetRecycleCallback sets the callback for recycle events.
func (m *Manager) SetRecycleCallback(cb *RecycleCallback) {
	m.mu.Lock()
	m.cb = cb
	m.mu.Unlock()
}

// Start connects to Chrome (remote or launched) and, for launched
// browsers, starts the recycle monitor.
func (m *Manager) Start(ctx context.Context) (*rod.Browser, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return nil, fmt.Errorf("browser: manager is closed")
	}

	b, err := m.connect()
	if err != nil {
		return nil, err
	}
	m.browser = b
	m.startAt = time.Now()

	if m.cfg.RemoteURL == "" {
		go m.monitorLoop(ctx)
	}

	return b, nil
}

// Browser returns the current Rod browser handle. Thread-safe.
func (m *Manager) Browser() *rod.Browser {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.browser
}

// Attached reports whether the manager is connected to a remote browser
// rather than one it launched itself.
func (m *Manager) Attached() bool {
	return m.cfg.RemoteURL != ""
}

// Recycle kills a launched Chrome, restarts it, and notifies the
// callback. No-op for remote browsers.
func (m *Manager) Recycle(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return fmt.Errorf("browser: manager is closed")
	}
	if m.cfg.RemoteURL != "" {
		return nil
	}
	return m.recycleLocked()
}

// Close shuts down a launched Chrome. A remote browser is only
// disconnected, never killed.
func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return m.cleanup()
}

func (m *Manager) connect() (*rod.Browser, error) {
	log := m.cfg.Logger

	var wsURL string
	if m.cfg.RemoteURL != "" {
		wsURL = m.cfg.RemoteURL
		log.Info("browser: connecting to remote", "url", wsURL)
	} else {
		l := launcher.New().Headless(m.cfg.Headless)
		l = l.Set("disable-blink-features", "AutomationControlled")

		u, err := l.Launch()
		if err != nil {
			return nil, fmt.Errorf("browser: launch: %w", err)
		}
		wsURL = u
		m.lnch = l
		log.Info("browser: launched local chrome", "url", wsURL, "headless", m.cfg.Headless)
	}

	b := rod.New().ControlURL(wsURL)
	if err := b.Connect(); err != nil {
		return nil, fmt.Errorf("browser: connect: %w", err)
	}
	return b, nil
}

func (m *Manager) recycleLocked() error {
	log := m.cfg.Logger
	log.Info("browser: recycling", "uptime", time.Since(m.startAt))

	if m.cb != nil && m.cb.BeforeRecycle != nil {
		m.cb.BeforeRecycle()
	}

	if err := m.cleanup(); err != nil {
		log.Warn("browser: cleanup during recycle", "error", err)
	}

	b, err := m.connect()
	if err != nil {
		return fmt.Errorf("browser: relaunch: %w", err)
	}
	m.browser = b
	m.startAt = time.Now()

	if m.cb != nil && m.cb.AfterRecycle != nil {
		m.cb.AfterRecycle(b)
	}

	log.Info("browser: recycled")
	return nil
}

func (m *Manager) cleanup() error {
	if m.browser != nil {
		if m.cfg.RemoteURL == "" {
			m.browser.Close()
		}
		m.browser = nil
	}
	if m.lnch != nil {
		m.lnch.Cleanup()
		m.lnch = nil
	}
	return nil
}

func (m *Manager) monitorLoop(ctx context.Context) {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.mu.RLock()
			if m.closed || m.browser == nil {
				m.mu.RUnlock()
				return
			}
			startAt := m.startAt
			m.mu.RUnlock()

			if time.Since(startAt) > m.cfg.RecycleInterval {
				m.cfg.Logger.Info("browser: recycle interval reached")
				if err := m.Recycle(ctx); err != nil {
					m.cfg.Logger.Error("browser: recycle failed", "error", err)
				}
			}
		}
	}
}
