// Package pagewatch watches storefront tabs in a running Chrome and
// reconciles each page with the ownership library: product and cart
// pages for games already owned on another storefront get an inline
// advisory, retracted again when the page navigates away.
package pagewatch

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"

	"github.com/dupewatch/dupewatch/library"
	"github.com/dupewatch/dupewatch/pagewatch/internal/advisory"
	"github.com/dupewatch/dupewatch/pagewatch/internal/browser"
	"github.com/dupewatch/dupewatch/pagewatch/internal/extract"
	"github.com/dupewatch/dupewatch/pagewatch/internal/observer"
	"github.com/dupewatch/dupewatch/storefront"
)

// attachment is one watched page: its event loop plus the observer
// feeding it.
type attachment struct {
	pw     *pageWatcher
	obs    *observer.Observer
	cancel context.CancelFunc
}

// Watcher is the top-level orchestrator. It manages the browser
// connection and one pageWatcher per storefront tab.
type Watcher struct {
	cfg    *Config
	mgr    *browser.Manager
	store  *library.Store
	logger *slog.Logger

	mu    sync.Mutex
	pages map[proto.TargetTargetID]*attachment

	cancel context.CancelFunc
}

// New creates a Watcher. The store is both the ownership source for
// checks and the change feed that triggers rechecks of open pages.
func New(cfg *Config, store *library.Store, logger *slog.Logger) *Watcher {
	if logger == nil {
		logger = slog.Default()
	}

	mgr := browser.NewManager(browser.Config{
		RemoteURL:       cfg.Browser.Remote,
		Headless:        cfg.Browser.Headless,
		RecycleInterval: cfg.Browser.RecycleInterval,
		Logger:          logger,
	})

	return &Watcher{
		cfg:    cfg,
		mgr:    mgr,
		store:  store,
		logger: logger,
		pages:  make(map[proto.TargetTargetID]*attachment),
	}
}

// Start connects to Chrome and begins scanning tabs. Library changes
// immediately requeue a check on every attached page.
func (w *Watcher) Start(ctx context.Context) error {
	ctx, w.cancel = context.WithCancel(ctx)

	if _, err := w.mgr.Start(ctx); err != nil {
		return fmt.Errorf("pagewatch: start browser: %w", err)
	}

	w.mgr.SetRecycleCallback(&browser.RecycleCallback{
		BeforeRecycle: w.detachAll,
		// The scan loop re-attaches to whatever tabs come back.
		AfterRecycle: func(*rod.Browser) {},
	})

	w.store.Subscribe(func(library.Snapshot) {
		w.recheckAll()
	})

	go w.scanLoop(ctx)

	w.logger.Info("pagewatch: started",
		"remote", w.mgr.Attached(), "scan_interval", w.cfg.ScanInterval)
	return nil
}

// Stop detaches all pages and shuts the browser down.
func (w *Watcher) Stop() {
	if w.cancel != nil {
		w.cancel()
	}
	w.detachAll()
	w.mgr.Close()
}

// OpenAndWatch opens the URL in a new tab and attaches to it. Used by
// the -url flag. The URL must belong to a known storefront.
func (w *Watcher) OpenAndWatch(ctx context.Context, url string) error {
	sf, ok := storefront.ForURL(url)
	if !ok {
		return fmt.Errorf("pagewatch: %s is not on a known storefront", url)
	}

	page, err := w.mgr.OpenPage(ctx, url)
	if err != nil {
		return err
	}
	return w.attach(ctx, page, sf, url)
}

// Statuses reports all attached pages, for the admin API.
func (w *Watcher) Statuses() []PageStatus {
	w.mu.Lock()
	defer w.mu.Unlock()

	out := make([]PageStatus, 0, len(w.pages))
	for _, a := range w.pages {
		out = append(out, a.pw.status())
	}
	return out
}

// scanLoop periodically looks for storefront tabs that are not yet
// attached. Attachment is idempotent per target, so re-seeing a tab
// is cheap.
func (w *Watcher) scanLoop(ctx context.Context) {
	ticker := time.NewTicker(w.cfg.ScanInterval)
	defer ticker.Stop()

	w.scanOnce(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.scanOnce(ctx)
		}
	}
}

func (w *Watcher) scanOnce(ctx context.Context) {
	b := w.mgr.Browser()
	if b == nil {
		return
	}

	pages, err := b.Pages()
	if err != nil {
		w.logger.Warn("pagewatch: list pages", "error", err)
		return
	}

	for _, page := range pages {
		info, err := page.Info()
		if err != nil {
			continue
		}
		sf, ok := storefront.ForURL(info.URL)
		if !ok {
			continue
		}
		if err := w.attach(ctx, page, sf, info.URL); err != nil {
			w.logger.Warn("pagewatch: attach failed",
				"url", info.URL, "error", err)
		}
	}
}

// attach registers a pageWatcher for the target. At most one watcher
// exists per target; attaching an already-attached page is a no-op.
func (w *Watcher) attach(ctx context.Context, page *rod.Page, sf *storefront.Storefront, url string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	id := page.TargetID
	if _, ok := w.pages[id]; ok {
		return nil
	}

	actx, acancel := context.WithCancel(ctx)

	ext := extract.New(page, sf)
	pres := advisory.New(page, sf, w.logger)
	pw := newPageWatcher(string(id), sf, w.store, ext, pres, w.logger)

	obs := observer.New(observer.Config{
		Page:        page,
		SettleDelay: w.cfg.SettleDelay,
		Logger:      w.logger,
		OnNavigate:  pw.navigated,
		OnDetach:    func() { w.detach(id) },
	})
	if err := obs.Start(actx, url); err != nil {
		acancel()
		return err
	}

	go pw.run(actx)
	w.pages[id] = &attachment{pw: pw, obs: obs, cancel: acancel}

	// First check without waiting for a navigation.
	pw.navigated(url)

	w.logger.Info("pagewatch: attached",
		"url", url, "platform", sf.Platform, "target", id)
	return nil
}

func (w *Watcher) detach(id proto.TargetTargetID) {
	w.mu.Lock()
	a, ok := w.pages[id]
	if ok {
		delete(w.pages, id)
	}
	w.mu.Unlock()

	if !ok {
		return
	}
	a.obs.Stop()
	a.cancel()
	w.logger.Info("pagewatch: detached", "target", id)
}

func (w *Watcher) detachAll() {
	w.mu.Lock()
	all := w.pages
	w.pages = make(map[proto.TargetTargetID]*attachment)
	w.mu.Unlock()

	for id, a := range all {
		a.obs.Stop()
		a.cancel()
		w.logger.Info("pagewatch: detached", "target", id)
	}
}

func (w *Watcher) recheckAll() {
	w.mu.Lock()
	defer w.mu.Unlock()
	for _, a := range w.pages {
		a.pw.recheck()
	}
}
