package pagewatch

import (
	"context"
	"log/slog"
	"sync"

	"github.com/dupewatch/dupewatch/library"
	"github.com/dupewatch/dupewatch/pagewatch/internal/extract"
	"github.com/dupewatch/dupewatch/storefront"
	"github.com/dupewatch/dupewatch/title"
)

// State is what a page watcher currently shows.
type State int

const (
	// StateWatching: no advisory shown; waiting for a product or cart page.
	StateWatching State = iota
	// StateProductActive: on a product page, checked (advisory may or
	// may not be present depending on ownership).
	StateProductActive
	// StateCartActive: on a cart page, items checked.
	StateCartActive
)

func (s State) String() string {
	switch s {
	case StateProductActive:
		return "product"
	case StateCartActive:
		return "cart"
	default:
		return "watching"
	}
}

// LibraryReader is the read side of the library store.
type LibraryReader interface {
	GetLibraries(ctx context.Context) (library.Snapshot, error)
}

// TitleExtractor reads titles from the live page.
type TitleExtractor interface {
	ProductTitle(ctx context.Context) (string, error)
	CartItems(ctx context.Context) ([]extract.CartItem, error)
	// SetStorefront swaps the selector tables when the tab moves to a
	// different supported store.
	SetStorefront(sf *storefront.Storefront)
}

// Presenter shows and retracts advisories on the live page.
type Presenter interface {
	// ShowSingle replaces any existing product advisory. Returns "" when
	// the page has no purchase anchor to attach to.
	ShowSingle(ctx context.Context, platforms []string) (string, error)
	// HideSingle is a no-op when no advisory is present.
	HideSingle(ctx context.Context, handle string) error
	// ShowCartItem skips containers that already carry an advisory.
	ShowCartItem(ctx context.Context, key string, platforms []string) error
	// SetStorefront swaps the purchase-anchor locators when the tab
	// moves to a different supported store.
	SetStorefront(sf *storefront.Storefront)
}

// pageContext is the watcher's belief about one page. It is only ever
// touched from the page's own event loop goroutine.
type pageContext struct {
	url            string
	extractedTitle string
	advisoryHandle string
	state          State
}

type navEvent struct {
	url string
}

// pageWatcher runs the check pipeline for one attached page. All
// checks for a page run on a single goroutine reading from events, so
// no two checks for the same page ever interleave.
type pageWatcher struct {
	id     string
	sf     *storefront.Storefront
	lib    LibraryReader
	ext    TitleExtractor
	pres   Presenter
	logger *slog.Logger

	pc     pageContext
	events chan navEvent
	done   chan struct{}

	// statusMu guards the copy of pc read by Statuses from outside
	// the event loop.
	statusMu   sync.Mutex
	lastStatus PageStatus
}

// PageStatus is a point-in-time view of one attached page.
type PageStatus struct {
	ID       string `json:"id"`
	Platform string `json:"platform"`
	URL      string `json:"url"`
	State    string `json:"state"`
	Title    string `json:"title,omitempty"`
	Advisory bool   `json:"advisory"`
}

func newPageWatcher(id string, sf *storefront.Storefront, lib LibraryReader, ext TitleExtractor, pres Presenter, logger *slog.Logger) *pageWatcher {
	p := &pageWatcher{
		id:     id,
		sf:     sf,
		lib:    lib,
		ext:    ext,
		pres:   pres,
		logger: logger.With("page", id),
		events: make(chan navEvent, 16),
		done:   make(chan struct{}),
	}
	p.lastStatus = PageStatus{ID: id, Platform: sf.Platform, State: StateWatching.String()}
	return p
}

// run is the page's event loop. It exits when ctx is cancelled.
func (p *pageWatcher) run(ctx context.Context) {
	defer close(p.done)
	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-p.events:
			p.runCheck(ctx, ev.url)
		}
	}
}

// navigated queues a check for a settled navigation. Called from the
// observer goroutine.
func (p *pageWatcher) navigated(url string) {
	select {
	case p.events <- navEvent{url: url}:
	default:
		p.logger.Warn("pagewatch: event queue full, dropping navigation", "url", url)
	}
}

// recheck queues a re-evaluation of the current page, used when the
// library changes underneath an open page.
func (p *pageWatcher) recheck() {
	select {
	case p.events <- navEvent{url: ""}:
	default:
	}
}

// runCheck is one full evaluation: snapshot the library, classify the
// URL, and reconcile what the page shows with what ownership says.
func (p *pageWatcher) runCheck(ctx context.Context, url string) {
	if url == "" {
		url = p.pc.url
		if url == "" {
			return
		}
	}

	// The storefront record follows the fire-time URL, not the
	// attach-time one: a hard navigation can move the tab to a
	// different store, or off every supported store.
	sf, ok := storefront.ForURL(url)
	if !ok {
		p.retractSingle(ctx)
		p.pc = pageContext{url: url}
		p.publishStatus()
		return
	}
	if sf.Platform != p.sf.Platform {
		p.logger.Info("pagewatch: tab moved to another storefront",
			"from", p.sf.Platform, "to", sf.Platform)
		p.sf = sf
		p.ext.SetStorefront(sf)
		p.pres.SetStorefront(sf)
	}

	snap, err := p.lib.GetLibraries(ctx)
	if err != nil {
		// Without a library snapshot there is nothing trustworthy to
		// show; leave the page exactly as it is.
		p.logger.Error("pagewatch: library snapshot failed", "error", err)
		return
	}

	kind := p.sf.Classify(url)
	p.logger.Debug("pagewatch: check", "url", url, "kind", kind)

	switch kind {
	case storefront.KindProduct:
		p.checkProduct(ctx, snap)
	case storefront.KindCart:
		p.retractSingle(ctx)
		p.checkCart(ctx, snap)
		p.pc.state = StateCartActive
		p.pc.extractedTitle = ""
	default:
		p.retractSingle(ctx)
		p.pc.state = StateWatching
		p.pc.extractedTitle = ""
	}

	p.pc.url = url
	p.publishStatus()
}

func (p *pageWatcher) publishStatus() {
	p.statusMu.Lock()
	p.lastStatus = PageStatus{
		ID:       p.id,
		Platform: p.sf.Platform,
		URL:      p.pc.url,
		State:    p.pc.state.String(),
		Title:    p.pc.extractedTitle,
		Advisory: p.pc.advisoryHandle != "",
	}
	p.statusMu.Unlock()
}

func (p *pageWatcher) status() PageStatus {
	p.statusMu.Lock()
	defer p.statusMu.Unlock()
	return p.lastStatus
}

func (p *pageWatcher) checkProduct(ctx context.Context, snap library.Snapshot) {
	t, err := p.ext.ProductTitle(ctx)
	if err != nil {
		p.logger.Warn("pagewatch: title extraction failed", "error", err)
		t = ""
	}

	if t == "" {
		// Extraction miss. "Don't know" never becomes "not owned", but a
		// stale advisory from the previous page must not survive either.
		p.retractSingle(ctx)
		p.pc.state = StateProductActive
		p.pc.extractedTitle = ""
		return
	}
	p.pc.extractedTitle = t

	owned := title.Match(t, snap.All())
	elsewhere := title.ExcludePlatform(owned, p.sf.Platform)
	if len(elsewhere) == 0 {
		p.retractSingle(ctx)
		p.pc.state = StateProductActive
		return
	}

	platforms := title.Platforms(elsewhere)
	handle, err := p.pres.ShowSingle(ctx, platforms)
	if err != nil {
		p.logger.Error("pagewatch: show advisory failed", "error", err)
		return
	}
	p.pc.advisoryHandle = handle
	p.pc.state = StateProductActive
	p.logger.Info("pagewatch: ownership advisory shown",
		"title", t, "owned_on", platforms)
}

func (p *pageWatcher) checkCart(ctx context.Context, snap library.Snapshot) {
	items, err := p.ext.CartItems(ctx)
	if err != nil {
		p.logger.Warn("pagewatch: cart extraction failed", "error", err)
		return
	}

	for _, it := range items {
		if it.Title == "" {
			continue
		}
		owned := title.Match(it.Title, snap.All())
		elsewhere := title.ExcludePlatform(owned, p.sf.Platform)
		if len(elsewhere) == 0 {
			continue
		}
		if err := p.pres.ShowCartItem(ctx, it.Key, title.Platforms(elsewhere)); err != nil {
			p.logger.Error("pagewatch: show cart advisory failed",
				"key", it.Key, "error", err)
		}
	}
}

// retractSingle removes the product advisory if one is tracked, and
// asks the presenter to clear strays regardless. HideSingle is safe
// when nothing is shown.
func (p *pageWatcher) retractSingle(ctx context.Context) {
	if err := p.pres.HideSingle(ctx, p.pc.advisoryHandle); err != nil {
		p.logger.Warn("pagewatch: hide advisory failed", "error", err)
	}
	p.pc.advisoryHandle = ""
}
