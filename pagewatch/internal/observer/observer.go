// Package observer watches a single page for navigation: an injected
// script hooks the history API and a MutationObserver, calls back over
// a CDP binding, and the Go side debounces bursts into one settled
// navigation event.
package observer

import (
	"context"
	_ "embed"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
)

//go:embed observer.js
var observerJS string

const bindingName = "__dupewatch_notify"

// DefaultSettleDelay is how long the URL must stay unchanged before a
// navigation event fires. Storefront SPAs render in stages; firing on
// the first ping would check a half-built page.
const DefaultSettleDelay = 1500 * time.Millisecond

// Config for creating an Observer.
type Config struct {
	Page        *rod.Page
	SettleDelay time.Duration
	Logger      *slog.Logger

	// OnNavigate fires once per settled navigation, with the URL read
	// from the page at fire time rather than the URL that armed the
	// timer.
	OnNavigate func(url string)

	// OnDetach fires once when the page goes away (tab closed, browser
	// gone). The watcher uses it to drop the page from its registry.
	OnDetach func()
}

// Observer manages navigation observation for a single page.
type Observer struct {
	cfg    Config
	ctx    context.Context
	cancel context.CancelFunc

	urlCh chan string

	// readURL is swapped out in tests; the default reads location.href
	// over CDP.
	readURL func() (string, error)
}

// New creates an Observer. Call Start to begin observing.
func New(cfg Config) *Observer {
	if cfg.SettleDelay <= 0 {
		cfg.SettleDelay = DefaultSettleDelay
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	o := &Observer{
		cfg:   cfg,
		urlCh: make(chan string, 64),
	}
	o.readURL = o.evalURL
	return o
}

// Start injects the observer script and begins the settle loop.
// The script is also registered for every new document, so full page
// loads re-install it without help from the Go side.
func (o *Observer) Start(ctx context.Context, initialURL string) error {
	o.ctx, o.cancel = context.WithCancel(ctx)
	page := o.cfg.Page

	if err := (proto.RuntimeAddBinding{Name: bindingName}.Call(page)); err != nil {
		return fmt.Errorf("observer: add binding: %w", err)
	}

	_, err := proto.PageAddScriptToEvaluateOnNewDocument{Source: observerJS}.Call(page)
	if err != nil {
		return fmt.Errorf("observer: register script: %w", err)
	}

	// The current document predates the registration.
	if _, err := page.Eval(observerJS); err != nil {
		return fmt.Errorf("observer: inject: %w", err)
	}

	go o.listenBinding()
	go o.loop(initialURL)

	o.cfg.Logger.Debug("observer: started", "url", initialURL)
	return nil
}

// Stop cancels the observer. Safe to call more than once.
func (o *Observer) Stop() {
	if o.cancel != nil {
		o.cancel()
	}
}

// listenBinding receives URL pings from the injected script. EachEvent
// blocks until the page or context is gone, which doubles as the
// tab-closed signal.
func (o *Observer) listenBinding() {
	page := o.cfg.Page
	page.Context(o.ctx).EachEvent(func(e *proto.RuntimeBindingCalled) {
		if e.Name != bindingName {
			return
		}
		select {
		case o.urlCh <- e.Payload:
		default:
			// channel full; the settle loop is behind, drop the ping
		}
	})()

	o.cancel()
	if o.cfg.OnDetach != nil {
		o.cfg.OnDetach()
	}
}

// loop turns URL pings into settled navigation events. A ping for an
// unchanged URL is DOM churn and is ignored; a changed URL arms the
// settle timer; a further change while armed supersedes the pending
// timer rather than queueing behind it.
func (o *Observer) loop(initialURL string) {
	lastSeen := initialURL

	var timer *time.Timer
	var timerC <-chan time.Time
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-o.ctx.Done():
			return

		case u := <-o.urlCh:
			if u == lastSeen {
				continue
			}
			lastSeen = u
			if timer != nil {
				timer.Stop()
			}
			timer = time.NewTimer(o.cfg.SettleDelay)
			timerC = timer.C

		case <-timerC:
			timer = nil
			timerC = nil

			// The page may have moved again since the timer armed;
			// what matters is where it is now.
			u, err := o.readURL()
			if err != nil {
				o.cfg.Logger.Debug("observer: read url at settle", "error", err)
				continue
			}
			lastSeen = u
			if o.cfg.OnNavigate != nil {
				o.cfg.OnNavigate(u)
			}
		}
	}
}

func (o *Observer) evalURL() (string, error) {
	res, err := o.cfg.Page.Context(o.ctx).Eval(`() => location.href`)
	if err != nil {
		return "", err
	}
	return res.Value.Str(), nil
}
