// Package advisory renders ownership warnings into storefront pages.
// One advisory per product page, identified by a fixed element id; one
// advisory per cart container, guarded by a marker class, so repeated
// checks of an unchanged page never stack duplicates.
package advisory

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/go-rod/rod"

	"github.com/dupewatch/dupewatch/idgen"
	"github.com/dupewatch/dupewatch/storefront"
)

const (
	singleID  = "dupewatch-advisory"
	cartClass = "dupewatch-cart-advisory"
)

// Presenter injects and removes advisories on one page.
type Presenter struct {
	page   *rod.Page
	sf     *storefront.Storefront
	newID  idgen.Generator
	logger *slog.Logger
}

// New creates a Presenter for the page.
func New(page *rod.Page, sf *storefront.Storefront, logger *slog.Logger) *Presenter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Presenter{
		page:   page,
		sf:     sf,
		newID:  idgen.Prefixed("adv_", idgen.NanoID(8)),
		logger: logger,
	}
}

// SetStorefront replaces the purchase-anchor locators. The page watcher
// calls this from its event loop when the tab navigates to another store.
func (p *Presenter) SetStorefront(sf *storefront.Storefront) {
	p.sf = sf
}

// ShowSingle places the product-page advisory above the first purchase
// anchor found. Any existing advisory is removed first, so the caller
// can always call this without retracting. Returns the handle of the
// inserted advisory, or "" when no purchase anchor exists on the page
// (nothing was inserted).
func (p *Presenter) ShowSingle(ctx context.Context, platforms []string) (string, error) {
	handle := p.newID()
	res, err := p.page.Context(ctx).Eval(showSingleJS,
		p.sf.PurchaseAnchorLocators, strings.Join(platforms, ", "), handle)
	if err != nil {
		return "", fmt.Errorf("advisory: show: %w", err)
	}
	if !res.Value.Bool() {
		p.logger.Debug("advisory: no purchase anchor found", "platform", p.sf.Platform)
		return "", nil
	}
	return handle, nil
}

// HideSingle removes the product-page advisory. Safe to call when none
// is shown.
func (p *Presenter) HideSingle(ctx context.Context, handle string) error {
	_, err := p.page.Context(ctx).Eval(hideSingleJS)
	if err != nil {
		return fmt.Errorf("advisory: hide: %w", err)
	}
	return nil
}

// ShowCartItem appends an advisory to the cart container identified by
// key. A container already carrying one is left alone.
func (p *Presenter) ShowCartItem(ctx context.Context, key string, platforms []string) error {
	_, err := p.page.Context(ctx).Eval(showCartJS, key, strings.Join(platforms, ", "))
	if err != nil {
		return fmt.Errorf("advisory: show cart item: %w", err)
	}
	return nil
}

const showSingleJS = `(anchors, platforms, handle) => {
	const old = document.getElementById('` + singleID + `');
	if (old) old.remove();

	let anchor = null;
	for (const sel of anchors) {
		anchor = document.querySelector(sel);
		if (anchor) break;
	}
	if (!anchor) return false;

	const div = document.createElement('div');
	div.id = '` + singleID + `';
	div.setAttribute('data-dupewatch-handle', handle);
	div.textContent = '⚠ Already in your library — owned on ' + platforms;
	div.style.cssText =
		'margin:8px 0;padding:10px 14px;border-radius:4px;' +
		'background:#8f6a00;color:#fff;font-size:14px;font-weight:600;' +
		'line-height:1.4;';
	anchor.parentNode.insertBefore(div, anchor);
	return true;
}`

const hideSingleJS = `() => {
	const el = document.getElementById('` + singleID + `');
	if (el) el.remove();
	return true;
}`

const showCartJS = `(key, platforms) => {
	const container = document.querySelector('[data-dupewatch-key="' + key + '"]');
	if (!container) return false;
	if (container.querySelector('.` + cartClass + `')) return true;

	const div = document.createElement('div');
	div.className = '` + cartClass + `';
	div.textContent = '⚠ Owned on ' + platforms;
	div.style.cssText =
		'margin-top:6px;padding:6px 10px;border-radius:4px;' +
		'background:#8f6a00;color:#fff;font-size:13px;font-weight:600;';
	container.appendChild(div);
	return true;
}`
