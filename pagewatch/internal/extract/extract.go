// Package extract pulls game titles out of live storefront pages using
// the per-storefront selector tables.
package extract

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-rod/rod"

	"github.com/dupewatch/dupewatch/storefront"
)

// CartItem is one cart entry with a DOM key that stays stable across
// rescans of the same document. The key is written into the container
// element the first time it is seen.
type CartItem struct {
	Key   string
	Title string
}

// Extractor reads titles from one page for one storefront.
type Extractor struct {
	page *rod.Page
	sf   *storefront.Storefront
}

// New creates an Extractor for the page.
func New(page *rod.Page, sf *storefront.Storefront) *Extractor {
	return &Extractor{page: page, sf: sf}
}

// SetStorefront replaces the selector tables. The page watcher calls
// this from its event loop when the tab navigates to another store.
func (e *Extractor) SetStorefront(sf *storefront.Storefront) {
	e.sf = sf
}

// ProductTitle extracts the game title from a product page. Locators
// are tried in order; the first element whose text passes the
// storefront's validation wins. Empty string means no usable title,
// which callers must treat as "don't know", never as "not owned".
func (e *Extractor) ProductTitle(ctx context.Context) (string, error) {
	res, err := e.page.Context(ctx).Eval(productTitleJS,
		e.sf.TitleLocators, e.sf.MinTitleLen, e.sf.RejectTitleTokens)
	if err != nil {
		return "", fmt.Errorf("extract: product title: %w", err)
	}

	t := strings.TrimSpace(res.Value.Str())
	if !e.sf.ValidTitle(t) {
		return "", nil
	}
	return t, nil
}

// CartItems extracts one entry per cart container. Containers are
// deduplicated: a cart row with several links inside still yields one
// item. Entries whose title cannot be found come back with an empty
// Title and are skipped by the caller.
func (e *Extractor) CartItems(ctx context.Context) ([]CartItem, error) {
	cart := e.sf.Cart
	if cart.ItemLocator == "" {
		return nil, nil
	}

	res, err := e.page.Context(ctx).Eval(cartItemsJS,
		cart.ItemLocator, cart.ContainerLocator, cart.TitleLocators)
	if err != nil {
		return nil, fmt.Errorf("extract: cart items: %w", err)
	}

	var items []CartItem
	for _, el := range res.Value.Arr() {
		it := CartItem{
			Key:   el.Get("key").Str(),
			Title: strings.TrimSpace(el.Get("title").Str()),
		}
		if it.Key == "" {
			continue
		}
		items = append(items, it)
	}
	return items, nil
}

const productTitleJS = `(sels, minLen, reject) => {
	for (const sel of sels) {
		for (const el of document.querySelectorAll(sel)) {
			const text = (el.textContent || '').trim();
			if (!text) continue;
			if (minLen && text.length < minLen) continue;
			if (reject && reject.some((t) => text.toLowerCase().includes(t))) continue;
			return text;
		}
	}
	return '';
}`

const cartItemsJS = `(itemSel, containerSel, titleSels) => {
	const items = [];
	const seen = new Set();
	let n = 0;
	for (const link of document.querySelectorAll(itemSel)) {
		const container = containerSel ? link.closest(containerSel) : link.parentElement;
		if (!container || seen.has(container)) continue;
		seen.add(container);

		let key = container.getAttribute('data-dupewatch-key');
		if (!key) {
			key = 'ci-' + (++n) + '-' + Math.random().toString(36).slice(2, 8);
			container.setAttribute('data-dupewatch-key', key);
		}

		let title = '';
		for (const sel of titleSels || []) {
			const el = container.querySelector(sel);
			if (el && el.textContent && el.textContent.trim()) {
				title = el.textContent.trim();
				break;
			}
		}
		if (!title) {
			const img = container.querySelector('img[alt]');
			if (img) title = (img.getAttribute('alt') || '').trim();
		}

		items.push({ key: key, title: title });
	}
	return items;
}`
