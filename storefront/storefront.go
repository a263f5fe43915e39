// Package storefront holds the declarative per-storefront configuration:
// which hosts belong to which platform, where the product title lives in
// the DOM, where the purchase action is, how cart line items are found,
// and which URL paths are product or cart pages. The watcher selects one
// Storefront per page load; everything downstream is driven by the record,
// never by per-store branching.
package storefront

import (
	"net/url"
	"regexp"
	"strings"
)

// PageKind classifies a URL within a supported storefront.
type PageKind int

const (
	// KindOther is a supported storefront page that is neither a product
	// detail page nor a cart. The watcher stays passive on these.
	KindOther PageKind = iota
	KindProduct
	KindCart
)

func (k PageKind) String() string {
	switch k {
	case KindProduct:
		return "product"
	case KindCart:
		return "cart"
	default:
		return "other"
	}
}

// Cart describes how multi-item cart pages are read.
type Cart struct {
	// ItemLocator selects a product link inside a cart line item.
	ItemLocator string
	// ContainerLocator is the closest() selector resolving a link to its
	// line-item container, the dedupe key for per-item advisories.
	ContainerLocator string
	// TitleLocators are tried in order within the container; the item's
	// img alt text is the final fallback.
	TitleLocators []string
}

// Storefront is the capability record for one supported store.
type Storefront struct {
	// Platform is the library platform identifier ("steam", "epic", "gog").
	Platform string

	// Hosts are the navigable hostnames served by this store.
	Hosts []string

	// TitleLocators are the product-title CSS selectors, most reliable
	// first. Tried in order; first non-empty trimmed text wins.
	TitleLocators []string

	// PurchaseAnchorLocators locate the purchase-action region the single
	// advisory is inserted next to. No anchor means no advisory.
	PurchaseAnchorLocators []string

	// Cart configuration; zero value means the store has no cart page.
	Cart Cart

	// MinTitleLen rejects extracted candidates shorter than this.
	// Zero disables the check.
	MinTitleLen int

	// RejectTitleTokens rejects candidates containing any of these
	// case-insensitive substrings (navigation chrome such as the store's
	// own brand name).
	RejectTitleTokens []string

	productPaths []*regexp.Regexp
	cartPaths    []*regexp.Regexp
}

// ForURL selects the storefront serving raw's host, if any. Selection
// happens once per page load; unsupported hosts leave the watcher idle.
func ForURL(raw string) (*Storefront, bool) {
	u, err := url.Parse(raw)
	if err != nil {
		return nil, false
	}
	host := strings.ToLower(u.Hostname())
	for _, sf := range table {
		for _, h := range sf.Hosts {
			if host == h {
				return sf, true
			}
		}
	}
	return nil, false
}

// ByPlatform returns the storefront record for a platform identifier.
func ByPlatform(platform string) (*Storefront, bool) {
	for _, sf := range table {
		if strings.EqualFold(sf.Platform, platform) {
			return sf, true
		}
	}
	return nil, false
}

// Classify reports what kind of page the URL is on this storefront.
// Unrecognized paths are KindOther.
func (s *Storefront) Classify(raw string) PageKind {
	u, err := url.Parse(raw)
	if err != nil {
		return KindOther
	}
	path := u.Path
	for _, re := range s.cartPaths {
		if re.MatchString(path) {
			return KindCart
		}
	}
	for _, re := range s.productPaths {
		if re.MatchString(path) {
			return KindProduct
		}
	}
	return KindOther
}

// ValidTitle applies the store's extraction validation to a candidate.
func (s *Storefront) ValidTitle(t string) bool {
	t = strings.TrimSpace(t)
	if t == "" {
		return false
	}
	if s.MinTitleLen > 0 && len(t) < s.MinTitleLen {
		return false
	}
	lower := strings.ToLower(t)
	for _, tok := range s.RejectTitleTokens {
		if strings.Contains(lower, tok) {
			return false
		}
	}
	return true
}

// Supported storefronts. Locator lists mirror each store's live page
// structure; keep the most specific selector first.
var table = []*Storefront{
	{
		Platform: "steam",
		Hosts:    []string{"store.steampowered.com"},
		TitleLocators: []string{
			".apphub_AppName",
			"#appHubAppName",
			".page_title_area .apphub_AppName",
			"h1.apphub_AppName",
		},
		PurchaseAnchorLocators: []string{
			".game_purchase_action",
			".game_area_purchase_game",
			".game_purchase_sub_dropdown",
		},
		Cart: Cart{
			ItemLocator:      `a[href*="/app/"]`,
			ContainerLocator: `div[class*="Panel"][class*="Focusable"]`,
			TitleLocators:    []string{`div[id*=":r"]`},
		},
		productPaths: compilePaths(`^/app/\d+`),
		cartPaths:    compilePaths(`^/cart`),
	},
	{
		Platform: "epic",
		Hosts:    []string{"store.epicgames.com"},
		TitleLocators: []string{
			`[data-testid="pdp-product-name"]`,
			"h1",
			`[data-testid="product-title"]`,
			`[data-testid="game-title"]`,
		},
		PurchaseAnchorLocators: []string{
			`[data-testid="purchase-cta-button"]`,
		},
		Cart: Cart{
			ItemLocator:      `a[href*="/p/"]`,
			ContainerLocator: `div[data-testid="offer-card"]`,
			TitleLocators:    []string{`[data-testid="offer-title-info-title"]`},
		},
		// Epic paths carry an optional locale prefix: /en-US/p/slug.
		productPaths: compilePaths(`^(/[a-z]{2}(-[A-Z]{2})?)?/p/`),
		cartPaths:    compilePaths(`^(/[a-z]{2}(-[A-Z]{2})?)?/cart`),
		MinTitleLen:  3,
		RejectTitleTokens: []string{
			"epic games",
		},
	},
	{
		Platform: "gog",
		Hosts:    []string{"www.gog.com", "gog.com"},
		TitleLocators: []string{
			".productcard-basics__title",
			"h1.productcard-basics__title",
			".product-title h1",
		},
		PurchaseAnchorLocators: []string{
			".productcard-basics__buy-button",
		},
		// GOG paths carry an optional locale prefix: /en/game/slug.
		productPaths: compilePaths(`^(/[a-z]{2})?/game/`),
		cartPaths:    compilePaths(`^(/[a-z]{2})?/checkout`),
	},
}

func compilePaths(patterns ...string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		out = append(out, regexp.MustCompile(p))
	}
	return out
}
