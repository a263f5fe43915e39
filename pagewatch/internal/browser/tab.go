package browser

import (
	"context"
	"fmt"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"
)

// OpenPage opens a new tab at the given URL and waits for the load
// event. Launched browsers get a stealth page so storefronts see an
// ordinary visitor; remote browsers use a plain page since they are
// the user's real profile already.
func (m *Manager) OpenPage(ctx context.Context, url string) (*rod.Page, error) {
	b := m.Browser()
	if b == nil {
		return nil, fmt.Errorf("browser: not started")
	}

	var page *rod.Page
	var err error
	if m.Attached() {
		page, err = b.Page(proto.TargetCreateTarget{URL: "about:blank"})
	} else {
		page, err = stealth.Page(b)
	}
	if err != nil {
		return nil, fmt.Errorf("browser: open page: %w", err)
	}

	page = page.Context(ctx)
	if err := page.Navigate(url); err != nil {
		page.Close()
		return nil, fmt.Errorf("browser: navigate %s: %w", url, err)
	}
	if err := page.WaitLoad(); err != nil {
		page.Close()
		return nil, fmt.Errorf("browser: wait load %s: %w", url, err)
	}
	return page, nil
}
