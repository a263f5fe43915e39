package libsync

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/hashicorp/go-retryablehttp"

	"github.com/dupewatch/dupewatch/library"
)

const epicHistoryURL = "https://www.epicgames.com/account/transactions"

// Epic has no public library API; the source scrapes the account's
// order-history page using the session cookie the user is already
// carrying in their browser.
type EpicSource struct {
	// HistoryURL overrides the order-history endpoint. Tests point it at
	// a local server.
	HistoryURL string

	cookie string
	client *retryablehttp.Client
	logger *slog.Logger
}

// NewEpic creates an Epic order-history source. cookie is the raw Cookie
// header value for the epicgames.com session.
func NewEpic(cookie string, logger *slog.Logger) *EpicSource {
	if logger == nil {
		logger = slog.Default()
	}
	client := retryablehttp.NewClient()
	client.RetryMax = 3
	client.Logger = nil

	return &EpicSource{
		HistoryURL: epicHistoryURL,
		cookie:     cookie,
		client:     client,
		logger:     logger,
	}
}

func (e *EpicSource) Platform() string { return "epic" }

// Fetch downloads the order-history page and parses purchase rows.
func (e *EpicSource) Fetch(ctx context.Context) ([]library.Entry, error) {
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, e.HistoryURL, nil)
	if err != nil {
		return nil, fmt.Errorf("libsync: epic request: %w", err)
	}
	req.Header.Set("Cookie", e.cookie)

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("libsync: epic fetch: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("libsync: epic fetch: status %d", resp.StatusCode)
	}

	entries, err := ParseOrderHistory(io.LimitReader(resp.Body, 32<<20))
	if err != nil {
		return nil, err
	}
	e.logger.Info("libsync: epic fetched", "entries", len(entries))
	return entries, nil
}

// Order-history title locators, most specific first. The markup has
// changed across site revisions; each known shape gets a selector.
var epicTitleSelectors = []string{
	`[data-testid="order-row"] [data-testid="offer-title"]`,
	`.order-history__item .item-title`,
	`table.transactions td.transaction-title`,
}

// ParseOrderHistory extracts game titles from an Epic order-history
// document. Titles are deduplicated; a game bought twice (refund, regift)
// is still one library entry.
func ParseOrderHistory(r io.Reader) ([]library.Entry, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("libsync: epic parse: %w", err)
	}

	var entries []library.Entry
	seen := make(map[string]struct{})

	for _, sel := range epicTitleSelectors {
		doc.Find(sel).Each(func(_ int, s *goquery.Selection) {
			title := strings.TrimSpace(s.Text())
			if title == "" {
				return
			}
			if _, dup := seen[title]; dup {
				return
			}
			seen[title] = struct{}{}
			entries = append(entries, library.Entry{Title: title, Platform: "epic"})
		})
		if len(entries) > 0 {
			break
		}
	}

	return entries, nil
}
