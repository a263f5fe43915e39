// Package libsync populates the merged library from per-platform sources:
// the Steam Web API, a scraped Epic order-history page, and CSV imports
// (dropped files or a watched hot-folder). Each source produces a full
// entry list for its platform; the store swap is atomic, so the watcher
// side only ever sees complete snapshots.
//
// Credentials are configuration inputs. Token issuance and OAuth flows
// live outside this module.
package libsync

import (
	"context"

	"github.com/dupewatch/dupewatch/library"
)

// Source fetches the complete owned-game list for one platform.
type Source interface {
	// Platform is the library platform identifier this source feeds.
	Platform() string
	// Fetch returns every owned entry. A fetch error leaves the stored
	// snapshot untouched; partial results are never written.
	Fetch(ctx context.Context) ([]library.Entry, error)
}
