package libsync

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/tidwall/gjson"

	"github.com/dupewatch/dupewatch/library"
)

const steamAPIBase = "https://api.steampowered.com"

// SteamSource fetches the owned-game list via the Steam Web API
// (IPlayerService/GetOwnedGames). Requires a pre-issued Web API key and
// the user's 64-bit SteamID.
type SteamSource struct {
	// BaseURL overrides the Steam API host. Tests point it at a local server.
	BaseURL string

	apiKey  string
	steamID string
	client  *retryablehttp.Client
	logger  *slog.Logger
}

// NewSteam creates a Steam source.
func NewSteam(apiKey, steamID string, logger *slog.Logger) *SteamSource {
	if logger == nil {
		logger = slog.Default()
	}
	client := retryablehttp.NewClient()
	client.RetryMax = 3
	client.Logger = nil // retryablehttp's own logger is too chatty; we log outcomes.

	return &SteamSource{
		BaseURL: steamAPIBase,
		apiKey:  apiKey,
		steamID: steamID,
		client:  client,
		logger:  logger,
	}
}

func (s *SteamSource) Platform() string { return "steam" }

// Fetch calls GetOwnedGames with include_appinfo so responses carry game
// names, and walks the JSON for titles.
func (s *SteamSource) Fetch(ctx context.Context) ([]library.Entry, error) {
	q := url.Values{}
	q.Set("key", s.apiKey)
	q.Set("steamid", s.steamID)
	q.Set("include_appinfo", "1")
	q.Set("format", "json")
	endpoint := s.BaseURL + "/IPlayerService/GetOwnedGames/v1/?" + q.Encode()

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("libsync: steam request: %w", err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("libsync: steam fetch: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("libsync: steam fetch: status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 32<<20))
	if err != nil {
		return nil, fmt.Errorf("libsync: steam read body: %w", err)
	}

	games := gjson.GetBytes(body, "response.games")
	if !games.Exists() {
		// A valid response with a private profile or empty library has
		// no games array at all.
		s.logger.Warn("libsync: steam response has no games array",
			"game_count", gjson.GetBytes(body, "response.game_count").Int())
		return nil, nil
	}

	var entries []library.Entry
	games.ForEach(func(_, g gjson.Result) bool {
		name := g.Get("name").String()
		if name == "" {
			return true
		}
		entries = append(entries, library.Entry{Title: name, Platform: "steam"})
		return true
	})

	s.logger.Info("libsync: steam fetched", "entries", len(entries))
	return entries, nil
}
