package spotify

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/spindlehq/spindle/internal/shared"
)

const (
	authURL  = "https://accounts.spotify.com/authorize"
	tokenURL = "https://accounts.spotify.com/api/token"
	baseURL  = "https://api.spotify.com/v1"
)

// Default page sizes per endpoint, matching the Spotify API caps.
const (
	DefaultPageLimit   = 50
	DefaultSearchLimit = 20
)

// Client performs read-only catalog queries against the Spotify Web API.
//
// All methods take the bearer token explicitly; the client holds no
// credential state and may be shared across sessions.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a Spotify API client. A nil httpClient gets a bounded
// timeout so a hung upstream call cannot stall a request forever.
func NewClient(httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &Client{baseURL: baseURL, httpClient: httpClient}
}

// SetBaseURL overrides the API base URL. Used by tests.
func (c *Client) SetBaseURL(u string) {
	c.baseURL = strings.TrimRight(u, "/")
}

// get performs an authenticated GET against the Spotify API.
//
// A 401 is translated to [shared.ErrTokenExpired] so callers can react to it
// distinctly; any other non-2xx folds into [shared.ErrAPIRequest]. This layer
// never retries, refresh-on-expiry belongs to the caller.
func (c *Client) get(ctx context.Context, token, endpoint string, result any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+endpoint, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		return shared.ErrTokenExpired
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("%w: status %d: %s", shared.ErrAPIRequest, resp.StatusCode, strings.TrimSpace(string(detail)))
	}

	if result != nil {
		if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
			return fmt.Errorf("%w: failed to decode response: %v", shared.ErrAPIRequest, err)
		}
	}

	return nil
}

// CurrentUser retrieves the authenticated user's profile.
func (c *Client) CurrentUser(ctx context.Context, token string) (*User, error) {
	var user User
	if err := c.get(ctx, token, "/me", &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// Playlists retrieves the current user's playlists with pagination.
func (c *Client) Playlists(ctx context.Context, token string, limit, offset int) (*PlaylistsPage, error) {
	limit = clampLimit(limit, DefaultPageLimit)
	endpoint := fmt.Sprintf("/me/playlists?limit=%d&offset=%d", limit, offset)

	var page PlaylistsPage
	if err := c.get(ctx, token, endpoint, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// PlaylistTracks retrieves one page of a playlist's tracks.
func (c *Client) PlaylistTracks(ctx context.Context, token, playlistID string, limit, offset int) (*TracksPage, error) {
	limit = clampLimit(limit, DefaultPageLimit)
	endpoint := fmt.Sprintf("/playlists/%s/tracks?limit=%d&offset=%d", url.PathEscape(playlistID), limit, offset)

	var page TracksPage
	if err := c.get(ctx, token, endpoint, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// LikedTracks retrieves one page of the user's saved tracks.
//
// Liked songs and playlist tracks share the same page shape upstream,
// differing only in endpoint.
func (c *Client) LikedTracks(ctx context.Context, token string, limit, offset int) (*TracksPage, error) {
	limit = clampLimit(limit, DefaultPageLimit)
	endpoint := fmt.Sprintf("/me/tracks?limit=%d&offset=%d", limit, offset)

	var page TracksPage
	if err := c.get(ctx, token, endpoint, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// SearchTracks searches the catalog for tracks matching the query.
func (c *Client) SearchTracks(ctx context.Context, token, query string, limit int) (*SearchResult, error) {
	limit = clampLimit(limit, DefaultSearchLimit)
	endpoint := fmt.Sprintf("/search?q=%s&type=track&limit=%d", url.QueryEscape(query), limit)

	var result SearchResult
	if err := c.get(ctx, token, endpoint, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func clampLimit(limit, fallback int) int {
	if limit <= 0 {
		return fallback
	}
	if limit > 50 {
		return 50
	}
	return limit
}
