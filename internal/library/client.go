package library

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/spindlehq/spindle/internal/shared"
	"github.com/spindlehq/spindle/internal/spotify"
)

// ProxyClient walks the liked-songs collection through a running proxy
// server, the same path a browser session takes. Session cookies are passed
// along verbatim.
type ProxyClient struct {
	baseURL    string
	cookie     string
	httpClient *http.Client
}

// NewProxyClient creates a client against the proxy at baseURL. cookie is
// the raw Cookie header carrying the session credentials; httpClient may be
// nil.
func NewProxyClient(baseURL, cookie string, httpClient *http.Client) *ProxyClient {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &ProxyClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		cookie:     cookie,
		httpClient: httpClient,
	}
}

// LikedTracks fetches one liked-songs page via the proxy's action endpoint.
//
// A 401 from the proxy surfaces as [shared.ErrNotAuthenticated] so the walk
// can distinguish "log in again" from "try later".
func (p *ProxyClient) LikedTracks(ctx context.Context, limit, offset int) (*spotify.TracksPage, error) {
	url := fmt.Sprintf("%s/api/spotify?action=liked&limit=%d&offset=%d", p.baseURL, limit, offset)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if p.cookie != "" {
		req.Header.Set("Cookie", p.cookie)
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		return nil, shared.ErrNotAuthenticated
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("%w: status %d: %s", shared.ErrAPIRequest, resp.StatusCode, strings.TrimSpace(string(detail)))
	}

	var page spotify.TracksPage
	if err := json.NewDecoder(resp.Body).Decode(&page); err != nil {
		return nil, fmt.Errorf("%w: failed to decode response: %v", shared.ErrAPIRequest, err)
	}
	return &page, nil
}
