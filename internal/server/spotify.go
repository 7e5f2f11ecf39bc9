package server

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strconv"

	"github.com/charmbracelet/log"
	"github.com/spindlehq/spindle/internal/session"
	"github.com/spindlehq/spindle/internal/shared"
	"github.com/spindlehq/spindle/internal/spotify"
)

// badRequest marks a caller-side contract violation. Never retried, always
// reported verbatim with the offending field named.
type badRequest struct {
	msg string
}

func (e badRequest) Error() string { return e.msg }

// actionFunc runs one catalog action: it validates its own parameters,
// dispatches to the matching upstream query, and returns the upstream page
// unchanged.
type actionFunc func(ctx context.Context, h *SpotifyHandler, token string, q url.Values) (any, error)

// actions is the closed dispatch table for the /api/spotify endpoint.
// Adding an action is a one-place change here; unknown discriminants never
// reach a handler.
var actions = map[string]actionFunc{
	"me":              actionMe,
	"playlists":       actionPlaylists,
	"playlist-tracks": actionPlaylistTracks,
	"liked":           actionLiked,
	"search":          actionSearch,
}

// SpotifyHandler is the single-endpoint dispatcher over the catalog queries.
//
// Stateless across requests: each call resolves its own cookie-backed
// credential store, so concurrent sessions share nothing.
type SpotifyHandler struct {
	client *spotify.Client
	auth   session.Refresher
	secure bool
	logger *log.Logger
}

// NewSpotifyHandler creates the action dispatcher.
func NewSpotifyHandler(client *spotify.Client, auth session.Refresher, secure bool, logger *log.Logger) *SpotifyHandler {
	return &SpotifyHandler{client: client, auth: auth, secure: secure, logger: logger}
}

// Routes returns the HTTP routes this handler serves.
func (h *SpotifyHandler) Routes() []string {
	return []string{"/api/spotify"}
}

// ServeHTTP resolves the session token, dispatches the requested action, and
// normalizes every failure into one of three outcomes: 401 for anything that
// needs re-authentication, 400 for caller mistakes, 500 for the rest.
func (h *SpotifyHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	store := session.NewCookieStore(w, r, h.secure)
	token, err := session.ResolveToken(r.Context(), store, h.auth)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "Not authenticated")
		return
	}

	q := r.URL.Query()
	action, ok := actions[q.Get("action")]
	if !ok {
		writeError(w, http.StatusBadRequest, "Invalid action")
		return
	}

	result, err := action(r.Context(), h, token, q)
	if err != nil {
		var br badRequest
		switch {
		case errors.As(err, &br):
			writeError(w, http.StatusBadRequest, br.msg)
		case errors.Is(err, shared.ErrTokenExpired):
			// Observably identical to a missing session: re-authentication
			// is the only recovery either way.
			writeError(w, http.StatusUnauthorized, "Token expired")
		default:
			h.logger.Error("upstream request failed", "action", q.Get("action"), "error", err)
			writeError(w, http.StatusInternalServerError, "API request failed")
		}
		return
	}

	writeJSON(w, http.StatusOK, result)
}

func actionMe(ctx context.Context, h *SpotifyHandler, token string, _ url.Values) (any, error) {
	return h.client.CurrentUser(ctx, token)
}

func actionPlaylists(ctx context.Context, h *SpotifyHandler, token string, q url.Values) (any, error) {
	limit := intParam(q, "limit", spotify.DefaultPageLimit)
	offset := intParam(q, "offset", 0)
	return h.client.Playlists(ctx, token, limit, offset)
}

func actionPlaylistTracks(ctx context.Context, h *SpotifyHandler, token string, q url.Values) (any, error) {
	playlistID := q.Get("playlistId")
	if playlistID == "" {
		return nil, badRequest{msg: "playlistId required"}
	}
	limit := intParam(q, "limit", spotify.DefaultPageLimit)
	offset := intParam(q, "offset", 0)
	return h.client.PlaylistTracks(ctx, token, playlistID, limit, offset)
}

func actionLiked(ctx context.Context, h *SpotifyHandler, token string, q url.Values) (any, error) {
	limit := intParam(q, "limit", spotify.DefaultPageLimit)
	offset := intParam(q, "offset", 0)
	return h.client.LikedTracks(ctx, token, limit, offset)
}

func actionSearch(ctx context.Context, h *SpotifyHandler, token string, q url.Values) (any, error) {
	query := q.Get("q")
	if query == "" {
		return nil, badRequest{msg: "q required"}
	}
	limit := intParam(q, "limit", spotify.DefaultSearchLimit)
	return h.client.SearchTracks(ctx, token, query, limit)
}

// intParam parses a numeric query parameter, falling back to the action's
// default when absent or malformed.
func intParam(q url.Values, name string, fallback int) int {
	raw := q.Get(name)
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return n
}
