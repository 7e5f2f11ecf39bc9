package spotify

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/spindlehq/spindle/internal/shared"
	itest "github.com/spindlehq/spindle/internal/testing"
)

func TestClient(t *testing.T) {
	ctx := context.Background()

	t.Run("Sends Bearer Token", func(t *testing.T) {
		var gotAuth string
		upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotAuth = r.Header.Get("Authorization")
			w.Write([]byte(`{"id":"user-1","display_name":"Test User"}`))
		}))
		defer upstream.Close()

		client := NewClient(upstream.Client())
		client.SetBaseURL(upstream.URL)

		user, err := client.CurrentUser(ctx, "token-123")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if gotAuth != "Bearer token-123" {
			t.Errorf("expected bearer header, got %q", gotAuth)
		}
		if user.ID != "user-1" {
			t.Errorf("expected user-1, got %q", user.ID)
		}
	})

	t.Run("Translates 401 To ErrTokenExpired", func(t *testing.T) {
		resp := &http.Response{
			StatusCode: http.StatusUnauthorized,
			Body:       io.NopCloser(strings.NewReader("")),
		}
		client := NewClient(&http.Client{Transport: itest.NewMockRoundTripper(resp, nil)})

		_, err := client.CurrentUser(ctx, "stale-token")
		if !errors.Is(err, shared.ErrTokenExpired) {
			t.Errorf("expected ErrTokenExpired, got %v", err)
		}
	})

	t.Run("Connection Failure Folds Into ErrAPIRequest", func(t *testing.T) {
		client := NewClient(&http.Client{Transport: &itest.FailingRoundTripper{}})

		_, err := client.CurrentUser(ctx, "token")
		if !errors.Is(err, shared.ErrAPIRequest) {
			t.Errorf("expected ErrAPIRequest, got %v", err)
		}
	})

	t.Run("Folds Other Failures Into ErrAPIRequest", func(t *testing.T) {
		upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
			w.Write([]byte("upstream broke"))
		}))
		defer upstream.Close()

		client := NewClient(upstream.Client())
		client.SetBaseURL(upstream.URL)

		_, err := client.CurrentUser(ctx, "token")
		if !errors.Is(err, shared.ErrAPIRequest) {
			t.Errorf("expected ErrAPIRequest, got %v", err)
		}
		if errors.Is(err, shared.ErrTokenExpired) {
			t.Error("generic failure must not look like an expired token")
		}
	})

	t.Run("LikedTracks", func(t *testing.T) {
		var gotPath, gotQuery string
		upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotPath = r.URL.Path
			gotQuery = r.URL.RawQuery
			w.Write([]byte(`{
				"items": [
					{"added_at": "2024-01-01T00:00:00Z", "track": {"id": "t1", "name": "Song One", "preview_url": "https://cdn.example/p1.mp3"}},
					{"added_at": "2024-01-02T00:00:00Z", "track": null}
				],
				"total": 120,
				"limit": 50,
				"offset": 0,
				"next": "https://api.spotify.com/v1/me/tracks?offset=50&limit=50"
			}`))
		}))
		defer upstream.Close()

		client := NewClient(upstream.Client())
		client.SetBaseURL(upstream.URL)

		page, err := client.LikedTracks(ctx, "token", 50, 0)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		if gotPath != "/me/tracks" {
			t.Errorf("expected /me/tracks, got %s", gotPath)
		}
		if gotQuery != "limit=50&offset=0" {
			t.Errorf("unexpected query %s", gotQuery)
		}
		if page.Total != 120 {
			t.Errorf("expected total 120, got %d", page.Total)
		}
		if page.Next == nil {
			t.Error("expected next pointer")
		}
		if len(page.Items) != 2 {
			t.Fatalf("expected 2 items, got %d", len(page.Items))
		}
		if page.Items[1].Track != nil {
			t.Error("expected tombstoned item to decode with nil track")
		}
		if page.Items[0].Track.PreviewURL == nil {
			t.Error("expected preview URL to be present")
		}
	})

	t.Run("Limit Defaults", func(t *testing.T) {
		var gotQuery string
		upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotQuery = r.URL.RawQuery
			w.Write([]byte(`{"items": [], "total": 0}`))
		}))
		defer upstream.Close()

		client := NewClient(upstream.Client())
		client.SetBaseURL(upstream.URL)

		if _, err := client.LikedTracks(ctx, "token", 0, 0); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if gotQuery != "limit=50&offset=0" {
			t.Errorf("expected default limit 50, got %s", gotQuery)
		}

		if _, err := client.LikedTracks(ctx, "token", 500, 0); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if gotQuery != "limit=50&offset=0" {
			t.Errorf("expected limit clamped to 50, got %s", gotQuery)
		}
	})

	t.Run("SearchTracks Escapes Query", func(t *testing.T) {
		var gotQuery string
		upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotQuery = r.URL.RawQuery
			w.Write([]byte(`{"tracks": {"items": [{"id": "t1", "name": "Found"}], "total": 1}}`))
		}))
		defer upstream.Close()

		client := NewClient(upstream.Client())
		client.SetBaseURL(upstream.URL)

		result, err := client.SearchTracks(ctx, "token", "hello world", 0)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if gotQuery != "q=hello+world&type=track&limit=20" {
			t.Errorf("unexpected query %s", gotQuery)
		}
		if len(result.Tracks.Items) != 1 {
			t.Errorf("expected 1 track, got %d", len(result.Tracks.Items))
		}
	})

	t.Run("PlaylistTracks Uses Playlist Endpoint", func(t *testing.T) {
		var gotPath string
		upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotPath = r.URL.Path
			w.Write([]byte(`{"items": [], "total": 0}`))
		}))
		defer upstream.Close()

		client := NewClient(upstream.Client())
		client.SetBaseURL(upstream.URL)

		if _, err := client.PlaylistTracks(ctx, "token", "pl-9", 50, 0); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if gotPath != "/playlists/pl-9/tracks" {
			t.Errorf("unexpected path %s", gotPath)
		}
	})
}
