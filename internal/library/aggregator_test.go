package library

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/spindlehq/spindle/internal/shared"
	"github.com/spindlehq/spindle/internal/spotify"
)

// fakePager serves a fixed collection in pages, recording every request.
type fakePager struct {
	tracks   []spotify.TrackItem
	requests int
	failAt   int   // request index (1-based) at which to fail, 0 for never
	failWith error // error returned at failAt
}

func (p *fakePager) LikedTracks(ctx context.Context, limit, offset int) (*spotify.TracksPage, error) {
	p.requests++
	if p.failAt > 0 && p.requests >= p.failAt {
		return nil, p.failWith
	}

	end := offset + limit
	if end > len(p.tracks) {
		end = len(p.tracks)
	}
	items := p.tracks[offset:end]

	page := &spotify.TracksPage{
		Items:  items,
		Total:  len(p.tracks),
		Limit:  limit,
		Offset: offset,
	}
	if end < len(p.tracks) {
		next := fmt.Sprintf("https://api.spotify.com/v1/me/tracks?offset=%d&limit=%d", end, limit)
		page.Next = &next
	}
	return page, nil
}

// scriptPager serves a fixed sequence of pages verbatim, one per request.
type scriptPager struct {
	pages    []*spotify.TracksPage
	requests int
}

func (p *scriptPager) LikedTracks(ctx context.Context, limit, offset int) (*spotify.TracksPage, error) {
	if p.requests >= len(p.pages) {
		return nil, fmt.Errorf("request %d past the scripted pages", p.requests+1)
	}
	page := p.pages[p.requests]
	p.requests++
	return page, nil
}

func makeItems(n int) []spotify.TrackItem {
	items := make([]spotify.TrackItem, n)
	for i := range items {
		items[i] = spotify.TrackItem{
			Track: &spotify.Track{
				ID:   fmt.Sprintf("track-%d", i),
				Name: fmt.Sprintf("Track %d", i),
			},
		}
	}
	return items
}

func TestLikedWalker(t *testing.T) {
	t.Run("Full Traversal", func(t *testing.T) {
		pager := &fakePager{tracks: makeItems(250)}
		var snapshots []Snapshot
		walker := NewLikedWalker(pager, WalkOpts{
			PageSize: 50,
			OnPage:   func(s Snapshot) { snapshots = append(snapshots, s) },
		})

		result, err := walker.Walk(context.Background())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if result.State != WalkComplete {
			t.Errorf("expected complete, got %s", result.State)
		}
		if len(result.Tracks) != 250 {
			t.Errorf("expected 250 tracks, got %d", len(result.Tracks))
		}
		if result.Total != 250 {
			t.Errorf("expected total 250, got %d", result.Total)
		}
		if pager.requests != 5 {
			t.Errorf("expected 5 page requests, got %d", pager.requests)
		}
		if len(snapshots) != 5 {
			t.Fatalf("expected a snapshot per page, got %d", len(snapshots))
		}

		for i, s := range snapshots {
			wantLoaded := (i + 1) * 50
			if s.Progress.Loaded != wantLoaded || s.Progress.Total != 250 {
				t.Errorf("snapshot %d: got %+v, want loaded=%d total=250", i, s.Progress, wantLoaded)
			}
		}

		if result.Tracks[0].ID != "track-0" || result.Tracks[249].ID != "track-249" {
			t.Error("tracks must accumulate in collection order")
		}
	})

	t.Run("Trailing Empty Page", func(t *testing.T) {
		// The upstream may advertise a next page after the last full one and
		// then serve it empty. Every page, the empty one included, publishes
		// a snapshot.
		next := "https://api.spotify.com/v1/me/tracks?offset=next"
		all := makeItems(250)
		var pages []*spotify.TracksPage
		for i := 0; i < 5; i++ {
			pages = append(pages, &spotify.TracksPage{
				Items:  all[i*50 : (i+1)*50],
				Total:  250,
				Limit:  50,
				Offset: i * 50,
				Next:   &next,
			})
		}
		pages = append(pages, &spotify.TracksPage{Total: 250, Limit: 50, Offset: 250})

		pager := &scriptPager{pages: pages}
		var snapshots []Snapshot
		walker := NewLikedWalker(pager, WalkOpts{
			PageSize: 50,
			OnPage:   func(s Snapshot) { snapshots = append(snapshots, s) },
		})

		result, err := walker.Walk(context.Background())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if result.State != WalkComplete {
			t.Errorf("expected complete, got %s", result.State)
		}
		if len(result.Tracks) != 250 {
			t.Errorf("expected 250 tracks, got %d", len(result.Tracks))
		}
		if pager.requests != 6 {
			t.Errorf("expected 6 requests, got %d", pager.requests)
		}
		if len(snapshots) != 6 {
			t.Errorf("expected 6 snapshots, got %d", len(snapshots))
		}
	})

	t.Run("Stops On Zero Usable Items Despite Next", func(t *testing.T) {
		// A page of nothing but tombstones ends the walk even when the
		// upstream still claims a next page.
		next := "https://api.spotify.com/v1/me/tracks?offset=next"
		tombstones := make([]spotify.TrackItem, 50)

		pager := &scriptPager{pages: []*spotify.TracksPage{
			{Items: makeItems(50), Total: 200, Limit: 50, Offset: 0, Next: &next},
			{Items: tombstones, Total: 200, Limit: 50, Offset: 50, Next: &next},
		}}
		walker := NewLikedWalker(pager, WalkOpts{PageSize: 50})

		result, err := walker.Walk(context.Background())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if result.State != WalkComplete {
			t.Errorf("expected complete, got %s", result.State)
		}
		if len(result.Tracks) != 50 {
			t.Errorf("expected 50 tracks, got %d", len(result.Tracks))
		}
		if pager.requests != 2 {
			t.Errorf("expected no request past the tombstone page, got %d", pager.requests)
		}
	})

	t.Run("Stops On Missing Next", func(t *testing.T) {
		// 120 tracks at page size 50: page 3 is short and carries no next,
		// so no fourth request may be issued.
		pager := &fakePager{tracks: makeItems(120)}
		walker := NewLikedWalker(pager, WalkOpts{PageSize: 50})

		result, err := walker.Walk(context.Background())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(result.Tracks) != 120 {
			t.Errorf("expected 120 tracks, got %d", len(result.Tracks))
		}
		if pager.requests != 3 {
			t.Errorf("expected exactly 3 requests, got %d", pager.requests)
		}
	})

	t.Run("Tombstones Filtered", func(t *testing.T) {
		items := makeItems(3)
		items = append(items, spotify.TrackItem{Track: nil})
		items = append(items, spotify.TrackItem{Track: &spotify.Track{ID: ""}})
		pager := &fakePager{tracks: items}
		walker := NewLikedWalker(pager, WalkOpts{PageSize: 50})

		result, err := walker.Walk(context.Background())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(result.Tracks) != 3 {
			t.Errorf("expected tombstones dropped, got %d tracks", len(result.Tracks))
		}
		// Total still reflects the upstream count, tombstones included.
		if result.Total != 5 {
			t.Errorf("expected upstream total 5, got %d", result.Total)
		}
	})

	t.Run("Auth Failure Mid Walk", func(t *testing.T) {
		pager := &fakePager{
			tracks:   makeItems(200),
			failAt:   3,
			failWith: shared.ErrNotAuthenticated,
		}
		walker := NewLikedWalker(pager, WalkOpts{PageSize: 50})

		result, err := walker.Walk(context.Background())
		if !errors.Is(err, shared.ErrNotAuthenticated) {
			t.Fatalf("expected ErrNotAuthenticated, got %v", err)
		}
		if result.State != WalkFailed {
			t.Errorf("expected failed, got %s", result.State)
		}
		if len(result.Tracks) != 100 {
			t.Errorf("expected the two successful pages retained, got %d tracks", len(result.Tracks))
		}
		if walker.State() != WalkFailed {
			t.Errorf("expected walker state failed, got %s", walker.State())
		}
	})

	t.Run("Cancellation Retains Partial Results", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())

		pager := &fakePager{tracks: makeItems(500)}
		walker := NewLikedWalker(pager, WalkOpts{
			PageSize: 50,
			OnPage: func(s Snapshot) {
				if s.Progress.Loaded >= 100 {
					cancel()
				}
			},
		})

		result, err := walker.Walk(ctx)
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("expected context.Canceled, got %v", err)
		}
		if len(result.Tracks) != 100 {
			t.Errorf("expected partial results kept, got %d tracks", len(result.Tracks))
		}
		if pager.requests != 2 {
			t.Errorf("expected no request after cancellation, got %d", pager.requests)
		}
	})

	t.Run("Empty Collection", func(t *testing.T) {
		pager := &fakePager{}
		walker := NewLikedWalker(pager, WalkOpts{PageSize: 50})

		result, err := walker.Walk(context.Background())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if result.State != WalkComplete {
			t.Errorf("expected complete, got %s", result.State)
		}
		if len(result.Tracks) != 0 {
			t.Errorf("expected no tracks, got %d", len(result.Tracks))
		}
	})

	t.Run("Snapshot Isolation", func(t *testing.T) {
		pager := &fakePager{tracks: makeItems(60)}
		var first Snapshot
		walker := NewLikedWalker(pager, WalkOpts{
			PageSize: 50,
			OnPage: func(s Snapshot) {
				if first.Tracks == nil {
					first = s
				}
			},
		})

		result, err := walker.Walk(context.Background())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(first.Tracks) != 50 {
			t.Fatalf("expected the first snapshot frozen at 50 tracks, got %d", len(first.Tracks))
		}

		first.Tracks[0].Name = "mutated"
		if result.Tracks[0].Name == "mutated" {
			t.Error("mutating a snapshot must not leak into the walk result")
		}
	})
}

func TestWalkStateString(t *testing.T) {
	cases := map[WalkState]string{
		WalkIdle:      "idle",
		WalkFetching:  "fetching",
		WalkComplete:  "complete",
		WalkFailed:    "failed",
		WalkState(99): "unknown",
	}
	for state, want := range cases {
		if got := state.String(); got != want {
			t.Errorf("WalkState(%d).String() = %q, want %q", state, got, want)
		}
	}
}
