package library

import (
	"context"
	"sync"

	"github.com/spindlehq/spindle/internal/spotify"
	"golang.org/x/time/rate"
)

// WalkState describes where a liked-songs walk currently is.
type WalkState int

const (
	WalkIdle WalkState = iota
	WalkFetching
	WalkComplete
	WalkFailed
)

func (s WalkState) String() string {
	switch s {
	case WalkIdle:
		return "idle"
	case WalkFetching:
		return "fetching"
	case WalkComplete:
		return "complete"
	case WalkFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Progress reports how far a walk has come. Total is the collection size
// reported by the first page and trusted for the remainder of the walk.
type Progress struct {
	Loaded int `json:"loaded"`
	Total  int `json:"total"`
}

// Snapshot is one published view of a walk in progress. Tracks is a copy the
// receiver may keep.
type Snapshot struct {
	Tracks   []spotify.Track
	Progress Progress
}

// LikedPager fetches one page of the liked-songs collection.
type LikedPager interface {
	LikedTracks(ctx context.Context, limit, offset int) (*spotify.TracksPage, error)
}

// PagerFunc adapts a function to the [LikedPager] interface.
type PagerFunc func(ctx context.Context, limit, offset int) (*spotify.TracksPage, error)

func (f PagerFunc) LikedTracks(ctx context.Context, limit, offset int) (*spotify.TracksPage, error) {
	return f(ctx, limit, offset)
}

// WalkOpts configures a liked-songs walk.
type WalkOpts struct {
	PageSize  int            // Page size per request (default 50)
	RateLimit float64        // Requests per second, 0 for unlimited
	OnPage    func(Snapshot) // Called after every successful page
}

// WalkResult is the final outcome of a walk. Tracks holds whatever was
// accumulated, including partial results after a failure or cancellation.
type WalkResult struct {
	Tracks []spotify.Track
	Total  int
	State  WalkState
}

// LikedWalker assembles the full liked-songs collection from bounded pages.
//
// State machine: Idle → Fetching(offset) → {Fetching(offset+pageSize),
// Complete, Failed}. At most one request is in flight per walk.
type LikedWalker struct {
	pager LikedPager
	opts  WalkOpts

	mu     sync.Mutex
	state  WalkState
	tracks []spotify.Track
	total  int
}

// NewLikedWalker creates a walker over the given pager.
func NewLikedWalker(pager LikedPager, opts WalkOpts) *LikedWalker {
	if opts.PageSize <= 0 {
		opts.PageSize = spotify.DefaultPageLimit
	}
	return &LikedWalker{pager: pager, opts: opts, state: WalkIdle}
}

// State returns the walk's current state.
func (w *LikedWalker) State() WalkState {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state
}

// Walk runs the full traversal. It terminates when the upstream reports no
// further page, or a page yields zero usable items, whichever comes first.
//
// Cancellation is cooperative: the context is checked before each request and
// no further calls are issued once it is done, but accumulated results from
// already-published snapshots are kept and returned alongside the error.
func (w *LikedWalker) Walk(ctx context.Context) (*WalkResult, error) {
	w.setState(WalkFetching)

	var limiter *rate.Limiter
	if w.opts.RateLimit > 0 {
		limiter = rate.NewLimiter(rate.Limit(w.opts.RateLimit), 1)
	}

	offset := 0
	for {
		if err := ctx.Err(); err != nil {
			return w.finish(WalkFailed, err)
		}
		if limiter != nil {
			if err := limiter.Wait(ctx); err != nil {
				return w.finish(WalkFailed, err)
			}
		}

		page, err := w.pager.LikedTracks(ctx, w.opts.PageSize, offset)
		if err != nil {
			// A 401 arrives here as shared.ErrNotAuthenticated from the
			// pager; the walk aborts either way without retrying the page.
			return w.finish(WalkFailed, err)
		}

		usable := usableTracks(page.Items)

		w.mu.Lock()
		if offset == 0 {
			w.total = page.Total
		}
		w.tracks = append(w.tracks, usable...)
		snapshot := w.snapshotLocked()
		w.mu.Unlock()

		if w.opts.OnPage != nil {
			w.opts.OnPage(snapshot)
		}

		if page.Next == nil || len(usable) == 0 {
			return w.finish(WalkComplete, nil)
		}
		offset += w.opts.PageSize
	}
}

// usableTracks filters out tombstoned entries: items whose embedded track is
// absent or carries no id.
func usableTracks(items []spotify.TrackItem) []spotify.Track {
	tracks := make([]spotify.Track, 0, len(items))
	for _, item := range items {
		if item.Track == nil || item.Track.ID == "" {
			continue
		}
		tracks = append(tracks, *item.Track)
	}
	return tracks
}

func (w *LikedWalker) setState(s WalkState) {
	w.mu.Lock()
	w.state = s
	w.mu.Unlock()
}

func (w *LikedWalker) snapshotLocked() Snapshot {
	tracks := make([]spotify.Track, len(w.tracks))
	copy(tracks, w.tracks)
	return Snapshot{
		Tracks:   tracks,
		Progress: Progress{Loaded: len(w.tracks), Total: w.total},
	}
}

func (w *LikedWalker) finish(state WalkState, err error) (*WalkResult, error) {
	w.mu.Lock()
	w.state = state
	result := &WalkResult{
		Tracks: make([]spotify.Track, len(w.tracks)),
		Total:  w.total,
		State:  state,
	}
	copy(result.Tracks, w.tracks)
	w.mu.Unlock()
	return result, err
}
