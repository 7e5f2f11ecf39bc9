package library

import (
	"sync"

	"github.com/spindlehq/spindle/internal/shared"
	"github.com/spindlehq/spindle/internal/spotify"
)

// DownloadStatus is the per-track download state, keyed by track id.
type DownloadStatus int

const (
	StatusIdle DownloadStatus = iota
	StatusDownloading
	StatusDone
	StatusError
)

func (s DownloadStatus) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusDownloading:
		return "downloading"
	case StatusDone:
		return "done"
	case StatusError:
		return "error"
	default:
		return "unknown"
	}
}

// Downloads tracks transient per-track preview download state. Nothing here
// is persisted.
type Downloads struct {
	mu     sync.Mutex
	states map[string]DownloadStatus
}

// NewDownloads creates an empty download tracker.
func NewDownloads() *Downloads {
	return &Downloads{states: make(map[string]DownloadStatus)}
}

// Status returns the track's current state; unknown tracks are idle.
func (d *Downloads) Status(id string) DownloadStatus {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.states[id]
}

// Start transitions the track to downloading via the preview path.
//
// A track with no preview URL never leaves idle or error through this path:
// Start refuses with [shared.ErrNoPreview] and the state stays put. The
// full-track download path is independent and unaffected.
func (d *Downloads) Start(t spotify.Track) error {
	if t.PreviewURL == nil || *t.PreviewURL == "" {
		return shared.ErrNoPreview
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	d.states[t.ID] = StatusDownloading
	return nil
}

// Done marks the track's download as finished.
func (d *Downloads) Done(id string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.states[id] = StatusDone
}

// Fail marks the track's download as failed.
func (d *Downloads) Fail(id string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.states[id] = StatusError
}
