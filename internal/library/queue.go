package library

import (
	"sync"

	"github.com/spindlehq/spindle/internal/spotify"
)

// Queue is an insertion-ordered sequence of tracks deduplicated by id.
//
// A mirror set of ids keeps the membership test O(1); the slice keeps the
// order. Tracks without an id are not queueable.
type Queue struct {
	mu     sync.Mutex
	tracks []spotify.Track
	ids    map[string]struct{}
}

// NewQueue creates an empty queue.
func NewQueue() *Queue {
	return &Queue{ids: make(map[string]struct{})}
}

// Add appends a track to the queue. Returns false if the track has no id or
// is already queued; an existing entry keeps its original position.
func (q *Queue) Add(t spotify.Track) bool {
	if t.ID == "" {
		return false
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	if _, ok := q.ids[t.ID]; ok {
		return false
	}
	q.ids[t.ID] = struct{}{}
	q.tracks = append(q.tracks, t)
	return true
}

// Remove drops the track with the given id, preserving the order of the
// rest. Returns false if the id was not queued.
func (q *Queue) Remove(id string) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if _, ok := q.ids[id]; !ok {
		return false
	}
	delete(q.ids, id)

	for i, t := range q.tracks {
		if t.ID == id {
			q.tracks = append(q.tracks[:i], q.tracks[i+1:]...)
			break
		}
	}
	return true
}

// Contains reports whether a track with the given id is queued.
func (q *Queue) Contains(id string) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	_, ok := q.ids[id]
	return ok
}

// Len returns the number of queued tracks.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.tracks)
}

// Tracks returns a copy of the queued tracks in insertion order.
func (q *Queue) Tracks() []spotify.Track {
	q.mu.Lock()
	defer q.mu.Unlock()

	tracks := make([]spotify.Track, len(q.tracks))
	copy(tracks, q.tracks)
	return tracks
}

// Clear empties the queue.
func (q *Queue) Clear() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.tracks = nil
	q.ids = make(map[string]struct{})
}
