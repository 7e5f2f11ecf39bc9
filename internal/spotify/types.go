// Spotify Web API response types based on https://developer.spotify.com/documentation/web-api/reference/
package spotify

// Image represents an image resource.
type Image struct {
	URL    string `json:"url"`
	Height int    `json:"height"`
	Width  int    `json:"width"`
}

type followers struct {
	Total int `json:"total"`
}

// User represents a Spotify user profile.
type User struct {
	ID          string    `json:"id"`
	DisplayName string    `json:"display_name"`
	Email       string    `json:"email"`
	Country     string    `json:"country"`
	Product     string    `json:"product"` // premium, free, etc.
	Followers   followers `json:"followers"`
	Images      []Image   `json:"images"`
}

// Artist represents a Spotify artist as embedded in track objects.
type Artist struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Album represents a Spotify album as embedded in track objects.
type Album struct {
	ID     string  `json:"id"`
	Name   string  `json:"name"`
	Images []Image `json:"images"`
}

type externalURLs struct {
	Spotify string `json:"spotify"`
}

// Track represents a Spotify track.
//
// PreviewURL is nil for tracks without a 30-second preview. That is a
// common, legitimate state rather than an error.
type Track struct {
	ID           string       `json:"id"`
	Name         string       `json:"name"`
	Artists      []Artist     `json:"artists"`
	Album        Album        `json:"album"`
	DurationMS   int          `json:"duration_ms"`
	PreviewURL   *string      `json:"preview_url"`
	ExternalURLs externalURLs `json:"external_urls"`
}

// TrackItem represents a track within a library or playlist context.
//
// Track is nil for tombstoned entries the upstream still counts in totals.
type TrackItem struct {
	AddedAt string `json:"added_at"`
	Track   *Track `json:"track"`
}

// Owner identifies the owner of a playlist.
type Owner struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
}

type playlistTracks struct {
	Total int `json:"total"`
}

// PlaylistSummary represents a simplified playlist object (used in lists).
type PlaylistSummary struct {
	ID          string         `json:"id"`
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Owner       Owner          `json:"owner"`
	Tracks      playlistTracks `json:"tracks"`
	Images      []Image        `json:"images"`
}

// TracksPage represents a paginated response of saved or playlist tracks.
type TracksPage struct {
	Items    []TrackItem `json:"items"`
	Total    int         `json:"total"`
	Limit    int         `json:"limit"`
	Offset   int         `json:"offset"`
	Next     *string     `json:"next"`
	Previous *string     `json:"previous"`
}

// PlaylistsPage represents a paginated response of playlists.
type PlaylistsPage struct {
	Items    []PlaylistSummary `json:"items"`
	Total    int               `json:"total"`
	Limit    int               `json:"limit"`
	Offset   int               `json:"offset"`
	Next     *string           `json:"next"`
	Previous *string           `json:"previous"`
}

// SearchTracksPage represents the track slice of a search response.
type SearchTracksPage struct {
	Items  []Track `json:"items"`
	Total  int     `json:"total"`
	Limit  int     `json:"limit"`
	Offset int     `json:"offset"`
	Next   *string `json:"next"`
}

// SearchResult represents a track search response.
type SearchResult struct {
	Tracks SearchTracksPage `json:"tracks"`
}
