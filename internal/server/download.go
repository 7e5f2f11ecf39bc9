package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"

	"github.com/charmbracelet/log"
)

var filenameSanitizer = regexp.MustCompile(`[^a-zA-Z0-9\s\-_.()]`)

// SanitizeFilename strips characters that are unsafe in a download filename.
func SanitizeFilename(name string) string {
	return strings.TrimSpace(filenameSanitizer.ReplaceAllString(name, ""))
}

// PreviewFilename builds the attachment filename for a preview download.
func PreviewFilename(artist, track string) string {
	return SanitizeFilename(fmt.Sprintf("%s - %s.mp3", artist, track))
}

// previewRequest is the body of a preview download request.
type previewRequest struct {
	PreviewURL string `json:"previewUrl"`
	TrackName  string `json:"trackName"`
	ArtistName string `json:"artistName"`
}

// fullDownloadRequest is the body of a full-track download request.
type fullDownloadRequest struct {
	TrackName  string `json:"trackName"`
	ArtistName string `json:"artistName"`
}

// downloaderPayload is the body forwarded to the external downloader service.
type downloaderPayload struct {
	TrackName  string `json:"track_name"`
	ArtistName string `json:"artist_name"`
}

// DownloadHandler serves preview MP3s and proxies full-track downloads to
// the external downloader service. Both routes are credential-free: the
// preview URL is public CDN content and the downloader service holds its own
// catalog access.
type DownloadHandler struct {
	httpClient    *http.Client
	downloaderURL string
	logger        *log.Logger
}

// NewDownloadHandler creates the download proxy handler. The downloader URL
// points at the external full-track service; httpClient may be nil.
func NewDownloadHandler(downloaderURL string, httpClient *http.Client, logger *log.Logger) *DownloadHandler {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &DownloadHandler{
		httpClient:    httpClient,
		downloaderURL: strings.TrimRight(downloaderURL, "/"),
		logger:        logger,
	}
}

// Routes returns the HTTP routes this handler serves.
func (h *DownloadHandler) Routes() []string {
	return []string{"/api/download", "/api/full-download"}
}

func (h *DownloadHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	switch r.URL.Path {
	case "/api/download":
		h.preview(w, r)
	case "/api/full-download":
		h.fullDownload(w, r)
	default:
		http.NotFound(w, r)
	}
}

// preview fetches the track's 30-second preview and streams it back as an
// MP3 attachment.
func (h *DownloadHandler) preview(w http.ResponseWriter, r *http.Request) {
	var req previewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if req.PreviewURL == "" {
		writeError(w, http.StatusBadRequest, "No preview URL available for this track")
		return
	}

	resp, err := h.httpClient.Get(req.PreviewURL)
	if err != nil {
		h.logger.Error("preview fetch failed", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to fetch preview")
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		h.logger.Error("preview fetch failed", "status", resp.StatusCode)
		writeError(w, http.StatusInternalServerError, "Failed to fetch preview")
		return
	}

	filename := PreviewFilename(req.ArtistName, req.TrackName)
	w.Header().Set("Content-Type", "audio/mpeg")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	if cl := resp.Header.Get("Content-Length"); cl != "" {
		w.Header().Set("Content-Length", cl)
	}
	w.WriteHeader(http.StatusOK)
	io.Copy(w, resp.Body)
}

// fullDownload forwards the request to the external downloader service and
// streams its response back. The service is opaque: connection failures
// surface as 503, any non-2xx as a generic failure with best-effort detail.
func (h *DownloadHandler) fullDownload(w http.ResponseWriter, r *http.Request) {
	var req fullDownloadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	payload, err := json.Marshal(downloaderPayload{
		TrackName:  req.TrackName,
		ArtistName: req.ArtistName,
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, "API request failed")
		return
	}

	upstream, err := http.NewRequestWithContext(r.Context(), http.MethodPost, h.downloaderURL+"/download", bytes.NewReader(payload))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "API request failed")
		return
	}
	upstream.Header.Set("Content-Type", "application/json")

	resp, err := h.httpClient.Do(upstream)
	if err != nil {
		h.logger.Error("downloader service unreachable", "error", err)
		writeError(w, http.StatusServiceUnavailable, "Music downloader service is unavailable")
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		msg := strings.TrimSpace(string(detail))
		if msg == "" {
			msg = "Unknown error"
		}
		writeError(w, http.StatusInternalServerError, msg)
		return
	}

	disposition := resp.Header.Get("Content-Disposition")
	if disposition == "" {
		disposition = fmt.Sprintf("attachment; filename=%q", PreviewFilename(req.ArtistName, req.TrackName))
	}

	w.Header().Set("Content-Type", "audio/mpeg")
	w.Header().Set("Content-Disposition", disposition)
	w.WriteHeader(http.StatusOK)
	io.Copy(w, resp.Body)
}
