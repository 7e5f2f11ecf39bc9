package server

import (
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spindlehq/spindle/internal/session"
	"github.com/spindlehq/spindle/internal/shared"
	"github.com/spindlehq/spindle/internal/spotify"
)

// stateCookie carries the CSRF state between login and callback.
const stateCookie = "spotify_auth_state"

// AuthHandler implements the OAuth2 authorization-code entry points.
//
// The consent screen itself is hosted by the provider; this handler only
// issues the redirect, completes the code exchange, and manages the session
// cookies.
type AuthHandler struct {
	auth   *spotify.Authenticator
	secure bool
	logger *log.Logger
}

// NewAuthHandler creates the auth flow handler.
func NewAuthHandler(auth *spotify.Authenticator, secure bool, logger *log.Logger) *AuthHandler {
	return &AuthHandler{auth: auth, secure: secure, logger: logger}
}

// Routes returns the HTTP routes this handler serves.
func (h *AuthHandler) Routes() []string {
	return []string{"/api/auth/login", "/api/auth/callback", "/api/auth/logout"}
}

func (h *AuthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.URL.Path {
	case "/api/auth/login":
		h.login(w, r)
	case "/api/auth/callback":
		h.callback(w, r)
	case "/api/auth/logout":
		h.logout(w, r)
	default:
		http.NotFound(w, r)
	}
}

// login redirects the user to the hosted consent screen with a fresh CSRF
// state parameter.
func (h *AuthHandler) login(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	state := shared.GenerateID()
	http.SetCookie(w, &http.Cookie{
		Name:     stateCookie,
		Value:    state,
		Path:     "/",
		MaxAge:   int((10 * time.Minute).Seconds()),
		HttpOnly: true,
		Secure:   h.secure,
		SameSite: http.SameSiteLaxMode,
	})

	authURL := h.auth.AuthCodeURL(state, h.redirectURI(r))
	http.Redirect(w, r, authURL, http.StatusTemporaryRedirect)
}

// callback completes the code exchange and establishes the session cookies.
//
// All failures surface to the user only as a redirect-with-query-flag; no
// detail is shown.
func (h *AuthHandler) callback(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	q := r.URL.Query()
	code := q.Get("code")

	if errParam := q.Get("error"); errParam != "" || code == "" {
		h.logger.Warn("authorization denied", "error", errParam)
		http.Redirect(w, r, "/?error=auth_failed", http.StatusTemporaryRedirect)
		return
	}

	if c, err := r.Cookie(stateCookie); err != nil || c.Value == "" || c.Value != q.Get("state") {
		h.logger.Warn("state parameter mismatch")
		http.Redirect(w, r, "/?error=auth_failed", http.StatusTemporaryRedirect)
		return
	}

	grant, err := h.auth.Exchange(r.Context(), code, h.redirectURI(r))
	if err != nil {
		h.logger.Error("code exchange failed", "error", err)
		http.Redirect(w, r, "/?error=token_failed", http.StatusTemporaryRedirect)
		return
	}

	store := session.NewCookieStore(w, r, h.secure)
	store.Set(session.AccessTokenKey, grant.AccessToken, grant.TTL())
	store.Set(session.RefreshTokenKey, grant.RefreshToken, session.RefreshTokenTTL)

	clearCookie(w, stateCookie, h.secure)
	http.Redirect(w, r, "/dashboard", http.StatusTemporaryRedirect)
}

// logout clears both session cookies and returns to the landing page.
func (h *AuthHandler) logout(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	session.Clear(session.NewCookieStore(w, r, h.secure))
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// redirectURI derives the callback URI from the configured value, falling
// back to the inbound request's origin. "localhost" is rewritten to
// "127.0.0.1" because the provider matches redirect URIs literally.
func (h *AuthHandler) redirectURI(r *http.Request) string {
	if uri := h.auth.RedirectURI(); uri != "" {
		return uri
	}

	scheme := "http"
	if r.TLS != nil || h.secure {
		scheme = "https"
	}

	host := r.Host
	if u, err := url.Parse(scheme + "://" + host); err == nil && u.Hostname() == "localhost" {
		port := u.Port()
		host = "127.0.0.1"
		if port != "" {
			host = "127.0.0.1:" + port
		}
	}

	return fmt.Sprintf("%s://%s/api/auth/callback", scheme, host)
}

func clearCookie(w http.ResponseWriter, name string, secure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
}
