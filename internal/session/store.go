// package session holds per-session credential storage and the token
// resolution path that bridges it to the Spotify accounts service.
package session

import (
	"net/http"
	"sync"
	"time"
)

// Cookie names holding the Spotify credential pair.
const (
	AccessTokenKey  = "spotify_access_token"
	RefreshTokenKey = "spotify_refresh_token"
)

// RefreshTokenTTL is the fixed lifetime granted to a stored refresh token,
// counted from the last successful exchange. The provider does not report a
// refresh token lifetime, so this is a policy constant.
const RefreshTokenTTL = 30 * 24 * time.Hour

// CredentialStore reads and writes the session's secrets.
//
// A miss is the boolean false, never an error. Implementations do no
// validation of value contents.
type CredentialStore interface {
	Get(name string) (string, bool)
	Set(name, value string, ttl time.Duration)
	Delete(name string)
}

// CookieStore is a CredentialStore bound to one HTTP request/response pair.
//
// Values are transported as HttpOnly, SameSite=Lax cookies, marked Secure
// when the server sits behind TLS. Reads come from the inbound request;
// writes become Set-Cookie headers on the response.
type CookieStore struct {
	w      http.ResponseWriter
	r      *http.Request
	secure bool
}

// NewCookieStore creates a CookieStore for the given request/response pair.
func NewCookieStore(w http.ResponseWriter, r *http.Request, secure bool) *CookieStore {
	return &CookieStore{w: w, r: r, secure: secure}
}

func (s *CookieStore) Get(name string) (string, bool) {
	c, err := s.r.Cookie(name)
	if err != nil || c.Value == "" {
		return "", false
	}
	return c.Value, true
}

func (s *CookieStore) Set(name, value string, ttl time.Duration) {
	http.SetCookie(s.w, &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		MaxAge:   int(ttl.Seconds()),
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func (s *CookieStore) Delete(name string) {
	http.SetCookie(s.w, &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

type memoryEntry struct {
	value   string
	expires time.Time
}

// MemoryStore is an in-process, TTL-aware CredentialStore used by the CLI
// runner and tests.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	now     func() time.Time
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		entries: make(map[string]memoryEntry),
		now:     time.Now,
	}
}

func (s *MemoryStore) Get(name string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[name]
	if !ok {
		return "", false
	}
	if !e.expires.IsZero() && s.now().After(e.expires) {
		delete(s.entries, name)
		return "", false
	}
	return e.value, true
}

func (s *MemoryStore) Set(name, value string, ttl time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var expires time.Time
	if ttl > 0 {
		expires = s.now().Add(ttl)
	}
	s.entries[name] = memoryEntry{value: value, expires: expires}
}

func (s *MemoryStore) Delete(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, name)
}
