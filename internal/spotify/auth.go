package spotify

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/spindlehq/spindle/internal/shared"
	"golang.org/x/oauth2"
)

// Scopes requested from the user at the consent screen.
var scopes = []string{
	"user-read-private",
	"user-read-email",
	"playlist-read-private",
	"playlist-read-collaborative",
	"user-library-read",
}

// TokenGrant is the token endpoint's response for either grant type.
//
// RefreshToken is only present on the authorization_code grant.
type TokenGrant struct {
	AccessToken  string `json:"access_token"`
	TokenType    string `json:"token_type"`
	Scope        string `json:"scope"`
	ExpiresIn    int    `json:"expires_in"`
	RefreshToken string `json:"refresh_token"`
}

// TTL returns the access token lifetime reported by the provider.
func (g *TokenGrant) TTL() time.Duration {
	return time.Duration(g.ExpiresIn) * time.Second
}

// Authenticator handles the OAuth2 authorization-code and refresh-token
// exchanges against the Spotify accounts service.
//
// Uses [oauth2.Config] for the consent screen URL; the token endpoint calls
// are explicit Basic-auth form posts so refresh failures stay distinguishable
// from exchange failures.
type Authenticator struct {
	config     *oauth2.Config
	tokenURL   string
	httpClient *http.Client
}

// NewAuthenticator creates an Authenticator from the given credentials map.
// Requires "client_id" and "client_secret"; "redirect_uri" is optional and
// may be overridden per request.
func NewAuthenticator(credentials map[string]string) (*Authenticator, error) {
	clientID, ok := credentials["client_id"]
	if !ok || clientID == "" {
		return nil, fmt.Errorf("%w: missing client_id", shared.ErrMissingCredentials)
	}

	clientSecret, ok := credentials["client_secret"]
	if !ok || clientSecret == "" {
		return nil, fmt.Errorf("%w: missing client_secret", shared.ErrMissingCredentials)
	}

	config := &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		RedirectURL:  credentials["redirect_uri"],
		Scopes:       scopes,
		Endpoint: oauth2.Endpoint{
			AuthURL:  authURL,
			TokenURL: tokenURL,
		},
	}

	return &Authenticator{
		config:     config,
		tokenURL:   tokenURL,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}, nil
}

// SetTokenURL overrides the token endpoint. Used by tests.
func (a *Authenticator) SetTokenURL(u string) {
	a.tokenURL = u
}

// RedirectURI returns the configured redirect URI, or empty if unset.
func (a *Authenticator) RedirectURI() string {
	return a.config.RedirectURL
}

// AuthCodeURL returns the consent screen URL for the given CSRF state and
// redirect URI. The consent dialog is always shown so a user can switch
// accounts.
func (a *Authenticator) AuthCodeURL(state, redirectURI string) string {
	cfg := *a.config
	cfg.RedirectURL = redirectURI
	return cfg.AuthCodeURL(state, oauth2.SetAuthURLParam("show_dialog", "true"))
}

// Exchange trades an authorization code for an access and refresh token pair.
//
// A non-2xx response surfaces as [shared.ErrAuthFailed] with the upstream
// detail attached.
func (a *Authenticator) Exchange(ctx context.Context, code, redirectURI string) (*TokenGrant, error) {
	form := url.Values{}
	form.Set("grant_type", "authorization_code")
	form.Set("code", code)
	form.Set("redirect_uri", redirectURI)

	grant, detail, err := a.postToken(ctx, form)
	if err != nil {
		return nil, err
	}
	if detail != "" {
		return nil, fmt.Errorf("%w: %s", shared.ErrAuthFailed, detail)
	}
	return grant, nil
}

// Refresh trades a refresh token for a new access token.
//
// Failures carry no upstream detail: the caller treats the refresh token as
// spent either way, so there is nothing actionable to forward.
func (a *Authenticator) Refresh(ctx context.Context, refreshToken string) (*TokenGrant, error) {
	form := url.Values{}
	form.Set("grant_type", "refresh_token")
	form.Set("refresh_token", refreshToken)

	grant, detail, err := a.postToken(ctx, form)
	if err != nil {
		return nil, err
	}
	if detail != "" {
		return nil, shared.ErrRefreshFailed
	}
	return grant, nil
}

// postToken posts a form to the token endpoint with Basic client auth.
// Returns the decoded grant, or the non-2xx response body as detail.
func (a *Authenticator) postToken(ctx context.Context, form url.Values) (*TokenGrant, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.tokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, "", fmt.Errorf("failed to create request: %w", err)
	}

	req.SetBasicAuth(a.config.ClientID, a.config.ClientSecret)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		text := strings.TrimSpace(string(detail))
		if text == "" {
			text = fmt.Sprintf("status %d", resp.StatusCode)
		}
		return nil, text, nil
	}

	var grant TokenGrant
	if err := json.NewDecoder(resp.Body).Decode(&grant); err != nil {
		return nil, "", fmt.Errorf("failed to decode token response: %w", err)
	}
	return &grant, "", nil
}
