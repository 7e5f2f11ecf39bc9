package session

import (
	"context"

	"github.com/spindlehq/spindle/internal/shared"
	"github.com/spindlehq/spindle/internal/spotify"
)

// Refresher mints a new access token from a refresh token.
// Satisfied by [spotify.Authenticator].
type Refresher interface {
	Refresh(ctx context.Context, refreshToken string) (*spotify.TokenGrant, error)
}

// ResolveToken produces a guaranteed-usable bearer token for the session, or
// [shared.ErrNotAuthenticated].
//
// A stored access token is returned as-is with no upstream call; freshness is
// trusted to the store's own TTL bookkeeping. Otherwise the stored refresh
// token is exchanged exactly once and the result persisted back into the
// store. Any refresh failure treats the refresh token as spent: no retry, no
// partial credit, the user re-authenticates.
//
// This is the only path bridging credential storage and the accounts service;
// every caller that needs a token goes through it so the refresh-then-persist
// sequence exists once. Concurrent calls for one session may race on the
// refresh; each response is independently valid and the last write wins, so
// the worst case is a redundant refresh call.
func ResolveToken(ctx context.Context, store CredentialStore, refresher Refresher) (string, error) {
	if token, ok := store.Get(AccessTokenKey); ok {
		return token, nil
	}

	refreshToken, ok := store.Get(RefreshTokenKey)
	if !ok {
		return "", shared.ErrNotAuthenticated
	}

	grant, err := refresher.Refresh(ctx, refreshToken)
	if err != nil {
		return "", shared.ErrNotAuthenticated
	}

	store.Set(AccessTokenKey, grant.AccessToken, grant.TTL())
	return grant.AccessToken, nil
}

// Clear removes both stored credentials, ending the session.
func Clear(store CredentialStore) {
	store.Delete(AccessTokenKey)
	store.Delete(RefreshTokenKey)
}
