// Package server provides HTTP routing, middleware, and the handlers that
// make up the Spotify library proxy.
//
// # Router Infrastructure
//
// The [Router] interface defines HTTP routing with middleware support.
//
// [Middleware] wraps handlers in reverse order (last added executes first), following the standard Go pattern.
//
// The [BasicRouter] implementation uses [http.ServeMux] internally with method filtering.
//
// # Handlers
//
// [SpotifyHandler] is the single-endpoint action dispatcher at /api/spotify.
// Each request resolves its own credential store from the session cookies,
// obtains a bearer token through [session.ResolveToken], and dispatches on
// the action query parameter to one of the catalog queries. All failure
// modes normalize to three HTTP outcomes: 401 when no token is resolvable or
// the upstream rejects one, 400 for contract violations by the caller, and
// 500 for everything else upstream.
//
// [AuthHandler] implements the OAuth2 authorization-code entry points:
// login redirects to the hosted consent screen, callback exchanges the code
// and sets the session cookies, logout clears them.
//
// [DownloadHandler] serves preview MP3 downloads by proxying the track's
// preview URL, and forwards full-track requests to the external downloader
// service.
//
// # Handler Interface
//
// Custom handlers implement the [Handler] interface, which wraps the stdlib handler interface and adds routes,
// allowing handlers to register multiple routes to encapsulate route definitions within the implementation.
package server
