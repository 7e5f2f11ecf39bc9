// Package library implements client-side session state over the proxy: the
// liked-songs pagination walk, the playback queue, and per-track download
// state.
//
// The upstream catalog only returns bounded pages, so [LikedWalker] drives
// repeated requests against a [LikedPager] until the collection is fully
// assembled, publishing an incremental snapshot after every page. The
// walker's requests are strictly sequential: offsets are computable in
// advance, but sequential fetching bounds concurrent upstream load and lets
// cancellation stop the remaining calls.
//
// Two pagers exist: the CLI drives the Spotify client directly via
// [PagerFunc], and [ProxyClient] walks through a running proxy server the
// way a browser session would.
package library
