package main

import (
	"context"
	"fmt"

	"github.com/spindlehq/spindle/internal/library"
	"github.com/spindlehq/spindle/internal/shared"
	"github.com/spindlehq/spindle/internal/spotify"
	"github.com/urfave/cli/v3"
)

// likedPager builds the pager for a liked-songs walk: direct Spotify client
// calls by default, or the proxy path when --remote points at a running
// server.
func (r *Runner) likedPager(ctx context.Context, cmd *cli.Command) (library.LikedPager, error) {
	if remote := cmd.String("remote"); remote != "" {
		return library.NewProxyClient(remote, cmd.String("cookie"), r.httpClient), nil
	}

	token, err := r.resolveToken(ctx, cmd)
	if err != nil {
		return nil, err
	}

	return library.PagerFunc(func(ctx context.Context, limit, offset int) (*spotify.TracksPage, error) {
		return r.spotify.LikedTracks(ctx, token, limit, offset)
	}), nil
}

// Liked walks the full liked-songs collection and writes it as JSON.
func (r *Runner) Liked(ctx context.Context, cmd *cli.Command) error {
	pager, err := r.likedPager(ctx, cmd)
	if err != nil {
		return err
	}

	walker := library.NewLikedWalker(pager, library.WalkOpts{
		RateLimit: cmd.Float64("rate"),
		OnPage: func(s library.Snapshot) {
			r.logger.Info("fetched page", "loaded", s.Progress.Loaded, "total", s.Progress.Total)
		},
	})

	result, err := walker.Walk(ctx)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}

	r.logger.Info("walk complete", "tracks", len(result.Tracks), "state", result.State.String())
	return r.writeJSON(result.Tracks, cmd.Bool("pretty"))
}

// Me fetches the authenticated user's profile.
func (r *Runner) Me(ctx context.Context, cmd *cli.Command) error {
	token, err := r.resolveToken(ctx, cmd)
	if err != nil {
		return err
	}

	user, err := r.spotify.CurrentUser(ctx, token)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}

	return r.writeJSON(user, cmd.Bool("pretty"))
}

// Playlists lists the user's playlists.
func (r *Runner) Playlists(ctx context.Context, cmd *cli.Command) error {
	token, err := r.resolveToken(ctx, cmd)
	if err != nil {
		return err
	}

	page, err := r.spotify.Playlists(ctx, token, cmd.Int("limit"), cmd.Int("offset"))
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}

	if cmd.Bool("json") {
		return r.writeJSON(page, cmd.Bool("pretty"))
	}

	r.writePlain("Found %d playlists (%d total):\n\n", len(page.Items), page.Total)
	for i, p := range page.Items {
		r.writePlain("%d. %s\n", i+1, p.Name)
		if p.Description != "" {
			r.writePlain("   Description: %s\n", p.Description)
		}
		r.writePlain("   ID: %s\n", p.ID)
		r.writePlain("   Owner: %s\n", p.Owner.DisplayName)
		r.writePlain("   Tracks: %d\n\n", p.Tracks.Total)
	}

	return nil
}

// PlaylistTracks lists one page of a playlist's tracks.
func (r *Runner) PlaylistTracks(ctx context.Context, cmd *cli.Command) error {
	playlistID := cmd.StringArg("id")
	if playlistID == "" {
		return fmt.Errorf("%w: playlist id argument is required", shared.ErrMissingArgument)
	}

	token, err := r.resolveToken(ctx, cmd)
	if err != nil {
		return err
	}

	page, err := r.spotify.PlaylistTracks(ctx, token, playlistID, cmd.Int("limit"), cmd.Int("offset"))
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}

	if cmd.Bool("json") {
		return r.writeJSON(page, cmd.Bool("pretty"))
	}

	r.writePlain("Tracks %d-%d of %d:\n\n", page.Offset+1, page.Offset+len(page.Items), page.Total)
	for i, item := range page.Items {
		if item.Track == nil {
			continue
		}
		r.writePlain("%d. %s\n", page.Offset+i+1, formatTrack(*item.Track))
	}

	return nil
}

// Search searches the catalog for tracks.
//
// Queries under 2 characters are rejected here, before any request is made.
func (r *Runner) Search(ctx context.Context, cmd *cli.Command) error {
	query := cmd.StringArg("query")
	if len(query) < 2 {
		return fmt.Errorf("%w: query must be at least 2 characters", shared.ErrInvalidArgument)
	}

	token, err := r.resolveToken(ctx, cmd)
	if err != nil {
		return err
	}

	result, err := r.spotify.SearchTracks(ctx, token, query, cmd.Int("limit"))
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}

	if cmd.Bool("json") {
		return r.writeJSON(result, cmd.Bool("pretty"))
	}

	r.writePlain("Found %d tracks:\n\n", len(result.Tracks.Items))
	for i, t := range result.Tracks.Items {
		r.writePlain("%d. %s\n", i+1, formatTrack(t))
	}

	return nil
}

func formatTrack(t spotify.Track) string {
	artist := ""
	if len(t.Artists) > 0 {
		artist = t.Artists[0].Name
	}
	preview := "no preview"
	if t.PreviewURL != nil && *t.PreviewURL != "" {
		preview = "preview available"
	}
	return fmt.Sprintf("%s - %s (%s) [%s]", artist, t.Name, t.Album.Name, preview)
}

func outputFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:  "token",
			Usage: "Spotify access token (overrides SPOTIFY_ACCESS_TOKEN)",
		},
		&cli.BoolFlag{
			Name:  "json",
			Usage: "Output raw JSON",
		},
		&cli.BoolFlag{
			Name:  "pretty",
			Usage: "Pretty-print output",
		},
	}
}

func pagingFlags(limit int) []cli.Flag {
	return []cli.Flag{
		&cli.IntFlag{
			Name:  "limit",
			Usage: "Maximum number of items to return",
			Value: limit,
		},
		&cli.IntFlag{
			Name:  "offset",
			Usage: "Offset into the collection",
		},
	}
}

func libraryCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "library",
		Usage: "Browse the authenticated user's library",
		Commands: []*cli.Command{
			{
				Name:   "me",
				Usage:  "Show the authenticated user's profile",
				Flags:  outputFlags(),
				Action: r.Me,
			},
			{
				Name:   "playlists",
				Usage:  "List playlists",
				Flags:  append(outputFlags(), pagingFlags(50)...),
				Action: r.Playlists,
			},
			{
				Name:  "tracks",
				Usage: "List one page of a playlist's tracks",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "id"},
				},
				Flags:  append(outputFlags(), pagingFlags(50)...),
				Action: r.PlaylistTracks,
			},
			{
				Name:  "liked",
				Usage: "Fetch the full liked-songs collection",
				Flags: append(outputFlags(),
					&cli.StringFlag{
						Name:  "remote",
						Usage: "Walk through a running proxy server at this base URL",
					},
					&cli.StringFlag{
						Name:  "cookie",
						Usage: "Cookie header to send with --remote requests",
					},
					&cli.Float64Flag{
						Name:  "rate",
						Usage: "Maximum requests per second (0 for unlimited)",
						Value: 5,
					},
				),
				Action: r.Liked,
			},
			{
				Name:  "search",
				Usage: "Search the catalog for tracks",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "query"},
				},
				Flags: append(outputFlags(),
					&cli.IntFlag{
						Name:  "limit",
						Usage: "Maximum number of results",
						Value: 20,
					},
				),
				Action: r.Search,
			},
		},
	}
}
