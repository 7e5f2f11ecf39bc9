package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spindlehq/spindle/internal/library"
	"github.com/spindlehq/spindle/internal/server"
	"github.com/spindlehq/spindle/internal/shared"
	"github.com/spindlehq/spindle/internal/spotify"
	"github.com/urfave/cli/v3"
)

// fetchPreview downloads a preview MP3 to the given path.
func (r *Runner) fetchPreview(previewURL, path string) error {
	resp, err := r.httpClient.Get(previewURL)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%w: status %d", shared.ErrAPIRequest, resp.StatusCode)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer f.Close()

	if _, err := io.Copy(f, resp.Body); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}
	return nil
}

// DownloadPreview fetches a single track's preview MP3 to disk.
func (r *Runner) DownloadPreview(ctx context.Context, cmd *cli.Command) error {
	previewURL := cmd.String("url")
	if previewURL == "" {
		return fmt.Errorf("%w: --url flag is required", shared.ErrMissingArgument)
	}

	filename := server.PreviewFilename(cmd.String("artist"), cmd.String("track"))
	path := filepath.Join(cmd.String("dir"), filename)

	if err := r.fetchPreview(previewURL, path); err != nil {
		return err
	}

	r.writePlain("✓ Saved %s\n", path)
	return nil
}

// DownloadLiked walks the liked-songs collection and downloads every
// available preview, skipping duplicates and tracks without preview audio.
func (r *Runner) DownloadLiked(ctx context.Context, cmd *cli.Command) error {
	dir := cmd.String("dir")
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	pager, err := r.likedPager(ctx, cmd)
	if err != nil {
		return err
	}

	// Collect the queue first so the dedup happens before any download.
	queue := library.NewQueue()
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
	for _, t := range result.Tracks {
		queue.Add(t)
	}

	downloads := library.NewDownloads()
	saved, skipped, failed := 0, 0, 0

	for _, t := range queue.Tracks() {
		if err := ctx.Err(); err != nil {
			break
		}

		if err := downloads.Start(t); err != nil {
			// No preview audio for this track; it stays idle.
			skipped++
			continue
		}

		path := filepath.Join(dir, previewFilename(t))
		if err := r.fetchPreview(*t.PreviewURL, path); err != nil {
			downloads.Fail(t.ID)
			r.logger.Warn("preview download failed", "track", t.Name, "error", err)
			failed++
			continue
		}

		downloads.Done(t.ID)
		saved++
	}

	r.writePlain("✓ Saved %d previews to %s (%d without preview, %d failed)\n", saved, dir, skipped, failed)
	return nil
}

func previewFilename(t spotify.Track) string {
	artist := ""
	if len(t.Artists) > 0 {
		artist = t.Artists[0].Name
	}
	return server.PreviewFilename(artist, t.Name)
}

func downloadCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "download",
		Usage: "Download 30-second preview audio",
		Commands: []*cli.Command{
			{
				Name:  "preview",
				Usage: "Download a single preview MP3",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "url",
						Usage: "Preview URL to fetch",
					},
					&cli.StringFlag{
						Name:  "artist",
						Usage: "Artist name for the filename",
					},
					&cli.StringFlag{
						Name:  "track",
						Usage: "Track name for the filename",
					},
					&cli.StringFlag{
						Name:  "dir",
						Usage: "Output directory",
						Value: ".",
					},
				},
				Action: r.DownloadPreview,
			},
			{
				Name:  "liked",
				Usage: "Download previews for the full liked-songs collection",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "token",
						Usage: "Spotify access token (overrides SPOTIFY_ACCESS_TOKEN)",
					},
					&cli.StringFlag{
						Name:  "remote",
						Usage: "Walk through a running proxy server at this base URL",
					},
					&cli.StringFlag{
						Name:  "cookie",
						Usage: "Cookie header to send with --remote requests",
					},
					&cli.StringFlag{
						Name:  "dir",
						Usage: "Output directory",
						Value: "previews",
					},
					&cli.Float64Flag{
						Name:  "rate",
						Usage: "Maximum requests per second (0 for unlimited)",
						Value: 5,
					},
				},
				Action: r.DownloadLiked,
			},
		},
	}
}
