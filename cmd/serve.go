package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/spindlehq/spindle/internal/server"
	"github.com/spindlehq/spindle/internal/shared"
	"github.com/urfave/cli/v3"
)

// Serve runs the library proxy HTTP server until the context is cancelled.
func (r *Runner) Serve(ctx context.Context, cmd *cli.Command) error {
	if r.auth == nil {
		return fmt.Errorf("%w: Spotify client_id and client_secret must be set in config.toml", shared.ErrMissingCredentials)
	}

	host := cmd.String("host")
	if host == "" {
		host = r.config.Server.Host
	}
	port := cmd.Int("port")
	if port == 0 {
		port = r.config.Server.Port
	}
	addr := fmt.Sprintf("%s:%d", host, port)
	secure := r.config.Server.SecureCookies

	router := server.NewBasicRouter()
	router.Use(server.RequestLogger(r.logger))
	router.Handler(server.NewSpotifyHandler(r.spotify, r.auth, secure, r.logger))
	router.Handler(server.NewAuthHandler(r.auth, secure, r.logger))
	router.Handler(server.NewDownloadHandler(r.config.Downloader.URL, r.httpClient, r.logger))

	srv := &http.Server{Addr: addr, Handler: router}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	r.logger.Info("server listening", "addr", addr)

	if cmd.Bool("open") {
		loginURL := fmt.Sprintf("http://%s/api/auth/login", addr)
		if err := shared.OpenBrowser(loginURL); err != nil {
			r.logger.Warn("failed to open browser", "error", err)
		}
	}

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server error: %w", err)
	}
}

func serveCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Run the library proxy HTTP server",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "host",
				Usage: "Host to bind (overrides config)",
			},
			&cli.IntFlag{
				Name:  "port",
				Usage: "Port to bind (overrides config)",
			},
			&cli.BoolFlag{
				Name:  "open",
				Usage: "Open the login page in a browser after startup",
			},
		},
		Action: r.Serve,
	}
}
