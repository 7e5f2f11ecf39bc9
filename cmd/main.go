package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spindlehq/spindle/internal/shared"
	"github.com/spindlehq/spindle/internal/spotify"
	"github.com/urfave/cli/v3"
)

func main() {
	logger := shared.NewLogger(nil)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	config := shared.DefaultConfig()
	if _, err := os.Stat("config.toml"); err == nil {
		if loadedConfig, err := shared.LoadConfig("config.toml"); err == nil {
			config = loadedConfig
		}
	}

	var auth *spotify.Authenticator
	if config.Credentials.Spotify.ClientID != "" && config.Credentials.Spotify.ClientSecret != "" {
		if a, err := spotify.NewAuthenticator(config.Credentials.Spotify.Map()); err == nil {
			auth = a
		}
	}

	runner := NewRunner(RunnerOpts{
		Config: config,
		Auth:   auth,
		Logger: logger,
	})

	app := &cli.Command{
		Name:     "spindle",
		Usage:    "Browse your Spotify library and fetch preview audio",
		Version:  "0.1.0",
		Commands: runner.register(),
	}

	if err := app.Run(ctx, os.Args); err != nil {
		logger.Fatalf("application error: %v", err)
	}
}
