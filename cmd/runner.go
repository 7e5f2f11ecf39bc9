package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spindlehq/spindle/internal/session"
	"github.com/spindlehq/spindle/internal/shared"
	"github.com/spindlehq/spindle/internal/spotify"
	"github.com/urfave/cli/v3"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config     *shared.Config
	auth       *spotify.Authenticator
	spotify    *spotify.Client
	httpClient *http.Client
	logger     *log.Logger
	output     io.Writer
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config     *shared.Config
	Auth       *spotify.Authenticator
	Spotify    *spotify.Client
	HTTPClient *http.Client
	Logger     *log.Logger
	Output     io.Writer
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Config == nil {
		opts.Config = shared.DefaultConfig()
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = http.DefaultClient
	}
	if opts.Spotify == nil {
		opts.Spotify = spotify.NewClient(nil)
	}

	return &Runner{
		config:     opts.Config,
		auth:       opts.Auth,
		spotify:    opts.Spotify,
		httpClient: opts.HTTPClient,
		logger:     opts.Logger,
		output:     opts.Output,
	}
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, serveCommand, libraryCommand, downloadCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// credentialStore builds a per-invocation store from the --token flag or the
// SPOTIFY_ACCESS_TOKEN / SPOTIFY_REFRESH_TOKEN environment variables. The CLI
// goes through the same token resolution path as a browser session.
func (r *Runner) credentialStore(cmd *cli.Command) session.CredentialStore {
	store := session.NewMemoryStore()

	token := cmd.String("token")
	if token == "" {
		token = os.Getenv("SPOTIFY_ACCESS_TOKEN")
	}
	if token != "" {
		store.Set(session.AccessTokenKey, token, time.Hour)
	}

	if refresh := os.Getenv("SPOTIFY_REFRESH_TOKEN"); refresh != "" {
		store.Set(session.RefreshTokenKey, refresh, session.RefreshTokenTTL)
	}

	return store
}

// resolveToken resolves a usable bearer token for direct CLI calls.
func (r *Runner) resolveToken(ctx context.Context, cmd *cli.Command) (string, error) {
	if r.auth == nil {
		return "", fmt.Errorf("%w: Spotify client_id and client_secret must be set in config.toml", shared.ErrMissingCredentials)
	}
	return session.ResolveToken(ctx, r.credentialStore(cmd), r.auth)
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	output, err := shared.MarshalJSON(data, pretty)
	if err != nil {
		return fmt.Errorf("failed to marshal output: %w", err)
	}

	if _, err := r.output.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	if _, err := r.output.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlain(format string, args ...any) {
	fmt.Fprintf(r.output, format, args...)
}
