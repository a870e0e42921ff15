package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/urfave/cli/v3"

	"github.com/desertthunder/nowplaying/internal/auth"
	"github.com/desertthunder/nowplaying/internal/services"
	"github.com/desertthunder/nowplaying/internal/session"
	"github.com/desertthunder/nowplaying/internal/shared"
	"github.com/desertthunder/nowplaying/internal/store"
	"github.com/desertthunder/nowplaying/internal/tasks"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
//
// Dependencies not supplied through [RunnerOpts] are built from the config on first use.
type Runner struct {
	config     *shared.Config
	configPath string
	httpClient *http.Client
	logger     *log.Logger
	output     io.Writer

	store     store.Store
	ownsStore bool
	prompter  auth.Prompter
	fetcher   services.NowPlayingFetcher
	manager   *session.Manager
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config     *shared.Config
	ConfigPath string
	HTTPClient *http.Client
	Logger     *log.Logger
	Output     io.Writer
	Store      store.Store
	Prompter   auth.Prompter
	Fetcher    services.NowPlayingFetcher
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}

	return &Runner{
		config:     opts.Config,
		configPath: opts.ConfigPath,
		httpClient: opts.HTTPClient,
		logger:     opts.Logger,
		output:     opts.Output,
		store:      opts.Store,
		prompter:   opts.Prompter,
		fetcher:    opts.Fetcher,
	}
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{setupCommand(r)}
	commands = append(commands, authCommands(r)...)
	commands = append(commands, playbackCommands(r)...)
	commands = append(commands, tuiCommand(r))
	return commands
}

// SetLogger replaces the logger used by the runner and anything it builds afterwards.
func (r *Runner) SetLogger(l *log.Logger) {
	r.logger = l
}

// loadConfig reads the file named by --config unless a config was injected.
func (r *Runner) loadConfig(cmd *cli.Command) (*shared.Config, error) {
	if r.config != nil {
		return r.config, nil
	}

	path := cmd.String("config")
	if path == "" {
		path = r.configPath
	}
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s (run 'nowplaying setup config')", shared.ErrMissingConfig, path)
	}

	config, err := shared.LoadConfig(path)
	if err != nil {
		return nil, err
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}

	shared.SetLogLevel(r.logger, shared.ParseLevel(config.Log.Level))
	r.config = config
	r.configPath = path
	return config, nil
}

// session wires the store, auth flows, and lifecycle manager.
func (r *Runner) session(ctx context.Context, cmd *cli.Command) (*session.Manager, error) {
	if r.manager != nil {
		return r.manager, nil
	}

	config, err := r.loadConfig(cmd)
	if err != nil {
		return nil, err
	}

	if r.store == nil {
		s, err := store.New(ctx, config.Store)
		if err != nil {
			return nil, fmt.Errorf("failed to open credential store: %w", err)
		}
		r.store = s
		r.ownsStore = true
	}
	if r.httpClient == nil {
		r.httpClient = &http.Client{Timeout: config.HTTP.Timeout()}
	}
	if r.prompter == nil {
		r.prompter = auth.NewLoopbackPrompter(config, shared.WithLogger(r.logger, "component", "prompter"))
	}

	oauthConfig := auth.NewOAuthConfig(config.Spotify)
	flowOpts := auth.FlowOpts{HTTPClient: r.httpClient, Logger: shared.WithLogger(r.logger, "component", "auth")}

	r.manager = session.NewManager(
		r.store,
		auth.NewRefresher(oauthConfig, r.store, flowOpts),
		auth.NewFlow(oauthConfig, r.store, r.prompter, flowOpts),
		session.Opts{Logger: shared.WithLogger(r.logger, "component", "session")},
	)
	return r.manager, nil
}

// poller builds a poller over the session manager. interval <= 0 uses the configured cadence.
func (r *Runner) poller(ctx context.Context, cmd *cli.Command, interval time.Duration) (*tasks.Poller, error) {
	manager, err := r.session(ctx, cmd)
	if err != nil {
		return nil, err
	}
	if r.fetcher == nil {
		r.fetcher = services.NewSpotifyServiceFromConfig(r.config)
	}

	d := r.config.Poll.Interval()
	if interval > 0 {
		d = interval
	}
	return tasks.NewPoller(manager, r.fetcher, d, shared.WithLogger(r.logger, "component", "poller")), nil
}

// Close releases the credential store if the runner opened it.
func (r *Runner) Close() error {
	if r.store == nil || !r.ownsStore {
		return nil
	}
	err := r.store.Close()
	r.store = nil
	r.manager = nil
	return err
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	var output []byte
	var err error

	if pretty {
		output, err = json.MarshalIndent(data, "", "  ")
	} else {
		output, err = json.Marshal(data)
	}

	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if _, err := r.output.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if _, err := r.output.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainln(format string, args ...any) error {
	text := "\n" + fmt.Sprintf(format, args...) + "\n"
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}
