package auth

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"os"
	"time"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/nowplaying/internal/server"
	"github.com/desertthunder/nowplaying/internal/shared"
)

// OutcomeKind is the terminal state of an interactive authorization.
type OutcomeKind int

const (
	OutcomeSuccess OutcomeKind = iota
	OutcomeCancelled
	OutcomeError
)

func (k OutcomeKind) String() string {
	switch k {
	case OutcomeSuccess:
		return "success"
	case OutcomeCancelled:
		return "cancelled"
	case OutcomeError:
		return "error"
	default:
		return "unknown"
	}
}

// Outcome is what the user's browser round trip produced.
type Outcome struct {
	Kind             OutcomeKind
	Code             string
	State            string
	ErrorCode        string
	ErrorDescription string
}

// Prompter presents an authorization URL to the user and waits for the redirect.
type Prompter interface {
	Prompt(ctx context.Context, authURL string) (Outcome, error)
}

// PrompterFunc adapts a function to [Prompter].
type PrompterFunc func(ctx context.Context, authURL string) (Outcome, error)

func (f PrompterFunc) Prompt(ctx context.Context, authURL string) (Outcome, error) {
	return f(ctx, authURL)
}

const DefaultPromptTimeout = 2 * time.Minute

// LoopbackPrompter opens the system browser and receives the redirect on a local HTTP server.
type LoopbackPrompter struct {
	Addr        string        // host:port of the redirect URI
	CallbackURL string        // path is served by the callback handler
	Timeout     time.Duration // zero means [DefaultPromptTimeout]
	Open        func(string) error
	Out         io.Writer // receives the URL when Open fails
	Logger      *log.Logger

	// Listener, when set, is used instead of listening on Addr.
	Listener net.Listener
}

// NewLoopbackPrompter serves the redirect URI's path on cfg.Server.
func NewLoopbackPrompter(cfg *shared.Config, logger *log.Logger) *LoopbackPrompter {
	return &LoopbackPrompter{
		Addr:        cfg.Server.Addr(),
		CallbackURL: cfg.Spotify.RedirectURI,
		Open:        shared.OpenBrowser,
		Out:         os.Stdout,
		Logger:      logger,
	}
}

func (p *LoopbackPrompter) Prompt(ctx context.Context, authURL string) (Outcome, error) {
	logger := p.Logger
	if logger == nil {
		logger = shared.DiscardLogger()
	}

	path := "/callback"
	if p.CallbackURL != "" {
		u, err := url.Parse(p.CallbackURL)
		if err != nil {
			return Outcome{}, fmt.Errorf("%w: bad redirect uri: %v", shared.ErrInvalidConfig, err)
		}
		if u.Path != "" {
			path = u.Path
		}
	}

	ln := p.Listener
	if ln == nil {
		var err error
		if ln, err = net.Listen("tcp", p.Addr); err != nil {
			return Outcome{}, fmt.Errorf("failed to start callback server on %s: %w", p.Addr, err)
		}
	}

	callback := server.NewCallbackHandler(path)
	router := server.NewBasicRouter()
	router.Use(server.RequestLogger(logger), server.NoStore)
	router.Handler(callback)

	srv := &http.Server{Handler: router, ReadHeaderTimeout: 10 * time.Second}
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("callback server failed", "error", err)
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	logger.Info("waiting for authorization", "addr", ln.Addr().String(), "path", path)

	if p.Open == nil || p.Open(authURL) != nil {
		out := p.Out
		if out == nil {
			out = os.Stdout
		}
		fmt.Fprintf(out, "Open this URL in your browser to authorize:\n\n%s\n\n", authURL)
	}

	timeout := p.Timeout
	if timeout <= 0 {
		timeout = DefaultPromptTimeout
	}
	waitCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	select {
	case res := <-callback.Result():
		if res.Code == "" {
			if res.Error == "" {
				res.Error = CodeMissingCode
			}
			return Outcome{Kind: OutcomeError, State: res.State, ErrorCode: res.Error, ErrorDescription: res.ErrorDescription}, nil
		}
		return Outcome{Kind: OutcomeSuccess, Code: res.Code, State: res.State}, nil
	case <-waitCtx.Done():
		return Outcome{Kind: OutcomeCancelled, ErrorDescription: waitCtx.Err().Error()}, nil
	}
}
