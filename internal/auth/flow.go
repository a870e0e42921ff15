package auth

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/oauth2"

	"github.com/desertthunder/nowplaying/internal/models"
	"github.com/desertthunder/nowplaying/internal/shared"
	"github.com/desertthunder/nowplaying/internal/store"
)

// Flow performs the interactive authorization-code exchange with PKCE.
type Flow struct {
	oauth    *oauth2.Config
	store    store.Store
	prompter Prompter
	client   *http.Client
	logger   *log.Logger

	now      func() time.Time
	newState func() string
}

// FlowOpts configures optional [Flow] collaborators.
type FlowOpts struct {
	HTTPClient *http.Client // token exchange client; its Timeout bounds the exchange
	Logger     *log.Logger
	Now        func() time.Time
}

func NewFlow(cfg *oauth2.Config, s store.Store, p Prompter, opts FlowOpts) *Flow {
	f := &Flow{
		oauth:    cfg,
		store:    s,
		prompter: p,
		client:   opts.HTTPClient,
		logger:   opts.Logger,
		now:      opts.Now,
		newState: shared.GenerateID,
	}
	if f.logger == nil {
		f.logger = shared.DiscardLogger()
	}
	if f.now == nil {
		f.now = time.Now
	}
	return f
}

// AuthURL returns the authorization URL for a fresh verifier and state.
func (f *Flow) AuthURL() (authURL, verifier, state string) {
	verifier = oauth2.GenerateVerifier()
	state = f.newState()
	authURL = f.oauth.AuthCodeURL(state, oauth2.S256ChallengeOption(verifier))
	return authURL, verifier, state
}

// Login prompts the user, exchanges the returned code and stores the resulting credential.
//
// The credential is only returned once it has been persisted.
func (f *Flow) Login(ctx context.Context) (*models.Credential, error) {
	authURL, verifier, state := f.AuthURL()

	outcome, err := f.prompter.Prompt(ctx, authURL)
	if err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("%w: %v", shared.ErrAuthCancelled, ctx.Err())
		}
		return nil, fmt.Errorf("failed to prompt for authorization: %w", err)
	}

	switch outcome.Kind {
	case OutcomeCancelled:
		f.logger.Info("authorization cancelled", "reason", outcome.ErrorDescription)
		if outcome.ErrorDescription != "" {
			return nil, fmt.Errorf("%w: %s", shared.ErrAuthCancelled, outcome.ErrorDescription)
		}
		return nil, shared.ErrAuthCancelled
	case OutcomeError:
		f.logger.Warn("authorization returned an error", "code", outcome.ErrorCode)
		return nil, &ProviderError{Code: outcome.ErrorCode, Description: outcome.ErrorDescription}
	case OutcomeSuccess:
	default:
		return nil, fmt.Errorf("%w: unknown outcome %v", shared.ErrAuthProvider, outcome.Kind)
	}

	if outcome.State != state {
		return nil, &ProviderError{Code: CodeStateMismatch, Description: "redirect state does not match the request"}
	}
	if outcome.Code == "" {
		return nil, &ProviderError{Code: CodeMissingCode}
	}

	tok, err := f.oauth.Exchange(withClient(ctx, f.client), outcome.Code, oauth2.VerifierOption(verifier))
	if err != nil {
		return nil, tokenError(shared.ErrTokenExchange, err)
	}

	cred := credentialFromToken(tok, f.now())
	if err := f.store.Save(ctx, cred); err != nil {
		return nil, fmt.Errorf("failed to persist credential: %w", err)
	}

	f.logger.Info("authorization complete", "expires_at", cred.ExpiresAtTime().Format(time.RFC3339), "refreshable", cred.CanRefresh())
	return cred, nil
}
