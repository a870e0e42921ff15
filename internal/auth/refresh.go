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

// Refresher exchanges refresh tokens at the token endpoint.
type Refresher struct {
	oauth  *oauth2.Config
	store  store.Store
	client *http.Client
	logger *log.Logger
	now    func() time.Time
}

func NewRefresher(cfg *oauth2.Config, s store.Store, opts FlowOpts) *Refresher {
	r := &Refresher{oauth: cfg, store: s, client: opts.HTTPClient, logger: opts.Logger, now: opts.Now}
	if r.logger == nil {
		r.logger = shared.DiscardLogger()
	}
	if r.now == nil {
		r.now = time.Now
	}
	return r
}

// Refresh trades prev's refresh token for a new access token and stores the merged credential.
//
// It fails with [shared.ErrNoRefreshToken] without any network call when prev has no refresh token,
// and with a [shared.StatusError] of kind [shared.ErrRefreshFailed] when the exchange fails.
func (r *Refresher) Refresh(ctx context.Context, prev *models.Credential) (*models.Credential, error) {
	if prev == nil || !prev.CanRefresh() {
		return nil, shared.ErrNoRefreshToken
	}

	ts := r.oauth.TokenSource(withClient(ctx, r.client), &oauth2.Token{RefreshToken: prev.RefreshToken})
	tok, err := ts.Token()
	if err != nil {
		return nil, tokenError(shared.ErrRefreshFailed, err)
	}

	next := merge(prev, credentialFromToken(tok, r.now()))
	if err := r.store.Save(ctx, next); err != nil {
		return nil, fmt.Errorf("failed to persist refreshed credential: %w", err)
	}

	r.logger.Debug("credential refreshed", "expires_at", next.ExpiresAtTime().Format(time.RFC3339), "rotated", next.RefreshToken != prev.RefreshToken)
	return next, nil
}

// merge overlays fresh on prev. Fields the response omitted keep prev's values.
func merge(prev, fresh *models.Credential) *models.Credential {
	out := fresh.Clone()
	if out.RefreshToken == "" {
		out.RefreshToken = prev.RefreshToken
	}
	if out.Scope == "" {
		out.Scope = prev.Scope
	}
	return out
}
