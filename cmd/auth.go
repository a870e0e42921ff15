package main

import (
	"context"
	"time"

	"github.com/urfave/cli/v3"
)

// Login runs the browser authorization flow and stores the resulting credential.
func (r *Runner) Login(ctx context.Context, cmd *cli.Command) error {
	manager, err := r.session(ctx, cmd)
	if err != nil {
		return err
	}

	r.logger.Info("starting authorization", "redirect_uri", r.config.Spotify.RedirectURI)
	r.writePlain("Opening your browser to authorize with Spotify…\n")

	cred, err := manager.Login(ctx)
	if err != nil {
		return err
	}

	r.writePlain("✓ Logged in\n")
	r.writePlain("Access token expires at %s\n", cred.ExpiresAtTime().Local().Format(time.RFC1123))
	if !cred.CanRefresh() {
		r.writePlain("No refresh token was issued; you will need to log in again when it expires.\n")
	}
	return nil
}

// Logout clears the stored credential. It succeeds when nothing is stored.
func (r *Runner) Logout(ctx context.Context, cmd *cli.Command) error {
	manager, err := r.session(ctx, cmd)
	if err != nil {
		return err
	}
	if err := manager.Logout(ctx); err != nil {
		return err
	}
	return r.writePlain("✓ Logged out\n")
}

type statusOutput struct {
	Authenticated bool       `json:"authenticated"`
	Valid         bool       `json:"valid"`
	Refreshable   bool       `json:"refreshable"`
	ExpiresAt     *time.Time `json:"expires_at,omitempty"`
	Scope         string     `json:"scope,omitempty"`
	TokenType     string     `json:"token_type,omitempty"`
}

// Status reports on the stored credential without refreshing it.
func (r *Runner) Status(ctx context.Context, cmd *cli.Command) error {
	manager, err := r.session(ctx, cmd)
	if err != nil {
		return err
	}

	st, err := manager.Status(ctx)
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		out := statusOutput{
			Authenticated: st.Authenticated,
			Valid:         st.Valid,
			Refreshable:   st.Refreshable,
			Scope:         st.Scope,
			TokenType:     st.TokenType,
		}
		if st.Authenticated {
			out.ExpiresAt = &st.ExpiresAt
		}
		return r.writeJSON(out, cmd.Bool("pretty"))
	}

	if !st.Authenticated {
		return r.writePlain("✗ Not logged in\n")
	}

	r.writePlain("✓ Logged in\n")
	if st.Valid {
		r.writePlain("Access token: valid until %s\n", st.ExpiresAt.Local().Format(time.RFC1123))
	} else {
		r.writePlain("Access token: expired at %s\n", st.ExpiresAt.Local().Format(time.RFC1123))
	}
	if st.Refreshable {
		r.writePlain("Refresh token: present\n")
	} else {
		r.writePlain("Refresh token: none (log in again after expiry)\n")
	}
	if st.Scope != "" {
		r.writePlain("Scope: %s\n", st.Scope)
	}
	return nil
}
