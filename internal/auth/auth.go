package auth

import (
	"context"
	"errors"
	"math"
	"net/http"
	"time"

	"golang.org/x/oauth2"

	"github.com/desertthunder/nowplaying/internal/models"
	"github.com/desertthunder/nowplaying/internal/shared"
)

// NewOAuthConfig builds the public-client [oauth2.Config]. The client id travels in the request body.
func NewOAuthConfig(cfg shared.SpotifyConfig) *oauth2.Config {
	return &oauth2.Config{
		ClientID:    cfg.ClientID,
		RedirectURL: cfg.RedirectURI,
		Scopes:      cfg.Scopes,
		Endpoint: oauth2.Endpoint{
			AuthURL:   cfg.AuthURL,
			TokenURL:  cfg.TokenURL,
			AuthStyle: oauth2.AuthStyleInParams,
		},
	}
}

// ProviderError is an authorization redirect that carried an error code instead of a code.
//
// It matches [shared.ErrAuthDenied] when the user refused access and [shared.ErrAuthProvider] otherwise.
type ProviderError struct {
	Code        string
	Description string
}

const (
	CodeAccessDenied  = "access_denied"
	CodeStateMismatch = "state_mismatch"
	CodeMissingCode   = "missing_code"
)

func (e *ProviderError) Error() string {
	kind := shared.ErrAuthProvider
	if e.Code == CodeAccessDenied {
		kind = shared.ErrAuthDenied
	}
	if e.Description == "" {
		return kind.Error() + ": " + e.Code
	}
	return kind.Error() + ": " + e.Code + ": " + e.Description
}

func (e *ProviderError) Is(target error) bool {
	if e.Code == CodeAccessDenied {
		return target == shared.ErrAuthDenied
	}
	return target == shared.ErrAuthProvider
}

// withClient attaches client to ctx for oauth2's token requests.
func withClient(ctx context.Context, client *http.Client) context.Context {
	if client == nil {
		return ctx
	}
	return context.WithValue(ctx, oauth2.HTTPClient, client)
}

// tokenError classifies an oauth2 token endpoint failure under kind.
func tokenError(kind, err error) error {
	var re *oauth2.RetrieveError
	if errors.As(err, &re) && re.Response != nil {
		return shared.NewStatusError(kind, re.Response.StatusCode, re.Body)
	}
	return shared.NewTransportError(kind, err)
}

// expiresIn reads the token lifetime in seconds. A response without expires_in yields 0.
func expiresIn(tok *oauth2.Token, now time.Time) int64 {
	if tok.ExpiresIn > 0 {
		return tok.ExpiresIn
	}
	if v, ok := tok.Extra("expires_in").(float64); ok && v > 0 {
		return int64(v)
	}
	if !tok.Expiry.IsZero() {
		if secs := tok.Expiry.Sub(now).Seconds(); secs > 0 {
			return int64(math.Round(secs))
		}
	}
	return 0
}

func credentialFromToken(tok *oauth2.Token, now time.Time) *models.Credential {
	scope, _ := tok.Extra("scope").(string)
	tokenType := tok.TokenType
	if tokenType == "" {
		tokenType = "Bearer"
	}
	return &models.Credential{
		AccessToken:  tok.AccessToken,
		TokenType:    tokenType,
		ExpiresIn:    expiresIn(tok, now),
		RefreshToken: tok.RefreshToken,
		Scope:        scope,
		ObtainedAt:   now.UnixMilli(),
	}
}
