package models

import (
	"fmt"
	"time"
)

// SafetyMargin is subtracted from a credential's expiry so callers refresh before the provider rejects the token.
const SafetyMargin = 30 * time.Second

// Credential is the persisted OAuth access credential.
//
// JSON field names match the provider's token response so a record can be written straight from an exchange.
type Credential struct {
	AccessToken  string `json:"access_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int64  `json:"expires_in"`              // Validity window in seconds at issuance
	RefreshToken string `json:"refresh_token,omitempty"` // Empty when the provider issued none
	Scope        string `json:"scope,omitempty"`
	ObtainedAt   int64  `json:"obtained_at"` // Epoch milliseconds observed by the client when written
}

// ExpiresAt returns the epoch millisecond at which the access token expires.
func (c *Credential) ExpiresAt() int64 {
	return c.ObtainedAt + c.ExpiresIn*1000
}

// ExpiresAtTime returns [Credential.ExpiresAt] as a [time.Time].
func (c *Credential) ExpiresAtTime() time.Time {
	return time.UnixMilli(c.ExpiresAt())
}

// IsValidAt reports whether the credential can still be used at now given a safety margin.
func (c *Credential) IsValidAt(now time.Time, margin time.Duration) bool {
	return now.UnixMilli() < c.ExpiresAt()-margin.Milliseconds()
}

// IsValid reports whether the credential is valid right now using [SafetyMargin].
func (c *Credential) IsValid() bool {
	return c.IsValidAt(time.Now(), SafetyMargin)
}

// CanRefresh reports whether a refresh token is available.
func (c *Credential) CanRefresh() bool {
	return c.RefreshToken != ""
}

// Validate checks the fields a usable credential must carry.
func (c *Credential) Validate() error {
	if c.AccessToken == "" {
		return fmt.Errorf("access_token is empty")
	}
	if c.ExpiresIn < 0 {
		return fmt.Errorf("expires_in is negative: %d", c.ExpiresIn)
	}
	return nil
}

// Clone returns a copy of the credential.
func (c *Credential) Clone() *Credential {
	if c == nil {
		return nil
	}
	cp := *c
	return &cp
}

const (
	UnknownAlbum  = "Unknown album"
	UnknownArtist = "Unknown artist"
)

// NowPlaying is the normalized current playback state. It is never persisted.
type NowPlaying struct {
	AlbumName  string `json:"album_name"`
	ArtistName string `json:"artist_name"`
	ArtworkURL string `json:"artwork_url,omitempty"` // Empty when the provider returned no images
	IsPlaying  bool   `json:"is_playing"`
}
