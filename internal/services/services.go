package services

import (
	"context"

	"github.com/desertthunder/nowplaying/internal/models"
)

// NowPlayingFetcher reports the current playback for an access token.
type NowPlayingFetcher interface {
	// NowPlaying returns nil with a nil error when nothing is playing.
	NowPlaying(ctx context.Context, accessToken string) (*models.NowPlaying, error)
}

var _ NowPlayingFetcher = (*SpotifyService)(nil)
