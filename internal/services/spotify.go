// Spotify Web API now-playing implementation of [NowPlayingFetcher]
//
// Response types based on https://developer.spotify.com/documentation/web-api/reference/get-the-users-currently-playing-track
package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"golang.org/x/time/rate"

	"github.com/desertthunder/nowplaying/internal/models"
	"github.com/desertthunder/nowplaying/internal/shared"
)

const (
	spotifyBaseURL       = "https://api.spotify.com/v1"
	currentlyPlayingPath = "/me/player/currently-playing"
)

// SpotifyImage represents an image resource. Spotify orders images widest first.
type SpotifyImage struct {
	URL    string `json:"url"`
	Height int    `json:"height"`
	Width  int    `json:"width"`
}

// SpotifyArtist represents a simplified artist object.
type SpotifyArtist struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	URI  string `json:"uri"`
}

// SpotifyAlbum represents a simplified album object.
type SpotifyAlbum struct {
	ID     string         `json:"id"`
	Name   string         `json:"name"`
	Images []SpotifyImage `json:"images"`
	URI    string         `json:"uri"`
}

// SpotifyTrack represents the playing item. Episodes and ads may leave most fields empty.
type SpotifyTrack struct {
	ID         string          `json:"id"`
	Name       string          `json:"name"`
	Album      *SpotifyAlbum   `json:"album"`
	Artists    []SpotifyArtist `json:"artists"`
	DurationMS int             `json:"duration_ms"`
	URI        string          `json:"uri"`
}

// SpotifyCurrentlyPlaying is the currently-playing response body.
type SpotifyCurrentlyPlaying struct {
	Timestamp            int64         `json:"timestamp"`
	ProgressMS           *int          `json:"progress_ms"`
	IsPlaying            *bool         `json:"is_playing"`
	CurrentlyPlayingType string        `json:"currently_playing_type"` // track, episode, ad, unknown
	Item                 *SpotifyTrack `json:"item"`
}

// SpotifyService reads playback state from the Spotify Web API.
type SpotifyService struct {
	api *APIClient
}

// NewSpotifyService creates a service against baseURL, defaulting to the public API.
func NewSpotifyService(baseURL string, client *http.Client, limiter *rate.Limiter) *SpotifyService {
	if baseURL == "" {
		baseURL = spotifyBaseURL
	}
	return &SpotifyService{api: NewAPIClient(baseURL, client, limiter)}
}

// NewSpotifyServiceFromConfig builds a service with the configured timeout and rate limit.
func NewSpotifyServiceFromConfig(cfg *shared.Config) *SpotifyService {
	var limiter *rate.Limiter
	if cfg.HTTP.RequestsPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.HTTP.RequestsPerSecond), 1)
	}
	return NewSpotifyService(cfg.Spotify.APIURL, &http.Client{Timeout: cfg.HTTP.Timeout()}, limiter)
}

func (s *SpotifyService) Name() string { return "Spotify" }

// NowPlaying fetches the current playback. It returns nil, nil when nothing is playing.
func (s *SpotifyService) NowPlaying(ctx context.Context, accessToken string) (*models.NowPlaying, error) {
	resp, err := s.api.Get(ctx, currentlyPlayingPath, accessToken)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode == http.StatusNoContent {
		return nil, nil
	}
	if !resp.OK() {
		return nil, shared.NewStatusError(shared.ErrAPIRequest, resp.StatusCode, resp.Body)
	}
	if len(resp.Body) == 0 {
		return nil, nil
	}

	var body SpotifyCurrentlyPlaying
	if err := json.Unmarshal(resp.Body, &body); err != nil {
		return nil, fmt.Errorf("%w: failed to decode response: %v", shared.ErrAPIRequest, err)
	}
	return normalize(&body), nil
}

// normalize maps a currently-playing body onto [models.NowPlaying], filling placeholders for missing names.
func normalize(body *SpotifyCurrentlyPlaying) *models.NowPlaying {
	np := &models.NowPlaying{
		AlbumName:  models.UnknownAlbum,
		ArtistName: models.UnknownArtist,
	}
	if body.IsPlaying != nil {
		np.IsPlaying = *body.IsPlaying
	}

	item := body.Item
	if item == nil {
		return np
	}

	if item.Album != nil {
		if item.Album.Name != "" {
			np.AlbumName = item.Album.Name
		}
		if len(item.Album.Images) > 0 {
			np.ArtworkURL = item.Album.Images[0].URL
		}
	}
	if len(item.Artists) > 0 && item.Artists[0].Name != "" {
		np.ArtistName = item.Artists[0].Name
	}
	return np
}
