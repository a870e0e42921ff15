// package services wraps the provider's Web API.
//
// [SpotifyService.NowPlaying] fetches the user's current playback and normalizes it into a
// [models.NowPlaying]. A 204 response means nothing is playing and yields nil without an error.
// Other non-2xx responses yield a [shared.StatusError] of kind [shared.ErrAPIRequest].
//
// Requests go through [APIClient], which attaches the bearer token and, when configured,
// waits on a [rate.Limiter] before each call.
package services
