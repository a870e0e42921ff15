// Package models defines the data model shared by the credential lifecycle and the now-playing poller.
//
//   - [Credential] : the single persisted OAuth credential, with expiry math in epoch milliseconds
//   - [NowPlaying] : the normalized, ephemeral result of a playback poll
//
// A [Credential] is valid while now < ExpiresAt - margin, where the default margin is [SafetyMargin].
// Neither type performs I/O; persistence lives in the store package.
package models
