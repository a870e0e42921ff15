// Package tasks runs the now-playing poll loop.
//
// A [Poller] combines a [CredentialSource] (the session manager) with a
// [services.NowPlayingFetcher]. Each tick calls EnsureValid and then fetches playback, and the
// outcome is delivered as an [Update] tagged with a [Phase].
//
// # Scheduling
//
// The first tick fires immediately. The timer for the next tick is armed only after the current
// one has been delivered, so ticks never overlap and a slow network stretches the cadence instead
// of queueing work. [Handle.RefreshNow] runs an out-of-band tick on the same goroutine.
//
// When no credential is available the poller emits [PhaseLoginRequired] and stops scheduling
// until RefreshNow is called, typically after a login.
//
// # Cancellation
//
// [Handle.Stop] cancels the loop context and waits for the goroutine to exit. A tick in flight at
// that moment sees its context cancelled and its result is discarded, so consumers never receive a
// stale update after Stop returns.
package tasks
