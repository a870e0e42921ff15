// Package server provides the loopback HTTP plumbing for interactive authorization.
//
// # Router
//
// [BasicRouter] implements [Router] on [http.ServeMux]. [Middleware] added with Use wraps handlers,
// first added outermost. [RequestLogger] and [NoStore] are the middleware the login flow installs.
//
// # Callback Handler
//
// [CallbackHandler] receives the provider's redirect to the configured redirect URI.
// It records code, state and any error parameters for the first request only and publishes them
// on a one-shot channel. Later requests are rejected so a replayed redirect cannot overwrite the result.
//
// State validation and the code-for-token exchange happen in the auth package, which owns the PKCE verifier.
package server
