// Package auth acquires and refreshes the OAuth credential.
//
// [Flow] runs the authorization-code grant with PKCE (S256) against a public client:
// it builds the authorization URL, hands it to a [Prompter], validates the returned state,
// exchanges the code with the original verifier and persists the resulting credential
// before returning it.
//
// [Refresher] exchanges a stored refresh token for a new access token and merges the response
// into the prior credential, keeping the old refresh token when the provider omits one.
//
// Failures map onto the shared sentinels: [shared.ErrAuthCancelled], [shared.ErrAuthDenied] and
// [shared.ErrAuthProvider] (via [ProviderError]), [shared.ErrTokenExchange] and
// [shared.ErrRefreshFailed] (via [shared.StatusError]), and [shared.ErrNoRefreshToken].
package auth
