// Package session owns the OAuth session against the backend proxy:
// one-time redemption of authorization codes delivered by the provider
// redirect, retrieval and validation of stored credentials, and silent
// refresh of expired access tokens.
//
// Raw authorization codes and tokens are credentials. They are never
// logged in full and never written to disk; the consumed-code store keys
// its markers by digest.
package session
