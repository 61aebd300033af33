package auth

import "errors"

var (
	// ErrNoToken means the visitor has no credential and must sign in. It is
	// a control-flow outcome, not a failure.
	ErrNoToken = errors.New("no token found, reauthenticating")

	// ErrInvalidState means the callback's correlation key is unknown,
	// expired or was already used.
	ErrInvalidState = errors.New("invalid oauth state")

	// ErrCodeExchangeFailed means the authorization server rejected the code.
	// Codes are single use, so this is never retried.
	ErrCodeExchangeFailed = errors.New("oauth code exchange failed")

	// ErrRefreshFailed means the refresh credential could not be exchanged
	// for a new access credential.
	ErrRefreshFailed = errors.New("oauth token refresh failed")
)
