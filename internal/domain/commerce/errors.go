package commerce

import "errors"

var (
	// ErrNotConnected indicates no storefront credential is stored.
	ErrNotConnected = errors.New("commerce: storefront not connected")
	// ErrCredentialInvalid indicates the stored credential was rejected and
	// cannot be refreshed; the operator must reauthorize.
	ErrCredentialInvalid = errors.New("commerce: credential invalid, reauthorization required")
	// ErrUpstreamUnavailable indicates the storefront API could not be reached
	// or kept failing after bounded retries.
	ErrUpstreamUnavailable = errors.New("commerce: storefront api unavailable")
	// ErrInvalidResponse indicates the storefront API returned a body that
	// could not be interpreted.
	ErrInvalidResponse = errors.New("commerce: invalid storefront response")
	// ErrStateMismatch indicates an OAuth callback carried an unknown or
	// expired state parameter.
	ErrStateMismatch = errors.New("commerce: unknown or expired authorization state")
)
