// Package etsy implements the commerce gateway against the Etsy Open API v3,
// including the OAuth2 + PKCE token lifecycle and the shared call budget.
package etsy

import (
	"errors"
	"time"
)

const (
	defaultAuthURL    = "https://www.etsy.com/oauth/connect"
	defaultTokenURL   = "https://api.etsy.com/v3/public/oauth/token"
	defaultAPIBaseURL = "https://openapi.etsy.com/v3"
	defaultScopes     = "transactions_r transactions_w email_r"

	// tokenRefreshMargin refreshes tokens this long before actual expiry so a
	// request never departs with a token about to lapse mid-flight.
	tokenRefreshMargin = 60 * time.Second

	// pendingStateTTL bounds how long an authorization attempt may stay open.
	pendingStateTTL = 10 * time.Minute
)

// Config holds the Etsy application settings.
type Config struct {
	// ClientID is the Etsy app keystring, sent both as OAuth client_id and as
	// the x-api-key header on every API call.
	ClientID       string
	RedirectURI    string
	Scopes         string
	AuthURL        string
	TokenURL       string
	APIBaseURL     string
	TimeoutSeconds int
}

// Validate checks required fields and fills defaults.
func (c *Config) Validate() error {
	if c.ClientID == "" {
		return errors.New("etsy: client id is required")
	}
	if c.RedirectURI == "" {
		return errors.New("etsy: redirect uri is required")
	}
	if c.Scopes == "" {
		c.Scopes = defaultScopes
	}
	if c.AuthURL == "" {
		c.AuthURL = defaultAuthURL
	}
	if c.TokenURL == "" {
		c.TokenURL = defaultTokenURL
	}
	if c.APIBaseURL == "" {
		c.APIBaseURL = defaultAPIBaseURL
	}
	if c.TimeoutSeconds <= 0 {
		c.TimeoutSeconds = 30
	}
	return nil
}
