package etsy

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/spellworks/backend/internal/domain/commerce"
)

// maxTokenResponseSize bounds token endpoint responses (1MB).
const maxTokenResponseSize = 1 * 1024 * 1024

// TokenManager owns the OAuth2 + PKCE lifecycle for the storefront
// connection: authorization URL minting, code exchange, transparent refresh
// and revocation. Concurrent token requests against an expired credential
// collapse into a single refresh call.
type TokenManager struct {
	config      *Config
	credentials commerce.CredentialRepository
	httpClient  *http.Client
	logger      *zap.Logger

	refreshGroup singleflight.Group

	mu            sync.Mutex
	pendingStates map[string]pendingAuthorization
}

type pendingAuthorization struct {
	verifier  string
	createdAt time.Time
}

// NewTokenManager creates a token manager with the given configuration.
func NewTokenManager(config *Config, credentials commerce.CredentialRepository, logger *zap.Logger) (*TokenManager, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &TokenManager{
		config:      config,
		credentials: credentials,
		httpClient: &http.Client{
			Timeout: time.Duration(config.TimeoutSeconds) * time.Second,
		},
		logger:        logger.Named("etsy.oauth"),
		pendingStates: make(map[string]pendingAuthorization),
	}, nil
}

// AuthorizationURL mints a PKCE authorization URL. The returned state keys a
// pending authorization held in memory for ten minutes.
func (m *TokenManager) AuthorizationURL() (string, string, error) {
	state, err := randomToken(24)
	if err != nil {
		return "", "", err
	}
	verifier, err := randomToken(48)
	if err != nil {
		return "", "", err
	}

	m.mu.Lock()
	m.pruneLocked(time.Now())
	m.pendingStates[state] = pendingAuthorization{verifier: verifier, createdAt: time.Now()}
	m.mu.Unlock()

	challenge := sha256.Sum256([]byte(verifier))
	params := url.Values{
		"response_type":         {"code"},
		"client_id":             {m.config.ClientID},
		"redirect_uri":          {m.config.RedirectURI},
		"scope":                 {m.config.Scopes},
		"state":                 {state},
		"code_challenge":        {base64.RawURLEncoding.EncodeToString(challenge[:])},
		"code_challenge_method": {"S256"},
	}
	return m.config.AuthURL + "?" + params.Encode(), state, nil
}

// Exchange redeems an authorization code against a pending state and stores
// the resulting credential, replacing any previous connection.
func (m *TokenManager) Exchange(ctx context.Context, code, state string) (*commerce.Credential, error) {
	m.mu.Lock()
	pending, ok := m.pendingStates[state]
	if ok {
		delete(m.pendingStates, state)
	}
	m.mu.Unlock()
	if !ok || time.Since(pending.createdAt) > pendingStateTTL {
		return nil, commerce.ErrStateMismatch
	}

	grant, err := m.requestToken(ctx, url.Values{
		"grant_type":    {"authorization_code"},
		"client_id":     {m.config.ClientID},
		"redirect_uri":  {m.config.RedirectURI},
		"code":          {code},
		"code_verifier": {pending.verifier},
	})
	if err != nil {
		return nil, err
	}

	credential := commerce.NewCredential(grant.AccessToken, grant.RefreshToken,
		grant.TokenType, m.config.Scopes, time.Duration(grant.ExpiresIn)*time.Second)
	if err := m.credentials.Save(ctx, credential); err != nil {
		return nil, err
	}
	m.logger.Info("storefront connected", zap.Time("expires_at", credential.ExpiresAt))
	return credential, nil
}

// GetValidToken returns an access token safe to use now, refreshing first
// when the stored one is expired or about to expire.
func (m *TokenManager) GetValidToken(ctx context.Context) (string, error) {
	credential, err := m.credentials.Get(ctx)
	if err != nil {
		return "", err
	}
	if !credential.NeedsRefresh(time.Now(), tokenRefreshMargin) {
		return credential.AccessToken, nil
	}
	return m.refresh(ctx)
}

// ForceRefresh refreshes regardless of the stored expiry. Used after the API
// rejects a token the local clock still considered valid.
func (m *TokenManager) ForceRefresh(ctx context.Context) (string, error) {
	return m.refresh(ctx)
}

// refresh performs the refresh grant. All concurrent callers share one
// in-flight request; each gets the same resulting token or error.
func (m *TokenManager) refresh(ctx context.Context) (string, error) {
	token, err, _ := m.refreshGroup.Do("refresh", func() (interface{}, error) {
		// The result is shared by every waiting caller, so the refresh must
		// not die with whichever caller happened to start it. Detach from the
		// initiating context and bound the call with the client timeout.
		refreshCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx),
			time.Duration(m.config.TimeoutSeconds)*time.Second)
		defer cancel()

		credential, err := m.credentials.Get(refreshCtx)
		if err != nil {
			return "", err
		}

		grant, err := m.requestToken(refreshCtx, url.Values{
			"grant_type":    {"refresh_token"},
			"client_id":     {m.config.ClientID},
			"refresh_token": {credential.RefreshToken},
		})
		if err != nil {
			if isCredentialRejection(err) {
				// The refresh token is dead; keeping the credential would
				// make every future call repeat this failure.
				if delErr := m.credentials.Delete(refreshCtx); delErr != nil {
					m.logger.Error("failed to remove rejected credential", zap.Error(delErr))
				}
				m.logger.Warn("refresh token rejected, reauthorization required")
				return "", commerce.ErrCredentialInvalid
			}
			return "", err
		}

		credential.ApplyRefresh(grant.AccessToken, grant.RefreshToken,
			time.Duration(grant.ExpiresIn)*time.Second, time.Now())
		if err := m.credentials.Save(refreshCtx, credential); err != nil {
			return "", err
		}
		m.logger.Debug("access token refreshed", zap.Time("expires_at", credential.ExpiresAt))
		return credential.AccessToken, nil
	})
	if err != nil {
		return "", err
	}
	return token.(string), nil
}

// Revoke disconnects the storefront by discarding the stored credential.
func (m *TokenManager) Revoke(ctx context.Context) error {
	if err := m.credentials.Delete(ctx); err != nil {
		return err
	}
	m.logger.Info("storefront disconnected")
	return nil
}

type tokenGrant struct {
	AccessToken  string `json:"access_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int    `json:"expires_in"`
	RefreshToken string `json:"refresh_token"`
}

// credentialRejection marks a token endpoint 4xx so refresh can tell a dead
// refresh token apart from a transient outage.
type credentialRejection struct {
	status int
	body   string
}

func (e *credentialRejection) Error() string {
	return fmt.Sprintf("etsy: token endpoint rejected request with status %d: %s", e.status, e.body)
}

func isCredentialRejection(err error) bool {
	var rejection *credentialRejection
	return errors.As(err, &rejection)
}

func (m *TokenManager) requestToken(ctx context.Context, form url.Values) (*tokenGrant, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.config.TokenURL,
		strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := m.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", commerce.ErrUpstreamUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxTokenResponseSize))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", commerce.ErrUpstreamUnavailable, err)
	}

	switch {
	case resp.StatusCode == http.StatusOK:
	case resp.StatusCode >= 400 && resp.StatusCode < 500:
		return nil, &credentialRejection{status: resp.StatusCode, body: string(body)}
	default:
		return nil, fmt.Errorf("%w: token endpoint returned status %d", commerce.ErrUpstreamUnavailable, resp.StatusCode)
	}

	var grant tokenGrant
	if err := json.Unmarshal(body, &grant); err != nil {
		return nil, fmt.Errorf("%w: %v", commerce.ErrInvalidResponse, err)
	}
	if grant.AccessToken == "" || grant.RefreshToken == "" {
		return nil, fmt.Errorf("%w: token response missing tokens", commerce.ErrInvalidResponse)
	}
	if grant.TokenType == "" {
		grant.TokenType = "Bearer"
	}
	return &grant, nil
}

func (m *TokenManager) pruneLocked(now time.Time) {
	for state, pending := range m.pendingStates {
		if now.Sub(pending.createdAt) > pendingStateTTL {
			delete(m.pendingStates, state)
		}
	}
}

func randomToken(n int) (string, error) {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
