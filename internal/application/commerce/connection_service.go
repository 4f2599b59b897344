package commerce

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/spellworks/backend/internal/domain/commerce"
)

// Authorizer drives the storefront OAuth flow. The etsy token manager is the
// production implementation.
type Authorizer interface {
	AuthorizationURL() (string, string, error)
	Exchange(ctx context.Context, code, state string) (*commerce.Credential, error)
	Revoke(ctx context.Context) error
}

// ShopResolver resolves the connected shop from the storefront API.
type ShopResolver interface {
	ShopID(ctx context.Context) (int64, error)
}

// ConnectionService manages the single storefront connection: starting the
// OAuth flow, completing it, reporting status and disconnecting.
type ConnectionService struct {
	authorizer  Authorizer
	shops       ShopResolver
	credentials commerce.CredentialRepository
	logger      *zap.Logger
}

// NewConnectionService creates a new ConnectionService. shops may be nil;
// the shop is then left unresolved until the first receipt sync.
func NewConnectionService(
	authorizer Authorizer,
	shops ShopResolver,
	credentials commerce.CredentialRepository,
	logger *zap.Logger,
) *ConnectionService {
	return &ConnectionService{
		authorizer:  authorizer,
		shops:       shops,
		credentials: credentials,
		logger:      logger.Named("connection"),
	}
}

// ConnectResponse carries the authorization URL the operator must visit.
type ConnectResponse struct {
	AuthorizationURL string `json:"authorization_url"`
	State            string `json:"state"`
}

// ConnectionStatusResponse describes the current storefront connection.
type ConnectionStatusResponse struct {
	Connected bool       `json:"connected"`
	ShopID    *int64     `json:"shop_id,omitempty"`
	ShopName  string     `json:"shop_name,omitempty"`
	Scope     string     `json:"scope,omitempty"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
}

// Connect starts the OAuth flow and returns the URL to authorize at.
func (s *ConnectionService) Connect() (*ConnectResponse, error) {
	authURL, state, err := s.authorizer.AuthorizationURL()
	if err != nil {
		return nil, err
	}
	return &ConnectResponse{AuthorizationURL: authURL, State: state}, nil
}

// Callback completes the OAuth flow with the code the provider redirected
// back with. The shop is resolved best-effort; a shop lookup failure does not
// undo the connection.
func (s *ConnectionService) Callback(ctx context.Context, code, state string) (*ConnectionStatusResponse, error) {
	credential, err := s.authorizer.Exchange(ctx, code, state)
	if err != nil {
		return nil, err
	}

	s.logger.Info("Storefront connected", zap.Time("token_expires_at", credential.ExpiresAt))

	if s.shops != nil {
		if _, err := s.shops.ShopID(ctx); err != nil {
			s.logger.Warn("Could not resolve shop after connect", zap.Error(err))
		}
	}

	return s.Status(ctx)
}

// Status reports whether a storefront is connected and which shop it is.
func (s *ConnectionService) Status(ctx context.Context) (*ConnectionStatusResponse, error) {
	credential, err := s.credentials.Get(ctx)
	if err != nil {
		if errors.Is(err, commerce.ErrNotConnected) {
			return &ConnectionStatusResponse{Connected: false}, nil
		}
		return nil, err
	}

	expiresAt := credential.ExpiresAt
	return &ConnectionStatusResponse{
		Connected: true,
		ShopID:    credential.ShopID,
		ShopName:  credential.ShopName,
		Scope:     credential.Scope,
		ExpiresAt: &expiresAt,
	}, nil
}

// Disconnect removes the stored credential. Disconnecting when nothing is
// connected is not an error.
func (s *ConnectionService) Disconnect(ctx context.Context) error {
	if err := s.authorizer.Revoke(ctx); err != nil {
		return err
	}
	s.logger.Info("Storefront disconnected")
	return nil
}
