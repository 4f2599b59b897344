package commerce

import (
	"context"
	"time"

	"github.com/spellworks/backend/internal/domain/shared"
)

// Credential holds the OAuth tokens for the connected storefront account.
// The service operates a single storefront, so at most one credential row
// exists at any time; connecting again replaces it.
type Credential struct {
	shared.BaseEntity
	AccessToken  string `gorm:"not null"`
	RefreshToken string `gorm:"not null"`
	TokenType    string `gorm:"not null;default:Bearer"`
	ExpiresAt    time.Time
	Scope        string
	ShopID       *int64
	ShopName     string
}

// NewCredential creates a credential from a fresh token grant.
func NewCredential(accessToken, refreshToken, tokenType, scope string, expiresIn time.Duration) *Credential {
	return &Credential{
		BaseEntity:   shared.NewBaseEntity(),
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		TokenType:    tokenType,
		Scope:        scope,
		ExpiresAt:    time.Now().Add(expiresIn),
	}
}

// IsExpired reports whether the access token has passed its expiry.
func (c *Credential) IsExpired(now time.Time) bool {
	return !now.Before(c.ExpiresAt)
}

// NeedsRefresh reports whether the access token is expired or will expire
// within the given safety margin.
func (c *Credential) NeedsRefresh(now time.Time, margin time.Duration) bool {
	return !now.Add(margin).Before(c.ExpiresAt)
}

// ApplyRefresh replaces the tokens after a successful refresh. The provider
// rotates refresh tokens, so both tokens are replaced together.
func (c *Credential) ApplyRefresh(accessToken, refreshToken string, expiresIn time.Duration, now time.Time) {
	c.AccessToken = accessToken
	c.RefreshToken = refreshToken
	c.ExpiresAt = now.Add(expiresIn)
	c.UpdatedAt = now
}

// AttachShop records the shop resolved from the storefront API.
func (c *Credential) AttachShop(shopID int64, shopName string) {
	c.ShopID = &shopID
	c.ShopName = shopName
}

// CredentialRepository persists the singleton storefront credential.
type CredentialRepository interface {
	// Get returns the stored credential or ErrNotConnected when none exists.
	Get(ctx context.Context) (*Credential, error)
	// Save upserts the credential, replacing any previous one.
	Save(ctx context.Context, credential *Credential) error
	// Delete removes the credential. Deleting a missing credential is not an error.
	Delete(ctx context.Context) error
}
