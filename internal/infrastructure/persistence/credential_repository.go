package persistence

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/spellworks/backend/internal/domain/commerce"
)

// GormCredentialRepository implements CredentialRepository using GORM.
// The table holds at most one row; saving replaces whatever was there.
type GormCredentialRepository struct {
	db *gorm.DB
}

var _ commerce.CredentialRepository = (*GormCredentialRepository)(nil)

// NewGormCredentialRepository creates a new GormCredentialRepository
func NewGormCredentialRepository(db *gorm.DB) *GormCredentialRepository {
	return &GormCredentialRepository{db: db}
}

// Get returns the stored credential or ErrNotConnected
func (r *GormCredentialRepository) Get(ctx context.Context) (*commerce.Credential, error) {
	var credential commerce.Credential
	if err := r.db.WithContext(ctx).
		Order("created_at DESC").
		First(&credential).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, commerce.ErrNotConnected
		}
		return nil, err
	}
	return &credential, nil
}

// Save upserts the credential, discarding any previous connection
func (r *GormCredentialRepository) Save(ctx context.Context, credential *commerce.Credential) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("id <> ?", credential.ID).
			Delete(&commerce.Credential{}).Error; err != nil {
			return err
		}
		return tx.Save(credential).Error
	})
}

// Delete removes the credential; deleting nothing is not an error
func (r *GormCredentialRepository) Delete(ctx context.Context) error {
	return r.db.WithContext(ctx).
		Where("1 = 1").
		Delete(&commerce.Credential{}).Error
}
