package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/spellworks/backend/internal/domain/fulfillment"
	"github.com/spellworks/backend/internal/domain/shared"
)

// GormContentVersionRepository implements ContentVersionRepository using GORM
type GormContentVersionRepository struct {
	db *gorm.DB
}

var _ fulfillment.ContentVersionRepository = (*GormContentVersionRepository)(nil)

// NewGormContentVersionRepository creates a new GormContentVersionRepository
func NewGormContentVersionRepository(db *gorm.DB) *GormContentVersionRepository {
	return &GormContentVersionRepository{db: db}
}

// Create inserts the version with the next per-order version number. The
// number is read and written inside one transaction; the unique index on
// (order_id, version) rejects the loser of a racing insert.
func (r *GormContentVersionRepository) Create(ctx context.Context, version *fulfillment.ContentVersion) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var current int
		if err := tx.Model(&fulfillment.ContentVersion{}).
			Where("order_id = ?", version.OrderID).
			Select("COALESCE(MAX(version), 0)").
			Scan(&current).Error; err != nil {
			return err
		}
		version.Version = current + 1
		return tx.Create(version).Error
	})
}

// FindByID finds a content version by its ID
func (r *GormContentVersionRepository) FindByID(ctx context.Context, id uuid.UUID) (*fulfillment.ContentVersion, error) {
	var version fulfillment.ContentVersion
	if err := r.db.WithContext(ctx).First(&version, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &version, nil
}

// FindCurrent returns the highest-numbered version for the order, nil when
// the order has no versions yet
func (r *GormContentVersionRepository) FindCurrent(ctx context.Context, orderID uuid.UUID) (*fulfillment.ContentVersion, error) {
	var version fulfillment.ContentVersion
	err := r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("version DESC").
		First(&version).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &version, nil
}

// FindByOrder returns all versions of an order, newest first
func (r *GormContentVersionRepository) FindByOrder(ctx context.Context, orderID uuid.UUID) ([]fulfillment.ContentVersion, error) {
	var versions []fulfillment.ContentVersion
	if err := r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("version DESC").
		Find(&versions).Error; err != nil {
		return nil, err
	}
	return versions, nil
}

// Approve marks the version approved
func (r *GormContentVersionRepository) Approve(ctx context.Context, id uuid.UUID, at time.Time) error {
	result := r.db.WithContext(ctx).Model(&fulfillment.ContentVersion{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"approved":    true,
			"approved_at": at,
			"updated_at":  time.Now(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}
