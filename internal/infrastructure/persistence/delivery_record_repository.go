package persistence

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/spellworks/backend/internal/domain/fulfillment"
)

// GormDeliveryRecordRepository implements DeliveryRecordRepository using GORM
type GormDeliveryRecordRepository struct {
	db *gorm.DB
}

var _ fulfillment.DeliveryRecordRepository = (*GormDeliveryRecordRepository)(nil)

// NewGormDeliveryRecordRepository creates a new GormDeliveryRecordRepository
func NewGormDeliveryRecordRepository(db *gorm.DB) *GormDeliveryRecordRepository {
	return &GormDeliveryRecordRepository{db: db}
}

// Create appends a delivery record
func (r *GormDeliveryRecordRepository) Create(ctx context.Context, record *fulfillment.DeliveryRecord) error {
	return r.db.WithContext(ctx).Create(record).Error
}

// FindByOrder returns all delivery attempts for an order, newest first
func (r *GormDeliveryRecordRepository) FindByOrder(ctx context.Context, orderID uuid.UUID) ([]fulfillment.DeliveryRecord, error) {
	var records []fulfillment.DeliveryRecord
	if err := r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("created_at DESC").
		Find(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}
