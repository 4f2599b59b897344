package persistence

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/spellworks/backend/internal/domain/fulfillment"
)

// GormSyncCheckpointRepository implements SyncCheckpointRepository using GORM
type GormSyncCheckpointRepository struct {
	db *gorm.DB
}

var _ fulfillment.SyncCheckpointRepository = (*GormSyncCheckpointRepository)(nil)

// NewGormSyncCheckpointRepository creates a new GormSyncCheckpointRepository
func NewGormSyncCheckpointRepository(db *gorm.DB) *GormSyncCheckpointRepository {
	return &GormSyncCheckpointRepository{db: db}
}

// Get returns the checkpoint, creating one at the epoch when none exists
func (r *GormSyncCheckpointRepository) Get(ctx context.Context) (*fulfillment.SyncCheckpoint, error) {
	var checkpoint fulfillment.SyncCheckpoint
	err := r.db.WithContext(ctx).First(&checkpoint).Error
	if err == nil {
		return &checkpoint, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	fresh := fulfillment.NewSyncCheckpoint(time.Unix(0, 0).UTC())
	if err := r.db.WithContext(ctx).Create(fresh).Error; err != nil {
		return nil, err
	}
	return fresh, nil
}

// Save persists the checkpoint
func (r *GormSyncCheckpointRepository) Save(ctx context.Context, checkpoint *fulfillment.SyncCheckpoint) error {
	return r.db.WithContext(ctx).Save(checkpoint).Error
}
