package fulfillment

import (
	"context"
	"time"

	"github.com/spellworks/backend/internal/domain/shared"
)

// SyncCheckpoint records how far receipt synchronization has progressed.
// A single row holds the watermark; it only moves forward, and only after
// every receipt of a fetched page has been processed.
type SyncCheckpoint struct {
	shared.BaseEntity
	LastSyncedAt time.Time `gorm:"not null"`
}

// NewSyncCheckpoint creates a checkpoint starting at the given watermark.
func NewSyncCheckpoint(at time.Time) *SyncCheckpoint {
	return &SyncCheckpoint{
		BaseEntity:   shared.NewBaseEntity(),
		LastSyncedAt: at,
	}
}

// Advance moves the watermark forward. Moving backward is ignored so a
// re-run over old data can never lose progress.
func (c *SyncCheckpoint) Advance(to time.Time) {
	if to.After(c.LastSyncedAt) {
		c.LastSyncedAt = to
		c.UpdatedAt = time.Now()
	}
}

// SyncCheckpointRepository persists the singleton sync watermark.
type SyncCheckpointRepository interface {
	// Get returns the checkpoint, creating one at the zero watermark when
	// none exists yet.
	Get(ctx context.Context) (*SyncCheckpoint, error)
	Save(ctx context.Context, checkpoint *SyncCheckpoint) error
}
