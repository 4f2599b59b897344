package fulfillment

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/spellworks/backend/internal/domain/shared"
)

// OrderRepository persists orders. Transition is the only way to change an
// order's status: it compares the expected status in the same statement that
// writes the new one, so concurrent writers cannot both win.
type OrderRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Order, error)
	FindByReceiptID(ctx context.Context, receiptID string) (*Order, error)
	ExistsByReceiptID(ctx context.Context, receiptID string) (bool, error)
	FindAll(ctx context.Context, filter shared.Filter) ([]Order, error)
	Count(ctx context.Context, filter shared.Filter) (int64, error)
	Create(ctx context.Context, order *Order) error
	// Save persists non-status field changes with optimistic locking on the
	// version column.
	Save(ctx context.Context, order *Order) error
	// Transition atomically moves the order from the expected status to the
	// target status, recording detail as the last error (empty clears it).
	// Returns ErrConflictingState when the order is no longer in the
	// expected status.
	Transition(ctx context.Context, id uuid.UUID, from, to OrderStatus, detail string) error
}

// ContentVersionRepository persists the append-only content history.
type ContentVersionRepository interface {
	// Create inserts the version, assigning the next per-order version number
	// atomically.
	Create(ctx context.Context, version *ContentVersion) error
	FindByID(ctx context.Context, id uuid.UUID) (*ContentVersion, error)
	// FindCurrent returns the highest-numbered version for the order, or nil
	// when the order has no versions yet.
	FindCurrent(ctx context.Context, orderID uuid.UUID) (*ContentVersion, error)
	FindByOrder(ctx context.Context, orderID uuid.UUID) ([]ContentVersion, error)
	// Approve marks the version approved at the given time.
	Approve(ctx context.Context, id uuid.UUID, at time.Time) error
}

// DeliveryRecordRepository persists the append-only delivery audit trail.
type DeliveryRecordRepository interface {
	Create(ctx context.Context, record *DeliveryRecord) error
	FindByOrder(ctx context.Context, orderID uuid.UUID) ([]DeliveryRecord, error)
}

// CategoryRepository persists categories.
type CategoryRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Category, error)
	FindBySlug(ctx context.Context, slug string) (*Category, error)
	// FindActive returns active categories ordered by display order.
	FindActive(ctx context.Context) ([]Category, error)
	FindAll(ctx context.Context) ([]Category, error)
	Create(ctx context.Context, category *Category) error
	Save(ctx context.Context, category *Category) error
}
