package persistence

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/spellworks/backend/internal/domain/fulfillment"
	"github.com/spellworks/backend/internal/domain/shared"
)

// GormOrderRepository implements OrderRepository using GORM
type GormOrderRepository struct {
	db *gorm.DB
}

var _ fulfillment.OrderRepository = (*GormOrderRepository)(nil)

// NewGormOrderRepository creates a new GormOrderRepository
func NewGormOrderRepository(db *gorm.DB) *GormOrderRepository {
	return &GormOrderRepository{db: db}
}

// FindByID finds an order by its ID
func (r *GormOrderRepository) FindByID(ctx context.Context, id uuid.UUID) (*fulfillment.Order, error) {
	var order fulfillment.Order
	if err := r.db.WithContext(ctx).First(&order, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fulfillment.ErrOrderNotFound
		}
		return nil, err
	}
	return &order, nil
}

// FindByReceiptID finds an order by its storefront receipt identifier
func (r *GormOrderRepository) FindByReceiptID(ctx context.Context, receiptID string) (*fulfillment.Order, error) {
	var order fulfillment.Order
	if err := r.db.WithContext(ctx).First(&order, "receipt_id = ?", receiptID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fulfillment.ErrOrderNotFound
		}
		return nil, err
	}
	return &order, nil
}

// ExistsByReceiptID reports whether an order exists for the receipt
func (r *GormOrderRepository) ExistsByReceiptID(ctx context.Context, receiptID string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&fulfillment.Order{}).
		Where("receipt_id = ?", receiptID).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// FindAll finds orders matching the filter
func (r *GormOrderRepository) FindAll(ctx context.Context, filter shared.Filter) ([]fulfillment.Order, error) {
	var orders []fulfillment.Order
	query := r.applyFilter(r.db.WithContext(ctx).Model(&fulfillment.Order{}), filter)
	if err := query.Find(&orders).Error; err != nil {
		return nil, err
	}
	return orders, nil
}

// Count counts orders matching the filter
func (r *GormOrderRepository) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	var count int64
	query := r.applyConditions(r.db.WithContext(ctx).Model(&fulfillment.Order{}), filter)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// Create inserts a new order. A receipt already imported surfaces
// ErrDuplicateReceipt via the unique index on receipt_id.
func (r *GormOrderRepository) Create(ctx context.Context, order *fulfillment.Order) error {
	if err := r.db.WithContext(ctx).Create(order).Error; err != nil {
		if isDuplicateKey(err) {
			return fulfillment.ErrDuplicateReceipt
		}
		return err
	}
	return nil
}

// Save updates non-status fields with optimistic locking on the version column
func (r *GormOrderRepository) Save(ctx context.Context, order *fulfillment.Order) error {
	currentVersion := order.Version
	order.Version++
	order.UpdatedAt = time.Now()

	result := r.db.WithContext(ctx).Model(&fulfillment.Order{}).
		Where("id = ? AND version = ?", order.ID, currentVersion).
		Updates(map[string]interface{}{
			"buyer_name":      order.BuyerName,
			"buyer_email":     order.BuyerEmail,
			"category_id":     order.CategoryID,
			"listing_title":   order.ListingTitle,
			"intention":       order.Intention,
			"personalization": order.Personalization,
			"total_amount":    order.TotalAmount,
			"currency":        order.Currency,
			"last_error":      order.LastError,
			"version":         order.Version,
			"updated_at":      order.UpdatedAt,
		})
	if result.Error != nil {
		order.Version = currentVersion
		return result.Error
	}
	if result.RowsAffected == 0 {
		order.Version = currentVersion
		return fulfillment.ErrConflictingState
	}
	return nil
}

// Transition atomically moves the order between statuses. The expected status
// is part of the WHERE clause, so of two concurrent writers exactly one wins;
// the other sees ErrConflictingState.
func (r *GormOrderRepository) Transition(ctx context.Context, id uuid.UUID, from, to fulfillment.OrderStatus, detail string) error {
	if !from.CanTransitionTo(to) {
		return shared.ErrInvalidState
	}

	result := r.db.WithContext(ctx).Model(&fulfillment.Order{}).
		Where("id = ? AND status = ?", id, from).
		Updates(map[string]interface{}{
			"status":     to,
			"last_error": detail,
			"version":    gorm.Expr("version + 1"),
			"updated_at": time.Now(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		var count int64
		if err := r.db.WithContext(ctx).Model(&fulfillment.Order{}).
			Where("id = ?", id).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return fulfillment.ErrOrderNotFound
		}
		return fulfillment.ErrConflictingState
	}
	return nil
}

// applyFilter applies pagination, ordering and field filters
func (r *GormOrderRepository) applyFilter(query *gorm.DB, filter shared.Filter) *gorm.DB {
	query = r.applyConditions(query, filter)

	orderBy := ValidateSortField(filter.OrderBy, OrderSortFields, "ordered_at")
	orderDir := ValidateSortOrder(filter.OrderDir)
	query = query.Order(orderBy + " " + orderDir)

	if filter.PageSize > 0 {
		page := filter.Page
		if page < 1 {
			page = 1
		}
		query = query.Offset((page - 1) * filter.PageSize).Limit(filter.PageSize)
	}
	return query
}

func (r *GormOrderRepository) applyConditions(query *gorm.DB, filter shared.Filter) *gorm.DB {
	for field, value := range filter.Filters {
		switch field {
		case "status", "category_id", "is_test", "receipt_id":
			query = query.Where(field+" = ?", value)
		case "ordered_after":
			query = query.Where("ordered_at >= ?", value)
		case "ordered_before":
			query = query.Where("ordered_at <= ?", value)
		}
	}
	if filter.Search != "" {
		pattern := "%" + filter.Search + "%"
		query = query.Where("buyer_name LIKE ? OR buyer_email LIKE ? OR receipt_id LIKE ?",
			pattern, pattern, pattern)
	}
	return query
}

func isDuplicateKey(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "duplicate key") || strings.Contains(msg, "unique constraint")
}
