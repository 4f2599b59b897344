package fulfillment

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/spellworks/backend/internal/domain/shared"
)

// OrderStatus represents where an order sits in the fulfillment pipeline.
type OrderStatus string

const (
	// OrderStatusPending indicates the order was imported and awaits generation.
	OrderStatusPending OrderStatus = "PENDING"
	// OrderStatusGenerating indicates content generation is in progress.
	OrderStatusGenerating OrderStatus = "GENERATING"
	// OrderStatusReview indicates generated content awaits human review.
	OrderStatusReview OrderStatus = "REVIEW"
	// OrderStatusApproved indicates the reviewer approved the content for delivery.
	OrderStatusApproved OrderStatus = "APPROVED"
	// OrderStatusDelivered indicates the content was delivered to the buyer.
	OrderStatusDelivered OrderStatus = "DELIVERED"
	// OrderStatusFailed indicates generation or delivery failed; the cause is
	// recorded on the order and an operator must intervene.
	OrderStatusFailed OrderStatus = "FAILED"
)

// IsValid returns true if the status is valid
func (s OrderStatus) IsValid() bool {
	switch s {
	case OrderStatusPending, OrderStatusGenerating, OrderStatusReview,
		OrderStatusApproved, OrderStatusDelivered, OrderStatusFailed:
		return true
	default:
		return false
	}
}

// String returns the string representation of OrderStatus
func (s OrderStatus) String() string {
	return string(s)
}

// CanTransitionTo checks if transition to the target status is allowed
func (s OrderStatus) CanTransitionTo(target OrderStatus) bool {
	switch s {
	case OrderStatusPending:
		return target == OrderStatusGenerating
	case OrderStatusGenerating:
		return target == OrderStatusReview || target == OrderStatusFailed
	case OrderStatusReview:
		return target == OrderStatusGenerating || target == OrderStatusApproved
	case OrderStatusApproved:
		return target == OrderStatusDelivered || target == OrderStatusFailed
	case OrderStatusFailed:
		return target == OrderStatusGenerating || target == OrderStatusPending
	case OrderStatusDelivered:
		return false
	default:
		return false
	}
}

// IsTerminal returns true if no further transitions are possible
func (s OrderStatus) IsTerminal() bool {
	return s == OrderStatusDelivered
}

// Receipt identifier prefixes for orders that did not come from a storefront
// sync. Everything else is a genuine synced receipt.
const (
	// ManualReceiptPrefix marks production orders entered by an operator.
	ManualReceiptPrefix = "88"
	// TestReceiptPrefix marks synthetic orders used to exercise the pipeline.
	TestReceiptPrefix = "99"
)

// Order is the aggregate root of the fulfillment pipeline. One order per
// storefront receipt; the receipt identifier is the deduplication key.
// Orders are never hard-deleted.
type Order struct {
	shared.BaseAggregateRoot
	ReceiptID       string `gorm:"uniqueIndex;not null"`
	BuyerName       string
	BuyerEmail      string
	CategoryID      *uuid.UUID `gorm:"type:uuid;index"`
	ListingTitle    string
	Intention       string
	Personalization map[string]string `gorm:"serializer:json"`
	TotalAmount     decimal.Decimal   `gorm:"type:decimal(12,2)"`
	Currency        string
	OrderedAt       time.Time
	Status          OrderStatus `gorm:"not null;index"`
	IsTest          bool        `gorm:"not null;default:false"`
	LastError       string
}

// NewOrder creates an order in PENDING from a synced storefront receipt.
func NewOrder(receiptID, buyerName, buyerEmail string) *Order {
	return &Order{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		ReceiptID:         receiptID,
		BuyerName:         buyerName,
		BuyerEmail:        buyerEmail,
		Status:            OrderStatusPending,
		Currency:          "USD",
		IsTest:            strings.HasPrefix(receiptID, TestReceiptPrefix),
	}
}

// ManualReceiptID mints a receipt identifier for an operator-entered
// production order.
func ManualReceiptID(now time.Time) string {
	return fmt.Sprintf("%s%d", ManualReceiptPrefix, now.UnixNano())
}

// TestReceiptID mints a receipt identifier for a synthetic test order.
func TestReceiptID(now time.Time) string {
	return fmt.Sprintf("%s%d", TestReceiptPrefix, now.UnixNano())
}

// IsManual reports whether the order was entered by an operator rather than synced.
func (o *Order) IsManual() bool {
	return strings.HasPrefix(o.ReceiptID, ManualReceiptPrefix)
}

// BeginGeneration moves the order into GENERATING. Allowed from PENDING,
// REVIEW (regeneration) and FAILED (retry).
func (o *Order) BeginGeneration() error {
	if !o.Status.CanTransitionTo(OrderStatusGenerating) {
		return o.transitionError(OrderStatusGenerating)
	}
	o.Status = OrderStatusGenerating
	o.LastError = ""
	o.UpdatedAt = time.Now()
	return nil
}

// CompleteGeneration moves the order into REVIEW after content was produced.
func (o *Order) CompleteGeneration() error {
	if !o.Status.CanTransitionTo(OrderStatusReview) {
		return o.transitionError(OrderStatusReview)
	}
	o.Status = OrderStatusReview
	o.UpdatedAt = time.Now()
	return nil
}

// Fail moves the order into FAILED recording the cause. Allowed while
// generating or after approval (failed delivery).
func (o *Order) Fail(detail string) error {
	if !o.Status.CanTransitionTo(OrderStatusFailed) {
		return o.transitionError(OrderStatusFailed)
	}
	o.Status = OrderStatusFailed
	o.LastError = detail
	o.UpdatedAt = time.Now()
	return nil
}

// Approve moves the order into APPROVED after human review.
func (o *Order) Approve() error {
	if !o.Status.CanTransitionTo(OrderStatusApproved) {
		return o.transitionError(OrderStatusApproved)
	}
	o.Status = OrderStatusApproved
	o.UpdatedAt = time.Now()
	return nil
}

// MarkDelivered moves the order into the terminal DELIVERED state.
func (o *Order) MarkDelivered() error {
	if !o.Status.CanTransitionTo(OrderStatusDelivered) {
		return o.transitionError(OrderStatusDelivered)
	}
	o.Status = OrderStatusDelivered
	o.UpdatedAt = time.Now()
	return nil
}

// ResetToPending returns a failed order to PENDING so it can be reprocessed.
func (o *Order) ResetToPending() error {
	if o.Status != OrderStatusFailed {
		return o.transitionError(OrderStatusPending)
	}
	o.Status = OrderStatusPending
	o.LastError = ""
	o.UpdatedAt = time.Now()
	return nil
}

func (o *Order) transitionError(target OrderStatus) error {
	return shared.NewDomainError("INVALID_STATE",
		fmt.Sprintf("cannot transition order from %s to %s", o.Status, target))
}
