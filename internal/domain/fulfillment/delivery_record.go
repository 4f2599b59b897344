package fulfillment

import (
	"github.com/google/uuid"

	"github.com/spellworks/backend/internal/domain/shared"
)

// DeliveryRecord is one attempt to deliver a content version to the buyer.
// Records are append-only; failed attempts stay alongside later successes.
type DeliveryRecord struct {
	shared.BaseEntity
	OrderID          uuid.UUID `gorm:"type:uuid;not null;index"`
	ContentVersionID uuid.UUID `gorm:"type:uuid;not null"`
	Success          bool      `gorm:"not null"`
	// ProviderMessageID is the message identifier returned by the email
	// provider on acceptance.
	ProviderMessageID string
	ErrorDetail       string
}

// NewDeliveryRecord records a successful delivery.
func NewDeliveryRecord(orderID, versionID uuid.UUID, messageID string) *DeliveryRecord {
	return &DeliveryRecord{
		BaseEntity:        shared.NewBaseEntity(),
		OrderID:           orderID,
		ContentVersionID:  versionID,
		Success:           true,
		ProviderMessageID: messageID,
	}
}

// NewFailedDeliveryRecord records a failed delivery attempt.
func NewFailedDeliveryRecord(orderID, versionID uuid.UUID, detail string) *DeliveryRecord {
	return &DeliveryRecord{
		BaseEntity:       shared.NewBaseEntity(),
		OrderID:          orderID,
		ContentVersionID: versionID,
		Success:          false,
		ErrorDetail:      detail,
	}
}
