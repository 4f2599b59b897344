package fulfillment

import (
	"time"

	"github.com/google/uuid"

	"github.com/spellworks/backend/internal/domain/shared"
)

// ContentVersion is one generated (or human-edited) rendition of an order's
// content. Versions are append-only: regeneration and edits create new rows,
// never overwrite old ones. The version number increases by one per order;
// the row with the highest number is the current version.
type ContentVersion struct {
	shared.BaseEntity
	OrderID       uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_content_order_version"`
	Version       int       `gorm:"not null;uniqueIndex:idx_content_order_version"`
	Body          string    `gorm:"not null"`
	Prompt        string
	Model         string
	InputTokens   int
	OutputTokens  int
	Approved      bool `gorm:"not null;default:false"`
	ApprovedAt    *time.Time
	EditedByHuman bool `gorm:"not null;default:false"`
}

// NewContentVersion creates an unnumbered version; the repository assigns the
// next version number atomically on insert.
func NewContentVersion(orderID uuid.UUID, body, prompt, model string, inputTokens, outputTokens int) *ContentVersion {
	return &ContentVersion{
		BaseEntity:   shared.NewBaseEntity(),
		OrderID:      orderID,
		Body:         body,
		Prompt:       prompt,
		Model:        model,
		InputTokens:  inputTokens,
		OutputTokens: outputTokens,
	}
}

// NewEditedVersion creates a version holding a human-written body.
func NewEditedVersion(orderID uuid.UUID, body string) *ContentVersion {
	return &ContentVersion{
		BaseEntity:    shared.NewBaseEntity(),
		OrderID:       orderID,
		Body:          body,
		EditedByHuman: true,
	}
}

// MarkApproved records reviewer approval.
func (v *ContentVersion) MarkApproved(at time.Time) {
	v.Approved = true
	v.ApprovedAt = &at
}
