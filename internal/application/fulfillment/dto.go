package fulfillment

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/spellworks/backend/internal/domain/fulfillment"
)

// OrderListFilter holds query options for listing orders
type OrderListFilter struct {
	Status        string
	CategoryID    *uuid.UUID
	Search        string
	OrderedAfter  *time.Time
	OrderedBefore *time.Time
	// IncludeTest includes synthetic test orders, which are hidden by default
	IncludeTest bool
	Page        int
	PageSize    int
}

// OrderResponse is the API representation of an order
type OrderResponse struct {
	ID              uuid.UUID         `json:"id"`
	ReceiptID       string            `json:"receipt_id"`
	BuyerName       string            `json:"buyer_name"`
	BuyerEmail      string            `json:"buyer_email"`
	CategoryID      *uuid.UUID        `json:"category_id,omitempty"`
	ListingTitle    string            `json:"listing_title"`
	Intention       string            `json:"intention"`
	Personalization map[string]string `json:"personalization,omitempty"`
	TotalAmount     decimal.Decimal   `json:"total_amount"`
	Currency        string            `json:"currency"`
	OrderedAt       time.Time         `json:"ordered_at"`
	Status          string            `json:"status"`
	IsTest          bool              `json:"is_test"`
	IsManual        bool              `json:"is_manual"`
	LastError       string            `json:"last_error,omitempty"`
	CreatedAt       time.Time         `json:"created_at"`
	UpdatedAt       time.Time         `json:"updated_at"`
}

// ToOrderResponse converts a domain order to its API representation
func ToOrderResponse(order *fulfillment.Order) *OrderResponse {
	return &OrderResponse{
		ID:              order.ID,
		ReceiptID:       order.ReceiptID,
		BuyerName:       order.BuyerName,
		BuyerEmail:      order.BuyerEmail,
		CategoryID:      order.CategoryID,
		ListingTitle:    order.ListingTitle,
		Intention:       order.Intention,
		Personalization: order.Personalization,
		TotalAmount:     order.TotalAmount,
		Currency:        order.Currency,
		OrderedAt:       order.OrderedAt,
		Status:          order.Status.String(),
		IsTest:          order.IsTest,
		IsManual:        order.IsManual(),
		LastError:       order.LastError,
		CreatedAt:       order.CreatedAt,
		UpdatedAt:       order.UpdatedAt,
	}
}

// ContentVersionResponse is the API representation of a content version
type ContentVersionResponse struct {
	ID            uuid.UUID  `json:"id"`
	OrderID       uuid.UUID  `json:"order_id"`
	Version       int        `json:"version"`
	Body          string     `json:"body"`
	Model         string     `json:"model,omitempty"`
	InputTokens   int        `json:"input_tokens"`
	OutputTokens  int        `json:"output_tokens"`
	Approved      bool       `json:"approved"`
	ApprovedAt    *time.Time `json:"approved_at,omitempty"`
	EditedByHuman bool       `json:"edited_by_human"`
	CreatedAt     time.Time  `json:"created_at"`
}

// ToContentVersionResponse converts a domain content version to its API representation
func ToContentVersionResponse(v *fulfillment.ContentVersion) *ContentVersionResponse {
	return &ContentVersionResponse{
		ID:            v.ID,
		OrderID:       v.OrderID,
		Version:       v.Version,
		Body:          v.Body,
		Model:         v.Model,
		InputTokens:   v.InputTokens,
		OutputTokens:  v.OutputTokens,
		Approved:      v.Approved,
		ApprovedAt:    v.ApprovedAt,
		EditedByHuman: v.EditedByHuman,
		CreatedAt:     v.CreatedAt,
	}
}

// DeliveryRecordResponse is the API representation of a delivery attempt
type DeliveryRecordResponse struct {
	ID                uuid.UUID `json:"id"`
	OrderID           uuid.UUID `json:"order_id"`
	ContentVersionID  uuid.UUID `json:"content_version_id"`
	Success           bool      `json:"success"`
	ProviderMessageID string    `json:"provider_message_id,omitempty"`
	ErrorDetail       string    `json:"error_detail,omitempty"`
	CreatedAt         time.Time `json:"created_at"`
}

// ToDeliveryRecordResponse converts a domain delivery record to its API representation
func ToDeliveryRecordResponse(r *fulfillment.DeliveryRecord) *DeliveryRecordResponse {
	return &DeliveryRecordResponse{
		ID:                r.ID,
		OrderID:           r.OrderID,
		ContentVersionID:  r.ContentVersionID,
		Success:           r.Success,
		ProviderMessageID: r.ProviderMessageID,
		ErrorDetail:       r.ErrorDetail,
		CreatedAt:         r.CreatedAt,
	}
}

// OrderDetailResponse is an order together with its content history and
// delivery audit trail
type OrderDetailResponse struct {
	Order          *OrderResponse           `json:"order"`
	CurrentVersion *ContentVersionResponse  `json:"current_version,omitempty"`
	Versions       []ContentVersionResponse `json:"versions"`
	Deliveries     []DeliveryRecordResponse `json:"deliveries"`
}

// ManualOrderRequest creates a production order entered by an operator
type ManualOrderRequest struct {
	BuyerName    string     `json:"buyer_name" binding:"required"`
	BuyerEmail   string     `json:"buyer_email" binding:"required,email"`
	CategoryID   *uuid.UUID `json:"category_id"`
	ListingTitle string     `json:"listing_title"`
	Intention    string     `json:"intention"`
}

// TestOrderRequest creates a synthetic order for exercising the pipeline
type TestOrderRequest struct {
	BuyerName    string     `json:"buyer_name"`
	BuyerEmail   string     `json:"buyer_email" binding:"required,email"`
	CategoryID   *uuid.UUID `json:"category_id"`
	ListingTitle string     `json:"listing_title"`
	Intention    string     `json:"intention"`
}

// EditContentRequest replaces the current content with an operator-written body
type EditContentRequest struct {
	Body string `json:"body" binding:"required"`
}

// CategoryResponse is the API representation of a category
type CategoryResponse struct {
	ID             uuid.UUID `json:"id"`
	Name           string    `json:"name"`
	Slug           string    `json:"slug"`
	Description    string    `json:"description,omitempty"`
	PromptTemplate string    `json:"prompt_template"`
	EmailSubject   string    `json:"email_subject,omitempty"`
	Active         bool      `json:"active"`
	DisplayOrder   int       `json:"display_order"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// ToCategoryResponse converts a domain category to its API representation
func ToCategoryResponse(c *fulfillment.Category) *CategoryResponse {
	return &CategoryResponse{
		ID:             c.ID,
		Name:           c.Name,
		Slug:           c.Slug,
		Description:    c.Description,
		PromptTemplate: c.PromptTemplate,
		EmailSubject:   c.EmailSubject,
		Active:         c.Active,
		DisplayOrder:   c.DisplayOrder,
		CreatedAt:      c.CreatedAt,
		UpdatedAt:      c.UpdatedAt,
	}
}

// CreateCategoryRequest creates a category
type CreateCategoryRequest struct {
	Name           string `json:"name" binding:"required"`
	Slug           string `json:"slug" binding:"required"`
	Description    string `json:"description"`
	PromptTemplate string `json:"prompt_template" binding:"required"`
	EmailSubject   string `json:"email_subject"`
	DisplayOrder   *int   `json:"display_order"`
}

// UpdateCategoryRequest updates mutable category fields; nil fields are left unchanged
type UpdateCategoryRequest struct {
	Name           *string `json:"name"`
	Description    *string `json:"description"`
	PromptTemplate *string `json:"prompt_template"`
	EmailSubject   *string `json:"email_subject"`
	Active         *bool   `json:"active"`
	DisplayOrder   *int    `json:"display_order"`
}

// SyncResult summarizes one receipt sync pass
type SyncResult struct {
	Fetched int `json:"fetched"`
	Created int `json:"created"`
	Skipped int `json:"skipped"`
}
