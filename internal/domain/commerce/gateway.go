package commerce

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// Receipt represents a paid storefront receipt normalized from the provider API.
type Receipt struct {
	// ReceiptID is the provider-assigned receipt identifier, unique per receipt.
	ReceiptID string
	// BuyerName is the buyer's display name.
	BuyerName string
	// BuyerEmail is the buyer's contact address.
	BuyerEmail string
	// TotalAmount is what the buyer paid.
	TotalAmount decimal.Decimal
	// Currency is the ISO currency code of the payment.
	Currency string
	// IsPaid reports whether payment has been captured.
	IsPaid bool
	// CreatedAt is when the receipt was created on the provider.
	CreatedAt time.Time
	// MessageFromBuyer is the free-text note the buyer left at checkout.
	MessageFromBuyer string
	// Items contains the purchased line items.
	Items []ReceiptItem
}

// ReceiptItem is a purchased line item on a receipt.
type ReceiptItem struct {
	// ListingID is the provider listing the buyer purchased.
	ListingID int64
	// Title is the listing title at purchase time.
	Title string
	// Quantity is the purchased quantity.
	Quantity int
	// Personalization holds the buyer-supplied personalization fields.
	Personalization map[string]string
	// Price is the unit price paid.
	Price decimal.Decimal
}

// PrimaryItem returns the first line item, which carries the personalization
// for single-listing orders. Returns nil for an empty receipt.
func (r *Receipt) PrimaryItem() *ReceiptItem {
	if len(r.Items) == 0 {
		return nil
	}
	return &r.Items[0]
}

// ListReceiptsRequest asks for a page of paid receipts created after a watermark.
type ListReceiptsRequest struct {
	// MinCreated filters to receipts created at or after this time.
	MinCreated time.Time
	// Limit is the page size (1-100, default 25).
	Limit int
	// Offset is the pagination offset.
	Offset int
}

// Normalize clamps pagination fields to provider-accepted values.
func (r *ListReceiptsRequest) Normalize() {
	if r.Limit < 1 || r.Limit > 100 {
		r.Limit = 25
	}
	if r.Offset < 0 {
		r.Offset = 0
	}
}

// ListReceiptsResponse is a page of receipts plus pagination state.
type ListReceiptsResponse struct {
	Receipts []Receipt
	// TotalCount is the total number of receipts matching the request.
	TotalCount int
	// HasMore indicates another page exists beyond this one.
	HasMore bool
	// NextOffset is the offset of the next page when HasMore is true.
	NextOffset int
}

// Gateway is the port to the external commerce provider. The concrete
// adapter lives in the infrastructure layer and handles authentication,
// rate limiting and retries; callers see only normalized domain values.
type Gateway interface {
	// ListReceipts returns a page of paid receipts newer than the watermark.
	ListReceipts(ctx context.Context, req *ListReceiptsRequest) (*ListReceiptsResponse, error)
	// ShopID resolves the connected shop's identifier, caching it on the credential.
	ShopID(ctx context.Context) (int64, error)
}
