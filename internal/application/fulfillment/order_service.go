package fulfillment

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spellworks/backend/internal/domain/fulfillment"
	"github.com/spellworks/backend/internal/domain/shared"
)

// OrderService handles operator-facing order operations: listing, review,
// approval, manual intake and failure recovery.
type OrderService struct {
	orders     fulfillment.OrderRepository
	versions   fulfillment.ContentVersionRepository
	records    fulfillment.DeliveryRecordRepository
	categories fulfillment.CategoryRepository
	logger     *zap.Logger
}

// NewOrderService creates a new OrderService
func NewOrderService(
	orders fulfillment.OrderRepository,
	versions fulfillment.ContentVersionRepository,
	records fulfillment.DeliveryRecordRepository,
	categories fulfillment.CategoryRepository,
	logger *zap.Logger,
) *OrderService {
	return &OrderService{
		orders:     orders,
		versions:   versions,
		records:    records,
		categories: categories,
		logger:     logger.Named("orders"),
	}
}

// List returns a page of orders. Test orders are excluded unless the filter
// asks for them.
func (s *OrderService) List(ctx context.Context, filter OrderListFilter) (*shared.Paginated[OrderResponse], error) {
	domainFilter := shared.Filter{
		Filters: make(map[string]interface{}),
	}

	if filter.Status != "" {
		status := fulfillment.OrderStatus(filter.Status)
		if !status.IsValid() {
			return nil, shared.ErrInvalidInput
		}
		domainFilter.Filters["status"] = status
	}
	if filter.CategoryID != nil {
		domainFilter.Filters["category_id"] = *filter.CategoryID
	}
	if !filter.IncludeTest {
		domainFilter.Filters["is_test"] = false
	}
	if filter.OrderedAfter != nil {
		domainFilter.Filters["ordered_after"] = *filter.OrderedAfter
	}
	if filter.OrderedBefore != nil {
		domainFilter.Filters["ordered_before"] = *filter.OrderedBefore
	}
	domainFilter.Search = filter.Search

	page := filter.Page
	if page < 1 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}
	domainFilter.Page = page
	domainFilter.PageSize = pageSize

	orders, err := s.orders.FindAll(ctx, domainFilter)
	if err != nil {
		return nil, err
	}
	total, err := s.orders.Count(ctx, domainFilter)
	if err != nil {
		return nil, err
	}

	responses := make([]OrderResponse, len(orders))
	for i := range orders {
		responses[i] = *ToOrderResponse(&orders[i])
	}

	paginated := shared.NewPaginated(responses, total, page, pageSize)
	return &paginated, nil
}

// Get returns an order with its content history and delivery audit trail.
func (s *OrderService) Get(ctx context.Context, id uuid.UUID) (*OrderDetailResponse, error) {
	order, err := s.orders.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	versions, err := s.versions.FindByOrder(ctx, id)
	if err != nil {
		return nil, err
	}
	deliveries, err := s.records.FindByOrder(ctx, id)
	if err != nil {
		return nil, err
	}

	detail := &OrderDetailResponse{
		Order:      ToOrderResponse(order),
		Versions:   make([]ContentVersionResponse, len(versions)),
		Deliveries: make([]DeliveryRecordResponse, len(deliveries)),
	}
	for i := range versions {
		detail.Versions[i] = *ToContentVersionResponse(&versions[i])
	}
	if len(versions) > 0 {
		// FindByOrder returns newest first
		detail.CurrentVersion = &detail.Versions[0]
	}
	for i := range deliveries {
		detail.Deliveries[i] = *ToDeliveryRecordResponse(&deliveries[i])
	}
	return detail, nil
}

// Approve accepts the current content version for delivery. When two
// reviewers race, exactly one wins; the other gets ErrConflictingState.
func (s *OrderService) Approve(ctx context.Context, id uuid.UUID) (*OrderDetailResponse, error) {
	version, err := s.versions.FindCurrent(ctx, id)
	if err != nil {
		return nil, err
	}
	if version == nil {
		return nil, fulfillment.ErrNoApprovedContent
	}

	if err := s.orders.Transition(ctx, id,
		fulfillment.OrderStatusReview, fulfillment.OrderStatusApproved, ""); err != nil {
		return nil, err
	}

	// An edit racing the transition can append a version after the snapshot
	// above. Re-read so the approved flag lands on the version delivery will
	// pick up.
	if current, err := s.versions.FindCurrent(ctx, id); err != nil {
		return nil, err
	} else if current != nil {
		version = current
	}

	if err := s.versions.Approve(ctx, version.ID, time.Now()); err != nil {
		return nil, err
	}

	s.logger.Info("Content approved",
		zap.String("order_id", id.String()),
		zap.Int("version", version.Version),
	)
	return s.Get(ctx, id)
}

// Edit appends an operator-written content version. Allowed while the order
// is under review; the edited version becomes the current one.
func (s *OrderService) Edit(ctx context.Context, id uuid.UUID, req EditContentRequest) (*ContentVersionResponse, error) {
	order, err := s.orders.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if order.Status != fulfillment.OrderStatusReview {
		return nil, shared.ErrInvalidState
	}

	version := fulfillment.NewEditedVersion(id, req.Body)
	if err := s.versions.Create(ctx, version); err != nil {
		return nil, err
	}

	s.logger.Info("Content edited",
		zap.String("order_id", id.String()),
		zap.Int("version", version.Version),
	)
	return ToContentVersionResponse(version), nil
}

// Reset returns a failed order to pending so it can be reprocessed.
func (s *OrderService) Reset(ctx context.Context, id uuid.UUID) (*OrderResponse, error) {
	if err := s.orders.Transition(ctx, id,
		fulfillment.OrderStatusFailed, fulfillment.OrderStatusPending, ""); err != nil {
		return nil, err
	}
	order, err := s.orders.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return ToOrderResponse(order), nil
}

// CreateManual creates a production order entered by an operator, outside the
// storefront sync.
func (s *OrderService) CreateManual(ctx context.Context, req ManualOrderRequest) (*OrderResponse, error) {
	order := fulfillment.NewOrder(fulfillment.ManualReceiptID(time.Now()), req.BuyerName, req.BuyerEmail)
	return s.createEntered(ctx, order, req.CategoryID, req.ListingTitle, req.Intention)
}

// CreateTest creates a synthetic order for exercising the pipeline end to end.
func (s *OrderService) CreateTest(ctx context.Context, req TestOrderRequest) (*OrderResponse, error) {
	name := req.BuyerName
	if name == "" {
		name = "Test Buyer"
	}
	order := fulfillment.NewOrder(fulfillment.TestReceiptID(time.Now()), name, req.BuyerEmail)
	return s.createEntered(ctx, order, req.CategoryID, req.ListingTitle, req.Intention)
}

func (s *OrderService) createEntered(ctx context.Context, order *fulfillment.Order, categoryID *uuid.UUID, listingTitle, intention string) (*OrderResponse, error) {
	if categoryID != nil {
		if _, err := s.categories.FindByID(ctx, *categoryID); err != nil {
			return nil, err
		}
		order.CategoryID = categoryID
	}
	order.ListingTitle = listingTitle
	order.Intention = intention
	order.OrderedAt = time.Now()

	if err := s.orders.Create(ctx, order); err != nil {
		return nil, err
	}

	s.logger.Info("Order created",
		zap.String("order_id", order.ID.String()),
		zap.String("receipt_id", order.ReceiptID),
		zap.Bool("is_test", order.IsTest),
	)
	return ToOrderResponse(order), nil
}
