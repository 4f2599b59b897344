package handler

import (
	"context"
	"errors"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	fulfillmentapp "github.com/spellworks/backend/internal/application/fulfillment"
	"github.com/spellworks/backend/internal/infrastructure/scheduler"
)

// SyncTrigger kicks off a receipt sync outside the regular schedule
type SyncTrigger interface {
	TriggerNow(ctx context.Context) error
}

// OrderHandler handles order-related API endpoints
type OrderHandler struct {
	BaseHandler
	orderService      *fulfillmentapp.OrderService
	generationService *fulfillmentapp.GenerationService
	deliveryService   *fulfillmentapp.DeliveryService
	syncTrigger       SyncTrigger
}

// NewOrderHandler creates a new OrderHandler
func NewOrderHandler(
	orderService *fulfillmentapp.OrderService,
	generationService *fulfillmentapp.GenerationService,
	deliveryService *fulfillmentapp.DeliveryService,
	syncTrigger SyncTrigger,
) *OrderHandler {
	return &OrderHandler{
		orderService:      orderService,
		generationService: generationService,
		deliveryService:   deliveryService,
		syncTrigger:       syncTrigger,
	}
}

// RegisterRoutes registers order routes
func (h *OrderHandler) RegisterRoutes(rg *gin.RouterGroup) {
	orders := rg.Group("/orders")
	{
		orders.GET("", h.List)
		orders.POST("/manual", h.CreateManual)
		orders.POST("/test", h.CreateTest)
		orders.POST("/sync", h.TriggerSync)
		orders.GET("/:id", h.Get)
		orders.POST("/:id/generate", h.Generate)
		orders.POST("/:id/approve", h.Approve)
		orders.PUT("/:id/content", h.EditContent)
		orders.POST("/:id/deliver", h.Deliver)
		orders.POST("/:id/reset", h.Reset)
	}
}

// ListOrdersQuery represents query parameters for listing orders
type ListOrdersQuery struct {
	Status        string `form:"status"`
	CategoryID    string `form:"category_id" binding:"omitempty,uuid"`
	Search        string `form:"search"`
	OrderedAfter  string `form:"ordered_after" binding:"omitempty"`
	OrderedBefore string `form:"ordered_before" binding:"omitempty"`
	IncludeTest   bool   `form:"include_test"`
	Page          int    `form:"page" binding:"omitempty,min=1"`
	PageSize      int    `form:"page_size" binding:"omitempty,min=1,max=100"`
}

// List returns a paginated list of orders
func (h *OrderHandler) List(c *gin.Context) {
	var query ListOrdersQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	filter := fulfillmentapp.OrderListFilter{
		Status:      query.Status,
		Search:      query.Search,
		IncludeTest: query.IncludeTest,
		Page:        query.Page,
		PageSize:    query.PageSize,
	}

	if query.CategoryID != "" {
		categoryID, err := uuid.Parse(query.CategoryID)
		if err != nil {
			h.BadRequest(c, "Invalid category ID format")
			return
		}
		filter.CategoryID = &categoryID
	}
	if query.OrderedAfter != "" {
		after, err := time.Parse(time.RFC3339, query.OrderedAfter)
		if err != nil {
			h.BadRequest(c, "ordered_after must be RFC 3339")
			return
		}
		filter.OrderedAfter = &after
	}
	if query.OrderedBefore != "" {
		before, err := time.Parse(time.RFC3339, query.OrderedBefore)
		if err != nil {
			h.BadRequest(c, "ordered_before must be RFC 3339")
			return
		}
		filter.OrderedBefore = &before
	}

	page, err := h.orderService.List(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.SuccessWithMeta(c, page.Items, page.Total, page.Page, page.PageSize)
}

// Get returns an order with its content versions and delivery history
func (h *OrderHandler) Get(c *gin.Context) {
	orderID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid order ID format")
		return
	}

	detail, err := h.orderService.Get(c.Request.Context(), orderID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, detail)
}

// CreateManual records an order entered by hand
func (h *OrderHandler) CreateManual(c *gin.Context) {
	var req fulfillmentapp.ManualOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	order, err := h.orderService.CreateManual(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, order)
}

// CreateTest records a synthetic order for trying out prompt templates
func (h *OrderHandler) CreateTest(c *gin.Context) {
	var req fulfillmentapp.TestOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	order, err := h.orderService.CreateTest(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, order)
}

// TriggerSync requests an immediate receipt sync run
func (h *OrderHandler) TriggerSync(c *gin.Context) {
	if err := h.syncTrigger.TriggerNow(c.Request.Context()); err != nil {
		switch {
		case errors.Is(err, scheduler.ErrSyncInProgress):
			h.Conflict(c, "A sync run is already in progress")
		case errors.Is(err, scheduler.ErrTriggerNotRunning):
			h.Conflict(c, "Receipt sync is not running")
		default:
			h.HandleError(c, err)
		}
		return
	}

	h.Accepted(c, gin.H{"triggered": true})
}

// Generate produces a new content version for the order
func (h *OrderHandler) Generate(c *gin.Context) {
	orderID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid order ID format")
		return
	}

	version, err := h.generationService.Generate(c.Request.Context(), orderID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, version)
}

// Approve marks the current content version as ready for delivery
func (h *OrderHandler) Approve(c *gin.Context) {
	orderID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid order ID format")
		return
	}

	detail, err := h.orderService.Approve(c.Request.Context(), orderID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, detail)
}

// EditContent appends a hand-edited content version
func (h *OrderHandler) EditContent(c *gin.Context) {
	orderID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid order ID format")
		return
	}

	var req fulfillmentapp.EditContentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	version, err := h.orderService.Edit(c.Request.Context(), orderID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, version)
}

// Deliver emails the approved content to the buyer
func (h *OrderHandler) Deliver(c *gin.Context) {
	orderID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid order ID format")
		return
	}

	record, err := h.deliveryService.Deliver(c.Request.Context(), orderID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, record)
}

// Reset returns a failed order to the start of the pipeline
func (h *OrderHandler) Reset(c *gin.Context) {
	orderID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid order ID format")
		return
	}

	order, err := h.orderService.Reset(c.Request.Context(), orderID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, order)
}
