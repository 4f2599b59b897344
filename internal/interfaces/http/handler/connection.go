package handler

import (
	"github.com/gin-gonic/gin"

	commerceapp "github.com/spellworks/backend/internal/application/commerce"
)

// ConnectionHandler handles storefront connection API endpoints
type ConnectionHandler struct {
	BaseHandler
	connectionService *commerceapp.ConnectionService
}

// NewConnectionHandler creates a new ConnectionHandler
func NewConnectionHandler(connectionService *commerceapp.ConnectionService) *ConnectionHandler {
	return &ConnectionHandler{
		connectionService: connectionService,
	}
}

// RegisterRoutes registers storefront connection routes
func (h *ConnectionHandler) RegisterRoutes(rg *gin.RouterGroup) {
	etsy := rg.Group("/etsy")
	{
		etsy.GET("/connect", h.Connect)
		etsy.GET("/callback", h.Callback)
		etsy.GET("/status", h.Status)
		etsy.DELETE("/connection", h.Disconnect)
	}
}

// Connect starts the authorization flow and returns the consent URL
func (h *ConnectionHandler) Connect(c *gin.Context) {
	resp, err := h.connectionService.Connect()
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, resp)
}

// CallbackQuery represents the authorization callback parameters
type CallbackQuery struct {
	Code  string `form:"code" binding:"required"`
	State string `form:"state" binding:"required"`
}

// Callback completes the authorization flow with the code from the storefront
func (h *ConnectionHandler) Callback(c *gin.Context) {
	var query CallbackQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	status, err := h.connectionService.Callback(c.Request.Context(), query.Code, query.State)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, status)
}

// Status reports whether a storefront connection exists
func (h *ConnectionHandler) Status(c *gin.Context) {
	status, err := h.connectionService.Status(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, status)
}

// Disconnect revokes the stored credential
func (h *ConnectionHandler) Disconnect(c *gin.Context) {
	if err := h.connectionService.Disconnect(c.Request.Context()); err != nil {
		h.HandleError(c, err)
		return
	}

	h.NoContent(c)
}
