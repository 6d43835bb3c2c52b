package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/arturz777/dlyq/dispatch-service/internal/entity"
	"github.com/arturz777/dlyq/pkg/auth"
	"github.com/arturz777/dlyq/pkg/errors"
)

// WarehouseHandler обработчик HTTP запросов склада. Оператором склада выступает администратор.
type WarehouseHandler struct {
	warehouses WarehouseService
	auth       *auth.AuthMiddleware
}

func NewWarehouseHandler(warehouses WarehouseService, authMiddleware *auth.AuthMiddleware) *WarehouseHandler {
	return &WarehouseHandler{
		warehouses: warehouses,
		auth:       authMiddleware,
	}
}

func (h *WarehouseHandler) RegisterRoutes(router *gin.Engine) {
	warehouseGroup := router.Group("/api/warehouse",
		h.auth.AuthRequired(),
		h.auth.RoleRequired(auth.RoleAdmin),
		EnsureActor(h.warehouses.Ensure),
	)
	{
		warehouseGroup.GET("/orders", h.ListOrders)
		warehouseGroup.POST("/orders/:id/accept", h.AcceptOrder)
		warehouseGroup.POST("/orders/:id/complete", h.CompleteProcessing)
	}
}

func (h *WarehouseHandler) ListOrders(c *gin.Context) {
	orders, err := h.warehouses.ListOrders(c.Request.Context(), auth.GetUserID(c))
	if errors.HandleGinError(c, err) {
		return
	}

	c.JSON(http.StatusOK, orders)
}

func (h *WarehouseHandler) AcceptOrder(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req entity.WarehouseAcceptRequest
	if !errors.BindJSON(c, &req) {
		return
	}

	order, err := h.warehouses.AcceptOrder(c.Request.Context(), auth.GetUserID(c), id, req.ProcessingTime)
	if errors.HandleGinError(c, err) {
		return
	}

	c.JSON(http.StatusOK, order)
}

func (h *WarehouseHandler) CompleteProcessing(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	order, err := h.warehouses.CompleteProcessing(c.Request.Context(), auth.GetUserID(c), id)
	if errors.HandleGinError(c, err) {
		return
	}

	c.JSON(http.StatusOK, order)
}
