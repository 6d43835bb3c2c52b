package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/arturz777/dlyq/dispatch-service/internal/entity"
	"github.com/arturz777/dlyq/pkg/auth"
	"github.com/arturz777/dlyq/pkg/errors"
)

// CourierHandler обработчик HTTP запросов курьеров
type CourierHandler struct {
	couriers CourierService
	auth     *auth.AuthMiddleware
}

func NewCourierHandler(couriers CourierService, authMiddleware *auth.AuthMiddleware) *CourierHandler {
	return &CourierHandler{
		couriers: couriers,
		auth:     authMiddleware,
	}
}

// RegisterRoutes регистрирует маршруты курьеров. Запись курьера создается при первом запросе.
func (h *CourierHandler) RegisterRoutes(router *gin.Engine) {
	router.GET("/api/couriers", h.auth.AuthRequired(), h.auth.RoleRequired(auth.RoleAdmin), h.ListCouriers)

	courierGroup := router.Group("/api/couriers",
		h.auth.AuthRequired(),
		h.auth.RoleRequired(auth.RoleCourier),
		EnsureActor(h.couriers.Ensure),
	)
	{
		courierGroup.GET("/me", h.GetMe)
		courierGroup.POST("/status", h.SetStatus)
		courierGroup.POST("/update-location", h.UpdateLocation)
		courierGroup.GET("/orders", h.ListAvailableOrders)
		courierGroup.GET("/orders/active", h.GetCurrentOrder)
		courierGroup.POST("/orders/:id/accept", h.AcceptOrder)
		courierGroup.POST("/orders/:id/status", h.UpdateOrderStatus)
		courierGroup.POST("/orders/:id/complete", h.CompleteOrder)
	}
}

func (h *CourierHandler) ListCouriers(c *gin.Context) {
	couriers, err := h.couriers.ListCouriers(c.Request.Context())
	if errors.HandleGinError(c, err) {
		return
	}

	c.JSON(http.StatusOK, couriers)
}

func (h *CourierHandler) GetMe(c *gin.Context) {
	courier, err := h.couriers.GetCourier(c.Request.Context(), auth.GetUserID(c))
	if errors.HandleGinError(c, err) {
		return
	}

	c.JSON(http.StatusOK, courier)
}

func (h *CourierHandler) SetStatus(c *gin.Context) {
	var req entity.CourierStatusRequest
	if !errors.BindJSON(c, &req) {
		return
	}

	courierID := auth.GetUserID(c)
	if errors.HandleGinError(c, h.couriers.SetStatus(c.Request.Context(), courierID, req.Status)) {
		return
	}

	c.JSON(http.StatusOK, entity.CourierStatusUpdate{CourierID: courierID, Status: req.Status})
}

func (h *CourierHandler) UpdateLocation(c *gin.Context) {
	var req entity.LocationRequest
	if !errors.BindJSON(c, &req) {
		return
	}

	if errors.HandleGinError(c, h.couriers.UpdateLocation(c.Request.Context(), auth.GetUserID(c), req.Lat, req.Lng)) {
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (h *CourierHandler) ListAvailableOrders(c *gin.Context) {
	orders, err := h.couriers.ListAvailableOrders(c.Request.Context(), auth.GetUserID(c))
	if errors.HandleGinError(c, err) {
		return
	}

	c.JSON(http.StatusOK, orders)
}

// GetCurrentOrder отдает null, если курьер свободен
func (h *CourierHandler) GetCurrentOrder(c *gin.Context) {
	order, err := h.couriers.GetCurrentOrder(c.Request.Context(), auth.GetUserID(c))
	if errors.HandleGinError(c, err) {
		return
	}

	c.JSON(http.StatusOK, order)
}

func (h *CourierHandler) AcceptOrder(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	resp, err := h.couriers.AcceptOrder(c.Request.Context(), id, auth.GetUserID(c))
	if errors.HandleGinError(c, err) {
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (h *CourierHandler) UpdateOrderStatus(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req entity.CourierOrderStatusRequest
	if !errors.BindJSON(c, &req) {
		return
	}

	order, err := h.couriers.UpdateOrderStatus(c.Request.Context(), id, auth.GetUserID(c), req.Status)
	if errors.HandleGinError(c, err) {
		return
	}

	c.JSON(http.StatusOK, order)
}

func (h *CourierHandler) CompleteOrder(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	order, err := h.couriers.CompleteOrder(c.Request.Context(), id, auth.GetUserID(c))
	if errors.HandleGinError(c, err) {
		return
	}

	c.JSON(http.StatusOK, order)
}
