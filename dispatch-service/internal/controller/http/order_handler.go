package http

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/arturz777/dlyq/dispatch-service/internal/entity"
	"github.com/arturz777/dlyq/pkg/auth"
	"github.com/arturz777/dlyq/pkg/errors"
)

// OrderHandler обработчик HTTP запросов для заказов
type OrderHandler struct {
	orders OrderService
	auth   *auth.AuthMiddleware
}

func NewOrderHandler(orders OrderService, authMiddleware *auth.AuthMiddleware) *OrderHandler {
	return &OrderHandler{
		orders: orders,
		auth:   authMiddleware,
	}
}

// RegisterRoutes регистрирует маршруты для заказов
func (h *OrderHandler) RegisterRoutes(router *gin.Engine) {
	orderGroup := router.Group("/api/order")

	orderGroup.GET("/delivery-cost", h.auth.OptionalAuth(), h.DeliveryCost)

	authorized := orderGroup.Group("", h.auth.AuthRequired())
	{
		authorized.POST("", h.CreateOrder)
		authorized.GET("/active", h.GetActiveOrder)
		authorized.GET("/:id", h.GetOrder)
		authorized.POST("/:id/confirm", h.ConfirmReceipt)
	}

	admin := orderGroup.Group("", h.auth.AuthRequired(), h.auth.RoleRequired(auth.RoleAdmin))
	{
		admin.GET("/admin", h.ListAdminOrders)
		admin.PUT("/:id/status", h.AdminUpdateOrder)
		admin.PUT("/:id/assign-courier", h.AssignCourier)
	}
}

func (h *OrderHandler) CreateOrder(c *gin.Context) {
	var req entity.CreateOrderRequest
	if !errors.BindJSON(c, &req) {
		return
	}

	order, err := h.orders.CreateOrder(c.Request.Context(), auth.GetUserID(c), req)
	if errors.HandleGinError(c, err) {
		return
	}

	c.JSON(http.StatusCreated, order)
}

// GetActiveOrder отдает null, если активного заказа нет
func (h *OrderHandler) GetActiveOrder(c *gin.Context) {
	order, err := h.orders.GetActiveOrder(c.Request.Context(), auth.GetUserID(c))
	if errors.HandleGinError(c, err) {
		return
	}

	c.JSON(http.StatusOK, order)
}

func (h *OrderHandler) GetOrder(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	order, err := h.orders.GetOrder(c.Request.Context(), id, auth.GetUserID(c), auth.GetRole(c))
	if errors.HandleGinError(c, err) {
		return
	}

	c.JSON(http.StatusOK, order)
}

func (h *OrderHandler) ConfirmReceipt(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	order, err := h.orders.ConfirmReceipt(c.Request.Context(), id, auth.GetUserID(c))
	if errors.HandleGinError(c, err) {
		return
	}

	c.JSON(http.StatusOK, order)
}

func (h *OrderHandler) ListAdminOrders(c *gin.Context) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "50"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "неверный формат limit"})
		return
	}

	offset, err := strconv.Atoi(c.DefaultQuery("offset", "0"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "неверный формат offset"})
		return
	}

	resp, err := h.orders.ListAdminOrders(c.Request.Context(), limit, offset)
	if errors.HandleGinError(c, err) {
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (h *OrderHandler) AdminUpdateOrder(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req entity.AdminUpdateOrderRequest
	if !errors.BindJSON(c, &req) {
		return
	}

	order, err := h.orders.AdminUpdateOrder(c.Request.Context(), id, req)
	if errors.HandleGinError(c, err) {
		return
	}

	c.JSON(http.StatusOK, order)
}

func (h *OrderHandler) AssignCourier(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req entity.AssignCourierRequest
	if !errors.BindJSON(c, &req) {
		return
	}

	order, err := h.orders.AssignCourier(c.Request.Context(), id, req.CourierID)
	if errors.HandleGinError(c, err) {
		return
	}

	c.JSON(http.StatusOK, order)
}

// DeliveryCost расчет доставки доступен и без авторизации
func (h *OrderHandler) DeliveryCost(c *gin.Context) {
	var query entity.DeliveryCostQuery
	if !errors.BindQuery(c, &query) {
		return
	}

	c.JSON(http.StatusOK, h.orders.EstimateDeliveryCost(*query.TotalPrice, *query.Lat, *query.Lon))
}
