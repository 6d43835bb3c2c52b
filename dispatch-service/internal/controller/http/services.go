package http

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/arturz777/dlyq/dispatch-service/internal/entity"
)

// OrderService операции с заказами, нужные обработчикам
type OrderService interface {
	CreateOrder(ctx context.Context, userID uint, req entity.CreateOrderRequest) (*entity.Order, error)
	GetOrder(ctx context.Context, id, userID uint, role string) (*entity.Order, error)
	GetActiveOrder(ctx context.Context, userID uint) (*entity.Order, error)
	ListAdminOrders(ctx context.Context, limit, offset int) (*entity.ListOrdersResponse, error)
	AdminUpdateOrder(ctx context.Context, id uint, req entity.AdminUpdateOrderRequest) (*entity.Order, error)
	AssignCourier(ctx context.Context, id uint, courierID *uint) (*entity.Order, error)
	ConfirmReceipt(ctx context.Context, id, userID uint) (*entity.Order, error)
	EstimateDeliveryCost(totalPrice, lat, lon float64) entity.DeliveryCostResponse
}

// CourierService операции курьера
type CourierService interface {
	Ensure(ctx context.Context, courierID uint) error
	GetCourier(ctx context.Context, courierID uint) (*entity.Courier, error)
	ListCouriers(ctx context.Context) ([]entity.Courier, error)
	SetStatus(ctx context.Context, courierID uint, status entity.CourierStatus) error
	ListAvailableOrders(ctx context.Context, courierID uint) ([]entity.Order, error)
	GetCurrentOrder(ctx context.Context, courierID uint) (*entity.Order, error)
	AcceptOrder(ctx context.Context, orderID, courierID uint) (*entity.OrderClaimResponse, error)
	UpdateOrderStatus(ctx context.Context, orderID, courierID uint, status entity.OrderStatus) (*entity.Order, error)
	CompleteOrder(ctx context.Context, orderID, courierID uint) (*entity.Order, error)
	UpdateLocation(ctx context.Context, courierID uint, lat, lng *float64) error
}

// WarehouseService операции склада
type WarehouseService interface {
	Ensure(ctx context.Context, warehouseID uint) error
	ListOrders(ctx context.Context, warehouseID uint) ([]entity.Order, error)
	AcceptOrder(ctx context.Context, warehouseID, orderID uint, processingTime string) (*entity.Order, error)
	CompleteProcessing(ctx context.Context, warehouseID, orderID uint) (*entity.Order, error)
}

// ChatService операции чатов
type ChatService interface {
	CreateChat(ctx context.Context, creatorID uint, creatorRole string, req entity.CreateChatRequest) (*entity.Chat, error)
	ListChats(ctx context.Context, userID uint) ([]entity.Chat, error)
	ListMessages(ctx context.Context, chatID, userID uint, role string) ([]entity.ChatMessage, error)
	SendMessage(ctx context.Context, chatID, senderID uint, role, text string) (*entity.ChatMessage, error)
	MarkRead(ctx context.Context, chatID, readerID uint, role string) (int64, error)
}

// RetentionService ручной запуск очистки
type RetentionService interface {
	Sweep(ctx context.Context) (int64, error)
}

// parseID читает числовой параметр пути; при ошибке отвечает 400
func parseID(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "неверный формат ID"})
		return 0, false
	}
	return uint(id), true
}
