package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/datatypes"

	"github.com/arturz777/dlyq/dispatch-service/internal/entity"
	"github.com/arturz777/dlyq/dispatch-service/internal/metrics"
	"github.com/arturz777/dlyq/dispatch-service/internal/repo"
	"github.com/arturz777/dlyq/pkg/auth"
	"github.com/arturz777/dlyq/pkg/errors"
	"github.com/arturz777/dlyq/pkg/realtime"
)

const (
	defaultListLimit = 50
	maxListLimit     = 200
)

// OrderUseCase оформление заказов и действия покупателя и администратора
type OrderUseCase struct {
	orders      repo.OrderRepository
	couriers    repo.CourierRepository
	broadcaster realtime.Broadcaster
	cost        *CostCalculator
	logger      *zap.Logger
	now         func() time.Time
}

func NewOrderUseCase(
	orders repo.OrderRepository,
	couriers repo.CourierRepository,
	broadcaster realtime.Broadcaster,
	cost *CostCalculator,
	logger *zap.Logger,
) *OrderUseCase {
	return &OrderUseCase{
		orders:      orders,
		couriers:    couriers,
		broadcaster: broadcaster,
		cost:        cost,
		logger:      logger.Named("OrderUseCase"),
		now:         time.Now,
	}
}

// CreateOrder сохраняет заказ и оповещает склад и администраторов
func (u *OrderUseCase) CreateOrder(ctx context.Context, userID uint, req entity.CreateOrderRequest) (*entity.Order, error) {
	if req.DeliveryLat == nil || req.DeliveryLng == nil {
		return nil, errors.NewValidationError("delivery", "нужны координаты доставки")
	}
	if len(req.Items) == 0 {
		return nil, errors.NewValidationError("items", "заказ не может быть пустым")
	}

	subtotal := decimal.Zero
	status := entity.OrderStatusPending
	for _, item := range req.Items {
		subtotal = subtotal.Add(decimal.NewFromFloat(item.Price).Mul(decimal.NewFromInt(int64(item.Quantity))))
		if !item.InStock() {
			status = entity.OrderStatusPreorder
		}
	}
	if req.DesiredDeliveryDate != nil {
		status = entity.OrderStatusPreorder
	}

	details, err := json.Marshal(req.Items)
	if err != nil {
		return nil, fmt.Errorf("ошибка сериализации состава заказа: %w", err)
	}

	totalPrice, _ := subtotal.Round(2).Float64()
	destination := entity.Point{Lat: *req.DeliveryLat, Lng: *req.DeliveryLng}
	estimate := u.cost.Estimate(totalPrice, destination)

	order := &entity.Order{
		UserID:              &userID,
		Status:              status,
		WarehouseStatus:     entity.StageFor(status, entity.WarehouseStagePending),
		DeliveryLat:         destination.Lat,
		DeliveryLng:         destination.Lng,
		DeliveryAddress:     req.DeliveryAddress,
		TotalPrice:          totalPrice,
		DeliveryPrice:       estimate.DeliveryPrice,
		OrderDetails:        datatypes.JSON(details),
		DesiredDeliveryDate: req.DesiredDeliveryDate,
		ImageKey:            req.ImageKey,
	}
	if len(req.FormData) > 0 {
		order.FormData = datatypes.JSON(req.FormData)
	}

	if err := u.orders.Create(ctx, order); err != nil {
		return nil, fmt.Errorf("ошибка при создании заказа: %w", err)
	}
	metrics.OrdersCreatedTotal.WithLabelValues(string(order.Status)).Inc()

	u.logger.Info("заказ создан",
		zap.Uint("order_id", order.ID),
		zap.Uint("user_id", userID),
		zap.String("status", string(order.Status)))

	u.broadcaster.Publish(realtime.DefaultChannel, entity.EventNewOrder, order)
	return order, nil
}

// GetOrder доступен администратору, владельцу и назначенному курьеру
func (u *OrderUseCase) GetOrder(ctx context.Context, id, userID uint, role string) (*entity.Order, error) {
	order, err := u.orders.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	switch {
	case role == auth.RoleAdmin:
	case order.UserID != nil && *order.UserID == userID:
	case role == auth.RoleCourier && order.OwnedByCourier(userID):
	default:
		return nil, errors.NewForbiddenError("нет доступа к заказу")
	}
	return order, nil
}

// GetActiveOrder последний незавершенный заказ покупателя или nil
func (u *OrderUseCase) GetActiveOrder(ctx context.Context, userID uint) (*entity.Order, error) {
	order, err := u.orders.GetActiveByUser(ctx, userID)
	if err != nil {
		if errors.Is(err, repo.ErrOrderNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return order, nil
}

func (u *OrderUseCase) ListAdminOrders(ctx context.Context, limit, offset int) (*entity.ListOrdersResponse, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}
	if offset < 0 {
		offset = 0
	}

	orders, total, err := u.orders.List(ctx, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("ошибка при получении списка заказов: %w", err)
	}
	if orders == nil {
		orders = []entity.Order{}
	}

	return &entity.ListOrdersResponse{
		Orders: orders,
		Total:  total,
		Limit:  limit,
		Offset: offset,
	}, nil
}

// AdminUpdateOrder ручное изменение статуса и оценок времени
func (u *OrderUseCase) AdminUpdateOrder(ctx context.Context, id uint, req entity.AdminUpdateOrderRequest) (*entity.Order, error) {
	order, err := u.orders.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	t, err := AdminUpdate(order, req, u.now())
	if err != nil {
		return nil, err
	}

	updated, err := applyTransition(ctx, u.orders, order, t)
	if err != nil {
		return nil, err
	}

	u.logger.Info("заказ изменен администратором",
		zap.Uint("order_id", id),
		zap.String("from", string(t.From)),
		zap.String("to", string(updated.Status)))

	u.broadcaster.Publish(realtime.DefaultChannel, entity.EventOrderStatusUpdate, entity.NewOrderStatusUpdate(updated))
	return updated, nil
}

// AssignCourier назначает курьера без проверки статуса; nil снимает назначение
func (u *OrderUseCase) AssignCourier(ctx context.Context, id uint, courierID *uint) (*entity.Order, error) {
	if _, err := u.orders.GetByID(ctx, id); err != nil {
		return nil, err
	}
	if courierID != nil {
		if _, err := u.couriers.GetByID(ctx, *courierID); err != nil {
			return nil, err
		}
	}

	if err := u.orders.AssignCourier(ctx, id, courierID); err != nil {
		return nil, err
	}

	updated, err := u.orders.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	u.logger.Info("курьер назначен вручную", zap.Uint("order_id", id), zap.Uintp("courier_id", courierID))

	u.broadcaster.Publish(realtime.DefaultChannel, entity.EventOrderStatusUpdate, entity.CourierAssignment{
		OrderStatusUpdate: entity.NewOrderStatusUpdate(updated),
		DeliveryLat:       updated.DeliveryLat,
		DeliveryLng:       updated.DeliveryLng,
		DeliveryAddress:   updated.DeliveryAddress,
		TotalPrice:        updated.TotalPrice,
		DeliveryPrice:     updated.DeliveryPrice,
		OrderDetails:      updated.Items(),
	})
	return updated, nil
}

// ConfirmReceipt покупатель подтверждает получение; повтор возвращает заказ без изменений
func (u *OrderUseCase) ConfirmReceipt(ctx context.Context, id, userID uint) (*entity.Order, error) {
	order, err := u.orders.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	t, err := CustomerConfirm(order, userID)
	if err != nil {
		return nil, err
	}
	if t.NoOp() {
		return order, nil
	}

	updated, err := applyTransition(ctx, u.orders, order, t)
	if err != nil {
		return nil, err
	}

	u.broadcaster.Publish(realtime.DefaultChannel, entity.EventOrderStatusUpdate, entity.NewOrderStatusUpdate(updated))
	return updated, nil
}

func (u *OrderUseCase) EstimateDeliveryCost(totalPrice, lat, lon float64) entity.DeliveryCostResponse {
	return u.cost.Estimate(totalPrice, entity.Point{Lat: lat, Lng: lon})
}
