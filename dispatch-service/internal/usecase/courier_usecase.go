package usecase

import (
	"context"
	"fmt"
	"math"
	"time"

	"go.uber.org/zap"

	"github.com/arturz777/dlyq/dispatch-service/internal/entity"
	"github.com/arturz777/dlyq/dispatch-service/internal/metrics"
	"github.com/arturz777/dlyq/dispatch-service/internal/repo"
	"github.com/arturz777/dlyq/pkg/errors"
	"github.com/arturz777/dlyq/pkg/realtime"
)

// CourierUseCase действия курьера: статус, принятие заказа, доставка, геопозиция
type CourierUseCase struct {
	orders      repo.OrderRepository
	couriers    repo.CourierRepository
	router      RouteEstimator
	broadcaster realtime.Broadcaster
	warehouse   entity.Point
	logger      *zap.Logger
	now         func() time.Time
}

func NewCourierUseCase(
	orders repo.OrderRepository,
	couriers repo.CourierRepository,
	router RouteEstimator,
	broadcaster realtime.Broadcaster,
	warehouse entity.Point,
	logger *zap.Logger,
) *CourierUseCase {
	return &CourierUseCase{
		orders:      orders,
		couriers:    couriers,
		router:      router,
		broadcaster: broadcaster,
		warehouse:   warehouse,
		logger:      logger.Named("CourierUseCase"),
		now:         time.Now,
	}
}

// Ensure создает запись курьера при первом обращении
func (u *CourierUseCase) Ensure(ctx context.Context, courierID uint) error {
	return u.couriers.Ensure(ctx, courierID)
}

func (u *CourierUseCase) GetCourier(ctx context.Context, courierID uint) (*entity.Courier, error) {
	return u.couriers.GetByID(ctx, courierID)
}

func (u *CourierUseCase) ListCouriers(ctx context.Context) ([]entity.Courier, error) {
	couriers, err := u.couriers.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("ошибка при получении списка курьеров: %w", err)
	}
	if couriers == nil {
		couriers = []entity.Courier{}
	}
	return couriers, nil
}

func (u *CourierUseCase) SetStatus(ctx context.Context, courierID uint, status entity.CourierStatus) error {
	if !status.Valid() {
		return errors.NewValidationError("status", fmt.Sprintf("неизвестный статус курьера %q", status))
	}

	if err := u.couriers.UpdateStatus(ctx, courierID, status); err != nil {
		return err
	}

	u.logger.Info("статус курьера изменен", zap.Uint("courier_id", courierID), zap.String("status", string(status)))
	u.broadcaster.Publish(realtime.DefaultChannel, entity.EventCourierStatusUpdate, entity.CourierStatusUpdate{
		CourierID: courierID,
		Status:    status,
	})
	return nil
}

// ListAvailableOrders заказы, которые курьер может взять. Офлайн курьер видит пустой список.
func (u *CourierUseCase) ListAvailableOrders(ctx context.Context, courierID uint) ([]entity.Order, error) {
	courier, err := u.couriers.GetByID(ctx, courierID)
	if err != nil {
		return nil, err
	}
	if courier.Status != entity.CourierStatusOnline {
		return []entity.Order{}, nil
	}

	orders, err := u.orders.ListClaimable(ctx, courierID)
	if err != nil {
		return nil, fmt.Errorf("ошибка при получении доступных заказов: %w", err)
	}
	if orders == nil {
		orders = []entity.Order{}
	}
	return orders, nil
}

// GetCurrentOrder заказ в работе у курьера или nil
func (u *CourierUseCase) GetCurrentOrder(ctx context.Context, courierID uint) (*entity.Order, error) {
	order, err := u.orders.GetActiveByCourier(ctx, courierID)
	if err != nil {
		if errors.Is(err, repo.ErrOrderNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return order, nil
}

// AcceptOrder закрепляет заказ за курьером. При гонке побеждает ровно один курьер.
func (u *CourierUseCase) AcceptOrder(ctx context.Context, orderID, courierID uint) (*entity.OrderClaimResponse, error) {
	courier, err := u.couriers.GetByID(ctx, courierID)
	if err != nil {
		return nil, err
	}
	if courier.Status != entity.CourierStatusOnline {
		return nil, errors.NewConflictError("курьер не на линии")
	}

	won, err := u.orders.Claim(ctx, orderID, courierID, u.now())
	if err != nil {
		return nil, fmt.Errorf("ошибка при принятии заказа: %w", err)
	}

	order, err := u.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	if !won {
		if order.OwnedByCourier(courierID) &&
			(order.Status == entity.OrderStatusPickedUp || order.Status == entity.OrderStatusArrived) {
			metrics.ClaimsTotal.WithLabelValues(metrics.ClaimRepeated).Inc()
			return claimResponse(order), nil
		}
		metrics.ClaimsTotal.WithLabelValues(metrics.ClaimConflict).Inc()
		u.logger.Info("заказ уже принят или недоступен",
			zap.Uint("order_id", orderID),
			zap.Uint("courier_id", courierID),
			zap.String("status", string(order.Status)))
		return nil, errors.NewConflictError("заказ уже принят другим курьером или недоступен")
	}

	metrics.ClaimsTotal.WithLabelValues(metrics.ClaimWon).Inc()
	u.logger.Info("курьер принял заказ", zap.Uint("order_id", orderID), zap.Uint("courier_id", courierID))

	update := entity.NewOrderStatusUpdate(order)
	update.Accepted = true
	u.broadcaster.Publish(realtime.DefaultChannel, entity.EventOrderStatusUpdate, update)

	return claimResponse(order), nil
}

// UpdateOrderStatus шаг доставки; при забирании заказа строится маршрут и ETA
func (u *CourierUseCase) UpdateOrderStatus(ctx context.Context, orderID, courierID uint, status entity.OrderStatus) (*entity.Order, error) {
	order, err := u.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	t, err := CourierAdvance(order, courierID, status, u.now())
	if err != nil {
		return nil, err
	}
	if t.NoOp() {
		return order, nil
	}

	if t.NeedsRoute {
		route := u.router.EstimateRoute(ctx, u.routeStart(ctx, courierID), entity.Point{Lat: order.DeliveryLat, Lng: order.DeliveryLng})
		t.Updates["estimated_time"] = route.DurationSeconds
		t.Updates["route_polyline"] = route.Polyline
	}

	updated, err := applyTransition(ctx, u.orders, order, t)
	if err != nil {
		return nil, err
	}

	u.logger.Info("статус доставки изменен",
		zap.Uint("order_id", orderID),
		zap.Uint("courier_id", courierID),
		zap.String("status", string(updated.Status)))

	u.broadcaster.Publish(realtime.DefaultChannel, entity.EventOrderStatusUpdate, entity.NewOrderStatusUpdate(updated))
	return updated, nil
}

func (u *CourierUseCase) CompleteOrder(ctx context.Context, orderID, courierID uint) (*entity.Order, error) {
	return u.UpdateOrderStatus(ctx, orderID, courierID, entity.OrderStatusDelivered)
}

// UpdateLocation сохраняет координаты курьера и транслирует их подписчикам
func (u *CourierUseCase) UpdateLocation(ctx context.Context, courierID uint, lat, lng *float64) error {
	if lat == nil || lng == nil {
		return errors.NewBadRequestError("нужны обе координаты")
	}
	if !validCoordinate(*lat, 90) || !validCoordinate(*lng, 180) {
		return errors.NewValidationError("location", "координаты вне допустимого диапазона")
	}

	if err := u.couriers.UpdateLocation(ctx, courierID, *lat, *lng, u.now()); err != nil {
		return err
	}

	u.logger.Debug("геопозиция курьера обновлена", zap.Uint("courier_id", courierID))
	u.broadcaster.Publish(realtime.DefaultChannel, entity.EventCourierLocationUpdate, entity.CourierLocationUpdate{
		CourierID: courierID,
		Lat:       *lat,
		Lng:       *lng,
	})
	return nil
}

// routeStart последняя позиция курьера, если неизвестна, то склад
func (u *CourierUseCase) routeStart(ctx context.Context, courierID uint) entity.Point {
	courier, err := u.couriers.GetByID(ctx, courierID)
	if err != nil {
		u.logger.Warn("позиция курьера недоступна, маршрут строится от склада",
			zap.Uint("courier_id", courierID), zap.Error(err))
		return u.warehouse
	}
	if pos, ok := courier.Position(); ok {
		return pos
	}
	return u.warehouse
}

func claimResponse(order *entity.Order) *entity.OrderClaimResponse {
	return &entity.OrderClaimResponse{
		ID:              order.ID,
		Status:          order.Status,
		DeliveryLat:     order.DeliveryLat,
		DeliveryLng:     order.DeliveryLng,
		DeliveryAddress: order.DeliveryAddress,
		CourierID:       order.CourierID,
	}
}

func validCoordinate(v, limit float64) bool {
	return !math.IsNaN(v) && math.Abs(v) <= limit
}
