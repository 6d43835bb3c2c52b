package usecase

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/arturz777/dlyq/dispatch-service/internal/entity"
	"github.com/arturz777/dlyq/dispatch-service/internal/repo"
	"github.com/arturz777/dlyq/pkg/realtime"
)

// WarehouseUseCase сборка заказов на складе
type WarehouseUseCase struct {
	orders      repo.OrderRepository
	warehouses  repo.WarehouseRepository
	broadcaster realtime.Broadcaster
	logger      *zap.Logger
	now         func() time.Time
}

func NewWarehouseUseCase(
	orders repo.OrderRepository,
	warehouses repo.WarehouseRepository,
	broadcaster realtime.Broadcaster,
	logger *zap.Logger,
) *WarehouseUseCase {
	return &WarehouseUseCase{
		orders:      orders,
		warehouses:  warehouses,
		broadcaster: broadcaster,
		logger:      logger.Named("WarehouseUseCase"),
		now:         time.Now,
	}
}

func (u *WarehouseUseCase) Ensure(ctx context.Context, warehouseID uint) error {
	return u.warehouses.Ensure(ctx, warehouseID)
}

// ListOrders новые заказы и заказы склада, ожидающие курьера
func (u *WarehouseUseCase) ListOrders(ctx context.Context, warehouseID uint) ([]entity.Order, error) {
	orders, err := u.orders.ListForWarehouse(ctx, warehouseID)
	if err != nil {
		return nil, fmt.Errorf("ошибка при получении заказов склада: %w", err)
	}
	if orders == nil {
		orders = []entity.Order{}
	}
	return orders, nil
}

// AcceptOrder склад берет заказ в сборку с оценкой времени
func (u *WarehouseUseCase) AcceptOrder(ctx context.Context, warehouseID, orderID uint, processingTime string) (*entity.Order, error) {
	order, err := u.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	t, err := WarehouseAccept(order, warehouseID, processingTime, u.now())
	if err != nil {
		return nil, err
	}

	updated, err := applyTransition(ctx, u.orders, order, t)
	if err != nil {
		return nil, err
	}

	u.logger.Info("склад принял заказ",
		zap.Uint("order_id", orderID),
		zap.Uint("warehouse_id", warehouseID),
		zap.String("processing_time", updated.ProcessingTime))

	u.broadcaster.Publish(realtime.DefaultChannel, entity.EventWarehouseOrder, updated)
	u.broadcaster.Publish(realtime.DefaultChannel, entity.EventOrderStatusUpdate, entity.NewOrderStatusUpdate(updated))
	return updated, nil
}

// CompleteProcessing заказ собран и готов к выдаче курьеру
func (u *WarehouseUseCase) CompleteProcessing(ctx context.Context, warehouseID, orderID uint) (*entity.Order, error) {
	order, err := u.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	t, err := WarehouseComplete(order, warehouseID)
	if err != nil {
		return nil, err
	}

	updated, err := applyTransition(ctx, u.orders, order, t)
	if err != nil {
		return nil, err
	}

	u.logger.Info("заказ собран", zap.Uint("order_id", orderID), zap.Uint("warehouse_id", warehouseID))

	u.broadcaster.Publish(realtime.DefaultChannel, entity.EventOrderReady, updated)
	u.broadcaster.Publish(realtime.DefaultChannel, entity.EventOrderStatusUpdate, entity.NewOrderStatusUpdate(updated))
	return updated, nil
}
