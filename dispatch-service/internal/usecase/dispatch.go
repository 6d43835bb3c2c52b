package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/arturz777/dlyq/dispatch-service/internal/entity"
	"github.com/arturz777/dlyq/dispatch-service/internal/metrics"
	"github.com/arturz777/dlyq/dispatch-service/internal/repo"
	"github.com/arturz777/dlyq/pkg/errors"
)

// Actor роль, инициирующая переход
type Actor string

const (
	ActorWarehouse Actor = "warehouse"
	ActorCourier   Actor = "courier"
	ActorAdmin     Actor = "admin"
	ActorCustomer  Actor = "customer"
)

// Transition изменение заказа, вычисленное машиной состояний.
// Пустой Updates означает, что сохранять нечего.
// Owner задается для шагов курьера: заказ должен оставаться за ним в момент записи.
type Transition struct {
	Actor      Actor
	From       entity.OrderStatus
	To         entity.OrderStatus
	Updates    map[string]interface{}
	NeedsRoute bool
	Owner      *uint
}

func (t Transition) NoOp() bool {
	return len(t.Updates) == 0
}

func noOp(actor Actor, order *entity.Order) Transition {
	return Transition{Actor: actor, From: order.Status, To: order.Status}
}

func newTransition(actor Actor, order *entity.Order, to entity.OrderStatus) Transition {
	return Transition{
		Actor: actor,
		From:  order.Status,
		To:    to,
		Updates: map[string]interface{}{
			"status":           to,
			"warehouse_status": entity.StageFor(to, order.WarehouseStatus),
		},
	}
}

// courierSteps допустимые исходные статусы для каждого шага курьера
var courierSteps = map[entity.OrderStatus][]entity.OrderStatus{
	entity.OrderStatusPickedUp:  {entity.OrderStatusWaitingForCourier, entity.OrderStatusReadyForPickup},
	entity.OrderStatusArrived:   {entity.OrderStatusPickedUp},
	entity.OrderStatusDelivered: {entity.OrderStatusArrived},
}

func conflictf(format string, args ...interface{}) error {
	return errors.NewConflictError(fmt.Sprintf(format, args...))
}

// WarehouseAccept Pending|preorder -> Waiting for courier
func WarehouseAccept(order *entity.Order, warehouseID uint, processingTime string, now time.Time) (Transition, error) {
	processingTime = strings.TrimSpace(processingTime)
	if processingTime == "" {
		return Transition{}, errors.NewValidationError("processingTime", "обязательное поле")
	}

	if order.Status != entity.OrderStatusPending && order.Status != entity.OrderStatusPreorder {
		return Transition{}, conflictf("склад не может принять заказ в статусе %q", order.Status)
	}

	t := newTransition(ActorWarehouse, order, entity.OrderStatusWaitingForCourier)
	t.Updates["warehouse_id"] = warehouseID
	t.Updates["processing_time"] = processingTime
	t.Updates["processing_start_time"] = now
	return t, nil
}

// WarehouseComplete Waiting for courier|Ready for pickup -> Ready for pickup
func WarehouseComplete(order *entity.Order, warehouseID uint) (Transition, error) {
	if !order.Status.Claimable() {
		return Transition{}, conflictf("нельзя завершить сборку заказа в статусе %q", order.Status)
	}
	if order.WarehouseID != nil && *order.WarehouseID != warehouseID {
		return Transition{}, errors.NewForbiddenError("заказ принят другим складом")
	}

	t := newTransition(ActorWarehouse, order, entity.OrderStatusReadyForPickup)
	if order.WarehouseID == nil {
		t.Updates["warehouse_id"] = warehouseID
	}
	return t, nil
}

// CourierAdvance шаг доставки курьером, владеющим заказом.
// Повтор текущего статуса ничего не меняет.
func CourierAdvance(order *entity.Order, courierID uint, target entity.OrderStatus, now time.Time) (Transition, error) {
	froms, ok := courierSteps[target]
	if !ok {
		return Transition{}, errors.NewValidationError("status", fmt.Sprintf("курьер не может установить статус %q", target))
	}
	if !order.OwnedByCourier(courierID) {
		return Transition{}, errors.NewForbiddenError("заказ не назначен этому курьеру")
	}
	if order.Status == target {
		return noOp(ActorCourier, order), nil
	}

	allowed := false
	for _, from := range froms {
		if order.Status == from {
			allowed = true
			break
		}
	}
	if !allowed {
		return Transition{}, conflictf("переход %q -> %q недопустим", order.Status, target)
	}

	t := newTransition(ActorCourier, order, target)
	t.Owner = &courierID
	switch target {
	case entity.OrderStatusPickedUp:
		t.Updates["pickup_start_time"] = now
		t.NeedsRoute = true
	case entity.OrderStatusDelivered:
		t.Updates["estimated_time"] = nil
		t.Updates["route_polyline"] = ""
	}
	return t, nil
}

// AdminUpdate произвольный статус и ручные оценки времени. Из конечных статусов выхода нет,
// доставленный заказ можно только перевести в Completed.
func AdminUpdate(order *entity.Order, req entity.AdminUpdateOrderRequest, now time.Time) (Transition, error) {
	if req.Status == nil && req.ProcessingTime == nil && req.EstimatedTime == nil {
		return Transition{}, errors.NewBadRequestError("нет изменений")
	}

	t := noOp(ActorAdmin, order)
	t.Updates = map[string]interface{}{}

	if req.Status != nil {
		target := *req.Status
		if !target.Valid() {
			return Transition{}, errors.NewValidationError("status", fmt.Sprintf("неизвестный статус %q", target))
		}
		if order.Status.Terminal() && target != order.Status {
			return Transition{}, conflictf("заказ уже в конечном статусе %q", order.Status)
		}
		// доставленный заказ можно только закрыть
		if order.Status == entity.OrderStatusDelivered && target != entity.OrderStatusDelivered && target != entity.OrderStatusCompleted {
			return Transition{}, conflictf("доставленный заказ нельзя вернуть в статус %q", target)
		}
		t.To = target
		t.Updates["status"] = target
		t.Updates["warehouse_status"] = entity.StageFor(target, order.WarehouseStatus)
	}

	if req.ProcessingTime != nil {
		t.Updates["processing_time"] = strings.TrimSpace(*req.ProcessingTime)
		if order.ProcessingStartTime == nil {
			t.Updates["processing_start_time"] = now
		}
	}

	if req.EstimatedTime != nil {
		if *req.EstimatedTime < 0 {
			return Transition{}, errors.NewValidationError("estimatedTime", "должно быть неотрицательным")
		}
		t.Updates["estimated_time"] = *req.EstimatedTime
	}

	return t, nil
}

// CustomerConfirm Delivered|Completed -> Completed, только для владельца заказа
func CustomerConfirm(order *entity.Order, userID uint) (Transition, error) {
	if order.UserID == nil || *order.UserID != userID {
		return Transition{}, errors.NewForbiddenError("заказ принадлежит другому пользователю")
	}

	switch order.Status {
	case entity.OrderStatusCompleted:
		return noOp(ActorCustomer, order), nil
	case entity.OrderStatusDelivered:
		return newTransition(ActorCustomer, order, entity.OrderStatusCompleted), nil
	default:
		return Transition{}, conflictf("получение можно подтвердить только после доставки, статус %q", order.Status)
	}
}

// applyTransition сохраняет переход и возвращает актуальный заказ
func applyTransition(ctx context.Context, orders repo.OrderRepository, order *entity.Order, t Transition) (*entity.Order, error) {
	if t.NoOp() {
		return order, nil
	}

	if err := orders.ApplyTransition(ctx, order.ID, repo.TransitionGuard{Status: t.From, CourierID: t.Owner}, t.Updates); err != nil {
		return nil, err
	}
	metrics.OrderTransitionsTotal.WithLabelValues(string(t.Actor), string(t.To)).Inc()

	return orders.GetByID(ctx, order.ID)
}
