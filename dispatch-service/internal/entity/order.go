package entity

import (
	"encoding/json"
	"time"

	"gorm.io/datatypes"
)

// OrderStatus статус заказа
type OrderStatus string

const (
	OrderStatusPending           OrderStatus = "Pending"
	OrderStatusPreorder          OrderStatus = "preorder"
	OrderStatusWaitingForCourier OrderStatus = "Waiting for courier"
	OrderStatusReadyForPickup    OrderStatus = "Ready for pickup"
	OrderStatusPickedUp          OrderStatus = "Picked up"
	OrderStatusArrived           OrderStatus = "Arrived at destination"
	OrderStatusDelivered         OrderStatus = "Delivered"
	OrderStatusCompleted         OrderStatus = "Completed"
	OrderStatusCancelled         OrderStatus = "Cancelled"
)

// ClaimableStatuses статусы, в которых курьер может взять заказ
var ClaimableStatuses = []OrderStatus{OrderStatusWaitingForCourier, OrderStatusReadyForPickup}

// CourierActiveStatuses статусы заказа, который курьер уже везет или может забрать
var CourierActiveStatuses = []OrderStatus{
	OrderStatusWaitingForCourier, OrderStatusReadyForPickup, OrderStatusPickedUp, OrderStatusArrived,
}

// Valid проверяет, что статус известен
func (s OrderStatus) Valid() bool {
	switch s {
	case OrderStatusPending, OrderStatusPreorder, OrderStatusWaitingForCourier, OrderStatusReadyForPickup,
		OrderStatusPickedUp, OrderStatusArrived, OrderStatusDelivered, OrderStatusCompleted, OrderStatusCancelled:
		return true
	}
	return false
}

// Terminal статусы, из которых нет переходов
func (s OrderStatus) Terminal() bool {
	return s == OrderStatusCompleted || s == OrderStatusCancelled
}

func (s OrderStatus) Claimable() bool {
	return s == OrderStatusWaitingForCourier || s == OrderStatusReadyForPickup
}

// WarehouseStage прогресс заказа на складе
type WarehouseStage string

const (
	WarehouseStagePending    WarehouseStage = "pending"
	WarehouseStageProcessing WarehouseStage = "processing"
	WarehouseStageReady      WarehouseStage = "ready"
)

// StageFor выводит стадию склада из статуса заказа. Отмена стадию не меняет.
func StageFor(status OrderStatus, current WarehouseStage) WarehouseStage {
	switch status {
	case OrderStatusPending, OrderStatusPreorder:
		return WarehouseStagePending
	case OrderStatusWaitingForCourier:
		return WarehouseStageProcessing
	case OrderStatusCancelled:
		return current
	default:
		return WarehouseStageReady
	}
}

// Order заказ и его состояние доставки
type Order struct {
	ID                  uint           `json:"id" gorm:"primaryKey"`
	UserID              *uint          `json:"userId" gorm:"index"`
	WarehouseID         *uint          `json:"warehouseId" gorm:"index"`
	CourierID           *uint          `json:"courierId" gorm:"index"`
	Status              OrderStatus    `json:"status" gorm:"type:varchar(32);not null;default:'Pending';index"`
	WarehouseStatus     WarehouseStage `json:"warehouseStatus" gorm:"type:varchar(16);not null;default:'pending'"`
	DeliveryLat         float64        `json:"deliveryLat"`
	DeliveryLng         float64        `json:"deliveryLng"`
	DeliveryAddress     string         `json:"deliveryAddress"`
	TotalPrice          float64        `json:"totalPrice" gorm:"not null;default:0"`
	DeliveryPrice       float64        `json:"deliveryPrice" gorm:"not null;default:0"`
	OrderDetails        datatypes.JSON `json:"orderDetails"`
	FormData            datatypes.JSON `json:"formData"`
	ProcessingTime      string         `json:"processingTime"`
	ProcessingStartTime *time.Time     `json:"processingStartTime"`
	PickupStartTime     *time.Time     `json:"pickupStartTime"`
	AcceptedAt          *time.Time     `json:"acceptedAt"`
	EstimatedTime       *int           `json:"estimatedTime"`
	RoutePolyline       string         `json:"routePolyline,omitempty"`
	DesiredDeliveryDate *time.Time     `json:"desiredDeliveryDate"`
	ImageKey            string         `json:"-"`
	CreatedAt           time.Time      `json:"createdAt" gorm:"index"`
	UpdatedAt           time.Time      `json:"updatedAt"`
}

// OwnedByCourier проверяет, что заказ назначен этому курьеру
func (o *Order) OwnedByCourier(courierID uint) bool {
	return o.CourierID != nil && *o.CourierID == courierID
}

// Items разбирает состав заказа. Поврежденные данные дают пустой список.
func (o *Order) Items() []OrderItem {
	if len(o.OrderDetails) == 0 {
		return nil
	}

	var items []OrderItem
	if err := json.Unmarshal(o.OrderDetails, &items); err != nil {
		return nil
	}
	return items
}

// OrderItem позиция заказа
type OrderItem struct {
	ID        uint    `json:"id" binding:"required"`
	Name      string  `json:"name"`
	Price     float64 `json:"price" binding:"min=0"`
	Quantity  int     `json:"quantity" binding:"required,min=1"`
	Available *bool   `json:"available,omitempty"`
}

// InStock позиция без явного флага считается доступной
func (i OrderItem) InStock() bool {
	return i.Available == nil || *i.Available
}

// CreateOrderRequest оформление заказа
type CreateOrderRequest struct {
	Items               []OrderItem     `json:"items" binding:"required,min=1,dive"`
	FormData            json.RawMessage `json:"formData"`
	DeliveryLat         *float64        `json:"deliveryLat" binding:"required"`
	DeliveryLng         *float64        `json:"deliveryLng" binding:"required"`
	DeliveryAddress     string          `json:"deliveryAddress" binding:"required"`
	DesiredDeliveryDate *time.Time      `json:"desiredDeliveryDate"`
	ImageKey            string          `json:"imageKey"`
}

// AdminUpdateOrderRequest изменение заказа администратором
type AdminUpdateOrderRequest struct {
	Status         *OrderStatus `json:"status"`
	ProcessingTime *string      `json:"processingTime"`
	EstimatedTime  *int         `json:"estimatedTime" binding:"omitempty,min=0"`
}

// AssignCourierRequest courierId = null снимает назначение
type AssignCourierRequest struct {
	CourierID *uint `json:"courierId"`
}

// CourierOrderStatusRequest смена статуса курьером
type CourierOrderStatusRequest struct {
	Status OrderStatus `json:"status" binding:"required"`
}

// WarehouseAcceptRequest принятие заказа складом
type WarehouseAcceptRequest struct {
	ProcessingTime string `json:"processingTime" binding:"required"`
}

// OrderClaimResponse публичные поля заказа после принятия курьером
type OrderClaimResponse struct {
	ID              uint        `json:"id"`
	Status          OrderStatus `json:"status"`
	DeliveryLat     float64     `json:"deliveryLat"`
	DeliveryLng     float64     `json:"deliveryLng"`
	DeliveryAddress string      `json:"deliveryAddress"`
	CourierID       *uint       `json:"courierId"`
}

// DeliveryCostQuery параметры расчета доставки
type DeliveryCostQuery struct {
	TotalPrice *float64 `form:"totalPrice" binding:"required"`
	Lat        *float64 `form:"lat" binding:"required"`
	Lon        *float64 `form:"lon" binding:"required"`
}

type DeliveryCostResponse struct {
	DeliveryPrice float64 `json:"deliveryPrice"`
	DistanceKm    float64 `json:"distanceKm"`
}

type ListOrdersResponse struct {
	Orders []Order `json:"orders"`
	Total  int64   `json:"total"`
	Limit  int     `json:"limit"`
	Offset int     `json:"offset"`
}

// Point координаты в градусах
type Point struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Route оценка маршрута. Fallback означает, что сервис маршрутов не ответил.
type Route struct {
	Polyline        string `json:"polyline"`
	DurationSeconds int    `json:"durationSeconds"`
	Fallback        bool   `json:"fallback"`
}
