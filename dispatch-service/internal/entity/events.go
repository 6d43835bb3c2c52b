package entity

import "time"

// Имена realtime событий
const (
	EventNewOrder              = "newOrder"
	EventWarehouseOrder        = "warehouseOrder"
	EventOrderReady            = "orderReady"
	EventOrderStatusUpdate     = "orderStatusUpdate"
	EventCourierStatusUpdate   = "courierStatusUpdate"
	EventCourierLocationUpdate = "courierLocationUpdate"
	EventReceiveMessage        = "receiveMessage"
	EventNewChatMessage        = "newChatMessage"
	EventReadMessages          = "readMessages"
)

// OrderStatusUpdate изменение заказа; клиенты сами фильтруют по id
type OrderStatusUpdate struct {
	ID                  uint           `json:"id"`
	Status              OrderStatus    `json:"status"`
	WarehouseStatus     WarehouseStage `json:"warehouseStatus"`
	CourierID           *uint          `json:"courierId"`
	Accepted            bool           `json:"accepted,omitempty"`
	ProcessingTime      string         `json:"processingTime,omitempty"`
	ProcessingStartTime *time.Time     `json:"processingStartTime,omitempty"`
	PickupStartTime     *time.Time     `json:"pickupStartTime,omitempty"`
	EstimatedTime       *int           `json:"estimatedTime"`
	RoutePolyline       string         `json:"routePolyline,omitempty"`
}

// CourierAssignment расширенное событие при ручном назначении курьера
type CourierAssignment struct {
	OrderStatusUpdate
	DeliveryLat     float64     `json:"deliveryLat"`
	DeliveryLng     float64     `json:"deliveryLng"`
	DeliveryAddress string      `json:"deliveryAddress"`
	TotalPrice      float64     `json:"totalPrice"`
	DeliveryPrice   float64     `json:"deliveryPrice"`
	OrderDetails    []OrderItem `json:"orderDetails"`
}

// NewOrderStatusUpdate собирает событие из текущего состояния заказа
func NewOrderStatusUpdate(o *Order) OrderStatusUpdate {
	return OrderStatusUpdate{
		ID:                  o.ID,
		Status:              o.Status,
		WarehouseStatus:     o.WarehouseStatus,
		CourierID:           o.CourierID,
		ProcessingTime:      o.ProcessingTime,
		ProcessingStartTime: o.ProcessingStartTime,
		PickupStartTime:     o.PickupStartTime,
		EstimatedTime:       o.EstimatedTime,
		RoutePolyline:       o.RoutePolyline,
	}
}

type CourierStatusUpdate struct {
	CourierID uint          `json:"courierId"`
	Status    CourierStatus `json:"status"`
}

type CourierLocationUpdate struct {
	CourierID uint    `json:"courierId"`
	Lat       float64 `json:"lat"`
	Lng       float64 `json:"lng"`
}

type NewChatMessage struct {
	ChatID  uint        `json:"chatId"`
	Message ChatMessage `json:"message"`
}

type ReadMessages struct {
	ChatID   uint  `json:"chatId"`
	ReaderID uint  `json:"readerId"`
	Count    int64 `json:"count"`
}
