package http

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/arturz777/dlyq/dispatch-service/internal/entity"
	"github.com/arturz777/dlyq/dispatch-service/internal/repo"
	"github.com/arturz777/dlyq/pkg/auth"
	"github.com/arturz777/dlyq/pkg/errors"
	"github.com/arturz777/dlyq/pkg/middleware"
)

func uintPtr(v uint) *uint { return &v }

func floatPtr(v float64) *float64 { return &v }

func TestCourierHandler_AcceptOrder(t *testing.T) {
	s := newTestServer()
	couriers := new(MockCourierService)
	NewCourierHandler(couriers, s.auth).RegisterRoutes(s.router)

	couriers.On("Ensure", mock.Anything, uint(7)).Return(nil)
	couriers.On("AcceptOrder", mock.Anything, uint(42), uint(7)).Return(&entity.OrderClaimResponse{
		ID:        42,
		Status:    entity.OrderStatusWaitingForCourier,
		CourierID: uintPtr(7),
	}, nil)

	w := s.do(t, http.MethodPost, "/api/couriers/orders/42/accept", s.token(t, 7, auth.RoleCourier), nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp entity.OrderClaimResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, uint(42), resp.ID)
	assert.Equal(t, uint(7), *resp.CourierID)
	couriers.AssertExpectations(t)
}

func TestCourierHandler_AcceptOrder_Conflict(t *testing.T) {
	s := newTestServer()
	couriers := new(MockCourierService)
	NewCourierHandler(couriers, s.auth).RegisterRoutes(s.router)

	couriers.On("Ensure", mock.Anything, uint(7)).Return(nil)
	couriers.On("AcceptOrder", mock.Anything, uint(42), uint(7)).Return(nil, errors.NewConflictError("заказ уже принят"))

	w := s.do(t, http.MethodPost, "/api/couriers/orders/42/accept", s.token(t, 7, auth.RoleCourier), nil)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, decodeError(t, w), "заказ уже принят")
}

func TestCourierHandler_Access(t *testing.T) {
	s := newTestServer()
	couriers := new(MockCourierService)
	NewCourierHandler(couriers, s.auth).RegisterRoutes(s.router)

	w := s.do(t, http.MethodGet, "/api/couriers/orders", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = s.do(t, http.MethodGet, "/api/couriers/orders", s.token(t, 1, auth.RoleUser), nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = s.do(t, http.MethodGet, "/api/couriers", s.token(t, 7, auth.RoleCourier), nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	couriers.AssertNotCalled(t, "Ensure", mock.Anything, mock.Anything)
}

func TestCourierHandler_EnsureFailure(t *testing.T) {
	s := newTestServer()
	couriers := new(MockCourierService)
	NewCourierHandler(couriers, s.auth).RegisterRoutes(s.router)

	couriers.On("Ensure", mock.Anything, uint(7)).Return(assert.AnError)

	w := s.do(t, http.MethodGet, "/api/couriers/me", s.token(t, 7, auth.RoleCourier), nil)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	couriers.AssertNotCalled(t, "GetCourier", mock.Anything, mock.Anything)
}

func TestCourierHandler_UpdateLocation(t *testing.T) {
	s := newTestServer()
	couriers := new(MockCourierService)
	NewCourierHandler(couriers, s.auth).RegisterRoutes(s.router)

	couriers.On("Ensure", mock.Anything, uint(7)).Return(nil)
	couriers.On("UpdateLocation", mock.Anything, uint(7), floatPtr(59.437), floatPtr(24.7536)).Return(nil)

	w := s.do(t, http.MethodPost, "/api/couriers/update-location", s.token(t, 7, auth.RoleCourier),
		map[string]float64{"lat": 59.437, "lng": 24.7536})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"success":true}`, w.Body.String())
	couriers.AssertExpectations(t)
}

func TestCourierHandler_SetStatus(t *testing.T) {
	s := newTestServer()
	couriers := new(MockCourierService)
	NewCourierHandler(couriers, s.auth).RegisterRoutes(s.router)

	couriers.On("Ensure", mock.Anything, uint(7)).Return(nil)
	couriers.On("SetStatus", mock.Anything, uint(7), entity.CourierStatusOnline).Return(nil)

	token := s.token(t, 7, auth.RoleCourier)
	w := s.do(t, http.MethodPost, "/api/couriers/status", token, map[string]string{"status": "online"})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"courierId":7,"status":"online"}`, w.Body.String())

	w = s.do(t, http.MethodPost, "/api/couriers/status", token, map[string]string{"status": "busy"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCourierHandler_UpdateOrderStatus(t *testing.T) {
	s := newTestServer()
	couriers := new(MockCourierService)
	NewCourierHandler(couriers, s.auth).RegisterRoutes(s.router)

	couriers.On("Ensure", mock.Anything, uint(7)).Return(nil)
	couriers.On("UpdateOrderStatus", mock.Anything, uint(42), uint(7), entity.OrderStatusArrived).
		Return(nil, errors.NewForbiddenError("заказ не назначен этому курьеру"))

	w := s.do(t, http.MethodPost, "/api/couriers/orders/42/status", s.token(t, 7, auth.RoleCourier),
		map[string]string{"status": "Arrived at destination"})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = s.do(t, http.MethodPost, "/api/couriers/orders/abc/status", s.token(t, 7, auth.RoleCourier),
		map[string]string{"status": "Arrived at destination"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestWarehouseHandler_AcceptOrder(t *testing.T) {
	s := newTestServer()
	warehouses := new(MockWarehouseService)
	NewWarehouseHandler(warehouses, s.auth).RegisterRoutes(s.router)

	warehouses.On("Ensure", mock.Anything, uint(3)).Return(nil)
	warehouses.On("AcceptOrder", mock.Anything, uint(3), uint(42), "10 минут").Return(&entity.Order{
		ID:              42,
		Status:          entity.OrderStatusWaitingForCourier,
		WarehouseStatus: entity.WarehouseStageProcessing,
		ProcessingTime:  "10 минут",
	}, nil)

	token := s.token(t, 3, auth.RoleAdmin)
	w := s.do(t, http.MethodPost, "/api/warehouse/orders/42/accept", token, map[string]string{"processingTime": "10 минут"})
	require.Equal(t, http.StatusOK, w.Code)

	var order entity.Order
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &order))
	assert.Equal(t, entity.OrderStatusWaitingForCourier, order.Status)
	assert.Equal(t, entity.WarehouseStageProcessing, order.WarehouseStatus)
	assert.Equal(t, "10 минут", order.ProcessingTime)

	w = s.do(t, http.MethodPost, "/api/warehouse/orders/42/accept", token, map[string]string{})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(t, http.MethodGet, "/api/warehouse/orders", s.token(t, 7, auth.RoleCourier), nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestOrderHandler_CreateOrder(t *testing.T) {
	s := newTestServer()
	orders := new(MockOrderService)
	NewOrderHandler(orders, s.auth).RegisterRoutes(s.router)

	orders.On("CreateOrder", mock.Anything, uint(1), mock.MatchedBy(func(req entity.CreateOrderRequest) bool {
		return len(req.Items) == 1 && req.DeliveryAddress == "Viru 1" && *req.DeliveryLat == 59.43
	})).Return(&entity.Order{ID: 10, Status: entity.OrderStatusPending}, nil)

	body := `{"items":[{"id":1,"name":"Leib","price":2.5,"quantity":2}],"deliveryLat":59.43,"deliveryLng":24.75,"deliveryAddress":"Viru 1"}`
	w := s.do(t, http.MethodPost, "/api/order", s.token(t, 1, auth.RoleUser), body)
	assert.Equal(t, http.StatusCreated, w.Code)

	w = s.do(t, http.MethodPost, "/api/order", s.token(t, 1, auth.RoleUser), `{"items":[],"deliveryAddress":"Viru 1"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	orders.AssertNumberOfCalls(t, "CreateOrder", 1)
}

func TestOrderHandler_DeliveryCost(t *testing.T) {
	s := newTestServer()
	orders := new(MockOrderService)
	NewOrderHandler(orders, s.auth).RegisterRoutes(s.router)

	orders.On("EstimateDeliveryCost", 45.0, 59.4, 24.7).Return(entity.DeliveryCostResponse{DeliveryPrice: 1.5, DistanceKm: 3.1})

	w := s.do(t, http.MethodGet, "/api/order/delivery-cost?totalPrice=45&lat=59.4&lon=24.7", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"deliveryPrice":1.5,"distanceKm":3.1}`, w.Body.String())

	w = s.do(t, http.MethodGet, "/api/order/delivery-cost?totalPrice=45", "", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestOrderHandler_ActiveAndConfirm(t *testing.T) {
	s := newTestServer()
	orders := new(MockOrderService)
	NewOrderHandler(orders, s.auth).RegisterRoutes(s.router)

	orders.On("GetActiveOrder", mock.Anything, uint(1)).Return(nil, nil)
	orders.On("ConfirmReceipt", mock.Anything, uint(42), uint(1)).Return(&entity.Order{ID: 42, Status: entity.OrderStatusCompleted}, nil)
	orders.On("ConfirmReceipt", mock.Anything, uint(43), uint(1)).Return(nil, repo.ErrOrderNotFound)

	token := s.token(t, 1, auth.RoleUser)
	w := s.do(t, http.MethodGet, "/api/order/active", token, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "null", w.Body.String())

	w = s.do(t, http.MethodPost, "/api/order/42/confirm", token, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = s.do(t, http.MethodPost, "/api/order/43/confirm", token, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestOrderHandler_AdminRoutes(t *testing.T) {
	s := newTestServer()
	orders := new(MockOrderService)
	NewOrderHandler(orders, s.auth).RegisterRoutes(s.router)

	orders.On("ListAdminOrders", mock.Anything, 20, 40).Return(&entity.ListOrdersResponse{Orders: []entity.Order{}, Limit: 20, Offset: 40}, nil)
	orders.On("AssignCourier", mock.Anything, uint(42), (*uint)(nil)).Return(&entity.Order{ID: 42}, nil)

	admin := s.token(t, 99, auth.RoleAdmin)
	w := s.do(t, http.MethodGet, "/api/order/admin?limit=20&offset=40", admin, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = s.do(t, http.MethodPut, "/api/order/42/assign-courier", admin, `{"courierId":null}`)
	assert.Equal(t, http.StatusOK, w.Code)

	w = s.do(t, http.MethodGet, "/api/order/admin", s.token(t, 1, auth.RoleUser), nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = s.do(t, http.MethodPut, "/api/order/42/status", s.token(t, 7, auth.RoleCourier), `{"status":"Cancelled"}`)
	assert.Equal(t, http.StatusForbidden, w.Code)
	orders.AssertNotCalled(t, "AdminUpdateOrder", mock.Anything, mock.Anything, mock.Anything)
}

func TestChatHandler_SendMessage(t *testing.T) {
	s := newTestServer()
	chats := new(MockChatService)
	NewChatHandler(chats, s.auth).RegisterRoutes(s.router)

	chats.On("SendMessage", mock.Anything, uint(3), uint(1), auth.RoleUser, "привет").
		Return(&entity.ChatMessage{ID: 1, ChatID: 3, SenderID: 1, Text: "привет"}, nil)
	chats.On("MarkRead", mock.Anything, uint(3), uint(1), auth.RoleUser).Return(int64(2), nil)

	token := s.token(t, 1, auth.RoleUser)
	w := s.do(t, http.MethodPost, "/api/chat/3/messages", token, map[string]string{"text": "привет"})
	assert.Equal(t, http.StatusCreated, w.Code)

	w = s.do(t, http.MethodPost, "/api/chat/3/read", token, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"chatId":3,"count":2}`, w.Body.String())
}

func TestSystemHandler(t *testing.T) {
	s := newTestServer()
	retention := new(MockRetentionService)
	internal := middleware.NewInternalAuthMiddleware(middleware.NewInternalAPIConfig("secret"))
	NewSystemHandler(retention, internal, zap.NewNop()).RegisterRoutes(s.router)

	retention.On("Sweep", mock.Anything).Return(int64(5), nil)

	w := s.do(t, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = s.do(t, http.MethodGet, "/metrics", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = s.do(t, http.MethodPost, "/internal/retention/run", "", nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	req := httptest.NewRequest(http.MethodPost, "/internal/retention/run", nil)
	req.Header.Set("X-Internal-API-Key", "secret")
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"deleted":5}`, rec.Body.String())
}
