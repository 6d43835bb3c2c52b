package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/arturz777/dlyq/dispatch-service/internal/entity"
	"github.com/arturz777/dlyq/pkg/auth"
	"github.com/arturz777/dlyq/pkg/errors"
)

type MockOrderService struct {
	mock.Mock
}

func (m *MockOrderService) CreateOrder(ctx context.Context, userID uint, req entity.CreateOrderRequest) (*entity.Order, error) {
	args := m.Called(ctx, userID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Order), args.Error(1)
}

func (m *MockOrderService) GetOrder(ctx context.Context, id, userID uint, role string) (*entity.Order, error) {
	args := m.Called(ctx, id, userID, role)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Order), args.Error(1)
}

func (m *MockOrderService) GetActiveOrder(ctx context.Context, userID uint) (*entity.Order, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Order), args.Error(1)
}

func (m *MockOrderService) ListAdminOrders(ctx context.Context, limit, offset int) (*entity.ListOrdersResponse, error) {
	args := m.Called(ctx, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.ListOrdersResponse), args.Error(1)
}

func (m *MockOrderService) AdminUpdateOrder(ctx context.Context, id uint, req entity.AdminUpdateOrderRequest) (*entity.Order, error) {
	args := m.Called(ctx, id, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Order), args.Error(1)
}

func (m *MockOrderService) AssignCourier(ctx context.Context, id uint, courierID *uint) (*entity.Order, error) {
	args := m.Called(ctx, id, courierID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Order), args.Error(1)
}

func (m *MockOrderService) ConfirmReceipt(ctx context.Context, id, userID uint) (*entity.Order, error) {
	args := m.Called(ctx, id, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Order), args.Error(1)
}

func (m *MockOrderService) EstimateDeliveryCost(totalPrice, lat, lon float64) entity.DeliveryCostResponse {
	args := m.Called(totalPrice, lat, lon)
	return args.Get(0).(entity.DeliveryCostResponse)
}

type MockCourierService struct {
	mock.Mock
}

func (m *MockCourierService) Ensure(ctx context.Context, courierID uint) error {
	args := m.Called(ctx, courierID)
	return args.Error(0)
}

func (m *MockCourierService) GetCourier(ctx context.Context, courierID uint) (*entity.Courier, error) {
	args := m.Called(ctx, courierID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Courier), args.Error(1)
}

func (m *MockCourierService) ListCouriers(ctx context.Context) ([]entity.Courier, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.Courier), args.Error(1)
}

func (m *MockCourierService) SetStatus(ctx context.Context, courierID uint, status entity.CourierStatus) error {
	args := m.Called(ctx, courierID, status)
	return args.Error(0)
}

func (m *MockCourierService) ListAvailableOrders(ctx context.Context, courierID uint) ([]entity.Order, error) {
	args := m.Called(ctx, courierID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.Order), args.Error(1)
}

func (m *MockCourierService) GetCurrentOrder(ctx context.Context, courierID uint) (*entity.Order, error) {
	args := m.Called(ctx, courierID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Order), args.Error(1)
}

func (m *MockCourierService) AcceptOrder(ctx context.Context, orderID, courierID uint) (*entity.OrderClaimResponse, error) {
	args := m.Called(ctx, orderID, courierID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.OrderClaimResponse), args.Error(1)
}

func (m *MockCourierService) UpdateOrderStatus(ctx context.Context, orderID, courierID uint, status entity.OrderStatus) (*entity.Order, error) {
	args := m.Called(ctx, orderID, courierID, status)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Order), args.Error(1)
}

func (m *MockCourierService) CompleteOrder(ctx context.Context, orderID, courierID uint) (*entity.Order, error) {
	args := m.Called(ctx, orderID, courierID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Order), args.Error(1)
}

func (m *MockCourierService) UpdateLocation(ctx context.Context, courierID uint, lat, lng *float64) error {
	args := m.Called(ctx, courierID, lat, lng)
	return args.Error(0)
}

type MockWarehouseService struct {
	mock.Mock
}

func (m *MockWarehouseService) Ensure(ctx context.Context, warehouseID uint) error {
	args := m.Called(ctx, warehouseID)
	return args.Error(0)
}

func (m *MockWarehouseService) ListOrders(ctx context.Context, warehouseID uint) ([]entity.Order, error) {
	args := m.Called(ctx, warehouseID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.Order), args.Error(1)
}

func (m *MockWarehouseService) AcceptOrder(ctx context.Context, warehouseID, orderID uint, processingTime string) (*entity.Order, error) {
	args := m.Called(ctx, warehouseID, orderID, processingTime)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Order), args.Error(1)
}

func (m *MockWarehouseService) CompleteProcessing(ctx context.Context, warehouseID, orderID uint) (*entity.Order, error) {
	args := m.Called(ctx, warehouseID, orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Order), args.Error(1)
}

type MockChatService struct {
	mock.Mock
}

func (m *MockChatService) CreateChat(ctx context.Context, creatorID uint, creatorRole string, req entity.CreateChatRequest) (*entity.Chat, error) {
	args := m.Called(ctx, creatorID, creatorRole, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Chat), args.Error(1)
}

func (m *MockChatService) ListChats(ctx context.Context, userID uint) ([]entity.Chat, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.Chat), args.Error(1)
}

func (m *MockChatService) ListMessages(ctx context.Context, chatID, userID uint, role string) ([]entity.ChatMessage, error) {
	args := m.Called(ctx, chatID, userID, role)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.ChatMessage), args.Error(1)
}

func (m *MockChatService) SendMessage(ctx context.Context, chatID, senderID uint, role, text string) (*entity.ChatMessage, error) {
	args := m.Called(ctx, chatID, senderID, role, text)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.ChatMessage), args.Error(1)
}

func (m *MockChatService) MarkRead(ctx context.Context, chatID, readerID uint, role string) (int64, error) {
	args := m.Called(ctx, chatID, readerID, role)
	return args.Get(0).(int64), args.Error(1)
}

type MockRetentionService struct {
	mock.Mock
}

func (m *MockRetentionService) Sweep(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

// testServer роутер с настоящей JWT проверкой
type testServer struct {
	router *gin.Engine
	jwt    *auth.JWTManager
	auth   *auth.AuthMiddleware
}

func newTestServer() *testServer {
	gin.SetMode(gin.TestMode)

	jwt := auth.NewJWTManager(auth.NewConfig("handler-test-key"))
	router := gin.New()
	router.Use(errors.RecoveryMiddleware())
	router.NoRoute(errors.NotFoundHandler())

	return &testServer{
		router: router,
		jwt:    jwt,
		auth:   auth.NewAuthMiddleware(jwt),
	}
}

func (s *testServer) token(t *testing.T, userID uint, role string) string {
	t.Helper()
	token, err := s.jwt.GenerateToken(userID, "tester", role)
	require.NoError(t, err)
	return token
}

func (s *testServer) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		data, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Error string `json:"error"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body.Error
}
