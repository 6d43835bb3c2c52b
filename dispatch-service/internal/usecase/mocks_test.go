package usecase

import (
	"context"
	"sync"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/arturz777/dlyq/dispatch-service/internal/entity"
	"github.com/arturz777/dlyq/dispatch-service/internal/repo"
)

// MockOrderRepository мок репозитория заказов
type MockOrderRepository struct {
	mock.Mock
}

func (m *MockOrderRepository) Create(ctx context.Context, order *entity.Order) error {
	args := m.Called(ctx, order)
	order.ID = 10
	return args.Error(0)
}

func (m *MockOrderRepository) GetByID(ctx context.Context, id uint) (*entity.Order, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Order), args.Error(1)
}

func (m *MockOrderRepository) List(ctx context.Context, limit, offset int) ([]entity.Order, int64, error) {
	args := m.Called(ctx, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Get(1).(int64), args.Error(2)
	}
	return args.Get(0).([]entity.Order), args.Get(1).(int64), args.Error(2)
}

func (m *MockOrderRepository) GetActiveByUser(ctx context.Context, userID uint) (*entity.Order, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Order), args.Error(1)
}

func (m *MockOrderRepository) GetActiveByCourier(ctx context.Context, courierID uint) (*entity.Order, error) {
	args := m.Called(ctx, courierID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Order), args.Error(1)
}

func (m *MockOrderRepository) ListClaimable(ctx context.Context, courierID uint) ([]entity.Order, error) {
	args := m.Called(ctx, courierID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.Order), args.Error(1)
}

func (m *MockOrderRepository) ListForWarehouse(ctx context.Context, warehouseID uint) ([]entity.Order, error) {
	args := m.Called(ctx, warehouseID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.Order), args.Error(1)
}

func (m *MockOrderRepository) ApplyTransition(ctx context.Context, id uint, guard repo.TransitionGuard, updates map[string]interface{}) error {
	args := m.Called(ctx, id, guard, updates)
	return args.Error(0)
}

func (m *MockOrderRepository) Claim(ctx context.Context, id, courierID uint, at time.Time) (bool, error) {
	args := m.Called(ctx, id, courierID, at)
	return args.Bool(0), args.Error(1)
}

func (m *MockOrderRepository) AssignCourier(ctx context.Context, id uint, courierID *uint) error {
	args := m.Called(ctx, id, courierID)
	return args.Error(0)
}

func (m *MockOrderRepository) ListCreatedBefore(ctx context.Context, before time.Time, limit int) ([]repo.RetentionCandidate, error) {
	args := m.Called(ctx, before, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]repo.RetentionCandidate), args.Error(1)
}

func (m *MockOrderRepository) DeleteByIDs(ctx context.Context, ids []uint) (int64, error) {
	args := m.Called(ctx, ids)
	return args.Get(0).(int64), args.Error(1)
}

// MockCourierRepository мок репозитория курьеров
type MockCourierRepository struct {
	mock.Mock
}

func (m *MockCourierRepository) Ensure(ctx context.Context, id uint) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockCourierRepository) GetByID(ctx context.Context, id uint) (*entity.Courier, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Courier), args.Error(1)
}

func (m *MockCourierRepository) List(ctx context.Context) ([]entity.Courier, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.Courier), args.Error(1)
}

func (m *MockCourierRepository) UpdateStatus(ctx context.Context, id uint, status entity.CourierStatus) error {
	args := m.Called(ctx, id, status)
	return args.Error(0)
}

func (m *MockCourierRepository) UpdateLocation(ctx context.Context, id uint, lat, lng float64, at time.Time) error {
	args := m.Called(ctx, id, lat, lng, at)
	return args.Error(0)
}

// MockWarehouseRepository мок репозитория складов
type MockWarehouseRepository struct {
	mock.Mock
}

func (m *MockWarehouseRepository) Ensure(ctx context.Context, id uint) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockWarehouseRepository) GetByID(ctx context.Context, id uint) (*entity.Warehouse, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Warehouse), args.Error(1)
}

// MockChatRepository мок репозитория чатов
type MockChatRepository struct {
	mock.Mock
}

func (m *MockChatRepository) Create(ctx context.Context, chat *entity.Chat) error {
	args := m.Called(ctx, chat)
	chat.ID = 5
	return args.Error(0)
}

func (m *MockChatRepository) GetByID(ctx context.Context, id uint) (*entity.Chat, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Chat), args.Error(1)
}

func (m *MockChatRepository) GetByOrderID(ctx context.Context, orderID uint) (*entity.Chat, error) {
	args := m.Called(ctx, orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Chat), args.Error(1)
}

func (m *MockChatRepository) ListByUser(ctx context.Context, userID uint) ([]entity.Chat, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.Chat), args.Error(1)
}

func (m *MockChatRepository) IsParticipant(ctx context.Context, chatID, userID uint) (bool, error) {
	args := m.Called(ctx, chatID, userID)
	return args.Bool(0), args.Error(1)
}

func (m *MockChatRepository) CreateMessage(ctx context.Context, msg *entity.ChatMessage) error {
	args := m.Called(ctx, msg)
	msg.ID = 77
	return args.Error(0)
}

func (m *MockChatRepository) ListMessages(ctx context.Context, chatID uint, limit int) ([]entity.ChatMessage, error) {
	args := m.Called(ctx, chatID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.ChatMessage), args.Error(1)
}

func (m *MockChatRepository) MarkRead(ctx context.Context, chatID, readerID uint) (int64, error) {
	args := m.Called(ctx, chatID, readerID)
	return args.Get(0).(int64), args.Error(1)
}

// MockRouteEstimator мок сервиса маршрутов
type MockRouteEstimator struct {
	mock.Mock
}

func (m *MockRouteEstimator) EstimateRoute(ctx context.Context, start, end entity.Point) entity.Route {
	args := m.Called(ctx, start, end)
	return args.Get(0).(entity.Route)
}

// MockImageStore мок хранилища изображений
type MockImageStore struct {
	mock.Mock
}

func (m *MockImageStore) Remove(ctx context.Context, key string) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}

// PublishData запись о публикации события
type PublishData struct {
	Channel string
	Event   string
	Payload any
}

// MockBroadcaster запоминает опубликованные события
type MockBroadcaster struct {
	mu             sync.Mutex
	PublishHistory []PublishData
}

func (m *MockBroadcaster) Publish(channel, event string, payload any) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.PublishHistory = append(m.PublishHistory, PublishData{Channel: channel, Event: event, Payload: payload})
}

func (m *MockBroadcaster) Events() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	names := make([]string, 0, len(m.PublishHistory))
	for _, p := range m.PublishHistory {
		names = append(names, p.Event)
	}
	return names
}

func (m *MockBroadcaster) Last() PublishData {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.PublishHistory) == 0 {
		return PublishData{}
	}
	return m.PublishHistory[len(m.PublishHistory)-1]
}

// claimRace хранилище одного заказа с атомарным Claim для проверки гонки курьеров
type claimRace struct {
	MockOrderRepository
	mu    sync.Mutex
	order entity.Order
}

func (r *claimRace) Claim(_ context.Context, id, courierID uint, at time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.order.ID != id || !r.order.Status.Claimable() {
		return false, nil
	}
	if r.order.CourierID != nil && *r.order.CourierID != courierID {
		return false, nil
	}
	r.order.CourierID = &courierID
	if r.order.AcceptedAt == nil {
		r.order.AcceptedAt = &at
	}
	return true, nil
}

func (r *claimRace) GetByID(_ context.Context, id uint) (*entity.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.order.ID != id {
		return nil, repo.ErrOrderNotFound
	}
	o := r.order
	return &o, nil
}
