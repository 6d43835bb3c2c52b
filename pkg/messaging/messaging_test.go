package messaging

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"
)

type MockBroker struct {
	mock.Mock
}

func (m *MockBroker) PublishMessage(exchange, routingKey string, message interface{}) error {
	args := m.Called(exchange, routingKey, message)
	return args.Error(0)
}

func (m *MockBroker) PublishMessageWithRetry(exchange, routingKey string, message interface{}, retries int) error {
	args := m.Called(exchange, routingKey, message, retries)
	return args.Error(0)
}

func (m *MockBroker) DeclareQueue(name string) error {
	args := m.Called(name)
	return args.Error(0)
}

func (m *MockBroker) DeclareTemporaryQueue() (string, error) {
	args := m.Called()
	return args.String(0), args.Error(1)
}

func (m *MockBroker) BindQueue(queueName, exchangeName, routingKey string) error {
	args := m.Called(queueName, exchangeName, routingKey)
	return args.Error(0)
}

func (m *MockBroker) ConsumeMessages(ctx context.Context, queueName, consumerName string, handler func([]byte) error) error {
	args := m.Called(ctx, queueName, consumerName, handler)
	return args.Error(0)
}

func (m *MockBroker) DeclareExchange(name string, kind string) error {
	args := m.Called(name, kind)
	return args.Error(0)
}

func (m *MockBroker) Close() error {
	return m.Called().Error(0)
}

func TestSetupFanoutSubscription(t *testing.T) {
	broker := new(MockBroker)
	broker.On("DeclareExchange", "dispatch_events", "fanout").Return(nil)
	broker.On("DeclareTemporaryQueue").Return("amq.gen-123", nil)
	broker.On("BindQueue", "amq.gen-123", "dispatch_events", "").Return(nil)

	queue, err := SetupFanoutSubscription(broker, "dispatch_events")

	assert.NoError(t, err)
	assert.Equal(t, "amq.gen-123", queue)
	broker.AssertExpectations(t)
}

func TestSetupFanoutSubscription_ExchangeError(t *testing.T) {
	broker := new(MockBroker)
	broker.On("DeclareExchange", "dispatch_events", "fanout").Return(errors.New("closed"))

	_, err := SetupFanoutSubscription(broker, "dispatch_events")

	assert.Error(t, err)
	broker.AssertNotCalled(t, "DeclareTemporaryQueue")
}

func TestSetupExchangesAndQueues(t *testing.T) {
	broker := new(MockBroker)
	broker.On("DeclareExchange", "orders", "topic").Return(nil)
	broker.On("DeclareQueue", "orders.audit").Return(nil)
	broker.On("BindQueue", "orders.audit", "orders", "order.#").Return(nil)

	err := SetupExchangesAndQueues(broker,
		map[string]string{"orders": "topic"},
		map[string]map[string]string{"orders.audit": {"orders": "order.#"}},
	)

	assert.NoError(t, err)
	broker.AssertExpectations(t)
}

func TestPublishWithRetryAndLogging(t *testing.T) {
	broker := new(MockBroker)
	broker.On("PublishMessageWithRetry", "ex", "", "payload", 2).Return(errors.New("down")).Once()

	err := PublishWithRetryAndLogging(broker, zap.NewNop(), "ex", "", "payload", 2)

	assert.Error(t, err)
	broker.AssertExpectations(t)
}
