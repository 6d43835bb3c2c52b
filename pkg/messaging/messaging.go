package messaging

import (
	"context"

	"github.com/arturz777/dlyq/pkg/config"
	"github.com/arturz777/dlyq/pkg/rabbitmq"
	"go.uber.org/zap"
)

// MessagePublisher интерфейс для публикации сообщений
type MessagePublisher interface {
	PublishMessage(exchange, routingKey string, message interface{}) error
	PublishMessageWithRetry(exchange, routingKey string, message interface{}, retries int) error
}

// MessageConsumer интерфейс для получения сообщений
type MessageConsumer interface {
	DeclareQueue(name string) error
	DeclareTemporaryQueue() (string, error)
	BindQueue(queueName, exchangeName, routingKey string) error
	ConsumeMessages(ctx context.Context, queueName, consumerName string, handler func([]byte) error) error
}

// MessageBroker объединяет функциональность публикации и обработки сообщений
type MessageBroker interface {
	MessagePublisher
	MessageConsumer
	DeclareExchange(name string, kind string) error
	Close() error
}

// InitRabbitMQ инициализирует подключение к RabbitMQ из общей конфигурации
func InitRabbitMQ(cfg config.RabbitMQConfig, logger *zap.Logger) (*rabbitmq.RabbitMQ, error) {
	return rabbitmq.NewRabbitMQ(rabbitmq.Config{
		Host:     cfg.Host,
		Port:     cfg.Port,
		User:     cfg.User,
		Password: cfg.Password,
		VHost:    cfg.VHost,
	}, logger)
}

// PublishWithRetryAndLogging публикует сообщение с повторными попытками и логирует итог
func PublishWithRetryAndLogging(publisher MessagePublisher, logger *zap.Logger, exchange, routingKey string, message interface{}, retries int) error {
	err := publisher.PublishMessageWithRetry(exchange, routingKey, message, retries)
	if err != nil {
		logger.Error("Ошибка при публикации сообщения",
			zap.String("exchange", exchange), zap.String("routing_key", routingKey),
			zap.Int("attempts", retries+1), zap.Error(err))
		return err
	}

	logger.Debug("Сообщение опубликовано", zap.String("exchange", exchange), zap.String("routing_key", routingKey))
	return nil
}

// SetupExchangesAndQueues объявляет exchanges, очереди и их привязки
func SetupExchangesAndQueues(broker MessageBroker, exchanges map[string]string, queues map[string]map[string]string) error {
	for name, kind := range exchanges {
		if err := broker.DeclareExchange(name, kind); err != nil {
			return err
		}
	}

	for queueName, bindings := range queues {
		if err := broker.DeclareQueue(queueName); err != nil {
			return err
		}

		for exchangeName, routingKey := range bindings {
			if err := broker.BindQueue(queueName, exchangeName, routingKey); err != nil {
				return err
			}
		}
	}

	return nil
}

// SetupFanoutSubscription объявляет fanout exchange и временную очередь, привязанную к нему.
// Возвращает имя очереди.
func SetupFanoutSubscription(broker MessageBroker, exchange string) (string, error) {
	if err := broker.DeclareExchange(exchange, "fanout"); err != nil {
		return "", err
	}

	queue, err := broker.DeclareTemporaryQueue()
	if err != nil {
		return "", err
	}

	if err := broker.BindQueue(queue, exchange, ""); err != nil {
		return "", err
	}
	return queue, nil
}
