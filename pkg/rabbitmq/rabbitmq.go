package rabbitmq

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// Config содержит настройки подключения к RabbitMQ
type Config struct {
	Host     string
	Port     string
	User     string
	Password string
	VHost    string
}

// URL собирает строку подключения amqp
func (c Config) URL() string {
	return fmt.Sprintf("amqp://%s:%s@%s:%s/%s", c.User, c.Password, c.Host, c.Port, c.VHost)
}

// RabbitMQ представляет клиент для работы с RabbitMQ
type RabbitMQ struct {
	config     Config
	logger     *zap.Logger
	mu         sync.Mutex
	connection *amqp.Connection
	channel    *amqp.Channel
}

func NewRabbitMQ(cfg Config, logger *zap.Logger) (*RabbitMQ, error) {
	rmq := &RabbitMQ{
		config: cfg,
		logger: logger.Named("RabbitMQ"),
	}

	if err := rmq.connect(); err != nil {
		return nil, err
	}

	return rmq, nil
}

// connect устанавливает соединение, вызывается под mu либо до публикации клиента
func (r *RabbitMQ) connect() error {
	conn, err := amqp.Dial(r.config.URL())
	if err != nil {
		return fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return fmt.Errorf("failed to open channel: %w", err)
	}

	r.connection = conn
	r.channel = ch
	return nil
}

// ensureChannel возвращает живой канал, при необходимости переподключаясь
func (r *RabbitMQ) ensureChannel() (*amqp.Channel, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.connection != nil && !r.connection.IsClosed() && r.channel != nil && !r.channel.IsClosed() {
		return r.channel, nil
	}

	r.logger.Warn("Попытка переподключения к RabbitMQ")
	if r.connection != nil && !r.connection.IsClosed() {
		r.connection.Close()
	}
	if err := r.connect(); err != nil {
		return nil, err
	}
	return r.channel, nil
}

// Close закрывает соединение с RabbitMQ
func (r *RabbitMQ) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.channel != nil && !r.channel.IsClosed() {
		if err := r.channel.Close(); err != nil {
			return fmt.Errorf("ошибка при закрытии канала: %w", err)
		}
	}
	if r.connection != nil && !r.connection.IsClosed() {
		if err := r.connection.Close(); err != nil {
			return fmt.Errorf("ошибка при закрытии соединения: %w", err)
		}
	}
	return nil
}

// DeclareExchange объявляет durable exchange
func (r *RabbitMQ) DeclareExchange(name string, kind string) error {
	ch, err := r.ensureChannel()
	if err != nil {
		return fmt.Errorf("ошибка переподключения перед объявлением exchange: %w", err)
	}

	return ch.ExchangeDeclare(
		name,  // name
		kind,  // type
		true,  // durable
		false, // auto-deleted
		false, // internal
		false, // no-wait
		nil,   // arguments
	)
}

// DeclareQueue объявляет durable очередь
func (r *RabbitMQ) DeclareQueue(name string) error {
	ch, err := r.ensureChannel()
	if err != nil {
		return fmt.Errorf("ошибка переподключения перед объявлением очереди: %w", err)
	}

	_, err = ch.QueueDeclare(
		name,  // name
		true,  // durable
		false, // delete when unused
		false, // exclusive
		false, // no-wait
		nil,   // arguments
	)
	return err
}

// DeclareTemporaryQueue объявляет эксклюзивную очередь с именем от брокера.
// Очередь удаляется при закрытии соединения.
func (r *RabbitMQ) DeclareTemporaryQueue() (string, error) {
	ch, err := r.ensureChannel()
	if err != nil {
		return "", fmt.Errorf("ошибка переподключения перед объявлением очереди: %w", err)
	}

	q, err := ch.QueueDeclare(
		"",    // name
		false, // durable
		true,  // delete when unused
		true,  // exclusive
		false, // no-wait
		nil,   // arguments
	)
	if err != nil {
		return "", err
	}
	return q.Name, nil
}

// BindQueue привязывает очередь к exchange
func (r *RabbitMQ) BindQueue(queueName, exchangeName, routingKey string) error {
	ch, err := r.ensureChannel()
	if err != nil {
		return fmt.Errorf("ошибка переподключения перед привязкой очереди: %w", err)
	}

	return ch.QueueBind(
		queueName,    // queue name
		routingKey,   // routing key
		exchangeName, // exchange
		false,        // no-wait
		nil,          // arguments
	)
}

// PublishMessage публикует сообщение в формате JSON
func (r *RabbitMQ) PublishMessage(exchange, routingKey string, message interface{}) error {
	body, err := json.Marshal(message)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	ch, err := r.ensureChannel()
	if err != nil {
		return fmt.Errorf("ошибка переподключения перед публикацией сообщения: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	return ch.PublishWithContext(
		ctx,
		exchange,   // exchange
		routingKey, // routing key
		false,      // mandatory
		false,      // immediate
		amqp.Publishing{
			ContentType: "application/json",
			Timestamp:   time.Now(),
			Body:        body,
		},
	)
}

// PublishMessageWithRetry публикует сообщение с линейной задержкой между попытками
func (r *RabbitMQ) PublishMessageWithRetry(exchange, routingKey string, message interface{}, retries int) error {
	var err error
	for i := 0; i <= retries; i++ {
		if err = r.PublishMessage(exchange, routingKey, message); err == nil {
			return nil
		}

		r.logger.Warn("Ошибка публикации сообщения",
			zap.Int("attempt", i+1), zap.Int("attempts", retries+1), zap.Error(err))

		if i < retries {
			time.Sleep(time.Duration(i+1) * time.Second)
		}
	}

	return fmt.Errorf("не удалось опубликовать сообщение после %d попыток: %w", retries+1, err)
}

// ConsumeMessages читает очередь до отмены ctx или закрытия канала.
// Блокирует вызывающего.
func (r *RabbitMQ) ConsumeMessages(ctx context.Context, queueName, consumerName string, handler func([]byte) error) error {
	ch, err := r.ensureChannel()
	if err != nil {
		return fmt.Errorf("ошибка переподключения перед обработкой сообщений: %w", err)
	}

	msgs, err := ch.Consume(
		queueName, // queue
		fmt.Sprintf("%s-%d", consumerName, time.Now().UnixNano()),
		false, // auto-ack
		false, // exclusive
		false, // no-local
		false, // no-wait
		nil,   // args
	)
	if err != nil {
		return fmt.Errorf("ошибка при начале обработки сообщений: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-msgs:
			if !ok {
				return fmt.Errorf("канал доставки очереди %s закрыт", queueName)
			}
			if err := handler(msg.Body); err != nil {
				r.logger.Error("Ошибка обработки сообщения", zap.String("queue", queueName), zap.Error(err))
				// битое сообщение не возвращаем в очередь
				msg.Nack(false, false)
				continue
			}
			msg.Ack(false)
		}
	}
}
