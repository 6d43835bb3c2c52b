package realtime

import (
	"encoding/json"
	"fmt"

	"github.com/arturz777/dlyq/pkg/messaging"
	"go.uber.org/zap"
)

// RelayPublisher публикует события в fanout exchange, откуда их забирает каждый экземпляр сервиса.
// Если брокер недоступен, событие доставляется хотя бы локальным клиентам.
type RelayPublisher struct {
	publisher messaging.MessagePublisher
	fallback  Dispatcher
	exchange  string
	retries   int
	logger    *zap.Logger
}

func NewRelayPublisher(publisher messaging.MessagePublisher, fallback Dispatcher, exchange string, retries int, logger *zap.Logger) *RelayPublisher {
	return &RelayPublisher{
		publisher: publisher,
		fallback:  fallback,
		exchange:  exchange,
		retries:   retries,
		logger:    logger.Named("RealtimeRelay"),
	}
}

// Publish реализует Broadcaster
func (p *RelayPublisher) Publish(channel, event string, payload any) {
	ev, err := NewEvent(channel, event, payload)
	if err != nil {
		p.logger.Error("Не удалось закодировать событие", zap.String("event", event), zap.Error(err))
		return
	}

	if err := messaging.PublishWithRetryAndLogging(p.publisher, p.logger, p.exchange, "", ev, p.retries); err != nil {
		if p.fallback != nil {
			p.fallback.Dispatch(ev)
		}
	}
}

// DecodeEvent разбирает событие, полученное из брокера
func DecodeEvent(body []byte) (Event, error) {
	var ev Event
	if err := json.Unmarshal(body, &ev); err != nil {
		return Event{}, fmt.Errorf("разбор события: %w", err)
	}
	if ev.Name == "" {
		return Event{}, fmt.Errorf("разбор события: пустое имя")
	}
	return ev, nil
}
