package rabbitmq

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/arturz777/dlyq/pkg/messaging"
	"github.com/arturz777/dlyq/pkg/realtime"
)

const consumerName = "dispatch-realtime-relay"

// EventRelay читает realtime события из fanout exchange и отдает их локальному хабу
type EventRelay struct {
	broker   messaging.MessageBroker
	hub      realtime.Dispatcher
	exchange string
	logger   *zap.Logger
}

func NewEventRelay(broker messaging.MessageBroker, hub realtime.Dispatcher, exchange string, logger *zap.Logger) *EventRelay {
	return &EventRelay{
		broker:   broker,
		hub:      hub,
		exchange: exchange,
		logger:   logger.Named("EventRelay"),
	}
}

// Run подписывает экземпляр на exchange через временную очередь и блокируется до отмены контекста
func (r *EventRelay) Run(ctx context.Context) error {
	queue, err := messaging.SetupFanoutSubscription(r.broker, r.exchange)
	if err != nil {
		return fmt.Errorf("ошибка подписки на %s: %w", r.exchange, err)
	}

	r.logger.Info("подписка на realtime события", zap.String("exchange", r.exchange), zap.String("queue", queue))
	return r.broker.ConsumeMessages(ctx, queue, consumerName, r.handle)
}

func (r *EventRelay) handle(body []byte) error {
	ev, err := realtime.DecodeEvent(body)
	if err != nil {
		r.logger.Warn("отброшено некорректное событие", zap.Error(err))
		return err
	}

	r.hub.Dispatch(ev)
	return nil
}
