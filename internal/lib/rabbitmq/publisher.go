package rabbitmq

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/streadway/amqp"

	"github.com/magabrotheeeer/clevers-schools/internal/models"
)

// PublishMessage публикует сообщение в RabbitMQ.
func PublishMessage(ch *amqp.Channel, exchange string, routingkey string, message any) error {
	const op = "rabbitmq.PublishMessage"
	body, err := json.Marshal(message)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	err = ch.Publish(
		exchange,
		routingkey,
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			Body:         body,
			DeliveryMode: amqp.Persistent,
		},
	)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// EventPublisher публикует события подписок в обменник уведомлений.
type EventPublisher struct {
	ch *amqp.Channel
}

// NewEventPublisher создаёт публикатора поверх настроенного канала.
func NewEventPublisher(ch *amqp.Channel) *EventPublisher {
	return &EventPublisher{ch: ch}
}

// PublishEvent отправляет событие с ключом маршрутизации по его типу.
func (p *EventPublisher) PublishEvent(ctx context.Context, event models.SubscriptionEvent) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return PublishMessage(p.ch, ExchangeName, event.RoutingKey(), event)
}

// NoopPublisher используется, когда брокер не настроен.
type NoopPublisher struct{}

// PublishEvent ничего не делает.
func (NoopPublisher) PublishEvent(context.Context, models.SubscriptionEvent) error {
	return nil
}
