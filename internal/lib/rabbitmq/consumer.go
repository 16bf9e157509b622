package rabbitmq

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/streadway/amqp"

	"github.com/magabrotheeeer/clevers-schools/internal/lib/sl"
)

// ConsumerConcurrency сколько сообщений обрабатывается одновременно.
const ConsumerConcurrency = 10

// ErrPermanent помечает ошибку обработчика, после которой повторная доставка
// бесполезна. Такое сообщение отклоняется без возврата в очередь.
var ErrPermanent = errors.New("permanent failure")

// ConsumerMessage запускает чтение очереди. Сообщение подтверждается после
// успешной обработки, при ErrPermanent отклоняется, при прочих ошибках
// возвращается в очередь.
//
// Возвращаемый канал закрывается, когда чтение остановлено по ctx и все
// начатые обработчики завершились. Канал брокера можно закрывать только после этого.
func ConsumerMessage(ctx context.Context, log *slog.Logger, ch *amqp.Channel, queueName string, handler func([]byte) error) (<-chan struct{}, error) {
	const op = "rabbitmq.ConsumerMessage"
	delivery, err := ch.Consume(
		queueName,
		"",
		false,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	log = log.With(slog.String("op", op), slog.String("queue", queueName))
	done := make(chan struct{})
	go func() {
		defer close(done)
		consume(ctx, log, delivery, handler)
	}()
	return done, nil
}

func consume(ctx context.Context, log *slog.Logger, deliveries <-chan amqp.Delivery, handler func([]byte) error) {
	var wg sync.WaitGroup
	defer wg.Wait()

	sem := make(chan struct{}, ConsumerConcurrency)
	for {
		select {
		case d, ok := <-deliveries:
			if !ok {
				log.Info("delivery channel closed")
				return
			}
			select {
			case sem <- struct{}{}:
			case <-ctx.Done():
				// сообщение не взято в работу
				nack(log, d, true)
				return
			}
			wg.Add(1)
			go func(d amqp.Delivery) {
				defer wg.Done()
				defer func() { <-sem }()
				handleDelivery(log, d, handler)
			}(d)
		case <-ctx.Done():
			return
		}
	}
}

func handleDelivery(log *slog.Logger, d amqp.Delivery, handler func([]byte) error) {
	err := handler(d.Body)
	switch {
	case err == nil:
		if ackErr := d.Ack(false); ackErr != nil {
			log.Error("failed to ack message", sl.Err(ackErr))
		}
	case errors.Is(err, ErrPermanent):
		log.Error("dropping message", sl.Err(err))
		nack(log, d, false)
	default:
		log.Error("failed to handle message", sl.Err(err))
		nack(log, d, true)
	}
}

func nack(log *slog.Logger, d amqp.Delivery, requeue bool) {
	if err := d.Nack(false, requeue); err != nil {
		log.Error("failed to nack message", sl.Err(err))
	}
}
