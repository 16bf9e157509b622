// Package sender собирает процесс рассылки писем о событиях подписки.
package sender

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/streadway/amqp"

	"github.com/magabrotheeeer/clevers-schools/internal/config"
	"github.com/magabrotheeeer/clevers-schools/internal/lib/rabbitmq"
	"github.com/magabrotheeeer/clevers-schools/internal/lib/sl"
	"github.com/magabrotheeeer/clevers-schools/internal/lib/smtp"
	"github.com/magabrotheeeer/clevers-schools/internal/metrics"
	senderservice "github.com/magabrotheeeer/clevers-schools/internal/services/sender"
)

// App представляет приложение рассылки.
type App struct {
	conn          *amqp.Connection
	ch            *amqp.Channel
	queues        []rabbitmq.QueueConfig
	senderService *senderservice.SenderService
	logger        *slog.Logger
}

// New подключается к брокеру и готовит SMTP транспорт.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	const op = "app.sender.New"

	if cfg.RabbitMQURL == "" {
		return nil, fmt.Errorf("%s: RABBITMQ_URL is required", op)
	}
	if cfg.SMTPHost == "" {
		return nil, fmt.Errorf("%s: SMTP_HOST is required", op)
	}

	conn, err := rabbitmq.Connect(ctx, cfg.RabbitMQURL, cfg.RabbitMQMaxRetries, cfg.RabbitMQRetryDelay)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	queues := rabbitmq.GetNotificationQueues()
	ch, err := rabbitmq.SetupChannel(conn, queues)
	if err != nil {
		if cerr := conn.Close(); cerr != nil {
			logger.Error("failed to close connection", sl.Err(cerr))
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	m := metrics.New(prometheus.DefaultRegisterer)
	transport := smtp.NewTransport(cfg.SMTP, logger)
	senderService := senderservice.NewSenderService(transport, m, logger)

	return &App{
		conn:          conn,
		ch:            ch,
		queues:        queues,
		senderService: senderService,
		logger:        logger,
	}, nil
}

// Run запускает потребителей всех очередей уведомлений и ждёт отмены ctx.
// Перед закрытием канала дожидается завершения начатых отправок.
func (a *App) Run(ctx context.Context) error {
	handler := func(body []byte) error {
		err := a.senderService.HandleEvent(ctx, body)
		if errors.Is(err, senderservice.ErrInvalidEvent) {
			return fmt.Errorf("%w: %w", rabbitmq.ErrPermanent, err)
		}
		return err
	}

	consumers := make([]<-chan struct{}, 0, len(a.queues))
	for _, q := range a.queues {
		done, err := rabbitmq.ConsumerMessage(ctx, a.logger, a.ch, q.QueueName, handler)
		if err != nil {
			a.logger.Error("failed to start consumer", slog.String("queue", q.QueueName), sl.Err(err))
			a.close()
			return err
		}
		consumers = append(consumers, done)
		a.logger.Info("consumer started", slog.String("queue", q.QueueName))
	}

	<-ctx.Done()
	a.logger.Info("sender service shutting down gracefully")
	for _, done := range consumers {
		<-done
	}
	a.close()
	return nil
}

func (a *App) close() {
	if err := a.ch.Close(); err != nil {
		a.logger.Error("failed to close channel", sl.Err(err))
	}
	if err := a.conn.Close(); err != nil {
		a.logger.Error("failed to close connection", sl.Err(err))
	}
}
