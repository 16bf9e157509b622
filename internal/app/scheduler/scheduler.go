// Package scheduler собирает процесс планировщика напоминаний об окончании подписки.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/streadway/amqp"

	"github.com/magabrotheeeer/clevers-schools/internal/config"
	"github.com/magabrotheeeer/clevers-schools/internal/lib/rabbitmq"
	"github.com/magabrotheeeer/clevers-schools/internal/lib/sl"
	"github.com/magabrotheeeer/clevers-schools/internal/metrics"
	schedulerservice "github.com/magabrotheeeer/clevers-schools/internal/services/scheduler"
	"github.com/magabrotheeeer/clevers-schools/internal/storage/repository"
)

// App представляет приложение планировщика.
type App struct {
	schedulerService *schedulerservice.SchedulerService
	db               *repository.Storage
	conn             *amqp.Connection
	ch               *amqp.Channel
	logger           *slog.Logger
}

// New создает новый экземпляр приложения планировщика.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	const op = "app.scheduler.New"

	if cfg.RabbitMQURL == "" {
		return nil, fmt.Errorf("%s: RABBITMQ_URL is required", op)
	}
	if cfg.SchedulerInterval <= 0 {
		return nil, fmt.Errorf("%s: SCHEDULER_INTERVAL must be positive, got %s", op, cfg.SchedulerInterval)
	}

	conn, err := rabbitmq.Connect(ctx, cfg.RabbitMQURL, cfg.RabbitMQMaxRetries, cfg.RabbitMQRetryDelay)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to connect RabbitMQ: %w", op, err)
	}

	ch, err := rabbitmq.SetupChannel(conn, rabbitmq.GetNotificationQueues())
	if err != nil {
		closeResources(nil, conn, nil, logger)
		return nil, fmt.Errorf("%s: failed to setup RabbitMQ channel: %w", op, err)
	}

	db, err := repository.New(ctx, cfg.Storage)
	if err != nil {
		closeResources(ch, conn, nil, logger)
		return nil, fmt.Errorf("%s: failed to connect storage: %w", op, err)
	}

	m := metrics.New(prometheus.DefaultRegisterer)
	schedulerService, err := schedulerservice.NewSchedulerService(
		db, rabbitmq.NewEventPublisher(ch), m, cfg.SchedulerInterval, logger,
	)
	if err != nil {
		closeResources(ch, conn, db, logger)
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &App{
		schedulerService: schedulerService,
		db:               db,
		conn:             conn,
		ch:               ch,
		logger:           logger,
	}, nil
}

func closeResources(ch *amqp.Channel, conn *amqp.Connection, db *repository.Storage, logger *slog.Logger) {
	if ch != nil {
		if err := ch.Close(); err != nil {
			logger.Error("failed to close channel", sl.Err(err))
		}
	}
	if conn != nil {
		if err := conn.Close(); err != nil {
			logger.Error("failed to close connection", sl.Err(err))
		}
	}
	if db != nil {
		db.Close()
	}
}

// Run запускает планировщик и блокируется до отмены ctx.
func (a *App) Run(ctx context.Context) error {
	a.schedulerService.Run(ctx)

	a.logger.Info("shutting down scheduler service")
	closeResources(a.ch, a.conn, a.db, a.logger)
	return nil
}
