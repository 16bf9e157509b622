package cleversschools

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/streadway/amqp"
	"golang.org/x/time/rate"

	"github.com/magabrotheeeer/clevers-schools/internal/cache"
	"github.com/magabrotheeeer/clevers-schools/internal/config"
	"github.com/magabrotheeeer/clevers-schools/internal/drive"
	"github.com/magabrotheeeer/clevers-schools/internal/http/handlers/downloads/file"
	"github.com/magabrotheeeer/clevers-schools/internal/http/middlewarectx"
	"github.com/magabrotheeeer/clevers-schools/internal/lib/jwt"
	"github.com/magabrotheeeer/clevers-schools/internal/lib/rabbitmq"
	"github.com/magabrotheeeer/clevers-schools/internal/lib/sl"
	"github.com/magabrotheeeer/clevers-schools/internal/metrics"
	"github.com/magabrotheeeer/clevers-schools/internal/migrations"
	authservice "github.com/magabrotheeeer/clevers-schools/internal/services/auth"
	subservice "github.com/magabrotheeeer/clevers-schools/internal/services/subscription"
	"github.com/magabrotheeeer/clevers-schools/internal/storage/repository"
)

const (
	shutdownTimeout = 15 * time.Second
	// 10 попыток входа или регистрации в минуту с одного адреса
	authRateLimit = rate.Limit(10.0 / 60.0)
	authRateBurst = 5
)

// App HTTP API сервиса.
type App struct {
	server *http.Server
	logger *slog.Logger
	db     *repository.Storage
	cache  *cache.Cache
	conn   *amqp.Connection
	ch     *amqp.Channel
}

// New создаёт общие ресурсы процесса и собирает роутер.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	const op = "app.cleversschools.New"

	db, err := repository.New(ctx, cfg.Storage)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	app := &App{logger: logger, db: db}

	if err = migrations.RunWithPool(db.Pool, cfg.MigrationsPath); err != nil {
		app.closeResources()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	app.cache, err = cache.InitServer(ctx, cfg.RedisConnection)
	if err != nil {
		app.closeResources()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	driveClient, err := drive.New(ctx, cfg.Drive, cfg.Download.Timeout)
	if err != nil {
		app.closeResources()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	var publisher subservice.Publisher = rabbitmq.NoopPublisher{}
	if cfg.RabbitMQURL != "" {
		app.conn, err = rabbitmq.Connect(ctx, cfg.RabbitMQURL, cfg.RabbitMQMaxRetries, cfg.RabbitMQRetryDelay)
		if err != nil {
			app.closeResources()
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		app.ch, err = rabbitmq.SetupChannel(app.conn, rabbitmq.GetNotificationQueues())
		if err != nil {
			app.closeResources()
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		publisher = rabbitmq.NewEventPublisher(app.ch)
	} else {
		logger.Warn("RABBITMQ_URL is empty, subscription events are disabled")
	}

	m := metrics.New(prometheus.DefaultRegisterer)
	authService := authservice.NewAuthService(db, app.cache, jwt.NewJWTMaker(cfg.SessionSecret, cfg.SessionTTL))
	subscriptionService := subservice.NewSubscriptionService(db, publisher, m, logger)

	router := chi.NewRouter()
	RegisterRoutes(router, logger, Deps{
		Auth:          authService,
		Subscriptions: subscriptionService,
		Drive:         driveClient,
		DB:            db,
		Admins:        cfg.Admin,
		Metrics:       m,
		Cookies: middlewarectx.Cookies{
			Name:      cfg.SessionCookie,
			Secure:    cfg.Env == "prod",
			UpdateAge: cfg.SessionUpdateAge,
		},
		Download: file.Options{
			ChunkSize:   cfg.ChunkSize,
			CacheMaxAge: cfg.CacheMaxAge,
		},
		AuthLimiter: middlewarectx.NewIPRateLimiter(authRateLimit, authRateBurst),
	})

	// без WriteTimeout: скачивание ограничено только контекстом клиента
	app.server = &http.Server{
		Addr:        cfg.AddressHTTP,
		Handler:     router,
		ReadTimeout: cfg.TimeoutHTTP,
		IdleTimeout: cfg.IdleTimeout,
	}
	return app, nil
}

// Run запускает HTTP сервер и останавливает его при отмене ctx.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("HTTP server starting on", slog.String("address", a.server.Addr))
		err := a.server.ListenAndServe()
		if errors.Is(err, http.ErrServerClosed) {
			errCh <- nil
		} else {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		a.closeResources()
		return err
	case <-ctx.Done():
		timeoutCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		a.logger.Info("shutting down HTTP server gracefully")
		err := a.server.Shutdown(timeoutCtx)
		a.closeResources()
		return err
	}
}

func (a *App) closeResources() {
	if a.ch != nil {
		if err := a.ch.Close(); err != nil {
			a.logger.Error("failed to close channel", sl.Err(err))
		}
	}
	if a.conn != nil {
		if err := a.conn.Close(); err != nil {
			a.logger.Error("failed to close connection", sl.Err(err))
		}
	}
	if a.cache != nil {
		if err := a.cache.Close(); err != nil {
			a.logger.Error("failed to close redis", sl.Err(err))
		}
	}
	if a.db != nil {
		a.db.Close()
	}
}
