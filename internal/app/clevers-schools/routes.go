// Package cleversschools собирает HTTP API: маршруты, зависимости и сервер.
package cleversschools

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"

	// Регистрирует описание API для /docs
	_ "github.com/magabrotheeeer/clevers-schools/docs"

	"github.com/magabrotheeeer/clevers-schools/internal/http/handlers/admin/subscriptions"
	"github.com/magabrotheeeer/clevers-schools/internal/http/handlers/admin/users"
	"github.com/magabrotheeeer/clevers-schools/internal/http/handlers/auth/login"
	"github.com/magabrotheeeer/clevers-schools/internal/http/handlers/auth/logout"
	"github.com/magabrotheeeer/clevers-schools/internal/http/handlers/auth/register"
	"github.com/magabrotheeeer/clevers-schools/internal/http/handlers/auth/session"
	"github.com/magabrotheeeer/clevers-schools/internal/http/handlers/downloads/file"
	"github.com/magabrotheeeer/clevers-schools/internal/http/handlers/drive/files"
	"github.com/magabrotheeeer/clevers-schools/internal/http/handlers/health"
	"github.com/magabrotheeeer/clevers-schools/internal/http/middlewarectx"
	"github.com/magabrotheeeer/clevers-schools/internal/metrics"
)

// AuthService регистрация, вход и сессии.
type AuthService interface {
	register.Service
	login.Service
	logout.Service
	middlewarectx.Authenticator
}

// SubscriptionService проверка и изменение подписок.
type SubscriptionService interface {
	file.Gate
	subscriptions.Service
	users.Service
}

// DriveClient листинг папок и отдача файлов.
type DriveClient interface {
	files.Lister
	file.Storage
}

// Deps зависимости маршрутов. Создаются один раз при старте.
type Deps struct {
	Auth          AuthService
	Subscriptions SubscriptionService
	Drive         DriveClient
	DB            health.Pinger
	Admins        middlewarectx.AdminChecker
	Metrics       *metrics.Metrics
	Cookies       middlewarectx.Cookies
	Download      file.Options
	AuthLimiter   *middlewarectx.IPRateLimiter
	MetricsHandle http.Handler
}

// RegisterRoutes регистрирует все маршруты приложения.
func RegisterRoutes(r chi.Router, logger *slog.Logger, d Deps) {
	// Глобальные middleware
	r.Use(
		middleware.RequestID,
		middleware.RealIP,
		middleware.Logger,
		middlewarectx.Recoverer(logger),
	)

	r.Get("/health", health.New(logger, d.DB).ServeHTTP)
	if d.MetricsHandle == nil {
		d.MetricsHandle = promhttp.Handler()
	}
	r.Handle("/metrics", d.MetricsHandle)

	// Swagger docs endpoint
	r.Get("/docs/*", httpSwagger.WrapHandler)

	r.Route("/api", func(r chi.Router) {
		r.Use(middlewarectx.SessionMiddleware(d.Auth, d.Cookies, logger))

		r.Route("/auth", func(r chi.Router) {
			limited := r.With(middlewarectx.RateLimitMiddleware(d.AuthLimiter, logger))
			limited.Post("/register", register.New(logger, d.Auth).ServeHTTP)
			limited.Post("/login", login.New(logger, d.Auth, d.Cookies).ServeHTTP)
			r.Post("/logout", logout.New(logger, d.Auth, d.Cookies).ServeHTTP)
			r.Get("/session", session.New().ServeHTTP)
		})

		// Открытый каталог
		r.Get("/drive/files", files.New(logger, d.Drive).ServeHTTP)

		r.Get("/downloads/file/{fileId}", file.New(logger, d.Subscriptions, d.Drive, d.Metrics, d.Download).ServeHTTP)

		// Только для администраторов
		r.Route("/admin", func(r chi.Router) {
			r.Use(middlewarectx.RequireAdmin(d.Admins, logger))
			r.Get("/users", users.New(logger, d.Subscriptions).ServeHTTP)
			r.Post("/subscriptions", subscriptions.New(logger, d.Subscriptions).ServeHTTP)
		})
	})
}
