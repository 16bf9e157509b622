// Package middlewarectx содержит HTTP middleware сессий, прав администратора
// и ограничения частоты запросов.
//
// SessionMiddleware достаёт токен из cookie или заголовка Authorization,
// проверяет его и кладёт сессию в контекст. Запрос без валидной сессии
// пропускается дальше анонимным: решение об отказе принимают обработчики
// и RequireAdmin.
package middlewarectx

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/middleware"

	"github.com/magabrotheeeer/clevers-schools/internal/lib/sl"
	"github.com/magabrotheeeer/clevers-schools/internal/models"
	services "github.com/magabrotheeeer/clevers-schools/internal/services/auth"
)

// Key тип для ключей контекста HTTP-запроса.
type Key string

// SessionKey ключ сессии в контексте.
const SessionKey Key = "session"

// Authenticator проверяет и продлевает сессии.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*models.Session, error)
	Refresh(ctx context.Context, current *models.Session) (string, *models.Session, error)
}

// WithSession возвращает контекст с сессией.
func WithSession(ctx context.Context, s *models.Session) context.Context {
	return context.WithValue(ctx, SessionKey, s)
}

// SessionFromContext возвращает сессию запроса, если она есть.
func SessionFromContext(ctx context.Context) (*models.Session, bool) {
	s, ok := ctx.Value(SessionKey).(*models.Session)
	return s, ok && s != nil
}

// TokenFromRequest берёт токен из cookie, затем из заголовка Authorization.
func TokenFromRequest(r *http.Request, cookieName string) string {
	if c, err := r.Cookie(cookieName); err == nil && c.Value != "" {
		return c.Value
	}
	if authHeader := r.Header.Get("Authorization"); strings.HasPrefix(authHeader, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
	}
	return ""
}

// SessionMiddleware возвращает middleware, который восстанавливает сессию
// из токена. Сессия старше cookies.UpdateAge перевыпускается, новый токен
// ставится в cookie.
func SessionMiddleware(auth Authenticator, cookies Cookies, log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			const op = "middlewarectx.SessionMiddleware"

			token := TokenFromRequest(r, cookies.Name)
			if token == "" {
				next.ServeHTTP(w, r)
				return
			}

			log := log.With(
				slog.String("op", op),
				slog.String("request_id", middleware.GetReqID(r.Context())),
			)

			session, err := auth.Authenticate(r.Context(), token)
			if err != nil {
				if errors.Is(err, services.ErrInvalidSession) {
					log.Debug("invalid or expired session", sl.Err(err))
				} else {
					log.Error("failed to authenticate session", sl.Err(err))
				}
				next.ServeHTTP(w, r)
				return
			}

			if cookies.UpdateAge > 0 && time.Since(session.IssuedAt) > cookies.UpdateAge {
				newToken, refreshed, err := auth.Refresh(r.Context(), session)
				if err != nil {
					log.Error("failed to refresh session", sl.Err(err))
				} else {
					cookies.Set(w, newToken, refreshed.ExpiresAt)
					session = refreshed
				}
			}

			next.ServeHTTP(w, r.WithContext(WithSession(r.Context(), session)))
		})
	}
}
