// Package logout реализует HTTP-обработчик выхода из сессии.
package logout

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/clevers-schools/internal/http/middlewarectx"
	"github.com/magabrotheeeer/clevers-schools/internal/http/response"
	"github.com/magabrotheeeer/clevers-schools/internal/lib/sl"
	"github.com/magabrotheeeer/clevers-schools/internal/models"
)

// Service описывает завершение сессии.
type Service interface {
	Logout(ctx context.Context, session *models.Session) error
}

// Handler обрабатывает POST /api/auth/logout. Ответ всегда 200:
// cookie очищается, даже если отзыв токена не удался.
type Handler struct {
	log     *slog.Logger
	service Service
	cookies middlewarectx.Cookies
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, service Service, cookies middlewarectx.Cookies) *Handler {
	return &Handler{
		log:     log,
		service: service,
		cookies: cookies,
	}
}

// ServeHTTP godoc
// @Summary Выход
// @Description Отзывает текущую сессию и очищает cookie. Всегда отвечает 200.
// @Tags Auth
// @Produce  json
// @Success 200 {object} response.MessageResponse
// @Router /api/auth/logout [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.auth.logout"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	if session, ok := middlewarectx.SessionFromContext(r.Context()); ok {
		if err := h.service.Logout(r.Context(), session); err != nil {
			log.Error("failed to revoke session", sl.Err(err))
		} else {
			log.Info("session revoked", slog.String("user_id", session.UserID))
		}
	}

	h.cookies.Clear(w)
	render.JSON(w, r, response.Message("Signed out"))
}
