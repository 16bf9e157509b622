// Package users реализует список пользователей для администратора.
package users

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/clevers-schools/internal/http/response"
	"github.com/magabrotheeeer/clevers-schools/internal/lib/sl"
	"github.com/magabrotheeeer/clevers-schools/internal/models"
)

// Response список пользователей со статусом подписки.
type Response struct {
	Users []models.UserWithStatus `json:"users"`
}

// Service описывает получение пользователей со статусом подписки.
type Service interface {
	ListUsers(ctx context.Context) ([]models.UserWithStatus, error)
}

// Handler обрабатывает GET /api/admin/users.
type Handler struct {
	log     *slog.Logger
	service Service
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Список пользователей
// @Description Все пользователи, новые первыми, с признаком действующего премиума.
// @Tags Admin
// @Produce  json
// @Security BearerAuth
// @Success 200 {object} Response
// @Failure 401 {object} response.MessageResponse "Нет прав администратора"
// @Failure 500 {object} response.MessageResponse "Ошибка сервера"
// @Router /api/admin/users [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.admin.users"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	list, err := h.service.ListUsers(r.Context())
	if err != nil {
		log.Error("failed to list users", sl.Err(err))
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Message("Failed to fetch users"))
		return
	}
	if list == nil {
		list = []models.UserWithStatus{}
	}

	log.Debug("users listed", slog.Int("count", len(list)))
	render.JSON(w, r, Response{Users: list})
}
