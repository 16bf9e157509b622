// Package subscriptions реализует ручную выдачу и отзыв премиума администратором.
package subscriptions

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/clevers-schools/internal/http/middlewarectx"
	"github.com/magabrotheeeer/clevers-schools/internal/http/response"
	"github.com/magabrotheeeer/clevers-schools/internal/lib/sl"
	"github.com/magabrotheeeer/clevers-schools/internal/models"
	"github.com/magabrotheeeer/clevers-schools/internal/storage/repository"
)

// Действия администратора.
const (
	ActionGrant  = "grant"
	ActionRevoke = "revoke"
)

// Request тело запроса. DurationDays учитывается только для grant.
type Request struct {
	UserID       string `json:"userId" validate:"required"`
	Action       string `json:"action" validate:"required,oneof=grant revoke"`
	DurationDays *int   `json:"durationDays,omitempty"`
}

// Service описывает изменение подписки пользователя.
type Service interface {
	Grant(ctx context.Context, adminEmail, userID string, durationDays int) (*models.User, *models.Subscription, error)
	Revoke(ctx context.Context, adminEmail, userID string) (*models.User, int64, error)
}

// Handler обрабатывает POST /api/admin/subscriptions.
// Доступ проверяет middlewarectx.RequireAdmin.
type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:      log,
		service:  service,
		validate: validator.New(),
	}
}

// ServeHTTP godoc
// @Summary Выдать или отозвать премиум
// @Description Администратор вручную выдаёт премиум на durationDays дней (по умолчанию 365) или отзывает все активные подписки пользователя.
// @Tags Admin
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param request body Request true "Пользователь и действие"
// @Success 200 {object} response.MessageResponse "Подписка изменена"
// @Failure 400 {object} response.MessageResponse "Некорректный запрос"
// @Failure 401 {object} response.MessageResponse "Нет прав администратора"
// @Failure 404 {object} response.MessageResponse "Пользователь не найден"
// @Failure 500 {object} response.MessageResponse "Ошибка сервера"
// @Router /api/admin/subscriptions [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.admin.subscriptions"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	session, ok := middlewarectx.SessionFromContext(r.Context())
	if !ok {
		render.Status(r, http.StatusUnauthorized)
		render.JSON(w, r, response.Message("Unauthorized"))
		return
	}

	var req Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Error("failed to decode request body", sl.Err(err))
		invalidRequest(w, r)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		log.Info("validation failed", slog.String("reason", response.ValidationMessage(err.(validator.ValidationErrors))))
		invalidRequest(w, r)
		return
	}
	if req.DurationDays != nil && *req.DurationDays <= 0 {
		log.Info("non-positive duration", slog.Int("duration_days", *req.DurationDays))
		invalidRequest(w, r)
		return
	}

	var (
		user *models.User
		err  error
		msg  string
	)
	switch req.Action {
	case ActionGrant:
		days := 0
		if req.DurationDays != nil {
			days = *req.DurationDays
		}
		user, _, err = h.service.Grant(r.Context(), session.Email, req.UserID, days)
		if err == nil {
			msg = fmt.Sprintf("Granted premium to %s", user.Email)
		}
	case ActionRevoke:
		user, _, err = h.service.Revoke(r.Context(), session.Email, req.UserID)
		if err == nil {
			msg = fmt.Sprintf("Revoked premium from %s", user.Email)
		}
	}

	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			log.Info("user not found", slog.String("user_id", req.UserID))
			render.Status(r, http.StatusNotFound)
			render.JSON(w, r, response.Message("User not found"))
			return
		}
		log.Error("failed to update subscription", slog.String("action", req.Action), sl.Err(err))
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Message("Failed to update subscription"))
		return
	}

	render.JSON(w, r, response.Message(msg))
}

func invalidRequest(w http.ResponseWriter, r *http.Request) {
	render.Status(r, http.StatusBadRequest)
	render.JSON(w, r, response.Message("Invalid request"))
}
