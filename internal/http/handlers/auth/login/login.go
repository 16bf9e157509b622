// Package login реализует HTTP-обработчик входа по email и паролю.
//
// При успешной проверке пароля выпускается сессионный токен: он ставится
// в HttpOnly cookie и дублируется в теле ответа для клиентов, которые
// передают его в заголовке Authorization.
package login

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/clevers-schools/internal/http/middlewarectx"
	"github.com/magabrotheeeer/clevers-schools/internal/http/response"
	"github.com/magabrotheeeer/clevers-schools/internal/lib/sl"
	"github.com/magabrotheeeer/clevers-schools/internal/models"
	services "github.com/magabrotheeeer/clevers-schools/internal/services/auth"
)

// Request учётные данные для входа.
type Request struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Response тело успешного ответа.
type Response struct {
	Message string            `json:"message"`
	User    models.PublicUser `json:"user"`
	Token   string            `json:"token"`
	Expires time.Time         `json:"expires"`
}

// Service описывает вход пользователя.
type Service interface {
	Login(ctx context.Context, email, password string) (*models.User, string, *models.Session, error)
}

// Handler обрабатывает POST /api/auth/login.
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
// @Summary Вход
// @Description Проверяет пароль, ставит сессионную cookie и возвращает токен для заголовка Authorization.
// @Tags Auth
// @Accept  json
// @Produce  json
// @Param request body Request true "Email и пароль"
// @Success 200 {object} Response
// @Failure 400 {object} response.MessageResponse "Некорректный запрос"
// @Failure 401 {object} response.MessageResponse "Неверный email или пароль"
// @Failure 429 {object} response.MessageResponse "Слишком много запросов"
// @Failure 500 {object} response.MessageResponse "Ошибка сервера"
// @Router /api/auth/login [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.auth.login"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	var req Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Error("failed to decode request body", sl.Err(err))
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Message("Invalid request"))
		return
	}
	if strings.TrimSpace(req.Email) == "" || req.Password == "" {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Message("Email and password are required"))
		return
	}

	user, token, session, err := h.service.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, services.ErrInvalidCredentials) {
			log.Info("invalid credentials")
			render.Status(r, http.StatusUnauthorized)
			render.JSON(w, r, response.Message("Invalid email or password"))
			return
		}
		log.Error("login failed", sl.Err(err))
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Message("Failed to sign in"))
		return
	}

	h.cookies.Set(w, token, session.ExpiresAt)
	log.Info("login success", slog.String("user_id", user.ID))
	render.JSON(w, r, Response{
		Message: "Signed in successfully",
		User:    user.Public(),
		Token:   token,
		Expires: session.ExpiresAt,
	})
}
