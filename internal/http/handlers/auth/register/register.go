// Package register реализует HTTP-обработчик регистрации пользователя.
package register

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/clevers-schools/internal/http/response"
	"github.com/magabrotheeeer/clevers-schools/internal/lib/password"
	"github.com/magabrotheeeer/clevers-schools/internal/lib/sl"
	"github.com/magabrotheeeer/clevers-schools/internal/models"
	"github.com/magabrotheeeer/clevers-schools/internal/storage/repository"
)

// bcrypt учитывает только первые 72 байта пароля.
const maxPasswordBytes = 72

// Request входные данные для регистрации.
type Request struct {
	Name     string `json:"name"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password"`
}

// Response тело успешного ответа.
type Response struct {
	Message string            `json:"message"`
	User    models.PublicUser `json:"user"`
}

// Service описывает регистрацию пользователя.
type Service interface {
	Register(ctx context.Context, name, email, password string) (*models.User, error)
}

// Handler обрабатывает POST /api/auth/register.
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
// @Summary Регистрация
// @Description Создаёт пользователя с email и паролем не короче 8 символов.
// @Tags Auth
// @Accept  json
// @Produce  json
// @Param request body Request true "Имя, email и пароль"
// @Success 200 {object} Response
// @Failure 400 {object} response.MessageResponse "Некорректные данные"
// @Failure 409 {object} response.MessageResponse "Email уже занят"
// @Failure 429 {object} response.MessageResponse "Слишком много запросов"
// @Failure 500 {object} response.MessageResponse "Ошибка сервера"
// @Router /api/auth/register [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.auth.register"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	var req Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Error("failed to decode request body", sl.Err(err))
		badRequest(w, r, "Invalid request")
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.TrimSpace(req.Email)

	if req.Name == "" || req.Email == "" || req.Password == "" {
		badRequest(w, r, "Name, email, and password are required")
		return
	}
	if utf8.RuneCountInString(req.Password) < password.MinLength {
		badRequest(w, r, "Password must be at least 8 characters long")
		return
	}
	if len(req.Password) > maxPasswordBytes {
		badRequest(w, r, "Password is too long")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		log.Info("validation failed", slog.String("reason", response.ValidationMessage(err.(validator.ValidationErrors))))
		badRequest(w, r, "Invalid email address")
		return
	}

	user, err := h.service.Register(r.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		if errors.Is(err, repository.ErrEmailExists) {
			log.Info("email already registered")
			render.Status(r, http.StatusConflict)
			render.JSON(w, r, response.Message("User with this email already exists"))
			return
		}
		log.Error("registration failed", sl.Err(err))
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Message("Failed to register user"))
		return
	}

	log.Info("user registered", slog.String("user_id", user.ID))
	render.JSON(w, r, Response{
		Message: "User registered successfully",
		User:    user.Public(),
	})
}

func badRequest(w http.ResponseWriter, r *http.Request, msg string) {
	render.Status(r, http.StatusBadRequest)
	render.JSON(w, r, response.Message(msg))
}
