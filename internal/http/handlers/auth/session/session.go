// Package session отдаёт данные текущей сессии.
package session

import (
	"net/http"
	"time"

	"github.com/go-chi/render"

	"github.com/magabrotheeeer/clevers-schools/internal/http/middlewarectx"
	"github.com/magabrotheeeer/clevers-schools/internal/models"
)

// Response текущая сессия. Для анонимного запроса тело пустое: {}.
type Response struct {
	User    *models.PublicUser `json:"user,omitempty"`
	Expires *time.Time         `json:"expires,omitempty"`
}

// Handler обрабатывает GET /api/auth/session.
type Handler struct{}

// New создает новый экземпляр Handler.
func New() *Handler {
	return &Handler{}
}

// ServeHTTP godoc
// @Summary Текущая сессия
// @Description Пользователь и срок сессии либо пустой объект без сессии.
// @Tags Auth
// @Produce  json
// @Success 200 {object} Response
// @Router /api/auth/session [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s, ok := middlewarectx.SessionFromContext(r.Context())
	if !ok {
		render.JSON(w, r, Response{})
		return
	}
	expires := s.ExpiresAt
	render.JSON(w, r, Response{
		User:    &models.PublicUser{ID: s.UserID, Name: s.Name, Email: s.Email},
		Expires: &expires,
	})
}
