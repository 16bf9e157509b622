package middlewarectx

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/clevers-schools/internal/http/response"
)

// AdminChecker сообщает, является ли email администратором.
type AdminChecker interface {
	IsAdmin(email string) bool
}

// RequireAdmin пропускает только сессии из списка администраторов.
// Остальные получают 401 {"message":"Unauthorized"}.
func RequireAdmin(admins AdminChecker, log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			const op = "middlewarectx.RequireAdmin"

			session, ok := SessionFromContext(r.Context())
			if !ok || !admins.IsAdmin(session.Email) {
				log.Warn("admin access denied",
					slog.String("op", op),
					slog.String("request_id", middleware.GetReqID(r.Context())),
					slog.Bool("authenticated", ok),
				)
				render.Status(r, http.StatusUnauthorized)
				render.JSON(w, r, response.Message("Unauthorized"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
