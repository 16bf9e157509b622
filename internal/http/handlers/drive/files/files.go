// Package files отдаёт содержимое папки Drive для страниц каталога.
package files

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/clevers-schools/internal/http/response"
	"github.com/magabrotheeeer/clevers-schools/internal/lib/sl"
	"github.com/magabrotheeeer/clevers-schools/internal/models"
)

// Response список файлов папки.
type Response struct {
	Files []models.RemoteFile `json:"files"`
}

// Lister возвращает файлы папки.
type Lister interface {
	ListFolder(ctx context.Context, folderID string) ([]models.RemoteFile, error)
}

// Handler обрабатывает GET /api/drive/files?folderId=.
type Handler struct {
	log    *slog.Logger
	lister Lister
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, lister Lister) *Handler {
	return &Handler{
		log:    log,
		lister: lister,
	}
}

// ServeHTTP godoc
// @Summary Содержимое папки
// @Description Файлы и подпапки папки Drive, по имени.
// @Tags Drive
// @Produce  json
// @Param folderId query string true "ID папки в Drive"
// @Success 200 {object} Response
// @Failure 400 {object} response.ErrorResponse "Не указан folderId"
// @Failure 500 {object} response.ErrorResponse "Ошибка Drive"
// @Router /api/drive/files [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.drive.files"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	folderID := strings.TrimSpace(r.URL.Query().Get("folderId"))
	if folderID == "" {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error("Folder ID is required"))
		return
	}

	list, err := h.lister.ListFolder(r.Context(), folderID)
	if err != nil {
		log.Error("failed to list folder", slog.String("folder_id", folderID), sl.Err(err))
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Error("Failed to fetch files"))
		return
	}
	if list == nil {
		list = []models.RemoteFile{}
	}

	render.JSON(w, r, Response{Files: list})
}
