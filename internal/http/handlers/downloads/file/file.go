// Package file реализует скачивание файла из Drive для подписчиков.
//
// Порядок проверок: сессия, подписка, метаданные, поток содержимого.
// Ни одного обращения к хранилищу до успешной проверки подписки.
// Статус и заголовки отправляются только после того, как поток открыт;
// ошибка чтения после этого обрывает соединение.
package file

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"

	"github.com/magabrotheeeer/clevers-schools/internal/drive"
	"github.com/magabrotheeeer/clevers-schools/internal/http/middlewarectx"
	"github.com/magabrotheeeer/clevers-schools/internal/lib/chunked"
	"github.com/magabrotheeeer/clevers-schools/internal/lib/sl"
	"github.com/magabrotheeeer/clevers-schools/internal/metrics"
	"github.com/magabrotheeeer/clevers-schools/internal/models"
)

const (
	defaultContentType = "application/octet-stream"
	defaultFilename    = "download"
)

// Gate проверяет наличие действующей подписки.
type Gate interface {
	IsPremium(ctx context.Context, userID string) (bool, error)
}

// Storage источник метаданных и содержимого файлов.
type Storage interface {
	Metadata(ctx context.Context, fileID string) (*models.FileMetadata, error)
	Open(ctx context.Context, fileID string) (io.ReadCloser, error)
}

// Options параметры отдачи файла.
type Options struct {
	ChunkSize   int
	CacheMaxAge time.Duration
}

// Handler обрабатывает GET /api/downloads/file/{fileId}.
type Handler struct {
	log     *slog.Logger
	gate    Gate
	storage Storage
	metrics *metrics.Metrics
	opts    Options
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, gate Gate, storage Storage, m *metrics.Metrics, opts Options) *Handler {
	if opts.ChunkSize <= 0 {
		opts.ChunkSize = chunked.DefaultChunkSize
	}
	return &Handler{
		log:     log,
		gate:    gate,
		storage: storage,
		metrics: m,
		opts:    opts,
	}
}

// ServeHTTP godoc
// @Summary Скачать файл
// @Description Отдаёт содержимое файла из Google Drive частями. Только для пользователей с премиумом.
// @Tags Downloads
// @Produce  octet-stream
// @Security BearerAuth
// @Param fileId path string true "ID файла в Drive"
// @Success 200 {file} file "Содержимое файла"
// @Failure 401 {string} string "Unauthorized"
// @Failure 402 {string} string "Payment Required: Premium subscription needed"
// @Failure 404 {string} string "File not found"
// @Failure 500 {string} string "Internal Server Error"
// @Failure 502 {string} string "Failed to access file"
// @Router /api/downloads/file/{fileId} [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.downloads.file"

	ctx := r.Context()
	fileID := chi.URLParam(r, "fileId")
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(ctx)),
		slog.String("file_id", fileID),
	)

	session, ok := middlewarectx.SessionFromContext(ctx)
	if !ok {
		h.fail(w, metrics.OutcomeUnauthorized, http.StatusUnauthorized, "Unauthorized")
		return
	}
	log = log.With(slog.String("user_id", session.UserID))

	premium, err := h.gate.IsPremium(ctx, session.UserID)
	if err != nil {
		log.Error("failed to check subscription", sl.Err(err))
		h.fail(w, metrics.OutcomeInternal, http.StatusInternalServerError, "Internal Server Error")
		return
	}
	if !premium {
		h.fail(w, metrics.OutcomeNoPremium, http.StatusPaymentRequired, "Payment Required: Premium subscription needed")
		return
	}

	meta, err := h.storage.Metadata(ctx, fileID)
	if err != nil {
		h.storageFailure(w, log, "failed to fetch file metadata", err)
		return
	}

	content, err := h.storage.Open(ctx, fileID)
	if err != nil {
		h.storageFailure(w, log, "failed to open file content", err)
		return
	}
	defer content.Close()

	header := w.Header()
	header.Set("Content-Type", contentType(meta.MimeType))
	header.Set("Content-Disposition", `attachment; filename="`+encodeFilename(meta.Name)+`"`)
	header.Set("Cache-Control", "public, max-age="+strconv.Itoa(int(h.opts.CacheMaxAge.Seconds())))
	if meta.Size > 0 {
		header.Set("Content-Length", strconv.FormatInt(meta.Size, 10))
	}
	w.WriteHeader(http.StatusOK)

	dst := flushWriter{Writer: w, rc: http.NewResponseController(w)}
	n, err := chunked.Copy(ctx, dst, content, h.opts.ChunkSize)
	h.metrics.DownloadedBytes.Add(float64(n))
	if err != nil {
		if ctx.Err() != nil {
			log.Info("download cancelled by client", slog.Int64("bytes", n))
			h.metrics.Downloads.WithLabelValues(metrics.OutcomeCancelled).Inc()
			return
		}
		log.Error("stream interrupted", slog.Int64("bytes", n), sl.Err(err))
		h.metrics.Downloads.WithLabelValues(metrics.OutcomeAborted).Inc()
		panic(http.ErrAbortHandler)
	}

	log.Info("file streamed", slog.Int64("bytes", n))
	h.metrics.Downloads.WithLabelValues(metrics.OutcomeOK).Inc()
}

func (h *Handler) storageFailure(w http.ResponseWriter, log *slog.Logger, msg string, err error) {
	if errors.Is(err, drive.ErrFileNotFound) {
		log.Info("file not found")
		h.fail(w, metrics.OutcomeNotFound, http.StatusNotFound, "File not found")
		return
	}
	log.Error(msg, sl.Err(err))
	h.fail(w, metrics.OutcomeUpstream, http.StatusBadGateway, "Failed to access file")
}

func (h *Handler) fail(w http.ResponseWriter, outcome string, code int, msg string) {
	h.metrics.Downloads.WithLabelValues(outcome).Inc()
	http.Error(w, msg, code)
}

func contentType(mimeType string) string {
	if mimeType == "" {
		return defaultContentType
	}
	return mimeType
}

// filenameUnescaper возвращает символы, которые encodeURIComponent оставляет как есть.
var filenameUnescaper = strings.NewReplacer(
	"+", "%20",
	"%21", "!",
	"%27", "'",
	"%28", "(",
	"%29", ")",
	"%2A", "*",
)

// encodeFilename кодирует имя для заголовка Content-Disposition так же,
// как encodeURIComponent: пробел становится %20, кавычки экранируются.
func encodeFilename(name string) string {
	if name == "" {
		return defaultFilename
	}
	return filenameUnescaper.Replace(url.QueryEscape(name))
}

type flushWriter struct {
	io.Writer
	rc *http.ResponseController
}

func (f flushWriter) Flush() error {
	return f.rc.Flush()
}
