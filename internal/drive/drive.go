// Package drive обращается к Google Drive от имени сервисного аккаунта:
// листинг папок, метаданные файла и поток его содержимого.
package drive

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/oauth2/google"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"github.com/magabrotheeeer/clevers-schools/internal/config"
	"github.com/magabrotheeeer/clevers-schools/internal/models"
)

// Ошибки клиента хранилища.
var (
	ErrFileNotFound = errors.New("file not found")
	ErrTimeout      = errors.New("storage response timeout")
)

const (
	listFields     = "nextPageToken, files(id, name, mimeType, webViewLink)"
	metadataFields = "id, name, mimeType, size"
	pageSize       = 1000
)

// Client обёртка над drive.Service.
type Client struct {
	srv     *drive.Service
	timeout time.Duration
}

// New создаёт клиент с учётными данными сервисного аккаунта из конфига.
// Дополнительные опции передаются в drive.NewService как есть.
func New(ctx context.Context, cfg config.Drive, timeout time.Duration, opts ...option.ClientOption) (*Client, error) {
	const op = "drive.New"

	if len(opts) == 0 {
		creds, err := credentials(ctx, cfg)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		opts = append(opts, option.WithCredentials(creds))
	}

	srv, err := drive.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &Client{srv: srv, timeout: timeout}, nil
}

func credentials(ctx context.Context, cfg config.Drive) (*google.Credentials, error) {
	if cfg.ClientEmail == "" || cfg.PrivateKey == "" {
		return nil, errors.New("service account email and private key are required")
	}
	raw, err := json.Marshal(map[string]string{
		"type":         "service_account",
		"client_email": cfg.ClientEmail,
		"private_key":  cfg.PrivateKey,
		"client_id":    cfg.ClientID,
		"token_uri":    google.JWTTokenURL,
	})
	if err != nil {
		return nil, err
	}
	return google.CredentialsFromJSON(ctx, raw, drive.DriveReadonlyScope)
}

// ListFolder возвращает все неудалённые файлы папки, отсортированные по имени.
func (c *Client) ListFolder(ctx context.Context, folderID string) ([]models.RemoteFile, error) {
	const op = "drive.ListFolder"

	var files []models.RemoteFile
	err := c.srv.Files.List().
		Q(folderQuery(folderID)).
		Fields(listFields).
		OrderBy("name").
		PageSize(pageSize).
		Pages(ctx, func(page *drive.FileList) error {
			for _, f := range page.Files {
				files = append(files, models.RemoteFile{
					ID:          f.Id,
					Name:        f.Name,
					MimeType:    f.MimeType,
					WebViewLink: f.WebViewLink,
				})
			}
			return nil
		})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, mapError(err))
	}
	if files == nil {
		files = []models.RemoteFile{}
	}
	return files, nil
}

// Metadata возвращает имя, тип и размер файла.
func (c *Client) Metadata(ctx context.Context, fileID string) (*models.FileMetadata, error) {
	const op = "drive.Metadata"

	f, err := c.srv.Files.Get(fileID).Fields(metadataFields).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, mapError(err))
	}
	return &models.FileMetadata{
		ID:       f.Id,
		Name:     f.Name,
		MimeType: f.MimeType,
		Size:     f.Size,
	}, nil
}

// Open открывает поток содержимого файла. Таймаут ограничивает только
// ожидание ответа хранилища; чтение тела ограничено лишь ctx.
// Закрытие потока освобождает соединение.
func (c *Client) Open(ctx context.Context, fileID string) (io.ReadCloser, error) {
	const op = "drive.Open"

	ctx, cancel := context.WithCancel(ctx)
	var timer *time.Timer
	if c.timeout > 0 {
		timer = time.AfterFunc(c.timeout, cancel)
	}

	resp, err := c.srv.Files.Get(fileID).Context(ctx).Download()
	// Stop возвращает false, если таймер уже сработал
	expired := timer != nil && !timer.Stop()

	if err != nil {
		cancel()
		if expired {
			return nil, fmt.Errorf("%s: %w", op, ErrTimeout)
		}
		return nil, fmt.Errorf("%s: %w", op, mapError(err))
	}
	if expired {
		_ = resp.Body.Close()
		cancel()
		return nil, fmt.Errorf("%s: %w", op, ErrTimeout)
	}
	return &body{ReadCloser: resp.Body, cancel: cancel}, nil
}

type body struct {
	io.ReadCloser
	cancel context.CancelFunc
}

func (b *body) Close() error {
	err := b.ReadCloser.Close()
	b.cancel()
	return err
}

// folderQuery строит запрос поиска по родительской папке.
func folderQuery(folderID string) string {
	escaped := strings.NewReplacer(`\`, `\\`, `'`, `\'`).Replace(folderID)
	return fmt.Sprintf("'%s' in parents and trashed = false", escaped)
}

func mapError(err error) error {
	var gerr *googleapi.Error
	if errors.As(err, &gerr) && gerr.Code == http.StatusNotFound {
		return fmt.Errorf("%w: %w", ErrFileNotFound, err)
	}
	return err
}
