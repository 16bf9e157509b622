// Package repository реализует хранилище пользователей и подписок на PostgreSQL.
package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/magabrotheeeer/clevers-schools/internal/config"
)

// Ошибки уровня хранилища.
var (
	ErrUserNotFound         = errors.New("user not found")
	ErrEmailExists          = errors.New("user with this email already exists")
	ErrSubscriptionNotFound = errors.New("subscription not found")
)

// Storage держит пул соединений с PostgreSQL.
type Storage struct {
	Pool *pgxpool.Pool
}

// New создаёт пул соединений и проверяет доступность базы.
func New(ctx context.Context, cfg config.Storage) (*Storage, error) {
	const op = "storage.New"

	poolCfg, err := pgxpool.ParseConfig(cfg.StorageConnectionString)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if cfg.DatabaseName != "" {
		poolCfg.ConnConfig.Database = cfg.DatabaseName
	}
	if cfg.MinConns > 0 {
		poolCfg.MinConns = cfg.MinConns
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}
	if cfg.ConnectTimeout > 0 {
		poolCfg.ConnConfig.ConnectTimeout = cfg.ConnectTimeout
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &Storage{Pool: pool}, nil
}

// Ping проверяет соединение с базой.
func (s *Storage) Ping(ctx context.Context) error {
	return s.Pool.Ping(ctx)
}

// Close закрывает пул.
func (s *Storage) Close() {
	s.Pool.Close()
}

// validID сообщает, похожа ли строка на UUID. Колонки id имеют тип uuid,
// поэтому любой другой идентификатор заведомо ничего не найдёт.
func validID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}
