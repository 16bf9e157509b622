// Package cache хранит в Redis список отозванных сессий.
package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/magabrotheeeer/clevers-schools/internal/config"
)

const revokedPrefix = "session:revoked:"

// Cache обёртка над клиентом Redis.
type Cache struct {
	Db  *redis.Client
	now func() time.Time
}

// InitServer подключается к Redis и проверяет соединение.
func InitServer(ctx context.Context, cfg config.RedisConnection) (*Cache, error) {
	const op = "cache.InitServer"
	db := redis.NewClient(&redis.Options{
		Addr:         cfg.AddressRedis,
		Password:     cfg.Password,
		DB:           cfg.DB,
		Username:     cfg.User,
		MaxRetries:   cfg.MaxRetries,
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.TimeoutRedis,
		WriteTimeout: cfg.TimeoutRedis,
	})

	if err := db.Ping(ctx).Err(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &Cache{Db: db, now: time.Now}, nil
}

// RevokeSession помечает токен отозванным до момента его истечения.
// Уже истёкший токен не записывается.
func (c *Cache) RevokeSession(ctx context.Context, tokenID string, expiresAt time.Time) error {
	const op = "cache.RevokeSession"
	ttl := expiresAt.Sub(c.now())
	if tokenID == "" || ttl <= 0 {
		return nil
	}
	if err := c.Db.Set(ctx, revokedPrefix+tokenID, 1, ttl).Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// IsSessionRevoked сообщает, был ли токен отозван при выходе.
func (c *Cache) IsSessionRevoked(ctx context.Context, tokenID string) (bool, error) {
	const op = "cache.IsSessionRevoked"
	if tokenID == "" {
		return false, nil
	}
	err := c.Db.Get(ctx, revokedPrefix+tokenID).Err()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	return true, nil
}

// Ping проверяет доступность Redis.
func (c *Cache) Ping(ctx context.Context) error {
	return c.Db.Ping(ctx).Err()
}

// Close закрывает соединения с Redis.
func (c *Cache) Close() error {
	return c.Db.Close()
}
