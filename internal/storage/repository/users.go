package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/magabrotheeeer/clevers-schools/internal/models"
)

const uniqueViolation = "23505"

// NormalizeEmail приводит email к виду, в котором он хранится.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// CreateUser сохраняет нового пользователя и возвращает запись с id и датой создания.
func (s *Storage) CreateUser(ctx context.Context, name, email, passwordHash string) (*models.User, error) {
	const op = "storage.CreateUser"

	u := &models.User{
		Name:         strings.TrimSpace(name),
		Email:        NormalizeEmail(email),
		PasswordHash: passwordHash,
	}
	query := `INSERT INTO users (name, email, password)
			  VALUES ($1, $2, $3)
			  RETURNING id, created_at`
	err := s.Pool.QueryRow(ctx, query, u.Name, u.Email, u.PasswordHash).Scan(&u.ID, &u.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return nil, fmt.Errorf("%s: %w", op, ErrEmailExists)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return u, nil
}

// GetUserByEmail возвращает пользователя вместе с хешем пароля.
func (s *Storage) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	const op = "storage.GetUserByEmail"

	query := `SELECT id, name, email, password, created_at
			  FROM users
			  WHERE email = $1`
	u, err := scanUser(s.Pool.QueryRow(ctx, query, NormalizeEmail(email)))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return u, nil
}

// GetUserByID возвращает пользователя по id.
func (s *Storage) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	const op = "storage.GetUserByID"
	if !validID(id) {
		return nil, fmt.Errorf("%s: %w", op, ErrUserNotFound)
	}

	query := `SELECT id, name, email, password, created_at
			  FROM users
			  WHERE id = $1`
	u, err := scanUser(s.Pool.QueryRow(ctx, query, id))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return u, nil
}

// ListUsers возвращает всех пользователей без хешей паролей, новые первыми.
func (s *Storage) ListUsers(ctx context.Context) ([]models.User, error) {
	const op = "storage.ListUsers"

	query := `SELECT id, name, email, created_at
			  FROM users
			  ORDER BY created_at DESC`
	rows, err := s.Pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	users, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (models.User, error) {
		var u models.User
		err := row.Scan(&u.ID, &u.Name, &u.Email, &u.CreatedAt)
		return u, err
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return users, nil
}

func scanUser(row pgx.Row) (*models.User, error) {
	var u models.User
	if err := row.Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &u, nil
}
