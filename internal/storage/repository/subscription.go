package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/magabrotheeeer/clevers-schools/internal/models"
)

const subscriptionColumns = `id, user_id, user_email, status, plan, start_date, expiry_date,
	amount, currency, reference, created_at, updated_at`

// FindActiveSubscription возвращает любую действующую на момент now подписку пользователя.
func (s *Storage) FindActiveSubscription(ctx context.Context, userID string, now time.Time) (*models.Subscription, error) {
	const op = "storage.FindActiveSubscription"
	if !validID(userID) {
		return nil, fmt.Errorf("%s: %w", op, ErrSubscriptionNotFound)
	}

	query := `SELECT ` + subscriptionColumns + `
			  FROM subscriptions
			  WHERE user_id = $1 AND status = $2 AND expiry_date > $3
			  LIMIT 1`
	rows, err := s.Pool.Query(ctx, query, userID, models.StatusActive, now)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	sub, err := pgx.CollectExactlyOneRow(rows, scanSubscription)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, ErrSubscriptionNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &sub, nil
}

// ListActiveSubscriptions возвращает все подписки, действующие на момент now.
func (s *Storage) ListActiveSubscriptions(ctx context.Context, now time.Time) ([]models.Subscription, error) {
	const op = "storage.ListActiveSubscriptions"

	query := `SELECT ` + subscriptionColumns + `
			  FROM subscriptions
			  WHERE status = $1 AND expiry_date > $2`
	rows, err := s.Pool.Query(ctx, query, models.StatusActive, now)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	subs, err := pgx.CollectRows(rows, scanSubscription)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return subs, nil
}

// FindSubscriptionsExpiringBetween возвращает активные подписки,
// срок которых истекает в полуинтервале [from, to).
func (s *Storage) FindSubscriptionsExpiringBetween(ctx context.Context, from, to time.Time) ([]models.Subscription, error) {
	const op = "storage.FindSubscriptionsExpiringBetween"

	query := `SELECT ` + subscriptionColumns + `
			  FROM subscriptions
			  WHERE status = $1 AND expiry_date >= $2 AND expiry_date < $3
			  ORDER BY expiry_date`
	rows, err := s.Pool.Query(ctx, query, models.StatusActive, from, to)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	subs, err := pgx.CollectRows(rows, scanSubscription)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return subs, nil
}

// GrantSubscription в одной транзакции переводит прежние активные подписки
// пользователя в inactive и создаёт новую активную.
func (s *Storage) GrantSubscription(ctx context.Context, sub models.Subscription) (*models.Subscription, error) {
	const op = "storage.GrantSubscription"
	if !validID(sub.UserID) {
		return nil, fmt.Errorf("%s: %w", op, ErrUserNotFound)
	}

	var created models.Subscription
	err := pgx.BeginTxFunc(ctx, s.Pool, pgx.TxOptions{}, func(tx pgx.Tx) error {
		deactivate := `UPDATE subscriptions
					   SET status = $1, updated_at = $2
					   WHERE user_id = $3 AND status = $4`
		if _, err := tx.Exec(ctx, deactivate, models.StatusInactive, sub.UpdatedAt, sub.UserID, models.StatusActive); err != nil {
			return err
		}

		insert := `INSERT INTO subscriptions (user_id, user_email, status, plan, start_date, expiry_date,
					   amount, currency, reference, created_at, updated_at)
				   VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
				   RETURNING ` + subscriptionColumns
		rows, err := tx.Query(ctx, insert,
			sub.UserID, sub.UserEmail, models.StatusActive, sub.Plan, sub.StartDate, sub.ExpiryDate,
			sub.Amount, sub.Currency, sub.Reference, sub.CreatedAt, sub.UpdatedAt)
		if err != nil {
			return err
		}
		created, err = pgx.CollectExactlyOneRow(rows, scanSubscription)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &created, nil
}

// RevokeSubscriptions переводит все активные подписки пользователя в revoked
// и возвращает число затронутых записей. Ноль записей не ошибка.
func (s *Storage) RevokeSubscriptions(ctx context.Context, userID string, now time.Time) (int64, error) {
	const op = "storage.RevokeSubscriptions"
	if !validID(userID) {
		return 0, fmt.Errorf("%s: %w", op, ErrUserNotFound)
	}

	var affected int64
	err := pgx.BeginTxFunc(ctx, s.Pool, pgx.TxOptions{}, func(tx pgx.Tx) error {
		query := `UPDATE subscriptions
				  SET status = $1, updated_at = $2
				  WHERE user_id = $3 AND status = $4`
		tag, err := tx.Exec(ctx, query, models.StatusRevoked, now, userID, models.StatusActive)
		if err != nil {
			return err
		}
		affected = tag.RowsAffected()
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return affected, nil
}

func scanSubscription(row pgx.CollectableRow) (models.Subscription, error) {
	var sub models.Subscription
	err := row.Scan(&sub.ID, &sub.UserID, &sub.UserEmail, &sub.Status, &sub.Plan, &sub.StartDate,
		&sub.ExpiryDate, &sub.Amount, &sub.Currency, &sub.Reference, &sub.CreatedAt, &sub.UpdatedAt)
	return sub, err
}
