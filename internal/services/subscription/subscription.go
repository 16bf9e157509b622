// Package services содержит бизнес-логику премиальных подписок:
// проверку доступа, ручную выдачу и отзыв, список пользователей для админки.
package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/samber/lo"

	"github.com/magabrotheeeer/clevers-schools/internal/lib/sl"
	"github.com/magabrotheeeer/clevers-schools/internal/metrics"
	"github.com/magabrotheeeer/clevers-schools/internal/models"
	"github.com/magabrotheeeer/clevers-schools/internal/storage/repository"
)

// DefaultDurationDays срок ручной выдачи, если он не указан.
const DefaultDurationDays = 365

// ManualGrantPrefix префикс аудит-ссылки ручной выдачи.
const ManualGrantPrefix = "MANUAL_GRANT_BY_"

// Repository определяет методы хранилища, нужные сервису.
type Repository interface {
	GetUserByID(ctx context.Context, id string) (*models.User, error)
	ListUsers(ctx context.Context) ([]models.User, error)
	FindActiveSubscription(ctx context.Context, userID string, now time.Time) (*models.Subscription, error)
	ListActiveSubscriptions(ctx context.Context, now time.Time) ([]models.Subscription, error)
	GrantSubscription(ctx context.Context, sub models.Subscription) (*models.Subscription, error)
	RevokeSubscriptions(ctx context.Context, userID string, now time.Time) (int64, error)
}

// Publisher отправляет события подписок брокеру.
type Publisher interface {
	PublishEvent(ctx context.Context, event models.SubscriptionEvent) error
}

// SubscriptionService реализует бизнес-логику работы с подписками.
type SubscriptionService struct {
	repo      Repository
	publisher Publisher
	metrics   *metrics.Metrics
	log       *slog.Logger
	now       func() time.Time
}

// NewSubscriptionService создает новый экземпляр SubscriptionService.
func NewSubscriptionService(repo Repository, publisher Publisher, m *metrics.Metrics, log *slog.Logger) *SubscriptionService {
	return &SubscriptionService{
		repo:      repo,
		publisher: publisher,
		metrics:   m,
		log:       log,
		now:       time.Now,
	}
}

// WithClock подменяет источник времени.
func (s *SubscriptionService) WithClock(now func() time.Time) *SubscriptionService {
	s.now = now
	return s
}

// ActiveSubscription возвращает действующую подписку пользователя
// или nil, если её нет. Пустой id означает отсутствие подписки.
func (s *SubscriptionService) ActiveSubscription(ctx context.Context, userID string) (*models.Subscription, error) {
	const op = "services.subscription.ActiveSubscription"
	if userID == "" {
		return nil, nil
	}

	sub, err := s.repo.FindActiveSubscription(ctx, userID, s.now())
	if errors.Is(err, repository.ErrSubscriptionNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return sub, nil
}

// IsPremium сообщает, есть ли у пользователя действующая подписка.
func (s *SubscriptionService) IsPremium(ctx context.Context, userID string) (bool, error) {
	sub, err := s.ActiveSubscription(ctx, userID)
	if err != nil {
		return false, err
	}
	return sub != nil, nil
}

// Grant выдаёт премиум на durationDays дней (по умолчанию DefaultDurationDays).
// Прежняя активная подписка пользователя деактивируется в той же транзакции.
func (s *SubscriptionService) Grant(ctx context.Context, adminEmail, userID string, durationDays int) (*models.User, *models.Subscription, error) {
	const op = "services.subscription.Grant"

	user, err := s.repo.GetUserByID(ctx, userID)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", op, err)
	}
	if durationDays <= 0 {
		durationDays = DefaultDurationDays
	}

	now := s.now()
	sub, err := s.repo.GrantSubscription(ctx, models.Subscription{
		UserID:     user.ID,
		UserEmail:  user.Email,
		Status:     models.StatusActive,
		Plan:       models.PlanPremium,
		StartDate:  now,
		ExpiryDate: now.AddDate(0, 0, durationDays),
		Amount:     0,
		Currency:   models.CurrencyKES,
		Reference:  ManualGrantPrefix + adminEmail,
		CreatedAt:  now,
		UpdatedAt:  now,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", op, err)
	}

	s.metrics.SubscriptionChanges.WithLabelValues("grant").Inc()
	s.log.Info("premium granted",
		slog.String("op", op),
		slog.String("user_id", user.ID),
		slog.String("admin", adminEmail),
		slog.Time("expiry_date", sub.ExpiryDate),
	)

	expiry := sub.ExpiryDate
	s.publish(ctx, models.SubscriptionEvent{
		Type:       models.EventGranted,
		UserID:     user.ID,
		UserEmail:  user.Email,
		Plan:       sub.Plan,
		ExpiryDate: &expiry,
		OccurredAt: now,
	})
	return user, sub, nil
}

// Revoke отзывает все активные подписки пользователя.
// Отсутствие активных подписок не ошибка.
func (s *SubscriptionService) Revoke(ctx context.Context, adminEmail, userID string) (*models.User, int64, error) {
	const op = "services.subscription.Revoke"

	user, err := s.repo.GetUserByID(ctx, userID)
	if err != nil {
		return nil, 0, fmt.Errorf("%s: %w", op, err)
	}

	now := s.now()
	n, err := s.repo.RevokeSubscriptions(ctx, user.ID, now)
	if err != nil {
		return nil, 0, fmt.Errorf("%s: %w", op, err)
	}

	s.metrics.SubscriptionChanges.WithLabelValues("revoke").Inc()
	s.log.Info("premium revoked",
		slog.String("op", op),
		slog.String("user_id", user.ID),
		slog.String("admin", adminEmail),
		slog.Int64("revoked", n),
	)

	if n > 0 {
		s.publish(ctx, models.SubscriptionEvent{
			Type:       models.EventRevoked,
			UserID:     user.ID,
			UserEmail:  user.Email,
			Plan:       models.PlanPremium,
			OccurredAt: now,
		})
	}
	return user, n, nil
}

// ListUsers возвращает всех пользователей с признаком премиума, новые первыми.
func (s *SubscriptionService) ListUsers(ctx context.Context) ([]models.UserWithStatus, error) {
	const op = "services.subscription.ListUsers"

	users, err := s.repo.ListUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	active, err := s.repo.ListActiveSubscriptions(ctx, s.now())
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	byUser := lo.KeyBy(active, func(sub models.Subscription) string { return sub.UserID })

	return lo.Map(users, func(u models.User, _ int) models.UserWithStatus {
		row := models.UserWithStatus{
			ID:        u.ID,
			Name:      u.Name,
			Email:     u.Email,
			CreatedAt: u.CreatedAt,
			Plan:      models.PlanFree,
		}
		if sub, ok := byUser[u.ID]; ok {
			expiry := sub.ExpiryDate
			row.IsPremium = true
			row.ExpiryDate = &expiry
			row.Plan = sub.Plan
		}
		return row
	}), nil
}

// publish отправляет событие без влияния на результат операции.
func (s *SubscriptionService) publish(ctx context.Context, event models.SubscriptionEvent) {
	err := s.publisher.PublishEvent(ctx, event)
	s.metrics.EventsPublished.WithLabelValues(event.Type, metrics.Result(err)).Inc()
	if err != nil {
		s.log.Warn("failed to publish subscription event",
			slog.String("type", event.Type),
			slog.String("user_id", event.UserID),
			sl.Err(err),
		)
	}
}
