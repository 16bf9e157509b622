// Package services содержит планировщик напоминаний об окончании подписки.
package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/magabrotheeeer/clevers-schools/internal/lib/sl"
	"github.com/magabrotheeeer/clevers-schools/internal/metrics"
	"github.com/magabrotheeeer/clevers-schools/internal/models"
)

// ReminderLead за сколько до окончания подписки отправляется напоминание.
const ReminderLead = 24 * time.Hour

// ErrInvalidInterval интервал планировщика должен быть положительным.
var ErrInvalidInterval = errors.New("scheduler interval must be positive")

// SubscriptionRepository источник подписок с истекающим сроком.
type SubscriptionRepository interface {
	FindSubscriptionsExpiringBetween(ctx context.Context, from, to time.Time) ([]models.Subscription, error)
}

// Publisher отправляет события брокеру.
type Publisher interface {
	PublishEvent(ctx context.Context, event models.SubscriptionEvent) error
}

// SchedulerService периодически публикует события expiring.
type SchedulerService struct {
	repo      SubscriptionRepository
	publisher Publisher
	metrics   *metrics.Metrics
	interval  time.Duration
	log       *slog.Logger
	now       func() time.Time
}

// NewSchedulerService создает новый экземпляр SchedulerService.
func NewSchedulerService(repo SubscriptionRepository, publisher Publisher, m *metrics.Metrics, interval time.Duration, log *slog.Logger) (*SchedulerService, error) {
	const op = "services.scheduler.NewSchedulerService"
	if interval <= 0 {
		return nil, fmt.Errorf("%s: %w: %s", op, ErrInvalidInterval, interval)
	}
	return &SchedulerService{
		repo:      repo,
		publisher: publisher,
		metrics:   m,
		interval:  interval,
		log:       log,
		now:       time.Now,
	}, nil
}

// Run выполняет проход сразу и затем каждые interval, пока не отменён ctx.
func (s *SchedulerService) Run(ctx context.Context) {
	s.runOnceLogged(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.runOnceLogged(ctx)
		}
	}
}

func (s *SchedulerService) runOnceLogged(ctx context.Context) {
	if _, err := s.RunOnce(ctx); err != nil {
		s.log.Error("expiry reminder pass failed", sl.Err(err))
	}
}

// RunOnce публикует напоминания для подписок, истекающих в окне
// [now+ReminderLead, now+ReminderLead+interval). Соседние проходы не пересекаются,
// поэтому каждая подписка попадает в рассылку один раз.
// Возвращает число опубликованных событий.
func (s *SchedulerService) RunOnce(ctx context.Context) (int, error) {
	const op = "services.scheduler.RunOnce"
	log := s.log.With(slog.String("op", op))

	from := s.now().Add(ReminderLead)
	to := from.Add(s.interval)

	subs, err := s.repo.FindSubscriptionsExpiringBetween(ctx, from, to)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	if len(subs) == 0 {
		log.Info("no expiring subscriptions found")
		return 0, nil
	}
	log.Info("found expiring subscriptions", slog.Int("count", len(subs)))

	published := 0
	for _, sub := range subs {
		expiry := sub.ExpiryDate
		err := s.publisher.PublishEvent(ctx, models.SubscriptionEvent{
			Type:       models.EventExpiring,
			UserID:     sub.UserID,
			UserEmail:  sub.UserEmail,
			Plan:       sub.Plan,
			ExpiryDate: &expiry,
			OccurredAt: s.now(),
		})
		s.metrics.EventsPublished.WithLabelValues(models.EventExpiring, metrics.Result(err)).Inc()
		if err != nil {
			log.Error("failed to publish message", slog.String("user_id", sub.UserID), sl.Err(err))
			continue
		}
		published++
	}
	return published, nil
}
