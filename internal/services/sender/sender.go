// Package services отправляет письма о событиях подписки.
package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/magabrotheeeer/clevers-schools/internal/lib/sl"
	"github.com/magabrotheeeer/clevers-schools/internal/lib/smtp"
	"github.com/magabrotheeeer/clevers-schools/internal/metrics"
	"github.com/magabrotheeeer/clevers-schools/internal/models"
)

// ErrInvalidEvent сообщение невозможно обработать ни при какой повторной доставке.
var ErrInvalidEvent = errors.New("invalid event")

// ErrUnknownEvent событие неизвестного типа.
var ErrUnknownEvent = fmt.Errorf("%w: unknown event type", ErrInvalidEvent)

// ErrNoRecipient в событии нет адреса получателя.
var ErrNoRecipient = fmt.Errorf("%w: event has no recipient", ErrInvalidEvent)

const dateLayout = "2 January 2006"

// SenderService формирует и отправляет письма.
type SenderService struct {
	transport smtp.TransportInterface
	metrics   *metrics.Metrics
	log       *slog.Logger
}

// NewSenderService создает новый экземпляр SenderService.
func NewSenderService(transport smtp.TransportInterface, m *metrics.Metrics, log *slog.Logger) *SenderService {
	return &SenderService{
		transport: transport,
		metrics:   m,
		log:       log,
	}
}

// HandleEvent разбирает тело сообщения из очереди и отправляет письмо.
// Ошибки разбора и содержимого события оборачивают ErrInvalidEvent,
// ошибки SMTP возвращаются как есть.
func (s *SenderService) HandleEvent(ctx context.Context, body []byte) error {
	const op = "services.sender.HandleEvent"

	var event models.SubscriptionEvent
	if err := json.Unmarshal(body, &event); err != nil {
		s.log.Error("failed to unmarshal message body", slog.String("op", op), sl.Err(err))
		return fmt.Errorf("%s: %w: %w", op, ErrInvalidEvent, err)
	}
	if strings.TrimSpace(event.UserEmail) == "" {
		return fmt.Errorf("%s: %w", op, ErrNoRecipient)
	}

	subject, text, err := compose(event)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	err = s.sendEmail(ctx, []string{event.UserEmail}, subject, text)
	s.metrics.EmailsSent.WithLabelValues(event.Type, metrics.Result(err)).Inc()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func compose(event models.SubscriptionEvent) (string, string, error) {
	switch event.Type {
	case models.EventGranted:
		text := "Hello,\n\nPremium access has been activated on your account."
		if event.ExpiryDate != nil {
			text += fmt.Sprintf(" It is valid until %s.", formatDate(*event.ExpiryDate))
		}
		text += "\n\nYou can now download all revision materials."
		return "Your premium access is active", text, nil
	case models.EventRevoked:
		return "Your premium access has ended",
			"Hello,\n\nPremium access on your account has been revoked by an administrator.\n\nContact support if you think this is a mistake.",
			nil
	case models.EventExpiring:
		text := "Hello,\n\nYour premium access expires tomorrow"
		if event.ExpiryDate != nil {
			text += fmt.Sprintf(" (%s)", formatDate(*event.ExpiryDate))
		}
		text += ".\n\nContact an administrator to extend it."
		return "Your premium access expires soon", text, nil
	default:
		return "", "", fmt.Errorf("%w: %q", ErrUnknownEvent, event.Type)
	}
}

func formatDate(t time.Time) string {
	return t.UTC().Format(dateLayout)
}

func (s *SenderService) sendEmail(ctx context.Context, to []string, subject, bodyText string) error {
	from := s.transport.GetSMTPUser()
	msg := strings.Join([]string{
		"From: " + from,
		"To: " + strings.Join(to, ";"),
		"Subject: " + subject,
		"MIME-Version: 1.0",
		"Content-Type: text/plain; charset=\"UTF-8\"",
		"",
		bodyText,
	}, "\r\n")

	client, err := s.transport.Connect(ctx)
	if err != nil {
		s.log.Error("failed to connect to SMTP server", sl.Err(err))
		return err
	}
	defer client.Close()

	if err := client.Mail(from); err != nil {
		s.log.Error("failed to set MAIL FROM", slog.String("from", from), sl.Err(err))
		return err
	}

	for _, addr := range to {
		if err := client.Rcpt(addr); err != nil {
			s.log.Error("failed to set RCPT TO", slog.String("recipient", addr), sl.Err(err))
			return err
		}
	}

	wc, err := client.Data()
	if err != nil {
		s.log.Error("failed to get Data writer", sl.Err(err))
		return err
	}

	if _, err = wc.Write([]byte(msg)); err != nil {
		s.log.Error("failed to write email body", sl.Err(err))
		return err
	}

	if err = wc.Close(); err != nil {
		s.log.Error("failed to close Data writer", sl.Err(err))
		return err
	}

	if err = client.Quit(); err != nil {
		s.log.Error("failed to quit SMTP client", sl.Err(err))
		return err
	}

	s.log.Info("email sent successfully", slog.Any("to", to))
	return nil
}
