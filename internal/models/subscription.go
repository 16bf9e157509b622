package models

import "time"

// Статусы подписки.
const (
	StatusActive   = "active"
	StatusInactive = "inactive"
	StatusRevoked  = "revoked"
)

// Тарифные планы.
const (
	PlanPremium = "premium"
	PlanFree    = "free"
)

// CurrencyKES валюта, в которой ведётся учёт подписок.
const CurrencyKES = "KES"

// Subscription запись о выдаче премиального доступа.
type Subscription struct {
	ID         string
	UserID     string
	UserEmail  string
	Status     string
	Plan       string
	StartDate  time.Time
	ExpiryDate time.Time
	Amount     float64
	Currency   string
	Reference  string // аудит: кто и как выдал подписку
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// IsValid сообщает, действует ли подписка на момент now.
func (s *Subscription) IsValid(now time.Time) bool {
	return s != nil && s.Status == StatusActive && s.ExpiryDate.After(now)
}
