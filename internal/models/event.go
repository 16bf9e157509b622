package models

import "time"

// Типы событий подписки.
const (
	EventGranted  = "granted"
	EventRevoked  = "revoked"
	EventExpiring = "expiring"
)

// SubscriptionEvent сообщение, публикуемое в RabbitMQ при изменении подписки.
type SubscriptionEvent struct {
	Type       string     `json:"type"`
	UserID     string     `json:"userId"`
	UserEmail  string     `json:"userEmail"`
	Plan       string     `json:"plan,omitempty"`
	ExpiryDate *time.Time `json:"expiryDate,omitempty"`
	OccurredAt time.Time  `json:"occurredAt"`
}

// RoutingKey ключ маршрутизации события в обменнике.
func (e SubscriptionEvent) RoutingKey() string {
	return "subscription." + e.Type
}
