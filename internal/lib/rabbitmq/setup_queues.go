package rabbitmq

import "github.com/magabrotheeeer/clevers-schools/internal/models"

// ExchangeName обменник, через который идут все события подписок.
const ExchangeName = "notifications"

// QueueConfig очередь и ключ, по которому она привязана к обменнику.
type QueueConfig struct {
	QueueName  string
	RoutingKey string
}

// GetNotificationQueues очереди, которые читает сервис отправки писем.
func GetNotificationQueues() []QueueConfig {
	events := []string{models.EventGranted, models.EventRevoked, models.EventExpiring}
	queues := make([]QueueConfig, 0, len(events))
	for _, e := range events {
		queues = append(queues, QueueConfig{
			QueueName:  "notifications." + e,
			RoutingKey: models.SubscriptionEvent{Type: e}.RoutingKey(),
		})
	}
	return queues
}
