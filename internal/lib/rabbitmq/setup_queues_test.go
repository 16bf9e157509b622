package rabbitmq

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetNotificationQueues(t *testing.T) {
	queues := GetNotificationQueues()

	require.Len(t, queues, 3)
	assert.Equal(t, QueueConfig{QueueName: "notifications.granted", RoutingKey: "subscription.granted"}, queues[0])
	assert.Equal(t, QueueConfig{QueueName: "notifications.revoked", RoutingKey: "subscription.revoked"}, queues[1])
	assert.Equal(t, QueueConfig{QueueName: "notifications.expiring", RoutingKey: "subscription.expiring"}, queues[2])

	seen := map[string]bool{}
	for _, q := range queues {
		assert.Falsef(t, seen[q.QueueName], "duplicate queue name: %s", q.QueueName)
		seen[q.QueueName] = true
	}
}
