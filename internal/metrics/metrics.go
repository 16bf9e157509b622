// Package metrics регистрирует счётчики Prometheus, общие для всех бинарников.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Исходы скачивания файла.
const (
	OutcomeOK           = "ok"
	OutcomeUnauthorized = "unauthorized"
	OutcomeNoPremium    = "payment_required"
	OutcomeNotFound     = "not_found"
	OutcomeUpstream     = "upstream_error"
	OutcomeCancelled    = "cancelled"
	OutcomeAborted      = "aborted"
	OutcomeInternal     = "internal_error"
)

// Metrics набор счётчиков сервиса.
type Metrics struct {
	Downloads           *prometheus.CounterVec
	DownloadedBytes     prometheus.Counter
	SubscriptionChanges *prometheus.CounterVec
	EventsPublished     *prometheus.CounterVec
	EmailsSent          *prometheus.CounterVec
}

// New создаёт счётчики и регистрирует их в reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Downloads: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "clevers",
			Name:      "downloads_total",
			Help:      "File download requests by outcome.",
		}, []string{"outcome"}),
		DownloadedBytes: f.NewCounter(prometheus.CounterOpts{
			Namespace: "clevers",
			Name:      "downloaded_bytes_total",
			Help:      "Bytes streamed to clients.",
		}),
		SubscriptionChanges: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "clevers",
			Name:      "subscription_changes_total",
			Help:      "Manual subscription grants and revokes.",
		}, []string{"action"}),
		EventsPublished: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "clevers",
			Name:      "events_published_total",
			Help:      "Subscription events sent to the broker by type and result.",
		}, []string{"type", "result"}),
		EmailsSent: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "clevers",
			Name:      "emails_sent_total",
			Help:      "Notification emails by event type and result.",
		}, []string{"type", "result"}),
	}
}

// Result метка результата для счётчиков с исходом.
func Result(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
