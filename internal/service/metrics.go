package service

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	WebhookEvents = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "payment_webhook_events_total",
			Help: "Webhook events by reconciliation outcome",
		},
		[]string{"outcome"},
	)
	CommissionPayouts = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "referral_payouts_total",
			Help: "Referral payouts by kind",
		},
		[]string{"kind"},
	)
	CommissionRetries = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "commission_retries_total",
			Help: "Commission cascades queued for async retry",
		},
	)
)

func init() {
	prometheus.MustRegister(WebhookEvents, CommissionPayouts, CommissionRetries)
}
