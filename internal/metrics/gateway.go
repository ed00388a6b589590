package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Gateway Prometheus metrics. Defined in a standalone package to avoid import
// cycles between the exchange/webhook services and the HTTP packages.

var (
	ExchangeTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "oauth_exchange_total",
		Help: "Code exchanges by provider and outcome",
	}, []string{"provider", "outcome"})

	ExchangeLatency = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "oauth_exchange_duration_seconds",
		Help:    "Latency of the full exchange path in seconds",
		Buckets: prometheus.ExponentialBuckets(0.005, 2, 12),
	}, []string{"provider"})

	WebhookVerifyFailures = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "webhook_verify_failures_total",
		Help: "Webhook signature verification failures by provider and reason",
	}, []string{"provider", "reason"})

	WebhookDedupHits = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "webhook_dedup_hits_total",
		Help: "Webhook deliveries short-circuited by the recently-seen set",
	})

	WebhookHandlerFailures = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "webhook_handler_failures_total",
		Help: "Handler errors after a verified dispatch, by event type",
	}, []string{"event_type"})
)

// Register registers the gateway metrics on the given registry (or the
// default if nil). Re-registration is tolerated.
func Register(reg prometheus.Registerer) error {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	cs := []prometheus.Collector{
		ExchangeTotal,
		ExchangeLatency,
		WebhookVerifyFailures,
		WebhookDedupHits,
		WebhookHandlerFailures,
	}
	for _, c := range cs {
		if err := reg.Register(c); err != nil {
			if _, ok := err.(prometheus.AlreadyRegisteredError); !ok {
				return err
			}
		}
	}
	return nil
}
