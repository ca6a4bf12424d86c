package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ConversionsAccepted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "capirelay_conversions_accepted_total",
		Help: "Total number of conversions accepted for delivery.",
	})

	// ConversionsSent is labelled by outcome: "ok" or the conversions error kind.
	ConversionsSent = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "capirelay_conversions_sent_total",
		Help: "Total number of conversions API calls, labelled by outcome.",
	}, []string{"outcome"})

	SendDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "capirelay_send_duration_seconds",
		Help:    "Latency of a single conversions API call.",
		Buckets: prometheus.DefBuckets,
	})

	DeliveryLogFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "capirelay_delivery_log_failures_total",
		Help: "Total number of delivery records that could not be stored.",
	})
)
