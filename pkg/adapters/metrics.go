package adapters

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Call outcomes recorded on the integration metrics.
const (
	OutcomeOK            = "ok"
	OutcomeTransport     = "transport_error"
	OutcomeHTTPStatus    = "http_error"
	OutcomeDecode        = "decode_error"
	OutcomeProviderError = "provider_error"
)

var (
	integrationCalls = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "survey_collector_integration_calls_total",
		Help: "External integration calls by integration and outcome",
	}, []string{"integration", "outcome"})

	integrationDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "survey_collector_integration_duration_seconds",
		Help:    "External integration call latency",
		Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
	}, []string{"integration"})
)
