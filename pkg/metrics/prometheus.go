package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// PrometheusRecorder implements the Recorder interface using Prometheus metrics.
type PrometheusRecorder struct {
	requestsTotal   *prometheus.CounterVec
	tokensTotal     *prometheus.CounterVec
	costsTotal      *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
}

// NewPrometheusRecorder creates a new Prometheus-based metrics recorder.
func NewPrometheusRecorder() *PrometheusRecorder {
	return &PrometheusRecorder{
		requestsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "llm_requests_total",
				Help: "Total number of LLM requests by model, batch, part, and status",
			},
			[]string{"model", "batch_id", "part", "status", "error_type"},
		),
		tokensTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "llm_tokens_total",
				Help: "Total number of tokens used in LLM requests",
			},
			[]string{"model", "batch_id", "part", "type"},
		),
		costsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "llm_costs_total",
				Help: "Total cost in USD for LLM requests",
			},
			[]string{"model", "batch_id", "part"},
		),
		requestDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "llm_request_duration_seconds",
				Help:    "Duration of LLM requests in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"model", "batch_id", "part"},
		),
	}
}

// ObserveRequest records metrics for a completed LLM request.
func (p *PrometheusRecorder) ObserveRequest(
	model, batchID string,
	part int,
	promptTokens, completionTokens int,
	cost float64,
	success bool,
	errorType string,
	duration time.Duration,
) {
	status := "success"
	if !success {
		status = "error"
	}
	partLabel := strconv.Itoa(part)

	p.requestsTotal.WithLabelValues(model, batchID, partLabel, status, errorType).Inc()

	// Tokens and costs only count on success.
	if success {
		p.tokensTotal.WithLabelValues(model, batchID, partLabel, "prompt").Add(float64(promptTokens))
		p.tokensTotal.WithLabelValues(model, batchID, partLabel, "completion").Add(float64(completionTokens))
		p.costsTotal.WithLabelValues(model, batchID, partLabel).Add(cost)
	}

	p.requestDuration.WithLabelValues(model, batchID, partLabel).Observe(duration.Seconds())
}
