package relay

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	requestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "nova_relay_requests_total",
		Help: "Chat completion requests by model and HTTP status.",
	}, []string{"model", "status"})

	tokensTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "nova_relay_tokens_total",
		Help: "Tokens consumed by model and kind (prompt/completion).",
	}, []string{"model", "kind"})

	requestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "nova_relay_request_duration_seconds",
		Help:    "Chat completion latency by model.",
		Buckets: prometheus.DefBuckets,
	}, []string{"model"})
)

func recordRequest(model string, status int, seconds float64) {
	requestsTotal.WithLabelValues(model, strconv.Itoa(status)).Inc()
	requestDuration.WithLabelValues(model).Observe(seconds)
}

func recordTokens(model string, prompt, completion int) {
	if prompt > 0 {
		tokensTotal.WithLabelValues(model, "prompt").Add(float64(prompt))
	}
	if completion > 0 {
		tokensTotal.WithLabelValues(model, "completion").Add(float64(completion))
	}
}
