// Package metrics exposes Prometheus collectors for sync, indexing and
// answering. Collectors register with the default registry on import and
// are served by the events bot at /metrics.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// SlackRequests counts Web API page requests by method and result.
	SlackRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "slackrag_slack_requests_total",
		Help: "Slack Web API requests by method and result",
	}, []string{"method", "result"})

	// SlackRateLimitWaits counts backoff sleeps caused by rate limiting.
	SlackRateLimitWaits = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "slackrag_slack_rate_limit_waits_total",
		Help: "Backoff sleeps after a Slack rate limit signal",
	}, []string{"method"})

	// ChunksUpserted counts chunks written to the store by kind.
	ChunksUpserted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "slackrag_chunks_upserted_total",
		Help: "Chunks embedded and upserted by kind",
	}, []string{"kind"})

	// ChannelSyncs counts per-channel sync runs by mode and result.
	ChannelSyncs = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "slackrag_channel_syncs_total",
		Help: "Channel sync runs by mode and result",
	}, []string{"mode", "result"})

	// SyncDuration tracks how long a full sync pass takes.
	SyncDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "slackrag_sync_duration_seconds",
		Help:    "Duration of a sync pass over all channels",
		Buckets: prometheus.ExponentialBuckets(0.5, 2, 12), // 0.5s to ~17min
	})

	// Answers counts answered questions by front door and result.
	Answers = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "slackrag_answers_total",
		Help: "Questions answered by front door and result",
	}, []string{"source", "result"})

	// RetrievedContexts tracks how many chunks fit the context budget.
	RetrievedContexts = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "slackrag_retrieved_contexts",
		Help:    "Chunks returned per retrieval after the context budget",
		Buckets: []float64{0, 1, 2, 4, 8, 16, 32},
	})
)

// Result labels.
const (
	ResultOK    = "ok"
	ResultError = "error"
)

// Result maps an error to a result label.
func Result(err error) string {
	if err != nil {
		return ResultError
	}
	return ResultOK
}

// Handler returns the HTTP handler serving the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
