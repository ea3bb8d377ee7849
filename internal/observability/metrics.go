package observability

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce sync.Once

	httpRequestsTotal  *prometheus.CounterVec
	httpLatencySeconds *prometheus.HistogramVec
	httpErrorsTotal    *prometheus.CounterVec

	playsScoredTotal   *prometheus.CounterVec
	playScore          *prometheus.HistogramVec
	scoringErrorsTotal *prometheus.CounterVec

	resultsCacheTotal   *prometheus.CounterVec
	eventsPublished     *prometheus.CounterVec
	uploadRequestsTotal *prometheus.CounterVec
	uploadRejectedTotal *prometheus.CounterVec
	uploadLatency       prometheus.Histogram
)

// RegisterMetrics initialises the Prometheus collectors exactly once.
func RegisterMetrics() {
	registerOnce.Do(func() {
		httpRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "evidence_http_requests_total",
			Help: "Total number of API requests served.",
		}, []string{"method", "route", "status"})

		httpLatencySeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "evidence_http_latency_seconds",
			Help:    "Latency distribution for API requests.",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.0},
		}, []string{"method", "route"})

		httpErrorsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "evidence_http_errors_total",
			Help: "Total number of error responses returned by the API.",
		}, []string{"method", "route", "status"})

		playsScoredTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "evidence_plays_scored_total",
			Help: "Answers scored and recorded, by question mode and correctness.",
		}, []string{"mode", "correct"})

		playScore = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "evidence_play_score",
			Help:    "Distribution of recorded answer scores.",
			Buckets: []float64{0, 20, 40, 60, 80, 90, 100},
		}, []string{"mode"})

		scoringErrorsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "evidence_scoring_errors_total",
			Help: "Submissions rejected by the scoring engine, by reason.",
		}, []string{"mode", "reason"})

		resultsCacheTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "evidence_results_cache_total",
			Help: "Session results cache lookups by outcome.",
		}, []string{"outcome"})

		eventsPublished = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "evidence_events_published_total",
			Help: "Play events published, by transport.",
		}, []string{"transport"})

		uploadRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "evidence_upload_requests_total",
			Help: "Task images stored, by detected type.",
		}, []string{"type"})

		uploadRejectedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "evidence_upload_rejected_total",
			Help: "Task image uploads rejected, by reason.",
		}, []string{"reason"})

		uploadLatency = prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "evidence_upload_latency_seconds",
			Help:    "Time spent validating and storing task images.",
			Buckets: prometheus.DefBuckets,
		})

		prometheus.MustRegister(
			httpRequestsTotal, httpLatencySeconds, httpErrorsTotal,
			playsScoredTotal, playScore, scoringErrorsTotal,
			resultsCacheTotal, eventsPublished,
			uploadRequestsTotal, uploadRejectedTotal, uploadLatency,
		)
	})
}

// HTTPRequests exposes the request counter.
func HTTPRequests() *prometheus.CounterVec {
	RegisterMetrics()
	return httpRequestsTotal
}

// HTTPLatency exposes the request latency histogram.
func HTTPLatency() *prometheus.HistogramVec {
	RegisterMetrics()
	return httpLatencySeconds
}

// HTTPErrors exposes the error response counter.
func HTTPErrors() *prometheus.CounterVec {
	RegisterMetrics()
	return httpErrorsTotal
}

// PlaysScored counts recorded answers.
func PlaysScored() *prometheus.CounterVec {
	RegisterMetrics()
	return playsScoredTotal
}

// PlayScore observes recorded scores.
func PlayScore() *prometheus.HistogramVec {
	RegisterMetrics()
	return playScore
}

// ScoringErrors counts submissions the engine rejected.
func ScoringErrors() *prometheus.CounterVec {
	RegisterMetrics()
	return scoringErrorsTotal
}

// ResultsCache counts results cache hits and misses.
func ResultsCache() *prometheus.CounterVec {
	RegisterMetrics()
	return resultsCacheTotal
}

// EventsPublished counts play events per transport.
func EventsPublished() *prometheus.CounterVec {
	RegisterMetrics()
	return eventsPublished
}

// UploadRequests counts stored images.
func UploadRequests() *prometheus.CounterVec {
	RegisterMetrics()
	return uploadRequestsTotal
}

// UploadRejected counts rejected uploads.
func UploadRejected() *prometheus.CounterVec {
	RegisterMetrics()
	return uploadRejectedTotal
}

// UploadLatency observes upload handling time.
func UploadLatency() prometheus.Histogram {
	RegisterMetrics()
	return uploadLatency
}
