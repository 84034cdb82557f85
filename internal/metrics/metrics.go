package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	HTTPRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "curio_http_requests_total",
		Help: "Total HTTP requests by route and status code",
	}, []string{"route", "code"})
	UpstreamCalls = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "curio_upstream_calls_total",
		Help: "Total upstream API calls by source",
	}, []string{"source"})
	UpstreamErrors = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "curio_upstream_errors_total",
		Help: "Total upstream API failures by source",
	}, []string{"source"})
	APIRetries = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "curio_api_retries_total",
		Help: "Total API retry attempts by source",
	}, []string{"source"})
	FanoutLegFailures = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "curio_fanout_leg_failures_total",
		Help: "Per-account fetches that contributed nothing to a fan-out",
	})
	FetchDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "curio_fetch_duration_seconds",
		Help:    "End-to-end tweet fetch duration seconds",
		Buckets: prometheus.DefBuckets,
	})
)

func init() {
	prometheus.MustRegister(HTTPRequests, UpstreamCalls, UpstreamErrors, APIRetries, FanoutLegFailures, FetchDuration)
}

// Handler returns the prometheus scrape handler for mounting on the main mux.
func Handler() http.Handler { return promhttp.Handler() }

// ObserveFetchDuration records one pipeline run duration.
func ObserveFetchDuration(start time.Time) {
	FetchDuration.Observe(time.Since(start).Seconds())
}

// IncUpstreamCall counts one upstream API call for a source.
func IncUpstreamCall(source string) { UpstreamCalls.WithLabelValues(source).Inc() }

// IncUpstreamError counts one upstream failure for a source.
func IncUpstreamError(source string) { UpstreamErrors.WithLabelValues(source).Inc() }

// IncRetry counts one retry attempt for a source.
func IncRetry(source string) { APIRetries.WithLabelValues(source).Inc() }

// IncRequest counts one served HTTP request.
func IncRequest(route string, code int) {
	HTTPRequests.WithLabelValues(route, strconv.Itoa(code)).Inc()
}
