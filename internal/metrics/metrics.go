package metrics

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	OutcomeSuccess        = "success"
	OutcomeServerError    = "server_error"
	OutcomeTransportError = "transport_error"
)

var (
	syncRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "productboard_sync_requests_total",
			Help: "Total number of requests sent to the products API.",
		},
		[]string{"operation", "outcome"},
	)
	syncRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "productboard_sync_request_duration_seconds",
			Help:    "Duration of requests to the products API in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)
	syncRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "productboard_sync_requests_in_flight",
			Help: "Current number of requests to the products API awaiting a response.",
		},
	)
	syncRejectedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "productboard_sync_rejected_total",
			Help: "Mutations rejected because another one on the same target was still running.",
		},
		[]string{"operation"},
	)
)

func init() {
	if err := prometheus.Register(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{})); err != nil {
		slog.Debug("ProcessCollector registration skipped (likely already registered)",
			slog.String("error", err.Error()))
	}

	if err := prometheus.Register(collectors.NewGoCollector()); err != nil {
		slog.Debug("GoCollector registration skipped (likely already registered)",
			slog.String("error", err.Error()))
	}
}

// Operation names a request to the products resource.
func Operation(r *http.Request) string {
	hasID := strings.Trim(strings.TrimPrefix(r.URL.Path, productsPath(r.URL.Path)), "/") != ""

	switch r.Method {
	case http.MethodGet:
		if hasID {
			return "get"
		}
		return "list"
	case http.MethodPost:
		return "create"
	case http.MethodPut:
		return "update"
	case http.MethodDelete:
		return "remove"
	default:
		return strings.ToLower(r.Method)
	}
}

// productsPath returns the prefix of path up to and including /api/products.
func productsPath(path string) string {
	const resource = "/api/products"
	if i := strings.Index(path, resource); i >= 0 {
		return path[:i+len(resource)]
	}

	return path
}

// Transport records count, latency and in-flight requests for every call
// going through next.
func Transport(next http.RoundTripper) http.RoundTripper {
	if next == nil {
		next = http.DefaultTransport
	}

	return roundTripper(func(r *http.Request) (*http.Response, error) {

		start := time.Now()
		operation := Operation(r)
		syncRequestsInFlight.Inc()

		resp, err := next.RoundTrip(r)

		syncRequestsInFlight.Dec()
		syncRequestDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
		syncRequestsTotal.WithLabelValues(operation, outcome(resp, err)).Inc()

		return resp, err
	})
}

func outcome(resp *http.Response, err error) string {
	if err != nil {
		return OutcomeTransportError
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return OutcomeServerError
	}

	return OutcomeSuccess
}

// RecordRejected counts a mutation refused by the single-flight guard.
func RecordRejected(operation string) {
	syncRejectedTotal.WithLabelValues(operation).Inc()
}

type roundTripper func(*http.Request) (*http.Response, error)

func (f roundTripper) RoundTrip(r *http.Request) (*http.Response, error) {
	return f(r)
}

// http.Handler for the Prometheus /metrics endpoint
func Handler() http.Handler {

	return promhttp.Handler()
}
