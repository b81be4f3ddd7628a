package repository

import (
	"net/http"
	"time"

	"github.com/aaravmahajanofficial/productboard/internal/api/middleware"
	"github.com/aaravmahajanofficial/productboard/internal/metrics"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// NewHTTPClient builds the client used for the products API. Requests are
// traced, counted and logged, in that order.
func NewHTTPClient(timeout time.Duration) *http.Client {
	transport := otelhttp.NewTransport(
		metrics.Transport(middleware.Logging(http.DefaultTransport)),
	)

	return &http.Client{
		Transport: transport,
		Timeout:   timeout,
	}
}
