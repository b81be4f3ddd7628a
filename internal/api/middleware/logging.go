package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
)

type logContextKey string

const (
	LoggerKey        = logContextKey("logger")
	CorrelationIDKey = logContextKey("correlation_id")
)

const RequestIDHeader = "X-Request-ID"

// RoundTripperFunc adapts a function to http.RoundTripper.
type RoundTripperFunc func(*http.Request) (*http.Response, error)

func (f RoundTripperFunc) RoundTrip(r *http.Request) (*http.Response, error) {
	return f(r)
}

// Logging tags every outgoing request with a correlation ID and logs its
// start and completion. A correlation ID already in the context wins over the
// header, so callers that tagged their logger see the same ID on the wire.
func Logging(next http.RoundTripper) http.RoundTripper {
	if next == nil {
		next = http.DefaultTransport
	}

	return RoundTripperFunc(func(r *http.Request) (*http.Response, error) {

		start := time.Now()

		// Correlation ID
		ctx := r.Context()
		correlationID := CorrelationIDFromContext(ctx)
		if correlationID == "" {
			correlationID = r.Header.Get(RequestIDHeader)
			if correlationID == "" {
				correlationID = uuid.NewString()
			}
			ctx = withCorrelationID(ctx, correlationID)
		}

		requestLogger := LoggerFromContext(ctx).With(
			slog.String("http_method", r.Method),
			slog.String("http_path", r.URL.Path),
		)

		// RoundTrippers must not modify the caller's request
		r = r.Clone(WithLogger(ctx, requestLogger))
		r.Header.Set(RequestIDHeader, correlationID)

		requestLogger.Debug("Outgoing request")

		resp, err := next.RoundTrip(r)
		if err != nil {
			requestLogger.Warn("Request failed", slog.String("error", err.Error()), slog.Duration("duration", time.Since(start)))
			return nil, err
		}

		requestLogger.Info("Request Completed", slog.Int("http_status", resp.StatusCode), slog.Duration("duration", time.Since(start)))

		return resp, nil
	})
}

// WithCorrelationID gives ctx a correlation ID and a logger carrying it. An ID
// already present is kept.
func WithCorrelationID(ctx context.Context) (context.Context, string) {
	if id := CorrelationIDFromContext(ctx); id != "" {
		return ctx, id
	}

	id := uuid.NewString()

	return withCorrelationID(ctx, id), id
}

func CorrelationIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(CorrelationIDKey).(string)

	return id
}

func withCorrelationID(ctx context.Context, id string) context.Context {
	logger := LoggerFromContext(ctx).With(slog.String("correlation_id", id))
	ctx = context.WithValue(ctx, CorrelationIDKey, id)

	return WithLogger(ctx, logger)
}

func LoggerFromContext(ctx context.Context) *slog.Logger {
	if logger, ok := ctx.Value(LoggerKey).(*slog.Logger); ok {
		return logger
	}

	return slog.Default()
}

// WithLogger returns a copy of ctx carrying logger.
func WithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, LoggerKey, logger)
}
