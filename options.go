package qstash

import (
	"log/slog"
	"net/http"

	"github.com/lestrrat-go/qstash/transport"
	"go.opentelemetry.io/otel/trace"
)

// ClientOption configures a Client.
type ClientOption = transport.ClientOption

// RetryConfig controls the retries performed for each request.
type RetryConfig = transport.RetryConfig

// Backoff maps the index of a failed attempt to the wait before the next.
type Backoff = transport.Backoff

// DefaultRetry returns the default retry policy.
func DefaultRetry() RetryConfig { return transport.DefaultRetry() }

// WithRetry sets the retry policy.
func WithRetry(rc RetryConfig) ClientOption {
	return transport.WithRetry(rc)
}

// WithoutRetry disables retries: each request is attempted exactly once.
func WithoutRetry() ClientOption {
	return transport.WithRetry(transport.NoRetry())
}

// WithBaseURL sets the QStash API endpoint.
func WithBaseURL(u string) ClientOption {
	return transport.WithBaseURL(u)
}

// WithHTTPClient sets the http.Client used to send requests.
func WithHTTPClient(hc *http.Client) ClientOption {
	return transport.WithHTTPClient(hc)
}

// WithLogger sets the logger that receives retry diagnostics.
func WithLogger(logger *slog.Logger) ClientOption {
	return transport.WithLogger(logger)
}

// WithTracerProvider sets the OpenTelemetry tracer provider.
func WithTracerProvider(tp trace.TracerProvider) ClientOption {
	return transport.WithTracerProvider(tp)
}
