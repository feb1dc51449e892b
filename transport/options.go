package transport

import (
	"log/slog"
	"net/http"

	"github.com/lestrrat-go/option"
	"go.opentelemetry.io/otel/trace"
)

type Option = option.Interface

// ClientOption configures a Client.
type ClientOption interface {
	Option
	clientOption()
}

type clientOption struct {
	Option
}

func (clientOption) clientOption() {}

type identRetry struct{}

func (identRetry) String() string { return "WithRetry" }

type identBaseURL struct{}

func (identBaseURL) String() string { return "WithBaseURL" }

type identHTTPClient struct{}

func (identHTTPClient) String() string { return "WithHTTPClient" }

type identLogger struct{}

func (identLogger) String() string { return "WithLogger" }

type identTracerProvider struct{}

func (identTracerProvider) String() string { return "WithTracerProvider" }

// WithRetry sets the retry policy. The default is DefaultRetry().
func WithRetry(rc RetryConfig) ClientOption {
	return clientOption{option.New(identRetry{}, rc)}
}

// WithBaseURL sets the URL that request paths are resolved against.
func WithBaseURL(u string) ClientOption {
	return clientOption{option.New(identBaseURL{}, u)}
}

// WithHTTPClient sets the http.Client used to send requests. The client is
// copied, and its transport is wrapped to add the bearer token.
func WithHTTPClient(hc *http.Client) ClientOption {
	return clientOption{option.New(identHTTPClient{}, hc)}
}

// WithLogger sets the logger that receives retry diagnostics.
func WithLogger(logger *slog.Logger) ClientOption {
	return clientOption{option.New(identLogger{}, logger)}
}

// WithTracerProvider sets the provider of the tracer used to record one
// span per attempt. The global provider is used by default.
func WithTracerProvider(tp trace.TracerProvider) ClientOption {
	return clientOption{option.New(identTracerProvider{}, tp)}
}
