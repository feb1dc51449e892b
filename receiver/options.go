package receiver

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/lestrrat-go/option"
)

type Option = option.Interface

// ReceiverOption configures a Receiver.
type ReceiverOption interface {
	Option
	receiverOption()
}

// VerifyOption configures a single call to Verify or VerifyClaims.
type VerifyOption interface {
	Option
	verifyOption()
}

// ReceiverVerifyOption can be passed to both New and Verify. Values given
// to Verify take precedence.
type ReceiverVerifyOption interface {
	ReceiverOption
	VerifyOption
}

type receiverVerifyOption struct {
	Option
}

func (receiverVerifyOption) receiverOption() {}
func (receiverVerifyOption) verifyOption()   {}

// MiddlewareOption configures the handler returned by Wrap.
type MiddlewareOption interface {
	Option
	middlewareOption()
}

type middlewareOption struct {
	Option
}

func (middlewareOption) middlewareOption() {}

type identClockTolerance struct{}

func (identClockTolerance) String() string { return "WithClockTolerance" }

type identClock struct{}

func (identClock) String() string { return "WithClock" }

type identErrorHandler struct{}

func (identErrorHandler) String() string { return "WithErrorHandler" }

type identURLResolver struct{}

func (identURLResolver) String() string { return "WithURLResolver" }

type identReplayGuard struct{}

func (identReplayGuard) String() string { return "WithReplayGuard" }

type identLogger struct{}

func (identLogger) String() string { return "WithLogger" }

type identMaxBodySize struct{}

func (identMaxBodySize) String() string { return "WithMaxBodySize" }

// WithClockTolerance widens the validity window of a token by d on both
// ends, to absorb clock drift between QStash and the receiving host.
func WithClockTolerance(d time.Duration) ReceiverVerifyOption {
	return receiverVerifyOption{option.New(identClockTolerance{}, d)}
}

// WithClock sets the clock used to check the validity window.
func WithClock(clock Clock) ReceiverVerifyOption {
	return receiverVerifyOption{option.New(identClock{}, clock)}
}

// WithErrorHandler sets the handler invoked when a delivery is rejected.
// The error is available through VerificationErrorFromContext.
func WithErrorHandler(h http.Handler) MiddlewareOption {
	return middlewareOption{option.New(identErrorHandler{}, h)}
}

// WithURLResolver sets the function that computes the URL a delivery is
// expected to be signed for.
func WithURLResolver(fn URLResolver) MiddlewareOption {
	return middlewareOption{option.New(identURLResolver{}, fn)}
}

// WithReplayGuard rejects deliveries whose token id was already seen.
func WithReplayGuard(g ReplayGuard) MiddlewareOption {
	return middlewareOption{option.New(identReplayGuard{}, g)}
}

// WithLogger sets the logger that records rejected deliveries.
func WithLogger(logger *slog.Logger) MiddlewareOption {
	return middlewareOption{option.New(identLogger{}, logger)}
}

// WithMaxBodySize limits the number of body bytes read for verification.
func WithMaxBodySize(n int64) MiddlewareOption {
	return middlewareOption{option.New(identMaxBodySize{}, n)}
}
