package receiver

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

const defaultMaxBodySize = 1 << 20

const minReplayTTL = time.Second

// URLResolver returns the URL a delivery is expected to be signed for.
type URLResolver func(*http.Request) string

// RequestURL resolves the URL from the request itself: the scheme (https
// when the connection uses TLS), the Host header and the request URI.
// Forwarding headers are not consulted.
func RequestURL(r *http.Request) string {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	return scheme + "://" + r.Host + r.URL.RequestURI()
}

// StaticURL returns a URLResolver that always returns u. Use it when the
// receiving endpoint sits behind a proxy that rewrites the request.
func StaticURL(u string) URLResolver {
	return func(*http.Request) string { return u }
}

// Middleware verifies deliveries before passing them to the wrapped
// handler.
type Middleware struct {
	handler      http.Handler
	receiver     *Receiver
	errorHandler http.Handler
	resolveURL   URLResolver
	replay       ReplayGuard
	logger       *slog.Logger
	maxBodySize  int64
}

// Wrap returns a handler that verifies each request with rcv.
//
// The body is read in full, verified, and restored for h. The verified
// *Claims are available to h through ClaimsFromContext. Rejected requests
// go to the error handler instead, with the error available through
// VerificationErrorFromContext.
func Wrap(h http.Handler, rcv *Receiver, options ...MiddlewareOption) http.Handler {
	m := &Middleware{
		handler:      h,
		receiver:     rcv,
		errorHandler: DefaultErrorHandler(),
		resolveURL:   RequestURL,
		logger:       slog.New(slog.DiscardHandler),
		maxBodySize:  defaultMaxBodySize,
	}

	for _, opt := range options {
		switch opt.Ident() {
		case identErrorHandler{}:
			if v := opt.Value().(http.Handler); v != nil {
				m.errorHandler = v
			}
		case identURLResolver{}:
			if v := opt.Value().(URLResolver); v != nil {
				m.resolveURL = v
			}
		case identReplayGuard{}:
			m.replay = opt.Value().(ReplayGuard)
		case identLogger{}:
			if v := opt.Value().(*slog.Logger); v != nil {
				m.logger = v
			}
		case identMaxBodySize{}:
			if v := opt.Value().(int64); v > 0 {
				m.maxBodySize = v
			}
		}
	}
	return m
}

// ServeHTTP implements http.Handler.
func (m *Middleware) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	signature := r.Header.Get(SignatureHeader)
	if signature == "" {
		m.reject(w, r, newSignatureError(ErrMissingSignature, nil))
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, m.maxBodySize))
	if err != nil {
		m.reject(w, r, fmt.Errorf("failed to read request body: %w", err))
		return
	}
	r.Body = io.NopCloser(bytes.NewReader(body))

	claims, err := m.receiver.VerifyClaims(signature, body, m.resolveURL(r))
	if err != nil {
		m.reject(w, r, err)
		return
	}

	if m.replay != nil {
		if claims.TokenID == "" {
			m.reject(w, r, newSignatureError(ErrMalformedToken, errEmptyTokenID))
			return
		}

		ttl := max(claims.ExpiresAt.Sub(m.receiver.clock.Now())+m.receiver.tolerance, minReplayTTL)
		first, err := m.replay.Claim(r.Context(), claims.TokenID, ttl)
		if err != nil {
			m.reject(w, r, err)
			return
		}
		if !first {
			m.reject(w, r, newSignatureError(ErrReplayedToken, nil))
			return
		}
	}

	m.handler.ServeHTTP(w, r.WithContext(WithClaims(r.Context(), claims)))
}

func (m *Middleware) reject(w http.ResponseWriter, r *http.Request, err error) {
	m.logger.InfoContext(r.Context(), "rejected delivery",
		slog.String("method", r.Method),
		slog.String("path", r.URL.Path),
		slog.Any("error", err),
	)
	m.errorHandler.ServeHTTP(w, r.WithContext(WithVerificationError(r.Context(), err)))
}

// DefaultErrorHandler returns a handler that responds with 401 Unauthorized
// for verification failures, 413 for oversized bodies, and 500 otherwise.
func DefaultErrorHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		err := VerificationErrorFromContext(r.Context())
		if err == nil {
			err = newSignatureError(ErrInvalidSignature, nil)
		}

		status := http.StatusInternalServerError
		var sigErr *SignatureError
		var maxErr *http.MaxBytesError
		switch {
		case errors.As(err, &sigErr):
			status = http.StatusUnauthorized
		case errors.As(err, &maxErr):
			status = http.StatusRequestEntityTooLarge
		}

		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(status)
		fmt.Fprintf(w, "%d %s: %s\n", status, http.StatusText(status), err)
	})
}
