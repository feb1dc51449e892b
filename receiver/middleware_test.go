package receiver_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/lestrrat-go/qstash/receiver"
	"github.com/stretchr/testify/require"
)

const webhookURL = "https://example.com/api/webhook"

func echoHandler(t *testing.T) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, ok := receiver.ClaimsFromContext(r.Context())
		require.True(t, ok, "claims should be available to the wrapped handler")
		require.Equal(t, webhookURL, claims.Subject)

		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(body)
	})
}

func signedRequest(t *testing.T, target string, body []byte, mod func(*token)) *http.Request {
	t.Helper()
	tk := validToken(body)
	tk.subject = webhookURL
	if mod != nil {
		mod(&tk)
	}
	req := httptest.NewRequest(http.MethodPost, target, bytes.NewReader(body))
	req.Header.Set(receiver.SignatureHeader, tk.sign(t))
	return req
}

func TestWrap(t *testing.T) {
	rcv := newReceiver(t, receiver.SigningKeyPair{Current: currentKey, Next: nextKey})

	t.Run("valid delivery", func(t *testing.T) {
		h := receiver.Wrap(echoHandler(t), rcv)
		w := httptest.NewRecorder()
		h.ServeHTTP(w, signedRequest(t, webhookURL, []byte("hello"), nil))

		require.Equal(t, http.StatusOK, w.Code)
		require.Equal(t, "hello", w.Body.String(), "body is restored for the wrapped handler")
	})

	t.Run("missing signature", func(t *testing.T) {
		h := receiver.Wrap(echoHandler(t), rcv)
		w := httptest.NewRecorder()
		h.ServeHTTP(w, httptest.NewRequest(http.MethodPost, webhookURL, strings.NewReader("hello")))

		require.Equal(t, http.StatusUnauthorized, w.Code)
		require.Contains(t, w.Body.String(), "missing signature")
	})

	t.Run("tampered body", func(t *testing.T) {
		req := signedRequest(t, webhookURL, []byte("hello"), nil)
		req.Body = io.NopCloser(strings.NewReader("tampered"))

		h := receiver.Wrap(echoHandler(t), rcv)
		w := httptest.NewRecorder()
		h.ServeHTTP(w, req)

		require.Equal(t, http.StatusUnauthorized, w.Code)
		require.Contains(t, w.Body.String(), receiver.ErrBodyMismatch.Error())
	})

	t.Run("url derived from the request", func(t *testing.T) {
		h := receiver.Wrap(echoHandler(t), rcv)
		w := httptest.NewRecorder()
		h.ServeHTTP(w, signedRequest(t, "http://example.com/api/webhook", []byte("hello"), nil))

		require.Equal(t, http.StatusUnauthorized, w.Code, "plain http does not match the signed https url")
	})

	t.Run("static url", func(t *testing.T) {
		h := receiver.Wrap(echoHandler(t), rcv, receiver.WithURLResolver(receiver.StaticURL(webhookURL)))
		w := httptest.NewRecorder()
		h.ServeHTTP(w, signedRequest(t, "http://internal:8080/hook", []byte("hello"), nil))

		require.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("custom error handler", func(t *testing.T) {
		var got error
		errorHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			got = receiver.VerificationErrorFromContext(r.Context())
			w.WriteHeader(http.StatusForbidden)
		})

		h := receiver.Wrap(echoHandler(t), rcv, receiver.WithErrorHandler(errorHandler))
		w := httptest.NewRecorder()
		h.ServeHTTP(w, signedRequest(t, webhookURL, []byte("hello"), func(tk *token) { tk.key = otherKey }))

		require.Equal(t, http.StatusForbidden, w.Code)
		require.ErrorIs(t, got, receiver.ErrInvalidSignature)
	})

	t.Run("body too large", func(t *testing.T) {
		h := receiver.Wrap(echoHandler(t), rcv, receiver.WithMaxBodySize(4))
		w := httptest.NewRecorder()
		h.ServeHTTP(w, signedRequest(t, webhookURL, []byte("hello"), nil))

		require.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
	})

	t.Run("replayed delivery", func(t *testing.T) {
		guard := receiver.NewMemoryReplayGuard(0, receiver.FixedClock(testNow))
		h := receiver.Wrap(echoHandler(t), rcv, receiver.WithReplayGuard(guard))

		first := signedRequest(t, webhookURL, []byte("hello"), func(tk *token) { tk.id = "msg_replay" })
		w := httptest.NewRecorder()
		h.ServeHTTP(w, first)
		require.Equal(t, http.StatusOK, w.Code)

		second := signedRequest(t, webhookURL, []byte("hello"), func(tk *token) { tk.id = "msg_replay" })
		w = httptest.NewRecorder()
		h.ServeHTTP(w, second)
		require.Equal(t, http.StatusUnauthorized, w.Code)
		require.Contains(t, w.Body.String(), receiver.ErrReplayedToken.Error())
	})

	t.Run("replay guard requires a token id", func(t *testing.T) {
		guard := receiver.NewMemoryReplayGuard(0, receiver.FixedClock(testNow))
		h := receiver.Wrap(echoHandler(t), rcv, receiver.WithReplayGuard(guard))

		w := httptest.NewRecorder()
		h.ServeHTTP(w, signedRequest(t, webhookURL, []byte("hello"), func(tk *token) { tk.id = "" }))
		require.Equal(t, http.StatusUnauthorized, w.Code)
		require.Contains(t, w.Body.String(), receiver.ErrMalformedToken.Error())
	})

	t.Run("replay guard failure", func(t *testing.T) {
		h := receiver.Wrap(echoHandler(t), rcv, receiver.WithReplayGuard(failingGuard{}))

		w := httptest.NewRecorder()
		h.ServeHTTP(w, signedRequest(t, webhookURL, []byte("hello"), nil))
		require.Equal(t, http.StatusInternalServerError, w.Code)
	})
}

type failingGuard struct{}

func (failingGuard) Claim(context.Context, string, time.Duration) (bool, error) {
	return false, errors.New("storage unavailable")
}

func TestRequestURL(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "https://example.com/api/webhook?source=qstash", nil)
	require.Equal(t, "https://example.com/api/webhook?source=qstash", receiver.RequestURL(req))

	req = httptest.NewRequest(http.MethodPost, "http://localhost:3000/", nil)
	require.Equal(t, "http://localhost:3000/", receiver.RequestURL(req))
}

func newRecorderFor(t *testing.T, h http.Handler, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}
