package qstash_test

import (
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/lestrrat-go/qstash"
	"github.com/lestrrat-go/qstash/config"
	"github.com/stretchr/testify/require"
)

type recordedRequest struct {
	Method string
	Path   string
	Query  map[string][]string
	Header http.Header
	Body   []byte
}

type cannedResponse struct {
	Status      int
	ContentType string
	Body        string
}

// fakeQStash records every request and answers with canned responses keyed
// by "METHOD /path".
type fakeQStash struct {
	mu        sync.Mutex
	requests  []recordedRequest
	responses map[string]cannedResponse
}

func (f *fakeQStash) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)

	f.mu.Lock()
	f.requests = append(f.requests, recordedRequest{
		Method: r.Method,
		Path:   r.URL.Path,
		Query:  r.URL.Query(),
		Header: r.Header.Clone(),
		Body:   body,
	})
	res, ok := f.responses[r.Method+" "+r.URL.Path]
	f.mu.Unlock()

	if !ok {
		w.WriteHeader(http.StatusOK)
		return
	}
	if res.ContentType == "" {
		res.ContentType = "application/json"
	}
	if res.Status == 0 {
		res.Status = http.StatusOK
	}
	w.Header().Set("Content-Type", res.ContentType)
	w.WriteHeader(res.Status)
	_, _ = io.WriteString(w, res.Body)
}

func (f *fakeQStash) last(t *testing.T) recordedRequest {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	require.NotEmpty(t, f.requests, "expected at least one request")
	return f.requests[len(f.requests)-1]
}

func (f *fakeQStash) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.requests)
}

func newTestClient(t *testing.T, responses map[string]cannedResponse) (*qstash.Client, *fakeQStash) {
	t.Helper()
	fake := &fakeQStash{responses: responses}
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	client := qstash.New("test-token",
		qstash.WithBaseURL(srv.URL),
		qstash.WithHTTPClient(srv.Client()),
		qstash.WithoutRetry(),
	)
	return client, fake
}

func TestNewFromConfig(t *testing.T) {
	fake := &fakeQStash{responses: map[string]cannedResponse{
		"GET /v2/keys": {Body: `{"current":"sig_a","next":"sig_b"}`},
	}}
	srv := httptest.NewServer(fake)
	defer srv.Close()

	cfg, err := config.Load(config.WithEnvironment(map[string]string{
		"QSTASH_TOKEN":   "config-token",
		"QSTASH_URL":     srv.URL,
		"QSTASH_RETRIES": "0",
	}))
	require.NoError(t, err)

	client := qstash.NewFromConfig(cfg)
	require.Equal(t, srv.URL, client.Transport().BaseURL())

	keys, err := client.Keys.Get(t.Context())
	require.NoError(t, err)
	require.Equal(t, "sig_a", keys.Current)
	require.Equal(t, "sig_b", keys.Next)
	require.Equal(t, "Bearer config-token", fake.last(t).Header.Get("Authorization"))
}

func TestAPIError(t *testing.T) {
	client, fake := newTestClient(t, map[string]cannedResponse{
		"GET /v2/messages/msg_missing": {Status: http.StatusNotFound, Body: `{"error":"message not found"}`},
	})

	_, err := client.Message.Get(t.Context(), "msg_missing")
	var apiErr *qstash.APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, http.StatusNotFound, apiErr.StatusCode)
	require.Equal(t, "message not found", apiErr.Message())
	require.Equal(t, 1, fake.count())
}
