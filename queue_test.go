package qstash_test

import (
	"net/http"
	"testing"

	"github.com/lestrrat-go/qstash"
	"github.com/stretchr/testify/require"
)

func TestQueue(t *testing.T) {
	client, fake := newTestClient(t, map[string]cannedResponse{
		"GET /v2/queues/test_queue": {Body: `{"name":"test_queue","parallelism":2,"lag":5,"paused":false}`},
		"GET /v2/queues":            {Body: `[{"name":"test_queue","parallelism":2}]`},
	})

	t.Run("upsert", func(t *testing.T) {
		require.NoError(t, client.Queue.Upsert(t.Context(), &qstash.QueueRequest{Name: "test_queue", Parallelism: 2}))
		req := fake.last(t)
		require.Equal(t, http.MethodPost, req.Method)
		require.Equal(t, "/v2/queues/", req.Path)
		require.JSONEq(t, `{"queueName":"test_queue","parallelism":2,"paused":false}`, string(req.Body))
	})

	t.Run("get", func(t *testing.T) {
		q, err := client.Queue.Get(t.Context(), "test_queue")
		require.NoError(t, err)
		require.Equal(t, &qstash.Queue{Name: "test_queue", Parallelism: 2, Lag: 5}, q)
	})

	t.Run("list", func(t *testing.T) {
		list, err := client.Queue.List(t.Context())
		require.NoError(t, err)
		require.Len(t, list, 1)
	})

	t.Run("pause, resume and delete", func(t *testing.T) {
		require.NoError(t, client.Queue.Pause(t.Context(), "test_queue"))
		require.Equal(t, "/v2/queues/test_queue/pause", fake.last(t).Path)

		require.NoError(t, client.Queue.Resume(t.Context(), "test_queue"))
		require.Equal(t, "/v2/queues/test_queue/resume", fake.last(t).Path)

		require.NoError(t, client.Queue.Delete(t.Context(), "test_queue"))
		req := fake.last(t)
		require.Equal(t, http.MethodDelete, req.Method)
		require.Equal(t, "/v2/queues/test_queue", req.Path)
	})

	t.Run("missing name", func(t *testing.T) {
		require.ErrorIs(t, client.Queue.Upsert(t.Context(), &qstash.QueueRequest{}), qstash.ErrMissingQueue)
		require.ErrorIs(t, client.Queue.Pause(t.Context(), ""), qstash.ErrMissingQueue)
	})
}
