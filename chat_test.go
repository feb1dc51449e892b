package qstash_test

import (
	"encoding/json"
	"net/http"
	"strings"
	"testing"

	"github.com/lestrrat-go/qstash"
	"github.com/stretchr/testify/require"
)

func TestChatCreate(t *testing.T) {
	client, fake := newTestClient(t, map[string]cannedResponse{
		"POST /llm/v1/chat/completions": {Body: `{"id":"chat_1","object":"chat.completion","model":"meta-llama/Meta-Llama-3-8B-Instruct","choices":[{"index":0,"message":{"role":"assistant","content":"hi there"},"finish_reason":"stop"}],"usage":{"prompt_tokens":3,"completion_tokens":2,"total_tokens":5}}`},
	})

	res, err := client.Chat.Create(t.Context(), &qstash.ChatRequest{
		Model:    "meta-llama/Meta-Llama-3-8B-Instruct",
		Messages: []qstash.ChatMessage{{Role: "user", Content: "hello"}},
	})
	require.NoError(t, err)
	require.Equal(t, "hi there", res.Choices[0].Message.Content)
	require.Equal(t, 5, res.Usage.TotalTokens)

	var sent map[string]any
	require.NoError(t, json.Unmarshal(fake.last(t).Body, &sent))
	require.NotContains(t, sent, "stream")

	_, err = client.Chat.Create(t.Context(), &qstash.ChatRequest{})
	require.ErrorIs(t, err, qstash.ErrMissingModel)
}

func TestChatStream(t *testing.T) {
	events := []string{
		`data: {"id":"chat_1","choices":[{"index":0,"delta":{"role":"assistant","content":"hi"}}]}`,
		`data: {"id":"chat_1","choices":[{"index":0,"delta":{"content":" there"},"finish_reason":"stop"}]}`,
		`data: [DONE]`,
	}

	t.Run("chunks", func(t *testing.T) {
		client, fake := newTestClient(t, map[string]cannedResponse{
			"POST /llm/v1/chat/completions": {ContentType: "text/event-stream", Body: strings.Join(events, "\n\n") + "\n\n"},
		})

		stream, err := client.Chat.Stream(t.Context(), &qstash.ChatRequest{
			Model:    "meta-llama/Meta-Llama-3-8B-Instruct",
			Messages: []qstash.ChatMessage{{Role: "user", Content: "hello"}},
		})
		require.NoError(t, err)
		defer stream.Close()

		var content strings.Builder
		var chunks int
		for stream.Next() {
			chunks++
			content.WriteString(stream.Chunk().Choices[0].Delta.Content)
		}
		require.NoError(t, stream.Err())
		require.Equal(t, 2, chunks)
		require.Equal(t, "hi there", content.String())

		req := fake.last(t)
		require.Equal(t, "text/event-stream", req.Header.Get("Accept"))
		var sent map[string]any
		require.NoError(t, json.Unmarshal(req.Body, &sent))
		require.Equal(t, true, sent["stream"])
	})

	t.Run("error event", func(t *testing.T) {
		client, _ := newTestClient(t, map[string]cannedResponse{
			"POST /llm/v1/chat/completions": {ContentType: "text/event-stream", Body: "data: {\"error\":\"model overloaded\"}\n\n"},
		})

		stream, err := client.Chat.Stream(t.Context(), &qstash.ChatRequest{Model: "m"})
		require.NoError(t, err)
		defer stream.Close()

		require.False(t, stream.Next())
		require.ErrorContains(t, stream.Err(), "model overloaded")
	})

	t.Run("non-2xx", func(t *testing.T) {
		client, _ := newTestClient(t, map[string]cannedResponse{
			"POST /llm/v1/chat/completions": {Status: http.StatusUnauthorized, Body: `{"error":"invalid token"}`},
		})

		_, err := client.Chat.Stream(t.Context(), &qstash.ChatRequest{Model: "m"})
		var apiErr *qstash.APIError
		require.ErrorAs(t, err, &apiErr)
		require.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)
	})
}
