package qstash

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/lestrrat-go/qstash/transport"
	"github.com/openai/openai-go/packages/ssestream"
)

const chatCompletionsPath = "/llm/v1/chat/completions"

// ChatClient calls the OpenAI compatible chat completion API hosted by
// QStash.
type ChatClient struct {
	tr requester
}

// ChatMessage is one message of a conversation.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatRequest describes a chat completion. Stream is set by the client.
type ChatRequest struct {
	Model            string         `json:"model"`
	Messages         []ChatMessage  `json:"messages"`
	MaxTokens        int            `json:"max_tokens,omitempty"`
	Temperature      *float64       `json:"temperature,omitempty"`
	TopP             *float64       `json:"top_p,omitempty"`
	N                int            `json:"n,omitempty"`
	Stop             []string       `json:"stop,omitempty"`
	PresencePenalty  *float64       `json:"presence_penalty,omitempty"`
	FrequencyPenalty *float64       `json:"frequency_penalty,omitempty"`
	Seed             *int           `json:"seed,omitempty"`
	LogitBias        map[string]int `json:"logit_bias,omitempty"`
	User             string         `json:"user,omitempty"`
	Stream           bool           `json:"stream,omitempty"`
}

// ChatUsage reports the tokens consumed by a completion.
type ChatUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// ChatChoice is one completion candidate.
type ChatChoice struct {
	Index        int         `json:"index"`
	Message      ChatMessage `json:"message"`
	FinishReason string      `json:"finish_reason"`
}

// ChatCompletion is the response of a buffered completion.
type ChatCompletion struct {
	ID      string       `json:"id"`
	Object  string       `json:"object"`
	Created int64        `json:"created"`
	Model   string       `json:"model"`
	Choices []ChatChoice `json:"choices"`
	Usage   *ChatUsage   `json:"usage,omitempty"`
}

// ChatChunkChoice is the increment of one candidate in a streamed
// completion.
type ChatChunkChoice struct {
	Index        int         `json:"index"`
	Delta        ChatMessage `json:"delta"`
	FinishReason string      `json:"finish_reason,omitempty"`
}

// ChatChunk is one event of a streamed completion.
type ChatChunk struct {
	ID      string            `json:"id"`
	Object  string            `json:"object"`
	Created int64             `json:"created"`
	Model   string            `json:"model"`
	Choices []ChatChunkChoice `json:"choices"`
	Usage   *ChatUsage        `json:"usage,omitempty"`
}

func (req ChatRequest) encode(stream bool) (*transport.Request, error) {
	if req.Model == "" {
		return nil, ErrMissingModel
	}
	req.Stream = stream
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to encode chat request: %w", err)
	}

	h := http.Header{"Content-Type": []string{"application/json"}}
	if stream {
		h.Set("Accept", "text/event-stream")
		h.Set("Connection", "keep-alive")
		h.Set("Cache-Control", "no-cache")
	}
	return &transport.Request{
		Method: http.MethodPost,
		Path:   chatCompletionsPath,
		Header: h,
		Body:   body,
	}, nil
}

// Create runs a completion and waits for the full response.
func (c *ChatClient) Create(ctx context.Context, req *ChatRequest) (*ChatCompletion, error) {
	treq, err := req.encode(false)
	if err != nil {
		return nil, err
	}

	var res ChatCompletion
	if err := c.tr.Request(ctx, treq, &res); err != nil {
		return nil, fmt.Errorf("failed to create chat completion: %w", err)
	}
	return &res, nil
}

// Stream runs a completion and returns its chunks as they are produced.
// The returned stream must be closed.
func (c *ChatClient) Stream(ctx context.Context, req *ChatRequest) (*ChatStream, error) {
	treq, err := req.encode(true)
	if err != nil {
		return nil, err
	}

	res, err := c.tr.Stream(ctx, treq)
	if err != nil {
		return nil, fmt.Errorf("failed to stream chat completion: %w", err)
	}
	return &ChatStream{
		stream: ssestream.NewStream[ChatChunk](ssestream.NewDecoder(res), nil),
	}, nil
}

// ChatStream iterates over the chunks of a streamed completion.
//
//	for stream.Next() {
//		chunk := stream.Chunk()
//		...
//	}
//	if err := stream.Err(); err != nil {
//		...
//	}
type ChatStream struct {
	stream *ssestream.Stream[ChatChunk]
}

// Next advances to the next chunk. It returns false at the end of the
// stream or on error.
func (s *ChatStream) Next() bool {
	return s.stream.Next()
}

// Chunk returns the current chunk.
func (s *ChatStream) Chunk() ChatChunk {
	return s.stream.Current()
}

// Err returns the error that stopped the iteration, if any.
func (s *ChatStream) Err() error {
	return s.stream.Err()
}

// Close releases the underlying connection.
func (s *ChatStream) Close() error {
	return s.stream.Close()
}
