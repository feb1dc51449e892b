package qstash

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/lestrrat-go/qstash/transport"
)

// MessageClient publishes messages and manages messages that are not yet
// delivered.
type MessageClient struct {
	tr requester
}

// PublishRequest describes a message to publish.
type PublishRequest struct {
	Destination
	DeliveryOptions

	Body []byte
	// NotBefore delays the delivery until the given time. It takes
	// precedence over Delay on the server.
	NotBefore time.Time
	// DeduplicationID makes QStash drop messages published with an id it
	// has seen recently.
	DeduplicationID string
	// ContentBasedDeduplication derives the deduplication id from the
	// destination, body and headers.
	ContentBasedDeduplication bool
}

// PublishJSONRequest publishes Payload encoded as JSON.
type PublishJSONRequest struct {
	PublishRequest
	Payload any
}

// PublishResponse identifies a published message. Messages published to
// a URL group produce one response per endpoint, each with the URL of
// the endpoint set.
type PublishResponse struct {
	MessageID    string `json:"messageId"`
	URL          string `json:"url,omitempty"`
	Deduplicated bool   `json:"deduplicated,omitempty"`
}

// PublishResponses is the result of a single publish: one element for a
// URL or API destination, one element per endpoint for a URL group.
type PublishResponses []PublishResponse

func (r *PublishResponses) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '[' {
		var list []PublishResponse
		if err := json.Unmarshal(data, &list); err != nil {
			return err
		}
		*r = list
		return nil
	}

	var single PublishResponse
	if err := json.Unmarshal(data, &single); err != nil {
		return err
	}
	*r = PublishResponses{single}
	return nil
}

// NewDeduplicationID returns a random id suitable for
// PublishRequest.DeduplicationID.
func NewDeduplicationID() string {
	return uuid.NewString()
}

func (p *PublishRequest) header() http.Header {
	h := make(http.Header)
	p.DeliveryOptions.apply(h)
	if !p.NotBefore.IsZero() {
		h.Set(headerPrefix+"Not-Before", strconv.FormatInt(p.NotBefore.Unix(), 10))
	}
	if p.DeduplicationID != "" {
		h.Set(headerPrefix+"Deduplication-Id", p.DeduplicationID)
	}
	if p.ContentBasedDeduplication {
		h.Set(headerPrefix+"Content-Based-Deduplication", "true")
	}
	return h
}

func (p *PublishJSONRequest) encode() (*PublishRequest, error) {
	body, err := json.Marshal(p.Payload)
	if err != nil {
		return nil, fmt.Errorf("failed to encode payload: %w", err)
	}
	req := p.PublishRequest
	req.Body = body
	if req.ContentType == "" {
		req.ContentType = "application/json"
	}
	return &req, nil
}

// Publish sends a message to its destination.
func (c *MessageClient) Publish(ctx context.Context, req *PublishRequest) (PublishResponses, error) {
	dest, err := req.path()
	if err != nil {
		return nil, err
	}

	var res PublishResponses
	if err := c.tr.Request(ctx, &transport.Request{
		Method: http.MethodPost,
		Path:   "/v2/publish/" + dest,
		Header: req.header(),
		Body:   req.Body,
	}, &res); err != nil {
		return nil, fmt.Errorf("failed to publish message: %w", err)
	}
	return res, nil
}

// PublishJSON is like Publish, with the body encoded from req.Payload.
func (c *MessageClient) PublishJSON(ctx context.Context, req *PublishJSONRequest) (PublishResponses, error) {
	preq, err := req.encode()
	if err != nil {
		return nil, err
	}
	return c.Publish(ctx, preq)
}

// EnqueueRequest describes a message to append to a queue.
type EnqueueRequest struct {
	PublishRequest
	Queue string
}

// EnqueueJSONRequest enqueues Payload encoded as JSON.
type EnqueueJSONRequest struct {
	PublishJSONRequest
	Queue string
}

// Enqueue appends a message to a queue. The queue is created when it
// does not exist.
func (c *MessageClient) Enqueue(ctx context.Context, req *EnqueueRequest) (PublishResponses, error) {
	if req.Queue == "" {
		return nil, ErrMissingQueue
	}
	dest, err := req.path()
	if err != nil {
		return nil, err
	}

	var res PublishResponses
	if err := c.tr.Request(ctx, &transport.Request{
		Method: http.MethodPost,
		Path:   "/v2/enqueue/" + url.PathEscape(req.Queue) + "/" + dest,
		Header: req.header(),
		Body:   req.Body,
	}, &res); err != nil {
		return nil, fmt.Errorf("failed to enqueue message: %w", err)
	}
	return res, nil
}

// EnqueueJSON is like Enqueue, with the body encoded from req.Payload.
func (c *MessageClient) EnqueueJSON(ctx context.Context, req *EnqueueJSONRequest) (PublishResponses, error) {
	preq, err := req.encode()
	if err != nil {
		return nil, err
	}
	return c.Enqueue(ctx, &EnqueueRequest{PublishRequest: *preq, Queue: req.Queue})
}

// BatchRequest is one message of a batch. Queue, when set, enqueues the
// message instead of publishing it.
type BatchRequest struct {
	PublishRequest
	Queue string
}

// BatchJSONRequest is one JSON message of a batch.
type BatchJSONRequest struct {
	PublishJSONRequest
	Queue string
}

type batchEntry struct {
	Destination string              `json:"destination"`
	Headers     map[string][]string `json:"headers,omitempty"`
	Body        string              `json:"body,omitempty"`
	Queue       string              `json:"queue,omitempty"`
}

// Batch publishes several messages in one request. The result holds the
// responses of each message, in order.
func (c *MessageClient) Batch(ctx context.Context, reqs []BatchRequest) ([]PublishResponses, error) {
	entries := make([]batchEntry, 0, len(reqs))
	for i := range reqs {
		dest, err := reqs[i].path()
		if err != nil {
			return nil, fmt.Errorf("invalid message at index %d: %w", i, err)
		}
		entries = append(entries, batchEntry{
			Destination: dest,
			Headers:     reqs[i].header(),
			Body:        string(reqs[i].Body),
			Queue:       reqs[i].Queue,
		})
	}

	body, err := json.Marshal(entries)
	if err != nil {
		return nil, fmt.Errorf("failed to encode batch: %w", err)
	}

	var res []PublishResponses
	if err := c.tr.Request(ctx, &transport.Request{
		Method: http.MethodPost,
		Path:   "/v2/batch",
		Header: http.Header{"Content-Type": []string{"application/json"}},
		Body:   body,
	}, &res); err != nil {
		return nil, fmt.Errorf("failed to publish batch: %w", err)
	}
	return res, nil
}

// BatchJSON is like Batch, with each body encoded from its Payload.
func (c *MessageClient) BatchJSON(ctx context.Context, reqs []BatchJSONRequest) ([]PublishResponses, error) {
	batch := make([]BatchRequest, 0, len(reqs))
	for i := range reqs {
		preq, err := reqs[i].encode()
		if err != nil {
			return nil, fmt.Errorf("invalid message at index %d: %w", i, err)
		}
		batch = append(batch, BatchRequest{PublishRequest: *preq, Queue: reqs[i].Queue})
	}
	return c.Batch(ctx, batch)
}

// Message is a message that QStash has not finished delivering.
type Message struct {
	MessageID       string              `json:"messageId"`
	URL             string              `json:"url,omitempty"`
	URLGroup        string              `json:"topicName,omitempty"`
	Endpoint        string              `json:"endpointName,omitempty"`
	API             string              `json:"api,omitempty"`
	Queue           string              `json:"queueName,omitempty"`
	ScheduleID      string              `json:"scheduleId,omitempty"`
	Method          string              `json:"method,omitempty"`
	Header          map[string][]string `json:"header,omitempty"`
	Body            string              `json:"body,omitempty"`
	MaxRetries      int                 `json:"maxRetries,omitempty"`
	NotBefore       int64               `json:"notBefore,omitempty"`
	CreatedAt       int64               `json:"createdAt,omitempty"`
	Callback        string              `json:"callback,omitempty"`
	FailureCallback string              `json:"failureCallback,omitempty"`
	CallerIP        string              `json:"callerIP,omitempty"`
}

// Get returns a message by id.
func (c *MessageClient) Get(ctx context.Context, messageID string) (*Message, error) {
	if messageID == "" {
		return nil, ErrMissingID
	}

	var msg Message
	if err := c.tr.Request(ctx, &transport.Request{
		Method: http.MethodGet,
		Path:   "/v2/messages/" + url.PathEscape(messageID),
	}, &msg); err != nil {
		return nil, fmt.Errorf("failed to get message: %w", err)
	}
	return &msg, nil
}

// Cancel stops the delivery of a message.
func (c *MessageClient) Cancel(ctx context.Context, messageID string) error {
	if messageID == "" {
		return ErrMissingID
	}

	if err := c.tr.Request(ctx, &transport.Request{
		Method: http.MethodDelete,
		Path:   "/v2/messages/" + url.PathEscape(messageID),
	}, nil); err != nil {
		return fmt.Errorf("failed to cancel message: %w", err)
	}
	return nil
}

type cancelResponse struct {
	Cancelled int `json:"cancelled"`
}

// CancelMany stops the delivery of the given messages and returns the
// number of messages cancelled.
func (c *MessageClient) CancelMany(ctx context.Context, messageIDs []string) (int, error) {
	body, err := json.Marshal(map[string][]string{"messageIds": messageIDs})
	if err != nil {
		return 0, fmt.Errorf("failed to encode message ids: %w", err)
	}

	var res cancelResponse
	if err := c.tr.Request(ctx, &transport.Request{
		Method: http.MethodDelete,
		Path:   "/v2/messages",
		Header: http.Header{"Content-Type": []string{"application/json"}},
		Body:   body,
	}, &res); err != nil {
		return 0, fmt.Errorf("failed to cancel messages: %w", err)
	}
	return res.Cancelled, nil
}

// CancelAll stops the delivery of every pending message and returns the
// number of messages cancelled.
func (c *MessageClient) CancelAll(ctx context.Context) (int, error) {
	var res cancelResponse
	if err := c.tr.Request(ctx, &transport.Request{
		Method: http.MethodDelete,
		Path:   "/v2/messages",
	}, &res); err != nil {
		return 0, fmt.Errorf("failed to cancel messages: %w", err)
	}
	return res.Cancelled, nil
}
