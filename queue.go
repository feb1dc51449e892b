package qstash

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/lestrrat-go/qstash/transport"
)

// QueueClient manages queues. Messages enqueued to the same queue are
// delivered in order, by at most Parallelism concurrent deliveries.
type QueueClient struct {
	tr requester
}

// QueueRequest describes a queue to create or update.
type QueueRequest struct {
	Name        string `json:"queueName"`
	Parallelism int    `json:"parallelism"`
	Paused      bool   `json:"paused"`
}

// Queue describes an existing queue.
type Queue struct {
	Name        string `json:"name"`
	Parallelism int    `json:"parallelism"`
	Lag         int64  `json:"lag"`
	Paused      bool   `json:"paused"`
	CreatedAt   int64  `json:"createdAt,omitempty"`
	UpdatedAt   int64  `json:"updatedAt,omitempty"`
}

// Upsert creates a queue or updates the settings of an existing one.
func (c *QueueClient) Upsert(ctx context.Context, req *QueueRequest) error {
	if req.Name == "" {
		return ErrMissingQueue
	}
	body, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("failed to encode queue: %w", err)
	}

	if err := c.tr.Request(ctx, &transport.Request{
		Method: http.MethodPost,
		Path:   "/v2/queues/",
		Header: http.Header{"Content-Type": []string{"application/json"}},
		Body:   body,
	}, nil); err != nil {
		return fmt.Errorf("failed to upsert queue: %w", err)
	}
	return nil
}

// Get returns a queue by name.
func (c *QueueClient) Get(ctx context.Context, name string) (*Queue, error) {
	if name == "" {
		return nil, ErrMissingQueue
	}

	var q Queue
	if err := c.tr.Request(ctx, &transport.Request{
		Method: http.MethodGet,
		Path:   "/v2/queues/" + url.PathEscape(name),
	}, &q); err != nil {
		return nil, fmt.Errorf("failed to get queue: %w", err)
	}
	return &q, nil
}

// List returns every queue.
func (c *QueueClient) List(ctx context.Context) ([]Queue, error) {
	var list []Queue
	if err := c.tr.Request(ctx, &transport.Request{
		Method: http.MethodGet,
		Path:   "/v2/queues",
	}, &list); err != nil {
		return nil, fmt.Errorf("failed to list queues: %w", err)
	}
	return list, nil
}

// Delete removes a queue.
func (c *QueueClient) Delete(ctx context.Context, name string) error {
	return c.call(ctx, http.MethodDelete, name, "", "delete")
}

// Pause stops deliveries from a queue. Messages can still be enqueued.
func (c *QueueClient) Pause(ctx context.Context, name string) error {
	return c.call(ctx, http.MethodPost, name, "/pause", "pause")
}

// Resume restarts deliveries from a paused queue.
func (c *QueueClient) Resume(ctx context.Context, name string) error {
	return c.call(ctx, http.MethodPost, name, "/resume", "resume")
}

func (c *QueueClient) call(ctx context.Context, method, name, suffix, verb string) error {
	if name == "" {
		return ErrMissingQueue
	}
	if err := c.tr.Request(ctx, &transport.Request{
		Method: method,
		Path:   "/v2/queues/" + url.PathEscape(name) + suffix,
	}, nil); err != nil {
		return fmt.Errorf("failed to %s queue: %w", verb, err)
	}
	return nil
}
