package qstash

import (
	"context"
	"net/http"

	"github.com/lestrrat-go/qstash/config"
	"github.com/lestrrat-go/qstash/transport"
)

// requester is the part of the transport the resource clients use.
type requester interface {
	Request(ctx context.Context, req *transport.Request, dst any) error
	Stream(ctx context.Context, req *transport.Request) (*http.Response, error)
}

// Client groups the resource clients of the QStash API. It is safe for
// concurrent use.
type Client struct {
	Message  *MessageClient
	Schedule *ScheduleClient
	Queue    *QueueClient
	URLGroup *URLGroupClient
	Event    *EventClient
	Keys     *KeysClient
	Chat     *ChatClient

	transport *transport.Client
}

// New creates a Client authenticating with token.
func New(token string, options ...ClientOption) *Client {
	tr := transport.New(token, options...)
	return &Client{
		Message:   &MessageClient{tr: tr},
		Schedule:  &ScheduleClient{tr: tr},
		Queue:     &QueueClient{tr: tr},
		URLGroup:  &URLGroupClient{tr: tr},
		Event:     &EventClient{tr: tr},
		Keys:      &KeysClient{tr: tr},
		Chat:      &ChatClient{tr: tr},
		transport: tr,
	}
}

// NewFromConfig creates a Client from cfg. Options given explicitly take
// precedence over cfg.
func NewFromConfig(cfg *config.Config, options ...ClientOption) *Client {
	retry := transport.DefaultRetry()
	retry.Retries = cfg.Retries

	base := []ClientOption{
		transport.WithBaseURL(cfg.BaseURL),
		transport.WithRetry(retry),
	}
	return New(cfg.Token, append(base, options...)...)
}

// Transport returns the transport shared by the resource clients.
func (c *Client) Transport() *transport.Client {
	return c.transport
}
