package qstash

import (
	"context"
	"fmt"
	"net/http"

	"github.com/lestrrat-go/qstash/receiver"
	"github.com/lestrrat-go/qstash/transport"
)

// KeysClient reads and rotates the signing keys of the account.
type KeysClient struct {
	tr requester
}

// Get returns the current and next signing keys.
func (c *KeysClient) Get(ctx context.Context) (*receiver.SigningKeyPair, error) {
	var keys receiver.SigningKeyPair
	if err := c.tr.Request(ctx, &transport.Request{
		Method: http.MethodGet,
		Path:   "/v2/keys",
	}, &keys); err != nil {
		return nil, fmt.Errorf("failed to get signing keys: %w", err)
	}
	return &keys, nil
}

// Rotate promotes the next key to current and generates a new next key.
// Deliveries signed with the old current key fail verification once a
// receiver is configured with the returned pair.
func (c *KeysClient) Rotate(ctx context.Context) (*receiver.SigningKeyPair, error) {
	var keys receiver.SigningKeyPair
	if err := c.tr.Request(ctx, &transport.Request{
		Method: http.MethodPost,
		Path:   "/v2/keys/rotate",
	}, &keys); err != nil {
		return nil, fmt.Errorf("failed to rotate signing keys: %w", err)
	}
	return &keys, nil
}
