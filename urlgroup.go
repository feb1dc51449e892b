package qstash

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/lestrrat-go/qstash/transport"
)

// URLGroupClient manages URL groups. A message published to a URL group
// is delivered to each of its endpoints.
type URLGroupClient struct {
	tr requester
}

// Endpoint is a member of a URL group. When removing endpoints, either
// field identifies the endpoint.
type Endpoint struct {
	Name string `json:"name,omitempty"`
	URL  string `json:"url,omitempty"`
}

// URLGroup describes a URL group and its endpoints.
type URLGroup struct {
	Name      string     `json:"name"`
	CreatedAt int64      `json:"createdAt,omitempty"`
	UpdatedAt int64      `json:"updatedAt,omitempty"`
	Endpoints []Endpoint `json:"endpoints"`
}

// UpsertEndpoints adds endpoints to a URL group, creating the group when it
// does not exist.
func (c *URLGroupClient) UpsertEndpoints(ctx context.Context, name string, endpoints ...Endpoint) error {
	return c.endpoints(ctx, http.MethodPost, name, endpoints, "upsert")
}

// RemoveEndpoints removes endpoints from a URL group.
func (c *URLGroupClient) RemoveEndpoints(ctx context.Context, name string, endpoints ...Endpoint) error {
	return c.endpoints(ctx, http.MethodDelete, name, endpoints, "remove")
}

func (c *URLGroupClient) endpoints(ctx context.Context, method, name string, endpoints []Endpoint, verb string) error {
	if name == "" {
		return ErrMissingID
	}
	for i, ep := range endpoints {
		if ep.Name == "" && ep.URL == "" {
			return fmt.Errorf("endpoint at index %d: %w", i, ErrMissingDestination)
		}
	}

	body, err := json.Marshal(map[string][]Endpoint{"endpoints": endpoints})
	if err != nil {
		return fmt.Errorf("failed to encode endpoints: %w", err)
	}

	if err := c.tr.Request(ctx, &transport.Request{
		Method: method,
		Path:   "/v2/topics/" + url.PathEscape(name) + "/endpoints",
		Header: http.Header{"Content-Type": []string{"application/json"}},
		Body:   body,
	}, nil); err != nil {
		return fmt.Errorf("failed to %s endpoints: %w", verb, err)
	}
	return nil
}

// Get returns a URL group by name.
func (c *URLGroupClient) Get(ctx context.Context, name string) (*URLGroup, error) {
	if name == "" {
		return nil, ErrMissingID
	}

	var g URLGroup
	if err := c.tr.Request(ctx, &transport.Request{
		Method: http.MethodGet,
		Path:   "/v2/topics/" + url.PathEscape(name),
	}, &g); err != nil {
		return nil, fmt.Errorf("failed to get url group: %w", err)
	}
	return &g, nil
}

// List returns every URL group.
func (c *URLGroupClient) List(ctx context.Context) ([]URLGroup, error) {
	var list []URLGroup
	if err := c.tr.Request(ctx, &transport.Request{
		Method: http.MethodGet,
		Path:   "/v2/topics",
	}, &list); err != nil {
		return nil, fmt.Errorf("failed to list url groups: %w", err)
	}
	return list, nil
}

// Delete removes a URL group and its endpoints.
func (c *URLGroupClient) Delete(ctx context.Context, name string) error {
	if name == "" {
		return ErrMissingID
	}
	if err := c.tr.Request(ctx, &transport.Request{
		Method: http.MethodDelete,
		Path:   "/v2/topics/" + url.PathEscape(name),
	}, nil); err != nil {
		return fmt.Errorf("failed to delete url group: %w", err)
	}
	return nil
}
