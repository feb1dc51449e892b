// Package transport implements the HTTP layer shared by every QStash
// resource client.
//
// A Client authenticates each request with a bearer token and retries
// requests whose network round trip fails to complete. Responses are
// never retried based on their status code: once the server answers,
// the loop stops and a non-2xx status is reported as an *APIError.
//
//	cl := transport.New(token, transport.WithRetry(transport.DefaultRetry()))
//
//	var res struct {
//		MessageID string `json:"messageId"`
//	}
//	err := cl.Request(ctx, &transport.Request{
//		Method: http.MethodPost,
//		Path:   "/v2/publish/https://example.com",
//		Body:   []byte(`hello`),
//	}, &res)
//
// Two operations are provided. Request buffers the response and decodes
// it, either as JSON or as raw text. Stream hands the live response to
// the caller, who must close its Body.
package transport
