package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/lestrrat-go/blackmagic"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

// DefaultBaseURL is the QStash API endpoint.
const DefaultBaseURL = "https://qstash.upstash.io"

// Request describes a single API call.
type Request struct {
	Method string
	// Path is appended to the client's base URL. It may carry its own
	// query string.
	Path   string
	Header http.Header
	Body   []byte
	// Query values are merged into the query string of Path.
	Query url.Values
	// RawResponse makes Request assign the response body as text instead
	// of decoding it as JSON.
	RawResponse bool
}

// Client sends authenticated requests to the QStash API. It is safe for
// concurrent use.
type Client struct {
	baseURL    string
	httpClient *http.Client
	retry      RetryConfig
	logger     *slog.Logger
	tracer     trace.Tracer
}

// New creates a Client that authenticates with token.
func New(token string, options ...ClientOption) *Client {
	baseURL := DefaultBaseURL
	retry := DefaultRetry()
	logger := slog.New(slog.DiscardHandler)
	var hc *http.Client
	var tp trace.TracerProvider
	for _, opt := range options {
		switch opt.Ident() {
		case identRetry{}:
			retry = opt.Value().(RetryConfig)
		case identBaseURL{}:
			if v := opt.Value().(string); v != "" {
				baseURL = v
			}
		case identHTTPClient{}:
			hc = opt.Value().(*http.Client)
		case identLogger{}:
			if v := opt.Value().(*slog.Logger); v != nil {
				logger = v
			}
		case identTracerProvider{}:
			tp = opt.Value().(trace.TracerProvider)
		}
	}

	if tp == nil {
		tp = otel.GetTracerProvider()
	}

	return &Client{
		baseURL:    baseURL,
		httpClient: wrapClient(hc, token),
		retry:      retry,
		logger:     logger,
		tracer:     tp.Tracer(tracerName),
	}
}

// BaseURL returns the URL that request paths are resolved against.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Request sends req and buffers the response.
//
// On a 2xx status the body is decoded into dst: as JSON by default, or as
// a string when req.RawResponse is set, in which case dst must be a
// *string or *any. dst may be nil to discard the body. Any other status
// yields an *APIError.
func (c *Client) Request(ctx context.Context, req *Request, dst any) error {
	res, err := c.do(ctx, req)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	if err := checkStatus(res, body); err != nil {
		return err
	}

	if dst == nil {
		return nil
	}

	if req.RawResponse {
		if err := blackmagic.AssignIfCompatible(dst, string(body)); err != nil {
			return fmt.Errorf("failed to assign response body: %w", err)
		}
		return nil
	}

	if len(bytes.TrimSpace(body)) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, dst); err != nil {
		return fmt.Errorf("failed to decode response body: %w", err)
	}
	return nil
}

// Stream sends req and returns the open response. The caller must close
// the response Body. On a non-2xx status the body is drained and closed
// before the *APIError is returned.
func (c *Client) Stream(ctx context.Context, req *Request) (*http.Response, error) {
	res, err := c.do(ctx, req)
	if err != nil {
		return nil, err
	}

	if res.StatusCode >= 200 && res.StatusCode < 300 {
		return res, nil
	}

	body, _ := io.ReadAll(res.Body)
	res.Body.Close()
	return nil, checkStatus(res, body)
}

// do runs the retry loop. It returns the first response obtained, or the
// error of the last attempt as is.
func (c *Client) do(ctx context.Context, req *Request) (*http.Response, error) {
	base, err := c.newRequest(ctx, req)
	if err != nil {
		return nil, err
	}

	attempts := c.retry.attempts()
	var lastErr error
	for attempt := range attempts {
		if attempt > 0 {
			wait := c.retry.wait(attempt - 1)
			c.logger.DebugContext(ctx, "retrying request",
				slog.String("method", base.Method),
				slog.String("path", req.Path),
				slog.Int("attempt", attempt),
				slog.Duration("backoff", wait),
			)
			if err := sleep(ctx, wait); err != nil {
				return nil, err
			}
		}

		res, err := c.attempt(ctx, base, req.Path, attempt)
		if err == nil {
			return res, nil
		}
		lastErr = err
		c.logger.DebugContext(ctx, "request attempt failed",
			slog.String("method", base.Method),
			slog.String("path", req.Path),
			slog.Int("attempt", attempt),
			slog.Any("error", err),
		)
	}

	c.logger.WarnContext(ctx, "request failed",
		slog.String("method", base.Method),
		slog.String("path", req.Path),
		slog.Int("attempts", attempts),
		slog.Any("error", lastErr),
	)
	return nil, lastErr
}

func (c *Client) attempt(ctx context.Context, base *http.Request, path string, n int) (*http.Response, error) {
	ctx, span := startAttemptSpan(ctx, c.tracer, base.Method, path, n)

	hreq := base.Clone(ctx)
	if base.GetBody != nil {
		body, err := base.GetBody()
		if err != nil {
			endAttemptSpan(span, 0, err)
			return nil, err
		}
		hreq.Body = body
	}

	res, err := c.httpClient.Do(hreq)
	if err != nil {
		endAttemptSpan(span, 0, err)
		return nil, err
	}
	endAttemptSpan(span, res.StatusCode, nil)
	return res, nil
}

func (c *Client) newRequest(ctx context.Context, req *Request) (*http.Request, error) {
	u, err := url.Parse(c.baseURL + req.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to parse request URL: %w", err)
	}

	if len(req.Query) > 0 {
		q := u.Query()
		for k, vs := range req.Query {
			for _, v := range vs {
				q.Add(k, v)
			}
		}
		u.RawQuery = q.Encode()
	}

	method := req.Method
	if method == "" {
		method = http.MethodGet
	}

	var body io.Reader
	if req.Body != nil {
		body = bytes.NewReader(req.Body)
	}

	hreq, err := http.NewRequestWithContext(ctx, method, u.String(), body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	for k, vs := range req.Header {
		for _, v := range vs {
			hreq.Header.Add(k, v)
		}
	}
	return hreq, nil
}
