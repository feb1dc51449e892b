package transport

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"
)

// APIError is returned when the server answers with a non-2xx status.
type APIError struct {
	StatusCode int
	Body       string
	Header     http.Header
}

func (e *APIError) Error() string {
	if msg := e.Message(); msg != "" {
		return fmt.Sprintf("qstash: unexpected status %d: %s", e.StatusCode, msg)
	}
	return fmt.Sprintf("qstash: unexpected status %d", e.StatusCode)
}

// Message returns the "error" field of a JSON error body, or the raw body
// when it is not JSON.
func (e *APIError) Message() string {
	var payload struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal([]byte(e.Body), &payload); err == nil && payload.Error != "" {
		return payload.Error
	}
	return e.Body
}

// RateLimit describes the rate limit headers attached to a response.
type RateLimit struct {
	Limit     int64
	Remaining int64
	Reset     time.Time
}

var rateLimitPrefixes = []string{"Burst-RateLimit-", "RateLimit-"}

// RateLimit reports the rate limit attached to the error response, if the
// server sent one. Burst limits take precedence over daily limits.
func (e *APIError) RateLimit() (RateLimit, bool) {
	if e.Header == nil {
		return RateLimit{}, false
	}

	for _, prefix := range rateLimitPrefixes {
		limit := e.Header.Get(prefix + "Limit")
		if limit == "" {
			continue
		}

		var rl RateLimit
		rl.Limit, _ = strconv.ParseInt(limit, 10, 64)
		rl.Remaining, _ = strconv.ParseInt(e.Header.Get(prefix+"Remaining"), 10, 64)
		if reset, err := strconv.ParseInt(e.Header.Get(prefix+"Reset"), 10, 64); err == nil {
			rl.Reset = time.Unix(reset, 0)
		}
		return rl, true
	}
	return RateLimit{}, false
}

func checkStatus(res *http.Response, body []byte) error {
	if res.StatusCode >= 200 && res.StatusCode < 300 {
		return nil
	}
	return &APIError{
		StatusCode: res.StatusCode,
		Body:       string(body),
		Header:     res.Header.Clone(),
	}
}
