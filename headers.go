package qstash

import (
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const (
	headerPrefix        = "Upstash-"
	forwardHeaderPrefix = "Upstash-Forward-"
)

// DeliveryOptions control how QStash delivers a message to its
// destination. Zero values leave the server defaults in place.
type DeliveryOptions struct {
	// ContentType of the message body, forwarded to the destination.
	ContentType string
	// Method used to call the destination. QStash defaults to POST.
	Method string
	// Header is forwarded to the destination. Keys starting with
	// "Upstash-" are sent to QStash as is.
	Header http.Header
	// Retries overrides the number of delivery retries when not nil.
	Retries *int
	// Callback receives the response of the destination.
	Callback string
	// FailureCallback is called when every delivery attempt failed.
	FailureCallback string
	// Delay postpones the delivery. Sub-second precision is dropped.
	Delay time.Duration
	// Timeout bounds each call to the destination.
	Timeout time.Duration
}

// Retries returns a pointer to n, for use in DeliveryOptions.
func Retries(n int) *int {
	return &n
}

func (o *DeliveryOptions) apply(h http.Header) {
	for k, vs := range o.Header {
		name := k
		if !strings.HasPrefix(strings.ToLower(k), "upstash-") {
			name = forwardHeaderPrefix + k
		}
		for _, v := range vs {
			h.Add(name, v)
		}
	}

	if o.ContentType != "" {
		h.Set("Content-Type", o.ContentType)
	}
	if o.Method != "" {
		h.Set(headerPrefix+"Method", o.Method)
	}
	if o.Retries != nil {
		h.Set(headerPrefix+"Retries", strconv.Itoa(*o.Retries))
	}
	if o.Callback != "" {
		h.Set(headerPrefix+"Callback", o.Callback)
	}
	if o.FailureCallback != "" {
		h.Set(headerPrefix+"Failure-Callback", o.FailureCallback)
	}
	if o.Delay > 0 {
		h.Set(headerPrefix+"Delay", formatSeconds(o.Delay))
	}
	if o.Timeout > 0 {
		h.Set(headerPrefix+"Timeout", formatSeconds(o.Timeout))
	}
}

func formatSeconds(d time.Duration) string {
	return strconv.FormatInt(int64(d/time.Second), 10) + "s"
}

// Destination selects where a message is delivered. Exactly one field
// must be set.
type Destination struct {
	// URL of the endpoint.
	URL string
	// URLGroup delivers the message to every endpoint of the group.
	URLGroup string
	// API delivers the message to a QStash provided API, such as "llm".
	API string
}

// path returns the destination as it appears in request paths.
func (d Destination) path() (string, error) {
	var set int
	var dest string
	if d.URL != "" {
		set++
		dest = d.URL
	}
	if d.URLGroup != "" {
		set++
		dest = url.PathEscape(d.URLGroup)
	}
	if d.API != "" {
		set++
		dest = "api/" + url.PathEscape(d.API)
	}

	switch set {
	case 0:
		return "", ErrMissingDestination
	case 1:
		return dest, nil
	default:
		return "", ErrMultipleDestinations
	}
}
