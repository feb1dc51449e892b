package qstash

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/lestrrat-go/qstash/transport"
)

// EventClient lists the delivery log.
type EventClient struct {
	tr requester
}

// EventState is the state of a message recorded by an event.
type EventState string

const (
	EventCreated         EventState = "CREATED"
	EventActive          EventState = "ACTIVE"
	EventRetry           EventState = "RETRY"
	EventError           EventState = "ERROR"
	EventDelivered       EventState = "DELIVERED"
	EventFailed          EventState = "FAILED"
	EventCancelRequested EventState = "CANCEL_REQUESTED"
	EventCancelled       EventState = "CANCELLED"
)

// Event records a state change of a message.
type Event struct {
	Time             int64               `json:"time"`
	MessageID        string              `json:"messageId"`
	State            EventState          `json:"state"`
	Error            string              `json:"error,omitempty"`
	NextDeliveryTime int64               `json:"nextDeliveryTime,omitempty"`
	URL              string              `json:"url"`
	URLGroup         string              `json:"topicName,omitempty"`
	Endpoint         string              `json:"endpointName,omitempty"`
	API              string              `json:"api,omitempty"`
	Queue            string              `json:"queueName,omitempty"`
	ScheduleID       string              `json:"scheduleId,omitempty"`
	Header           map[string][]string `json:"header,omitempty"`
	Body             string              `json:"body,omitempty"`
	ResponseStatus   int                 `json:"responseStatus,omitempty"`
	ResponseHeader   map[string][]string `json:"responseHeader,omitempty"`
	ResponseBody     string              `json:"responseBody,omitempty"`
}

// EventFilter narrows the events returned by List. Zero fields are ignored.
type EventFilter struct {
	MessageID  string
	State      EventState
	URL        string
	URLGroup   string
	API        string
	ScheduleID string
	Queue      string
	FromDate   time.Time
	ToDate     time.Time
}

// ListEventsRequest selects a page of events.
type ListEventsRequest struct {
	Filter EventFilter
	// Cursor is the value returned by the previous page.
	Cursor string
	// Count limits the number of events returned.
	Count int
}

// ListEventsResponse is a page of events. Cursor is empty on the last page.
type ListEventsResponse struct {
	Cursor string  `json:"cursor,omitempty"`
	Events []Event `json:"events"`
}

func (r *ListEventsRequest) query() url.Values {
	q := url.Values{}
	set := func(k, v string) {
		if v != "" {
			q.Set(k, v)
		}
	}
	set("cursor", r.Cursor)
	if r.Count > 0 {
		q.Set("count", strconv.Itoa(r.Count))
	}

	f := r.Filter
	set("messageId", f.MessageID)
	set("state", string(f.State))
	set("url", f.URL)
	set("topicName", f.URLGroup)
	set("api", f.API)
	set("scheduleId", f.ScheduleID)
	set("queueName", f.Queue)
	if !f.FromDate.IsZero() {
		q.Set("fromDate", strconv.FormatInt(f.FromDate.UnixMilli(), 10))
	}
	if !f.ToDate.IsZero() {
		q.Set("toDate", strconv.FormatInt(f.ToDate.UnixMilli(), 10))
	}
	return q
}

// List returns a page of events, most recent first. req may be nil.
func (c *EventClient) List(ctx context.Context, req *ListEventsRequest) (*ListEventsResponse, error) {
	if req == nil {
		req = &ListEventsRequest{}
	}

	var res ListEventsResponse
	if err := c.tr.Request(ctx, &transport.Request{
		Method: http.MethodGet,
		Path:   "/v2/events",
		Query:  req.query(),
	}, &res); err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}
	return &res, nil
}
