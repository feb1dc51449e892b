package qstash

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/lestrrat-go/qstash/transport"
)

// ScheduleClient manages schedules, which publish a message periodically
// according to a cron expression.
type ScheduleClient struct {
	tr requester
}

// ScheduleRequest describes a schedule to create. API destinations are
// not supported by schedules.
type ScheduleRequest struct {
	DeliveryOptions

	// Destination is a URL or the name of a URL group.
	Destination string
	// Cron is a standard five field cron expression, in UTC.
	Cron string
	Body []byte
	// ScheduleID replaces the schedule with this id when set.
	ScheduleID string
}

// ScheduleJSONRequest creates a schedule whose body is Payload encoded as
// JSON.
type ScheduleJSONRequest struct {
	ScheduleRequest
	Payload any
}

// Schedule is a periodic publication.
type Schedule struct {
	ScheduleID       string              `json:"scheduleId"`
	Cron             string              `json:"cron"`
	Destination      string              `json:"destination"`
	Method           string              `json:"method,omitempty"`
	Header           map[string][]string `json:"header,omitempty"`
	Body             string              `json:"body,omitempty"`
	Retries          int                 `json:"retries,omitempty"`
	Delay            int64               `json:"delay,omitempty"`
	Callback         string              `json:"callback,omitempty"`
	FailureCallback  string              `json:"failureCallback,omitempty"`
	CreatedAt        int64               `json:"createdAt,omitempty"`
	LastScheduleTime int64               `json:"lastScheduleTime,omitempty"`
	NextScheduleTime int64               `json:"nextScheduleTime,omitempty"`
	CallerIP         string              `json:"callerIP,omitempty"`
	IsPaused         bool                `json:"isPaused,omitempty"`
}

// Create creates or replaces a schedule and returns its id.
func (c *ScheduleClient) Create(ctx context.Context, req *ScheduleRequest) (string, error) {
	if req.Destination == "" {
		return "", ErrMissingDestination
	}
	if req.Cron == "" {
		return "", ErrMissingCron
	}

	h := make(http.Header)
	req.apply(h)
	h.Set(headerPrefix+"Cron", req.Cron)
	if req.ScheduleID != "" {
		h.Set(headerPrefix+"Schedule-Id", req.ScheduleID)
	}

	var res struct {
		ScheduleID string `json:"scheduleId"`
	}
	if err := c.tr.Request(ctx, &transport.Request{
		Method: http.MethodPost,
		Path:   "/v2/schedules/" + req.Destination,
		Header: h,
		Body:   req.Body,
	}, &res); err != nil {
		return "", fmt.Errorf("failed to create schedule: %w", err)
	}
	return res.ScheduleID, nil
}

// CreateJSON is like Create, with the body encoded from req.Payload.
func (c *ScheduleClient) CreateJSON(ctx context.Context, req *ScheduleJSONRequest) (string, error) {
	body, err := json.Marshal(req.Payload)
	if err != nil {
		return "", fmt.Errorf("failed to encode payload: %w", err)
	}
	sreq := req.ScheduleRequest
	sreq.Body = body
	if sreq.ContentType == "" {
		sreq.ContentType = "application/json"
	}
	return c.Create(ctx, &sreq)
}

// Get returns a schedule by id.
func (c *ScheduleClient) Get(ctx context.Context, scheduleID string) (*Schedule, error) {
	if scheduleID == "" {
		return nil, ErrMissingID
	}

	var s Schedule
	if err := c.tr.Request(ctx, &transport.Request{
		Method: http.MethodGet,
		Path:   "/v2/schedules/" + url.PathEscape(scheduleID),
	}, &s); err != nil {
		return nil, fmt.Errorf("failed to get schedule: %w", err)
	}
	return &s, nil
}

// List returns every schedule.
func (c *ScheduleClient) List(ctx context.Context) ([]Schedule, error) {
	var list []Schedule
	if err := c.tr.Request(ctx, &transport.Request{
		Method: http.MethodGet,
		Path:   "/v2/schedules",
	}, &list); err != nil {
		return nil, fmt.Errorf("failed to list schedules: %w", err)
	}
	return list, nil
}

// Delete removes a schedule.
func (c *ScheduleClient) Delete(ctx context.Context, scheduleID string) error {
	return c.call(ctx, http.MethodDelete, scheduleID, "", "delete")
}

// Pause stops a schedule from publishing until it is resumed.
func (c *ScheduleClient) Pause(ctx context.Context, scheduleID string) error {
	return c.call(ctx, http.MethodPatch, scheduleID, "/pause", "pause")
}

// Resume restarts a paused schedule.
func (c *ScheduleClient) Resume(ctx context.Context, scheduleID string) error {
	return c.call(ctx, http.MethodPatch, scheduleID, "/resume", "resume")
}

func (c *ScheduleClient) call(ctx context.Context, method, scheduleID, suffix, verb string) error {
	if scheduleID == "" {
		return ErrMissingID
	}
	if err := c.tr.Request(ctx, &transport.Request{
		Method: method,
		Path:   "/v2/schedules/" + url.PathEscape(scheduleID) + suffix,
	}, nil); err != nil {
		return fmt.Errorf("failed to %s schedule: %w", verb, err)
	}
	return nil
}
