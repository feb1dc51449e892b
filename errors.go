package qstash

import (
	"errors"

	"github.com/lestrrat-go/qstash/transport"
)

var (
	ErrMissingDestination   = errors.New("qstash: one of URL, URLGroup or API is required")
	ErrMultipleDestinations = errors.New("qstash: only one of URL, URLGroup or API may be set")
	ErrMissingQueue         = errors.New("qstash: queue name is required")
	ErrMissingCron          = errors.New("qstash: cron expression is required")
	ErrMissingID            = errors.New("qstash: id is required")
	ErrMissingModel         = errors.New("qstash: model is required")
)

// APIError is returned when QStash answers with a non-2xx status.
type APIError = transport.APIError

// RateLimit describes the rate limit headers attached to an APIError.
type RateLimit = transport.RateLimit
