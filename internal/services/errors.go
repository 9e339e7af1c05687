package services

import (
	"context"
	"errors"

	"profile-feed-api/internal/models"
)

// Error taxonomy for extraction. Strategies wrap these with context via %w.
var (
	// ErrUpstreamUnavailable covers network failures and non-2xx responses
	ErrUpstreamUnavailable = errors.New("upstream unavailable")
	// ErrExtractionMismatch means the response was fine but the expected path or pattern was absent
	ErrExtractionMismatch = errors.New("extraction mismatch")
	// ErrMalformedPayload means captured text failed JSON parsing
	ErrMalformedPayload = errors.New("malformed payload")
	// ErrTotalExtractionFailure means every strategy came back empty
	ErrTotalExtractionFailure = errors.New("no posts found from any strategy")
)

// ErrorKind classifies an attempt error for the run log
func ErrorKind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, context.DeadlineExceeded):
		return models.ErrorKindTimeout
	case errors.Is(err, ErrUpstreamUnavailable):
		return models.ErrorKindUpstream
	case errors.Is(err, ErrMalformedPayload):
		return models.ErrorKindMalformed
	case errors.Is(err, ErrExtractionMismatch):
		return models.ErrorKindMismatch
	default:
		return models.ErrorKindUnknown
	}
}
