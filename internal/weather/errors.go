package weather

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidInput is returned for malformed coordinates or an empty
	// search query. No network call is attempted.
	ErrInvalidInput = errors.New("invalid input")

	// ErrRateLimited is returned when the local throttle rejected the
	// request. It is not a provider-reported condition.
	ErrRateLimited = errors.New("rate limited")
)

// AggregationError means both weather providers failed for one fetch. It
// keeps the underlying errors for diagnostics; user-facing text must go
// through security.SanitizeError instead of Error().
type AggregationError struct {
	PrimaryErr  error
	FallbackErr error
}

func (e *AggregationError) Error() string {
	return fmt.Sprintf("all weather providers failed: open-meteo: %v; openweather: %v",
		e.PrimaryErr, e.FallbackErr)
}

func (e *AggregationError) Unwrap() []error {
	return []error{e.PrimaryErr, e.FallbackErr}
}
