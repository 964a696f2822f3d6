package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrIdentification is returned when the identification service fails or gives no keywords
	ErrIdentification = errors.New("could not identify product")

	// ErrCollection is returned when the retailer-search service fails entirely
	ErrCollection = errors.New("could not reach retailers")

	// ErrNoResults is returned alongside an empty session when retailers found nothing
	ErrNoResults = errors.New("no matching offers found")

	// ErrInvalidRequest is returned when request parameters are invalid
	ErrInvalidRequest = errors.New("invalid request parameters")

	// ErrStaleSearch is returned when a newer search has already been committed
	ErrStaleSearch = errors.New("search superseded by a newer one")

	// ErrNoPreviousSearch is returned by restore when neither tier holds a session
	ErrNoPreviousSearch = errors.New("no previous search")

	// ErrCacheMiss is returned when data is not found in cache
	ErrCacheMiss = errors.New("cache miss")

	// ErrCacheUnavailable is returned when cache service is unavailable
	ErrCacheUnavailable = errors.New("cache service unavailable")

	// ErrRateLimited is returned when rate limit is exceeded
	ErrRateLimited = errors.New("rate limit exceeded")
)

// Stage names a point in the aggregation state machine
type Stage string

const (
	StageIdle        Stage = "idle"
	StageIdentifying Stage = "identifying"
	StageDispatching Stage = "dispatching"
	StageCollecting  Stage = "collecting"
	StageRanked      Stage = "ranked"
	StageDone        Stage = "done"
	StageFailed      Stage = "failed"
)

// AggregationError is a user-facing failure tagged with the stage it came from.
// Kind is one of ErrIdentification, ErrCollection or ErrNoResults.
type AggregationError struct {
	Stage  Stage
	Kind   error
	Reason string
	Err    error
}

func (e *AggregationError) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("%s: %v", e.Stage, e.Kind)
	}
	return fmt.Sprintf("%s: %v: %s", e.Stage, e.Kind, e.Reason)
}

// Unwrap exposes both the taxonomy kind and the underlying cause
func (e *AggregationError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}
