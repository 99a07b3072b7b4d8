package entity

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrJobNotFound is returned by status lookups for unknown ids
var ErrJobNotFound = errors.New("job not found")

// ClientInputError rejects a submission before any job exists
type ClientInputError struct {
	Field  string
	Reason string
}

func (e *ClientInputError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func (e *ClientInputError) Retryable() bool { return false }

// DependencyError is a failed call to the token endpoint, the document store or the model API.
// StatusCode is zero when no response was received.
type DependencyError struct {
	Op         string
	StatusCode int
	Err        error
}

func (e *DependencyError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s: status %d: %v", e.Op, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *DependencyError) Unwrap() error { return e.Err }

func (e *DependencyError) HTTPStatusCode() int { return e.StatusCode }

// Retryable is true for transport failures, 429 and 5xx
func (e *DependencyError) Retryable() bool {
	if e.StatusCode == 0 {
		return true
	}
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= http.StatusInternalServerError
}

// ContentError means the model answered but the text is not usable JSON
type ContentError struct {
	Reason string
	Err    error
}

func (e *ContentError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("unusable model output: %s: %v", e.Reason, e.Err)
	}
	return "unusable model output: " + e.Reason
}

func (e *ContentError) Unwrap() error { return e.Err }

func (e *ContentError) Retryable() bool { return false }

// Itinerary contract rules, in evaluation order
const (
	RuleSequence       = "itinerary-is-sequence"
	RuleDayShape       = "day-shape"
	RuleActivityShape  = "activity-shape"
	RuleDayCount       = "day-count"
	RuleDaySequence    = "day-sequence"
	MinDescriptionRune = 20
)

// ValidationError reports the first itinerary rule a candidate breaks.
// Index is the offending day position (0-based) or -1.
type ValidationError struct {
	Rule   string
	Index  int
	Detail string
}

func (e *ValidationError) Error() string {
	if e.Index >= 0 {
		return fmt.Sprintf("itinerary validation failed [%s] at day index %d: %s", e.Rule, e.Index, e.Detail)
	}
	return fmt.Sprintf("itinerary validation failed [%s]: %s", e.Rule, e.Detail)
}

func (e *ValidationError) Retryable() bool { return false }

// StuckJobError is logged when even the failure write did not land
type StuckJobError struct {
	JobID string
	Err   error
}

func (e *StuckJobError) Error() string {
	return fmt.Sprintf("job %s left in processing: %v", e.JobID, e.Err)
}

func (e *StuckJobError) Unwrap() error { return e.Err }

// IsContentFailure reports whether err came from unusable or invalid model output
func IsContentFailure(err error) bool {
	var ce *ContentError
	var ve *ValidationError
	return errors.As(err, &ce) || errors.As(err, &ve)
}
