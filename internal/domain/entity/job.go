package entity

import (
	"fmt"
	"time"
)

// JobStatus is the lifecycle state of an itinerary job
type JobStatus string

// Job Process Status
const (
	StatusProcessing JobStatus = "processing"
	StatusCompleted  JobStatus = "completed"
	StatusFailed     JobStatus = "failed"
)

// IsTerminal reports whether no further transition may happen
func (s JobStatus) IsTerminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// Submission bounds
const (
	MinDestinationLength = 2
	MinDurationDays      = 1
	MaxDurationDays      = 30
)

// Document field names
const (
	FieldStatus       = "status"
	FieldDestination  = "destination"
	FieldDurationDays = "durationDays"
	FieldCreatedAt    = "createdAt"
	FieldCompletedAt  = "completedAt"
	FieldItinerary    = "itinerary"
	FieldError        = "error"
)

// Job is one itinerary generation request and its persisted lifecycle record.
// While processing, CompletedAt, Itinerary and Error are nil. A terminal job carries
// exactly one of Itinerary or Error.
type Job struct {
	ID           string     `json:"id"`
	Status       JobStatus  `json:"status"`
	Destination  string     `json:"destination"`
	DurationDays int        `json:"durationDays"`
	CreatedAt    time.Time  `json:"createdAt"`
	CompletedAt  *time.Time `json:"completedAt"`
	Itinerary    []Day      `json:"itinerary"`
	Error        *string    `json:"error"`
}

// NewProcessingJob builds the initial record written at submission.
func NewProcessingJob(id, destination string, durationDays int, createdAt time.Time) *Job {
	return &Job{
		ID:           id,
		Status:       StatusProcessing,
		Destination:  destination,
		DurationDays: durationDays,
		CreatedAt:    createdAt,
	}
}

// GenerationTask is what the detached runner needs to produce a job's itinerary
type GenerationTask struct {
	JobID        string `json:"jobId"`
	Destination  string `json:"destination"`
	DurationDays int    `json:"durationDays"`
}

// Fields converts the job into the generic document representation (ID excluded).
func (j *Job) Fields() map[string]any {
	fields := map[string]any{
		FieldStatus:       string(j.Status),
		FieldDestination:  j.Destination,
		FieldDurationDays: int64(j.DurationDays),
		FieldCreatedAt:    j.CreatedAt,
		FieldCompletedAt:  nil,
		FieldItinerary:    nil,
		FieldError:        nil,
	}
	if j.CompletedAt != nil {
		fields[FieldCompletedAt] = *j.CompletedAt
	}
	if j.Itinerary != nil {
		fields[FieldItinerary] = DaysToValues(j.Itinerary)
	}
	if j.Error != nil {
		fields[FieldError] = *j.Error
	}
	return fields
}

// CompletedFields is the patch for processing -> completed
func CompletedFields(days []Day, at time.Time) map[string]any {
	return map[string]any{
		FieldStatus:      string(StatusCompleted),
		FieldItinerary:   DaysToValues(days),
		FieldCompletedAt: at,
		FieldError:       nil,
	}
}

// FailedFields is the patch for processing -> failed
func FailedFields(message string, at time.Time) map[string]any {
	return map[string]any{
		FieldStatus:      string(StatusFailed),
		FieldItinerary:   nil,
		FieldCompletedAt: at,
		FieldError:       message,
	}
}

// JobFromFields rebuilds a job from its document representation.
func JobFromFields(id string, fields map[string]any) (*Job, error) {
	job := &Job{ID: id}

	status, err := stringField(fields, FieldStatus)
	if err != nil {
		return nil, err
	}
	job.Status = JobStatus(status)

	if job.Destination, err = stringField(fields, FieldDestination); err != nil {
		return nil, err
	}

	days, err := intField(fields, FieldDurationDays)
	if err != nil {
		return nil, err
	}
	job.DurationDays = days

	createdAt, ok := fields[FieldCreatedAt].(time.Time)
	if !ok {
		return nil, fmt.Errorf("field %q: expected timestamp, got %T", FieldCreatedAt, fields[FieldCreatedAt])
	}
	job.CreatedAt = createdAt

	switch v := fields[FieldCompletedAt].(type) {
	case nil:
	case time.Time:
		job.CompletedAt = &v
	default:
		return nil, fmt.Errorf("field %q: expected timestamp or null, got %T", FieldCompletedAt, v)
	}

	if raw := fields[FieldItinerary]; raw != nil {
		days, err := DaysFromValues(raw)
		if err != nil {
			return nil, fmt.Errorf("field %q: %w", FieldItinerary, err)
		}
		job.Itinerary = days
	}

	switch v := fields[FieldError].(type) {
	case nil:
	case string:
		job.Error = &v
	default:
		return nil, fmt.Errorf("field %q: expected string or null, got %T", FieldError, v)
	}

	return job, nil
}

func stringField(fields map[string]any, name string) (string, error) {
	v, ok := fields[name].(string)
	if !ok {
		return "", fmt.Errorf("field %q: expected string, got %T", name, fields[name])
	}
	return v, nil
}

func intField(fields map[string]any, name string) (int, error) {
	n, ok := AsInt(fields[name])
	if !ok {
		return 0, fmt.Errorf("field %q: expected integer, got %T", name, fields[name])
	}
	return n, nil
}

// AsInt accepts the integer shapes produced by JSON and the store drivers.
// Floats are accepted only when integral.
func AsInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int32:
		return int(n), true
	case int64:
		return int(n), true
	case float64:
		if n != float64(int64(n)) {
			return 0, false
		}
		return int(n), true
	default:
		return 0, false
	}
}
