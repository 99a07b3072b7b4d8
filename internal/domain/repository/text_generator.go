package repository

import "context"

// TextGenerator asks the model for an itinerary and returns the decoded JSON it answered with.
// The result is unvalidated.
type TextGenerator interface {
	Complete(ctx context.Context, destination string, durationDays int) (any, error)
}
