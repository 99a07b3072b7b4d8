package repository

import (
	"context"
	"errors"

	"itinerary-service/internal/domain/entity"
)

// ErrTaskInterrupted is returned by a TaskHandler that stopped because its context was
// cancelled and left the job in processing. A scheduler that redelivers should run the
// task again.
var ErrTaskInterrupted = errors.New("generation task interrupted")

// TaskHandler runs one detached generation
type TaskHandler func(ctx context.Context, task entity.GenerationTask) error

// Scheduler runs generation tasks independently of the request that submitted them
type Scheduler interface {
	RunDetached(ctx context.Context, task entity.GenerationTask) error
}
