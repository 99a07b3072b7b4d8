package scheduler

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"sync"

	"itinerary-service/internal/domain/entity"
	"itinerary-service/internal/domain/repository"
	"itinerary-service/pkg/logger"

	"golang.org/x/sync/errgroup"
)

// ErrSchedulerClosed is returned by RunDetached once shutdown has started
var ErrSchedulerClosed = errors.New("scheduler is shut down")

// Runner is a Scheduler with a lifecycle owned by the process
type Runner interface {
	repository.Scheduler
	Start(ctx context.Context, handler repository.TaskHandler) error
	Shutdown(ctx context.Context) error
	// Redelivers reports whether a task interrupted by shutdown is run again later
	Redelivers() bool
}

// GoroutineScheduler runs each task on its own goroutine, detached from the submitting request.
// Shutdown waits for in-flight tasks before returning.
type GoroutineScheduler struct {
	mu      sync.Mutex
	group   errgroup.Group
	ctx     context.Context
	cancel  context.CancelFunc
	handler repository.TaskHandler
	closed  bool
	logger  logger.Logger
}

// NewGoroutineScheduler creates an in-process scheduler
func NewGoroutineScheduler(logger logger.Logger) *GoroutineScheduler {
	return &GoroutineScheduler{logger: logger}
}

// Start sets the handler. Tasks run under a context derived from ctx that is only
// cancelled when Shutdown gives up waiting.
func (s *GoroutineScheduler) Start(ctx context.Context, handler repository.TaskHandler) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.handler != nil {
		return fmt.Errorf("scheduler already started")
	}
	s.ctx, s.cancel = context.WithCancel(context.WithoutCancel(ctx))
	s.handler = handler
	return nil
}

// RunDetached starts the task and returns without waiting for it
func (s *GoroutineScheduler) RunDetached(_ context.Context, task entity.GenerationTask) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrSchedulerClosed
	}
	if s.handler == nil {
		return fmt.Errorf("scheduler not started")
	}

	handler, ctx := s.handler, s.ctx
	s.group.Go(func() error {
		defer func() {
			if r := recover(); r != nil {
				s.logger.Error("Generation task panicked", "jobId", task.JobID, "panic", r, "stack", string(debug.Stack()))
			}
		}()
		if err := handler(ctx, task); err != nil {
			s.logger.Warn("Generation task ended with error", "jobId", task.JobID, "error", err)
		}
		return nil
	})
	return nil
}

// Redelivers is false: a task lives only as long as this process
func (s *GoroutineScheduler) Redelivers() bool { return false }

// Shutdown rejects new tasks and waits for running ones until ctx ends,
// then cancels them and waits for them to return.
func (s *GoroutineScheduler) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	s.closed = true
	cancel := s.cancel
	s.mu.Unlock()

	done := make(chan struct{})
	go func() {
		_ = s.group.Wait()
		close(done)
	}()

	select {
	case <-done:
		if cancel != nil {
			cancel()
		}
		return nil
	case <-ctx.Done():
		s.logger.Warn("Shutdown deadline reached, cancelling running generations")
		if cancel != nil {
			cancel()
		}
		<-done
		return ctx.Err()
	}
}
