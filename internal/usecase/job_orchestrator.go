package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"itinerary-service/internal/domain/entity"
	"itinerary-service/internal/domain/repository"
	"itinerary-service/pkg/logger"
	"itinerary-service/pkg/metrics"
	"itinerary-service/pkg/retry"

	"github.com/google/uuid"
)

const failureWriteTimeout = 30 * time.Second

// OrchestratorConfig holds the job lifecycle settings
type OrchestratorConfig struct {
	Collection string
	Retry      retry.Config
	// GenerationTimeout bounds a whole background run; zero disables it
	GenerationTimeout time.Duration
	// RequeueOnCancel leaves a cancelled run in processing and reports
	// ErrTaskInterrupted, for schedulers that redeliver
	RequeueOnCancel bool
}

// JobOrchestrator owns the job state machine: processing -> completed | failed
type JobOrchestrator struct {
	store     repository.DocumentStore
	tokens    repository.TokenProvider
	generator repository.TextGenerator
	scheduler repository.Scheduler
	cfg       OrchestratorConfig
	metrics   *metrics.Metrics
	logger    logger.Logger

	now   func() time.Time
	newID func() string
}

// NewJobOrchestrator creates a new job orchestrator
func NewJobOrchestrator(
	store repository.DocumentStore,
	tokens repository.TokenProvider,
	generator repository.TextGenerator,
	scheduler repository.Scheduler,
	cfg OrchestratorConfig,
	m *metrics.Metrics,
	logger logger.Logger,
) *JobOrchestrator {
	return &JobOrchestrator{
		store:     store,
		tokens:    tokens,
		generator: generator,
		scheduler: scheduler,
		cfg:       cfg,
		metrics:   m,
		logger:    logger,
		now:       func() time.Time { return time.Now().UTC().Truncate(time.Millisecond) },
		newID:     uuid.NewString,
	}
}

// ValidateSubmission checks a trimmed destination and the trip length
func ValidateSubmission(destination string, durationDays int) error {
	if utf8.RuneCountInString(destination) < entity.MinDestinationLength {
		return &entity.ClientInputError{
			Field:  entity.FieldDestination,
			Reason: fmt.Sprintf("must be at least %d characters", entity.MinDestinationLength),
		}
	}
	if durationDays < entity.MinDurationDays || durationDays > entity.MaxDurationDays {
		return &entity.ClientInputError{
			Field:  entity.FieldDurationDays,
			Reason: fmt.Sprintf("must be an integer between %d and %d", entity.MinDurationDays, entity.MaxDurationDays),
		}
	}
	return nil
}

// Submit creates the processing job and schedules its generation.
// The job document exists before the task is handed to the scheduler.
func (o *JobOrchestrator) Submit(ctx context.Context, destination string, durationDays int) (string, error) {
	destination = strings.TrimSpace(destination)
	if err := ValidateSubmission(destination, durationDays); err != nil {
		return "", err
	}

	jobID := o.newID()
	log := o.logger.With("jobId", jobID)

	token, err := o.tokens.Token(ctx)
	if err != nil {
		o.countError("token")
		return "", fmt.Errorf("failed to acquire token: %w", err)
	}

	job := entity.NewProcessingJob(jobID, destination, durationDays, o.now())

	attempts := 0
	err = retry.Do(ctx, o.retryConfig("store.create"), retry.DefaultIsRetryable, func(ctx context.Context) error {
		attempts++
		err := o.store.Create(ctx, token, o.cfg.Collection, jobID, job.Fields())
		// an earlier attempt landed even though its response was lost
		if attempts > 1 && errors.Is(err, repository.ErrDocumentExists) {
			return nil
		}
		return err
	})
	if err != nil {
		o.countError("store.create")
		return "", fmt.Errorf("failed to create job: %w", err)
	}

	task := entity.GenerationTask{JobID: jobID, Destination: destination, DurationDays: durationDays}
	if err := o.scheduler.RunDetached(ctx, task); err != nil {
		o.countError("schedule")
		log.Error("Failed to schedule generation", "error", err)
		schedErr := &entity.DependencyError{Op: "schedule", Err: err}
		o.writeFailed(ctx, jobID, token, fmt.Errorf("could not schedule generation: %w", err))
		return "", fmt.Errorf("failed to schedule generation: %w", schedErr)
	}

	if o.metrics != nil {
		o.metrics.JobsSubmitted.Inc()
	}
	log.Info("Job submitted", "destination", destination, "durationDays", durationDays)
	return jobID, nil
}

// RunGeneration produces the itinerary for a task and writes the terminal state.
// Failures end up in the job document or, when even that write fails, in the logs.
// The only error returned is ErrTaskInterrupted, when RequeueOnCancel is set and
// ctx was cancelled before the job finished.
func (o *JobOrchestrator) RunGeneration(ctx context.Context, task entity.GenerationTask) error {
	start := time.Now()
	log := o.logger.With("jobId", task.JobID)

	if o.cfg.GenerationTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.cfg.GenerationTimeout)
		defer cancel()
	}

	token, err := o.tokens.Token(ctx)
	if err != nil {
		o.countError("token")
		return o.finishFailed(ctx, start, task.JobID, "", fmt.Errorf("failed to acquire token: %w", err))
	}

	current, err := o.loadJob(ctx, token, task.JobID)
	switch {
	case err != nil:
		log.Warn("Could not read job before generation, continuing", "error", err)
	case current == nil:
		log.Error("Job document missing, skipping generation")
		return nil
	case current.Status.IsTerminal():
		log.Info("Job already finished, skipping generation", "status", current.Status)
		return nil
	}

	log.Info("Generating itinerary", "destination", task.Destination, "durationDays", task.DurationDays)

	days, err := o.generate(ctx, task)
	if err != nil {
		return o.finishFailed(ctx, start, task.JobID, token, err)
	}

	err = o.updateWithRetry(ctx, token, task.JobID, entity.CompletedFields(days, o.now()), "store.complete")
	if err != nil {
		o.countError("store.complete")
		if o.requeue(ctx) {
			return o.interrupted(task.JobID, err)
		}
		// the write may have landed even though the call failed
		job, getErr := o.loadJob(context.WithoutCancel(ctx), token, task.JobID)
		switch {
		case getErr != nil:
			// a failure write now could overwrite a completed job
			o.reportStuck(task.JobID, errors.Join(err, getErr), fmt.Errorf("failed to save itinerary: %w", err))
			return nil
		case job != nil && job.Status.IsTerminal():
			log.Warn("Completion write reported an error but the job is terminal", "status", job.Status, "error", err)
			return nil
		}
		return o.finishFailed(ctx, start, task.JobID, token, fmt.Errorf("failed to save itinerary: %w", err))
	}

	if o.metrics != nil {
		o.metrics.JobsCompleted.Inc()
		o.metrics.GenerationDuration.Observe(time.Since(start).Seconds())
	}
	log.Info("Job completed", "days", len(days), "duration", time.Since(start))
	return nil
}

// GetJob reads the current job record, ErrJobNotFound when there is none
func (o *JobOrchestrator) GetJob(ctx context.Context, jobID string) (*entity.Job, error) {
	jobID = strings.TrimSpace(jobID)
	if jobID == "" {
		return nil, &entity.ClientInputError{Field: "jobId", Reason: "is required"}
	}

	token, err := o.tokens.Token(ctx)
	if err != nil {
		o.countError("token")
		return nil, fmt.Errorf("failed to acquire token: %w", err)
	}

	job, err := o.loadJob(ctx, token, jobID)
	if err != nil {
		o.countError("store.get")
		return nil, err
	}
	if job == nil {
		return nil, entity.ErrJobNotFound
	}
	return job, nil
}

// generate calls the model and validates the answer. Unusable or invalid output is
// retried with a fresh call; transport failures were already retried by the generator.
func (o *JobOrchestrator) generate(ctx context.Context, task entity.GenerationTask) ([]entity.Day, error) {
	return retry.Execute(ctx, o.retryConfig("generation"), entity.IsContentFailure, func(ctx context.Context) ([]entity.Day, error) {
		candidate, err := o.generator.Complete(ctx, task.Destination, task.DurationDays)
		if err != nil {
			return nil, err
		}
		return ValidateItinerary(candidate, task.DurationDays)
	})
}

func (o *JobOrchestrator) loadJob(ctx context.Context, token, jobID string) (*entity.Job, error) {
	fields, err := retry.Execute(ctx, o.retryConfig("store.get"), retry.DefaultIsRetryable, func(ctx context.Context) (map[string]any, error) {
		return o.store.Get(ctx, token, o.cfg.Collection, jobID)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to read job: %w", err)
	}
	if fields == nil {
		return nil, nil
	}

	job, err := entity.JobFromFields(jobID, fields)
	if err != nil {
		return nil, fmt.Errorf("malformed job document %s: %w", jobID, err)
	}
	return job, nil
}

func (o *JobOrchestrator) updateWithRetry(ctx context.Context, token, jobID string, fields map[string]any, op string) error {
	return retry.Do(ctx, o.retryConfig(op), retry.DefaultIsRetryable, func(ctx context.Context) error {
		return o.store.Update(ctx, token, o.cfg.Collection, jobID, fields)
	})
}

func (o *JobOrchestrator) finishFailed(ctx context.Context, start time.Time, jobID, token string, cause error) error {
	if o.requeue(ctx) {
		return o.interrupted(jobID, cause)
	}
	if errors.Is(ctx.Err(), context.DeadlineExceeded) && o.cfg.GenerationTimeout > 0 {
		cause = fmt.Errorf("generation timed out after %s: %w", o.cfg.GenerationTimeout, cause)
	}
	if o.writeFailed(ctx, jobID, token, cause) && o.metrics != nil {
		o.metrics.GenerationDuration.Observe(time.Since(start).Seconds())
	}
	return nil
}

// requeue reports a run cancelled from outside, as opposed to one whose own deadline expired
func (o *JobOrchestrator) requeue(ctx context.Context) bool {
	return o.cfg.RequeueOnCancel && errors.Is(ctx.Err(), context.Canceled)
}

func (o *JobOrchestrator) interrupted(jobID string, cause error) error {
	o.logger.Warn("Generation interrupted, job left in processing for redelivery", "jobId", jobID, "error", cause)
	return fmt.Errorf("%w: job %s: %w", repository.ErrTaskInterrupted, jobID, cause)
}

// writeFailed records cause on the job. The write runs on its own deadline so an
// expired generation context does not prevent it. A rejected write is tried once
// more with a fresh token; if that fails too the job stays in processing.
func (o *JobOrchestrator) writeFailed(ctx context.Context, jobID, token string, cause error) bool {
	log := o.logger.With("jobId", jobID)

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), failureWriteTimeout)
	defer cancel()

	fields := entity.FailedFields(cause.Error(), o.now())

	var err error
	if token == "" {
		token, err = o.tokens.Token(ctx)
	}
	if err == nil {
		err = o.updateWithRetry(ctx, token, jobID, fields, "store.fail")
	}
	if err != nil && !errors.Is(err, repository.ErrDocumentNotFound) {
		log.Warn("Failure write rejected, retrying once with a fresh token", "error", err)
		fresh, tokenErr := o.tokens.Token(ctx)
		if tokenErr != nil {
			err = errors.Join(err, tokenErr)
		} else {
			err = o.store.Update(ctx, fresh, o.cfg.Collection, jobID, fields)
		}
	}

	if err != nil {
		o.countError("store.fail")
		o.reportStuck(jobID, err, cause)
		return false
	}

	if o.metrics != nil {
		o.metrics.JobsFailed.Inc()
	}
	log.Warn("Job failed", "error", cause)
	return true
}

// reportStuck logs a job whose terminal state could not be established
func (o *JobOrchestrator) reportStuck(jobID string, err, cause error) {
	stuck := &entity.StuckJobError{JobID: jobID, Err: err}
	o.logger.Error("Job is stuck in processing", "jobId", jobID, "stuck", true, "error", stuck, "cause", cause)
	if o.metrics != nil {
		o.metrics.JobsStuck.Inc()
	}
}

func (o *JobOrchestrator) retryConfig(op string) retry.Config {
	cfg := o.cfg.Retry
	cfg.OnRetry = func(attempt int, delay time.Duration, err error) {
		o.logger.Warn("Operation failed, retrying", "operation", op, "attempt", attempt, "delay", delay, "error", err)
		if o.metrics != nil {
			o.metrics.RetryAttempts.WithLabelValues(op).Inc()
		}
	}
	return cfg
}

func (o *JobOrchestrator) countError(op string) {
	if o.metrics != nil {
		o.metrics.ErrorsCount.WithLabelValues(op).Inc()
	}
}
