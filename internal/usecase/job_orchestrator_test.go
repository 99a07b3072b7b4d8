package usecase

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"testing"
	"time"

	"itinerary-service/internal/domain/entity"
	"itinerary-service/internal/domain/repository"
	"itinerary-service/pkg/logger"
	"itinerary-service/pkg/metrics"
	"itinerary-service/pkg/retry"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testCollection = "itineraries"

// memStore is an in-memory DocumentStore with failure hooks
type memStore struct {
	mu          sync.Mutex
	docs        map[string]map[string]any
	creates     int
	updates     int
	updateToken []string
	// createHook decides per call whether the write lands and what is returned
	createHook func(call int) (land bool, err error)
	updateHook func(call int, token string) error
	// updateLands applies an update even when updateHook fails it
	updateLands bool
	gets        int
	getHook     func(call int) error
}

func newMemStore() *memStore {
	return &memStore{docs: make(map[string]map[string]any)}
}

func (s *memStore) Create(_ context.Context, _ string, collection, id string, fields map[string]any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.creates++
	land, hookErr := true, error(nil)
	if s.createHook != nil {
		land, hookErr = s.createHook(s.creates)
	}
	key := collection + "/" + id
	if land {
		if _, ok := s.docs[key]; ok {
			return fmt.Errorf("%w: %s", repository.ErrDocumentExists, key)
		}
		s.docs[key] = fields
	}
	return hookErr
}

func (s *memStore) Update(_ context.Context, token, collection, id string, fields map[string]any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.updates++
	s.updateToken = append(s.updateToken, token)
	var hookErr error
	if s.updateHook != nil {
		hookErr = s.updateHook(s.updates, token)
		if hookErr != nil && !s.updateLands {
			return hookErr
		}
	}
	doc, ok := s.docs[collection+"/"+id]
	if !ok {
		return repository.ErrDocumentNotFound
	}
	for k, v := range fields {
		doc[k] = v
	}
	return hookErr
}

func (s *memStore) Get(_ context.Context, _ string, collection, id string) (map[string]any, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.gets++
	if s.getHook != nil {
		if err := s.getHook(s.gets); err != nil {
			return nil, err
		}
	}

	doc, ok := s.docs[collection+"/"+id]
	if !ok {
		return nil, nil
	}
	out := make(map[string]any, len(doc))
	for k, v := range doc {
		out[k] = v
	}
	return out, nil
}

func (s *memStore) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.docs)
}

// countingTokens hands out tok-1, tok-2, ...
type countingTokens struct {
	mu    sync.Mutex
	n     int
	err   error
	calls int
}

func (p *countingTokens) Token(context.Context) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls++
	if p.err != nil {
		return "", p.err
	}
	p.n++
	return fmt.Sprintf("tok-%d", p.n), nil
}

type stubGenerator struct {
	mu    sync.Mutex
	calls int
	fn    func(ctx context.Context, call int) (any, error)
}

func (g *stubGenerator) Complete(ctx context.Context, _ string, _ int) (any, error) {
	g.mu.Lock()
	g.calls++
	call := g.calls
	g.mu.Unlock()
	return g.fn(ctx, call)
}

// recordingScheduler keeps tasks so tests decide when they run
type recordingScheduler struct {
	tasks []entity.GenerationTask
	err   error
}

func (s *recordingScheduler) RunDetached(_ context.Context, task entity.GenerationTask) error {
	if s.err != nil {
		return s.err
	}
	s.tasks = append(s.tasks, task)
	return nil
}

type harness struct {
	orch      *JobOrchestrator
	store     *memStore
	tokens    *countingTokens
	generator *stubGenerator
	scheduler *recordingScheduler
	metrics   *metrics.Metrics
}

func newHarness(t *testing.T, gen func(ctx context.Context, call int) (any, error)) *harness {
	t.Helper()

	retryCfg := retry.DefaultConfig()
	retryCfg.Sleep = func(context.Context, time.Duration) error { return nil }

	h := &harness{
		store:     newMemStore(),
		tokens:    &countingTokens{},
		generator: &stubGenerator{fn: gen},
		scheduler: &recordingScheduler{},
		metrics:   metrics.NewMetrics("test", prometheus.NewRegistry()),
	}
	h.orch = NewJobOrchestrator(h.store, h.tokens, h.generator, h.scheduler,
		OrchestratorConfig{Collection: testCollection, Retry: retryCfg},
		h.metrics, logger.NewNop())

	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	h.orch.now = func() time.Time {
		now = now.Add(time.Second)
		return now
	}
	return h
}

func (h *harness) runScheduled(t *testing.T) {
	t.Helper()
	require.NotEmpty(t, h.scheduler.tasks)
	for _, task := range h.scheduler.tasks {
		require.NoError(t, h.orch.RunGeneration(context.Background(), task))
	}
}

func modelDays(numbers ...int) []any {
	out := make([]any, 0, len(numbers))
	for _, n := range numbers {
		out = append(out, map[string]any{
			"day":   float64(n),
			"theme": fmt.Sprintf("Day %d highlights", n),
			"activities": []any{
				map[string]any{"time": "Morning", "description": "Walk along the river and visit the market", "location": "Île de la Cité"},
				map[string]any{"time": "Evening", "description": "Dinner in a small bistro near the square", "location": "Le Marais"},
			},
		})
	}
	return out
}

func always(v any, err error) func(context.Context, int) (any, error) {
	return func(context.Context, int) (any, error) { return v, err }
}

func TestSubmit_ImmediateGetIsProcessing(t *testing.T) {
	h := newHarness(t, always(modelDays(1, 2), nil))
	ctx := context.Background()

	jobID, err := h.orch.Submit(ctx, "  Lisbon  ", 2)
	require.NoError(t, err)
	require.NotEmpty(t, jobID)

	job, err := h.orch.GetJob(ctx, jobID)
	require.NoError(t, err)
	assert.Equal(t, entity.StatusProcessing, job.Status)
	assert.Equal(t, "Lisbon", job.Destination)
	assert.Equal(t, 2, job.DurationDays)
	assert.Nil(t, job.CompletedAt)
	assert.Nil(t, job.Itinerary)
	assert.Nil(t, job.Error)

	require.Len(t, h.scheduler.tasks, 1)
	assert.Equal(t, entity.GenerationTask{JobID: jobID, Destination: "Lisbon", DurationDays: 2}, h.scheduler.tasks[0])
	assert.Equal(t, 0, h.generator.calls)
	assert.Equal(t, float64(1), testutil.ToFloat64(h.metrics.JobsSubmitted))
}

func TestSubmit_UniqueIDs(t *testing.T) {
	h := newHarness(t, always(modelDays(1), nil))

	seen := map[string]bool{}
	for i := 0; i < 20; i++ {
		id, err := h.orch.Submit(context.Background(), "Oslo", 1)
		require.NoError(t, err)
		assert.False(t, seen[id])
		seen[id] = true
	}
	assert.Equal(t, 20, h.store.count())
}

func TestSubmit_RejectsInvalidInput(t *testing.T) {
	tests := []struct {
		name        string
		destination string
		days        int
		field       string
	}{
		{"zero days", "Paris", 0, entity.FieldDurationDays},
		{"too many days", "Paris", 31, entity.FieldDurationDays},
		{"negative days", "Paris", -2, entity.FieldDurationDays},
		{"one letter", "P", 3, entity.FieldDestination},
		{"blank", "    ", 3, entity.FieldDestination},
		{"padded single letter", " X ", 3, entity.FieldDestination},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t, always(modelDays(1), nil))

			_, err := h.orch.Submit(context.Background(), tt.destination, tt.days)

			var inputErr *entity.ClientInputError
			require.ErrorAs(t, err, &inputErr)
			assert.Equal(t, tt.field, inputErr.Field)
			assert.Equal(t, 0, h.store.count())
			assert.Equal(t, 0, h.tokens.calls)
			assert.Empty(t, h.scheduler.tasks)
		})
	}
}

func TestSubmit_BoundaryDaysAccepted(t *testing.T) {
	h := newHarness(t, always(modelDays(1), nil))
	for _, days := range []int{1, 30} {
		_, err := h.orch.Submit(context.Background(), "Rome", days)
		assert.NoError(t, err)
	}
}

func TestSubmit_TokenFailureCreatesNothing(t *testing.T) {
	h := newHarness(t, always(modelDays(1), nil))
	h.tokens.err = &entity.DependencyError{Op: "token.exchange", StatusCode: http.StatusUnauthorized, Err: errors.New("invalid_grant")}

	_, err := h.orch.Submit(context.Background(), "Rome", 2)

	var depErr *entity.DependencyError
	require.ErrorAs(t, err, &depErr)
	assert.Equal(t, 0, h.store.count())
	assert.Empty(t, h.scheduler.tasks)
}

func TestSubmit_CreateRetriedAfterLostResponse(t *testing.T) {
	h := newHarness(t, always(modelDays(1), nil))
	h.store.createHook = func(call int) (bool, error) {
		if call == 1 {
			return true, &entity.DependencyError{Op: "store.create", StatusCode: http.StatusServiceUnavailable, Err: errors.New("unavailable")}
		}
		return true, nil
	}

	jobID, err := h.orch.Submit(context.Background(), "Rome", 2)
	require.NoError(t, err)
	assert.Equal(t, 2, h.store.creates)

	job, err := h.orch.GetJob(context.Background(), jobID)
	require.NoError(t, err)
	assert.Equal(t, entity.StatusProcessing, job.Status)
}

func TestSubmit_CreateFailure(t *testing.T) {
	h := newHarness(t, always(modelDays(1), nil))
	h.store.createHook = func(int) (bool, error) {
		return false, &entity.DependencyError{Op: "store.create", StatusCode: http.StatusForbidden, Err: errors.New("denied")}
	}

	_, err := h.orch.Submit(context.Background(), "Rome", 2)
	require.Error(t, err)
	assert.Equal(t, 1, h.store.creates)
	assert.Empty(t, h.scheduler.tasks)
}

func TestSubmit_ScheduleFailureMarksJobFailed(t *testing.T) {
	h := newHarness(t, always(modelDays(1), nil))
	h.scheduler.err = errors.New("queue unavailable")

	_, err := h.orch.Submit(context.Background(), "Rome", 2)
	require.Error(t, err)

	require.Equal(t, 1, h.store.count())
	for key := range h.store.docs {
		fields, _ := h.store.Get(context.Background(), "", testCollection, key[len(testCollection)+1:])
		job, err := entity.JobFromFields("x", fields)
		require.NoError(t, err)
		assert.Equal(t, entity.StatusFailed, job.Status)
		require.NotNil(t, job.Error)
		assert.Contains(t, *job.Error, "queue unavailable")
	}
}

func TestRunGeneration_ParisCompleted(t *testing.T) {
	h := newHarness(t, always(modelDays(1, 2, 3), nil))
	ctx := context.Background()

	jobID, err := h.orch.Submit(ctx, "Paris, France", 3)
	require.NoError(t, err)
	tokensAfterSubmit := h.tokens.n

	h.runScheduled(t)

	job, err := h.orch.GetJob(ctx, jobID)
	require.NoError(t, err)
	assert.Equal(t, entity.StatusCompleted, job.Status)
	require.Len(t, job.Itinerary, 3)
	for i, d := range job.Itinerary {
		assert.Equal(t, i+1, d.Day)
	}
	assert.Nil(t, job.Error)
	require.NotNil(t, job.CompletedAt)
	assert.True(t, job.CompletedAt.After(job.CreatedAt))

	// generation used a token minted after submission
	require.Len(t, h.store.updateToken, 1)
	assert.NotEqual(t, fmt.Sprintf("tok-%d", tokensAfterSubmit), h.store.updateToken[0])
	assert.Equal(t, float64(1), testutil.ToFloat64(h.metrics.JobsCompleted))
}

func TestRunGeneration_ContentErrorExhaustsToFailed(t *testing.T) {
	h := newHarness(t, always(nil, &entity.ContentError{Reason: "no JSON array in model response"}))
	ctx := context.Background()

	jobID, err := h.orch.Submit(ctx, "Paris, France", 3)
	require.NoError(t, err)
	h.runScheduled(t)

	job, err := h.orch.GetJob(ctx, jobID)
	require.NoError(t, err)
	assert.Equal(t, entity.StatusFailed, job.Status)
	assert.Nil(t, job.Itinerary)
	require.NotNil(t, job.Error)
	assert.NotEmpty(t, *job.Error)
	assert.NotNil(t, job.CompletedAt)
	assert.Equal(t, 4, h.generator.calls)
	assert.Equal(t, float64(1), testutil.ToFloat64(h.metrics.JobsFailed))
}

func TestRunGeneration_RetriesInvalidOutput(t *testing.T) {
	h := newHarness(t, func(_ context.Context, call int) (any, error) {
		if call == 1 {
			return modelDays(1, 3), nil
		}
		return modelDays(1, 2), nil
	})
	ctx := context.Background()

	jobID, err := h.orch.Submit(ctx, "Vienna", 2)
	require.NoError(t, err)
	h.runScheduled(t)

	job, err := h.orch.GetJob(ctx, jobID)
	require.NoError(t, err)
	assert.Equal(t, entity.StatusCompleted, job.Status)
	assert.Equal(t, 2, h.generator.calls)
}

func TestRunGeneration_ValidationFailureRecorded(t *testing.T) {
	h := newHarness(t, always(modelDays(1, 3), nil))
	ctx := context.Background()

	jobID, err := h.orch.Submit(ctx, "Vienna", 2)
	require.NoError(t, err)
	h.runScheduled(t)

	job, err := h.orch.GetJob(ctx, jobID)
	require.NoError(t, err)
	assert.Equal(t, entity.StatusFailed, job.Status)
	require.NotNil(t, job.Error)
	assert.Contains(t, *job.Error, entity.RuleDaySequence)
}

func TestRunGeneration_DependencyFailureNotRetriedAgain(t *testing.T) {
	h := newHarness(t, always(nil, fmt.Errorf("%w after 4 attempts: %w", retry.ErrMaxAttemptsExceeded,
		&entity.DependencyError{Op: "gemini.generate", StatusCode: http.StatusServiceUnavailable, Err: errors.New("overloaded")})))
	ctx := context.Background()

	jobID, err := h.orch.Submit(ctx, "Vienna", 2)
	require.NoError(t, err)
	h.runScheduled(t)

	job, err := h.orch.GetJob(ctx, jobID)
	require.NoError(t, err)
	assert.Equal(t, entity.StatusFailed, job.Status)
	assert.Equal(t, 1, h.generator.calls)
}

func TestRunGeneration_FailureWriteRetriedWithFreshToken(t *testing.T) {
	h := newHarness(t, always(nil, &entity.ContentError{Reason: "garbage"}))
	h.store.updateHook = func(call int, _ string) error {
		if call == 1 {
			return &entity.DependencyError{Op: "store.update", StatusCode: http.StatusUnauthorized, Err: errors.New("token expired")}
		}
		return nil
	}
	ctx := context.Background()

	jobID, err := h.orch.Submit(ctx, "Vienna", 2)
	require.NoError(t, err)
	h.runScheduled(t)

	job, err := h.orch.GetJob(ctx, jobID)
	require.NoError(t, err)
	assert.Equal(t, entity.StatusFailed, job.Status)
	require.Len(t, h.store.updateToken, 2)
	assert.NotEqual(t, h.store.updateToken[0], h.store.updateToken[1])
	assert.Equal(t, float64(0), testutil.ToFloat64(h.metrics.JobsStuck))
}

func TestRunGeneration_StuckJobStaysProcessing(t *testing.T) {
	h := newHarness(t, always(nil, &entity.ContentError{Reason: "garbage"}))
	h.store.updateHook = func(int, string) error {
		return &entity.DependencyError{Op: "store.update", StatusCode: http.StatusForbidden, Err: errors.New("denied")}
	}
	ctx := context.Background()

	jobID, err := h.orch.Submit(ctx, "Vienna", 2)
	require.NoError(t, err)
	h.runScheduled(t)

	job, err := h.orch.GetJob(ctx, jobID)
	require.NoError(t, err)
	assert.Equal(t, entity.StatusProcessing, job.Status)
	assert.Equal(t, 2, h.store.updates)
	assert.Equal(t, float64(1), testutil.ToFloat64(h.metrics.JobsStuck))
	assert.Equal(t, float64(0), testutil.ToFloat64(h.metrics.JobsFailed))
}

func TestRunGeneration_CompletionWriteFailureFallsBackToFailed(t *testing.T) {
	h := newHarness(t, always(modelDays(1), nil))
	h.store.updateHook = func(call int, _ string) error {
		if call == 1 {
			return &entity.DependencyError{Op: "store.update", StatusCode: http.StatusBadRequest, Err: errors.New("document too large")}
		}
		return nil
	}
	ctx := context.Background()

	jobID, err := h.orch.Submit(ctx, "Vienna", 1)
	require.NoError(t, err)
	h.runScheduled(t)

	job, err := h.orch.GetJob(ctx, jobID)
	require.NoError(t, err)
	assert.Equal(t, entity.StatusFailed, job.Status)
	require.NotNil(t, job.Error)
	assert.Contains(t, *job.Error, "document too large")
	assert.Nil(t, job.Itinerary)
}

func TestRunGeneration_SkipsTerminalJob(t *testing.T) {
	h := newHarness(t, always(modelDays(1), nil))
	ctx := context.Background()

	_, err := h.orch.Submit(ctx, "Vienna", 1)
	require.NoError(t, err)
	h.runScheduled(t)
	require.Equal(t, 1, h.generator.calls)

	// redelivery of the same task
	h.orch.RunGeneration(ctx, h.scheduler.tasks[0])
	assert.Equal(t, 1, h.generator.calls)
	assert.Equal(t, 1, h.store.updates)
}

func TestRunGeneration_MissingDocumentSkipped(t *testing.T) {
	h := newHarness(t, always(modelDays(1), nil))

	h.orch.RunGeneration(context.Background(), entity.GenerationTask{JobID: "ghost", Destination: "Vienna", DurationDays: 1})
	assert.Equal(t, 0, h.generator.calls)
	assert.Equal(t, 0, h.store.updates)
}

func TestRunGeneration_TimeoutForcesFailed(t *testing.T) {
	h := newHarness(t, func(ctx context.Context, _ int) (any, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	})
	h.orch.cfg.GenerationTimeout = 20 * time.Millisecond
	ctx := context.Background()

	jobID, err := h.orch.Submit(ctx, "Vienna", 1)
	require.NoError(t, err)
	h.runScheduled(t)

	job, err := h.orch.GetJob(ctx, jobID)
	require.NoError(t, err)
	assert.Equal(t, entity.StatusFailed, job.Status)
	require.NotNil(t, job.Error)
	assert.Contains(t, *job.Error, "timed out")
}

func TestRunGeneration_LostCompletionResponseKeepsCompleted(t *testing.T) {
	h := newHarness(t, always(modelDays(1), nil))
	unavailable := &entity.DependencyError{Op: "store.update", StatusCode: http.StatusServiceUnavailable, Err: errors.New("unavailable")}
	h.store.updateLands = true
	h.store.updateHook = func(call int, _ string) error {
		if call <= 4 {
			return unavailable
		}
		return nil
	}
	ctx := context.Background()

	jobID, err := h.orch.Submit(ctx, "Vienna", 1)
	require.NoError(t, err)

	// the read before generation works, every read after it fails
	h.store.getHook = func(call int) error {
		if call > 1 {
			return &entity.DependencyError{Op: "store.get", StatusCode: http.StatusServiceUnavailable, Err: errors.New("unavailable")}
		}
		return nil
	}
	h.runScheduled(t)

	assert.Equal(t, 4, h.store.updates)
	assert.Equal(t, float64(1), testutil.ToFloat64(h.metrics.JobsStuck))
	assert.Equal(t, float64(0), testutil.ToFloat64(h.metrics.JobsFailed))

	h.store.getHook = nil
	job, err := h.orch.GetJob(ctx, jobID)
	require.NoError(t, err)
	assert.Equal(t, entity.StatusCompleted, job.Status)
	assert.Len(t, job.Itinerary, 1)
	assert.Nil(t, job.Error)
}

func TestRunGeneration_CancelledRunIsRequeued(t *testing.T) {
	runCtx, cancel := context.WithCancel(context.Background())
	defer cancel()
	h := newHarness(t, func(ctx context.Context, call int) (any, error) {
		if call == 1 {
			cancel()
			<-ctx.Done()
			return nil, ctx.Err()
		}
		return modelDays(1), nil
	})
	h.orch.cfg.RequeueOnCancel = true
	ctx := context.Background()

	jobID, err := h.orch.Submit(ctx, "Vienna", 1)
	require.NoError(t, err)

	err = h.orch.RunGeneration(runCtx, h.scheduler.tasks[0])
	require.ErrorIs(t, err, repository.ErrTaskInterrupted)
	assert.Equal(t, 0, h.store.updates)

	job, err := h.orch.GetJob(ctx, jobID)
	require.NoError(t, err)
	assert.Equal(t, entity.StatusProcessing, job.Status)

	// redelivery picks the job up again
	require.NoError(t, h.orch.RunGeneration(ctx, h.scheduler.tasks[0]))

	job, err = h.orch.GetJob(ctx, jobID)
	require.NoError(t, err)
	assert.Equal(t, entity.StatusCompleted, job.Status)
	assert.Equal(t, float64(0), testutil.ToFloat64(h.metrics.JobsFailed))
}

func TestRunGeneration_CancelledRunFailsWithoutRedelivery(t *testing.T) {
	runCtx, cancel := context.WithCancel(context.Background())
	defer cancel()
	h := newHarness(t, func(ctx context.Context, _ int) (any, error) {
		cancel()
		<-ctx.Done()
		return nil, ctx.Err()
	})
	ctx := context.Background()

	jobID, err := h.orch.Submit(ctx, "Vienna", 1)
	require.NoError(t, err)

	require.NoError(t, h.orch.RunGeneration(runCtx, h.scheduler.tasks[0]))

	job, err := h.orch.GetJob(ctx, jobID)
	require.NoError(t, err)
	assert.Equal(t, entity.StatusFailed, job.Status)
}

func TestRunGeneration_DeadlineFailsEvenWhenRequeueing(t *testing.T) {
	h := newHarness(t, func(ctx context.Context, _ int) (any, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	})
	h.orch.cfg.GenerationTimeout = 20 * time.Millisecond
	h.orch.cfg.RequeueOnCancel = true
	ctx := context.Background()

	jobID, err := h.orch.Submit(ctx, "Vienna", 1)
	require.NoError(t, err)
	h.runScheduled(t)

	job, err := h.orch.GetJob(ctx, jobID)
	require.NoError(t, err)
	assert.Equal(t, entity.StatusFailed, job.Status)
	require.NotNil(t, job.Error)
	assert.Contains(t, *job.Error, "timed out")
}

func TestRunGeneration_TokenFailureLeavesJobStuck(t *testing.T) {
	h := newHarness(t, always(modelDays(1), nil))
	ctx := context.Background()

	jobID, err := h.orch.Submit(ctx, "Vienna", 1)
	require.NoError(t, err)

	// tokens fail during generation only
	h.tokens.err = errors.New("token endpoint down")
	h.orch.RunGeneration(ctx, h.scheduler.tasks[0])

	assert.Equal(t, 0, h.generator.calls)
	assert.Equal(t, float64(1), testutil.ToFloat64(h.metrics.JobsStuck))

	h.tokens.err = nil
	job, err := h.orch.GetJob(ctx, jobID)
	require.NoError(t, err)
	assert.Equal(t, entity.StatusProcessing, job.Status)
}

func TestGetJob_NotFound(t *testing.T) {
	h := newHarness(t, always(modelDays(1), nil))

	_, err := h.orch.GetJob(context.Background(), "does-not-exist")
	assert.ErrorIs(t, err, entity.ErrJobNotFound)
}

func TestGetJob_EmptyID(t *testing.T) {
	h := newHarness(t, always(modelDays(1), nil))

	_, err := h.orch.GetJob(context.Background(), "  ")
	var inputErr *entity.ClientInputError
	assert.ErrorAs(t, err, &inputErr)
}
