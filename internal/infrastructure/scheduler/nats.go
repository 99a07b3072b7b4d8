package scheduler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"itinerary-service/internal/domain/entity"
	"itinerary-service/internal/domain/repository"
	"itinerary-service/pkg/logger"

	"github.com/nats-io/nats.go"
)

// NATSConfig configures the JetStream work queue
type NATSConfig struct {
	Stream  string
	Subject string
	Durable string
	Workers int
	// AckWait must cover a whole generation, otherwise the task is redelivered while running
	AckWait    time.Duration
	MaxDeliver int
}

// NATSScheduler publishes tasks to a JetStream stream and runs them from a durable
// pull consumer. A task is acked only after its handler returns, so a crashed
// process leaves it for redelivery.
type NATSScheduler struct {
	js     nats.JetStreamContext
	cfg    NATSConfig
	logger logger.Logger

	mu          sync.Mutex
	sub         *nats.Subscription
	stopFetch   context.CancelFunc
	stopHandler context.CancelFunc
	wg          sync.WaitGroup
	closed      bool
}

// NewJetStream opens a JetStream context and makes sure the work-queue stream exists
func NewJetStream(nc *nats.Conn, stream, subject string) (nats.JetStreamContext, error) {
	js, err := nc.JetStream()
	if err != nil {
		return nil, fmt.Errorf("JetStream: %w", err)
	}

	_, err = js.AddStream(&nats.StreamConfig{
		Name:      stream,
		Subjects:  []string{subject},
		Retention: nats.WorkQueuePolicy,
		Storage:   nats.FileStorage,
	})
	if err != nil && !errors.Is(err, nats.ErrStreamNameAlreadyInUse) {
		return nil, fmt.Errorf("JetStream AddStream: %w", err)
	}

	return js, nil
}

// NewNATSScheduler creates a JetStream backed scheduler
func NewNATSScheduler(js nats.JetStreamContext, cfg NATSConfig, logger logger.Logger) *NATSScheduler {
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.Durable == "" {
		cfg.Durable = "itinerary-generation"
	}
	if cfg.AckWait <= 0 {
		cfg.AckWait = 15 * time.Minute
	}
	if cfg.MaxDeliver <= 0 {
		cfg.MaxDeliver = 3
	}
	return &NATSScheduler{js: js, cfg: cfg, logger: logger}
}

// RunDetached publishes the task. The job id doubles as the message id so a
// republished task is deduplicated by the stream.
func (s *NATSScheduler) RunDetached(ctx context.Context, task entity.GenerationTask) error {
	s.mu.Lock()
	closed := s.closed
	s.mu.Unlock()
	if closed {
		return ErrSchedulerClosed
	}

	data, err := json.Marshal(task)
	if err != nil {
		return fmt.Errorf("failed to marshal task: %w", err)
	}

	msg := &nats.Msg{
		Subject: s.cfg.Subject,
		Data:    data,
		Header:  nats.Header{},
	}
	msg.Header.Set(nats.MsgIdHdr, task.JobID)

	ack, err := s.js.PublishMsg(msg, nats.Context(ctx))
	if err != nil {
		return fmt.Errorf("enqueue job %s: publish failed: %w", task.JobID, err)
	}

	s.logger.Debug("Generation task enqueued", "jobId", task.JobID, "stream", ack.Stream, "seq", ack.Sequence)
	return nil
}

// Start binds the durable consumer and launches the workers
func (s *NATSScheduler) Start(ctx context.Context, handler repository.TaskHandler) error {
	_, err := s.js.AddConsumer(s.cfg.Stream, &nats.ConsumerConfig{
		Durable:       s.cfg.Durable,
		AckPolicy:     nats.AckExplicitPolicy,
		FilterSubject: s.cfg.Subject,
		AckWait:       s.cfg.AckWait,
		MaxDeliver:    s.cfg.MaxDeliver,
		MaxAckPending: s.cfg.Workers * 2,
	})
	if err != nil && !errors.Is(err, nats.ErrConsumerNameAlreadyInUse) {
		return fmt.Errorf("JetStream AddConsumer: %w", err)
	}

	sub, err := s.js.PullSubscribe(s.cfg.Subject, s.cfg.Durable, nats.Bind(s.cfg.Stream, s.cfg.Durable))
	if err != nil {
		return fmt.Errorf("JetStream PullSubscribe: %w", err)
	}

	fetchCtx, stopFetch := context.WithCancel(ctx)
	handlerCtx, stopHandler := context.WithCancel(context.WithoutCancel(ctx))

	s.mu.Lock()
	s.sub = sub
	s.stopFetch = stopFetch
	s.stopHandler = stopHandler
	s.mu.Unlock()

	for range s.cfg.Workers {
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.runWorker(fetchCtx, handlerCtx, handler)
		}()
	}

	s.logger.Info("NATS scheduler is running", "workers", s.cfg.Workers, "subject", s.cfg.Subject)
	return nil
}

func (s *NATSScheduler) runWorker(ctx, handlerCtx context.Context, handler repository.TaskHandler) {
	for {
		if ctx.Err() != nil {
			return
		}

		fetchCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		msgs, err := s.sub.Fetch(1, nats.Context(fetchCtx))
		cancel()
		if err != nil {
			if errors.Is(err, context.Canceled) || ctx.Err() != nil {
				return
			}
			if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, nats.ErrTimeout) {
				continue
			}
			s.logger.Warn("NATS fetch failed", "error", err)
			select {
			case <-ctx.Done():
				return
			case <-time.After(100 * time.Millisecond):
			}
			continue
		}

		for _, msg := range msgs {
			s.handle(handlerCtx, msg, handler)
		}
	}
}

func (s *NATSScheduler) handle(ctx context.Context, msg *nats.Msg, handler repository.TaskHandler) {
	var task entity.GenerationTask
	if err := json.Unmarshal(msg.Data, &task); err != nil {
		s.logger.Error("Dropping malformed generation task", "error", err)
		_ = msg.Term()
		return
	}

	err := func() (err error) {
		defer func() {
			if r := recover(); r != nil {
				s.logger.Error("Generation task panicked", "jobId", task.JobID, "panic", r)
			}
		}()
		return handler(ctx, task)
	}()

	// Interrupted mid-task: the job is still processing, hand it out again.
	if errors.Is(err, repository.ErrTaskInterrupted) {
		s.logger.Info("Generation interrupted, requeueing", "jobId", task.JobID)
		if nakErr := msg.Nak(); nakErr != nil {
			s.logger.Warn("NATS nak failed", "jobId", task.JobID, "error", nakErr)
		}
		return
	}
	if err != nil {
		s.logger.Warn("Generation task ended with error", "jobId", task.JobID, "error", err)
	}
	if err := msg.Ack(); err != nil {
		s.logger.Warn("NATS ack failed", "jobId", task.JobID, "error", err)
	}
}

// Redelivers is true: unacked tasks are handed out again by the stream
func (s *NATSScheduler) Redelivers() bool { return true }

// Shutdown stops fetching and waits for running handlers until ctx ends, then
// cancels them and drains the subscription.
func (s *NATSScheduler) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	s.closed = true
	stopFetch, stopHandler := s.stopFetch, s.stopHandler
	sub := s.sub
	s.mu.Unlock()

	if stopFetch == nil {
		return nil
	}
	stopFetch()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	var err error
	select {
	case <-done:
	case <-ctx.Done():
		s.logger.Warn("Shutdown deadline reached, cancelling running generations")
		err = ctx.Err()
		stopHandler()
		<-done
	}
	stopHandler()

	if sub != nil {
		if drainErr := sub.Drain(); drainErr != nil {
			s.logger.Warn("NATS subscription drain failed", "error", drainErr)
		}
	}

	s.logger.Info("NATS scheduler stopped")
	return err
}
