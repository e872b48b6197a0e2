// Package dispatch assigns OPEN tickets to agents and resolves IN_PROGRESS
// tickets. Each activation runs the two tasks in their own goroutines; a
// single gate (mutex, condition variable and busy flag) serializes their
// batches so store mutations from one task never interleave with the other's.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-dispatch/internal/observability"
)

// DefaultPace is the pause between two processed tickets.
const DefaultPace = 2000 * time.Millisecond

const (
	taskAssignment = "assignment"
	taskResolution = "resolution"
)

// Coordinator owns the gate shared by the assignment and resolution tasks.
type Coordinator struct {
	store   Store
	audit   AuditLog
	logger  *zap.Logger
	metrics *observability.Metrics
	pace    time.Duration
	now     func() time.Time

	mu   sync.Mutex
	cond *sync.Cond
	busy bool
}

// Option customizes a Coordinator.
type Option func(*Coordinator)

// WithPace overrides DefaultPace. Zero disables pacing.
func WithPace(pace time.Duration) Option {
	return func(c *Coordinator) { c.pace = pace }
}

// WithClock sets the time source used for resolution and event timestamps.
func WithClock(now func() time.Time) Option {
	return func(c *Coordinator) { c.now = now }
}

// WithMetrics records activations and processed tickets.
func WithMetrics(metrics *observability.Metrics) Option {
	return func(c *Coordinator) { c.metrics = metrics }
}

// NewCoordinator builds a coordinator over the given store and audit log.
func NewCoordinator(store Store, audit AuditLog, logger *zap.Logger, opts ...Option) *Coordinator {
	if logger == nil {
		logger = zap.NewNop()
	}
	c := &Coordinator{
		store:  store,
		audit:  audit,
		logger: logger.Named("dispatch"),
		pace:   DefaultPace,
		now:    time.Now,
	}
	c.cond = sync.NewCond(&c.mu)
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Activate starts one activation in the background and returns immediately.
// The returned channel closes once both tasks have finished; callers are free
// to ignore it. Failures are only logged.
func (c *Coordinator) Activate(ctx context.Context) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := c.Run(ctx); err != nil {
			c.logger.Warn("activation finished with errors", zap.Error(err))
		}
	}()
	return done
}

// Run performs one activation: it starts the assignment and resolution tasks
// and waits for both. The joined task errors are returned for logging.
func (c *Coordinator) Run(ctx context.Context) error {
	c.metrics.RecordActivation()
	c.logger.Info("activation started")

	var (
		wg      sync.WaitGroup
		errs    [2]error
		started = time.Now()
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		errs[0] = c.runTask(ctx, taskAssignment, c.assignOpenTickets)
	}()
	go func() {
		defer wg.Done()
		errs[1] = c.runTask(ctx, taskResolution, c.resolveInProgressTickets)
	}()
	wg.Wait()

	err := errors.Join(errs[0], errs[1])
	c.logger.Info("activation finished", zap.Duration("elapsed", time.Since(started)), zap.Bool("failed", err != nil))
	return err
}

// runTask waits for the gate, runs batch, and always hands the gate back.
func (c *Coordinator) runTask(ctx context.Context, task string, batch func(context.Context) (int, error)) (err error) {
	log := c.logger.With(zap.String("task", task))

	if waitErr := c.acquire(ctx); waitErr != nil {
		err = interrupted(task, "wait for gate", "", waitErr)
		log.Error("interrupted while waiting for gate", zap.Error(err))
		c.metrics.RecordDispatchFailure(task)
		return err
	}
	defer c.release()
	defer func() {
		if r := recover(); r != nil {
			err = &Error{Task: task, Op: "batch", Err: fmt.Errorf("panic: %v", r)}
			log.Error("batch panicked", zap.Any("panic", r), zap.Stack("stack"))
			c.metrics.RecordDispatchFailure(task)
		}
	}()

	processed, err := batch(ctx)
	if err != nil {
		log.Error("batch aborted", zap.Int("processed", processed), zap.Error(err))
		c.metrics.RecordDispatchFailure(task)
		return err
	}
	log.Info("batch complete", zap.Int("processed", processed))
	return nil
}
