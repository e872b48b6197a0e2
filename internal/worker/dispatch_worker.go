package worker

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/spec-kit/helpdesk-dispatch/internal/config"
	"github.com/spec-kit/helpdesk-dispatch/internal/service"
)

var (
	// ErrActivationRunning is returned by Trigger while an earlier activation is still in flight.
	ErrActivationRunning = errors.New("dispatch activation already running")
	// ErrTriggerThrottled is returned by Trigger when manual triggers exceed the configured rate.
	ErrTriggerThrottled = errors.New("dispatch trigger rate exceeded")
)

// Activator starts one dispatch activation in the background. The returned
// channel closes once the activation has finished.
type Activator interface {
	Activate(ctx context.Context) <-chan struct{}
}

// DispatchLauncher decides when the coordinator runs: once at startup, on an
// optional interval, and on manual triggers. At most one activation it starts
// is in flight at a time.
type DispatchLauncher struct {
	activator Activator
	cfg       config.DispatchConfig
	limiter   *rate.Limiter
	logger    *zap.Logger

	running atomic.Bool
	wg      sync.WaitGroup

	mu      sync.Mutex
	baseCtx context.Context
}

// NewDispatchLauncher builds a launcher for activator.
func NewDispatchLauncher(activator Activator, cfg config.DispatchConfig, logger *zap.Logger) *DispatchLauncher {
	limit := rate.Inf
	if cfg.TriggersPerMinute > 0 {
		limit = rate.Every(time.Minute / time.Duration(cfg.TriggersPerMinute))
	}
	return &DispatchLauncher{
		activator: activator,
		cfg:       cfg,
		limiter:   rate.NewLimiter(limit, 1),
		logger:    logger.Named("dispatch-launcher"),
		baseCtx:   context.Background(),
	}
}

// Start binds activations to ctx, runs the startup activation if enabled and
// starts the interval loop. Cancelling ctx interrupts running activations.
func (l *DispatchLauncher) Start(ctx context.Context) {
	l.mu.Lock()
	l.baseCtx = ctx
	l.mu.Unlock()

	if l.cfg.RunOnStart {
		l.launch("startup")
	}
	if interval := l.cfg.Interval(); interval > 0 {
		l.wg.Add(1)
		go l.loop(ctx, interval)
	}
}

func (l *DispatchLauncher) loop(ctx context.Context, interval time.Duration) {
	defer l.wg.Done()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if !l.launch("interval") {
				l.logger.Debug("skipping interval activation; previous one still running")
			}
		}
	}
}

// Trigger starts a manual activation and returns without waiting for it.
func (l *DispatchLauncher) Trigger() error {
	if l.running.Load() {
		return ErrActivationRunning
	}
	if !l.limiter.Allow() {
		return ErrTriggerThrottled
	}
	if !l.launch("manual") {
		return ErrActivationRunning
	}
	return nil
}

// Running reports whether a launched activation is in flight.
func (l *DispatchLauncher) Running() bool {
	return l.running.Load()
}

// Wait blocks until the interval loop and any running activation have returned.
func (l *DispatchLauncher) Wait() {
	l.wg.Wait()
}

func (l *DispatchLauncher) launch(reason string) bool {
	if !l.running.CompareAndSwap(false, true) {
		return false
	}
	l.mu.Lock()
	ctx := l.baseCtx
	l.mu.Unlock()

	log := l.logger.With(zap.String("reason", reason))
	log.Info("launching dispatch activation")
	started := time.Now()
	done := l.activator.Activate(ctx)

	l.wg.Add(1)
	go func() {
		defer l.wg.Done()
		<-done
		l.running.Store(false)
		log.Debug("dispatch activation done", zap.Duration("elapsed", time.Since(started)))
	}()
	return true
}

// StartDispatchFeed registers the redis feed on the events bus.
func StartDispatchFeed(feed *service.DispatchFeed) {
	if feed == nil {
		return
	}
	feed.RegisterHandlers()
}
