package tasks

import (
	"context"
	"runtime/debug"
	"sync"
	"time"

	"supportbot/internal/metrics"

	"go.uber.org/zap"
)

// Registry runs deferred background tasks keyed by name.
// Scheduling a key that already has a pending task cancels the old one,
// so at most one pending task exists per key.
type Registry struct {
	logger *zap.Logger

	ctx    context.Context
	cancel context.CancelFunc

	mu      sync.Mutex
	pending map[string]*task
	closed  bool
	wg      sync.WaitGroup
}

type task struct {
	cancel context.CancelFunc
}

// NewRegistry creates an empty registry
func NewRegistry(logger *zap.Logger) *Registry {
	ctx, cancel := context.WithCancel(context.Background())
	return &Registry{
		logger:  logger,
		ctx:     ctx,
		cancel:  cancel,
		pending: make(map[string]*task),
	}
}

// Schedule runs fn after delay unless the task is cancelled or replaced first.
// It returns false when the registry is already shut down.
func (r *Registry) Schedule(key string, delay time.Duration, fn func(ctx context.Context)) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		r.logger.Warn("Task not scheduled, registry is shut down", zap.String("task", key))
		return false
	}

	if prev, ok := r.pending[key]; ok {
		prev.cancel()
		metrics.IncTask("replaced")
		r.logger.Debug("Pending task replaced", zap.String("task", key))
	}

	ctx, cancel := context.WithCancel(r.ctx)
	t := &task{cancel: cancel}
	r.pending[key] = t
	metrics.IncTask("scheduled")

	r.wg.Add(1)
	go r.run(ctx, key, t, delay, fn)

	return true
}

// Cancel stops the pending task for key. It reports whether one was pending.
func (r *Registry) Cancel(key string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	t, ok := r.pending[key]
	if !ok {
		return false
	}
	t.cancel()
	delete(r.pending, key)
	metrics.IncTask("cancelled")
	return true
}

// Pending returns the number of tasks waiting for their delay
func (r *Registry) Pending() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.pending)
}

// Shutdown cancels all pending tasks and waits for running ones to return.
// It is idempotent.
func (r *Registry) Shutdown() {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return
	}
	r.closed = true
	dropped := len(r.pending)
	r.pending = make(map[string]*task)
	r.mu.Unlock()

	r.cancel()
	r.wg.Wait()

	r.logger.Info("Background tasks stopped", zap.Int("dropped", dropped))
}

func (r *Registry) run(ctx context.Context, key string, t *task, delay time.Duration, fn func(ctx context.Context)) {
	defer r.wg.Done()
	defer t.cancel()

	if delay > 0 {
		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}
	} else if ctx.Err() != nil {
		return
	}

	r.mu.Lock()
	current, ok := r.pending[key]
	if !ok || current != t {
		// replaced or cancelled while the timer fired
		r.mu.Unlock()
		return
	}
	delete(r.pending, key)
	r.mu.Unlock()

	defer func() {
		if rec := recover(); rec != nil {
			metrics.IncTask("panicked")
			r.logger.Error("Background task panicked",
				zap.String("task", key),
				zap.Any("panic", rec),
				zap.String("stack", string(debug.Stack())),
			)
		}
	}()

	metrics.IncTask("fired")
	fn(ctx)
}
