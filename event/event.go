// Package event provides a manual-reset boolean flag that goroutines can
// wait on, mirroring toro's Event: a Condition plus an is_set flag, where
// Set wakes every current waiter and Wait on an already-set flag returns
// immediately.
package event

import (
	"context"
	"sync"

	"github.com/kolosys/coop/cond"
	"github.com/kolosys/coop/shared"
)

// Event is a manual-reset flag. The zero value is not usable; build one
// with New.
type Event struct {
	name string
	obs  *shared.Observability

	mu  sync.Mutex
	set bool
	c   *cond.Condition
}

// Option configures an Event.
type Option func(*config)

type config struct {
	name string
	obs  *shared.Observability
}

// WithName sets the event's name for observability.
func WithName(name string) Option {
	return func(c *config) {
		c.name = name
	}
}

// WithLogger sets the logger for observability.
func WithLogger(logger shared.Logger) Option {
	return func(c *config) {
		c.obs = c.obs.WithLogger(logger)
	}
}

// WithMetrics sets the metrics recorder for observability.
func WithMetrics(metrics shared.Metrics) Option {
	return func(c *config) {
		c.obs = c.obs.WithMetrics(metrics)
	}
}

// WithTracer sets the tracer for observability.
func WithTracer(tracer shared.Tracer) Option {
	return func(c *config) {
		c.obs = c.obs.WithTracer(tracer)
	}
}

// New creates an Event, initially unset.
func New(opts ...Option) *Event {
	cfg := &config{
		obs: shared.NewObservability(),
	}
	for _, opt := range opts {
		opt(cfg)
	}

	e := &Event{
		name: cfg.name,
		obs:  cfg.obs,
		c:    cond.New(cond.WithName(cfg.name), cond.WithLogger(cfg.obs.Logger), cond.WithMetrics(cfg.obs.Metrics), cond.WithTracer(cfg.obs.Tracer)),
	}

	e.obs.Logger.Debug("event created", "name", e.name)

	return e
}

// IsSet reports whether the flag is currently set.
func (e *Event) IsSet() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.set
}

// Set raises the flag and wakes every goroutine currently parked in Wait.
// Calling Set on an already-set Event is a no-op.
func (e *Event) Set() {
	e.mu.Lock()
	if e.set {
		e.mu.Unlock()
		return
	}
	e.set = true
	e.mu.Unlock()

	e.c.NotifyAll()
	e.obs.Logger.Debug("event set", "name", e.name)
	e.obs.Metrics.Inc("coop_event_set_total", "name", e.name)
}

// Clear lowers the flag. Future Wait calls will block until the next Set.
func (e *Event) Clear() {
	e.mu.Lock()
	e.set = false
	e.mu.Unlock()

	e.obs.Logger.Debug("event cleared", "name", e.name)
}

// Wait blocks until the flag is set or ctx is canceled. If the flag is
// already set, Wait returns immediately without queuing behind other
// waiters — there is nothing left to order against, since a set flag wakes
// everyone already queued.
func (e *Event) Wait(ctx context.Context) error {
	e.mu.Lock()
	if e.set {
		e.mu.Unlock()
		return nil
	}
	e.mu.Unlock()

	err := e.c.Wait(ctx)
	// The flag may have been cleared again between Notify and this
	// goroutine resuming; re-check instead of trusting a stale wakeup.
	if err == nil && !e.IsSet() {
		return e.Wait(ctx)
	}
	return err
}
