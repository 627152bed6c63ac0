// Package cond provides a goroutine-friendly condition variable: callers
// park on Wait until another goroutine calls Notify or NotifyAll, or their
// context is canceled first.
//
// Unlike sync.Cond, Wait takes no external lock to hold across the call —
// there is no "spurious wakeup" contract to honor, because a Condition only
// ever wakes a waiter by explicit Notify/NotifyAll, never on its own. This
// mirrors toro's Condition, whose wait() future resolves only from notify()
// or from the caller's own io_loop timeout.
package cond

import (
	"context"

	"github.com/kolosys/coop/internal/waiter"
	"github.com/kolosys/coop/shared"
)

// Condition is a FIFO-ordered wait/notify primitive. The zero value is not
// usable; build one with New.
type Condition struct {
	name string
	obs  *shared.Observability

	waiters waiter.List[struct{}]
}

// Option configures a Condition.
type Option func(*config)

type config struct {
	name string
	obs  *shared.Observability
}

// WithName sets the condition's name for observability.
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

// New creates a Condition ready to be waited on and notified.
func New(opts ...Option) *Condition {
	cfg := &config{
		obs: shared.NewObservability(),
	}
	for _, opt := range opts {
		opt(cfg)
	}

	c := &Condition{
		name: cfg.name,
		obs:  cfg.obs,
	}

	c.obs.Logger.Debug("condition created", "name", c.name)

	return c
}

// Wait blocks until Notify/NotifyAll wakes this caller or ctx is canceled.
// A canceled wait removes its own node from the queue so Notify never
// counts it, matching toro's "the future belongs to the deque until
// notified or the deque is popped" invariant.
func (c *Condition) Wait(ctx context.Context) error {
	n := waiter.New[struct{}]()
	c.waiters.PushBack(n)

	c.obs.Metrics.Gauge("coop_cond_waiters", float64(c.waiters.Len()), "name", c.name)

	select {
	case <-n.Done():
		return nil
	case <-ctx.Done():
		if !n.Fire(struct{}{}) {
			// Notify already claimed this node; treat it as a wakeup, not
			// a cancellation, so no notification is ever lost.
			<-n.Done()
			return nil
		}
		c.waiters.Remove(n)
		return shared.NewTimedOutError(ctx)
	}
}

// Notify wakes up to n waiters, in FIFO order. Asking for more than are
// currently waiting wakes all of them without error, matching toro's
// notify(n) loop stopping once the deque empties.
func (c *Condition) Notify(n int) {
	nodes := c.waiters.PopN(n)
	for _, node := range nodes {
		node.Fire(struct{}{})
	}

	c.obs.Logger.Debug("condition notified", "name", c.name, "count", len(nodes))
	c.obs.Metrics.Inc("coop_cond_notifications_total", "name", c.name)
}

// NotifyAll wakes every currently waiting caller.
func (c *Condition) NotifyAll() {
	c.Notify(c.waiters.Len())
}
