// Package lock provides a context-aware mutual-exclusion lock — the Go
// translation of toro's Lock, built the same way toro builds it: as a
// semaphore initialized to one permit.
package lock

import (
	"context"

	"github.com/kolosys/coop/semaphore"
	"github.com/kolosys/coop/shared"
)

// Mutex is a context-aware mutual-exclusion lock. The zero value is not
// usable; build one with New.
type Mutex struct {
	name string
	obs  *shared.Observability
	sem  *semaphore.Semaphore
}

// Option configures a Mutex.
type Option func(*config)

type config struct {
	name string
	obs  *shared.Observability
}

// WithName sets the mutex's name for observability and error reporting.
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

// New creates an unlocked Mutex.
func New(opts ...Option) *Mutex {
	cfg := &config{
		obs: shared.NewObservability(),
	}
	for _, opt := range opts {
		opt(cfg)
	}

	return &Mutex{
		name: cfg.name,
		obs:  cfg.obs,
		sem: semaphore.NewBounded(1,
			semaphore.WithName(cfg.name),
			semaphore.WithLogger(cfg.obs.Logger),
			semaphore.WithMetrics(cfg.obs.Metrics),
			semaphore.WithTracer(cfg.obs.Tracer),
		),
	}
}

// Lock blocks until the mutex is acquired or ctx is canceled.
func (m *Mutex) Lock(ctx context.Context) error {
	return m.sem.Acquire(ctx, 1)
}

// TryLock attempts to acquire the mutex without blocking.
func (m *Mutex) TryLock() bool {
	return m.sem.TryAcquire(1)
}

// Unlock releases the mutex. Like sync.Mutex, unlocking an already-unlocked
// Mutex is a programmer error and panics rather than returning an error —
// the underlying semaphore's bounded-release overflow is the signal.
func (m *Mutex) Unlock() {
	if err := m.sem.Release(1); err != nil {
		panic("lock: Unlock of unlocked Mutex")
	}
}

// Locked reports whether the mutex is currently held. The result is
// derived live from the semaphore's permit count and so can be stale the
// instant it's read under concurrent access — it is meant for diagnostics,
// not for synchronization decisions.
func (m *Mutex) Locked() bool {
	return m.sem.Current() == 0
}
