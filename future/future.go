// Package future provides a single-assignment, broadcast result value —
// the Go analogue of toro's AsyncResult. Any number of goroutines can Get
// the value; all of them are released together the moment Set is called,
// and the order in which they resume is not defined. Set may only ever be
// called once.
package future

import (
	"context"
	"sync"

	"github.com/kolosys/coop/shared"
)

// Future holds a value that starts unset and can be set at most once.
// Goroutines call Get to block until a value arrives, or TryGet for the
// non-blocking path. The zero value is not usable; build one with New.
type Future[T any] struct {
	name string
	obs  *shared.Observability

	mu    sync.Mutex
	ready bool
	val   T
	done  chan struct{}
}

// Option configures a Future.
type Option func(*config)

type config struct {
	name string
	obs  *shared.Observability
}

// WithName sets the future's name for observability and error reporting.
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

// New creates an unset Future.
func New[T any](opts ...Option) *Future[T] {
	cfg := &config{
		obs: shared.NewObservability(),
	}
	for _, opt := range opts {
		opt(cfg)
	}

	f := &Future[T]{
		name: cfg.name,
		obs:  cfg.obs,
		done: make(chan struct{}),
	}

	f.obs.Logger.Debug("future created", "name", f.name)

	return f
}

// Ready reports whether Set has already been called.
func (f *Future[T]) Ready() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.ready
}

// Set assigns the future's value and wakes every goroutine blocked in Get.
// Closing done releases them all at once; the order in which they resume is
// not defined, and in particular is not the order in which they called Get.
//
// Set returns shared.ErrAlreadySet if the future already holds a value.
func (f *Future[T]) Set(v T) error {
	f.mu.Lock()
	if f.ready {
		f.mu.Unlock()
		return shared.NewAlreadySetError(f.name)
	}
	f.val = v
	f.ready = true
	close(f.done)
	f.mu.Unlock()

	f.obs.Logger.Debug("future set", "name", f.name)
	f.obs.Metrics.Inc("coop_future_set_total", "name", f.name)

	return nil
}

// Get blocks until the future is set or ctx is canceled. A canceled wait
// never consumes or corrupts the eventual value — it is purely an
// observation of "not yet", distinct from the value ever being nil, which
// resolves the nil-vs-timeout ambiguity a dynamically typed get() has.
func (f *Future[T]) Get(ctx context.Context) (T, error) {
	select {
	case <-f.done:
		f.mu.Lock()
		v := f.val
		f.mu.Unlock()
		return v, nil
	case <-ctx.Done():
		var zero T
		return zero, shared.NewTimedOutError(ctx)
	}
}

// TryGet returns the value without blocking. It reports
// shared.ErrNotReady if Set has not yet been called.
func (f *Future[T]) TryGet() (T, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.ready {
		var zero T
		return zero, shared.NewNotReadyError(f.name)
	}
	return f.val, nil
}
