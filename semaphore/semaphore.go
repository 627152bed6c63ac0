// Package semaphore provides a counting semaphore with configurable
// fairness modes, built directly on the internal waiter-queuing discipline
// shared by every primitive in coop — the Go translation of toro's
// Semaphore and BoundedSemaphore.
package semaphore

import (
	"fmt"
	"sync"

	"github.com/kolosys/coop/internal/waiter"
	"github.com/kolosys/coop/shared"
)

// Fairness defines the ordering behavior for semaphore waiters.
type Fairness int

const (
	// FIFO processes waiters in first-in-first-out order (default). A
	// newly arriving Acquire/TryAcquire never jumps ahead of an already
	// queued waiter, even if there happen to be enough permits free.
	FIFO Fairness = iota
	// LIFO processes waiters in last-in-first-out order.
	LIFO
	// None provides no fairness guarantees, allowing maximum performance.
	None
)

// String returns the string representation of the fairness mode.
func (f Fairness) String() string {
	switch f {
	case FIFO:
		return "FIFO"
	case LIFO:
		return "LIFO"
	case None:
		return "None"
	default:
		return fmt.Sprintf("Fairness(%d)", int(f))
	}
}

// Semaphore is a counting semaphore. Acquire(ctx, n) blocks until n
// permits are available; Release(n) returns them. A Semaphore built with
// NewBounded additionally refuses to Release past its initial capacity.
// The zero value is not usable; build one with New or NewBounded.
type Semaphore struct {
	name     string
	obs      *shared.Observability
	fairness Fairness
	bounded  bool
	capacity int64

	mu      sync.Mutex
	current int64
	waiters waiterQueue
}

// semWaiter is a goroutine blocked in Acquire, parked on a waiter.Node for
// the at-most-once fire contract.
type semWaiter struct {
	weight int64
	node   *waiter.Node[struct{}]
}

// waiterQueue holds blocked Acquire calls ordered by Fairness. Adapted
// from the teacher's own fairness-aware waiter queue, swapping its raw
// "ready chan struct{}" signal for a waiter.Node so cancellation and
// notification can never both fire the same waiter.
type waiterQueue struct {
	fairness Fairness
	items    []*semWaiter
}

func (q *waiterQueue) push(w *semWaiter) {
	q.items = append(q.items, w)
}

// pruneExpired drops waiters whose node already fired, wherever they sit
// in the queue — a canceled Acquire may leave a gap anywhere, not just at
// the head, since weight-based selection doesn't pop strictly in order.
func (q *waiterQueue) pruneExpired() {
	live := q.items[:0]
	for _, w := range q.items {
		if !w.node.Expired() {
			live = append(live, w)
		}
	}
	q.items = live
}

// popReady removes and returns the first waiter (per fairness order) whose
// weight fits within available permits, or nil if none fits.
func (q *waiterQueue) popReady(available int64) *semWaiter {
	if len(q.items) == 0 {
		return nil
	}

	index := -1
	switch q.fairness {
	case LIFO:
		for i := len(q.items) - 1; i >= 0; i-- {
			if q.items[i].weight <= available {
				index = i
				break
			}
		}
	default: // FIFO and None both serve in arrival order here
		for i, w := range q.items {
			if w.weight <= available {
				index = i
				break
			}
		}
	}

	if index == -1 {
		return nil
	}

	w := q.items[index]
	q.items = append(q.items[:index], q.items[index+1:]...)
	return w
}

func (q *waiterQueue) remove(target *semWaiter) bool {
	for i, w := range q.items {
		if w == target {
			q.items = append(q.items[:i], q.items[i+1:]...)
			return true
		}
	}
	return false
}

func (q *waiterQueue) len() int {
	return len(q.items)
}

// Option configures semaphore behavior.
type Option func(*config)

type config struct {
	name     string
	fairness Fairness
	obs      *shared.Observability
}

// WithName sets the semaphore name for observability and error reporting.
func WithName(name string) Option {
	return func(c *config) {
		c.name = name
	}
}

// WithFairness sets the fairness mode for waiter ordering.
func WithFairness(fairness Fairness) Option {
	return func(c *config) {
		c.fairness = fairness
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

func newSemaphore(initial int64, bounded bool, capacity int64, opts ...Option) *Semaphore {
	if initial < 0 {
		panic("semaphore: initial value must not be negative")
	}

	cfg := &config{
		fairness: FIFO,
		obs:      shared.NewObservability(),
	}
	for _, opt := range opts {
		opt(cfg)
	}

	s := &Semaphore{
		name:     cfg.name,
		obs:      cfg.obs,
		fairness: cfg.fairness,
		bounded:  bounded,
		capacity: capacity,
		current:  initial,
		waiters:  waiterQueue{fairness: cfg.fairness},
	}

	s.obs.Logger.Info("semaphore created",
		"name", s.name,
		"initial", initial,
		"bounded", bounded,
		"fairness", cfg.fairness.String(),
	)

	return s
}

// New creates an unbounded counting semaphore starting with initial
// permits available. Release never fails: a Semaphore built this way can
// accumulate more permits than it started with.
func New(initial int64, opts ...Option) *Semaphore {
	return newSemaphore(initial, false, 0, opts...)
}

// NewBounded creates a semaphore starting with capacity permits available,
// where capacity also acts as a ceiling: Release returns
// shared.ErrReleaseOverflow rather than let the permit count exceed it.
func NewBounded(capacity int64, opts ...Option) *Semaphore {
	return newSemaphore(capacity, true, capacity, opts...)
}
