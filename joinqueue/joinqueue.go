// Package joinqueue provides a Queue that additionally tracks unfinished
// work, so a producer can Join and block until every item it Put has had
// a matching TaskDone call — the Go translation of toro's JoinableQueue.
package joinqueue

import (
	"context"
	"sync"

	"github.com/kolosys/coop/event"
	"github.com/kolosys/coop/queue"
	"github.com/kolosys/coop/shared"
)

// Queue wraps a queue.Queue[T], counting items Put against items marked
// done with TaskDone. The zero value is not usable; build one with New.
type Queue[T any] struct {
	name string
	obs  *shared.Observability

	inner *queue.Queue[T]

	mu         sync.Mutex
	unfinished int
	finished   *event.Event
}

// Option configures a Queue.
type Option func(*config)

type config struct {
	name string
	obs  *shared.Observability
}

// WithName sets the queue's name for observability and error reporting.
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

// New creates a joinable Queue. maxsize follows queue.New's convention:
// negative is unbounded, zero is rendezvous-only.
func New[T any](maxsize int, opts ...Option) *Queue[T] {
	cfg := &config{
		obs: shared.NewObservability(),
	}
	for _, opt := range opts {
		opt(cfg)
	}

	finished := event.New(event.WithName(cfg.name + "/finished"))
	finished.Set() // nothing outstanding yet

	return &Queue[T]{
		name:     cfg.name,
		obs:      cfg.obs,
		inner:    queue.New[T](maxsize, queue.WithName(cfg.name), queue.WithLogger(cfg.obs.Logger), queue.WithMetrics(cfg.obs.Metrics), queue.WithTracer(cfg.obs.Tracer)),
		finished: finished,
	}
}

// markPut records one more outstanding task. It must run before the item
// becomes reachable through q.inner, matching toro's JoinableQueue._put,
// which increments unfinished_tasks before handing the item to a waiting
// getter. Doing the increment after q.inner.Put/TryPut returns is too
// late: q.inner's rendezvous path fires a waiting Get synchronously, so a
// consumer can observe the item and call TaskDone before a post-hoc
// increment ever runs.
func (q *Queue[T]) markPut() {
	q.mu.Lock()
	q.unfinished++
	q.finished.Clear()
	q.mu.Unlock()
}

// unmarkPut reverts a markPut whose matching q.inner put never delivered
// the item (ctx canceled, queue full on a TryPut).
func (q *Queue[T]) unmarkPut() {
	q.mu.Lock()
	q.unfinished--
	if q.unfinished == 0 {
		q.finished.Set()
	}
	q.mu.Unlock()
}

// Put adds item to the queue and marks one more task as outstanding,
// blocking exactly as queue.Queue.Put does.
func (q *Queue[T]) Put(ctx context.Context, item T) error {
	q.markPut()
	if err := q.inner.Put(ctx, item); err != nil {
		q.unmarkPut()
		return err
	}
	return nil
}

// TryPut is the non-blocking counterpart of Put.
func (q *Queue[T]) TryPut(item T) error {
	q.markPut()
	if err := q.inner.TryPut(item); err != nil {
		q.unmarkPut()
		return err
	}
	return nil
}

// Get removes and returns the next item, exactly as queue.Queue.Get does.
// Each successful Get should eventually be followed by a TaskDone call.
func (q *Queue[T]) Get(ctx context.Context) (T, error) {
	return q.inner.Get(ctx)
}

// TryGet is the non-blocking counterpart of Get.
func (q *Queue[T]) TryGet() (T, error) {
	return q.inner.TryGet()
}

// TaskDone marks one previously Put item as fully processed. Once every
// outstanding item has been marked done, any goroutine blocked in Join is
// released.
//
// TaskDone returns shared.ErrTaskDoneOverflow if called more times than
// there were items Put into the queue.
func (q *Queue[T]) TaskDone() error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.unfinished <= 0 {
		return shared.NewTaskDoneOverflowError(q.name)
	}

	q.unfinished--
	if q.unfinished == 0 {
		q.finished.Set()
		q.obs.Logger.Debug("joinqueue drained", "name", q.name)
	}
	return nil
}

// Join blocks until every item Put into the queue has had a matching
// TaskDone call, or ctx is canceled.
func (q *Queue[T]) Join(ctx context.Context) error {
	return q.finished.Wait(ctx)
}

// Len, Empty, and Full delegate to the wrapped queue.Queue.
func (q *Queue[T]) Len() int    { return q.inner.Len() }
func (q *Queue[T]) Empty() bool { return q.inner.Empty() }
func (q *Queue[T]) Full() bool  { return q.inner.Full() }
