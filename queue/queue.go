// Package queue provides a bounded, rendezvous-capable, context-aware
// queue with pluggable ordering — the Go translation of toro's Queue,
// PriorityQueue, and LifoQueue, which share one algorithm behind three
// storage disciplines.
package queue

import (
	"context"
	"sync"

	"github.com/kolosys/coop/internal/waiter"
	"github.com/kolosys/coop/shared"
)

// Unbounded, passed as maxsize, gives a Queue no capacity limit — Put never
// blocks on a full queue. maxsize == 0 instead means rendezvous: a Put only
// ever completes by handing its item directly to a waiting Get, never by
// sitting in storage.
const Unbounded = -1

// putter is a blocked Put call: the item it wants to hand off, and the
// node it is parked on waiting for a Get to claim that item.
type putter[T any] struct {
	item T
	node *waiter.Node[struct{}]
}

// Queue is a FIFO-ordered (by default) blocking queue with optional
// capacity. The zero value is not usable; build one with New, NewLifo, or
// NewPriority.
type Queue[T any] struct {
	name    string
	maxsize int
	obs     *shared.Observability

	mu      sync.Mutex
	storage storage[T]
	getters waiter.List[T]
	putters []*putter[T]
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

func newQueue[T any](maxsize int, storage storage[T], opts ...Option) *Queue[T] {
	if maxsize < 0 {
		maxsize = Unbounded
	}

	cfg := &config{
		obs: shared.NewObservability(),
	}
	for _, opt := range opts {
		opt(cfg)
	}

	q := &Queue[T]{
		name:    cfg.name,
		maxsize: maxsize,
		obs:     cfg.obs,
		storage: storage,
	}

	q.obs.Logger.Debug("queue created", "name", q.name, "maxsize", maxsize)

	return q
}

// New creates a FIFO Queue. maxsize < 0 means unbounded; maxsize == 0 means
// rendezvous-only.
func New[T any](maxsize int, opts ...Option) *Queue[T] {
	return newQueue[T](maxsize, &fifoStorage[T]{}, opts...)
}

// NewLifo creates a LifoQueue: Get returns the most recently Put item,
// not the oldest.
func NewLifo[T any](maxsize int, opts ...Option) *Queue[T] {
	return newQueue[T](maxsize, &lifoStorage[T]{}, opts...)
}

// NewPriority creates a PriorityQueue ordered by less, which reports
// whether a sorts before b (a has higher priority than b). Ties break in
// Put order only to the extent the underlying heap happens to preserve
// it — callers needing a stable tie-break should fold a sequence number
// into T.
func NewPriority[T any](maxsize int, less func(a, b T) bool, opts ...Option) *Queue[T] {
	return newQueue[T](maxsize, newHeapStorage(less), opts...)
}

// isFullLocked reports fullness per toro's full(): unbounded queues are
// never full, a maxsize of zero is always full (every Put must rendezvous
// directly with a Get), otherwise full once storage holds maxsize items.
// Caller must hold q.mu.
func (q *Queue[T]) isFullLocked() bool {
	switch {
	case q.maxsize == Unbounded:
		return false
	case q.maxsize == 0:
		return true
	default:
		return q.storage.len() >= q.maxsize
	}
}

// popPutterLocked prunes expired putters from the head and returns the
// first live one, if any. Caller must hold q.mu.
func (q *Queue[T]) popPutterLocked() *putter[T] {
	for len(q.putters) > 0 {
		p := q.putters[0]
		q.putters = q.putters[1:]
		if !p.node.Expired() {
			return p
		}
	}
	return nil
}

func (q *Queue[T]) removePutterLocked(target *putter[T]) {
	for i, p := range q.putters {
		if p == target {
			q.putters = append(q.putters[:i], q.putters[i+1:]...)
			return
		}
	}
}

// Put adds item to the queue, blocking until room is available (or a
// waiting Get claims it directly) or ctx is canceled.
func (q *Queue[T]) Put(ctx context.Context, item T) error {
	q.mu.Lock()
	if getter, ok := q.getters.PopFront(); ok {
		q.mu.Unlock()
		getter.Fire(item)
		q.obs.Metrics.Inc("coop_queue_put_total", "name", q.name, "path", "direct")
		return nil
	}

	if !q.isFullLocked() {
		q.storage.push(item)
		q.mu.Unlock()
		q.obs.Metrics.Inc("coop_queue_put_total", "name", q.name, "path", "stored")
		return nil
	}

	p := &putter[T]{item: item, node: waiter.New[struct{}]()}
	q.putters = append(q.putters, p)
	q.mu.Unlock()

	q.obs.Logger.Debug("put blocked, queue full", "name", q.name)

	select {
	case <-p.node.Done():
		return nil
	case <-ctx.Done():
		if !p.node.Fire(struct{}{}) {
			<-p.node.Done()
			return nil
		}
		q.mu.Lock()
		q.removePutterLocked(p)
		q.mu.Unlock()
		return shared.NewTimedOutError(ctx)
	}
}

// TryPut adds item to the queue without blocking. It returns
// shared.ErrQueueFull if the queue has no room and no Get is waiting to
// receive directly.
func (q *Queue[T]) TryPut(item T) error {
	q.mu.Lock()
	if getter, ok := q.getters.PopFront(); ok {
		q.mu.Unlock()
		getter.Fire(item)
		return nil
	}

	if q.isFullLocked() {
		q.mu.Unlock()
		return shared.NewQueueFullError(q.name)
	}

	q.storage.push(item)
	q.mu.Unlock()
	return nil
}

// Get removes and returns the next item, blocking until one is available
// or ctx is canceled.
func (q *Queue[T]) Get(ctx context.Context) (T, error) {
	q.mu.Lock()
	if p := q.popPutterLocked(); p != nil {
		q.storage.push(p.item)
		v, _ := q.storage.pop()
		q.mu.Unlock()
		p.node.Fire(struct{}{})
		q.obs.Metrics.Inc("coop_queue_get_total", "name", q.name, "path", "direct")
		return v, nil
	}

	if q.storage.len() > 0 {
		v, _ := q.storage.pop()
		q.mu.Unlock()
		q.obs.Metrics.Inc("coop_queue_get_total", "name", q.name, "path", "stored")
		return v, nil
	}

	node := waiter.New[T]()
	q.getters.PushBack(node)
	q.mu.Unlock()

	q.obs.Logger.Debug("get blocked, queue empty", "name", q.name)

	select {
	case v := <-node.Done():
		return v, nil
	case <-ctx.Done():
		var zero T
		if !node.Fire(zero) {
			return <-node.Done(), nil
		}
		q.mu.Lock()
		q.getters.Remove(node)
		q.mu.Unlock()
		return zero, shared.NewTimedOutError(ctx)
	}
}

// TryGet removes and returns the next item without blocking. It returns
// shared.ErrQueueEmpty if nothing is available and no Put is waiting to
// hand off directly.
func (q *Queue[T]) TryGet() (T, error) {
	q.mu.Lock()
	if p := q.popPutterLocked(); p != nil {
		q.storage.push(p.item)
		v, _ := q.storage.pop()
		q.mu.Unlock()
		p.node.Fire(struct{}{})
		return v, nil
	}

	if q.storage.len() > 0 {
		v, _ := q.storage.pop()
		q.mu.Unlock()
		return v, nil
	}

	q.mu.Unlock()
	var zero T
	return zero, shared.NewQueueEmptyError(q.name)
}

// Len reports the number of items currently held in storage. It does not
// count items offered by blocked Put calls that have not yet been
// claimed.
func (q *Queue[T]) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.storage.len()
}

// Empty reports whether Len() == 0.
func (q *Queue[T]) Empty() bool {
	return q.Len() == 0
}

// Full reports whether storage has no room: never for an unbounded queue,
// always for a maxsize of zero, otherwise once Len() reaches maxsize. A Get
// that is already waiting is not considered, so TryPut can succeed on a Full
// queue by handing its item to that Get directly.
func (q *Queue[T]) Full() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.isFullLocked()
}
