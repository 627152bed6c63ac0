package workerpool

import (
	"context"
	"errors"

	"github.com/kolosys/coop/shared"
)

// Submit submits a task to the pool for execution. It respects the provided context
// for cancellation and timeouts. If the context is canceled before the task can be
// queued, it returns ctx.Err() as is. If the pool is closed or draining,
// it returns a *shared.PoolError.
func (p *Pool) Submit(ctx context.Context, task Task) error {
	if task == nil {
		return errors.New("coop: nil task")
	}

	// Check if pool is closed
	select {
	case <-p.closed:
		return shared.NewPoolClosedError(p.name)
	default:
	}

	// Check if pool is draining
	if p.draining.Load() {
		return shared.NewPoolClosedError(p.name)
	}

	submission := taskSubmission{
		task: task,
		ctx:  ctx,
	}

	p.obs.Metrics.Inc("coop_workerpool_tasks_submitted_total", "pool_name", p.name)

	// Put blocks until there is room, a worker is waiting to receive
	// directly (queueSize == 0), or either context is done.
	putCtx, cancelPut := context.WithCancel(ctx)
	defer cancelPut()
	go func() {
		select {
		case <-p.closed:
			cancelPut()
		case <-putCtx.Done():
		}
	}()

	if err := p.tasks.Put(putCtx, submission); err != nil {
		if p.IsClosed() {
			return shared.NewPoolClosedError(p.name)
		}
		return ctx.Err()
	}

	p.obs.Metrics.Gauge("coop_workerpool_queue_size", float64(p.tasks.Len()), "pool_name", p.name)
	return nil
}

// TrySubmit attempts to submit a task to the pool without blocking.
// It returns nil if the task was queued, and a *shared.PoolError if the queue is
// full or the pool is closed or draining. It takes no context since it returns
// immediately; the task runs with a context derived from context.Background().
func (p *Pool) TrySubmit(task Task) error {
	if task == nil {
		return errors.New("coop: nil task")
	}

	// Check if pool is closed
	select {
	case <-p.closed:
		return shared.NewPoolClosedError(p.name)
	default:
	}

	// Check if pool is draining
	if p.draining.Load() {
		return shared.NewPoolClosedError(p.name)
	}

	submission := taskSubmission{
		task: task,
		ctx:  context.Background(), // TrySubmit uses background context
	}

	if err := p.tasks.TryPut(submission); err != nil {
		return shared.NewPoolQueueFullError(p.name)
	}

	p.obs.Metrics.Inc("coop_workerpool_tasks_submitted_total", "pool_name", p.name)
	p.obs.Metrics.Gauge("coop_workerpool_queue_size", float64(p.tasks.Len()), "pool_name", p.name)
	return nil
}
