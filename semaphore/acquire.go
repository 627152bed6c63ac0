package semaphore

import (
	"context"
	"time"

	"github.com/kolosys/coop/internal/waiter"
	"github.com/kolosys/coop/shared"
)

// Acquire blocks until n permits are available or ctx is canceled.
func (s *Semaphore) Acquire(ctx context.Context, n int64) error {
	if n <= 0 {
		return shared.ErrInvalidArgument
	}
	if s.bounded && n > s.capacity {
		return shared.NewWeightExceedsCapacityError(s.name, n, s.capacity)
	}

	s.mu.Lock()
	if s.tryAcquireLocked(n) {
		s.mu.Unlock()
		s.obs.Metrics.Inc("coop_semaphore_acquisitions_total", "name", s.name, "result", "success")
		return nil
	}

	w := &semWaiter{weight: n, node: waiter.New[struct{}]()}
	s.waiters.push(w)
	waiting := s.waiters.len()
	s.mu.Unlock()

	s.obs.Metrics.Gauge("coop_semaphore_waiting", float64(waiting), "name", s.name)
	s.obs.Logger.Debug("semaphore acquire waiting", "name", s.name, "weight", n, "waiting", waiting)

	start := time.Now()

	select {
	case <-w.node.Done():
		s.obs.Metrics.Histogram("coop_semaphore_acquire_duration_seconds", time.Since(start).Seconds(), "name", s.name)
		s.obs.Metrics.Inc("coop_semaphore_acquisitions_total", "name", s.name, "result", "success")
		return nil
	case <-ctx.Done():
		if !w.node.Fire(struct{}{}) {
			// Release already claimed this waiter; honor the grant
			// rather than discard the permits it was given.
			<-w.node.Done()
			return nil
		}
		s.mu.Lock()
		s.waiters.remove(w)
		s.mu.Unlock()
		s.obs.Metrics.Inc("coop_semaphore_acquisitions_total", "name", s.name, "result", "timeout")
		return shared.NewTimedOutError(ctx)
	}
}

// TryAcquire attempts to acquire n permits without blocking.
func (s *Semaphore) TryAcquire(n int64) bool {
	if n <= 0 {
		return false
	}
	if s.bounded && n > s.capacity {
		return false
	}

	s.mu.Lock()
	ok := s.tryAcquireLocked(n)
	s.mu.Unlock()

	result := "denied"
	if ok {
		result = "success"
	}
	s.obs.Metrics.Inc("coop_semaphore_acquisitions_total", "name", s.name, "result", result)

	return ok
}

// tryAcquireLocked attempts the fast path. FIFO fairness refuses to let a
// newcomer jump ahead of already-queued waiters even when permits are
// free; LIFO and None allow barging, matching their documented lack of
// ordering guarantees. Caller must hold s.mu.
func (s *Semaphore) tryAcquireLocked(n int64) bool {
	barge := s.fairness != FIFO
	if (barge || s.waiters.len() == 0) && s.current >= n {
		s.current -= n
		s.obs.Metrics.Gauge("coop_semaphore_current", float64(s.current), "name", s.name)
		return true
	}
	return false
}

// notifyWaitersLocked wakes as many queued waiters as the current permit
// count allows, in fairness order. Caller must hold s.mu.
func (s *Semaphore) notifyWaitersLocked() {
	s.waiters.pruneExpired()
	for s.current > 0 {
		w := s.waiters.popReady(s.current)
		if w == nil {
			break
		}
		s.current -= w.weight
		w.node.Fire(struct{}{})
	}

	s.obs.Metrics.Gauge("coop_semaphore_current", float64(s.current), "name", s.name)
	s.obs.Metrics.Gauge("coop_semaphore_waiting", float64(s.waiters.len()), "name", s.name)
}
