package semaphore

import "github.com/kolosys/coop/shared"

// Release returns n permits to the semaphore, waking queued Acquire calls
// that can now be satisfied. A bounded Semaphore (built with NewBounded)
// returns shared.ErrReleaseOverflow instead of accepting a release that
// would push the permit count above its initial capacity; an unbounded
// Semaphore never refuses a release.
func (s *Semaphore) Release(n int64) error {
	if n < 0 {
		return shared.ErrInvalidArgument
	}
	if n == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.bounded && s.current+n > s.capacity {
		return shared.NewReleaseOverflowError(s.name, s.current, n, s.capacity)
	}

	s.current += n
	s.obs.Logger.Debug("semaphore permits released", "name", s.name, "permits", n, "current", s.current)

	s.notifyWaitersLocked()
	return nil
}

// Current returns the number of permits currently available. This is
// derived live under the lock on every call rather than cached, so a
// concurrent Acquire/Release never observes a stale value.
func (s *Semaphore) Current() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}
