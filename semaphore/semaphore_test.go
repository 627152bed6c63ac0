package semaphore_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/kolosys/coop/semaphore"
	"github.com/kolosys/coop/shared"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name      string
		initial   int64
		opts      []semaphore.Option
		wantPanic bool
	}{
		{name: "valid initial value", initial: 10},
		{name: "initial value of 1", initial: 1},
		{
			name:    "with options",
			initial: 5,
			opts: []semaphore.Option{
				semaphore.WithName("test-sem"),
				semaphore.WithFairness(semaphore.LIFO),
			},
		},
		{name: "zero initial value is valid (fully acquired)", initial: 0},
		{name: "negative initial value panics", initial: -1, wantPanic: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			defer func() {
				r := recover()
				if tt.wantPanic && r == nil {
					t.Error("expected panic but didn't get one")
				} else if !tt.wantPanic && r != nil {
					t.Errorf("unexpected panic: %v", r)
				}
			}()

			sem := semaphore.New(tt.initial, tt.opts...)
			if !tt.wantPanic && sem.Current() != tt.initial {
				t.Errorf("expected current permits %d, got %d", tt.initial, sem.Current())
			}
		})
	}
}

func TestTryAcquire(t *testing.T) {
	t.Run("successful acquisition", func(t *testing.T) {
		sem := semaphore.New(5)

		if !sem.TryAcquire(3) {
			t.Error("should have acquired 3 permits")
		}
		if sem.Current() != 2 {
			t.Errorf("expected 2 remaining permits, got %d", sem.Current())
		}

		if !sem.TryAcquire(2) {
			t.Error("should have acquired remaining 2 permits")
		}
		if sem.Current() != 0 {
			t.Errorf("expected 0 remaining permits, got %d", sem.Current())
		}
	})

	t.Run("insufficient permits", func(t *testing.T) {
		sem := semaphore.New(3)

		if sem.TryAcquire(5) {
			t.Error("should not have acquired 5 permits when only 3 available")
		}
		if sem.Current() != 3 {
			t.Errorf("permits should remain unchanged, got %d", sem.Current())
		}
	})

	t.Run("invalid weight", func(t *testing.T) {
		sem := semaphore.New(5)

		if sem.TryAcquire(0) {
			t.Error("should not acquire 0 permits")
		}
		if sem.TryAcquire(-1) {
			t.Error("should not acquire negative permits")
		}
	})

	t.Run("weight exceeds bounded capacity", func(t *testing.T) {
		sem := semaphore.NewBounded(3)

		if sem.TryAcquire(5) {
			t.Error("should not acquire permits exceeding capacity")
		}
	})

	t.Run("unbounded semaphore allows weight above initial value once released", func(t *testing.T) {
		sem := semaphore.New(1)
		if err := sem.Release(10); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !sem.TryAcquire(11) {
			t.Error("expected unbounded semaphore to allow acquiring beyond its initial value")
		}
	})
}

func TestAcquire(t *testing.T) {
	t.Run("successful acquisition", func(t *testing.T) {
		sem := semaphore.New(5)

		if err := sem.Acquire(context.Background(), 3); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if sem.Current() != 2 {
			t.Errorf("expected 2 remaining permits, got %d", sem.Current())
		}
	})

	t.Run("invalid weight", func(t *testing.T) {
		sem := semaphore.New(5)

		err := sem.Acquire(context.Background(), 0)
		if !errors.Is(err, shared.ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument, got %v", err)
		}

		err = sem.Acquire(context.Background(), -1)
		if !errors.Is(err, shared.ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument, got %v", err)
		}
	})

	t.Run("weight exceeds bounded capacity", func(t *testing.T) {
		sem := semaphore.NewBounded(3, semaphore.WithName("test-sem"))

		err := sem.Acquire(context.Background(), 5)
		var semErr *shared.SemaphoreError
		if !errors.As(err, &semErr) {
			t.Errorf("expected SemaphoreError, got %T", err)
		}
	})

	t.Run("context cancellation", func(t *testing.T) {
		sem := semaphore.New(1)
		_ = sem.Acquire(context.Background(), 1)

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		err := sem.Acquire(ctx, 1)
		if !errors.Is(err, shared.ErrTimedOut) {
			t.Errorf("expected shared.ErrTimedOut, got %v", err)
		}
	})

	t.Run("context timeout", func(t *testing.T) {
		sem := semaphore.New(1)
		_ = sem.Acquire(context.Background(), 1)

		ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
		defer cancel()

		start := time.Now()
		err := sem.Acquire(ctx, 1)
		duration := time.Since(start)

		if !errors.Is(err, shared.ErrTimedOut) {
			t.Errorf("expected shared.ErrTimedOut, got %v", err)
		}
		if duration < 40*time.Millisecond {
			t.Error("acquire returned too quickly, should have waited for timeout")
		}
	})
}

func TestRelease(t *testing.T) {
	t.Run("successful release", func(t *testing.T) {
		sem := semaphore.New(5)

		_ = sem.Acquire(context.Background(), 3)
		if sem.Current() != 2 {
			t.Fatalf("setup failed, expected 2 permits, got %d", sem.Current())
		}

		if err := sem.Release(2); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if sem.Current() != 4 {
			t.Errorf("expected 4 permits after release, got %d", sem.Current())
		}
	})

	t.Run("release zero permits", func(t *testing.T) {
		sem := semaphore.New(5)
		sem.Acquire(context.Background(), 2)

		before := sem.Current()
		if err := sem.Release(0); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if before != sem.Current() {
			t.Error("releasing 0 permits should not change current count")
		}
	})

	t.Run("release negative permits is an error", func(t *testing.T) {
		sem := semaphore.New(5)

		err := sem.Release(-1)
		if !errors.Is(err, shared.ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument, got %v", err)
		}
	})

	t.Run("bounded release more than capacity is an error, not a panic", func(t *testing.T) {
		sem := semaphore.NewBounded(3)

		err := sem.Release(5)
		if !errors.Is(err, shared.ErrReleaseOverflow) {
			t.Errorf("expected ErrReleaseOverflow, got %v", err)
		}
		if sem.Current() != 3 {
			t.Errorf("current should be unchanged after a refused release, got %d", sem.Current())
		}
	})

	t.Run("unbounded release past initial value succeeds", func(t *testing.T) {
		sem := semaphore.New(3)

		if err := sem.Release(5); err != nil {
			t.Fatalf("unbounded semaphore should never refuse a release, got %v", err)
		}
		if sem.Current() != 8 {
			t.Errorf("expected 8 permits, got %d", sem.Current())
		}
	})

	t.Run("release unblocks waiters", func(t *testing.T) {
		sem := semaphore.New(2)
		sem.Acquire(context.Background(), 2)

		var acquired atomic.Bool
		var wg sync.WaitGroup
		wg.Add(1)

		go func() {
			defer wg.Done()
			if err := sem.Acquire(context.Background(), 1); err == nil {
				acquired.Store(true)
			}
		}()

		time.Sleep(50 * time.Millisecond)
		if acquired.Load() {
			t.Error("waiter should not have acquired permit yet")
		}

		sem.Release(1)
		wg.Wait()

		if !acquired.Load() {
			t.Error("waiter should have acquired permit after release")
		}
	})
}

func TestFairness(t *testing.T) {
	t.Run("FIFO fairness wakes waiters in arrival order", func(t *testing.T) {
		sem := semaphore.New(1, semaphore.WithFairness(semaphore.FIFO))
		_ = sem.Acquire(context.Background(), 1)

		var results []int
		var mu sync.Mutex
		var wg sync.WaitGroup

		for i := 0; i < 3; i++ {
			wg.Add(1)
			go func(id int) {
				defer wg.Done()
				_ = sem.Acquire(context.Background(), 1)
				mu.Lock()
				results = append(results, id)
				mu.Unlock()
				sem.Release(1)
			}(i)
			time.Sleep(20 * time.Millisecond) // ensure registration order
		}

		sem.Release(1)
		wg.Wait()

		if len(results) != 3 {
			t.Fatalf("expected 3 results, got %d: %v", len(results), results)
		}
		for i, v := range results {
			if v != i {
				t.Errorf("expected FIFO order, got %v", results)
				break
			}
		}
	})

	t.Run("LIFO fairness completes all waiters", func(t *testing.T) {
		sem := semaphore.New(1, semaphore.WithFairness(semaphore.LIFO))
		_ = sem.Acquire(context.Background(), 1)

		var wg sync.WaitGroup
		var completed atomic.Int64
		for i := 0; i < 3; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				if err := sem.Acquire(context.Background(), 1); err == nil {
					completed.Add(1)
					sem.Release(1)
				}
			}()
			time.Sleep(10 * time.Millisecond)
		}

		sem.Release(1)
		wg.Wait()

		if completed.Load() != 3 {
			t.Errorf("expected all 3 waiters to complete, got %d", completed.Load())
		}
	})
}

func TestConcurrency(t *testing.T) {
	t.Run("high concurrency stress test", func(t *testing.T) {
		sem := semaphore.New(10)
		const numGoroutines = 100
		const iterations = 10

		var wg sync.WaitGroup
		var successCount atomic.Int64

		for i := 0; i < numGoroutines; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for j := 0; j < iterations; j++ {
					if err := sem.Acquire(context.Background(), 1); err == nil {
						successCount.Add(1)
						time.Sleep(time.Microsecond)
						sem.Release(1)
					}
				}
			}()
		}

		wg.Wait()

		expected := int64(numGoroutines * iterations)
		if successCount.Load() != expected {
			t.Errorf("expected %d successful acquisitions, got %d", expected, successCount.Load())
		}
		if sem.Current() != 10 {
			t.Errorf("expected all permits returned, got %d", sem.Current())
		}
	})

	t.Run("mixed acquire and try_acquire", func(t *testing.T) {
		sem := semaphore.New(5)
		const numGoroutines = 20

		var wg sync.WaitGroup
		var acquireSuccess atomic.Int64
		var tryAcquireSuccess atomic.Int64

		for i := 0; i < numGoroutines; i++ {
			wg.Add(1)
			go func(id int) {
				defer wg.Done()

				if id%2 == 0 {
					ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
					defer cancel()
					if err := sem.Acquire(ctx, 1); err == nil {
						acquireSuccess.Add(1)
						time.Sleep(10 * time.Millisecond)
						sem.Release(1)
					}
				} else if sem.TryAcquire(1) {
					tryAcquireSuccess.Add(1)
					time.Sleep(10 * time.Millisecond)
					sem.Release(1)
				}
			}(i)
		}

		wg.Wait()

		total := acquireSuccess.Load() + tryAcquireSuccess.Load()
		if total == 0 {
			t.Error("expected some successful acquisitions")
		}
		if sem.Current() != 5 {
			t.Errorf("expected all permits returned, got %d", sem.Current())
		}
	})
}
