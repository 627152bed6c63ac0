// Package shared provides common error types and observability interfaces
// used across all coop primitives.
package shared

import (
	"context"
	"errors"
	"fmt"
)

// Common sentinel errors used across coop components.
var (
	// ErrInvalidArgument is returned for programmer errors passed to a
	// primitive's operations, such as a zero or negative weight passed to
	// Semaphore.Acquire or a negative count passed to Semaphore.Release.
	// Constructors do not return it.
	ErrInvalidArgument = errors.New("coop: invalid argument")

	// ErrNotReady is returned by a Future's non-blocking Get when the value
	// has not been set yet.
	ErrNotReady = errors.New("coop: future not ready")

	// ErrAlreadySet is returned by Future.Set when called more than once.
	ErrAlreadySet = errors.New("coop: future already set")

	// ErrQueueFull is returned by a queue's non-blocking Put when there is
	// no room and no getter is waiting to receive directly.
	ErrQueueFull = errors.New("coop: queue is full")

	// ErrQueueEmpty is returned by a queue's non-blocking Get when there is
	// nothing to receive and no putter is waiting to hand off directly.
	ErrQueueEmpty = errors.New("coop: queue is empty")

	// ErrTimedOut is returned when a blocking operation's context is
	// canceled or its deadline elapses before the operation could
	// complete. Call sites return it via NewTimedOutError, which wraps
	// the context's own error so callers can still distinguish
	// cancellation from deadline expiry with errors.Is(err,
	// context.DeadlineExceeded).
	ErrTimedOut = errors.New("coop: operation timed out")

	// ErrTaskDoneOverflow is returned by JoinableQueue.TaskDone when called
	// more times than there were items put into the queue.
	ErrTaskDoneOverflow = errors.New("coop: task_done() called too many times")

	// ErrReleaseOverflow is returned by a bounded semaphore's Release when
	// releasing would push the counter above its initial capacity.
	ErrReleaseOverflow = errors.New("coop: release would exceed semaphore capacity")
)

// NewTimedOutError wraps ErrTimedOut with ctx.Err(), so a caller can match
// on the generic sentinel with errors.Is(err, shared.ErrTimedOut) while
// still telling cancellation apart from deadline expiry with
// errors.Is(err, context.Canceled) / errors.Is(err, context.DeadlineExceeded).
func NewTimedOutError(ctx context.Context) error {
	return fmt.Errorf("%w: %w", ErrTimedOut, ctx.Err())
}

// PoolError represents workerpool-specific errors with context.
type PoolError struct {
	Op       string // operation that failed
	PoolName string // name of the pool
	Err      error  // underlying error
}

func (e *PoolError) Error() string {
	if e.PoolName != "" {
		return fmt.Sprintf("coop: pool %q %s: %v", e.PoolName, e.Op, e.Err)
	}
	return fmt.Sprintf("coop: pool %s: %v", e.Op, e.Err)
}

func (e *PoolError) Unwrap() error {
	return e.Err
}

// NewPoolClosedError creates an error indicating the pool is closed.
func NewPoolClosedError(poolName string) error {
	return &PoolError{
		Op:       "submit",
		PoolName: poolName,
		Err:      errors.New("pool is closed"),
	}
}

// NewPoolQueueFullError creates an error indicating a non-blocking submit
// found no room in the pool's pending-task queue.
func NewPoolQueueFullError(poolName string) error {
	return &PoolError{
		Op:       "submit",
		PoolName: poolName,
		Err:      ErrQueueFull,
	}
}

// SemaphoreError represents semaphore- and lock-specific errors with context.
type SemaphoreError struct {
	Op   string // operation that failed
	Name string // name of the semaphore
	Err  error  // underlying error
}

func (e *SemaphoreError) Error() string {
	if e.Name != "" {
		return fmt.Sprintf("coop: semaphore %q %s: %v", e.Name, e.Op, e.Err)
	}
	return fmt.Sprintf("coop: semaphore %s: %v", e.Op, e.Err)
}

func (e *SemaphoreError) Unwrap() error {
	return e.Err
}

// NewWeightExceedsCapacityError creates an error indicating the requested
// weight exceeds the semaphore's total capacity.
func NewWeightExceedsCapacityError(name string, weight, capacity int64) error {
	return &SemaphoreError{
		Op:   "acquire",
		Name: name,
		Err:  fmt.Errorf("weight %d exceeds capacity %d", weight, capacity),
	}
}

// NewReleaseOverflowError creates an error indicating a bounded semaphore
// release would exceed its initial capacity.
func NewReleaseOverflowError(name string, current, releasing, capacity int64) error {
	return &SemaphoreError{
		Op:   "release",
		Name: name,
		Err:  fmt.Errorf("%w (current: %d, releasing: %d, capacity: %d)", ErrReleaseOverflow, current, releasing, capacity),
	}
}

// QueueError represents queue-family (Queue, PriorityQueue, LifoQueue,
// JoinableQueue) errors with context.
type QueueError struct {
	Op   string // operation that failed
	Name string // name of the queue
	Err  error  // underlying error
}

func (e *QueueError) Error() string {
	if e.Name != "" {
		return fmt.Sprintf("coop: queue %q %s: %v", e.Name, e.Op, e.Err)
	}
	return fmt.Sprintf("coop: queue %s: %v", e.Op, e.Err)
}

func (e *QueueError) Unwrap() error {
	return e.Err
}

// NewQueueFullError creates an error indicating a non-blocking put found no
// room and no waiting getter.
func NewQueueFullError(name string) error {
	return &QueueError{Op: "put", Name: name, Err: ErrQueueFull}
}

// NewQueueEmptyError creates an error indicating a non-blocking get found
// nothing available and no waiting putter.
func NewQueueEmptyError(name string) error {
	return &QueueError{Op: "get", Name: name, Err: ErrQueueEmpty}
}

// NewTaskDoneOverflowError creates an error indicating task_done was called
// more times than items were put into a JoinableQueue.
func NewTaskDoneOverflowError(name string) error {
	return &QueueError{Op: "task_done", Name: name, Err: ErrTaskDoneOverflow}
}

// FutureError represents Future (AsyncResult)-specific errors with context.
type FutureError struct {
	Op   string // operation that failed
	Name string // name of the future
	Err  error  // underlying error
}

func (e *FutureError) Error() string {
	if e.Name != "" {
		return fmt.Sprintf("coop: future %q %s: %v", e.Name, e.Op, e.Err)
	}
	return fmt.Sprintf("coop: future %s: %v", e.Op, e.Err)
}

func (e *FutureError) Unwrap() error {
	return e.Err
}

// NewAlreadySetError creates an error indicating Set was called on a future
// that already holds a value.
func NewAlreadySetError(name string) error {
	return &FutureError{Op: "set", Name: name, Err: ErrAlreadySet}
}

// NewNotReadyError creates an error indicating a non-blocking Get was called
// before Set.
func NewNotReadyError(name string) error {
	return &FutureError{Op: "get", Name: name, Err: ErrNotReady}
}
