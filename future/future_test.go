package future

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/kolosys/coop/shared"
	"github.com/stretchr/testify/require"
)

func TestFutureSetAndGet(t *testing.T) {
	f := New[int](WithName("test"))

	require.False(t, f.Ready())

	require.NoError(t, f.Set(42))
	require.True(t, f.Ready())

	v, err := f.Get(context.Background())
	require.NoError(t, err)
	require.Equal(t, 42, v)
}

func TestFutureSetTwiceFails(t *testing.T) {
	f := New[string]()
	require.NoError(t, f.Set("a"))

	err := f.Set("b")
	require.Error(t, err)
	require.True(t, errors.Is(err, shared.ErrAlreadySet))
}

func TestFutureTryGetNotReady(t *testing.T) {
	f := New[int]()

	_, err := f.TryGet()
	require.Error(t, err)
	require.True(t, errors.Is(err, shared.ErrNotReady))

	require.NoError(t, f.Set(7))
	v, err := f.TryGet()
	require.NoError(t, err)
	require.Equal(t, 7, v)
}

func TestFutureGetBlocksUntilSet(t *testing.T) {
	f := New[int]()

	result := make(chan int, 1)
	go func() {
		v, err := f.Get(context.Background())
		require.NoError(t, err)
		result <- v
	}()

	time.Sleep(10 * time.Millisecond)
	require.NoError(t, f.Set(99))

	select {
	case v := <-result:
		require.Equal(t, 99, v)
	case <-time.After(time.Second):
		t.Fatal("Get never returned after Set")
	}
}

func TestFutureGetTimesOut(t *testing.T) {
	f := New[int]()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err := f.Get(ctx)
	require.True(t, errors.Is(err, shared.ErrTimedOut))
}

func TestFutureBroadcastsToAllWaiters(t *testing.T) {
	f := New[int]()

	const waiters = 10
	var wg sync.WaitGroup
	wg.Add(waiters)
	results := make([]int, waiters)

	for i := 0; i < waiters; i++ {
		go func(i int) {
			defer wg.Done()
			v, err := f.Get(context.Background())
			require.NoError(t, err)
			results[i] = v
		}(i)
	}

	time.Sleep(10 * time.Millisecond)
	require.NoError(t, f.Set(5))
	wg.Wait()

	for i, v := range results {
		require.Equal(t, 5, v, "waiter %d", i)
	}
}
