// Command coopdemo exercises the coop synchronization primitives end to
// end: a bounded Queue producer/consumer pair, a JoinableQueue work-item
// Join, and a Semaphore-gated worker fan-out.
package main

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/pflag"

	"github.com/kolosys/coop/joinqueue"
	"github.com/kolosys/coop/obsadapters/logrusadapter"
	"github.com/kolosys/coop/queue"
	"github.com/kolosys/coop/semaphore"
)

func main() {
	var (
		producers = pflag.IntP("producers", "p", 3, "number of producer goroutines")
		consumers = pflag.IntP("consumers", "c", 2, "number of consumer goroutines")
		items     = pflag.IntP("items", "n", 10, "work items per producer")
		permits   = pflag.Int64P("permits", "s", 2, "semaphore permits for the fan-out stage")
		verbose   = pflag.BoolP("verbose", "v", false, "log primitive state transitions via logrus")
	)
	pflag.Parse()

	fmt.Println("coop Demo")
	fmt.Println("=========")

	var logOpt semaphore.Option
	if *verbose {
		log := logrus.New()
		log.SetLevel(logrus.DebugLevel)
		logOpt = semaphore.WithLogger(logrusadapter.New(log))
	}

	queueExample(*producers, *consumers, *items)
	joinQueueExample(*producers, *items)
	semaphoreExample(*permits, logOpt)
}

// queueExample runs a bounded queue.Queue as a producer/consumer pipeline.
func queueExample(producers, consumers, itemsPerProducer int) {
	fmt.Println("\n1. Bounded Queue producer/consumer:")

	q := queue.New[int](4, queue.WithName("coopdemo-queue"))

	var wg sync.WaitGroup
	ctx := context.Background()

	wg.Add(producers)
	for p := 0; p < producers; p++ {
		go func(id int) {
			defer wg.Done()
			for i := 0; i < itemsPerProducer; i++ {
				if err := q.Put(ctx, id*itemsPerProducer+i); err != nil {
					fmt.Printf("  producer %d: put failed: %v\n", id, err)
					return
				}
			}
		}(p)
	}

	var received int
	var mu sync.Mutex
	done := make(chan struct{})

	for c := 0; c < consumers; c++ {
		go func(id int) {
			for {
				item, err := q.Get(ctx)
				if err != nil {
					return
				}
				mu.Lock()
				received++
				n := received
				mu.Unlock()
				_ = item
				if n >= producers*itemsPerProducer {
					close(done)
					return
				}
			}
		}(c)
	}

	wg.Wait()
	<-done
	fmt.Printf("  delivered %d items through a queue of capacity 4\n", received)
}

// joinQueueExample submits a batch of work items and waits for them all to
// be marked done via Join.
func joinQueueExample(workers, itemsPerWorker int) {
	fmt.Println("\n2. JoinableQueue batch completion:")

	total := workers * itemsPerWorker
	jq := joinqueue.New[int](total, joinqueue.WithName("coopdemo-jobs"))
	ctx := context.Background()

	for i := 0; i < total; i++ {
		if err := jq.Put(ctx, i); err != nil {
			fmt.Printf("  put failed: %v\n", err)
			return
		}
	}

	var wg sync.WaitGroup
	wg.Add(workers)
	for w := 0; w < workers; w++ {
		go func() {
			defer wg.Done()
			for {
				_, err := jq.TryGet()
				if err != nil {
					return
				}
				time.Sleep(time.Millisecond)
				if err := jq.TaskDone(); err != nil {
					fmt.Printf("  task_done failed: %v\n", err)
				}
			}
		}()
	}

	joinCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	start := time.Now()
	if err := jq.Join(joinCtx); err != nil {
		fmt.Printf("  join failed: %v\n", err)
	} else {
		fmt.Printf("  all %d items joined in %v\n", total, time.Since(start))
	}
	wg.Wait()
}

// semaphoreExample fans out more workers than there are permits and shows
// how many run concurrently.
func semaphoreExample(capacity int64, logOpt semaphore.Option) {
	fmt.Println("\n3. Semaphore-gated fan-out:")

	opts := []semaphore.Option{semaphore.WithName("coopdemo-sem")}
	if logOpt != nil {
		opts = append(opts, logOpt)
	}
	sem := semaphore.NewBounded(capacity, opts...)

	var active, maxActive int64
	var mu sync.Mutex
	var wg sync.WaitGroup
	ctx := context.Background()

	const fanOut = 8
	wg.Add(fanOut)
	for i := 0; i < fanOut; i++ {
		go func(id int) {
			defer wg.Done()
			if err := sem.Acquire(ctx, 1); err != nil {
				fmt.Printf("  worker %d: acquire failed: %v\n", id, err)
				return
			}
			defer sem.Release(1)

			mu.Lock()
			active++
			if active > maxActive {
				maxActive = active
			}
			mu.Unlock()

			time.Sleep(10 * time.Millisecond)

			mu.Lock()
			active--
			mu.Unlock()
		}(i)
	}
	wg.Wait()

	fmt.Printf("  %d workers ran with at most %d concurrent (capacity %d)\n", fanOut, maxActive, capacity)
	if maxActive > capacity {
		os.Exit(1)
	}
}
