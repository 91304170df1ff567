package schedule

import (
	"context"
	"sync"
	"time"
)

// Task is a periodic job with a cancellation handle.
type Task struct {
	cancel context.CancelFunc
	done   chan struct{}
	once   sync.Once
}

// Every runs fn once per period until ctx is cancelled or Stop is called.
// fn runs synchronously on the task goroutine; ticks that elapse while fn is
// still running are dropped rather than queued.
func Every(ctx context.Context, period time.Duration, fn func(ctx context.Context)) *Task {
	ctx, cancel := context.WithCancel(ctx)
	t := &Task{
		cancel: cancel,
		done:   make(chan struct{}),
	}

	go t.run(ctx, period, fn)
	return t
}

func (t *Task) run(ctx context.Context, period time.Duration, fn func(ctx context.Context)) {
	defer close(t.done)

	ticker := time.NewTicker(period)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		fn(ctx)

		// Odrzuć tick, który przyszedł w trakcie fn
		select {
		case <-ticker.C:
		default:
		}
	}
}

// Stop cancels the task and waits for a running tick to finish.
// No tick starts after Stop returns. Safe to call more than once.
func (t *Task) Stop() {
	if t == nil {
		return
	}
	t.once.Do(t.cancel)
	<-t.done
}
