package batch

import (
	"sync"
	"time"

	"github.com/romashorodok/sketching-platform/pkg/schedule"
)

const (
	DefaultMaxSize = 30
	DefaultMaxWait = time.Second
)

// Batcher coalesces bursts of same-kind items into one delivery. A batch is
// delivered when it reaches maxSize items or when maxWait has elapsed since
// the first buffered item, whichever comes first. Items keep arrival order
// and are delivered exactly once. This is throttling, not deduplication.
type Batcher[T any] struct {
	mu      sync.Mutex
	data    []T
	wait    *schedule.Event
	maxSize int
	maxWait time.Duration
	cb      func([]T)
}

func NewBatcher[T any](maxSize int, maxWait time.Duration, cb func([]T)) *Batcher[T] {
	b := &Batcher[T]{
		maxSize: maxSize,
		maxWait: maxWait,
		cb:      cb,
	}
	b.wait = schedule.NewEvent(b.Flush)
	return b
}

// Add appends value to the current batch. The first item of a batch arms the
// max-wait flush; reaching maxSize flushes synchronously.
func (b *Batcher[T]) Add(value T) {
	b.mu.Lock()
	if len(b.data) == 0 {
		b.wait.Schedule(b.maxWait)
	}
	b.data = append(b.data, value)
	if len(b.data) >= b.maxSize {
		b.flushLocked()
	}
	b.mu.Unlock()
}

// Flush delivers the buffered items and resets the batch. Calling it with an
// empty buffer only disarms the wait timer.
func (b *Batcher[T]) Flush() {
	b.mu.Lock()
	b.flushLocked()
	b.mu.Unlock()
}

// Stop cancels a pending flush and drops buffered items without delivering
// them. Used on teardown when the consumer is going away.
func (b *Batcher[T]) Stop() {
	b.mu.Lock()
	b.wait.Cancel()
	b.data = nil
	b.mu.Unlock()
}

// flushLocked delivers under the batch lock so two flushes can never
// interleave or reorder their deliveries.
func (b *Batcher[T]) flushLocked() {
	b.wait.Cancel()
	data := b.data
	b.data = nil
	if len(data) > 0 {
		b.cb(data)
	}
}
