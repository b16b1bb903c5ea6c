package batch

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorder[T any] struct {
	mu      sync.Mutex
	batches [][]T
}

func (r *recorder[T]) collect(items []T) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.batches = append(r.batches, items)
}

func (r *recorder[T]) snapshot() [][]T {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([][]T(nil), r.batches...)
}

func TestFlushPreservesArrivalOrder(t *testing.T) {
	rec := &recorder[int]{}
	b := NewBatcher(DefaultMaxSize, DefaultMaxWait, rec.collect)

	for i := 1; i <= 5; i++ {
		b.Add(i)
	}
	b.Flush()

	batches := rec.snapshot()
	require.Len(t, batches, 1)
	assert.Equal(t, []int{1, 2, 3, 4, 5}, batches[0])
}

func TestMaxSizeForcesSynchronousFlush(t *testing.T) {
	rec := &recorder[int]{}
	b := NewBatcher(3, time.Hour, rec.collect)

	b.Add(1)
	b.Add(2)
	require.Empty(t, rec.snapshot())

	b.Add(3)
	batches := rec.snapshot()
	require.Len(t, batches, 1)
	assert.Equal(t, []int{1, 2, 3}, batches[0])

	// The forced flush reset the batch, the next items start a new one.
	b.Add(4)
	b.Add(5)
	b.Flush()
	batches = rec.snapshot()
	require.Len(t, batches, 2)
	assert.Equal(t, []int{4, 5}, batches[1])
}

func TestMaxWaitFlushesPartialBatch(t *testing.T) {
	flushed := make(chan []int, 1)
	b := NewBatcher(DefaultMaxSize, 20*time.Millisecond, func(items []int) {
		flushed <- items
	})

	b.Add(7)
	b.Add(8)

	select {
	case items := <-flushed:
		assert.Equal(t, []int{7, 8}, items)
	case <-time.After(time.Second):
		t.Fatal("max-wait flush never fired")
	}
}

func TestNoItemLostOrDuplicated(t *testing.T) {
	rec := &recorder[int]{}
	b := NewBatcher(30, time.Hour, rec.collect)

	total := 95
	for i := 0; i < total; i++ {
		b.Add(i)
	}
	b.Flush()

	var got []int
	for _, batch := range rec.snapshot() {
		got = append(got, batch...)
	}
	require.Len(t, got, total)
	for i, v := range got {
		assert.Equal(t, i, v)
	}
}

func TestFlushOnEmptyBatchDoesNotDeliver(t *testing.T) {
	rec := &recorder[int]{}
	b := NewBatcher(DefaultMaxSize, DefaultMaxWait, rec.collect)

	b.Flush()
	assert.Empty(t, rec.snapshot())
}

func TestStopDropsPendingBatch(t *testing.T) {
	rec := &recorder[int]{}
	b := NewBatcher(DefaultMaxSize, 15*time.Millisecond, rec.collect)

	b.Add(1)
	b.Stop()

	time.Sleep(50 * time.Millisecond)
	assert.Empty(t, rec.snapshot())
}
