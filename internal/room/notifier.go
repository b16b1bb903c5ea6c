package room

import (
	"context"
	"runtime"
	"sync"

	"go.uber.org/atomic"

	"github.com/romashorodok/sketching-platform/pkg/protocol"
)

// Notifier tells lobby listeners that the set of rooms changed, so clients
// browsing rooms can refresh without polling.
type Notifier struct {
	listeners   map[string]protocol.Sender
	updateRooms chan struct{}
	mu          sync.Mutex
}

func (n *Notifier) Listen(id string, sender protocol.Sender) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.listeners[id] = sender
}

func (n *Notifier) Stop(id string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	delete(n.listeners, id)
}

// DispatchUpdateRooms coalesces into an already pending update.
func (n *Notifier) DispatchUpdateRooms() {
	select {
	case n.updateRooms <- struct{}{}:
	default:
	}
}

func (n *Notifier) getListeners() []protocol.Sender {
	n.mu.Lock()
	defer n.mu.Unlock()

	result := make([]protocol.Sender, 0, len(n.listeners))
	for _, listener := range n.listeners {
		result = append(result, listener)
	}
	return result
}

// OnUpdateRooms runs fn for every listener each time an update is
// dispatched, until ctx is done.
func (n *Notifier) OnUpdateRooms(ctx context.Context, fn func(protocol.Sender)) {
	var threshold uint64 = 1000000
	var step uint64 = 2
	for {
		select {
		case <-ctx.Done():
			return
		case <-n.updateRooms:
			parallelEach(n.getListeners(), threshold, step, fn)
		}
	}
}

func NewNotifier() *Notifier {
	return &Notifier{
		listeners:   make(map[string]protocol.Sender),
		updateRooms: make(chan struct{}, 1),
	}
}

// parallelEach fans fn out over vals, sequentially below the threshold and
// spread over the cores in step-sized slices above it.
func parallelEach[T any](vals []T, threshold, step uint64, fn func(T)) {
	if uint64(len(vals)) < threshold {
		for _, v := range vals {
			fn(v)
		}
		return
	}

	start := atomic.NewUint64(0)
	end := uint64(len(vals))

	var wg sync.WaitGroup
	numCPU := runtime.NumCPU()
	wg.Add(numCPU)
	for p := 0; p < numCPU; p++ {
		go func() {
			defer wg.Done()
			for {
				n := start.Add(step)
				if n >= end+step {
					return
				}

				for i := n - step; i < n && i < end; i++ {
					fn(vals[i])
				}
			}
		}()
	}
	wg.Wait()
}
