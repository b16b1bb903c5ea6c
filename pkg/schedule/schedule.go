package schedule

import (
	"sync"
	"time"
)

// Event is a single-shot deferred callback. At most one callback is pending
// per Event; a fired or cancelled Event can be re-armed with Schedule.
type Event struct {
	mu    sync.Mutex
	gen   uint64
	timer *time.Timer
	cb    func()
}

func NewEvent(cb func()) *Event {
	return &Event{cb: cb}
}

// Schedule arms the callback to run once after delay. It reports false and
// does nothing when a callback is already pending.
func (e *Event) Schedule(delay time.Duration) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.timer != nil {
		return false
	}

	gen := e.gen
	e.timer = time.AfterFunc(delay, func() { e.fire(gen) })
	return true
}

// Cancel disarms a pending callback and reports whether one was pending.
func (e *Event) Cancel() bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.timer == nil {
		return false
	}

	e.timer.Stop()
	e.timer = nil
	// Invalidate a firing that already left timer.Stop behind but has not
	// taken the lock yet.
	e.gen++
	return true
}

func (e *Event) fire(gen uint64) {
	e.mu.Lock()
	if e.timer == nil || gen != e.gen {
		e.mu.Unlock()
		return
	}
	e.timer = nil
	e.mu.Unlock()

	// Outside the lock so the callback may re-arm the event.
	e.cb()
}
