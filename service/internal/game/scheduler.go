// internal/game/scheduler.go
package game

import (
	"sync"
	"time"
)

// Handle identifies a scheduled callback. The zero Handle is never issued,
// so it can stand for "nothing scheduled".
type Handle uint64

// Scheduler runs callbacks after a delay or at a fixed interval. Callbacks run
// on their own goroutine and must take whatever lock they need.
type Scheduler interface {
	After(d time.Duration, fn func()) Handle
	Every(d time.Duration, fn func()) Handle
	// Cancel stops a callback. Cancelling the zero Handle, an expired one or
	// one already cancelled is a no-op.
	Cancel(h Handle)
}

// ClockScheduler is the wall-clock Scheduler, backed by time.AfterFunc.
type ClockScheduler struct {
	mu     sync.Mutex
	next   Handle
	timers map[Handle]*time.Timer
}

// NewClockScheduler creates an empty scheduler.
func NewClockScheduler() *ClockScheduler {
	return &ClockScheduler{timers: make(map[Handle]*time.Timer)}
}

func (s *ClockScheduler) After(d time.Duration, fn func()) Handle {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.next++
	h := s.next
	s.timers[h] = time.AfterFunc(d, func() {
		s.mu.Lock()
		_, live := s.timers[h]
		delete(s.timers, h)
		s.mu.Unlock()
		if live {
			fn()
		}
	})
	return h
}

func (s *ClockScheduler) Every(d time.Duration, fn func()) Handle {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.next++
	h := s.next
	var tick func()
	tick = func() {
		s.mu.Lock()
		_, live := s.timers[h]
		s.mu.Unlock()
		if !live {
			return
		}
		fn()
		// Re-arm only if fn did not cancel us.
		s.mu.Lock()
		if _, live := s.timers[h]; live {
			s.timers[h] = time.AfterFunc(d, tick)
		}
		s.mu.Unlock()
	}
	s.timers[h] = time.AfterFunc(d, tick)
	return h
}

func (s *ClockScheduler) Cancel(h Handle) {
	if h == 0 {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if t, ok := s.timers[h]; ok {
		t.Stop()
		delete(s.timers, h)
	}
}

// Pending reports how many callbacks are still scheduled.
func (s *ClockScheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.timers)
}
