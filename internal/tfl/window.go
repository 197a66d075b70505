package tfl

import (
	"sync"
	"time"
)

// slidingWindow admits at most len(admitted) calls in any period. It keeps
// the admission times of the last calls in a ring; a call is refused while
// the oldest of them is younger than period.
type slidingWindow struct {
	mu       sync.Mutex
	period   time.Duration
	admitted []time.Time
	next     int // slot of the oldest admission once the ring is full
	count    int
}

func newSlidingWindow(calls int, period time.Duration) *slidingWindow {
	if calls < 0 {
		calls = 0
	}
	return &slidingWindow{period: period, admitted: make([]time.Time, calls)}
}

// allow records an admission at now and reports true, or reports false
// without recording anything when the window is full.
func (w *slidingWindow) allow(now time.Time) bool {
	w.mu.Lock()
	defer w.mu.Unlock()

	if len(w.admitted) == 0 {
		return true
	}
	if w.count == len(w.admitted) && now.Sub(w.admitted[w.next]) < w.period {
		return false
	}

	w.admitted[w.next] = now
	w.next = (w.next + 1) % len(w.admitted)
	if w.count < len(w.admitted) {
		w.count++
	}
	return true
}
