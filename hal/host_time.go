//go:build !tinygo

package hal

import "time"

const hostTickDuration = time.Millisecond

// hostTime converts frame steps into a 1ms tick stream, catching up on
// however much wall time passed since the previous step.
type hostTime struct {
	ch  chan uint64
	seq uint64

	last time.Time
	acc  time.Duration
	now  func() time.Time
}

func newHostTime() *hostTime {
	return &hostTime{ch: make(chan uint64, 1024), now: time.Now}
}

func (t *hostTime) Ticks() <-chan uint64 { return t.ch }

// step emits the ticks owed since the last call; the first call emits n.
func (t *hostTime) step(n uint64) {
	now := t.now()
	if t.last.IsZero() {
		t.last = now
		t.emit(n)
		return
	}

	t.acc += now.Sub(t.last)
	t.last = now

	ticks := uint64(t.acc / hostTickDuration)
	if ticks == 0 {
		return
	}
	t.acc %= hostTickDuration
	t.emit(ticks)
}

// emit publishes only the newest sequence number; consumers treat ticks as a
// monotonic clock, not as a count of events.
func (t *hostTime) emit(n uint64) {
	if n == 0 {
		return
	}
	t.seq += n
	select {
	case t.ch <- t.seq:
	default:
	}
}
