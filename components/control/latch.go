package control

import (
	"sync"
)

// Latch is a one-shot flag, armed with the value it is waiting for. Once
// armed, the next Run with that same value returns true and disarms it. Runs
// with any other value return false and leave it armed.
type Latch struct {
	mu    sync.Mutex
	armed bool
	val   float64
}

func (l *Latch) Arm(v float64) {
	l.mu.Lock()
	l.armed = true
	l.val = v
	l.mu.Unlock()
}

func (l *Latch) Disarm() {
	l.mu.Lock()
	l.armed = false
	l.mu.Unlock()
}

func (l *Latch) Run(v float64) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	if !l.armed || v != l.val {
		return false
	}

	l.armed = false
	return true
}
