package core

import (
	"sync"

	"go.uber.org/atomic"
)

// TickCounter hands periodic timer events from interrupt context to the main
// loop. Tick is called only by the interrupt handler, DrainOne only by the
// main loop. The pending count never goes negative and no tick is lost.
type TickCounter interface {
	// Tick records one timer firing.
	Tick()
	// DrainOne consumes one pending tick and reports whether there was one.
	DrainOne() bool
	// Pending returns the number of ticks not yet drained.
	Pending() int32
}

// InterruptLock is a sync.Locker whose critical section is "interrupts
// disabled". On the single-core target this excludes the timer handler.
type InterruptLock struct {
	state State
}

func (l *InterruptLock) Lock() {
	l.state = disableInterrupts()
}

func (l *InterruptLock) Unlock() {
	restoreInterrupts(l.state)
}

// GuardedTickCounter protects a plain counter with a lock that both the
// interrupt handler and the main loop take around every read-modify-write.
type GuardedTickCounter struct {
	mu sync.Locker
	n  int32
}

// NewGuardedTickCounter returns a counter guarded by mu. A nil mu selects an
// InterruptLock.
func NewGuardedTickCounter(mu sync.Locker) *GuardedTickCounter {
	if mu == nil {
		mu = &InterruptLock{}
	}
	return &GuardedTickCounter{mu: mu}
}

func (c *GuardedTickCounter) Tick() {
	c.mu.Lock()
	c.n++
	c.mu.Unlock()
}

func (c *GuardedTickCounter) DrainOne() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.n <= 0 {
		return false
	}
	c.n--
	return true
}

func (c *GuardedTickCounter) Pending() int32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.n
}

// AtomicTickCounter is the lock-free variant. DrainOne uses compare-and-swap
// so a decrement is never applied to a zero count.
type AtomicTickCounter struct {
	n atomic.Int32
}

func NewAtomicTickCounter() *AtomicTickCounter {
	return &AtomicTickCounter{}
}

func (c *AtomicTickCounter) Tick() {
	c.n.Inc()
}

func (c *AtomicTickCounter) DrainOne() bool {
	for {
		v := c.n.Load()
		if v <= 0 {
			return false
		}
		if c.n.CompareAndSwap(v, v-1) {
			return true
		}
	}
}

func (c *AtomicTickCounter) Pending() int32 {
	return c.n.Load()
}
