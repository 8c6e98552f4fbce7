//go:build !tinygo

package core

import "sync"

// State is a placeholder for interrupt state on regular Go
type State uintptr

// hostIRQ stands in for the interrupt-enable bit on regular Go, so that a
// simulated interrupt running on another goroutine is still excluded.
var hostIRQ sync.Mutex

// disableInterrupts blocks simulated interrupts on regular Go (for testing)
func disableInterrupts() State {
	hostIRQ.Lock()
	return 0
}

// restoreInterrupts releases the simulated interrupt lock
func restoreInterrupts(state State) {
	hostIRQ.Unlock()
}
