package core

import "time"

// PeriodicTimer is a hardware timer that calls handler once per period from
// interrupt context. The handler must not block or allocate.
type PeriodicTimer interface {
	Start(period time.Duration, handler func()) error
	Stop()
}

// Global singleton used by core code.
var periodicTimer PeriodicTimer

// SetPeriodicTimer is called by target-specific code to register its timer.
func SetPeriodicTimer(t PeriodicTimer) {
	periodicTimer = t
}

// MustTimer returns the configured timer or panics if missing.
func MustTimer() PeriodicTimer {
	if periodicTimer == nil {
		panic("periodic timer not configured")
	}
	return periodicTimer
}
