// Tilt limit switches: two pull-up inputs that read low when pressed.

package core

// LimitSwitch selects the front or back switch.
type LimitSwitch uint8

const (
	FrontSwitch LimitSwitch = 0
	BackSwitch  LimitSwitch = 1
)

// SwitchState is the combined reading of both switches.
type SwitchState uint8

const (
	NoSwitch     SwitchState = 0
	FrontPressed SwitchState = 1
	BackPressed  SwitchState = 2
	BothPressed  SwitchState = 3
)

func (s SwitchState) String() string {
	switch s {
	case NoSwitch:
		return "none"
	case FrontPressed:
		return "front"
	case BackPressed:
		return "back"
	case BothPressed:
		return "both"
	}
	return "invalid"
}

// SwitchChangeFunc is called once per change of the memoized state.
type SwitchChangeFunc func(prev, next SwitchState)

// LimitSwitchMonitor reads the two tilt switches.
type LimitSwitchMonitor struct {
	gpio  GPIODriver
	front GPIOPin
	back  GPIOPin

	last     SwitchState
	onChange SwitchChangeFunc
}

// NewLimitSwitchMonitor creates a monitor for the given pins.
func NewLimitSwitchMonitor(gpio GPIODriver, front, back GPIOPin) *LimitSwitchMonitor {
	return &LimitSwitchMonitor{gpio: gpio, front: front, back: back}
}

// Configure enables the internal pull-ups on both inputs.
func (l *LimitSwitchMonitor) Configure() error {
	logger.Debug().Str("component", compLimit).
		Uint32("front", uint32(l.front)).
		Uint32("back", uint32(l.back)).
		Msg("set pull-up resistors for limit switches")
	if err := l.gpio.ConfigureInputPullUp(l.front); err != nil {
		return err
	}
	return l.gpio.ConfigureInputPullUp(l.back)
}

// OnChange registers the transition callback.
func (l *LimitSwitchMonitor) OnChange(fn SwitchChangeFunc) {
	l.onChange = fn
}

// Check returns the raw level of a switch input. Anything other than
// FrontSwitch reads the back switch.
func (l *LimitSwitchMonitor) Check(which LimitSwitch) bool {
	switch which {
	case FrontSwitch:
		return l.gpio.ReadPin(l.front)
	default:
		return l.gpio.ReadPin(l.back)
	}
}

// Pressed applies the active-low wiring.
func (l *LimitSwitchMonitor) Pressed(which LimitSwitch) bool {
	return !l.Check(which)
}

// Read classifies the current switch levels without touching the memo.
func (l *LimitSwitchMonitor) Read() SwitchState {
	var s SwitchState
	if l.Pressed(FrontSwitch) {
		s |= FrontPressed
	}
	if l.Pressed(BackSwitch) {
		s |= BackPressed
	}
	return s
}

// Poll reads both switches and updates the memoized state. The change
// callback runs exactly once per transition; identical reads do nothing.
func (l *LimitSwitchMonitor) Poll() (SwitchState, bool) {
	next := l.Read()
	if next == l.last {
		return next, false
	}
	prev := l.last
	l.last = next
	logger.Debug().Str("component", compLimit).
		Str("from", prev.String()).
		Str("to", next.String()).
		Msg("limit switch state changed")
	if l.onChange != nil {
		l.onChange(prev, next)
	}
	return next, true
}

// State returns the memoized state from the last Poll.
func (l *LimitSwitchMonitor) State() SwitchState {
	return l.last
}
