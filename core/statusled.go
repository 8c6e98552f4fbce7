// Reset-button RGB status LED: three PWM channels plus a periodic timer.

package core

import (
	"strings"
	"time"

	"twipi/errcode"
)

// LedMode governs what a timer tick does to the LED.
type LedMode uint8

const (
	LedOff LedMode = iota
	LedOn
	LedBlink
	LedCycle
)

func (m LedMode) String() string {
	switch m {
	case LedOff:
		return "off"
	case LedOn:
		return "on"
	case LedBlink:
		return "blink"
	case LedCycle:
		return "cycle"
	}
	return "off"
}

// ParseLedMode accepts off, on, blink and cycle.
func ParseLedMode(s string) (LedMode, bool) {
	switch strings.ToLower(s) {
	case "off":
		return LedOff, true
	case "on":
		return LedOn, true
	case "blink":
		return LedBlink, true
	case "cycle":
		return LedCycle, true
	}
	return LedOff, false
}

const (
	// DefaultLedColor is shown by LedOn/LedBlink until a colour is set.
	DefaultLedColor = Green
	// blinkOffColor is the dark half of a blink.
	blinkOffColor = Black
)

// StatusIndicator owns the red, green and blue channels of the reset button
// LED. The timer handler only increments the tick counter; Update, called
// from the main loop, drains one tick per call and acts on it.
type StatusIndicator struct {
	pwm   PWMDriver
	timer PeriodicTimer
	ticks TickCounter

	red, green, blue LedChannel
	configured       bool

	mode    LedMode
	current Color // last colour written to the channels
	base    Color // colour set by SetColor, shown by on/blink
	saved   Color
	lit     bool // blink phase
	cursor  int  // index into cycleOrder of the last cycled colour
}

// NewStatusIndicator creates an indicator. A nil ticks uses a counter guarded
// by an InterruptLock.
func NewStatusIndicator(pwm PWMDriver, timer PeriodicTimer, ticks TickCounter) *StatusIndicator {
	if ticks == nil {
		ticks = NewGuardedTickCounter(nil)
	}
	return &StatusIndicator{
		pwm:     pwm,
		timer:   timer,
		ticks:   ticks,
		current: DefaultLedColor,
		base:    DefaultLedColor,
		saved:   DefaultLedColor,
		cursor:  len(cycleOrder) - 1,
	}
}

// Configure attaches the three channels to their pins and starts the timer.
func (s *StatusIndicator) Configure(red, green, blue LedChannel, period time.Duration) error {
	chans := [3]LedChannel{red, green, blue}
	for i, ch := range chans {
		if err := ch.Validate(); err != nil {
			return err
		}
		for _, other := range chans[:i] {
			if other.Channel == ch.Channel {
				return errcode.New(errcode.InvalidParams, "led_configure", "duplicate PWM channel", nil)
			}
		}
	}
	if period <= 0 {
		return errcode.New(errcode.InvalidParams, "led_configure", "timer period must be positive", nil)
	}
	for _, ch := range chans {
		if err := s.pwm.ConfigureChannel(ch); err != nil {
			return err
		}
	}
	s.red, s.green, s.blue = red, green, blue
	s.configured = true

	if err := s.timer.Start(period, s.ticks.Tick); err != nil {
		return err
	}
	logger.Info().Str("component", compLED).
		Dur("period", period).
		Uint8("red_channel", uint8(red.Channel)).
		Uint8("green_channel", uint8(green.Channel)).
		Uint8("blue_channel", uint8(blue.Channel)).
		Msg("status LED configured")
	return nil
}

// Close stops the timer.
func (s *StatusIndicator) Close() {
	s.timer.Stop()
}

// SetColor writes c to the LED at once and remembers it as the colour for
// on/blink. Unknown colours show White.
func (s *StatusIndicator) SetColor(c Color) {
	if !c.Valid() {
		logger.Warn().Str("component", compLED).
			Int8("requested", int8(c)).
			Msg("unknown colour, using WHITE")
	}
	c = c.Resolve()
	s.base = c
	s.apply(c)
}

// SetMode switches the behaviour. On and blink show the stored colour at once;
// cycle waits for the next tick; off (and anything unknown) goes dark.
func (s *StatusIndicator) SetMode(m LedMode) {
	if m > LedCycle {
		m = LedOff
	}
	s.mode = m
	logger.Debug().Str("component", compLED).Str("mode", m.String()).Msg("LED mode")
	switch m {
	case LedOn, LedBlink:
		s.lit = true
		s.apply(s.base)
	case LedCycle:
	default:
		s.apply(blinkOffColor)
	}
}

// Mode returns the active mode
func (s *StatusIndicator) Mode() LedMode { return s.mode }

// Update drains at most one pending tick and acts on it according to the
// mode. It reports whether a tick was consumed.
func (s *StatusIndicator) Update() bool {
	if !s.ticks.DrainOne() {
		return false
	}
	switch s.mode {
	case LedBlink:
		s.lit = !s.lit
		if s.lit {
			s.apply(s.base)
		} else {
			s.apply(blinkOffColor)
		}
	case LedCycle:
		s.cursor = (s.cursor + 1) % len(cycleOrder)
		s.apply(cycleOrder[s.cursor])
	}
	return true
}

// PendingTicks returns the number of timer ticks not yet handled.
func (s *StatusIndicator) PendingTicks() int32 {
	return s.ticks.Pending()
}

// ResetCycle makes the next cycle tick start again at the first colour.
func (s *StatusIndicator) ResetCycle() {
	s.cursor = len(cycleOrder) - 1
}

// CurrentColor returns the colour last written to the LED.
func (s *StatusIndicator) CurrentColor() Color { return s.current }

// CurrentColorName returns the name of the colour last written.
func (s *StatusIndicator) CurrentColorName() string { return s.current.String() }

// SaveColor remembers the colour last set with SetColor for RestoreColor.
// The blink dark phase and cycle colours are never saved.
func (s *StatusIndicator) SaveColor() {
	s.saved = s.base
}

// RestoreColor shows the colour remembered by SaveColor.
func (s *StatusIndicator) RestoreColor() {
	s.SetColor(s.saved)
}

func (s *StatusIndicator) apply(c Color) {
	s.current = c
	if !s.configured {
		return
	}
	spec := colorTable[c]
	logger.Debug().Str("component", compLED).Str("color", spec.Name).Msg("set status LED")
	s.write(s.red, spec.Red)
	s.write(s.green, spec.Green)
	s.write(s.blue, spec.Blue)
}

func (s *StatusIndicator) write(ch LedChannel, duty uint8) {
	if err := s.pwm.SetDutyCycle(ch.Channel, ch.ScaleDuty(duty)); err != nil {
		logger.Error().Str("component", compLED).
			Uint8("channel", uint8(ch.Channel)).
			Err(err).
			Msg("PWM write failed")
	}
}
