package core

import (
	"twipi/errcode"
)

// PWMChannel is one of the ESP32's 16 LEDC channels.
type PWMChannel uint8

// PWMValue is the duty cycle value (0 to 2^resolution - 1)
type PWMValue uint32

// MaxPWMChannels is the number of independent LEDC channels.
const MaxPWMChannels = 16

// LedChannel describes one physical PWM output. It is created once while the
// status indicator is configured and never changes afterwards.
type LedChannel struct {
	Channel    PWMChannel // 0-15, unique per channel in use
	Frequency  uint32     // carrier frequency in Hz
	Resolution uint8      // bits, 1-16
	Pin        GPIOPin    // GPIO driven by the channel
}

// Validate checks the channel against the LEDC limits.
func (c LedChannel) Validate() error {
	if c.Channel >= MaxPWMChannels {
		return errcode.New(errcode.InvalidParams, "led_channel", "channel out of range", nil)
	}
	if c.Resolution == 0 || c.Resolution > 16 {
		return errcode.New(errcode.InvalidParams, "led_channel", "resolution out of range", nil)
	}
	if c.Frequency == 0 {
		return errcode.New(errcode.InvalidParams, "led_channel", "zero frequency", nil)
	}
	return nil
}

// MaxValue returns the full-scale duty value for the channel's resolution.
func (c LedChannel) MaxValue() PWMValue {
	return PWMValue(1)<<c.Resolution - 1
}

// ScaleDuty maps an 8-bit duty value onto the channel's resolution.
func (c LedChannel) ScaleDuty(v uint8) PWMValue {
	if c.Resolution == 8 {
		return PWMValue(v)
	}
	return PWMValue(uint32(v) * uint32(c.MaxValue()) / 255)
}

// PWMDriver is the abstract PWM interface that core code uses.
// Platform-specific implementations handle actual hardware control.
type PWMDriver interface {
	// ConfigureChannel sets frequency/resolution and attaches the channel to its pin.
	ConfigureChannel(ch LedChannel) error

	// SetDutyCycle writes a raw duty value to a configured channel.
	SetDutyCycle(ch PWMChannel, value PWMValue) error
}

// Global singleton used by core code.
var pwmDriver PWMDriver

// SetPWMDriver is called by target-specific code to register its driver.
func SetPWMDriver(d PWMDriver) {
	pwmDriver = d
}

// MustPWM returns the configured driver or panics if missing.
func MustPWM() PWMDriver {
	if pwmDriver == nil {
		panic("PWM driver not configured")
	}
	return pwmDriver
}
