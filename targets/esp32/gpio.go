//go:build esp32

package main

import (
	"machine"

	"twipi/core"
)

// ESP32GPIODriver implements core.GPIODriver
type ESP32GPIODriver struct {
	configuredPins map[core.GPIOPin]machine.Pin
}

func NewESP32GPIODriver() *ESP32GPIODriver {
	return &ESP32GPIODriver{
		configuredPins: make(map[core.GPIOPin]machine.Pin),
	}
}

// ConfigureOutput configures a pin as a digital output
func (d *ESP32GPIODriver) ConfigureOutput(pin core.GPIOPin) error {
	if _, exists := d.configuredPins[pin]; exists {
		return nil
	}
	p := machine.Pin(pin)
	p.Configure(machine.PinConfig{Mode: machine.PinOutput})
	d.configuredPins[pin] = p
	return nil
}

// ConfigureInputPullUp configures a pin as an input with the internal
// pull-up. GPIO34-39 have no pull-up; the robot wires external resistors.
func (d *ESP32GPIODriver) ConfigureInputPullUp(pin core.GPIOPin) error {
	p := machine.Pin(pin)
	p.Configure(machine.PinConfig{Mode: machine.PinInputPullup})
	d.configuredPins[pin] = p
	return nil
}

// SetPin sets the pin to high (true) or low (false)
func (d *ESP32GPIODriver) SetPin(pin core.GPIOPin, value bool) error {
	p, exists := d.configuredPins[pin]
	if !exists {
		if err := d.ConfigureOutput(pin); err != nil {
			return err
		}
		p = d.configuredPins[pin]
	}
	p.Set(value)
	return nil
}

// ReadPin reads the current level. Unconfigured pins read high, the idle
// level of a pulled-up switch.
func (d *ESP32GPIODriver) ReadPin(pin core.GPIOPin) bool {
	p, exists := d.configuredPins[pin]
	if !exists {
		return true
	}
	return p.Get()
}
