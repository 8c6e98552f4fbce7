//go:build esp32

package main

import (
	"errors"
	"machine"
	"sync"

	"tinygo.org/x/drivers"

	"twipi/core"
)

// ESP32I2CDriver implements core.I2CDriver using TinyGo's machine.I2C.
type ESP32I2CDriver struct {
	mu sync.Mutex

	// The ESP32 has two I2C controllers, I2C0 and I2C1
	buses map[core.I2CBusID]*machine.I2C
}

// NewESP32I2CDriver constructs the driver
func NewESP32I2CDriver() *ESP32I2CDriver {
	return &ESP32I2CDriver{
		buses: make(map[core.I2CBusID]*machine.I2C),
	}
}

// ConfigureBus routes the controller to its pins and sets the clock.
func (d *ESP32I2CDriver) ConfigureBus(bus core.I2CBusID, cfg core.I2CBusConfig) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if i2c, exists := d.buses[bus]; exists {
		return i2c.SetBaudRate(cfg.Frequency)
	}

	var i2c *machine.I2C
	switch bus {
	case 0:
		i2c = machine.I2C0
	case 1:
		i2c = machine.I2C1
	default:
		return errors.New("unsupported I2C bus ID")
	}

	err := i2c.Configure(machine.I2CConfig{
		Frequency: cfg.Frequency,
		SDA:       machine.Pin(cfg.SDA),
		SCL:       machine.Pin(cfg.SCL),
	})
	if err != nil {
		return err
	}

	d.buses[bus] = i2c
	return nil
}

// Bus returns the configured controller as a drivers.I2C.
func (d *ESP32I2CDriver) Bus(bus core.I2CBusID) (drivers.I2C, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	i2c, exists := d.buses[bus]
	if !exists {
		return nil, errors.New("I2C bus not configured")
	}
	return i2c, nil
}
