package core

import "tinygo.org/x/drivers"

// I2CBusID identifies a specific I2C bus (Wire = 0, Wire1 = 1 on the ESP32).
type I2CBusID uint8

// I2CAddress is a 7-bit I2C device address.
type I2CAddress uint8

// I2CBusConfig holds the electrical parameters of one bus.
type I2CBusConfig struct {
	SDA       GPIOPin
	SCL       GPIOPin
	Frequency uint32 // Hz
}

// I2CDriver is the abstract I2C interface that core code uses.
type I2CDriver interface {
	// ConfigureBus initializes a specific I2C bus with the given pins and clock.
	// Returns error if bus ID is invalid or configuration fails.
	ConfigureBus(bus I2CBusID, cfg I2CBusConfig) error

	// Bus returns the transport for a configured bus. Every transaction in core
	// goes through drivers.I2C.Tx, so TinyGo's machine.I2C can be handed out as is.
	Bus(bus I2CBusID) (drivers.I2C, error)
}

// Global singleton used by core code.
var i2cDriver I2CDriver

// SetI2CDriver is called by target-specific code to register its driver.
func SetI2CDriver(d I2CDriver) {
	i2cDriver = d
}

// MustI2C returns the configured driver or panics if missing.
func MustI2C() I2CDriver {
	if i2cDriver == nil {
		panic("I2C driver not configured")
	}
	return i2cDriver
}
