//go:build esp32

package main

import "twipi/core"

// GPIO roles on the Huzzah32 featherboard as wired in the robot.
const (
	pinFrontLimitSwitch core.GPIOPin = 34 // A2
	pinBackLimitSwitch  core.GPIOPin = 39 // A3
	pinLeftEncoder      core.GPIOPin = 36 // A4, unused: the MD25 counts in hardware
	pinRightEncoder     core.GPIOPin = 4  // A5, unused

	pinBus0SDA core.GPIOPin = 22 // labelled SCL on the board
	pinBus0SCL core.GPIOPin = 14
	pinBus1SDA core.GPIOPin = 17 // labelled TX on the board
	pinBus1SCL core.GPIOPin = 21

	pinMainPowerLED  core.GPIOPin = 13
	pinResetRedLED   core.GPIOPin = 12
	pinResetGreenLED core.GPIOPin = 33
	pinResetBlueLED  core.GPIOPin = 27
)

const softPWMFrequency = 100 // Hz


// boardConfig fills the pin numbers into the default configuration.
func boardConfig() core.Config {
	cfg := core.DefaultConfig()
	cfg.Buses[0].SDA, cfg.Buses[0].SCL = pinBus0SDA, pinBus0SCL
	cfg.Buses[1].SDA, cfg.Buses[1].SCL = pinBus1SDA, pinBus1SCL
	cfg.LED.Red.Pin = pinResetRedLED
	cfg.LED.Green.Pin = pinResetGreenLED
	cfg.LED.Blue.Pin = pinResetBlueLED
	// software PWM steps must stay above the 1ms loop yield
	cfg.LED.Red.Frequency = softPWMFrequency
	cfg.LED.Green.Frequency = softPWMFrequency
	cfg.LED.Blue.Frequency = softPWMFrequency
	cfg.FrontSwitch = pinFrontLimitSwitch
	cfg.BackSwitch = pinBackLimitSwitch
	cfg.PowerLED = pinMainPowerLED
	return cfg
}
