package core

import "time"

// Bus speeds. 400kHz is the ESP32 ceiling, 100kHz the MD25 ceiling.
const (
	Bus0Speed = 400000
	Bus1Speed = 100000
)

// BusConfig ties a bus number to its pins and clock.
type BusConfig struct {
	ID I2CBusID
	I2CBusConfig
}

// LEDConfig describes the reset button LED wiring and timer period.
type LEDConfig struct {
	Red    LedChannel
	Green  LedChannel
	Blue   LedChannel
	Period time.Duration
	Mode   LedMode // mode applied once boot finishes
}

// Config is the complete firmware configuration. Pins come from the board
// file; everything else has a default.
type Config struct {
	Buses [2]BusConfig
	Bus   BusOptions

	MotorBus     I2CBusID
	MotorAddress I2CAddress
	Motion       MotionConfig

	LED LEDConfig

	FrontSwitch GPIOPin
	BackSwitch  GPIOPin
	PowerLED    GPIOPin // 0 when the board has no power button LED
}

// DefaultConfig returns the reference configuration with zero pins. Boards
// fill in the pin numbers.
func DefaultConfig() Config {
	return Config{
		Buses: [2]BusConfig{
			{ID: 0, I2CBusConfig: I2CBusConfig{Frequency: Bus0Speed}},
			{ID: 1, I2CBusConfig: I2CBusConfig{Frequency: Bus1Speed}},
		},
		Bus: BusOptions{
			ReadTimeout:  50 * time.Millisecond,
			PollInterval: time.Millisecond,
			ScanPause:    time.Millisecond,
		},
		MotorBus:     1,
		MotorAddress: MD25Address,
		Motion: MotionConfig{
			PollInterval: 10 * time.Millisecond,
			StallWindow:  500 * time.Millisecond,
			SettleDelay:  100 * time.Millisecond,
		},
		LED: LEDConfig{
			Red:    LedChannel{Channel: 0, Frequency: 500, Resolution: 8},
			Green:  LedChannel{Channel: 1, Frequency: 500, Resolution: 8},
			Blue:   LedChannel{Channel: 2, Frequency: 500, Resolution: 8},
			Period: time.Second,
			Mode:   LedOn,
		},
	}
}
