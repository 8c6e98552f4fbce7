//go:build esp32

package main

import (
	"machine"
	"time"

	"github.com/rs/zerolog"

	"twipi/core"
)

// loopErrors counts recovered panics in the main loop.
var loopErrors uint32

func main() {
	uart := machine.UART0
	uart.Configure(machine.UARTConfig{BaudRate: 115200})

	core.SetLogOutput(uart)
	zerolog.SetGlobalLevel(zerolog.DebugLevel)

	i2cDriver := NewESP32I2CDriver()
	core.SetI2CDriver(i2cDriver)

	gpioDriver := NewESP32GPIODriver()
	core.SetGPIODriver(gpioDriver)

	// TinyGo has no ESP32 LEDC support, so the LED is dimmed in software
	pwmDriver := core.NewSoftPWM(gpioDriver, nil)
	core.SetPWMDriver(pwmDriver)
	if err := pwmDriver.Start(); err != nil {
		core.Logger().Error().Err(err).Msg("software PWM failed to start")
	}

	core.SetPeriodicTimer(core.NewTickerTimer())

	sup := core.NewSupervisor(boardConfig(), core.Hardware{
		I2C:   core.MustI2C(),
		PWM:   core.MustPWM(),
		GPIO:  core.MustGPIO(),
		Timer: core.MustTimer(),
	})
	if err := sup.Boot(); err != nil {
		core.Logger().Error().Err(err).Msg("boot failed")
	}

	console := core.NewConsole(sup)
	lines := make(chan string, 4)
	go consoleReaderLoop(uart, lines)

	for {
		// Recover from panics in the main loop to prevent a firmware crash
		func() {
			defer func() {
				if r := recover(); r != nil {
					loopErrors++
					core.Logger().Error().Uint32("count", loopErrors).Msg("main loop recovered from panic")
				}
			}()

			sup.Step()
			pumpConsole(console, lines)
		}()

		// Yield to other goroutines
		time.Sleep(time.Millisecond)
	}
}
