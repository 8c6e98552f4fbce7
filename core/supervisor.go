package core

import (
	"go.uber.org/atomic"
)

// NetworkStatus is the WiFi layer as seen by the console report.
type NetworkStatus interface {
	IsConnected() bool
	UniqueName() string
}

// Hardware bundles the platform drivers the supervisor needs.
type Hardware struct {
	I2C     I2CDriver
	PWM     PWMDriver
	GPIO    GPIODriver
	Timer   PeriodicTimer
	Ticks   TickCounter   // nil selects an interrupt-guarded counter
	Network NetworkStatus // optional
}

// Supervisor performs the boot sequence and runs one main-loop iteration
// per Step.
type Supervisor struct {
	cfg Config
	hw  Hardware

	Buses    [2]*RegisterBus
	Motor    *MotorController
	Switches *LimitSwitchMonitor
	LED      *StatusIndicator

	motorConnected atomic.Bool
	lcdConnected   atomic.Bool
	booted         atomic.Bool
	loops          atomic.Uint32
}

// NewSupervisor wires the components without touching hardware.
func NewSupervisor(cfg Config, hw Hardware) *Supervisor {
	s := &Supervisor{cfg: cfg, hw: hw}
	for i, bc := range cfg.Buses {
		s.Buses[i] = NewRegisterBus(bc.ID, cfg.Bus)
	}
	s.Motor = NewMotorController(s.bus(cfg.MotorBus), cfg.MotorAddress, cfg.Motion)
	s.Switches = NewLimitSwitchMonitor(hw.GPIO, cfg.FrontSwitch, cfg.BackSwitch)
	s.Switches.OnChange(s.onSwitchChange)
	s.LED = NewStatusIndicator(hw.PWM, hw.Timer, hw.Ticks)
	return s
}

// Config returns the configuration the supervisor was built with.
func (s *Supervisor) Config() Config { return s.cfg }

// Bus returns the RegisterBus for id, or nil.
func (s *Supervisor) Bus(id I2CBusID) *RegisterBus { return s.bus(id) }

func (s *Supervisor) bus(id I2CBusID) *RegisterBus {
	for _, b := range s.Buses {
		if b != nil && b.ID() == id {
			return b
		}
	}
	return nil
}

// Boot configures every peripheral, discovers the I2C devices and sets the
// boot colour. Bus failures are logged and leave the device marked missing.
func (s *Supervisor) Boot() error {
	log := logFor(compSupervisor)
	log.Trace().Msg("start of boot")

	for i, bc := range s.cfg.Buses {
		if err := s.Buses[i].Configure(s.hw.I2C, bc.I2CBusConfig); err != nil {
			log.Error().Err(err).Uint8("bus", uint8(bc.ID)).Msg("I2C bus not available")
		}
	}

	if err := s.LED.Configure(s.cfg.LED.Red, s.cfg.LED.Green, s.cfg.LED.Blue, s.cfg.LED.Period); err != nil {
		return err
	}
	s.LED.SetColor(DefaultLedColor)

	if err := s.Switches.Configure(); err != nil {
		s.LED.Close()
		return err
	}
	if s.cfg.PowerLED != 0 {
		if err := s.hw.GPIO.ConfigureOutput(s.cfg.PowerLED); err == nil {
			_ = s.hw.GPIO.SetPin(s.cfg.PowerLED, true)
		}
	}

	for _, b := range s.Buses {
		if _, err := b.Scan(); err != nil {
			log.Error().Err(err).Uint8("bus", uint8(b.ID())).Msg("scan failed")
		}
	}
	s.lcdConnected.Store(s.anyBusHas(LCDAddress))
	s.motorConnected.Store(s.bus(s.cfg.MotorBus) != nil && s.bus(s.cfg.MotorBus).Present(s.cfg.MotorAddress))

	if s.motorConnected.Load() {
		log.Trace().Msg("initialize DC motor driver")
		if _, err := s.Motor.Init(); err != nil {
			s.motorConnected.Store(false)
		}
	} else {
		log.Error().Msg("motor driver not connected to I2C bus, no motion is possible")
	}
	if !s.lcdConnected.Load() {
		log.Warn().Msg("LCD not connected to I2C bus, no display messages")
	}

	s.ConfigReport()
	s.CheckBoot()
	s.LED.SetMode(s.cfg.LED.Mode)
	s.booted.Store(true)
	log.Trace().Msg("end of boot")
	return nil
}

// CheckBoot shows Blue when every subsystem came up and Yellow otherwise.
func (s *Supervisor) CheckBoot() Color {
	c := Blue
	if !s.BootHealthy() {
		c = Yellow
		logger.Warn().Str("component", compSupervisor).Msg("boot had an issue, LED set to warning colour")
	} else {
		logger.Info().Str("component", compSupervisor).Msg("boot was normal")
	}
	s.LED.SetColor(c)
	return c
}

// BootHealthy reports whether the motor controller, the LCD and (when
// present) the network are all up.
func (s *Supervisor) BootHealthy() bool {
	ok := s.motorConnected.Load() && s.lcdConnected.Load()
	if s.hw.Network != nil {
		ok = ok && s.hw.Network.IsConnected()
	}
	return ok
}

// MotorConnected reports whether the MD25 answered during boot.
func (s *Supervisor) MotorConnected() bool { return s.motorConnected.Load() }

// LCDConnected reports whether the LCD answered during boot.
func (s *Supervisor) LCDConnected() bool { return s.lcdConnected.Load() }

// Loops returns the number of Step calls so far.
func (s *Supervisor) Loops() uint32 { return s.loops.Load() }

// ConfigReport logs a one-shot summary of the robot configuration.
func (s *Supervisor) ConfigReport() {
	log := logFor(compSupervisor)
	log.Debug().Msg("robot configuration report")
	if s.hw.Network != nil {
		log.Debug().
			Bool("network", s.hw.Network.IsConnected()).
			Str("name", s.hw.Network.UniqueName()).
			Msg("network connection status")
	}
	for _, b := range s.Buses {
		log.Debug().
			Uint8("bus", uint8(b.ID())).
			Uint32("speed", b.Config().Frequency).
			Int("devices", len(b.Devices())).
			Msg("I2C bus")
	}
	log.Debug().Bool("connected", s.lcdConnected.Load()).Msg("LCD connection status")
	log.Debug().Bool("connected", s.motorConnected.Load()).Msg("DC motor controller connection status")
	log.Debug().
		Str("mode", s.LED.Mode().String()).
		Str("color", s.LED.CurrentColorName()).
		Msg("status LED")
}

// Step runs one main-loop iteration: poll the tilt switches, then let the
// status LED consume a pending timer tick.
func (s *Supervisor) Step() {
	s.loops.Inc()
	s.Switches.Poll()
	s.LED.Update()
}

// onSwitchChange shows the lean direction and restores the previous colour
// once the robot is upright again.
func (s *Supervisor) onSwitchChange(prev, next SwitchState) {
	if prev == NoSwitch {
		s.LED.SaveColor()
	}
	switch next {
	case FrontPressed:
		s.LED.SetColor(Pink)
	case BackPressed:
		s.LED.SetColor(Aqua)
	case BothPressed:
		s.LED.SetColor(Red)
	default:
		s.LED.RestoreColor()
	}
}

func (s *Supervisor) anyBusHas(addr I2CAddress) bool {
	for _, b := range s.Buses {
		if b.Present(addr) {
			return true
		}
	}
	return false
}
