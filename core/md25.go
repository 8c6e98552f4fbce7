package core

import (
	"context"
	"strconv"
	"time"

	"twipi/errcode"
)

// MotorSide selects one or both motors.
type MotorSide uint8

const (
	MotorLeft  MotorSide = 0 // motor1
	MotorRight MotorSide = 1 // motor2
	MotorBoth  MotorSide = 2
)

func (s MotorSide) String() string {
	switch s {
	case MotorLeft:
		return "left"
	case MotorRight:
		return "right"
	default:
		return "both"
	}
}

// ParseMotorSide accepts "left", "right" or "both".
func ParseMotorSide(s string) (MotorSide, bool) {
	switch s {
	case "left", "l", "0":
		return MotorLeft, true
	case "right", "r", "1":
		return MotorRight, true
	case "both", "b", "2":
		return MotorBoth, true
	}
	return MotorBoth, false
}

// MotionConfig bounds the blocking SpinDistance call.
type MotionConfig struct {
	PollInterval time.Duration // encoder polling period
	StallWindow  time.Duration // no encoder change for this long means stalled; 0 disables
	SettleDelay  time.Duration // pause after the final stop
}

// MotorController drives an MD25 over a RegisterBus. The device mode register
// is shared state, so every speed write is issued together with its mode write
// inside one bus transaction.
type MotorController struct {
	bus  *RegisterBus
	addr I2CAddress
	cfg  MotionConfig
}

// NewMotorController creates a controller for the MD25 at addr.
func NewMotorController(bus *RegisterBus, addr I2CAddress, cfg MotionConfig) *MotorController {
	if addr == 0 {
		addr = MD25Address
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 10 * time.Millisecond
	}
	return &MotorController{bus: bus, addr: addr, cfg: cfg}
}

// Address returns the 7-bit device address
func (m *MotorController) Address() I2CAddress { return m.addr }

// Init reads and logs the firmware revision.
func (m *MotorController) Init() (uint8, error) {
	v, err := m.FirmwareVersion()
	if err != nil {
		logger.Error().Str("component", compMD25).Err(err).Msg("MD25 did not report a firmware version")
		return 0, err
	}
	logger.Info().Str("component", compMD25).Uint8("version", v).Msg("MD25 driver firmware version")
	return v, nil
}

// FirmwareVersion reads the software revision register.
func (m *MotorController) FirmwareVersion() (uint8, error) {
	v, err := m.bus.ReadRegister(m.addr, md25RegSoftwareRev, 1)
	return uint8(v), err
}

// ResetEncoders zeroes both encoder counters.
func (m *MotorController) ResetEncoders() error {
	return m.command(md25CmdResetEncoders)
}

// Encoder reads one encoder as a signed 32-bit count.
func (m *MotorController) Encoder(side MotorSide) (int32, error) {
	reg, err := encoderRegister(side)
	if err != nil {
		return 0, err
	}
	v, err := m.bus.ReadRegister(m.addr, reg, 4)
	return int32(v), err
}

// Encoders reads both encoders in one bus transaction.
func (m *MotorController) Encoders() (left, right int32, err error) {
	err = m.bus.Transaction(m.addr, func(tx *Tx) error {
		l, err := tx.ReadRegister(md25RegEncoder1, 4)
		if err != nil {
			return err
		}
		r, err := tx.ReadRegister(md25RegEncoder2, 4)
		if err != nil {
			return err
		}
		left, right = int32(l), int32(r)
		return nil
	})
	return left, right, err
}

// SetMode writes the mode register. Values above 3 are passed through; the
// device decides what to do with them.
func (m *MotorController) SetMode(mode MotorMode) error {
	return m.bus.WriteRegister(m.addr, md25RegMode, byte(mode))
}

// Spin selects the mode for sel and writes speed (0 reverse, 128 stop,
// 255 forward). Mode and speed are written as one transaction.
func (m *MotorController) Spin(sel MotorSide, speed uint8) error {
	logger.Debug().Str("component", compMD25).
		Str("motor", sel.String()).
		Uint8("speed", speed).
		Msg("spin motor")
	return m.bus.Transaction(m.addr, func(tx *Tx) error {
		mode, reg := spinTarget(sel)
		if err := tx.WriteRegister(md25RegMode, byte(mode)); err != nil {
			return err
		}
		return tx.WriteRegister(reg, speed)
	})
}

// Stop writes the stop value to the speed register(s) selected by sel. In
// combined mode the turn register is neutralised too.
func (m *MotorController) Stop(sel MotorSide) error {
	logger.Debug().Str("component", compMD25).Str("motor", sel.String()).Msg("stop motor")
	return m.bus.Transaction(m.addr, func(tx *Tx) error {
		mode, reg := spinTarget(sel)
		if err := tx.WriteRegister(md25RegMode, byte(mode)); err != nil {
			return err
		}
		if err := tx.WriteRegister(reg, SpeedStop); err != nil {
			return err
		}
		if sel == MotorBoth {
			return tx.WriteRegister(md25RegSpeed2, SpeedStop)
		}
		return nil
	})
}

// SpinDistance resets the encoders, spins sel at speed and polls the encoders
// until distance counts have been travelled. It returns early with
// errcode.MotorStalled when the encoders stop changing for StallWindow, or with
// ctx.Err() on cancellation. The motors are always stopped before returning.
func (m *MotorController) SpinDistance(ctx context.Context, sel MotorSide, speed uint8, distance uint32) (err error) {
	if err := m.ResetEncoders(); err != nil {
		return err
	}
	if err := m.Spin(sel, speed); err != nil {
		return err
	}
	defer func() {
		stopErr := m.Stop(sel)
		if err == nil {
			err = stopErr
		}
		if m.cfg.SettleDelay > 0 {
			time.Sleep(m.cfg.SettleDelay)
		}
	}()

	var last uint32
	lastMove := time.Now()
	for {
		travelled, err := m.travelled(sel)
		if err != nil {
			return err
		}
		if travelled >= distance {
			logger.Debug().Str("component", compMD25).
				Str("motor", sel.String()).
				Uint32("travelled", travelled).
				Msg("distance reached")
			return nil
		}
		now := time.Now()
		if travelled != last {
			last = travelled
			lastMove = now
		} else if m.cfg.StallWindow > 0 && now.Sub(lastMove) >= m.cfg.StallWindow {
			logger.Warn().Str("component", compMD25).
				Str("motor", sel.String()).
				Uint32("travelled", travelled).
				Uint32("distance", distance).
				Msg("motor stalled")
			return errcode.New(errcode.MotorStalled, "spin_distance",
				sel.String()+" stuck at "+strconv.FormatUint(uint64(travelled), 10), nil)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(m.cfg.PollInterval):
		}
	}
}

// BatteryDeciVolts reads the supply voltage in tenths of a volt.
func (m *MotorController) BatteryDeciVolts() (uint8, error) {
	v, err := m.bus.ReadRegister(m.addr, md25RegBatteryVolts, 1)
	return uint8(v), err
}

// MotorCurrent reads one motor's current in tenths of an amp.
func (m *MotorController) MotorCurrent(side MotorSide) (uint8, error) {
	reg := byte(md25RegMotorCur1)
	switch side {
	case MotorLeft:
	case MotorRight:
		reg = md25RegMotorCur2
	default:
		return 0, errcode.New(errcode.InvalidParams, "motor_current", "select left or right", nil)
	}
	v, err := m.bus.ReadRegister(m.addr, reg, 1)
	return uint8(v), err
}

// SetAcceleration writes the acceleration register (1 slowest - 10 fastest).
func (m *MotorController) SetAcceleration(rate uint8) error {
	if rate < 1 || rate > 10 {
		return errcode.New(errcode.InvalidParams, "set_acceleration", "rate must be 1-10", nil)
	}
	return m.bus.WriteRegister(m.addr, md25RegAccel, rate)
}

// SetSpeedRegulation toggles the MD25's automatic speed regulation.
func (m *MotorController) SetSpeedRegulation(on bool) error {
	if on {
		return m.command(md25CmdAutoSpeedRegOn)
	}
	return m.command(md25CmdAutoSpeedRegOff)
}

// SetAutoTimeout toggles the 2 second stop-on-idle-bus watchdog.
func (m *MotorController) SetAutoTimeout(on bool) error {
	if on {
		return m.command(md25CmdAutoTimeoutOn)
	}
	return m.command(md25CmdAutoTimeoutOff)
}

func (m *MotorController) command(op byte) error {
	return m.bus.WriteRegister(m.addr, md25RegCmd, op)
}

// travelled returns the absolute distance for sel; for both motors the
// slower side counts.
func (m *MotorController) travelled(sel MotorSide) (uint32, error) {
	if sel != MotorBoth {
		v, err := m.Encoder(sel)
		return absCount(v), err
	}
	l, r, err := m.Encoders()
	if err != nil {
		return 0, err
	}
	al, ar := absCount(l), absCount(r)
	if al < ar {
		return al, nil
	}
	return ar, nil
}

func spinTarget(sel MotorSide) (MotorMode, byte) {
	switch sel {
	case MotorLeft:
		return ModeIndependent, md25RegSpeed1
	case MotorRight:
		return ModeIndependent, md25RegSpeed2
	default:
		return ModeCombined, md25RegSpeed1
	}
}

func encoderRegister(side MotorSide) (byte, error) {
	switch side {
	case MotorLeft:
		return md25RegEncoder1, nil
	case MotorRight:
		return md25RegEncoder2, nil
	}
	return 0, errcode.New(errcode.InvalidParams, "encoder", "select left or right", nil)
}

func absCount(v int32) uint32 {
	if v < 0 {
		return uint32(-int64(v))
	}
	return uint32(v)
}
