package core

import (
	"context"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"twipi/errcode"
)

// FirmwareVersion is reported by the version command.
const FirmwareVersion = "twipi-0.3.0"

// Console binds the text commands to a running supervisor. Every result is
// logged with component "console" so the host reads a single stream.
type Console struct {
	sup      *Supervisor
	registry *CommandRegistry
	timeout  time.Duration // upper bound for motor distance moves
}

// NewConsole registers the console commands for sup.
func NewConsole(sup *Supervisor) *Console {
	c := &Console{sup: sup, registry: NewCommandRegistry(), timeout: 30 * time.Second}
	c.registerCommands()
	return c
}

// Registry exposes the command registry.
func (c *Console) Registry() *CommandRegistry { return c.registry }

// Exec runs one console line and logs any error.
func (c *Console) Exec(line string) error {
	err := c.registry.Dispatch(line)
	if err != nil {
		logger.Error().Str("component", compConsole).
			Str("line", line).
			Str("code", string(errcode.Of(err))).
			Err(err).
			Msg("command failed")
	}
	return err
}

func (c *Console) registerCommands() {
	r := c.registry
	r.Register("help", "", c.handleHelp)
	r.Register("version", "", c.handleVersion)
	r.Register("scan", "<bus>", c.handleScan)
	r.Register("led", "color <name|index> | mode <off|on|blink|cycle> | status", c.handleLED)
	r.Register("motor", "spin <side> <speed> [distance] | stop <side> | mode <0-3> | reset | encoders | battery | current <side> | accel <1-10>", c.handleMotor)
	r.Register("switches", "", c.handleSwitches)
	r.Register("report", "", c.handleReport)
}

func (c *Console) result(cmd string) *zerolog.Event {
	return logger.Info().Str("component", compConsole).Str("cmd", cmd)
}

func (c *Console) handleHelp(args []string) error {
	for _, line := range c.registry.Help() {
		c.result("help").Msg(line)
	}
	return nil
}

func (c *Console) handleVersion(args []string) error {
	c.result("version").Str("version", FirmwareVersion).Msg("firmware version")
	return nil
}

func (c *Console) handleScan(args []string) error {
	if len(args) != 1 {
		return usageErr("scan", "scan <bus>")
	}
	n, err := strconv.ParseUint(args[0], 10, 8)
	if err != nil {
		return errcode.New(errcode.InvalidParams, "scan", "bus must be a number", err)
	}
	bus := c.sup.Bus(I2CBusID(n))
	if bus == nil {
		return errcode.New(errcode.UnknownBus, "scan", args[0], nil)
	}
	devs, err := bus.Scan()
	if err != nil {
		return err
	}
	for _, d := range devs {
		c.result("scan").
			Uint8("bus", uint8(d.Bus)).
			Uint8("addr", uint8(d.Address)).
			Str("label", d.Label).
			Msg(d.String())
	}
	c.result("scan").Int("devices", len(devs)).Msg("scan complete")
	return nil
}

func (c *Console) handleLED(args []string) error {
	if len(args) == 0 {
		return usageErr("led", "led color|mode|status")
	}
	led := c.sup.LED
	switch args[0] {
	case "color", "colour":
		if len(args) != 2 {
			return usageErr("led", "led color <name|index>")
		}
		col, ok := ColorByName(args[1])
		if !ok {
			idx, err := strconv.Atoi(args[1])
			if err != nil {
				return errcode.New(errcode.InvalidParams, "led", "unknown colour "+args[1], nil)
			}
			col = White
			if idx >= 0 && idx < NumColors {
				col = Color(idx)
			}
		}
		led.SetColor(col)
	case "mode":
		if len(args) != 2 {
			return usageErr("led", "led mode <off|on|blink|cycle>")
		}
		m, ok := ParseLedMode(args[1])
		if !ok {
			return errcode.New(errcode.InvalidParams, "led", "unknown mode "+args[1], nil)
		}
		led.SetMode(m)
	case "status":
	default:
		return usageErr("led", "led color|mode|status")
	}
	c.result("led").
		Str("mode", led.Mode().String()).
		Str("color", led.CurrentColorName()).
		Int32("pending", led.PendingTicks()).
		Msg("status LED")
	return nil
}

func (c *Console) handleMotor(args []string) error {
	if len(args) == 0 {
		return usageErr("motor", "motor spin|stop|mode|reset|encoders|battery|current|accel")
	}
	if !c.sup.MotorConnected() {
		logger.Warn().Str("component", compConsole).Msg("motor controller was not detected at boot")
	}
	m := c.sup.Motor
	switch args[0] {
	case "spin":
		if len(args) != 3 && len(args) != 4 {
			return usageErr("motor", "motor spin <side> <speed> [distance]")
		}
		side, err := parseSide(args[1])
		if err != nil {
			return err
		}
		speed, err := parseUint8("speed", args[2])
		if err != nil {
			return err
		}
		if len(args) == 3 {
			return m.Spin(side, speed)
		}
		dist, err := strconv.ParseUint(args[3], 10, 32)
		if err != nil {
			return errcode.New(errcode.InvalidParams, "motor", "distance must be a number", err)
		}
		ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
		defer cancel()
		if err := m.SpinDistance(ctx, side, speed, uint32(dist)); err != nil {
			return err
		}
		c.result("motor").Uint32("distance", uint32(dist)).Msg("distance reached")
	case "stop":
		if len(args) != 2 {
			return usageErr("motor", "motor stop <side>")
		}
		side, err := parseSide(args[1])
		if err != nil {
			return err
		}
		return m.Stop(side)
	case "mode":
		if len(args) != 2 {
			return usageErr("motor", "motor mode <0-3>")
		}
		v, err := parseUint8("mode", args[1])
		if err != nil {
			return err
		}
		if v > uint8(ModeCombinedSigned) {
			return errcode.New(errcode.InvalidParams, "motor", "mode must be 0-3", nil)
		}
		return m.SetMode(MotorMode(v))
	case "reset":
		return m.ResetEncoders()
	case "encoders":
		left, right, err := m.Encoders()
		if err != nil {
			return err
		}
		c.result("motor").Int32("left", left).Int32("right", right).Msg("encoder counts")
	case "battery":
		v, err := m.BatteryDeciVolts()
		if err != nil {
			return err
		}
		c.result("motor").Uint8("decivolts", v).Msg("battery voltage")
	case "current":
		if len(args) != 2 {
			return usageErr("motor", "motor current <left|right>")
		}
		side, err := parseSide(args[1])
		if err != nil {
			return err
		}
		v, err := m.MotorCurrent(side)
		if err != nil {
			return err
		}
		c.result("motor").Str("side", side.String()).Uint8("deciamps", v).Msg("motor current")
	case "accel":
		if len(args) != 2 {
			return usageErr("motor", "motor accel <1-10>")
		}
		v, err := parseUint8("accel", args[1])
		if err != nil {
			return err
		}
		return m.SetAcceleration(v)
	default:
		return usageErr("motor", "motor spin|stop|mode|reset|encoders|battery|current|accel")
	}
	return nil
}

func (c *Console) handleSwitches(args []string) error {
	sw := c.sup.Switches
	c.result("switches").
		Bool("front", sw.Pressed(FrontSwitch)).
		Bool("back", sw.Pressed(BackSwitch)).
		Str("state", sw.State().String()).
		Msg("limit switches")
	return nil
}

func (c *Console) handleReport(args []string) error {
	c.sup.ConfigReport()
	c.result("report").
		Bool("healthy", c.sup.BootHealthy()).
		Uint32("loops", c.sup.Loops()).
		Msg("report complete")
	return nil
}

func parseSide(s string) (MotorSide, error) {
	side, ok := ParseMotorSide(s)
	if !ok {
		return 0, errcode.New(errcode.InvalidParams, "motor", "side must be left, right or both", nil)
	}
	return side, nil
}

func parseUint8(name, s string) (uint8, error) {
	v, err := strconv.ParseUint(s, 10, 8)
	if err != nil {
		return 0, errcode.New(errcode.InvalidParams, "motor", name+" must be 0-255", err)
	}
	return uint8(v), nil
}

func usageErr(op, usage string) error {
	return errcode.New(errcode.InvalidParams, op, "usage: "+usage, nil)
}
