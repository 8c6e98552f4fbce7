package core

import (
	"testing"
	"time"
)

type fakeNetwork struct{ up bool }

func (n fakeNetwork) IsConnected() bool  { return n.up }
func (n fakeNetwork) UniqueName() string { return "twipi-test" }

type testRig struct {
	sup   *Supervisor
	i2c   *fakeI2C
	pwm   *fakePWM
	gpio  *fakeGPIO
	timer *manualTimer
	md25  *fakeDevice
}

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.Buses[0].SDA, cfg.Buses[0].SCL = 21, 22
	cfg.Buses[1].SDA, cfg.Buses[1].SCL = 25, 26
	cfg.Bus.ReadTimeout = 10 * time.Millisecond
	cfg.Bus.ScanPause = 0
	cfg.Motion = MotionConfig{PollInterval: time.Millisecond, StallWindow: 20 * time.Millisecond}
	cfg.LED.Red.Pin, cfg.LED.Green.Pin, cfg.LED.Blue.Pin = 13, 12, 27
	cfg.FrontSwitch = testFrontPin
	cfg.BackSwitch = testBackPin
	cfg.PowerLED = 33
	return cfg
}

// newTestRig builds a supervisor with an MD25 on bus 1 and an LCD on bus 0.
func newTestRig(t *testing.T, withLCD bool) *testRig {
	t.Helper()
	rig := &testRig{
		i2c:   newFakeI2C(),
		pwm:   newFakePWM(),
		gpio:  newFakeGPIO(),
		timer: &manualTimer{},
	}
	rig.md25 = rig.i2c.buses[1].attach(MD25Address, newMD25(9, 5))
	if withLCD {
		rig.i2c.buses[0].attach(LCDAddress, &fakeDevice{})
	}
	rig.sup = NewSupervisor(testConfig(), Hardware{
		I2C:     rig.i2c,
		PWM:     rig.pwm,
		GPIO:    rig.gpio,
		Timer:   rig.timer,
		Network: fakeNetwork{up: true},
	})
	return rig
}

func TestSupervisorBootHealthy(t *testing.T) {
	rig := newTestRig(t, true)
	rig.sup.cfg.LED.Mode = LedOn

	if err := rig.sup.Boot(); err != nil {
		t.Fatalf("Boot failed: %v", err)
	}
	if !rig.sup.MotorConnected() || !rig.sup.LCDConnected() {
		t.Error("Expected motor and LCD connected")
	}
	assertColor(t, rig.sup.LED, rig.pwm, Blue)
	if rig.timer.period != time.Second {
		t.Errorf("LED timer period = %v", rig.timer.period)
	}
	if !rig.gpio.outputs[33] || !rig.gpio.ReadPin(33) {
		t.Error("power LED not switched on")
	}
	if got := rig.i2c.configured[1].Frequency; got != Bus1Speed {
		t.Errorf("bus 1 frequency = %d, want %d", got, Bus1Speed)
	}
}

func TestSupervisorBootWithoutLCD(t *testing.T) {
	rig := newTestRig(t, false)

	if err := rig.sup.Boot(); err != nil {
		t.Fatalf("Boot failed: %v", err)
	}
	if rig.sup.BootHealthy() {
		t.Error("boot without LCD reported healthy")
	}
	assertColor(t, rig.sup.LED, rig.pwm, Yellow)
}

func TestSupervisorBootBusFailure(t *testing.T) {
	rig := newTestRig(t, true)
	rig.i2c.fail = true
	rig.i2c.failBus = 1

	if err := rig.sup.Boot(); err != nil {
		t.Fatalf("Boot failed: %v", err)
	}
	if rig.sup.MotorConnected() {
		t.Error("motor reported connected on a failed bus")
	}
}

func TestSupervisorSwitchColours(t *testing.T) {
	rig := newTestRig(t, true)
	if err := rig.sup.Boot(); err != nil {
		t.Fatalf("Boot failed: %v", err)
	}
	before := rig.sup.LED.CurrentColor()

	rig.gpio.press(testFrontPin, true)
	rig.sup.Step()
	assertColor(t, rig.sup.LED, rig.pwm, Pink)

	rig.gpio.press(testBackPin, true)
	rig.sup.Step()
	assertColor(t, rig.sup.LED, rig.pwm, Red)

	rig.gpio.press(testFrontPin, false)
	rig.sup.Step()
	assertColor(t, rig.sup.LED, rig.pwm, Aqua)

	rig.gpio.press(testBackPin, false)
	rig.sup.Step()
	assertColor(t, rig.sup.LED, rig.pwm, before)

	if rig.sup.Loops() != 4 {
		t.Errorf("Loops = %d, want 4", rig.sup.Loops())
	}
}

func TestSupervisorStepDrainsTicks(t *testing.T) {
	rig := newTestRig(t, true)
	if err := rig.sup.Boot(); err != nil {
		t.Fatalf("Boot failed: %v", err)
	}
	rig.sup.LED.SetMode(LedCycle)

	rig.timer.fire(2)
	rig.sup.Step()
	assertColor(t, rig.sup.LED, rig.pwm, Red)
	rig.sup.Step()
	assertColor(t, rig.sup.LED, rig.pwm, Blue)
	rig.sup.Step()
	assertColor(t, rig.sup.LED, rig.pwm, Blue)
}

func TestSupervisorSwitchDuringBlinkDarkPhase(t *testing.T) {
	rig := newTestRig(t, true)
	rig.sup.cfg.LED.Mode = LedBlink
	if err := rig.sup.Boot(); err != nil {
		t.Fatalf("Boot failed: %v", err)
	}
	assertColor(t, rig.sup.LED, rig.pwm, Blue)

	rig.timer.fire(1)
	rig.sup.Step()
	assertColor(t, rig.sup.LED, rig.pwm, Black)

	rig.gpio.press(testFrontPin, true)
	rig.sup.Step()
	assertColor(t, rig.sup.LED, rig.pwm, Pink)
	rig.gpio.press(testFrontPin, false)
	rig.sup.Step()
	assertColor(t, rig.sup.LED, rig.pwm, Blue)

	seen := map[Color]bool{}
	for i := 0; i < 4; i++ {
		rig.timer.fire(1)
		rig.sup.Step()
		seen[rig.sup.LED.CurrentColor()] = true
	}
	if !seen[Blue] || !seen[Black] {
		t.Errorf("blink after release showed %v, want BLUE and BLACK", seen)
	}
}

func TestSupervisorSwitchDuringCycle(t *testing.T) {
	rig := newTestRig(t, true)
	rig.sup.cfg.LED.Mode = LedCycle
	if err := rig.sup.Boot(); err != nil {
		t.Fatalf("Boot failed: %v", err)
	}

	rig.timer.fire(2)
	rig.sup.Step()
	rig.sup.Step()
	assertColor(t, rig.sup.LED, rig.pwm, Blue)

	rig.gpio.press(testBackPin, true)
	rig.sup.Step()
	assertColor(t, rig.sup.LED, rig.pwm, Aqua)
	rig.gpio.press(testBackPin, false)
	rig.sup.Step()

	// the saved colour is the one set by boot, not a cycle colour
	assertColor(t, rig.sup.LED, rig.pwm, Blue)

	rig.timer.fire(1)
	rig.sup.Step()
	assertColor(t, rig.sup.LED, rig.pwm, Green)
}

func TestSupervisorBootStopsTimerOnSwitchFailure(t *testing.T) {
	rig := newTestRig(t, true)
	rig.gpio.failPullUp = true

	if err := rig.sup.Boot(); err == nil {
		t.Fatal("Expected Boot to fail")
	}
	if !rig.timer.stopped {
		t.Error("LED timer left running after failed boot")
	}
}
