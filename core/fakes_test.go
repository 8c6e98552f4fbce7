package core

import (
	"errors"
	"sync"
	"testing"
	"time"

	"tinygo.org/x/drivers"
)

var errNoAck = errors.New("fake: no ack")

// fakeDevice is a register file behind a 7-bit address. The last single-byte
// write selects the register for the next read.
type fakeDevice struct {
	regs   [64]byte
	ptr    byte
	hang   bool // never answer reads
	writes [][]byte

	beforeRead func(d *fakeDevice, reg byte)
	afterWrite func(d *fakeDevice, w []byte)
}

func (d *fakeDevice) put32(reg byte, v int32) {
	u := uint32(v)
	d.regs[reg] = byte(u >> 24)
	d.regs[reg+1] = byte(u >> 16)
	d.regs[reg+2] = byte(u >> 8)
	d.regs[reg+3] = byte(u)
}

func (d *fakeDevice) get32(reg byte) int32 {
	return int32(uint32(d.regs[reg])<<24 | uint32(d.regs[reg+1])<<16 | uint32(d.regs[reg+2])<<8 | uint32(d.regs[reg+3]))
}

// fakeBus implements drivers.I2C.
type fakeBus struct {
	mu      sync.Mutex
	devices map[uint16]*fakeDevice
	txCount int
}

var _ drivers.I2C = (*fakeBus)(nil)

func newFakeBus() *fakeBus {
	return &fakeBus{devices: make(map[uint16]*fakeDevice)}
}

func (b *fakeBus) attach(addr I2CAddress, d *fakeDevice) *fakeDevice {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.devices[uint16(addr)] = d
	return d
}

func (b *fakeBus) Tx(addr uint16, w, r []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.txCount++

	d, ok := b.devices[addr]
	if !ok {
		return errNoAck
	}
	if len(w) > 0 {
		d.ptr = w[0]
		if len(w) > 1 || len(r) == 0 {
			d.writes = append(d.writes, append([]byte(nil), w...))
			copy(d.regs[w[0]:], w[1:])
			if d.afterWrite != nil {
				d.afterWrite(d, w)
			}
		}
	}
	if len(r) > 0 {
		if d.hang {
			return errNoAck
		}
		if d.beforeRead != nil {
			d.beforeRead(d, d.ptr)
		}
		copy(r, d.regs[d.ptr:])
	}
	return nil
}

func (b *fakeBus) writesTo(addr I2CAddress) [][]byte {
	b.mu.Lock()
	defer b.mu.Unlock()
	d := b.devices[uint16(addr)]
	out := make([][]byte, len(d.writes))
	copy(out, d.writes)
	return out
}

// newMD25 returns a device that behaves like the MD25 register map: the
// reset command clears both encoders, and while a speed register is away
// from 128 each encoder read advances that encoder by step.
func newMD25(version byte, step int32) *fakeDevice {
	d := &fakeDevice{}
	d.regs[md25RegSpeed1] = SpeedStop
	d.regs[md25RegSpeed2] = SpeedStop
	d.regs[md25RegSoftwareRev] = version
	d.regs[md25RegBatteryVolts] = 121
	d.afterWrite = func(d *fakeDevice, w []byte) {
		if w[0] == md25RegCmd && len(w) > 1 && w[1] == md25CmdResetEncoders {
			d.put32(md25RegEncoder1, 0)
			d.put32(md25RegEncoder2, 0)
		}
	}
	d.beforeRead = func(d *fakeDevice, reg byte) {
		combined := d.regs[md25RegMode] >= byte(ModeCombined)
		left := d.regs[md25RegSpeed1] != SpeedStop
		right := d.regs[md25RegSpeed2] != SpeedStop
		if combined {
			right = left
		}
		switch reg {
		case md25RegEncoder1:
			if left {
				d.put32(md25RegEncoder1, d.get32(md25RegEncoder1)+step)
			}
			if combined && right {
				d.put32(md25RegEncoder2, d.get32(md25RegEncoder2)+step)
			}
		case md25RegEncoder2:
			if right && !combined {
				d.put32(md25RegEncoder2, d.get32(md25RegEncoder2)+step)
			}
		}
	}
	return d
}

// fakeI2C implements I2CDriver over a set of fakeBus.
type fakeI2C struct {
	buses      map[I2CBusID]*fakeBus
	configured map[I2CBusID]I2CBusConfig
	failBus    I2CBusID
	fail       bool
}

func newFakeI2C() *fakeI2C {
	return &fakeI2C{
		buses:      map[I2CBusID]*fakeBus{0: newFakeBus(), 1: newFakeBus()},
		configured: make(map[I2CBusID]I2CBusConfig),
	}
}

func (f *fakeI2C) ConfigureBus(bus I2CBusID, cfg I2CBusConfig) error {
	if f.fail && bus == f.failBus {
		return errors.New("fake: bus failure")
	}
	if _, ok := f.buses[bus]; !ok {
		return errors.New("fake: no such bus")
	}
	f.configured[bus] = cfg
	return nil
}

func (f *fakeI2C) Bus(bus I2CBusID) (drivers.I2C, error) {
	b, ok := f.buses[bus]
	if !ok {
		return nil, errors.New("fake: no such bus")
	}
	return b, nil
}

// fakePWM records the last duty written per channel.
type fakePWM struct {
	mu         sync.Mutex
	channels   map[PWMChannel]LedChannel
	duty       map[PWMChannel]PWMValue
	writeCount int
}

func newFakePWM() *fakePWM {
	return &fakePWM{channels: make(map[PWMChannel]LedChannel), duty: make(map[PWMChannel]PWMValue)}
}

func (p *fakePWM) ConfigureChannel(ch LedChannel) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.channels[ch.Channel] = ch
	return nil
}

func (p *fakePWM) SetDutyCycle(ch PWMChannel, v PWMValue) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, ok := p.channels[ch]; !ok {
		return errors.New("fake: channel not configured")
	}
	p.duty[ch] = v
	p.writeCount++
	return nil
}

func (p *fakePWM) rgb() (PWMValue, PWMValue, PWMValue) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.duty[0], p.duty[1], p.duty[2]
}

// fakeGPIO holds pin levels; unset inputs read high (pulled up).
type fakeGPIO struct {
	mu      sync.Mutex
	levels  map[GPIOPin]bool
	pullUps map[GPIOPin]bool
	outputs map[GPIOPin]bool

	failPullUp bool
}

func newFakeGPIO() *fakeGPIO {
	return &fakeGPIO{
		levels:  make(map[GPIOPin]bool),
		pullUps: make(map[GPIOPin]bool),
		outputs: make(map[GPIOPin]bool),
	}
}

func (g *fakeGPIO) ConfigureOutput(pin GPIOPin) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.outputs[pin] = true
	return nil
}

func (g *fakeGPIO) ConfigureInputPullUp(pin GPIOPin) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.failPullUp {
		return errors.New("fake: pull-up not available")
	}
	g.pullUps[pin] = true
	return nil
}

func (g *fakeGPIO) SetPin(pin GPIOPin, value bool) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.levels[pin] = value
	return nil
}

func (g *fakeGPIO) ReadPin(pin GPIOPin) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	v, ok := g.levels[pin]
	if !ok {
		return true
	}
	return v
}

// press pulls an active-low switch input to ground.
func (g *fakeGPIO) press(pin GPIOPin, pressed bool) {
	g.SetPin(pin, !pressed)
}

// manualTimer fires only when the test calls fire.
type manualTimer struct {
	period  time.Duration
	handler func()
	stopped bool
}

func (t *manualTimer) Start(period time.Duration, handler func()) error {
	t.period = period
	t.handler = handler
	return nil
}

func (t *manualTimer) Stop() { t.stopped = true }

func (t *manualTimer) fire(n int) {
	for i := 0; i < n; i++ {
		t.handler()
	}
}

func testLedChannels() (LedChannel, LedChannel, LedChannel) {
	return LedChannel{Channel: 0, Frequency: 500, Resolution: 8, Pin: 13},
		LedChannel{Channel: 1, Frequency: 500, Resolution: 8, Pin: 12},
		LedChannel{Channel: 2, Frequency: 500, Resolution: 8, Pin: 27}
}

func newTestIndicator(t testing.TB) (*StatusIndicator, *fakePWM, *manualTimer) {
	pwm := newFakePWM()
	timer := &manualTimer{}
	s := NewStatusIndicator(pwm, timer, nil)
	r, g, b := testLedChannels()
	if err := s.Configure(r, g, b, time.Second); err != nil {
		t.Fatalf("Configure failed: %v", err)
	}
	return s, pwm, timer
}
