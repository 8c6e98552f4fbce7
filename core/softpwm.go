package core

import (
	"sync"
	"time"

	"twipi/errcode"
)

// SoftPWMSlots is the number of on/off steps in one software PWM period.
const SoftPWMSlots = 8

// SoftPWM is a PWMDriver that bit-bangs GPIO outputs from one goroutine, for
// targets whose TinyGo machine package has no PWM block.
//
// Limits: each period is split into SoftPWMSlots steps, so only that many
// brightness levels are visible, and a step can be no shorter than the
// scheduler's sleep granularity. The main loop yields for about 1ms, so
// channels should run at or below 1s/(SoftPWMSlots*1ms), about 125 Hz, or the
// LED flickers. Channel state is shared with SetDutyCycle under mu; the
// output loop copies it once per step and never reads it unlocked.
type SoftPWM struct {
	gpio GPIODriver
	mu   sync.Locker

	// guarded by mu
	pins   []GPIOPin
	duty   []PWMValue
	max    []PWMValue
	index  map[PWMChannel]int
	period time.Duration

	done chan struct{}
	wg   sync.WaitGroup
}

// NewSoftPWM returns a stopped driver writing through gpio. A nil mu selects
// an InterruptLock.
func NewSoftPWM(gpio GPIODriver, mu sync.Locker) *SoftPWM {
	if mu == nil {
		mu = &InterruptLock{}
	}
	return &SoftPWM{
		gpio:  gpio,
		mu:    mu,
		index: make(map[PWMChannel]int),
	}
}

// ConfigureChannel attaches ch.Pin as an output. All channels share one
// period; the last configured frequency wins.
func (p *SoftPWM) ConfigureChannel(ch LedChannel) error {
	if err := ch.Validate(); err != nil {
		return err
	}
	if err := p.gpio.ConfigureOutput(ch.Pin); err != nil {
		return errcode.New(errcode.Error, "softpwm", "configure output", err)
	}
	p.gpio.SetPin(ch.Pin, false)

	p.mu.Lock()
	defer p.mu.Unlock()
	p.period = time.Second / time.Duration(ch.Frequency)
	if i, ok := p.index[ch.Channel]; ok {
		p.pins[i] = ch.Pin
		p.max[i] = ch.MaxValue()
		p.duty[i] = 0
		return nil
	}
	p.index[ch.Channel] = len(p.pins)
	p.pins = append(p.pins, ch.Pin)
	p.duty = append(p.duty, 0)
	p.max = append(p.max, ch.MaxValue())
	return nil
}

// SetDutyCycle stores a raw duty value; the output loop picks it up at its
// next step.
func (p *SoftPWM) SetDutyCycle(ch PWMChannel, value PWMValue) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	i, ok := p.index[ch]
	if !ok {
		return errcode.New(errcode.InvalidParams, "softpwm", "channel not configured", nil)
	}
	if value > p.max[i] {
		value = p.max[i]
	}
	p.duty[i] = value
	return nil
}

// Start runs the output loop until Stop.
func (p *SoftPWM) Start() error {
	if p.done != nil {
		return errcode.New(errcode.InvalidParams, "softpwm", "already running", nil)
	}
	p.done = make(chan struct{})
	p.wg.Add(1)
	go p.loop(p.done)
	return nil
}

// Stop ends the output loop and drives every pin low.
func (p *SoftPWM) Stop() {
	if p.done == nil {
		return
	}
	close(p.done)
	p.wg.Wait()
	p.done = nil

	p.mu.Lock()
	pins := append([]GPIOPin(nil), p.pins...)
	p.mu.Unlock()
	for _, pin := range pins {
		p.gpio.SetPin(pin, false)
	}
}

func (p *SoftPWM) loop(done chan struct{}) {
	defer p.wg.Done()
	for {
		for i := 0; i < SoftPWMSlots; i++ {
			step := p.writeSlot(i)
			select {
			case <-done:
				return
			case <-time.After(step):
			}
		}
	}
}

// writeSlot sets each pin for step i of the period and returns the step
// length. A pin is high while its duty covers more than i/SoftPWMSlots of
// full scale.
func (p *SoftPWM) writeSlot(i int) time.Duration {
	var (
		pins   [MaxPWMChannels]GPIOPin
		levels [MaxPWMChannels]bool
	)
	p.mu.Lock()
	n := len(p.pins)
	for ch := 0; ch < n; ch++ {
		pins[ch] = p.pins[ch]
		levels[ch] = uint64(p.duty[ch])*SoftPWMSlots > uint64(i)*uint64(p.max[ch])
	}
	period := p.period
	p.mu.Unlock()

	for ch := 0; ch < n; ch++ {
		p.gpio.SetPin(pins[ch], levels[ch])
	}
	if period <= 0 {
		return time.Millisecond
	}
	return period / SoftPWMSlots
}
