package core

import (
	"sync"
	"testing"
	"time"
)

func assertColor(t *testing.T, s *StatusIndicator, pwm *fakePWM, want Color) {
	t.Helper()
	if s.CurrentColor() != want {
		t.Errorf("current colour = %s, want %s", s.CurrentColor(), want)
	}
	spec := want.Spec()
	r, g, b := pwm.rgb()
	if r != PWMValue(spec.Red) || g != PWMValue(spec.Green) || b != PWMValue(spec.Blue) {
		t.Errorf("duty = (%d,%d,%d), want %s (%d,%d,%d)", r, g, b, spec.Name, spec.Red, spec.Green, spec.Blue)
	}
}

func TestStatusIndicatorConfigure(t *testing.T) {
	s, pwm, timer := newTestIndicator(t)

	if timer.period != time.Second {
		t.Errorf("timer period = %v, want 1s", timer.period)
	}
	if len(pwm.channels) != 3 {
		t.Errorf("Expected 3 configured channels, got %d", len(pwm.channels))
	}

	s.Close()
	if !timer.stopped {
		t.Error("Close did not stop the timer")
	}
}

func TestStatusIndicatorConfigureRejectsDuplicateChannel(t *testing.T) {
	s := NewStatusIndicator(newFakePWM(), &manualTimer{}, nil)
	r, g, _ := testLedChannels()
	g.Channel = r.Channel
	if err := s.Configure(r, g, LedChannel{Channel: 2, Frequency: 500, Resolution: 8}, time.Second); err == nil {
		t.Error("Expected error for duplicate channel")
	}
}

func TestStatusIndicatorCycleSequence(t *testing.T) {
	s, pwm, timer := newTestIndicator(t)

	s.SetMode(LedCycle)
	want := []Color{Red, Blue, Green}
	for _, c := range want {
		timer.fire(1)
		if !s.Update() {
			t.Fatal("Update found no pending tick")
		}
		assertColor(t, s, pwm, c)
	}
}

func TestStatusIndicatorCycleWraps(t *testing.T) {
	s, pwm, timer := newTestIndicator(t)
	s.SetMode(LedCycle)
	timer.fire(1)
	s.Update()
	before := s.CurrentColor()

	for i := 0; i < len(cycleOrder); i++ {
		timer.fire(1)
		s.Update()
	}
	assertColor(t, s, pwm, before)
}

func TestStatusIndicatorInvalidColor(t *testing.T) {
	s, pwm, _ := newTestIndicator(t)

	s.SetColor(99)
	assertColor(t, s, pwm, White)

	s.SetColor(Color(NumColors))
	assertColor(t, s, pwm, White)
}

func TestStatusIndicatorBlink(t *testing.T) {
	s, pwm, timer := newTestIndicator(t)
	s.SetColor(Blue)
	s.SetMode(LedBlink)
	assertColor(t, s, pwm, Blue)

	timer.fire(1)
	s.Update()
	assertColor(t, s, pwm, Black)

	timer.fire(1)
	s.Update()
	assertColor(t, s, pwm, Blue)
}

func TestStatusIndicatorOnAndOff(t *testing.T) {
	s, pwm, timer := newTestIndicator(t)
	s.SetColor(Pink)
	s.SetMode(LedOn)
	timer.fire(3)
	for s.Update() {
	}
	assertColor(t, s, pwm, Pink)

	s.SetMode(LedOff)
	assertColor(t, s, pwm, Black)

	s.SetMode(LedMode(42))
	if s.Mode() != LedOff {
		t.Errorf("unknown mode gave %s, want off", s.Mode())
	}
}

func TestStatusIndicatorUpdateWithoutTick(t *testing.T) {
	s, pwm, _ := newTestIndicator(t)
	s.SetMode(LedCycle)
	writes := pwm.writeCount

	if s.Update() {
		t.Error("Update reported a tick with none pending")
	}
	if pwm.writeCount != writes {
		t.Error("Update wrote the LED without a tick")
	}
}

func TestStatusIndicatorSaveRestore(t *testing.T) {
	s, pwm, _ := newTestIndicator(t)
	s.SetColor(Cyan)
	s.SaveColor()
	s.SetColor(Red)
	s.RestoreColor()
	assertColor(t, s, pwm, Cyan)
}

func TestStatusIndicatorSaveDuringBlinkDarkPhase(t *testing.T) {
	s, pwm, timer := newTestIndicator(t)
	s.SetColor(Green)
	s.SetMode(LedBlink)
	timer.fire(1)
	s.Update()
	assertColor(t, s, pwm, Black)

	s.SaveColor()
	s.SetColor(Red)
	s.RestoreColor()
	assertColor(t, s, pwm, Green)
}

func TestStatusIndicatorResetCycle(t *testing.T) {
	s, pwm, timer := newTestIndicator(t)
	s.SetMode(LedCycle)
	timer.fire(2)
	s.Update()
	s.Update()
	s.ResetCycle()
	timer.fire(1)
	s.Update()
	assertColor(t, s, pwm, Red)
}

// Ticks arrive from a goroutine standing in for the timer interrupt while
// the main loop drains them; every tick advances the cycle exactly once.
func TestStatusIndicatorTicksFromInterrupt(t *testing.T) {
	s, _, timer := newTestIndicator(t)
	s.SetMode(LedCycle)

	const n = 5000
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		timer.fire(n)
	}()

	advanced := 0
	for advanced < n {
		if s.Update() {
			advanced++
		}
	}
	wg.Wait()

	if s.PendingTicks() != 0 {
		t.Errorf("PendingTicks = %d, want 0", s.PendingTicks())
	}
	if want := cycleOrder[(n-1)%len(cycleOrder)]; s.CurrentColor() != want {
		t.Errorf("after %d ticks colour = %s, want %s", n, s.CurrentColor(), want)
	}
}
