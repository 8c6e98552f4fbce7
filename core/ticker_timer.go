package core

import (
	"time"

	"twipi/errcode"
)

// TickerTimer is a PeriodicTimer that calls the handler from its own
// goroutine. On TinyGo targets without a timer-group API it stands in for
// the hardware timer interrupt; the handler still only touches the
// interrupt-guarded tick counter.
type TickerTimer struct {
	ticker *time.Ticker
	done   chan struct{}
}

// NewTickerTimer returns a stopped timer.
func NewTickerTimer() *TickerTimer {
	return &TickerTimer{}
}

func (t *TickerTimer) Start(period time.Duration, handler func()) error {
	if t.ticker != nil {
		return errcode.New(errcode.InvalidParams, "timer_start", "timer already running", nil)
	}
	if period <= 0 {
		return errcode.New(errcode.InvalidParams, "timer_start", "period must be positive", nil)
	}
	t.ticker = time.NewTicker(period)
	t.done = make(chan struct{})
	go func(tk *time.Ticker, done chan struct{}) {
		for {
			select {
			case <-tk.C:
				handler()
			case <-done:
				return
			}
		}
	}(t.ticker, t.done)
	return nil
}

func (t *TickerTimer) Stop() {
	if t.ticker == nil {
		return
	}
	t.ticker.Stop()
	close(t.done)
	t.ticker = nil
}
