// Package countdown drives the per-post "time remaining" display.
package countdown

import (
	"fmt"
	"sync"
	"time"
)

// ExpiredLabel is written exactly once when the countdown reaches zero.
const ExpiredLabel = "Expired"

// Display receives each rendered tick. Implementations must tolerate calls
// from the timer goroutine.
type Display interface {
	SetText(s string)
}

// Options tune a timer; the zero value means a 1-second period and the wall
// clock.
type Options struct {
	Period time.Duration
	Now    func() time.Time
}

// Timer ticks down to an end time, rendering "Dd Hh Mm Ss" until expiry and
// then the literal ExpiredLabel, after which no further ticks fire. Stop
// releases a timer whose display is being torn down before expiry.
type Timer struct {
	stopOnce sync.Once
	stop     chan struct{}
	done     chan struct{}
}

// Start renders the current remaining time immediately and then once per
// period until endTime passes or Stop is called.
func Start(endTime time.Time, d Display, opts Options) *Timer {
	if opts.Period <= 0 {
		opts.Period = time.Second
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	t := &Timer{
		stop: make(chan struct{}),
		done: make(chan struct{}),
	}
	go t.run(endTime, d, opts)
	return t
}

// Stop cancels the timer. Safe to call more than once and after expiry.
func (t *Timer) Stop() {
	t.stopOnce.Do(func() { close(t.stop) })
	<-t.done
}

func (t *Timer) run(endTime time.Time, d Display, opts Options) {
	defer close(t.done)

	ticker := time.NewTicker(opts.Period)
	defer ticker.Stop()

	for {
		remaining := endTime.Sub(opts.Now())
		if remaining <= 0 {
			d.SetText(ExpiredLabel)
			return
		}
		d.SetText(Format(remaining))

		select {
		case <-t.stop:
			return
		case <-ticker.C:
		}
	}
}

// Format renders a duration as "Dd Hh Mm Ss" with floor-divided,
// non-negative components and no zero padding.
func Format(remaining time.Duration) string {
	if remaining < 0 {
		remaining = 0
	}
	total := int64(remaining / time.Second)
	days := total / 86400
	hours := (total % 86400) / 3600
	minutes := (total % 3600) / 60
	seconds := total % 60
	return fmt.Sprintf("%dd %dh %dm %ds", days, hours, minutes, seconds)
}
