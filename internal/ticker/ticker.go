package ticker

import (
	"context"
	"time"
)

// Clock is the time source of a Ticker. Wait sleeps on After, so a fake clock drives
// both the deadline checks and the sleep.
type Clock interface {
	Now() time.Time
	After(d time.Duration) <-chan time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

func (systemClock) After(d time.Duration) <-chan time.Time { return time.After(d) }

// Ticker is a fixed-period gate. It fires at most once per period and advances its
// deadline from the previous deadline, so slow iterations do not shift later ticks.
type Ticker struct {
	clock    Clock
	period   time.Duration
	deadline time.Time
}

// New creates a ticker whose first tick is due one period from now.
func New(period time.Duration) *Ticker {
	return NewWithClock(period, systemClock{})
}

// NewWithClock creates a ticker driven by clock.
func NewWithClock(period time.Duration, clock Clock) *Ticker {
	if period <= 0 {
		period = time.Second
	}
	if clock == nil {
		clock = systemClock{}
	}

	return &Ticker{
		clock:    clock,
		period:   period,
		deadline: clock.Now().Add(period),
	}
}

// Period returns the configured period.
func (t *Ticker) Period() time.Duration {
	return t.period
}

// Deadline returns the time the next tick becomes due.
func (t *Ticker) Deadline() time.Time {
	return t.deadline
}

// IsReady reports whether a tick is due and consumes it if so.
func (t *Ticker) IsReady() bool {
	if t.clock.Now().Before(t.deadline) {
		return false
	}

	t.deadline = t.deadline.Add(t.period)
	return true
}

// Wait blocks until the next tick is due and consumes it.
func (t *Ticker) Wait(ctx context.Context) error {
	for {
		if t.IsReady() {
			return nil
		}

		wait := t.deadline.Sub(t.clock.Now())
		if wait <= 0 {
			continue
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.clock.After(wait):
		}
	}
}
