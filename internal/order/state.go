package order

import (
	"fmt"

	"github.com/yanun0323/errors"

	"quotebot/internal/adapter"
	"quotebot/pkg/exception"
)

// Phase is where the loop stands with respect to its single order.
type Phase uint8

const (
	PhaseIdle Phase = iota
	PhaseOutstanding
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseOutstanding:
		return "outstanding"
	default:
		return "unknown"
	}
}

// LoopState is the only mutable state of the loop. The outstanding handle is present
// exactly when opened > canceled.
type LoopState struct {
	outstanding *adapter.OrderHandle
	opened      uint64
	canceled    uint64
	notOpen     uint64
	ticks       uint64
}

// Phase derives the phase from the handle.
func (s *LoopState) Phase() Phase {
	if s.outstanding != nil {
		return PhaseOutstanding
	}
	return PhaseIdle
}

// Outstanding returns the resting order, if any.
func (s *LoopState) Outstanding() (adapter.OrderHandle, bool) {
	if s.outstanding == nil {
		return adapter.OrderHandle{}, false
	}
	return *s.outstanding, true
}

// Opened returns how many orders were placed.
func (s *LoopState) Opened() uint64 { return s.opened }

// Canceled returns how many placed orders were closed.
func (s *LoopState) Canceled() uint64 { return s.canceled }

// Open records a successful placement.
func (s *LoopState) Open(h adapter.OrderHandle) error {
	if s.outstanding != nil {
		return errors.Wrapf(exception.ErrInvariantViolation, "open %s while %s is outstanding", h, s.outstanding)
	}
	s.outstanding = &h
	s.opened++
	return nil
}

// Close records that the outstanding order is gone. notOpen marks a close the venue
// answered with "not open" rather than a cancel acknowledgment.
func (s *LoopState) Close(notOpen bool) (adapter.OrderHandle, error) {
	if s.outstanding == nil {
		return adapter.OrderHandle{}, errors.Wrap(exception.ErrInvariantViolation, "close with no outstanding order")
	}
	h := *s.outstanding
	s.outstanding = nil
	s.canceled++
	if notOpen {
		s.notOpen++
	}
	return h, nil
}

// Check verifies the handle/counter invariant.
func (s *LoopState) Check() error {
	switch {
	case s.canceled > s.opened:
		return errors.Wrapf(exception.ErrInvariantViolation, "canceled %d > opened %d", s.canceled, s.opened)
	case s.outstanding != nil && s.opened == s.canceled:
		return errors.Wrapf(exception.ErrInvariantViolation, "handle %s held with opened == canceled == %d", s.outstanding, s.opened)
	case s.outstanding == nil && s.opened != s.canceled:
		return errors.Wrapf(exception.ErrInvariantViolation, "no handle with opened %d != canceled %d", s.opened, s.canceled)
	}
	return nil
}

// Stats is the summary a finished loop reports. ClosedNotOpen counts closes the venue
// answered with "not open". Most are fills, but a cancel whose acknowledgment was lost
// and then retried lands here too, so it is an upper bound on fills.
type Stats struct {
	Opened        uint64
	Canceled      uint64
	ClosedNotOpen uint64
	Ticks         uint64
}

func (s *LoopState) Stats() Stats {
	return Stats{
		Opened:        s.opened,
		Canceled:      s.canceled,
		ClosedNotOpen: s.notOpen,
		Ticks:         s.ticks,
	}
}

func (s Stats) String() string {
	return fmt.Sprintf("opened=%d canceled=%d closed_not_open=%d ticks=%d",
		s.Opened, s.Canceled, s.ClosedNotOpen, s.Ticks)
}
