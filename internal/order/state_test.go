package order

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yanun0323/errors"

	"quotebot/internal/adapter"
	"quotebot/pkg/exception"
)

func TestLoopStateTransitions(t *testing.T) {
	var s LoopState
	require.NoError(t, s.Check())
	assert.Equal(t, PhaseIdle, s.Phase())

	require.NoError(t, s.Open(adapter.OrderHandle{OrderID: 9}))
	assert.Equal(t, PhaseOutstanding, s.Phase())
	require.NoError(t, s.Check())

	h, ok := s.Outstanding()
	require.True(t, ok)
	assert.Equal(t, uint64(9), h.OrderID)

	closed, err := s.Close(false)
	require.NoError(t, err)
	assert.Equal(t, uint64(9), closed.OrderID)
	assert.Equal(t, PhaseIdle, s.Phase())
	require.NoError(t, s.Check())
	assert.Equal(t, Stats{Opened: 1, Canceled: 1}, s.Stats())
}

func TestLoopStateInvariantViolations(t *testing.T) {
	var s LoopState
	_, err := s.Close(false)
	assert.True(t, errors.Is(err, exception.ErrInvariantViolation), "cancel with no outstanding handle")

	require.NoError(t, s.Open(adapter.OrderHandle{OrderID: 1}))
	assert.True(t, errors.Is(s.Open(adapter.OrderHandle{OrderID: 2}), exception.ErrInvariantViolation))

	broken := LoopState{opened: 1}
	assert.True(t, errors.Is(broken.Check(), exception.ErrInvariantViolation))

	broken = LoopState{outstanding: &adapter.OrderHandle{OrderID: 3}}
	assert.True(t, errors.Is(broken.Check(), exception.ErrInvariantViolation))

	broken = LoopState{canceled: 1}
	assert.True(t, errors.Is(broken.Check(), exception.ErrInvariantViolation))
}

func TestPhaseString(t *testing.T) {
	assert.Equal(t, "idle", PhaseIdle.String())
	assert.Equal(t, "outstanding", PhaseOutstanding.String())
	assert.Equal(t, "unknown", Phase(7).String())
}
