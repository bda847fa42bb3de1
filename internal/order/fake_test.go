package order

import (
	"context"
	"fmt"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"github.com/yanun0323/errors"

	"quotebot/internal/adapter"
	"quotebot/pkg/exception"
)

var errTickBudget = errors.New("tick budget exhausted")

type fakeMarket struct {
	depth adapter.Depth
	errs  []error // consumed one per call; nil entries succeed
	calls int
}

func (m *fakeMarket) Depth(_ context.Context, symbol string) (adapter.Depth, error) {
	m.calls++
	if len(m.errs) != 0 {
		err := m.errs[0]
		m.errs = m.errs[1:]
		if err != nil {
			return adapter.Depth{}, err
		}
	}
	d := m.depth
	d.Symbol = symbol
	return d, nil
}

type placed struct {
	Qty   decimal.Decimal
	Price decimal.Decimal
}

type fakeExec struct {
	nextID     uint64
	placeErrs  []error
	cancelErrs []error
	sweepErr   error

	log      []string
	placed   []placed
	canceled []uint64
}

func (e *fakeExec) LimitSell(_ context.Context, symbol string, qty, price decimal.Decimal) (adapter.OrderHandle, error) {
	e.log = append(e.log, "sell")
	if len(e.placeErrs) != 0 {
		err := e.placeErrs[0]
		e.placeErrs = e.placeErrs[1:]
		if err != nil {
			return adapter.OrderHandle{}, err
		}
	}
	e.nextID++
	e.placed = append(e.placed, placed{Qty: qty, Price: price})
	return adapter.OrderHandle{OrderID: e.nextID, ClientOrderID: fmt.Sprintf("%s-%d", symbol, e.nextID)}, nil
}

func (e *fakeExec) CancelOrder(_ context.Context, _ string, orderID uint64) error {
	e.log = append(e.log, fmt.Sprintf("cancel:%d", orderID))
	e.canceled = append(e.canceled, orderID)
	if len(e.cancelErrs) != 0 {
		err := e.cancelErrs[0]
		e.cancelErrs = e.cancelErrs[1:]
		return err
	}
	return nil
}

func (e *fakeExec) CancelAllOpenOrders(context.Context, string) error {
	e.log = append(e.log, "sweep")
	return e.sweepErr
}

// fakeGate fires immediately and lets a test observe the loop state at every tick
// boundary, before the tick's action runs.
type fakeGate struct {
	budget  int
	waits   int
	observe func(s LoopState)
	c       *Controller
}

func (g *fakeGate) Wait(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if g.waits >= g.budget {
		return errTickBudget
	}
	g.waits++
	if g.observe != nil && g.c != nil {
		g.observe(g.c.state)
	}
	return nil
}

func depthWithAsks(t *testing.T, asks ...string) adapter.Depth {
	t.Helper()
	var d adapter.Depth
	for _, p := range asks {
		row, err := adapter.NewDepthRow(p, "1")
		require.NoError(t, err)
		d.Asks = append(d.Asks, row)
	}
	return d
}

var errTransport = errors.Wrap(exception.ErrOrderTransport, "connection reset")
