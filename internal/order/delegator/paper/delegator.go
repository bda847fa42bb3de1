// Package paper rests orders in memory. It stands in for a venue on test runs and
// applies the one filter every venue has: price and quantity must be positive.
package paper

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/yanun0323/errors"
	"github.com/yanun0323/logs"

	"quotebot/internal/adapter"
	"quotebot/pkg/exception"
)

type Delegator struct {
	mu     sync.Mutex
	nextID uint64
	open   map[uint64]adapter.OrderIntent
}

func NewDelegator() *Delegator {
	return &Delegator{open: make(map[uint64]adapter.OrderIntent)}
}

func (d *Delegator) LimitSell(_ context.Context, symbol string, qty, price decimal.Decimal) (adapter.OrderHandle, error) {
	intent := adapter.NewLimitSell(symbol, qty, price)
	if err := intent.Validate(); err != nil {
		return adapter.OrderHandle{}, errors.Wrapf(exception.ErrOrderRejected, "paper, err: %s", err)
	}
	intent.ClientOrderID = uuid.NewString()

	d.mu.Lock()
	d.nextID++
	id := d.nextID
	d.open[id] = intent
	d.mu.Unlock()

	logs.Infof("paper: rest %s %s %s qty=%s price=%s id=%d",
		intent.Side, intent.Type, symbol, qty.String(), price.String(), id)
	return adapter.OrderHandle{OrderID: id, ClientOrderID: intent.ClientOrderID}, nil
}

func (d *Delegator) CancelOrder(_ context.Context, symbol string, orderID uint64) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	intent, ok := d.open[orderID]
	if !ok || intent.Symbol != symbol {
		return errors.Wrapf(exception.ErrOrderNotOpen, "paper order %d on %s", orderID, symbol)
	}
	delete(d.open, orderID)
	return nil
}

func (d *Delegator) CancelAllOpenOrders(_ context.Context, symbol string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	for id, intent := range d.open {
		if intent.Symbol == symbol {
			delete(d.open, id)
		}
	}
	return nil
}

// Fill removes an open order as if it traded, so the next cancel reports it gone.
func (d *Delegator) Fill(orderID uint64) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.open[orderID]; !ok {
		return false
	}
	delete(d.open, orderID)
	return true
}

// OpenOrders returns how many orders rest on symbol.
func (d *Delegator) OpenOrders(symbol string) int {
	d.mu.Lock()
	defer d.mu.Unlock()

	n := 0
	for _, intent := range d.open {
		if intent.Symbol == symbol {
			n++
		}
	}
	return n
}
