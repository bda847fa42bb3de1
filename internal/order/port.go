package order

import (
	"context"

	"github.com/shopspring/decimal"

	"quotebot/internal/adapter"
)

// MarketData serves depth snapshots for a symbol.
type MarketData interface {
	Depth(ctx context.Context, symbol string) (adapter.Depth, error)
}

// Execution rests and cancels orders on a venue.
//
// CancelOrder returns exception.ErrOrderNotOpen when the venue no longer holds the
// order as open. The loop counts that as closed: the order filled, expired, or an
// earlier cancel went through without its answer arriving.
type Execution interface {
	LimitSell(ctx context.Context, symbol string, qty, price decimal.Decimal) (adapter.OrderHandle, error)
	CancelOrder(ctx context.Context, symbol string, orderID uint64) error
	CancelAllOpenOrders(ctx context.Context, symbol string) error
}

// Gate paces the loop. Wait returns once a tick has been consumed.
type Gate interface {
	Wait(ctx context.Context) error
}
