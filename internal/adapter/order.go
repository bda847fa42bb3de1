package adapter

import (
	"strconv"

	"github.com/shopspring/decimal"
	"github.com/yanun0323/errors"

	"quotebot/internal/adapter/enum"
	"quotebot/pkg/exception"
)

// OrderHandle identifies a resting order placed by the control loop.
type OrderHandle struct {
	OrderID       uint64
	ClientOrderID string
}

func (h OrderHandle) String() string {
	if len(h.ClientOrderID) == 0 {
		return strconv.FormatUint(h.OrderID, 10)
	}

	return strconv.FormatUint(h.OrderID, 10) + "/" + h.ClientOrderID
}

// OrderIntent is what the loop asks a venue to rest.
type OrderIntent struct {
	Symbol        string
	Type          enum.OrderType
	Side          enum.OrderSide
	TimeInForce   enum.OrderTimeInForce
	Price         decimal.Decimal
	Quantity      decimal.Decimal
	ClientOrderID string
}

// NewLimitSell builds a good-till-cancel limit sell intent.
func NewLimitSell(symbol string, qty, price decimal.Decimal) OrderIntent {
	return OrderIntent{
		Symbol:      symbol,
		Type:        enum.OrderTypeLimit,
		Side:        enum.OrderSideSell,
		TimeInForce: enum.OrderTimeInForceGTC,
		Price:       price,
		Quantity:    qty,
	}
}

// Validate applies the filters every venue shares before an intent leaves the process.
func (o OrderIntent) Validate() error {
	switch {
	case len(o.Symbol) == 0:
		return errors.Wrap(exception.ErrInvalidArgument, "empty symbol")
	case !o.Side.IsAvailable(), !o.Type.IsAvailable(), !o.TimeInForce.IsAvailable():
		return errors.Wrapf(exception.ErrInvalidArgument, "%s %s %s on %s", o.Side, o.Type, o.TimeInForce, o.Symbol)
	case !o.Quantity.IsPositive():
		return errors.Wrapf(exception.ErrInvalidArgument, "quantity %s on %s must be positive", o.Quantity.String(), o.Symbol)
	case o.Type == enum.OrderTypeLimit && !o.Price.IsPositive():
		return errors.Wrapf(exception.ErrInvalidArgument, "limit price %s on %s must be positive", o.Price.String(), o.Symbol)
	}
	return nil
}
