// Package quote turns a depth snapshot into the single limit sell the control loop rests.
//
// Price and size are rounded half away from zero (decimal.Round). Exchanges reject
// prices off their tick grid, so the places are configured per symbol.
package quote

import (
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/yanun0323/errors"

	"quotebot/internal/adapter"
	"quotebot/pkg/exception"
)

const (
	// AverageLevels is how many levels per side enter the average.
	AverageLevels = 10

	DefaultPricePlaces int32 = 3
	DefaultSizePlaces  int32 = 0

	divisionPlaces int32 = 16
)

// Markup applied to the ask average.
var Markup = decimal.RequireFromString("1.2")

// Params are the sizing knobs taken from configuration.
type Params struct {
	OrderSizeUSD decimal.Decimal
	PricePlaces  int32
	SizePlaces   int32
}

// NewParams builds Params with the default rounding places.
func NewParams(orderSizeUSD uint64) Params {
	return Params{
		OrderSizeUSD: decimal.NewFromUint64(orderSizeUSD),
		PricePlaces:  DefaultPricePlaces,
		SizePlaces:   DefaultSizePlaces,
	}
}

// ZeroSizeAbove is the price past which the size rounds to zero. Quotes above it
// carry no quantity and the venue refuses them.
func (p Params) ZeroSizeAbove() decimal.Decimal {
	return p.OrderSizeUSD.Mul(decimal.NewFromInt(2)).Shift(p.SizePlaces)
}

// Quote is the target order derived from one snapshot.
type Quote struct {
	Price  decimal.Decimal
	Size   decimal.Decimal
	AskAvg decimal.Decimal
	BidAvg decimal.Decimal
}

func (q Quote) String() string {
	return fmt.Sprintf("price=%s size=%s ask_avg10=%s bid_avg10=%s",
		q.Price.String(), q.Size.String(), q.AskAvg.String(), q.BidAvg.String())
}

// Derive computes the quote for d. It fails with exception.ErrInsufficientDepth when
// the ask side is empty or averages to a non-positive price.
func Derive(d adapter.Depth, p Params) (Quote, error) {
	if len(d.Asks) == 0 {
		return Quote{}, errors.Wrapf(exception.ErrInsufficientDepth, "no ask levels for %s", d.Symbol)
	}

	askAvg := Average(d.Asks, AverageLevels)
	if !askAvg.IsPositive() {
		return Quote{}, errors.Wrapf(exception.ErrInsufficientDepth, "ask average %s for %s", askAvg.String(), d.Symbol)
	}

	price := askAvg.Mul(Markup).Round(p.PricePlaces)
	if !price.IsPositive() {
		return Quote{}, errors.Wrapf(exception.ErrInsufficientDepth, "price rounds to %s for %s", price.String(), d.Symbol)
	}

	size := p.OrderSizeUSD.DivRound(price, divisionPlaces).Round(p.SizePlaces)

	return Quote{
		Price:  price,
		Size:   size,
		AskAvg: askAvg,
		BidAvg: Average(d.Bids, AverageLevels),
	}, nil
}

// Average is the arithmetic mean price of the first min(levels, len(rows)) rows.
// It returns zero for an empty side.
func Average(rows []adapter.DepthRow, levels int) decimal.Decimal {
	n := min(levels, len(rows))
	if n <= 0 {
		return decimal.Zero
	}

	sum := decimal.Zero
	for _, row := range rows[:n] {
		sum = sum.Add(row.Price)
	}

	return sum.DivRound(decimal.NewFromInt(int64(n)), divisionPlaces)
}
