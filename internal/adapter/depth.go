package adapter

import (
	"strconv"

	"github.com/shopspring/decimal"
)

// Depth is a point-in-time view of resting interest, both sides sorted best to worst.
type Depth struct {
	Symbol      string
	EventTsNano int64
	RecvTsNano  int64
	Bids        []DepthRow
	Asks        []DepthRow
}

type DepthRow struct {
	Price    decimal.Decimal
	Quantity decimal.Decimal
}

// NewDepthRow parses a venue row given as decimal strings.
func NewDepthRow(price, quantity string) (DepthRow, error) {
	p, err := decimal.NewFromString(price)
	if err != nil {
		return DepthRow{}, err
	}

	q, err := decimal.NewFromString(quantity)
	if err != nil {
		return DepthRow{}, err
	}

	return DepthRow{Price: p, Quantity: q}, nil
}

// Debug returns a human readable format string
func (d Depth) Debug() string {
	appendDepthSide := func(buf []byte, rows []DepthRow, limit int) []byte {
		buf = append(buf, '[')
		for i, row := range rows {
			if i >= limit {
				buf = append(buf, ",..."...)
				break
			}
			if i > 0 {
				buf = append(buf, ',')
			}
			buf = append(buf, '(')
			buf = append(buf, row.Price.String()...)
			buf = append(buf, ',')
			buf = append(buf, row.Quantity.String()...)
			buf = append(buf, ')')
		}
		buf = append(buf, ']')
		return buf
	}

	buf := make([]byte, 0, 256)
	buf = append(buf, "Depth{symbol="...)
	buf = append(buf, d.Symbol...)
	buf = append(buf, " event_ts="...)
	buf = strconv.AppendInt(buf, d.EventTsNano, 10)
	buf = append(buf, " recv_ts="...)
	buf = strconv.AppendInt(buf, d.RecvTsNano, 10)
	buf = append(buf, " bids="...)
	buf = appendDepthSide(buf, d.Bids, 5)
	buf = append(buf, " asks="...)
	buf = appendDepthSide(buf, d.Asks, 5)
	buf = append(buf, '}')
	return string(buf)
}
