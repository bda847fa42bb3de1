package binance

import (
	"net/http"

	"github.com/yanun0323/errors"

	"quotebot/pkg/exception"
)

const (
	codeUnknownOrder = -2011
)

// ResponseError is the venue's error body.
type ResponseError struct {
	Code    int    `json:"code"`
	Message string `json:"msg"`
}

type ResponseDepth struct {
	LastUpdateID int64       `json:"lastUpdateId"`
	Bids         [][2]string `json:"bids"` // [0]price [1]quantity
	Asks         [][2]string `json:"asks"` // [0]price [1]quantity
}

type ResponsePlaceOrder struct {
	Symbol        string `json:"symbol"`
	OrderID       int64  `json:"orderId"`
	ClientOrderID string `json:"clientOrderId"`
	TransactTime  int64  `json:"transactTime"`
	Price         string `json:"price"`
	OrigQty       string `json:"origQty"`
	Status        string `json:"status"`
	TimeInForce   string `json:"timeInForce"`
	Type          string `json:"type"`
	Side          string `json:"side"`
}

// classify maps a non-2xx answer onto the exception taxonomy.
func classify(status int, body ResponseError) error {
	switch {
	case status >= http.StatusInternalServerError, status == http.StatusTooManyRequests, status == 418:
		return errors.Wrapf(exception.ErrOrderTransport, "status=%d code=%d msg=%s", status, body.Code, body.Message)
	case body.Code == codeUnknownOrder:
		return errors.Wrapf(exception.ErrOrderNotOpen, "code=%d msg=%s", body.Code, body.Message)
	default:
		return errors.Wrapf(exception.ErrOrderRejected, "status=%d code=%d msg=%s", status, body.Code, body.Message)
	}
}
