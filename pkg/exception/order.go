package exception

import "github.com/yanun0323/errors"

var (
	ErrOrderPlacement       = errors.New("order: placement failed")
	ErrOrderRejected        = errors.New("order: rejected by venue")
	ErrOrderTransport       = errors.New("order: transport failure")
	ErrOrderNotOpen         = errors.New("order: not open on venue")
	ErrOrderCancel          = errors.New("order: cancel failed")
	ErrOrderMissingAPIKey   = errors.New("order: missing api key")
	ErrOrderDecodeResponse  = errors.New("order: decode response body")
	ErrOrderEmptyResponseID = errors.New("order: empty response order id")
)
