package exception

import "github.com/yanun0323/errors"

var (
	ErrDepthFetch        = errors.New("market data: fetch depth")
	ErrDepthStale        = errors.New("market data: depth snapshot is stale")
	ErrInsufficientDepth = errors.New("market data: insufficient depth")
	ErrInvalidDepthRow   = errors.New("market data: invalid depth row")
)
