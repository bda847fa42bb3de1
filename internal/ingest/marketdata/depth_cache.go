package marketdata

import (
	"context"
	"sync"
	"time"

	"github.com/yanun0323/errors"
	"github.com/yanun0323/logs"

	"quotebot/internal/adapter"
	"quotebot/pkg/exception"
)

// DefaultMaxAge is how old a cached snapshot may get before it is refused.
const DefaultMaxAge = 5 * time.Second

// DepthCache keeps the latest streamed snapshot of one symbol and serves it as a
// market data port. Snapshots are immutable once stored.
type DepthCache struct {
	symbol string
	maxAge time.Duration
	now    func() time.Time

	mu     sync.RWMutex
	latest adapter.Depth
	ok     bool
}

func NewDepthCache(symbol string, maxAge time.Duration) *DepthCache {
	if maxAge <= 0 {
		maxAge = DefaultMaxAge
	}

	return &DepthCache{
		symbol: symbol,
		maxAge: maxAge,
		now:    time.Now,
	}
}

// Update converts a stream payload and replaces the cached snapshot.
func (c *DepthCache) Update(d BinancePartialBookDepth) error {
	depth := adapter.Depth{
		Symbol:      c.symbol,
		EventTsNano: c.now().UnixNano(),
		RecvTsNano:  c.now().UnixNano(),
		Bids:        make([]adapter.DepthRow, 0, len(d.Bids)),
		Asks:        make([]adapter.DepthRow, 0, len(d.Asks)),
	}

	for i, r := range d.Bids {
		row, err := adapter.NewDepthRow(r[0], r[1])
		if err != nil {
			return errors.Wrapf(exception.ErrInvalidDepthRow, "bid %d, err: %s", i, err)
		}
		depth.Bids = append(depth.Bids, row)
	}

	for i, r := range d.Asks {
		row, err := adapter.NewDepthRow(r[0], r[1])
		if err != nil {
			return errors.Wrapf(exception.ErrInvalidDepthRow, "ask %d, err: %s", i, err)
		}
		depth.Asks = append(depth.Asks, row)
	}

	c.mu.Lock()
	c.latest = depth
	c.ok = true
	c.mu.Unlock()
	return nil
}

// Depth returns the cached snapshot of symbol.
func (c *DepthCache) Depth(_ context.Context, symbol string) (adapter.Depth, error) {
	if symbol != c.symbol {
		return adapter.Depth{}, errors.Wrapf(exception.ErrDepthFetch, "cache holds %s, asked for %s", c.symbol, symbol)
	}

	c.mu.RLock()
	depth, ok := c.latest, c.ok
	c.mu.RUnlock()

	if !ok {
		return adapter.Depth{}, errors.Wrapf(exception.ErrDepthFetch, "no snapshot of %s yet", symbol)
	}

	if age := c.now().Sub(time.Unix(0, depth.RecvTsNano)); age > c.maxAge {
		return adapter.Depth{}, errors.Wrapf(exception.ErrDepthStale, "%s snapshot is %s old", symbol, age).With("max_age", c.maxAge)
	}

	return depth, nil
}

// Stream feeds a DepthCache from the partial book depth websocket.
type Stream struct {
	*DepthCache

	pub         *BinancePub
	unsubscribe func()
}

// NewStream connects, subscribes to symbol and starts filling the cache.
func NewStream(ctx context.Context, url, symbol string) (*Stream, error) {
	pub := NewBinancePub(ctx, url)
	if err := pub.StartWebsocket(ctx); err != nil {
		return nil, errors.Wrapf(exception.ErrDepthFetch, "start stream, err: %s", err)
	}

	cache := NewDepthCache(symbol, DefaultMaxAge)
	unsubscribe := pub.ObservePartialBookDepth(ctx, func(d BinancePartialBookDepth) {
		if err := cache.Update(d); err != nil {
			logs.Errorf("update depth cache %s, err: %s", symbol, err)
		}
	})

	if err := pub.SubscribePartialBookDepth(ctx, symbol); err != nil {
		unsubscribe()
		pub.Close()
		return nil, errors.Wrapf(exception.ErrDepthFetch, "subscribe %s, err: %s", symbol, err)
	}

	logs.Infof("depth stream %s subscribed", PartialBookDepthStream(symbol))
	return &Stream{
		DepthCache:  cache,
		pub:         pub,
		unsubscribe: unsubscribe,
	}, nil
}

func (s *Stream) Close() {
	s.unsubscribe()
	s.pub.Close()
}
