package order

import (
	"context"
	"time"

	"github.com/yanun0323/errors"
	"github.com/yanun0323/logs"

	"quotebot/internal/obs"
	"quotebot/internal/quote"
	"quotebot/pkg/exception"
)

// Config is the slice of the resolved configuration the loop reads.
type Config struct {
	Symbol        string
	MaxOrderCount uint64
	Quote         quote.Params
}

// Controller runs the open/cancel cycle for one symbol with at most one resting order.
// It is not safe for concurrent use; Run owns all loop state.
type Controller struct {
	cfg     Config
	market  MarketData
	exec    Execution
	gate    Gate
	metrics *obs.Metrics

	state LoopState
}

// NewController wires the loop to its ports. metrics may be nil.
func NewController(cfg Config, market MarketData, exec Execution, gate Gate, metrics *obs.Metrics) (*Controller, error) {
	if market == nil || exec == nil || gate == nil {
		return nil, errors.Wrap(exception.ErrNilInstance, "controller needs market data, execution and gate")
	}
	if len(cfg.Symbol) == 0 {
		return nil, errors.Wrap(exception.ErrInvalidArgument, "empty symbol")
	}

	return &Controller{
		cfg:     cfg,
		market:  market,
		exec:    exec,
		gate:    gate,
		metrics: metrics,
	}, nil
}

// Run sweeps open orders, cycles until MaxOrderCount orders were placed and closed,
// then sweeps again. The exit sweep runs on every return path.
//
// Run returns nil on normal termination, an error wrapping exception.ErrOrderPlacement
// when the venue refuses an order, exception.ErrInvariantViolation on a state bug, or
// the context error when ctx ends first.
func (c *Controller) Run(ctx context.Context) (Stats, error) {
	c.state = LoopState{}

	c.sweep(ctx, "entry")
	err := c.loop(ctx)

	sweepCtx := ctx
	if ctx.Err() != nil {
		sweepCtx = context.WithoutCancel(ctx)
	}
	c.sweep(sweepCtx, "exit")

	stats := c.state.Stats()
	if err != nil {
		logs.Errorf("loop %s aborted, %s, err: %s", c.cfg.Symbol, stats, err)
		return stats, err
	}

	logs.Infof("loop %s finished, %s", c.cfg.Symbol, stats)
	return stats, nil
}

func (c *Controller) loop(ctx context.Context) error {
	for {
		if c.state.Canceled() >= c.cfg.MaxOrderCount {
			return nil
		}

		if c.state.Phase() == PhaseIdle && c.state.Opened() >= c.cfg.MaxOrderCount {
			// no open is allowed and nothing is left to cancel
			return nil
		}

		if err := c.gate.Wait(ctx); err != nil {
			return err
		}
		c.state.ticks++
		c.metrics.Inc(obs.CounterTick)

		if err := c.step(ctx); err != nil {
			return err
		}

		if err := c.state.Check(); err != nil {
			return err
		}
	}
}

func (c *Controller) step(ctx context.Context) error {
	switch c.state.Phase() {
	case PhaseOutstanding:
		return c.cancel(ctx)
	default:
		return c.open(ctx)
	}
}

func (c *Controller) cancel(ctx context.Context) error {
	handle, _ := c.state.Outstanding()

	start := time.Now()
	err := c.exec.CancelOrder(ctx, c.cfg.Symbol, handle.OrderID)
	c.metrics.Since(obs.CallCancel, start)

	notOpen := false
	switch {
	case err == nil:
	case errors.Is(err, exception.ErrOrderNotOpen):
		notOpen = true
	default:
		c.metrics.Inc(obs.CounterCancelFailure)
		logSkip(err, "cancel order %s on %s failed, retry next tick", handle, c.cfg.Symbol)
		return nil
	}

	if _, err := c.state.Close(notOpen); err != nil {
		return err
	}

	if notOpen {
		// filled, expired, or canceled by an earlier attempt whose answer was lost
		c.metrics.Inc(obs.CounterClosedNotOpen)
		logs.Infof("order %s on %s no longer open, counted as closed, opened=%d canceled=%d",
			handle, c.cfg.Symbol, c.state.Opened(), c.state.Canceled())
	} else {
		logs.Infof("order %s on %s canceled, opened=%d canceled=%d",
			handle, c.cfg.Symbol, c.state.Opened(), c.state.Canceled())
	}
	c.metrics.Inc(obs.CounterCanceled)
	return nil
}

func (c *Controller) open(ctx context.Context) error {
	start := time.Now()
	depth, err := c.market.Depth(ctx, c.cfg.Symbol)
	c.metrics.Since(obs.CallDepth, start)
	if err != nil {
		c.metrics.Inc(obs.CounterDepthFailure)
		logSkip(err, "get depth %s failed, skip tick", c.cfg.Symbol)
		return nil
	}

	q, err := quote.Derive(depth, c.cfg.Quote)
	if err != nil {
		c.metrics.Inc(obs.CounterInsufficientDepth)
		logSkip(err, "derive quote from %s failed, skip tick", depth.Debug())
		return nil
	}

	start = time.Now()
	handle, err := c.exec.LimitSell(ctx, c.cfg.Symbol, q.Size, q.Price)
	c.metrics.Since(obs.CallLimitSell, start)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		c.metrics.Inc(obs.CounterPlaceFailure)
		return errors.Wrapf(exception.ErrOrderPlacement, "limit sell %s %s, err: %s", c.cfg.Symbol, q, err)
	}

	if err := c.state.Open(handle); err != nil {
		return err
	}
	c.metrics.Inc(obs.CounterOpened)
	logs.Infof("order %s on %s placed, %s, opened=%d canceled=%d",
		handle, c.cfg.Symbol, q, c.state.Opened(), c.state.Canceled())
	return nil
}

func (c *Controller) sweep(ctx context.Context, when string) {
	start := time.Now()
	err := c.exec.CancelAllOpenOrders(ctx, c.cfg.Symbol)
	c.metrics.Since(obs.CallCancelAll, start)
	c.metrics.Inc(obs.CounterSweep)
	if err != nil {
		c.metrics.Inc(obs.CounterSweepFailure)
		logs.Warnf("%s sweep of %s failed, err: %s", when, c.cfg.Symbol, err)
		return
	}
	logs.Infof("%s sweep of %s done", when, c.cfg.Symbol)
}

// logSkip logs an absorbed failure, at error level when it is outside the transient class.
func logSkip(err error, format string, args ...any) {
	args = append(args, err)
	if exception.IsTransient(err) {
		logs.Warnf(format+", err: %s", args...)
		return
	}
	logs.Errorf(format+", err: %s", args...)
}
