package obs

import (
	"sync/atomic"
	"time"
)

// Counter names one control loop event.
type Counter uint8

const (
	CounterTick Counter = iota
	CounterOpened
	CounterCanceled
	CounterClosedNotOpen
	CounterDepthFailure
	CounterInsufficientDepth
	CounterCancelFailure
	CounterPlaceFailure
	CounterSweep
	CounterSweepFailure
	_counter_end
)

var counterNames = [_counter_end]string{
	CounterTick:              "tick",
	CounterOpened:            "opened",
	CounterCanceled:          "canceled",
	CounterClosedNotOpen:     "closed_not_open",
	CounterDepthFailure:      "depth_failure",
	CounterInsufficientDepth: "insufficient_depth",
	CounterCancelFailure:     "cancel_failure",
	CounterPlaceFailure:      "place_failure",
	CounterSweep:             "sweep",
	CounterSweepFailure:      "sweep_failure",
}

func (c Counter) String() string {
	if c >= _counter_end {
		return "unknown"
	}
	return counterNames[c]
}

// Call names one port call whose latency is tracked.
type Call uint8

const (
	CallDepth Call = iota
	CallLimitSell
	CallCancel
	CallCancelAll
	_call_end
)

var callNames = [_call_end]string{
	CallDepth:     "depth",
	CallLimitSell: "limit_sell",
	CallCancel:    "cancel_order",
	CallCancelAll: "cancel_all_open_orders",
}

func (c Call) String() string {
	if c >= _call_end {
		return "unknown"
	}
	return callNames[c]
}

// Metrics collects lightweight counters and latency stats.
type Metrics struct {
	counters [_counter_end]uint64
	calls    [_call_end]LatencyStats
}

// LatencyStats aggregates duration samples in nanoseconds.
type LatencyStats struct {
	count uint64
	sum   uint64
	min   uint64
	max   uint64
}

// LatencySnapshot is a point-in-time view of latency stats.
type LatencySnapshot struct {
	Count uint64
	Sum   time.Duration
	Min   time.Duration
	Max   time.Duration
	Avg   time.Duration
}

// Snapshot captures the current metrics values.
type Snapshot struct {
	Counters map[Counter]uint64
	Calls    map[Call]LatencySnapshot
}

// NewMetrics allocates a metrics container.
func NewMetrics() *Metrics {
	return &Metrics{}
}

// Inc increments counter c. A nil receiver is a no-op.
func (m *Metrics) Inc(c Counter) {
	if m == nil || c >= _counter_end {
		return
	}
	atomic.AddUint64(&m.counters[c], 1)
}

// Count returns the current value of counter c.
func (m *Metrics) Count(c Counter) uint64 {
	if m == nil || c >= _counter_end {
		return 0
	}
	return atomic.LoadUint64(&m.counters[c])
}

// ObserveCall records the latency of a port call.
func (m *Metrics) ObserveCall(c Call, d time.Duration) {
	if m == nil || c >= _call_end {
		return
	}
	m.calls[c].Observe(d)
}

// Since is a helper for `defer m.Since(obs.CallDepth, time.Now())`.
func (m *Metrics) Since(c Call, start time.Time) {
	m.ObserveCall(c, time.Since(start))
}

// Snapshot returns a copy of the current metrics values.
func (m *Metrics) Snapshot() Snapshot {
	if m == nil {
		return Snapshot{}
	}
	counters := make(map[Counter]uint64, _counter_end)
	for i := range m.counters {
		counters[Counter(i)] = atomic.LoadUint64(&m.counters[i])
	}
	calls := make(map[Call]LatencySnapshot, _call_end)
	for i := range m.calls {
		calls[Call(i)] = m.calls[i].Snapshot()
	}
	return Snapshot{
		Counters: counters,
		Calls:    calls,
	}
}

// Observe records a duration sample.
func (l *LatencyStats) Observe(d time.Duration) {
	if d < 0 {
		return
	}
	nanos := uint64(d)
	atomic.AddUint64(&l.count, 1)
	atomic.AddUint64(&l.sum, nanos)

	for {
		min := atomic.LoadUint64(&l.min)
		if min != 0 && nanos >= min {
			break
		}
		if atomic.CompareAndSwapUint64(&l.min, min, nanos) {
			break
		}
	}

	for {
		max := atomic.LoadUint64(&l.max)
		if nanos <= max {
			break
		}
		if atomic.CompareAndSwapUint64(&l.max, max, nanos) {
			break
		}
	}
}

// Snapshot returns the aggregated latency stats.
func (l *LatencyStats) Snapshot() LatencySnapshot {
	count := atomic.LoadUint64(&l.count)
	if count == 0 {
		return LatencySnapshot{}
	}
	sum := atomic.LoadUint64(&l.sum)
	return LatencySnapshot{
		Count: count,
		Sum:   time.Duration(sum),
		Min:   time.Duration(atomic.LoadUint64(&l.min)),
		Max:   time.Duration(atomic.LoadUint64(&l.max)),
		Avg:   time.Duration(sum / count),
	}
}
