package obs

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "quotebot"

// Collector exposes a Metrics container to Prometheus. Values are read at scrape
// time so the control loop never touches the registry.
type Collector struct {
	metrics *Metrics
	symbol  string

	events       *prometheus.Desc
	callCount    *prometheus.Desc
	callSeconds  *prometheus.Desc
	callMaxNanos *prometheus.Desc
}

var _ prometheus.Collector = (*Collector)(nil)

// NewCollector binds m to a Prometheus collector labelled with symbol.
func NewCollector(m *Metrics, symbol string) *Collector {
	constLabels := prometheus.Labels{"symbol": symbol}
	return &Collector{
		metrics: m,
		symbol:  symbol,
		events: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "loop", "events_total"),
			"Control loop events by kind.",
			[]string{"event"}, constLabels,
		),
		callCount: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "port", "calls_total"),
			"Port calls issued by the control loop.",
			[]string{"call"}, constLabels,
		),
		callSeconds: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "port", "call_seconds_total"),
			"Cumulative time spent in port calls.",
			[]string{"call"}, constLabels,
		),
		callMaxNanos: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "port", "call_max_seconds"),
			"Slowest observed port call.",
			[]string{"call"}, constLabels,
		),
	}
}

func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.events
	ch <- c.callCount
	ch <- c.callSeconds
	ch <- c.callMaxNanos
}

func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	snapshot := c.metrics.Snapshot()
	for counter, v := range snapshot.Counters {
		ch <- prometheus.MustNewConstMetric(c.events, prometheus.CounterValue, float64(v), counter.String())
	}
	for call, l := range snapshot.Calls {
		ch <- prometheus.MustNewConstMetric(c.callCount, prometheus.CounterValue, float64(l.Count), call.String())
		ch <- prometheus.MustNewConstMetric(c.callSeconds, prometheus.CounterValue, l.Sum.Seconds(), call.String())
		ch <- prometheus.MustNewConstMetric(c.callMaxNanos, prometheus.GaugeValue, l.Max.Seconds(), call.String())
	}
}

// Handler registers m on a fresh registry and returns the scrape handler.
func Handler(m *Metrics, symbol string) (http.Handler, error) {
	reg := prometheus.NewRegistry()
	if err := reg.Register(NewCollector(m, symbol)); err != nil {
		return nil, err
	}
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{}), nil
}
