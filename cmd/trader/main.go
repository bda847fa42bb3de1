package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"strings"
	"time"

	pyroscope "github.com/grafana/pyroscope-go"
	"github.com/yanun0323/errors"
	"github.com/yanun0323/logs"
	"github.com/yanun0323/pkg/sys"

	"quotebot/internal/adapter/enum"
	"quotebot/internal/ingest/marketdata"
	"quotebot/internal/obs"
	"quotebot/internal/ops"
	"quotebot/internal/order"
	"quotebot/internal/order/delegator/binance"
	"quotebot/internal/order/delegator/paper"
	"quotebot/internal/ticker"
	"quotebot/pkg/exception"
)

const (
	exitOK        = 0
	exitFatal     = 1
	exitInvariant = 2
)

// confPaths collects every -c/-conf occurrence in order.
type confPaths []string

func (p *confPaths) String() string {
	return strings.Join(*p, ",")
}

func (p *confPaths) Set(v string) error {
	*p = append(*p, v)
	return nil
}

func main() {
	os.Exit(run())
}

func run() int {
	var (
		paths  confPaths
		daemon bool
		test   bool
	)
	flag.Var(&paths, "c", "Path to yaml config, repeat to merge in order")
	flag.Var(&paths, "conf", "Path to yaml config, repeat to merge in order")
	flag.BoolVar(&daemon, "d", false, "Run as daemon")
	flag.BoolVar(&daemon, "daemon", false, "Run as daemon")
	flag.BoolVar(&test, "t", false, "Paper execution, orders never reach the exchange")
	flag.BoolVar(&test, "test", false, "Paper execution, orders never reach the exchange")
	flag.Parse()

	cfg, err := ops.Load(paths, daemon)
	if err != nil {
		logs.Errorf("load config, err: %s", err)
		return exitFatal
	}

	if err := cfg.Validate(test); err != nil {
		logs.Errorf("validate config, err: %s", err)
		return exitFatal
	}

	logs.Infof("config loaded from %s, %s, test=%t", paths.String(), cfg, test)
	if cfg.SizePlaces == 0 {
		logs.Warnf("size_places is 0, quotes priced above %s round to zero size and will be rejected, raise size_places or order_size_usd",
			cfg.QuoteParams().ZeroSizeAbove().String())
	}
	if cfg.Daemon {
		logs.Info("daemon mode requested, detaching is left to the process supervisor")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		select {
		case <-sys.Shutdown():
			logs.Info("shutdown signal received, stopping loop")
			cancel()
		case <-ctx.Done():
		}
	}()

	if len(cfg.ProfilerAddr) != 0 {
		profiler, err := pyroscope.Start(pyroscope.Config{
			ApplicationName: "quotebot.trader",
			ServerAddress:   cfg.ProfilerAddr,
			Tags: map[string]string{
				"symbol": cfg.Order().Symbol,
			},
			Logger: emptyLogger{},
			ProfileTypes: []pyroscope.ProfileType{
				pyroscope.ProfileCPU,
				pyroscope.ProfileAllocObjects,
				pyroscope.ProfileAllocSpace,
				pyroscope.ProfileInuseObjects,
				pyroscope.ProfileInuseSpace,
			},
		})
		if err != nil {
			logs.Errorf("pyroscope start failed, err: %s", err)
			return exitFatal
		}
		defer func() {
			_ = profiler.Stop()
		}()
	}

	metrics := obs.NewMetrics()
	if len(cfg.MetricsAddr) != 0 {
		stop, err := serveMetrics(cfg.MetricsAddr, metrics, cfg.Order().Symbol)
		if err != nil {
			logs.Errorf("serve metrics, err: %s", err)
			return exitFatal
		}
		defer stop()
	}

	client := &http.Client{Timeout: cfg.HTTPClientTimeout()}
	rest := binance.NewDelegator(client, cfg.Binance())

	var market order.MarketData = rest
	if cfg.Source() == enum.MarketDataSourceStream {
		stream, err := marketdata.NewStream(ctx, cfg.WsURL, cfg.Order().Symbol)
		if err != nil {
			logs.Errorf("start depth stream, err: %s", err)
			return exitFatal
		}
		defer stream.Close()
		market = stream
	}

	var exec order.Execution = rest
	if test {
		exec = paper.NewDelegator()
	}

	ctrl, err := order.NewController(cfg.Order(), market, exec, ticker.New(cfg.TickInterval()), metrics)
	if err != nil {
		logs.Errorf("create controller, err: %s", err)
		return exitFatal
	}

	stats, err := ctrl.Run(ctx)
	logs.Infof("metrics: %+v", metrics.Snapshot())
	return exitCode(stats, err)
}

func exitCode(stats order.Stats, err error) int {
	switch {
	case err == nil:
		return exitOK
	case errors.Is(err, context.Canceled):
		logs.Infof("stopped by signal, %s", stats)
		return exitOK
	case errors.Is(err, exception.ErrInvariantViolation):
		return exitInvariant
	case exception.IsFatal(err):
		logs.Warn("the venue refused the quote, check price_places, size_places and order_size_usd against the symbol filters")
		return exitFatal
	default:
		return exitFatal
	}
}

func serveMetrics(addr string, metrics *obs.Metrics, symbol string) (stop func(), err error) {
	handler, err := obs.Handler(metrics, symbol)
	if err != nil {
		return nil, errors.Wrap(err, "build metrics handler")
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", handler)
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logs.Errorf("metrics server %s, err: %s", addr, err)
		}
	}()
	logs.Infof("metrics served on %s/metrics", addr)

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}, nil
}

type emptyLogger struct{}

func (emptyLogger) Infof(_ string, _ ...interface{})  {}
func (emptyLogger) Debugf(_ string, _ ...interface{}) {}
func (emptyLogger) Errorf(_ string, _ ...interface{}) {}
