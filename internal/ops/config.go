package ops

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/yanun0323/errors"
	"gopkg.in/yaml.v3"

	"quotebot/internal/adapter"
	"quotebot/internal/adapter/enum"
	"quotebot/internal/order"
	"quotebot/internal/order/delegator/binance"
	"quotebot/internal/quote"
	"quotebot/pkg/exception"
)

const (
	EnvAPIKey = "QUOTEBOT_API_KEY"
	EnvAPISec = "QUOTEBOT_API_SEC"

	_baseDocument = "---\nversion: 1"
	_maxPlaces    = 16
	// venue ceilings
	_maxDepthLimit   = 5000
	_maxRecvWindowMs = 60_000
)

// Config is the resolved runtime configuration. Files are merged in order, see Load.
type Config struct {
	Version int  `yaml:"version"`
	Daemon  bool `yaml:"daemon"`

	// Interval is the tick period in seconds.
	Interval      uint64 `yaml:"interval"`
	OrderSizeUSD  uint64 `yaml:"order_size_usd"`
	MaxOrderCount uint64 `yaml:"max_order_count"`
	Symbol        string `yaml:"symbol"`
	APIKey        string `yaml:"api_key"`
	APISec        string `yaml:"api_sec"`

	BaseURL      string `yaml:"base_url"`
	WsURL        string `yaml:"ws_url"`
	MarketData   string `yaml:"market_data"`
	DepthLimit   int    `yaml:"depth_limit"`
	PricePlaces  int32  `yaml:"price_places"`
	SizePlaces   int32  `yaml:"size_places"`
	RecvWindowMs int64  `yaml:"recv_window_ms"`
	// HTTPTimeout in seconds, 0 leaves requests unbounded.
	HTTPTimeout  uint64 `yaml:"http_timeout"`
	MetricsAddr  string `yaml:"metrics_addr"`
	ProfilerAddr string `yaml:"profiler_addr"`
}

func Default() Config {
	return Config{
		Interval:      1,
		OrderSizeUSD:  10,
		MaxOrderCount: 2,
		BaseURL:       binance.DefaultBaseURL,
		MarketData:    enum.MarketDataSourceREST.String(),
		DepthLimit:    binance.DefaultDepthLimit,
		PricePlaces:   quote.DefaultPricePlaces,
		SizePlaces:    quote.DefaultSizePlaces,
		RecvWindowMs:  binance.DefaultRecvWindow.Milliseconds(),
	}
}

// Load merges the yaml files at paths on top of a `version: 1` document, applies the
// daemon flag and credential environment overrides. Mappings merge recursively,
// sequences append, scalars of later files win.
func Load(paths []string, daemon bool) (Config, error) {
	if len(paths) == 0 {
		return Config{}, exception.ErrConfigNoPath
	}

	docs := make([][]byte, 0, len(paths))
	for _, p := range paths {
		data, err := os.ReadFile(p)
		if err != nil {
			return Config{}, errors.Wrapf(exception.ErrConfigInvalid, "read %s, err: %s", p, err)
		}
		docs = append(docs, data)
	}

	cfg, err := Parse(docs...)
	if err != nil {
		return Config{}, err
	}

	if daemon {
		cfg.Daemon = true
	}

	if key := os.Getenv(EnvAPIKey); len(key) != 0 {
		cfg.APIKey = key
	}
	if sec := os.Getenv(EnvAPISec); len(sec) != 0 {
		cfg.APISec = sec
	}

	return cfg, nil
}

// Parse merges yaml documents in order and decodes the result over Default.
func Parse(docs ...[]byte) (Config, error) {
	var target any
	if err := yaml.Unmarshal([]byte(_baseDocument), &target); err != nil {
		return Config{}, errors.Wrapf(exception.ErrConfigInvalid, "base document, err: %s", err)
	}

	for i, doc := range docs {
		var val any
		if err := yaml.Unmarshal(doc, &val); err != nil {
			return Config{}, errors.Wrapf(exception.ErrConfigInvalid, "document %d, err: %s", i, err)
		}
		if val == nil {
			continue
		}
		target = merge(target, val)
	}

	merged, err := yaml.Marshal(target)
	if err != nil {
		return Config{}, errors.Wrapf(exception.ErrConfigInvalid, "encode merged, err: %s", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(merged, &cfg); err != nil {
		return Config{}, errors.Wrapf(exception.ErrConfigInvalid, "decode, err: %s", err)
	}

	return cfg, nil
}

func merge(a, b any) any {
	am, aok := a.(map[string]any)
	bm, bok := b.(map[string]any)
	if !aok || !bok {
		return b
	}

	for k, v := range bm {
		prev, exist := am[k]
		if !exist {
			am[k] = v
			continue
		}

		ps, pok := prev.([]any)
		vs, vok := v.([]any)
		if pok && vok {
			am[k] = append(ps, vs...)
			continue
		}

		am[k] = merge(prev, v)
	}

	return am
}

// Validate checks the fields the loop relies on. Credentials are only required when
// orders go to the exchange.
func (c Config) Validate(testMode bool) error {
	switch {
	case len(strings.TrimSpace(c.Symbol)) == 0:
		return errors.Wrap(exception.ErrConfigInvalid, "symbol is empty")
	case c.Interval == 0:
		return errors.Wrap(exception.ErrConfigInvalid, "interval must be > 0")
	case c.OrderSizeUSD == 0:
		return errors.Wrap(exception.ErrConfigInvalid, "order_size_usd must be > 0")
	case c.MaxOrderCount == 0:
		return errors.Wrap(exception.ErrConfigInvalid, "max_order_count must be > 0")
	case c.PricePlaces < 0 || c.PricePlaces > _maxPlaces:
		return errors.Wrapf(exception.ErrConfigInvalid, "price_places %d out of [0, %d]", c.PricePlaces, _maxPlaces)
	case c.SizePlaces < 0 || c.SizePlaces > _maxPlaces:
		return errors.Wrapf(exception.ErrConfigInvalid, "size_places %d out of [0, %d]", c.SizePlaces, _maxPlaces)
	case c.DepthLimit < 0 || c.DepthLimit > _maxDepthLimit:
		return errors.Wrapf(exception.ErrConfigInvalid, "depth_limit %d out of [0, %d]", c.DepthLimit, _maxDepthLimit)
	case c.RecvWindowMs < 0 || c.RecvWindowMs > _maxRecvWindowMs:
		return errors.Wrapf(exception.ErrConfigInvalid, "recv_window_ms %d out of [0, %d]", c.RecvWindowMs, _maxRecvWindowMs)
	}

	if _, ok := enum.ParseMarketDataSource(c.MarketData); !ok {
		return errors.Wrapf(exception.ErrConfigInvalid, "market_data %q, want rest or stream", c.MarketData)
	}

	if !testMode && (len(c.APIKey) == 0 || len(c.APISec) == 0) {
		return errors.Wrapf(exception.ErrConfigInvalid, "api_key and api_sec are required, or set %s and %s", EnvAPIKey, EnvAPISec)
	}

	return nil
}

func (c Config) TickInterval() time.Duration {
	return time.Duration(c.Interval) * time.Second
}

func (c Config) Source() enum.MarketDataSource {
	src, _ := enum.ParseMarketDataSource(c.MarketData)
	return src
}

func (c Config) Token() adapter.Token {
	return adapter.NewToken(c.APIKey, c.APISec)
}

func (c Config) QuoteParams() quote.Params {
	return quote.Params{
		OrderSizeUSD: decimal.NewFromUint64(c.OrderSizeUSD),
		PricePlaces:  c.PricePlaces,
		SizePlaces:   c.SizePlaces,
	}
}

func (c Config) Order() order.Config {
	return order.Config{
		Symbol:        strings.ToUpper(c.Symbol),
		MaxOrderCount: c.MaxOrderCount,
		Quote:         c.QuoteParams(),
	}
}

func (c Config) Binance() binance.Config {
	return binance.Config{
		BaseURL:    c.BaseURL,
		Token:      c.Token(),
		RecvWindow: time.Duration(c.RecvWindowMs) * time.Millisecond,
		DepthLimit: c.DepthLimit,
	}
}

func (c Config) HTTPClientTimeout() time.Duration {
	return time.Duration(c.HTTPTimeout) * time.Second
}

// String never prints the secret.
func (c Config) String() string {
	return fmt.Sprintf("symbol=%s interval=%ds order_size_usd=%d max_order_count=%d market_data=%s daemon=%t token=%s",
		c.Symbol, c.Interval, c.OrderSizeUSD, c.MaxOrderCount, c.MarketData, c.Daemon, c.Token())
}
