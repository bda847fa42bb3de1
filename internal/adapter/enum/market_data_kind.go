package enum

// MarketDataSource selects where depth snapshots come from.
type MarketDataSource uint8

const (
	_market_data_source_beg MarketDataSource = iota
	MarketDataSourceREST
	MarketDataSourceStream
	_market_data_source_end
)

func (m MarketDataSource) IsAvailable() bool {
	return m > _market_data_source_beg && m < _market_data_source_end
}

func (m MarketDataSource) String() string {
	switch m {
	case MarketDataSourceREST:
		return "rest"
	case MarketDataSourceStream:
		return "stream"
	default:
		return "unknown"
	}
}

// ParseMarketDataSource maps the config spelling to a source. Empty means rest.
func ParseMarketDataSource(s string) (MarketDataSource, bool) {
	if len(s) == 0 {
		return MarketDataSourceREST, true
	}

	for src := _market_data_source_beg + 1; src.IsAvailable(); src++ {
		if src.String() == s {
			return src, true
		}
	}

	return 0, false
}
