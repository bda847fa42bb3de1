package binance

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yanun0323/errors"

	"quotebot/internal/adapter"
	"quotebot/pkg/exception"
)

const (
	testKey    = "test-api-key"
	testSecret = "test-api-secret"
)

// verifySignature checks the signature over everything before "&signature=".
func verifySignature(t *testing.T, r *http.Request) {
	t.Helper()
	raw := r.URL.RawQuery
	idx := strings.LastIndex(raw, "&signature=")
	require.GreaterOrEqual(t, idx, 0, "signed request carries a signature")
	assert.Equal(t, sign(testSecret, raw[:idx]), raw[idx+len("&signature="):])
	assert.Equal(t, testKey, r.Header.Get(_headerAPIKey))
	assert.NotEmpty(t, r.URL.Query().Get("timestamp"))
	assert.Equal(t, "5000", r.URL.Query().Get("recvWindow"))
}

func newTestDelegator(t *testing.T, h http.HandlerFunc) *Delegator {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	d := NewDelegator(srv.Client(), Config{
		BaseURL: srv.URL,
		Token:   adapter.NewToken(testKey, testSecret),
	})
	d.now = func() time.Time { return time.UnixMilli(1_700_000_000_000) }
	return d
}

func TestDelegatorDepth(t *testing.T) {
	d := newTestDelegator(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, _pathDepth, r.URL.Path)
		assert.Equal(t, "BNBUSDT", r.URL.Query().Get("symbol"))
		assert.Equal(t, "20", r.URL.Query().Get("limit"))
		assert.Empty(t, r.Header.Get(_headerAPIKey), "depth is a public endpoint")
		_, _ = w.Write([]byte(`{"lastUpdateId":1027024,"bids":[["4.00000000","431.00000000"]],"asks":[["4.00000200","12.00000000"],["4.10000000","3.5"]]}`))
	})

	depth, err := d.Depth(t.Context(), "BNBUSDT")
	require.NoError(t, err)
	assert.Equal(t, "BNBUSDT", depth.Symbol)
	require.Len(t, depth.Bids, 1)
	require.Len(t, depth.Asks, 2)
	assert.True(t, depth.Asks[0].Price.Equal(decimal.RequireFromString("4.000002")))
	assert.True(t, depth.Bids[0].Quantity.Equal(decimal.NewFromInt(431)))
}

func TestDelegatorDepthErrors(t *testing.T) {
	d := newTestDelegator(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"code":-1121,"msg":"Invalid symbol."}`))
	})
	_, err := d.Depth(t.Context(), "NOPE")
	assert.True(t, errors.Is(err, exception.ErrDepthFetch))
	assert.Contains(t, err.Error(), "Invalid symbol.")

	d = newTestDelegator(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"lastUpdateId":1,"bids":[],"asks":[["x","1"]]}`))
	})
	_, err = d.Depth(t.Context(), "BNBUSDT")
	assert.True(t, errors.Is(err, exception.ErrDepthFetch))
	assert.Contains(t, err.Error(), exception.ErrInvalidDepthRow.Error())
	assert.NotContains(t, err.Error(), "\n")
}

func TestDelegatorLimitSell(t *testing.T) {
	d := newTestDelegator(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, _pathOrder, r.URL.Path)
		verifySignature(t, r)

		q := r.URL.Query()
		assert.Equal(t, "BNBUSDT", q.Get("symbol"))
		assert.Equal(t, "SELL", q.Get("side"))
		assert.Equal(t, "LIMIT", q.Get("type"))
		assert.Equal(t, "GTC", q.Get("timeInForce"))
		assert.Equal(t, "3", q.Get("quantity"))
		assert.Equal(t, "120.5", q.Get("price"))
		assert.Len(t, q.Get("newClientOrderId"), 36)

		_, _ = w.Write([]byte(`{"symbol":"BNBUSDT","orderId":28,"clientOrderId":"` + q.Get("newClientOrderId") + `","transactTime":1507725176595}`))
	})

	h, err := d.LimitSell(t.Context(), "BNBUSDT", decimal.NewFromInt(3), decimal.RequireFromString("120.500"))
	require.NoError(t, err)
	assert.Equal(t, uint64(28), h.OrderID)
	assert.Len(t, h.ClientOrderID, 36)
}

func TestDelegatorLimitSellRejected(t *testing.T) {
	d := newTestDelegator(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"code":-1013,"msg":"Filter failure: LOT_SIZE"}`))
	})

	_, err := d.LimitSell(t.Context(), "BNBUSDT", decimal.RequireFromString("0.001"), decimal.NewFromInt(120))
	assert.True(t, errors.Is(err, exception.ErrOrderRejected))
	assert.Contains(t, err.Error(), "LOT_SIZE")
	assert.NotContains(t, err.Error(), "\n")
}

func TestDelegatorLimitSellRefusedBeforeRequest(t *testing.T) {
	calls := 0
	d := newTestDelegator(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
	})

	_, err := d.LimitSell(t.Context(), "BNBUSDT", decimal.Zero, decimal.NewFromInt(120))
	assert.True(t, errors.Is(err, exception.ErrOrderRejected))
	assert.Contains(t, err.Error(), "quantity 0 on BNBUSDT must be positive")

	_, err = d.LimitSell(t.Context(), "BNBUSDT", decimal.NewFromInt(1), decimal.Zero)
	assert.True(t, errors.Is(err, exception.ErrOrderRejected))
	assert.Equal(t, 0, calls)
}

func TestDelegatorLimitSellEmptyID(t *testing.T) {
	d := newTestDelegator(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"symbol":"BNBUSDT"}`))
	})

	_, err := d.LimitSell(t.Context(), "BNBUSDT", decimal.NewFromInt(1), decimal.NewFromInt(1))
	assert.True(t, errors.Is(err, exception.ErrOrderEmptyResponseID))
}

func TestDelegatorCancelOrder(t *testing.T) {
	d := newTestDelegator(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		assert.Equal(t, _pathOrder, r.URL.Path)
		verifySignature(t, r)

		switch r.URL.Query().Get("orderId") {
		case "1":
			_, _ = w.Write([]byte(`{"symbol":"BNBUSDT","orderId":1,"status":"CANCELED"}`))
		case "2":
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"code":-2011,"msg":"Unknown order sent."}`))
		default:
			w.WriteHeader(http.StatusServiceUnavailable)
		}
	})

	require.NoError(t, d.CancelOrder(t.Context(), "BNBUSDT", 1))

	err := d.CancelOrder(t.Context(), "BNBUSDT", 2)
	assert.True(t, errors.Is(err, exception.ErrOrderNotOpen))

	err = d.CancelOrder(t.Context(), "BNBUSDT", 3)
	assert.True(t, errors.Is(err, exception.ErrOrderCancel))
	assert.Contains(t, err.Error(), "status=503")
	assert.True(t, exception.IsTransient(err))
}

func TestDelegatorCancelAllOpenOrders(t *testing.T) {
	calls := 0
	d := newTestDelegator(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		assert.Equal(t, _pathOpenOrders, r.URL.Path)
		verifySignature(t, r)
		if calls == 1 {
			_, _ = w.Write([]byte(`[]`))
			return
		}
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"code":-2011,"msg":"Unknown order sent."}`))
	})

	require.NoError(t, d.CancelAllOpenOrders(t.Context(), "BNBUSDT"))
	require.NoError(t, d.CancelAllOpenOrders(t.Context(), "BNBUSDT"), "nothing open is success")
}

func TestDelegatorMissingAPIKey(t *testing.T) {
	d := NewDelegator(nil, Config{BaseURL: "http://127.0.0.1:0"})
	_, err := d.LimitSell(t.Context(), "BNBUSDT", decimal.NewFromInt(1), decimal.NewFromInt(1))
	assert.True(t, errors.Is(err, exception.ErrOrderMissingAPIKey))
}

func TestClassify(t *testing.T) {
	assert.True(t, errors.Is(classify(http.StatusBadGateway, ResponseError{}), exception.ErrOrderTransport))
	assert.True(t, errors.Is(classify(http.StatusTooManyRequests, ResponseError{Code: -1003}), exception.ErrOrderTransport))
	assert.True(t, errors.Is(classify(http.StatusBadRequest, ResponseError{Code: -2011}), exception.ErrOrderNotOpen))
	assert.True(t, errors.Is(classify(http.StatusBadRequest, ResponseError{Code: -1013}), exception.ErrOrderRejected))
}

func TestSign(t *testing.T) {
	// example from the Binance API documentation
	secret := "NhqPtmdSJYdKjVHjA7PZj4Mge3R5YNiP1e3UZjInClVN65XAbvqqM6A7H5fATj0j"
	payload := "symbol=LTCBTC&side=BUY&type=LIMIT&timeInForce=GTC&quantity=1&price=0.1&recvWindow=5000&timestamp=1499827319559"
	assert.Equal(t, "c8db56825ae71d6d79447849e617115f4a920fa2acdcab2b053c4b2838bd6b71", sign(secret, payload))
}
