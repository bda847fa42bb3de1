package binance

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/bytedance/sonic"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/yanun0323/errors"

	"quotebot/internal/adapter"
	"quotebot/pkg/exception"
)

const (
	DefaultBaseURL    = "https://api.binance.com"
	DefaultRecvWindow = 5 * time.Second
	DefaultDepthLimit = 20

	_pathDepth      = "/api/v3/depth"
	_pathOrder      = "/api/v3/order"
	_pathOpenOrders = "/api/v3/openOrders"

	_headerAPIKey = "X-MBX-APIKEY"
)

// Config holds the venue endpoint and credentials.
type Config struct {
	BaseURL    string
	Token      adapter.Token
	RecvWindow time.Duration
	DepthLimit int
}

// Delegator talks to the Binance spot REST API. It serves both the market data and
// the execution side of the control loop.
type Delegator struct {
	client *http.Client
	cfg    Config
	now    func() time.Time
}

func NewDelegator(client *http.Client, cfg Config) *Delegator {
	if client == nil {
		client = http.DefaultClient
	}
	if len(cfg.BaseURL) == 0 {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.RecvWindow <= 0 {
		cfg.RecvWindow = DefaultRecvWindow
	}
	if cfg.DepthLimit <= 0 {
		cfg.DepthLimit = DefaultDepthLimit
	}

	return &Delegator{
		client: client,
		cfg:    cfg,
		now:    time.Now,
	}
}

// Depth fetches the order book for symbol.
func (d *Delegator) Depth(ctx context.Context, symbol string) (adapter.Depth, error) {
	query := url.Values{}
	query.Set("symbol", symbol)
	query.Set("limit", strconv.Itoa(d.cfg.DepthLimit))

	var data ResponseDepth
	if err := d.do(ctx, http.MethodGet, _pathDepth, query, false, &data); err != nil {
		return adapter.Depth{}, errors.Wrapf(exception.ErrDepthFetch, "%s, err: %s", symbol, err).With("limit", d.cfg.DepthLimit)
	}

	now := d.now().UnixNano()
	depth := adapter.Depth{
		Symbol:      symbol,
		EventTsNano: now,
		RecvTsNano:  now,
	}

	var err error
	if depth.Bids, err = parseRows(data.Bids); err != nil {
		return adapter.Depth{}, errors.Wrapf(exception.ErrDepthFetch, "%s bids, err: %s", symbol, err)
	}
	if depth.Asks, err = parseRows(data.Asks); err != nil {
		return adapter.Depth{}, errors.Wrapf(exception.ErrDepthFetch, "%s asks, err: %s", symbol, err)
	}

	return depth, nil
}

func parseRows(rows [][2]string) ([]adapter.DepthRow, error) {
	out := make([]adapter.DepthRow, 0, len(rows))
	for i, r := range rows {
		row, err := adapter.NewDepthRow(r[0], r[1])
		if err != nil {
			return nil, errors.Wrapf(exception.ErrInvalidDepthRow, "index %d, err: %s", i, err)
		}
		out = append(out, row)
	}
	return out, nil
}

// LimitSell rests a good-till-cancel limit sell.
func (d *Delegator) LimitSell(ctx context.Context, symbol string, qty, price decimal.Decimal) (adapter.OrderHandle, error) {
	intent := adapter.NewLimitSell(symbol, qty, price)
	intent.ClientOrderID = uuid.NewString()
	return d.placeOrder(ctx, intent)
}

func (d *Delegator) placeOrder(ctx context.Context, intent adapter.OrderIntent) (adapter.OrderHandle, error) {
	if err := intent.Validate(); err != nil {
		return adapter.OrderHandle{}, errors.Wrapf(exception.ErrOrderRejected, "pre-flight, err: %s", err)
	}

	query := url.Values{}
	query.Set("symbol", intent.Symbol)
	query.Set("side", intent.Side.String())
	query.Set("type", intent.Type.String())
	query.Set("timeInForce", intent.TimeInForce.String())
	query.Set("quantity", intent.Quantity.String())
	query.Set("price", intent.Price.String())
	query.Set("newClientOrderId", intent.ClientOrderID)
	query.Set("newOrderRespType", "ACK")

	var data ResponsePlaceOrder
	if err := d.do(ctx, http.MethodPost, _pathOrder, query, true, &data); err != nil {
		return adapter.OrderHandle{}, err
	}
	if data.OrderID <= 0 {
		return adapter.OrderHandle{}, errors.Wrapf(exception.ErrOrderEmptyResponseID, "client order id %s", intent.ClientOrderID)
	}

	return adapter.OrderHandle{
		OrderID:       uint64(data.OrderID),
		ClientOrderID: data.ClientOrderID,
	}, nil
}

// CancelOrder cancels one order. An order the venue no longer knows as open yields
// exception.ErrOrderNotOpen.
func (d *Delegator) CancelOrder(ctx context.Context, symbol string, orderID uint64) error {
	query := url.Values{}
	query.Set("symbol", symbol)
	query.Set("orderId", strconv.FormatUint(orderID, 10))

	if err := d.do(ctx, http.MethodDelete, _pathOrder, query, true, nil); err != nil {
		if errors.Is(err, exception.ErrOrderNotOpen) {
			return err
		}
		return errors.Wrapf(exception.ErrOrderCancel, "order %d, err: %s", orderID, err)
	}
	return nil
}

// CancelAllOpenOrders cancels every open order on symbol. Having nothing to cancel
// is success.
func (d *Delegator) CancelAllOpenOrders(ctx context.Context, symbol string) error {
	query := url.Values{}
	query.Set("symbol", symbol)

	if err := d.do(ctx, http.MethodDelete, _pathOpenOrders, query, true, nil); err != nil {
		if errors.Is(err, exception.ErrOrderNotOpen) {
			return nil
		}
		return errors.Wrapf(exception.ErrOrderCancel, "cancel all on %s, err: %s", symbol, err)
	}
	return nil
}

func (d *Delegator) do(ctx context.Context, method, path string, query url.Values, signed bool, out any) error {
	if signed {
		if d.cfg.Token.IsEmpty() {
			return exception.ErrOrderMissingAPIKey
		}
		query.Set("recvWindow", strconv.FormatInt(d.cfg.RecvWindow.Milliseconds(), 10))
		query.Set("timestamp", strconv.FormatInt(d.now().UnixMilli(), 10))
	}

	rawQuery := query.Encode()
	if signed {
		rawQuery += "&signature=" + sign(d.cfg.Token.Secret, rawQuery)
	}

	r, err := http.NewRequestWithContext(ctx, method, d.cfg.BaseURL+path+"?"+rawQuery, nil)
	if err != nil {
		return errors.Wrapf(err, "new request %s %s", method, path)
	}
	if signed {
		r.Header.Set(_headerAPIKey, d.cfg.Token.Key)
	}

	resp, err := d.client.Do(r)
	if err != nil {
		return errors.Wrapf(exception.ErrOrderTransport, "%s %s, err: %s", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		var body ResponseError
		raw, _ := io.ReadAll(resp.Body)
		if len(raw) != 0 {
			_ = sonic.ConfigFastest.Unmarshal(raw, &body)
		}
		if len(body.Message) == 0 {
			body.Message = string(raw)
		}
		return classify(resp.StatusCode, body)
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}

	if err := sonic.ConfigFastest.NewDecoder(resp.Body).Decode(out); err != nil {
		return errors.Wrapf(exception.ErrOrderDecodeResponse, "%s %s, err: %s", method, path, err)
	}
	return nil
}

func sign(secret, payload string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	_, _ = mac.Write([]byte(payload))
	return hex.EncodeToString(mac.Sum(nil))
}
