package marketdata

import (
	"context"
	"fmt"
	"strings"

	"github.com/yanun0323/errors"
	"github.com/yanun0323/logs"
	"github.com/yanun0323/pkg/sys"
	"github.com/yanun0323/pkg/ws"
)

const (
	DefaultBinanceWsURL = "wss://stream.binance.com:9443/ws"

	_subscribeID = 1
)

type BinancePub struct {
	wss *ws.WebSocket
}

func NewBinancePub(ctx context.Context, url string) *BinancePub {
	if len(url) == 0 {
		url = DefaultBinanceWsURL
	}

	return &BinancePub{
		wss: ws.New(ctx, url),
	}
}

func (repo *BinancePub) Close() {
	repo.wss.Close()
	logs.Info("close depth websocket")
}

func (repo *BinancePub) StartWebsocket(ctx context.Context) error {
	if err := repo.wss.Start(ctx); err != nil {
		return errors.Wrap(err, "start wss")
	}

	return nil
}

type BinanceSubscribeRequest struct {
	Method string   `json:"method"`
	Params []string `json:"params"`
	ID     int64    `json:"id"`
}

type BinanceSubscribeResponse struct {
	ID     int64 `json:"id"`
	Result any   `json:"result"`
}

func subscriberResponseParser(m ws.Message) (BinanceSubscribeResponse, bool) {
	var resp BinanceSubscribeResponse
	err := m.Unmarshal(&resp)
	return resp, err == nil
}

// PartialBookDepthStream names the top-20 levels stream of symbol.
func PartialBookDepthStream(symbol string) string {
	return fmt.Sprintf("%s@depth20@100ms", strings.ToLower(symbol))
}

// SubscribePartialBookDepth subscribes 'Partial Book Depth Stream'
func (repo *BinancePub) SubscribePartialBookDepth(ctx context.Context, symbol string) error {
	appendIntoRegister := true
	if err := repo.wss.SendAndWait(ctx, ws.Sidecar{
		Sender: func(ctx context.Context, ws *ws.WebSocket) error {
			payload := BinanceSubscribeRequest{
				Method: "SUBSCRIBE",
				Params: []string{PartialBookDepthStream(symbol)},
				ID:     _subscribeID,
			}

			if err := ws.WriteJSON(payload); err != nil {
				return errors.Wrap(err, "write subscribe payload").With("payload", payload)
			}

			return nil
		},
		Waiter: func(ctx context.Context, m ws.Message) (bool, error) {
			resp, ok := subscriberResponseParser(m)
			if !ok || resp.ID != _subscribeID {
				return false, nil
			}

			if resp.Result != nil {
				return false, errors.Errorf("subscribe and wait, err: %+v", resp.Result)
			}
			return true, nil
		},
	}, appendIntoRegister); err != nil {
		return errors.Wrap(err, "send and wait")
	}

	return nil
}

type BinancePartialBookDepth struct {
	LastUpdateID int64       `json:"lastUpdateId"`
	Bids         [][2]string `json:"bids"` // [0]price [1]quantity
	Asks         [][2]string `json:"asks"` // [0]price [1]quantity
}

func (repo *BinancePub) ObservePartialBookDepth(ctx context.Context, handler func(d BinancePartialBookDepth)) (unsubscribe func()) {
	ch, cancel := repo.wss.Subscribe()

	go func() {
		defer cancel()
		for {
			select {
			case <-sys.Shutdown():
				return
			case <-ctx.Done():
				return
			case m, ok := <-ch:
				if !ok {
					return
				}

				resp, ok := ws.ReadMessage[BinancePartialBookDepth](m)
				if !ok || resp.LastUpdateID == 0 {
					// subscription acks share the connection
					continue
				}

				handler(resp)
			}
		}
	}()

	return cancel
}
