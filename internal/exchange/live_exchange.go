package exchange

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/adshao/go-binance/v2"
	"github.com/jxskiss/base62"
	"golang.org/x/time/rate"

	"binance-momentum-bot-go/internal/models"
)

// LiveExchange talks to Binance spot through the official REST client.
// Requests are paced by a token-bucket limiter and wrapped in the bounded
// retry helper, so every error that escapes is a TransientIOError ready for
// the circuit breaker.
type LiveExchange struct {
	client       *binance.Client
	limiter      *rate.Limiter
	quoteAsset   string
	attempts     int
	initialDelay time.Duration
}

// NewLiveExchange builds the live client. quoteAsset is the asset equity is
// denominated in, e.g. "USDT".
func NewLiveExchange(apiKey, secretKey, quoteAsset string, cfg *models.Config) *LiveExchange {
	return &LiveExchange{
		client:       binance.NewClient(apiKey, secretKey),
		limiter:      rate.NewLimiter(rate.Every(200*time.Millisecond), 5),
		quoteAsset:   quoteAsset,
		attempts:     cfg.RetryAttempts,
		initialDelay: time.Duration(cfg.RetryInitialDelayMs) * time.Millisecond,
	}
}

func (e *LiveExchange) FetchRecentCandles(ctx context.Context, symbol, timeframe string, limit int) ([]models.Candle, error) {
	var klines []*binance.Kline
	err := withRetry(ctx, "fetch_candles", e.attempts, e.initialDelay, func() error {
		if err := e.limiter.Wait(ctx); err != nil {
			return err
		}
		var err error
		klines, err = e.client.NewKlinesService().
			Symbol(symbol).
			Interval(timeframe).
			Limit(limit).
			Do(ctx)
		return err
	})
	if err != nil {
		return nil, err
	}

	candles := make([]models.Candle, 0, len(klines))
	for _, k := range klines {
		c, err := candleFromKline(k)
		if err != nil {
			return nil, &models.TransientIOError{Op: "fetch_candles", Err: err}
		}
		candles = append(candles, c)
	}
	return candles, nil
}

func (e *LiveExchange) SubmitOrder(ctx context.Context, symbol string, side models.Side, quantity, priceHint float64) (*models.OrderResult, error) {
	binanceSide := binance.SideTypeBuy
	if side == models.Sell {
		binanceSide = binance.SideTypeSell
	}

	// A stable client order ID makes the order idempotent across retries:
	// a resend of an already accepted order is rejected as a duplicate
	// instead of filling twice.
	clientOrderID := "mbot-" + string(base62.FormatInt(time.Now().UnixNano()))

	var resp *binance.CreateOrderResponse
	err := withRetry(ctx, "submit_order", e.attempts, e.initialDelay, func() error {
		if err := e.limiter.Wait(ctx); err != nil {
			return err
		}
		var err error
		resp, err = e.client.NewCreateOrderService().
			Symbol(symbol).
			Side(binanceSide).
			Type(binance.OrderTypeMarket).
			Quantity(strconv.FormatFloat(quantity, 'f', -1, 64)).
			NewClientOrderID(clientOrderID).
			Do(ctx)
		return err
	})
	if err != nil {
		return nil, err
	}

	return orderResultFromResponse(resp)
}

func (e *LiveExchange) GetEquity(ctx context.Context) (float64, error) {
	var account *binance.Account
	err := withRetry(ctx, "get_equity", e.attempts, e.initialDelay, func() error {
		if err := e.limiter.Wait(ctx); err != nil {
			return err
		}
		var err error
		account, err = e.client.NewGetAccountService().Do(ctx)
		return err
	})
	if err != nil {
		return 0, err
	}

	for _, b := range account.Balances {
		if strings.EqualFold(b.Asset, e.quoteAsset) {
			free, err := strconv.ParseFloat(b.Free, 64)
			if err != nil {
				return 0, &models.TransientIOError{Op: "get_equity", Err: err}
			}
			return free, nil
		}
	}
	return 0, &models.TransientIOError{
		Op:  "get_equity",
		Err: fmt.Errorf("no %s balance in account response", e.quoteAsset),
	}
}

func candleFromKline(k *binance.Kline) (models.Candle, error) {
	open, err1 := strconv.ParseFloat(k.Open, 64)
	high, err2 := strconv.ParseFloat(k.High, 64)
	low, err3 := strconv.ParseFloat(k.Low, 64)
	closeP, err4 := strconv.ParseFloat(k.Close, 64)
	volume, err5 := strconv.ParseFloat(k.Volume, 64)
	for _, err := range []error{err1, err2, err3, err4, err5} {
		if err != nil {
			return models.Candle{}, fmt.Errorf("malformed kline: %w", err)
		}
	}
	return models.Candle{
		OpenTime: time.UnixMilli(k.OpenTime),
		Open:     open,
		High:     high,
		Low:      low,
		Close:    closeP,
		Volume:   volume,
	}, nil
}

func orderResultFromResponse(resp *binance.CreateOrderResponse) (*models.OrderResult, error) {
	executedQty, err := strconv.ParseFloat(resp.ExecutedQuantity, 64)
	if err != nil {
		return nil, &models.TransientIOError{Op: "submit_order", Err: err}
	}
	quoteQty, err := strconv.ParseFloat(resp.CummulativeQuoteQuantity, 64)
	if err != nil {
		return nil, &models.TransientIOError{Op: "submit_order", Err: err}
	}

	var avgPrice float64
	if executedQty > 0 {
		avgPrice = quoteQty / executedQty
	}

	var fee float64
	for _, f := range resp.Fills {
		c, err := strconv.ParseFloat(f.Commission, 64)
		if err == nil {
			fee += c
		}
	}

	return &models.OrderResult{
		FilledPrice:    avgPrice,
		FilledQuantity: executedQty,
		FeePaid:        fee,
	}, nil
}
