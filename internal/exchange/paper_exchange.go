package exchange

import (
	"context"
	"fmt"
	"sync"

	"binance-momentum-bot-go/internal/models"
)

// PaperExchange is the deterministic in-memory implementation used for
// DRY_RUN mode and tests. Orders fill instantly at the hinted price with the
// configured taker fee; candles are whatever the test or replay loop feeds
// in through SetCandles.
type PaperExchange struct {
	mu           sync.Mutex
	candles      []models.Candle
	equity       float64
	takerFeeRate float64
	orders       []models.OrderResult
	failNext     error
}

// NewPaperExchange starts with the given equity in quote currency.
func NewPaperExchange(equity, takerFeeRate float64) *PaperExchange {
	return &PaperExchange{
		equity:       equity,
		takerFeeRate: takerFeeRate,
	}
}

// SetCandles replaces the candle window returned by FetchRecentCandles.
func (e *PaperExchange) SetCandles(candles []models.Candle) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.candles = append(e.candles[:0], candles...)
}

// FailNext makes the next call return err once, to exercise error paths.
func (e *PaperExchange) FailNext(err error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.failNext = err
}

// Orders returns every order filled so far.
func (e *PaperExchange) Orders() []models.OrderResult {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]models.OrderResult, len(e.orders))
	copy(out, e.orders)
	return out
}

func (e *PaperExchange) FetchRecentCandles(ctx context.Context, symbol, timeframe string, limit int) ([]models.Candle, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.takeFailure(); err != nil {
		return nil, err
	}

	n := len(e.candles)
	if limit > 0 && n > limit {
		n = limit
	}
	out := make([]models.Candle, n)
	copy(out, e.candles[len(e.candles)-n:])
	return out, nil
}

func (e *PaperExchange) SubmitOrder(ctx context.Context, symbol string, side models.Side, quantity, priceHint float64) (*models.OrderResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.takeFailure(); err != nil {
		return nil, err
	}
	if quantity <= 0 {
		return nil, fmt.Errorf("paper exchange: non-positive quantity %.8f", quantity)
	}
	if priceHint <= 0 {
		return nil, fmt.Errorf("paper exchange: market order needs a price hint")
	}

	notional := quantity * priceHint
	fee := notional * e.takerFeeRate
	result := models.OrderResult{
		FilledPrice:    priceHint,
		FilledQuantity: quantity,
		FeePaid:        fee,
	}

	if side == models.Buy {
		e.equity -= notional + fee
	} else {
		e.equity += notional - fee
	}
	e.orders = append(e.orders, result)
	return &result, nil
}

func (e *PaperExchange) GetEquity(ctx context.Context) (float64, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.takeFailure(); err != nil {
		return 0, err
	}
	return e.equity, nil
}

func (e *PaperExchange) takeFailure() error {
	if e.failNext != nil {
		err := e.failNext
		e.failNext = nil
		return err
	}
	return nil
}
