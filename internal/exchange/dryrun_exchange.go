package exchange

import (
	"context"

	"binance-momentum-bot-go/internal/models"
)

// DryRunExchange observes the real market but never touches it: candles come
// from the live market-data source, while orders and equity are routed to the
// in-memory paper exchange. This is what DRY_RUN mode wires up, so a dry run
// exercises the full decision path against live prices with simulated fills.
type DryRunExchange struct {
	market Exchange
	paper  *PaperExchange
}

// NewDryRunExchange composes a market-data source with a paper exchange.
func NewDryRunExchange(market Exchange, paper *PaperExchange) *DryRunExchange {
	return &DryRunExchange{market: market, paper: paper}
}

func (e *DryRunExchange) FetchRecentCandles(ctx context.Context, symbol, timeframe string, limit int) ([]models.Candle, error) {
	return e.market.FetchRecentCandles(ctx, symbol, timeframe, limit)
}

func (e *DryRunExchange) SubmitOrder(ctx context.Context, symbol string, side models.Side, quantity, priceHint float64) (*models.OrderResult, error) {
	return e.paper.SubmitOrder(ctx, symbol, side, quantity, priceHint)
}

func (e *DryRunExchange) GetEquity(ctx context.Context) (float64, error) {
	return e.paper.GetEquity(ctx)
}
