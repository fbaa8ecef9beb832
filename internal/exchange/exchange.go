package exchange

import (
	"context"

	"binance-momentum-bot-go/internal/models"
)

// Exchange is the narrow interface the core uses to talk to the outside
// world. Implementations: LiveExchange (Binance) and PaperExchange (dry-run
// and tests). All methods may fail with a TransientIOError.
type Exchange interface {
	// FetchRecentCandles returns the most recent closed candles, ordered by
	// strictly increasing open time.
	FetchRecentCandles(ctx context.Context, symbol, timeframe string, limit int) ([]models.Candle, error)

	// SubmitOrder sends a market order. priceHint is the price the decision
	// was made at; live implementations may ignore it.
	SubmitOrder(ctx context.Context, symbol string, side models.Side, quantity, priceHint float64) (*models.OrderResult, error)

	// GetEquity returns account equity in the quote currency.
	GetEquity(ctx context.Context) (float64, error)
}
