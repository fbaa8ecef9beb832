package risk

import (
	"fmt"

	"github.com/shopspring/decimal"

	"binance-momentum-bot-go/internal/models"
)

// maxEquityFraction caps any position's notional at half of account equity.
var maxEquityFraction = decimal.NewFromFloat(0.5)

// Sizer converts the configured sizing policy and live equity into an order
// quantity. A fixed USD amount takes priority over percent-of-equity when
// both are configured. Bound violations return a SizingError instead of
// silently clamping; the only adjustment ever applied is rounding the
// quantity down to the exchange lot step.
type Sizer struct {
	fixedUSD   decimal.Decimal // zero means unset
	percent    decimal.Decimal
	minNotionl decimal.Decimal
	step       decimal.Decimal
}

// NewSizer builds a sizer from config.
func NewSizer(cfg *models.Config) *Sizer {
	return &Sizer{
		fixedUSD:   decimal.NewFromFloat(cfg.PositionSizeUSD),
		percent:    decimal.NewFromFloat(cfg.PositionSizePercent),
		minNotionl: decimal.NewFromFloat(cfg.MinNotionalUSD),
		step:       decimal.NewFromFloat(cfg.LotStepSize),
	}
}

// Size returns the order quantity for the given equity and price.
func (s *Sizer) Size(equity, price float64) (float64, error) {
	if equity <= 0 {
		return 0, &models.SizingError{Reason: fmt.Sprintf("invalid equity %.2f", equity)}
	}
	if price <= 0 {
		return 0, &models.SizingError{Reason: fmt.Sprintf("invalid price %.8f", price)}
	}

	eq := decimal.NewFromFloat(equity)
	px := decimal.NewFromFloat(price)

	var notional decimal.Decimal
	if s.fixedUSD.IsPositive() {
		notional = s.fixedUSD
	} else {
		notional = eq.Mul(s.percent).Div(decimal.NewFromInt(100))
	}

	maxNotional := eq.Mul(maxEquityFraction)
	if notional.GreaterThan(maxNotional) {
		return 0, &models.SizingError{
			Reason: fmt.Sprintf("notional %s exceeds 50%% of equity %s", notional, eq),
		}
	}
	if notional.LessThan(s.minNotionl) {
		return 0, &models.SizingError{
			Reason: fmt.Sprintf("notional %s below minimum %s", notional, s.minNotionl),
		}
	}

	// Round down to the lot step; rounding up would exceed the configured
	// risk, so a quantity pushed under the minimum by rounding is an error.
	qty := notional.Div(px)
	qty = qty.Div(s.step).Floor().Mul(s.step)
	if qty.Mul(px).LessThan(s.minNotionl) {
		return 0, &models.SizingError{
			Reason: fmt.Sprintf("quantity %s rounds below minimum notional %s", qty, s.minNotionl),
		}
	}

	out, _ := qty.Float64()
	return out, nil
}
