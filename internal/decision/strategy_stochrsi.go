package decision

import (
	"fmt"

	"binance-momentum-bot-go/internal/indicator"
	"binance-momentum-bot-go/internal/models"
)

// reversionTargetPct is the assumed mean-reversion move used to estimate the
// gain of an entry for the fee filter.
const reversionTargetPct = 0.05

// StochRSIStrategy is the long-only momentum strategy: open long when the
// Stochastic-RSI drops to the oversold band, close when it reaches the
// overbought band.
type StochRSIStrategy struct {
	calc       *indicator.StochRSI
	oversold   float64
	overbought float64
}

// NewStochRSIStrategy builds the strategy from config thresholds.
func NewStochRSIStrategy(cfg *models.Config) *StochRSIStrategy {
	return &StochRSIStrategy{
		calc:       indicator.NewStochRSI(cfg.RSIPeriod, cfg.StochPeriod),
		oversold:   cfg.StochRSIOversold,
		overbought: cfg.StochRSIOverbought,
	}
}

func (s *StochRSIStrategy) Name() string { return "rsi_pengu" }

func (s *StochRSIStrategy) Observe(c models.Candle) error {
	_, _, err := s.calc.Update(c.Close)
	return err
}

func (s *StochRSIStrategy) Evaluate(pos models.Position, price float64) models.Action {
	stoch, ok := s.calc.Last()
	if !ok {
		return models.Action{Type: models.ActionNone, Reason: "indicator warming up"}
	}

	switch {
	case stoch <= s.oversold && !pos.IsOpen():
		return models.Action{
			Type:         models.ActionOpenLong,
			Reason:       fmt.Sprintf("stochastic RSI oversold: %.2f <= %.2f", stoch, s.oversold),
			ExpectedExit: price * (1 + reversionTargetPct),
		}
	case stoch >= s.overbought && pos.Side == models.Long:
		return models.Action{
			Type:         models.ActionClose,
			Reason:       fmt.Sprintf("stochastic RSI overbought: %.2f >= %.2f", stoch, s.overbought),
			ExpectedExit: price,
		}
	}
	return models.Action{Type: models.ActionNone}
}
