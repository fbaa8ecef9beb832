package decision

import (
	"fmt"

	"binance-momentum-bot-go/internal/indicator"
	"binance-momentum-bot-go/internal/models"
)

// takeProfitPct is the fixed take-profit target for MACD positions, also used
// as the expected-gain estimate for the fee filter.
const takeProfitPct = 0.02

// crossEps absorbs float residue in the MACD minus signal difference. After a
// long trend the two lines converge and the difference decays to a residual of
// arbitrary sign; exact comparison against zero would then miss the genuine
// crossover that follows.
const crossEps = 1e-9

// MACDStrategy is the two-sided variant: it opens long on a bullish MACD
// crossover confirmed by a positive histogram, opens short on the bearish
// mirror, and closes on the opposite crossover or a 2% take-profit.
type MACDStrategy struct {
	calc *indicator.MACD
}

// NewMACDStrategy builds the strategy from config periods.
func NewMACDStrategy(cfg *models.Config) *MACDStrategy {
	return &MACDStrategy{
		calc: indicator.NewMACD(cfg.MACDFastPeriod, cfg.MACDSlowPeriod, cfg.MACDSignalPeriod),
	}
}

func (s *MACDStrategy) Name() string { return "macd_arb" }

func (s *MACDStrategy) Observe(c models.Candle) error {
	_, err := s.calc.Update(c.Close)
	return err
}

func (s *MACDStrategy) Evaluate(pos models.Position, price float64) models.Action {
	v, ok := s.calc.Last()
	if !ok {
		return models.Action{Type: models.ActionNone, Reason: "indicator warming up"}
	}

	prevDiff := v.PrevMACD - v.PrevSignal
	bullishCross := prevDiff <= crossEps && v.Histogram > crossEps
	bearishCross := prevDiff >= -crossEps && v.Histogram < -crossEps

	if pos.IsOpen() {
		if hitTakeProfit(pos, price) {
			return models.Action{
				Type:         models.ActionClose,
				Reason:       fmt.Sprintf("take profit reached at %.6f", price),
				ExpectedExit: price,
			}
		}
		if (pos.Side == models.Long && bearishCross) || (pos.Side == models.Short && bullishCross) {
			return models.Action{
				Type:         models.ActionClose,
				Reason:       "opposite MACD crossover",
				ExpectedExit: price,
			}
		}
		return models.Action{Type: models.ActionNone}
	}

	if bullishCross {
		return models.Action{
			Type:         models.ActionOpenLong,
			Reason:       fmt.Sprintf("bullish MACD crossover (hist %.6f)", v.Histogram),
			ExpectedExit: price * (1 + takeProfitPct),
		}
	}
	if bearishCross {
		return models.Action{
			Type:         models.ActionOpenShort,
			Reason:       fmt.Sprintf("bearish MACD crossover (hist %.6f)", v.Histogram),
			ExpectedExit: price * (1 - takeProfitPct),
		}
	}
	return models.Action{Type: models.ActionNone}
}

func hitTakeProfit(pos models.Position, price float64) bool {
	switch pos.Side {
	case models.Long:
		return price >= pos.EntryPrice*(1+takeProfitPct)
	case models.Short:
		return price <= pos.EntryPrice*(1-takeProfitPct)
	}
	return false
}
