package decision

import (
	"fmt"

	"binance-momentum-bot-go/internal/models"
)

// Strategy is the closed set of trading rules the bot can run. Exactly one
// strategy is active per process, chosen by name at startup. A strategy owns
// its indicator state: Observe feeds it each closed candle, Evaluate turns
// the latest indicator values plus the current position into an action.
type Strategy interface {
	Name() string

	// Observe consumes one closed candle. It returns ErrInsufficientData
	// while the indicator is still warming up; callers must not Evaluate
	// for that cycle.
	Observe(c models.Candle) error

	// Evaluate is pure with respect to the observed candle history. It never
	// emits both an open and a close; one action per call.
	Evaluate(pos models.Position, price float64) models.Action
}

// New builds the strategy selected by cfg.StrategyName.
func New(cfg *models.Config) (Strategy, error) {
	switch cfg.StrategyName {
	case "rsi_pengu":
		return NewStochRSIStrategy(cfg), nil
	case "macd_arb":
		return NewMACDStrategy(cfg), nil
	default:
		return nil, fmt.Errorf("unknown strategy %q", cfg.StrategyName)
	}
}
