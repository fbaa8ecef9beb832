package decision

import (
	"fmt"

	"binance-momentum-bot-go/internal/models"
)

// Machine combines the stop-loss rule, the manual override queue, the active
// strategy and the circuit breaker gate into exactly one action per cycle.
//
// Priority order is fixed: stop-loss, manual signal, strategy, no-op. An open
// action is only realized while the breaker is RUNNING; closes always pass so
// an existing position can be unwound during a pause.
type Machine struct {
	strategy Strategy
}

// NewMachine wraps the active strategy.
func NewMachine(strategy Strategy) *Machine {
	return &Machine{strategy: strategy}
}

// Decide is pure: it reads the state snapshot and inputs and returns an
// action without side effects. manual may be nil. The caller is responsible
// for marking a manual signal consumed when the returned action has
// Manual == true (or when it was structurally invalid and dropped).
func (m *Machine) Decide(snapshot *models.BotState, price float64, manual *models.ManualSignal) models.Action {
	pos := snapshot.Position

	// 1. Stop-loss breach overrides everything, including the fee filter.
	if stopLossBreached(pos, price) {
		return m.gate(snapshot, models.Action{
			Type:         models.ActionClose,
			Reason:       fmt.Sprintf("stop loss breached at %.6f (stop %.6f)", price, pos.StopLossPrice),
			StopLoss:     true,
			ExpectedExit: price,
		})
	}

	// 2. Manual override, if structurally valid for the current position.
	if manual != nil && !manual.Consumed {
		if act, ok := manualAction(pos, *manual, price); ok {
			return m.gate(snapshot, act)
		}
		// Invalid signals are still consumed so they cannot fire later.
		return models.Action{
			Type:   models.ActionNone,
			Reason: fmt.Sprintf("manual %s signal invalid for %s position", manual.Action, pos.Side),
			Manual: true,
		}
	}

	// 3. Strategy rule.
	return m.gate(snapshot, m.strategy.Evaluate(pos, price))
}

// gate enforces the breaker invariant: no new entries while PAUSED.
func (m *Machine) gate(snapshot *models.BotState, act models.Action) models.Action {
	isOpen := act.Type == models.ActionOpenLong || act.Type == models.ActionOpenShort
	if isOpen && snapshot.BreakerStatus == models.BreakerPaused {
		return models.Action{
			Type:   models.ActionNone,
			Reason: "entry suppressed: circuit breaker paused",
			Manual: act.Manual,
		}
	}
	return act
}

func stopLossBreached(pos models.Position, price float64) bool {
	if !pos.IsOpen() || pos.StopLossPrice <= 0 {
		return false
	}
	switch pos.Side {
	case models.Long:
		return price <= pos.StopLossPrice
	case models.Short:
		return price >= pos.StopLossPrice
	}
	return false
}

func manualAction(pos models.Position, sig models.ManualSignal, price float64) (models.Action, bool) {
	switch sig.Action {
	case models.Buy:
		if pos.IsOpen() {
			return models.Action{}, false
		}
		return models.Action{
			Type:         models.ActionOpenLong,
			Reason:       "manual BUY signal from " + sig.IssuedBy,
			Manual:       true,
			ExpectedExit: price * (1 + reversionTargetPct),
		}, true
	case models.Sell:
		if !pos.IsOpen() {
			return models.Action{}, false
		}
		return models.Action{
			Type:         models.ActionClose,
			Reason:       "manual SELL signal from " + sig.IssuedBy,
			Manual:       true,
			ExpectedExit: price,
		}, true
	}
	return models.Action{}, false
}
