package notifier

import (
	"fmt"
	"time"

	"binance-momentum-bot-go/internal/models"
)

// Kind enumerates the externally observable state transitions.
type Kind string

const (
	TradeOpened    Kind = "TRADE_OPENED"
	TradeClosed    Kind = "TRADE_CLOSED"
	BreakerPaused  Kind = "BREAKER_PAUSED"
	BreakerResumed Kind = "BREAKER_RESUMED"
	FatalError     Kind = "FATAL_ERROR"
	StatusUpdate   Kind = "STATUS_UPDATE"
)

// Event is one notification. Trade carries the round trip for TradeClosed;
// Position carries the entry for TradeOpened.
type Event struct {
	Kind      Kind
	Timestamp time.Time
	Message   string
	Position  *models.Position
	Trade     *models.TradeRecord
}

// Notifier delivers events to the outside world. Emit is fire-and-forget
// from the core's perspective: delivery failures are an implementation's
// problem to log and must never affect bot state.
type Notifier interface {
	Emit(ev Event)
}

// Format renders an event as a single human-readable line, shared by the
// console and webhook implementations.
func Format(ev Event) string {
	switch ev.Kind {
	case TradeOpened:
		if p := ev.Position; p != nil {
			return fmt.Sprintf("🟢 %s opened: %.6f @ %.6f (stop %.6f)",
				p.Side, p.Quantity, p.EntryPrice, p.StopLossPrice)
		}
	case TradeClosed:
		if t := ev.Trade; t != nil {
			return fmt.Sprintf("🔴 %s closed: %.6f @ %.6f, PnL %.4f, fees %.4f (%s)",
				t.Side, t.Quantity, t.ExitPrice, t.RealizedPnL, t.FeesPaid, ev.Message)
		}
	case BreakerPaused:
		return "⛔ circuit breaker PAUSED: " + ev.Message
	case BreakerResumed:
		return "✅ circuit breaker resumed"
	case FatalError:
		return "💀 fatal: " + ev.Message
	}
	return ev.Message
}
