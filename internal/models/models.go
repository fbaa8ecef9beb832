package models

import "time"

// Side is the direction of an order sent to the exchange.
type Side string

const (
	Buy  Side = "BUY"
	Sell Side = "SELL"
)

// PositionSide is the direction of the currently held position.
type PositionSide string

const (
	Flat  PositionSide = "FLAT"
	Long  PositionSide = "LONG"
	Short PositionSide = "SHORT"
)

// Candle is a single closed OHLCV candle. Candles are immutable once closed
// and always handled as ordered sequences with strictly increasing OpenTime.
type Candle struct {
	OpenTime time.Time `json:"open_time"`
	Open     float64   `json:"open"`
	High     float64   `json:"high"`
	Low      float64   `json:"low"`
	Close    float64   `json:"close"`
	Volume   float64   `json:"volume"`
}

// Position is the bot's single open position. Side == Flat means no position;
// all other fields are only meaningful when Side != Flat.
type Position struct {
	Side          PositionSide `json:"side"`
	EntryPrice    float64      `json:"entry_price,omitempty"`
	Quantity      float64      `json:"quantity,omitempty"`
	EntryTime     time.Time    `json:"entry_time,omitempty"`
	StopLossPrice float64      `json:"stop_loss_price,omitempty"`
}

// IsOpen reports whether a position is currently held.
func (p Position) IsOpen() bool {
	return p.Side != "" && p.Side != Flat
}

// TradeRecord is one completed round trip in the ROI ledger.
// Records are append-only and immutable once written.
type TradeRecord struct {
	ID          string       `json:"id"`
	Symbol      string       `json:"symbol"`
	Side        PositionSide `json:"side"`
	OpenTime    time.Time    `json:"open_time"`
	CloseTime   time.Time    `json:"close_time"`
	EntryPrice  float64      `json:"entry_price"`
	ExitPrice   float64      `json:"exit_price"`
	Quantity    float64      `json:"quantity"`
	RealizedPnL float64      `json:"realized_pnl"`
	FeesPaid    float64      `json:"fees_paid"`
}

// ErrorEvent is one handled failure, kept in the circuit breaker window.
type ErrorEvent struct {
	Timestamp time.Time `json:"timestamp"`
	Category  string    `json:"category"`
	Digest    string    `json:"digest"`
}

// ManualSignal is an externally submitted override instruction. It is
// consumed at most once and takes priority over the strategy for the cycle
// in which it is seen.
type ManualSignal struct {
	ID       string    `json:"id"`
	IssuedBy string    `json:"issued_by"`
	Action   Side      `json:"action"`
	IssuedAt time.Time `json:"issued_at"`
	Consumed bool      `json:"consumed"`
}

// OrderResult is what the execution client reports back for a filled order.
type OrderResult struct {
	FilledPrice    float64 `json:"filled_price"`
	FilledQuantity float64 `json:"filled_quantity"`
	FeePaid        float64 `json:"fee_paid"`
}

// ActionType enumerates what the decision state machine can ask for.
type ActionType int

const (
	ActionNone ActionType = iota
	ActionOpenLong
	ActionOpenShort
	ActionClose
)

func (a ActionType) String() string {
	switch a {
	case ActionOpenLong:
		return "OPEN_LONG"
	case ActionOpenShort:
		return "OPEN_SHORT"
	case ActionClose:
		return "CLOSE"
	default:
		return "NONE"
	}
}

// Action is the single decision emitted per cycle.
type Action struct {
	Type   ActionType
	Reason string
	// StopLoss marks a close that was forced by the stop-loss rule. Such
	// closes bypass the fee filter: capital preservation overrides fee
	// optimization.
	StopLoss bool
	// Manual marks an action that originated from a consumed ManualSignal.
	Manual bool
	// ExpectedExit is the price the strategy expects to exit at, used by the
	// fee filter to estimate the gain of an open action.
	ExpectedExit float64
}
