package models

import "time"

// BreakerStatus is the circuit breaker gate state.
type BreakerStatus string

const (
	BreakerRunning BreakerStatus = "RUNNING"
	BreakerPaused  BreakerStatus = "PAUSED"
)

// BotState is the full durable state of one bot instance. There is exactly
// one BotState per process, owned by the state store; every other component
// works on deep-copied snapshots or proposes mutations through the store.
type BotState struct {
	Symbol         string        `json:"symbol"`
	Version        int           `json:"version"`
	Position       Position      `json:"position"`
	ROILedger      []TradeRecord `json:"roi_ledger"`
	ErrorLog       []ErrorEvent  `json:"error_log"`
	BreakerStatus  BreakerStatus `json:"breaker_status"`
	PausedUntil    *time.Time    `json:"paused_until,omitempty"`
	LastUpdateTime time.Time     `json:"last_update_time"`
}

// StateVersion is bumped when the persisted schema changes shape.
const StateVersion = 1

// NewBotState returns a fresh FLAT/RUNNING state for a symbol.
func NewBotState(symbol string) *BotState {
	return &BotState{
		Symbol:        symbol,
		Version:       StateVersion,
		Position:      Position{Side: Flat},
		BreakerStatus: BreakerRunning,
	}
}

// Clone returns a deep copy safe for concurrent reading.
func (s *BotState) Clone() *BotState {
	if s == nil {
		return nil
	}
	cp := *s
	if s.ROILedger != nil {
		cp.ROILedger = make([]TradeRecord, len(s.ROILedger))
		copy(cp.ROILedger, s.ROILedger)
	}
	if s.ErrorLog != nil {
		cp.ErrorLog = make([]ErrorEvent, len(s.ErrorLog))
		copy(cp.ErrorLog, s.ErrorLog)
	}
	if s.PausedUntil != nil {
		t := *s.PausedUntil
		cp.PausedUntil = &t
	}
	return &cp
}
