package statestore

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"binance-momentum-bot-go/internal/models"
	"binance-momentum-bot-go/internal/persistence"
)

// Store is the single owner of the live BotState. All mutation flows through
// its typed commit methods, which are serialized by a mutex and persist the
// new state before it becomes visible: a commit that fails to reach disk
// leaves both memory and disk at the previous durable value.
//
// Every other component reads deep-copied snapshots and never holds a
// reference to the live record.
type Store struct {
	mu     sync.Mutex
	state  *models.BotState
	repo   persistence.StateRepository
	logger *zap.SugaredLogger
}

// New wraps a repository. Call Load before anything else.
func New(repo persistence.StateRepository, logger *zap.SugaredLogger) *Store {
	return &Store{repo: repo, logger: logger}
}

// Load reads the durable record at startup. Absence of one yields a fresh
// FLAT/RUNNING state for the symbol.
func (s *Store) Load(symbol string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	state, err := s.repo.Load()
	if err != nil {
		return fmt.Errorf("load state: %w", err)
	}
	if state == nil {
		s.state = models.NewBotState(symbol)
		s.logger.Infof("no durable state found, starting fresh for %s", symbol)
		return nil
	}
	if state.Symbol != symbol {
		return fmt.Errorf("durable state is for %s, configured symbol is %s", state.Symbol, symbol)
	}
	s.state = state
	s.logger.Infof("state restored: position=%s trades=%d breaker=%s",
		state.Position.Side, len(state.ROILedger), state.BreakerStatus)
	return nil
}

// Snapshot returns a deep copy safe for concurrent reading.
func (s *Store) Snapshot() *models.BotState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Clone()
}

// OpenPosition commits a new open position. At most one position may exist.
func (s *Store) OpenPosition(pos models.Position) error {
	if !pos.IsOpen() {
		return fmt.Errorf("refusing to open a FLAT position")
	}
	if pos.Quantity <= 0 {
		return fmt.Errorf("refusing to open position with quantity %.8f", pos.Quantity)
	}
	return s.commit(func(st *models.BotState) error {
		if st.Position.IsOpen() {
			return fmt.Errorf("position already open (%s), cannot open another", st.Position.Side)
		}
		st.Position = pos
		return nil
	})
}

// ClosePosition commits the close of the current position, appending the
// completed round trip to the ROI ledger. Ledger invariants are enforced
// before anything is written.
func (s *Store) ClosePosition(exitPrice, feePaid float64, closeTime time.Time) (models.TradeRecord, error) {
	var rec models.TradeRecord
	err := s.commit(func(st *models.BotState) error {
		pos := st.Position
		if !pos.IsOpen() {
			return fmt.Errorf("no open position to close")
		}
		if !closeTime.After(pos.EntryTime) {
			return fmt.Errorf("close time %s not after entry time %s", closeTime, pos.EntryTime)
		}
		if pos.Quantity <= 0 {
			return fmt.Errorf("open position has non-positive quantity %.8f", pos.Quantity)
		}

		pnl := (exitPrice - pos.EntryPrice) * pos.Quantity
		if pos.Side == models.Short {
			pnl = -pnl
		}

		rec = models.TradeRecord{
			ID:          uuid.NewString(),
			Symbol:      st.Symbol,
			Side:        pos.Side,
			OpenTime:    pos.EntryTime,
			CloseTime:   closeTime,
			EntryPrice:  pos.EntryPrice,
			ExitPrice:   exitPrice,
			Quantity:    pos.Quantity,
			RealizedPnL: pnl,
			FeesPaid:    feePaid,
		}
		st.ROILedger = append(st.ROILedger, rec)
		st.Position = models.Position{Side: models.Flat}
		return nil
	})
	return rec, err
}

// RecordError commits an error event into the durable error log, pruning
// entries older than keep.
func (s *Store) RecordError(ev models.ErrorEvent, keep time.Duration) error {
	return s.commit(func(st *models.BotState) error {
		cutoff := ev.Timestamp.Add(-keep)
		kept := st.ErrorLog[:0]
		for _, e := range st.ErrorLog {
			if e.Timestamp.After(cutoff) {
				kept = append(kept, e)
			}
		}
		st.ErrorLog = append(kept, ev)
		return nil
	})
}

// SetBreaker commits a breaker status change. pausedUntil is nil when
// resuming; errorLog replaces the durable window (it is cleared on resume).
func (s *Store) SetBreaker(status models.BreakerStatus, pausedUntil *time.Time, errorLog []models.ErrorEvent) error {
	return s.commit(func(st *models.BotState) error {
		st.BreakerStatus = status
		st.PausedUntil = pausedUntil
		st.ErrorLog = errorLog
		return nil
	})
}

// Close releases the underlying repository.
func (s *Store) Close() error {
	return s.repo.Close()
}

// commit applies a mutation to a deep copy, persists it, and only then
// installs the copy as the live state. The mutex serializes all writers.
func (s *Store) commit(mutate func(*models.BotState) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.state.Clone()
	if err := mutate(next); err != nil {
		return err
	}
	next.LastUpdateTime = time.Now().UTC()

	if err := s.repo.Save(next); err != nil {
		return fmt.Errorf("persist state: %w", err)
	}
	s.state = next
	return nil
}
