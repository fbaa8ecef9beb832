package bot

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"binance-momentum-bot-go/internal/breaker"
	"binance-momentum-bot-go/internal/exchange"
	"binance-momentum-bot-go/internal/models"
	"binance-momentum-bot-go/internal/notifier"
	"binance-momentum-bot-go/internal/persistence"
	"binance-momentum-bot-go/internal/signal"
	"binance-momentum-bot-go/internal/statestore"
)

// scriptedStrategy lets a test dictate the next action without driving real
// indicator math through candles.
type scriptedStrategy struct {
	mu   sync.Mutex
	next models.Action
}

func (s *scriptedStrategy) Name() string                { return "scripted" }
func (s *scriptedStrategy) Observe(models.Candle) error { return nil }
func (s *scriptedStrategy) Evaluate(models.Position, float64) models.Action {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.next
}
func (s *scriptedStrategy) set(a models.Action) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.next = a
}

type captureNotifier struct {
	mu     sync.Mutex
	events []notifier.Event
}

func (c *captureNotifier) Emit(ev notifier.Event) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, ev)
}

func (c *captureNotifier) kinds() []notifier.Kind {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]notifier.Kind, 0, len(c.events))
	for _, ev := range c.events {
		out = append(out, ev.Kind)
	}
	return out
}

type fixture struct {
	bot      *Bot
	strategy *scriptedStrategy
	paper    *exchange.PaperExchange
	store    *statestore.Store
	breaker  *breaker.Breaker
	notify   *captureNotifier
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	dir := t.TempDir()

	cfg := &models.Config{
		Symbol:                    "PENGUUSDT",
		Timeframe:                 "30m",
		PositionSizePercent:       1.0,
		MinNotionalUSD:            10,
		LotStepSize:               0.0001,
		StopLossPercent:           3.0,
		MakerFeeRate:              0.0002,
		TakerFeeRate:              0.0005,
		CircuitBreakerErrors:      5,
		CircuitBreakerWindowHours: 1,
		StatusIntervalSec:         600,
	}

	repo, err := persistence.NewFileRepository(filepath.Join(dir, "state.json"))
	require.NoError(t, err)
	store := statestore.New(repo, zap.NewNop().Sugar())
	require.NoError(t, store.Load(cfg.Symbol))

	brk := breaker.New(cfg.CircuitBreakerErrors, time.Hour, time.Hour, zap.NewNop().Sugar())
	strat := &scriptedStrategy{}
	paper := exchange.NewPaperExchange(1000, cfg.TakerFeeRate)
	notify := &captureNotifier{}

	b := New(Options{
		Config:   cfg,
		Exchange: paper,
		Store:    store,
		Breaker:  brk,
		Strategy: strat,
		Signals:  signal.NewFileSource(filepath.Join(dir, "signals.json")),
		Notifier: notify,
		Logger:   zap.NewNop().Sugar(),
	})
	return &fixture{bot: b, strategy: strat, paper: paper, store: store, breaker: brk, notify: notify}
}

func candlesClosingAt(close float64) []models.Candle {
	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	out := make([]models.Candle, 40)
	for i := range out {
		out[i] = models.Candle{
			OpenTime: base.Add(time.Duration(i) * 30 * time.Minute),
			Open:     close, High: close, Low: close, Close: close,
			Volume: 1000,
		}
	}
	return out
}

func advanceCandle(f *fixture, close float64) {
	candles := candlesClosingAt(close)
	last := &candles[len(candles)-1]
	last.OpenTime = f.bot.lastCandleTime.Add(30 * time.Minute)
	last.Close = close
	f.paper.SetCandles(candles)
}

func TestCycleOpensLongAndPersists(t *testing.T) {
	f := newFixture(t)
	f.paper.SetCandles(candlesClosingAt(0.04))
	f.strategy.set(models.Action{
		Type:         models.ActionOpenLong,
		Reason:       "stochrsi oversold",
		ExpectedExit: 0.042,
	})

	f.bot.Cycle(context.Background())

	orders := f.paper.Orders()
	require.Len(t, orders, 1)
	assert.InDelta(t, 250, orders[0].FilledQuantity, 1e-9) // 1% of 1000 USD at 0.04
	assert.InDelta(t, 0.04, orders[0].FilledPrice, 1e-9)

	snap := f.store.Snapshot()
	require.Equal(t, models.Long, snap.Position.Side)
	assert.InDelta(t, 0.04*0.97, snap.Position.StopLossPrice, 1e-9)
	assert.Contains(t, f.notify.kinds(), notifier.TradeOpened)
}

func TestCycleIgnoresStaleCandles(t *testing.T) {
	f := newFixture(t)
	f.paper.SetCandles(candlesClosingAt(0.04))
	f.bot.Cycle(context.Background())
	first := f.bot.lastCandleTime

	// Same window again: nothing new to observe, cursor stays put.
	f.bot.Cycle(context.Background())
	assert.Equal(t, first, f.bot.lastCandleTime)
}

func TestFiveTransientErrorsPauseTradingWithoutContactingExchange(t *testing.T) {
	f := newFixture(t)

	for i := 0; i < 5; i++ {
		f.paper.FailNext(&models.TransientIOError{Op: "klines", Err: errors.New("dial tcp: timeout")})
		f.bot.Cycle(context.Background())
	}

	snap := f.store.Snapshot()
	require.Equal(t, models.BreakerPaused, snap.BreakerStatus)
	require.NotNil(t, snap.PausedUntil)
	assert.Len(t, snap.ErrorLog, 5)
	assert.Contains(t, f.notify.kinds(), notifier.BreakerPaused)

	// The connection recovers and the strategy wants in, but the pause
	// must suppress the entry before any order is placed.
	f.paper.SetCandles(candlesClosingAt(0.04))
	f.strategy.set(models.Action{Type: models.ActionOpenLong, ExpectedExit: 0.042})
	f.bot.Cycle(context.Background())

	assert.Empty(t, f.paper.Orders(), "no order may reach the exchange while paused")
	assert.Equal(t, models.Flat, f.store.Snapshot().Position.Side)
}

func TestCloseAllowedWhilePaused(t *testing.T) {
	f := newFixture(t)
	f.paper.SetCandles(candlesClosingAt(0.04))
	f.strategy.set(models.Action{Type: models.ActionOpenLong, ExpectedExit: 0.042})
	f.bot.Cycle(context.Background())
	require.Equal(t, models.Long, f.store.Snapshot().Position.Side)

	for i := 0; i < 5; i++ {
		f.paper.FailNext(&models.TransientIOError{Op: "klines", Err: errors.New("timeout")})
		f.bot.Cycle(context.Background())
	}
	require.Equal(t, models.BreakerPaused, f.store.Snapshot().BreakerStatus)

	// Price has run to the target; the close passes the breaker gate.
	advanceCandle(f, 0.042)
	f.strategy.set(models.Action{Type: models.ActionClose, Reason: "overbought", ExpectedExit: 0.042})
	f.bot.Cycle(context.Background())

	snap := f.store.Snapshot()
	assert.Equal(t, models.Flat, snap.Position.Side)
	require.Len(t, snap.ROILedger, 1)
	assert.Greater(t, snap.ROILedger[0].RealizedPnL, 0.0)
}

func TestStopLossCloseBypassesFeeFilter(t *testing.T) {
	f := newFixture(t)
	f.paper.SetCandles(candlesClosingAt(0.04))
	f.strategy.set(models.Action{Type: models.ActionOpenLong, ExpectedExit: 0.042})
	f.bot.Cycle(context.Background())
	require.Equal(t, models.Long, f.store.Snapshot().Position.Side)

	// Price crashes through the 3% stop. The close is a loss and would
	// never clear the fee filter, but capital preservation wins.
	f.strategy.set(models.Action{})
	advanceCandle(f, 0.0382)
	f.bot.Cycle(context.Background())

	snap := f.store.Snapshot()
	assert.Equal(t, models.Flat, snap.Position.Side)
	require.Len(t, snap.ROILedger, 1)
	assert.Less(t, snap.ROILedger[0].RealizedPnL, 0.0)
}

func TestUnprofitableCloseDeferred(t *testing.T) {
	f := newFixture(t)
	f.paper.SetCandles(candlesClosingAt(0.04))
	f.strategy.set(models.Action{Type: models.ActionOpenLong, ExpectedExit: 0.042})
	f.bot.Cycle(context.Background())

	// A close at a hair above entry cannot cover fees; stay in the trade.
	f.strategy.set(models.Action{Type: models.ActionClose, Reason: "overbought"})
	advanceCandle(f, 0.040001)
	f.bot.Cycle(context.Background())

	snap := f.store.Snapshot()
	assert.Equal(t, models.Long, snap.Position.Side)
	assert.Empty(t, snap.ROILedger)
}

func TestSizingRejectionDoesNotTripBreaker(t *testing.T) {
	f := newFixture(t)

	// Tiny equity: 1% of 50 USD is far below the 10 USD minimum notional.
	tiny := exchange.NewPaperExchange(50, 0.0005)
	tiny.SetCandles(candlesClosingAt(0.04))
	f.bot.exchange = tiny
	f.strategy.set(models.Action{Type: models.ActionOpenLong, ExpectedExit: 0.042})

	for i := 0; i < 10; i++ {
		f.bot.Cycle(context.Background())
	}

	snap := f.store.Snapshot()
	assert.Empty(t, tiny.Orders())
	assert.Equal(t, models.BreakerRunning, snap.BreakerStatus, "risk rejections are not faults")
	assert.Empty(t, snap.ErrorLog)
}

// orderFailingExchange lets market data and equity succeed while the order
// endpoint itself fails.
type orderFailingExchange struct {
	exchange.Exchange
	err error
}

func (e *orderFailingExchange) SubmitOrder(ctx context.Context, symbol string, side models.Side, quantity, priceHint float64) (*models.OrderResult, error) {
	return nil, e.err
}

func TestOrderFailureRecordedAgainstBreaker(t *testing.T) {
	f := newFixture(t)
	f.paper.SetCandles(candlesClosingAt(0.04))
	f.bot.exchange = &orderFailingExchange{
		Exchange: f.paper,
		err:      &models.TransientIOError{Op: "create order", Err: errors.New("503")},
	}
	f.strategy.set(models.Action{Type: models.ActionOpenLong, ExpectedExit: 0.042})

	f.bot.Cycle(context.Background())

	snap := f.store.Snapshot()
	assert.Equal(t, models.Flat, snap.Position.Side, "no fill means no position")
	assert.Len(t, snap.ErrorLog, 1)
	assert.Equal(t, models.BreakerRunning, snap.BreakerStatus, "one failure is below the threshold")
}

func TestManualSignalConsumedOnce(t *testing.T) {
	dir := t.TempDir()
	f := newFixture(t)
	queue := filepath.Join(dir, "signals.json")
	f.bot.signals = signal.NewFileSource(queue)

	writeSignals(t, queue, []models.ManualSignal{
		{ID: "ops-1", IssuedBy: "ops", Action: models.Buy, IssuedAt: time.Now().UTC()},
	})

	f.paper.SetCandles(candlesClosingAt(0.04))
	f.bot.Cycle(context.Background())
	require.Equal(t, models.Long, f.store.Snapshot().Position.Side)
	require.Len(t, f.paper.Orders(), 1)

	// The same signal never fires again, even with the position closed.
	_, err := f.store.ClosePosition(0.042, 0.01, time.Now().UTC().Add(time.Minute))
	require.NoError(t, err)
	advanceCandle(f, 0.04)
	f.bot.Cycle(context.Background())
	assert.Len(t, f.paper.Orders(), 1, "consumed signals stay consumed")
}

func TestInvalidManualSignalDropped(t *testing.T) {
	dir := t.TempDir()
	f := newFixture(t)
	queue := filepath.Join(dir, "signals.json")
	f.bot.signals = signal.NewFileSource(queue)

	// SELL with no open position is structurally invalid: consumed, no trade.
	writeSignals(t, queue, []models.ManualSignal{
		{ID: "ops-2", IssuedBy: "ops", Action: models.Sell, IssuedAt: time.Now().UTC()},
	})

	f.paper.SetCandles(candlesClosingAt(0.04))
	f.bot.Cycle(context.Background())
	assert.Empty(t, f.paper.Orders())

	pending, err := signal.NewFileSource(queue).PollPending(context.Background())
	require.NoError(t, err)
	assert.Empty(t, pending, "invalid signals are consumed so they cannot fire later")
}

func TestPollIntervalDerivedFromTimeframe(t *testing.T) {
	f := newFixture(t)

	f.bot.cfg.Timeframe = "30m"
	assert.Equal(t, 3*time.Minute, f.bot.pollInterval())

	f.bot.cfg.Timeframe = "1m"
	assert.Equal(t, 15*time.Second, f.bot.pollInterval(), "floor keeps the API rate sane")

	f.bot.cfg.Timeframe = "1d"
	assert.Equal(t, 5*time.Minute, f.bot.pollInterval(), "ceiling catches candle closes promptly")

	f.bot.cfg.Timeframe = "garbage"
	assert.Equal(t, 30*time.Second, f.bot.pollInterval())
}

func TestStopLossPriceBySide(t *testing.T) {
	assert.InDelta(t, 97, stopLossPrice(models.Long, 100, 3), 1e-9)
	assert.InDelta(t, 103, stopLossPrice(models.Short, 100, 3), 1e-9)
}

func writeSignals(t *testing.T, path string, signals []models.ManualSignal) {
	t.Helper()
	data, err := json.Marshal(signals)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, data, 0o644))
}
