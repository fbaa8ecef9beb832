package bot

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"binance-momentum-bot-go/internal/breaker"
	"binance-momentum-bot-go/internal/decision"
	"binance-momentum-bot-go/internal/exchange"
	"binance-momentum-bot-go/internal/models"
	"binance-momentum-bot-go/internal/notifier"
	"binance-momentum-bot-go/internal/reporter"
	"binance-momentum-bot-go/internal/risk"
	"binance-momentum-bot-go/internal/signal"
	"binance-momentum-bot-go/internal/statestore"
)

// candleWindow is how many recent candles are requested per cycle; enough to
// re-seed the slowest indicator after a restart.
const candleWindow = 100

// Bot is the cycle driver. It owns no trading logic itself: each cycle it
// pulls candles, feeds the strategy, asks the decision machine for an action
// and routes the result through the fee filter, sizer, exchange and state
// store. Everything runs on one goroutine so the state store sees exactly
// one writer.
type Bot struct {
	cfg       *models.Config
	exchange  exchange.Exchange
	stream    *exchange.PriceStream
	store     *statestore.Store
	breaker   *breaker.Breaker
	machine   *decision.Machine
	strategy  decision.Strategy
	feeFilter *risk.FeeFilter
	sizer     *risk.Sizer
	signals   signal.Source
	notify    notifier.Notifier
	logger    *zap.SugaredLogger

	lastCandleTime time.Time
}

// Options carries the collaborators assembled in main.
type Options struct {
	Config    *models.Config
	Exchange  exchange.Exchange
	Stream    *exchange.PriceStream // may be nil (dry run, tests)
	Store     *statestore.Store
	Breaker   *breaker.Breaker
	Strategy  decision.Strategy
	Signals   signal.Source
	Notifier  notifier.Notifier
	Logger    *zap.SugaredLogger
}

// New wires a bot together.
func New(opts Options) *Bot {
	return &Bot{
		cfg:       opts.Config,
		exchange:  opts.Exchange,
		stream:    opts.Stream,
		store:     opts.Store,
		breaker:   opts.Breaker,
		machine:   decision.NewMachine(opts.Strategy),
		strategy:  opts.Strategy,
		feeFilter: risk.NewFeeFilter(opts.Config.MakerFeeRate, opts.Config.TakerFeeRate),
		sizer:     risk.NewSizer(opts.Config),
		signals:   opts.Signals,
		notify:    opts.Notifier,
		logger:    opts.Logger,
	}
}

// Run drives the bot until ctx is cancelled. A cycle in progress when the
// cancel arrives finishes its state commit before Run returns; the select
// only observes cancellation between cycles, never mid-commit.
func (b *Bot) Run(ctx context.Context) error {
	if b.stream != nil {
		b.stream.Start()
		defer b.stream.Stop()
	}

	cycleTicker := time.NewTicker(b.pollInterval())
	defer cycleTicker.Stop()
	stopLossTicker := time.NewTicker(5 * time.Second)
	defer stopLossTicker.Stop()
	statusTicker := time.NewTicker(time.Duration(b.cfg.StatusIntervalSec) * time.Second)
	defer statusTicker.Stop()

	b.logger.Infof("bot running: %s %s strategy=%s dry_run=%v",
		b.cfg.Symbol, b.cfg.Timeframe, b.strategy.Name(), b.cfg.DryRun)

	// One immediate cycle so a restart does not idle a full poll interval.
	b.Cycle(ctx)

	for {
		select {
		case <-ctx.Done():
			b.logger.Info("shutdown requested, final state already committed")
			b.logReport()
			return nil
		case <-cycleTicker.C:
			b.Cycle(ctx)
		case <-stopLossTicker.C:
			b.checkStopLoss(ctx)
		case <-statusTicker.C:
			b.emitStatus()
		}
	}
}

// Cycle runs one full decision cycle. Exported so replay harnesses and tests
// can drive the bot candle by candle.
func (b *Bot) Cycle(ctx context.Context) {
	candles, err := b.exchange.FetchRecentCandles(ctx, b.cfg.Symbol, b.cfg.Timeframe, candleWindow)
	if err != nil {
		b.recordFailure("MARKET_DATA", err)
		return
	}
	if len(candles) == 0 {
		return
	}

	warmingUp := false
	for _, c := range candles {
		if !c.OpenTime.After(b.lastCandleTime) {
			continue
		}
		if err := b.strategy.Observe(c); err != nil {
			warmingUp = true
		} else {
			warmingUp = false
		}
		b.lastCandleTime = c.OpenTime
	}
	if warmingUp {
		// Not a fault: the indicator simply needs more candles.
		b.logger.Debugf("indicator warming up, %d candles seen", len(candles))
		return
	}

	price := candles[len(candles)-1].Close
	if b.stream != nil {
		if p, at, ok := b.stream.Latest(); ok && at.After(b.lastCandleTime) {
			price = p
		}
	}

	b.refreshBreaker()

	manual := b.nextManualSignal(ctx)
	act := b.machine.Decide(b.store.Snapshot(), price, manual)
	if act.Manual && manual != nil {
		if err := b.signals.MarkConsumed(ctx, manual.ID); err != nil {
			b.logger.Warnf("failed to mark manual signal consumed: %v", err)
		}
	}

	b.execute(ctx, act, price)
}

// checkStopLoss runs the stop-loss rule against the live stream price in
// between candle closes. Only close actions can result, so it reuses the
// normal execution path.
func (b *Bot) checkStopLoss(ctx context.Context) {
	if b.stream == nil {
		return
	}
	price, _, ok := b.stream.Latest()
	if !ok {
		return
	}
	snapshot := b.store.Snapshot()
	if !snapshot.Position.IsOpen() {
		return
	}
	act := b.machine.Decide(snapshot, price, nil)
	if act.Type == models.ActionClose && act.StopLoss {
		b.execute(ctx, act, price)
	}
}

func (b *Bot) execute(ctx context.Context, act models.Action, price float64) {
	switch act.Type {
	case models.ActionOpenLong:
		b.executeOpen(ctx, models.Long, act, price)
	case models.ActionOpenShort:
		b.executeOpen(ctx, models.Short, act, price)
	case models.ActionClose:
		b.executeClose(ctx, act, price)
	default:
		if act.Reason != "" {
			b.logger.Debugf("no action: %s", act.Reason)
		}
	}
}

func (b *Bot) executeOpen(ctx context.Context, side models.PositionSide, act models.Action, price float64) {
	b.logger.Infof("open %s signal: %s", side, act.Reason)

	equity, err := b.exchange.GetEquity(ctx)
	if err != nil {
		b.recordFailure("ACCOUNT", err)
		return
	}

	quantity, err := b.sizer.Size(equity, price)
	if err != nil {
		// A sizing rejection is a correct risk decision, not a fault.
		b.logger.Warnf("entry dropped: %v", err)
		return
	}

	if !act.StopLoss {
		if _, err := b.feeFilter.Evaluate(quantity, price, act.ExpectedExit, side); err != nil {
			b.logger.Warnf("entry dropped: %v", err)
			return
		}
	}

	orderSide := models.Buy
	if side == models.Short {
		orderSide = models.Sell
	}
	result, err := b.exchange.SubmitOrder(ctx, b.cfg.Symbol, orderSide, quantity, price)
	if err != nil {
		b.recordFailure("ORDER", err)
		return
	}

	pos := models.Position{
		Side:          side,
		EntryPrice:    result.FilledPrice,
		Quantity:      result.FilledQuantity,
		EntryTime:     time.Now().UTC(),
		StopLossPrice: stopLossPrice(side, result.FilledPrice, b.cfg.StopLossPercent),
	}
	if err := b.store.OpenPosition(pos); err != nil {
		// The order filled but the commit failed; surface loudly, the
		// operator has to reconcile manually.
		b.recordFailure("STATE", err)
		b.notify.Emit(notifier.Event{
			Kind:      notifier.FatalError,
			Timestamp: time.Now().UTC(),
			Message:   fmt.Sprintf("order filled but state commit failed: %v", err),
		})
		return
	}

	b.notify.Emit(notifier.Event{
		Kind:      notifier.TradeOpened,
		Timestamp: pos.EntryTime,
		Message:   act.Reason,
		Position:  &pos,
	})
}

func (b *Bot) executeClose(ctx context.Context, act models.Action, price float64) {
	snapshot := b.store.Snapshot()
	pos := snapshot.Position
	if !pos.IsOpen() {
		return
	}
	b.logger.Infof("close signal: %s", act.Reason)

	// Stop-loss closes bypass the profitability check entirely.
	if !act.StopLoss {
		if _, err := b.feeFilter.Evaluate(pos.Quantity, pos.EntryPrice, price, pos.Side); err != nil {
			b.logger.Warnf("close deferred: %v", err)
			return
		}
	}

	orderSide := models.Sell
	if pos.Side == models.Short {
		orderSide = models.Buy
	}
	result, err := b.exchange.SubmitOrder(ctx, b.cfg.Symbol, orderSide, pos.Quantity, price)
	if err != nil {
		b.recordFailure("ORDER", err)
		return
	}

	record, err := b.store.ClosePosition(result.FilledPrice, result.FeePaid, time.Now().UTC())
	if err != nil {
		b.recordFailure("STATE", err)
		return
	}

	b.notify.Emit(notifier.Event{
		Kind:      notifier.TradeClosed,
		Timestamp: record.CloseTime,
		Message:   act.Reason,
		Trade:     &record,
	})
}

// refreshBreaker lets an expired pause flip back to RUNNING, persisting and
// announcing the resume.
func (b *Bot) refreshBreaker() {
	allowed, transition := b.breaker.Allow(time.Now().UTC())
	if transition == nil {
		return
	}
	if allowed {
		if err := b.store.SetBreaker(models.BreakerRunning, nil, nil); err != nil {
			b.logger.Errorf("failed to persist breaker resume: %v", err)
			return
		}
		b.notify.Emit(notifier.Event{
			Kind:      notifier.BreakerResumed,
			Timestamp: time.Now().UTC(),
		})
	}
}

// recordFailure feeds a failure into the circuit breaker (when it qualifies)
// and persists the resulting transition, if any.
func (b *Bot) recordFailure(category string, err error) {
	b.logger.Errorf("%s failure: %v", category, err)
	if !models.CountsTowardBreaker(err) {
		return
	}

	now := time.Now().UTC()
	ev, transition := b.breaker.Record(category, err.Error(), now)

	window := time.Duration(b.cfg.CircuitBreakerWindowHours) * time.Hour
	if serr := b.store.RecordError(ev, window); serr != nil {
		b.logger.Errorf("failed to persist error event: %v", serr)
	}

	if transition != nil && transition.To == models.BreakerPaused {
		until := transition.PausedUntil
		if serr := b.store.SetBreaker(models.BreakerPaused, &until, b.breaker.Events()); serr != nil {
			b.logger.Errorf("failed to persist breaker pause: %v", serr)
		}
		b.notify.Emit(notifier.Event{
			Kind:      notifier.BreakerPaused,
			Timestamp: now,
			Message:   fmt.Sprintf("paused until %s", until.Format(time.RFC3339)),
		})
	}
}

func (b *Bot) nextManualSignal(ctx context.Context) *models.ManualSignal {
	pending, err := b.signals.PollPending(ctx)
	if err != nil {
		b.logger.Warnf("manual signal poll failed: %v", err)
		return nil
	}
	if len(pending) == 0 {
		return nil
	}
	return &pending[0]
}

func (b *Bot) emitStatus() {
	snapshot := b.store.Snapshot()
	metrics := reporter.Summarize(snapshot.ROILedger)
	b.notify.Emit(notifier.Event{
		Kind:      notifier.StatusUpdate,
		Timestamp: time.Now().UTC(),
		Message: fmt.Sprintf("position=%s breaker=%s trades=%d net_pnl=%.4f",
			snapshot.Position.Side, snapshot.BreakerStatus, metrics.TotalTrades, metrics.NetPnL),
	})
}

func (b *Bot) logReport() {
	snapshot := b.store.Snapshot()
	if len(snapshot.ROILedger) == 0 {
		return
	}
	b.logger.Infof("final performance report:\n%s", reporter.Render(reporter.Summarize(snapshot.ROILedger)))
}

// pollInterval derives the cycle frequency from the timeframe: frequent
// enough to catch a candle close promptly, without hammering the API.
func (b *Bot) pollInterval() time.Duration {
	d, err := parseTimeframe(b.cfg.Timeframe)
	if err != nil || d <= 0 {
		return 30 * time.Second
	}
	interval := d / 10
	if interval < 15*time.Second {
		interval = 15 * time.Second
	}
	if interval > 5*time.Minute {
		interval = 5 * time.Minute
	}
	return interval
}

func parseTimeframe(tf string) (time.Duration, error) {
	if tf == "" {
		return 0, fmt.Errorf("empty timeframe")
	}
	unit := tf[len(tf)-1]
	var n int
	if _, err := fmt.Sscanf(tf[:len(tf)-1], "%d", &n); err != nil {
		return 0, fmt.Errorf("bad timeframe %q: %w", tf, err)
	}
	switch unit {
	case 'm':
		return time.Duration(n) * time.Minute, nil
	case 'h':
		return time.Duration(n) * time.Hour, nil
	case 'd':
		return time.Duration(n) * 24 * time.Hour, nil
	}
	return 0, fmt.Errorf("bad timeframe unit %q", tf)
}

func stopLossPrice(side models.PositionSide, entry, stopLossPercent float64) float64 {
	pct := stopLossPercent / 100
	if side == models.Short {
		return entry * (1 + pct)
	}
	return entry * (1 - pct)
}
