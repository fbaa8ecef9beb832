package breaker

import (
	"crypto/sha1"
	"encoding/hex"
	"sync"
	"time"

	"go.uber.org/zap"

	"binance-momentum-bot-go/internal/models"
)

// Breaker is the sliding-window error monitor. Failures are recorded with
// timestamps; once the count inside the window reaches the threshold the
// breaker flips to PAUSED for a cooldown period, during which no new entry
// actions may be realized. Re-breaching while already PAUSED only extends
// the pause, it never stacks.
type Breaker struct {
	mu        sync.Mutex
	window    time.Duration
	threshold int
	cooldown  time.Duration
	events    []models.ErrorEvent
	status    models.BreakerStatus
	pausedTil time.Time
	logger    *zap.SugaredLogger
}

// Transition describes a status change produced by a Record or Allow call,
// so the caller can persist it and notify.
type Transition struct {
	To          models.BreakerStatus
	PausedUntil time.Time
}

// New builds a breaker. cooldown is how long a breach pauses trading.
func New(threshold int, window, cooldown time.Duration, logger *zap.SugaredLogger) *Breaker {
	return &Breaker{
		window:    window,
		threshold: threshold,
		cooldown:  cooldown,
		status:    models.BreakerRunning,
		logger:    logger,
	}
}

// Restore seeds the breaker from persisted state after a restart.
func (b *Breaker) Restore(state *models.BotState) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events[:0], state.ErrorLog...)
	b.status = state.BreakerStatus
	if state.PausedUntil != nil {
		b.pausedTil = *state.PausedUntil
	}
}

// Record appends a failure and returns a Transition if the breach threshold
// was crossed (or an existing pause was extended).
func (b *Breaker) Record(category, message string, now time.Time) (models.ErrorEvent, *Transition) {
	b.mu.Lock()
	defer b.mu.Unlock()

	ev := models.ErrorEvent{
		Timestamp: now,
		Category:  category,
		Digest:    digest(message),
	}
	b.events = append(b.events, ev)
	b.prune(now)

	if len(b.events) < b.threshold {
		return ev, nil
	}

	until := now.Add(b.cooldown)
	if b.status == models.BreakerPaused {
		if until.After(b.pausedTil) {
			b.pausedTil = until
			b.logger.Warnf("circuit breaker already paused, extending until %s", until.Format(time.RFC3339))
			return ev, &Transition{To: models.BreakerPaused, PausedUntil: until}
		}
		return ev, nil
	}

	b.status = models.BreakerPaused
	b.pausedTil = until
	b.logger.Errorf("circuit breaker tripped: %d errors within %s, trading paused until %s",
		len(b.events), b.window, until.Format(time.RFC3339))
	return ev, &Transition{To: models.BreakerPaused, PausedUntil: until}
}

// Allow reports whether new entries are currently permitted. When a pause has
// expired it flips back to RUNNING, clears the window and returns the resume
// transition alongside true.
func (b *Breaker) Allow(now time.Time) (bool, *Transition) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.status == models.BreakerRunning {
		return true, nil
	}
	if now.Before(b.pausedTil) {
		return false, nil
	}

	b.status = models.BreakerRunning
	b.events = nil
	b.logger.Info("circuit breaker cooldown elapsed, trading resumed")
	return true, &Transition{To: models.BreakerRunning}
}

// Status returns the current gate state without mutating it.
func (b *Breaker) Status() models.BreakerStatus {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.status
}

// Events returns a copy of the current window for persistence.
func (b *Breaker) Events() []models.ErrorEvent {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]models.ErrorEvent, len(b.events))
	copy(out, b.events)
	return out
}

func (b *Breaker) prune(now time.Time) {
	cutoff := now.Add(-b.window)
	kept := b.events[:0]
	for _, ev := range b.events {
		if ev.Timestamp.After(cutoff) {
			kept = append(kept, ev)
		}
	}
	b.events = kept
}

func digest(message string) string {
	sum := sha1.Sum([]byte(message))
	return hex.EncodeToString(sum[:8])
}
