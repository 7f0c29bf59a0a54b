package risk

import (
	"fmt"
	"sync/atomic"
	"time"
)

// ErrCircuitBreakerOpen means the breaker has tripped and order submission
// must be refused.
var ErrCircuitBreakerOpen = fmt.Errorf("circuit breaker open")

// CircuitBreakerConfig configures the live-trading order breaker. A
// threshold <= 0 disables that particular limit.
type CircuitBreakerConfig struct {
	// MaxConsecutiveErrors is the consecutive order-submission-failure cap.
	MaxConsecutiveErrors int64

	// DailyLossLimitCents is the day's max realized loss, in cents. Hitting
	// or crossing it trips the breaker immediately.
	DailyLossLimitCents int64
}

// CircuitBreaker guards AlpacaBroker.CreateOrder against a run of rejected
// orders or a blown daily loss limit, independent of the DEX engine's own
// breaker (internal/dex/breaker.go), which governs paper-trade exits only.
// The hot path uses atomics so a check never blocks order submission; config
// updates are rare and also go through atomics to keep this lock-free.
type CircuitBreaker struct {
	halted atomic.Bool

	consecutiveErrors atomic.Int64
	dailyPnlCents     atomic.Int64
	dayKey            atomic.Int64 // YYYYMMDD

	maxConsecutiveErrors atomic.Int64
	dailyLossLimitCents  atomic.Int64
}

func NewCircuitBreaker(cfg CircuitBreakerConfig) *CircuitBreaker {
	cb := &CircuitBreaker{}
	cb.SetConfig(cfg)
	return cb
}

func (cb *CircuitBreaker) SetConfig(cfg CircuitBreakerConfig) {
	if cb == nil {
		return
	}
	cb.maxConsecutiveErrors.Store(cfg.MaxConsecutiveErrors)
	cb.dailyLossLimitCents.Store(cfg.DailyLossLimitCents)
}

// Halt trips the breaker manually (e.g. an admin kill-switch).
func (cb *CircuitBreaker) Halt() {
	if cb == nil {
		return
	}
	cb.halted.Store(true)
}

// Resume clears a manual or automatic halt and zeroes the error streak.
func (cb *CircuitBreaker) Resume() {
	if cb == nil {
		return
	}
	cb.halted.Store(false)
	cb.consecutiveErrors.Store(0)
}

// AllowTrading is the hot-path check called before every order submission.
func (cb *CircuitBreaker) AllowTrading() error {
	if cb == nil {
		return nil
	}

	if cb.halted.Load() {
		return ErrCircuitBreakerOpen
	}

	maxErr := cb.maxConsecutiveErrors.Load()
	if maxErr > 0 && cb.consecutiveErrors.Load() >= maxErr {
		cb.halted.Store(true)
		return ErrCircuitBreakerOpen
	}

	limit := cb.dailyLossLimitCents.Load()
	if limit > 0 {
		cb.rollDayIfNeeded()
		pnl := cb.dailyPnlCents.Load()
		if pnl <= -limit {
			cb.halted.Store(true)
			return ErrCircuitBreakerOpen
		}
	}

	return nil
}

// OnSuccess clears the consecutive-error streak after a submission succeeds.
func (cb *CircuitBreaker) OnSuccess() {
	if cb == nil {
		return
	}
	cb.consecutiveErrors.Store(0)
}

// OnError increments the consecutive-error streak after a submission fails.
func (cb *CircuitBreaker) OnError() {
	if cb == nil {
		return
	}
	cb.consecutiveErrors.Add(1)
}

// AddPnLCents books a realized fill against today's running total; negative
// deltas are losses.
func (cb *CircuitBreaker) AddPnLCents(delta int64) {
	if cb == nil {
		return
	}
	cb.rollDayIfNeeded()
	cb.dailyPnlCents.Add(delta)
}

func (cb *CircuitBreaker) rollDayIfNeeded() {
	now := time.Now()
	key := int64(now.Year()*10000 + int(now.Month())*100 + now.Day())
	prev := cb.dayKey.Load()
	if prev == key {
		return
	}
	if cb.dayKey.CompareAndSwap(prev, key) {
		cb.dailyPnlCents.Store(0)
	}
}
