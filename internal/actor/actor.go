// Package actor implements the single logical actor described in spec.md
// 4.1: one partition-of-one AgentState, mutated only on a serialized tick
// loop, with every external read/write routed through a command channel so
// two goroutines never touch state at once — grounded on the teacher's
// scheduler.go mutex-guarded currentBot pattern, generalized from a mutex
// to a channel since the actor's commands (admin HTTP calls) need to run
// arbitrary closures against state, not just swap a pointer.
package actor

import (
	"context"
	"sync"
	"time"

	"github.com/darkhorse-quant/sentinel-agent/internal/crisis"
	"github.com/darkhorse-quant/sentinel-agent/internal/dex"
	"github.com/darkhorse-quant/sentinel-agent/internal/domain"
	"github.com/darkhorse-quant/sentinel-agent/internal/equity"
	"github.com/darkhorse-quant/sentinel-agent/internal/metrics"
	"github.com/darkhorse-quant/sentinel-agent/internal/options"
	"github.com/darkhorse-quant/sentinel-agent/internal/ports"
	"github.com/darkhorse-quant/sentinel-agent/internal/signals"
	"github.com/darkhorse-quant/sentinel-agent/pkg/ledger"
	"github.com/darkhorse-quant/sentinel-agent/pkg/logger"
	"github.com/darkhorse-quant/sentinel-agent/pkg/persistence"
)

// tickInterval is the fixed 30s alarm cadence named in spec.md 4.1 step 10.
const tickInterval = 30 * time.Second

// command is a closure submitted by an external caller (the admin HTTP
// server) to run against state on the actor's own goroutine.
type command struct {
	run  func(state *domain.AgentState)
	done chan struct{}
}

// Actor owns the single AgentState exclusively. Nothing outside this
// package ever holds a writable reference to it (spec.md 3); every other
// caller goes through Submit.
type Actor struct {
	Broker  ports.Broker
	Equity  *equity.Engine
	Dex     *dex.Engine
	Crisis  *crisis.Engine
	Options *options.Engine
	Signals *signals.Aggregator
	Store   persistence.Store
	Ledger  *ledger.Ledger

	state   *domain.AgentState
	cmds    chan command
	cancel  context.CancelFunc
	stopped chan struct{}
	once    sync.Once
}

// New constructs an Actor over the given config, loading prior state from
// store if present (spec.md 4.1, "on construction it loads state, migrates
// missing config fields to defaults").
func New(cfg domain.Config, store persistence.Store) *Actor {
	state := domain.NewAgentState(domain.Migrate(cfg))

	var loaded domain.AgentState
	if err := store.Load(&loaded); err == nil {
		loaded.Config = domain.Migrate(loaded.Config)
		if loaded.DexPaperBalanceSOL <= 0 {
			loaded.DexPaperBalanceSOL = loaded.Config.DexStartingBalanceSOL
		}
		state = &loaded
	}

	return &Actor{
		Store:   store,
		state:   state,
		cmds:    make(chan command),
		stopped: make(chan struct{}),
	}
}

// Start launches the actor's single-goroutine command/tick loop. Calling
// Start twice is a no-op.
func (a *Actor) Start(parent context.Context) {
	a.once.Do(func() {
		ctx, cancel := context.WithCancel(parent)
		a.cancel = cancel
		go a.run(ctx)
	})
}

// Stop cancels the tick loop and blocks until the goroutine has exited.
func (a *Actor) Stop() {
	if a.cancel != nil {
		a.cancel()
	}
	<-a.stopped
}

// Submit runs fn against state on the actor's own goroutine and blocks
// until it completes, giving external callers (the admin server) a
// data-race-free read or mutation without a second lock.
func (a *Actor) Submit(fn func(state *domain.AgentState)) {
	done := make(chan struct{})
	select {
	case a.cmds <- command{run: fn, done: done}:
		<-done
	case <-a.stopped:
	}
}

// TriggerTick runs one tick synchronously on the actor's own goroutine and
// blocks until it (and its persistence save) completes — the admin
// surface's POST /trigger (spec.md 6).
func (a *Actor) TriggerTick(ctx context.Context) {
	a.Submit(func(state *domain.AgentState) {
		a.safeTick(ctx)
	})
}

func (a *Actor) run(ctx context.Context) {
	defer close(a.stopped)

	ticker := time.NewTicker(tickInterval)
	defer ticker.Stop()

	if a.state.Enabled {
		a.safeTick(ctx)
	}

	for {
		select {
		case <-ctx.Done():
			return
		case cmd := <-a.cmds:
			cmd.run(a.state)
			close(cmd.done)
		case <-ticker.C:
			a.safeTick(ctx)
		}
	}
}

// safeTick recovers from a panic inside a single tick so a bug in one
// engine never kills the process — the same defer-recover idiom the
// teacher uses around ResetStateForNewCycle — and always persists
// afterward regardless of how the tick ended (spec.md 4.1, "all errors
// inside a tick are caught and logged; the next alarm is always
// rescheduled").
func (a *Actor) safeTick(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			logger.Errorf("actor tick panic: %v", r)
			a.state.AppendLog("error", "tick_panic_recovered")
			metrics.TickPanicsTotal.Inc()
		}
		metrics.TicksTotal.Inc()
		a.flushDexLedger(ctx, a.state)
		if err := a.Store.Save(a.state); err != nil {
			logger.Errorf("actor state save failed: %v", err)
			a.state.AppendLog("error", "state_persist_failed: "+err.Error())
		}
	}()
	a.tick(ctx, time.Now())
}
