package worker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ardanlabs/powchain/foundation/blockchain/consensus"
	"github.com/ardanlabs/powchain/foundation/blockchain/database"
	"github.com/ardanlabs/powchain/foundation/blockchain/state"
	"github.com/ardanlabs/powchain/foundation/metrics"
)

// Default scheduling values.
const (
	DefaultInitialDelay   = 5 * time.Second
	DefaultPunchRate      = 10 * time.Second
	DefaultProcessTimeout = 5 * time.Minute
)

// Producer represents the block producer the scheduler drives.
type Producer interface {
	Status() state.ProducerStatus
	ProduceBlock(ctx context.Context) (database.Block, error)
}

// SyncReporter reports whether the node is catching up with its peers.
type SyncReporter interface {
	SyncStatus() state.SyncStatus
}

// SchedulerConfig represents the configuration required to construct
// a scheduler.
type SchedulerConfig struct {
	InitialDelay   time.Duration
	PunchRate      time.Duration
	ProcessTimeout time.Duration
	Producer       Producer
	Sync           SyncReporter
	OnProduced     func(block database.Block)
	EvHandler      func(v string, args ...any)
}

// Scheduler triggers block production on a fixed period.
type Scheduler struct {
	initialDelay   time.Duration
	punchRate      time.Duration
	processTimeout time.Duration
	producer       Producer
	sync           SyncReporter
	onProduced     func(block database.Block)
	evHandler      func(v string, args ...any)
}

// NewScheduler constructs a scheduler. Zero durations are replaced with
// the defaults.
func NewScheduler(cfg SchedulerConfig) *Scheduler {
	if cfg.InitialDelay <= 0 {
		cfg.InitialDelay = DefaultInitialDelay
	}

	if cfg.PunchRate <= 0 {
		cfg.PunchRate = DefaultPunchRate
	}

	if cfg.ProcessTimeout <= 0 {
		cfg.ProcessTimeout = DefaultProcessTimeout
	}

	if cfg.OnProduced == nil {
		cfg.OnProduced = func(block database.Block) {}
	}

	if cfg.EvHandler == nil {
		cfg.EvHandler = func(v string, args ...any) {}
	}

	return &Scheduler{
		initialDelay:   cfg.InitialDelay,
		punchRate:      cfg.PunchRate,
		processTimeout: cfg.ProcessTimeout,
		producer:       cfg.Producer,
		sync:           cfg.Sync,
		onProduced:     cfg.OnProduced,
		evHandler:      cfg.EvHandler,
	}
}

// Run waits the initial delay and then ticks every punch rate until the
// context is cancelled. A signal on the trigger channel runs a tick early.
func (s *Scheduler) Run(ctx context.Context, trigger <-chan struct{}) {
	s.evHandler("worker: scheduler: G started: delay[%v]: rate[%v]", s.initialDelay, s.punchRate)
	defer s.evHandler("worker: scheduler: G completed")

	delay := time.NewTimer(s.initialDelay)
	select {
	case <-delay.C:
	case <-ctx.Done():
		delay.Stop()
		return
	}

	ticker := time.NewTicker(s.punchRate)
	defer ticker.Stop()

	s.Tick(ctx)

	for {
		select {
		case <-ticker.C:
			s.Tick(ctx)
		case <-trigger:
			s.Tick(ctx)
		case <-ctx.Done():
			s.evHandler("worker: scheduler: received shut signal")
			return
		}
	}
}

// Tick runs one guarded production cycle. The cycle is skipped while the
// node syncs or the producer isn't idle. Errors and panics are logged and
// never escape. It reports whether a block was produced.
func (s *Scheduler) Tick(ctx context.Context) (produced bool) {
	if status := s.sync.SyncStatus(); status == state.SyncInProgress {
		s.evHandler("worker: scheduler: tick: skipped: sync[%s]", status)
		metrics.ProductionSkipped.Inc(1)
		return false
	}

	if status := s.producer.Status(); status != state.ProducerIdle {
		s.evHandler("worker: scheduler: tick: skipped: producer[%s]", status)
		metrics.ProductionSkipped.Inc(1)
		return false
	}

	defer func() {
		if r := recover(); r != nil {
			s.evHandler("worker: scheduler: tick: PANIC: %s", fmt.Sprint(r))
			metrics.ProductionFailures.Inc(1)
			produced = false
		}
	}()

	ctx, cancel := context.WithTimeout(ctx, s.processTimeout)
	defer cancel()

	t := time.Now()
	block, err := s.producer.ProduceBlock(ctx)
	duration := time.Since(t)

	s.evHandler("worker: scheduler: tick: MINING: duration[%v]", duration)

	if err != nil {
		switch {
		case errors.Is(err, state.ErrNoTransactions):
			s.evHandler("worker: scheduler: tick: MINING: no transactions in mempool")
		case errors.Is(err, state.ErrProducerBusy), errors.Is(err, state.ErrProducerStopped):
			s.evHandler("worker: scheduler: tick: skipped: %s", err)
			metrics.ProductionSkipped.Inc(1)
		case errors.Is(err, consensus.ErrStopped):
			s.evHandler("worker: scheduler: tick: MINING: CANCEL: %s", err)
		default:
			s.evHandler("worker: scheduler: tick: MINING: ERROR: %s", err)
			metrics.ProductionFailures.Inc(1)
		}
		return false
	}

	s.evHandler("worker: scheduler: tick: MINING: produced blk[%d]: hash[%s]", block.Header.Number, block.Hash.Short())

	s.onProduced(block)

	return true
}
