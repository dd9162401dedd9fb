// Package worker implements block production scheduling, peer updates,
// and transaction sharing for the blockchain.
package worker

import (
	"context"
	"sync"
	"time"

	"github.com/ardanlabs/powchain/foundation/blockchain/database"
	"github.com/ardanlabs/powchain/foundation/blockchain/state"
)

// peerUpdateInterval represents the interval of finding new peer nodes
// and updating the blockchain on disk with missing blocks.
const peerUpdateInterval = time.Minute

// Config represents the configuration the worker needs to schedule block
// production.
type Config struct {
	InitialDelay   time.Duration
	PunchRate      time.Duration
	ProcessTimeout time.Duration
}

// =============================================================================

// Worker manages the background workflows for the blockchain.
type Worker struct {
	state     *state.State
	scheduler *Scheduler
	wg        sync.WaitGroup
	ticker    *time.Ticker
	shut      chan struct{}
	cancel    context.CancelFunc
	produce   chan struct{}
	syncReq   chan struct{}
	txSharing chan database.Transaction
	evHandler state.EventHandler
}

// Run creates a worker, registers the worker with the state package, and
// starts up all the background processes.
func Run(st *state.State, cfg Config, evHandler state.EventHandler) *Worker {
	w := Worker{
		state:     st,
		ticker:    time.NewTicker(peerUpdateInterval),
		shut:      make(chan struct{}),
		produce:   make(chan struct{}, 1),
		syncReq:   make(chan struct{}, 1),
		txSharing: make(chan database.Transaction, maxTxShareRequests),
		evHandler: evHandler,
	}

	w.scheduler = NewScheduler(SchedulerConfig{
		InitialDelay:   cfg.InitialDelay,
		PunchRate:      cfg.PunchRate,
		ProcessTimeout: cfg.ProcessTimeout,
		Producer:       st,
		Sync:           st,
		OnProduced:     w.proposeBlock,
		EvHandler:      evHandler,
	})

	// Register this worker with the state package.
	st.Worker = &w

	// Update this node before starting any support G's.
	w.Sync()

	ctx, cancel := context.WithCancel(context.Background())
	w.cancel = cancel

	// Load the set of operations we need to run.
	operations := []func(){
		func() { w.scheduler.Run(ctx, w.produce) },
		w.syncOperations,
		w.shareTxOperations,
	}

	// Set waitgroup to match the number of G's we need for the set
	// of operations we have.
	g := len(operations)
	w.wg.Add(g)

	// We don't want to return until we know all the G's are up and running.
	hasStarted := make(chan bool)

	// Start all the operational G's.
	for _, op := range operations {
		go func(op func()) {
			defer w.wg.Done()
			hasStarted <- true
			op()
		}(op)
	}

	// Wait for the G's to report they are running.
	for range g {
		<-hasStarted
	}

	return &w
}

// =============================================================================
// These methods implement the state.Worker interface.

// Shutdown terminates the goroutines performing work.
func (w *Worker) Shutdown() {
	w.evHandler("worker: shutdown: started")
	defer w.evHandler("worker: shutdown: completed")

	w.evHandler("worker: shutdown: stop ticker")
	w.ticker.Stop()

	w.evHandler("worker: shutdown: terminate goroutines")
	w.cancel()
	close(w.shut)
	w.wg.Wait()
}

// SignalProduce asks the scheduler to run a production cycle ahead of the
// next tick. If there is already a signal pending, just return.
func (w *Worker) SignalProduce() {
	select {
	case w.produce <- struct{}{}:
		w.evHandler("worker: SignalProduce: production signaled")
	default:
	}
}

// SignalSync asks for a sync with the known peers. If there is already a
// signal pending, just return.
func (w *Worker) SignalSync() {
	select {
	case w.syncReq <- struct{}{}:
		w.evHandler("worker: SignalSync: sync signaled")
	default:
	}
}

// SignalShareTx signals a share transaction operation. If
// maxTxShareRequests signals exist in the channel, we won't send these.
func (w *Worker) SignalShareTx(tx database.Transaction) {
	select {
	case w.txSharing <- tx:
		w.evHandler("worker: SignalShareTx: share Tx signaled")
	default:
		w.evHandler("worker: SignalShareTx: queue full, transactions won't be shared.")
	}
}

// =============================================================================

// proposeBlock sends a produced block to the known peers. Log the error,
// but that's it.
func (w *Worker) proposeBlock(block database.Block) {
	if err := w.state.NetSendBlockToPeers(block); err != nil {
		w.evHandler("worker: proposeBlock: MINING: WARNING: %s", err)
	}
}

// isShutdown is used to test if a shutdown has been signaled.
func (w *Worker) isShutdown() bool {
	select {
	case <-w.shut:
		return true
	default:
		return false
	}
}
