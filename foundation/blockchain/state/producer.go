package state

import (
	"context"
	"errors"
	"fmt"

	"github.com/ardanlabs/powchain/foundation/blockchain/database"
)

// Set of errors returned when a block can't be produced.
var (
	ErrNoTransactions  = errors.New("no transactions in mempool")
	ErrProducerBusy    = errors.New("block production already running")
	ErrProducerStopped = errors.New("block production stopped")
)

// ProducerStatus represents the lifecycle of the block producer.
type ProducerStatus int32

// Set of producer states.
const (
	ProducerIdle ProducerStatus = iota
	ProducerRunning
	ProducerStopped
)

// String implements the Stringer interface.
func (ps ProducerStatus) String() string {
	switch ps {
	case ProducerIdle:
		return "IDLE"
	case ProducerRunning:
		return "RUNNING"
	case ProducerStopped:
		return "STOPPED"
	}

	return fmt.Sprintf("ProducerStatus(%d)", int32(ps))
}

// =============================================================================

// Status returns the current status of the block producer.
func (s *State) Status() ProducerStatus {
	return ProducerStatus(s.producer.Load())
}

// Stop moves the producer to STOPPED and abandons a round in flight. No
// block is produced until Start is called.
func (s *State) Stop() {
	s.producer.Store(int32(ProducerStopped))

	s.cycleMu.Lock()
	cancel := s.cancelCycle
	s.cycleMu.Unlock()

	if cancel != nil {
		cancel()
	}

	if s.engine.StopFindingConsensus() {
		s.evHandler("state: Stop: MINING: in flight round stopped")
	}
}

// Start moves a stopped producer back to IDLE. It reports whether the
// producer was stopped.
func (s *State) Start() bool {
	return s.producer.CompareAndSwap(int32(ProducerStopped), int32(ProducerIdle))
}

// ProduceBlock runs one full production cycle: pull the pending
// transactions, reach consensus on top of the latest block and store the
// result. Only one cycle runs at a time.
func (s *State) ProduceBlock(ctx context.Context) (database.Block, error) {
	if !s.producer.CompareAndSwap(int32(ProducerIdle), int32(ProducerRunning)) {
		if s.Status() == ProducerStopped {
			return database.Block{}, ErrProducerStopped
		}
		return database.Block{}, ErrProducerBusy
	}

	// A Stop during the cycle wins over the return to IDLE.
	defer s.producer.CompareAndSwap(int32(ProducerRunning), int32(ProducerIdle))

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	s.setCancelCycle(cancel)
	defer s.setCancelCycle(nil)

	// A Stop that landed before the cancel func was registered.
	if s.Status() == ProducerStopped {
		return database.Block{}, ErrProducerStopped
	}

	s.evHandler("state: ProduceBlock: MINING: fetch pending transactions: maxBytes[%d]", s.maxBlockBytes)

	trans, err := s.mempool.FetchPending(s.maxBlockBytes)
	if err != nil {
		return database.Block{}, err
	}

	if len(trans) == 0 {
		return database.Block{}, ErrNoTransactions
	}

	s.evHandler("state: ProduceBlock: MINING: reach consensus: txs[%d]", len(trans))

	agreement, err := s.engine.ReachConsensus(ctx, trans, s.db.LatestBlock())
	if err != nil {
		if s.Status() == ProducerStopped {
			return database.Block{}, fmt.Errorf("%w: %w", ErrProducerStopped, err)
		}
		return database.Block{}, err
	}

	// The engine may finish its round before it sees the Stop.
	if s.Status() == ProducerStopped {
		s.evHandler("state: ProduceBlock: MINING: producer stopped, block discarded: %s", agreement.Block)
		return database.Block{}, ErrProducerStopped
	}

	s.evHandler("state: ProduceBlock: MINING: validate and save block")

	block, err := s.db.SaveValidated(agreement.Block)
	if err != nil {
		return database.Block{}, err
	}

	s.applyBlock(block)

	return block, nil
}

func (s *State) setCancelCycle(cancel context.CancelFunc) {
	s.cycleMu.Lock()
	defer s.cycleMu.Unlock()

	s.cancelCycle = cancel
}
