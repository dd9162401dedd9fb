// Package state is the core API for the blockchain and implements all the
// business rules and processing.
package state

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/ardanlabs/powchain/foundation/blockchain/consensus"
	"github.com/ardanlabs/powchain/foundation/blockchain/database"
	"github.com/ardanlabs/powchain/foundation/blockchain/mempool"
	"github.com/ardanlabs/powchain/foundation/blockchain/peer"
)

// DefaultMaxBlockBytes is the encoded size budget of the transactions that
// go into one block.
const DefaultMaxBlockBytes = 1 << 20

// =============================================================================

// EventHandler defines a function that is called when events
// occur in the processing of persisting blocks.
type EventHandler func(v string, args ...any)

// Worker interface represents the behavior required to be implemented by any
// package providing support for block production, peer updates, and
// transaction sharing.
type Worker interface {
	Shutdown()
	SignalProduce()
	SignalShareTx(tx database.Transaction)
	SignalSync()
}

// =============================================================================

// Config represents the configuration required to start
// the blockchain node.
type Config struct {
	Host          string
	Database      *database.Database
	Mempool       *mempool.Mempool
	Engine        consensus.Engine
	KnownPeers    *peer.PeerSet
	MaxBlockBytes int
	EvHandler     EventHandler
	BlockHandler  func(block database.Block)
}

// State manages the blockchain database.
type State struct {
	host          string
	maxBlockBytes int
	evHandler     EventHandler
	blockHandler  func(block database.Block)

	knownPeers *peer.PeerSet
	db         *database.Database
	mempool    *mempool.Mempool
	engine     consensus.Engine

	producer atomic.Int32
	sync     atomic.Int32

	cycleMu     sync.Mutex
	cancelCycle context.CancelFunc

	Worker Worker
}

// New constructs a new blockchain for data management.
func New(cfg Config) (*State, error) {

	// Build a safe event handler function for use.
	ev := func(v string, args ...any) {
		if cfg.EvHandler != nil {
			cfg.EvHandler(v, args...)
		}
	}

	bh := func(block database.Block) {
		if cfg.BlockHandler != nil {
			cfg.BlockHandler(block)
		}
	}

	if cfg.MaxBlockBytes == 0 {
		cfg.MaxBlockBytes = DefaultMaxBlockBytes
	}

	knownPeers := cfg.KnownPeers
	if knownPeers == nil {
		knownPeers = peer.NewPeerSet()
	}

	state := State{
		host:          cfg.Host,
		maxBlockBytes: cfg.MaxBlockBytes,
		evHandler:     ev,
		blockHandler:  bh,

		knownPeers: knownPeers,
		db:         cfg.Database,
		mempool:    cfg.Mempool,
		engine:     cfg.Engine,

		Worker: noopWorker{},
	}

	state.producer.Store(int32(ProducerIdle))

	// A fresh node has to catch up with its peers before it produces.
	state.sync.Store(int32(SyncRequested))
	if knownPeers.Len() == 0 {
		state.sync.Store(int32(SyncDone))
	}

	// The Worker is replaced by the call to worker.Run, which registers
	// itself and starts the background operations for the node.

	return &state, nil
}

// Shutdown cleanly brings the node down.
func (s *State) Shutdown() error {

	// Make sure the database file is properly closed.
	defer func() {
		s.db.Close()
	}()

	// Stop all blockchain writing activity.
	s.Stop()
	s.Worker.Shutdown()

	return nil
}

// =============================================================================

// noopWorker lets the state be used before a worker registers itself.
type noopWorker struct{}

func (noopWorker) Shutdown() {}
func (noopWorker) SignalProduce() {}
func (noopWorker) SignalShareTx(tx database.Transaction) {}
func (noopWorker) SignalSync() {}
