// Package pow implements the proof of work consensus engine. A round builds
// the next block on top of the last accepted block and searches for a nonce
// that makes the block hash start with the required number of zeros.
package pow

import (
	"context"
	"fmt"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ardanlabs/powchain/foundation/blockchain/consensus"
	"github.com/ardanlabs/powchain/foundation/blockchain/database"
	"github.com/ardanlabs/powchain/foundation/blockchain/hashing"
	"github.com/ardanlabs/powchain/foundation/blockchain/merkle"
	"github.com/ardanlabs/powchain/foundation/metrics"
)

// DefaultTargetMiningRate is how long a round should take on average.
const DefaultTargetMiningRate = 30 * time.Second

// Config represents the configuration required to start the engine.
type Config struct {
	Hasher           hashing.Hasher
	TargetMiningRate time.Duration
	MaxNonce         uint64
	Now              func() time.Time
	EvHandler        func(v string, args ...any)
}

// Engine mines blocks. Only one round runs at a time.
type Engine struct {
	hasher           hashing.Hasher
	targetMiningRate time.Duration
	maxNonce         uint64
	now              func() time.Time
	evHandler        func(v string, args ...any)

	mu    sync.Mutex
	round *round
}

// round is the state of one in flight mining round.
type round struct {
	stop atomic.Bool
}

// New constructs a proof of work engine. Zero values in the config are
// replaced with the defaults.
func New(cfg Config) *Engine {
	if cfg.TargetMiningRate <= 0 {
		cfg.TargetMiningRate = DefaultTargetMiningRate
	}

	if cfg.MaxNonce == 0 {
		cfg.MaxNonce = math.MaxUint64
	}

	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	if cfg.EvHandler == nil {
		cfg.EvHandler = func(v string, args ...any) {}
	}

	return &Engine{
		hasher:           cfg.Hasher,
		targetMiningRate: cfg.TargetMiningRate,
		maxNonce:         cfg.MaxNonce,
		now:              cfg.Now,
		evHandler:        cfg.EvHandler,
	}
}

// TargetMiningRate returns the rate the difficulty is adjusted against.
func (e *Engine) TargetMiningRate() time.Duration {
	return e.targetMiningRate
}

// ReachConsensus constructs the next block with the specified transactions
// and mines it. The call blocks until a hash is found or the round is
// stopped through StopFindingConsensus or the context.
func (e *Engine) ReachConsensus(ctx context.Context, trans []database.Transaction, lastBlock database.Block) (consensus.Agreement, error) {
	if lastBlock.Hash == "" {
		return consensus.Agreement{}, fmt.Errorf("%w: no previous block to extend", consensus.ErrReachingConsensusFailed)
	}

	prevPow, err := lastBlock.ProofOfWork()
	if err != nil {
		return consensus.Agreement{}, fmt.Errorf("%w: previous block: %w", consensus.ErrNotImplemented, err)
	}

	r, err := e.startRound()
	if err != nil {
		return consensus.Agreement{}, err
	}
	defer e.endRound()

	// Construct a merkle root from the transactions for this block.
	root, err := merkle.CalculateRoot(e.hasher, trans)
	if err != nil {
		return consensus.Agreement{}, err
	}

	block := database.Block{
		Header: database.BlockHeader{
			Number:        lastBlock.Header.Number + 1,
			Version:       database.CurrentBlockVersion,
			PrevBlockHash: lastBlock.Hash,
			TimeStamp:     e.now().UTC().UnixMilli(),
			TransRoot:     root,
			Consent: database.NewPoWConsent(database.PoWConsent{
				Difficulty: prevPow.NextDifficulty(e.targetMiningRate),
			}),
		},
		Transactions: trans,
	}

	start := e.now()

	if err := e.performPOW(ctx, r, &block, start); err != nil {
		return consensus.Agreement{}, err
	}

	spent := e.now().Sub(start)
	block.Header.Consent.PoW.MillisecondsSpentMining = spent.Milliseconds()

	metrics.MiningDuration.Update(spent)
	metrics.MiningDifficulty.Update(int64(block.Header.Consent.PoW.Difficulty))
	metrics.BlocksMined.Inc(1)

	agreement := consensus.Agreement{
		Block:   block,
		Consent: block.Header.Consent,
	}

	return agreement, nil
}

// StopFindingConsensus signals the in flight round to stop. It reports
// whether there was a round to stop.
func (e *Engine) StopFindingConsensus() bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.round == nil {
		return false
	}

	e.round.stop.Store(true)
	e.evHandler("pow: StopFindingConsensus: MINING: stop signaled")

	return true
}

// IsMining reports whether a round is in flight.
func (e *Engine) IsMining() bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	return e.round != nil
}

// =============================================================================

func (e *Engine) startRound() (*round, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.round != nil {
		return nil, fmt.Errorf("%w: a round is already in progress", consensus.ErrReachingConsensusFailed)
	}

	e.round = &round{}

	return e.round, nil
}

func (e *Engine) endRound() {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.round = nil
}

// performPOW does the work of mining to find a valid hash for the specified
// block. Pointer semantics are being used since a nonce is being discovered.
func (e *Engine) performPOW(ctx context.Context, r *round, block *database.Block, start time.Time) error {
	pow := block.Header.Consent.PoW

	e.evHandler("pow: performPOW: MINING: started: blk[%d] difficulty[%d]", block.Header.Number, pow.Difficulty)
	defer e.evHandler("pow: performPOW: MINING: completed: blk[%d]", block.Header.Number)

	for _, tx := range block.Transactions {
		e.evHandler("pow: performPOW: MINING: tx[%s]", tx)
	}

	pow.Timestamp = start.UTC().UnixMilli()
	nonce := uint64(1)

	var attempts int64
	defer func() {
		metrics.MiningAttempts.Mark(attempts)
	}()

	for {
		if r.stop.Load() {
			e.evHandler("pow: performPOW: MINING: CANCELLED: attempts[%d]", attempts)
			return consensus.ErrStopped
		}

		if err := ctx.Err(); err != nil {
			e.evHandler("pow: performPOW: MINING: CANCELLED: attempts[%d]", attempts)
			return fmt.Errorf("%w: %w", consensus.ErrStopped, err)
		}

		attempts++
		if attempts%1_000_000 == 0 {
			e.evHandler("pow: performPOW: MINING: attempts[%d]", attempts)
		}

		pow.Nonce = nonce

		hash, err := block.CalculateHash(e.hasher)
		if err != nil {
			return err
		}

		if database.IsHashSolved(pow.Difficulty, hash) {
			block.Hash = hash
			e.evHandler("pow: performPOW: MINING: SOLVED: prevBlk[%s]: newBlk[%s]: attempts[%d]", block.Header.PrevBlockHash.Short(), hash.Short(), attempts)
			return nil
		}

		// Start a new search epoch when the nonce space is used up.
		nonce++
		if nonce == e.maxNonce {
			pow.Timestamp = e.now().UTC().UnixMilli()
			nonce = 1
			e.evHandler("pow: performPOW: MINING: nonce space exhausted, new epoch")
		}
	}
}
