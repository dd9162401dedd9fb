// Package pom reserves the proof of majority consensus engine. It satisfies
// the engine contract but every round fails.
package pom

import (
	"context"
	"fmt"

	"github.com/ardanlabs/powchain/foundation/blockchain/consensus"
	"github.com/ardanlabs/powchain/foundation/blockchain/database"
)

// Engine is the proof of majority engine.
type Engine struct{}

// New constructs a proof of majority engine.
func New() *Engine {
	return &Engine{}
}

// ReachConsensus always fails with consensus.ErrNotImplemented.
func (*Engine) ReachConsensus(ctx context.Context, trans []database.Transaction, lastBlock database.Block) (consensus.Agreement, error) {
	return consensus.Agreement{}, fmt.Errorf("%w: %s", consensus.ErrNotImplemented, consensus.KindPoM)
}

// StopFindingConsensus has no round to stop.
func (*Engine) StopFindingConsensus() bool {
	return false
}

// IsMining is always false.
func (*Engine) IsMining() bool {
	return false
}
