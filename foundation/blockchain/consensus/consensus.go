// Package consensus defines the contract every consensus engine implements
// and the result of one consensus round.
package consensus

import (
	"context"
	"errors"
	"fmt"

	"github.com/ardanlabs/powchain/foundation/blockchain/database"
)

// Set of errors returned by consensus engines.
var (
	ErrReachingConsensusFailed = errors.New("reaching consensus failed")
	ErrStopped                 = errors.New("consensus round stopped")
	ErrNotImplemented          = errors.New("consensus not implemented")
)

// Set of engine kinds a node can be configured with.
const (
	KindPoW = "pow"
	KindPoM = "pom"
)

// Engine represents the behavior required to agree on the next block.
type Engine interface {
	ReachConsensus(ctx context.Context, trans []database.Transaction, lastBlock database.Block) (Agreement, error)
	StopFindingConsensus() bool
	IsMining() bool
}

// Agreement pairs a freshly produced block with the consent it was agreed
// with. It is owned by the caller of ReachConsensus for one cycle.
type Agreement struct {
	Block   database.Block
	Consent database.Consent
}

// ValidateKind checks the configured engine kind is one the node can run.
func ValidateKind(kind string) error {
	switch kind {
	case KindPoW:
		return nil
	case KindPoM:
		return fmt.Errorf("%w: %s", ErrNotImplemented, kind)
	}

	return fmt.Errorf("unknown consensus kind %q", kind)
}
