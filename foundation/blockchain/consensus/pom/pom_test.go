package pom_test

import (
	"context"
	"errors"
	"testing"

	"github.com/ardanlabs/powchain/foundation/blockchain/consensus"
	"github.com/ardanlabs/powchain/foundation/blockchain/consensus/pom"
	"github.com/ardanlabs/powchain/foundation/blockchain/database"
)

func TestNotImplemented(t *testing.T) {
	var engine consensus.Engine = pom.New()

	_, err := engine.ReachConsensus(context.Background(), nil, database.Block{Hash: "00"})
	if !errors.Is(err, consensus.ErrNotImplemented) {
		t.Fatalf("Should fail every round as not implemented, got %v", err)
	}

	if engine.StopFindingConsensus() || engine.IsMining() {
		t.Fatalf("Should never report a round in flight.")
	}

	if err := consensus.ValidateKind(consensus.KindPoM); !errors.Is(err, consensus.ErrNotImplemented) {
		t.Fatalf("Should not accept the majority kind for a node, got %v", err)
	}

	if err := consensus.ValidateKind(consensus.KindPoW); err != nil {
		t.Fatalf("Should accept the proof of work kind: %s", err)
	}
}
