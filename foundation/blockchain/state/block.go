package state

import (
	"errors"
	"fmt"

	"github.com/ardanlabs/powchain/foundation/blockchain/database"
	"github.com/ardanlabs/powchain/foundation/blockchain/peer"
	"github.com/ardanlabs/powchain/foundation/metrics"
)

// maxRewinds bounds how many local blocks a sync with one peer can remove
// while looking for the point where the chains agree.
const maxRewinds = 16

// =============================================================================

// ProcessProposedBlock takes a block received from a peer, validates it and
// if that passes, adds the block to the local blockchain. A round being
// mined on the old tip is stopped.
func (s *State) ProcessProposedBlock(block database.Block) error {
	s.evHandler("state: ProcessProposedBlock: started: prevBlk[%s]: newBlk[%s]: numTrans[%d]", block.Header.PrevBlockHash.Short(), block.Hash.Short(), len(block.Transactions))
	defer s.evHandler("state: ProcessProposedBlock: completed: newBlk[%s]", block.Hash.Short())

	if _, err := s.db.SaveValidated(block); err != nil {
		if errors.Is(err, database.ErrChainForked) {
			s.evHandler("state: ProcessProposedBlock: peer is ahead: requesting sync")
			s.RequestSync()
		}
		return err
	}

	if s.engine.StopFindingConsensus() {
		s.evHandler("state: ProcessProposedBlock: MINING: stopped round on the old tip")
	}

	s.applyBlock(block)

	return nil
}

// SyncWithPeer pulls the blocks the peer has that this node doesn't. When
// the peer's chain doesn't extend the local tip, local blocks are removed
// one at a time, their transactions returned to the mempool, until the
// chains agree.
func (s *State) SyncWithPeer(pr peer.Peer, status peer.PeerStatus) error {
	s.evHandler("state: SyncWithPeer: started: %s: latest-blknum[%d]", pr, status.LatestBlockNumber)
	defer s.evHandler("state: SyncWithPeer: completed: %s", pr)

	for rewinds := 0; ; rewinds++ {
		latest := s.db.LatestBlock()
		if status.LatestBlockNumber <= latest.Header.Number {
			return nil
		}

		from := latest.Header.Number + 1
		blocks, err := s.NetRequestPeerBlocks(pr, from, status.LatestBlockNumber-latest.Header.Number)
		if err != nil {
			return err
		}

		if len(blocks) == 0 {
			return nil
		}

		first := blocks[0]
		if first.Header.PrevBlockHash != latest.Hash {
			if latest.Header.Number == 0 || rewinds == maxRewinds {
				return fmt.Errorf("%w: peer %s doesn't share a chain with this node", database.ErrValidation, pr)
			}

			if err := s.rewind(latest); err != nil {
				return err
			}
			continue
		}

		for _, block := range blocks {
			if _, err := s.db.SaveValidated(block); err != nil {
				return err
			}
			s.applyBlock(block)
		}
	}
}

// =============================================================================

// applyBlock updates the node after a block has been stored.
func (s *State) applyBlock(block database.Block) {
	for _, tx := range block.Transactions {
		s.mempool.Delete(tx)
	}

	metrics.BlocksAccepted.Inc(1)

	s.evHandler("state: applyBlock: blk[%d]: hash[%s]: txs[%d]: mempool[%d]", block.Header.Number, block.Hash.Short(), len(block.Transactions), s.mempool.Count())
	s.blockHandler(block)
}

// rewind removes the latest block and puts its transactions back in the
// mempool.
func (s *State) rewind(latest database.Block) error {
	parent, err := s.db.LatestBlockBelow(latest.Header.Number)
	if err != nil {
		return err
	}

	s.evHandler("state: rewind: removing blk[%d]: new tip blk[%d]", latest.Header.Number, parent.Header.Number)

	removed, err := s.db.FindRange(latest.Header.Number, 1)
	if err != nil {
		return err
	}

	if err := s.db.RemoveFrom(latest.Header.Number); err != nil {
		return err
	}

	for _, block := range removed {
		for _, tx := range block.Transactions {
			if _, err := s.mempool.Upsert(tx); err != nil {
				s.evHandler("state: rewind: WARNING: tx[%s]: %s", tx.ID, err)
			}
		}
	}

	return nil
}
