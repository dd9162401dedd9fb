package worker

import (
	"github.com/ardanlabs/powchain/foundation/blockchain/peer"
)

// syncOperations handles syncing with peers, on request and on an interval.
func (w *Worker) syncOperations() {
	w.evHandler("worker: syncOperations: G started")
	defer w.evHandler("worker: syncOperations: G completed")

	for {
		select {
		case <-w.ticker.C:
			if !w.isShutdown() {
				w.Sync()
			}
		case <-w.syncReq:
			if !w.isShutdown() {
				w.Sync()
			}
		case <-w.shut:
			w.evHandler("worker: syncOperations: received shut signal")
			return
		}
	}
}

// Sync updates the peer list, mempool and blocks. Block production is
// skipped by the scheduler while it runs.
func (w *Worker) Sync() {
	if !w.state.BeginSync() {
		w.evHandler("worker: sync: already in progress")
		return
	}
	defer w.state.EndSync()

	w.evHandler("worker: sync: started")
	defer w.evHandler("worker: sync: completed")

	for _, pr := range w.state.RetrieveKnownPeers() {

		// Retrieve the status of this peer, retrying a few times before
		// giving up on it.
		var peerStatus peer.PeerStatus
		err := retry(w.shut, newBackoff(), retryAttempts, func() error {
			var err error
			peerStatus, err = w.state.NetRequestPeerStatus(pr)
			return err
		})
		if err != nil {
			w.evHandler("worker: sync: NetRequestPeerStatus: %s: ERROR: %s", pr.Host, err)
			w.state.RemoveKnownPeer(pr)
			continue
		}

		// Add new peers to this nodes list.
		w.addNewPeers(peerStatus.KnownPeers)

		// Retrieve the mempool from the peer.
		pool, err := w.state.NetRequestPeerMempool(pr)
		if err != nil {
			w.evHandler("worker: sync: NetRequestPeerMempool: %s: ERROR: %s", pr.Host, err)
		}
		for _, tx := range pool {
			if err := w.state.UpsertNodeTransaction(tx); err != nil {
				w.evHandler("worker: sync: NetRequestPeerMempool: %s: tx[%s]: WARNING: %s", pr.Host, tx.ID, err)
			}
		}

		// If this peer has blocks we don't have, we need to add them.
		if peerStatus.LatestBlockNumber > w.state.RetrieveLatestBlock().Header.Number {
			w.evHandler("worker: sync: SyncWithPeer: %s: latestBlockNumber[%d]", pr.Host, peerStatus.LatestBlockNumber)

			if err := w.state.SyncWithPeer(pr, peerStatus); err != nil {
				w.evHandler("worker: sync: SyncWithPeer: %s: ERROR %s", pr.Host, err)
			}
		}
	}
}

// addNewPeers takes the list of known peers and makes sure they are included
// in the nodes list of known peers.
func (w *Worker) addNewPeers(knownPeers []peer.Peer) {
	for _, pr := range knownPeers {
		if w.state.AddKnownPeer(pr) {
			w.evHandler("worker: sync: addNewPeers: adding peer-node %s", pr)
		}
	}
}
