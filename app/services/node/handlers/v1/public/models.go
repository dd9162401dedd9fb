package public

import (
	"time"

	"github.com/ardanlabs/powchain/foundation/blockchain/database"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

// NewTx is what a wallet submits. The node assigns the id and timestamp.
type NewTx struct {
	From  string        `json:"from" validate:"required"`
	To    string        `json:"to" validate:"required,nefield=From"`
	Value uint64        `json:"value"`
	Tip   uint64        `json:"tip"`
	Data  hexutil.Bytes `json:"data"`
}

func toTransaction(ntx NewTx, now time.Time) (database.Transaction, error) {
	return database.NewTransaction(ntx.From, ntx.To, ntx.Value, ntx.Tip, ntx.Data, now)
}

// producer is the status of block production on this node.
type producer struct {
	Status      string `json:"status"`
	Sync        string `json:"sync"`
	LatestBlock uint64 `json:"latest_block"`
	LatestHash  string `json:"latest_hash"`
	Uncommitted int    `json:"uncommitted"`
}
