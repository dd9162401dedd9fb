package selector

import (
	"slices"

	"github.com/ardanlabs/powchain/foundation/blockchain/database"
)

// oldestSelect returns the transactions that have been waiting the longest.
var oldestSelect = func(m map[string][]database.Transaction, howMany int) []database.Transaction {
	var all []database.Transaction
	for _, txs := range m {
		all = append(all, txs...)
	}

	slices.SortFunc(all, byOrder)

	if howMany >= 0 && howMany < len(all) {
		all = all[:howMany]
	}

	return all
}
