package selector

import (
	"slices"

	"github.com/ardanlabs/powchain/foundation/blockchain/database"
)

// tipSelect returns transactions with the best tip while respecting the
// order of the transactions of each sender.
var tipSelect = func(m map[string][]database.Transaction, howMany int) []database.Transaction {
	if howMany == -1 {
		howMany = 0
		for _, txs := range m {
			howMany += len(txs)
		}
	}

	// Sort the transactions per sender by their natural order.
	for key := range m {
		if len(m[key]) > 1 {
			slices.SortFunc(m[key], byOrder)
		}
	}

	// Pick the first transaction in the slice for each sender. Each iteration
	// represents a new row of selections. Keep doing that until all the
	// transactions have been selected.
	var rows [][]database.Transaction
	for {
		var row []database.Transaction
		for key := range m {
			if len(m[key]) > 0 {
				row = append(row, m[key][0])
				m[key] = m[key][1:]
			}
		}
		if row == nil {
			break
		}
		rows = append(rows, row)
	}

	// Sort each row by tip. Then try to select the number of requested
	// transactions. Keep pulling transactions from each row until the amount
	// is fulfilled or there are no more transactions.
	final := []database.Transaction{}
	for _, row := range rows {
		slices.SortFunc(row, byTip)

		need := howMany - len(final)
		if len(row) >= need {
			final = append(final, row[:need]...)
			break
		}
		final = append(final, row...)
	}

	return final
}
