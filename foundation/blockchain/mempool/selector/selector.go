// Package selector provides different transaction selecting algorithms.
package selector

import (
	"fmt"

	"github.com/ardanlabs/powchain/foundation/blockchain/database"
)

// List of different select strategies.
const (
	StrategyTip    = "tip"
	StrategyOldest = "oldest"
)

// Map of different select strategies with functions.
var strategies = map[string]Func{
	StrategyTip:    tipSelect,
	StrategyOldest: oldestSelect,
}

// Func defines a function that takes a mempool of transactions grouped by
// sender and selects howMany of them in an order based on the functions
// strategy. All selector functions MUST respect the natural order of the
// transactions of one sender. Receiving -1 for howMany must return all the
// transactions in the strategies ordering.
type Func func(transactions map[string][]database.Transaction, howMany int) []database.Transaction

// Retrieve returns the specified select strategy function.
func Retrieve(strategy string) (Func, error) {
	fn, exists := strategies[strategy]
	if !exists {
		return nil, fmt.Errorf("strategy %q does not exist", strategy)
	}
	return fn, nil
}

// =============================================================================

// byOrder sorts transactions by their natural order.
func byOrder(a, b database.Transaction) int {
	return a.Compare(b)
}

// byTip sorts transactions by tip in descending order to pick the
// transactions that provide the best reward, falling back to the natural
// order so the result is stable.
func byTip(a, b database.Transaction) int {
	switch {
	case a.Tip > b.Tip:
		return -1
	case a.Tip < b.Tip:
		return 1
	}

	return a.Compare(b)
}
