// Package mempool maintains the mempool for the blockchain.
package mempool

import (
	"sync"

	"github.com/ardanlabs/powchain/foundation/blockchain/codec"
	"github.com/ardanlabs/powchain/foundation/blockchain/database"
	"github.com/ardanlabs/powchain/foundation/blockchain/mempool/selector"
	"github.com/google/uuid"
)

// Mempool represents a cache of transactions waiting to be committed,
// keyed by transaction id.
type Mempool struct {
	pool     map[uuid.UUID]database.Transaction
	mu       sync.RWMutex
	selectFn selector.Func
	codec    *codec.Codec
}

// New constructs a new mempool using the default select strategy.
func New() (*Mempool, error) {
	return NewWithStrategy(selector.StrategyTip)
}

// NewWithStrategy constructs a new mempool with specified select strategy.
func NewWithStrategy(strategy string) (*Mempool, error) {
	selectFn, err := selector.Retrieve(strategy)
	if err != nil {
		return nil, err
	}

	mp := Mempool{
		pool:     make(map[uuid.UUID]database.Transaction),
		selectFn: selectFn,
		codec:    codec.New(),
	}

	return &mp, nil
}

// Count returns the current number of transaction in the pool.
func (mp *Mempool) Count() int {
	mp.mu.RLock()
	defer mp.mu.RUnlock()

	return len(mp.pool)
}

// Upsert adds or replaces a transaction from the mempool.
func (mp *Mempool) Upsert(tx database.Transaction) (int, error) {
	if err := tx.Validate(); err != nil {
		return 0, err
	}

	mp.mu.Lock()
	defer mp.mu.Unlock()

	mp.pool[tx.ID] = tx

	return len(mp.pool), nil
}

// Delete removed a transaction from the mempool.
func (mp *Mempool) Delete(tx database.Transaction) {
	mp.mu.Lock()
	defer mp.mu.Unlock()

	delete(mp.pool, tx.ID)
}

// Exists reports whether the transaction is in the pool.
func (mp *Mempool) Exists(id uuid.UUID) bool {
	mp.mu.RLock()
	defer mp.mu.RUnlock()

	_, exists := mp.pool[id]
	return exists
}

// Truncate clears all the transactions from the pool.
func (mp *Mempool) Truncate() {
	mp.mu.Lock()
	defer mp.mu.Unlock()

	mp.pool = make(map[uuid.UUID]database.Transaction)
}

// Copy returns all the transactions in the pool in their natural order.
func (mp *Mempool) Copy() []database.Transaction {
	return mp.pickWith(selector.StrategyOldest, -1)
}

// PickBest uses the configured select strategy to return the next set
// of transactions for the next block.
func (mp *Mempool) PickBest(howMany int) []database.Transaction {
	return mp.selectFn(mp.groupBySender(), howMany)
}

// FetchPending returns the best transactions, in the order of the select
// strategy, whose combined encoded size fits the byte budget. Transactions
// that don't fit are skipped so smaller ones from other senders can still
// be picked. Once a transaction is skipped, the later transactions of the
// same sender are skipped too. A budget of zero or less means no limit.
func (mp *Mempool) FetchPending(maxByteSize int) ([]database.Transaction, error) {
	best := mp.PickBest(-1)
	if maxByteSize <= 0 {
		return best, nil
	}

	var used int
	skipped := make(map[string]bool)
	final := []database.Transaction{}
	for _, tx := range best {
		if skipped[tx.From] {
			continue
		}

		size, err := mp.codec.Size(tx)
		if err != nil {
			return nil, err
		}

		if used+size > maxByteSize {
			skipped[tx.From] = true
			continue
		}

		used += size
		final = append(final, tx)
	}

	return final, nil
}

// =============================================================================

// groupBySender builds the view of the pool the selectors work with.
func (mp *Mempool) groupBySender() map[string][]database.Transaction {
	mp.mu.RLock()
	defer mp.mu.RUnlock()

	m := make(map[string][]database.Transaction)
	for _, tx := range mp.pool {
		m[tx.From] = append(m[tx.From], tx)
	}

	return m
}

func (mp *Mempool) pickWith(strategy string, howMany int) []database.Transaction {
	fn, err := selector.Retrieve(strategy)
	if err != nil {
		return nil
	}

	return fn(mp.groupBySender(), howMany)
}
