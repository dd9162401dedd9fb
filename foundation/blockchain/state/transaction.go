package state

import (
	"fmt"

	"github.com/ardanlabs/powchain/foundation/blockchain/database"
)

// ErrTxCommitted is returned when a submitted transaction is already part
// of the chain.
var ErrTxCommitted = fmt.Errorf("%w: transaction already committed", database.ErrValidation)

// UpsertWalletTransaction accepts a transaction from a wallet for inclusion.
// The transaction is shared with the known peers.
func (s *State) UpsertWalletTransaction(tx database.Transaction) error {
	if err := s.validateTransaction(tx); err != nil {
		return err
	}

	if _, err := s.mempool.Upsert(tx); err != nil {
		return err
	}

	s.Worker.SignalShareTx(tx)
	s.Worker.SignalProduce()

	return nil
}

// UpsertNodeTransaction accepts a transaction from a node for inclusion.
func (s *State) UpsertNodeTransaction(tx database.Transaction) error {
	if err := s.validateTransaction(tx); err != nil {
		return err
	}

	if _, err := s.mempool.Upsert(tx); err != nil {
		return err
	}

	s.Worker.SignalProduce()

	return nil
}

// =============================================================================

// validateTransaction checks the transaction is well formed and isn't
// already on the chain.
func (s *State) validateTransaction(tx database.Transaction) error {
	if err := tx.Validate(); err != nil {
		return err
	}

	committed, err := s.db.IsCommitted(tx.ID)
	if err != nil {
		return err
	}

	if committed {
		return fmt.Errorf("%w: %s", ErrTxCommitted, tx.ID)
	}

	return nil
}
