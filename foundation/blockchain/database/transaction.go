package database

import (
	"bytes"
	"cmp"
	"errors"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/google/uuid"
)

// Transaction is the transactional information between two parties.
type Transaction struct {
	ID        uuid.UUID     `json:"id"`
	From      string        `json:"from" validate:"required"`
	To        string        `json:"to" validate:"required"`
	Value     uint64        `json:"value"`
	Tip       uint64        `json:"tip"`            // Offered as an incentive to pick the transaction first.
	Data      hexutil.Bytes `json:"data,omitempty"` // Extra data related to the transaction.
	TimeStamp int64         `json:"timestamp"`
}

// NewTransaction constructs a new transaction with a fresh id.
func NewTransaction(from string, to string, value uint64, tip uint64, data []byte, now time.Time) (Transaction, error) {
	tx := Transaction{
		ID:        uuid.New(),
		From:      from,
		To:        to,
		Value:     value,
		Tip:       tip,
		Data:      data,
		TimeStamp: now.UTC().UnixMilli(),
	}

	if err := tx.Validate(); err != nil {
		return Transaction{}, err
	}

	return tx, nil
}

// Validate performs the basic checks a transaction needs to pass before it
// is accepted into the mempool.
func (tx Transaction) Validate() error {
	if tx.ID == uuid.Nil {
		return errors.New("transaction invalid, missing id")
	}

	if tx.From == "" || tx.To == "" {
		return errors.New("transaction invalid, missing party")
	}

	if tx.From == tx.To {
		return fmt.Errorf("transaction invalid, sending to yourself, from %s, to %s", tx.From, tx.To)
	}

	if tx.TimeStamp <= 0 {
		return fmt.Errorf("transaction invalid, bad timestamp %d", tx.TimeStamp)
	}

	return nil
}

// Compare implements the natural order of transactions: oldest first with
// the id breaking ties.
func (tx Transaction) Compare(other Transaction) int {
	if c := cmp.Compare(tx.TimeStamp, other.TimeStamp); c != 0 {
		return c
	}

	return bytes.Compare(tx.ID[:], other.ID[:])
}

// String implements the fmt.Stringer interface for logging.
func (tx Transaction) String() string {
	return fmt.Sprintf("%s:%s->%s:%d", tx.ID, tx.From, tx.To, tx.Value)
}
