// Package database handles all the lower level support for maintaining the
// blockchain in storage and validating the blocks that are added to it.
package database

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ardanlabs/powchain/foundation/blockchain/genesis"
	"github.com/ardanlabs/powchain/foundation/blockchain/hashing"
	"github.com/bits-and-blooms/bloom/v3"
	"github.com/google/uuid"
)

// Parameters of the committed transaction filter.
const (
	filterEstimate      = 100_000
	filterFalsePositive = 0.01
)

// Config represents the configuration required to start the database.
type Config struct {
	Storage          Storage
	Hasher           hashing.Hasher
	Genesis          genesis.Genesis
	TargetMiningRate time.Duration
	EvHandler        func(v string, args ...any)
}

// Database manages the blocks that make up the chain.
type Database struct {
	mu sync.RWMutex

	storage          Storage
	hasher           hashing.Hasher
	genesis          genesis.Genesis
	targetMiningRate time.Duration
	evHandler        func(v string, args ...any)

	latestBlock Block
	committed   *bloom.BloomFilter
}

// New constructs a new database and reads the blockchain from storage,
// validating each block against its parent. The genesis block is written
// when the storage is empty.
func New(cfg Config) (*Database, error) {
	ev := func(v string, args ...any) {
		if cfg.EvHandler != nil {
			cfg.EvHandler(v, args...)
		}
	}

	db := Database{
		storage:          cfg.Storage,
		hasher:           cfg.Hasher,
		genesis:          cfg.Genesis,
		targetMiningRate: cfg.TargetMiningRate,
		evHandler:        ev,
		committed:        bloom.NewWithEstimates(filterEstimate, filterFalsePositive),
	}

	genesisBlock, err := GenesisBlock(cfg.Genesis, cfg.Hasher)
	if err != nil {
		return nil, err
	}

	iter := db.storage.ForEach()
	for block, err := iter.Next(); !iter.Done(); block, err = iter.Next() {
		if err != nil {
			return nil, err
		}

		switch block.Header.Number {
		case 0:
			if block.Hash != genesisBlock.Hash {
				return nil, fmt.Errorf("stored genesis block doesn't match genesis file, got %s, exp %s", block.Hash, genesisBlock.Hash)
			}

		default:
			if err := block.ValidateBlock(db.latestBlock, db.hasher, db.targetMiningRate, ev); err != nil {
				return nil, err
			}
		}

		db.track(block)
		db.latestBlock = block
	}

	if db.latestBlock.Hash == "" {
		ev("database: New: writing genesis block: %s", genesisBlock)

		if err := db.storage.Write(genesisBlock); err != nil {
			return nil, err
		}
		db.latestBlock = genesisBlock
	}

	return &db, nil
}

// Close closes the underlying storage.
func (db *Database) Close() error {
	return db.storage.Close()
}

// Genesis returns the genesis information the chain was started with.
func (db *Database) Genesis() genesis.Genesis {
	return db.genesis
}

// Hasher returns the hasher used to validate blocks.
func (db *Database) Hasher() hashing.Hasher {
	return db.hasher
}

// LatestBlock returns the latest block.
func (db *Database) LatestBlock() Block {
	db.mu.RLock()
	defer db.mu.RUnlock()

	return db.latestBlock
}

// LatestBlockBelow returns the latest block with a number lower than the
// specified number.
func (db *Database) LatestBlockBelow(number uint64) (Block, error) {
	if number == 0 {
		return Block{}, fmt.Errorf("%w: nothing below the genesis block", ErrNotFound)
	}

	db.mu.RLock()
	defer db.mu.RUnlock()

	if number > db.latestBlock.Header.Number {
		return db.latestBlock, nil
	}

	return db.storage.GetBlock(number - 1)
}

// GetBlock searches the blockchain to locate and return the contents of the
// specified block by number.
func (db *Database) GetBlock(number uint64) (Block, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	if number > db.latestBlock.Header.Number {
		return Block{}, fmt.Errorf("%w: number %d", ErrNotFound, number)
	}

	return db.storage.GetBlock(number)
}

// FindRange returns up to quantity blocks starting at the from number. The
// result is empty when from is past the latest block.
func (db *Database) FindRange(from uint64, quantity uint64) ([]Block, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	latest := db.latestBlock.Header.Number
	if quantity == 0 || from > latest {
		return []Block{}, nil
	}

	to := from + quantity - 1
	if to > latest || to < from {
		to = latest
	}

	blocks := make([]Block, 0, to-from+1)
	for num := from; num <= to; num++ {
		block, err := db.storage.GetBlock(num)
		if err != nil {
			return nil, err
		}
		blocks = append(blocks, block)
	}

	return blocks, nil
}

// SaveValidated validates the block against the latest block and writes it
// to storage. Validation and write happen under one lock so two blocks can
// never be committed at the same position.
func (db *Database) SaveValidated(block Block) (Block, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	if err := block.ValidateBlock(db.latestBlock, db.hasher, db.targetMiningRate, db.evHandler); err != nil {
		return Block{}, err
	}

	if err := db.storage.Write(block); err != nil {
		return Block{}, err
	}

	db.track(block)
	db.latestBlock = block

	return block, nil
}

// SaveUnchecked writes the block to storage without validating it.
func (db *Database) SaveUnchecked(block Block) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	if err := db.storage.Write(block); err != nil {
		return err
	}

	db.track(block)
	if block.Header.Number >= db.latestBlock.Header.Number {
		db.latestBlock = block
	}

	return nil
}

// RemoveFrom deletes the block with the specified number and every block
// after it. The genesis block can't be removed.
func (db *Database) RemoveFrom(number uint64) error {
	if number == 0 {
		return errors.New("can't remove the genesis block")
	}

	db.mu.Lock()
	defer db.mu.Unlock()

	if number > db.latestBlock.Header.Number {
		return nil
	}

	db.evHandler("database: RemoveFrom: removing blocks from[%d] to[%d]", number, db.latestBlock.Header.Number)

	if err := db.storage.Truncate(number); err != nil {
		return err
	}

	latest, err := db.storage.GetBlock(number - 1)
	if err != nil {
		return err
	}
	db.latestBlock = latest

	return db.rebuildFilter()
}

// IsCommitted reports whether a transaction with the specified id is part
// of a stored block.
func (db *Database) IsCommitted(id uuid.UUID) (bool, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	if !db.committed.Test(id[:]) {
		return false, nil
	}

	// The filter may report false positives, confirm against the chain.
	iter := db.storage.ForEach()
	for block, err := iter.Next(); !iter.Done(); block, err = iter.Next() {
		if err != nil {
			return false, err
		}

		for _, tx := range block.Transactions {
			if tx.ID == id {
				return true, nil
			}
		}
	}

	return false, nil
}

// Reset re-initializes the storage back to the genesis block.
func (db *Database) Reset() error {
	db.mu.Lock()
	defer db.mu.Unlock()

	if err := db.storage.Reset(); err != nil {
		return err
	}

	genesisBlock, err := GenesisBlock(db.genesis, db.hasher)
	if err != nil {
		return err
	}

	if err := db.storage.Write(genesisBlock); err != nil {
		return err
	}

	db.latestBlock = genesisBlock
	db.committed.ClearAll()

	return nil
}

// =============================================================================

// track adds the transactions of the block to the committed filter.
func (db *Database) track(block Block) {
	for _, tx := range block.Transactions {
		db.committed.Add(tx.ID[:])
	}
}

// rebuildFilter recreates the committed filter from storage since entries
// can't be removed from a bloom filter.
func (db *Database) rebuildFilter() error {
	db.committed.ClearAll()

	iter := db.storage.ForEach()
	for block, err := iter.Next(); !iter.Done(); block, err = iter.Next() {
		if err != nil {
			return err
		}
		db.track(block)
	}

	return nil
}

// =============================================================================

// GenesisBlock constructs the genesis block from the genesis information.
// The genesis consent records no mining time so the first mined block
// starts one difficulty above it.
func GenesisBlock(gen genesis.Genesis, hasher hashing.Hasher) (Block, error) {
	ts := gen.Date.UTC().UnixMilli()

	block := Block{
		Header: BlockHeader{
			Number:        0,
			Version:       CurrentBlockVersion,
			PrevBlockHash: hashing.ZeroHash,
			TimeStamp:     ts,
			TransRoot:     hashing.ZeroHash,
			Consent: NewPoWConsent(PoWConsent{
				Timestamp:  ts,
				Difficulty: gen.Difficulty,
			}),
		},
	}

	hash, err := block.CalculateHash(hasher)
	if err != nil {
		return Block{}, err
	}
	block.Hash = hash

	return block, nil
}
