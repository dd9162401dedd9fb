package database

import (
	"errors"
	"fmt"
	"time"

	"github.com/ardanlabs/powchain/foundation/blockchain/hashing"
	"github.com/ardanlabs/powchain/foundation/blockchain/merkle"
)

// CurrentBlockVersion is the format version written into new blocks.
const CurrentBlockVersion = 1

// Set of errors returned when validating blocks.
var (
	ErrValidation  = errors.New("block validation failed")
	ErrChainForked = errors.New("blockchain forked, start resync")
	ErrNotFound    = errors.New("block not found")
)

// =============================================================================

// BlockHeader represents common information required for each block.
type BlockHeader struct {
	Number        uint64       `json:"number"`          // Position in the chain, genesis is 0.
	Version       uint16       `json:"version"`         // Format version of the block.
	PrevBlockHash hashing.Hash `json:"prev_block_hash"` // Hash of the previous block in the chain.
	TimeStamp     int64        `json:"timestamp"`       // Time the candidate was built in unix ms.
	TransRoot     hashing.Hash `json:"trans_root"`      // Merkle root of the transactions in this block.
	Consent       Consent      `json:"consent"`         // How the block was agreed upon.
}

// Block represents a group of transactions batched together.
type Block struct {
	Header       BlockHeader   `json:"header"`
	Transactions []Transaction `json:"transactions"`
	Hash         hashing.Hash  `json:"hash"`
}

// sealedBlock is the part of a block that is covered by its hash. Empty
// collections are left out so a nil and an empty list hash the same.
type sealedBlock struct {
	Header       BlockHeader   `json:"header"`
	Transactions []Transaction `json:"transactions,omitempty"`
}

// CalculateHash returns the hash of the block over everything except the
// hash itself and the mining time.
func (b Block) CalculateHash(hasher hashing.Hasher) (hashing.Hash, error) {
	return hasher.Generate(b.sealed())
}

func (b Block) sealed() sealedBlock {
	header := b.Header
	header.Consent = header.Consent.Sealed()

	return sealedBlock{
		Header:       header,
		Transactions: b.Transactions,
	}
}

// ProofOfWork returns the proof of work consent of the block.
func (b Block) ProofOfWork() (PoWConsent, error) {
	return b.Header.Consent.ProofOfWork()
}

// String implements the fmt.Stringer interface for logging.
func (b Block) String() string {
	return fmt.Sprintf("blk[%d] hash[%s] prev[%s] trans[%d] %s", b.Header.Number, b.Hash.Short(), b.Header.PrevBlockHash.Short(), len(b.Transactions), b.Header.Consent)
}

// ValidateBlock takes a block and validates it to be included into the
// blockchain on top of the previous block.
func (b Block) ValidateBlock(previousBlock Block, hasher hashing.Hasher, targetMiningRate time.Duration, evHandler func(v string, args ...any)) error {
	if previousBlock.Hash == "" {
		return fmt.Errorf("%w: no parent block to extend", ErrValidation)
	}

	evHandler("database: ValidateBlock: validate: blk[%d]: check: chain is not forked", b.Header.Number)

	// The node who sent this block has a chain that is two or more blocks ahead
	// of ours. This means there has been a fork and we are on the wrong side.
	nextNumber := previousBlock.Header.Number + 1
	if b.Header.Number >= (nextNumber + 1) {
		return ErrChainForked
	}

	evHandler("database: ValidateBlock: validate: blk[%d]: check: block number is the next number", b.Header.Number)

	if b.Header.Number != nextNumber {
		return fmt.Errorf("%w: this block is not the next number, got %d, exp %d", ErrValidation, b.Header.Number, nextNumber)
	}

	evHandler("database: ValidateBlock: validate: blk[%d]: check: block version is supported", b.Header.Number)

	if b.Header.Version != CurrentBlockVersion {
		return fmt.Errorf("%w: unsupported block version %d", ErrValidation, b.Header.Version)
	}

	evHandler("database: ValidateBlock: validate: blk[%d]: check: parent hash does match parent block", b.Header.Number)

	if b.Header.PrevBlockHash != previousBlock.Hash {
		return fmt.Errorf("%w: parent block hash doesn't match our known parent, got %s, exp %s", ErrValidation, b.Header.PrevBlockHash, previousBlock.Hash)
	}

	evHandler("database: ValidateBlock: validate: blk[%d]: check: block difficulty follows parent block", b.Header.Number)

	pow, err := b.ProofOfWork()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrValidation, err)
	}

	parentPow, err := previousBlock.ProofOfWork()
	if err != nil {
		return fmt.Errorf("%w: parent: %w", ErrValidation, err)
	}

	if exp := parentPow.NextDifficulty(targetMiningRate); pow.Difficulty != exp {
		return fmt.Errorf("%w: block difficulty doesn't follow the parent, got %d, exp %d", ErrValidation, pow.Difficulty, exp)
	}

	evHandler("database: ValidateBlock: validate: blk[%d]: check: block's timestamp is not before parent block's timestamp", b.Header.Number)

	if b.Header.TimeStamp < previousBlock.Header.TimeStamp {
		parentTime := time.UnixMilli(previousBlock.Header.TimeStamp)
		blockTime := time.UnixMilli(b.Header.TimeStamp)
		return fmt.Errorf("%w: block timestamp is before parent block, parent %s, block %s", ErrValidation, parentTime, blockTime)
	}

	evHandler("database: ValidateBlock: validate: blk[%d]: check: merkle root does match transactions", b.Header.Number)

	if len(b.Transactions) == 0 {
		return fmt.Errorf("%w: block has no transactions", ErrValidation)
	}

	root, err := merkle.CalculateRoot(hasher, b.Transactions)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrValidation, err)
	}

	if b.Header.TransRoot != root {
		return fmt.Errorf("%w: merkle root does not match transactions, got %s, exp %s", ErrValidation, root, b.Header.TransRoot)
	}

	evHandler("database: ValidateBlock: validate: blk[%d]: check: block hash is correct", b.Header.Number)

	correct, err := hashing.IsHashCorrect(hasher, b.Hash, b.sealed())
	if err != nil {
		return fmt.Errorf("%w: %w", ErrValidation, err)
	}

	if !correct {
		return fmt.Errorf("%w: block hash %s is not correct", ErrValidation, b.Hash)
	}

	evHandler("database: ValidateBlock: validate: blk[%d]: check: block hash has been solved", b.Header.Number)

	if !IsHashSolved(pow.Difficulty, b.Hash) {
		return fmt.Errorf("%w: %s invalid block hash for difficulty %d", ErrValidation, b.Hash, pow.Difficulty)
	}

	return nil
}

// =============================================================================

// IsHashSolved checks the hash to make sure it complies with the POW rules.
// We need to match a difficulty number of 0's.
func IsHashSolved(difficulty uint, hash hashing.Hash) bool {
	if difficulty > uint(len(hash)) {
		return false
	}

	for i := range difficulty {
		if hash[i] != '0' {
			return false
		}
	}

	return true
}
