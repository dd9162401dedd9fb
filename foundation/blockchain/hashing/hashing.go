// Package hashing provides deterministic content hashing for blockchain
// entities. A hash is a pure function of the canonical encoding of a value.
package hashing

import (
	"encoding/hex"
	"errors"
	"fmt"
	"hash"
	"slices"

	"github.com/ardanlabs/powchain/foundation/blockchain/codec"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

// ErrHashing is returned when a value can't be encoded or digested.
var ErrHashing = errors.New("hashing failed")

// ZeroHash represents a hash code of zeros. It is used as the parent hash of
// the genesis block.
const ZeroHash Hash = "0000000000000000000000000000000000000000000000000000000000000000"

// =============================================================================

// Hash is the lowercase hex encoding of a digest without any prefix. The
// proof of work rules count leading '0' characters of this string.
type Hash string

// String implements the fmt.Stringer interface.
func (h Hash) String() string {
	return string(h)
}

// Bytes decodes the hash back into the raw digest.
func (h Hash) Bytes() ([]byte, error) {
	return hex.DecodeString(string(h))
}

// Hex returns the hash in the 0x prefixed form used by Ethereum tooling.
func (h Hash) Hex() string {
	b, err := h.Bytes()
	if err != nil {
		return "0x"
	}

	return hexutil.Encode(b)
}

// Short returns the first characters of the hash for logging.
func (h Hash) Short() string {
	if len(h) <= 16 {
		return string(h)
	}

	return string(h[:16])
}

// =============================================================================

// Hasher represents the behavior required to produce a content hash. Every
// package that hashes entities accepts this interface.
type Hasher interface {
	Generate(value any) (Hash, error)
}

// Comparable represents entities with a natural order. Ordering makes hashes
// of collections a function of content and not of insertion order.
type Comparable[T any] interface {
	Compare(other T) int
}

// =============================================================================

// Config is the process wide hashing configuration. It is constructed once
// at startup and shared by reference; it is never modified after that.
type Config struct {
	Codec    *codec.Codec
	Strategy func() hash.Hash
}

// Generator produces hashes from the canonical encoding of values. It holds
// no mutable state and can be used from many goroutines at once.
type Generator struct {
	codec    *codec.Codec
	strategy func() hash.Hash
}

// New constructs a generator. A nil codec or strategy is replaced with the
// defaults.
func New(cfg Config) *Generator {
	if cfg.Codec == nil {
		cfg.Codec = codec.New()
	}

	if cfg.Strategy == nil {
		cfg.Strategy = defaultStrategy
	}

	return &Generator{
		codec:    cfg.Codec,
		strategy: cfg.Strategy,
	}
}

// Generate returns the hash of the canonical encoding of the value.
func (g *Generator) Generate(value any) (Hash, error) {
	sum, err := g.digest(value)
	if err != nil {
		return "", err
	}

	return Hash(hex.EncodeToString(sum)), nil
}

// IsHashCorrect recomputes the hash of the value and compares it with the
// candidate hash.
func (g *Generator) IsHashCorrect(candidate Hash, value any) (bool, error) {
	return IsHashCorrect(g, candidate, value)
}

// digest encodes the value and runs it through a fresh hash.
func (g *Generator) digest(value any) ([]byte, error) {
	data, err := g.codec.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("%w: encode %T: %w", ErrHashing, value, err)
	}

	h := g.strategy()
	if _, err := h.Write(data); err != nil {
		return nil, fmt.Errorf("%w: digest %T: %w", ErrHashing, value, err)
	}

	return h.Sum(nil), nil
}

// =============================================================================

// IsHashCorrect recomputes the hash of the value with the specified hasher
// and compares it with the candidate hash.
func IsHashCorrect(h Hasher, candidate Hash, value any) (bool, error) {
	hash, err := h.Generate(value)
	if err != nil {
		return false, err
	}

	return hash == candidate, nil
}

// GenerateList hashes an ordered collection as a single unit. The values are
// sorted by their natural order first so the result does not depend on the
// order the caller collected them in. The input slice is not modified.
func GenerateList[T Comparable[T]](g *Generator, values []T) ([]byte, error) {
	sorted := slices.Clone(values)
	slices.SortStableFunc(sorted, func(a, b T) int {
		return a.Compare(b)
	})

	return g.digest(sorted)
}
