package hashing

import (
	"crypto/sha256"
	"fmt"
	"hash"

	"github.com/ethereum/go-ethereum/crypto"
)

// List of the supported digest strategies.
const (
	StrategySHA256    = "sha256"
	StrategyKeccak256 = "keccak256"
)

// defaultStrategy is used when no strategy is configured.
var defaultStrategy = sha256.New

// Map of the strategy names to the hash constructors.
var strategies = map[string]func() hash.Hash{
	StrategySHA256: sha256.New,
	StrategyKeccak256: func() hash.Hash {
		return crypto.NewKeccakState()
	},
}

// RetrieveStrategy returns the hash constructor for the named strategy.
func RetrieveStrategy(strategy string) (func() hash.Hash, error) {
	fn, exists := strategies[strategy]
	if !exists {
		return nil, fmt.Errorf("hash strategy %q does not exist", strategy)
	}

	return fn, nil
}
