// Package genesis maintains access to the genesis file.
package genesis

import (
	"encoding/json"
	"fmt"
	"os"
	"time"
)

// DefaultPath is where the node looks for the genesis file.
const DefaultPath = "zblock/genesis.json"

// MaxDifficulty is the largest difficulty a block can carry. A hash is the
// hex encoding of a 256 bit digest so it can't start with more zeros.
const MaxDifficulty = 64

// Genesis represents the genesis file.
type Genesis struct {
	Date       time.Time `json:"date"`
	ChainID    uint16    `json:"chain_id"`   // The chain id represents an unique id for this running instance.
	Difficulty uint      `json:"difficulty"` // Difficulty recorded on the genesis block, the first mined block derives from it.
}

// =============================================================================

// Load opens and consumes the genesis file.
func Load(path string) (Genesis, error) {
	if path == "" {
		path = DefaultPath
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return Genesis{}, err
	}

	var genesis Genesis
	if err := json.Unmarshal(content, &genesis); err != nil {
		return Genesis{}, err
	}

	if genesis.Difficulty > MaxDifficulty {
		return Genesis{}, fmt.Errorf("genesis difficulty %d out of range", genesis.Difficulty)
	}

	return genesis, nil
}
