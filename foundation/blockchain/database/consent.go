package database

import (
	"errors"
	"fmt"
	"time"

	"github.com/ardanlabs/powchain/foundation/blockchain/genesis"
)

// MaxDifficulty is the largest difficulty a block can carry.
const MaxDifficulty = genesis.MaxDifficulty

// ErrConsentKind is returned when an operation needs a consent variant the
// block doesn't carry.
var ErrConsentKind = errors.New("consent kind not supported")

// ConsentKind discriminates the consent variants.
type ConsentKind string

// Set of known consent kinds.
const (
	ConsentPoW ConsentKind = "pow"
	ConsentPoM ConsentKind = "pom"
)

// =============================================================================

// Consent records how a block was agreed upon. Exactly one payload matches
// the kind.
type Consent struct {
	Kind ConsentKind `json:"kind"`
	PoW  *PoWConsent `json:"pow,omitempty"`
	PoM  *PoMConsent `json:"pom,omitempty"`
}

// NewPoWConsent constructs a proof of work consent.
func NewPoWConsent(pow PoWConsent) Consent {
	return Consent{
		Kind: ConsentPoW,
		PoW:  &pow,
	}
}

// ProofOfWork returns the proof of work payload.
func (c Consent) ProofOfWork() (PoWConsent, error) {
	if c.Kind != ConsentPoW || c.PoW == nil {
		return PoWConsent{}, fmt.Errorf("%w: want %s, got %q", ErrConsentKind, ConsentPoW, c.Kind)
	}

	return *c.PoW, nil
}

// Sealed returns the form of the consent that is part of the block hash.
// The mining time is only known once the hash is found, so it's left out.
func (c Consent) Sealed() Consent {
	if c.PoW == nil {
		return c
	}

	pow := *c.PoW
	pow.MillisecondsSpentMining = 0

	return Consent{
		Kind: c.Kind,
		PoW:  &pow,
		PoM:  c.PoM,
	}
}

// String implements the fmt.Stringer interface for logging.
func (c Consent) String() string {
	switch {
	case c.PoW != nil:
		return fmt.Sprintf("%s[nonce:%d diff:%d spent:%dms]", c.Kind, c.PoW.Nonce, c.PoW.Difficulty, c.PoW.MillisecondsSpentMining)
	case c.PoM != nil:
		return fmt.Sprintf("%s[threshold:%d]", c.Kind, c.PoM.ActivationThreshold)
	}

	return string(c.Kind)
}

// =============================================================================

// PoWConsent is the proof produced by a proof of work round.
type PoWConsent struct {
	Nonce                   uint64 `json:"nonce"`                     // Search counter mixed into the hash.
	Timestamp               int64  `json:"timestamp"`                 // Start of the current search epoch in unix ms.
	Difficulty              uint   `json:"difficulty"`                // Number of leading '0' characters required.
	MillisecondsSpentMining int64  `json:"milliseconds_spent_mining"` // Wall clock cost of the round.
}

// NextDifficulty derives the difficulty of the following block from the
// time this round took compared to the target rate.
func (c PoWConsent) NextDifficulty(target time.Duration) uint {
	targetMs := target.Milliseconds()

	switch {
	case c.MillisecondsSpentMining > targetMs:
		if c.Difficulty == 0 {
			return 0
		}
		return c.Difficulty - 1

	case c.MillisecondsSpentMining < targetMs:
		if c.Difficulty >= MaxDifficulty {
			return MaxDifficulty
		}
		return c.Difficulty + 1
	}

	return c.Difficulty
}

// =============================================================================

// PoMConsent is reserved for a proof of majority round. Nothing produces it.
type PoMConsent struct {
	ActivationThreshold uint `json:"activation_threshold"`
	ActivationQuorum    uint `json:"activation_quorum"`
}
