package starknet

import (
	"math/big"
	"strings"

	"github.com/zeroxbridge/sequencer/pkg/errs"
)

// U256 is a 256-bit integer split into two 128-bit limbs, the shape the
// bridge contract's mint_and_claim_xzb call expects for r/s signature
// components.
type U256 struct {
	Low  *big.Int
	High *big.Int
}

// ParseU256Hex splits a hex string (with or without 0x prefix) into its
// low/high u128 limbs. Strings of 32 hex chars or fewer (up to 128 bits)
// fit entirely in the low limb with high left at zero; longer strings
// split at the boundary len-32 characters from the end, with both halves
// parsed independently as u128 values. Grounded on the relayer's own
// U256::from(&str) split point — not on a literal reading of a 64-char
// threshold, which cannot hold (a u128 limb is 32 hex chars wide, not 64).
func ParseU256Hex(s string) (U256, error) {
	s = strings.TrimPrefix(s, "0x")
	s = strings.TrimPrefix(s, "0X")
	if s == "" {
		return U256{}, errs.InvalidInput("u256 hex string is empty")
	}

	if len(s) <= 32 {
		low, ok := new(big.Int).SetString(s, 16)
		if !ok {
			return U256{}, errs.InvalidInput("u256 hex string %q is not valid hex", s)
		}
		return U256{Low: low, High: big.NewInt(0)}, nil
	}

	split := len(s) - 32
	high, ok := new(big.Int).SetString(s[:split], 16)
	if !ok {
		return U256{}, errs.InvalidInput("u256 high limb %q is not valid hex", s[:split])
	}
	low, ok := new(big.Int).SetString(s[split:], 16)
	if !ok {
		return U256{}, errs.InvalidInput("u256 low limb %q is not valid hex", s[split:])
	}
	return U256{Low: low, High: high}, nil
}
