package starknet

import (
	"math/big"

	"github.com/ethereum/go-ethereum/crypto"

	"github.com/zeroxbridge/sequencer/pkg/commitment"
)

// maskBits is the well-known starknet_keccak truncation: keccak256(name)
// reduced to 250 bits, per Starknet's entry-point selector convention.
var maskBits = new(big.Int).Lsh(big.NewInt(1), 250)

// Selector computes the Starknet entry-point selector for a function
// name: keccak256(name) mod 2^250.
func Selector(name string) *big.Int {
	digest := crypto.Keccak256([]byte(name))
	v := new(big.Int).SetBytes(digest)
	return v.Mod(v, maskBits)
}

var (
	// MintAndClaimSelector is the bridge contract's claim entry point.
	MintAndClaimSelector = Selector("mint_and_claim_xzb")
	// RegisterDepositProofSelector is the proof-registry contract's
	// registration entry point.
	RegisterDepositProofSelector = Selector("register_deposit_proof")
)

// feltMod reduces v into the STARK prime field, the domain every
// calldata element must live in.
func feltMod(v *big.Int) *big.Int {
	return new(big.Int).Mod(v, commitment.FeltModulus())
}
