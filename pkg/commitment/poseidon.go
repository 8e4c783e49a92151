package commitment

import (
	"math/big"

	"github.com/NethermindEth/starknet.go/curve"
)

// HashPair is the 2-input Poseidon hash used by sequential-pairwise
// commitment folding and by the L2 Merkle accumulator's pair hash.
// Delegates to curve.Poseidon, the Starknet-conformant permutation over
// the STARK-252 field: original_source's
// crates/tree-builder/src/l2/poseidon.rs calls the equivalent
// starknet_crypto::poseidon_hash_many/poseidon_hash, so this sequencer's
// L2 commitments and Merkle nodes hash the same way a real Starknet
// contract verifying them would.
func HashPair(a, b *big.Int) *big.Int {
	return curve.Poseidon(a, b)
}

// HashSingle duplicates its input (Poseidon(x, x)): the L2 accumulator's
// odd-node promotion rule, deliberately different from the L1
// accumulator's single-hash rule.
func HashSingle(x *big.Int) *big.Int {
	return HashPair(x, x)
}

// HashMany is the batch-mode Poseidon hash over an arbitrary-length
// element vector (used for the 4-element [recipient, amount, nonce,
// timestamp] commitment).
func HashMany(elements ...*big.Int) *big.Int {
	return curve.PoseidonArray(elements...)
}
