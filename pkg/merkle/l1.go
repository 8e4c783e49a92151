package merkle

import "github.com/ethereum/go-ethereum/crypto"

// L1Tree is the Keccak-domain binary Merkle accumulator over L1 deposit
// leaf hashes (see pkg/commitment.L1LeafHash for leaf construction). Pair
// nodes combine as Keccak256(left||right); an odd trailing node at a
// level promotes as Keccak256(node), not Keccak256(node||node).
type L1Tree struct {
	*binaryTree
}

// NewL1Tree returns an empty L1 accumulator.
func NewL1Tree() *L1Tree {
	return &L1Tree{binaryTree: newBinaryTree(l1PairHash, l1OddHash)}
}

func l1PairHash(left, right [32]byte) [32]byte {
	buf := make([]byte, 64)
	copy(buf[:32], left[:])
	copy(buf[32:], right[:])
	var out [32]byte
	copy(out[:], crypto.Keccak256(buf))
	return out
}

func l1OddHash(node [32]byte) [32]byte {
	var out [32]byte
	copy(out[:], crypto.Keccak256(node[:]))
	return out
}
