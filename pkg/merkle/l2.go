package merkle

import "github.com/zeroxbridge/sequencer/pkg/commitment"

// L2Tree is the Poseidon-domain binary Merkle accumulator over L2
// withdrawal leaf hashes. Pair nodes combine as Poseidon(left, right); an
// odd trailing node at a level promotes via the duplicate-self rule
// Poseidon(node, node), deliberately distinct from L1Tree's single-hash
// promotion rule (see commitment hashing layer's two hash domains).
type L2Tree struct {
	*binaryTree
}

// NewL2Tree returns an empty L2 accumulator.
func NewL2Tree() *L2Tree {
	return &L2Tree{binaryTree: newBinaryTree(l2PairHash, l2OddHash)}
}

func l2PairHash(left, right [32]byte) [32]byte {
	l := commitment.FeltFromBytes32(left)
	r := commitment.FeltFromBytes32(right)
	return commitment.BytesFromFelt(commitment.HashPair(l, r))
}

func l2OddHash(node [32]byte) [32]byte {
	f := commitment.FeltFromBytes32(node)
	return commitment.BytesFromFelt(commitment.HashSingle(f))
}
