package treebuilder

import (
	"testing"

	"github.com/zeroxbridge/sequencer/pkg/merkle"
)

func TestToInclusionProofEncodesPositions(t *testing.T) {
	tree := merkle.NewL1Tree()
	leaves := [][32]byte{{1}, {2}, {3}}
	for _, l := range leaves {
		tree.Append(l)
	}

	proof, err := tree.ProofAt(2)
	if err != nil {
		t.Fatalf("proof at 2: %v", err)
	}

	inclusion := toInclusionProof(3, proof)
	if inclusion.LeafIndex != 3 {
		t.Fatalf("leaf index = %d, want 3", inclusion.LeafIndex)
	}
	if len(inclusion.SiblingHashes) != len(inclusion.Positions) {
		t.Fatalf("sibling_hashes and positions length mismatch: %d vs %d",
			len(inclusion.SiblingHashes), len(inclusion.Positions))
	}

	foundSelf := false
	for _, p := range inclusion.Positions {
		if p == "self" {
			foundSelf = true
		}
		if p != "left" && p != "right" && p != "self" {
			t.Fatalf("unexpected position value %q", p)
		}
	}
	if !foundSelf {
		t.Fatal("expected the trailing odd leaf to record a self promotion step")
	}
}
