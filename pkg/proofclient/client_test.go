package proofclient

import (
	"testing"

	"github.com/zeroxbridge/sequencer/pkg/commitment"
	"github.com/zeroxbridge/sequencer/pkg/deposit"
)

func TestProverInputVectorOrdering(t *testing.T) {
	root := "0x" + hex32(0xAA)
	d := &deposit.Deposit{
		ID:             1,
		CommitmentHash: "0x" + hex32(0x11),
		MerkleRoot:     &root,
		InclusionProof: &deposit.InclusionProof{
			SiblingHashes: []string{"0x" + hex32(0x22), "0x" + hex32(0x33)},
			Positions:     []string{"right", "self"},
		},
	}

	fields, err := proverInputVector(d)
	if err != nil {
		t.Fatalf("proverInputVector: %v", err)
	}
	if len(fields) != 4 {
		t.Fatalf("got %d fields, want 4 (commitment + 2 siblings + root)", len(fields))
	}

	commitmentBytes, _ := commitment.MustBytes32Hex32(d.CommitmentHash)
	wantFirst := commitment.FeltFromBytes32(commitmentBytes)
	if fields[0].Cmp(wantFirst) != 0 {
		t.Fatal("first field must be the commitment hash, not a sibling")
	}

	rootBytes, _ := commitment.MustBytes32Hex32(root)
	wantLast := commitment.FeltFromBytes32(rootBytes)
	if fields[len(fields)-1].Cmp(wantLast) != 0 {
		t.Fatal("last field must be the merkle root")
	}
}

func TestProverInputVectorRejectsMalformedCommitment(t *testing.T) {
	root := "0x" + hex32(0xAA)
	d := &deposit.Deposit{
		CommitmentHash: "not-hex",
		MerkleRoot:     &root,
		InclusionProof: &deposit.InclusionProof{},
	}
	if _, err := proverInputVector(d); err == nil {
		t.Fatal("expected error for malformed commitment hash")
	}
}

func hex32(b byte) string {
	out := make([]byte, 64)
	for i := range out {
		out[i] = '0'
	}
	hexDigits := "0123456789abcdef"
	out[62] = hexDigits[(b>>4)&0xf]
	out[63] = hexDigits[b&0xf]
	return string(out)
}
