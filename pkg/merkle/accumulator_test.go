package merkle

import "testing"

func leafFromByte(b byte) [32]byte {
	var l [32]byte
	l[31] = b
	return l
}

func TestL1TreeEmptyRootIsZero(t *testing.T) {
	tr := NewL1Tree()
	if tr.Root() != ([32]byte{}) {
		t.Fatal("empty tree root must be the all-zero sentinel")
	}
}

func TestL1TreeSingletonRootIsLeaf(t *testing.T) {
	tr := NewL1Tree()
	leaf := leafFromByte(0x01)
	tr.Append(leaf)
	if tr.Root() != leaf {
		t.Fatal("singleton tree root must equal its sole leaf")
	}
}

func TestL1TreeRoundTrip(t *testing.T) {
	tr := NewL1Tree()
	leaves := []byte{0x01, 0x02, 0x03, 0x04, 0x05}
	for _, b := range leaves {
		tr.Append(leafFromByte(b))
	}
	for i, b := range leaves {
		proof, err := tr.ProofAt(i)
		if err != nil {
			t.Fatalf("ProofAt(%d): %v", i, err)
		}
		if !tr.Verify(proof, leafFromByte(b)) {
			t.Fatalf("proof for leaf %d failed to verify", i)
		}
	}
}

func TestL1TreeSensitivityToLeafBitFlip(t *testing.T) {
	tr := NewL1Tree()
	leaves := []byte{0x01, 0x02, 0x03, 0x04}
	for _, b := range leaves {
		tr.Append(leafFromByte(b))
	}
	proof, err := tr.ProofAt(1)
	if err != nil {
		t.Fatalf("ProofAt: %v", err)
	}
	tampered := leafFromByte(0x02)
	tampered[0] ^= 0x01
	if tr.Verify(proof, tampered) {
		t.Fatal("proof verified against a tampered leaf")
	}
}

func TestL1TreeSensitivityToSiblingBitFlip(t *testing.T) {
	tr := NewL1Tree()
	leaves := []byte{0x01, 0x02, 0x03, 0x04}
	for _, b := range leaves {
		tr.Append(leafFromByte(b))
	}
	proof, err := tr.ProofAt(1)
	if err != nil {
		t.Fatalf("ProofAt: %v", err)
	}
	proof.Path[0].Hash[0] ^= 0x01
	if tr.Verify(proof, leafFromByte(0x02)) {
		t.Fatal("proof verified after tampering a sibling hash")
	}
}

// TestL1TreeFourLeafExample mirrors the worked example: leaves a, b, c, d
// reduce to root H(H(a,b), H(c,d)); the proof for b is [a, H(c,d)].
func TestL1TreeFourLeafExample(t *testing.T) {
	tr := NewL1Tree()
	a, b, c, d := leafFromByte(0x0a), leafFromByte(0x0b), leafFromByte(0x0c), leafFromByte(0x0d)
	tr.Append(a)
	tr.Append(b)
	tr.Append(c)
	tr.Append(d)

	proof, err := tr.ProofAt(1)
	if err != nil {
		t.Fatalf("ProofAt: %v", err)
	}
	if len(proof.Path) != 2 {
		t.Fatalf("expected a 2-step proof, got %d", len(proof.Path))
	}
	if proof.Path[0].Hash != a || proof.Path[0].Position != Left {
		t.Fatalf("expected first sibling to be a on the left")
	}
	wantCD := l1PairHash(c, d)
	if proof.Path[1].Hash != wantCD || proof.Path[1].Position != Right {
		t.Fatalf("expected second sibling to be H(c,d) on the right")
	}
	if !tr.Verify(proof, b) {
		t.Fatal("four-leaf proof for b failed to verify")
	}
}

func TestL1TreeOddLeafCountPromotionRule(t *testing.T) {
	tr := NewL1Tree()
	a, b, c := leafFromByte(0x01), leafFromByte(0x02), leafFromByte(0x03)
	tr.Append(a)
	tr.Append(b)
	tr.Append(c)

	want := l1PairHash(l1PairHash(a, b), l1OddHash(c))
	if tr.Root() != want {
		t.Fatal("odd leaf count did not promote the trailing node via single-hash rule")
	}

	proof, err := tr.ProofAt(2)
	if err != nil {
		t.Fatalf("ProofAt: %v", err)
	}
	if !tr.Verify(proof, c) {
		t.Fatal("proof for the odd trailing leaf failed to verify")
	}
}

func TestL2TreeRoundTrip(t *testing.T) {
	tr := NewL2Tree()
	leaves := []byte{0x01, 0x02, 0x03, 0x04, 0x05}
	for _, b := range leaves {
		tr.Append(leafFromByte(b))
	}
	for i, b := range leaves {
		proof, err := tr.ProofAt(i)
		if err != nil {
			t.Fatalf("ProofAt(%d): %v", i, err)
		}
		if !tr.Verify(proof, leafFromByte(b)) {
			t.Fatalf("proof for leaf %d failed to verify", i)
		}
	}
}

func TestL2TreeOddLeafCountUsesDuplicateSelf(t *testing.T) {
	tr := NewL2Tree()
	a, b, c := leafFromByte(0x01), leafFromByte(0x02), leafFromByte(0x03)
	tr.Append(a)
	tr.Append(b)
	tr.Append(c)

	want := l2PairHash(l2PairHash(a, b), l2OddHash(c))
	if tr.Root() != want {
		t.Fatal("L2 odd leaf count did not promote via duplicate-self rule")
	}
}

func TestL1AndL2RootsDivergeOnSameLeaves(t *testing.T) {
	l1 := NewL1Tree()
	l2 := NewL2Tree()
	for _, b := range []byte{0x01, 0x02, 0x03} {
		l1.Append(leafFromByte(b))
		l2.Append(leafFromByte(b))
	}
	if l1.Root() == l2.Root() {
		t.Fatal("L1 and L2 roots must diverge: different hash domains and odd-node rules")
	}
}

func TestProofAtOutOfRange(t *testing.T) {
	tr := NewL1Tree()
	tr.Append(leafFromByte(0x01))
	if _, err := tr.ProofAt(5); err == nil {
		t.Fatal("expected error for out-of-range index")
	}
}

func TestProofUnknownLeaf(t *testing.T) {
	tr := NewL1Tree()
	tr.Append(leafFromByte(0x01))
	if _, err := tr.Proof(leafFromByte(0xff)); err == nil {
		t.Fatal("expected error for unknown leaf")
	}
}
