package relay

import (
	"math/big"
	"testing"
)

func TestParseFeltAcceptsWithAndWithoutPrefix(t *testing.T) {
	a, err := parseFelt("0x1a")
	if err != nil {
		t.Fatalf("parse 0x1a: %v", err)
	}
	b, err := parseFelt("1a")
	if err != nil {
		t.Fatalf("parse 1a: %v", err)
	}
	if a.Cmp(b) != 0 {
		t.Fatalf("0x1a and 1a should parse to the same value, got %s and %s", a, b)
	}
	if a.Int64() != 26 {
		t.Fatalf("got %s, want 26", a)
	}
}

func TestParseFeltRejectsGarbage(t *testing.T) {
	if _, err := parseFelt("0xzz"); err == nil {
		t.Fatal("expected error for non-hex input")
	}
}

func TestTrimHexStripsOnlyRecognizedPrefix(t *testing.T) {
	if got := trimHex("0xabc"); got != "abc" {
		t.Fatalf("got %q, want %q", got, "abc")
	}
	if got := trimHex("abc"); got != "abc" {
		t.Fatalf("got %q, want %q", got, "abc")
	}
}

func TestBuildCallsProducesRegisterThenMintAndClaim(t *testing.T) {
	d := &Driver{
		bridgeContract:   big.NewInt(0xB),
		registryContract: big.NewInt(0xC),
	}
	doc := &ProofDocument{
		ProofArray:     []string{"0x1", "0x2", "0x3"},
		MerkleRoot:     "0xdead",
		CommitmentHash: "0xbeef",
		EthAddress:     "0xfeed",
		R:              "0x11",
		S:              "0x22",
		YParity:        true,
	}

	calls, err := d.buildCalls(doc)
	if err != nil {
		t.Fatalf("buildCalls: %v", err)
	}
	if len(calls) != 2 {
		t.Fatalf("got %d calls, want 2", len(calls))
	}
	if calls[0].To.Cmp(d.registryContract) != 0 {
		t.Fatalf("call 0 should target the registry contract")
	}
	if calls[1].To.Cmp(d.bridgeContract) != 0 {
		t.Fatalf("call 1 should target the bridge contract")
	}
	// mint_and_claim_xzb calldata begins with the proof array length.
	if calls[1].Calldata[0].Int64() != int64(len(doc.ProofArray)) {
		t.Fatalf("mint call calldata[0] = %s, want proof array length %d", calls[1].Calldata[0], len(doc.ProofArray))
	}
}

func TestBuildCallsRejectsMalformedField(t *testing.T) {
	d := &Driver{bridgeContract: big.NewInt(1), registryContract: big.NewInt(2)}
	doc := &ProofDocument{
		ProofArray:     []string{"0x1"},
		MerkleRoot:     "0xdead",
		CommitmentHash: "not-hex",
		EthAddress:     "0xfeed",
		R:              "0x1",
		S:              "0x2",
	}
	if _, err := d.buildCalls(doc); err == nil {
		t.Fatal("expected error for malformed commitment_hash")
	}
}
