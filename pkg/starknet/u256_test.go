package starknet

import (
	"math/big"
	"testing"
)

func TestParseU256HexShortFitsInLowLimb(t *testing.T) {
	u, err := ParseU256Hex("0xabcdef")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	want, _ := new(big.Int).SetString("abcdef", 16)
	if u.Low.Cmp(want) != 0 {
		t.Fatalf("low = %s, want %s", u.Low, want)
	}
	if u.High.Sign() != 0 {
		t.Fatalf("high = %s, want 0", u.High)
	}
}

func TestParseU256HexLongSplitsAtLen32(t *testing.T) {
	// 48 hex chars: the trailing 32 chars form the low limb, the leading
	// 16 form the high limb.
	hexStr := "1122334455667788990011223344556677889900AABBCCDD"
	u, err := ParseU256Hex(hexStr)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	split := len(hexStr) - 32
	wantHigh, _ := new(big.Int).SetString(hexStr[:split], 16)
	wantLow, _ := new(big.Int).SetString(hexStr[split:], 16)
	if u.High.Cmp(wantHigh) != 0 {
		t.Fatalf("high = %s, want %s", u.High, wantHigh)
	}
	if u.Low.Cmp(wantLow) != 0 {
		t.Fatalf("low = %s, want %s", u.Low, wantLow)
	}
}

func TestParseU256HexRejectsEmpty(t *testing.T) {
	if _, err := ParseU256Hex("0x"); err == nil {
		t.Fatal("expected error for empty hex string")
	}
}

func TestSelectorIsStableAndBounded(t *testing.T) {
	a := Selector("mint_and_claim_xzb")
	b := Selector("mint_and_claim_xzb")
	if a.Cmp(b) != 0 {
		t.Fatal("selector must be deterministic")
	}
	if a.BitLen() > 250 {
		t.Fatalf("selector exceeds 250 bits: %d", a.BitLen())
	}
	other := Selector("register_deposit_proof")
	if a.Cmp(other) == 0 {
		t.Fatal("distinct function names must not collide")
	}
}

func TestEncodeMultiCallLayout(t *testing.T) {
	calls := []Call{
		{To: big.NewInt(1), Selector: big.NewInt(100), Calldata: []*big.Int{big.NewInt(7), big.NewInt(8)}},
		{To: big.NewInt(2), Selector: big.NewInt(200), Calldata: []*big.Int{big.NewInt(9)}},
	}
	out := encodeMultiCall(calls)

	if out[0].Int64() != 2 {
		t.Fatalf("num_calls = %d, want 2", out[0].Int64())
	}
	// call 0: to=1, selector=100, offset=0, len=2
	if out[1].Int64() != 1 || out[2].Int64() != 100 || out[3].Int64() != 0 || out[4].Int64() != 2 {
		t.Fatalf("unexpected call 0 descriptor: %v", out[1:5])
	}
	// call 1: to=2, selector=200, offset=2, len=1
	if out[5].Int64() != 2 || out[6].Int64() != 200 || out[7].Int64() != 2 || out[8].Int64() != 1 {
		t.Fatalf("unexpected call 1 descriptor: %v", out[5:9])
	}
	// total calldata len = 3, then concatenated calldata [7, 8, 9]
	if out[9].Int64() != 3 {
		t.Fatalf("total calldata len = %d, want 3", out[9].Int64())
	}
	tail := []int64{out[10].Int64(), out[11].Int64(), out[12].Int64()}
	if tail[0] != 7 || tail[1] != 8 || tail[2] != 9 {
		t.Fatalf("unexpected concatenated calldata: %v", tail)
	}
}
