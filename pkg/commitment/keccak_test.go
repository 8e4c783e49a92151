package commitment

import "testing"

func TestL1LeafHashReferenceVector(t *testing.T) {
	got, err := L1LeafHashHex(
		"0x049d36570d4e46f48e99674bd3fcc84644ddd6b96f7c741b1562b82f9e004dc7",
		50000, 123, 1672531200,
	)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := "0x2b6876060a11edcc5dde925cda8fad185f34564e35802fa40ee8ead2f9acb06f"
	if got != want {
		t.Fatalf("got %s, want %s", got, want)
	}
}

func TestL1LeafHashDeterministic(t *testing.T) {
	caller, _ := ParseBytes32Hex("0x01")
	a := L1LeafHash(caller, 1, 2, 3)
	b := L1LeafHash(caller, 1, 2, 3)
	if a != b {
		t.Fatalf("hash is not deterministic: %x != %x", a, b)
	}
}

func TestL1LeafHashDistinguishesNonce(t *testing.T) {
	caller, _ := ParseBytes32Hex("0x01")
	a := L1LeafHash(caller, 1, 2, 3)
	b := L1LeafHash(caller, 1, 99, 3)
	if a == b {
		t.Fatal("different nonces produced the same hash")
	}
}

func TestParseBytes32HexRejectsBadInput(t *testing.T) {
	cases := []string{"not-hex", "0xzz", ""}
	for _, c := range cases {
		if _, err := ParseBytes32Hex(c); err == nil {
			t.Fatalf("expected error for input %q", c)
		}
	}
}

func TestMustBytes32Hex32RejectsWrongLength(t *testing.T) {
	if _, err := MustBytes32Hex32("0x01"); err == nil {
		t.Fatal("expected error for short hash")
	}
	upper := "0xAB00000000000000000000000000000000000000000000000000000000000000"[:66]
	if _, err := MustBytes32Hex32(upper); err == nil {
		t.Fatal("expected error for non-lowercase hex")
	}
}
