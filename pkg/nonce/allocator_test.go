package nonce

import "testing"

func TestTableForKnownKinds(t *testing.T) {
	if table, err := tableFor(Deposit); err != nil || table != "deposit_nonces" {
		t.Fatalf("deposit table = %q, err = %v", table, err)
	}
	if table, err := tableFor(Withdrawal); err != nil || table != "withdrawal_nonces" {
		t.Fatalf("withdrawal table = %q, err = %v", table, err)
	}
}

func TestTableForUnknownKind(t *testing.T) {
	if _, err := tableFor(Kind("bogus")); err == nil {
		t.Fatal("expected error for unknown nonce kind")
	}
}
