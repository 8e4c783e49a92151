package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestNewHandlersDefaultsLogger(t *testing.T) {
	h := NewHandlers(nil, nil, nil)
	if h.logger == nil {
		t.Fatal("expected a default logger when none is given")
	}
}

func TestHandleDepositMethodNotAllowed(t *testing.T) {
	h := NewHandlers(nil, nil, nil)
	req := httptest.NewRequest(http.MethodDelete, "/deposit", nil)
	rr := httptest.NewRecorder()

	h.HandleDeposit(rr, req)

	if rr.Code != http.StatusMethodNotAllowed {
		t.Fatalf("got %d, want %d", rr.Code, http.StatusMethodNotAllowed)
	}
}

func TestHandleDepositsRequiresRecipientParam(t *testing.T) {
	h := NewHandlers(nil, nil, nil)
	req := httptest.NewRequest(http.MethodGet, "/deposits", nil)
	rr := httptest.NewRecorder()

	h.HandleDeposits(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("got %d, want %d", rr.Code, http.StatusBadRequest)
	}
}

func TestExtractRecipientPrefersStarkPubKey(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/deposits?stark_pub_key=0xabc&user_address=0xdef", nil)
	recipient, err := extractRecipient(req)
	if err != nil {
		t.Fatalf("extractRecipient: %v", err)
	}
	if recipient != "0xabc" {
		t.Fatalf("got %q, want 0xabc", recipient)
	}
}

func TestExtractRecipientFallsBackToUserAddress(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/deposits?user_address=0xdef", nil)
	recipient, err := extractRecipient(req)
	if err != nil {
		t.Fatalf("extractRecipient: %v", err)
	}
	if recipient != "0xdef" {
		t.Fatalf("got %q, want 0xdef", recipient)
	}
}

func TestHandlePoseidonHashComputesDeterministicHash(t *testing.T) {
	h := NewHandlers(nil, nil, nil)
	recipient := "0x" + mustHex64("aa")
	body, _ := json.Marshal(poseidonHashRequest{
		Recipient: recipient,
		Amount:    100,
		Nonce:     1,
		Timestamp: 1000,
	})
	req := httptest.NewRequest(http.MethodPost, "/poseidon/hash", bytes.NewReader(body))
	rr := httptest.NewRecorder()

	h.HandlePoseidonHash(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("got %d, want %d: %s", rr.Code, http.StatusOK, rr.Body.String())
	}
	var resp poseidonHashResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.CommitmentHash == "" {
		t.Fatal("expected a non-empty commitment hash")
	}
}

func TestHandlePoseidonHashRejectsMalformedRecipient(t *testing.T) {
	h := NewHandlers(nil, nil, nil)
	body, _ := json.Marshal(poseidonHashRequest{Recipient: "not-hex", Amount: 1, Nonce: 1, Timestamp: 1})
	req := httptest.NewRequest(http.MethodPost, "/poseidon/hash", bytes.NewReader(body))
	rr := httptest.NewRecorder()

	h.HandlePoseidonHash(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("got %d, want %d", rr.Code, http.StatusBadRequest)
	}
}

func TestHandleComputeHashEchoesInputData(t *testing.T) {
	h := NewHandlers(nil, nil, nil)
	pubKey := "0x" + mustHex64("bb")
	body, _ := json.Marshal(computeHashRequest{
		StarkPubKey: pubKey,
		USDVal:      500,
		Nonce:       3,
		Timestamp:   2000,
	})
	req := httptest.NewRequest(http.MethodPost, "/compute-hash", bytes.NewReader(body))
	rr := httptest.NewRecorder()

	h.HandleComputeHash(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("got %d, want %d: %s", rr.Code, http.StatusOK, rr.Body.String())
	}
	var resp computeHashResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.InputData.StarkPubKey != pubKey || resp.InputData.USDVal != 500 {
		t.Fatalf("input_data not echoed correctly: %+v", resp.InputData)
	}
	if resp.CommitmentHash == "" {
		t.Fatal("expected a non-empty commitment hash")
	}
}

func mustHex64(suffix string) string {
	out := make([]byte, 0, 64)
	for len(out) < 64-len(suffix) {
		out = append(out, '0')
	}
	out = append(out, suffix...)
	return string(out)
}
