// Package commitment computes the two leaf identifiers used by the
// deposit lifecycle: an L1 byte-domain Keccak hash and an L2 field-domain
// Poseidon hash. Both are pure functions of the deposit's (recipient,
// amount, nonce, timestamp) fields.
package commitment

import (
	"encoding/binary"
	"encoding/hex"
	"strings"

	"github.com/ethereum/go-ethereum/crypto"

	"github.com/zeroxbridge/sequencer/pkg/errs"
)

// L1LeafHash computes Keccak256(caller_bytes32 || amount_be8 || nonce_be8
// || timestamp_be8), the 32-byte Merkle leaf identifier for the L1
// accumulator.
func L1LeafHash(caller [32]byte, amount, nonce, timestamp uint64) [32]byte {
	buf := make([]byte, 0, 56)
	buf = append(buf, caller[:]...)
	buf = binary.BigEndian.AppendUint64(buf, amount)
	buf = binary.BigEndian.AppendUint64(buf, nonce)
	buf = binary.BigEndian.AppendUint64(buf, timestamp)

	var out [32]byte
	copy(out[:], crypto.Keccak256(buf))
	return out
}

// L1LeafHashHex is L1LeafHash with hex-string caller input and a 0x-prefixed
// hex-string output, matching the wire format used by /compute-hash.
func L1LeafHashHex(callerHex string, amount, nonce, timestamp uint64) (string, error) {
	caller, err := ParseBytes32Hex(callerHex)
	if err != nil {
		return "", err
	}
	hash := L1LeafHash(caller, amount, nonce, timestamp)
	return "0x" + hex.EncodeToString(hash[:]), nil
}

// ParseBytes32Hex decodes a 0x-prefixed (or bare) hex string into a
// left-padded 32-byte array. Rejects non-hex characters and overlong
// input; this is the sole failure mode of the commitment layer
// (InvalidInput).
func ParseBytes32Hex(s string) ([32]byte, error) {
	var out [32]byte

	s = strings.TrimPrefix(s, "0x")
	s = strings.TrimPrefix(s, "0X")
	if len(s) == 0 || len(s) > 64 {
		return out, errs.InvalidInput("hex string %q has invalid length", s)
	}

	decoded, err := hex.DecodeString(s)
	if err != nil {
		return out, errs.InvalidInput("hex string %q is not valid hex", s)
	}

	copy(out[32-len(decoded):], decoded)
	return out, nil
}

// MustBytes32Hex32 validates that a hex string decodes to exactly 32 bytes
// (0x + 64 lowercase hex chars), the strict form required when persisting
// or rehydrating commitment hashes and proof siblings.
func MustBytes32Hex32(s string) ([32]byte, error) {
	var out [32]byte

	if !strings.HasPrefix(s, "0x") {
		return out, errs.InvalidInput("hash %q must be 0x + 64 hex chars", s)
	}
	trimmed := s[2:]
	if len(trimmed) != 64 {
		return out, errs.InvalidInput("hash %q must be 0x + 64 hex chars", s)
	}
	for _, c := range trimmed {
		if !((c >= '0' && c <= '9') || (c >= 'a' && c <= 'f')) {
			return out, errs.InvalidInput("hash %q must be lowercase hex", s)
		}
	}

	decoded, err := hex.DecodeString(trimmed)
	if err != nil {
		return out, errs.InvalidInput("hash %q is not valid hex", s)
	}
	copy(out[:], decoded)
	return out, nil
}

// ToHex32 renders a 32-byte hash as a 0x + 64 lowercase-hex-char string.
func ToHex32(h [32]byte) string {
	return "0x" + hex.EncodeToString(h[:])
}
