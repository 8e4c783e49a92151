package commitment

import "math/big"

// starkFieldModulus is the Starknet field prime 2^251 + 17*2^192 + 1. The
// felt conversions in this package reduce into it via math/big; the
// Poseidon hashing itself is delegated to the curve package (poseidon.go).
var starkFieldModulus, _ = new(big.Int).SetString(
	"3618502788666131213697322783095070105623107215331596699973092056135872020481", 10,
)

// FeltModulus returns the Starknet prime field modulus.
func FeltModulus() *big.Int {
	return new(big.Int).Set(starkFieldModulus)
}

// FeltFromUint64 lifts a uint64 into a field element (no reduction needed,
// since any uint64 is already less than the field modulus).
func FeltFromUint64(v uint64) *big.Int {
	return new(big.Int).SetUint64(v)
}

// FeltFromBytesBE reduces a big-endian byte slice into a field element, the
// "big-endian reduction into the prime field" convention used for the
// prover input vector.
func FeltFromBytesBE(b []byte) *big.Int {
	f := new(big.Int).SetBytes(b)
	f.Mod(f, starkFieldModulus)
	return f
}

// FeltFromBytes32 reduces a fixed 32-byte value the same way.
func FeltFromBytes32(b [32]byte) *big.Int {
	return FeltFromBytesBE(b[:])
}

// BytesFromFelt renders a field element as a left-padded 32-byte big-endian
// array, the inverse of FeltFromBytes32.
func BytesFromFelt(f *big.Int) [32]byte {
	var out [32]byte
	reduced := new(big.Int).Mod(f, starkFieldModulus)
	b := reduced.Bytes()
	copy(out[32-len(b):], b)
	return out
}
