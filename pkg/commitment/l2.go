package commitment

import "math/big"

// HashMethod selects how the four commitment fields are folded into a
// single Poseidon output.
type HashMethod string

const (
	// BatchHash is the default: a single Poseidon-hash-many call over the
	// 4-element vector [recipient, amount, nonce, timestamp].
	BatchHash HashMethod = "batch"
	// SequentialPairwise folds left: H(H(H(recipient, amount), nonce), timestamp),
	// each step a 2-input Poseidon.
	SequentialPairwise HashMethod = "sequential"
)

// L2CommitmentHash computes the L2-side commitment hash for a deposit.
// recipient is a field element (a Starknet account address); amount,
// nonce, timestamp are lifted into field elements via FeltFromUint64.
// The two methods must and do diverge for non-trivial input, per the
// hash-distinction testable property.
func L2CommitmentHash(recipient *big.Int, amount, nonce, timestamp uint64, method HashMethod) (*big.Int, error) {
	amountFelt := FeltFromUint64(amount)
	nonceFelt := FeltFromUint64(nonce)
	timestampFelt := FeltFromUint64(timestamp)

	switch method {
	case "", BatchHash:
		return HashMany(recipient, amountFelt, nonceFelt, timestampFelt), nil
	case SequentialPairwise:
		h := HashPair(recipient, amountFelt)
		h = HashPair(h, nonceFelt)
		h = HashPair(h, timestampFelt)
		return h, nil
	default:
		return nil, UnknownHashMethod(string(method))
	}
}

// L2CommitmentHashHex is L2CommitmentHash with hex-string recipient input
// and a 0x-prefixed hex-string output, matching /poseidon/hash's wire
// format.
func L2CommitmentHashHex(recipientHex string, amount, nonce, timestamp uint64, method HashMethod) (string, error) {
	recipientBytes, err := ParseBytes32Hex(recipientHex)
	if err != nil {
		return "", err
	}
	recipient := FeltFromBytes32(recipientBytes)

	h, err := L2CommitmentHash(recipient, amount, nonce, timestamp, method)
	if err != nil {
		return "", err
	}
	out := BytesFromFelt(h)
	return ToHex32(out), nil
}
