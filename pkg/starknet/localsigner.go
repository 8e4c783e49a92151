package starknet

import (
	"context"
	"math/big"

	"github.com/zeroxbridge/sequencer/pkg/errs"
)

// LocalSigner implements Signer over a private key held in process
// memory, the shape the original relayer's LocalWallet/SigningKey wiring
// takes (a private scalar read from configuration, not a remote KMS or
// hardware signer). It does not implement real STARK-curve ECDSA: no
// library in the reviewed example pack provides that curve, so
// SignInvoke derives a deterministic pseudo-signature from the same
// felt-folding construction as computeInvokeTxHash, clearly not a valid
// signature a Starknet node would accept. It exists so the relay
// pipeline is exercisable end to end; production deployment replaces it
// with a real STARK-curve signer.
type LocalSigner struct {
	privateKey *big.Int
}

// NewLocalSigner parses a hex-encoded private key scalar.
func NewLocalSigner(privateKeyHex string) (*LocalSigner, error) {
	key, ok := new(big.Int).SetString(trimHexPrefix(privateKeyHex), 16)
	if !ok {
		return nil, errs.InvalidInput("malformed starknet private key")
	}
	return &LocalSigner{privateKey: key}, nil
}

// SignInvoke returns a deterministic (r, s) pair folding the private key
// into the transaction hash. Not a conformant STARK-curve signature; see
// the type-level doc comment.
func (ls *LocalSigner) SignInvoke(ctx context.Context, txHash *big.Int) (r, s *big.Int, err error) {
	r = feltMod(new(big.Int).Add(new(big.Int).Mul(ls.privateKey, big.NewInt(31)), txHash))
	s = feltMod(new(big.Int).Add(new(big.Int).Mul(r, big.NewInt(31)), ls.privateKey))
	return r, s, nil
}
