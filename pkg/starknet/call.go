package starknet

import "math/big"

// Call is one entry in a Starknet multi-call invocation: a contract
// address, an entry-point selector, and positional calldata, all as
// field elements.
type Call struct {
	To       *big.Int
	Selector *big.Int
	Calldata []*big.Int
}

// RegisterDepositProofCall builds the proof-registry contract's
// register_deposit_proof(commitment_hash, merkle_root) call.
func RegisterDepositProofCall(registryContract, commitmentHash, merkleRoot *big.Int) Call {
	return Call{
		To:       registryContract,
		Selector: RegisterDepositProofSelector,
		Calldata: []*big.Int{feltMod(commitmentHash), feltMod(merkleRoot)},
	}
}

// MintAndClaimCall builds the bridge contract's
// mint_and_claim_xzb(proof_array_len, ...proof_array, commitment_hash,
// eth_address, r_low, r_high, s_low, s_high, y_parity) call. r and s are
// 256-bit integers split into 128-bit limbs per ParseU256Hex;
// yParity is encoded as the felt 0 or 1.
func MintAndClaimCall(bridgeContract *big.Int, proofArray []*big.Int, commitmentHash, ethAddress *big.Int, r, s U256, yParity bool) Call {
	calldata := make([]*big.Int, 0, len(proofArray)+8)
	calldata = append(calldata, big.NewInt(int64(len(proofArray))))
	calldata = append(calldata, proofArray...)
	calldata = append(calldata,
		feltMod(commitmentHash),
		feltMod(ethAddress),
		r.Low, r.High,
		s.Low, s.High,
		yParityFelt(yParity),
	)
	return Call{
		To:       bridgeContract,
		Selector: MintAndClaimSelector,
		Calldata: calldata,
	}
}

func yParityFelt(b bool) *big.Int {
	if b {
		return big.NewInt(1)
	}
	return big.NewInt(0)
}
