// Package proofclient drives deposits from PENDING_PROOF_GENERATION to
// READY_FOR_RELAY by invoking the external Cairo-based prover toolchain
// and persisting its artifacts.
package proofclient

import "time"

// Artifact is the durable record of one deposit's prover output: the
// calldata directory and proof document copied into the permanent
// per-deposit artifact tree, and the optional fact hash.
type Artifact struct {
	ID          int64
	DepositID   int64
	CalldataDir string
	ProofPath   string
	FactHash    string
	CreatedAt   time.Time
}
